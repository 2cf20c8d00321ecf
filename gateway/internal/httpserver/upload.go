package httpserver

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/gateway/internal/proxy"
	"github.com/mosgim/platform/gateway/internal/tasks"
	"github.com/mosgim/platform/pkg/logging"
)

type UploadQueue interface {
	EnqueueUpload(ctx context.Context, p tasks.UploadPayload) (string, error)
}

type UploadHTTP struct {
	Queue UploadQueue
}

// InspectZip lists the entries of an uploaded zip archive.
func (h *UploadHTTP) InspectZip(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload_inspect_zip")

	f, err := proxy.ReadFormFile(c, "file")
	if err != nil {
		l.Warn("inspect_zip_failed", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if f.ContentType != "application/zip" {
		l.Warn("inspect_zip_failed", "status", 409, "reason", "content type", "content_type", f.ContentType)
		return echo.NewHTTPError(http.StatusConflict, "Incorrect file extension")
	}

	zr, err := zip.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		l.Warn("inspect_zip_failed", "status", 400, "reason", "not a zip archive", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid zip archive")
	}

	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") || path.Base(zf.Name) == ".DS_Store" {
			continue
		}
		names = append(names, zf.Name)
	}
	l.Debug("zip_inspected", "filename", f.Name, "entries", len(names))
	return c.JSON(http.StatusOK, echo.Map{"filename": f.Name, "files": names})
}

// UploadAsync queues the file for the worker and returns the task id.
func (h *UploadHTTP) UploadAsync(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload_async")

	if h.Queue == nil {
		l.Warn("upload_async_failed", "status", 503, "reason", "queue not configured")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Upload queue is not configured")
	}

	f, err := proxy.ReadFormFile(c, "file")
	if err != nil {
		l.Warn("upload_async_failed", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	id, err := h.Queue.EnqueueUpload(ctx, tasks.UploadPayload{
		Filename:    f.Name,
		ContentType: f.ContentType,
		Data:        f.Data,
	})
	if err != nil {
		if errors.Is(err, tasks.ErrEmptyUpload) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "Empty file")
		}
		l.Error("upload_async_failed", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Upload queue is unavailable")
	}

	l.Info("upload_enqueued", "task_id", id, "filename", f.Name)
	return c.JSON(http.StatusOK, echo.Map{"task_id": id})
}
