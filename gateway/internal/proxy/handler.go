package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/pkg/logging"
)

// maxUploadSize caps a single forwarded file.
const maxUploadSize = 64 << 20

// Forwarder is what a route handler needs from Client.
type Forwarder interface {
	Forward(ctx context.Context, req Request) (*Response, error)
}

// Handler forwards requests matching rt to baseURL. An upstream status other
// than the expected one is passed back to the caller with its payload.
func Handler(fw Forwarder, baseURL string, rt Route) echo.HandlerFunc {
	target := strings.TrimRight(baseURL, "/") + rt.upstreamPath()
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "proxy", "route", rt.Path, "upstream", target)

		req, err := buildRequest(c, rt)
		if err != nil {
			l.Warn("proxy_failed", "status", http.StatusUnprocessableEntity, "reason", "invalid request", "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		req.URL = target

		resp, err := fw.Forward(ctx, req)
		if err != nil {
			return upstreamError(c, err)
		}

		if want := rt.expectedStatus(); resp.Status != want {
			l.Warn("upstream_status_mismatch", "status", resp.Status, "expected", want)
		}
		return c.JSON(resp.Status, resp.Payload)
	}
}

// upstreamError maps a Forward error to the gateway response.
func upstreamError(c echo.Context, err error) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		l.Warn("proxy_failed", "status", http.StatusServiceUnavailable, "reason", "upstream unavailable", "error", err)
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Service is unavailable.")
	case errors.Is(err, ErrUpstreamProtocol):
		l.Warn("proxy_failed", "status", http.StatusInternalServerError, "reason", "upstream protocol", "error", err)
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusInternalServerError, "Service error.")
	default:
		l.Error("proxy_failed", "status", http.StatusBadGateway, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Bad gateway")
	}
}

func buildRequest(c echo.Context, rt Route) (Request, error) {
	req := Request{Method: rt.Method}

	if len(rt.Query) > 0 {
		params := c.QueryParams()
		req.Params = make(map[string][]string, len(rt.Query))
		for _, name := range rt.Query {
			if !params.Has(name) {
				return req, fmt.Errorf("missing query parameter %q", name)
			}
			req.Params[name] = []string{params.Get(name)}
		}
	}

	if len(rt.Form) > 0 {
		req.Form = make(map[string]string, len(rt.Form))
		for _, name := range rt.Form {
			v := c.FormValue(name)
			if v == "" {
				return req, fmt.Errorf("missing form field %q", name)
			}
			req.Form[name] = v
		}
	}

	for _, name := range rt.Files {
		f, err := ReadFormFile(c, name)
		if err != nil {
			return req, err
		}
		req.Files = append(req.Files, f)
	}

	if len(rt.Headers) > 0 {
		req.Headers = make(http.Header, len(rt.Headers))
		for _, name := range rt.Headers {
			if v := c.Request().Header.Get(name); v != "" {
				req.Headers.Set(name, v)
			}
		}
	}
	return req, nil
}

// ReadFormFile loads the multipart file field into memory.
func ReadFormFile(c echo.Context, field string) (File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return File{}, fmt.Errorf("missing file field %q", field)
	}
	if fh.Size > maxUploadSize {
		return File{}, fmt.Errorf("file %q is larger than %d bytes", field, maxUploadSize)
	}
	src, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open file %q: %w", field, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read file %q: %w", field, err)
	}
	return File{
		Field:       field,
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Register mounts every route on e. guard wraps the protected ones.
func Register(e *echo.Echo, fw Forwarder, baseURL string, routes []Route, guard echo.MiddlewareFunc) {
	for _, rt := range routes {
		var mw []echo.MiddlewareFunc
		if rt.Protected && guard != nil {
			mw = append(mw, guard)
		}
		e.Add(rt.Method, rt.Path, Handler(fw, baseURL, rt), mw...)
	}
}
