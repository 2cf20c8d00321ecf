package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/mosgim/platform/gateway/internal/proxy"
	"github.com/mosgim/platform/pkg/logging"
)

const (
	QueueDefault = "default"
	// TypeUploadForward forwards an uploaded file to the upload service.
	TypeUploadForward = "upload:forward"
	maxUploadRetries  = 5
)

var ErrEmptyUpload = errors.New("upload payload has no data")

type UploadPayload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

func NewUploadTask(p UploadPayload) (*asynq.Task, error) {
	if len(p.Data) == 0 {
		return nil, ErrEmptyUpload
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeUploadForward, data, asynq.MaxRetry(maxUploadRetries), asynq.Queue(QueueDefault)), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Queue enqueues upload tasks for the worker.
type Queue struct {
	client enqueuer
}

func NewQueue(redisAddr string) *Queue {
	return &Queue{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// EnqueueUpload returns the id of the queued task.
func (q *Queue) EnqueueUpload(ctx context.Context, p UploadPayload) (string, error) {
	task, err := NewUploadTask(p)
	if err != nil {
		return "", err
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.TaskID(uuid.NewString()))
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeUploadForward, err)
	}
	return info.ID, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// UploadHandler processes TypeUploadForward tasks. Transport failures and
// upstream 5xx are retried by asynq; anything else is final.
type UploadHandler struct {
	Forwarder proxy.Forwarder
	URL       string
}

func (h *UploadHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	l := logging.FromContext(ctx).With("task", TypeUploadForward)

	var p UploadPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		l.Warn("upload_task_failed", "reason", "bad payload", "error", err)
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if len(p.Data) == 0 {
		l.Warn("upload_task_failed", "reason", "empty file")
		return fmt.Errorf("%v: %w", ErrEmptyUpload, asynq.SkipRetry)
	}

	resp, err := h.Forwarder.Forward(ctx, proxy.Request{
		Method: http.MethodPost,
		URL:    h.URL,
		Files: []proxy.File{{
			Field:       "file",
			Name:        p.Filename,
			ContentType: p.ContentType,
			Data:        p.Data,
		}},
	})
	if err != nil {
		l.Warn("upload_task_failed", "reason", "upstream", "error", err)
		return err
	}
	switch {
	case resp.Status >= http.StatusInternalServerError:
		l.Warn("upload_task_failed", "reason", "upstream status", "status", resp.Status)
		return fmt.Errorf("upload service returned %d", resp.Status)
	case resp.Status != http.StatusOK:
		l.Warn("upload_task_failed", "reason", "rejected", "status", resp.Status)
		return fmt.Errorf("upload service returned %d: %w", resp.Status, asynq.SkipRetry)
	}

	l.Info("upload_forwarded", "filename", p.Filename, "bytes", len(p.Data))
	return nil
}

func NewServeMux(h *UploadHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeUploadForward, h)
	return mux
}
