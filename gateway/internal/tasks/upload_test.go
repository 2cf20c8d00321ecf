package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosgim/platform/gateway/internal/proxy"
)

type fakeForwarder struct {
	got  []proxy.Request
	resp *proxy.Response
	err  error
}

func (f *fakeForwarder) Forward(_ context.Context, req proxy.Request) (*proxy.Response, error) {
	f.got = append(f.got, req)
	return f.resp, f.err
}

func TestQueue_EnqueueUpload(t *testing.T) {
	mr := miniredis.RunT(t)
	q := NewQueue(mr.Addr())
	defer q.Close()

	id, err := q.EnqueueUpload(context.Background(), UploadPayload{Filename: "a.zip", Data: []byte("zip")})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.True(t, mr.Exists("asynq:{default}:t:"+id))
	pending, err := mr.List("asynq:{default}:pending")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, pending)
}

func TestQueue_RejectsEmptyUpload(t *testing.T) {
	mr := miniredis.RunT(t)
	q := NewQueue(mr.Addr())
	defer q.Close()

	_, err := q.EnqueueUpload(context.Background(), UploadPayload{Filename: "a.zip"})
	assert.ErrorIs(t, err, ErrEmptyUpload)
}

func TestUploadHandler_Forwards(t *testing.T) {
	fw := &fakeForwarder{resp: &proxy.Response{Status: http.StatusOK}}
	h := &UploadHandler{Forwarder: fw, URL: "http://upload/uploadfile"}

	task, err := NewUploadTask(UploadPayload{Filename: "a.zip", ContentType: "application/zip", Data: []byte("zip")})
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	require.Len(t, fw.got, 1)
	req := fw.got[0]
	assert.Equal(t, "http://upload/uploadfile", req.URL)
	require.Len(t, req.Files, 1)
	assert.Equal(t, "file", req.Files[0].Field)
	assert.Equal(t, "a.zip", req.Files[0].Name)
	assert.Equal(t, []byte("zip"), req.Files[0].Data)
}

func TestUploadHandler_RetryPolicy(t *testing.T) {
	good, err := NewUploadTask(UploadPayload{Filename: "a.zip", Data: []byte("zip")})
	require.NoError(t, err)
	empty, err := json.Marshal(UploadPayload{Filename: "a.zip"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		task      *asynq.Task
		fw        *fakeForwarder
		wantSkip  bool
		wantError bool
	}{
		{name: "bad payload", task: asynq.NewTask(TypeUploadForward, []byte("{")), fw: &fakeForwarder{}, wantSkip: true, wantError: true},
		{name: "empty file", task: asynq.NewTask(TypeUploadForward, empty), fw: &fakeForwarder{}, wantSkip: true, wantError: true},
		{name: "upstream down", task: good, fw: &fakeForwarder{err: proxy.ErrUpstreamUnavailable}, wantError: true},
		{name: "upstream 5xx", task: good, fw: &fakeForwarder{resp: &proxy.Response{Status: http.StatusBadGateway}}, wantError: true},
		{name: "upstream rejects", task: good, fw: &fakeForwarder{resp: &proxy.Response{Status: http.StatusBadRequest}}, wantSkip: true, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &UploadHandler{Forwarder: tt.fw, URL: "http://upload/uploadfile"}
			err := h.ProcessTask(context.Background(), tt.task)
			assert.Equal(t, tt.wantError, err != nil)
			assert.Equal(t, tt.wantSkip, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestNewUploadTask_Options(t *testing.T) {
	task, err := NewUploadTask(UploadPayload{Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, TypeUploadForward, task.Type())
}
