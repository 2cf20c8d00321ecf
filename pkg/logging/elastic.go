package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
)

type ElasticConfig struct {
	URL      string
	Username string
	Password string
	Index    string
	Level    string
	Buffer   int
}

// ElasticSink ships log records to an Elasticsearch index from a single
// background goroutine. Records are dropped when the buffer is full so a
// slow cluster never blocks request handling.
type ElasticSink struct {
	es    *elasticsearch.Client
	index string
	level slog.Level
	docs  chan []byte
	done  chan struct{}
	once  sync.Once
}

func NewElasticSink(cfg ElasticConfig) (*ElasticSink, error) {
	if cfg.Index == "" {
		cfg.Index = "service-logs"
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic client: %w", err)
	}

	s := &ElasticSink{
		es:    client,
		index: cfg.Index,
		level: ParseLevel(cfg.Level),
		docs:  make(chan []byte, cfg.Buffer),
		done:  make(chan struct{}),
	}
	go s.run()
	return s, nil
}

func (s *ElasticSink) run() {
	defer close(s.done)
	for doc := range s.docs {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		res, err := s.es.Index(s.index, bytes.NewReader(doc), s.es.Index.WithContext(ctx))
		cancel()
		if err != nil {
			continue
		}
		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}
}

// Close flushes buffered records and stops the shipping goroutine.
func (s *ElasticSink) Close() {
	s.once.Do(func() { close(s.docs) })
	<-s.done
}

func (s *ElasticSink) Handler() slog.Handler {
	return &elasticHandler{sink: s}
}

func (s *ElasticSink) enqueue(doc []byte) {
	defer func() { _ = recover() }() // sink already closed
	select {
	case s.docs <- doc:
	default:
	}
}

type elasticHandler struct {
	sink   *ElasticSink
	attrs  []slog.Attr
	prefix string
}

func (h *elasticHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.sink.level
}

func (h *elasticHandler) Handle(_ context.Context, r slog.Record) error {
	doc := map[string]any{
		"@timestamp": r.Time.UTC().Format(time.RFC3339Nano),
		"level":      r.Level.String(),
		"message":    r.Message,
	}
	for _, a := range h.attrs {
		addAttr(doc, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(doc, h.prefix, a)
		return true
	})

	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	h.sink.enqueue(b)
	return nil
}

func (h *elasticHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &elasticHandler{sink: h.sink, prefix: h.prefix}
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return next
}

func (h *elasticHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &elasticHandler{sink: h.sink, attrs: h.attrs, prefix: h.prefix + name + "."}
}

func addAttr(doc map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addAttr(doc, prefix+a.Key+".", ga)
		}
		return
	}
	switch v := a.Value.Any().(type) {
	case error:
		doc[prefix+a.Key] = v.Error()
	default:
		doc[prefix+a.Key] = v
	}
}

// Setup builds the process logger. When es.URL is set records are also
// shipped to Elasticsearch; the returned func flushes the sink.
func Setup(level string, es ElasticConfig) (*slog.Logger, func(), error) {
	if es.URL == "" {
		return New(level), func() {}, nil
	}
	if es.Level == "" {
		es.Level = level
	}
	sink, err := NewElasticSink(es)
	if err != nil {
		return nil, nil, err
	}
	return New(level, sink.Handler()), sink.Close, nil
}
