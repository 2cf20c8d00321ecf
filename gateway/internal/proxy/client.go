package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const DefaultTimeout = 59 * time.Second

// maxResponseBody caps how much of an upstream reply is buffered.
const maxResponseBody = 32 << 20

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamProtocol    = errors.New("upstream response is not valid json")
)

type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

type Request struct {
	Method  string
	URL     string
	Params  url.Values
	Form    map[string]string
	Files   []File
	Headers http.Header
}

type Response struct {
	Status  int
	Payload any
}

type Client struct {
	http    *http.Client
	timeout time.Duration
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{http: &http.Client{Transport: transport}, timeout: timeout}
}

// Forward performs one upstream call bounded by the client timeout and ctx.
// Transport failures wrap ErrUpstreamUnavailable and undecodable bodies wrap
// ErrUpstreamProtocol. Any status is returned as is; callers decide what an
// unexpected one means.
func (c *Client) Forward(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("proxy: parse url: %w", err)
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("proxy: encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("proxy: build request: %w", err)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	out := &Response{Status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out.Payload); err != nil {
		return nil, fmt.Errorf("%w: status %d: %v", ErrUpstreamProtocol, resp.StatusCode, err)
	}
	return out, nil
}

func encodeBody(req Request) (io.Reader, string, error) {
	if len(req.Files) > 0 {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range req.Form {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
		for _, f := range req.Files {
			part, err := w.CreatePart(filePartHeader(f))
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(f.Data); err != nil {
				return nil, "", err
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}

	if len(req.Form) > 0 {
		form := url.Values{}
		for k, v := range req.Form {
			form.Set(k, v)
		}
		return strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil
	}
	return nil, "", nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func filePartHeader(f File) textproto.MIMEHeader {
	name := f.Name
	if name == "" {
		name = f.Field
	}
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", ct)
	return h
}
