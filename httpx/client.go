package httpx

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/xerrors"
)

// Client calls form-encoded HTTP APIs that answer with JSON.
type Client struct {
	resty *resty.Client
}

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
}

type ClientOption func(*ClientOptions)

func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		o.BaseURL = url
	}
}

func WithClientTimeout(d time.Duration) ClientOption {
	return func(o *ClientOptions) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	o := ClientOptions{Timeout: 10 * time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	rc := resty.New().
		SetTimeout(o.Timeout).
		SetHeader("Accept", "application/json")
	if o.BaseURL != "" {
		rc.SetBaseURL(o.BaseURL)
	}
	return &Client{resty: rc}
}

// RequestOption adjusts a single request.
type RequestOption func(*resty.Request)

func WithRequestHeaders(headers map[string]string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeaders(headers)
	}
}

// PostForm posts form as application/x-www-form-urlencoded and decodes a JSON
// answer into result when it is not nil. Empty values are left out. A non-2xx
// answer is an error; the response is returned either way.
func (c *Client) PostForm(ctx context.Context, path string, form map[string]string, result any, opts ...RequestOption) (*resty.Response, error) {
	fields := make(map[string]string, len(form))
	for k, v := range form {
		if v != "" {
			fields[k] = v
		}
	}

	req := c.resty.R().SetContext(ctx).SetFormData(fields)
	if result != nil {
		req.SetResult(result)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}

	resp, err := req.Post(path)
	if err != nil {
		return resp, xerrors.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		return resp, xerrors.Errorf("post %s: http %d: %s", path, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return resp, nil
}
