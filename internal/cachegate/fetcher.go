package cachegate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodyBytes bounds how much of an upstream body is buffered.
const maxBodyBytes = 32 << 20

// Fetcher performs the network leg of a request.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request) (*Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req *http.Request) (*Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPFetcher forwards requests to a remote origin.
type HTTPFetcher struct {
	origin *url.URL
	client *http.Client
}

// NewHTTPFetcher builds a fetcher for origin. A nil client uses a 15s timeout client.
func NewHTTPFetcher(origin string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(origin), "/"))
	if err != nil {
		return nil, fmt.Errorf("cache gate: parse origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("cache gate: origin %q must be an absolute http(s) URL", origin)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{origin: u, client: client}, nil
}

// Fetch issues req against the origin. Responses that end on another host are opaque.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	target := *f.origin
	target.Path = strings.TrimRight(f.origin.Path, "/") + req.URL.Path
	target.RawQuery = req.URL.RawQuery

	out, err := http.NewRequestWithContext(ctx, req.Method, target.String(), nil)
	if err != nil {
		return nil, err
	}
	out.Header = stripHopHeaders(req.Header)
	out.Header.Del("Cookie")
	out.Header.Del("Authorization")

	resp, err := f.client.Do(out)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New("cache gate: upstream body too large")
	}

	typ := TypeBasic
	finalURL := target.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
		if !strings.EqualFold(resp.Request.URL.Host, f.origin.Host) || resp.Request.URL.Scheme != f.origin.Scheme {
			typ = TypeOpaque
		}
	}

	return &Response{
		Status: resp.StatusCode,
		Header: stripHopHeaders(resp.Header),
		Body:   body,
		Type:   typ,
		URL:    finalURL,
	}, nil
}

// HandlerFetcher serves requests from an in-process handler, such as the embedded web build.
type HandlerFetcher struct {
	handler http.Handler
}

// NewHandlerFetcher wraps h.
func NewHandlerFetcher(h http.Handler) *HandlerFetcher {
	return &HandlerFetcher{handler: h}
}

// Fetch runs the handler against a copy of req. Results are always same-origin.
func (f *HandlerFetcher) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	if f.handler == nil {
		return nil, errors.New("cache gate: no handler configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &bufferedWriter{header: http.Header{}}
	f.handler.ServeHTTP(w, req.Clone(ctx))

	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{
		Status: status,
		Header: stripHopHeaders(w.header),
		Body:   w.body.Bytes(),
		Type:   TypeBasic,
		URL:    req.URL.RequestURI(),
	}, nil
}

type bufferedWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}
