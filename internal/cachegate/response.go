package cachegate

import (
	"net/http"
	"net/url"
	"strings"
)

// ResponseType mirrors the fetch response types a browser cache distinguishes.
type ResponseType string

const (
	// TypeBasic is a same-origin response.
	TypeBasic ResponseType = "basic"
	// TypeOpaque is a cross-origin response whose contents must not be cached.
	TypeOpaque ResponseType = "opaque"
	// TypeError is a synthetic network error response.
	TypeError ResponseType = "error"
)

// FallbackHeader marks a response an origin served as the app shell for a route it does
// not know. Such responses are never stored under their own request key.
const FallbackHeader = "X-Document-Fallback"

// Response is a fully buffered upstream response.
type Response struct {
	Status int          `json:"status"`
	Header http.Header  `json:"header,omitempty"`
	Body   []byte       `json:"body,omitempty"`
	Type   ResponseType `json:"type"`
	URL    string       `json:"url,omitempty"`
}

// Clone returns a deep copy so the stored and returned responses never share buffers.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Header = r.Header.Clone()
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return &out
}

// Cacheable reports whether the response may be stored: a same-origin 200 that is not
// an app shell fallback.
func (r *Response) Cacheable() bool {
	return r != nil && r.Status == http.StatusOK && r.Type == TypeBasic && r.Header.Get(FallbackHeader) == ""
}

// RequestKey identifies a request by method and URL (path plus query).
func RequestKey(method string, u *url.URL) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	target := "/"
	if u != nil {
		target = u.RequestURI()
	}
	return method + " " + target
}

// isNavigation reports whether req loads a full document.
func isNavigation(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if mode := req.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
}

func stripHopHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		out = http.Header{}
	}
	for _, k := range hopHeaders {
		out.Del(k)
	}
	return out
}
