package cachegate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherSameOrigin(t *testing.T) {
	var forwardedAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwardedAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("body{}" + r.URL.RawQuery))
	}))
	defer srv.Close()

	fetcher, err := NewHTTPFetcher(srv.URL+"/", srv.Client())
	require.NoError(t, err)

	req := get("/assets/styles/main.css?v=3")
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, TypeBasic, resp.Type)
	require.Equal(t, "body{}v=3", string(resp.Body))
	require.True(t, resp.Cacheable())
	require.Empty(t, forwardedAuth)
}

func TestHTTPFetcherCrossOriginRedirectIsOpaque(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("font"))
	}))
	defer cdn.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, cdn.URL+"/font.woff2", http.StatusFound)
	}))
	defer origin.Close()

	fetcher, err := NewHTTPFetcher(origin.URL, origin.Client())
	require.NoError(t, err)

	resp, err := fetcher.Fetch(context.Background(), get("/fonts/garden.woff2"))
	require.NoError(t, err)
	require.Equal(t, TypeOpaque, resp.Type)
	require.False(t, resp.Cacheable())
}

func TestNewHTTPFetcherRejectsRelativeOrigin(t *testing.T) {
	_, err := NewHTTPFetcher("/static", nil)
	require.Error(t, err)
	_, err = NewHTTPFetcher("ftp://example.com", nil)
	require.Error(t, err)
}

func TestHandlerFetcherServesFiles(t *testing.T) {
	files := fstest.MapFS{
		"index.html":    {Data: []byte("<html>garden</html>")},
		"manifest.json": {Data: []byte(`{"name":"Tarot Garden"}`)},
	}
	fetcher := NewHandlerFetcher(http.FileServer(http.FS(files)))

	resp, err := fetcher.Fetch(context.Background(), get("/manifest.json"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, TypeBasic, resp.Type)
	require.JSONEq(t, `{"name":"Tarot Garden"}`, string(resp.Body))

	missing, err := fetcher.Fetch(context.Background(), get("/nope.css"))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, missing.Status)
	require.False(t, missing.Cacheable())
}

func TestHandlerFetcherHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHandlerFetcher(http.NotFoundHandler()).Fetch(ctx, get("/"))
	require.ErrorIs(t, err, context.Canceled)
}
