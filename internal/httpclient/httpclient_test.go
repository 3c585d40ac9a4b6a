package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_AttachesBodyOnlyForWriteMethods(t *testing.T) {
	ctx := context.Background()

	req, err := Request{Method: "post", URL: "http://example.test/a", Body: map[string]any{"x": 1}}.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	payload, _ := io.ReadAll(req.Body)
	assert.JSONEq(t, `{"x":1}`, string(payload))

	req, err = Request{URL: "http://example.test/a", Body: "ignored"}.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Nil(t, req.Body)
}

func TestBuild_MergesQueryAndHeaders(t *testing.T) {
	req, err := Request{
		URL:    "http://example.test/search?q=go",
		Query:  map[string]string{"page": "2"},
		Header: map[string]string{"X-Token": "t"},
	}.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "go", req.URL.Query().Get("q"))
	assert.Equal(t, "2", req.URL.Query().Get("page"))
	assert.Equal(t, "t", req.Header.Get("X-Token"))
}

func TestEncodeBody(t *testing.T) {
	_, ct, err := EncodeBody(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)

	_, ct, err = EncodeBody("plain words")
	require.NoError(t, err)
	assert.Contains(t, ct, "text/plain")
}

func TestDo_CapturesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(Options{Timeout: time.Second})
	defer Destroy(client)

	req, err := Request{URL: srv.URL}.Build(context.Background())
	require.NoError(t, err)

	captured, err := Do(client, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, captured.Status)
	assert.Equal(t, "I'm a teapot", captured.StatusText)
	assert.Equal(t, "a, b", captured.Header["x-multi"])
	assert.Equal(t, map[string]any{"ok": true}, captured.Decoded())
	assert.Equal(t, int64(len(`{"ok":true}`)), captured.Bytes)
}

func TestNew_LimitsRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	client := New(Options{Timeout: time.Second, MaxRedirects: 3})
	req, err := Request{URL: srv.URL}.Build(context.Background())
	require.NoError(t, err)

	_, err = Do(client, req)
	assert.ErrorContains(t, err, "stopped after 3 redirects")
}

func TestDecodeBody(t *testing.T) {
	assert.Equal(t, "<html></html>", DecodeBody([]byte("<html></html>")))
	assert.Equal(t, []any{float64(1)}, DecodeBody([]byte(" [1] ")))
	assert.Equal(t, "", DecodeBody(nil))
}
