package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request is a declarative HTTP request.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Query  map[string]string
	Body   any
}

// NormalizeMethod upper-cases a method, defaulting to GET.
func NormalizeMethod(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(method)
}

// AllowsBody reports whether a body is attached for method.
func AllowsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// ResolvedURL returns the target URL with Query merged into any query
// string already present.
func (r Request) ResolvedURL() (string, error) {
	if len(r.Query) == 0 {
		return r.URL, nil
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range r.Query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Build turns the declarative request into an *http.Request bound to ctx.
// The body is only attached for POST, PUT and PATCH.
func (r Request) Build(ctx context.Context) (*http.Request, error) {
	method := NormalizeMethod(r.Method)
	target, err := r.ResolvedURL()
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	var body io.Reader
	var contentType string
	if AllowsBody(method) && r.Body != nil {
		payload, ct, err := EncodeBody(r.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
		contentType = ct
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// EncodeBody serializes a configured body. Strings and byte slices holding
// JSON are sent as JSON, other text as text/plain, and everything else is
// marshalled to JSON.
func EncodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case string:
		return textOrJSON([]byte(b))
	case []byte:
		return textOrJSON(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return payload, "application/json", nil
	}
}

func textOrJSON(b []byte) ([]byte, string, error) {
	if json.Valid(b) {
		return b, "application/json", nil
	}
	return b, "text/plain; charset=utf-8", nil
}
