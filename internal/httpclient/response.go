package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Captured is a fully read response.
type Captured struct {
	Status     int
	StatusText string
	Header     map[string]string
	Raw        []byte
	// Bytes is the transferred size: Content-Length when the server sent
	// one, otherwise the number of body bytes read.
	Bytes   int64
	Elapsed time.Duration
}

// Do sends req and reads the whole body. Every status code is a normal
// response; only transport failures return an error. When a response was
// received but its body could not be read, the partial capture is returned
// together with the error.
func Do(client *http.Client, req *http.Request) (*Captured, error) {
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	captured := &Captured{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     FlattenHeader(resp.Header),
		Raw:        raw,
		Bytes:      int64(len(raw)),
		Elapsed:    time.Since(start),
	}
	if resp.ContentLength >= 0 {
		captured.Bytes = resp.ContentLength
	}
	if err != nil {
		return captured, fmt.Errorf("failed to read response body: %w", err)
	}
	return captured, nil
}

// Decoded returns the body as parsed JSON when it is JSON, otherwise as
// text.
func (c *Captured) Decoded() any {
	return DecodeBody(c.Raw)
}

// DecodeBody parses JSON payloads and leaves anything else as a string.
func DecodeBody(raw []byte) any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return string(raw)
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return string(raw)
	}
	return v
}

// FlattenHeader lower-cases header names and joins repeated values.
func FlattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
