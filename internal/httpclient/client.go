// Package httpclient builds the per-invocation HTTP clients used by the
// engines and captures responses in the shape assertions and metrics need.
package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// Options configures a client. A zero MaxRedirects keeps net/http's default
// redirect policy.
type Options struct {
	Timeout         time.Duration
	MaxRedirects    int
	MaxConnsPerHost int
}

// New returns a client owned by a single engine invocation. It is never
// shared across invocations; call Destroy when the invocation ends.
func New(opts Options) *http.Client {
	idlePerHost := 10
	if opts.MaxConnsPerHost > idlePerHost {
		idlePerHost = opts.MaxConnsPerHost
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: idlePerHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	if opts.MaxRedirects > 0 {
		limit := opts.MaxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) > limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	}
	return client
}

// Destroy releases the client's idle connections.
func Destroy(client *http.Client) {
	client.CloseIdleConnections()
}
