package ui

import (
	"context"
	"errors"
	"time"

	"github.com/vk/testrig/internal/model"
)

// ErrBrowserUnavailable is returned by Open when no browser can be
// launched.
var ErrBrowserUnavailable = errors.New("browser capability is not available")

// Browser launches isolated browsing contexts. Availability is fixed when
// the capability is constructed.
type Browser interface {
	Available() bool
	Open(ctx context.Context, opts PageOptions) (Page, error)
}

// PageOptions configure a new browsing context.
type PageOptions struct {
	Viewport  model.Viewport
	UserAgent string
	Headers   map[string]string
}

// Page is one live page. Element operations take a locator string and act
// on its first match; they fail when nothing matches. The caller bounds
// every call with ctx.
type Page interface {
	Navigate(ctx context.Context, url, waitUntil string) (status int, err error)
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	Count(ctx context.Context, selector string) (int, error)
	Visible(ctx context.Context, selector string) (bool, error)
	Text(ctx context.Context, selector string) (string, error)
	Attribute(ctx context.Context, selector, name string) (value string, present bool, err error)

	Click(ctx context.Context, selector string, clicks int) error
	Fill(ctx context.Context, selector, value string) error
	Type(ctx context.Context, selector, value string, delay time.Duration) error
	Select(ctx context.Context, selector, value string) error
	Hover(ctx context.Context, selector string) error
	Focus(ctx context.Context, selector string) error
	ScrollIntoView(ctx context.Context, selector string) error
	SetChecked(ctx context.Context, selector string, checked bool) error
	Upload(ctx context.Context, selector string, files []string) error

	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	Scroll(ctx context.Context, x, y int) error
	Press(ctx context.Context, key string) error
	Evaluate(ctx context.Context, script string) (any, error)
	Performance(ctx context.Context) (*model.PerformanceMetrics, error)

	// Console and Errors return what the page reported so far.
	Console() []model.ConsoleEntry
	Errors() []model.PageError

	Close() error
}
