package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vk/testrig/internal/locator"
	"github.com/vk/testrig/internal/model"
	"golang.org/x/net/html"
)

// fakeBrowser hands out a single prepared page.
type fakeBrowser struct {
	available bool
	page      *fakePage
	openErr   error
}

func (b *fakeBrowser) Available() bool { return b.available }

func (b *fakeBrowser) Open(_ context.Context, opts PageOptions) (Page, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.page.opts = opts
	return b.page, nil
}

// fakePage answers element queries from a static document and records
// every action it performs.
type fakePage struct {
	doc     *locator.Document
	url     string
	status  int
	navErr  error
	console []model.ConsoleEntry
	eval    any
	panicOn string

	mu     sync.Mutex
	opts   PageOptions
	calls  []string
	closed bool
}

func newFakePage(markup string) *fakePage {
	doc, err := locator.ParseDocumentString(markup)
	if err != nil {
		panic(err)
	}
	return &fakePage{doc: doc, url: "http://app.test/", status: 200}
}

func (f *fakePage) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakePage) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePage) first(ctx context.Context, sel string) (*html.Node, error) {
	if f.panicOn != "" && sel == f.panicOn {
		panic("driver crashed")
	}
	h, err := locator.Resolve[*html.Node](ctx, f.doc, sel)
	if err != nil {
		return nil, err
	}
	n, ok := h.First()
	if !ok {
		return nil, fmt.Errorf("no element matches %q", sel)
	}
	return n, nil
}

func (f *fakePage) act(ctx context.Context, name, sel string) error {
	if _, err := f.first(ctx, sel); err != nil {
		return err
	}
	f.record("%s %s", name, sel)
	return nil
}

func (f *fakePage) Navigate(_ context.Context, url, waitUntil string) (int, error) {
	f.record("navigate %s %s", url, waitUntil)
	if f.navErr != nil {
		return 0, f.navErr
	}
	f.url = url
	return f.status, nil
}

func (f *fakePage) URL(context.Context) (string, error)   { return f.url, nil }
func (f *fakePage) Title(context.Context) (string, error) { return f.doc.Title(), nil }

func (f *fakePage) Count(ctx context.Context, sel string) (int, error) {
	if f.panicOn != "" && sel == f.panicOn {
		panic("driver crashed")
	}
	h, err := locator.Resolve[*html.Node](ctx, f.doc, sel)
	return h.Count(), err
}

func (f *fakePage) Visible(ctx context.Context, sel string) (bool, error) {
	n, err := f.Count(ctx, sel)
	return n > 0, err
}

func (f *fakePage) Text(ctx context.Context, sel string) (string, error) {
	n, err := f.first(ctx, sel)
	if err != nil {
		return "", err
	}
	return locator.Text(n), nil
}

func (f *fakePage) Attribute(ctx context.Context, sel, name string) (string, bool, error) {
	n, err := f.first(ctx, sel)
	if err != nil {
		return "", false, err
	}
	v, ok := locator.Attr(n, name)
	return v, ok, nil
}

func (f *fakePage) Click(ctx context.Context, sel string, clicks int) error {
	return f.act(ctx, fmt.Sprintf("click%d", clicks), sel)
}

func (f *fakePage) Fill(ctx context.Context, sel, value string) error {
	return f.act(ctx, "fill="+value, sel)
}

func (f *fakePage) Type(ctx context.Context, sel, value string, _ time.Duration) error {
	return f.act(ctx, "type="+value, sel)
}

func (f *fakePage) Select(ctx context.Context, sel, value string) error {
	return f.act(ctx, "select="+value, sel)
}

func (f *fakePage) Hover(ctx context.Context, sel string) error { return f.act(ctx, "hover", sel) }
func (f *fakePage) Focus(ctx context.Context, sel string) error { return f.act(ctx, "focus", sel) }

func (f *fakePage) ScrollIntoView(ctx context.Context, sel string) error {
	return f.act(ctx, "scrollIntoView", sel)
}

func (f *fakePage) SetChecked(ctx context.Context, sel string, checked bool) error {
	return f.act(ctx, fmt.Sprintf("checked=%t", checked), sel)
}

func (f *fakePage) Upload(ctx context.Context, sel string, files []string) error {
	return f.act(ctx, "upload="+strings.Join(files, ","), sel)
}

func (f *fakePage) Screenshot(_ context.Context, fullPage bool) ([]byte, error) {
	f.record("screenshot full=%t", fullPage)
	return []byte("png"), nil
}

func (f *fakePage) Scroll(_ context.Context, x, y int) error {
	f.record("scroll %d,%d", x, y)
	return nil
}

func (f *fakePage) Press(_ context.Context, key string) error {
	if key == "" {
		return errors.New("keyboard step requires a key")
	}
	f.record("press %s", key)
	return nil
}

func (f *fakePage) Evaluate(_ context.Context, script string) (any, error) {
	f.record("evaluate")
	return f.eval, nil
}

func (f *fakePage) Performance(context.Context) (*model.PerformanceMetrics, error) {
	v := int64(12)
	return &model.PerformanceMetrics{DOMContentLoaded: &v}, nil
}

func (f *fakePage) Console() []model.ConsoleEntry { return f.console }
func (f *fakePage) Errors() []model.PageError     { return nil }

func (f *fakePage) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
