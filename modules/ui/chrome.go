package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/vk/testrig/internal/jsvalue"
	"github.com/vk/testrig/internal/locator"
	"github.com/vk/testrig/internal/model"
)

var chromeCandidates = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// ChromeOptions configure the Chrome capability.
type ChromeOptions struct {
	// ExecPath is the browser executable. When empty the well-known
	// Chrome and Chromium names are searched on PATH.
	ExecPath string
}

// Chrome launches headless Chrome through the DevTools protocol.
type Chrome struct {
	execPath string
}

// NewChrome detects a Chrome executable. The returned capability is
// unavailable when none is found.
func NewChrome(opts ChromeOptions) *Chrome {
	if opts.ExecPath != "" {
		if path, err := exec.LookPath(opts.ExecPath); err == nil {
			return &Chrome{execPath: path}
		}
		return &Chrome{}
	}
	for _, name := range chromeCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return &Chrome{execPath: path}
		}
		if _, err := os.Stat(name); err == nil && strings.HasPrefix(name, "/") {
			return &Chrome{execPath: name}
		}
	}
	return &Chrome{}
}

// Available implements Browser.
func (c *Chrome) Available() bool {
	return c.execPath != ""
}

// Open implements Browser. Each call starts a separate browser process.
func (c *Chrome) Open(ctx context.Context, opts PageOptions) (Page, error) {
	if !c.Available() {
		return nil, ErrBrowserUnavailable
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(c.execPath),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	p := &chromePage{
		ctx: tabCtx,
		close: func() error {
			err := chromedp.Cancel(tabCtx)
			tabCancel()
			allocCancel()
			return err
		},
	}
	chromedp.ListenTarget(tabCtx, p.onEvent)

	setup := []chromedp.Action{
		chromedp.EmulateViewport(int64(opts.Viewport.Width), int64(opts.Viewport.Height)),
	}
	if len(opts.Headers) > 0 {
		headers := network.Headers{}
		for k, v := range opts.Headers {
			headers[k] = v
		}
		setup = append(setup, network.Enable(), network.SetExtraHTTPHeaders(headers))
	}
	if err := chromedp.Run(tabCtx, setup...); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return p, nil
}

// chromePage is a Page backed by one Chrome tab. It is also the live-DOM
// locator.Querier.
type chromePage struct {
	ctx   context.Context
	close func() error

	mu      sync.Mutex
	console []model.ConsoleEntry
	errors  []model.PageError
}

func (p *chromePage) onEvent(ev any) {
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		parts := make([]string, 0, len(ev.Args))
		for _, arg := range ev.Args {
			parts = append(parts, remoteText(arg))
		}
		p.mu.Lock()
		p.console = append(p.console, model.ConsoleEntry{
			Type:      string(ev.Type),
			Text:      strings.Join(parts, " "),
			Timestamp: time.Now().UnixMilli(),
		})
		p.mu.Unlock()
	case *runtime.EventExceptionThrown:
		if ev.ExceptionDetails == nil {
			return
		}
		msg := ev.ExceptionDetails.Text
		if exc := ev.ExceptionDetails.Exception; exc != nil && exc.Description != "" {
			msg = exc.Description
		}
		p.mu.Lock()
		p.errors = append(p.errors, model.PageError{Message: msg, Timestamp: time.Now().UnixMilli()})
		p.mu.Unlock()
	}
}

func remoteText(obj *runtime.RemoteObject) string {
	if len(obj.Value) > 0 {
		var v any
		if err := json.Unmarshal(obj.Value, &v); err == nil {
			return jsvalue.String(v)
		}
	}
	if obj.Description != "" {
		return obj.Description
	}
	return string(obj.Type)
}

// run executes actions in the tab, bounded by the caller's ctx.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// QueryAll implements locator.Querier against the live DOM.
func (p *chromePage) QueryAll(ctx context.Context, q locator.Query) ([]*cdp.Node, error) {
	by := chromedp.ByQueryAll
	if q.Language == locator.XPath {
		by = chromedp.BySearch
	}
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(q.Expr, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (p *chromePage) first(ctx context.Context, selector string) (*cdp.Node, error) {
	h, err := locator.Resolve[*cdp.Node](ctx, p, selector)
	if err != nil {
		return nil, err
	}
	n, ok := h.First()
	if !ok {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	return n, nil
}

// callOn runs a JavaScript function with the element bound to this.
func (p *chromePage) callOn(ctx context.Context, selector, fn string, res any, args ...any) error {
	n, err := p.first(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(n.BackendNodeID).Do(ctx)
		if err != nil {
			return err
		}
		return chromedp.CallFunctionOn(fn, res, func(params *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return params.WithObjectID(obj.ObjectID)
		}, args...).Do(ctx)
	}))
}

func (p *chromePage) Navigate(ctx context.Context, url, waitUntil string) (int, error) {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return 0, err
	}
	if waitUntil == "networkidle" {
		_ = sleep(runCtx, 500*time.Millisecond)
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var url string
	err := p.run(ctx, chromedp.Location(&url))
	return url, err
}

func (p *chromePage) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, chromedp.Title(&title))
	return title, err
}

func (p *chromePage) Count(ctx context.Context, selector string) (int, error) {
	h, err := locator.Resolve[*cdp.Node](ctx, p, selector)
	return h.Count(), err
}

const visibleFn = `function() {
	const s = window.getComputedStyle(this);
	const r = this.getBoundingClientRect();
	return s.visibility !== 'hidden' && s.display !== 'none' && r.width > 0 && r.height > 0;
}`

func (p *chromePage) Visible(ctx context.Context, selector string) (bool, error) {
	if n, err := p.Count(ctx, selector); err != nil || n == 0 {
		return false, err
	}
	var visible bool
	err := p.callOn(ctx, selector, visibleFn, &visible)
	return visible, err
}

func (p *chromePage) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := p.callOn(ctx, selector, `function() { return this.textContent || ''; }`, &text)
	return text, err
}

func (p *chromePage) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var attr struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	err := p.callOn(ctx, selector, `function(name) {
		const v = this.getAttribute(name);
		return v === null ? {present: false, value: ''} : {present: true, value: v};
	}`, &attr, name)
	return attr.Value, attr.Present, err
}

func (p *chromePage) Click(ctx context.Context, selector string, clicks int) error {
	n, err := p.first(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx, chromedp.MouseClickNode(n, chromedp.ClickCount(clicks)))
}

func (p *chromePage) Fill(ctx context.Context, selector, value string) error {
	return p.callOn(ctx, selector, `function(v) {
		this.focus();
		this.value = v;
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`, nil, value)
}

func (p *chromePage) Type(ctx context.Context, selector, value string, delay time.Duration) error {
	n, err := p.first(ctx, selector)
	if err != nil {
		return err
	}
	actions := []chromedp.Action{dom.Focus().WithBackendNodeID(n.BackendNodeID)}
	for _, r := range value {
		actions = append(actions, chromedp.KeyEvent(string(r)), chromedp.Sleep(delay))
	}
	return p.run(ctx, actions...)
}

func (p *chromePage) Select(ctx context.Context, selector, value string) error {
	var ok bool
	err := p.callOn(ctx, selector, `function(v) {
		const opt = Array.from(this.options || []).find(o => o.value === v || o.label === v);
		if (!opt) return false;
		this.value = opt.value;
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	}`, &ok, value)
	if err == nil && !ok {
		err = fmt.Errorf("option %q not found in %s", value, selector)
	}
	return err
}

func (p *chromePage) Hover(ctx context.Context, selector string) error {
	n, err := p.first(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithBackendNodeID(n.BackendNodeID).Do(ctx); err != nil {
			return err
		}
		box, err := dom.GetBoxModel().WithBackendNodeID(n.BackendNodeID).Do(ctx)
		if err != nil {
			return err
		}
		if len(box.Content) < 8 {
			return errors.New("element has no box")
		}
		var x, y float64
		for i := 0; i < 8; i += 2 {
			x += box.Content[i]
			y += box.Content[i+1]
		}
		return input.DispatchMouseEvent(input.MouseMoved, x/4, y/4).Do(ctx)
	}))
}

func (p *chromePage) Focus(ctx context.Context, selector string) error {
	n, err := p.first(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx, dom.Focus().WithBackendNodeID(n.BackendNodeID))
}

func (p *chromePage) ScrollIntoView(ctx context.Context, selector string) error {
	n, err := p.first(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx, dom.ScrollIntoViewIfNeeded().WithBackendNodeID(n.BackendNodeID))
}

func (p *chromePage) SetChecked(ctx context.Context, selector string, checked bool) error {
	var ok bool
	err := p.callOn(ctx, selector, `function(c) {
		if (this.checked !== c) this.click();
		return this.checked === c;
	}`, &ok, checked)
	if err == nil && !ok {
		err = fmt.Errorf("element %s could not be set to checked=%t", selector, checked)
	}
	return err
}

func (p *chromePage) Upload(ctx context.Context, selector string, files []string) error {
	n, err := p.first(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx, dom.SetFileInputFiles(files).WithBackendNodeID(n.BackendNodeID))
}

func (p *chromePage) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	err := p.run(ctx, action)
	return buf, err
}

func (p *chromePage) Scroll(ctx context.Context, x, y int) error {
	return p.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollTo(%d, %d)", x, y), nil))
}

// namedKeys maps key names to the sequences chromedp dispatches.
var namedKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"Delete":     kb.Delete,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"Home":       kb.Home,
	"End":        kb.End,
	"PageUp":     kb.PageUp,
	"PageDown":   kb.PageDown,
	"Space":      " ",
}

func (p *chromePage) Press(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("keyboard step requires a key")
	}
	if seq, ok := namedKeys[key]; ok {
		key = seq
	}
	return p.run(ctx, chromedp.KeyEvent(key))
}

func (p *chromePage) Evaluate(ctx context.Context, script string) (any, error) {
	var res any
	err := p.run(ctx, chromedp.Evaluate(script, &res))
	switch {
	case errors.Is(err, chromedp.ErrJSUndefined):
		return jsvalue.Undefined, nil
	case errors.Is(err, chromedp.ErrJSNull):
		return nil, nil
	}
	return res, err
}

const performanceScript = `(() => {
	const perf = window.performance;
	const nav = perf.getEntriesByType && perf.getEntriesByType('navigation')[0];
	const paint = perf.getEntriesByType && perf.getEntriesByType('paint');
	return {
		domContentLoaded: nav ? Math.round(nav.domContentLoadedEventEnd) : null,
		fullLoad: nav ? Math.round(nav.loadEventEnd) : null,
		domInteractive: nav ? Math.round(nav.domInteractive) : null,
		firstPaint: paint && paint.length > 0 ? Math.round(paint[0].startTime) : null
	};
})()`

func (p *chromePage) Performance(ctx context.Context) (*model.PerformanceMetrics, error) {
	var m model.PerformanceMetrics
	if err := p.run(ctx, chromedp.Evaluate(performanceScript, &m)); err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *chromePage) Console() []model.ConsoleEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ConsoleEntry(nil), p.console...)
}

func (p *chromePage) Errors() []model.PageError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.PageError(nil), p.errors...)
}

func (p *chromePage) Close() error {
	return p.close()
}
