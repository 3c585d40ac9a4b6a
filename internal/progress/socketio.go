package progress

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/model"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ProgressEvent is the socket.io event name snapshots are emitted under.
const ProgressEvent = "execution:progress"

// SocketIOOptions configures the live dashboard stream.
type SocketIOOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// SocketIO emits every snapshot to a socket.io server so a dashboard can
// follow a run live.
type SocketIO struct {
	io *socket.Socket
}

// DialSocketIO connects to the dashboard and waits for the connection to be
// acknowledged.
func DialSocketIO(ctx context.Context, opts SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if opts.Namespace == "" {
		opts.Namespace = "/"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 15 * time.Second
	}

	sockOpts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		sockOpts.SetPath(parsedURL.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Progress stream connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIO{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(opts.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", opts.ConnectTimeout)
	}
}

// For returns a sink that tags every snapshot with the test case it
// belongs to.
func (s *SocketIO) For(tc *model.TestCase) Sink {
	return SinkFunc(func(ctx context.Context, snapshot *model.ExecutionResult) {
		payload, err := toPayload(snapshot)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to encode progress snapshot.", "error", err)
			return
		}
		s.io.Emit(ProgressEvent, map[string]any{
			"name":     tc.Name,
			"type":     string(tc.Type),
			"snapshot": payload,
		})
	})
}

// Close disconnects from the dashboard.
func (s *SocketIO) Close() error {
	s.io.Disconnect()
	return nil
}

// toPayload reshapes the snapshot into plain maps so the socket.io encoder
// sees exactly the JSON field names.
func toPayload(snapshot *model.ExecutionResult) (map[string]any, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
