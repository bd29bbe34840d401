package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ludoterm/engine"
	"ludoterm/types"
)

// Feed subscribes to snapshots pushed by the authority over a WebSocket.
type Feed struct {
	url    string
	dialer *websocket.Dialer
	log    *zap.Logger
}

var _ engine.SnapshotFeed = (*Feed)(nil)

// NewFeed creates a feed for the WebSocket endpoint at pushURL.
func NewFeed(pushURL string, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{url: pushURL, dialer: websocket.DefaultDialer, log: log}
}

// Subscribe connects and streams snapshots until ctx is done or the
// connection fails. The returned channel is closed when streaming stops.
func (f *Feed) Subscribe(ctx context.Context) (<-chan *types.TurnSnapshot, error) {
	header := http.Header{}
	header.Set(RequestIDHeader, uuid.NewString())
	conn, resp, err := f.dialer.DialContext(ctx, f.url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &engine.TransportError{Op: "subscribe", Status: status, Err: err}
	}

	out := make(chan *types.TurnSnapshot)
	done := make(chan struct{})

	// Unblock ReadJSON when the caller gives up.
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	go func() {
		defer close(out)
		defer close(done)
		for {
			var s types.TurnSnapshot
			if err := conn.ReadJSON(&s); err != nil {
				if ctx.Err() == nil {
					f.log.Warn("push feed closed", zap.String("url", f.url), zap.Error(err))
				}
				return
			}
			select {
			case out <- &s:
			case <-ctx.Done():
				return
			}
		}
	}()

	f.log.Info("push feed connected", zap.String("url", f.url))
	return out, nil
}

// PushURL derives the conventional WebSocket endpoint from an HTTP base URL.
func PushURL(baseURL string) (string, error) {
	rest := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(rest, "http://"):
		return "ws://" + strings.TrimPrefix(rest, "http://") + "/ws", nil
	case strings.HasPrefix(rest, "https://"):
		return "wss://" + strings.TrimPrefix(rest, "https://") + "/ws", nil
	}
	return "", fmt.Errorf("cannot derive push url from %q", baseURL)
}
