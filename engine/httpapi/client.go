// Package httpapi implements engine.Authority over the authority's HTTP/JSON API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ludoterm/engine"
	"ludoterm/gamelog"
	"ludoterm/types"
)

// RequestIDHeader carries a per-request id so both sides can correlate logs.
const RequestIDHeader = "X-Request-Id"

// Client talks to an authority. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

var _ engine.Authority = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the authority at cfg.URL.
func New(cfg engine.GameConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid authority url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid authority url %q: scheme must be http or https", cfg.URL)
	}
	c := &Client{
		base:    base,
		http:    &http.Client{},
		timeout: cfg.RequestTimeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetState fetches the snapshot of the turn in progress.
func (c *Client) GetState(ctx context.Context) (*types.TurnSnapshot, error) {
	var s types.TurnSnapshot
	if err := c.do(ctx, "get_current_board", http.MethodGet, nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SubmitMove posts move under moveID and returns the authority's new snapshot.
func (c *Client) SubmitMove(ctx context.Context, move types.CandidateMove, moveID int) (*types.TurnSnapshot, error) {
	body := types.MoveSubmission{Move: move, MoveID: moveID, TopMoves: []types.TopMove{}}
	var s types.TurnSnapshot
	if err := c.do(ctx, "take_move", http.MethodPost, nil, body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CheckRunningGame reports whether the authority has a game in progress.
func (c *Client) CheckRunningGame(ctx context.Context) (bool, error) {
	var resp struct {
		Running bool `json:"running"`
	}
	if err := c.do(ctx, "check_running_game", http.MethodGet, nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Running, nil
}

// CreateNewGame starts a game with the given seats.
func (c *Client) CreateNewGame(ctx context.Context, seats []types.SeatAssignment) (*types.TurnSnapshot, error) {
	var s types.TurnSnapshot
	if err := c.do(ctx, "create_new_game", http.MethodPost, nil, seats, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Reset discards the running game.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, "reset", http.MethodGet, nil, nil, nil)
}

// ListLogs returns up to n recent runs with their log files.
func (c *Client) ListLogs(ctx context.Context, n int) ([]gamelog.Run, error) {
	q := url.Values{"num_files": {strconv.Itoa(n)}}
	var runs []gamelog.Run
	if err := c.do(ctx, "get_logs", http.MethodGet, q, nil, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetLogFile fetches one recorded game.
func (c *Client) GetLogFile(ctx context.Context, run, file string) (*gamelog.GameLog, error) {
	q := url.Values{"run": {run}, "file": {file}}
	var g gamelog.GameLog
	if err := c.do(ctx, "get_log_file", http.MethodGet, q, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// do performs one request. Every failure is returned as *engine.TransportError.
func (c *Client) do(ctx context.Context, op, method string, query url.Values, in, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.base
	u.Path = u.Path + "/" + op
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &engine.TransportError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &engine.TransportError{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("op", op), zap.String("request_id", reqID), zap.Error(err))
		return &engine.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("op", op),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &engine.TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &engine.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
