// Package engine defines the interface to the remote game authority.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ludoterm/gamelog"
	"ludoterm/types"
)

// ErrNoGameRunning is returned when the authority has no game in progress.
var ErrNoGameRunning = errors.New("no game running")

// Authority is the remote service that owns the rules, generates the legal
// moves of every turn and accepts the moves players take.
type Authority interface {
	// GetState returns the snapshot of the turn in progress.
	GetState(ctx context.Context) (*types.TurnSnapshot, error)

	// SubmitMove takes move under moveID and returns the resulting snapshot.
	// The authority ignores a moveID other than last_move_id+1.
	SubmitMove(ctx context.Context, move types.CandidateMove, moveID int) (*types.TurnSnapshot, error)

	// CheckRunningGame reports whether a game is in progress.
	CheckRunningGame(ctx context.Context) (bool, error)

	// CreateNewGame starts a game with the given seats and returns its first snapshot.
	CreateNewGame(ctx context.Context, seats []types.SeatAssignment) (*types.TurnSnapshot, error)

	// Reset discards the running game.
	Reset(ctx context.Context) error

	// ListLogs returns up to n recent runs and their log files.
	ListLogs(ctx context.Context, n int) ([]gamelog.Run, error)

	// GetLogFile fetches one recorded game.
	GetLogFile(ctx context.Context, run, file string) (*gamelog.GameLog, error)
}

// SnapshotFeed is a push channel of snapshots from the authority.
type SnapshotFeed interface {
	// Subscribe delivers snapshots on the returned channel until ctx is done
	// or the connection drops, then closes it.
	Subscribe(ctx context.Context) (<-chan *types.TurnSnapshot, error)
}

// TransportError wraps any failure to complete a request with the authority.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// GameConfig holds configuration for talking to an authority.
type GameConfig struct {
	URL            string        // Base URL of the authority's HTTP API
	PushURL        string        // WebSocket URL for pushed snapshots, empty to poll only
	PollInterval   time.Duration // Time between state polls
	RequestTimeout time.Duration // Deadline applied to each request
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() GameConfig {
	return GameConfig{
		URL:            "http://localhost:5000",
		PollInterval:   2 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

// DefaultSeats returns the doubles setup: a human on red and yellow
// against an AI on green and blue.
func DefaultSeats() []types.SeatAssignment {
	return []types.SeatAssignment{
		{Mode: types.ModeHuman, Colours: []types.Colour{types.Red, types.Yellow}},
		{Mode: types.ModeAI, Colours: []types.Colour{types.Green, types.Blue}},
	}
}
