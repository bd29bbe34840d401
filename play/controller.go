// Package play runs a turn-selection session against an authority: it polls
// for snapshots, applies clicks and submits resolved moves, all from a single
// event loop.
package play

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ludoterm/engine"
	"ludoterm/selection"
	"ludoterm/types"
)

// View is a copy of the session state for rendering.
type View struct {
	Version     int
	Session     string
	Snapshot    *types.TurnSnapshot
	Phase       selection.Phase
	Selectable  []types.PawnID
	Pending     []types.PawnID
	Locked      []types.Step
	Highlighted []types.Position
	Candidates  int
	Resolution  selection.Resolution
	Submitting  bool
	Err         error
}

// MyTurn reports whether the seat to move takes clicks.
func (v View) MyTurn() bool {
	return v.Snapshot != nil && !v.Snapshot.GameOver && v.Snapshot.CurrentMode() != types.ModeAI
}

// Options configures a Controller.
type Options struct {
	PollInterval time.Duration
	Mode         selection.MatchMode
	Feed         engine.SnapshotFeed // optional push channel
	Logger       *zap.Logger
	OnUpdate     func(View) // called from the event loop after every change
}

type msg interface{ isMsg() }

type clickPawn struct{ id types.PawnID }
type clickPosition struct{ pos types.Position }
type refresh struct{}
type fetched struct {
	snap *types.TurnSnapshot
	err  error
}
type pushed struct{ snap *types.TurnSnapshot }
type submitted struct {
	moveID int
	snap   *types.TurnSnapshot
	err    error
}
type getView struct{ reply chan View }

func (clickPawn) isMsg()     {}
func (clickPosition) isMsg() {}
func (refresh) isMsg()       {}
func (fetched) isMsg()       {}
func (pushed) isMsg()        {}
func (submitted) isMsg()     {}
func (getView) isMsg()       {}

// ErrStopped is returned by View once the controller has stopped.
var ErrStopped = errors.New("controller stopped")

// Controller owns one Turn and serializes every event applied to it.
type Controller struct {
	auth    engine.Authority
	opts    Options
	log     *zap.Logger
	session string

	inbox chan msg
	done  chan struct{}

	// Owned by the loop.
	turn       selection.Turn
	version    int
	fetching   bool
	submitting bool
	lastErr    error
}

// New creates a controller. Call Run to start it.
func New(auth engine.Authority, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = engine.DefaultConfig().PollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	session := uuid.NewString()
	return &Controller{
		auth:    auth,
		opts:    opts,
		log:     opts.Logger.With(zap.String("session", session)),
		session: session,
		inbox:   make(chan msg, 64),
		done:    make(chan struct{}),
		turn:    selection.NewTurn(opts.Mode),
	}
}

// ClickPawn toggles a pawn in the selection.
func (c *Controller) ClickPawn(id types.PawnID) { c.post(clickPawn{id}) }

// ClickPosition locks a step to pos if it is highlighted.
func (c *Controller) ClickPosition(pos types.Position) { c.post(clickPosition{pos}) }

// Refresh asks for a state fetch ahead of the next tick.
func (c *Controller) Refresh() { c.post(refresh{}) }

// View returns the current session state.
func (c *Controller) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	c.post(getView{reply})
	select {
	case v := <-reply:
		return v, nil
	case <-c.done:
		return View{}, ErrStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (c *Controller) post(m msg) {
	select {
	case c.inbox <- m:
	case <-c.done:
	}
}

// Run fetches the state, then loops until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	if c.opts.Feed != nil {
		go c.subscribe(ctx)
	}
	c.fetch(ctx)
	c.log.Info("session started",
		zap.Duration("poll_interval", c.opts.PollInterval),
		zap.String("match_mode", c.opts.Mode.String()),
		zap.Bool("push", c.opts.Feed != nil),
	)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session stopped")
			return nil
		case <-ticker.C:
			c.fetch(ctx)
		case m := <-c.inbox:
			if c.handle(ctx, m) {
				c.publish()
			}
		}
	}
}

// handle applies one message and reports whether a new view should be published.
func (c *Controller) handle(ctx context.Context, m msg) bool {
	switch m := m.(type) {
	case clickPawn:
		return c.apply(ctx, selection.PawnClicked{Pawn: m.id})
	case clickPosition:
		return c.apply(ctx, selection.PositionClicked{Position: m.pos})
	case refresh:
		c.fetch(ctx)
		return false
	case fetched:
		c.fetching = false
		if m.err != nil {
			c.log.Warn("state fetch failed", zap.Error(m.err))
			c.lastErr = m.err
			return true
		}
		c.lastErr = nil
		return c.apply(ctx, selection.SnapshotArrived{Snapshot: m.snap})
	case pushed:
		return c.apply(ctx, selection.SnapshotArrived{Snapshot: m.snap})
	case submitted:
		c.submitting = false
		if m.err != nil {
			c.log.Warn("move submission failed", zap.Int("move_id", m.moveID), zap.Error(m.err))
			c.lastErr = m.err
			c.apply(ctx, selection.SubmissionFailed{MoveID: m.moveID, Err: m.err})
			return true
		}
		c.lastErr = nil
		return c.apply(ctx, selection.SnapshotArrived{Snapshot: m.snap})
	case getView:
		m.reply <- c.view()
	}
	return false
}

// apply runs ev through the turn and starts any submission it asks for.
func (c *Controller) apply(ctx context.Context, ev selection.Event) bool {
	next, effects, err := c.turn.Apply(ev)
	c.turn = next
	if err != nil {
		c.log.Error("snapshot rejected", zap.Error(err))
		c.lastErr = err
		return true
	}
	for _, e := range effects {
		if s, ok := e.(selection.Submit); ok {
			c.submit(ctx, s)
		}
	}
	return true
}

func (c *Controller) fetch(ctx context.Context) {
	if c.fetching {
		c.log.Debug("state fetch still in flight, skipping tick")
		return
	}
	c.fetching = true
	go func() {
		s, err := c.auth.GetState(ctx)
		c.post(fetched{snap: s, err: err})
	}()
}

func (c *Controller) submit(ctx context.Context, s selection.Submit) {
	c.submitting = true
	c.log.Info("submitting move",
		zap.Int("move_id", s.MoveID),
		zap.Bool("skip", s.Skip),
		zap.Int("steps", len(s.Move)),
	)
	go func() {
		snap, err := c.auth.SubmitMove(ctx, s.Move, s.MoveID)
		c.post(submitted{moveID: s.MoveID, snap: snap, err: err})
	}()
}

func (c *Controller) subscribe(ctx context.Context) {
	for {
		ch, err := c.opts.Feed.Subscribe(ctx)
		if err != nil {
			c.log.Warn("push feed unavailable", zap.Error(err))
		} else {
			for s := range ch {
				c.post(pushed{snap: s})
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.opts.PollInterval):
		}
	}
}

func (c *Controller) view() View {
	return View{
		Version:     c.version,
		Session:     c.session,
		Snapshot:    c.turn.Snapshot(),
		Phase:       c.turn.Phase(),
		Selectable:  c.turn.SelectablePawns(),
		Pending:     c.turn.PendingPawns(),
		Locked:      c.turn.LockedSteps(),
		Highlighted: c.turn.HighlightedDestinations(),
		Candidates:  len(c.turn.Candidates()),
		Resolution:  c.turn.Resolution(),
		Submitting:  c.submitting,
		Err:         c.lastErr,
	}
}

func (c *Controller) publish() {
	c.version++
	if c.opts.OnUpdate != nil {
		c.opts.OnUpdate(c.view())
	}
}
