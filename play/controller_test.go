package play

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ludoterm/engine"
	"ludoterm/gamelog"
	"ludoterm/selection"
	"ludoterm/types"
)

type submission struct {
	move   types.CandidateMove
	moveID int
}

// fakeAuthority walks through states; a submission with the right id advances it.
type fakeAuthority struct {
	mu          sync.Mutex
	states      []*types.TurnSnapshot
	idx         int
	getErr      error
	submitErr   error
	submissions []submission
}

func (f *fakeAuthority) GetState(ctx context.Context) (*types.TurnSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.states[f.idx], nil
}

func (f *fakeAuthority) SubmitMove(ctx context.Context, move types.CandidateMove, moveID int) (*types.TurnSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, submission{move, moveID})
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if moveID == f.states[f.idx].LastMoveID+1 && f.idx < len(f.states)-1 {
		f.idx++
	}
	return f.states[f.idx], nil
}

func (f *fakeAuthority) CheckRunningGame(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeAuthority) CreateNewGame(ctx context.Context, seats []types.SeatAssignment) (*types.TurnSnapshot, error) {
	return f.GetState(ctx)
}
func (f *fakeAuthority) Reset(ctx context.Context) error { return nil }
func (f *fakeAuthority) ListLogs(ctx context.Context, n int) ([]gamelog.Run, error) {
	return nil, nil
}
func (f *fakeAuthority) GetLogFile(ctx context.Context, run, file string) (*gamelog.GameLog, error) {
	return nil, errors.New("no logs")
}

func (f *fakeAuthority) submitted() []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]submission(nil), f.submissions...)
}

func (f *fakeAuthority) set(fn func(f *fakeAuthority)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

var _ engine.Authority = (*fakeAuthority)(nil)

func turnState(id int, moves ...types.CandidateMove) *types.TurnSnapshot {
	if moves == nil {
		moves = []types.CandidateMove{}
	}
	return &types.TurnSnapshot{
		Modes:      []string{types.ModeHuman},
		LastMoveID: id,
		Positions:  []types.PawnPosition{{PawnID: "B4", Position: "P10"}},
		Moves:      moves,
	}
}

func single(pawn types.PawnID, dest types.Position) types.CandidateMove {
	return types.CandidateMove{{Actor: types.Actor{pawn}, Destination: dest}}
}

func start(t *testing.T, auth engine.Authority, opts Options) *Controller {
	t.Helper()
	if opts.PollInterval == 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	c := New(auth, opts)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return c
}

// waitFor polls the view until cond holds.
func waitFor(t *testing.T, c *Controller, what string, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, err := c.View(context.Background())
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if cond(v) {
			return v
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
	return View{}
}

func TestControllerResolvesAfterClicks(t *testing.T) {
	auth := &fakeAuthority{states: []*types.TurnSnapshot{
		turnState(4, single("B4", "P18"), single("B4", "P20")),
		turnState(5, single("B4", "P24"), single("B4", "P26")),
	}}
	c := start(t, auth, Options{})

	waitFor(t, c, "first snapshot", func(v View) bool { return v.Snapshot != nil && v.Candidates == 2 })
	c.ClickPawn("B4")
	v := waitFor(t, c, "highlights", func(v View) bool { return len(v.Highlighted) == 2 })
	if v.Highlighted[0] != "P18" || v.Highlighted[1] != "P20" {
		t.Errorf("Highlighted = %v, want [P18 P20]", v.Highlighted)
	}
	if v.Session == "" {
		t.Error("Session is empty")
	}

	c.ClickPosition("P18")
	waitFor(t, c, "next turn", func(v View) bool { return v.Snapshot.LastMoveID == 5 })

	subs := auth.submitted()
	if len(subs) != 1 || subs[0].moveID != 5 || subs[0].move[0].Destination != "P18" {
		t.Errorf("submissions = %+v, want one B4 -> P18 with id 5", subs)
	}
}

func TestControllerSkipsOnce(t *testing.T) {
	auth := &fakeAuthority{states: []*types.TurnSnapshot{turnState(2)}}
	c := start(t, auth, Options{})

	waitFor(t, c, "skip", func(v View) bool { return v.Phase == selection.Resolved && !v.Submitting })
	// Let several ticks pass over the unchanged snapshot.
	time.Sleep(60 * time.Millisecond)

	subs := auth.submitted()
	if len(subs) != 1 {
		t.Fatalf("got %d submissions, want 1", len(subs))
	}
	if subs[0].moveID != 3 || len(subs[0].move) != 0 {
		t.Errorf("submission = %+v, want empty move with id 3", subs[0])
	}
}

func TestControllerRetriesFailedSubmission(t *testing.T) {
	auth := &fakeAuthority{
		states:    []*types.TurnSnapshot{turnState(0, single("B4", "P18")), turnState(1, single("B4", "P18"), single("B4", "P19"))},
		submitErr: &engine.TransportError{Op: "take_move", Err: errors.New("connection refused")},
	}
	c := start(t, auth, Options{})

	v := waitFor(t, c, "failed submission", func(v View) bool { return v.Err != nil && len(auth.submitted()) > 0 })
	var te *engine.TransportError
	if !errors.As(v.Err, &te) {
		t.Errorf("Err = %v, want TransportError", v.Err)
	}

	auth.set(func(f *fakeAuthority) { f.submitErr = nil })
	waitFor(t, c, "recovery", func(v View) bool { return v.Snapshot.LastMoveID == 1 && v.Err == nil })

	for _, s := range auth.submitted() {
		if s.moveID != 1 {
			t.Errorf("submitted move id %d, want 1", s.moveID)
		}
	}
}

func TestControllerFetchErrorRecovers(t *testing.T) {
	auth := &fakeAuthority{
		states: []*types.TurnSnapshot{turnState(0, single("B4", "P1"), single("B4", "P2"))},
		getErr: &engine.TransportError{Op: "get_current_board", Status: 500, Err: errors.New("Move is being taken")},
	}
	c := start(t, auth, Options{})

	waitFor(t, c, "fetch error", func(v View) bool { return v.Err != nil && v.Snapshot == nil })
	auth.set(func(f *fakeAuthority) { f.getErr = nil })
	waitFor(t, c, "recovered", func(v View) bool { return v.Err == nil && v.Snapshot != nil })
}

func TestControllerRejectsMalformed(t *testing.T) {
	bad := turnState(0, single("B4", "P1"), append(single("B4", "P1"), single("B4", "P2")...))
	auth := &fakeAuthority{states: []*types.TurnSnapshot{bad}}
	c := start(t, auth, Options{})

	v := waitFor(t, c, "rejection", func(v View) bool { return v.Err != nil })
	if !errors.Is(v.Err, selection.ErrMalformedSnapshot) {
		t.Errorf("Err = %v, want ErrMalformedSnapshot", v.Err)
	}
	if v.Snapshot == nil || v.Candidates != 0 || v.Phase != selection.AwaitingSnapshot {
		t.Errorf("snapshot = %v, candidates = %d, phase = %v; want adopted with no candidates",
			v.Snapshot, v.Candidates, v.Phase)
	}
}

func TestControllerMalformedSnapshotEndsPriorTurn(t *testing.T) {
	auth := &fakeAuthority{states: []*types.TurnSnapshot{turnState(0, single("B4", "P1"), single("B4", "P2"))}}
	c := start(t, auth, Options{})

	waitFor(t, c, "first snapshot", func(v View) bool { return v.Snapshot != nil })
	c.ClickPawn("B4")
	waitFor(t, c, "pending pawn", func(v View) bool { return len(v.Pending) == 1 })

	bad := turnState(1, single("B4", "P1"), append(single("B4", "P1"), single("B4", "P2")...))
	auth.set(func(f *fakeAuthority) {
		f.states = []*types.TurnSnapshot{bad}
		f.idx = 0
	})
	waitFor(t, c, "new move id", func(v View) bool { return v.Snapshot != nil && v.Snapshot.LastMoveID == 1 })

	c.ClickPosition("P1")
	v := waitFor(t, c, "click handled", func(View) bool { return true })
	if len(v.Pending) != 0 || len(v.Locked) != 0 || v.Submitting {
		t.Errorf("prior selection survived: pending=%v locked=%v submitting=%v", v.Pending, v.Locked, v.Submitting)
	}
	if got := auth.submitted(); len(got) != 0 {
		t.Errorf("submitted %v, want nothing", got)
	}
}

type chanFeed struct{ ch chan *types.TurnSnapshot }

func (f chanFeed) Subscribe(ctx context.Context) (<-chan *types.TurnSnapshot, error) {
	return f.ch, nil
}

func TestControllerAppliesPushedSnapshots(t *testing.T) {
	auth := &fakeAuthority{states: []*types.TurnSnapshot{turnState(0, single("B4", "P1"), single("B4", "P2"))}}
	feed := chanFeed{ch: make(chan *types.TurnSnapshot, 1)}
	updates := make(chan View, 256)
	c := start(t, auth, Options{
		PollInterval: time.Hour,
		Feed:         feed,
		OnUpdate: func(v View) {
			select {
			case updates <- v:
			default:
			}
		},
	})

	waitFor(t, c, "first snapshot", func(v View) bool { return v.Snapshot != nil })
	feed.ch <- turnState(7, single("B4", "P30"), single("B4", "P31"))
	v := waitFor(t, c, "pushed snapshot", func(v View) bool { return v.Snapshot.LastMoveID == 7 })
	if v.Candidates != 2 {
		t.Errorf("Candidates = %d, want 2", v.Candidates)
	}
	if len(updates) == 0 {
		t.Error("OnUpdate was never called")
	}
}

func TestControllerViewAfterStop(t *testing.T) {
	c := New(&fakeAuthority{states: []*types.TurnSnapshot{turnState(0)}}, Options{PollInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped
	if _, err := c.View(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("View after stop = %v, want ErrStopped", err)
	}
}
