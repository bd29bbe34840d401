package selection

import (
	"fmt"

	"ludoterm/types"
)

// Phase is where a turn stands in the selection cycle.
type Phase int

const (
	// AwaitingSnapshot means the turn has no usable candidates yet.
	AwaitingSnapshot Phase = iota
	// Selecting means clicks narrow the candidates.
	Selecting
	// Resolved means a move went out for the current move id.
	Resolved
)

func (p Phase) String() string {
	switch p {
	case AwaitingSnapshot:
		return "awaiting snapshot"
	case Selecting:
		return "selecting"
	case Resolved:
		return "resolved"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Event is an input to Turn.Apply.
type Event interface{ isEvent() }

// SnapshotArrived delivers a snapshot from a poll, a push or a submission reply.
// The snapshot must not be modified after it is applied.
type SnapshotArrived struct{ Snapshot *types.TurnSnapshot }

// PawnClicked is a click on a pawn.
type PawnClicked struct{ Pawn types.PawnID }

// PositionClicked is a click on a cell.
type PositionClicked struct{ Position types.Position }

// SubmissionFailed reports that submitting MoveID did not reach the authority.
type SubmissionFailed struct {
	MoveID int
	Err    error
}

func (SnapshotArrived) isEvent()  {}
func (PawnClicked) isEvent()      {}
func (PositionClicked) isEvent()  {}
func (SubmissionFailed) isEvent() {}

// Effect is work Turn.Apply asks its owner to perform.
type Effect interface{ isEffect() }

// Submit asks for Move to be sent to the authority under MoveID.
type Submit struct {
	Move   types.CandidateMove
	MoveID int
	Skip   bool
}

func (Submit) isEffect() {}

// ResolutionKind tells what, if anything, the turn has settled on.
type ResolutionKind int

const (
	// ResolutionNone means more than one distinct move remains, or none arrived.
	ResolutionNone ResolutionKind = iota
	// ResolutionSubmit means a single move remains, up to equivalence.
	ResolutionSubmit
	// ResolutionSkip means the authority offered no legal move.
	ResolutionSkip
)

// Resolution is the terminal outcome of a turn.
type Resolution struct {
	Kind   ResolutionKind
	Move   types.CandidateMove
	MoveID int
}

// Turn is the selection state of the turn in progress. It is a value:
// Apply returns a new Turn and leaves the receiver untouched.
type Turn struct {
	mode       MatchMode
	snapshot   *types.TurnSnapshot
	candidates []types.CandidateMove
	pending    []types.PawnID
	locked     []types.Step
	phase      Phase

	// gated is set once a move was submitted for the current move id.
	gated bool
}

// NewTurn returns a turn waiting for its first snapshot.
func NewTurn(mode MatchMode) Turn {
	return Turn{mode: mode}
}

// Apply feeds one event through the turn.
// It returns an error only for snapshots that fail validation. A rejected
// snapshot with a new move id still replaces the turn, which then waits
// with no candidates; a rejected same-id snapshot leaves the turn as it was.
func (t Turn) Apply(ev Event) (Turn, []Effect, error) {
	switch ev := ev.(type) {
	case SnapshotArrived:
		return t.applySnapshot(ev.Snapshot)
	case PawnClicked:
		if !t.interactive() {
			return t, nil, nil
		}
		t.pending = Toggle(ev.Pawn, t.pending, t.snapshot.Blocks)
		return t, nil, nil
	case PositionClicked:
		return t.applyPosition(ev.Position)
	case SubmissionFailed:
		if t.snapshot != nil && ev.MoveID == t.snapshot.LastMoveID+1 && t.gated {
			t.gated = false
			t.phase = Selecting
		}
		return t, nil, nil
	}
	return t, nil, fmt.Errorf("unknown event %T", ev)
}

func (t Turn) applySnapshot(s *types.TurnSnapshot) (Turn, []Effect, error) {
	if s == nil {
		return t, nil, fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}
	candidates := CandidatesFrom(s)
	fresh := t.snapshot == nil || s.LastMoveID != t.snapshot.LastMoveID
	if err := ValidateCandidates(candidates); err != nil {
		if !fresh {
			return t, nil, err
		}
		// The old selection is gone with its move id, usable moves or not.
		return Turn{mode: t.mode, snapshot: s, phase: AwaitingSnapshot}, nil, err
	}
	switch {
	case fresh:
		t.candidates = candidates
		t.pending = nil
		t.locked = nil
		t.gated = false
		t.phase = Selecting
	case Pending(t.candidates) && len(t.locked) == 0:
		// Same move id, but the earlier snapshot carried no usable moves.
		t.candidates = candidates
		t.phase = Selecting
	}
	t.snapshot = s
	next, effects := t.evaluate()
	return next, effects, nil
}

func (t Turn) applyPosition(pos types.Position) (Turn, []Effect, error) {
	if !t.interactive() || len(t.pending) == 0 {
		return t, nil, nil
	}
	legal := false
	for _, p := range AvailableDestinations(t.candidates, t.pending, t.mode) {
		if p == pos {
			legal = true
			break
		}
	}
	if !legal {
		return t, nil, nil
	}
	step := types.Step{Actor: types.Actor(t.pending), Destination: pos}
	step.Origin, _ = t.snapshot.PositionOf(t.pending[0])
	t.locked = append(append([]types.Step(nil), t.locked...), step)
	t.pending = nil
	t.candidates = Narrow(t.candidates, step, t.mode)
	next, effects := t.evaluate()
	return next, effects, nil
}

// interactive reports whether clicks are accepted right now.
func (t Turn) interactive() bool {
	return t.phase == Selecting && t.snapshot != nil && !t.snapshot.GameOver &&
		t.snapshot.CurrentMode() != types.ModeAI
}

// evaluate emits the submission for a resolved turn, at most once per move id.
func (t Turn) evaluate() (Turn, []Effect) {
	if t.snapshot.GameOver || t.snapshot.CurrentMode() == types.ModeAI || t.gated {
		return t, nil
	}
	r := t.Resolution()
	if r.Kind == ResolutionNone {
		return t, nil
	}
	t.gated = true
	t.phase = Resolved
	return t, []Effect{Submit{Move: r.Move, MoveID: r.MoveID, Skip: r.Kind == ResolutionSkip}}
}

// Resolution reports the move the candidates have settled on, if any.
func (t Turn) Resolution() Resolution {
	if t.snapshot == nil {
		return Resolution{}
	}
	id := t.snapshot.LastMoveID + 1
	switch {
	case NoLegalMove(t.candidates):
		return Resolution{Kind: ResolutionSkip, Move: types.CandidateMove{}, MoveID: id}
	case IsResolved(t.candidates):
		return Resolution{Kind: ResolutionSubmit, Move: t.candidates[0], MoveID: id}
	}
	return Resolution{}
}

// Phase returns the current phase.
func (t Turn) Phase() Phase { return t.phase }

// Mode returns the actor match mode in use.
func (t Turn) Mode() MatchMode { return t.mode }

// Snapshot returns the latest applied snapshot, or nil.
func (t Turn) Snapshot() *types.TurnSnapshot { return t.snapshot }

// Submitted reports whether a move went out for the current move id.
func (t Turn) Submitted() bool { return t.gated }

// Candidates returns a copy of the remaining candidate moves.
func (t Turn) Candidates() []types.CandidateMove {
	return append([]types.CandidateMove(nil), t.candidates...)
}

// PendingPawns returns a copy of the pawns selected but not yet moved.
func (t Turn) PendingPawns() []types.PawnID {
	return append([]types.PawnID(nil), t.pending...)
}

// LockedSteps returns a copy of the steps committed this turn.
func (t Turn) LockedSteps() []types.Step {
	return append([]types.Step(nil), t.locked...)
}

// SelectablePawns returns every pawn of the current snapshot.
func (t Turn) SelectablePawns() []types.PawnID {
	if t.snapshot == nil {
		return nil
	}
	return t.snapshot.PawnIDs()
}

// HighlightedDestinations returns the cells the pending pawns can move to.
func (t Turn) HighlightedDestinations() []types.Position {
	return AvailableDestinations(t.candidates, t.pending, t.mode)
}
