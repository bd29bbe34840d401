package selection

import (
	"errors"
	"fmt"

	"ludoterm/types"
)

// ErrMalformedSnapshot is returned for candidate lists the engine cannot reason about.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Equivalent reports whether two candidates describe the same move.
// Steps are compared index by index on actor and destination.
func Equivalent(a, b types.CandidateMove) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Destination != y.Destination || x.Actor.Single() != y.Actor.Single() {
			return false
		}
		if x.Actor.Single() {
			if x.Actor[0] != y.Actor[0] {
				return false
			}
		} else if !x.Actor.SameSet(y.Actor) {
			return false
		}
	}
	return true
}

// IsResolved reports whether every remaining candidate is the same move.
func IsResolved(candidates []types.CandidateMove) bool {
	if len(candidates) == 0 {
		return false
	}
	for _, c := range candidates[1:] {
		if !Equivalent(candidates[0], c) {
			return false
		}
	}
	return true
}

// NoLegalMove reports whether the set is the single empty move.
func NoLegalMove(candidates []types.CandidateMove) bool {
	return len(candidates) == 1 && len(candidates[0]) == 0
}

// Pending reports whether no candidate data has arrived yet.
func Pending(candidates []types.CandidateMove) bool {
	return len(candidates) == 0
}

// CandidatesFrom builds the turn's candidate set from a snapshot.
// An empty move list from the authority becomes the single empty move.
func CandidatesFrom(s *types.TurnSnapshot) []types.CandidateMove {
	if s == nil || s.Moves == nil {
		return nil
	}
	if len(s.Moves) == 0 {
		return []types.CandidateMove{{}}
	}
	out := make([]types.CandidateMove, len(s.Moves))
	copy(out, s.Moves)
	return out
}

// ValidateCandidates rejects candidate lists with broken steps or
// moves of differing length.
func ValidateCandidates(candidates []types.CandidateMove) error {
	if NoLegalMove(candidates) {
		return nil
	}
	for i, move := range candidates {
		if len(move) == 0 {
			return fmt.Errorf("%w: candidate %d is empty among %d candidates", ErrMalformedSnapshot, i, len(candidates))
		}
		if len(move) != len(candidates[0]) {
			return fmt.Errorf("%w: candidate %d has %d steps, candidate 0 has %d", ErrMalformedSnapshot, i, len(move), len(candidates[0]))
		}
		for j, step := range move {
			if err := validateStep(step); err != nil {
				return fmt.Errorf("%w: candidate %d step %d: %v", ErrMalformedSnapshot, i, j, err)
			}
		}
	}
	return nil
}

func validateStep(s types.Step) error {
	if len(s.Actor) == 0 {
		return errors.New("empty actor")
	}
	seen := make(map[types.PawnID]bool, len(s.Actor))
	for _, p := range s.Actor {
		if p == "" {
			return errors.New("empty pawn id")
		}
		if seen[p] {
			return fmt.Errorf("pawn %s repeated in actor", p)
		}
		seen[p] = true
	}
	if s.Destination == "" {
		return errors.New("empty destination")
	}
	return nil
}
