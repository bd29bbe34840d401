package selection

import (
	"fmt"

	"ludoterm/types"
)

// MatchMode decides when a selected multi-pawn actor matches a candidate step.
type MatchMode int

const (
	// MatchContainment matches when every selected pawn is in the candidate actor.
	MatchContainment MatchMode = iota
	// MatchExact matches only when both actors hold the same pawns.
	MatchExact
)

func (m MatchMode) String() string {
	switch m {
	case MatchContainment:
		return "containment"
	case MatchExact:
		return "exact"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

// ParseMatchMode converts a config value into a MatchMode. Empty means containment.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "containment":
		return MatchContainment, nil
	case "exact":
		return MatchExact, nil
	}
	return MatchContainment, fmt.Errorf("unknown match mode %q", s)
}

// Matches reports whether the selected actor query matches candidate.
// Singletons match by identity; an actor never matches one of different cardinality class.
func (m MatchMode) Matches(query, candidate types.Actor) bool {
	if len(query) == 0 || len(candidate) == 0 {
		return false
	}
	if query.Single() != candidate.Single() {
		return false
	}
	if query.Single() {
		return query[0] == candidate[0]
	}
	if m == MatchExact {
		return query.SameSet(candidate)
	}
	for _, p := range query {
		if !candidate.Has(p) {
			return false
		}
	}
	return true
}

// AvailableDestinations returns the destinations reachable by the pending
// pawns across all candidates, deduplicated in first-seen order.
func AvailableDestinations(candidates []types.CandidateMove, pending []types.PawnID, mode MatchMode) []types.Position {
	if len(pending) == 0 {
		return nil
	}
	query := types.Actor(pending)
	var out []types.Position
	seen := make(map[types.Position]bool)
	for _, move := range candidates {
		for _, step := range move {
			if !mode.Matches(query, step.Actor) || seen[step.Destination] {
				continue
			}
			seen[step.Destination] = true
			out = append(out, step.Destination)
		}
	}
	return out
}

// StepMatches reports whether a candidate step satisfies a locked step.
func StepMatches(locked, candidate types.Step, mode MatchMode) bool {
	return locked.Destination == candidate.Destination && mode.Matches(locked.Actor, candidate.Actor)
}

// Narrow keeps the candidates containing at least one step that matches step.
// The result is never larger than candidates.
func Narrow(candidates []types.CandidateMove, step types.Step, mode MatchMode) []types.CandidateMove {
	out := make([]types.CandidateMove, 0, len(candidates))
	for _, move := range candidates {
		for _, s := range move {
			if StepMatches(step, s, mode) {
				out = append(out, move)
				break
			}
		}
	}
	return out
}
