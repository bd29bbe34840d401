package selection

import (
	"sort"

	"ludoterm/types"
)

func step(dest types.Position, pawns ...types.PawnID) types.Step {
	return types.Step{Actor: types.Actor(pawns), Destination: dest}
}

func move(steps ...types.Step) types.CandidateMove {
	return types.CandidateMove(steps)
}

func sameSet(a, b []types.PawnID) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]types.PawnID(nil), a...)
	y := append([]types.PawnID(nil), b...)
	sort.Slice(x, func(i, j int) bool { return x[i] < x[j] })
	sort.Slice(y, func(i, j int) bool { return y[i] < y[j] })
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func samePositions(a, b []types.Position) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
