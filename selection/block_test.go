package selection

import (
	"math/rand"
	"testing"

	"ludoterm/types"
)

var testBlocks = []types.Block{
	{PawnIDs: []types.PawnID{"R3", "R4"}, Rigid: true},
	{PawnIDs: []types.PawnID{"R2", "Y3"}, Rigid: false},
	{PawnIDs: []types.PawnID{"B2", "B3"}, Rigid: true},
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name    string
		pawn    types.PawnID
		pending []types.PawnID
		want    []types.PawnID
	}{
		{"add single", "R1", nil, []types.PawnID{"R1"}},
		{"remove single", "R1", []types.PawnID{"R1", "G2"}, []types.PawnID{"G2"}},
		{"add rigid pulls partner", "R3", nil, []types.PawnID{"R3", "R4"}},
		{"add rigid from other member", "R4", []types.PawnID{"G1"}, []types.PawnID{"G1", "R4", "R3"}},
		{"remove rigid drops partner", "R4", []types.PawnID{"R3", "R4", "G1"}, []types.PawnID{"G1"}},
		{"non-rigid adds alone", "R2", nil, []types.PawnID{"R2"}},
		{"non-rigid removes alone", "Y3", []types.PawnID{"R2", "Y3"}, []types.PawnID{"R2"}},
		{"no duplicate partner", "R3", []types.PawnID{"R4"}, []types.PawnID{"R4", "R3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Toggle(tt.pawn, tt.pending, testBlocks)
			if !sameSet(got, tt.want) {
				t.Errorf("Toggle(%s, %v) = %v, want %v", tt.pawn, tt.pending, got, tt.want)
			}
		})
	}
}

func TestToggleDoesNotModifyInput(t *testing.T) {
	pending := []types.PawnID{"R1", "R3", "R4"}
	Toggle("R3", pending, testBlocks)
	Toggle("G1", pending, testBlocks)
	if !sameSet(pending, []types.PawnID{"R1", "R3", "R4"}) {
		t.Errorf("pending = %v, want unchanged", pending)
	}
}

func TestToggleAmbiguousMembershipIsSingle(t *testing.T) {
	blocks := []types.Block{
		{PawnIDs: []types.PawnID{"G1", "G2"}, Rigid: true},
		{PawnIDs: []types.PawnID{"G1", "G3"}, Rigid: true},
	}
	got := Toggle("G1", nil, blocks)
	if !sameSet(got, []types.PawnID{"G1"}) {
		t.Errorf("Toggle = %v, want only G1 for a pawn in two blocks", got)
	}
}

var allPawns = []types.PawnID{"R1", "R2", "R3", "R4", "Y3", "B2", "B3", "G1"}

// reachable builds a selection the way clicks do.
func reachable(r *rand.Rand) []types.PawnID {
	var pending []types.PawnID
	for i := r.Intn(8); i > 0; i-- {
		pending = Toggle(allPawns[r.Intn(len(allPawns))], pending, testBlocks)
	}
	return pending
}

func TestToggleInvolution(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		pending := reachable(r)
		p := allPawns[r.Intn(len(allPawns))]
		got := Toggle(p, Toggle(p, pending, testBlocks), testBlocks)
		if !sameSet(got, pending) {
			t.Fatalf("toggle twice %s from %v = %v", p, pending, got)
		}
	}
}

func TestToggleRigidSymmetry(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		pending := reachable(r)
		a := Toggle("R3", pending, testBlocks)
		b := Toggle("R4", pending, testBlocks)
		if !sameSet(a, b) {
			t.Fatalf("from %v: toggle R3 = %v, toggle R4 = %v", pending, a, b)
		}
	}
}
