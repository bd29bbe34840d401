// Package selection narrows the authority's candidate moves to a single move
// through pawn and position clicks.
package selection

import "ludoterm/types"

// rigidPartners returns the other pawns of the only block containing id,
// or nil when the pawn is in no block, in several, or in a non-rigid one.
func rigidPartners(id types.PawnID, blocks []types.Block) []types.PawnID {
	var found *types.Block
	for i := range blocks {
		if blocks[i].Contains(id) {
			if found != nil {
				return nil
			}
			found = &blocks[i]
		}
	}
	if found == nil || !found.Rigid {
		return nil
	}
	var partners []types.PawnID
	for _, p := range found.PawnIDs {
		if p != id {
			partners = append(partners, p)
		}
	}
	return partners
}

// Toggle flips pawn in or out of pending and returns the new selection.
// Rigid block partners follow the clicked pawn. pending is not modified.
func Toggle(pawn types.PawnID, pending []types.PawnID, blocks []types.Block) []types.PawnID {
	partners := rigidPartners(pawn, blocks)
	if contains(pending, pawn) {
		drop := append([]types.PawnID{pawn}, partners...)
		out := make([]types.PawnID, 0, len(pending))
		for _, p := range pending {
			if !contains(drop, p) {
				out = append(out, p)
			}
		}
		return out
	}
	out := append([]types.PawnID(nil), pending...)
	for _, p := range append([]types.PawnID{pawn}, partners...) {
		if !contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func contains(ids []types.PawnID, id types.PawnID) bool {
	for _, p := range ids {
		if p == id {
			return true
		}
	}
	return false
}
