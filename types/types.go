// Package types contains shared data structures for ludoterm.
package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PawnID is an opaque pawn token such as "R1" or "B4".
type PawnID string

// Position is an opaque cell token such as "P23", "RH3" or "YB1".
type Position string

// Colour is one of the four pawn colours.
type Colour string

const (
	Red    Colour = "red"
	Green  Colour = "green"
	Yellow Colour = "yellow"
	Blue   Colour = "blue"
)

// Colours lists the pawn colours in seat order.
var Colours = []Colour{Red, Green, Yellow, Blue}

// ColourOf returns the colour encoded in the first letter of a pawn id.
func ColourOf(id PawnID) (Colour, bool) {
	if len(id) == 0 {
		return "", false
	}
	switch id[0] {
	case 'R':
		return Red, true
	case 'G':
		return Green, true
	case 'Y':
		return Yellow, true
	case 'B':
		return Blue, true
	}
	return "", false
}

// Block groups two co-located pawns. Rigid blocks must be selected as a unit.
type Block struct {
	PawnIDs []PawnID `json:"pawn_ids"`
	Rigid   bool     `json:"rigid"`
}

// Contains reports whether the block has the given pawn.
func (b Block) Contains(id PawnID) bool {
	for _, p := range b.PawnIDs {
		if p == id {
			return true
		}
	}
	return false
}

// Actor is the non-empty list of pawns moved by one step.
// Order is kept for submission; comparisons treat it as a set.
type Actor []PawnID

// Single reports whether the actor names exactly one pawn.
func (a Actor) Single() bool {
	return len(a) == 1
}

// Has reports whether id is part of the actor.
func (a Actor) Has(id PawnID) bool {
	for _, p := range a {
		if p == id {
			return true
		}
	}
	return false
}

// SameSet reports whether a and b hold the same pawns, ignoring order.
func (a Actor) SameSet(b Actor) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := a.Sorted(), b.Sorted()
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Sorted returns a sorted copy of the actor.
func (a Actor) Sorted() Actor {
	out := append(Actor(nil), a...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a Actor) String() string {
	if a.Single() {
		return string(a[0])
	}
	return fmt.Sprint([]PawnID(a))
}

// MarshalJSON writes a singleton actor as a bare string and larger actors as an array.
func (a Actor) MarshalJSON() ([]byte, error) {
	if a.Single() {
		return json.Marshal(string(a[0]))
	}
	return json.Marshal([]PawnID(a))
}

// UnmarshalJSON accepts either "R1" or ["R3", "R4"].
func (a *Actor) UnmarshalJSON(data []byte) error {
	var single PawnID
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Actor{single}
		return nil
	}
	var many []PawnID
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("actor must be a pawn id or a list of pawn ids: %w", err)
	}
	*a = many
	return nil
}

// Step moves an actor from an origin to a destination.
// On the wire it is the array [actor, origin, destination].
type Step struct {
	Actor       Actor
	Origin      Position
	Destination Position
}

func (s Step) String() string {
	if s.Origin == "" {
		return fmt.Sprintf("%s -> %s", s.Actor, s.Destination)
	}
	return fmt.Sprintf("%s %s -> %s", s.Actor, s.Origin, s.Destination)
}

// MarshalJSON writes the step as [actor, origin, destination].
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Actor, s.Origin, s.Destination})
}

// UnmarshalJSON allows Step to be unmarshaled from a JSON array [actor, origin, destination].
// The two element form [actor, destination] is accepted as well.
func (s *Step) UnmarshalJSON(data []byte) error {
	var v []json.RawMessage
	err := json.Unmarshal(data, &v)
	if err != nil {
		return err
	}
	var dest json.RawMessage
	switch len(v) {
	case 3:
		if err := json.Unmarshal(v[1], &s.Origin); err != nil {
			return fmt.Errorf("step origin: %w", err)
		}
		dest = v[2]
	case 2:
		s.Origin = ""
		dest = v[1]
	default:
		return fmt.Errorf("step must have 2 or 3 elements, got %d", len(v))
	}
	if err := json.Unmarshal(v[0], &s.Actor); err != nil {
		return err
	}
	if err := json.Unmarshal(dest, &s.Destination); err != nil {
		return fmt.Errorf("step destination: %w", err)
	}
	return nil
}

// CandidateMove is one complete legal move: an ordered list of steps.
// The zero-step move is the authority's pass signature and is written as [[]].
type CandidateMove []Step

// MarshalJSON writes the pass move as [[]].
func (m CandidateMove) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("[[]]"), nil
	}
	return json.Marshal([]Step(m))
}

// UnmarshalJSON reads a list of steps. An empty inner list is the pass move.
func (m *CandidateMove) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	steps := make([]Step, 0, len(raw))
	for _, r := range raw {
		var probe []json.RawMessage
		if json.Unmarshal(r, &probe) == nil && len(probe) == 0 {
			continue
		}
		var s Step
		if err := json.Unmarshal(r, &s); err != nil {
			return err
		}
		steps = append(steps, s)
	}
	*m = steps
	return nil
}

// PawnInfo is the per-pawn entry of a snapshot.
type PawnInfo struct {
	Colour  Colour `json:"colour"`
	Blocked bool   `json:"blocked"`
}

// PawnPosition places one pawn on one cell.
type PawnPosition struct {
	PawnID   PawnID   `json:"pawn_id"`
	Position Position `json:"pos_id"`
}

// Player is one seat of the game with the colours it controls.
type Player struct {
	Name    string   `json:"name"`
	Colours []Colour `json:"colours"`
}

// GameSettings is the authority's game configuration.
type GameSettings struct {
	Players []Player `json:"players"`
}

// Seat modes reported by the authority.
const (
	ModeHuman = "Human"
	ModeAI    = "AI"
)

// TurnSnapshot is the authority's view of the game for the current turn.
// A nil Moves means the snapshot carries no move data; an empty non-nil
// Moves means the authority found no legal move.
type TurnSnapshot struct {
	Config        GameSettings        `json:"config"`
	Modes         []string            `json:"modes"`
	Pawns         map[PawnID]PawnInfo `json:"pawns"`
	Positions     []PawnPosition      `json:"positions"`
	LastMoveID    int                 `json:"last_move_id"`
	CurrentPlayer int                 `json:"current_player"`
	DiceRoll      []int               `json:"dice_roll"`
	Blocks        []Block             `json:"blocks"`
	Moves         []CandidateMove     `json:"moves"`
	GameOver      bool                `json:"game_over"`
	NumMoreMoves  int                 `json:"num_more_moves"`
}

// Empty returns true if the snapshot describes no game at all.
func (s *TurnSnapshot) Empty() bool {
	return s == nil || (len(s.Pawns) == 0 && len(s.Positions) == 0 && s.Moves == nil)
}

// CurrentMode returns the mode of the seat to move, or "" when unknown.
func (s *TurnSnapshot) CurrentMode() string {
	if s.CurrentPlayer < 0 || s.CurrentPlayer >= len(s.Modes) {
		return ""
	}
	return s.Modes[s.CurrentPlayer]
}

// CurrentPlayerName returns the name of the seat to move.
func (s *TurnSnapshot) CurrentPlayerName() string {
	if s.CurrentPlayer < 0 || s.CurrentPlayer >= len(s.Config.Players) {
		return fmt.Sprintf("Player %d", s.CurrentPlayer+1)
	}
	return s.Config.Players[s.CurrentPlayer].Name
}

// PositionOf returns the cell a pawn stands on.
func (s *TurnSnapshot) PositionOf(id PawnID) (Position, bool) {
	for _, p := range s.Positions {
		if p.PawnID == id {
			return p.Position, true
		}
	}
	return "", false
}

// PawnIDs returns every pawn of the snapshot in sorted order.
func (s *TurnSnapshot) PawnIDs() []PawnID {
	seen := make(map[PawnID]bool, len(s.Pawns)+len(s.Positions))
	ids := make([]PawnID, 0, len(s.Pawns))
	add := func(id PawnID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range s.Pawns {
		add(id)
	}
	for _, p := range s.Positions {
		add(p.PawnID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SeatAssignment configures one seat when creating a game.
type SeatAssignment struct {
	Mode    string   `json:"mode"`
	Colours []Colour `json:"colours"`
}

// MoveSubmission is the body sent to the authority to take a move.
type MoveSubmission struct {
	Move     CandidateMove `json:"move"`
	MoveID   int           `json:"move_id"`
	TopMoves []TopMove     `json:"top_moves"`
}

// TopMove is a ranked alternative recorded alongside a move in game logs.
type TopMove struct {
	Move  CandidateMove `json:"move"`
	Prob  float64       `json:"prob"`
	Value float64       `json:"value"`
}
