package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/rivo/tview"

	"ludoterm/config"
	"ludoterm/play"
	"ludoterm/selection"
	"ludoterm/types"
)

type recordingClicker struct {
	pawns     []types.PawnID
	positions []types.Position
	refreshes int
}

func (r *recordingClicker) ClickPawn(id types.PawnID)       { r.pawns = append(r.pawns, id) }
func (r *recordingClicker) ClickPosition(pos types.Position) { r.positions = append(r.positions, pos) }
func (r *recordingClicker) Refresh()                         { r.refreshes++ }

func testSnapshot(id int) *types.TurnSnapshot {
	return &types.TurnSnapshot{
		Config: types.GameSettings{Players: []types.Player{
			{Name: "Player 1", Colours: []types.Colour{types.Red, types.Yellow}},
			{Name: "Player 2", Colours: []types.Colour{types.Green, types.Blue}},
		}},
		Modes: []string{types.ModeHuman, types.ModeAI},
		Pawns: map[types.PawnID]types.PawnInfo{
			"R1": {Colour: types.Red},
			"Y2": {Colour: types.Yellow},
		},
		Positions: []types.PawnPosition{
			{PawnID: "R1", Position: "P1"},
			{PawnID: "Y2", Position: "P40"},
		},
		LastMoveID: id,
		DiceRoll:   []int{3, 5},
	}
}

func newTestTurnView(t *testing.T) (*TurnView, *recordingClicker) {
	t.Helper()
	cfg := config.DefaultConfig
	tv := NewTurnView(&cfg, tview.NewTextView())
	c := &recordingClicker{}
	tv.Connect(c)
	return tv, c
}

func TestTargetsOf(t *testing.T) {
	if got := targetsOf(play.View{}); got != nil {
		t.Errorf("targetsOf(empty) = %v, want nil", got)
	}
	v := play.View{Snapshot: testSnapshot(0), Highlighted: []types.Position{"P4", "P6"}}
	got := targetsOf(v)
	want := []target{{pawn: "R1"}, {pawn: "Y2"}, {pos: "P4"}, {pos: "P6"}}
	if len(got) != len(want) {
		t.Fatalf("targetsOf = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("targetsOf[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTurnViewClicks(t *testing.T) {
	tv, c := newTestTurnView(t)
	tv.SetView(play.View{Session: "s", Version: 1, Snapshot: testSnapshot(0)})

	tv.MoveCursor(1)
	tv.Activate()
	if len(c.pawns) != 1 || c.pawns[0] != "Y2" {
		t.Fatalf("pawn clicks = %v, want [Y2]", c.pawns)
	}

	tv.SetView(play.View{Session: "s", Version: 2, Snapshot: testSnapshot(0), Pending: []types.PawnID{"Y2"}, Highlighted: []types.Position{"P43", "P45"}})
	tv.MoveCursor(2)
	tv.Activate()
	if len(c.positions) != 1 || c.positions[0] != "P45" {
		t.Fatalf("position clicks = %v, want [P45]", c.positions)
	}

	tv.ActivateDestination(1)
	tv.ActivateDestination(3)
	if len(c.positions) != 2 || c.positions[1] != "P43" {
		t.Errorf("position clicks = %v, want [P45 P43]", c.positions)
	}
}

func TestTurnViewCursorClamps(t *testing.T) {
	tv, c := newTestTurnView(t)
	tv.SetView(play.View{Session: "s", Version: 1, Snapshot: testSnapshot(0)})
	tv.MoveCursor(10)
	tv.Activate()
	tv.MoveCursor(-10)
	tv.Activate()
	if len(c.pawns) != 2 || c.pawns[0] != "Y2" || c.pawns[1] != "R1" {
		t.Errorf("pawn clicks = %v, want [Y2 R1]", c.pawns)
	}
}

func TestTurnViewIgnoresClicksOffTurn(t *testing.T) {
	tv, c := newTestTurnView(t)

	ai := testSnapshot(0)
	ai.CurrentPlayer = 1
	tv.SetView(play.View{Session: "s", Version: 1, Snapshot: ai, Highlighted: []types.Position{"P2"}})
	tv.Activate()
	tv.ActivateDestination(1)

	over := testSnapshot(1)
	over.GameOver = true
	tv.SetView(play.View{Session: "s", Version: 2, Snapshot: over})
	tv.Activate()

	tv.Disconnect()
	tv.SetView(play.View{Session: "s", Version: 3, Snapshot: testSnapshot(2)})
	tv.Activate()

	if len(c.pawns) != 0 || len(c.positions) != 0 {
		t.Errorf("clicks = %v %v, want none", c.pawns, c.positions)
	}
}

func TestTurnViewDropsStaleViews(t *testing.T) {
	tv, _ := newTestTurnView(t)
	tv.SetView(play.View{Session: "s", Version: 5, Snapshot: testSnapshot(3)})
	tv.SetView(play.View{Session: "s", Version: 4, Snapshot: testSnapshot(2)})
	if got := tv.View().Snapshot.LastMoveID; got != 3 {
		t.Errorf("LastMoveID = %d, want 3 after a stale view", got)
	}
	tv.SetView(play.View{Session: "t", Version: 1, Snapshot: testSnapshot(0)})
	if got := tv.View().Session; got != "t" {
		t.Errorf("Session = %q, want the new session's view", got)
	}
}

func TestHintText(t *testing.T) {
	ai := testSnapshot(0)
	ai.CurrentPlayer = 1
	over := testSnapshot(0)
	over.GameOver = true

	tests := []struct {
		name string
		view play.View
		want string
	}{
		{"connecting", play.View{}, "Connecting"},
		{"unreachable", play.View{Err: errors.New("connection refused")}, "connection refused"},
		{"my turn", play.View{Snapshot: testSnapshot(0)}, "Player 1 to move"},
		{"ai turn", play.View{Snapshot: ai}, "Player 2 is thinking"},
		{"game over", play.View{Snapshot: over}, "Game over"},
		{"submitting", play.View{Snapshot: testSnapshot(0), Submitting: true}, "Submitting"},
		{"resolved", play.View{Snapshot: testSnapshot(0), Resolution: selection.Resolution{Kind: selection.ResolutionSkip}}, "Waiting for the next turn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hintText(tt.view); !strings.Contains(got, tt.want) {
				t.Errorf("hintText = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
