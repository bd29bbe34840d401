package mockauth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ludoterm/gamelog"
	"ludoterm/types"
)

func testScript(modes ...string) *Script {
	return &Script{
		Config: types.GameSettings{Players: []types.Player{
			{Name: "Player 1", Colours: []types.Colour{types.Red, types.Yellow}},
			{Name: "Player 2", Colours: []types.Colour{types.Green, types.Blue}},
		}},
		Modes: modes,
		Positions: []types.PawnPosition{
			{PawnID: "R1", Position: "RB1"},
			{PawnID: "G1", Position: "GB1"},
		},
		Turns: []ScriptTurn{
			{CurrentPlayer: 0, DiceRoll: []int{6}, Moves: []types.CandidateMove{
				{{Actor: types.Actor{"R1"}, Origin: "RB1", Destination: "P1"}},
			}},
			{CurrentPlayer: 1, DiceRoll: []int{6}, Moves: []types.CandidateMove{
				{{Actor: types.Actor{"G1"}, Origin: "GB1", Destination: "P14"}},
			}},
		},
	}
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) types.TurnSnapshot {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	var s types.TurnSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return s
}

func TestDemoScript(t *testing.T) {
	s := DemoScript()
	if len(s.Turns) == 0 || len(s.Config.Players) != 2 {
		t.Fatalf("demo script has %d turns, %d players", len(s.Turns), len(s.Config.Players))
	}
	for i, turn := range s.Turns {
		if turn.Moves == nil {
			t.Errorf("turn %d has no moves field", i)
		}
	}
}

func TestParseScriptRejectsInvalid(t *testing.T) {
	for _, in := range []string{
		`{}`,
		`{"config": {"players": [{"name": "a"}]}, "turns": [{"current_player": 3, "moves": []}]}`,
		`{"config": {"players": [{"name": "a"}]}, "turns": [{"current_player": 0}]}`,
		`not json`,
	} {
		if _, err := ParseScript([]byte(in)); err == nil {
			t.Errorf("ParseScript(%s) succeeded", in)
		}
	}
}

func TestGameLifecycle(t *testing.T) {
	h := New(testScript(types.ModeHuman, types.ModeHuman), Options{}).Handler()

	rec := do(t, h, http.MethodGet, "/check_running_game", nil)
	if rec.Body.String() != "{\"running\":false}\n" {
		t.Errorf("check_running_game = %q", rec.Body.String())
	}
	board := decodeSnapshot(t, do(t, h, http.MethodGet, "/get_current_board", nil))
	if board.Moves != nil {
		t.Errorf("board before create has moves %v", board.Moves)
	}

	snap := decodeSnapshot(t, do(t, h, http.MethodPost, "/create_new_game", []types.SeatAssignment{{Mode: types.ModeHuman}, {Mode: types.ModeHuman}}))
	if snap.LastMoveID != 0 || len(snap.Moves) != 1 {
		t.Fatalf("first snapshot = %+v", snap)
	}

	stale := decodeSnapshot(t, do(t, h, http.MethodPost, "/take_move", types.MoveSubmission{Move: snap.Moves[0], MoveID: 5}))
	if stale.LastMoveID != 0 {
		t.Errorf("wrong move id advanced the game to %d", stale.LastMoveID)
	}

	next := decodeSnapshot(t, do(t, h, http.MethodPost, "/take_move", types.MoveSubmission{Move: snap.Moves[0], MoveID: 1}))
	if next.LastMoveID != 1 || next.CurrentPlayer != 1 {
		t.Errorf("after move: LastMoveID = %d, CurrentPlayer = %d", next.LastMoveID, next.CurrentPlayer)
	}
	if pos, _ := next.PositionOf("R1"); pos != "P1" {
		t.Errorf("R1 at %q, want P1", pos)
	}

	final := decodeSnapshot(t, do(t, h, http.MethodPost, "/take_move", types.MoveSubmission{Move: next.Moves[0], MoveID: 2}))
	if !final.GameOver {
		t.Error("game should be over after the last scripted turn")
	}

	rec = do(t, h, http.MethodGet, "/get_log_file?run="+SessionRun+"&file="+SessionFile, nil)
	g, err := gamelog.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Game) != 3 || g.Winner() != "Player 2" {
		t.Errorf("session log has %d frames, winner %q", len(g.Game), g.Winner())
	}

	do(t, h, http.MethodGet, "/reset", nil)
	rec = do(t, h, http.MethodGet, "/check_running_game", nil)
	if rec.Body.String() != "{\"running\":false}\n" {
		t.Errorf("after reset check_running_game = %q", rec.Body.String())
	}
}

func TestTakeMoveWithoutGame(t *testing.T) {
	h := New(testScript(types.ModeHuman, types.ModeHuman), Options{}).Handler()
	rec := do(t, h, http.MethodPost, "/take_move", types.MoveSubmission{MoveID: 1})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestAISeatPlaysItself(t *testing.T) {
	h := New(testScript(types.ModeHuman, types.ModeAI), Options{AIDelay: time.Millisecond}).Handler()
	snap := decodeSnapshot(t, do(t, h, http.MethodPost, "/create_new_game", []types.SeatAssignment{{Mode: types.ModeHuman}, {Mode: types.ModeAI}}))
	decodeSnapshot(t, do(t, h, http.MethodPost, "/take_move", types.MoveSubmission{Move: snap.Moves[0], MoveID: 1}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(t, h, http.MethodGet, "/get_current_board", nil)
		if rec.Code == http.StatusOK {
			var s types.TurnSnapshot
			if err := json.Unmarshal(rec.Body.Bytes(), &s); err == nil && s.GameOver {
				if pos, _ := s.PositionOf("G1"); pos != "P14" {
					t.Errorf("G1 at %q, want P14", pos)
				}
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("AI seat never moved")
}

func TestStoredLogs(t *testing.T) {
	dir := t.TempDir()
	logs := filepath.Join(dir, "2023_Nov_10", "logs")
	if err := os.MkdirAll(logs, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(logs, "g1.json"), []byte(`{"game": [], "player_won": "Player 1"}`), 0644); err != nil {
		t.Fatal(err)
	}
	h := New(testScript(types.ModeHuman, types.ModeHuman), Options{LogDir: dir}).Handler()

	var runs []gamelog.Run
	if err := json.Unmarshal(do(t, h, http.MethodGet, "/get_logs?num_files=5", nil).Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Run != "2023_Nov_10" || len(runs[0].Files) != 1 {
		t.Fatalf("runs = %+v", runs)
	}

	rec := do(t, h, http.MethodGet, "/get_log_file?run=2023_Nov_10&file=g1.json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/get_log_file?run=2023_Nov_10&file=missing.json", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing log status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/get_log_file?run=..&file=g1.json", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("escaping log status = %d, want 400", rec.Code)
	}
}
