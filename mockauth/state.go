package mockauth

import (
	"encoding/json"

	"go.uber.org/zap"

	"ludoterm/gamelog"
	"ludoterm/types"
)

func (s *Server) overLocked() bool {
	return s.turn >= len(s.script.Turns)
}

// scriptTurnLocked returns the scripted turn in play, or the last one once the game is over.
func (s *Server) scriptTurnLocked() ScriptTurn {
	if s.overLocked() {
		return s.script.Turns[len(s.script.Turns)-1]
	}
	return s.script.Turns[s.turn]
}

func (s *Server) aiToMoveLocked() bool {
	if s.overLocked() {
		return false
	}
	p := s.scriptTurnLocked().CurrentPlayer
	return p < len(s.modes) && s.modes[p] == types.ModeAI
}

// snapshotLocked builds the snapshot of the current turn.
func (s *Server) snapshotLocked() *types.TurnSnapshot {
	t := s.scriptTurnLocked()
	snap := &types.TurnSnapshot{
		Config:        s.script.Config,
		Modes:         append([]string(nil), s.modes...),
		Pawns:         make(map[types.PawnID]types.PawnInfo, len(s.positions)),
		Positions:     append([]types.PawnPosition(nil), s.positions...),
		LastMoveID:    s.turn,
		CurrentPlayer: t.CurrentPlayer,
		DiceRoll:      append([]int(nil), t.DiceRoll...),
		Blocks:        append([]types.Block{}, t.Blocks...),
		Moves:         append([]types.CandidateMove{}, t.Moves...),
		NumMoreMoves:  t.NumMoreMoves,
	}
	if s.overLocked() {
		snap.GameOver = true
		snap.DiceRoll = []int{}
		snap.Blocks = []types.Block{}
		snap.Moves = []types.CandidateMove{}
	}
	for _, p := range s.positions {
		colour, _ := types.ColourOf(p.PawnID)
		blocked := false
		for _, b := range snap.Blocks {
			if b.Rigid && b.Contains(p.PawnID) {
				blocked = true
			}
		}
		snap.Pawns[p.PawnID] = types.PawnInfo{Colour: colour, Blocked: blocked}
	}
	return snap
}

// snapshotOrEmptyLocked answers like the authority does when no game exists.
func (s *Server) snapshotOrEmptyLocked() interface{} {
	if !s.running {
		return struct{}{}
	}
	return s.snapshotLocked()
}

// takeLocked applies move if moveID is the next one and reports whether it did.
func (s *Server) takeLocked(move types.CandidateMove, moveID int, top []types.TopMove) bool {
	if s.overLocked() || moveID != s.turn+1 {
		s.log.Debug("move ignored", zap.Int("move_id", moveID), zap.Int("expected", s.turn+1))
		return false
	}
	if top == nil {
		top = []types.TopMove{}
	}
	s.history = append(s.history, gamelog.Frame{
		GameState: *s.snapshotLocked(),
		Move:      move,
		MoveID:    moveID - 1,
		TopMoves:  top,
	})

	for _, step := range move {
		for _, pawn := range step.Actor {
			for i := range s.positions {
				if s.positions[i].PawnID == pawn {
					s.positions[i].Position = step.Destination
				}
			}
		}
	}
	s.turn++
	s.log.Info("move taken", zap.Int("move_id", moveID), zap.Int("steps", len(move)))

	if s.overLocked() {
		s.history = append(s.history, gamelog.Frame{
			GameState: *s.snapshotLocked(),
			Move:      types.CandidateMove{},
			MoveID:    len(s.history),
			TopMoves:  []types.TopMove{},
		})
		s.log.Info("game over", zap.Int("moves", s.turn))
	}
	return true
}

// sessionLogLocked returns the log of the game played so far.
func (s *Server) sessionLogLocked() *gamelog.GameLog {
	g := &gamelog.GameLog{
		Config:    s.script.Config,
		Game:      append([]gamelog.Frame{}, s.history...),
		PlayerWon: json.RawMessage("null"),
	}
	if s.overLocked() && len(s.script.Turns) > 0 {
		last := s.script.Turns[len(s.script.Turns)-1].CurrentPlayer
		if last < len(s.script.Config.Players) {
			name, _ := json.Marshal(s.script.Config.Players[last].Name)
			g.PlayerWon = name
		}
	}
	return g
}
