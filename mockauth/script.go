// Package mockauth serves a scripted game over the authority's HTTP API.
// Pawn positions follow the moves taken; everything else comes from the script.
package mockauth

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"ludoterm/types"
)

//go:embed demo.json
var demoScript []byte

// ScriptTurn is one scripted turn.
type ScriptTurn struct {
	CurrentPlayer int                   `json:"current_player"`
	DiceRoll      []int                 `json:"dice_roll"`
	Blocks        []types.Block         `json:"blocks"`
	Moves         []types.CandidateMove `json:"moves"`
	NumMoreMoves  int                   `json:"num_more_moves"`
}

// Script is a whole scripted game.
type Script struct {
	Config    types.GameSettings   `json:"config"`
	Modes     []string             `json:"modes"`
	Positions []types.PawnPosition `json:"positions"`
	Turns     []ScriptTurn         `json:"turns"`
}

// Validate checks that the script can be played.
func (s *Script) Validate() error {
	if len(s.Turns) == 0 {
		return fmt.Errorf("script has no turns")
	}
	if len(s.Config.Players) == 0 {
		return fmt.Errorf("script has no players")
	}
	for i, t := range s.Turns {
		if t.CurrentPlayer < 0 || t.CurrentPlayer >= len(s.Config.Players) {
			return fmt.Errorf("turn %d: current_player %d out of range", i, t.CurrentPlayer)
		}
		if t.Moves == nil {
			return fmt.Errorf("turn %d: moves missing", i)
		}
	}
	return nil
}

// ParseScript decodes and validates a script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a script file. An empty path loads the built-in demo.
func LoadScript(path string) (*Script, error) {
	if path == "" {
		return DemoScript(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// DemoScript returns the built-in demo game.
func DemoScript() *Script {
	s, err := ParseScript(demoScript)
	if err != nil {
		panic(err)
	}
	return s
}
