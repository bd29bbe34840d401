// Package gamelog reads game logs recorded by the authority and steps
// through them frame by frame.
package gamelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ludoterm/types"
)

// Run is one training or play session and the log files it produced.
type Run struct {
	Run   string   `json:"run"`
	Files []string `json:"files"`
}

// Frame is the state before one move together with the move taken.
type Frame struct {
	GameState types.TurnSnapshot  `json:"game_state"`
	Move      types.CandidateMove `json:"move"`
	MoveID    int                 `json:"move_id"`
	TopMoves  []types.TopMove     `json:"top_moves"`
}

// GameLog is a complete recorded game.
type GameLog struct {
	Config    types.GameSettings `json:"config"`
	Game      []Frame            `json:"game"`
	PlayerWon json.RawMessage    `json:"player_won"`
}

// Winner returns the recorded winner as text, or "" while unknown.
// The authority stores either a player name or a seat number here.
func (g *GameLog) Winner() string {
	if len(g.PlayerWon) == 0 || string(g.PlayerWon) == "null" {
		return ""
	}
	var name string
	if err := json.Unmarshal(g.PlayerWon, &name); err == nil {
		return name
	}
	var seat int
	if err := json.Unmarshal(g.PlayerWon, &seat); err == nil {
		if seat >= 1 && seat <= len(g.Config.Players) {
			return g.Config.Players[seat-1].Name
		}
		return fmt.Sprintf("Player %d", seat)
	}
	return strings.Trim(string(g.PlayerWon), `"`)
}

// Info holds summary information about a recorded game.
type Info struct {
	Run       string
	File      string
	Players   []types.Player
	MoveCount int
	Winner    string
	Finished  bool
}

// Summarize derives Info from a parsed log.
func Summarize(run, file string, g *GameLog) Info {
	info := Info{
		Run:     run,
		File:    file,
		Players: g.Config.Players,
		Winner:  g.Winner(),
	}
	for _, f := range g.Game {
		if len(f.Move) > 0 {
			info.MoveCount++
		}
	}
	if n := len(g.Game); n > 0 {
		info.Finished = g.Game[n-1].GameState.GameOver
	}
	return info
}

// Parse decodes a log document.
func Parse(data []byte) (*GameLog, error) {
	var g GameLog
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse game log: %w", err)
	}
	return &g, nil
}

// ReadFile parses the log stored at filePath.
func ReadFile(filePath string) (*GameLog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ListRuns scans dir for run directories, each holding a logs/ directory
// of .json files, the layout the authority writes. Runs are returned newest
// first by name, and at most n files from each run.
func ListRuns(dir string, n int) ([]Run, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var runs []Run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, e.Name(), "logs"))
		if err != nil {
			continue
		}
		run := Run{Run: e.Name(), Files: []string{}}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			run.Files = append(run.Files, f.Name())
		}
		sort.Sort(sort.Reverse(sort.StringSlice(run.Files)))
		if n > 0 && len(run.Files) > n {
			run.Files = run.Files[:n]
		}
		runs = append(runs, run)
	}

	// Newest first
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Run > runs[j].Run
	})

	return runs, nil
}

// FilePath returns where ListRuns expects the given log file.
// It rejects names that would escape dir.
func FilePath(dir, run, file string) (string, error) {
	for _, part := range []string{run, file} {
		if part == "" || part != filepath.Base(part) || part == "." || part == ".." {
			return "", fmt.Errorf("invalid log name %q", part)
		}
	}
	return filepath.Join(dir, run, "logs", file), nil
}
