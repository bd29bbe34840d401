package config

import (
	"time"

	"ludoterm/types"
)

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		Colors: ConfigColors{
			Red:       196,
			Green:     34,
			Yellow:    220,
			Blue:      33,
			Highlight: 213,
			Selected:  231,
			CursorFG:  232,
			CursorBG:  110,
		},
		Symbols: ConfigSymbols{
			Pawn:        '●',
			BlockedPawn: '◉',
			Destination: '◆',
			Selected:    '▶',
		},
	}

	DefaultConfig = Config{
		Authority: AuthorityConfig{
			URL:            "http://localhost:5000",
			PollInterval:   2 * time.Second,
			RequestTimeout: 5 * time.Second,
			LogFiles:       100,
		},
		Selection: SelectionConfig{
			MatchMode: "containment",
		},
		Theme: DefaultTheme,
		Seats: []types.SeatAssignment{
			{Mode: types.ModeHuman, Colours: []types.Colour{types.Red, types.Yellow}},
			{Mode: types.ModeAI, Colours: []types.Colour{types.Green, types.Blue}},
		},
	}
}
