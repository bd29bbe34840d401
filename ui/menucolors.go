package ui

import (
	"github.com/gdamore/tcell/v2"

	"ludoterm/config"
	"ludoterm/types"
)

// MenuColors defines the palette shared by the menu screens.
var MenuColors = struct {
	Border      tcell.Color
	BorderFocus tcell.Color
	Title       tcell.Color
	Label       tcell.Color
	Hint        tcell.Color
	ButtonBG    tcell.Color
	ButtonFocus tcell.Color
	ButtonText  tcell.Color
}{
	Border:      tcell.PaletteColor(60),
	BorderFocus: tcell.PaletteColor(109),
	Title:       tcell.PaletteColor(255),
	Label:       tcell.PaletteColor(250),
	Hint:        tcell.PaletteColor(245),
	ButtonBG:    tcell.PaletteColor(60),
	ButtonFocus: tcell.PaletteColor(109),
	ButtonText:  tcell.PaletteColor(255),
}

// Palette maps the configured theme onto tcell colours.
type Palette struct {
	pawns     map[types.Colour]tcell.Color
	Highlight tcell.Color
	Selected  tcell.Color
	CursorFG  tcell.Color
	CursorBG  tcell.Color
}

// NewPalette builds the palette of theme.
func NewPalette(theme config.Theme) Palette {
	c := theme.Colors
	return Palette{
		pawns: map[types.Colour]tcell.Color{
			types.Red:    tcell.PaletteColor(c.Red),
			types.Green:  tcell.PaletteColor(c.Green),
			types.Yellow: tcell.PaletteColor(c.Yellow),
			types.Blue:   tcell.PaletteColor(c.Blue),
		},
		Highlight: tcell.PaletteColor(c.Highlight),
		Selected:  tcell.PaletteColor(c.Selected),
		CursorFG:  tcell.PaletteColor(c.CursorFG),
		CursorBG:  tcell.PaletteColor(c.CursorBG),
	}
}

// Pawn returns the colour a pawn of colour c is drawn with.
func (p Palette) Pawn(c types.Colour) tcell.Color {
	if col, ok := p.pawns[c]; ok {
		return col
	}
	return tcell.ColorDefault
}

// colourTag returns the tview colour tag name for a pawn colour.
func colourTag(c types.Colour) string {
	switch c {
	case types.Red, types.Green, types.Yellow, types.Blue:
		return string(c)
	}
	return "white"
}
