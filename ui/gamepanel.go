package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"ludoterm/play"
	"ludoterm/selection"
	"ludoterm/types"
)

// GameInfoPanel displays the players, the dice and the selection alongside the turn view.
type GameInfoPanel struct {
	box *tview.TextView
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel() *GameInfoPanel {
	panel := &GameInfoPanel{
		box: tview.NewTextView(),
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetView updates the panel with the session state.
func (p *GameInfoPanel) SetView(v play.View) {
	p.box.SetText(infoText(v))
}

const rule = "[dimgray]──────────────────────[-:-:-]\n"

// infoText renders the panel contents for v.
func infoText(v play.View) string {
	s := v.Snapshot
	if s == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString("[white::b]Players[-:-:-]\n")
	b.WriteString(rule)
	for i, pl := range s.Config.Players {
		marker := " "
		if i == s.CurrentPlayer && !s.GameOver {
			marker = "[white]>[-]"
		}
		mode := ""
		if i < len(s.Modes) {
			mode = s.Modes[i]
		}
		fmt.Fprintf(&b, "%s %s [dimgray](%s)[-]\n", marker, tview.Escape(pl.Name), mode)
		b.WriteString("   ")
		for _, c := range pl.Colours {
			fmt.Fprintf(&b, "[%s]%s[-] ", colourTag(c), c)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n[white::b]Turn[-:-:-]\n")
	b.WriteString(rule)
	fmt.Fprintf(&b, "[white]Move:[-:-:-] %d\n", s.LastMoveID+1)
	fmt.Fprintf(&b, "[white]Dice:[-:-:-] %s\n", dice(s.DiceRoll))
	if s.NumMoreMoves > 0 {
		fmt.Fprintf(&b, "[white]Moves left:[-:-:-] %d\n", s.NumMoreMoves)
	}
	if s.GameOver {
		b.WriteString("[yellow::b]Game over[-:-:-]\n")
	} else {
		fmt.Fprintf(&b, "[white]Candidates:[-:-:-] %d\n", v.Candidates)
	}

	if len(v.Pending) > 0 || len(v.Locked) > 0 {
		b.WriteString("\n[white::b]Selection[-:-:-]\n")
		b.WriteString(rule)
		if len(v.Pending) > 0 {
			fmt.Fprintf(&b, "[white]Pending:[-:-:-] %s\n", pawnList(v.Pending))
		}
		for i, st := range v.Locked {
			fmt.Fprintf(&b, "[dimgray]%2d.[-] %s\n", i+1, tview.Escape(st.String()))
		}
	}

	switch v.Resolution.Kind {
	case selection.ResolutionSubmit:
		fmt.Fprintf(&b, "\n[green]Move %d resolved[-]\n", v.Resolution.MoveID)
	case selection.ResolutionSkip:
		fmt.Fprintf(&b, "\n[green]No legal move, skipping %d[-]\n", v.Resolution.MoveID)
	}
	if v.Err != nil {
		fmt.Fprintf(&b, "\n[red]%s[-]\n", tview.Escape(v.Err.Error()))
	}
	return b.String()
}

func dice(roll []int) string {
	if len(roll) == 0 {
		return "-"
	}
	parts := make([]string, len(roll))
	for i, d := range roll {
		parts[i] = fmt.Sprint(d)
	}
	return strings.Join(parts, " ")
}

func pawnList(ids []types.PawnID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		c, _ := types.ColourOf(id)
		parts[i] = fmt.Sprintf("[%s]%s[-]", colourTag(c), id)
	}
	return strings.Join(parts, " ")
}

// CreateGameLayout creates the main game layout with the turn view and side panel.
func CreateGameLayout(turn *TurnView, hint *tview.TextView) *tview.Flex {
	infoPanel := NewGameInfoPanel()
	turn.infoPanel = infoPanel
	infoPanel.SetView(turn.View())

	row := tview.NewFlex().SetDirection(tview.FlexColumn)
	row.AddItem(turn.Box, 0, 1, true)
	row.AddItem(infoPanel.Box(), 30, 0, false)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	mainFlex.AddItem(row, 0, 1, true)
	mainFlex.AddItem(hint, 4, 0, false)

	return mainFlex
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form *tview.Flex, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)
	centered.AddItem(form, maxWidth, 0, true)
	centered.AddItem(nil, 0, 1, false)

	return centered
}
