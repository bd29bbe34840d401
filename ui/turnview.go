package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"ludoterm/config"
	"ludoterm/play"
	"ludoterm/selection"
	"ludoterm/types"
)

// Clicker receives the clicks of the turn view.
type Clicker interface {
	ClickPawn(id types.PawnID)
	ClickPosition(pos types.Position)
	Refresh()
}

// target is one line the cursor can stop on: a pawn, or a highlighted destination.
type target struct {
	pawn types.PawnID
	pos  types.Position
}

// targetsOf lists the pawns of the snapshot followed by the highlighted destinations.
func targetsOf(v play.View) []target {
	if v.Snapshot == nil {
		return nil
	}
	var out []target
	for _, id := range v.Snapshot.PawnIDs() {
		out = append(out, target{pawn: id})
	}
	for _, pos := range v.Highlighted {
		out = append(out, target{pos: pos})
	}
	return out
}

// TurnView lists the pawns of the turn and the destinations the pending
// selection can reach, and turns key presses into clicks.
type TurnView struct {
	Box       *tview.Box
	hint      *tview.TextView
	cfg       *config.Config
	palette   Palette
	clicker   Clicker
	view      play.View
	cursor    int
	infoPanel *GameInfoPanel
}

// NewTurnView creates an empty turn view.
func NewTurnView(c *config.Config, hint *tview.TextView) *TurnView {
	t := &TurnView{
		Box:  tview.NewBox(),
		hint: hint,
	}
	t.SetConfig(c)
	t.Box.SetDrawFunc(t.draw)
	t.refreshHint()
	return t
}

// SetConfig applies a new theme.
func (t *TurnView) SetConfig(c *config.Config) {
	t.cfg = c
	t.palette = NewPalette(c.Theme)
}

// Connect routes clicks to c and clears the previous session's state.
func (t *TurnView) Connect(c Clicker) {
	t.clicker = c
	t.view = play.View{}
	t.cursor = 0
	t.refreshHint()
}

// Disconnect stops routing clicks.
func (t *TurnView) Disconnect() {
	t.clicker = nil
}

// SetView replaces the rendered state. Views of the same session that are
// older than the one shown are dropped. Must run on the UI goroutine.
func (t *TurnView) SetView(v play.View) {
	if t.view.Session != "" && v.Session == t.view.Session && v.Version < t.view.Version {
		return
	}
	// A changed turn puts the cursor back on the first pawn.
	if t.view.Snapshot == nil || v.Snapshot == nil || t.view.Snapshot.LastMoveID != v.Snapshot.LastMoveID {
		t.cursor = 0
	}
	t.view = v
	t.clampCursor()
	t.refreshHint()
}

// View returns the state last rendered.
func (t *TurnView) View() play.View {
	return t.view
}

func (t *TurnView) clampCursor() {
	n := len(targetsOf(t.view))
	if t.cursor >= n {
		t.cursor = n - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// MoveCursor moves the cursor by delta lines.
func (t *TurnView) MoveCursor(delta int) {
	t.cursor += delta
	t.clampCursor()
}

// Activate clicks whatever is under the cursor.
func (t *TurnView) Activate() {
	if t.clicker == nil || !t.view.MyTurn() {
		return
	}
	targets := targetsOf(t.view)
	if t.cursor >= len(targets) {
		return
	}
	tg := targets[t.cursor]
	if tg.pawn != "" {
		t.clicker.ClickPawn(tg.pawn)
		return
	}
	t.clicker.ClickPosition(tg.pos)
}

// ActivateDestination clicks the n-th highlighted destination, counting from 1.
func (t *TurnView) ActivateDestination(n int) {
	if t.clicker == nil || !t.view.MyTurn() {
		return
	}
	if n < 1 || n > len(t.view.Highlighted) {
		return
	}
	t.clicker.ClickPosition(t.view.Highlighted[n-1])
}

// HandleKey maps cursor and click keys. Keys it does not use are returned.
func (t *TurnView) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		t.MoveCursor(-1)
		return nil
	case tcell.KeyDown:
		t.MoveCursor(1)
		return nil
	case tcell.KeyEnter:
		t.Activate()
		return nil
	case tcell.KeyRune:
		switch r := event.Rune(); {
		case r == 'k':
			t.MoveCursor(-1)
			return nil
		case r == 'j':
			t.MoveCursor(1)
			return nil
		case r == ' ':
			t.Activate()
			return nil
		case r == 'r':
			if t.clicker != nil {
				t.clicker.Refresh()
			}
			return nil
		case r >= '1' && r <= '9':
			t.ActivateDestination(int(r - '0'))
			return nil
		}
	}
	return event
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (t *TurnView) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	v := t.view
	if v.Snapshot == nil {
		drawText(screen, x+1, y, "Waiting for the authority...", tcell.StyleDefault.Foreground(MenuColors.Hint))
		return x, y, width, height
	}
	sym := t.cfg.Theme.Symbols
	targets := targetsOf(v)
	pawns := len(v.Snapshot.PawnIDs())
	row := y

	header := tcell.StyleDefault.Foreground(MenuColors.Title).Bold(true)
	dim := tcell.StyleDefault.Foreground(MenuColors.Hint)
	cursorStyle := tcell.StyleDefault.Foreground(t.palette.CursorFG).Background(t.palette.CursorBG)

	drawText(screen, x+1, row, "Pawns", header)
	row++
	for i, tg := range targets {
		if row >= y+height {
			break
		}
		if i == pawns {
			row++
			drawText(screen, x+1, row, "Destinations", header)
			row++
		}

		style := tcell.StyleDefault
		marker := ' '
		if i == t.cursor {
			style = cursorStyle
			marker = sym.Selected
		}
		screen.SetContent(x+1, row, marker, nil, style)

		if tg.pawn != "" {
			t.drawPawn(screen, x+3, row, tg.pawn, style, dim)
		} else {
			n := i - pawns + 1
			fg := style.Foreground(t.palette.Highlight)
			if i == t.cursor {
				fg = style
			}
			screen.SetContent(x+3, row, sym.Destination, nil, fg)
			label := string(tg.pos)
			if n <= 9 {
				label = fmt.Sprintf("%s  [%d]", tg.pos, n)
			}
			drawText(screen, x+5, row, label, fg)
		}
		row++
	}

	if len(v.Locked) > 0 && row+1 < y+height {
		row++
		drawText(screen, x+1, row, "Locked steps", header)
		row++
		for _, s := range v.Locked {
			if row >= y+height {
				break
			}
			drawText(screen, x+3, row, s.String(), dim)
			row++
		}
	}
	return x, y, width, height
}

func (t *TurnView) drawPawn(screen tcell.Screen, x, y int, id types.PawnID, style, dim tcell.Style) {
	v := t.view
	info := v.Snapshot.Pawns[id]
	colour := info.Colour
	if colour == "" {
		colour, _ = types.ColourOf(id)
	}
	r := t.cfg.Theme.Symbols.Pawn
	if info.Blocked {
		r = t.cfg.Theme.Symbols.BlockedPawn
	}
	pawnStyle := style.Foreground(t.palette.Pawn(colour))
	screen.SetContent(x, y, r, nil, pawnStyle)

	textStyle := style
	switch {
	case contains(v.Pending, id):
		textStyle = style.Foreground(t.palette.Selected).Bold(true)
	case !contains(v.Selectable, id):
		_, bg, _ := style.Decompose()
		textStyle = dim.Background(bg)
	}
	pos, _ := v.Snapshot.PositionOf(id)
	label := fmt.Sprintf("%-3s %s", id, pos)
	if contains(v.Pending, id) {
		label += "  selected"
	}
	drawText(screen, x+2, y, label, textStyle)
}

func (t *TurnView) refreshHint() {
	if t.infoPanel != nil {
		t.infoPanel.SetView(t.view)
	}
	t.hint.SetText(hintText(t.view))
}

// hintText is the status line for v.
func hintText(v play.View) string {
	controls := "  ↑↓/jk move   ⏎/space click   1-9 destination   r refresh   x reset   q menu"
	var status string
	switch {
	case v.Snapshot == nil && v.Err != nil:
		status = fmt.Sprintf("  ! %v", v.Err)
	case v.Snapshot == nil:
		status = "  ◌ Connecting..."
	case v.Snapshot.GameOver:
		status = "  ■ Game over"
		controls = "  x new game   q menu"
	case v.Submitting:
		status = "  ◌ Submitting move..."
	case !v.MyTurn():
		status = fmt.Sprintf("  ◌ %s is thinking...", v.Snapshot.CurrentPlayerName())
	case v.Resolution.Kind != selection.ResolutionNone:
		status = "  ◌ Waiting for the next turn..."
	default:
		status = fmt.Sprintf("  ● %s to move", v.Snapshot.CurrentPlayerName())
	}
	return status + "\n" + controls
}

// drawText writes a string to the screen at the given position.
func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, ch := range text {
		screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
