package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"ludoterm/gamelog"
	"ludoterm/types"
)

// LogSource lists and fetches recorded games.
type LogSource interface {
	ListLogs(ctx context.Context, n int) ([]gamelog.Run, error)
	GetLogFile(ctx context.Context, run, file string) (*gamelog.GameLog, error)
}

type logEntry struct {
	run  string
	file string
}

// HistoryBrowserUI lists the authority's game logs and plays one back frame by frame.
type HistoryBrowserUI struct {
	flex     *tview.Flex
	gameList *tview.List
	preview  *tview.TextView
	hint     *tview.TextView
	app      *tview.Application
	src      LogSource
	limit    int
	timeout  time.Duration
	log      *zap.Logger
	entries  []logEntry
	selected int
	playback *gamelog.Playback
	loaded   logEntry
	onDone   func()
}

// NewHistoryBrowser creates the log browser. limit caps the files listed per run.
func NewHistoryBrowser(app *tview.Application, src LogSource, limit int, timeout time.Duration, log *zap.Logger, onDone func()) *HistoryBrowserUI {
	hb := &HistoryBrowserUI{
		app:     app,
		src:     src,
		limit:   limit,
		timeout: timeout,
		log:     log,
		onDone:  onDone,
	}

	hb.gameList = tview.NewList()
	hb.gameList.SetBorder(true)
	hb.gameList.SetTitle(" Game Logs ")
	hb.gameList.ShowSecondaryText(false)
	hb.gameList.SetHighlightFullLine(true)
	hb.gameList.SetMainTextStyle(tcell.StyleDefault.Foreground(MenuColors.Label))
	hb.gameList.SetSelectedStyle(tcell.StyleDefault.
		Foreground(MenuColors.ButtonText).
		Background(MenuColors.ButtonFocus))

	hb.preview = tview.NewTextView()
	hb.preview.SetDynamicColors(true)
	hb.preview.SetBorder(true)
	hb.preview.SetTitle(" Playback ")

	hb.hint = tview.NewTextView()
	hb.hint.SetDynamicColors(true)
	hb.hint.SetBorder(false)
	hb.hint.SetText("  [dimgray]⏎[-] open  [dimgray]←→/hl[-] step  [dimgray]PgUp/PgDn[-] ±10  [dimgray]Home/End[-] first/last  [dimgray]r[-] reload  [dimgray]q[-] back")

	hb.gameList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		hb.selected = index
	})
	hb.gameList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		hb.open(index)
	})
	hb.gameList.SetInputCapture(hb.handleInput)

	topRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(hb.gameList, 38, 0, true).
		AddItem(hb.preview, 0, 1, false)

	hb.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, true).
		AddItem(hb.hint, 1, 0, false)
	return hb
}

// Flex returns the flex container for this UI.
func (hb *HistoryBrowserUI) Flex() *tview.Flex {
	return hb.flex
}

// Refresh reloads the list of logs from the authority.
func (hb *HistoryBrowserUI) Refresh() {
	hb.gameList.Clear()
	hb.gameList.AddItem("[dimgray]Loading...[-]", "", 0, nil)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), hb.timeout)
		defer cancel()
		runs, err := hb.src.ListLogs(ctx, hb.limit)
		if err != nil {
			hb.log.Warn("listing game logs failed", zap.Error(err))
		}
		hb.app.QueueUpdateDraw(func() {
			hb.setRuns(runs, err)
		})
	}()
}

func (hb *HistoryBrowserUI) setRuns(runs []gamelog.Run, err error) {
	hb.gameList.Clear()
	hb.entries = nil
	hb.selected = 0
	if err != nil {
		hb.gameList.AddItem("[red]"+tview.Escape(err.Error())+"[-]", "", 0, nil)
		return
	}
	for _, r := range runs {
		for _, f := range r.Files {
			hb.entries = append(hb.entries, logEntry{run: r.Run, file: f})
			hb.gameList.AddItem(tview.Escape(r.Run+" / "+f), "", 0, nil)
		}
	}
	if len(hb.entries) == 0 {
		hb.gameList.AddItem("[dimgray]No games found[-]", "", 0, nil)
	}
}

// open fetches the log at index and starts playing it back from the first frame.
func (hb *HistoryBrowserUI) open(index int) {
	if index < 0 || index >= len(hb.entries) {
		return
	}
	e := hb.entries[index]
	hb.preview.SetText("[dimgray]Loading " + tview.Escape(e.run+" / "+e.file) + "...[-]")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), hb.timeout)
		defer cancel()
		g, err := hb.src.GetLogFile(ctx, e.run, e.file)
		if err != nil {
			hb.log.Warn("fetching game log failed", zap.String("run", e.run), zap.String("file", e.file), zap.Error(err))
		}
		hb.app.QueueUpdateDraw(func() {
			if err != nil {
				hb.playback = nil
				hb.preview.SetText("[red]" + tview.Escape(err.Error()) + "[-]")
				return
			}
			hb.playback = gamelog.NewPlayback(g)
			hb.loaded = e
			hb.redraw()
		})
	}()
}

func (hb *HistoryBrowserUI) redraw() {
	if hb.playback == nil {
		return
	}
	hb.preview.SetText(frameText(hb.loaded.run, hb.loaded.file, hb.playback))
	hb.preview.ScrollToBeginning()
}

// handleInput processes keyboard input for the history browser.
func (hb *HistoryBrowserUI) handleInput(event *tcell.EventKey) *tcell.EventKey {
	p := hb.playback
	switch event.Key() {
	case tcell.KeyEscape:
		if hb.onDone != nil {
			hb.onDone()
		}
		return nil
	case tcell.KeyLeft:
		if p != nil {
			p.Back()
			hb.redraw()
		}
		return nil
	case tcell.KeyRight:
		if p != nil {
			p.Forward()
			hb.redraw()
		}
		return nil
	case tcell.KeyPgUp:
		if p != nil {
			p.Seek(p.Index() - 10)
			hb.redraw()
		}
		return nil
	case tcell.KeyPgDn:
		if p != nil {
			p.Seek(p.Index() + 10)
			hb.redraw()
		}
		return nil
	case tcell.KeyHome:
		if p != nil {
			p.First()
			hb.redraw()
		}
		return nil
	case tcell.KeyEnd:
		if p != nil {
			p.Last()
			hb.redraw()
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			if hb.onDone != nil {
				hb.onDone()
			}
			return nil
		case 'r':
			hb.Refresh()
			return nil
		case 'h':
			if p != nil {
				p.Back()
				hb.redraw()
			}
			return nil
		case 'l':
			if p != nil {
				p.Forward()
				hb.redraw()
			}
			return nil
		}
	}
	return event
}

// frameText renders the current frame of p.
func frameText(run, file string, p *gamelog.Playback) string {
	var b strings.Builder
	g := p.Log()
	info := gamelog.Summarize(run, file, g)

	fmt.Fprintf(&b, "[white::b]%s[-:-:-]\n", tview.Escape(run+" / "+file))
	for _, pl := range info.Players {
		fmt.Fprintf(&b, "%s:", tview.Escape(pl.Name))
		for _, c := range pl.Colours {
			fmt.Fprintf(&b, " [%s]%s[-]", colourTag(c), c)
		}
		b.WriteString("\n")
	}
	winner := info.Winner
	if winner == "" {
		winner = "Unfinished"
	}
	fmt.Fprintf(&b, "[dimgray]%d moves  |  Winner: %s[-]\n", info.MoveCount, tview.Escape(winner))
	b.WriteString(rule)

	f := p.Current()
	if f == nil {
		b.WriteString("[dimgray]No frames recorded[-]\n")
		return b.String()
	}
	s := &f.GameState
	fmt.Fprintf(&b, "[white]Frame:[-:-:-] %d/%d   [white]Move id:[-:-:-] %d\n", p.Index()+1, p.Len(), f.MoveID)
	fmt.Fprintf(&b, "[white]To move:[-:-:-] %s   [white]Dice:[-:-:-] %s\n", tview.Escape(s.CurrentPlayerName()), dice(s.DiceRoll))
	if s.GameOver {
		b.WriteString("[yellow::b]Game over[-:-:-]\n")
	}

	b.WriteString("\n[white::b]Move taken[-:-:-]\n")
	b.WriteString(moveText(f.Move))

	if len(f.TopMoves) > 0 {
		b.WriteString("\n[white::b]Top moves[-:-:-]\n")
		for i, tm := range f.TopMoves {
			fmt.Fprintf(&b, "[dimgray]%2d.[-] %5.1f%%  v=%+.2f  %s", i+1, tm.Prob*100, tm.Value, moveText(tm.Move))
		}
	}

	b.WriteString("\n[white::b]Pawns[-:-:-]\n")
	for _, id := range s.PawnIDs() {
		pos, _ := s.PositionOf(id)
		c, _ := types.ColourOf(id)
		if pi, ok := s.Pawns[id]; ok && pi.Colour != "" {
			c = pi.Colour
		}
		fmt.Fprintf(&b, "[%s]%-3s[-] %s\n", colourTag(c), id, pos)
	}
	return b.String()
}

func moveText(m types.CandidateMove) string {
	if len(m) == 0 {
		return "[dimgray]pass[-]\n"
	}
	parts := make([]string, len(m))
	for i, s := range m {
		parts[i] = tview.Escape(s.String())
	}
	return strings.Join(parts, "; ") + "\n"
}
