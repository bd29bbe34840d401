// Package ui provides the terminal screens of ludoterm.
package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"ludoterm/types"
)

// Colour combinations a seat can take in a doubles game.
var combinations = [][]types.Colour{
	{types.Red, types.Yellow},
	{types.Green, types.Blue},
}

var seatModes = []string{types.ModeHuman, types.ModeAI}

// SeatsFor builds the two seats of a game: the first seat plays combination
// combo, the second plays the other one.
func SeatsFor(combo int, modes [2]string) []types.SeatAssignment {
	if combo < 0 || combo >= len(combinations) {
		combo = 0
	}
	other := 1 - combo
	return []types.SeatAssignment{
		{Mode: modes[0], Colours: append([]types.Colour(nil), combinations[combo]...)},
		{Mode: modes[1], Colours: append([]types.Colour(nil), combinations[other]...)},
	}
}

// seatChoice reads the combination and modes back out of saved seats.
func seatChoice(seats []types.SeatAssignment) (int, [2]string) {
	combo := 0
	modes := [2]string{types.ModeHuman, types.ModeAI}
	if len(seats) != 2 {
		return combo, modes
	}
	for i, c := range combinations {
		if len(seats[0].Colours) > 0 && seats[0].Colours[0] == c[0] {
			combo = i
		}
	}
	for i := range modes {
		if seats[i].Mode == types.ModeHuman || seats[i].Mode == types.ModeAI {
			modes[i] = seats[i].Mode
		}
	}
	return combo, modes
}

func modeIndex(mode string) int {
	for i, m := range seatModes {
		if m == mode {
			return i
		}
	}
	return 0
}

// GameSetupUI is the colour chooser shown before a game starts.
type GameSetupUI struct {
	form  *tview.Form
	flex  *tview.Flex
	combo int
	modes [2]string
}

// NewGameSetup creates the chooser, preselecting seats.
func NewGameSetup(seats []types.SeatAssignment, onStart func([]types.SeatAssignment), onLogs func(), onQuit func()) *GameSetupUI {
	setup := &GameSetupUI{}
	setup.combo, setup.modes = seatChoice(seats)

	comboLabels := []string{"Red & Yellow", "Green & Blue"}

	form := tview.NewForm()
	form.AddDropDown("Seat 1 colours", comboLabels, setup.combo, func(option string, index int) {
		setup.combo = index
	})
	form.AddDropDown("Seat 1 plays", seatModes, modeIndex(setup.modes[0]), func(option string, index int) {
		setup.modes[0] = seatModes[index]
	})
	form.AddDropDown("Seat 2 plays", seatModes, modeIndex(setup.modes[1]), func(option string, index int) {
		setup.modes[1] = seatModes[index]
	})

	form.AddButton("Start Game", func() {
		onStart(setup.Seats())
	})
	form.AddButton("Game Logs", func() {
		if onLogs != nil {
			onLogs()
		}
	})
	form.AddButton("Quit", func() {
		onQuit()
	})

	form.SetBorder(true)
	form.SetTitle(" New Game ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(MenuColors.ButtonBG)
	form.SetButtonTextColor(MenuColors.ButtonText)

	helpText := tview.NewTextView().
		SetText("Seat 2 takes the other colours  |  Tab/Shift+Tab: navigate  |  Enter: confirm").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(MenuColors.Hint)

	setup.form = form
	setup.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)
	return setup
}

// Seats returns the seats currently chosen.
func (s *GameSetupUI) Seats() []types.SeatAssignment {
	return SeatsFor(s.combo, s.modes)
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}
