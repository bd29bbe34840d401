package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"ludoterm/config"
	"ludoterm/engine"
	"ludoterm/engine/httpapi"
	"ludoterm/play"
	"ludoterm/types"
	"ludoterm/ui"
)

// app holds the screens of the terminal client and the session in progress.
type app struct {
	ctx  context.Context
	cfg  *config.Config
	log  *zap.Logger
	auth engine.Authority
	feed engine.SnapshotFeed

	tv    *tview.Application
	pages *tview.Pages
	turn  *ui.TurnView
	hint  *tview.TextView
	setup *ui.GameSetupUI
	logs  *ui.HistoryBrowserUI

	// Owned by the UI goroutine.
	ctrl        *play.Controller
	stopSession context.CancelFunc
}

func gameConfig(cfg *config.Config) (engine.GameConfig, error) {
	gc := engine.GameConfig{
		URL:            cfg.Authority.URL,
		PollInterval:   cfg.Authority.PollInterval,
		RequestTimeout: cfg.Authority.RequestTimeout,
	}
	if cfg.Authority.Push {
		gc.PushURL = cfg.Authority.PushURL
		if gc.PushURL == "" {
			u, err := httpapi.PushURL(cfg.Authority.URL)
			if err != nil {
				return gc, err
			}
			gc.PushURL = u
		}
	}
	return gc, nil
}

func runApp(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	gc, err := gameConfig(cfg)
	if err != nil {
		return err
	}
	client, err := httpapi.New(gc, httpapi.WithLogger(log))
	if err != nil {
		return err
	}
	a := &app{
		ctx:  ctx,
		cfg:  cfg,
		log:  log,
		auth: client,
	}
	if gc.PushURL != "" {
		a.feed = httpapi.NewFeed(gc.PushURL, log)
	}
	a.build()

	log.Info("starting", zap.String("version", Version), zap.String("authority", gc.URL))
	go func() {
		<-ctx.Done()
		a.tv.Stop()
	}()
	go a.checkRunningGame()

	return a.tv.SetRoot(a.pages, true).Run()
}

func (a *app) build() {
	a.tv = tview.NewApplication()
	a.pages = tview.NewPages()
	a.pages.SetBorder(true).SetTitle(" ● ludoterm ")

	a.hint = tview.NewTextView()
	a.hint.SetBorder(true)
	a.hint.SetBorderPadding(0, 0, 1, 1)
	a.hint.SetTitle(" Status ")
	a.hint.SetTitleAlign(tview.AlignLeft)
	a.turn = ui.NewTurnView(a.cfg, a.hint)
	gameFrame := ui.CreateGameLayout(a.turn, a.hint)

	a.turn.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q':
				a.endSession()
				a.pages.SwitchToPage("setup")
				return nil
			case 'x':
				a.resetGame()
				return nil
			}
		}
		return a.turn.HandleKey(event)
	})

	a.setup = ui.NewGameSetup(a.cfg.Seats, a.newGame, func() {
		a.logs.Refresh()
		a.pages.SwitchToPage("logs")
	}, func() {
		a.tv.Stop()
	})

	a.logs = ui.NewHistoryBrowser(a.tv, a.auth, a.cfg.Authority.LogFiles, a.cfg.Authority.RequestTimeout, a.log, func() {
		a.pages.SwitchToPage("setup")
	})

	connecting := tview.NewTextView().
		SetText("Connecting to " + a.cfg.Authority.URL + "...").
		SetTextAlign(tview.AlignCenter)

	a.pages.AddPage("connecting", connecting, true, true)
	a.pages.AddPage("setup", ui.CreateCenteredForm(a.setup.Form(), 60), true, false)
	a.pages.AddPage("game", gameFrame, true, false)
	a.pages.AddPage("logs", a.logs.Flex(), true, false)
}

// checkRunningGame resumes a game already in progress, or opens the colour chooser.
func (a *app) checkRunningGame() {
	running, err := a.auth.CheckRunningGame(a.ctx)
	if err != nil {
		a.log.Warn("checking for a running game failed", zap.Error(err))
	}
	a.tv.QueueUpdateDraw(func() {
		a.pages.SwitchToPage("setup")
		if err != nil {
			a.showError(fmt.Sprintf("Could not reach the authority:\n%v", err))
			return
		}
		if running {
			a.startSession()
		}
	})
}

// newGame saves the chosen seats and asks the authority for a new game.
func (a *app) newGame(seats []types.SeatAssignment) {
	a.cfg.Seats = seats
	if err := a.cfg.Save(); err != nil {
		a.log.Warn("saving seats failed", zap.Error(err))
	}
	go func() {
		_, err := a.auth.CreateNewGame(a.ctx, seats)
		if err != nil {
			a.log.Error("creating a game failed", zap.Error(err))
		}
		a.tv.QueueUpdateDraw(func() {
			if err != nil {
				a.showError(fmt.Sprintf("Failed to start game:\n%v", err))
				return
			}
			a.startSession()
		})
	}()
}

// resetGame discards the running game and returns to the colour chooser.
func (a *app) resetGame() {
	a.endSession()
	go func() {
		err := a.auth.Reset(a.ctx)
		if err != nil {
			a.log.Error("resetting the game failed", zap.Error(err))
		}
		a.tv.QueueUpdateDraw(func() {
			a.pages.SwitchToPage("setup")
			if err != nil {
				a.showError(fmt.Sprintf("Failed to reset game:\n%v", err))
			}
		})
	}()
}

// startSession runs a controller for the game in progress. Must run on the UI goroutine.
func (a *app) startSession() {
	a.endSession()
	ctx, cancel := context.WithCancel(a.ctx)
	a.stopSession = cancel

	var ctrl *play.Controller
	ctrl = play.New(a.auth, play.Options{
		PollInterval: a.cfg.Authority.PollInterval,
		Mode:         a.cfg.MatchMode(),
		Feed:         a.feed,
		Logger:       a.log,
		OnUpdate: func(v play.View) {
			// Called on the controller's goroutine; QueueUpdateDraw blocks
			// until the UI loop takes it, so hand it off.
			go a.tv.QueueUpdateDraw(func() {
				if a.ctrl == ctrl {
					a.turn.SetView(v)
				}
			})
		},
	})
	a.ctrl = ctrl
	a.turn.Connect(ctrl)
	go func() {
		if err := ctrl.Run(ctx); err != nil {
			a.log.Error("session ended", zap.Error(err))
		}
	}()
	a.pages.SwitchToPage("game")
}

// endSession stops the controller, if any. Must run on the UI goroutine.
func (a *app) endSession() {
	if a.stopSession != nil {
		a.stopSession()
		a.stopSession = nil
	}
	a.ctrl = nil
	a.turn.Disconnect()
}

func (a *app) showError(text string) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("error")
		})
	a.pages.AddPage("error", modal, true, true)
}
