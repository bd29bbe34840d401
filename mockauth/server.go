package mockauth

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"ludoterm/gamelog"
	"ludoterm/types"
)

// SessionRun and SessionFile name the log of the game being played.
const (
	SessionRun  = "session"
	SessionFile = "current.json"
)

// Options tunes a Server.
type Options struct {
	// LogDir holds recorded runs served by /get_logs. Empty serves only the session log.
	LogDir string
	// AIDelay is how long an AI seat "thinks" before taking its move.
	// While it thinks /get_current_board answers 500, as the real authority does.
	AIDelay time.Duration
	Logger  *zap.Logger
}

// Server is a scripted authority.
type Server struct {
	script *Script
	opts   Options
	log    *zap.Logger

	mu        sync.Mutex
	running   bool
	modes     []string
	turn      int
	positions []types.PawnPosition
	history   []gamelog.Frame
	thinking  bool
	subs      map[*subscriber]bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan *types.TurnSnapshot
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// New creates a server for script. No game is running until /create_new_game.
func New(script *Script, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		script: script,
		opts:   opts,
		log:    opts.Logger,
		subs:   make(map[*subscriber]bool),
	}
}

// Handler returns the HTTP routes of the authority API.
func (s *Server) Handler() http.Handler {
	mux := httprouter.New()
	mux.GET("/check_running_game", s.serveCheck)
	mux.GET("/reset", s.serveReset)
	mux.POST("/create_new_game", s.serveCreate)
	mux.GET("/get_current_board", s.serveBoard)
	mux.POST("/take_move", s.serveTakeMove)
	mux.GET("/get_logs", s.serveLogs)
	mux.GET("/get_log_file", s.serveLogFile)
	mux.GET("/ws", s.servePush)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) serveCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"running": running})
}

func (s *Server) serveReset(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	s.running = false
	s.turn = 0
	s.history = nil
	s.thinking = false
	s.mu.Unlock()
	s.log.Info("game reset")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Done"))
}

func (s *Server) serveCreate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var seats []types.SeatAssignment
	if err := json.NewDecoder(r.Body).Decode(&seats); err != nil {
		http.Error(w, "invalid seats: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if !s.running {
		s.running = true
		s.turn = 0
		s.history = nil
		s.positions = append([]types.PawnPosition(nil), s.script.Positions...)
		s.modes = append([]string(nil), s.script.Modes...)
		for i, seat := range seats {
			if i < len(s.modes) && seat.Mode != "" {
				s.modes[i] = seat.Mode
			}
		}
		s.log.Info("game created", zap.Strings("modes", s.modes))
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.afterChange()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) serveBoard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	if s.thinking {
		s.mu.Unlock()
		http.Error(w, "Move is being taken", http.StatusInternalServerError)
		return
	}
	snap := s.snapshotOrEmptyLocked()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) serveTakeMove(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var sub types.MoveSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid move: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		http.Error(w, "no game running", http.StatusConflict)
		return
	}
	changed := s.takeLocked(sub.Move, sub.MoveID, sub.TopMoves)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.afterChange()
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) serveLogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n, err := strconv.Atoi(r.URL.Query().Get("num_files"))
	if err != nil {
		n = 10
	}
	runs := []gamelog.Run{}

	s.mu.Lock()
	if len(s.history) > 0 {
		runs = append(runs, gamelog.Run{Run: SessionRun, Files: []string{SessionFile}})
	}
	s.mu.Unlock()

	if s.opts.LogDir != "" {
		stored, err := gamelog.ListRuns(s.opts.LogDir, n)
		if err != nil {
			s.log.Warn("failed to list logs", zap.String("dir", s.opts.LogDir), zap.Error(err))
		}
		runs = append(runs, stored...)
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) serveLogFile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	run, file := r.URL.Query().Get("run"), r.URL.Query().Get("file")
	if run == SessionRun && file == SessionFile {
		s.mu.Lock()
		g := s.sessionLogLocked()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, g)
		return
	}
	if s.opts.LogDir == "" {
		http.Error(w, "no such log", http.StatusNotFound)
		return
	}
	path, err := gamelog.FilePath(s.opts.LogDir, run, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	g, err := gamelog.ReadFile(path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) servePush(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade error", zap.Error(err))
		return
	}
	sub := &subscriber{conn: conn, send: make(chan *types.TurnSnapshot, 8)}

	s.mu.Lock()
	s.subs[sub] = true
	if s.running && !s.thinking {
		sub.send <- s.snapshotLocked()
	}
	s.mu.Unlock()
	s.log.Debug("push subscriber joined", zap.String("remote", r.RemoteAddr))

	go sub.writePump()
	sub.readPump()

	s.mu.Lock()
	if s.subs[sub] {
		delete(s.subs, sub)
		close(sub.send)
	}
	s.mu.Unlock()
}

// readPump discards client frames until the connection closes.
func (c *subscriber) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *subscriber) writePump() {
	defer c.conn.Close()

	for snap := range c.send {
		if err := c.conn.WriteJSON(snap); err != nil {
			return
		}
	}
}

// broadcastLocked queues snap for every subscriber, dropping slow ones.
func (s *Server) broadcastLocked(snap *types.TurnSnapshot) {
	for sub := range s.subs {
		select {
		case sub.send <- snap:
		default:
			delete(s.subs, sub)
			close(sub.send)
		}
	}
}

// afterChange pushes the new state and lets an AI seat move.
func (s *Server) afterChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.thinking {
		return
	}
	if s.aiToMoveLocked() {
		s.thinking = true
		turn := s.turn
		time.AfterFunc(s.opts.AIDelay, func() { s.playAI(turn) })
		return
	}
	s.broadcastLocked(s.snapshotLocked())
}

// playAI takes the first scripted candidate for the AI seat.
func (s *Server) playAI(turn int) {
	s.mu.Lock()
	if !s.running || s.turn != turn || !s.thinking {
		s.mu.Unlock()
		return
	}
	s.thinking = false
	move := types.CandidateMove{}
	if moves := s.script.Turns[turn].Moves; len(moves) > 0 {
		move = moves[0]
	}
	s.takeLocked(move, turn+1, []types.TopMove{{Move: move, Prob: 1}})
	s.mu.Unlock()

	s.afterChange()
}
