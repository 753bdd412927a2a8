// internal/httpserver/server.go
//
// HTTP wiring for the minesweeper backend. The browser renders the
// clickable grid; this server is the thin adapter between its clicks
// and the game engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): POST /game/new, /game/reveal,
//     /game/flag, /game/reset.
//   - Daily challenge endpoints mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me,
//     /games/mine.
//
// Notes:
//   - Engine notifications for one request are buffered by an
//     eventRecorder and returned as an ordered JSON event list.
//   - Coordinates are validated here, before they reach the engine;
//     out-of-range input is a plain 400, never an engine error.
//   - All database writes are best effort: a nil *sql.DB disables
//     persistence and auth entirely (used by tests).

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/cordey7/minesweeper/internal/game"
	"github.com/cordey7/minesweeper/internal/session"
)

// Server bundles router, live session registry, and DB handle.
type Server struct {
	r        *chi.Mux
	sessions *session.Manager
	db       *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(sm *session.Manager, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), sessions: sm, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"minesweeper-go","endpoints":["/health","POST /game/new","POST /game/reveal","POST /game/flag","POST /game/reset","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/game/new", s.handleNewGame)
	s.r.With(s.withOptionalAuth()).Post("/game/reveal", s.handleReveal)
	s.r.With(s.withOptionalAuth()).Post("/game/flag", s.handleFlag)
	s.r.With(s.withOptionalAuth()).Post("/game/reset", s.handleReset)

	// Daily challenge — OPTIONAL AUTH (guests can play; wins persisted)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require the DB)
	if s.db != nil {
		s.mountAuthRoutes()
	}

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --------------------------- event recorder --------------------------------

// Event mirrors one engine notification as JSON.
// Types: "reveal" (x, y, value or mine), "flag"/"unflag" (x, y),
// "mines" (count), "won", "lost".
type Event struct {
	Type  string `json:"type"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Value int    `json:"value"`
	Mine  bool   `json:"mine,omitempty"`
	Count int    `json:"count"`
}

// eventRecorder implements game.Presenter, buffering the notifications
// generated by one engine operation in delivery order.
type eventRecorder struct {
	events []Event
}

func (rec *eventRecorder) RevealCell(c game.Coord, v game.Value) {
	e := Event{Type: "reveal", X: c.X, Y: c.Y}
	if v.IsMine() {
		e.Mine = true
	} else {
		e.Value = int(v)
	}
	rec.events = append(rec.events, e)
}

func (rec *eventRecorder) FlagCell(c game.Coord) {
	rec.events = append(rec.events, Event{Type: "flag", X: c.X, Y: c.Y})
}

func (rec *eventRecorder) UnflagCell(c game.Coord) {
	rec.events = append(rec.events, Event{Type: "unflag", X: c.X, Y: c.Y})
}

func (rec *eventRecorder) MinesRemaining(n int) {
	rec.events = append(rec.events, Event{Type: "mines", Count: n})
}

func (rec *eventRecorder) GameWon() {
	rec.events = append(rec.events, Event{Type: "won"})
}

func (rec *eventRecorder) GameLost() {
	rec.events = append(rec.events, Event{Type: "lost"})
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new. Either a preset name or
// explicit dimensions; the preset wins when both are present.
type newGameReq struct {
	Difficulty string `json:"difficulty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Mines      int    `json:"mines"`
}
type newGameRes struct {
	GameID         string      `json:"gameId"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	Mines          int         `json:"mines"`
	Status         game.Status `json:"status"`
	MinesRemaining int         `json:"minesRemaining"`
}

// handleNewGame creates a new in-memory session and persists a DB
// "owner" row (either user_id or anonymous_id) for history/stats.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	var (
		cfg   game.Config
		label string
		err   error
	)
	if req.Difficulty != "" {
		label = req.Difficulty
		if cfg, err = game.Preset(req.Difficulty); err != nil {
			http.Error(w, `{"error":"unknown_difficulty"}`, http.StatusBadRequest)
			return
		}
	} else {
		label = "custom"
		cfg = game.Config{Width: req.Width, Height: req.Height, Mines: req.Mines}
		if err = cfg.Validate(); err != nil {
			http.Error(w, `{"error":"invalid_configuration"}`, http.StatusBadRequest)
			return
		}
	}

	sess, err := s.sessions.Create(cfg, nil)
	if err != nil {
		log.Error().Err(err).Msg("create session")
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}

	s.insertGameRow(w, r, sess, label)

	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID:         sess.ID,
		Width:          cfg.Width,
		Height:         cfg.Height,
		Mines:          cfg.Mines,
		Status:         sess.Status(),
		MinesRemaining: sess.MinesRemaining(),
	})
}

// moveReq/Res payloads for POST /game/reveal and /game/flag.
type moveReq struct {
	GameID string `json:"gameId"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}
type moveRes struct {
	Events         []Event     `json:"events"`
	Status         game.Status `json:"status"`
	MinesRemaining int         `json:"minesRemaining"`
}

// handleReveal opens a cell; handleFlag toggles a flag. Both return the
// notifications the move generated, in order.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) { s.handleMove(w, r, "reveal") }
func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request)  { s.handleMove(w, r, "flag") }

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, kind string) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.sessions.Get(req.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	res, ok := s.applyMove(w, sess, kind, game.Coord{X: req.X, Y: req.Y})
	if !ok {
		return
	}
	s.persistMove(w, r, sess, res.Status)
	_ = json.NewEncoder(w).Encode(res)
}

// applyMove validates the coordinate at the adapter boundary and runs
// one engine operation through an event recorder. On failure it writes
// the error response and returns ok=false.
func (s *Server) applyMove(w http.ResponseWriter, sess *session.Session, kind string, c game.Coord) (moveRes, bool) {
	if !sess.Config.InBounds(c) {
		http.Error(w, `{"error":"out_of_range"}`, http.StatusBadRequest)
		return moveRes{}, false
	}
	rec := &eventRecorder{}
	var (
		st  game.Status
		err error
	)
	if kind == "flag" {
		st, err = sess.ToggleFlag(c, rec)
	} else {
		st, err = sess.Reveal(c, rec)
	}
	if err != nil {
		// Unreachable with the bounds check above; treat as a bug.
		log.Error().Err(err).Str("gameId", sess.ID).Msg("engine rejected move")
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return moveRes{}, false
	}
	return moveRes{Events: rec.events, Status: st, MinesRemaining: sess.MinesRemaining()}, true
}

// resetReq/Res payloads for POST /game/reset.
type resetReq struct {
	GameID string `json:"gameId"`
}

// handleReset discards the session's board and engine and rebuilds both
// with the same configuration. Nothing crosses the reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.sessions.Get(req.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err := sess.Reset(); err != nil {
		log.Error().Err(err).Str("gameId", sess.ID).Msg("reset session")
		http.Error(w, `{"error":"reset_failed"}`, http.StatusInternalServerError)
		return
	}
	s.resetGameRow(w, r, sess)
	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID:         sess.ID,
		Width:          sess.Config.Width,
		Height:         sess.Config.Height,
		Mines:          sess.Config.Mines,
		Status:         sess.Status(),
		MinesRemaining: sess.MinesRemaining(),
	})
}

// --------------------------- result persistence ----------------------------

// insertGameRow persists the owner row for a fresh session (best effort).
func (s *Server) insertGameRow(w http.ResponseWriter, r *http.Request, sess *session.Session, label string) {
	if s.db == nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		_, err := s.db.Exec(`INSERT INTO games (id, user_id, difficulty, width, height, mines, status, moves, started_at)
		                     VALUES (?,?,?,?,?,?,?,0,?)`,
			sess.ID, me.ID, label, sess.Config.Width, sess.Config.Height, sess.Config.Mines, game.StatusPlaying, now)
		if err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert user game row")
		}
	} else {
		anon := s.ensureAnonID(w, r)
		_, err := s.db.Exec(`INSERT INTO games (id, anonymous_id, difficulty, width, height, mines, status, moves, started_at)
		                     VALUES (?,?,?,?,?,?,?,0,?)`,
			sess.ID, anon, label, sess.Config.Width, sess.Config.Height, sess.Config.Mines, game.StatusPlaying, now)
		if err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert anon game row")
		}
	}
}

// persistMove bumps the move counter and, when the game just finished,
// records the result and updates user stats (best effort, in one tx).
func (s *Server) persistMove(w http.ResponseWriter, r *http.Request, sess *session.Session, st game.Status) {
	if s.db == nil {
		return
	}
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	ownerClause := `anonymous_id=?`
	ownerArg := any(s.ensureAnonID(w, r))
	if me != nil {
		ownerClause = `user_id=?`
		ownerArg = any(me.ID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		log.Warn().Err(err).Msg("begin move tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE games SET moves = moves + 1 WHERE id=? AND `+ownerClause, sess.ID, ownerArg); err != nil {
		log.Warn().Err(err).Msg("update moves")
	}
	if st.Terminal() {
		// The status=playing guard means a post-game no-op move can
		// never finish the row (or bump stats) a second time.
		res, err := tx.Exec(`UPDATE games SET status=?, finished_at=? WHERE id=? AND status=? AND `+ownerClause,
			st, time.Now().UTC().Format(time.RFC3339), sess.ID, game.StatusPlaying, ownerArg)
		if err != nil {
			log.Warn().Err(err).Msg("finish game")
		} else if n, _ := res.RowsAffected(); n == 1 && me != nil {
			if err := s.bumpStats(tx, me.ID, st == game.StatusWon); err != nil {
				log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
			}
		}
	}
	_ = tx.Commit()
}

// resetGameRow reopens the games row after a session reset (best effort).
func (s *Server) resetGameRow(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if s.db == nil {
		return
	}
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	ownerClause := `anonymous_id=?`
	ownerArg := any(s.ensureAnonID(w, r))
	if me != nil {
		ownerClause = `user_id=?`
		ownerArg = any(me.ID)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`UPDATE games SET status=?, moves=0, started_at=?, finished_at=NULL
	                        WHERE id=? AND `+ownerClause, game.StatusPlaying, now, sess.ID, ownerArg); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("reset game row")
	}
}
