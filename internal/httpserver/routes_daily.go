// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge: one shared board layout per UTC
// date, derived from HMAC(salt, date), one scored win per player per day.
// Exposes four endpoints under /daily:
//   - POST /daily/new         → start (or resume) today's board
//   - POST /daily/reveal      → open a cell on today's board
//   - POST /daily/flag        → toggle a flag on today's board
//   - GET  /daily/leaderboard → fastest wins for today (or a given date)
//
// Sessions are held in memory for active play; only wins are persisted.

package httpserver

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/cordey7/minesweeper/internal/daily"
	"github.com/cordey7/minesweeper/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	cfg      game.Config
	sessions map[string]*dailySession // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for one player's daily game.
type dailySession struct {
	GameID   string
	UserID   string
	Date     string
	Start    time.Time
	Moves    int
	Finished bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	cfg, _ := game.Preset(getEnv("DAILY_DIFFICULTY", "medium"))
	dd := &dailyServer{
		srv:      s,
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		cfg:      cfg,
		sessions: make(map[string]*dailySession),
	}
	if s.db != nil {
		dd.store = daily.NewStore(s.db)
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/reveal", dd.handleReveal)
		r.Post("/flag", dd.handleFlag)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string `json:"gameId"`
	Date   string `json:"date"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mines  int    `json:"mines"`
	Played bool   `json:"played"`
}

// handleNew creates or reuses a daily session for the current date.
// Every player gets the same layout: the board RNG is seeded from
// HMAC(salt, date).
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)
	now := time.Now()
	date := daily.DateKey(now)

	// Check if already won today (persisted in DB).
	if d.store != nil {
		if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
			_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Played: true})
			return
		}
	}

	// Reuse or create session in memory.
	key := uid + "|" + date
	d.mu.Lock()
	if sess, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dailyNewRes{
			GameID: sess.GameID, Date: date,
			Width: d.cfg.Width, Height: d.cfg.Height, Mines: d.cfg.Mines,
		})
		return
	}
	d.mu.Unlock()

	rng := rand.New(rand.NewSource(daily.BoardSeed(now, d.salt)))
	gs, err := d.srv.sessions.Create(d.cfg, rng)
	if err != nil {
		log.Error().Err(err).Msg("create daily session")
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}

	d.mu.Lock()
	sess := &dailySession{GameID: gs.ID, UserID: uid, Date: date, Start: time.Now()}
	d.sessions[key] = sess
	d.mu.Unlock()

	_ = json.NewEncoder(w).Encode(dailyNewRes{
		GameID: sess.GameID, Date: date,
		Width: d.cfg.Width, Height: d.cfg.Height, Mines: d.cfg.Mines,
	})
}

// -----------------------------------------------------------------------------
// /daily/reveal and /daily/flag

// dailyMoveRes extends the normal move response with the date.
type dailyMoveRes struct {
	moveRes
	Date string `json:"date"`
}

func (d *dailyServer) handleReveal(w http.ResponseWriter, r *http.Request) { d.handleMove(w, r, "reveal") }
func (d *dailyServer) handleFlag(w http.ResponseWriter, r *http.Request)  { d.handleMove(w, r, "flag") }

// handleMove applies one move to the caller's daily session and, on a
// win, persists the result for the leaderboard.
func (d *dailyServer) handleMove(w http.ResponseWriter, r *http.Request, kind string) {
	uid := d.userIDWithAnon(w, r)
	date := daily.DateKey(time.Now())

	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.GameID != req.GameID {
		http.Error(w, `{"error":"no_session"}`, http.StatusConflict)
		return
	}

	gs, err := d.srv.sessions.Get(sess.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	res, okMove := d.srv.applyMove(w, gs, kind, game.Coord{X: req.X, Y: req.Y})
	if !okMove {
		return
	}

	d.mu.Lock()
	sess.Moves++
	finished := res.Status.Terminal() && !sess.Finished
	if finished {
		sess.Finished = true
	}
	moves := sess.Moves
	elapsed := int(time.Since(sess.Start).Milliseconds())
	d.mu.Unlock()

	if finished && res.Status == game.StatusWon && d.store != nil {
		if err := d.store.InsertResult(r.Context(), daily.Result{
			UserID: uid, Date: date, Moves: moves, ElapsedMs: elapsed,
		}); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
	}

	_ = json.NewEncoder(w).Encode(dailyMoveRes{moveRes: res, Date: date})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default
// today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(time.Now())
	}
	if d.store == nil {
		_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: []daily.LBRow{}})
		return
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
