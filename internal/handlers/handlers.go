package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"badminton-scoring/internal/models"
	"badminton-scoring/internal/session"
)

type Handler struct {
	session *session.Session
	log     logrus.FieldLogger
}

func New(s *session.Session, logger logrus.FieldLogger) *Handler {
	return &Handler{session: s, log: logger.WithField("component", "http")}
}

// Router returns the API mounted under /api with request ids, panic
// recovery and request logging.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)

		r.Route("/match", func(r chi.Router) {
			r.Post("/", h.StartMatch)
			r.Delete("/", h.CancelMatch)
			r.Post("/points", h.AddPoint)
			r.Post("/undo", h.Undo)
			r.Post("/complete", h.CompleteMatch)
			r.Post("/save-and-exit", h.SaveAndExit)
		})

		r.Route("/team-match", func(r chi.Router) {
			r.Post("/", h.StartTeamMatch)
			r.Post("/players", h.AddPlayer)
			r.Post("/sub-matches/{index}/play", h.PlaySubMatch)
			r.Get("/scoreboard", h.GetScoreboard)
			r.Post("/finish", h.FinishTeamMatch)
			r.Post("/abandon", h.AbandonTeamMatch)
		})

		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", h.ListDrafts)
			r.Put("/", h.SaveDraft)
			r.Post("/{id}/load", h.LoadDraft)
			r.Delete("/{id}", h.DeleteDraft)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/matches", h.ListMatches)
			r.Delete("/matches/{id}", h.DeleteMatch)
			r.Get("/team-matches", h.ListTeamMatches)
			r.Delete("/team-matches/{id}", h.DeleteTeamMatch)
		})

		r.Get("/stats", h.GetStats)
	})
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Quick match

type StartMatchRequest struct {
	Type    models.MatchType `json:"type"`
	Player1 string           `json:"player1"`
	Player2 string           `json:"player2"`
	Player3 string           `json:"player3"`
	Player4 string           `json:"player4"`
}

func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	var req StartMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	state, err := h.session.StartQuickMatch(r.Context(), models.Match{
		Type:    req.Type,
		Player1: req.Player1,
		Player2: req.Player2,
		Player3: req.Player3,
		Player4: req.Player4,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (h *Handler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.session.CancelMatch(r.Context()))
}

type AddPointRequest struct {
	Side int `json:"side"` // 1 or 2
}

func (h *Handler) AddPoint(w http.ResponseWriter, r *http.Request) {
	var req AddPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w)(h.session.AddPoint(r.Context(), models.Side(req.Side)))
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.session.Undo(r.Context()))
}

type CompleteMatchRequest struct {
	// EndEarly accepts a leader instead of a winner.
	EndEarly bool `json:"endEarly"`
}

func (h *Handler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	// The body is optional.
	var req CompleteMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w)(h.session.CompleteMatch(r.Context(), req.EndEarly))
}

func (h *Handler) SaveAndExit(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.session.SaveAndExit(r.Context()))
}

// Team match

func (h *Handler) StartTeamMatch(w http.ResponseWriter, r *http.Request) {
	var tm models.TeamMatch
	if err := json.NewDecoder(r.Body).Decode(&tm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	state, err := h.session.StartTeamMatch(r.Context(), tm)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

type AddPlayerRequest struct {
	Team models.TeamID `json:"team"`
	Name string        `json:"name"`
}

func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	var req AddPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w)(h.session.AddPlayer(r.Context(), req.Team, req.Name))
}

func (h *Handler) PlaySubMatch(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sub-match index")
		return
	}
	h.respond(w)(h.session.PlaySubMatch(r.Context(), index))
}

func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	state := h.session.Snapshot()
	if state.Scoreboard == nil {
		h.fail(w, session.ErrNoTeamMatch)
		return
	}
	writeJSON(w, http.StatusOK, state.Scoreboard)
}

func (h *Handler) FinishTeamMatch(w http.ResponseWriter, r *http.Request) {
	rec, err := h.session.FinishTeamMatch(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) AbandonTeamMatch(w http.ResponseWriter, r *http.Request) {
	rec, err := h.session.AbandonTeamMatch(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Drafts

func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Drafts(r.Context()))
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var tm models.TeamMatch
	if err := json.NewDecoder(r.Body).Decode(&tm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	draft, err := h.session.SaveDraft(r.Context(), tm)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *Handler) LoadDraft(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.session.LoadDraft(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History and stats

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.MatchHistory(r.Context()))
}

func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RemoveMatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTeamMatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.TeamMatchHistory(r.Context()))
}

func (h *Handler) DeleteTeamMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RemoveTeamMatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Leaderboard(r.Context()))
}

// respond writes a session state or maps its error.
func (h *Handler) respond(w http.ResponseWriter) func(session.State, error) {
	return func(state session.State, err error) {
		if err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidMatchType),
		errors.Is(err, models.ErrMissingPlayers),
		errors.Is(err, models.ErrInvalidCategory),
		errors.Is(err, models.ErrInvalidTeam),
		errors.Is(err, models.ErrInvalidSide),
		errors.Is(err, models.ErrIndexOutOfRange),
		errors.Is(err, models.ErrNoSubMatches),
		errors.Is(err, models.ErrLastSubMatch):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrDraftNotFound),
		errors.Is(err, session.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoActiveMatch),
		errors.Is(err, session.ErrNoTeamMatch),
		errors.Is(err, session.ErrMatchInProgress),
		errors.Is(err, session.ErrUndecided),
		errors.Is(err, session.ErrSeriesIncomplete),
		errors.Is(err, models.ErrSubMatchComplete):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
