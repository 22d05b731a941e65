package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"badminton-scoring/internal/models"
	"badminton-scoring/internal/session"
	"badminton-scoring/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	st := store.New(store.NewMemoryStore(), store.WithLogger(logger))
	return New(session.New(st, logger), logger).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestQuickMatchOverHTTP(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/match", `{"type":"singles","player1":"Ann","player2":"Bea"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status %d: %s", rec.Code, rec.Body)
	}

	for i := 0; i < 21; i++ {
		rec = do(t, h, http.MethodPost, "/api/match/points", `{"side":1}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("point %d: status %d: %s", i, rec.Code, rec.Body)
		}
	}
	state := decode[session.State](t, rec)
	if state.Winner != "side1" || state.Match.Score1 != 21 {
		t.Fatalf("state = %+v", state)
	}

	rec = do(t, h, http.MethodPost, "/api/match/complete", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/api/history/matches", "")
	history := decode[[]models.Match](t, rec)
	if len(history) != 1 || history[0].Player1 != "Ann" {
		t.Fatalf("history = %+v", history)
	}

	rec = do(t, h, http.MethodGet, "/api/stats", "")
	board := decode[[]models.LeaderboardEntry](t, rec)
	if len(board) != 2 || board[0].Name != "Ann" || board[0].Wins != 1 {
		t.Errorf("leaderboard = %+v", board)
	}

	rec = do(t, h, http.MethodDelete, "/api/history/matches/"+history[0].ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/api/history/matches/"+history[0].ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", rec.Code)
	}
}

func TestTeamMatchOverHTTP(t *testing.T) {
	h := newTestServer(t)

	lineup := `{
		"title": "Club night",
		"date": "2026-05-01",
		"teamA": {"name": "Hawks", "players": ["Ann"]},
		"teamB": {"name": "Owls", "players": ["Bea"]},
		"matches": [{"id": 1, "category": "MS", "p1": "Ann", "p2": "Bea"}],
		"currentMatchIndex": null
	}`
	rec := do(t, h, http.MethodPost, "/api/team-match", lineup)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodPost, "/api/team-match/players", `{"team":"B","name":"Dan"}`)
	if state := decode[session.State](t, rec); len(state.TeamMatch.TeamB.Players) != 2 {
		t.Errorf("team B = %+v", state.TeamMatch.TeamB)
	}

	rec = do(t, h, http.MethodPost, "/api/team-match/finish", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("early finish: status %d, want 409", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/team-match/sub-matches/0/play", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("play: status %d: %s", rec.Code, rec.Body)
	}
	for i := 0; i < 21; i++ {
		do(t, h, http.MethodPost, "/api/match/points", `{"side":2}`)
	}
	rec = do(t, h, http.MethodPost, "/api/match/complete", `{"endEarly":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/api/team-match/scoreboard", "")
	sb := decode[models.Scoreboard](t, rec)
	if sb.ScoreA != 0 || sb.ScoreB != 1 || sb.MatchesPlayed != 1 {
		t.Errorf("scoreboard = %+v", sb)
	}

	rec = do(t, h, http.MethodPost, "/api/team-match/finish", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("finish: status %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/api/history/team-matches", "")
	if history := decode[[]models.TeamMatch](t, rec); len(history) != 1 || history[0].ScoreB != 1 {
		t.Errorf("team history = %+v", history)
	}
	rec = do(t, h, http.MethodGet, "/api/drafts", "")
	if drafts := decode[[]models.TeamMatch](t, rec); len(drafts) != 0 {
		t.Errorf("drafts = %+v", drafts)
	}
}

func TestDraftsOverHTTP(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/api/drafts", `{"title":"Cup","teamA":{"name":"Hawks"},"teamB":{"name":"Owls"},"matches":[{"id":1,"category":"WD"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: status %d: %s", rec.Code, rec.Body)
	}
	draft := decode[models.TeamMatch](t, rec)
	if draft.ID == "" || draft.Matches[0].Type != models.TypeDoubles {
		t.Fatalf("draft = %+v", draft)
	}

	rec = do(t, h, http.MethodPost, "/api/drafts/"+draft.ID+"/load", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("load: status %d: %s", rec.Code, rec.Body)
	}
	if state := decode[session.State](t, rec); state.TeamMatch == nil || state.TeamMatch.Title != "Cup" {
		t.Errorf("state = %+v", state)
	}

	// The WD sub-match has no players yet.
	rec = do(t, h, http.MethodPost, "/api/team-match/sub-matches/0/play", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("play without players: status %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/api/drafts/"+draft.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/drafts/"+draft.ID+"/load", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("load deleted draft: status %d, want 404", rec.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad json", http.MethodPost, "/api/match", `{`, http.StatusBadRequest},
		{"missing player", http.MethodPost, "/api/match", `{"type":"singles","player1":"Ann"}`, http.StatusBadRequest},
		{"bad type", http.MethodPost, "/api/match", `{"type":"triples","player1":"A","player2":"B"}`, http.StatusBadRequest},
		{"point without match", http.MethodPost, "/api/match/points", `{"side":1}`, http.StatusConflict},
		{"undo without match", http.MethodPost, "/api/match/undo", "", http.StatusConflict},
		{"cancel without match", http.MethodDelete, "/api/match", "", http.StatusConflict},
		{"play without series", http.MethodPost, "/api/team-match/sub-matches/0/play", "", http.StatusConflict},
		{"bad index", http.MethodPost, "/api/team-match/sub-matches/x/play", "", http.StatusBadRequest},
		{"scoreboard without series", http.MethodGet, "/api/team-match/scoreboard", "", http.StatusConflict},
		{"unknown draft", http.MethodDelete, "/api/drafts/nope", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}

	do(t, h, http.MethodPost, "/api/match", `{"type":"singles","player1":"Ann","player2":"Bea"}`)
	rec := do(t, h, http.MethodPost, "/api/match/points", `{"side":3}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("side 3: status %d, want 400", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/match/complete", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("complete at 0-0: status %d, want 409", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["error"] == "" {
		t.Error("error body missing message")
	}
}
