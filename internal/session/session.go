// Package session owns the scorer's live state: at most one match being
// scored and at most one active team series. Every action is applied to
// a copy of that state, persisted, and only then made live, so a failed
// save leaves the session as it was.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"badminton-scoring/internal/models"
	"badminton-scoring/internal/store"
)

var (
	ErrNoActiveMatch    = errors.New("no match is being scored")
	ErrNoTeamMatch      = errors.New("no team match is active")
	ErrMatchInProgress  = errors.New("a match is already being scored")
	ErrDraftNotFound    = errors.New("draft not found")
	ErrRecordNotFound   = errors.New("history record not found")
	ErrUndecided        = errors.New("match has no winner")
	ErrSeriesIncomplete = errors.New("team match still has sub-matches to play")
)

// State is a point-in-time copy of the session for display.
type State struct {
	Match      *models.Match      `json:"match"`
	TeamMatch  *models.TeamMatch  `json:"teamMatch"`
	Winner     string             `json:"winner,omitempty"`
	CanUndo    bool               `json:"canUndo"`
	Scoreboard *models.Scoreboard `json:"scoreboard,omitempty"`
	// MoreToPlay is set while scoring a sub-match and other sub-matches
	// are still unfinished.
	MoreToPlay bool               `json:"moreToPlay"`
}

type Session struct {
	mu    sync.Mutex
	store *store.Store
	log   logrus.FieldLogger

	match *models.Match
	team  *models.TeamMatch
}

func New(st *store.Store, logger logrus.FieldLogger) *Session {
	return &Session{
		store: st,
		log:   logger.WithField("component", "session"),
	}
}

// Restore reloads the live state saved by a previous run. A saved quick
// match wins over a saved team match. A team match that was interrupted
// mid sub-match resumes scoring that sub-match.
func (s *Session) Restore(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match, s.team = nil, nil
	if m := s.store.CurrentMatch(ctx); m != nil {
		s.match = m
		s.log.WithField("players", m.Players()).Info("restored quick match")
		return s.snapshot()
	}

	t := s.store.CurrentTeamMatch(ctx)
	if t == nil || len(t.Matches) == 0 {
		return s.snapshot()
	}
	t.Normalize()
	s.team = t
	if sub, ok := t.Current(); ok {
		live := sub.Live()
		s.match = &live
	}
	s.log.WithFields(logrus.Fields{
		"title":   t.Title,
		"scoring": s.match != nil,
	}).Info("restored team match")
	return s.snapshot()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() State {
	var st State
	if s.match != nil {
		m := s.match.Clone()
		st.Match = &m
		st.CanUndo = m.CanUndo()
		if w := m.Winner(); w != models.SideNone {
			st.Winner = w.String()
		}
	}
	if s.team != nil {
		t := s.team.Clone()
		st.TeamMatch = &t
		sb := t.CalculateScoreboard()
		st.Scoreboard = &sb
		st.MoreToPlay = s.match != nil && t.HasRemaining()
	}
	return st
}

// Quick matches

// StartQuickMatch validates m and starts scoring it from 0-0.
func (s *Session) StartQuickMatch(ctx context.Context, m models.Match) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match != nil || s.team != nil {
		return State{}, ErrMatchInProgress
	}
	live, err := models.NewMatch(m.Type, m.Player1, m.Player2, m.Player3, m.Player4)
	if err != nil {
		return State{}, err
	}
	live.Status = models.StatusActive
	if err := s.store.SaveCurrentMatch(ctx, live); err != nil {
		return State{}, fmt.Errorf("saving current match: %w", err)
	}
	s.match = &live
	s.log.WithFields(logrus.Fields{"type": live.Type, "players": live.Players()}).Info("quick match started")
	return s.snapshot(), nil
}

// AddPoint awards a rally to side. Once the game has a winner further
// points are ignored and the unchanged state is returned.
func (s *Session) AddPoint(ctx context.Context, side models.Side) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return State{}, ErrNoActiveMatch
	}
	if side != models.Side1 && side != models.Side2 {
		return State{}, fmt.Errorf("%w: %d", models.ErrInvalidSide, side)
	}
	next := s.match.Clone()
	if !next.AddPoint(side) {
		return s.snapshot(), nil
	}
	if err := s.checkpoint(ctx, next); err != nil {
		return State{}, err
	}
	s.log.WithFields(logrus.Fields{
		"side":   side,
		"score1": next.Score1,
		"score2": next.Score2,
	}).Debug("point")
	return s.snapshot(), nil
}

func (s *Session) Undo(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return State{}, ErrNoActiveMatch
	}
	next := s.match.Clone()
	if !next.Undo() {
		return s.snapshot(), nil
	}
	if err := s.checkpoint(ctx, next); err != nil {
		return State{}, err
	}
	return s.snapshot(), nil
}

// checkpoint persists live, into the active sub-match when a series is
// running and otherwise as the current quick match, then makes it the
// session's match.
func (s *Session) checkpoint(ctx context.Context, live models.Match) error {
	if s.team != nil {
		t := s.team.Clone()
		t.RecordProgress(live)
		if err := s.store.SaveCurrentTeamMatch(ctx, t); err != nil {
			return fmt.Errorf("saving team match: %w", err)
		}
		s.team = &t
	} else if err := s.store.SaveCurrentMatch(ctx, live); err != nil {
		return fmt.Errorf("saving current match: %w", err)
	}
	s.match = &live
	return nil
}

// CancelMatch stops scoring without recording a result. A quick match is
// discarded. A sub-match keeps its score and goes back to pending.
func (s *Session) CancelMatch(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return State{}, ErrNoActiveMatch
	}
	if s.team != nil {
		t := s.team.Clone()
		t.CancelSubMatch(s.match)
		if err := s.store.SaveCurrentTeamMatch(ctx, t); err != nil {
			return State{}, fmt.Errorf("saving team match: %w", err)
		}
		s.team = &t
		s.log.Info("sub-match paused")
	} else {
		if err := s.store.ClearCurrentMatch(ctx); err != nil {
			return State{}, fmt.Errorf("clearing current match: %w", err)
		}
		s.log.Info("quick match cancelled")
	}
	s.match = nil
	return s.snapshot(), nil
}

// decided returns the side that takes the game. Without endEarly the game
// must have a winner; with it, a strict leader is enough.
func decided(m *models.Match, endEarly bool) (models.Side, error) {
	if w := m.Winner(); w != models.SideNone {
		return w, nil
	}
	if endEarly {
		if l := m.Leader(); l != models.SideNone {
			return l, nil
		}
		return models.SideNone, fmt.Errorf("%w: scores are level at %d-%d", ErrUndecided, m.Score1, m.Score2)
	}
	return models.SideNone, fmt.Errorf("%w: %d-%d", ErrUndecided, m.Score1, m.Score2)
}

// CompleteMatch records the result of the live match. A sub-match result
// goes to the team series and scoring returns to the dashboard; a quick
// match is appended to history.
func (s *Session) CompleteMatch(ctx context.Context, endEarly bool) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return State{}, ErrNoActiveMatch
	}
	winner, err := decided(s.match, endEarly)
	if err != nil {
		return State{}, err
	}

	if s.team != nil {
		if err := s.completeSubMatch(ctx); err != nil {
			return State{}, err
		}
	} else {
		if err := s.completeQuickMatch(ctx); err != nil {
			return State{}, err
		}
	}
	s.log.WithField("winner", winner).Info("match completed")
	return s.snapshot(), nil
}

func (s *Session) completeSubMatch(ctx context.Context) error {
	index := -1
	if s.team.CurrentMatchIndex != nil {
		index = *s.team.CurrentMatchIndex
	}
	t := s.team.Clone()
	t.CompleteSubMatch(*s.match)
	if err := s.store.SaveCurrentTeamMatch(ctx, t); err != nil {
		return fmt.Errorf("saving team match: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"index":  index,
		"scoreA": t.ScoreA,
		"scoreB": t.ScoreB,
	}).Info("sub-match completed")
	s.team, s.match = &t, nil
	return nil
}

// completeQuickMatch moves the live match to history. Once the history
// write succeeds the match is done; a failure to clear the saved copy is
// only logged.
func (s *Session) completeQuickMatch(ctx context.Context) error {
	result := s.match.Clone()
	result.Status = models.StatusCompleted
	if _, err := s.store.AppendMatch(ctx, result); err != nil {
		return fmt.Errorf("saving match history: %w", err)
	}
	if err := s.store.ClearCurrentMatch(ctx); err != nil {
		s.log.WithError(err).Warn("could not clear current match")
	}
	s.match = nil
	return nil
}

// SaveAndExit leaves scoring for the home screen. A decided quick match is
// saved to history. For a series, a decided sub-match is completed (a
// level one is paused) and the whole series is stored as a draft so it
// can be picked up later.
func (s *Session) SaveAndExit(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil && s.team == nil {
		return State{}, ErrNoActiveMatch
	}

	if s.team == nil {
		if _, err := decided(s.match, true); err != nil {
			return State{}, err
		}
		if err := s.completeQuickMatch(ctx); err != nil {
			return State{}, err
		}
		return s.snapshot(), nil
	}

	t := s.team.Clone()
	if s.match != nil {
		if _, err := decided(s.match, true); err == nil {
			t.CompleteSubMatch(*s.match)
		} else {
			t.CancelSubMatch(s.match)
		}
	}

	draft, err := s.store.UpsertDraft(ctx, t)
	if err != nil {
		return State{}, fmt.Errorf("saving draft: %w", err)
	}
	if err := s.store.ClearCurrentTeamMatch(ctx); err != nil {
		s.log.WithError(err).Warn("could not clear team match")
	}
	s.team, s.match = nil, nil
	s.log.WithField("draft", draft.ID).Info("team match saved for later")
	return s.snapshot(), nil
}

// Team matches

// StartTeamMatch validates the lineup, resets all sub-matches and makes
// the series active. The series is also kept as a draft.
func (s *Session) StartTeamMatch(ctx context.Context, t models.TeamMatch) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match != nil {
		return State{}, ErrMatchInProgress
	}
	series := t.Clone()
	if err := series.Validate(); err != nil {
		return State{}, err
	}
	series.Reset()

	saved, err := s.store.UpsertDraft(ctx, series)
	if err != nil {
		return State{}, fmt.Errorf("saving draft: %w", err)
	}
	if err := s.store.SaveCurrentTeamMatch(ctx, saved); err != nil {
		return State{}, fmt.Errorf("saving team match: %w", err)
	}
	s.team = &saved
	s.log.WithFields(logrus.Fields{
		"id":         saved.ID,
		"title":      saved.Title,
		"subMatches": len(saved.Matches),
	}).Info("team match started")
	return s.snapshot(), nil
}

// SaveDraft stores t as a draft and leaves the active series.
func (s *Session) SaveDraft(ctx context.Context, t models.TeamMatch) (models.TeamMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match != nil {
		return models.TeamMatch{}, ErrMatchInProgress
	}
	t = t.Clone()
	t.CurrentMatchIndex = nil
	t.Normalize()
	draft, err := s.store.UpsertDraft(ctx, t)
	if err != nil {
		return models.TeamMatch{}, fmt.Errorf("saving draft: %w", err)
	}
	if s.team != nil {
		if err := s.store.ClearCurrentTeamMatch(ctx); err != nil {
			return models.TeamMatch{}, fmt.Errorf("clearing team match: %w", err)
		}
		s.team = nil
	}
	s.log.WithField("id", draft.ID).Info("draft saved")
	return draft, nil
}

// LoadDraft makes the draft with id the active series. A series that was
// already under way keeps its sub-match results; its aggregate is recounted
// from them and no sub-match is left active.
func (s *Session) LoadDraft(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match != nil {
		return State{}, ErrMatchInProgress
	}
	draft, ok := s.store.Draft(ctx, id)
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	draft.CurrentMatchIndex = nil
	draft.Normalize()
	if err := s.store.SaveCurrentTeamMatch(ctx, draft); err != nil {
		return State{}, fmt.Errorf("saving team match: %w", err)
	}
	s.team = &draft
	s.log.WithFields(logrus.Fields{"id": id, "started": draft.IsStarted()}).Info("draft loaded")
	return s.snapshot(), nil
}

func (s *Session) DeleteDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.DeleteDraft(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return nil
}

func (s *Session) Drafts(ctx context.Context) []models.TeamMatch {
	return s.store.Drafts(ctx)
}

// PlaySubMatch starts (or resumes) scoring the sub-match at index.
func (s *Session) PlaySubMatch(ctx context.Context, index int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.team == nil {
		return State{}, ErrNoTeamMatch
	}
	if s.match != nil {
		return State{}, ErrMatchInProgress
	}
	t := s.team.Clone()
	live, err := t.StartSubMatch(index)
	if err != nil {
		return State{}, err
	}
	if err := s.store.SaveCurrentTeamMatch(ctx, t); err != nil {
		return State{}, fmt.Errorf("saving team match: %w", err)
	}
	s.team, s.match = &t, &live
	s.log.WithFields(logrus.Fields{
		"index":    index,
		"category": t.Matches[index].Category,
	}).Info("sub-match started")
	return s.snapshot(), nil
}

// AddPlayer adds name to a team's roster in the active series.
func (s *Session) AddPlayer(ctx context.Context, team models.TeamID, name string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.team == nil {
		return State{}, ErrNoTeamMatch
	}
	t := s.team.Clone()
	added, err := t.AddPlayer(team, name)
	if err != nil {
		return State{}, err
	}
	if added {
		if err := s.store.SaveCurrentTeamMatch(ctx, t); err != nil {
			return State{}, fmt.Errorf("saving team match: %w", err)
		}
		s.team = &t
	}
	return s.snapshot(), nil
}

// FinishTeamMatch moves a fully played series to team history and drops
// the draft it was started from.
func (s *Session) FinishTeamMatch(ctx context.Context) (models.TeamMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.team == nil {
		return models.TeamMatch{}, ErrNoTeamMatch
	}
	if s.match != nil {
		return models.TeamMatch{}, ErrMatchInProgress
	}
	if !s.team.IsComplete() {
		return models.TeamMatch{}, fmt.Errorf("%w: %d of %d played",
			ErrSeriesIncomplete, s.team.CompletedCount(), len(s.team.Matches))
	}
	return s.archive(ctx, s.team.Clone())
}

// AbandonTeamMatch ends the series early. Whatever has been played is kept
// in team history; a sub-match being scored is paused first.
func (s *Session) AbandonTeamMatch(ctx context.Context) (models.TeamMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.team == nil {
		return models.TeamMatch{}, ErrNoTeamMatch
	}
	t := s.team.Clone()
	if s.match != nil {
		t.CancelSubMatch(s.match)
	}
	return s.archive(ctx, t)
}

// archive appends t to team history and ends the series. Cleanup after the
// history write is best effort.
func (s *Session) archive(ctx context.Context, t models.TeamMatch) (models.TeamMatch, error) {
	rec, err := s.store.AppendTeamMatch(ctx, t)
	if err != nil {
		return models.TeamMatch{}, fmt.Errorf("saving team history: %w", err)
	}
	if err := s.store.ClearCurrentTeamMatch(ctx); err != nil {
		s.log.WithError(err).Warn("could not clear team match")
	}
	if t.ID != "" {
		if _, err := s.store.DeleteDraft(ctx, t.ID); err != nil {
			s.log.WithError(err).WithField("draft", t.ID).Warn("could not remove draft")
		}
	}
	s.log.WithFields(logrus.Fields{
		"id":       rec.ID,
		"scoreA":   rec.ScoreA,
		"scoreB":   rec.ScoreB,
		"complete": rec.IsComplete(),
	}).Info("team match saved to history")
	s.team, s.match = nil, nil
	return rec, nil
}

// History and stats

// MatchHistory returns quick matches, newest first.
func (s *Session) MatchHistory(ctx context.Context) []models.Match {
	history := s.store.MatchHistory(ctx)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})
	return history
}

// TeamMatchHistory returns finished series, newest first.
func (s *Session) TeamMatchHistory(ctx context.Context) []models.TeamMatch {
	history := s.store.TeamMatchHistory(ctx)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].SavedAt.After(history[j].SavedAt)
	})
	return history
}

func (s *Session) RemoveMatch(ctx context.Context, id string) error {
	removed, err := s.store.RemoveMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("removing match: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

func (s *Session) RemoveTeamMatch(ctx context.Context, id string) error {
	removed, err := s.store.RemoveTeamMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("removing team match: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

// Stats recomputes per-player totals from both histories.
func (s *Session) Stats(ctx context.Context) map[string]models.PlayerStats {
	return models.CalculatePlayerStats(s.store.MatchHistory(ctx), s.store.TeamMatchHistory(ctx))
}

func (s *Session) Leaderboard(ctx context.Context) []models.LeaderboardEntry {
	return models.Leaderboard(s.Stats(ctx))
}
