package models

import (
	"fmt"
	"strings"
)

// NewTeamMatch returns a series with one men's singles sub-match, the
// starting layout of the matchup editor.
func NewTeamMatch(title, teamAName, teamBName string) TeamMatch {
	t := TeamMatch{
		Title: title,
		TeamA: Team{Name: teamAName, Players: []string{}},
		TeamB: Team{Name: teamBName, Players: []string{}},
	}
	t.AddSubMatch(CategoryMensSingles)
	return t
}

// AddPlayer appends name to the roster unless it is blank or already
// present.
func (t *Team) AddPlayer(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, p := range t.Players {
		if p == name {
			return false
		}
	}
	t.Players = append(t.Players, name)
	return true
}

func (t *TeamMatch) Team(id TeamID) (*Team, error) {
	switch id {
	case TeamA:
		return &t.TeamA, nil
	case TeamB:
		return &t.TeamB, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTeam, id)
	}
}

// AddPlayer adds name to the roster of team id. It reports whether the
// roster changed.
func (t *TeamMatch) AddPlayer(id TeamID, name string) (bool, error) {
	team, err := t.Team(id)
	if err != nil {
		return false, err
	}
	return team.AddPlayer(name), nil
}

// AddSubMatch appends a pending sub-match of the given category and
// returns its index.
func (t *TeamMatch) AddSubMatch(c Category) (int, error) {
	if !c.Valid() {
		return -1, fmt.Errorf("%w: %q", ErrInvalidCategory, c)
	}
	nextID := 1
	for _, m := range t.Matches {
		if m.ID >= nextID {
			nextID = m.ID + 1
		}
	}
	t.Matches = append(t.Matches, SubMatch{
		ID:       nextID,
		Category: c,
		Type:     c.MatchType(),
		Status:   StatusPending,
		History:  []ScoreSnapshot{},
	})
	return len(t.Matches) - 1, nil
}

func (t *TeamMatch) RemoveSubMatch(index int) error {
	if index < 0 || index >= len(t.Matches) {
		return ErrIndexOutOfRange
	}
	if len(t.Matches) == 1 {
		return ErrLastSubMatch
	}
	t.Matches = append(t.Matches[:index], t.Matches[index+1:]...)
	t.CurrentMatchIndex = nil
	for i := range t.Matches {
		if t.Matches[i].Status == StatusActive {
			t.Matches[i].Status = StatusPending
		}
	}
	return nil
}

// Slots returns the slot assignments the sub-match type requires.
func (s *SubMatch) Slots() []string {
	if s.Type == TypeDoubles {
		return []string{s.P1, s.P2, s.P3, s.P4}
	}
	return []string{s.P1, s.P2}
}

func (s *SubMatch) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMatchType, s.Type)
	}
	for i, name := range s.Slots() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: sub-match %d slot p%d is empty", ErrMissingPlayers, s.ID, i+1)
		}
	}
	return nil
}

func (s *SubMatch) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// Live builds the Match the engine plays, mapping p1..p4 to
// player1..player4 and resuming from the stored score.
func (s *SubMatch) Live() Match {
	m := Match{
		Type:    s.Type,
		Player1: s.P1,
		Player2: s.P2,
		Score1:  s.Score1,
		Score2:  s.Score2,
		History: append([]ScoreSnapshot{}, s.History...),
		Status:  s.Status,
	}
	if s.Type == TypeDoubles {
		m.Player3, m.Player4 = s.P3, s.P4
	}
	return m
}

func (s *SubMatch) apply(m Match) {
	s.Score1 = m.Score1
	s.Score2 = m.Score2
	s.History = append([]ScoreSnapshot{}, m.History...)
}

// Validate checks every sub-match has its required players.
func (t *TeamMatch) Validate() error {
	if len(t.Matches) == 0 {
		return ErrNoSubMatches
	}
	for i := range t.Matches {
		if err := t.Matches[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Reset puts every sub-match back to pending at 0-0 and zeroes the
// aggregate, ready for play to begin.
func (t *TeamMatch) Reset() {
	for i := range t.Matches {
		m := &t.Matches[i]
		m.Status = StatusPending
		m.Score1, m.Score2 = 0, 0
		m.History = []ScoreSnapshot{}
		if !m.Type.Valid() {
			m.Type = m.Category.MatchType()
		}
	}
	t.ScoreA, t.ScoreB = 0, 0
	t.CurrentMatchIndex = nil
}

// Normalize rebuilds the derived fields of a series that came from outside
// the orchestrator. The aggregate is recounted from completed sub-matches
// and only the sub-match at CurrentMatchIndex may stay active.
func (t *TeamMatch) Normalize() {
	if _, ok := t.Current(); !ok {
		t.CurrentMatchIndex = nil
	}
	t.ScoreA, t.ScoreB = 0, 0
	for i := range t.Matches {
		m := &t.Matches[i]
		switch {
		case m.IsCompleted():
			if m.Score1 > m.Score2 {
				t.ScoreA++
			} else {
				t.ScoreB++
			}
		case m.Status == StatusActive && (t.CurrentMatchIndex == nil || *t.CurrentMatchIndex != i):
			m.Status = StatusPending
		}
	}
	if sub, ok := t.Current(); ok && sub.IsCompleted() {
		t.CurrentMatchIndex = nil
	}
}

// Current returns the active sub-match, if any.
func (t *TeamMatch) Current() (*SubMatch, bool) {
	if t.CurrentMatchIndex == nil {
		return nil, false
	}
	idx := *t.CurrentMatchIndex
	if idx < 0 || idx >= len(t.Matches) {
		return nil, false
	}
	return &t.Matches[idx], true
}

// StartSubMatch activates the sub-match at index and returns the live match
// to score. Any other active sub-match is paused back to pending.
func (t *TeamMatch) StartSubMatch(index int) (Match, error) {
	if index < 0 || index >= len(t.Matches) {
		return Match{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	sub := &t.Matches[index]
	if sub.IsCompleted() {
		return Match{}, fmt.Errorf("%w: %d", ErrSubMatchComplete, index)
	}
	if err := sub.Validate(); err != nil {
		return Match{}, err
	}

	for i := range t.Matches {
		if i != index && t.Matches[i].Status == StatusActive {
			t.Matches[i].Status = StatusPending
		}
	}
	sub.Status = StatusActive
	t.CurrentMatchIndex = &index
	return sub.Live(), nil
}

// RecordProgress copies the live score into the active sub-match so an
// interrupted game resumes where it stopped.
func (t *TeamMatch) RecordProgress(live Match) bool {
	sub, ok := t.Current()
	if !ok {
		return false
	}
	sub.apply(live)
	return true
}

// CompleteSubMatch stores result in the active sub-match, marks it
// completed and gives the aggregate point to the side with more points.
// It does nothing when no sub-match is active.
func (t *TeamMatch) CompleteSubMatch(result Match) bool {
	sub, ok := t.Current()
	if !ok || sub.IsCompleted() {
		return false
	}
	sub.apply(result)
	sub.Status = StatusCompleted
	if result.Score1 > result.Score2 {
		t.ScoreA++
	} else {
		t.ScoreB++
	}
	t.CurrentMatchIndex = nil
	return true
}

// CancelSubMatch leaves the active sub-match without completing it. The
// live score is kept so the sub-match can be resumed later; the aggregate
// is untouched.
func (t *TeamMatch) CancelSubMatch(live *Match) bool {
	sub, ok := t.Current()
	if !ok {
		return false
	}
	if live != nil {
		sub.apply(*live)
	}
	sub.Status = StatusPending
	t.CurrentMatchIndex = nil
	return true
}

func (t *TeamMatch) IsComplete() bool {
	for i := range t.Matches {
		if !t.Matches[i].IsCompleted() {
			return false
		}
	}
	return true
}

func (t *TeamMatch) CompletedCount() int {
	n := 0
	for i := range t.Matches {
		if t.Matches[i].IsCompleted() {
			n++
		}
	}
	return n
}

// HasRemaining reports whether any sub-match other than the active one
// still has to be played.
func (t *TeamMatch) HasRemaining() bool {
	for i := range t.Matches {
		if t.CurrentMatchIndex != nil && *t.CurrentMatchIndex == i {
			continue
		}
		if !t.Matches[i].IsCompleted() {
			return true
		}
	}
	return false
}

// IsStarted reports whether play has begun, i.e. sub-matches carry a status.
func (t *TeamMatch) IsStarted() bool {
	for i := range t.Matches {
		if t.Matches[i].Status != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (t TeamMatch) Clone() TeamMatch {
	t.TeamA.Players = append([]string{}, t.TeamA.Players...)
	t.TeamB.Players = append([]string{}, t.TeamB.Players...)
	matches := make([]SubMatch, len(t.Matches))
	for i, m := range t.Matches {
		m.History = append([]ScoreSnapshot{}, m.History...)
		matches[i] = m
	}
	t.Matches = matches
	if t.CurrentMatchIndex != nil {
		idx := *t.CurrentMatchIndex
		t.CurrentMatchIndex = &idx
	}
	return t
}

type Scoreboard struct {
	TeamAName       string          `json:"teamAName"`
	TeamBName       string          `json:"teamBName"`
	ScoreA          int             `json:"scoreA"`
	ScoreB          int             `json:"scoreB"`
	MatchesPlayed   int             `json:"matchesPlayed"`
	TotalMatches    int             `json:"totalMatches"`
	CategoryScores  []CategoryScore `json:"categoryScores"`
	RemainingToPlay bool            `json:"remainingToPlay"`
}

type CategoryScore struct {
	Category      Category `json:"category"`
	TeamAWins     int      `json:"teamAWins"`
	TeamBWins     int      `json:"teamBWins"`
	MatchesPlayed int      `json:"matchesPlayed"`
	TotalMatches  int      `json:"totalMatches"`
}

// CalculateScoreboard tallies completed sub-matches per category, in the
// order categories first appear in the series.
func (t *TeamMatch) CalculateScoreboard() Scoreboard {
	sb := Scoreboard{
		TeamAName:       t.TeamA.Name,
		TeamBName:       t.TeamB.Name,
		ScoreA:          t.ScoreA,
		ScoreB:          t.ScoreB,
		TotalMatches:    len(t.Matches),
		CategoryScores:  []CategoryScore{},
		RemainingToPlay: t.HasRemaining(),
	}

	index := make(map[Category]int)
	for _, m := range t.Matches {
		i, ok := index[m.Category]
		if !ok {
			i = len(sb.CategoryScores)
			index[m.Category] = i
			sb.CategoryScores = append(sb.CategoryScores, CategoryScore{Category: m.Category})
		}
		cs := &sb.CategoryScores[i]
		cs.TotalMatches++
		if !m.IsCompleted() {
			continue
		}
		cs.MatchesPlayed++
		sb.MatchesPlayed++
		if m.Score1 > m.Score2 {
			cs.TeamAWins++
		} else {
			cs.TeamBWins++
		}
	}
	return sb
}
