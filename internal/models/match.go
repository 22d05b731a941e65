package models

import (
	"fmt"
	"strings"
)

const (
	// WinningScore is the first score that can end a game, given a two point lead.
	WinningScore = 21
	// GoldenPoint ends the game regardless of the lead.
	GoldenPoint = 30
	winMargin   = 2
)

// CheckWinner applies rally-point scoring to 21 with a two point lead,
// capped at 30.
func CheckWinner(s1, s2 int) Side {
	if s1 == GoldenPoint || (s1 >= WinningScore && s1-s2 >= winMargin) {
		return Side1
	}
	if s2 == GoldenPoint || (s2 >= WinningScore && s2-s1 >= winMargin) {
		return Side2
	}
	return SideNone
}

// NewMatch builds a validated match at 0-0. Doubles needs four names,
// singles two; extra names for singles are ignored.
func NewMatch(matchType MatchType, players ...string) (Match, error) {
	m := Match{Type: matchType, History: []ScoreSnapshot{}}
	names := make([]string, 4)
	copy(names, players)
	m.Player1, m.Player2 = names[0], names[1]
	if matchType == TypeDoubles {
		m.Player3, m.Player4 = names[2], names[3]
	}
	if err := m.Validate(); err != nil {
		return Match{}, err
	}
	return m, nil
}

// Validate checks the match type and that every required slot has a name.
func (m *Match) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMatchType, m.Type)
	}
	for i, name := range m.Players() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: player%d is empty", ErrMissingPlayers, i+1)
		}
	}
	return nil
}

// Players returns the participant slots in player1..player4 order: two
// entries for singles, four for doubles.
func (m *Match) Players() []string {
	if m.Type == TypeDoubles {
		return []string{m.Player1, m.Player2, m.Player3, m.Player4}
	}
	return []string{m.Player1, m.Player2}
}

// SideOf reports which side the 0-based slot index plays on.
func SideOf(slot int) Side {
	if slot%2 == 0 {
		return Side1
	}
	return Side2
}

func (m *Match) Winner() Side {
	return CheckWinner(m.Score1, m.Score2)
}

func (m *Match) IsFinished() bool {
	return m.Winner() != SideNone
}

func (m *Match) CanUndo() bool {
	return len(m.History) > 0
}

// Leader returns the side with strictly more points, or SideNone on a tie.
func (m *Match) Leader() Side {
	switch {
	case m.Score1 > m.Score2:
		return Side1
	case m.Score2 > m.Score1:
		return Side2
	default:
		return SideNone
	}
}

// AddPoint records the current score in History and awards a point to
// side. It does nothing once the game has a winner.
func (m *Match) AddPoint(side Side) bool {
	if side != Side1 && side != Side2 {
		return false
	}
	if m.IsFinished() {
		return false
	}
	m.History = append(m.History, ScoreSnapshot{Score1: m.Score1, Score2: m.Score2})
	if side == Side1 {
		m.Score1++
	} else {
		m.Score2++
	}
	return true
}

// Undo restores the score from before the last point. The winner is
// derived from the restored score, so undoing a game-winning point resumes
// the game.
func (m *Match) Undo() bool {
	if !m.CanUndo() {
		return false
	}
	last := m.History[len(m.History)-1]
	m.History = m.History[:len(m.History)-1]
	m.Score1, m.Score2 = last.Score1, last.Score2
	return true
}

// Clone returns a copy that shares no History backing array with m.
func (m Match) Clone() Match {
	m.History = append([]ScoreSnapshot{}, m.History...)
	return m
}
