package models

import (
	"errors"
	"testing"
)

func TestCheckWinner(t *testing.T) {
	tests := []struct {
		name   string
		s1, s2 int
		want   Side
	}{
		{"fresh game", 0, 0, SideNone},
		{"21 with two point lead", 21, 19, Side1},
		{"side two clears deuce", 20, 22, Side2},
		{"golden point side two", 29, 30, Side2},
		{"golden point side one", 30, 29, Side1},
		{"deuce", 20, 20, SideNone},
		{"one point lead past 21", 29, 28, SideNone},
		{"21 with one point lead", 21, 20, SideNone},
		{"straight 21", 21, 0, Side1},
		{"straight 21 side two", 3, 21, Side2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckWinner(tt.s1, tt.s2); got != tt.want {
				t.Errorf("CheckWinner(%d, %d) = %v, want %v", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}

func TestCheckWinnerRule(t *testing.T) {
	for s1 := 0; s1 <= GoldenPoint; s1++ {
		for s2 := 0; s2 <= GoldenPoint; s2++ {
			if s1 == GoldenPoint && s2 == GoldenPoint {
				continue
			}
			want := SideNone
			switch {
			case s1 == 30 || (s1 >= 21 && s1-s2 >= 2):
				want = Side1
			case s2 == 30 || (s2 >= 21 && s2-s1 >= 2):
				want = Side2
			}
			if got := CheckWinner(s1, s2); got != want {
				t.Fatalf("CheckWinner(%d, %d) = %v, want %v", s1, s2, got, want)
			}
		}
	}
}

func TestAddPointKeepsHistoryInvariant(t *testing.T) {
	m, err := NewMatch(TypeSingles, "A", "B")
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	sides := []Side{Side1, Side2, Side2, Side1, Side1}
	for _, s := range sides {
		if !m.AddPoint(s) {
			t.Fatalf("AddPoint(%v) rejected at %d-%d", s, m.Score1, m.Score2)
		}
		if len(m.History) != m.Score1+m.Score2 {
			t.Fatalf("history length %d, want %d", len(m.History), m.Score1+m.Score2)
		}
	}
	if m.Score1 != 3 || m.Score2 != 2 {
		t.Errorf("score = %d-%d, want 3-2", m.Score1, m.Score2)
	}
	if last := m.History[len(m.History)-1]; last != (ScoreSnapshot{Score1: 2, Score2: 2}) {
		t.Errorf("last snapshot = %+v, want 2-2", last)
	}
}

func TestAddPointRejectedAfterWinner(t *testing.T) {
	m := Match{Type: TypeSingles, Player1: "A", Player2: "B", Score1: 30, Score2: 28}
	if m.Winner() != Side1 {
		t.Fatalf("winner = %v, want side1", m.Winner())
	}
	if m.AddPoint(Side2) {
		t.Error("AddPoint accepted after the game was won")
	}
	if m.Score1 != 30 || m.Score2 != 28 || len(m.History) != 0 {
		t.Errorf("match mutated: %d-%d history=%d", m.Score1, m.Score2, len(m.History))
	}
}

func TestAddPointInvalidSide(t *testing.T) {
	m := Match{Type: TypeSingles}
	if m.AddPoint(SideNone) || m.AddPoint(Side(7)) {
		t.Error("AddPoint accepted an invalid side")
	}
	if m.Score1 != 0 || m.Score2 != 0 || len(m.History) != 0 {
		t.Error("invalid side changed the match")
	}
}

func TestUndoRoundTrip(t *testing.T) {
	m, _ := NewMatch(TypeDoubles, "A", "B", "C", "D")
	sides := []Side{Side1, Side2, Side1, Side1, Side2, Side2, Side2, Side1}
	for _, s := range sides {
		m.AddPoint(s)
	}
	for range sides {
		if !m.Undo() {
			t.Fatal("Undo rejected with history left")
		}
	}
	if m.Score1 != 0 || m.Score2 != 0 || len(m.History) != 0 {
		t.Errorf("after undoing all points got %d-%d history=%d", m.Score1, m.Score2, len(m.History))
	}
	if m.Undo() {
		t.Error("Undo accepted with empty history")
	}
}

func TestUndoClearsWinner(t *testing.T) {
	m := Match{Type: TypeSingles, Player1: "A", Player2: "B"}
	for m.Score2 < 29 {
		m.AddPoint(Side1)
		m.AddPoint(Side2)
	}
	if !m.AddPoint(Side2) {
		t.Fatal("AddPoint rejected at 29-29")
	}
	if m.Winner() != Side2 {
		t.Fatalf("winner at %d-%d = %v, want side2", m.Score1, m.Score2, m.Winner())
	}

	m.Undo()
	if m.Score1 != 29 || m.Score2 != 29 {
		t.Errorf("score after undo = %d-%d, want 29-29", m.Score1, m.Score2)
	}
	if m.Winner() != SideNone {
		t.Errorf("winner after undo = %v, want none", m.Winner())
	}
	if !m.AddPoint(Side1) {
		t.Error("game did not resume after undo")
	}
}

func TestNewMatchValidation(t *testing.T) {
	tests := []struct {
		name      string
		matchType MatchType
		players   []string
		wantErr   error
	}{
		{"singles ok", TypeSingles, []string{"A", "B"}, nil},
		{"singles ignores extra names", TypeSingles, []string{"A", "B", "C"}, nil},
		{"doubles ok", TypeDoubles, []string{"A", "B", "C", "D"}, nil},
		{"singles missing player", TypeSingles, []string{"A"}, ErrMissingPlayers},
		{"blank name", TypeSingles, []string{"A", "  "}, ErrMissingPlayers},
		{"doubles missing partner", TypeDoubles, []string{"A", "B", "C"}, ErrMissingPlayers},
		{"bad type", MatchType("triples"), []string{"A", "B"}, ErrInvalidMatchType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatch(tt.matchType, tt.players...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && tt.matchType == TypeSingles && m.Player3 != "" {
				t.Errorf("singles match kept player3 %q", m.Player3)
			}
		})
	}
}

func TestLeader(t *testing.T) {
	m := Match{Score1: 12, Score2: 9}
	if m.Leader() != Side1 {
		t.Errorf("leader = %v, want side1", m.Leader())
	}
	m.Score2 = 12
	if m.Leader() != SideNone {
		t.Errorf("leader on tie = %v, want none", m.Leader())
	}
}
