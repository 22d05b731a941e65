package models

import "testing"

func TestCalculatePlayerStatsSingles(t *testing.T) {
	history := []Match{
		{Type: TypeSingles, Player1: "A", Player2: "B", Score1: 21, Score2: 15},
	}
	stats := CalculatePlayerStats(history, nil)

	want := map[string]PlayerStats{
		"A": {Matches: 1, Wins: 1, Losses: 0, PointsScored: 21, PointsConceded: 15, SinglesMatches: 1},
		"B": {Matches: 1, Wins: 0, Losses: 1, PointsScored: 15, PointsConceded: 21, SinglesMatches: 1},
	}
	if len(stats) != len(want) {
		t.Fatalf("got %d players, want %d", len(stats), len(want))
	}
	for name, w := range want {
		if got := stats[name]; got != w {
			t.Errorf("stats[%s] = %+v, want %+v", name, got, w)
		}
	}
}

func TestCalculatePlayerStatsDoublesAndTeamHistory(t *testing.T) {
	history := []Match{
		{Type: TypeDoubles, Player1: "A", Player2: "B", Player3: "C", Player4: "D", Score1: 18, Score2: 21},
	}
	teamHistory := []TeamMatch{
		{
			Matches: []SubMatch{
				{Category: CategoryMensSingles, Type: TypeSingles, P1: "A", P2: "D", Status: StatusCompleted, Score1: 30, Score2: 29},
				{Category: CategoryMensSingles, Type: TypeSingles, P1: "C", P2: "B", Status: StatusPending, Score1: 5, Score2: 3},
				{Category: CategoryMensDoubles, Type: TypeDoubles, P1: "A", P2: "B", P3: "C", P4: "D", Status: StatusActive, Score1: 1},
			},
		},
	}
	stats := CalculatePlayerStats(history, teamHistory)

	tests := []struct {
		name string
		want PlayerStats
	}{
		{"A", PlayerStats{Matches: 2, Wins: 1, Losses: 1, PointsScored: 48, PointsConceded: 50, SinglesMatches: 1, DoublesMatches: 1}},
		{"B", PlayerStats{Matches: 1, Wins: 1, Losses: 0, PointsScored: 21, PointsConceded: 18, DoublesMatches: 1}},
		{"C", PlayerStats{Matches: 1, Wins: 0, Losses: 1, PointsScored: 18, PointsConceded: 21, DoublesMatches: 1}},
		{"D", PlayerStats{Matches: 2, Wins: 1, Losses: 1, PointsScored: 50, PointsConceded: 48, SinglesMatches: 1, DoublesMatches: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stats[tt.name]; got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculatePlayerStatsSkipsBlankNamesAndIgnoresSinglesPartners(t *testing.T) {
	history := []Match{
		{Type: TypeSingles, Player1: "A", Player2: "", Player3: "ghost", Score1: 21, Score2: 3},
	}
	stats := CalculatePlayerStats(history, nil)
	if _, ok := stats[""]; ok {
		t.Error("blank name counted")
	}
	if _, ok := stats["ghost"]; ok {
		t.Error("player3 counted for singles")
	}
	if stats["A"].Wins != 1 {
		t.Errorf("A = %+v", stats["A"])
	}
}

func TestCalculatePlayerStatsIsIdempotent(t *testing.T) {
	history := []Match{{Type: TypeSingles, Player1: "A", Player2: "B", Score1: 21, Score2: 10}}
	first := CalculatePlayerStats(history, nil)
	second := CalculatePlayerStats(history, nil)
	if first["A"] != second["A"] || first["B"] != second["B"] {
		t.Error("repeated calculation differs")
	}
}

func TestLeaderboard(t *testing.T) {
	stats := map[string]PlayerStats{
		"Cat": {Matches: 4, Wins: 2},
		"Ann": {Matches: 2, Wins: 2},
		"Bob": {Matches: 4, Wins: 2},
		"Dee": {Matches: 1, Wins: 3},
		"Eli": {},
	}
	board := Leaderboard(stats)
	order := []string{"Dee", "Bob", "Cat", "Ann", "Eli"}
	for i, name := range order {
		if board[i].Name != name {
			t.Errorf("position %d = %s, want %s", i, board[i].Name, name)
		}
	}
	if board[3].WinRate != 100 {
		t.Errorf("Ann win rate = %v, want 100", board[3].WinRate)
	}
	if board[4].WinRate != 0 {
		t.Errorf("Eli win rate = %v, want 0", board[4].WinRate)
	}
}
