package models

import (
	"sort"
	"strings"
)

// CalculatePlayerStats rebuilds per-player totals from quick-match history
// and the completed sub-matches of every team history record. Players are
// keyed by their exact name.
func CalculatePlayerStats(history []Match, teamHistory []TeamMatch) map[string]PlayerStats {
	stats := make(map[string]PlayerStats)

	for i := range history {
		addMatchStats(stats, &history[i])
	}
	for _, tm := range teamHistory {
		for i := range tm.Matches {
			if !tm.Matches[i].IsCompleted() {
				continue
			}
			live := tm.Matches[i].Live()
			addMatchStats(stats, &live)
		}
	}
	return stats
}

func addMatchStats(stats map[string]PlayerStats, m *Match) {
	for slot, name := range m.Players() {
		if strings.TrimSpace(name) == "" {
			continue
		}
		ps := stats[name]
		ps.Matches++
		if m.Type == TypeDoubles {
			ps.DoublesMatches++
		} else {
			ps.SinglesMatches++
		}

		own, other := m.Score1, m.Score2
		if SideOf(slot) == Side2 {
			own, other = m.Score2, m.Score1
		}
		if own > other {
			ps.Wins++
		} else {
			ps.Losses++
		}
		ps.PointsScored += own
		ps.PointsConceded += other
		stats[name] = ps
	}
}

type LeaderboardEntry struct {
	Name string `json:"name"`
	PlayerStats
	WinRate float64 `json:"winRate"`
}

// Leaderboard orders players by wins, then matches played, then name.
func Leaderboard(stats map[string]PlayerStats) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(stats))
	for name, ps := range stats {
		e := LeaderboardEntry{Name: name, PlayerStats: ps}
		if ps.Matches > 0 {
			e.WinRate = float64(ps.Wins) / float64(ps.Matches) * 100
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		if entries[i].Matches != entries[j].Matches {
			return entries[i].Matches > entries[j].Matches
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
