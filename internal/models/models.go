package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

type MatchType string

const (
	TypeSingles MatchType = "singles"
	TypeDoubles MatchType = "doubles"
)

func (t MatchType) Valid() bool {
	return t == TypeSingles || t == TypeDoubles
}

// PlayersPerSide is 1 for singles and 2 for doubles.
func (t MatchType) PlayersPerSide() int {
	if t == TypeDoubles {
		return 2
	}
	return 1
}

type MatchStatus string

const (
	StatusPending   MatchStatus = "pending"
	StatusActive    MatchStatus = "active"
	StatusCompleted MatchStatus = "completed"
)

// Side identifies one half of the court. Side1 holds the player1/player3
// slots, Side2 the player2/player4 slots.
type Side int

const (
	SideNone Side = iota
	Side1
	Side2
)

func (s Side) String() string {
	switch s {
	case Side1:
		return "side1"
	case Side2:
		return "side2"
	default:
		return "none"
	}
}

// Category is the discipline code of a sub-match in a team series.
type Category string

const (
	CategoryMensSingles   Category = "MS"
	CategoryWomensSingles Category = "WS"
	CategoryMensDoubles   Category = "MD"
	CategoryWomensDoubles Category = "WD"
	CategoryMixedDoubles  Category = "XD"
)

var Categories = []Category{
	CategoryMensSingles,
	CategoryWomensSingles,
	CategoryMensDoubles,
	CategoryWomensDoubles,
	CategoryMixedDoubles,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MatchType returns doubles for MD, WD and XD and singles otherwise.
func (c Category) MatchType() MatchType {
	switch c {
	case CategoryMensDoubles, CategoryWomensDoubles, CategoryMixedDoubles:
		return TypeDoubles
	default:
		return TypeSingles
	}
}

type TeamID string

const (
	TeamA TeamID = "A"
	TeamB TeamID = "B"
)

var (
	ErrInvalidMatchType = errors.New("match type must be singles or doubles")
	ErrMissingPlayers   = errors.New("all player names are required")
	ErrInvalidCategory  = errors.New("unknown match category")
	ErrInvalidTeam      = errors.New("team must be A or B")
	ErrInvalidSide      = errors.New("side must be 1 or 2")
	ErrIndexOutOfRange  = errors.New("sub-match index out of range")
	ErrSubMatchComplete = errors.New("sub-match already completed")
	ErrNoSubMatches     = errors.New("team match has no sub-matches")
	ErrLastSubMatch     = errors.New("a team match needs at least one sub-match")
)

// ScoreSnapshot is the score immediately before a point was applied.
type ScoreSnapshot struct {
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}

// Match is a single game. Player3 and Player4 are only set for doubles.
type Match struct {
	ID      string          `json:"id,omitempty"`
	Type    MatchType       `json:"type"`
	Player1 string          `json:"player1"`
	Player2 string          `json:"player2"`
	Player3 string          `json:"player3,omitempty"`
	Player4 string          `json:"player4,omitempty"`
	Score1  int             `json:"score1"`
	Score2  int             `json:"score2"`
	History []ScoreSnapshot `json:"history"`
	Status  MatchStatus     `json:"status,omitempty"`
	Date    time.Time       `json:"date,omitzero"`
}

type Team struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// SubMatch is one game inside a team series. P1..P4 are the slot
// assignments; they become Player1..Player4 of the live Match on activation.
type SubMatch struct {
	ID       int             `json:"id"`
	Category Category        `json:"category"`
	Type     MatchType       `json:"type"`
	P1       string          `json:"p1"`
	P2       string          `json:"p2"`
	P3       string          `json:"p3,omitempty"`
	P4       string          `json:"p4,omitempty"`
	Status   MatchStatus     `json:"status,omitempty"`
	Score1   int             `json:"score1"`
	Score2   int             `json:"score2"`
	History  []ScoreSnapshot `json:"history"`
}

// TeamMatch is a series of sub-matches between two teams. The same shape
// is used for the in-flight series, saved drafts and team history records.
type TeamMatch struct {
	ID                string     `json:"id,omitempty"`
	Title             string     `json:"title"`
	Date              string     `json:"date"`
	TeamA             Team       `json:"teamA"`
	TeamB             Team       `json:"teamB"`
	Matches           []SubMatch `json:"matches"`
	ScoreA            int        `json:"scoreA"`
	ScoreB            int        `json:"scoreB"`
	CurrentMatchIndex *int       `json:"currentMatchIndex"`
	LastModified      time.Time  `json:"lastModified,omitzero"`
	SavedAt           time.Time  `json:"savedAt,omitzero"`
}

// PlayerStats is derived from history on every query and never stored.
type PlayerStats struct {
	Matches        int `json:"matches"`
	Wins           int `json:"wins"`
	Losses         int `json:"losses"`
	PointsScored   int `json:"pointsScored"`
	PointsConceded int `json:"pointsConceded"`
	SinglesMatches int `json:"singlesMatches"`
	DoublesMatches int `json:"doublesMatches"`
}

// UnmarshalJSON accepts records written by older clients: numeric ids,
// scores stored as strings and dates that do not parse.
func (m *Match) UnmarshalJSON(data []byte) error {
	type matchAlias Match
	var raw struct {
		matchAlias
		RawID     json.RawMessage `json:"id"`
		RawScore1 json.RawMessage `json:"score1"`
		RawScore2 json.RawMessage `json:"score2"`
		RawDate   json.RawMessage `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Match(raw.matchAlias)
	m.ID = decodeID(raw.RawID)
	m.Score1 = decodeInt(raw.RawScore1)
	m.Score2 = decodeInt(raw.RawScore2)
	m.Date = decodeTime(raw.RawDate)
	return nil
}

func (s *SubMatch) UnmarshalJSON(data []byte) error {
	type subMatchAlias SubMatch
	var raw struct {
		subMatchAlias
		RawID     json.RawMessage `json:"id"`
		RawScore1 json.RawMessage `json:"score1"`
		RawScore2 json.RawMessage `json:"score2"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SubMatch(raw.subMatchAlias)
	s.ID = decodeInt(raw.RawID)
	s.Score1 = decodeInt(raw.RawScore1)
	s.Score2 = decodeInt(raw.RawScore2)
	if s.Type == "" {
		s.Type = s.Category.MatchType()
	}
	return nil
}

func (t *TeamMatch) UnmarshalJSON(data []byte) error {
	type teamMatchAlias TeamMatch
	var raw struct {
		teamMatchAlias
		RawID           json.RawMessage `json:"id"`
		RawScoreA       json.RawMessage `json:"scoreA"`
		RawScoreB       json.RawMessage `json:"scoreB"`
		RawCurrentIndex json.RawMessage `json:"currentMatchIndex"`
		RawModified     json.RawMessage `json:"lastModified"`
		RawSavedAt      json.RawMessage `json:"savedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = TeamMatch(raw.teamMatchAlias)
	t.ID = decodeID(raw.RawID)
	t.ScoreA = decodeInt(raw.RawScoreA)
	t.ScoreB = decodeInt(raw.RawScoreB)
	t.LastModified = decodeTime(raw.RawModified)
	t.SavedAt = decodeTime(raw.RawSavedAt)
	t.CurrentMatchIndex = nil
	if len(raw.RawCurrentIndex) > 0 && string(raw.RawCurrentIndex) != "null" {
		if idx := decodeInt(raw.RawCurrentIndex); idx >= 0 && idx < len(t.Matches) {
			t.CurrentMatchIndex = &idx
		}
	}
	if t.TeamA.Players == nil {
		t.TeamA.Players = []string{}
	}
	if t.TeamB.Players == nil {
		t.TeamB.Players = []string{}
	}
	return nil
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func decodeInt(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}

func decodeTime(raw json.RawMessage) time.Time {
	var t time.Time
	if len(raw) == 0 || string(raw) == "null" {
		return t
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return time.Time{}
	}
	return t
}
