package domain

import (
	"fmt"
	"strings"
	"time"
)

// MatchResult is a stored ladder result. The column order of ResultColumns
// is the on-disk CSV layout.
type MatchResult struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	Player        string `gorm:"size:255;not null" json:"player"`
	Opponent      string `gorm:"size:255;not null" json:"opponent"`
	Time          int64  `gorm:"not null" json:"time"`
	PlayerVictory bool   `json:"player_victory"`
	Draw          bool   `json:"draw"`
	VPPlayer      int    `json:"vp_player"`
	VPOpponent    int    `json:"vp_opponent"`
	LeagueName    string `gorm:"size:255;not null;index" json:"league_name"`
}

var ResultColumns = []string{
	"player",
	"opponent",
	"time",
	"player_victory",
	"draw",
	"vp_player",
	"vp_opponent",
	"league_name",
}

func (r MatchResult) PlayerName() string   { return r.Player }
func (r MatchResult) OpponentName() string { return r.Opponent }
func (r MatchResult) PlayerWon() bool      { return r.PlayerVictory }
func (r MatchResult) WasDraw() bool        { return r.Draw }
func (r MatchResult) PlayerVP() int        { return r.VPPlayer }
func (r MatchResult) OpponentVP() int      { return r.VPOpponent }

func (r MatchResult) MatchDate() time.Time {
	return time.Unix(r.Time, 0).UTC()
}

func (r MatchResult) Validate() error {
	switch {
	case strings.TrimSpace(r.Player) == "":
		return fmt.Errorf("%w: player is required", ErrInvalidResult)
	case strings.TrimSpace(r.Opponent) == "":
		return fmt.Errorf("%w: opponent is required", ErrInvalidResult)
	case r.Player == r.Opponent:
		return fmt.Errorf("%w: %s cannot play against themselves", ErrInvalidResult, r.Player)
	case r.PlayerVictory && r.Draw:
		return fmt.Errorf("%w: a match cannot be both a win and a draw", ErrInvalidResult)
	}
	return nil
}

// AsResults converts stored results for ComputeStandings.
func AsResults(rs []MatchResult) []Result {
	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

// MatchSubmission is a match report as entered by a player.
type MatchSubmission struct {
	PlayerName   string `json:"player_name"`
	OpponentName string `json:"opponent_name"`
	LeagueName   string `json:"league_name"`
	PlayerWon    bool   `json:"player_won"`
	WasDraw      bool   `json:"was_draw"`
	Notes        string `json:"notes"`
	Timestamp    int64  `json:"timestamp"`
}

// Outcome is the answer to "who won?" from the reporting player's side.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToLower(strings.TrimSpace(s))); o {
	case OutcomeWin, OutcomeLoss, OutcomeDraw:
		return o, nil
	}
	return "", fmt.Errorf("%w: unknown outcome %q", ErrInvalidResult, s)
}

func NewSubmission(player, opponent, league string, outcome Outcome, notes string, at time.Time) MatchSubmission {
	return MatchSubmission{
		PlayerName:   player,
		OpponentName: opponent,
		LeagueName:   league,
		PlayerWon:    outcome == OutcomeWin,
		WasDraw:      outcome == OutcomeDraw,
		Notes:        notes,
		Timestamp:    at.UTC().Unix(),
	}
}

// AdaptSubmission turns a report into a stored result. Reports carry no
// victory points, and notes are not stored.
func AdaptSubmission(s MatchSubmission) MatchResult {
	return MatchResult{
		Player:        s.PlayerName,
		Opponent:      s.OpponentName,
		Time:          s.Timestamp,
		PlayerVictory: s.PlayerWon,
		Draw:          s.WasDraw,
		LeagueName:    s.LeagueName,
	}
}
