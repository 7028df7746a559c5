package domain

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// InitialPoints is the ladder score every player starts with.
const InitialPoints = 10

// Period is the number of days in one scoring period.
type Period int

const PeriodWeekly Period = 7

type LadderConfig struct {
	StartDate      time.Time
	EndDate        time.Time
	Period         Period
	GamesPerPeriod int
}

// Result is a single reported match as seen by the ladder computation.
type Result interface {
	PlayerName() string
	OpponentName() string
	PlayerWon() bool
	WasDraw() bool
	PlayerVP() int
	OpponentVP() int
	MatchDate() time.Time
}

type Player struct {
	Name            string      `json:"name"`
	GamesPlayed     int         `json:"games_played"`
	GamesWon        int         `json:"games_won"`
	GamesDrawn      int         `json:"games_drawn"`
	OpponentsPlayed []string    `json:"opponents_played"`
	TotalVP         int         `json:"total_vp"`
	LadderPoints    int         `json:"ladder_points"`
	MatchPeriods    map[int]int `json:"-"`
}

func NewPlayer(name string, initialPoints int) *Player {
	return &Player{
		Name:            name,
		LadderPoints:    initialPoints,
		OpponentsPlayed: []string{},
		MatchPeriods:    map[int]int{},
	}
}

// Updater applies one result to the two players involved in it.
type Updater func(a, b *Player, r Result, c LadderConfig) error

// PeriodOf returns the zero-based period index of d, counted in whole
// periods since the league start. Dates before the start give negative
// indexes.
func PeriodOf(d time.Time, c LadderConfig) (int, error) {
	switch c.Period {
	case PeriodWeekly:
		days := floorDiv(int64(d.Sub(c.StartDate)), int64(24*time.Hour))
		return int(floorDiv(days, int64(PeriodWeekly))), nil
	default:
		return 0, fmt.Errorf("%w: %d days", ErrUnsupportedPeriod, c.Period)
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// UpdatePlayersBasic scores a result:
//   - only the first game of a period earns period points
//   - +1 for playing
//   - +1 for winning, plus half the gap (rounded up) when beating a
//     higher ranked opponent
//   - +1 to both for a new pairing
func UpdatePlayersBasic(a, b *Player, r Result, c LadderConfig) error {
	period, err := PeriodOf(r.MatchDate(), c)
	if err != nil {
		return err
	}
	aPlayed := a.MatchPeriods[period] > 0
	bPlayed := b.MatchPeriods[period] > 0

	aEarned, bEarned := 0, 0
	a.GamesPlayed++
	b.GamesPlayed++
	a.TotalVP += r.PlayerVP()
	b.TotalVP += r.OpponentVP()

	switch {
	case r.PlayerWon():
		a.GamesWon++
		aEarned += upsetBonus(a, b) + 2
		bEarned++
	case r.WasDraw():
		a.GamesDrawn++
		b.GamesDrawn++
		aEarned++
		bEarned++
	default:
		b.GamesWon++
		bEarned += upsetBonus(b, a) + 2
		aEarned++
	}

	if !slices.Contains(a.OpponentsPlayed, r.OpponentName()) {
		a.OpponentsPlayed = append(a.OpponentsPlayed, r.OpponentName())
		b.OpponentsPlayed = append(b.OpponentsPlayed, r.PlayerName())
		a.LadderPoints++
		b.LadderPoints++
	}
	if !aPlayed {
		a.LadderPoints += aEarned
	}
	if !bPlayed {
		b.LadderPoints += bEarned
	}
	a.MatchPeriods[period]++
	b.MatchPeriods[period]++
	return nil
}

// upsetBonus is half the point gap, rounded up, when the winner was behind.
func upsetBonus(winner, loser *Player) int {
	if loser.LadderPoints <= winner.LadderPoints {
		return 0
	}
	gap := loser.LadderPoints - winner.LadderPoints
	return (gap + 1) / 2
}

// ComputeStandings replays results in order and returns every player that
// appeared, in first-seen order.
func ComputeStandings(results []Result, c LadderConfig, update Updater) ([]Player, error) {
	byName := map[string]*Player{}
	var order []string
	lookup := func(name string) *Player {
		p, ok := byName[name]
		if !ok {
			p = NewPlayer(name, InitialPoints)
			byName[name] = p
			order = append(order, name)
		}
		return p
	}

	for _, r := range results {
		a := lookup(r.PlayerName())
		b := lookup(r.OpponentName())
		if err := update(a, b, r, c); err != nil {
			return nil, err
		}
	}

	players := make([]Player, 0, len(order))
	for _, name := range order {
		players = append(players, *byName[name])
	}
	return players, nil
}

// SortStandings orders players by ladder points, highest first. Ties keep
// their first-seen order.
func SortStandings(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].LadderPoints > players[j].LadderPoints
	})
}
