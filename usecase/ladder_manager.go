package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"wordbearer/domain"
)

// DefaultPostingHour is the UTC hour from which weekly standings may go out.
const DefaultPostingHour = 16

// ManagerDeps are shared by every league's manager.
type ManagerDeps struct {
	Results     ResultStore
	Record      PostRecord
	Sender      Sender
	PostingHour int
	Now         func() time.Time
	Log         logrus.FieldLogger
}

// LadderManager ties one league's config to result storage and the weekly
// standings post.
type LadderManager struct {
	config      domain.LeagueConfig
	ladder      domain.LadderConfig
	results     ResultStore
	record      PostRecord
	sender      Sender
	postingHour int
	now         func() time.Time
	log         logrus.FieldLogger
}

func NewLadderManager(cfg domain.LeagueConfig, deps ManagerDeps) *LadderManager {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &LadderManager{
		config:      cfg,
		ladder:      cfg.LadderConfig(),
		results:     deps.Results,
		record:      deps.Record,
		sender:      deps.Sender,
		postingHour: deps.PostingHour,
		now:         now,
		log:         deps.Log.WithField("league", cfg.LeagueName),
	}
}

func (m *LadderManager) Name() string                { return m.config.LeagueName }
func (m *LadderManager) Config() domain.LeagueConfig { return m.config }

func (m *LadderManager) StoreResult(ctx context.Context, r domain.MatchResult) error {
	if err := m.results.AppendResult(ctx, m.Name(), r); err != nil {
		return fmt.Errorf("store result for %s: %w", m.Name(), err)
	}
	return nil
}

// Standings computes the current ladder, highest score first.
func (m *LadderManager) Standings(ctx context.Context) ([]domain.Player, error) {
	results, err := m.results.Results(ctx, m.Name())
	if err != nil {
		return nil, err
	}
	players, err := domain.ComputeStandings(domain.AsResults(results), m.ladder, domain.UpdatePlayersBasic)
	if err != nil {
		return nil, err
	}
	domain.SortStandings(players)
	return players, nil
}

// PostStandings posts this week's standings once the league is running, the
// posting weekday and hour have been reached, and this ISO week has not been
// posted yet. It reports whether a message was sent. An empty ladder sends
// nothing but still counts as this week's post.
func (m *LadderManager) PostStandings(ctx context.Context) (bool, error) {
	now := m.now().UTC()
	if !m.config.Active(now) || domain.IsoWeekday(now) < m.config.PostingDay || now.Hour() < m.postingHour {
		return false, nil
	}

	_, week := now.ISOWeek()
	posted, err := m.record.Posted(m.Name(), week)
	if err != nil {
		return false, err
	}
	if posted {
		return false, nil
	}

	players, err := m.Standings(ctx)
	if err != nil {
		return false, err
	}
	sent := len(players) > 0
	if sent {
		msg := domain.OutgoingMessage{Content: StandingsMessage(m.Name(), players, now)}
		if err := m.sender.Send(ctx, m.config.ChannelID, msg); err != nil {
			return false, fmt.Errorf("post standings for %s: %w", m.Name(), err)
		}
		m.log.WithFields(logrus.Fields{"week": week, "players": len(players)}).Info("posted ladder standings")
	}
	if err := m.record.MarkPosted(m.Name(), week); err != nil {
		return sent, err
	}
	return sent, nil
}

func StandingsMessage(league string, players []domain.Player, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Ladder Standings for %s\n", league)
	fmt.Fprintf(&b, "*As of %s*\n", now.Format("January 02, 2006"))
	for _, p := range players {
		fmt.Fprintf(&b, "- %s (%d)\n", p.Name, p.LadderPoints)
	}
	return strings.TrimRight(b.String(), "\n")
}
