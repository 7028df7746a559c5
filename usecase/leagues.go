package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"wordbearer/domain"
)

// NoActiveLeagues is offered as the only choice when no league is running.
const NoActiveLeagues = "No active leagues available"

// Leagues is the registry of configured ladder leagues.
type Leagues struct {
	managers map[string]*LadderManager
	order    []string
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewLeagues(configs []domain.LeagueConfig, deps ManagerDeps) *Leagues {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	l := &Leagues{
		managers: make(map[string]*LadderManager, len(configs)),
		now:      deps.Now,
		log:      deps.Log,
	}
	for _, cfg := range configs {
		if _, dup := l.managers[cfg.LeagueName]; !dup {
			l.order = append(l.order, cfg.LeagueName)
		}
		l.managers[cfg.LeagueName] = NewLadderManager(cfg, deps)
	}
	return l
}

func (l *Leagues) Names() []string {
	return append([]string(nil), l.order...)
}

func (l *Leagues) Get(name string) (*LadderManager, bool) {
	m, ok := l.managers[name]
	return m, ok
}

// ActiveNames lists leagues running right now, in config order.
func (l *Leagues) ActiveNames() []string {
	now := l.now()
	var names []string
	for _, name := range l.order {
		if l.managers[name].Config().Active(now) {
			names = append(names, name)
		}
	}
	return names
}

// WriteResult stores a result with the league it names.
func (l *Leagues) WriteResult(ctx context.Context, r domain.MatchResult) error {
	m, ok := l.managers[r.LeagueName]
	if !ok {
		l.log.WithFields(logrus.Fields{
			"league":   r.LeagueName,
			"player":   r.Player,
			"opponent": r.Opponent,
		}).Warn("an orphaned result was submitted")
		return fmt.Errorf("%w: %q", domain.ErrUnknownLeague, r.LeagueName)
	}
	return m.StoreResult(ctx, r)
}

// ReportMatch records a player's match report.
func (l *Leagues) ReportMatch(ctx context.Context, s domain.MatchSubmission) error {
	r := domain.AdaptSubmission(s)
	if err := r.Validate(); err != nil {
		return err
	}
	m, ok := l.managers[s.LeagueName]
	if ok && !m.Config().Active(r.MatchDate()) {
		return fmt.Errorf("%w: %s is not running", domain.ErrInvalidResult, s.LeagueName)
	}
	if err := l.WriteResult(ctx, r); err != nil {
		return err
	}
	l.log.WithFields(logrus.Fields{
		"league":   s.LeagueName,
		"player":   s.PlayerName,
		"opponent": s.OpponentName,
		"won":      s.PlayerWon,
		"draw":     s.WasDraw,
		"notes":    s.Notes,
	}).Info("result submitted")
	return nil
}

// PostAll gives every league a chance to post its weekly standings. A
// failing league does not stop the others.
func (l *Leagues) PostAll(ctx context.Context) {
	for _, name := range l.order {
		if ctx.Err() != nil {
			return
		}
		if _, err := l.managers[name].PostStandings(ctx); err != nil {
			l.log.WithError(err).WithField("league", name).Error("posting standings failed")
		}
	}
}
