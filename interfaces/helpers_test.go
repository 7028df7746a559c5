package interfaces

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"wordbearer/domain"
	"wordbearer/infrastructure"
	"wordbearer/usecase"
)

// Wednesday 6 March 2024, inside the spring league.
var testNow = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

type sentMessage struct {
	channel domain.ID
	msg     domain.OutgoingMessage
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *recordingSender) Send(_ context.Context, channelID domain.ID, msg domain.OutgoingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{channel: channelID, msg: msg})
	return nil
}

func testLeagueConfigs() []domain.LeagueConfig {
	return []domain.LeagueConfig{
		{
			StartDate:  domain.Timestamp{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			EndDate:    domain.Timestamp{Time: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)},
			LeagueName: "Spring Ladder",
			ChannelID:  555,
			PostingDay: domain.Friday,
		},
		{
			StartDate:  domain.Timestamp{Time: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)},
			EndDate:    domain.Timestamp{Time: time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC)},
			LeagueName: "Autumn Ladder",
			ChannelID:  556,
			PostingDay: domain.Monday,
		},
	}
}

type fixture struct {
	leagues *usecase.Leagues
	results *infrastructure.CSVResultStore
	sender  *recordingSender
	log     logrus.FieldLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	results, err := infrastructure.NewCSVResultStore(t.TempDir())
	require.NoError(t, err)
	record, err := infrastructure.NewFilePostRecord(t.TempDir())
	require.NoError(t, err)

	log, _ := logtest.NewNullLogger()
	sender := &recordingSender{}
	leagues := usecase.NewLeagues(testLeagueConfigs(), usecase.ManagerDeps{
		Results:     results,
		Record:      record,
		Sender:      sender,
		PostingHour: usecase.DefaultPostingHour,
		Now:         func() time.Time { return testNow },
		Log:         log,
	})
	return &fixture{leagues: leagues, results: results, sender: sender, log: log}
}

func (f *fixture) commands() *MatchCommands {
	c := NewMatchCommands(f.leagues, f.log)
	c.now = func() time.Time { return testNow }
	return c
}
