package usecase

import (
	"context"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordbearer/domain"
)

func TestScheduler_TickRunsJobsAndStandings(t *testing.T) {
	// Wednesday of ISO week 2
	now := time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC)
	log, _ := logtest.NewNullLogger()

	f := newManagerFixture()
	f.now = now
	leagues := NewLeagues([]domain.LeagueConfig{springLeague()}, f.deps)
	require.NoError(t, f.results.AppendResult(context.Background(), "Spring Ladder",
		domain.MatchResult{Player: "a", Opponent: "b", Time: now.Unix(), PlayerVictory: true}))

	store := newMemJobStore(job("hello", 42, now.Add(-time.Minute)))
	jobs, err := NewMessageJobs(store, f.sender, log, WithJobsClock(func() time.Time { return now }))
	require.NoError(t, err)

	NewScheduler(jobs, leagues, time.Minute, log).Tick(context.Background())

	msgs := f.sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.ID(42), msgs[0].channel)
	assert.Equal(t, domain.ID(555), msgs[1].channel)
}

func TestScheduler_RunStopsWithContext(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	f := newManagerFixture()
	leagues := NewLeagues(nil, f.deps)
	store := newMemJobStore(job("later", 1, jobNow))
	jobs, err := NewMessageJobs(store, f.sender, log, WithJobsClock(func() time.Time { return jobNow.Add(-time.Hour) }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewScheduler(jobs, leagues, 10*time.Millisecond, log).Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Empty(t, f.sender.messages())
}
