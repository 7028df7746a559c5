package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullEnv() map[string]string {
	return map[string]string{
		"MESSAGE_JOB_DIR":          "/jobs",
		"FINISHED_MESSAGE_JOB_DIR": "/jobs/finished",
		"LEAGUE_DIR":               "/leagues",
		"BOT_TOKEN":                "token",
		"LOG_FILE":                 "/var/log/bot.log",
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(fullEnv())
	require.NoError(t, err)
	require.NoError(t, cfg.RequireBot())

	assert.Equal(t, "/jobs", cfg.JobDir)
	assert.Equal(t, "/jobs/finished", cfg.FinishedJobDir)
	assert.Equal(t, 30*time.Second, cfg.JobInterval)
	assert.Equal(t, 16, cfg.PostingHour)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "message_jobs", cfg.RabbitMQName)
	assert.True(t, cfg.WatchJobDir)
	assert.Equal(t, "/leagues/results", cfg.ResultsDir())
	assert.Equal(t, "/leagues/messages", cfg.MessagesDir())
}

func TestParseConfig_Overrides(t *testing.T) {
	vars := fullEnv()
	vars["JOB_INTERVAL"] = "5s"
	vars["POSTING_HOUR"] = "9"
	vars["GUILD_ID"] = "123456789012345678"
	vars["WATCH_JOB_DIR"] = "false"
	vars["HTTP_ADDR"] = ":8080"

	cfg, err := ParseConfig(vars)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.JobInterval)
	assert.Equal(t, 9, cfg.PostingHour)
	assert.Equal(t, uint64(123456789012345678), cfg.GuildID)
	assert.False(t, cfg.WatchJobDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestParseConfig_BadDuration(t *testing.T) {
	vars := fullEnv()
	vars["JOB_INTERVAL"] = "soon"
	_, err := ParseConfig(vars)
	assert.Error(t, err)
}

func TestConfig_RequireBot_ReportsEveryMissingKey(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{"LEAGUE_DIR": "/leagues"})
	require.NoError(t, err)

	err = cfg.RequireBot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required configuration FINISHED_MESSAGE_JOB_DIR is not set")
	assert.Contains(t, err.Error(), "required configuration MESSAGE_JOB_DIR is not set")
	assert.NotContains(t, err.Error(), "LEAGUE_DIR")

	require.NoError(t, cfg.RequireLeagueDir())
}

func TestConfig_RequireBot_PostingHourRange(t *testing.T) {
	vars := fullEnv()
	vars["POSTING_HOUR"] = "24"
	cfg, err := ParseConfig(vars)
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.RequireBot(), "POSTING_HOUR")
}

func TestConfig_RequireBot_HTTPNeedsToken(t *testing.T) {
	vars := fullEnv()
	vars["HTTP_ADDR"] = ":8080"
	cfg, err := ParseConfig(vars)
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.RequireBot(), "HTTP_API_TOKEN")

	vars["HTTP_API_TOKEN"] = "s3cret"
	cfg, err = ParseConfig(vars)
	require.NoError(t, err)
	require.NoError(t, cfg.RequireBot())
}

func TestParseConfig_AttachmentDir(t *testing.T) {
	vars := fullEnv()
	vars["ATTACHMENT_DIR"] = "/attachments"
	cfg, err := ParseConfig(vars)
	require.NoError(t, err)
	assert.Equal(t, "/attachments", cfg.AttachmentDir)
}
