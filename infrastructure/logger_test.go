package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")

	log, closeLog, err := NewLogger(path, "debug")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("league", "spring").Info("standings posted")
	require.NoError(t, closeLog())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "standings posted")
	assert.Contains(t, string(b), "league=spring")
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, _, err := NewLogger("", "loud")
	assert.ErrorContains(t, err, "LOG_LEVEL")
}
