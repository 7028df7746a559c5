package infrastructure

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	JobDir         string `env:"MESSAGE_JOB_DIR"`
	FinishedJobDir string `env:"FINISHED_MESSAGE_JOB_DIR"`
	LeagueDir      string `env:"LEAGUE_DIR"`
	BotToken       string `env:"BOT_TOKEN"`
	LogFile        string `env:"LOG_FILE"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	GuildID        uint64 `env:"GUILD_ID"`

	JobInterval time.Duration `env:"JOB_INTERVAL" envDefault:"30s"`
	PostingHour int           `env:"POSTING_HOUR" envDefault:"16"`
	WatchJobDir bool          `env:"WATCH_JOB_DIR" envDefault:"true"`

	HTTPAddr     string `env:"HTTP_ADDR"`
	HTTPToken    string `env:"HTTP_API_TOKEN"`
	RabbitMQURL  string `env:"RABBITMQ_URL"`
	ResultsDSN   string `env:"RESULTS_DB_DSN"`
	RabbitMQName string `env:"RABBITMQ_QUEUE" envDefault:"message_jobs"`

	// AttachmentDir is the only place queued jobs may attach files from.
	AttachmentDir string `env:"ATTACHMENT_DIR"`
}

// LoadConfig reads .env if present and then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return env.ParseAs[Config]()
}

// ParseConfig reads configuration from the given variables only.
func ParseConfig(vars map[string]string) (Config, error) {
	return env.ParseAsWithOptions[Config](env.Options{Environment: vars})
}

func (c Config) ResultsDir() string  { return filepath.Join(c.LeagueDir, "results") }
func (c Config) MessagesDir() string { return filepath.Join(c.LeagueDir, "messages") }

// RequireDirs checks the settings every command needs.
func (c Config) RequireDirs() error {
	return requireAll(map[string]string{
		"MESSAGE_JOB_DIR":          c.JobDir,
		"FINISHED_MESSAGE_JOB_DIR": c.FinishedJobDir,
		"LEAGUE_DIR":               c.LeagueDir,
	})
}

// RequireBot checks the settings needed to connect to Discord.
func (c Config) RequireBot() error {
	if err := c.RequireDirs(); err != nil {
		return err
	}
	if err := requireAll(map[string]string{
		"BOT_TOKEN": c.BotToken,
		"LOG_FILE":  c.LogFile,
	}); err != nil {
		return err
	}
	if c.HTTPAddr != "" && strings.TrimSpace(c.HTTPToken) == "" {
		return errors.New("required configuration HTTP_API_TOKEN is not set (HTTP_ADDR is set)")
	}
	if c.JobInterval <= 0 {
		return fmt.Errorf("JOB_INTERVAL must be positive, got %s", c.JobInterval)
	}
	if c.PostingHour < 0 || c.PostingHour > 23 {
		return fmt.Errorf("POSTING_HOUR must be between 0 and 23, got %d", c.PostingHour)
	}
	return nil
}

func requireAll(values map[string]string) error {
	var errs []error
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if strings.TrimSpace(values[key]) == "" {
			errs = append(errs, fmt.Errorf("required configuration %s is not set", key))
		}
	}
	return errors.Join(errs...)
}

func (c Config) RequireLeagueDir() error {
	return requireAll(map[string]string{"LEAGUE_DIR": c.LeagueDir})
}
