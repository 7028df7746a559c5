package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wordbearer/domain"
	"wordbearer/infrastructure"
	"wordbearer/usecase"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "wordbearer",
		Short:        "Discord bot for ladder leagues and scheduled messages",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context())
		},
	}
	cmd.AddCommand(runCmd(), standingsCmd(), validateCmd(), scheduleCmd())
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve until interrupted (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context())
		},
	}
}

// openResults picks the MySQL store when a DSN is configured and the CSV
// files under the league directory otherwise.
func openResults(cfg infrastructure.Config, log logrus.FieldLogger) (usecase.ResultStore, error) {
	if cfg.ResultsDSN != "" {
		log.Info("storing results in MySQL")
		return infrastructure.NewMySQLResultStore(cfg.ResultsDSN)
	}
	return infrastructure.NewCSVResultStore(cfg.ResultsDir())
}

// loadLeagues builds the league registry without a Discord connection.
func loadLeagues(cfg infrastructure.Config, log logrus.FieldLogger, sender usecase.Sender) (*usecase.Leagues, error) {
	configs, err := infrastructure.LoadLeagueConfigs(cfg.LeagueDir)
	if err != nil {
		return nil, fmt.Errorf("load leagues: %w", err)
	}
	results, err := openResults(cfg, log)
	if err != nil {
		return nil, err
	}
	record, err := infrastructure.NewFilePostRecord(cfg.MessagesDir())
	if err != nil {
		return nil, err
	}
	return usecase.NewLeagues(configs, usecase.ManagerDeps{
		Results:     results,
		Record:      record,
		Sender:      sender,
		PostingHour: cfg.PostingHour,
		Log:         log,
	}), nil
}

// nopSender stands in for Discord in commands that never post.
type nopSender struct{}

func (nopSender) Send(context.Context, domain.ID, domain.OutgoingMessage) error {
	return fmt.Errorf("%w: not connected to discord", domain.ErrChannelNotFound)
}

func loadConfig() (infrastructure.Config, *logrus.Logger, func() error, error) {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, closeLog, err := infrastructure.NewLogger("", cfg.LogLevel)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, log, closeLog, nil
}
