package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wordbearer/domain"
	"wordbearer/infrastructure"
	"wordbearer/usecase"
)

func standingsCmd() *cobra.Command {
	var league string

	c := &cobra.Command{
		Use:   "standings",
		Short: "Print the current ladder of one or all leagues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			if err := cfg.RequireLeagueDir(); err != nil {
				return err
			}

			leagues, err := loadLeagues(cfg, log, nopSender{})
			if err != nil {
				return err
			}
			names := leagues.Names()
			if league != "" {
				names = []string{league}
			}

			out := cmd.OutOrStdout()
			for i, name := range names {
				m, ok := leagues.Get(name)
				if !ok {
					return fmt.Errorf("%w: %q", domain.ErrUnknownLeague, name)
				}
				players, err := m.Standings(cmd.Context())
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, usecase.StandingsMessage(name, players, time.Now().UTC()))
			}
			return nil
		},
	}

	c.Flags().StringVarP(&league, "league", "l", "", "League name (all leagues if omitted)")
	return c
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, league files and pending message jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			if err := cfg.RequireDirs(); err != nil {
				return err
			}

			configs, err := infrastructure.LoadLeagueConfigs(cfg.LeagueDir)
			if err != nil {
				return err
			}
			store, err := infrastructure.NewDirJobStore(cfg.JobDir, cfg.FinishedJobDir, log)
			if err != nil {
				return err
			}
			jobs, err := store.LoadJobs()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d leagues, %d pending message jobs\n", len(configs), len(jobs))
			return nil
		},
	}
}

func scheduleCmd() *cobra.Command {
	var (
		id      string
		channel string
		content string
		at      string
		files   []string
		queue   bool
	)

	c := &cobra.Command{
		Use:   "schedule",
		Short: "Queue a message to be sent to a channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			channelID, err := strconv.ParseUint(strings.TrimSpace(channel), 10, 64)
			if err != nil {
				return fmt.Errorf("%w: channel: %v", domain.ErrInvalidJob, err)
			}
			job := domain.MessageJob{
				ID:        id,
				ChannelID: domain.ID(channelID),
				Content:   content,
				Files:     files,
			}
			if at != "" {
				ts, err := parseWhen(at)
				if err != nil {
					return err
				}
				job.Timestamp = ts
			}

			if queue {
				return publishJob(cmd, cfg, job, log)
			}

			if err := cfg.RequireDirs(); err != nil {
				return err
			}
			store, err := infrastructure.NewDirJobStore(cfg.JobDir, cfg.FinishedJobDir, log)
			if err != nil {
				return err
			}
			jobs, err := usecase.NewMessageJobs(store, nopSender{}, log, usecase.WithAttachmentDir(cfg.AttachmentDir))
			if err != nil {
				return err
			}
			saved, err := jobs.Enqueue(cmd.Context(), job)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s for %s\n", saved.ID, saved.Timestamp.Format(time.RFC3339))
			return nil
		},
	}

	c.Flags().StringVar(&id, "id", "", "Job id (random if omitted)")
	c.Flags().StringVarP(&channel, "channel", "c", "", "Channel ID (required)")
	c.Flags().StringVarP(&content, "content", "m", "", "Message text")
	c.Flags().StringVar(&at, "at", "", "When to send: unix seconds or a date (now if omitted)")
	c.Flags().StringArrayVarP(&files, "file", "f", nil, "File to attach (repeatable)")
	c.Flags().BoolVar(&queue, "queue", false, "Publish to RABBITMQ_URL instead of writing the job directory")

	_ = c.MarkFlagRequired("channel")
	return c
}

// parseWhen accepts unix seconds or any date format league files accept.
func parseWhen(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := domain.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: at: %v", domain.ErrInvalidJob, err)
	}
	return ts.UTC(), nil
}

func publishJob(cmd *cobra.Command, cfg infrastructure.Config, job domain.MessageJob, log logrus.FieldLogger) error {
	if cfg.RabbitMQURL == "" {
		return errors.New("required configuration RABBITMQ_URL is not set")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Timestamp.IsZero() {
		job.Timestamp = time.Now().UTC()
	}
	if err := job.Validate(); err != nil {
		return err
	}
	job, err := job.ConfineFiles(cfg.AttachmentDir)
	if err != nil {
		return err
	}

	mq, err := infrastructure.NewRabbitMQ(cmd.Context(), cfg.RabbitMQURL, cfg.RabbitMQName, log)
	if err != nil {
		return err
	}
	defer func() { _ = mq.Close() }()

	if err := mq.PublishJob(cmd.Context(), job); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %s for %s\n", job.ID, job.Timestamp.Format(time.RFC3339))
	return nil
}
