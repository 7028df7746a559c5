package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wordbearer/domain"
	"wordbearer/infrastructure"
	"wordbearer/interfaces"
	"wordbearer/usecase"
)

const (
	watchDebounce   = 500 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

func runBot(ctx context.Context) error {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireBot(); err != nil {
		return err
	}
	log, closeLog, err := infrastructure.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	// Commands are bound after the registry exists; no interaction arrives
	// before the gateway opens.
	var commands *interfaces.MatchCommands
	discordClient, err := infrastructure.NewDiscord(cfg.BotToken, cfg.GuildID, log,
		bot.NewListenerFunc(func(e *events.ApplicationCommandInteractionCreate) { commands.OnCommand(e) }),
		bot.NewListenerFunc(func(e *events.AutocompleteInteractionCreate) { commands.OnAutocomplete(e) }),
	)
	if err != nil {
		return err
	}

	leagues, err := loadLeagues(cfg, log, discordClient)
	if err != nil {
		return err
	}
	commands = interfaces.NewMatchCommands(leagues, log)
	log.WithField("leagues", leagues.Names()).Info("leagues loaded")

	store, err := infrastructure.NewDirJobStore(cfg.JobDir, cfg.FinishedJobDir, log)
	if err != nil {
		return err
	}
	jobs, err := usecase.NewMessageJobs(store, discordClient, log, usecase.WithAttachmentDir(cfg.AttachmentDir))
	if err != nil {
		return fmt.Errorf("load message jobs: %w", err)
	}

	if err := discordClient.Open(ctx); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		discordClient.Close(closeCtx)
	}()
	if err := discordClient.SyncCommands(ctx, commands.Definitions()); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Channel lookups miss until the guilds are cached.
		select {
		case <-discordClient.Ready():
		case <-gctx.Done():
			return nil
		}
		return usecase.NewScheduler(jobs, leagues, cfg.JobInterval, log).Run(gctx)
	})
	if cfg.WatchJobDir {
		g.Go(func() error {
			return infrastructure.WatchJobDir(gctx, store.Dir(), watchDebounce, log, func() {
				if err := jobs.Reload(); err != nil {
					log.WithError(err).Error("reloading message jobs failed")
				}
			})
		})
	}
	if cfg.HTTPAddr != "" {
		g.Go(func() error {
			return serveHTTP(gctx, cfg, leagues, jobs, log)
		})
	}
	if cfg.RabbitMQURL != "" {
		g.Go(func() error {
			consumeQueue(gctx, cfg, jobs, log)
			return nil
		})
	}

	log.Info("bot running")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("bot stopped")
	return nil
}

func serveHTTP(ctx context.Context, cfg infrastructure.Config, leagues *usecase.Leagues, jobs *usecase.MessageJobs, log *logrus.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(log.WriterLevel(logrus.DebugLevel)), gin.Recovery())
	interfaces.NewHTTPHandler(router, leagues, jobs, cfg.HTTPToken, log)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.HTTPAddr).Info("admin API listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin API: %w", err)
	}
	return nil
}

// consumeQueue feeds queued jobs into the job directory. Broker outages are
// logged and retried; they never stop the bot.
func consumeQueue(ctx context.Context, cfg infrastructure.Config, jobs *usecase.MessageJobs, log logrus.FieldLogger) {
	infrastructure.ConsumeJobsUntilDone(ctx, cfg.RabbitMQURL, cfg.RabbitMQName, log,
		func(ctx context.Context, job domain.MessageJob) error {
			_, err := jobs.Enqueue(ctx, job)
			return err
		})
}
