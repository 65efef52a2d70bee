// Package digestservice wires configuration, storage, the Home Assistant
// client, the generation client, and the HTTP server into the long-running
// HomePulse service.
package digestservice

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/homepulse/homepulse/internal/api"
	"github.com/homepulse/homepulse/internal/collector"
	"github.com/homepulse/homepulse/internal/config"
	"github.com/homepulse/homepulse/internal/digest"
	"github.com/homepulse/homepulse/internal/factory"
	"github.com/homepulse/homepulse/internal/genai"
	"github.com/homepulse/homepulse/internal/hass"
	"github.com/homepulse/homepulse/internal/logger"
	"github.com/homepulse/homepulse/internal/notifier"
	"github.com/homepulse/homepulse/internal/scheduler"
)

// Run starts the HomePulse HTTP server and scheduler and blocks until
// shutdown or error.
func Run() error {
	log := logger.New("homepulse")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	// Root context bound to SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Store adapter unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	haClient := hass.NewClient(cfg.HomeAssistantURL, cfg.SupervisorURL, cfg.SupervisorToken, log)

	generator := genai.NewClient(genai.Config{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		Model:       cfg.GeminiModel,
		Temperature: cfg.GenerationTemperature,
		MaxTokens:   cfg.GenerationMaxTokens,
		Timeout:     time.Duration(cfg.GenerationTimeoutSeconds) * time.Second,
	}, log)

	digests := digest.NewService(st, haClient, generator, log)
	col := collector.New(st, haClient, cfg.HistoryDays, log)
	notify := notifier.New(haClient, st, cfg.NotificationService, log)

	hour, minute, err := cfg.DigestClock()
	if err != nil {
		return err
	}
	sched := scheduler.New(scheduler.Config{
		SnapshotIntervalMinutes: cfg.SnapshotIntervalMinutes,
		DigestHour:              hour,
		DigestMinute:            minute,
		WeeklyDigestEnabled:     cfg.WeeklyDigestEnabled,
	}, col, digests, notify, log)
	if err := sched.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to start scheduler")
		return err
	}
	defer sched.Stop()

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           api.NewServer(cfg, st, haClient, digests, col, sched, notify, log).Router(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      3 * time.Minute, // digest generation is slow
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}
