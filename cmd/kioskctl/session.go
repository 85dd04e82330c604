package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chriscow/cinema-kiosk-go/internal/config"
	"github.com/chriscow/cinema-kiosk-go/internal/realtime"
	"github.com/chriscow/cinema-kiosk-go/pkg/avatar"
	"github.com/chriscow/cinema-kiosk-go/pkg/convai"
	"github.com/chriscow/cinema-kiosk-go/pkg/kiosk"
	"github.com/chriscow/cinema-kiosk-go/pkg/overlay"
	"github.com/chriscow/cinema-kiosk-go/pkg/session"
	"github.com/chriscow/cinema-kiosk-go/pkg/summary"
	"github.com/chriscow/cinema-kiosk-go/pkg/version"
)

const endTimeout = 5 * time.Second

var sessionRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one voice conversation until the agent hangs up or Ctrl+C",
	RunE: func(cmd *cobra.Command, args []string) error {
		denyMic, _ := cmd.Flags().GetBool("deny-mic")
		skipPreload, _ := cmd.Flags().GetBool("skip-preload")
		htmlOut, _ := cmd.Flags().GetBool("html")
		metrics, _ := cmd.Flags().GetBool("metrics")
		audioOut, _ := cmd.Flags().GetString("audio-out")
		clipLength, _ := cmd.Flags().GetDuration("clip-length")

		logger := setupLogger()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger.Info("Starting kiosk session",
			slog.String("service", "kioskctl"),
			slog.String("version", version.Version),
			slog.String("agent_id", cfg.AgentID),
			slog.Bool("deny_mic", denyMic))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		opts := runOptions{
			denyMic:     denyMic,
			skipPreload: skipPreload,
			html:        htmlOut,
			metrics:     metrics,
			audioOut:    audioOut,
			clipLength:  clipLength,
		}
		return runSession(ctx, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	},
}

type runOptions struct {
	denyMic     bool
	skipPreload bool
	html        bool
	metrics     bool
	audioOut    string
	clipLength  time.Duration
}

func runSession(ctx context.Context, cfg *config.Config, opts runOptions, out, progress io.Writer, logger *slog.Logger) error {
	client, err := cfg.Client(convai.WithLogger(logger))
	if err != nil {
		return err
	}

	surface := &consoleSurface{out: out, html: opts.html}

	var k *kiosk.Kiosk
	player := &clipPlayer{
		length: opts.clipLength,
		logger: logger,
		ended:  func(a avatar.Asset) { k.MediaEnded(a) },
	}
	defer player.stop()

	av := avatar.NewController(player, avatar.DefaultLibrary(),
		avatar.WithRetry(cfg.RetryConfig()),
		avatar.WithLogger(logger))
	k = kiosk.New(kiosk.Config{
		Avatar:  av,
		Overlay: overlay.NewController(cfg.OverlayTemplate(), logger),
		Surface: surface,
		Logger:  logger,
	})
	go k.Run(ctx)

	if opts.metrics {
		k.Metrics().Publish("kiosk")
		go func() {
			logger.Info("Starting metrics server on :8080")
			mux := http.NewServeMux()
			mux.Handle("/metrics", expvar.Handler())
			if err := http.ListenAndServe(":8080", mux); err != nil {
				logger.Error("Metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	gate := avatar.NewGate()
	if opts.skipPreload {
		gate.Open()
	} else {
		preloadAssets(ctx, cfg, gate, progress, logger)
	}

	var creds session.CredentialSource = client
	if cfg.SignedURLEndpoint != "" {
		creds = &convai.EndpointCredentials{URL: cfg.SignedURLEndpoint}
	}

	dialOpts := []realtime.Option{realtime.WithLogger(logger)}
	if opts.audioOut != "" {
		f, err := os.Create(opts.audioOut)
		if err != nil {
			return fmt.Errorf("open audio output: %w", err)
		}
		defer f.Close()
		dialOpts = append(dialOpts, realtime.WithAudioSink(f))
	}

	pollerOpts := []summary.Option{summary.WithPolicy(cfg.SummaryPolicy()), summary.WithLogger(logger)}
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logger.Warn("Summary cache disabled", slog.String("error", err.Error()))
		} else {
			defer rdb.Close()
			pollerOpts = append(pollerOpts, summary.WithCache(summary.NewRedisCache(rdb, cfg.CacheTTL)))
		}
	}

	ctrl, err := session.New(session.Deps{
		Microphone:  consoleMic{deny: opts.denyMic},
		Credentials: creds,
		Dialer:      realtime.NewDialer(dialOpts...),
		Dispatcher:  k,
		State:       k,
		Mode:        k,
		Summarizer:  summary.NewPoller(client, cfg.AgentID, pollerOpts...),
		Ready:       gate,
		Surface:     surface,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctrl.Done():
		return nil
	case <-ctx.Done():
	}

	// Interrupted: end the conversation and wait for its summary.
	endCtx, cancelEnd := context.WithTimeout(context.Background(), endTimeout)
	defer cancelEnd()
	if err := ctrl.End(endCtx); err != nil {
		logger.Warn("Session did not end cleanly", slog.String("error", err.Error()))
	}

	select {
	case <-ctrl.Done():
	case <-time.After(cfg.Summary.MaxWait + endTimeout):
		logger.Warn("Gave up waiting for the conversation summary")
	}
	return nil
}
