package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chriscow/cinema-kiosk-go/pkg/convai"
	"github.com/chriscow/cinema-kiosk-go/pkg/summary"
)

var summaryFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Wait for the agent's latest conversation to finish and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		agentID, _ := cmd.Flags().GetString("agent")
		if agentID == "" {
			agentID = cfg.AgentID
		}
		policy := cfg.SummaryPolicy()
		if d, _ := cmd.Flags().GetDuration("max-wait"); d > 0 {
			policy.MaxWait = d
		}

		client, err := cfg.Client(convai.WithLogger(logger))
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		opts := []summary.Option{summary.WithPolicy(policy), summary.WithLogger(logger)}
		if cfg.Redis.Enabled() {
			rdb, err := cfg.Redis.New(ctx)
			if err != nil {
				logger.Warn("Summary cache disabled", slog.String("error", err.Error()))
			} else {
				defer rdb.Close()
				opts = append(opts, summary.WithCache(summary.NewRedisCache(rdb, cfg.CacheTTL)))
			}
		}

		logger.Info("Polling for conversation summary",
			slog.String("agent_id", agentID),
			slog.Duration("max_wait", policy.MaxWait))

		res, err := summary.NewPoller(client, agentID, opts...).Poll(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), summary.Describe(res, err))
		return err
	},
}
