package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chriscow/cinema-kiosk-go/internal/config"
	"github.com/chriscow/cinema-kiosk-go/pkg/avatar"
)

var assetsPreloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "Download every avatar clip and report progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
			cfg.Assets.Concurrency = n
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		gate := avatar.NewGate()
		report := preloadAssets(ctx, cfg, gate, cmd.OutOrStdout(), logger)
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d of %d assets failed to load", len(report.Failed), report.Total)
		}
		return nil
	},
}

// preloadAssets warms the avatar library and opens gate when done, whether
// or not every asset loaded.
func preloadAssets(ctx context.Context, cfg *config.Config, gate *avatar.Gate, out io.Writer, logger *slog.Logger) avatar.Report {
	preloader := avatar.NewPreloader(avatar.NewHTTPLoader(cfg.PreloadTimeout()), cfg.Assets.Concurrency, logger)

	report := preloader.Preload(ctx, gate, avatar.DefaultLibrary().All(), func(p avatar.Progress) {
		fmt.Fprintf(out, "\rLoading avatar... %d%%", p.Percent())
	})
	fmt.Fprintln(out)

	names := make([]string, 0, len(report.Failed))
	for name := range report.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  failed: %s (%v)\n", name, report.Failed[name])
	}
	return report
}
