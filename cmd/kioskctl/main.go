package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chriscow/cinema-kiosk-go/internal/config"
	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
	"github.com/chriscow/cinema-kiosk-go/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "kioskctl",
	Short: "Voice-driven cinema ordering kiosk",
	Long: `kioskctl runs the kiosk core against the hosted conversational agent:
tool dispatch, panel rendering, overlays, the avatar loop and the
post-conversation summary.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo())
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the client tools the agent may call",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION")
		for _, name := range tool.Names {
			fmt.Fprintf(w, "%s\t%s\n", name, name.Description())
		}
		w.Flush()
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Avatar asset commands",
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Conversation session commands",
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Conversation summary commands",
}

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Order confirmation commands",
}

func setupLogger() *slog.Logger {
	logFormat := os.Getenv("KIOSK_LOG_FORMAT")
	logLevel := os.Getenv("KIOSK_LOG_LEVEL")

	var handler slog.Handler
	opts := &slog.HandlerOptions{}

	switch strings.ToLower(logLevel) {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	// Logs go to stderr; stdout carries the kiosk display.
	if logFormat == "console" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(envFile)
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional dotenv file to load")

	assetsPreloadCmd.Flags().Int("concurrency", 0, "Parallel downloads (default from config)")

	sessionRunCmd.Flags().Bool("deny-mic", false, "Simulate a refused microphone permission")
	sessionRunCmd.Flags().Bool("skip-preload", false, "Start without warming avatar assets")
	sessionRunCmd.Flags().Bool("html", false, "Print rendered HTML fragments instead of text")
	sessionRunCmd.Flags().Bool("metrics", false, "Enable metrics server on port 8080")
	sessionRunCmd.Flags().String("audio-out", "", "Write raw agent audio (PCM) to this file")
	sessionRunCmd.Flags().Duration("clip-length", defaultClipLength, "Simulated avatar clip duration")

	summaryFetchCmd.Flags().String("agent", "", "Agent id (default from config)")
	summaryFetchCmd.Flags().Duration("max-wait", 0, "Override the poll deadline")

	confirmSendCmd.Flags().String("phone", "", "Receiver phone number")
	confirmSendCmd.Flags().String("movie", "", "Movie name")
	confirmSendCmd.Flags().String("showtime", "", "Showtime")
	confirmSendCmd.Flags().StringArray("item", nil, "Cart item as name:quantity:price (repeatable)")
	confirmSendCmd.Flags().Bool("dry-run", false, "Print the payload without sending")
	confirmSendCmd.MarkFlagRequired("phone")
	confirmSendCmd.MarkFlagRequired("movie")

	assetsCmd.AddCommand(assetsPreloadCmd)
	sessionCmd.AddCommand(sessionRunCmd)
	summaryCmd.AddCommand(summaryFetchCmd)
	confirmCmd.AddCommand(confirmSendCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(confirmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
