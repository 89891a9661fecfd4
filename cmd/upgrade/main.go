package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"upgrade/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Bulk-suppress type checker errors",
	Long: `upgrade inserts suppression annotations at the locations reported by a
type checker so that pre-existing errors can be silenced in one sweep.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorMode(cmd); err != nil {
			return err
		}
		if err := setupTracing(cmd); err != nil {
			return err
		}
		return setupProfiling(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "ring", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "heartbeat interval for hang detection (0 disables)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	rootCmd.AddCommand(fixmeCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// main loads .env, runs the root command, and exits with status 1 on any
// error after reporting it as "upgrade: <stage>: <error>".
func main() {
	_ = godotenv.Load() //nolint:errcheck // a missing .env is fine

	rootCmd.Version = version.Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	stopProfiling()
	closeTracing(err != nil)
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func reportError(w *os.File, err error) {
	msg := err.Error()
	if errors.Is(err, context.Canceled) {
		msg = "interrupted"
	}
	fmt.Fprintf(w, "%s %s\n", errorColor.Sprint("upgrade:"), msg)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
