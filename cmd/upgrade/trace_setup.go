package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"upgrade/internal/trace"
)

var (
	activeTracer    trace.Tracer = trace.Nop
	activeHeartbeat *trace.Heartbeat
)

// setupTracing reads the trace flags, attaches a tracer to the command
// context and starts the heartbeat when requested.
func setupTracing(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return err
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return err
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return err
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return err
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return err
	}
	heartbeat, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return err
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	// --trace alone implies phase-level streaming.
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
		if !flags.Changed("trace-mode") {
			modeStr = "stream"
		}
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
		Heartbeat:  heartbeat,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	activeTracer = tracer
	activeHeartbeat = trace.StartHeartbeat(tracer, heartbeat)
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return nil
}

// closeTracing stops the heartbeat and closes the tracer. After a failed run
// the ring buffer, if any, is dumped to stderr.
func closeTracing(failed bool) {
	activeHeartbeat.Stop()
	if failed {
		if ring, ok := trace.RingOf(activeTracer); ok {
			fmt.Fprintln(os.Stderr, "trace (most recent events):")
			if err := ring.Dump(os.Stderr, trace.FormatText); err != nil {
				fmt.Fprintf(os.Stderr, "trace: dump error: %v\n", err)
			}
		}
	}
	if err := activeTracer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "trace: close error: %v\n", err)
	}
}
