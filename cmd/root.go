package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the ffwrap command line.
func Execute(ctx context.Context) error {
	cc := newCommandContext()
	root := newRootCommand(cc)

	err := root.ExecuteContext(ctx)
	if finishErr := cc.finish(); err == nil {
		err = finishErr
	}
	return err
}

func newRootCommand(cc *commandContext) *cobra.Command {
	root := &cobra.Command{
		Use:           "ffwrap",
		Short:         "Inspect, transcode and scan media with ffmpeg",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cc.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cc.opts.Config, "config", "c", "", "Configuration file path")
	flags.StringVar(&cc.opts.FFmpeg, "ffmpeg", cc.opts.FFmpeg, "ffmpeg executable")
	flags.StringVar(&cc.opts.FFprobe, "ffprobe", cc.opts.FFprobe, "ffprobe executable")
	flags.DurationVar(&cc.opts.Timeout, "timeout", cc.opts.Timeout, "Longest ffmpeg may go without reporting progress (0 disables)")
	flags.StringVar(&cc.opts.LogLevel, "log-level", cc.opts.LogLevel, "Global logging level (debug, info, warn, error)")
	flags.StringVar(&cc.opts.LogFormat, "log-format", cc.opts.LogFormat, "Logging format (text, json)")
	flags.BoolVar(&cc.opts.LogJournal, "log-journal", false, "Also log to the systemd journal")
	flags.StringVar(&cc.opts.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	flags.StringVar(&cc.opts.Events, "events", "", "Write JSON events to this file (- for stdout)")

	root.AddCommand(newTranscodeCommand(cc))
	root.AddCommand(newScreenshotCommand(cc))
	root.AddCommand(newBlackDetectCommand(cc))
	root.AddCommand(newProbeCommand(cc))
	root.AddCommand(newPresetsCommand(cc))
	root.AddCommand(newVersionCommand(cc))
	return root
}
