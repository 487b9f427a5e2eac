package cmd

import (
	"github.com/spf13/cobra"

	"github.com/smazurov/ffwrap/internal/ffmpeg"
)

func newScreenshotCommand(cc *commandContext) *cobra.Command {
	var (
		seek       string
		frames     int
		resolution string
		preserve   string
	)

	cmd := &cobra.Command{
		Use:   "screenshot INPUT OUTPUT",
		Short: "Extract still frames from a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := ffmpeg.Options{
				ffmpeg.Screenshot: true,
				ffmpeg.VFrames:    frames,
			}
			if seek != "" {
				options[ffmpeg.SeekTime] = seek
			}
			if resolution != "" {
				options[ffmpeg.Resolution] = resolution
			}

			mode, err := ffmpeg.ParseMode(preserve)
			if err != nil {
				return err
			}
			cfg := cc.transcoderConfig()
			cfg.PreserveAspectRatio = mode

			encoded, err := runTranscode(cmd, args[:1], args[1], options, cfg, "Extracting")
			if err != nil {
				return err
			}
			printEncoded(cmd, args[1], encoded)
			return nil
		},
	}

	cmd.Flags().StringVar(&seek, "seek", "", "Position of the first frame (seconds or HH:MM:SS)")
	cmd.Flags().IntVar(&frames, "frames", 1, "Number of frames")
	cmd.Flags().StringVar(&resolution, "resolution", "", "Image size, WIDTHxHEIGHT")
	cmd.Flags().StringVar(&preserve, "preserve-aspect-ratio", "", "Adjust the resolution to the source aspect ratio (width, height, fit)")
	return cmd
}
