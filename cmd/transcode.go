package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/ffwrap/internal/ffmpeg"
	"github.com/smazurov/ffwrap/internal/logging"
	"github.com/smazurov/ffwrap/internal/probe"
	"github.com/smazurov/ffwrap/internal/transcoder"
)

type transcodeFlags struct {
	preset     string
	sets       []string
	raw        string
	rawPrefix  string
	preserve   string
	noValidate bool
	watermark  watermarkFlags
}

func newTranscodeCommand(cc *commandContext) *cobra.Command {
	var f transcodeFlags

	cmd := &cobra.Command{
		Use:   "transcode INPUT... OUTPUT",
		Short: "Transcode one or more inputs into a single output",
		Long: `Transcodes the inputs into OUTPUT. Several inputs are normalized to a common ` +
			`frame rate, canvas and audio layout first and then concatenated.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, output := args[:len(args)-1], args[len(args)-1]

			options, err := transcodeOptions(cc, &f)
			if err != nil {
				return err
			}
			mode, err := ffmpeg.ParseMode(f.preserve)
			if err != nil {
				return err
			}

			cfg := cc.transcoderConfig()
			cfg.Validate = !f.noValidate
			cfg.PreserveAspectRatio = mode
			cfg.RawPrefix = f.rawPrefix

			encoded, err := runTranscode(cmd, inputs, output, options, cfg, "Transcoding")
			if err != nil {
				return err
			}
			printEncoded(cmd, output, encoded)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.preset, "preset", "p", "", "Preset from the [presets] tables of the config file")
	flags.StringArrayVarP(&f.sets, "set", "s", nil, "Encoding option as key=value (repeatable)")
	flags.StringVar(&f.raw, "raw", "", "Raw ffmpeg options, used instead of presets and --set")
	flags.StringVar(&f.rawPrefix, "prefix", "", "Raw ffmpeg options placed before everything else")
	flags.StringVar(&f.preserve, "preserve-aspect-ratio", "", "Adjust the resolution to the source aspect ratio (width, height, fit)")
	flags.BoolVar(&f.noValidate, "no-validate", false, "Skip probing the output after encoding")
	flags.StringVar(&f.watermark.image, "watermark", "", "Overlay image")
	flags.StringVar(&f.watermark.position, "watermark-position", string(ffmpeg.RightBottom), "Watermark corner (LT, RT, LB, RB)")
	flags.IntVar(&f.watermark.paddingX, "watermark-padding-x", 10, "Horizontal watermark padding in pixels")
	flags.IntVar(&f.watermark.paddingY, "watermark-padding-y", 10, "Vertical watermark padding in pixels")
	return cmd
}

// transcodeOptions returns a raw option string or the preset merged with
// --set and watermark flags.
func transcodeOptions(cc *commandContext, f *transcodeFlags) (any, error) {
	if f.raw != "" {
		return f.raw, nil
	}

	options := ffmpeg.Options{}
	if f.preset != "" {
		presets, err := cc.loadPresets()
		if err != nil {
			return nil, err
		}
		if options, err = presets.Preset(f.preset); err != nil {
			return nil, err
		}
	}
	if err := applySets(options, f.sets); err != nil {
		return nil, err
	}
	if err := f.watermark.apply(options); err != nil {
		return nil, err
	}
	return options, nil
}

func runTranscode(cmd *cobra.Command, inputs []string, output string, options any, cfg transcoder.Config, description string) (*probe.Movie, error) {
	logger := logging.GetLogger("cli")

	movie, err := cfg.Prober.Probe(cmd.Context(), inputs...)
	if err != nil {
		return nil, err
	}
	if !movie.Valid() {
		logger.Warn("Source could not be fully read by ffprobe", "inputs", inputs, "error", movie.Error)
	}

	tc, err := transcoder.New(movie, output, options, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Prepared transcode", "command", tc.Command())

	progress, done := newProgress(cmd.ErrOrStderr(), description)
	defer done()
	return tc.Run(cmd.Context(), progress)
}

func printEncoded(cmd *cobra.Command, output string, encoded *probe.Movie) {
	if encoded == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %.2fs, %s)\n",
		output, encoded.Resolution(), encoded.Duration, encoded.VideoCodec)
}
