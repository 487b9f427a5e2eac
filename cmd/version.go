package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/ffwrap/internal/version"
)

func newVersionCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ffwrap, ffmpeg and ffprobe versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			rows := [][]string{
				{"ffwrap", info.Version},
				{"commit", info.GitCommit},
				{"built", info.BuildDate},
				{"go", info.GoVersion},
				{"platform", info.Platform},
			}
			for _, bin := range []string{cc.opts.FFmpeg, cc.opts.FFprobe} {
				v, err := version.Tool(cmd.Context(), bin)
				if err != nil {
					v = "unavailable (" + err.Error() + ")"
				}
				rows = append(rows, []string{bin, v})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Component", "Version"}, rows, nil))
			return nil
		},
	}
}
