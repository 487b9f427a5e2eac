package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/ffwrap/internal/ffmpeg"
)

func newPresetsCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List configured presets and the options they compile to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			presets, err := cc.loadPresets()
			if err != nil {
				return err
			}
			if len(presets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No presets configured")
				return nil
			}

			rows := make([][]string, 0, len(presets))
			for _, name := range presets.Names() {
				opts, _ := presets.Preset(name)
				rows = append(rows, []string{name, ffmpeg.Compile(opts, nil)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Preset", "Options"}, rows, nil))
			return nil
		},
	}
}
