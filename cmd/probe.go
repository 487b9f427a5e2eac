package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smazurov/ffwrap/internal/probe"
)

func newProbeCommand(cc *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe PATH...",
		Short: "Describe media files",
		Long:  `Describes every path. Several paths are combined the way transcode sees them: stream attributes of the first, summed duration.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movie, err := cc.prober().Probe(cmd.Context(), args...)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, movie)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Attribute", "Value"}, movieRows(movie), nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a table")
	return cmd
}

func movieRows(m *probe.Movie) [][]string {
	aspect := "unknown"
	if a, ok := m.CalculatedAspectRatio(); ok {
		aspect = strconv.FormatFloat(a, 'f', 4, 64)
	}
	orientation := "landscape"
	if m.Portrait() {
		orientation = "portrait"
	}

	rows := [][]string{
		{"Valid", strconv.FormatBool(m.Valid())},
		{"Duration", formatSeconds(m.Duration) + "s"},
		{"Size", strconv.FormatInt(m.Size, 10)},
		{"Bitrate", strconv.FormatInt(m.Bitrate, 10)},
		{"Video codec", m.VideoCodec},
		{"Resolution", m.Resolution()},
		{"Frame rate", strconv.FormatFloat(m.FrameRate, 'f', -1, 64)},
		{"Rotation", strconv.Itoa(m.Rotation)},
		{"Orientation", orientation},
		{"Aspect ratio", aspect},
		{"Audio codec", m.AudioCodec},
		{"Audio channels", strconv.Itoa(m.AudioChannels)},
		{"Audio sample rate", strconv.Itoa(m.AudioSampleRate)},
		{"Audio streams", strconv.Itoa(len(m.AudioStreams))},
	}
	for _, p := range m.Paths {
		rows = append(rows, []string{"Path", p})
	}
	if m.Error != "" {
		rows = append(rows, []string{"Error", m.Error})
	}
	return rows
}
