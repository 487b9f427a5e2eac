package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smazurov/ffwrap/internal/blackdetect"
)

type blackDetectReport struct {
	Input     string                 `json:"input"`
	Valid     bool                   `json:"valid"`
	Intervals []blackdetect.Interval `json:"intervals"`
	Error     string                 `json:"error,omitempty"`
}

func newBlackDetectCommand(cc *commandContext) *cobra.Command {
	var (
		minDuration float64
		threshold   float64
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "blackdetect INPUT",
		Short: "List the black intervals of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := blackdetect.New(args[0], blackdetect.Config{
				Binary:         cc.opts.FFprobe,
				MinDuration:    minDuration,
				PixelThreshold: threshold,
				Bus:            cc.bus,
			})

			intervals, err := d.Run(cmd.Context())
			var detectErr *blackdetect.DetectError
			if err != nil && !errors.As(err, &detectErr) {
				return err
			}

			if jsonOut {
				report := blackDetectReport{Input: args[0], Valid: d.Valid(), Intervals: intervals}
				if detectErr != nil {
					report.Error = detectErr.Stderr
				}
				if werr := writeJSON(cmd, report); werr != nil {
					return werr
				}
				return err
			}

			rows := make([][]string, 0, len(intervals))
			for i, iv := range intervals {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					formatSeconds(iv.Start),
					formatSeconds(iv.End),
					formatSeconds(iv.Duration()),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No black intervals found")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Start", "End", "Duration"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
				))
			}
			return err
		},
	}

	cmd.Flags().Float64Var(&minDuration, "duration", 0, "Minimum black interval in seconds (blackdetect d=)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Pixel darkness threshold (blackdetect pix_th=)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a table")
	return cmd
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
