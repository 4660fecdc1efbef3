package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	sampleFormat string
	sampleEvery  int
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the sun samples for the configured day",
	Long: `Print the sun's altitude, azimuth and scene direction for every sample of
the configured day. Azimuth is measured from south, positive toward west.

Examples:
  sunview sample --term summer-solstice --every 60
  sunview sample --date 2024-12-21 --format json`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().StringVar(&sampleFormat, "format", "table", "Output format (table, json)")
	sampleCmd.Flags().IntVar(&sampleEvery, "every", 1, "Print every n-th sample")
	rootCmd.AddCommand(sampleCmd)
}

// SampleRow is one printed sample.
type SampleRow struct {
	Time         string     `json:"time"`
	Altitude     float64    `json:"altitudeDeg"`
	Azimuth      float64    `json:"azimuthDeg"`
	Direction    [3]float32 `json:"direction"`
	AboveHorizon bool       `json:"aboveHorizon"`
}

func runSample(cmd *cobra.Command, _ []string) error {
	format, err := parseFormat(sampleFormat)
	if err != nil {
		return err
	}
	if sampleEvery < 1 {
		return fmt.Errorf("--every must be at least 1, got %d", sampleEvery)
	}
	sampler, day, err := newSampler()
	if err != nil {
		return err
	}

	samples := sampler.Samples(day)
	rows := make([]SampleRow, 0, len(samples)/sampleEvery+1)
	for i := 0; i < len(samples); i += sampleEvery {
		s := samples[i]
		rows = append(rows, SampleRow{
			Time:         s.Time.Format("15:04"),
			Altitude:     s.Altitude * 180 / math.Pi,
			Azimuth:      s.Azimuth * 180 / math.Pi,
			Direction:    [3]float32{s.Direction.X, s.Direction.Y, s.Direction.Z},
			AboveHorizon: s.Altitude > 0,
		})
	}

	if format == FormatJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s, %d samples\n\n", day.Format("2006-01-02 MST"), len(samples))
	out := [][]string{{"TIME", "ALTITUDE", "AZIMUTH", "DIRECTION"}}
	for _, r := range rows {
		out = append(out, []string{
			r.Time,
			strconv.FormatFloat(r.Altitude, 'f', 2, 64),
			strconv.FormatFloat(r.Azimuth, 'f', 2, 64),
			fmt.Sprintf("(%.3f, %.3f, %.3f)", r.Direction[0], r.Direction[1], r.Direction[2]),
		})
	}
	return table(cmd.OutOrStdout(), out)
}
