package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/yejunweb/3d-solar-threejs/internal/solar"
)

var termsFormat string

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List the 24 solar terms and when they begin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := parseFormat(termsFormat)
		if err != nil {
			return err
		}
		loc := cfg.Location()
		year := cfg.Sampling.Year
		if year == 0 {
			year = time.Now().In(loc).Year()
		}

		type termRow struct {
			Name    string `json:"name"`
			Chinese string `json:"chinese"`
			Begins  string `json:"begins"`
		}
		var rows []termRow
		for _, t := range solar.Terms() {
			rows = append(rows, termRow{
				Name:    t.String(),
				Chinese: t.Chinese(),
				Begins:  t.Instant(year).In(loc).Format("2006-01-02 15:04 MST"),
			})
		}

		if format == FormatJSON {
			return writeJSON(cmd.OutOrStdout(), rows)
		}
		out := [][]string{{"TERM", "NAME", "BEGINS"}}
		for _, r := range rows {
			out = append(out, []string{r.Name, r.Chinese, r.Begins})
		}
		return table(cmd.OutOrStdout(), out)
	},
}

func init() {
	termsCmd.Flags().StringVar(&termsFormat, "format", "table", "Output format (table, json)")
	rootCmd.AddCommand(termsCmd)
}
