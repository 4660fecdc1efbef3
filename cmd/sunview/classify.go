package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yejunweb/3d-solar-threejs/internal/classify"
	"github.com/yejunweb/3d-solar-threejs/internal/logger"
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
)

var (
	classifyFormat  string
	classifyUnit    string
	classifyRestore bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [model]",
	Short: "List the buildings, housing units and label tags of a model",
	Long: `Load a model and print what the classifier recognises: buildings
(names such as 8D) with their labels, and housing units (names such as
8D701) with their world positions and display colours.

Meshes are shown in the analysis tint unless --restore-colors puts the
model's own colours back.

Examples:
  sunview classify towers.glb
  sunview classify --unit 8D701 --restore-colors towers.glb
  sunview classify --format json towers.yaml.gz`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "table", "Output format (table, json)")
	classifyCmd.Flags().StringVar(&classifyUnit, "unit", "", "Only report this housing unit")
	classifyCmd.Flags().BoolVar(&classifyRestore, "restore-colors", false, "Report original material colours instead of the analysis tint")
	rootCmd.AddCommand(classifyCmd)
}

// ClassifyReport is the printed catalog.
type ClassifyReport struct {
	Buildings []BuildingRow  `json:"buildings"`
	Units     []UnitRow      `json:"units"`
	Tags      []classify.Tag `json:"tags"`
	Hidden    int            `json:"hidden"`
	Restored  int            `json:"restored,omitempty"`
}

// BuildingRow is one building.
type BuildingRow struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// UnitRow is one housing unit.
type UnitRow struct {
	Name     string     `json:"name"`
	Position [3]float32 `json:"position"`
	Size     [3]float32 `json:"size,omitempty"`
	Color    string     `json:"color,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(classifyFormat)
	if err != nil {
		return err
	}
	url := cfg.Model.URL
	if len(args) > 0 {
		url = args[0]
	}
	if url == "" {
		return errors.New("no model given: pass a path or URL, or set model.url")
	}

	loader := &scene.FileLoader{
		Client: &http.Client{Timeout: cfg.Model.Timeout},
		Scale:  cfg.Model.Scale,
	}
	root, err := loader.Load(cmd.Context(), url)
	if err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	stats := classify.ApplyPresentation(root)
	cat := classify.Classify(root)
	logger.Debug("classified", zap.String("model", url), zap.Int("buildings", len(cat.Buildings)), zap.Int("units", len(cat.Units)))

	report := ClassifyReport{Tags: cat.Tags(cfg.Model.Scale), Hidden: stats.Hidden}
	if classifyRestore {
		report.Restored = classify.RestoreColors(root)
	}
	for _, b := range cat.Buildings {
		report.Buildings = append(report.Buildings, BuildingRow{Name: b.Name, Label: b.Label})
	}
	units := cat.Units
	if classifyUnit != "" {
		u, ok := cat.Unit(classifyUnit)
		if !ok {
			return fmt.Errorf("unit %q not found in %s", classifyUnit, url)
		}
		units = []classify.HousingUnit{u}
	}
	for _, u := range units {
		report.Units = append(report.Units, unitRow(u))
	}

	w := cmd.OutOrStdout()
	if format == FormatJSON {
		return writeJSON(w, report)
	}

	fmt.Fprintf(w, "%d buildings, %d housing units, %d hidden nodes\n\n", len(report.Buildings), len(report.Units), report.Hidden)
	rows := [][]string{{"BUILDING", "LABEL"}}
	for _, b := range report.Buildings {
		rows = append(rows, []string{b.Name, b.Label})
	}
	if err := table(w, rows); err != nil {
		return err
	}
	fmt.Fprintln(w)

	rows = [][]string{{"UNIT", "POSITION", "SIZE", "COLOR"}}
	for _, u := range report.Units {
		size := "-"
		if u.Size != ([3]float32{}) {
			size = fmt.Sprintf("%.2f x %.2f x %.2f", u.Size[0], u.Size[1], u.Size[2])
		}
		color := u.Color
		if color == "" {
			color = "-"
		}
		rows = append(rows, []string{
			u.Name,
			fmt.Sprintf("(%.2f, %.2f, %.2f)", u.Position[0], u.Position[1], u.Position[2]),
			size,
			color,
		})
	}
	return table(w, rows)
}

func unitRow(u classify.HousingUnit) UnitRow {
	row := UnitRow{Name: u.Name, Position: [3]float32{u.Position.X, u.Position.Y, u.Position.Z}}
	if u.HasBounds {
		s := u.Bounds.Size()
		row.Size = [3]float32{s.X, s.Y, s.Z}
	}
	if u.Node != nil && u.Node.Material != nil {
		row.Color = u.Node.Material.Color.String()
	}
	return row
}
