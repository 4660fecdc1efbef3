package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yejunweb/3d-solar-threejs/internal/analysis"
	"github.com/yejunweb/3d-solar-threejs/internal/logger"
	"github.com/yejunweb/3d-solar-threejs/internal/scene"
	"github.com/yejunweb/3d-solar-threejs/internal/solar"
	"github.com/yejunweb/3d-solar-threejs/internal/surface"
	"github.com/yejunweb/3d-solar-threejs/internal/worker"
)

var (
	analyzeFormat    string
	analyzeFanPath   string
	analyzeFanImage  string
	analyzeImageSize int
	analyzeEventsOut bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [model]",
	Short: "Run the sunlight and field-of-view analyses on a model",
	Long: `Load a model, classify its housing units and run both analyses for the
configured day. The model argument overrides model.url.

Examples:
  sunview analyze towers.glb
  sunview analyze --term winter-solstice --year 2024 towers.glb.zst
  sunview analyze --format json --fan-geojson fans.json towers.yaml
  sunview analyze --fan-png fans.png --png-size 2048 towers.glb
  sunview analyze --events https://example.com/towers.glb`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "Output format (table, json)")
	analyzeCmd.Flags().StringVar(&analyzeFanPath, "fan-geojson", "", "Write every unit's view fan to this GeoJSON file")
	analyzeCmd.Flags().StringVar(&analyzeFanImage, "fan-png", "", "Render every unit's view fan as a plan-view PNG")
	analyzeCmd.Flags().IntVar(&analyzeImageSize, "png-size", 1024, "Width and height of the --fan-png image")
	analyzeCmd.Flags().BoolVar(&analyzeEventsOut, "events", false, "Stream host events as NDJSON instead of printing a report")
	rootCmd.AddCommand(analyzeCmd)
}

// UnitReport is one housing unit's results. A metric is nil when its
// analyzer skipped the unit.
type UnitReport struct {
	Unit            string   `json:"unit"`
	SunlightSamples *int     `json:"sunlightSamples,omitempty"`
	SunlightMinutes *float64 `json:"sunlightMinutes,omitempty"`
	ViewArea        *float64 `json:"viewArea,omitempty"`
}

// AnalyzeReport is the printed result of one analysis.
type AnalyzeReport struct {
	Model     string       `json:"model"`
	Day       string       `json:"day"`
	Samples   int          `json:"samples"`
	Buildings int          `json:"buildings"`
	Units     []UnitReport `json:"units"`
	// Fans holds the view fan outlines when view.keep_fans is set.
	Fans *geojson.FeatureCollection `json:"fans,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(analyzeFormat)
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampler, day, err := newSampler()
	if err != nil {
		return err
	}
	surf, err := surface.New(cfg.SurfaceConfig(), logger.Named("surface"))
	if err != nil {
		return err
	}

	h, err := worker.Start(ctx, worker.Options{
		Loader: &scene.FileLoader{
			Client: &http.Client{Timeout: cfg.Model.Timeout},
			Scale:  cfg.Model.Scale,
		},
		Sampler:    sampler,
		Date:       day,
		View:       cfg.ViewConfig(),
		KeepFans:   cfg.View.KeepFans || analyzeFanPath != "" || analyzeFanImage != "",
		ModelScale: cfg.Model.Scale,
		Log:        logger.Log,
	})
	if err != nil {
		return err
	}
	for _, req := range []worker.Request{worker.Init(surf), worker.LoadModel(url), worker.Calculate()} {
		if err := h.Post(req); err != nil {
			h.Terminate()
			return fmt.Errorf("post %s: %w", req.Command, err)
		}
	}

	res, err := drain(h, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if analyzeFanPath != "" {
		if err := writeFans(analyzeFanPath, res.fans); err != nil {
			return err
		}
		logger.Info("view fans written", zap.String("path", analyzeFanPath), zap.Int("fans", len(res.fans)))
	}
	if analyzeFanImage != "" {
		if err := writeFanImage(analyzeFanImage, res.fans, analyzeImageSize); err != nil {
			return err
		}
		logger.Info("view fan image written", zap.String("path", analyzeFanImage))
	}
	if analyzeEventsOut {
		return nil
	}

	report := buildReport(url, day, sampler.Config(), res)
	if cfg.View.KeepFans {
		report.Fans = analysis.FansGeoJSON(res.fans)
	}
	if format == FormatJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return printReport(cmd.OutOrStdout(), report)
}

// newSampler builds the sampler and resolves the analysis day.
func newSampler() (*solar.Sampler, time.Time, error) {
	sc, err := cfg.SolarConfig()
	if err != nil {
		return nil, time.Time{}, err
	}
	sampler, err := solar.NewSampler(sc)
	if err != nil {
		return nil, time.Time{}, err
	}
	date, err := cfg.Date()
	if err != nil {
		return nil, time.Time{}, err
	}
	if !date.IsZero() {
		return sampler, sampler.Date(date), nil
	}
	term, err := cfg.Term()
	if err != nil {
		return nil, time.Time{}, err
	}
	year := cfg.Sampling.Year
	if year == 0 {
		year = time.Now().In(sc.Location).Year()
	}
	return sampler, sampler.Day(term, year), nil
}

type results struct {
	buildings int
	sunlight  analysis.SunlightResult
	view      analysis.ViewFieldResult
	fans      []analysis.Fan
}

// drain consumes events until the host exits. With --events every event is
// also written to w as one JSON line.
func drain(h *worker.Host, w io.Writer) (results, error) {
	var res results
	var failure error
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for e := range h.Events() {
		if analyzeEventsOut && failure == nil {
			if err := enc.Encode(e); err != nil {
				h.Terminate()
				failure = err
			}
		}
		switch e.Type {
		case worker.EventReady:
			logger.Debug("host ready")
		case worker.EventModelLoaded:
			res.buildings = e.Buildings
			logger.Info("model loaded", zap.Int("buildings", e.Buildings), zap.Int("units", e.Units))
		case worker.EventProcessing:
			logger.Debug("processing", zap.String("phase", string(e.Phase)), zap.String("percent", e.Percent))
		case worker.EventSunlightCalcFinish:
			res.sunlight = e.Sunlight
		case worker.EventFieldViewCalcFinish:
			res.view = e.FieldView
			res.fans = e.Fans
		case worker.EventError:
			// The host keeps running after a refused request; nothing else
			// will arrive for this run.
			if failure == nil {
				failure = &worker.Error{Kind: e.Kind, Err: errors.New(e.Error)}
			}
			h.Terminate()
		}
	}
	if failure != nil {
		return res, failure
	}
	return res, h.Wait()
}

func writeFans(path string, fans []analysis.Fan) error {
	data, err := analysis.FansGeoJSON(fans).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding fans: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func writeFanImage(path string, fans []analysis.Fan, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, analysis.RenderFans(fans, size)); err != nil {
		f.Close()
		return fmt.Errorf("encoding fan image: %w", err)
	}
	return f.Close()
}

func buildReport(model string, day time.Time, sc solar.Config, res results) AnalyzeReport {
	names := make(map[string]struct{}, len(res.sunlight))
	for n := range res.sunlight {
		names[n] = struct{}{}
	}
	for n := range res.view {
		names[n] = struct{}{}
	}

	r := AnalyzeReport{
		Model:     model,
		Day:       day.Format("2006-01-02 MST"),
		Samples:   sc.Count(),
		Buildings: res.buildings,
		Units:     make([]UnitReport, 0, len(names)),
	}
	for n := range names {
		u := UnitReport{Unit: n}
		if count, ok := res.sunlight[n]; ok {
			minutes := float64(count) * sc.Step.Minutes()
			u.SunlightSamples = &count
			u.SunlightMinutes = &minutes
		}
		if area, ok := res.view[n]; ok {
			u.ViewArea = &area
		}
		r.Units = append(r.Units, u)
	}
	sort.Slice(r.Units, func(i, j int) bool { return r.Units[i].Unit < r.Units[j].Unit })
	return r
}

func printReport(w io.Writer, r AnalyzeReport) error {
	fmt.Fprintf(w, "Model:     %s\n", r.Model)
	fmt.Fprintf(w, "Day:       %s (%d samples)\n", r.Day, r.Samples)
	fmt.Fprintf(w, "Buildings: %d\n\n", r.Buildings)

	rows := [][]string{{"UNIT", "SUN SAMPLES", "SUN MINUTES", "VIEW AREA"}}
	for _, u := range r.Units {
		samples, minutes, area := "-", "-", "-"
		if u.SunlightSamples != nil {
			samples = strconv.Itoa(*u.SunlightSamples)
			minutes = strconv.FormatFloat(*u.SunlightMinutes, 'f', 0, 64)
		}
		if u.ViewArea != nil {
			area = strconv.FormatFloat(*u.ViewArea, 'f', 2, 64)
		}
		rows = append(rows, []string{u.Unit, samples, minutes, area})
	}
	return table(w, rows)
}
