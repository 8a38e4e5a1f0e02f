package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wristworn/actimetry/internal/actigraph"
	"github.com/wristworn/actimetry/internal/config"
	"github.com/wristworn/actimetry/internal/days"
	metricspkg "github.com/wristworn/actimetry/internal/metrics"
	"github.com/wristworn/actimetry/internal/monitoring"
	"github.com/wristworn/actimetry/internal/pipeline"
	"github.com/wristworn/actimetry/internal/units"
)

// settings is the resolved run configuration: config-file values overridden
// by explicitly set flags.
type settings struct {
	windowSize int
	batchSize  int
	metrics    []string
	highPass   float64
	units      string
	night      string
}

// effectiveSettings merges the optional config file with the command line.
// A flag the user set explicitly always wins over the file.
func effectiveSettings() (*settings, error) {
	cfg := &config.RunConfig{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	s := &settings{
		windowSize: cfg.GetWindowSize(),
		batchSize:  cfg.GetBatchSize(),
		metrics:    cfg.GetMetrics(),
		highPass:   cfg.GetHighPassFrequencyAngles(),
		units:      cfg.GetUnits(),
		night:      cfg.GetNight(),
	}

	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "window":
			s.windowSize = *window
		case "batch":
			s.batchSize = *batch
		case "metrics":
			names, err := metricspkg.ParseList(*metricsFlag)
			if err != nil {
				flagErr = err
				return
			}
			s.metrics = names
		case "high-pass":
			s.highPass = *highPass
		case "units":
			s.units = *unit
		case "night":
			s.night = *night
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := metricspkg.ValidateSet(s.metrics); err != nil {
		return nil, err
	}
	if !units.IsValid(s.units) {
		return nil, fmt.Errorf("invalid units %q (valid: %s)", s.units, units.GetValidUnitsString())
	}
	return s, nil
}

// runMetrics drives the streaming pipeline over the input recording.
func runMetrics(s *settings) (*pipeline.Table, error) {
	reader := actigraph.NewReader(*input, actigraph.WithUnits(s.units))

	opts := pipeline.Options{
		WindowSize:              s.windowSize,
		BatchSize:               s.batchSize,
		Metrics:                 s.metrics,
		HighPassFrequencyAngles: s.highPass,
	}
	if *progress {
		opts.Progress = pipeline.NewTerminalProgress(os.Stderr)
	}

	table, err := pipeline.Run(reader, opts)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("run %s: %d windows from %s", table.RunID, len(table.Rows), *input)
	return table, nil
}

// writeTable writes the finished table to -out, or stdout when unset.
func writeTable(table *pipeline.Table) error {
	if *output == "" {
		return table.WriteCSV(os.Stdout)
	}
	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *output, err)
	}
	defer f.Close()
	if err := table.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

// runDays splits the table into days and renders the requested charts.
func runDays(table *pipeline.Table, s *settings) error {
	nightRef, err := parseNight(s.night)
	if err != nil {
		return err
	}
	measureNames := splitList(*measures)

	daySlices, err := days.ExtractDays(table.Rows, nightRef)
	if err != nil {
		return err
	}
	monitoring.Logf("split %d windows into %d days", len(table.Rows), len(daySlices))

	if *daysHTML != "" {
		f, err := os.Create(*daysHTML)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *daysHTML, err)
		}
		defer f.Close()
		if err := days.RenderHTML(daySlices, measureNames, f); err != nil {
			return err
		}
	}
	if *daysPNG != "" {
		if err := days.RenderPNG(daySlices, measureNames, *daysPNG); err != nil {
			return err
		}
	}
	return nil
}

// parseNight parses a HH:MM or HH:MM:SS reference time.
func parseNight(s string) (days.Night, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return days.Night{}, fmt.Errorf("invalid night time %q, want HH:MM[:SS]", s)
	}
	fields := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return days.Night{}, fmt.Errorf("invalid night time %q: %w", s, err)
		}
		fields[i] = v
	}
	n := days.Night{Hour: fields[0], Minute: fields[1], Second: fields[2]}
	if n.Hour < 0 || n.Hour > 23 || n.Minute < 0 || n.Minute > 59 || n.Second < 0 || n.Second > 59 {
		return days.Night{}, fmt.Errorf("night time %q out of range", s)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
