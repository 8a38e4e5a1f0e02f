package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wristworn/actimetry/internal/units"
	"github.com/wristworn/actimetry/internal/version"
)

var (
	input       = flag.String("input", "", "Path to the Actigraph CSV recording (required)")
	output      = flag.String("out", "", "Write the metrics table to this CSV file (default stdout)")
	configPath  = flag.String("config", "", "Optional JSON config file; explicit flags override it")
	window      = flag.Int("window", 5, "Window duration in seconds")
	batch       = flag.Int("batch", 1000, "Windows per processing batch")
	metricsFlag = flag.String("metrics", "angles,enmo", "Comma-separated metrics to compute (en, enmo, angles)")
	highPass    = flag.Float64("high-pass", 0.2, "Denoising cutoff frequency in Hz for orientation angles")
	unit        = flag.String("units", units.G, "Acceleration units in the recording ("+units.GetValidUnitsString()+")")
	progress    = flag.Bool("progress", false, "Report batch progress on stderr")
	daysHTML    = flag.String("days-html", "", "Write an interactive per-day activity chart to this HTML file")
	daysPNG     = flag.String("days-png", "", "Write a static per-day activity chart to this PNG file")
	night       = flag.String("night", "03:00", "Night reference time (HH:MM[:SS]) used to split days")
	measures    = flag.String("measures", "enmo", "Comma-separated chart measures (enmo, angles, nonzero)")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("actimetry %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	if *input == "" {
		log.Fatal("-input is required")
	}

	settings, err := effectiveSettings()
	if err != nil {
		log.Fatalf("resolving configuration: %v", err)
	}

	table, err := runMetrics(settings)
	if err != nil {
		log.Fatalf("computing metrics: %v", err)
	}

	if err := writeTable(table); err != nil {
		log.Fatalf("writing output: %v", err)
	}

	if *daysHTML != "" || *daysPNG != "" {
		if err := runDays(table, settings); err != nil {
			log.Fatalf("rendering day charts: %v", err)
		}
	}
}
