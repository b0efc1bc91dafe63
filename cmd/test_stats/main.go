package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"github.com/forest-guardian/distwise-lulc/internal/app"
	"github.com/forest-guardian/distwise-lulc/internal/logger"
	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/progress"
	"github.com/forest-guardian/distwise-lulc/internal/properties"
)

func main() {
	// Hardcoded test parameters - modify these to test different scenarios
	year := "2020"
	district := model.District{
		State: "Karnataka",
		Name:  "Bengaluru (bbox)",
		CRS:   model.WGS84,
		Geometry: orb.MultiPolygon{{{
			{77.45, 12.85}, {77.75, 12.85}, {77.75, 13.10}, {77.45, 13.10}, {77.45, 12.85},
		}}},
	}

	fmt.Println("=== Distwise LULC Test Stats ===")
	fmt.Printf("District: %s, %s\n", district.Name, district.State)
	fmt.Printf("BBox: %s\n", district.Bound())
	fmt.Printf("Year: %s\n", year)
	fmt.Println()

	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
		fmt.Println("Falling back to the public Planetary Computer endpoints.")
		fmt.Println()
	}

	godal.RegisterAll()

	cfg := properties.FromEnv()
	l := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Component: "test_stats"}, os.Stderr)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a := app.New(ctx, cfg, &l)
	a.SetOutDir(os.TempDir())

	start := time.Now()
	report, err := a.StatsFor(ctx, district, year, progress.NewPrinter(os.Stdout))
	if err != nil {
		log.Fatalf("Failed to compute stats: %v", err)
	}
	fmt.Printf("Stats computed in %s\n\n", time.Since(start).Round(time.Millisecond))

	found := map[string]bool{}
	for _, row := range report.Table.Rows {
		fmt.Printf("%-20s %6.2f%%  %s\n", row.DisplayLabel(), row.Fraction, row.Color)
		found[row.DisplayLabel()] = true
	}
	fmt.Printf("\nTotal: %.4f%%\n", report.Table.Total())

	for _, want := range []string{"Water", "Built area"} {
		if !found[want] {
			log.Fatalf("expected a %q row for the Bengaluru bbox", want)
		}
	}
	fmt.Println("Chart written to", report.Paths.Chart)
}
