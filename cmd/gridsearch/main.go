// Command gridsearch reruns the grid angle search on a saved detection
// result and prints the cores row by row.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"tma-mapper/internal/config"
	"tma-mapper/internal/grid"
	"tma-mapper/internal/logging"
	"tma-mapper/internal/project"
)

func main() {
	resultPath := flag.String("result", "", "Path to a .cores.json result from coredetect")
	configPath := flag.String("config", "coredetect.yaml", "Path to YAML configuration")
	startX := flag.Float64("start-x", 0, "Rotation origin X (overrides config)")
	startY := flag.Float64("start-y", 0, "Rotation origin Y (overrides config)")
	rowGap := flag.Float64("row-gap", 0, "Row gap factor in median radii (overrides config)")
	save := flag.Bool("save", false, "Write the new angle and assignment back to the result")
	verbose := flag.Bool("v", false, "Log every evaluated angle")
	flag.Parse()

	if *resultPath == "" {
		fmt.Println("Usage: gridsearch -result slide.cores.json [-start-x 0 -start-y 0] [-row-gap 1.0] [-save]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	res, err := project.Load(*resultPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load result: %v\n", err)
		os.Exit(1)
	}
	if res.Detection == nil {
		fmt.Fprintf(os.Stderr, "Result has no detection\n")
		os.Exit(1)
	}
	fmt.Printf("Loaded %s: %d regions from %s\n", *resultPath, len(res.Detection.Regions), res.GetMaskPath(*resultPath))

	hp := cfg.Hyperparameters()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "start-x":
			hp.StartingX = *startX
		case "start-y":
			hp.StartingY = *startY
		case "row-gap":
			hp.RowGapFactor = *rowGap
		}
	})
	if hp.RowGapFactor <= 0 {
		fmt.Fprintf(os.Stderr, "Row gap factor must be positive, got %g\n", hp.RowGapFactor)
		os.Exit(1)
	}

	search := cfg.SearchParams()
	fmt.Printf("\nSearch parameters:\n")
	fmt.Printf("  Fine: %d..%d step %d\n", search.Fine.Start, search.Fine.End, search.Fine.Step)
	fmt.Printf("  Coarse: %d..%d step %d\n", search.Coarse.Start, search.Coarse.End, search.Coarse.Step)
	fmt.Printf("  Origin: (%.1f, %.1f), row gap %.2f radii\n", hp.StartingX, hp.StartingY, hp.RowGapFactor)

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	if *verbose {
		level, _ = logging.ParseLevel("debug")
	}
	log := logging.NewConsole(level)

	opt, err := grid.NewOptimizer(grid.BinningAssigner{},
		grid.WithHyperparameters(hp),
		grid.WithSearch(search),
		grid.WithOptimizerLogger(log),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid search: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nSearching...\n")
	ctx := context.Background()
	angle, state, err := opt.FindOptimalAngle(ctx, res.Detection.Regions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	assignment, err := opt.Apply(ctx, res.Detection.Regions, angle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Assignment failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nAngle %.1f° after %d evaluations (coarse: %v)\n", angle, state.Evaluated, state.Coarse)
	fmt.Printf("Imaginary cores: %d, tied angles: %v\n\n", state.BestCount, state.BestAngles)

	hp = hp.WithAngle(angle)
	for r := range grid.Rows(assignment) {
		row := grid.OrderRow(assignment, r, hp)
		cells := make([]string, len(row))
		for i, c := range row {
			if c.Imaginary {
				cells[i] = "  --"
			} else {
				cells[i] = fmt.Sprintf("%4d", c.Region.Label)
			}
		}
		fmt.Printf("Row %3d: %s\n", r, strings.Join(cells, " "))
	}

	if *save {
		res.SetAngle(angle, state, assignment)
		if err := res.Save(*resultPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save result: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nSaved %s\n", *resultPath)
	}
}
