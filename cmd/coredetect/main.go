// Command coredetect finds tissue cores in segmentation masks and, optionally,
// searches for the grid rotation that best explains them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"tma-mapper/internal/config"
	"tma-mapper/internal/grid"
	"tma-mapper/internal/logging"
	"tma-mapper/internal/mask"
	"tma-mapper/internal/overlay"
	"tma-mapper/internal/project"
	"tma-mapper/internal/region"
	"tma-mapper/internal/version"
)

func main() {
	configPath := flag.String("config", "coredetect.yaml", "Path to YAML configuration")
	initConfig := flag.Bool("init-config", false, "Write a default configuration to -config and exit")
	outDir := flag.String("out", "", "Directory for result files (default: next to each mask)")
	optimize := flag.Bool("optimize", false, "Search for the grid rotation after detection")
	minArea := flag.Int("min-area", 0, "Minimum core area in pixels (overrides config)")
	maxArea := flag.Int("max-area", 0, "Maximum core area in pixels (overrides config)")
	delta := flag.Float64("delta", 0, "Distance multiplier in (0,1] (overrides config)")
	prob := flag.Float64("prob", -1, "Probability cut in [0,1] applied before Otsu (overrides config)")
	stageDir := flag.String("stages", "", "Write every pipeline stage image under this directory")
	drawOverlay := flag.Bool("overlay", false, "Write an overlay of the cores next to each result")
	workers := flag.Int("workers", 0, "Masks processed concurrently (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: trace, debug, info, warn, error")
	jsonLog := flag.Bool("json-log", false, "Log JSON lines instead of console output")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("coredetect"))
		return
	}

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
		return
	}

	masks := flag.Args()
	if len(masks) == 0 {
		fmt.Println("Usage: coredetect [-config coredetect.yaml] [-optimize] [-out dir] mask.png [mask2.tif ...]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command line overrides
	if *optimize {
		cfg.Grid.Optimize = true
	}
	if *minArea > 0 {
		cfg.Segmentation.MinArea = *minArea
	}
	if *maxArea > 0 {
		cfg.Segmentation.MaxArea = *maxArea
	}
	if *delta > 0 {
		cfg.Segmentation.DistanceMultiplier = *delta
	}
	if *prob >= 0 {
		cfg.Segmentation.ProbabilityThreshold = *prob
	}
	if *stageDir != "" {
		cfg.Output.SaveStages = true
		cfg.Output.StageDir = *stageDir
	}
	if *drawOverlay {
		cfg.Output.Overlay = true
	}
	if *workers > 0 {
		cfg.Output.Workers = *workers
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *jsonLog {
		cfg.Logging.Console = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	log := logging.New(os.Stderr, level, cfg.Logging.Console)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := make([]*project.Result, len(masks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Output.Workers)
	for i, path := range masks {
		g.Go(func() error {
			res, err := processMask(gctx, path, cfg, *outDir, log)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("detection failed")
		os.Exit(1)
	}

	for i, res := range results {
		printResult(masks[i], res)
	}
}

// processMask runs detection (and the optional angle search) on one mask
// and writes its result file.
func processMask(ctx context.Context, path string, cfg *config.Config, outDir string, log zerolog.Logger) (*project.Result, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	log = log.With().Str("mask", name).Logger()

	m, err := mask.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info().Int("width", m.Width).Int("height", m.Height).Msg("loaded mask")

	opts := []region.Option{region.WithLogger(log)}
	var stages *overlay.StageWriter
	if cfg.Output.SaveStages {
		stages, err = overlay.NewStageWriter(filepath.Join(cfg.Output.StageDir, name), name, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, region.WithStageHook(stages.Hook()))
	}

	det, err := region.NewDetector(cfg.RegionParams(), opts...)
	if err != nil {
		return nil, err
	}
	detection, err := det.DetectMask(m)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("regions", len(detection.Regions)).
		Int("components", detection.Components).
		Float64("otsu", detection.OtsuThreshold).
		Msg("detected regions")

	resultPath := project.DefaultPath(path, outDir)
	res := project.New(detection)
	res.SetMask(resultPath, path)

	if stages != nil {
		if err := stages.Err(); err != nil {
			return nil, err
		}
		for _, f := range stages.Files() {
			res.AddStageImage(resultPath, f)
		}
	}

	var assignment []grid.AssignedCore
	if cfg.Grid.Optimize {
		if len(detection.Regions) == 0 {
			log.Warn().Msg("no regions, skipping angle search")
		} else {
			opt, err := grid.NewOptimizer(grid.BinningAssigner{},
				grid.WithHyperparameters(cfg.Hyperparameters()),
				grid.WithSearch(cfg.SearchParams()),
				grid.WithOptimizerLogger(log),
				grid.WithProgress(func(angle int) {
					log.Trace().Int("angle", angle).Msg("evaluating")
				}),
			)
			if err != nil {
				return nil, err
			}

			angle, state, err := opt.FindOptimalAngle(ctx, detection.Regions)
			if err != nil {
				return nil, err
			}
			assignment, err = opt.Apply(ctx, detection.Regions, angle)
			if err != nil {
				return nil, err
			}
			res.SetAngle(angle, state, assignment)
		}
	}

	if cfg.Output.Overlay {
		overlayPath := strings.TrimSuffix(resultPath, ".cores.json") + ".overlay.png"
		if err := writeOverlay(overlayPath, m, detection, assignment); err != nil {
			return nil, err
		}
		res.SetOverlay(resultPath, overlayPath)
	}

	if err := res.Save(resultPath); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}
	log.Info().Str("path", resultPath).Msg("saved result")
	return res, nil
}

func writeOverlay(path string, m *mask.Mask, detection *region.DetectionResult, assignment []grid.AssignedCore) error {
	base, err := m.ToMat()
	if err != nil {
		return err
	}
	defer base.Close()

	var drawn gocv.Mat
	if assignment != nil {
		drawn, err = overlay.DrawAssignment(base, assignment)
	} else {
		drawn, err = overlay.DrawRegions(base, detection.Regions)
	}
	if err != nil {
		drawn.Close()
		return err
	}
	defer drawn.Close()

	return overlay.Save(path, drawn)
}

func printResult(path string, res *project.Result) {
	det := res.Detection
	fmt.Printf("\n%s: %dx%d, Otsu %.0f, D_max %.2f (threshold %.2f)\n",
		path, det.Width, det.Height, det.OtsuThreshold, det.MaxDistance, det.DistanceThreshold)
	fmt.Printf("  Holes: %d candidates, median area %.1f, %d filled\n",
		det.Holes.Candidates, det.Holes.MedianArea, det.Holes.Filled)
	fmt.Printf("%-6s %10s %10s %8s %8s\n", "Label", "X", "Y", "Radius", "Area")
	for _, r := range det.Regions {
		fmt.Printf("%-6d %10.1f %10.1f %8.2f %8d\n", r.Label, r.X, r.Y, r.Radius, r.Area)
	}
	fmt.Printf("Total: %d regions (area mean %.1f, median %.1f)\n",
		len(det.Regions), det.Areas.Mean, det.Areas.Median)

	if res.Angle != nil {
		fmt.Printf("Grid angle: %.1f° (%d imaginary cores, ties %v)\n",
			*res.Angle, res.Search.BestCount, res.Search.BestAngles)
	}
}
