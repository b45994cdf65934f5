package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/df07/go-shape-kernel/pkg/core"
	"github.com/df07/go-shape-kernel/pkg/loaders"
	"github.com/df07/go-shape-kernel/pkg/stress"
)

// options holds the parsed command line
type options struct {
	shape    string
	seeds    int
	rays     int
	workers  int
	seed     int64
	mesh     string
	scene    string
	maxRate  float64
	verbose  bool
	showHelp bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code: 0 when every
// case stays within the failure rate, 1 when one exceeds it, 2 on bad input
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.showHelp {
		printHelp(stdout)
		return 0
	}

	cases, err := buildCases(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	var logger core.Logger = core.NopLogger{}
	if opts.verbose {
		logger = log.New(stderr, "", log.Ltime)
	}
	cfg := stress.Config{
		Seeds:      opts.seeds,
		RaysPerHit: opts.rays,
		NumWorkers: opts.workers,
		FirstSeed:  opts.seed,
		Logger:     logger,
	}

	results, err := stress.RunAll(ctx, cases, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if !report(stdout, results, opts.maxRate) {
		return 1
	}
	return 0
}

// parseFlags parses the command line into options
func parseFlags(args []string, stderr io.Writer) (options, error) {
	defaults := stress.DefaultConfig()
	fs := flag.NewFlagSet("shapestress", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.shape, "shape", "all", "Case to run: a built-in shape name, a mesh or scene case, or 'all'")
	fs.IntVar(&opts.seeds, "seeds", defaults.Seeds, "Random shape instances per case")
	fs.IntVar(&opts.rays, "rays", defaults.RaysPerHit, "Spawned rays per hit point")
	fs.IntVar(&opts.workers, "workers", defaults.NumWorkers, "Parallel workers per case")
	fs.Int64Var(&opts.seed, "seed", defaults.FirstSeed, "Seed of the first instance")
	fs.StringVar(&opts.mesh, "mesh", "", "Also stress the triangles of a PLY, glTF or GLB mesh")
	fs.StringVar(&opts.scene, "scene", "", "Also stress every shape of a PBRT scene file")
	fs.Float64Var(&opts.maxRate, "max-rate", stress.DefaultMaxFailureRate, "Largest acceptable self-intersection rate")
	fs.BoolVar(&opts.verbose, "v", false, "Log each case as it finishes")
	fs.BoolVar(&opts.showHelp, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(stderr, err)
		return options{}, err
	}
	return opts, nil
}

// buildCases collects the built-in cases plus any mesh or scene cases and
// selects the requested one
func buildCases(opts options) ([]stress.Case, error) {
	cases := stress.BuiltinCases()

	if opts.mesh != "" {
		data, err := loaders.LoadMesh(opts.mesh)
		if err != nil {
			return nil, err
		}
		mesh, err := data.TriangleMesh(core.Identity(), core.Identity(), false)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.mesh, err)
		}
		cases = append(cases, stress.MeshCase("mesh:"+filepath.Base(opts.mesh), mesh))
	}

	if opts.scene != "" {
		scene, err := loaders.LoadPBRT(opts.scene)
		if err != nil {
			return nil, err
		}
		for i, s := range scene.Shapes {
			name := fmt.Sprintf("scene:%d-%s", i, s.Type)
			if s.Mesh != nil {
				cases = append(cases, stress.MeshCase(name, s.Mesh))
			} else {
				cases = append(cases, stress.ShapeCase(name, s.Shape, s.Convex, s.ReverseOrientation))
			}
		}
	}

	return stress.SelectCases(cases, opts.shape)
}

// report prints one line per case and reports whether all of them passed
func report(w io.Writer, results []stress.CaseResult, maxRate float64) bool {
	passed := true
	for _, result := range results {
		status := "ok"
		switch {
		case result.Stats.Inconsistencies > 0:
			status = "INCONSISTENT"
			passed = false
		case result.Stats.FailureRate() > maxRate:
			status = "FAIL"
			passed = false
		}
		fmt.Fprintf(w, "%-20s %-12s %v\n", result.Name, status, result.Stats)
		if status != "ok" && len(result.Stats.FailedSeeds) > 0 {
			fmt.Fprintf(w, "%-20s failing seeds %v\n", "", result.Stats.FailedSeeds)
		}
	}
	return passed
}

// printHelp describes the command and its cases
func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Shape Intersection Stress Test")
	fmt.Fprintln(w, "Usage: shapestress [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Each seed builds a random shape instance, finds a point on it, and")
	fmt.Fprintln(w, "spawns rays from that point. A spawned ray that hits the same shape")
	fmt.Fprintln(w, "again is a self-intersection failure.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Built-in cases:")
	for _, c := range stress.BuiltinCases() {
		fmt.Fprintf(w, "  %s\n", c.Name)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'shapestress -h' for the list of options.")
}
