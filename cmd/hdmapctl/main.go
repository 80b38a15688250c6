// Command hdmapctl loads HD map files into a store and answers location,
// topology and junction queries against it.
package main

import (
	"fmt"
	"os"

	"github.com/beetlebugorg/hdmap/pkg/hdmap"
	"github.com/beetlebugorg/hdmap/pkg/mapfile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	mapPaths    []string
	optionsPath string
	workers     int
	skipErrors  bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hdmapctl",
	Short: "Query HD maps from the command line",
	Long: `hdmapctl loads one or more YAML map files into an in-memory store and
runs a single query against it.

Coordinates are given in the store's coordinate mode: metres for cartesian
and enu stores, degrees (lon lat) for geographic stores. Headings are in
degrees, counter-clockwise from east.

Example:
  hdmapctl --map city.yaml nearest 12.5 -40 --yaw 90`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringArrayVarP(&mapPaths, "map", "m", nil, "Map file to load (repeatable)")
	rootCmd.PersistentFlags().StringVar(&optionsPath, "options", "", "Store options file (YAML)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Files decoded concurrently (default: number of CPUs)")
	rootCmd.PersistentFlags().BoolVar(&skipErrors, "skip-errors", false, "Keep loading when a map file fails")

	nearestCmd.Flags().Float64Var(&radius, "radius", 5, "Search radius")
	nearestCmd.Flags().Float64Var(&yawDeg, "yaw", 0, "Heading in degrees")
	nearestCmd.Flags().BoolVar(&useLinks, "links", false, "Search lane links instead of lanes")

	boundariesCmd.Flags().Float64Var(&yawDeg, "yaw", 0, "Heading in degrees")
	boundariesCmd.Flags().Float64Var(&forward, "forward", 50, "Distance ahead")
	boundariesCmd.Flags().Float64Var(&backward, "backward", 10, "Distance behind")

	searchCmd.Flags().Float64Var(&radius, "radius", 5, "Half size of the search box")
	searchCmd.Flags().StringVar(&searchKind, "kind", "lanes", "What to search: lanes, roads, boundaries or objects")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(nearestCmd)
	rootCmd.AddCommand(priorityCmd)
	rootCmd.AddCommand(boundariesCmd)
	rootCmd.AddCommand(searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadStore builds a store from the options file and loads every --map
// file into it.
func loadStore() (*hdmap.Store, error) {
	opts := hdmap.DefaultOptions()
	if optionsPath != "" {
		var err error
		if opts, err = hdmap.LoadOptions(optionsPath); err != nil {
			return nil, err
		}
	}
	opts.Logger = logger

	store, err := hdmap.New(opts)
	if err != nil {
		return nil, err
	}
	if len(mapPaths) == 0 {
		return nil, fmt.Errorf("no map files given, use --map")
	}

	m, errs := mapfile.LoadFiles(mapPaths, mapfile.LoadOptions{
		Workers:    workers,
		SkipErrors: skipErrors,
		Progress: func(loaded, total int) {
			logger.Debug("Loaded map file", zap.Int("loaded", loaded), zap.Int("total", total))
		},
	})
	for _, err := range errs {
		logger.Warn("Skipped map file", zap.Error(err))
	}
	if m == nil {
		return nil, errs[0]
	}

	stats, err := m.Apply(store)
	if err != nil {
		if !skipErrors {
			return nil, err
		}
		logger.Warn("Some map entities were rejected", zap.Error(err))
	}
	logger.Info("Map loaded",
		zap.Int("roads", stats.Roads),
		zap.Int("links", stats.Links),
		zap.Int("objects", stats.Objects),
		zap.Int("junctions", stats.Junctions))
	return store, nil
}
