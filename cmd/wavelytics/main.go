package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wavelytics/adapters/export"
	"wavelytics/adapters/retrieval"
	"wavelytics/adapters/stats/cwt"
	"wavelytics/domain/core"
	"wavelytics/domain/series"
	"wavelytics/internal"
	"wavelytics/internal/api"
	"wavelytics/internal/config"
	"wavelytics/internal/research"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	rootCmd := &cobra.Command{
		Use:   "wavelytics",
		Short: "Multi-resolution co-movement analysis of economic time series",
	}

	rootCmd.AddCommand(
		newFetchCmd(cfg, log),
		newRunCmd(cfg, log),
		newExportCmd(cfg, log),
		newServeCmd(cfg, log),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newFetchCmd(cfg *config.Config, log *internal.Logger) *cobra.Command {
	var dataDir string
	var provider string

	cmd := &cobra.Command{
		Use:   "fetch [name] [series-id]",
		Short: "Fetch one series from a statistics provider into the data directory",
		Long: `Fetch a series and store it as <data-dir>/<name>.json.

Providers: fred (series-id is a FRED series id), insee (series-id is an
idbank), bdf (series-id is dataset/series-key).

Example: wavelytics fetch nondurables PCEND --provider fred`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, id := args[0], args[1]
			client := retrieval.NewClient(cfg.Retrieval, log)

			var (
				ts  *series.TimeSeries
				err error
			)
			switch provider {
			case "fred":
				ts, err = client.FetchFRED(cmd.Context(), id)
			case "insee":
				ts, err = client.FetchINSEE(cmd.Context(), id)
			case "bdf":
				dataset, key, ok := strings.Cut(id, "/")
				if !ok {
					return fmt.Errorf("bdf series id must be dataset/series-key, got %q", id)
				}
				ts, err = client.FetchBdF(cmd.Context(), dataset, key)
			default:
				return fmt.Errorf("unknown provider %q", provider)
			}
			if err != nil {
				return err
			}

			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dataDir, name+".json")
			if err := saveJSON(path, ts); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d observations)\n", path, ts.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for fetched series")
	cmd.Flags().StringVar(&provider, "provider", "fred", "Provider: fred, insee or bdf")
	return cmd
}

func newRunCmd(cfg *config.Config, log *internal.Logger) *cobra.Command {
	var dataDir string
	var pairFlags []string
	var basis string
	var levels int
	var standardize bool
	var writeXLSX bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full analysis over the fetched series",
		Long: `Load every series from the data directory, run the wavelet and
regression pipeline, and write the result to the export directory.

Pairs default to every ordered combination; restrict them with repeated
--pair x:y flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			measures, err := loadSeriesDir(dataDir)
			if err != nil {
				return err
			}
			if len(measures) == 0 {
				return fmt.Errorf("no series found under %s, fetch some first", dataDir)
			}

			pairs, err := resolvePairs(measures, pairFlags)
			if err != nil {
				return err
			}

			pipeline := research.NewPipeline(log, 0)
			result, err := pipeline.Run(cmd.Context(), research.Request{
				Measures:     measures,
				Pairs:        pairs,
				Basis:        basis,
				Levels:       levels,
				Standardize:  standardize,
				Significance: cwt.SignificanceConfig{Confidence: cfg.Analysis.Confidence},
			})
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.Paths.ExportDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.ExportDir, fmt.Sprintf("run_%s.json", result.ID))
			if err := saveJSON(path, result); err != nil {
				return err
			}
			fmt.Printf("run %s: %d measures, %d pairs, %d failures\nwrote %s\n",
				result.ID, len(result.Measures), len(result.Pairs), len(result.Failures), path)

			if writeXLSX {
				writer := export.NewWriter(cfg.Paths.ExportDir, log)
				xlsxPath, err := writer.WriteRun(result)
				if err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", xlsxPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory holding fetched series")
	cmd.Flags().StringArrayVar(&pairFlags, "pair", nil, "Measure pair x:y (repeatable)")
	cmd.Flags().StringVar(&basis, "basis", cfg.Analysis.Basis, "Discrete wavelet basis")
	cmd.Flags().IntVar(&levels, "levels", cfg.Analysis.Levels, "Decomposition levels (0 = maximum)")
	cmd.Flags().BoolVar(&standardize, "standardize", true, "Standardize series before the cross transform")
	cmd.Flags().BoolVar(&writeXLSX, "xlsx", false, "Also write the regression workbook")
	return cmd
}

func newExportCmd(cfg *config.Config, log *internal.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-file]",
		Short: "Write the regression workbook for a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result research.RunResult
			if err := loadJSON(args[0], &result); err != nil {
				return err
			}
			writer := export.NewWriter(cfg.Paths.ExportDir, log)
			path, err := writer.WriteRun(&result)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func newServeCmd(cfg *config.Config, log *internal.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve saved runs as JSON and rendered reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := api.NewServer(log)

			runFiles, err := filepath.Glob(filepath.Join(cfg.Paths.ExportDir, "run_*.json"))
			if err != nil {
				return err
			}
			for _, path := range runFiles {
				var result research.RunResult
				if err := loadJSON(path, &result); err != nil {
					log.Warn("serve: skipping %s: %v", path, err)
					continue
				}
				server.AddRun(&result)
			}
			log.Info("serve: loaded %d runs from %s", len(runFiles), cfg.Paths.ExportDir)

			return server.ListenAndServe(":" + cfg.Server.Port)
		},
	}
	return cmd
}

// loadSeriesDir reads every <name>.json under dir as a measure series.
func loadSeriesDir(dir string) (map[core.MeasureKey]*series.TimeSeries, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	measures := make(map[core.MeasureKey]*series.TimeSeries, len(paths))
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		key, err := core.ParseMeasureKey(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		var ts series.TimeSeries
		if err := loadJSON(path, &ts); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		measures[key] = &ts
	}
	return measures, nil
}

// resolvePairs parses --pair flags, or defaults to every ordered pair of
// distinct measures.
func resolvePairs(measures map[core.MeasureKey]*series.TimeSeries, flags []string) ([]core.MeasurePair, error) {
	if len(flags) > 0 {
		pairs := make([]core.MeasurePair, 0, len(flags))
		for _, flag := range flags {
			x, y, ok := strings.Cut(flag, ":")
			if !ok {
				return nil, fmt.Errorf("pair %q must be x:y", flag)
			}
			pairs = append(pairs, core.MeasurePair{X: core.MeasureKey(x), Y: core.MeasureKey(y)})
		}
		return pairs, nil
	}

	var pairs []core.MeasurePair
	for x := range measures {
		for y := range measures {
			if x != y {
				pairs = append(pairs, core.MeasurePair{X: x, Y: y})
			}
		}
	}
	return pairs, nil
}

func saveJSON(path string, payload interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func loadJSON(path string, target interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(target)
}
