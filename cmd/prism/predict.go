package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prism-risk/prism/internal/output"
	"github.com/prism-risk/prism/internal/risk"
	"github.com/prism-risk/prism/internal/store"
	"github.com/prism-risk/prism/internal/tabio"
)

func newPredictCmd() *cobra.Command {
	var (
		modelPath  string
		mapPath    string
		outputPath string
		dbPath     string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "predict [flags] <genotypes-file>",
		Short: "Predict cumulative risk for individuals in a genotype file",
		Long: `Predict loads a fitted model, interprets each genotype row through the map
descriptor, and writes one prediction per individual: prognostic index,
population percentile, and the cumulative risk at every model time point.

A failure on one individual is reported and skipped; it does not stop the
run or affect other individuals.`,
		Example: `  prism predict --model brca1.gob --map map.tsv genotypes.tsv
  prism predict --model brca1.gob --map map.tsv -o predictions.tsv genotypes.tsv
  cat genotypes.tsv | prism predict --model brca1.gob --map map.tsv -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(modelPath, mapPath, outputPath, dbPath, args[0], workers)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "fitted model gob file (from prism build)")
	cmd.Flags().StringVar(&mapPath, "map", "", "genotype map descriptor (ordered rsID/orientRs table)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&dbPath, "db", "", "also append predictions to this DuckDB database")
	cmd.Flags().IntVar(&workers, "workers", 0, "prediction workers (default: number of CPUs)")
	cobra.CheckErr(cmd.MarkFlagRequired("model"))
	cobra.CheckErr(cmd.MarkFlagRequired("map"))

	return cmd
}

func runPredict(modelPath, mapPath, outputPath, dbPath, genoPath string, workers int) error {
	m, err := store.LoadModel(modelPath, logger)
	if err != nil {
		return err
	}
	logger.Info("model loaded",
		zap.String("model", m.Name()),
		zap.Int("snps", len(m.SNPs())),
		zap.Bool("exact", m.Exact()))

	entries, err := tabio.ReadMapDescriptor(mapPath)
	if err != nil {
		return fmt.Errorf("map descriptor %s: %w", mapPath, err)
	}

	reader, err := tabio.NewGenotypeReader(genoPath, entries)
	if err != nil {
		return fmt.Errorf("genotype file %s: %w", genoPath, err)
	}
	defer reader.Close()

	out := os.Stdout
	if outputPath != "" {
		out, err = os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}

	if workers == 0 {
		workers = viper.GetInt("predict.workers")
	}

	writer := output.NewTabWriter(out, m)
	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var db *store.Store
	if dbPath == "" {
		dbPath = viper.GetString("store.path")
	}
	if dbPath != "" {
		db, err = store.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	items := make(chan risk.WorkItem, 2*max(workers, 1))
	var parseFailures int

	var g errgroup.Group
	g.Go(func() error {
		defer close(items)
		seq := 0
		for {
			gt, err := reader.Next()
			if err != nil {
				var perr *tabio.ParseError
				if errors.As(err, &perr) {
					// A bad row only loses that individual.
					parseFailures++
					logger.Warn("skipping malformed genotype row", zap.Error(perr))
					continue
				}
				return fmt.Errorf("genotype file %s: %w", genoPath, err)
			}
			if gt == nil {
				return nil
			}
			items <- risk.WorkItem{Seq: seq, Genotypes: gt}
			seq++
		}
	})

	results := m.ParallelPredict(items, workers)

	var predicted, scoreFailures int
	var stored []*risk.Prediction
	collectErr := risk.OrderedCollect(results, func(r risk.WorkResult) error {
		if r.Err != nil {
			scoreFailures++
			logger.Warn("prediction failed", zap.Error(r.Err))
			return nil
		}
		if err := writer.Write(r.Prediction); err != nil {
			return err
		}
		predicted++
		if db != nil {
			stored = append(stored, r.Prediction)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if collectErr != nil {
		return collectErr
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if db != nil {
		if err := db.WritePredictions(stored); err != nil {
			return err
		}
	}

	failures := parseFailures + scoreFailures
	logger.Info("prediction finished",
		zap.String("model", m.Name()),
		zap.Int("predicted", predicted),
		zap.Int("failed", failures))
	if predicted == 0 && failures > 0 {
		return fmt.Errorf("no individual could be predicted (%d failures)", failures)
	}
	return nil
}
