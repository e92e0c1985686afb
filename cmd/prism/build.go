package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/prism-risk/prism/internal/risk"
	"github.com/prism-risk/prism/internal/store"
	"github.com/prism-risk/prism/internal/tabio"
)

func newBuildCmd() *cobra.Command {
	var (
		snpPath       string
		incidencePath string
		modelID       string
		outputPath    string
		dbPath        string
		forceExact    bool
		forceMC       bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build risk models from SNP and annual incidence tables",
		Long: `Build reads a tab-delimited SNP table and annual incidence table, recovers
the baseline survivor function for each model, and writes each fitted model
to a gob file and, when a DuckDB store is configured, to that store as well.`,
		Example: `  prism build --snps snps.tsv --incidence incidence.tsv
  prism build --snps snps.tsv --incidence incidence.tsv --model BRCA1_BC -o brca1.gob
  prism build --snps snps.tsv --incidence incidence.tsv --db prism.duckdb --monte-carlo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceExact && forceMC {
				return fmt.Errorf("--exact and --monte-carlo are mutually exclusive")
			}
			return runBuild(snpPath, incidencePath, modelID, outputPath, dbPath, forceExact, forceMC)
		},
	}

	cmd.Flags().StringVar(&snpPath, "snps", "", "SNP table (tab-delimited with header)")
	cmd.Flags().StringVar(&incidencePath, "incidence", "", "annual incidence table (tab-delimited with header)")
	cmd.Flags().StringVar(&modelID, "model", "", "build only this model ID (default: every model in the SNP table)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output gob file (single model only; default <modelID>.gob)")
	cmd.Flags().StringVar(&dbPath, "db", "", "also persist models to this DuckDB database")
	cmd.Flags().BoolVar(&forceExact, "exact", false, "force exact 3^k genotype enumeration")
	cmd.Flags().BoolVar(&forceMC, "monte-carlo", false, "force Monte Carlo genotype sampling")
	cobra.CheckErr(cmd.MarkFlagRequired("snps"))
	cobra.CheckErr(cmd.MarkFlagRequired("incidence"))

	return cmd
}

func runBuild(snpPath, incidencePath, modelID, outputPath, dbPath string, forceExact, forceMC bool) error {
	snpTable, err := tabio.ReadSNPTable(snpPath)
	if err != nil {
		return fmt.Errorf("SNP table %s: %w", snpPath, err)
	}
	incTable, err := tabio.ReadIncidenceTable(incidencePath)
	if err != nil {
		return fmt.Errorf("incidence table %s: %w", incidencePath, err)
	}

	ids := snpTable.Order
	if modelID != "" {
		if _, ok := snpTable.ByModel[modelID]; !ok {
			return fmt.Errorf("model %s not present in %s", modelID, snpPath)
		}
		ids = []string{modelID}
	}
	if outputPath != "" && len(ids) > 1 {
		return fmt.Errorf("--output needs a single model; use --model to pick one of %d", len(ids))
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

	opts := []risk.Option{risk.WithLogger(logger)}
	if forceExact {
		opts = append(opts, risk.WithExact(true))
	} else if forceMC {
		opts = append(opts, risk.WithExact(false))
	}

	for _, id := range ids {
		rows, ok := incTable.ByModel[id]
		if !ok {
			return fmt.Errorf("model %s has no rows in %s", id, incidencePath)
		}
		times, marg, err := risk.SurvivorFromIncidence(rows)
		if err != nil {
			return fmt.Errorf("model %s: %w", id, err)
		}

		m, err := risk.NewModel(id, snpTable.ByModel[id], times, marg, opts...)
		if err != nil {
			return err
		}

		out := outputPath
		if out == "" {
			out = id + ".gob"
		}
		if err := store.SaveModel(out, m); err != nil {
			return fmt.Errorf("model %s: %w", id, err)
		}
		logger.Info("model built",
			zap.String("model", id),
			zap.Int("snps", len(snpTable.ByModel[id])),
			zap.Int("times", len(times)),
			zap.Bool("exact", m.Exact()),
			zap.String("output", out))

		if db != nil {
			if err := db.WriteModel(m); err != nil {
				return fmt.Errorf("model %s: %w", id, err)
			}
		}
	}
	return nil
}
