package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/prism-risk/prism/internal/logging"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool
	logFile string

	logger = zap.NewNop()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prism",
		Short: "PRISM computes individualized cumulative disease risk from polygenic models",
		Long: `PRISM builds polygenic Cox-style survival models from SNP effect-size and
annual incidence tables, and evaluates per-individual prognostic indices,
population percentiles, and age-indexed cumulative risk curves.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			lf := logFile
			if lf == "" {
				lf = viper.GetString("log.file")
			}
			logger = logging.New(verbose || viper.GetBool("log.verbose"), lf)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.prism.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also log to a rotating file")

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newPredictCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".prism.yaml"))
		}
	}

	viper.SetEnvPrefix("PRISM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
