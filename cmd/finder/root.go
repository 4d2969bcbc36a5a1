package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matst80/rdf-finder/pkg/config"
	"github.com/matst80/rdf-finder/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	a       = &app{logger: zap.NewNop()}
)

var rootCmd = &cobra.Command{
	Use:           "finder",
	Short:         "Faceted browser for RDF search indexes",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		if err := v.BindPFlag("backend.url", cmd.Flags().Lookup("backend")); err != nil {
			return err
		}
		if err := v.BindPFlag("logger.level", cmd.Flags().Lookup("log-level")); err != nil {
			return err
		}
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
		a.logger = logging.New(cfg.Logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = a.logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "backend base url")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newDatasetsCmd())
	rootCmd.AddCommand(newTaxonomyCmd())
}

func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		a.logger.Error("command failed", zap.Error(err))
	}
	return err
}
