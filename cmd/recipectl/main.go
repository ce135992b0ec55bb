// Package main is the entry point for recipectl, the RecipeLens dataset and
// query tool. It loads the same dataset the server does and exposes
// recommend, validate, import and fetch as subcommands.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recipelens/backend/internal/domain"
	"github.com/recipelens/backend/internal/infrastructure/dataset"
	"github.com/recipelens/backend/internal/infrastructure/sqlite"
)

// version is set at build time via ldflags.
var version = "dev"

// newRootCmd builds the command tree around a fresh viper instance
func newRootCmd() *cobra.Command {
	v := viper.New()
	fsys := afero.NewOsFs()

	rootCmd := &cobra.Command{
		Use:   "recipectl",
		Short: "Query and manage the RecipeLens recipe dataset",
		Long: `recipectl works against the same dataset the RecipeLens server serves.
Use it to try ingredient queries from the terminal, check a dataset file
before deploying it, copy a CSV dataset into SQLite, or download the dataset.

Settings come from flags, RECIPELENS_* environment variables, or the
config file, in that order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().String("dataset", "data/recipes.csv", "dataset path")
	rootCmd.PersistentFlags().String("format", "csv", "dataset format: csv or sqlite")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	v.BindPFlag("dataset.path", rootCmd.PersistentFlags().Lookup("dataset"))
	v.BindPFlag("dataset.format", rootCmd.PersistentFlags().Lookup("format"))
	v.BindPFlag("matching.enable_debug_logging", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(
		newRecommendCmd(v, fsys),
		newValidateCmd(v, fsys),
		newImportCmd(v, fsys),
		newFetchCmd(v, fsys),
		newVersionCmd(),
	)
	return rootCmd
}

func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("RECIPELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
	}
	return nil
}

// datasetSource builds the configured dataset backend
func datasetSource(v *viper.Viper, fsys afero.Fs) (domain.DatasetSource, error) {
	path := v.GetString("dataset.path")
	if path == "" {
		return nil, fmt.Errorf("dataset path is required")
	}

	switch format := v.GetString("dataset.format"); format {
	case "csv", "":
		return dataset.NewCSVSource(fsys, path), nil
	case "sqlite":
		return sqlite.NewSource(path), nil
	default:
		return nil, fmt.Errorf("unsupported dataset format %q: use csv or sqlite", format)
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
