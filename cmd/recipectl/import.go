package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recipelens/backend/internal/infrastructure/dataset"
	"github.com/recipelens/backend/internal/infrastructure/sqlite"
)

func newImportCmd(v *viper.Viper, fsys afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <database>",
		Short: "Copy a CSV dataset into a SQLite database",
		Long: `Import loads the CSV dataset given by --dataset and writes its recipes into
the recipes table of the SQLite database, replacing any previous contents.
Malformed CSV rows are skipped. Recipe IDs are preserved, so results served
from the database match those served from the CSV.`,
		Example: `  recipectl import --dataset data/recipes.csv data/recipes.db`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			csvPath := v.GetString("dataset.path")

			result, err := dataset.NewCSVSource(fsys, csvPath).LoadRecipes(ctx)
			if err != nil {
				return fmt.Errorf("reading %s: %w", csvPath, err)
			}

			n, err := sqlite.Import(ctx, args[0], result.Recipes)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d recipes into %s (%d skipped)\n", n, args[0], len(result.RowErrors))
			return nil
		},
	}

	return cmd
}
