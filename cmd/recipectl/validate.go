package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newValidateCmd(v *viper.Viper, fsys afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a dataset loads and report skipped rows",
		Long: `Validate reads the dataset exactly as the server would. It fails when the
file is missing or a required column is absent, and lists rows that would
be skipped as malformed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := datasetSource(v, fsys)
			if err != nil {
				return err
			}

			result, err := source.LoadRecipes(cmd.Context())
			if err != nil {
				return err
			}

			maxErrors, _ := cmd.Flags().GetInt("max-errors")
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source:  %s\n", result.Source)
			fmt.Fprintf(out, "Rows:    %d\n", len(result.Recipes))
			fmt.Fprintf(out, "Skipped: %d\n", len(result.RowErrors))
			for i, rowErr := range result.RowErrors {
				if i == maxErrors {
					fmt.Fprintf(out, "  ... %d more\n", len(result.RowErrors)-i)
					break
				}
				fmt.Fprintf(out, "  %v\n", rowErr)
			}

			strict, _ := cmd.Flags().GetBool("strict")
			if strict && len(result.RowErrors) > 0 {
				return fmt.Errorf("%d malformed row(s)", len(result.RowErrors))
			}
			return nil
		},
	}

	cmd.Flags().Int("max-errors", 20, "maximum number of skipped rows to list")
	cmd.Flags().Bool("strict", false, "fail when any row is skipped")

	return cmd
}
