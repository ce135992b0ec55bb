package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/recipelens/backend/internal/infrastructure/download"
)

const defaultUserAgent = "recipectl/1.0"

func newFetchCmd(v *viper.Viper, fsys afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the recipe dataset",
		Long: `Fetch downloads the CSV dataset from --url (or dataset.source_url) to the
dataset path. The file is replaced only once the download completes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcURL := v.GetString("dataset.source_url")
			if srcURL == "" {
				return fmt.Errorf("no dataset URL: pass --url or set RECIPELENS_DATASET_SOURCE_URL")
			}
			dest := v.GetString("dataset.path")

			client := download.NewClient(fsys, defaultUserAgent)
			client.SetDebug(v.GetBool("matching.enable_debug_logging"))

			n, err := client.Fetch(cmd.Context(), srcURL, dest)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d bytes to %s\n", n, dest)
			return nil
		},
	}

	cmd.Flags().String("url", "", "dataset URL")
	v.BindPFlag("dataset.source_url", cmd.Flags().Lookup("url"))

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of recipectl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recipectl %s\n", version)
		},
	}
}
