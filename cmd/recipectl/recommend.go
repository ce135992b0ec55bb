package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/recipelens/backend/internal/domain"
	"github.com/recipelens/backend/internal/infrastructure/images"
	"github.com/recipelens/backend/internal/usecase"
)

func newRecommendCmd(v *viper.Viper, fsys afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend [ingredients...]",
		Short: "Rank recipes for a list of ingredients",
		Long: `Recommend loads the dataset and ranks recipes by how many of the given
ingredients appear in their ingredient lists, relative to the list length.
Each argument is one ingredient; quote multi-word ingredients.`,
		Example: `  recipectl recommend egg milk "olive oil"
  recipectl recommend --top-n 3 --output yaml salt pepper`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, v, fsys, args)
		},
	}

	cmd.Flags().Int("top-n", usecase.DefaultTopN, "number of recipes to return")
	cmd.Flags().String("images", "data/images", "image directory used to resolve image_name")
	cmd.Flags().StringP("output", "o", "table", "output format: table, json or yaml")

	v.BindPFlag("matching.default_top_n", cmd.Flags().Lookup("top-n"))
	v.BindPFlag("images.dir", cmd.Flags().Lookup("images"))

	return cmd
}

func runRecommend(cmd *cobra.Command, v *viper.Viper, fsys afero.Fs, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "table" && output != "json" && output != "yaml" {
		return fmt.Errorf("unsupported output %q: use table, json or yaml", output)
	}

	source, err := datasetSource(v, fsys)
	if err != nil {
		return err
	}

	topN := v.GetInt("matching.default_top_n")
	service := usecase.NewRecipeService(
		source,
		images.NewStore(fsys, v.GetString("images.dir")),
		nil,
		usecase.RecipeServiceConfig{
			DefaultTopN:        topN,
			MaxTopN:            topN,
			EnableDebugLogging: v.GetBool("matching.enable_debug_logging"),
		},
	)

	ctx := cmd.Context()
	if _, err := service.Load(ctx); err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	resp, err := service.Recommend(ctx, &domain.RecommendRequest{Ingredients: args, TopN: topN})
	if err != nil {
		return err
	}

	return writeRecommendations(cmd.OutOrStdout(), resp, output)
}

// writeRecommendations renders resp in the requested format
func writeRecommendations(w io.Writer, resp *domain.RecommendResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "yaml":
		data, err := yaml.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	if len(resp.Recipes) == 0 {
		_, err := fmt.Fprintln(w, "No matching recipes.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORE\tRATING\tTITLE\tIMAGE")
	for _, r := range resp.Recipes {
		rating := "-"
		if r.Rating != nil {
			rating = strconv.FormatFloat(*r.Rating, 'f', 1, 64)
		}
		image := "-"
		if r.ImageName != nil {
			image = *r.ImageName
		}
		fmt.Fprintf(tw, "%d\t%.3f\t%s\t%s\t%s\n", r.ID, r.SimilarityScore, rating, r.Title, image)
	}
	return tw.Flush()
}
