package cmd

import (
	"context"
	"fmt"

	"github.com/spigell/prodanswer/internal/prodanswer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var featuresCmd = &cobra.Command{
	Use:     "features",
	Aliases: []string{"feature"},
	Short:   "Manage product features and their embeddings",
}

var featuresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List features across products",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
		q := listQuery(cmd)
		if product, _ := cmd.Flags().GetString("product"); product != "" {
			q.Set("product", product)
		}

		if all, _ := cmd.Flags().GetBool("all"); all {
			features, err := a.client.ListAllFeatures(ctx, q)
			if err != nil {
				return err
			}
			return renderFeatures(a, features)
		}

		page, err := a.client.ListFeatures(ctx, q)
		if err != nil {
			return err
		}
		a.logger.Debug("listed features", zap.Int("count", page.Count), zap.Int("page", page.Len()))
		return renderFeatures(a, page.Results)
	}),
}

var featuresGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a feature",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		feature, err := a.client.GetFeature(ctx, args[0])
		if err != nil {
			return err
		}
		return renderFeature(a, feature)
	}),
}

var featuresUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a feature",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		current, err := a.client.GetFeature(ctx, args[0])
		if err != nil {
			return err
		}

		in, err := featureInput(cmd, current)
		if err != nil {
			return err
		}

		feature, err := a.client.UpdateFeature(ctx, args[0], in)
		if err != nil {
			return err
		}
		return renderFeature(a, feature)
	}),
}

var featuresDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a feature",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		if err := confirm(fmt.Sprintf("Delete feature %s?", args[0]), approved(cmd)); err != nil {
			return err
		}
		if err := a.products.DeleteFeature(ctx, args[0]); err != nil {
			return err
		}
		a.logger.Info("feature deleted", zap.String(featureIDField, args[0]))
		return nil
	}),
}

var featuresEmbedCmd = &cobra.Command{
	Use:   "embed <id>",
	Short: "Generate the embedding of a feature",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		configID, _ := cmd.Flags().GetString("config")

		result, err := a.products.GenerateFeatureEmbedding(ctx, args[0], configID)
		if err != nil {
			return err
		}

		t := newTable("", "FEATURE", "STATUS", "MODEL", "DIMENSION")
		t.add(result.FeatureID, result.Status, result.ModelName, itoa(result.Dimension))
		return a.out.render(result, t)
	}),
}

var featuresEmbedBatchCmd = &cobra.Command{
	Use:   "embed-batch [feature-id...]",
	Short: "Generate embeddings for the given features or all features of a product",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		in := &prodanswer.BatchEmbeddingRequest{FeatureIDs: args}
		in.ProductID, _ = cmd.Flags().GetString("product")
		in.ConfigID, _ = cmd.Flags().GetString("config")
		in.Regenerate, _ = cmd.Flags().GetBool("regenerate")

		result, err := a.products.GenerateEmbeddingsBatch(ctx, in)
		if err != nil {
			return err
		}

		summary := newTable("", "STATUS", "TOTAL", "SUCCESS", "FAILED", "SKIPPED")
		summary.add(result.Status,
			itoa(result.Summary.Total),
			itoa(result.Summary.Success),
			itoa(result.Summary.Failed),
			itoa(result.Summary.Skipped),
		)

		failed := newTable("Failed", "FEATURE", "ERROR")
		for _, f := range result.Results.Failed {
			failed.add(f.FeatureID, f.Error)
		}

		return a.out.render(result, summary, failed)
	}),
}

const featureIDField = "feature_id"

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.AddCommand(
		featuresListCmd,
		featuresGetCmd,
		featuresUpdateCmd,
		featuresDeleteCmd,
		featuresEmbedCmd,
		featuresEmbedBatchCmd,
	)

	addListFlags(featuresListCmd)
	featuresListCmd.Flags().String("product", "", "only features of the product id")
	featuresListCmd.Flags().Bool("all", false, "follow all pages")

	addFeatureFlags(featuresUpdateCmd)
	addYesFlag(featuresDeleteCmd)

	featuresEmbedCmd.Flags().String("config", "", "embedding config id (default config when empty)")
	featuresEmbedBatchCmd.Flags().String("config", "", "embedding config id (default config when empty)")
	featuresEmbedBatchCmd.Flags().String("product", "", "generate for all features of the product id")
	featuresEmbedBatchCmd.Flags().Bool("regenerate", false, "regenerate existing embeddings")
}

func addFeatureFlags(cmd *cobra.Command) {
	cmd.Flags().String("code", "", "feature code")
	cmd.Flags().String("name", "", "feature name")
	cmd.Flags().String("description", "", "feature description")
	cmd.Flags().String("category", "", "category")
	cmd.Flags().String("subcategory", "", "subcategory")
	cmd.Flags().Int("importance", 0, "importance level from 1 to 5")
}

// featureInput starts from the current feature and applies the flags the user set.
func featureInput(cmd *cobra.Command, current *prodanswer.Feature) (*prodanswer.FeatureInput, error) {
	in := &prodanswer.FeatureInput{}
	if current != nil {
		level := current.ImportanceLevel
		in = &prodanswer.FeatureInput{
			Product:     current.Product,
			FeatureCode: current.FeatureCode,
			FeatureName: current.FeatureName,
			Description: current.Description,
			Category:    current.Category,
			Subcategory: current.Subcategory,
		}
		if level > 0 {
			in.ImportanceLevel = &level
		}
	}

	fields := map[string]*string{
		"code":        &in.FeatureCode,
		"name":        &in.FeatureName,
		"description": &in.Description,
		"category":    &in.Category,
		"subcategory": &in.Subcategory,
	}
	for name, field := range fields {
		if v, ok := changed(cmd.Flags(), name); ok {
			*field = v
		}
	}

	if cmd.Flags().Changed("importance") {
		level, err := cmd.Flags().GetInt("importance")
		if err != nil {
			return nil, err
		}
		in.ImportanceLevel = &level
	}

	return in, nil
}
