package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/prodanswer/internal/prodanswer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// productFields are the flag names of editable product fields.
var productFields = []string{"name", "version", "description", "vendor", "category"}

var productsCmd = &cobra.Command{
	Use:     "products",
	Aliases: []string{"product"},
	Short:   "Manage products of the capability catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			products, err := a.client.ListAllProducts(ctx, listQuery(cmd))
			if err != nil {
				return err
			}
			return renderProducts(a, products.Items, products.Len())
		}

		if err := a.products.FetchProducts(ctx, listQuery(cmd)); err != nil {
			return err
		}
		return renderProducts(a, a.products.Products(), a.products.Total())
	}),
}

var productsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a product with its features",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		return showProduct(ctx, a, args[0])
	}),
}

var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product, prompting for fields not given as flags",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
		return createProduct(ctx, cmd, a)
	}),
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a product",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		return editProduct(ctx, cmd, a, args[0])
	}),
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product and its features",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		if err := confirm(fmt.Sprintf("Delete product %s?", args[0]), approved(cmd)); err != nil {
			return err
		}
		if err := a.products.DeleteProduct(ctx, args[0]); err != nil {
			return err
		}
		a.logger.Info("product deleted", zap.String("product_id", args[0]))
		return nil
	}),
}

var productsFeaturesCmd = &cobra.Command{
	Use:   "features <id>",
	Short: "List features of a product",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		if err := a.products.FetchFeatures(ctx, args[0], listQuery(cmd)); err != nil {
			return err
		}
		return renderFeatures(a, a.products.Features())
	}),
}

var productsAddFeatureCmd = &cobra.Command{
	Use:   "add-feature <product-id>",
	Short: "Add a feature to a product",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		in, err := featureInput(cmd, nil)
		if err != nil {
			return err
		}
		if in.FeatureName == "" {
			if in.FeatureName, err = ask("Feature name", "", true); err != nil {
				return err
			}
		}
		if in.Description == "" {
			if in.Description, err = ask("Description", "", true); err != nil {
				return err
			}
		}

		feature, err := a.products.AddFeature(ctx, args[0], in)
		if err != nil {
			return err
		}
		return renderFeature(a, feature)
	}),
}

var productsImportCmd = &cobra.Command{
	Use:   "import-features <product-id> <file.json>",
	Short: "Import features of a product from a JSON array",
	Args:  cobra.ExactArgs(2),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading features file: %w", err)
		}

		var features []*prodanswer.FeatureInput
		if err := json.Unmarshal(data, &features); err != nil {
			return fmt.Errorf("parsing features file %s: %w", args[1], err)
		}

		result, err := a.client.BatchImportFeatures(ctx, &prodanswer.BatchImport{
			ProductID: args[0],
			Features:  features,
		})
		if err != nil {
			return err
		}

		a.logger.Info("features imported", zap.String("status", result.Status), zap.Int("count", result.Count))
		return renderFeatures(a, result.Features)
	}),
}

var productsImportSubsystemCmd = &cobra.Command{
	Use:   "import-subsystem <server-path>",
	Short: "Import products and features from a JSON file located on the backend server",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		vendor, _ := cmd.Flags().GetString("vendor")

		result, err := a.client.ImportSubsystemData(ctx, args[0], vendor)
		if err != nil {
			return err
		}

		t := newTable("", "STATUS", "PRODUCTS CREATED", "FEATURES CREATED", "MESSAGE")
		t.add(result.Status, itoa(result.ProductsCreated), itoa(result.FeaturesCreated), result.Message)
		for _, e := range result.Errors {
			a.logger.Warn("import error", zap.String("error", e))
		}
		return a.out.render(result, t)
	}),
}

var productsClearSubsystemCmd = &cobra.Command{
	Use:   "clear-subsystem",
	Short: "Delete all products imported from subsystem data",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
		if err := confirm("Delete all imported subsystem products?", approved(cmd)); err != nil {
			return err
		}

		result, err := a.client.ClearSubsystemData(ctx)
		if err != nil {
			return err
		}

		t := newTable("", "STATUS", "PRODUCTS DELETED", "FEATURES DELETED", "MESSAGE")
		t.add(result.Status, itoa(result.ProductsDeleted), itoa(result.FeaturesDeleted), result.Message)
		return a.out.render(result, t)
	}),
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(
		productsListCmd,
		productsGetCmd,
		productsCreateCmd,
		productsUpdateCmd,
		productsDeleteCmd,
		productsFeaturesCmd,
		productsAddFeatureCmd,
		productsImportCmd,
		productsImportSubsystemCmd,
		productsClearSubsystemCmd,
	)

	addListFlags(productsListCmd)
	productsListCmd.Flags().Bool("all", false, "follow all pages")
	addListFlags(productsFeaturesCmd)

	for _, c := range []*cobra.Command{productsCreateCmd, productsUpdateCmd} {
		for _, name := range productFields {
			c.Flags().String(name, "", "product "+name)
		}
	}

	addFeatureFlags(productsAddFeatureCmd)
	productsImportSubsystemCmd.Flags().String("vendor", "", "vendor assigned to imported products")

	addYesFlag(productsDeleteCmd)
	addYesFlag(productsClearSubsystemCmd)
}

func showProduct(ctx context.Context, a *application, id string) error {
	if err := a.products.FetchProduct(ctx, id); err != nil {
		return err
	}
	if err := a.products.FetchFeatures(ctx, id, nil); err != nil {
		return err
	}
	return renderProduct(a, a.products.Current(), a.products.Features())
}

func createProduct(ctx context.Context, cmd *cobra.Command, a *application) error {
	in := productInput(cmd, nil)

	var err error
	if in.Name == "" {
		if in.Name, err = ask("Product name", "", true); err != nil {
			return err
		}
	}

	product, err := a.products.CreateProduct(ctx, in)
	if err != nil {
		return err
	}
	a.logger.Info("product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return renderProduct(a, product, nil)
}

// editProduct sends the whole product with the changed fields applied. Without
// any flag every field is prompted for with the current value as default.
func editProduct(ctx context.Context, cmd *cobra.Command, a *application, id string) error {
	if err := a.products.FetchProduct(ctx, id); err != nil {
		return err
	}
	current := a.products.Current()

	in := productInput(cmd, current)
	if !anyChanged(cmd.Flags(), productFields...) {
		prompts := []struct {
			label string
			value *string
		}{
			{"Product name", &in.Name},
			{"Version", &in.Version},
			{"Description", &in.Description},
			{"Vendor", &in.Vendor},
			{"Category", &in.Category},
		}
		for i, p := range prompts {
			answer, err := ask(p.label, *p.value, i == 0)
			if err != nil {
				return err
			}
			*p.value = answer
		}
	}

	product, err := a.products.UpdateProduct(ctx, id, in)
	if err != nil {
		return err
	}
	a.logger.Info("product updated", zap.String("product_id", product.ID))
	return renderProduct(a, product, nil)
}

// productInput starts from the current product and applies the flags the user set.
func productInput(cmd *cobra.Command, current *prodanswer.Product) *prodanswer.ProductInput {
	in := &prodanswer.ProductInput{}
	if current != nil {
		in = &prodanswer.ProductInput{
			Name:        current.Name,
			Version:     current.Version,
			Description: current.Description,
			Vendor:      current.Vendor,
			Category:    current.Category,
		}
	}

	fields := []*string{&in.Name, &in.Version, &in.Description, &in.Vendor, &in.Category}
	for i, name := range productFields {
		if v, ok := changed(cmd.Flags(), name); ok {
			*fields[i] = v
		}
	}

	return in
}
