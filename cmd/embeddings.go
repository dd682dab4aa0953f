package cmd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spigell/prodanswer/internal/logger"
	"github.com/spigell/prodanswer/internal/prodanswer"
	"github.com/spigell/prodanswer/internal/secrets"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var embeddingsCmd = &cobra.Command{
	Use:     "embeddings",
	Aliases: []string{"configs"},
	Short:   "Manage embedding model configurations",
}

var embeddingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List embedding configs and the default one",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
		return showConfigs(ctx, a, listQuery(cmd))
	}),
}

var embeddingsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an embedding config",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		config, err := a.client.GetConfig(ctx, args[0])
		if err != nil {
			return err
		}
		return renderConfigs(a, []*prodanswer.EmbeddingConfig{config}, nil)
	}),
}

var embeddingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an embedding config",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
		in, err := configInput(cmd)
		if err != nil {
			return err
		}
		if in.ModelName == "" {
			if in.ModelName, err = ask("Model name", "", true); err != nil {
				return err
			}
		}

		config, err := a.embeddings.CreateConfig(ctx, in)
		if err != nil {
			return err
		}
		a.logger.Info("embedding config created", zap.String(logger.FieldConfig, config.ID))
		return renderConfigs(a, []*prodanswer.EmbeddingConfig{config}, nil)
	}),
}

var embeddingsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an embedding config",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		current, err := a.client.GetConfig(ctx, args[0])
		if err != nil {
			return err
		}

		in, err := configInput(cmd)
		if err != nil {
			return err
		}
		mergeConfig(in, current)

		config, err := a.embeddings.UpdateConfig(ctx, args[0], in)
		if err != nil {
			return err
		}
		return renderConfigs(a, []*prodanswer.EmbeddingConfig{config}, nil)
	}),
}

var embeddingsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an embedding config",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		if err := confirm(fmt.Sprintf("Delete embedding config %s?", args[0]), approved(cmd)); err != nil {
			return err
		}
		if err := a.embeddings.DeleteConfig(ctx, args[0]); err != nil {
			return err
		}
		a.logger.Info("embedding config deleted", zap.String(logger.FieldConfig, args[0]))
		return nil
	}),
}

var embeddingsSetDefaultCmd = &cobra.Command{
	Use:   "set-default <id>",
	Short: "Use the config for new embeddings by default",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		result, err := a.embeddings.SetDefault(ctx, args[0])
		if err != nil {
			return err
		}
		a.logger.Info("default embedding config changed", zap.String(logger.FieldConfig, args[0]), zap.String("message", result.Message))
		return renderConfigs(a, a.embeddings.Configs(), a.embeddings.Default())
	}),
}

var embeddingsTestCmd = &cobra.Command{
	Use:   "test <id>",
	Short: "Check that the backend reaches the embedding provider",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		result, err := a.embeddings.TestConnection(ctx, args[0])
		if result != nil {
			t := newTable("", "STATUS", "CONNECTED", "MODEL", "DIMENSION", "ERROR")
			model, dimension := "", ""
			if result.ModelInfo != nil {
				model, dimension = result.ModelInfo.ModelName, itoa(result.ModelInfo.Dimension)
			}
			t.add(result.Status, yesNo(result.IsConnected), model, dimension, result.Error)
			if renderErr := a.out.render(result, t); renderErr != nil {
				return renderErr
			}
		}
		return err
	}),
}

func init() {
	rootCmd.AddCommand(embeddingsCmd)
	embeddingsCmd.AddCommand(
		embeddingsListCmd,
		embeddingsGetCmd,
		embeddingsCreateCmd,
		embeddingsUpdateCmd,
		embeddingsDeleteCmd,
		embeddingsSetDefaultCmd,
		embeddingsTestCmd,
	)

	addListFlags(embeddingsListCmd)

	for _, c := range []*cobra.Command{embeddingsCreateCmd, embeddingsUpdateCmd} {
		c.Flags().String("model", "", "model name")
		c.Flags().String("type", "", "openai, huggingface, sentence-transformers, local or openai-compatible")
		c.Flags().String("provider", "", "provider")
		c.Flags().String("provider-name", "", "provider name, e.g. siliconflow")
		c.Flags().String("base-url", "", "base url of the provider api")
		c.Flags().String("endpoint", "", "api endpoint")
		c.Flags().String("api-key-file", "", "file with the provider api key")
		c.Flags().Int("dimension", 0, "embedding dimension")
		c.Flags().StringToString("param", nil, "model parameter as key=value, repeatable")
		c.Flags().Bool("active", true, "whether the config is active")
	}
	addYesFlag(embeddingsDeleteCmd)
}

func showConfigs(ctx context.Context, a *application, q url.Values) error {
	if err := a.embeddings.FetchConfigs(ctx, q); err != nil {
		return err
	}
	a.embeddings.FetchDefaultConfig(ctx)
	return renderConfigs(a, a.embeddings.Configs(), a.embeddings.Default())
}

func configInput(cmd *cobra.Command) (*prodanswer.EmbeddingConfigInput, error) {
	flags := cmd.Flags()
	in := &prodanswer.EmbeddingConfigInput{}

	in.ModelName, _ = flags.GetString("model")
	in.ModelType, _ = flags.GetString("type")
	in.Provider, _ = flags.GetString("provider")
	in.ProviderName, _ = flags.GetString("provider-name")
	in.BaseURL, _ = flags.GetString("base-url")
	in.APIEndpoint, _ = flags.GetString("endpoint")
	in.Dimension, _ = flags.GetInt("dimension")

	if file, _ := flags.GetString("api-key-file"); file != "" {
		key, err := secrets.Load(secrets.Source{Name: "provider api key", File: file})
		if err != nil {
			return nil, err
		}
		in.APIKey = key
	}

	if params, _ := flags.GetStringToString("param"); len(params) > 0 {
		in.ModelParams = make(map[string]any, len(params))
		for k, v := range params {
			in.ModelParams[k] = v
		}
	}

	if flags.Changed("active") {
		active, _ := flags.GetBool("active")
		in.IsActive = &active
	}

	return in, nil
}

// mergeConfig fills fields the user did not set from the current config,
// since the backend replaces the whole record on update.
func mergeConfig(in *prodanswer.EmbeddingConfigInput, current *prodanswer.EmbeddingConfig) {
	defaults := []struct {
		field *string
		value string
	}{
		{&in.ModelName, current.ModelName},
		{&in.ModelType, current.ModelType},
		{&in.Provider, current.Provider},
		{&in.ProviderName, current.ProviderName},
		{&in.BaseURL, current.BaseURL},
		{&in.APIEndpoint, current.APIEndpoint},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = d.value
		}
	}

	if in.Dimension == 0 {
		in.Dimension = current.Dimension
	}
	if in.ModelParams == nil {
		in.ModelParams = current.ModelParams
	}
	if in.IsActive == nil {
		active := current.IsActive
		in.IsActive = &active
	}
}
