package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/prodanswer/internal/prodanswer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Inspect the embedding service of the backend",
}

var serviceInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the service version and check it against service.version-constraint",
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, _ []string) error {
		info, err := a.client.ServiceInfo(ctx)
		if err != nil {
			return err
		}

		t := newTable("", "SERVICE", "VERSION", "ACTIVE CONFIGS", "DEFAULT MODEL")
		t.add(info.Service, info.Version, itoa(info.ActiveConfigs), describeModel(info.DefaultModel))
		if err := a.out.render(info, t); err != nil {
			return err
		}

		return checkCompatibility(a, info)
	}),
}

var serviceHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the default embedding provider",
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, _ []string) error {
		status, err := a.client.HealthCheck(ctx)
		if err != nil {
			return err
		}

		model := ""
		if status.ModelInfo != nil {
			model = status.ModelInfo.ModelName
		}

		t := newTable("", "STATUS", "CONNECTED", "MODEL", "MESSAGE")
		message := status.Message
		if status.Error != "" {
			message = status.Error
		}
		t.add(status.Status, yesNo(status.IsConnected), model, message)
		return a.out.render(status, t)
	}),
}

var serviceProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List active embedding providers",
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, _ []string) error {
		providers, err := a.client.ActiveProviders(ctx)
		if err != nil {
			return err
		}
		a.logger.Debug("active providers", zap.Int("count", providers.Count))
		return renderConfigs(a, providers.Providers, nil)
	}),
}

var serviceDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Show the default embedding provider",
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, _ []string) error {
		config, err := a.client.DefaultProvider(ctx)
		if err != nil {
			return err
		}
		return renderConfigs(a, []*prodanswer.EmbeddingConfig{config}, config)
	}),
}

var serviceEncodeCmd = &cobra.Command{
	Use:   "encode <text>...",
	Short: "Encode texts into embedding vectors",
	Args:  cobra.MinimumNArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		configID, _ := cmd.Flags().GetString("config")

		response, err := a.client.Encode(ctx, &prodanswer.EncodeRequest{Texts: args, ConfigID: configID})
		if err != nil {
			return err
		}

		t := newTable(fmt.Sprintf("Dimension: %d", response.Dimension), "TEXT", "VECTOR")
		for i, vector := range response.Embeddings {
			text := ""
			if i < len(args) {
				text = args[i]
			}
			t.add(text, vectorPreview(vector))
		}
		return a.out.render(response, t)
	}),
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(serviceInfoCmd, serviceHealthCmd, serviceProvidersCmd, serviceDefaultCmd, serviceEncodeCmd)

	serviceEncodeCmd.Flags().String("config", "", "embedding config id (default config when empty)")
}

func checkCompatibility(a *application, info *prodanswer.ServiceInfo) error {
	constraint := ""
	if a.config.Service != nil {
		constraint = a.config.Service.VersionConstraint
	}
	if err := prodanswer.CheckCompatibility(info, constraint); err != nil {
		return err
	}
	if constraint != "" {
		a.logger.Info("backend version is compatible", zap.String("version", info.Version), zap.String("constraint", constraint))
	}
	return nil
}

func describeModel(model map[string]any) string {
	if len(model) == 0 {
		return ""
	}

	keys := make([]string, 0, len(model))
	for k := range model {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, model[k]))
	}
	return strings.Join(parts, " ")
}

// vectorPreview shows the first values of a vector.
func vectorPreview(v []float64) string {
	const shown = 4

	parts := make([]string, 0, shown+1)
	for i, f := range v {
		if i == shown {
			parts = append(parts, fmt.Sprintf("... (%d values)", len(v)))
			break
		}
		parts = append(parts, fmt.Sprintf("%.4f", f))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
