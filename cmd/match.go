package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/prodanswer/internal/ai"
	"github.com/spigell/prodanswer/internal/ai/gemini"
	"github.com/spigell/prodanswer/internal/filtering"
	"github.com/spigell/prodanswer/internal/localstore"
	"github.com/spigell/prodanswer/internal/logger"
	"github.com/spigell/prodanswer/internal/prodanswer"
	"github.com/spigell/prodanswer/internal/secrets"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:     "match",
	Aliases: []string{"matching"},
	Short:   "Match requirements against product features",
}

var matchAnalyzeCmd = &cobra.Command{
	Use:   "analyze <requirement-id>",
	Short: "Run matching for a processed requirement",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		return analyze(ctx, cmd, a, args[0])
	}),
}

var matchResultsCmd = &cobra.Command{
	Use:   "results <requirement-id>",
	Short: "Show match results, optionally narrowed down by filters",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		return showResults(ctx, cmd, a, args[0])
	}),
}

var matchSummaryCmd = &cobra.Command{
	Use:   "summary <requirement-id>",
	Short: "Show match statistics of a requirement",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		stats, err := a.client.GetMatchSummary(ctx, args[0])
		if err != nil {
			return err
		}
		return a.out.render(stats, statisticsTable(stats))
	}),
}

var matchExportCmd = &cobra.Command{
	Use:   "export <requirement-id>",
	Short: "Download a report of the match results",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		return export(ctx, cmd, a, args[0])
	}),
}

var matchHistoryCmd = &cobra.Command{
	Use:   "history [requirement-id]",
	Short: "List matching runs recorded on this machine",
	Args:  cobra.MaximumNArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		requirementID := strings.Join(args, "")

		history, err := a.local.History(ctx, requirementID, limit)
		if err != nil {
			return err
		}
		return renderHistory(a, history)
	}),
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.AddCommand(matchAnalyzeCmd, matchResultsCmd, matchSummaryCmd, matchExportCmd, matchHistoryCmd)

	matchAnalyzeCmd.Flags().Float64("threshold", 0, "similarity threshold from 0 to 1 (default matching.threshold)")
	matchAnalyzeCmd.Flags().Int("limit", 0, "maximum matches per requirement item (default matching.limit)")
	matchAnalyzeCmd.Flags().StringSlice("product", nil, "only match features of these products (ids or names)")

	matchResultsCmd.Flags().StringSlice("status", nil, "keep records with these statuses: matched, partial_matched, unmatched")
	matchResultsCmd.Flags().Float64("min-score", 0, "drop records below this similarity score")
	matchResultsCmd.Flags().StringSlice("product-name", nil, "keep records of these product names")
	matchResultsCmd.Flags().Int("top", 0, "keep the best N records per requirement item")
	matchResultsCmd.Flags().Bool("ai", false, "ask the AI reviewer about partial matches (default ai.enabled)")
	matchResultsCmd.Flags().Bool("by-product", false, "group the records by product")
	matchResultsCmd.Flags().Bool("filters", false, "show the state of every filter")

	matchExportCmd.Flags().String("format", prodanswer.ExportExcel, "excel or pdf")
	matchExportCmd.Flags().Bool("include-unmatched", true, "include unmatched items")
	matchExportCmd.Flags().StringP("file", "f", "", "output file (default is the name suggested by the backend)")

	matchHistoryCmd.Flags().Int("limit", 0, "number of runs to show")
}

func analyze(ctx context.Context, cmd *cobra.Command, a *application, requirementID string) error {
	threshold := a.config.Matching.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	limit := a.config.Matching.Limit
	if cmd.Flags().Changed("limit") {
		limit, _ = cmd.Flags().GetInt("limit")
	}

	in := &prodanswer.AnalyzeRequest{RequirementID: requirementID}
	if threshold > 0 {
		in.Threshold = &threshold
	}
	if limit > 0 {
		in.Limit = &limit
	}
	products, _ := cmd.Flags().GetStringSlice("product")
	ids, err := productIDs(ctx, a, products)
	if err != nil {
		return err
	}
	in.ProductIDs = ids

	log := a.logger.With(zap.String(logger.FieldRequirement, requirementID))
	log.Info("starting the analysis", zap.Float64("threshold", threshold), zap.Int("limit", limit))

	response, err := a.matching.AnalyzeMatch(ctx, in)
	if err != nil {
		return err
	}

	record := &localstore.Analysis{
		RequirementID:  response.RequirementID,
		Threshold:      in.Threshold,
		Status:         response.Status,
		TotalItems:     response.Summary.TotalItems,
		Matched:        response.Summary.Matched,
		PartialMatched: response.Summary.PartialMatched,
		Unmatched:      response.Summary.Unmatched,
		ProcessingTime: response.ProcessingTime,
	}
	if err := a.local.RecordAnalysis(ctx, record); err != nil {
		log.Warn("recording analysis history", zap.Error(err))
	}

	t := newTable("", "REQUIREMENT", "STATUS", "ITEMS", "MATCHED", "PARTIAL", "UNMATCHED", "TIME")
	t.add(response.RequirementID,
		response.Status,
		itoa(response.Summary.TotalItems),
		itoa(response.Summary.Matched),
		itoa(response.Summary.PartialMatched),
		itoa(response.Summary.Unmatched),
		seconds(response.ProcessingTime),
	)
	return a.out.render(response, t)
}

func showResults(ctx context.Context, cmd *cobra.Command, a *application, requirementID string) error {
	result, err := a.matching.FetchMatchResults(ctx, requirementID)
	if err != nil {
		return err
	}

	cfg := &filtering.Config{}
	cfg.Statuses, _ = cmd.Flags().GetStringSlice("status")
	cfg.MinScore, _ = cmd.Flags().GetFloat64("min-score")
	cfg.Products, _ = cmd.Flags().GetStringSlice("product-name")
	cfg.Top, _ = cmd.Flags().GetInt("top")

	steps := filtering.Default()
	deps := filtering.Deps{Logger: a.logger}

	useAI := a.config.AI != nil && a.config.AI.Enabled
	if cmd.Flags().Changed("ai") {
		useAI, _ = cmd.Flags().GetBool("ai")
	}

	if useAI {
		reviewer, aiConfig, err := newReviewer(ctx, a.config.AI, a.logger)
		if err != nil {
			a.logger.Warn("skipping AI filter", zap.Error(err),
				zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
			)
			filtering.DisableByName(steps, "ai_review", err.Error())
		} else {
			deps.Reviewer = reviewer
			cfg.AI = aiConfig
		}
	} else {
		filtering.DisableByName(steps, "ai_review", "ai is disabled")
	}

	filtered, reports, err := filtering.Run(ctx, cfg, deps, steps, result)
	if err != nil {
		return err
	}

	if show, _ := cmd.Flags().GetBool("filters"); show && a.out.format == outputTable {
		if err := a.out.render(nil, filtersTable(steps, reports)); err != nil {
			return err
		}
		fmt.Fprintln(a.out.w)
	}

	if byProduct, _ := cmd.Flags().GetBool("by-product"); byProduct {
		return renderByProduct(a, filtered)
	}
	return renderMatchResult(a, filtered)
}

// newReviewer builds the Gemini reviewer from the ai section of the configuration.
func newReviewer(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Reviewer, *filtering.AIConfig, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("ai section is not configured")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != filtering.ProviderGemini {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  gcfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
		Value: gcfg.APIKey,
	})
	if err != nil {
		return nil, nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model, gcfg.MaxRetries, log.With(zap.Int("ai_retry_attempts", gcfg.MaxRetries)))
	if err != nil {
		return nil, nil, err
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	reviewer := gemini.NewReviewer(generator, minScore, gcfg.MaxLogLength, log.With(zap.Float64("minimum_fit_score", minScore)))

	return reviewer, &filtering.AIConfig{
		Enabled:         true,
		Provider:        filtering.ProviderGemini,
		MinimumFitScore: minScore,
		Gemini: &filtering.GeminiConfig{
			Model:        generator.Model(),
			MaxRetries:   gcfg.MaxRetries,
			MaxLogLength: gcfg.MaxLogLength,
		},
	}, nil
}

func export(ctx context.Context, cmd *cobra.Command, a *application, requirementID string) error {
	in := &prodanswer.ExportRequest{}
	in.Format, _ = cmd.Flags().GetString("format")
	includeUnmatched, _ := cmd.Flags().GetBool("include-unmatched")
	in.IncludeUnmatched = &includeUnmatched

	exported, err := a.client.ExportMatchResults(ctx, requirementID, in)
	if err != nil {
		return err
	}

	// Formats the backend has not implemented yet answer with a JSON message.
	if exported.IsJSON() {
		a.logger.Warn("backend returned a message instead of a report", zap.String("body", string(exported.Data)))
		return nil
	}

	name, _ := cmd.Flags().GetString("file")
	if name == "" {
		name = exportName(exported, requirementID, in.Format)
	}

	if err := os.WriteFile(name, exported.Data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	a.logger.Info("report saved",
		zap.String("filename", name),
		zap.String("content_type", exported.ContentType),
		zap.Int("bytes", len(exported.Data)),
	)
	return nil
}

func exportName(e *prodanswer.Export, requirementID, format string) string {
	if e.Filename != "" {
		switch name := filepath.Base(e.Filename); name {
		case ".", "..", string(filepath.Separator):
		default:
			return name
		}
	}

	ext := ".xlsx"
	if format == prodanswer.ExportPDF {
		ext = ".pdf"
	}
	return fmt.Sprintf("match_results_%s_%s%s", requirementID, time.Now().Format("20060102_150405"), ext)
}

// productIDs accepts product ids or names. Names are looked up in the catalogue,
// anything else is passed through as an id.
func productIDs(ctx context.Context, a *application, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	products, err := a.client.ListAllProducts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("resolving products: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if p := products.FindByName(strings.TrimSpace(v)); p != nil {
			a.logger.Debug("resolved product by name", zap.String("name", v), zap.String("id", p.ID))
			ids = append(ids, p.ID)
			continue
		}
		ids = append(ids, v)
	}
	return ids, nil
}

func seconds(f float64) string {
	return fmt.Sprintf("%.2fs", f)
}
