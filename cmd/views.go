package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spigell/prodanswer/internal/filtering"
	"github.com/spigell/prodanswer/internal/localstore"
	"github.com/spigell/prodanswer/internal/prodanswer"
	"github.com/spigell/prodanswer/internal/utils"
)

func renderProducts(a *application, products []*prodanswer.Product, total int) error {
	t := newTable(fmt.Sprintf("Products: %d", total), "ID", "NAME", "VERSION", "VENDOR", "CATEGORY", "FEATURES", "ACTIVE", "UPDATED")
	for _, p := range products {
		t.add(p.ID, p.Name, p.Version, p.Vendor, p.Category, itoa(p.FeaturesCount), yesNo(p.IsActive), when(p.UpdatedAt))
	}

	return a.out.render(map[string]any{"count": total, "results": products}, t)
}

func renderProduct(a *application, p *prodanswer.Product, features []*prodanswer.Feature) error {
	details := newTable(p.Name)
	details.add("ID", p.ID)
	details.add("Version", p.Version)
	details.add("Vendor", p.Vendor)
	details.add("Category", p.Category)
	details.add("Description", p.Description)
	details.add("Active", yesNo(p.IsActive))
	details.add("Created", when(p.CreatedAt))
	details.add("Updated", when(p.UpdatedAt))

	view := struct {
		Product  *prodanswer.Product   `json:"product"`
		Features []*prodanswer.Feature `json:"features,omitempty"`
	}{p, features}

	if features == nil {
		return a.out.render(view, details)
	}
	return a.out.render(view, details, featuresTable(features))
}

func featuresTable(features []*prodanswer.Feature) *table {
	t := newTable(fmt.Sprintf("Features: %d", len(features)), "ID", "CODE", "NAME", "PRODUCT", "CATEGORY", "IMPORTANCE", "ACTIVE")
	for _, f := range features {
		t.add(f.ID, f.FeatureCode, f.FeatureName, f.ProductName, f.Category, itoa(f.ImportanceLevel), yesNo(f.IsActive))
	}
	return t
}

func renderFeatures(a *application, features []*prodanswer.Feature) error {
	return a.out.render(features, featuresTable(features))
}

func renderFeature(a *application, f *prodanswer.Feature) error {
	details := newTable(f.FeatureName)
	details.add("ID", f.ID)
	details.add("Code", f.FeatureCode)
	details.add("Product", f.ProductName)
	details.add("Category", strings.Trim(f.Category+" / "+f.Subcategory, " /"))
	details.add("Importance", itoa(f.ImportanceLevel))
	details.add("Description", f.Description)
	details.add("Active", yesNo(f.IsActive))
	details.add("Updated", when(f.UpdatedAt))
	return a.out.render(f, details)
}

func renderRequirements(a *application, requirements []*prodanswer.Requirement) error {
	t := newTable("", "ID", "TITLE", "TYPE", "STATUS", "ITEMS", "CREATED BY", "CREATED")
	for _, r := range requirements {
		title := r.Title
		if title == "" {
			title = r.SourceFileName
		}
		t.add(r.ID, title, r.RequirementType, r.Status, itoa(r.ItemsCount), r.CreatedBy, when(r.CreatedAt))
	}
	return a.out.render(requirements, t)
}

func renderRequirement(a *application, r *prodanswer.Requirement) error {
	if r == nil {
		return fmt.Errorf("requirement is not loaded")
	}

	details := newTable(r.Title)
	details.add("ID", r.ID)
	details.add("Type", r.RequirementType)
	details.add("Status", r.Status)
	details.add("Source file", r.SourceFileName)
	details.add("Created by", r.CreatedBy)
	details.add("Created", when(r.CreatedAt))
	if r.RequirementText != "" {
		details.add("Text", r.RequirementText)
	}

	items := newTable(fmt.Sprintf("Items: %d", len(r.Items)), "#", "TEXT")
	for _, item := range r.Items {
		items.add(itoa(item.ItemOrder), item.ItemText)
	}

	return a.out.render(r, details, items)
}

func statisticsTable(s *prodanswer.MatchStatistics) *table {
	t := newTable("", "ITEMS", "MATCHES", "MATCHED", "PARTIAL", "UNMATCHED", "AVG", "MAX", "MIN")
	t.add(itoa(s.TotalItems), itoa(s.TotalMatches), itoa(s.Matched), itoa(s.PartialMatched), itoa(s.Unmatched),
		score(s.AvgSimilarity), score(s.MaxSimilarity), score(s.MinSimilarity))
	return t
}

func renderMatchResult(a *application, result *prodanswer.MatchResult) error {
	records := newTable(fmt.Sprintf("Records: %d", result.Len()), "REQUIREMENT", "RANK", "PRODUCT", "FEATURE", "SCORE", "STATUS", "REVIEW")
	for _, r := range result.Records() {
		records.add(r.RequirementItemText, itoa(r.Rank), r.ProductName, r.FeatureName, score(r.SimilarityScore), r.MatchStatus, review(r.Review))
	}
	return a.out.render(result, statisticsTable(&result.Statistics), records)
}

func review(r *prodanswer.Review) string {
	switch {
	case r == nil:
		return ""
	case r.Error != "":
		return "error: " + r.Error
	default:
		return fmt.Sprintf("%s %s %s", yesNo(r.Fit), score(r.Score), r.Reason)
	}
}

func renderByProduct(a *application, result *prodanswer.MatchResult) error {
	report := result.ReportByProduct()

	products := make([]string, 0, len(report))
	for name := range report {
		products = append(products, name)
	}
	sort.Strings(products)

	tables := make([]*table, 0, len(products))
	for _, name := range products {
		t := newTable(fmt.Sprintf("%s: %d", name, len(report[name])), "REQUIREMENT", "FEATURE", "SCORE", "STATUS")
		for _, entry := range report[name] {
			t.add(entry["requirement"], entry["feature"], entry["score"], entry["status"])
		}
		tables = append(tables, t)
	}

	return a.out.render(report, tables...)
}

func filtersTable(steps []filtering.Filter, reports []filtering.Step) *table {
	applied := make(map[string]filtering.Step, len(reports))
	for _, r := range reports {
		applied[r.Name] = r
	}

	t := newTable("Filters", "NAME", "ENABLED", "INITIAL", "DROPPED", "LEFT", "DETAILS")
	for _, status := range filtering.Describe(steps) {
		details := status.Reason
		if details == "" {
			keys := make([]string, 0, len(status.Details))
			for k := range status.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+"="+status.Details[k])
			}
			details = strings.Join(parts, " ")
		}

		step, ok := applied[status.Name]
		if !ok {
			t.add(status.Name, yesNo(status.Enabled), "", "", "", details)
			continue
		}
		t.add(status.Name, yesNo(status.Enabled), itoa(step.Initial), itoa(step.Dropped), itoa(step.Left), details)
	}
	return t
}

func renderConfigs(a *application, configs []*prodanswer.EmbeddingConfig, def *prodanswer.EmbeddingConfig) error {
	t := newTable("", "ID", "MODEL", "TYPE", "PROVIDER", "DIMENSION", "ACTIVE", "DEFAULT", "API KEY")
	for _, c := range configs {
		isDefault := c.IsDefault || (def != nil && def.ID == c.ID)
		provider := c.ProviderNameDisplay
		if provider == "" {
			provider = c.ProviderName
		}
		if provider == "" {
			provider = c.Provider
		}
		t.add(c.ID, c.ModelName, c.ModelType, provider, itoa(c.Dimension), yesNo(c.IsActive), yesNo(isDefault), yesNo(c.HasAPIKey))
	}

	view := struct {
		Configs []*prodanswer.EmbeddingConfig `json:"configs"`
		Default *prodanswer.EmbeddingConfig   `json:"default,omitempty"`
	}{configs, def}

	return a.out.render(view, t)
}

func historyTable(history []*localstore.Analysis) *table {
	t := newTable("Recent analyses", "REQUIREMENT", "STATUS", "THRESHOLD", "ITEMS", "MATCHED", "PARTIAL", "UNMATCHED", "TIME", "WHEN")
	for _, h := range history {
		threshold := "default"
		if h.Threshold != nil {
			threshold = score(*h.Threshold)
		}
		t.add(h.RequirementID, h.Status, threshold, itoa(h.TotalItems), itoa(h.Matched), itoa(h.PartialMatched),
			itoa(h.Unmatched), seconds(h.ProcessingTime), utils.FormatDateShort(h.CreatedAt.Format(time.RFC3339)))
	}
	return t
}

func renderHistory(a *application, history []*localstore.Analysis) error {
	return a.out.render(history, historyTable(history))
}
