package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/prodanswer/internal/prodanswer"
)

var knownStatuses = map[string]bool{
	prodanswer.MatchStatusMatched:        true,
	prodanswer.MatchStatusPartialMatched: true,
	prodanswer.MatchStatusUnmatched:      true,
}

// base implements the enable/disable bookkeeping shared by the steps.
type base struct {
	disabled bool
	reason   string
}

func (b *base) Disable(reason string) {
	b.disabled = true
	b.reason = reason
}

func (b *base) IsEnabled() bool { return !b.disabled }

type statusFilter struct {
	base
	statuses []string
}

// NewStatus creates a filter that keeps records with the configured match statuses.
func NewStatus() Filter {
	return &statusFilter{}
}

func (f *statusFilter) Name() string { return "status" }

func (f *statusFilter) Validate(cfg *Config) error {
	f.statuses = nil
	if cfg == nil {
		return nil
	}
	for _, status := range cfg.Statuses {
		status = strings.ToLower(strings.TrimSpace(status))
		if status == "" {
			continue
		}
		if !knownStatuses[status] {
			return fmt.Errorf("unknown match status %q", status)
		}
		f.statuses = append(f.statuses, status)
	}
	return nil
}

func (f *statusFilter) Apply(_ context.Context, deps Deps, records []*prodanswer.MatchRecord) ([]*prodanswer.MatchRecord, Step, error) {
	initial := len(records)
	if len(f.statuses) == 0 {
		return records, stepOf(initial, records), nil
	}

	allowed := make(map[string]bool, len(f.statuses))
	for _, status := range f.statuses {
		allowed[status] = true
	}

	kept, dropped := keep(records, func(r *prodanswer.MatchRecord) bool { return allowed[r.MatchStatus] })
	if len(dropped) > 0 {
		deps.Logger.Debug("excluding records by status",
			zap.Strings("statuses", f.statuses),
			zap.Strings("excluded_records", dropped),
		)
	}

	return kept, stepOf(initial, kept), nil
}

func (f *statusFilter) Status() Status {
	details := map[string]string{}
	if len(f.statuses) > 0 {
		details["statuses"] = strings.Join(f.statuses, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type minScoreFilter struct {
	base
	min float64
}

// NewMinScore creates a filter that drops records below a similarity score.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.min = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinScore < 0 || cfg.MinScore > 1 {
		return fmt.Errorf("minimum score must be between 0 and 1, got %v", cfg.MinScore)
	}
	f.min = cfg.MinScore
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, records []*prodanswer.MatchRecord) ([]*prodanswer.MatchRecord, Step, error) {
	initial := len(records)
	if f.min == 0 {
		return records, stepOf(initial, records), nil
	}

	kept, dropped := keep(records, func(r *prodanswer.MatchRecord) bool { return r.SimilarityScore >= f.min })
	if len(dropped) > 0 {
		deps.Logger.Debug("excluding records below minimum score",
			zap.Float64("min_score", f.min),
			zap.Strings("excluded_records", dropped),
		)
	}

	return kept, stepOf(initial, kept), nil
}

func (f *minScoreFilter) Status() Status {
	details := map[string]string{}
	if f.min > 0 {
		details["min_score"] = strconv.FormatFloat(f.min, 'f', 2, 64)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type productsFilter struct {
	base
	products []string
}

// NewProducts creates a filter that keeps records of the configured products only.
func NewProducts() Filter {
	return &productsFilter{}
}

func (f *productsFilter) Name() string { return "products" }

func (f *productsFilter) Validate(cfg *Config) error {
	f.products = nil
	if cfg == nil {
		return nil
	}
	for _, product := range cfg.Products {
		if product = strings.TrimSpace(product); product != "" {
			f.products = append(f.products, product)
		}
	}
	return nil
}

func (f *productsFilter) Apply(_ context.Context, deps Deps, records []*prodanswer.MatchRecord) ([]*prodanswer.MatchRecord, Step, error) {
	initial := len(records)
	if len(f.products) == 0 {
		return records, stepOf(initial, records), nil
	}

	kept, dropped := keep(records, func(r *prodanswer.MatchRecord) bool {
		for _, product := range f.products {
			if strings.EqualFold(r.ProductName, product) {
				return true
			}
		}
		return false
	})
	if len(dropped) > 0 {
		deps.Logger.Debug("excluding records by product",
			zap.Strings("products", f.products),
			zap.Strings("excluded_records", dropped),
		)
	}

	return kept, stepOf(initial, kept), nil
}

func (f *productsFilter) Status() Status {
	details := map[string]string{}
	if len(f.products) > 0 {
		details["products"] = strings.Join(f.products, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type topFilter struct {
	base
	top int
}

// NewTop creates a filter that keeps the best ranked records of each requirement item.
func NewTop() Filter {
	return &topFilter{}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Validate(cfg *Config) error {
	f.top = 0
	if cfg == nil {
		return nil
	}
	if cfg.Top < 0 {
		return fmt.Errorf("top must not be negative, got %d", cfg.Top)
	}
	f.top = cfg.Top
	return nil
}

// Apply expects records ordered by item and rank, as MatchResult.Records returns them.
func (f *topFilter) Apply(_ context.Context, _ Deps, records []*prodanswer.MatchRecord) ([]*prodanswer.MatchRecord, Step, error) {
	initial := len(records)
	if f.top == 0 {
		return records, stepOf(initial, records), nil
	}

	seen := make(map[string]int)
	kept, _ := keep(records, func(r *prodanswer.MatchRecord) bool {
		seen[r.RequirementItem]++
		return seen[r.RequirementItem] <= f.top
	})

	return kept, stepOf(initial, kept), nil
}

func (f *topFilter) Status() Status {
	details := map[string]string{}
	if f.top > 0 {
		details["top"] = strconv.Itoa(f.top)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
