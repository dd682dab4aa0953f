// Package filtering narrows down match records before they are shown.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/prodanswer/internal/ai"
	"github.com/spigell/prodanswer/internal/prodanswer"
)

// Filter represents a single filtering step applied to match records.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, records []*prodanswer.MatchRecord) ([]*prodanswer.MatchRecord, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger   *zap.Logger
	Reviewer ai.Reviewer
}

// Step describes the result of executing a filtering step.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
// Zero values leave the corresponding step as a no-op.
type Config struct {
	Statuses []string
	MinScore float64
	Products []string
	Top      int
	AI       *AIConfig
}

// AIConfig stores AI-related configuration used by the filters.
type AIConfig struct {
	Enabled         bool
	Provider        string
	MinimumFitScore float64
	Gemini          *GeminiConfig
}

// GeminiConfig stores Gemini provider configuration.
type GeminiConfig struct {
	Model        string
	MaxRetries   int
	MaxLogLength int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Default returns all steps in the order they are applied.
func Default() []Filter {
	return []Filter{
		NewStatus(),
		NewMinScore(),
		NewProducts(),
		NewTop(),
		NewAIReview(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run applies the enabled steps to the records of result and returns a new
// result regrouped from the records that are left. result itself is not modified.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, result *prodanswer.MatchResult) (*prodanswer.MatchResult, []Step, error) {
	if result == nil {
		return nil, nil, fmt.Errorf("match result is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	records := copyRecords(result.Records())
	reports := make([]Step, 0, len(steps))

	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, records)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
		info.Name = step.Name()

		deps.Logger.Info("filter step",
			zap.String("name", info.Name),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		reports = append(reports, info)
		records = next
	}

	filtered := &prodanswer.MatchResult{
		RequirementID: result.RequirementID,
		Statistics:    result.Statistics,
	}
	filtered.Regroup(records)

	return filtered, reports, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// copyRecords copies the records so steps can annotate them freely.
func copyRecords(records []*prodanswer.MatchRecord) []*prodanswer.MatchRecord {
	copied := make([]*prodanswer.MatchRecord, 0, len(records))
	for _, record := range records {
		c := *record
		copied = append(copied, &c)
	}
	return copied
}

// keep returns the records for which fn is true and the ids of the dropped ones.
func keep(records []*prodanswer.MatchRecord, fn func(*prodanswer.MatchRecord) bool) ([]*prodanswer.MatchRecord, []string) {
	kept := make([]*prodanswer.MatchRecord, 0, len(records))
	var dropped []string
	for _, record := range records {
		if fn(record) {
			kept = append(kept, record)
			continue
		}
		dropped = append(dropped, record.ID)
	}
	return kept, dropped
}

func stepOf(initial int, left []*prodanswer.MatchRecord) Step {
	return Step{Initial: initial, Dropped: initial - len(left), Left: len(left)}
}
