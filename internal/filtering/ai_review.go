package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/prodanswer/internal/prodanswer"
)

const ProviderGemini = "gemini"

type aiReviewFilter struct {
	base
	config *AIConfig
}

// NewAIReview creates the step asking an AI reviewer about partial matches.
func NewAIReview() Filter {
	return &aiReviewFilter{}
}

func (f *aiReviewFilter) Name() string { return "ai_review" }

func (f *aiReviewFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if !f.IsEnabled() {
		return nil
	}
	if f.config == nil {
		return fmt.Errorf("ai configuration is required when ai review is enabled")
	}
	if provider := strings.TrimSpace(f.config.Provider); provider != "" && provider != ProviderGemini {
		return fmt.Errorf("unsupported ai provider %q", provider)
	}
	if f.config.Gemini == nil || strings.TrimSpace(f.config.Gemini.Model) == "" {
		return fmt.Errorf("gemini model is required when ai review is enabled")
	}
	return nil
}

// Apply reviews partial matches only. Rejected ones are dropped; failures are
// recorded on the record and keep it.
func (f *aiReviewFilter) Apply(ctx context.Context, deps Deps, records []*prodanswer.MatchRecord) ([]*prodanswer.MatchRecord, Step, error) {
	initial := len(records)
	if deps.Reviewer == nil {
		deps.Logger.Info("ai reviewer is not configured; skipping ai_review filter")
		return records, stepOf(initial, records), nil
	}

	kept := make([]*prodanswer.MatchRecord, 0, initial)
	for _, record := range records {
		if record.MatchStatus != prodanswer.MatchStatusPartialMatched {
			kept = append(kept, record)
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, Step{}, err
		}

		assessment, err := deps.Reviewer.Review(ctx, record)
		if err != nil {
			deps.Logger.Warn("AI review failed",
				zap.String("record_id", record.ID),
				zap.Error(err),
			)
			record.Review = &prodanswer.Review{Error: err.Error()}
			kept = append(kept, record)
			continue
		}

		if !assessment.Fit {
			deps.Logger.Info("match rejected by AI reviewer",
				zap.String("record_id", record.ID),
				zap.String("feature", record.FeatureName),
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)
			continue
		}

		record.Review = &prodanswer.Review{
			Fit:    assessment.Fit,
			Score:  assessment.Score,
			Reason: assessment.Reason,
		}
		kept = append(kept, record)
	}

	return kept, stepOf(initial, kept), nil
}

func (f *aiReviewFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["minimum_fit_score"] = fmt.Sprintf("%.2f", f.config.MinimumFitScore)
		if f.config.Gemini != nil {
			details["model"] = f.config.Gemini.Model
			details["max_retries"] = strconv.Itoa(f.config.Gemini.MaxRetries)
			details["max_log_length"] = strconv.Itoa(f.config.Gemini.MaxLogLength)
		}
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
