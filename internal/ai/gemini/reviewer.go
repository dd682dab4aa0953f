package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/prodanswer/internal/ai"
	"github.com/spigell/prodanswer/internal/logger"
	"github.com/spigell/prodanswer/internal/prodanswer"
	"github.com/spigell/prodanswer/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

type Reviewer struct {
	generator contentGenerator
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var systemPrompt string

const defaultMaxLogLength = 200

func NewReviewer(generator contentGenerator, minScore float64, maxLogLength int, log *zap.Logger) *Reviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Reviewer{
		generator: generator,
		minScore:  minScore,
		logger:    logger.WithAIFields(log, "gemini", generator.Model()),
		maxLogLen: maxLogLength,
	}
}

type reviewPayload struct {
	Requirement string         `json:"requirement"`
	Feature     featurePayload `json:"feature"`
}

type featurePayload struct {
	Name        string  `json:"name"`
	Product     string  `json:"product,omitempty"`
	Description string  `json:"description,omitempty"`
	Similarity  float64 `json:"similarity_score"`
	Status      string  `json:"match_status"`
}

func (r *Reviewer) Review(ctx context.Context, record *prodanswer.MatchRecord) (*ai.Assessment, error) {
	if record == nil {
		return nil, fmt.Errorf("match record is required")
	}
	if strings.TrimSpace(record.RequirementItemText) == "" {
		return nil, fmt.Errorf("match record %s has no requirement text", record.ID)
	}

	payload := reviewPayload{
		Requirement: record.RequirementItemText,
		Feature: featurePayload{
			Name:        record.FeatureName,
			Product:     record.ProductName,
			Description: record.FeatureDescription,
			Similarity:  record.SimilarityScore,
			Status:      record.MatchStatus,
		},
	}

	message, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal review payload: %w", err)
	}

	log := r.logger.With(
		zap.String(logger.FieldRequirement, record.Requirement),
		zap.String("requirement_item_id", record.RequirementItem),
		zap.String(logger.FieldFeature, record.Feature),
	)

	log.Debug("gemini review request",
		zap.Int("message_length", utf8.RuneCount(message)),
		zap.String("message_preview", utils.TruncateForLog(string(message), r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, systemPrompt, string(message))
	if err != nil {
		return nil, err
	}

	log.Debug("gemini review response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if r.minScore > 0 && assessment.Score < r.minScore && assessment.Fit {
		log.Debug("set fit to false by score threshold",
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", r.minScore),
		)
		assessment.Fit = false
	}

	assessment.Raw = raw
	return assessment, nil
}

func parseResponse(raw string) (*ai.Assessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &ai.Assessment{
		Fit:    coerceBool(data["fit"]),
		Score:  score,
		Reason: coerceString(data["reason"]),
	}, nil
}

// extractJSON strips markdown fences and any prose around the JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
