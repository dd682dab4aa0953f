package prodanswer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strings"
)

const (
	matchingPath = "/v1/matching/"

	MatchStatusMatched        = "matched"
	MatchStatusPartialMatched = "partial_matched"
	MatchStatusUnmatched      = "unmatched"

	ExportExcel = "excel"
	ExportPDF   = "pdf"

	DefaultThreshold = 0.75
	DefaultLimit     = 5
	maxLimit         = 20
)

type MatchRecord struct {
	ID                  string         `json:"id"`
	Requirement         string         `json:"requirement"`
	RequirementItem     string         `json:"requirement_item"`
	RequirementItemText string         `json:"requirement_item_text,omitempty"`
	Feature             string         `json:"feature"`
	FeatureName         string         `json:"feature_name,omitempty"`
	FeatureDescription  string         `json:"feature_description,omitempty"`
	ProductName         string         `json:"product_name,omitempty"`
	SimilarityScore     float64        `json:"similarity_score"`
	MatchStatus         string         `json:"match_status"`
	ThresholdUsed       float64        `json:"threshold_used"`
	Rank                int            `json:"rank"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	CreatedAt           string         `json:"created_at,omitempty"`

	// Review is filled locally by the ai_review filter.
	Review *Review `json:"review,omitempty"`
}

// Review is a local second opinion on a match record.
type Review struct {
	Fit    bool    `json:"fit"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
	Error  string  `json:"error,omitempty"`
}

type MatchGroups struct {
	Matched        []*MatchRecord `json:"matched"`
	PartialMatched []*MatchRecord `json:"partial_matched"`
	Unmatched      []*MatchRecord `json:"unmatched"`
}

type MatchStatistics struct {
	TotalItems     int     `json:"total_items"`
	TotalMatches   int     `json:"total_matches"`
	Matched        int     `json:"matched"`
	PartialMatched int     `json:"partial_matched"`
	Unmatched      int     `json:"unmatched"`
	AvgSimilarity  float64 `json:"avg_similarity"`
	MaxSimilarity  float64 `json:"max_similarity"`
	MinSimilarity  float64 `json:"min_similarity"`
}

type MatchResult struct {
	RequirementID string          `json:"requirement_id"`
	Results       MatchGroups     `json:"results"`
	Statistics    MatchStatistics `json:"statistics"`
}

type AnalyzeRequest struct {
	RequirementID string   `json:"requirement_id"`
	Threshold     *float64 `json:"threshold,omitempty"`
	ProductIDs    []string `json:"product_ids,omitempty"`
	Limit         *int     `json:"limit,omitempty"`
}

type AnalyzeSummary struct {
	RequirementID  string  `json:"requirement_id,omitempty"`
	Status         string  `json:"status,omitempty"`
	TotalItems     int     `json:"total_items"`
	TotalMatches   int     `json:"total_matches"`
	Matched        int     `json:"matched"`
	PartialMatched int     `json:"partial_matched"`
	Unmatched      int     `json:"unmatched"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
}

type AnalyzeResponse struct {
	RequirementID  string         `json:"requirement_id"`
	Status         string         `json:"status"`
	Summary        AnalyzeSummary `json:"summary"`
	ProcessingTime float64        `json:"processing_time"`
}

type ExportRequest struct {
	Format           string `json:"format"`
	IncludeUnmatched *bool  `json:"include_unmatched,omitempty"`
}

// Export is a downloaded match report.
type Export struct {
	ContentType string
	Filename    string
	Data        []byte
}

func (r *AnalyzeRequest) validate() error {
	if strings.TrimSpace(r.RequirementID) == "" {
		return invalidArgument("requirement id is required")
	}
	if r.Threshold != nil && (*r.Threshold < 0 || *r.Threshold > 1) {
		return invalidArgument("threshold must be between 0 and 1, got %v", *r.Threshold)
	}
	if r.Limit != nil && (*r.Limit < 1 || *r.Limit > maxLimit) {
		return invalidArgument("limit must be between 1 and %d, got %d", maxLimit, *r.Limit)
	}
	return nil
}

// AnalyzeMatch runs matching for the requirement on the backend.
func (c *Client) AnalyzeMatch(ctx context.Context, in *AnalyzeRequest) (*AnalyzeResponse, error) {
	if in == nil {
		return nil, invalidArgument("analyze request is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var response AnalyzeResponse
	if err := c.postJSON(ctx, matchingPath, in, &response); err != nil {
		return nil, err
	}

	// The backend nests most fields into summary.
	if response.RequirementID == "" {
		response.RequirementID = response.Summary.RequirementID
	}
	if response.RequirementID == "" {
		response.RequirementID = in.RequirementID
	}
	if response.Status == "" {
		response.Status = response.Summary.Status
	}
	if response.ProcessingTime == 0 {
		response.ProcessingTime = response.Summary.ProcessingTime
	}

	return &response, nil
}

func (c *Client) GetMatchResults(ctx context.Context, requirementID string) (*MatchResult, error) {
	escaped, err := pathID(requirementID)
	if err != nil {
		return nil, err
	}

	var result MatchResult
	if err := c.getJSON(ctx, matchingPath+"results/"+escaped+"/", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetMatchSummary(ctx context.Context, requirementID string) (*MatchStatistics, error) {
	escaped, err := pathID(requirementID)
	if err != nil {
		return nil, err
	}

	var summary MatchStatistics
	if err := c.getJSON(ctx, matchingPath+"results/"+escaped+"/summary/", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ExportMatchResults downloads a report of the match results in the requested format.
func (c *Client) ExportMatchResults(ctx context.Context, requirementID string, in *ExportRequest) (*Export, error) {
	escaped, err := pathID(requirementID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		in = &ExportRequest{Format: ExportExcel}
	}
	if in.Format != ExportExcel && in.Format != ExportPDF {
		return nil, invalidArgument("export format must be %q or %q, got %q", ExportExcel, ExportPDF, in.Format)
	}

	var body strings.Builder
	if err := encodeJSON(&body, in); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, matchingPath+"export/"+escaped+"/", nil, strings.NewReader(body.String()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "*/*")

	resp, reader, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	export := &Export{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		export.Filename = params["filename"]
	}

	return export, nil
}

// IsJSON reports whether the backend answered with a JSON message instead of a file.
func (e *Export) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(e.ContentType)
	return err == nil && mediaType == contentType
}

// Records returns all match records of the result ordered by item and rank.
func (r *MatchResult) Records() []*MatchRecord {
	records := make([]*MatchRecord, 0, r.Len())
	records = append(records, r.Results.Matched...)
	records = append(records, r.Results.PartialMatched...)
	records = append(records, r.Results.Unmatched...)

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RequirementItem != records[j].RequirementItem {
			return records[i].RequirementItem < records[j].RequirementItem
		}
		return records[i].Rank < records[j].Rank
	})
	return records
}

func (r *MatchResult) Len() int {
	return len(r.Results.Matched) + len(r.Results.PartialMatched) + len(r.Results.Unmatched)
}

// Regroup replaces the groups with the given records, keyed by match status.
func (r *MatchResult) Regroup(records []*MatchRecord) {
	groups := MatchGroups{
		Matched:        []*MatchRecord{},
		PartialMatched: []*MatchRecord{},
		Unmatched:      []*MatchRecord{},
	}
	for _, record := range records {
		switch record.MatchStatus {
		case MatchStatusMatched:
			groups.Matched = append(groups.Matched, record)
		case MatchStatusPartialMatched:
			groups.PartialMatched = append(groups.PartialMatched, record)
		default:
			groups.Unmatched = append(groups.Unmatched, record)
		}
	}
	r.Results = groups
}

// ReportByProduct groups records by product name.
func (r *MatchResult) ReportByProduct() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, record := range r.Records() {
		key := record.ProductName
		if key == "" {
			key = "unknown product"
		}
		entry := map[string]string{
			"requirement": record.RequirementItemText,
			"feature":     record.FeatureName,
			"status":      record.MatchStatus,
			"score":       fmt.Sprintf("%.3f", record.SimilarityScore),
		}
		if record.Review != nil {
			if record.Review.Error != "" {
				entry["review_error"] = record.Review.Error
			} else {
				entry["review_fit"] = fmt.Sprintf("%t", record.Review.Fit)
				entry["review_reason"] = record.Review.Reason
			}
		}
		report[key] = append(report[key], entry)
	}
	return report
}
