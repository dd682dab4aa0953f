package localstore

import (
	"context"
	"fmt"
	"time"
)

const defaultHistoryLimit = 20

// Analysis is one recorded matching run.
type Analysis struct {
	ID             int64     `db:"id" json:"id"`
	RequirementID  string    `db:"requirement_id" json:"requirement_id"`
	Threshold      *float64  `db:"threshold" json:"threshold,omitempty"`
	Status         string    `db:"status" json:"status"`
	TotalItems     int       `db:"total_items" json:"total_items"`
	Matched        int       `db:"matched" json:"matched"`
	PartialMatched int       `db:"partial_matched" json:"partial_matched"`
	Unmatched      int       `db:"unmatched" json:"unmatched"`
	ProcessingTime float64   `db:"processing_time" json:"processing_time"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

func (s *Store) RecordAnalysis(ctx context.Context, a *Analysis) error {
	if a.RequirementID == "" {
		return fmt.Errorf("recording analysis: requirement id is required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO analysis_history
		(requirement_id, threshold, status, total_items, matched, partial_matched, unmatched, processing_time, created_at)
		VALUES (:requirement_id, :threshold, :status, :total_items, :matched, :partial_matched, :unmatched, :processing_time, :created_at)`

	res, err := s.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("recording analysis for %s: %w", a.RequirementID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading analysis id: %w", err)
	}
	a.ID = id

	return nil
}

// History lists recorded runs newest first. An empty requirementID lists all of them.
func (s *Store) History(ctx context.Context, requirementID string, limit int) ([]*Analysis, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `SELECT * FROM analysis_history`
	args := []any{}
	if requirementID != "" {
		query += ` WHERE requirement_id = ?`
		args = append(args, requirementID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var history []*Analysis
	if err := s.db.SelectContext(ctx, &history, query, args...); err != nil {
		return nil, fmt.Errorf("listing analysis history: %w", err)
	}
	return history, nil
}
