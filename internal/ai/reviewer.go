// Package ai provides an optional second opinion on backend match records.
package ai

import (
	"context"

	"github.com/spigell/prodanswer/internal/prodanswer"
)

type Assessment struct {
	Fit    bool
	Score  float64
	Reason string
	Raw    string
}

// Reviewer decides whether the matched feature really covers the requirement item.
type Reviewer interface {
	Review(ctx context.Context, record *prodanswer.MatchRecord) (*Assessment, error)
}
