package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/prodanswer/internal/prodanswer"
)

type stubGenerator struct {
	response    string
	err         error
	lastSystem  string
	lastMessage string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.lastSystem = system
	s.lastMessage = message
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func record() *prodanswer.MatchRecord {
	return &prodanswer.MatchRecord{
		ID:                  "m1",
		RequirementItem:     "i1",
		RequirementItemText: "Users sign in with corporate SSO",
		Feature:             "f1",
		FeatureName:         "SAML 2.0 login",
		ProductName:         "Core",
		SimilarityScore:     0.71,
		MatchStatus:         prodanswer.MatchStatusPartialMatched,
	}
}

func TestReviewerReview(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"fit\": true, \"score\": 0.9, \"reason\": \"SAML is SSO\"}\n```"}
	reviewer := NewReviewer(stub, 0.5, 0, zap.NewNop())

	assessment, err := reviewer.Review(context.Background(), record())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !assessment.Fit || assessment.Score != 0.9 || assessment.Reason != "SAML is SSO" {
		t.Fatalf("unexpected assessment %+v", assessment)
	}
	if assessment.Raw == "" {
		t.Fatalf("expected raw response to be kept")
	}
	if !strings.Contains(stub.lastMessage, "corporate SSO") || !strings.Contains(stub.lastMessage, "SAML 2.0 login") {
		t.Fatalf("expected requirement and feature in message, got %s", stub.lastMessage)
	}
	if strings.TrimSpace(stub.lastSystem) == "" {
		t.Fatalf("expected system prompt to be sent")
	}
}

func TestReviewerMinScore(t *testing.T) {
	stub := &stubGenerator{response: `{"fit": "yes", "score": "0.4", "reason": "weak"}`}
	reviewer := NewReviewer(stub, 0.6, 0, zap.NewNop())

	assessment, err := reviewer.Review(context.Background(), record())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessment.Fit {
		t.Fatalf("expected fit to be overridden below minimum score")
	}
	if assessment.Score != 0.4 {
		t.Fatalf("expected coerced score 0.4, got %v", assessment.Score)
	}
}

func TestReviewerErrors(t *testing.T) {
	t.Run("generator error", func(t *testing.T) {
		stub := &stubGenerator{err: errors.New("quota")}
		if _, err := NewReviewer(stub, 0, 0, nil).Review(context.Background(), record()); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		stub := &stubGenerator{response: "I think it fits"}
		if _, err := NewReviewer(stub, 0, 0, nil).Review(context.Background(), record()); err == nil {
			t.Fatalf("expected parse error")
		}
	})

	t.Run("no requirement text", func(t *testing.T) {
		stub := &stubGenerator{response: `{"fit":true}`}
		rec := record()
		rec.RequirementItemText = ""
		if _, err := NewReviewer(stub, 0, 0, nil).Review(context.Background(), rec); err == nil {
			t.Fatalf("expected error")
		}
		if stub.lastMessage != "" {
			t.Fatalf("generator must not be called")
		}
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"fit":true}`, want: `{"fit":true}`},
		{in: "```json\n{\"fit\":true}\n```", want: `{"fit":true}`},
		{in: "Here you go: {\"fit\":false} hope it helps", want: `{"fit":false}`},
	}

	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Fatalf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
