package store

import (
	"context"
	"net/url"

	"github.com/spigell/prodanswer/internal/prodanswer"
)

// MatchingAPI is the part of the backend client used by Matching.
type MatchingAPI interface {
	ListRequirements(ctx context.Context, q url.Values) (*prodanswer.Page[*prodanswer.Requirement], error)
	GetRequirement(ctx context.Context, id string) (*prodanswer.Requirement, error)
	CreateRequirement(ctx context.Context, in *prodanswer.RequirementInput) (*prodanswer.Requirement, error)
	UploadRequirement(ctx context.Context, file *prodanswer.Upload, createdBy, title string) (*prodanswer.Requirement, error)
	ProcessRequirement(ctx context.Context, id string) (*prodanswer.ProcessResult, error)
	AnalyzeMatch(ctx context.Context, in *prodanswer.AnalyzeRequest) (*prodanswer.AnalyzeResponse, error)
	GetMatchResults(ctx context.Context, requirementID string) (*prodanswer.MatchResult, error)
}

type Matching struct {
	observable
	api MatchingAPI

	requirements []*prodanswer.Requirement
	current      *prodanswer.Requirement
	results      *prodanswer.MatchResult
}

func NewMatching(api MatchingAPI) *Matching {
	return &Matching{api: api}
}

func (s *Matching) Requirements() []*prodanswer.Requirement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.requirements)
}

func (s *Matching) Current() *prodanswer.Requirement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Matching) MatchResults() *prodanswer.MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

func (s *Matching) FetchRequirements(ctx context.Context, q url.Values) error {
	defer s.startLoading()()

	page, err := s.api.ListRequirements(ctx, q)
	if err != nil {
		return err
	}

	s.update(func() {
		s.requirements = page.Results
		if s.requirements == nil {
			s.requirements = []*prodanswer.Requirement{}
		}
	})
	return nil
}

func (s *Matching) FetchRequirement(ctx context.Context, id string) error {
	defer s.startLoading()()

	requirement, err := s.api.GetRequirement(ctx, id)
	if err != nil {
		return err
	}

	s.update(func() { s.current = requirement })
	return nil
}

// CreateTextRequirement always creates a text requirement regardless of in.RequirementType.
func (s *Matching) CreateTextRequirement(ctx context.Context, in prodanswer.RequirementInput) (*prodanswer.Requirement, error) {
	defer s.startLoading()()

	in.RequirementType = prodanswer.RequirementTypeText
	requirement, err := s.api.CreateRequirement(ctx, &in)
	if err != nil {
		return nil, err
	}

	s.update(func() { s.requirements = prepend(s.requirements, requirement) })
	return requirement, nil
}

func (s *Matching) UploadRequirement(ctx context.Context, file *prodanswer.Upload, createdBy, title string) (*prodanswer.Requirement, error) {
	defer s.startLoading()()

	requirement, err := s.api.UploadRequirement(ctx, file, createdBy, title)
	if err != nil {
		return nil, err
	}

	s.update(func() { s.requirements = prepend(s.requirements, requirement) })
	return requirement, nil
}

// ProcessRequirement asks the backend to embed the items and reloads the requirement.
func (s *Matching) ProcessRequirement(ctx context.Context, id string) (*prodanswer.ProcessResult, error) {
	result, err := func() (*prodanswer.ProcessResult, error) {
		defer s.startLoading()()
		return s.api.ProcessRequirement(ctx, id)
	}()
	if err != nil {
		return nil, err
	}

	if err := s.FetchRequirement(ctx, id); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Matching) AnalyzeMatch(ctx context.Context, in *prodanswer.AnalyzeRequest) (*prodanswer.AnalyzeResponse, error) {
	defer s.startLoading()()
	return s.api.AnalyzeMatch(ctx, in)
}

func (s *Matching) FetchMatchResults(ctx context.Context, requirementID string) (*prodanswer.MatchResult, error) {
	defer s.startLoading()()

	result, err := s.api.GetMatchResults(ctx, requirementID)
	if err != nil {
		return nil, err
	}

	s.update(func() { s.results = result })
	return result, nil
}

func (s *Matching) ClearCurrentRequirement() {
	s.update(func() {
		s.current = nil
		s.results = nil
	})
}
