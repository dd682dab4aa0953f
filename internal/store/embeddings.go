package store

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/spigell/prodanswer/internal/prodanswer"
)

// EmbeddingsAPI is the part of the backend client used by Embeddings.
type EmbeddingsAPI interface {
	ListConfigs(ctx context.Context, q url.Values) (*prodanswer.Page[*prodanswer.EmbeddingConfig], error)
	DefaultProvider(ctx context.Context) (*prodanswer.EmbeddingConfig, error)
	CreateConfig(ctx context.Context, in *prodanswer.EmbeddingConfigInput) (*prodanswer.EmbeddingConfig, error)
	UpdateConfig(ctx context.Context, id string, in *prodanswer.EmbeddingConfigInput) (*prodanswer.EmbeddingConfig, error)
	DeleteConfig(ctx context.Context, id string) error
	SetDefault(ctx context.Context, id string) (*prodanswer.SetDefaultResult, error)
	TestConnection(ctx context.Context, id string) (*prodanswer.ConnectionTest, error)
}

type Embeddings struct {
	observable
	api    EmbeddingsAPI
	logger *zap.Logger

	configs []*prodanswer.EmbeddingConfig
	def     *prodanswer.EmbeddingConfig
}

func NewEmbeddings(api EmbeddingsAPI, logger *zap.Logger) *Embeddings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embeddings{api: api, logger: logger}
}

func (s *Embeddings) Configs() []*prodanswer.EmbeddingConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.configs)
}

func (s *Embeddings) Default() *prodanswer.EmbeddingConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.def
}

func (s *Embeddings) FetchConfigs(ctx context.Context, q url.Values) error {
	defer s.startLoading()()

	page, err := s.api.ListConfigs(ctx, q)
	if err != nil {
		return err
	}

	s.update(func() {
		s.configs = page.Results
		if s.configs == nil {
			s.configs = []*prodanswer.EmbeddingConfig{}
		}
	})
	return nil
}

// FetchDefaultConfig loads the default provider. Failures only get logged
// and keep the previous value.
func (s *Embeddings) FetchDefaultConfig(ctx context.Context) {
	config, err := s.api.DefaultProvider(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch default config", zap.Error(err))
		return
	}

	s.update(func() { s.def = config })
}

func (s *Embeddings) CreateConfig(ctx context.Context, in *prodanswer.EmbeddingConfigInput) (*prodanswer.EmbeddingConfig, error) {
	config, err := s.api.CreateConfig(ctx, in)
	if err != nil {
		return nil, err
	}

	s.update(func() { s.configs = prepend(s.configs, config) })
	return config, nil
}

func (s *Embeddings) UpdateConfig(ctx context.Context, id string, in *prodanswer.EmbeddingConfigInput) (*prodanswer.EmbeddingConfig, error) {
	config, err := s.api.UpdateConfig(ctx, id, in)
	if err != nil {
		return nil, err
	}

	s.update(func() {
		for i, c := range s.configs {
			if c.ID == id {
				s.configs[i] = config
				break
			}
		}
		if s.def != nil && s.def.ID == id {
			s.def = config
		}
	})
	return config, nil
}

func (s *Embeddings) DeleteConfig(ctx context.Context, id string) error {
	if err := s.api.DeleteConfig(ctx, id); err != nil {
		return err
	}

	s.update(func() {
		kept := s.configs[:0:0]
		for _, c := range s.configs {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		s.configs = kept
		if s.def != nil && s.def.ID == id {
			s.def = nil
		}
	})
	return nil
}

// SetDefault marks the config as default and reloads configs and the default provider.
func (s *Embeddings) SetDefault(ctx context.Context, id string) (*prodanswer.SetDefaultResult, error) {
	result, err := s.api.SetDefault(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.FetchConfigs(ctx, nil); err != nil {
		return result, err
	}
	s.FetchDefaultConfig(ctx)

	return result, nil
}

func (s *Embeddings) TestConnection(ctx context.Context, id string) (*prodanswer.ConnectionTest, error) {
	return s.api.TestConnection(ctx, id)
}
