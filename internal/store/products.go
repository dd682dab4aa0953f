package store

import (
	"context"
	"net/url"

	"github.com/spigell/prodanswer/internal/prodanswer"
)

// ProductsAPI is the part of the backend client used by Products.
type ProductsAPI interface {
	ListProducts(ctx context.Context, q url.Values) (*prodanswer.Page[*prodanswer.Product], error)
	GetProduct(ctx context.Context, id string) (*prodanswer.Product, error)
	GetProductFeatures(ctx context.Context, productID string, q url.Values) (*prodanswer.ProductFeatures, error)
	CreateProduct(ctx context.Context, in *prodanswer.ProductInput) (*prodanswer.Product, error)
	UpdateProduct(ctx context.Context, id string, in *prodanswer.ProductInput) (*prodanswer.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AddFeature(ctx context.Context, productID string, in *prodanswer.FeatureInput) (*prodanswer.Feature, error)
	DeleteFeature(ctx context.Context, id string) error
	GenerateFeatureEmbedding(ctx context.Context, id, configID string) (*prodanswer.EmbeddingResult, error)
	GenerateEmbeddingsBatch(ctx context.Context, in *prodanswer.BatchEmbeddingRequest) (*prodanswer.BatchEmbeddingResult, error)
}

type Products struct {
	observable
	api ProductsAPI

	products []*prodanswer.Product
	current  *prodanswer.Product
	features []*prodanswer.Feature
	total    int
}

func NewProducts(api ProductsAPI) *Products {
	return &Products{api: api}
}

func (s *Products) Products() []*prodanswer.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.products)
}

func (s *Products) Current() *prodanswer.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Products) Features() []*prodanswer.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.features)
}

func (s *Products) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Products) FetchProducts(ctx context.Context, q url.Values) error {
	defer s.startLoading()()

	page, err := s.api.ListProducts(ctx, q)
	if err != nil {
		return err
	}

	s.update(func() {
		s.products = page.Results
		if s.products == nil {
			s.products = []*prodanswer.Product{}
		}
		s.total = page.Count
	})
	return nil
}

func (s *Products) FetchProduct(ctx context.Context, id string) error {
	defer s.startLoading()()

	product, err := s.api.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	s.update(func() { s.current = product })
	return nil
}

func (s *Products) FetchFeatures(ctx context.Context, productID string, q url.Values) error {
	defer s.startLoading()()

	response, err := s.api.GetProductFeatures(ctx, productID, q)
	if err != nil {
		return err
	}

	s.update(func() {
		s.features = response.Features
		if s.features == nil {
			s.features = []*prodanswer.Feature{}
		}
	})
	return nil
}

func (s *Products) CreateProduct(ctx context.Context, in *prodanswer.ProductInput) (*prodanswer.Product, error) {
	product, err := s.api.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}

	s.update(func() { s.products = prepend(s.products, product) })
	return product, nil
}

func (s *Products) UpdateProduct(ctx context.Context, id string, in *prodanswer.ProductInput) (*prodanswer.Product, error) {
	product, err := s.api.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}

	s.update(func() {
		for i, p := range s.products {
			if p.ID == id {
				s.products[i] = product
				break
			}
		}
		if s.current != nil && s.current.ID == id {
			s.current = product
		}
	})
	return product, nil
}

func (s *Products) DeleteProduct(ctx context.Context, id string) error {
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.update(func() {
		kept := s.products[:0:0]
		for _, p := range s.products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.products = kept
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
	})
	return nil
}

// AddFeature creates the feature and reloads the product features from the backend.
func (s *Products) AddFeature(ctx context.Context, productID string, in *prodanswer.FeatureInput) (*prodanswer.Feature, error) {
	feature, err := s.api.AddFeature(ctx, productID, in)
	if err != nil {
		return nil, err
	}

	if productID != "" {
		if err := s.FetchFeatures(ctx, productID, nil); err != nil {
			return feature, err
		}
	}
	return feature, nil
}

func (s *Products) DeleteFeature(ctx context.Context, id string) error {
	if err := s.api.DeleteFeature(ctx, id); err != nil {
		return err
	}

	s.update(func() {
		kept := s.features[:0:0]
		for _, f := range s.features {
			if f.ID != id {
				kept = append(kept, f)
			}
		}
		s.features = kept
	})
	return nil
}

// GenerateFeatureEmbedding refreshes the features of the current product
// so their embedding state is up to date.
func (s *Products) GenerateFeatureEmbedding(ctx context.Context, featureID, configID string) (*prodanswer.EmbeddingResult, error) {
	result, err := s.api.GenerateFeatureEmbedding(ctx, featureID, configID)
	if err != nil {
		return nil, err
	}

	if current := s.Current(); current != nil {
		if err := s.FetchFeatures(ctx, current.ID, nil); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *Products) GenerateEmbeddingsBatch(ctx context.Context, in *prodanswer.BatchEmbeddingRequest) (*prodanswer.BatchEmbeddingResult, error) {
	result, err := s.api.GenerateEmbeddingsBatch(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.ProductID != "" {
		if err := s.FetchFeatures(ctx, in.ProductID, nil); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *Products) ClearCurrentProduct() {
	s.update(func() {
		s.current = nil
		s.features = []*prodanswer.Feature{}
	})
}
