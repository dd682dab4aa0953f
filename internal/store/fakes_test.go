package store

import (
	"context"
	"net/url"

	"github.com/spigell/prodanswer/internal/prodanswer"
)

type fakeProductsAPI struct {
	products      []*prodanswer.Product
	features      []*prodanswer.Feature
	err           error
	featureFetches []string
}

func (f *fakeProductsAPI) ListProducts(context.Context, url.Values) (*prodanswer.Page[*prodanswer.Product], error) {
	if f.err != nil {
		return nil, f.err
	}
	return &prodanswer.Page[*prodanswer.Product]{Count: 42, Results: f.products}, nil
}

func (f *fakeProductsAPI) GetProduct(_ context.Context, id string) (*prodanswer.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &prodanswer.Product{ID: id, Name: "Product " + id}, nil
}

func (f *fakeProductsAPI) GetProductFeatures(_ context.Context, productID string, _ url.Values) (*prodanswer.ProductFeatures, error) {
	f.featureFetches = append(f.featureFetches, productID)
	return &prodanswer.ProductFeatures{ProductID: productID, Features: f.features}, nil
}

func (f *fakeProductsAPI) CreateProduct(_ context.Context, in *prodanswer.ProductInput) (*prodanswer.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &prodanswer.Product{ID: "new", Name: in.Name}, nil
}

func (f *fakeProductsAPI) UpdateProduct(_ context.Context, id string, in *prodanswer.ProductInput) (*prodanswer.Product, error) {
	return &prodanswer.Product{ID: id, Name: in.Name}, nil
}

func (f *fakeProductsAPI) DeleteProduct(context.Context, string) error {
	return f.err
}

func (f *fakeProductsAPI) AddFeature(_ context.Context, productID string, in *prodanswer.FeatureInput) (*prodanswer.Feature, error) {
	feature := &prodanswer.Feature{ID: "f-new", Product: productID, FeatureName: in.FeatureName}
	f.features = append(f.features, feature)
	return feature, nil
}

func (f *fakeProductsAPI) DeleteFeature(context.Context, string) error {
	return f.err
}

func (f *fakeProductsAPI) GenerateFeatureEmbedding(_ context.Context, id, _ string) (*prodanswer.EmbeddingResult, error) {
	return &prodanswer.EmbeddingResult{Status: "success", FeatureID: id}, nil
}

func (f *fakeProductsAPI) GenerateEmbeddingsBatch(context.Context, *prodanswer.BatchEmbeddingRequest) (*prodanswer.BatchEmbeddingResult, error) {
	return &prodanswer.BatchEmbeddingResult{Status: "completed"}, nil
}

type fakeMatchingAPI struct {
	created   *prodanswer.RequirementInput
	analyzed  *prodanswer.AnalyzeRequest
	results   *prodanswer.MatchResult
	processed []string
	err       error
}

func (f *fakeMatchingAPI) ListRequirements(context.Context, url.Values) (*prodanswer.Page[*prodanswer.Requirement], error) {
	if f.err != nil {
		return nil, f.err
	}
	return &prodanswer.Page[*prodanswer.Requirement]{Count: 1, Results: []*prodanswer.Requirement{{ID: "r0"}}}, nil
}

func (f *fakeMatchingAPI) GetRequirement(_ context.Context, id string) (*prodanswer.Requirement, error) {
	return &prodanswer.Requirement{ID: id, Status: prodanswer.RequirementCompleted}, nil
}

func (f *fakeMatchingAPI) CreateRequirement(_ context.Context, in *prodanswer.RequirementInput) (*prodanswer.Requirement, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &prodanswer.Requirement{ID: "r1", RequirementType: in.RequirementType}, nil
}

func (f *fakeMatchingAPI) UploadRequirement(_ context.Context, file *prodanswer.Upload, _, _ string) (*prodanswer.Requirement, error) {
	return &prodanswer.Requirement{ID: "r2", SourceFileName: file.Name, RequirementType: prodanswer.RequirementTypeFile}, nil
}

func (f *fakeMatchingAPI) ProcessRequirement(_ context.Context, id string) (*prodanswer.ProcessResult, error) {
	f.processed = append(f.processed, id)
	return &prodanswer.ProcessResult{Status: "success"}, nil
}

func (f *fakeMatchingAPI) AnalyzeMatch(_ context.Context, in *prodanswer.AnalyzeRequest) (*prodanswer.AnalyzeResponse, error) {
	f.analyzed = in
	if f.err != nil {
		return nil, f.err
	}
	return &prodanswer.AnalyzeResponse{RequirementID: in.RequirementID, Status: "completed"}, nil
}

func (f *fakeMatchingAPI) GetMatchResults(context.Context, string) (*prodanswer.MatchResult, error) {
	return f.results, f.err
}

type fakeEmbeddingsAPI struct {
	configs    []*prodanswer.EmbeddingConfig
	def        *prodanswer.EmbeddingConfig
	defaultErr error
	listCalls  int
}

func (f *fakeEmbeddingsAPI) ListConfigs(context.Context, url.Values) (*prodanswer.Page[*prodanswer.EmbeddingConfig], error) {
	f.listCalls++
	return &prodanswer.Page[*prodanswer.EmbeddingConfig]{Count: len(f.configs), Results: f.configs}, nil
}

func (f *fakeEmbeddingsAPI) DefaultProvider(context.Context) (*prodanswer.EmbeddingConfig, error) {
	return f.def, f.defaultErr
}

func (f *fakeEmbeddingsAPI) CreateConfig(_ context.Context, in *prodanswer.EmbeddingConfigInput) (*prodanswer.EmbeddingConfig, error) {
	return &prodanswer.EmbeddingConfig{ID: "new", ModelName: in.ModelName}, nil
}

func (f *fakeEmbeddingsAPI) UpdateConfig(_ context.Context, id string, in *prodanswer.EmbeddingConfigInput) (*prodanswer.EmbeddingConfig, error) {
	return &prodanswer.EmbeddingConfig{ID: id, ModelName: in.ModelName}, nil
}

func (f *fakeEmbeddingsAPI) DeleteConfig(context.Context, string) error {
	return nil
}

func (f *fakeEmbeddingsAPI) SetDefault(_ context.Context, id string) (*prodanswer.SetDefaultResult, error) {
	for _, c := range f.configs {
		c.IsDefault = c.ID == id
		if c.IsDefault {
			f.def = c
		}
	}
	return &prodanswer.SetDefaultResult{Status: "success"}, nil
}

func (f *fakeEmbeddingsAPI) TestConnection(_ context.Context, id string) (*prodanswer.ConnectionTest, error) {
	return &prodanswer.ConnectionTest{Status: "success", IsConnected: true}, nil
}
