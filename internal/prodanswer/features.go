package prodanswer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	featuresPath = "/v1/features/"
)

type Feature struct {
	ID              string         `json:"id,omitempty"`
	Product         string         `json:"product,omitempty"`
	ProductName     string         `json:"product_name,omitempty"`
	FeatureCode     string         `json:"feature_code,omitempty"`
	FeatureName     string         `json:"feature_name,omitempty"`
	Description     string         `json:"description,omitempty"`
	Category        string         `json:"category,omitempty"`
	Subcategory     string         `json:"subcategory,omitempty"`
	ImportanceLevel int            `json:"importance_level,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       string         `json:"created_at,omitempty"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
}

// FeatureInput is the body of feature create and update calls.
type FeatureInput struct {
	Product         string `json:"product,omitempty"`
	FeatureCode     string `json:"feature_code,omitempty"`
	FeatureName     string `json:"feature_name"`
	Description     string `json:"description"`
	Category        string `json:"category,omitempty"`
	Subcategory     string `json:"subcategory,omitempty"`
	ImportanceLevel *int   `json:"importance_level,omitempty"`
}

// EmbeddingRequest selects the embedding config used for generation.
// An empty ConfigID selects the backend default.
type EmbeddingRequest struct {
	ConfigID string `json:"config_id,omitempty"`
}

type EmbeddingResult struct {
	Status    string `json:"status"`
	FeatureID string `json:"feature_id"`
	ModelName string `json:"model_name"`
	Dimension int    `json:"dimension"`
	Error     string `json:"error,omitempty"`
}

type BatchEmbeddingRequest struct {
	FeatureIDs []string `json:"feature_ids,omitempty"`
	ProductID  string   `json:"product_id,omitempty"`
	ConfigID   string   `json:"config_id,omitempty"`
	Regenerate bool     `json:"regenerate"`
}

type BatchEmbeddingResult struct {
	Status  string `json:"status"`
	Summary struct {
		Total   int `json:"total"`
		Success int `json:"success"`
		Failed  int `json:"failed"`
		Skipped int `json:"skipped"`
	} `json:"summary"`
	Results struct {
		Success []string         `json:"success"`
		Failed  []*FailedFeature `json:"failed"`
		Skipped []string         `json:"skipped"`
	} `json:"results"`
}

type FailedFeature struct {
	FeatureID string `json:"feature_id"`
	Error     string `json:"error"`
}

func (in *FeatureInput) validate() error {
	if in == nil {
		return invalidArgument("feature is required")
	}
	if strings.TrimSpace(in.FeatureName) == "" {
		return invalidArgument("feature name is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return invalidArgument("feature description is required")
	}
	return nil
}

func (c *Client) ListFeatures(ctx context.Context, q url.Values) (*Page[*Feature], error) {
	var page Page[*Feature]
	if err := c.getJSON(ctx, featuresPath, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllFeatures follows pagination and returns every feature matching q.
func (c *Client) ListAllFeatures(ctx context.Context, q url.Values) ([]*Feature, error) {
	items, err := c.GetItems(ctx, featuresPath, q)
	if err != nil {
		return nil, err
	}

	var features []*Feature
	if err := decodeItems(items, &features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return features, nil
}

func (c *Client) GetFeature(ctx context.Context, id string) (*Feature, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var feature Feature
	if err := c.getJSON(ctx, featuresPath+escaped+"/", nil, &feature); err != nil {
		return nil, err
	}
	return &feature, nil
}

func (c *Client) UpdateFeature(ctx context.Context, id string, in *FeatureInput) (*Feature, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var feature Feature
	if err := c.putJSON(ctx, featuresPath+escaped+"/", in, &feature); err != nil {
		return nil, err
	}
	return &feature, nil
}

func (c *Client) DeleteFeature(ctx context.Context, id string) error {
	escaped, err := pathID(id)
	if err != nil {
		return err
	}
	return c.delete(ctx, featuresPath+escaped+"/")
}

func (c *Client) GenerateFeatureEmbedding(ctx context.Context, id, configID string) (*EmbeddingResult, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var result EmbeddingResult
	body := &EmbeddingRequest{ConfigID: strings.TrimSpace(configID)}
	if err := c.postJSON(ctx, featuresPath+escaped+"/generate_embedding/", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GenerateEmbeddingsBatch(ctx context.Context, in *BatchEmbeddingRequest) (*BatchEmbeddingResult, error) {
	if in == nil || (len(in.FeatureIDs) == 0 && strings.TrimSpace(in.ProductID) == "") {
		return nil, invalidArgument("either feature ids or product id must be provided")
	}

	var result BatchEmbeddingResult
	if err := c.postJSON(ctx, featuresPath+"generate_embeddings_batch/", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
