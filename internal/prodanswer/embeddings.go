package prodanswer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	configsPath = "/v1/configs/"
	servicePath = "/v1/service/"
)

var modelTypes = map[string]bool{
	"openai":                true,
	"huggingface":           true,
	"sentence-transformers": true,
	"local":                 true,
	"openai-compatible":     true,
}

type EmbeddingConfig struct {
	ID                  string         `json:"id,omitempty"`
	ModelName           string         `json:"model_name,omitempty"`
	ModelType           string         `json:"model_type,omitempty"`
	ModelTypeDisplay    string         `json:"model_type_display,omitempty"`
	Provider            string         `json:"provider,omitempty"`
	ProviderName        string         `json:"provider_name,omitempty"`
	ProviderNameDisplay string         `json:"provider_name_display,omitempty"`
	BaseURL             string         `json:"base_url,omitempty"`
	APIEndpoint         string         `json:"api_endpoint,omitempty"`
	HasAPIKey           bool           `json:"has_api_key,omitempty"`
	Dimension           int            `json:"dimension,omitempty"`
	ModelParams         map[string]any `json:"model_params,omitempty"`
	IsActive            bool           `json:"is_active"`
	IsDefault           bool           `json:"is_default"`
	CreatedAt           string         `json:"created_at,omitempty"`
	UpdatedAt           string         `json:"updated_at,omitempty"`
}

// EmbeddingConfigInput is the body of config create and update calls. The API
// key is write-only: the backend stores it encrypted and never returns it.
type EmbeddingConfigInput struct {
	ModelName    string         `json:"model_name,omitempty"`
	ModelType    string         `json:"model_type,omitempty"`
	Provider     string         `json:"provider,omitempty"`
	ProviderName string         `json:"provider_name,omitempty"`
	BaseURL      string         `json:"base_url,omitempty"`
	APIEndpoint  string         `json:"api_endpoint,omitempty"`
	APIKey       string         `json:"api_key,omitempty"`
	Dimension    int            `json:"dimension,omitempty"`
	ModelParams  map[string]any `json:"model_params,omitempty"`
	IsActive     *bool          `json:"is_active,omitempty"`
}

type ModelInfo struct {
	ModelName string `json:"model_name"`
	Dimension int    `json:"dimension"`
	Provider  string `json:"provider"`
}

type ConnectionTest struct {
	Status      string     `json:"status"`
	IsConnected bool       `json:"is_connected"`
	ModelInfo   *ModelInfo `json:"model_info,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type SetDefaultResult struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Config  *EmbeddingConfig `json:"config"`
}

type EncodeRequest struct {
	Texts    []string `json:"texts"`
	ConfigID string   `json:"config_id,omitempty"`
}

type EncodeResponse struct {
	Status     string      `json:"status"`
	Count      int         `json:"count"`
	Dimension  int         `json:"dimension"`
	Embeddings [][]float64 `json:"embeddings"`
}

type ActiveProviders struct {
	Count     int                `json:"count"`
	Providers []*EmbeddingConfig `json:"providers"`
}

type ServiceInfo struct {
	Service       string         `json:"service"`
	Version       string         `json:"version"`
	ActiveConfigs int            `json:"active_configs"`
	DefaultModel  map[string]any `json:"default_model,omitempty"`
}

type HealthStatus struct {
	Status      string     `json:"status"`
	IsConnected bool       `json:"is_connected"`
	ModelInfo   *ModelInfo `json:"model_info,omitempty"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func (in *EmbeddingConfigInput) validate(create bool) error {
	if in == nil {
		return invalidArgument("embedding config is required")
	}
	if create && strings.TrimSpace(in.ModelName) == "" {
		return invalidArgument("model name is required")
	}
	if in.ModelType != "" && !modelTypes[in.ModelType] {
		return invalidArgument("unknown model type %q", in.ModelType)
	}
	if in.Dimension < 0 {
		return invalidArgument("dimension must be positive, got %d", in.Dimension)
	}
	return nil
}

// ListConfigs returns embedding configs. The backend answers either with a page or a bare list.
func (c *Client) ListConfigs(ctx context.Context, q url.Values) (*Page[*EmbeddingConfig], error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, configsPath, q, &raw); err != nil {
		return nil, err
	}

	page, err := listOrPage[*EmbeddingConfig](raw)
	if err != nil {
		return nil, fmt.Errorf("decode embedding configs: %w", err)
	}
	return page, nil
}

func (c *Client) GetConfig(ctx context.Context, id string) (*EmbeddingConfig, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var config EmbeddingConfig
	if err := c.getJSON(ctx, configsPath+escaped+"/", nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Client) CreateConfig(ctx context.Context, in *EmbeddingConfigInput) (*EmbeddingConfig, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}

	var config EmbeddingConfig
	if err := c.postJSON(ctx, configsPath, in, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Client) UpdateConfig(ctx context.Context, id string, in *EmbeddingConfigInput) (*EmbeddingConfig, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	var config EmbeddingConfig
	if err := c.putJSON(ctx, configsPath+escaped+"/", in, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Client) DeleteConfig(ctx context.Context, id string) error {
	escaped, err := pathID(id)
	if err != nil {
		return err
	}
	return c.delete(ctx, configsPath+escaped+"/")
}

func (c *Client) SetDefault(ctx context.Context, id string) (*SetDefaultResult, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var result SetDefaultResult
	if err := c.postJSON(ctx, configsPath+escaped+"/set_default/", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TestConnection asks the backend to reach the embedding provider. A failed
// test still carries its report, so it is returned together with the error.
func (c *Client) TestConnection(ctx context.Context, id string) (*ConnectionTest, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var result ConnectionTest
	err = c.postJSON(ctx, configsPath+escaped+"/test_connection/", nil, &result)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return failedReport(apiErr), err
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// failedReport prefers the report sent by the backend with the error status.
func failedReport(apiErr *APIError) *ConnectionTest {
	var report ConnectionTest
	if err := json.Unmarshal(apiErr.Body, &report); err == nil && report.Status != "" {
		return &report
	}
	return &ConnectionTest{Status: "failed", IsConnected: false, Error: apiErr.Message}
}

func (c *Client) ActiveProviders(ctx context.Context) (*ActiveProviders, error) {
	var providers ActiveProviders
	if err := c.getJSON(ctx, servicePath+"active_providers/", nil, &providers); err != nil {
		return nil, err
	}
	return &providers, nil
}

func (c *Client) DefaultProvider(ctx context.Context) (*EmbeddingConfig, error) {
	var config EmbeddingConfig
	if err := c.getJSON(ctx, servicePath+"default_provider/", nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Client) Encode(ctx context.Context, in *EncodeRequest) (*EncodeResponse, error) {
	if in == nil || len(in.Texts) == 0 {
		return nil, invalidArgument("at least one text is required")
	}

	var response EncodeResponse
	if err := c.postJSON(ctx, servicePath+"encode/", in, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) ServiceInfo(ctx context.Context) (*ServiceInfo, error) {
	var info ServiceInfo
	if err := c.getJSON(ctx, servicePath, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.postJSON(ctx, servicePath+"health_check/", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
