package prodanswer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	productsPath = "/v1/products/"
)

type Products struct {
	Items []*Product
}

type Product struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Version       string `json:"version,omitempty"`
	Description   string `json:"description,omitempty"`
	Vendor        string `json:"vendor,omitempty"`
	Category      string `json:"category,omitempty"`
	IsActive      bool   `json:"is_active"`
	FeaturesCount int    `json:"features_count,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// ProductInput is the body of product create and update calls.
type ProductInput struct {
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ProductFeatures is the response of the product features endpoint.
type ProductFeatures struct {
	ProductID     string     `json:"product_id"`
	ProductName   string     `json:"product_name"`
	FeaturesCount int        `json:"features_count"`
	Features      []*Feature `json:"features"`
}

type BatchImport struct {
	ProductID string          `json:"product_id"`
	Features  []*FeatureInput `json:"features"`
}

type BatchImportResult struct {
	Status   string     `json:"status"`
	Count    int        `json:"count"`
	Features []*Feature `json:"features"`
}

type SubsystemImportResult struct {
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	ProductsCreated int      `json:"products_created"`
	FeaturesCreated int      `json:"features_created"`
	Errors          []string `json:"errors,omitempty"`
}

type SubsystemClearResult struct {
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	ProductsDeleted int      `json:"products_deleted"`
	FeaturesDeleted int      `json:"features_deleted"`
	Errors          []string `json:"errors,omitempty"`
}

func (c *Client) ListProducts(ctx context.Context, q url.Values) (*Page[*Product], error) {
	var page Page[*Product]
	if err := c.getJSON(ctx, productsPath, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllProducts follows pagination and returns every product matching q.
func (c *Client) ListAllProducts(ctx context.Context, q url.Values) (*Products, error) {
	items, err := c.GetItems(ctx, productsPath, q)
	if err != nil {
		return nil, err
	}

	var products []*Product
	if err := decodeItems(items, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	return &Products{Items: products}, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var product Product
	if err := c.getJSON(ctx, productsPath+escaped+"/", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) CreateProduct(ctx context.Context, in *ProductInput) (*Product, error) {
	if in == nil || strings.TrimSpace(in.Name) == "" {
		return nil, invalidArgument("product name is required")
	}

	var product Product
	if err := c.postJSON(ctx, productsPath, in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in *ProductInput) (*Product, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var product Product
	if err := c.putJSON(ctx, productsPath+escaped+"/", in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deactivates the product on the backend.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	escaped, err := pathID(id)
	if err != nil {
		return err
	}
	return c.delete(ctx, productsPath+escaped+"/")
}

func (c *Client) GetProductFeatures(ctx context.Context, productID string, q url.Values) (*ProductFeatures, error) {
	escaped, err := pathID(productID)
	if err != nil {
		return nil, err
	}

	var features ProductFeatures
	if err := c.getJSON(ctx, productsPath+escaped+"/features/", q, &features); err != nil {
		return nil, err
	}
	return &features, nil
}

func (c *Client) AddFeature(ctx context.Context, productID string, in *FeatureInput) (*Feature, error) {
	escaped, err := pathID(productID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var feature Feature
	if err := c.postJSON(ctx, productsPath+escaped+"/add_feature/", in, &feature); err != nil {
		return nil, err
	}
	return &feature, nil
}

func (c *Client) BatchImportFeatures(ctx context.Context, in *BatchImport) (*BatchImportResult, error) {
	if in == nil || strings.TrimSpace(in.ProductID) == "" {
		return nil, invalidArgument("product id is required for batch import")
	}
	if len(in.Features) == 0 {
		return nil, invalidArgument("at least one feature is required for batch import")
	}
	for i, feature := range in.Features {
		if err := feature.validate(); err != nil {
			return nil, fmt.Errorf("feature #%d: %w", i+1, err)
		}
	}

	var result BatchImportResult
	if err := c.postJSON(ctx, productsPath+"batch_import/", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ImportSubsystemData asks the backend to import products from a JSON file located on the server.
func (c *Client) ImportSubsystemData(ctx context.Context, serverPath, vendor string) (*SubsystemImportResult, error) {
	if strings.TrimSpace(serverPath) == "" {
		return nil, invalidArgument("json_file_path is required")
	}

	body := map[string]string{"json_file_path": serverPath}
	if vendor = strings.TrimSpace(vendor); vendor != "" {
		body["vendor"] = vendor
	}

	var result SubsystemImportResult
	if err := c.postJSON(ctx, productsPath+"import_subsystem_data/", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ClearSubsystemData(ctx context.Context) (*SubsystemClearResult, error) {
	var result SubsystemClearResult
	if err := c.postJSON(ctx, productsPath+"clear_subsystem_data/", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (p *Products) Len() int {
	return len(p.Items)
}

func (p *Products) FindByName(name string) *Product {
	for _, product := range p.Items {
		if strings.EqualFold(product.Name, name) {
			return product
		}
	}
	return nil
}
