package prodanswer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// maxPages bounds GetItems in case the backend keeps returning a next link.
const maxPages = 1000

// Page is the pagination envelope of list endpoints.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

func (p *Page[T]) Len() int {
	return len(p.Results)
}

type ItemResponse struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []Item `json:"results"`
}

type Item interface{}

// GetItems makes GET request to a list endpoint and returns items from all pages.
func (c *Client) GetItems(ctx context.Context, path string, q url.Values) ([]Item, error) {
	var items []Item

	next := path
	for page := 0; next != ""; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("too many pages for %s", path)
		}

		var response ItemResponse
		query := q
		if page > 0 {
			// The next link already carries the query.
			query = nil
		}
		if err := c.doJSON(ctx, http.MethodGet, next, query, nil, &response); err != nil {
			return nil, err
		}

		c.logger.Debug("got page from backend",
			zap.String("path", path),
			zap.Int("page", page+1),
			zap.Int("count", response.Count),
			zap.Int("items", len(response.Results)),
		)

		items = append(items, response.Results...)
		next = response.Next
	}

	return items, nil
}

// decodeItems converts generic items into typed records using their json tags.
func decodeItems(items []Item, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   target,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(items)
}

// listOrPage decodes either a page envelope or a bare JSON array.
func listOrPage[T any](raw json.RawMessage) (*Page[T], error) {
	var page Page[T]
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &page.Results); err != nil {
			return nil, err
		}
		page.Count = len(page.Results)
		return &page, nil
	}

	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
