package client

import (
	"context"

	"github.com/turtacn/ListSense/pkg/types/entity"
)

// TextResult is the outcome of ExtractText.
type TextResult struct {
	Entities []entity.Entity `json:"entities"`
	Cached   bool            `json:"cached"`
}

// BatchItem is one text's outcome in a batch.
type BatchItem struct {
	Index    int             `json:"index"`
	Entities []entity.Entity `json:"entities"`
	Error    string          `json:"error,omitempty"`
}

// BatchResult is the outcome of ExtractBatch.
type BatchResult struct {
	Items  []BatchItem `json:"items"`
	Failed int         `json:"failed"`
}

type resultsResponse struct {
	Results []entity.ExtractionResult `json:"results"`
}

// Extract runs one inline list entity over pre-tokenized text.
func (c *Client) Extract(ctx context.Context, tokens []string, def entity.EntityDefinition) ([]entity.ExtractionResult, error) {
	req := struct {
		Tokens []string                `json:"tokens"`
		Entity entity.EntityDefinition `json:"entity"`
	}{tokens, def}
	var resp resultsResponse
	if err := c.post(ctx, "/api/v1/extract", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ExtractMultiple runs several inline list entities over pre-tokenized text.
func (c *Client) ExtractMultiple(ctx context.Context, tokens []string, defs []entity.EntityDefinition) ([]entity.ExtractionResult, error) {
	req := struct {
		Tokens   []string                  `json:"tokens"`
		Entities []entity.EntityDefinition `json:"entities"`
	}{tokens, defs}
	var resp resultsResponse
	if err := c.post(ctx, "/api/v1/extract/multiple", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ExtractText runs catalog entities over raw text. No names means the whole
// catalog.
func (c *Client) ExtractText(ctx context.Context, text string, names ...string) (*TextResult, error) {
	req := struct {
		Text     string   `json:"text"`
		Entities []string `json:"entities,omitempty"`
	}{text, names}
	var resp TextResult
	if err := c.post(ctx, "/api/v1/extract/text", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtractBatch runs the same catalog entities over several texts.
func (c *Client) ExtractBatch(ctx context.Context, texts []string, names ...string) (*BatchResult, error) {
	req := struct {
		Texts    []string `json:"texts"`
		Entities []string `json:"entities,omitempty"`
	}{texts, names}
	var resp BatchResult
	if err := c.post(ctx, "/api/v1/extract/batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type pairRequest struct {
	A             string `json:"a"`
	B             string `json:"b"`
	CaseSensitive *bool  `json:"case_sensitive,omitempty"`
}

type similarityResponse struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

// Levenshtein returns the normalized edit similarity of a and b.
func (c *Client) Levenshtein(ctx context.Context, a, b string, caseSensitive bool) (float64, error) {
	var resp similarityResponse
	if err := c.post(ctx, "/api/v1/similarity/levenshtein", pairRequest{A: a, B: b, CaseSensitive: &caseSensitive}, &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

// JaroWinkler returns the Jaro-Winkler similarity of a and b.
func (c *Client) JaroWinkler(ctx context.Context, a, b string, caseSensitive bool) (float64, error) {
	var resp similarityResponse
	if err := c.post(ctx, "/api/v1/similarity/jaro-winkler", pairRequest{A: a, B: b, CaseSensitive: &caseSensitive}, &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

//Personal.AI order the ending
