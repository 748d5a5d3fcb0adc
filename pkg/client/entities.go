package client

import (
	"context"
	"net/url"

	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

func entityPath(prefix, name string) (string, error) {
	if name == "" {
		return "", errors.New(errors.ErrCodeValidation, "entity name is required")
	}
	return prefix + url.PathEscape(name), nil
}

// EntityInfo describes one catalog entity. Exactly one of List or Pattern
// is set.
type EntityInfo struct {
	Name    string                          `json:"name"`
	Kind    entity.Kind                     `json:"type"`
	List    *entity.EntityDefinition        `json:"list,omitempty"`
	Pattern *entity.PatternEntityDefinition `json:"pattern,omitempty"`
}

type entityList struct {
	Entities []EntityInfo `json:"entities"`
	Total    int          `json:"total"`
}

// ListEntities returns the catalog in registration order. An empty kind
// lists both list and pattern entities.
func (c *Client) ListEntities(ctx context.Context, kind entity.Kind) ([]EntityInfo, error) {
	path := "/api/v1/entities"
	if kind != "" {
		path += "?type=" + url.QueryEscape(string(kind))
	}
	var resp entityList
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// GetEntity returns one catalog entity.
func (c *Client) GetEntity(ctx context.Context, name string) (*EntityInfo, error) {
	path, err := entityPath("/api/v1/entities/", name)
	if err != nil {
		return nil, err
	}
	var resp EntityInfo
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PutListEntity creates or replaces a list entity.
func (c *Client) PutListEntity(ctx context.Context, def entity.ListEntityDef) (*EntityInfo, error) {
	path, err := entityPath("/api/v1/entities/lists/", def.Name)
	if err != nil {
		return nil, err
	}
	var resp EntityInfo
	if err := c.put(ctx, path, def, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PutPatternEntity creates or replaces a pattern entity.
func (c *Client) PutPatternEntity(ctx context.Context, def entity.PatternEntityDefinition) (*EntityInfo, error) {
	path, err := entityPath("/api/v1/entities/patterns/", def.Name)
	if err != nil {
		return nil, err
	}
	var resp EntityInfo
	if err := c.put(ctx, path, def, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteEntity removes an entity from the catalog.
func (c *Client) DeleteEntity(ctx context.Context, name string) error {
	path, err := entityPath("/api/v1/entities/", name)
	if err != nil {
		return err
	}
	return c.delete(ctx, path)
}

// Ready reports whether the server's readiness probe passes.
func (c *Client) Ready(ctx context.Context) error {
	return c.get(ctx, "/readyz", nil)
}

//Personal.AI order the ending
