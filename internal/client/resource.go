package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// ResourceClient provides the uniform list/get/create/update/remove operations of
// one REST collection.
type ResourceClient[T any, F crm.Filter, C any, U any] struct {
	httpClient   *http.Client
	resourcePath string
	name         string
	plural       string
}

// NewResourceClient creates a client for the collection at resourcePath.
func NewResourceClient[T any, F crm.Filter, C any, U any](httpClient *http.Client, resourcePath, name, plural string) *ResourceClient[T, F, C, U] {
	return &ResourceClient[T, F, C, U]{
		httpClient:   httpClient,
		resourcePath: resourcePath,
		name:         name,
		plural:       plural,
	}
}

func (c *ResourceClient[T, F, C, U]) itemPath(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%s: %w", c.name, crm.ErrIDRequired)
	}

	return c.resourcePath + "/" + url.PathEscape(id), nil
}

// List retrieves the collection. Empty filter fields are not sent.
func (c *ResourceClient[T, F, C, U]) List(ctx context.Context, filter F) ([]T, error) {
	resp, err := c.httpClient.Get(ctx, c.resourcePath, filter.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.plural, err)
	}

	items, err := decodeList[T](resp.Body, c.plural)
	if err != nil {
		return nil, fmt.Errorf("parsing %s list: %w", c.plural, err)
	}

	return items, nil
}

// Get retrieves one item. A 404 matches crm.ErrNotFound.
func (c *ResourceClient[T, F, C, U]) Get(ctx context.Context, id string) (*T, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", c.name, err)
	}

	item, err := decode[T](resp.Body, c.name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.name, err)
	}

	return item, nil
}

// Create posts a new item and returns it as stored by the server.
func (c *ResourceClient[T, F, C, U]) Create(ctx context.Context, request *C) (*T, error) {
	resp, err := c.httpClient.Post(ctx, c.resourcePath, request)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.name, err)
	}

	item, err := decode[T](resp.Body, c.name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", c.name, err)
	}

	return item, nil
}

// Update sends the partial payload with PUT.
func (c *ResourceClient[T, F, C, U]) Update(ctx context.Context, id string, request *U) (*T, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Put(ctx, path, request)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", c.name, err)
	}

	item, err := decode[T](resp.Body, c.name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", c.name, err)
	}

	return item, nil
}

// Remove soft-deletes an item and returns it in its deleted state.
func (c *ResourceClient[T, F, C, U]) Remove(ctx context.Context, id string) (*T, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("removing %s: %w", c.name, err)
	}

	item, err := decode[T](resp.Body, c.name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", c.name, err)
	}

	return item, nil
}
