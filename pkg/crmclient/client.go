package crmclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/freddy208/crmprospect/internal/client"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// New creates a CRM client. The caller's config is not modified.
func New(ctx context.Context, config *crm.Config) (crm.Client, error) {
	if config == nil {
		return nil, crm.ErrConfigRequired
	}

	baseURL, err := NormalizeBaseURL(config.BaseURL)
	if err != nil {
		return nil, err
	}

	normalized := *config
	normalized.BaseURL = baseURL

	cli, err := client.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return cli, nil
}

// NewWithBaseURL creates a client with default settings.
func NewWithBaseURL(ctx context.Context, baseURL string) (crm.Client, error) {
	return New(ctx, &crm.Config{BaseURL: baseURL})
}

// NewWithSession creates a client and logs in, so the returned client already
// carries the session cookie.
func NewWithSession(ctx context.Context, baseURL, email, password string) (crm.Client, error) {
	cli, err := NewWithBaseURL(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	_, err = cli.Auth().Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return cli, nil
}

// NormalizeBaseURL trims trailing slashes and defaults the scheme to https.
func NormalizeBaseURL(raw string) (string, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(raw), "/")
	if baseURL == "" {
		return "", crm.ErrBaseURLRequired
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", crm.ErrInvalidBaseURL, raw)
	}

	return baseURL, nil
}
