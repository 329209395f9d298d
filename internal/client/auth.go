package client

import (
	"context"
	"fmt"

	"github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// AuthClient implements crm.AuthClient. The session itself travels in the
// httponly cookie kept by the transport jar.
type AuthClient struct {
	httpClient *http.Client
}

// NewAuthClient creates a new auth client.
func NewAuthClient(httpClient *http.Client) *AuthClient {
	return &AuthClient{
		httpClient: httpClient,
	}
}

// Login implements crm.AuthClient.Login.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*crm.Me, error) {
	resp, err := c.httpClient.Post(ctx, "/auth/login", &crm.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	me, err := decode[crm.Me](resp.Body, "login response")
	if err != nil {
		return nil, fmt.Errorf("parsing login response: %w", err)
	}

	return me, nil
}

// Logout implements crm.AuthClient.Logout.
func (c *AuthClient) Logout(ctx context.Context) error {
	_, err := c.httpClient.Post(ctx, "/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}

	return nil
}

// Me implements crm.AuthClient.Me.
func (c *AuthClient) Me(ctx context.Context) (*crm.Me, error) {
	resp, err := c.httpClient.Get(ctx, "/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}

	me, err := decode[crm.Me](resp.Body, "current user")
	if err != nil {
		return nil, fmt.Errorf("parsing current user: %w", err)
	}

	return me, nil
}
