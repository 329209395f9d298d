package client

import (
	"net/http"

	crmhttp "github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// Client implements the crm.Client interface.
type Client struct {
	httpClient *crmhttp.Client
	baseURL    string
	logger     crm.Logger

	// Resource clients
	prospects    crm.ProspectsClient
	users        crm.UsersClient
	roles        crm.RolesClient
	permissions  crm.PermissionsClient
	comments     crm.CommentsClient
	interactions crm.InteractionsClient
	formations   crm.FormationsClient
	simulateurs  crm.SimulateursClient
	auth         crm.AuthClient
}

// New creates a CRM client. Every entity client shares one transport so the base
// URL and the credentials policy stay in a single place.
func New(config *crm.Config) (*Client, error) {
	if config == nil {
		return nil, crm.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, crm.ErrBaseURLRequired
	}

	httpClient := crmhttp.NewClient(config.BaseURL, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient: httpClient,
		baseURL:    httpClient.BaseURL(),
		logger:     config.Logger,
	}

	client.initializeResourceClients()

	return client, nil
}

func createHTTPClientOptions(config *crm.Config) []crmhttp.Option {
	opts := []crmhttp.Option{
		crmhttp.WithCredentials(config.Credentials),
		crmhttp.WithSessionCookie(config.SessionCookieName),
		crmhttp.WithTimeout(config.HTTPTimeout),
		crmhttp.WithUserAgent(config.UserAgent),
	}

	if config.Logger != nil {
		opts = append(opts, crmhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, crmhttp.WithDebug(true))
	}

	if config.RetryMax > 0 {
		opts = append(opts, crmhttp.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	if config.Interceptors != nil {
		opts = append(opts, crmhttp.WithInterceptors(config.Interceptors))
	}

	if len(config.Cookies) > 0 {
		opts = append(opts, crmhttp.WithCookies(config.Cookies))
	}

	return opts
}

func (c *Client) initializeResourceClients() {
	c.prospects = NewProspectsClient(c.httpClient)
	c.users = NewUsersClient(c.httpClient)
	c.roles = NewRolesClient(c.httpClient)
	c.permissions = NewPermissionsClient(c.httpClient)
	c.comments = NewCommentsClient(c.httpClient)
	c.interactions = NewInteractionsClient(c.httpClient)
	c.formations = NewFormationsClient(c.httpClient)
	c.simulateurs = NewSimulateursClient(c.httpClient)
	c.auth = NewAuthClient(c.httpClient)
}

// BaseURL returns the normalized API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Prospects implements crm.Client.Prospects.
func (c *Client) Prospects() crm.ProspectsClient {
	return c.prospects
}

// Users implements crm.Client.Users.
func (c *Client) Users() crm.UsersClient {
	return c.users
}

// Roles implements crm.Client.Roles.
func (c *Client) Roles() crm.RolesClient {
	return c.roles
}

// Permissions implements crm.Client.Permissions.
func (c *Client) Permissions() crm.PermissionsClient {
	return c.permissions
}

// Comments implements crm.Client.Comments.
func (c *Client) Comments() crm.CommentsClient {
	return c.comments
}

// Interactions implements crm.Client.Interactions.
func (c *Client) Interactions() crm.InteractionsClient {
	return c.interactions
}

// Formations implements crm.Client.Formations.
func (c *Client) Formations() crm.FormationsClient {
	return c.formations
}

// Simulateurs implements crm.Client.Simulateurs.
func (c *Client) Simulateurs() crm.SimulateursClient {
	return c.simulateurs
}

// Auth implements crm.Client.Auth.
func (c *Client) Auth() crm.AuthClient {
	return c.auth
}

// Cookies implements crm.CookieStore.
func (c *Client) Cookies() []*http.Cookie {
	return c.httpClient.Cookies()
}

// SetCookies implements crm.CookieStore.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.httpClient.SetCookies(cookies)
}

// ClearCookies implements crm.CookieStore.
func (c *Client) ClearCookies() {
	c.httpClient.ClearCookies()
}

// HasSessionCookie implements crm.CookieStore.
func (c *Client) HasSessionCookie() bool {
	return c.httpClient.HasSessionCookie()
}

var _ crm.Client = (*Client)(nil)
