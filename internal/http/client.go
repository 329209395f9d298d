package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/hashicorp/go-retryablehttp"
)

const defaultUserAgent = "crmprospect-go/1.0"

// Client is the single transport shared by every entity client.
type Client struct {
	baseURL       string
	parsedBaseURL *url.URL
	httpClient    *retryablehttp.Client
	jar           *sessionJar
	logger        crm.Logger
	debug         bool
	userAgent     string
	interceptors  *crm.InterceptorChain
	credentials   crm.CredentialsMode
	sessionCookie string
	timeout       time.Duration
	retryMax      int
	retryWaitMin  time.Duration
	retryWaitMax  time.Duration
	seedCookies   []*http.Cookie
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger crm.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig sets retry parameters. Retries are off unless retryMax is positive.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// WithTimeout bounds each round-trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithCredentials selects whether a cookie jar carries the session.
func WithCredentials(mode crm.CredentialsMode) Option {
	return func(c *Client) {
		if mode != "" {
			c.credentials = mode
		}
	}
}

// WithSessionCookie names the cookie that holds the session.
func WithSessionCookie(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.sessionCookie = name
		}
	}
}

// WithCookies seeds the jar, typically with a session persisted by a previous run.
func WithCookies(cookies []*http.Cookie) Option {
	return func(c *Client) {
		c.seedCookies = cookies
	}
}

// WithInterceptors runs the chain around every request.
func WithInterceptors(chain *crm.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a transport for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		userAgent:     defaultUserAgent,
		credentials:   crm.CredentialsInclude,
		sessionCookie: constants.DefaultSessionCookie,
		timeout:       constants.DefaultHTTPTimeout,
		retryWaitMin:  constants.DefaultRetryWaitMin,
		retryWaitMax:  constants.DefaultRetryWaitMax,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.parsedBaseURL, _ = url.Parse(client.baseURL)

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = client.retryMax
	retryClient.RetryWaitMin = client.retryWaitMin
	retryClient.RetryWaitMax = client.retryWaitMax
	// Hand the last response back untouched so its status and body can be mapped.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.CheckRetry = retryPolicy
	retryClient.HTTPClient.Timeout = client.timeout

	if client.credentials == crm.CredentialsInclude {
		client.jar = newSessionJar()
		retryClient.HTTPClient.Jar = client.jar

		if len(client.seedCookies) > 0 {
			client.SetCookies(client.seedCookies)
		}
	}

	client.httpClient = retryClient

	return client
}

type methodKey struct{}

// retryPolicy only retries idempotent methods. A POST or PATCH that timed out
// may already have been applied by the server.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	method, _ := ctx.Value(methodKey{}).(string)
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	default:
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do performs the request. A non-2xx status yields both the response and an *crm.APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var bodyBytes []byte

	if req.Body != nil {
		var err error

		bodyBytes, err = json.Marshal(req.Body)
		if errors.Is(err, crm.ErrInvalidEnumValue) {
			return nil, fmt.Errorf("encoding request body: %w: %w", crm.ErrInvalidInput, err)
		}

		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	intercepted := &crm.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: make(http.Header),
		Body:    bodyBytes,
	}

	for key, value := range req.Headers {
		intercepted.Headers.Set(key, value)
	}

	if c.interceptors != nil {
		err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	var rawBody interface{}
	if intercepted.Body != nil {
		rawBody = intercepted.Body
	}

	ctx = context.WithValue(ctx, methodKey{}, req.Method)

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if rawBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, values := range intercepted.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		transportErr := &crm.TransportError{Method: req.Method, URL: fullURL, Err: err}
		c.afterResponse(ctx, intercepted, &crm.Response{Error: transportErr})

		return nil, transportErr
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &crm.TransportError{Method: req.Method, URL: fullURL, Err: err}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":   req.Method,
			"url":      fullURL,
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
		})
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	var apiErr error
	if httpResp.StatusCode >= http.StatusBadRequest {
		apiErr = crm.ParseAPIError(httpResp.StatusCode, body)
	}

	c.afterResponse(ctx, intercepted, &crm.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Error:      apiErr,
	})

	if apiErr != nil {
		return resp, apiErr
	}

	return resp, nil
}

func (c *Client) afterResponse(ctx context.Context, req *crm.Request, resp *crm.Response) {
	if c.interceptors == nil {
		return
	}

	err := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil && c.logger != nil {
		c.logger.Warn("response interceptor failed", map[string]interface{}{
			"path":  req.Path,
			"error": err.Error(),
		})
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

// Cookies returns the cookies the jar would send to the base URL.
func (c *Client) Cookies() []*http.Cookie {
	if c.jar == nil || c.parsedBaseURL == nil {
		return nil
	}

	return c.jar.Cookies(c.parsedBaseURL)
}

// SetCookies stores cookies for the base URL. Cookies without a path apply to the whole host.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if c.jar == nil || c.parsedBaseURL == nil {
		return
	}

	scoped := make([]*http.Cookie, 0, len(cookies))

	for _, cookie := range cookies {
		clone := *cookie
		if clone.Path == "" {
			clone.Path = "/"
		}

		scoped = append(scoped, &clone)
	}

	c.jar.SetCookies(c.parsedBaseURL, scoped)
}

// ClearCookies drops every stored cookie.
func (c *Client) ClearCookies() {
	if c.jar != nil {
		c.jar.Reset()
	}
}

// HasSessionCookie reports whether the session cookie is present.
func (c *Client) HasSessionCookie() bool {
	for _, cookie := range c.Cookies() {
		if cookie.Name == c.sessionCookie && cookie.Value != "" {
			return true
		}
	}

	return false
}

// sessionJar is a cookie jar that can be emptied while requests are in flight.
type sessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newSessionJar() *sessionJar {
	jar, _ := cookiejar.New(nil)

	return &sessionJar{jar: jar}
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.jar.Cookies(u)
}

// Reset replaces the underlying jar with an empty one.
func (j *sessionJar) Reset() {
	jar, _ := cookiejar.New(nil)

	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}
