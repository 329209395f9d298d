package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	crmhttp "github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/prospects/p-1", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Empty(t, request.Header.Get("Authorization"))

			_ = json.NewEncoder(writer).Encode(map[string]string{"id": "p-1", "email": "a@x.com"})
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL + "/api/")

		resp, err := client.Do(context.Background(), &crmhttp.Request{
			Method: http.MethodGet,
			Path:   "/prospects/p-1",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string

		require.NoError(t, json.Unmarshal(resp.Body, &result))
		assert.Equal(t, "p-1", result["id"])
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "country=CI&status=NOUVEAU", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL)

		resp, err := client.Get(context.Background(), "/prospects", url.Values{
			"status":  []string{"NOUVEAU"},
			"country": []string{"CI"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "a@x.com", body["email"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL)

		resp, err := client.Post(context.Background(), "/prospects", map[string]string{"email": "a@x.com"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"statusCode":404,"message":"Prospect not found","error":"Not Found"}`))
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL)

		resp, err := client.Put(context.Background(), "/prospects/missing", map[string]string{"status": "CLOSED"})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.ErrorIs(t, err, crm.ErrNotFound)

		apiErr := &crm.APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Prospect not found", apiErr.Message)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
		serverURL := server.URL
		server.Close()

		client := crmhttp.NewClient(serverURL)

		resp, err := client.Get(context.Background(), "/prospects", nil)
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, crm.IsTransport(err))
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "crmctl/test", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL, crmhttp.WithUserAgent("crmctl/test"))

		resp, err := client.Do(context.Background(), &crmhttp.Request{
			Method:  http.MethodGet,
			Path:    "/users",
			Headers: map[string]string{"X-Custom-Header": "custom-value"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := crmhttp.NewClient(server.URL, crmhttp.WithLogger(logger), crmhttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/roles", nil)
		require.NoError(t, err)

		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})

	t.Run("interceptors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.NotEmpty(t, request.Header.Get(crm.RequestIDHeader))
			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		collector := crm.NewMetricsCollector()
		chain := crm.NewInterceptorChain()
		chain.AddRequestInterceptor(crm.RequestIDInterceptor())
		chain.AddRequestInterceptor(crm.MetricsRequestInterceptor(collector))
		chain.AddResponseInterceptor(crm.MetricsResponseInterceptor(collector))

		client := crmhttp.NewClient(server.URL, crmhttp.WithInterceptors(chain))

		_, err := client.Delete(context.Background(), "/comments/c-1")
		require.NoError(t, err)

		metrics := collector.GetMetrics("DELETE /comments/c-1")
		require.NotNil(t, metrics)
		assert.Equal(t, int64(1), metrics.TotalRequests)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*crmhttp.Client, context.Context) (*crmhttp.Response, error)
	}{
		{
			name:   "GET",
			method: http.MethodGet,
			fn: func(c *crmhttp.Client, ctx context.Context) (*crmhttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: http.MethodPost,
			fn: func(c *crmhttp.Client, ctx context.Context) (*crmhttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: http.MethodPut,
			fn: func(c *crmhttp.Client, ctx context.Context) (*crmhttp.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: http.MethodPatch,
			fn: func(c *crmhttp.Client, ctx context.Context) (*crmhttp.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: http.MethodDelete,
			fn: func(c *crmhttp.Client, ctx context.Context) (*crmhttp.Response, error) {
				return c.Delete(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := crmhttp.NewClient(server.URL)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("does not retry by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL)

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.ErrorIs(t, err, crm.ErrServerFailure)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries on 5xx errors when enabled", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL, crmhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("returns last response when retries are exhausted", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadGateway)
			_, _ = writer.Write([]byte(`{"statusCode":502,"message":"upstream down"}`))
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL, crmhttp.WithRetryConfig(1, 10*time.Millisecond, 20*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Contains(t, err.Error(), "upstream down")
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL, crmhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("does not retry non-idempotent requests", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL, crmhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Post(context.Background(), "/prospects", map[string]string{"email": "a@example.com"})
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries idempotent deletes", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 2 {
				writer.WriteHeader(http.StatusServiceUnavailable)
			} else {
				writer.WriteHeader(http.StatusNoContent)
			}
		}))
		defer server.Close()

		client := crmhttp.NewClient(server.URL, crmhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		_, err := client.Delete(context.Background(), "/prospects/p1")
		require.NoError(t, err)
		assert.Equal(t, int32(2), attempts.Load())
	})
}

func TestClient_Cookies(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/auth/login":
			http.SetCookie(writer, &http.Cookie{Name: "access_token", Value: "session-1", Path: "/", HttpOnly: true})
			writer.WriteHeader(http.StatusOK)
		default:
			cookie, err := request.Cookie("access_token")
			if err != nil {
				writer.WriteHeader(http.StatusUnauthorized)

				return
			}

			assert.Equal(t, "session-1", cookie.Value)
			writer.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := crmhttp.NewClient(server.URL)
	ctx := context.Background()

	assert.False(t, client.HasSessionCookie())

	_, err := client.Get(ctx, "/auth/me", nil)
	require.ErrorIs(t, err, crm.ErrUnauthorized)

	_, err = client.Post(ctx, "/auth/login", map[string]string{"email": "a@x.com"})
	require.NoError(t, err)
	assert.True(t, client.HasSessionCookie())

	_, err = client.Get(ctx, "/auth/me", nil)
	require.NoError(t, err)

	saved := client.Cookies()
	require.Len(t, saved, 1)

	client.ClearCookies()
	assert.False(t, client.HasSessionCookie())

	_, err = client.Get(ctx, "/auth/me", nil)
	require.ErrorIs(t, err, crm.ErrUnauthorized)

	restored := crmhttp.NewClient(server.URL, crmhttp.WithCookies(saved))
	assert.True(t, restored.HasSessionCookie())

	_, err = restored.Get(ctx, "/auth/me", nil)
	require.NoError(t, err)
}

func TestClient_CredentialsOmit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.SetCookie(writer, &http.Cookie{Name: "access_token", Value: "session-1", Path: "/"})
		assert.Empty(t, request.Cookies())
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := crmhttp.NewClient(server.URL, crmhttp.WithCredentials(crm.CredentialsOmit))

	for range 2 {
		_, err := client.Get(context.Background(), "/auth/me", nil)
		require.NoError(t, err)
	}

	assert.False(t, client.HasSessionCookie())
	assert.Nil(t, client.Cookies())
}
