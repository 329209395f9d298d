package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	internalhttp "github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *internalhttp.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return internalhttp.NewClient(server.URL)
}

func TestProspectsClient_ListOmitsEmptyFilterFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		filter    *crm.ProspectFilter
		wantQuery string
	}{
		{
			name:      "nil filter",
			filter:    nil,
			wantQuery: "",
		},
		{
			name:      "empty filter",
			filter:    &crm.ProspectFilter{},
			wantQuery: "",
		},
		{
			name:      "blank strings are dropped",
			filter:    &crm.ProspectFilter{Search: "  ", Country: "CI"},
			wantQuery: "country=CI",
		},
		{
			name: "every set field is sent",
			filter: &crm.ProspectFilter{
				Status:       crm.ProspectStatusNouveau,
				Country:      "CI",
				AssignedToID: "user-1",
				Pagination:   crm.Pagination{Page: 2, Limit: 20},
			},
			wantQuery: "assignedToId=user-1&country=CI&limit=20&page=2&status=NOUVEAU",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/prospects", r.URL.Path)
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`[]`))
			})

			prospects, err := NewProspectsClient(httpClient).List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.NotNil(t, prospects)
			assert.Empty(t, prospects)
		})
	}
}

func TestProspectsClient_ListDecodesEnvelope(t *testing.T) {
	t.Parallel()

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"p-1","email":"a@x.com","country":"CI","status":"CONTACTE"}],"total":1}`))
	})

	prospects, err := NewProspectsClient(httpClient).List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, prospects, 1)
	assert.Equal(t, "p-1", prospects[0].ID)
	assert.Equal(t, crm.ProspectStatusContacte, prospects[0].Status)
}

func TestProspectsClient_Get(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC().Truncate(time.Second)

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/prospects/p-1", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(crm.Prospect{
				Resource:      crm.Resource{ID: "p-1", CreatedAt: now, UpdatedAt: now},
				Type:          crm.ProspectTypeEntreprise,
				CompanyName:   "Acme",
				Email:         "contact@acme.ci",
				Country:       "CI",
				Status:        crm.ProspectStatusInteresse,
				GenericStatus: crm.GenericStatusActive,
				Counts:        crm.ProspectCounts{Comments: 2, Interactions: 1},
			})
		})

		prospect, err := NewProspectsClient(httpClient).Get(context.Background(), "p-1")
		require.NoError(t, err)
		assert.Equal(t, "Acme", prospect.DisplayName())
		assert.Equal(t, now, prospect.CreatedAt)
		assert.Equal(t, 2, prospect.Counts.Comments)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"statusCode":404,"message":"Prospect not found","error":"Not Found"}`))
		})

		prospect, err := NewProspectsClient(httpClient).Get(context.Background(), "missing")
		require.Error(t, err)
		assert.Nil(t, prospect)
		assert.ErrorIs(t, err, crm.ErrNotFound)

		apiErr, ok := crm.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "Prospect not found", apiErr.Message)
	})

	t.Run("empty id never reaches the server", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})

		_, err := NewProspectsClient(httpClient).Get(context.Background(), " ")
		require.ErrorIs(t, err, crm.ErrIDRequired)
	})

	t.Run("id is path escaped", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/prospects/a%2Fb", r.URL.EscapedPath())
			_, _ = w.Write([]byte(`{"id":"a/b"}`))
		})

		prospect, err := NewProspectsClient(httpClient).Get(context.Background(), "a/b")
		require.NoError(t, err)
		assert.Equal(t, "a/b", prospect.ID)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>gateway</html>`))
		})

		_, err := NewProspectsClient(httpClient).Get(context.Background(), "p-1")
		require.Error(t, err)

		var decodeErr *crm.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "prospect", decodeErr.Target)
	})

	t.Run("unknown status is a decode error", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"p-1","status":"ARCHIVED"}`))
		})

		_, err := NewProspectsClient(httpClient).Get(context.Background(), "p-1")

		var decodeErr *crm.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.ErrorIs(t, err, crm.ErrInvalidEnumValue)
	})
}

func TestProspectsClient_Create(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/prospects", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var request crm.ProspectCreateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
			assert.Equal(t, "a@x.com", request.Email)
			assert.Equal(t, "CI", request.Country)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(crm.Prospect{
				Resource: crm.Resource{ID: "p-new", CreatedAt: time.Now()},
				Type:     request.Type,
				Email:    request.Email,
				Country:  request.Country,
				Status:   crm.InitialProspectStatus,
			})
		})

		prospect, err := NewProspectsClient(httpClient).Create(context.Background(), &crm.ProspectCreateRequest{
			Type:      crm.ProspectTypeParticulier,
			FirstName: "Awa",
			Email:     "a@x.com",
			Country:   "CI",
		})
		require.NoError(t, err)
		assert.Equal(t, "p-new", prospect.ID)
		assert.Equal(t, crm.ProspectStatusNouveau, prospect.Status)
	})

	t.Run("server validation failure", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":400,"message":["email must be an email","country should not be empty"],"error":"Bad Request"}`))
		})

		_, err := NewProspectsClient(httpClient).Create(context.Background(), &crm.ProspectCreateRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, crm.ErrInvalidInput)

		apiErr, ok := crm.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, "email must be an email; country should not be empty", apiErr.Message)
		assert.Len(t, apiErr.Details, 2)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := NewProspectsClient(internalhttp.NewClient(server.URL)).Create(context.Background(), &crm.ProspectCreateRequest{})
		require.Error(t, err)
		assert.True(t, crm.IsTransport(err))
	})

	t.Run("empty type is left to the server", func(t *testing.T) {
		t.Parallel()

		var body map[string]interface{}

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":400,"message":"type must be a valid enum value"}`))
		})

		_, err := NewProspectsClient(httpClient).Create(context.Background(), &crm.ProspectCreateRequest{
			Email:   "a@x.com",
			Country: "CI",
		})
		require.Error(t, err)
		assert.True(t, crm.IsInvalidInput(err))

		_, isAPIErr := crm.AsAPIError(err)
		assert.True(t, isAPIErr)
		assert.NotContains(t, body, "type")
		assert.Equal(t, "a@x.com", body["email"])
	})

	t.Run("unknown type is rejected before sending", func(t *testing.T) {
		t.Parallel()

		hits := 0
		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			hits++
		})

		_, err := NewProspectsClient(httpClient).Create(context.Background(), &crm.ProspectCreateRequest{
			Type:    crm.ProspectType("PARTNER"),
			Email:   "a@x.com",
			Country: "CI",
		})
		require.Error(t, err)
		assert.True(t, crm.IsInvalidInput(err))
		require.ErrorIs(t, err, crm.ErrInvalidEnumValue)
		assert.Zero(t, hits)
	})
}

func TestProspectsClient_UpdateSendsOnlyPresentFields(t *testing.T) {
	t.Parallel()

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prospects/p-1", r.URL.Path)
		assert.Equal(t, http.MethodPut, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"CLOSED","city":""}`, string(body))

		_, _ = w.Write([]byte(`{"id":"p-1","status":"CLOSED"}`))
	})

	prospect, err := NewProspectsClient(httpClient).Update(context.Background(), "p-1", &crm.ProspectUpdateRequest{
		Status: crm.Ptr(crm.ProspectStatusClosed),
		City:   crm.Ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, crm.ProspectStatusClosed, prospect.Status)
}

func TestProspectsClient_UpdateRejectsInvalidStatus(t *testing.T) {
	t.Parallel()

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid status must not reach the server")
	})

	_, err := NewProspectsClient(httpClient).Update(context.Background(), "p-1", &crm.ProspectUpdateRequest{
		Status: crm.Ptr(crm.ProspectStatus("ARCHIVED")),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, crm.ErrInvalidEnumValue)
}

func TestProspectsClient_Remove(t *testing.T) {
	t.Parallel()

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prospects/p-1", r.URL.Path)
		assert.Equal(t, http.MethodDelete, r.Method)

		_, _ = w.Write([]byte(`{"id":"p-1","status":"DELETED","genericStatus":"DELETED"}`))
	})

	prospect, err := NewProspectsClient(httpClient).Remove(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, prospect.IsDeleted())
}

func TestResourceClients_Paths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		list func(*internalhttp.Client) error
	}{
		{"users", "/users", func(c *internalhttp.Client) error {
			_, err := NewUsersClient(c).List(context.Background(), &crm.UserFilter{})

			return err
		}},
		{"roles", "/roles", func(c *internalhttp.Client) error {
			_, err := NewRolesClient(c).List(context.Background(), nil)

			return err
		}},
		{"permissions", "/permissions", func(c *internalhttp.Client) error {
			_, err := NewPermissionsClient(c).List(context.Background(), nil)

			return err
		}},
		{"comments", "/comments", func(c *internalhttp.Client) error {
			_, err := NewCommentsClient(c).List(context.Background(), &crm.CommentFilter{ProspectID: "p-1"})

			return err
		}},
		{"interactions", "/interactions", func(c *internalhttp.Client) error {
			_, err := NewInteractionsClient(c).List(context.Background(), nil)

			return err
		}},
		{"formations", "/formations", func(c *internalhttp.Client) error {
			_, err := NewFormationsClient(c).List(context.Background(), nil)

			return err
		}},
		{"simulateurs", "/simulateurs", func(c *internalhttp.Client) error {
			_, err := NewSimulateursClient(c).List(context.Background(), nil)

			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, http.MethodGet, r.Method)
				_, _ = w.Write([]byte(`[]`))
			})

			require.NoError(t, tt.list(httpClient))
		})
	}
}

func TestResourceClient_ErrorsKeepTheirClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		target error
	}{
		{http.StatusUnauthorized, crm.ErrUnauthorized},
		{http.StatusForbidden, crm.ErrForbidden},
		{http.StatusConflict, crm.ErrConflict},
		{http.StatusUnprocessableEntity, crm.ErrInvalidInput},
		{http.StatusInternalServerError, crm.ErrServerFailure},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"statusCode":0,"message":"boom"}`))
			})

			_, err := NewFormationsClient(httpClient).Create(context.Background(), &crm.CatalogCreateRequest{Name: "Go", Country: "CI"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
		})
	}
}
