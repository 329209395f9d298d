package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProspectsClient_Assign(t *testing.T) {
	t.Parallel()

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prospects/p-1/assign", r.URL.Path)
		assert.Equal(t, http.MethodPatch, r.Method)

		var request crm.ProspectAssignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "user-2", request.AssignedToID)

		_ = json.NewEncoder(w).Encode(crm.Prospect{
			Resource:     crm.Resource{ID: "p-1"},
			AssignedToID: crm.Ptr("user-2"),
			AssignedTo:   &crm.UserSummary{ID: "user-2", FirstName: "Koffi", LastName: "Yao"},
		})
	})

	prospect, err := NewProspectsClient(httpClient).Assign(context.Background(), "p-1", "user-2")
	require.NoError(t, err)
	require.NotNil(t, prospect.AssignedToID)
	assert.Equal(t, "user-2", *prospect.AssignedToID)
	assert.Equal(t, "Koffi Yao", prospect.AssignedTo.FullName())
}

func TestProspectsClient_AssignRequiresID(t *testing.T) {
	t.Parallel()

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	_, err := NewProspectsClient(httpClient).Assign(context.Background(), "", "user-2")
	require.ErrorIs(t, err, crm.ErrIDRequired)
}

func TestProspectsClient_Stats(t *testing.T) {
	t.Parallel()

	httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prospects/stats", r.URL.Path)
		assert.Equal(t, "country=SN", r.URL.RawQuery)

		_, _ = w.Write([]byte(`{
			"total": 3,
			"byStatus": {"NOUVEAU": 2, "CLOSED": 1},
			"byCountry": {"SN": 3},
			"assigned": 1,
			"unassigned": 2
		}`))
	})

	stats, err := NewProspectsClient(httpClient).Stats(context.Background(), &crm.StatsFilter{Country: "SN"})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[crm.ProspectStatusNouveau])
	assert.Equal(t, 1, stats.ByStatus[crm.ProspectStatusClosed])
	assert.Equal(t, 2, stats.Unassigned)
}

func TestUsersClient_ChangePassword(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/user-1/password", r.URL.Path)
			assert.Equal(t, http.MethodPatch, r.Method)

			var request crm.PasswordChangeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
			assert.Equal(t, "old-secret", request.CurrentPassword)
			assert.Equal(t, "new-secret-1", request.NewPassword)

			_, _ = w.Write([]byte(`{"message":"Password updated"}`))
		})

		err := NewUsersClient(httpClient).ChangePassword(context.Background(), "user-1", &crm.PasswordChangeRequest{
			CurrentPassword: "old-secret",
			NewPassword:     "new-secret-1",
		})
		require.NoError(t, err)
	})

	t.Run("forbidden", func(t *testing.T) {
		t.Parallel()

		httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"statusCode":403,"message":"Forbidden resource","error":"Forbidden"}`))
		})

		err := NewUsersClient(httpClient).ChangePassword(context.Background(), "user-2", &crm.PasswordChangeRequest{NewPassword: "new-secret-1"})
		require.Error(t, err)
		assert.True(t, crm.IsForbidden(err))
		assert.Contains(t, err.Error(), "changing user password")
	})
}

func TestRolesClient_SetPermissions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ids      []string
		wantBody string
	}{
		{"some permissions", []string{"perm-1", "perm-2"}, `{"permissionIds":["perm-1","perm-2"]}`},
		{"nil clears the set", nil, `{"permissionIds":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			httpClient := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/roles/role-1/permissions", r.URL.Path)
				assert.Equal(t, http.MethodPut, r.Method)

				var raw json.RawMessage
				require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
				assert.JSONEq(t, tt.wantBody, string(raw))

				_, _ = w.Write([]byte(`{"id":"role-1","name":"Sales","permissions":[{"id":"perm-1","name":"prospects.read"}],"_count":{"users":4}}`))
			})

			role, err := NewRolesClient(httpClient).SetPermissions(context.Background(), "role-1", tt.ids)
			require.NoError(t, err)
			assert.Equal(t, []string{"prospects.read"}, role.PermissionNames())
			assert.Equal(t, 4, role.Counts.Users)
		})
	}
}
