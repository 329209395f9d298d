package session_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freddy208/crmprospect/internal/fakeapi"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/crmclient"
	"github.com/freddy208/crmprospect/pkg/query"
	"github.com/freddy208/crmprospect/pkg/session"
)

type fixture struct {
	backend *fakeapi.Server
	client  crm.Client
	store   *query.Store
	session *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := fakeapi.New()
	server := backend.Start()
	t.Cleanup(server.Close)

	client, err := crmclient.NewWithBaseURL(context.Background(), server.URL)
	require.NoError(t, err)

	store := query.NewStore()

	return &fixture{
		backend: backend,
		client:  client,
		store:   store,
		session: session.New(client, session.WithStore(store)),
	}
}

func TestSession_InitWithoutCookieStaysAnonymous(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	require.NoError(t, f.session.Init(context.Background()))
	assert.True(t, f.session.Initialized())
	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.session.Permissions())

	_, ok := f.session.CurrentUser()
	assert.False(t, ok)
}

func TestSession_InitSurfacesServerFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.FailNext(http.MethodGet, "/auth/me", http.StatusInternalServerError, "boom")

	err := f.session.Init(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, crm.ErrServerFailure)
	assert.False(t, f.session.Initialized())
}

func TestSession_LoginLoadsPermissions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seeded := f.backend.AddUser(crm.User{Email: "manager@crm.ci", FirstName: "Awa"}, "secret-pass",
		crm.PermProspectsRead, crm.PermProspectsCreate)

	user, err := f.session.Login(context.Background(), "manager@crm.ci", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	assert.True(t, f.session.IsAuthenticated())
	assert.Equal(t, []string{crm.PermProspectsCreate, crm.PermProspectsRead}, f.session.Permissions())
	assert.True(t, f.session.IsSelf(seeded.ID))
	assert.False(t, f.session.IsSelf("someone-else"))

	current, ok := f.session.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Awa", current.FirstName)

	// A fresh session over the same client resumes from the cookie.
	resumed := session.New(f.client)
	require.NoError(t, resumed.Init(context.Background()))
	assert.True(t, resumed.IsAuthenticated())
	assert.True(t, resumed.HasPermission(crm.PermProspectsCreate))
}

func TestSession_LoginValidatesBeforeCallingServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "secret-pass"},
		{"malformed email", "not-an-email", "secret-pass"},
		{"missing password", "manager@crm.ci", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)

			_, err := f.session.Login(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, crm.IsInvalidInput(err))
			assert.Zero(t, f.backend.TotalRequests())
		})
	}
}

func TestSession_LoginWithWrongPassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.AddUser(crm.User{Email: "manager@crm.ci"}, "secret-pass")

	_, err := f.session.Login(context.Background(), "manager@crm.ci", "wrong-pass")
	require.Error(t, err)
	assert.True(t, crm.IsUnauthorized(err))

	apiErr, ok := crm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.False(t, f.session.IsAuthenticated())
}

func TestSession_LogoutClearsEverything(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.AddUser(crm.User{Email: "manager@crm.ci"}, "secret-pass", crm.PermProspectsRead)

	_, err := f.session.Login(context.Background(), "manager@crm.ci", "secret-pass")
	require.NoError(t, err)

	key := query.ListKey("prospects", nil)
	_, err = query.Query(context.Background(), f.store, key, func(ctx context.Context) ([]crm.Prospect, error) {
		return f.client.Prospects().List(ctx, nil)
	}, query.WithStaleTime(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, query.StateFresh, f.store.State(key))

	require.NoError(t, f.session.Logout(context.Background()))

	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.session.Permissions())
	assert.False(t, f.client.HasSessionCookie())
	assert.Equal(t, query.StateEmpty, f.store.State(key))
	assert.Zero(t, f.backend.Sessions())

	_, err = f.client.Prospects().List(context.Background(), nil)
	assert.True(t, crm.IsUnauthorized(err))
}

func TestSession_LogoutClearsLocalStateWhenServerFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.AddUser(crm.User{Email: "manager@crm.ci"}, "secret-pass", crm.PermProspectsRead)

	_, err := f.session.Login(context.Background(), "manager@crm.ci", "secret-pass")
	require.NoError(t, err)

	f.backend.FailNext(http.MethodPost, "/auth/logout", http.StatusBadGateway, "upstream down")

	err = f.session.Logout(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, crm.ErrServerFailure)

	assert.False(t, f.session.IsAuthenticated())
	assert.False(t, f.client.HasSessionCookie())
}

func TestSession_PermissionChecks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.AddUser(crm.User{Email: "agent@crm.ci"}, "secret-pass", crm.PermProspectsRead, crm.PermProspectsUpdate)

	_, err := f.session.Login(context.Background(), "agent@crm.ci", "secret-pass")
	require.NoError(t, err)

	s := f.session

	assert.True(t, s.HasPermission(crm.PermProspectsRead))
	assert.False(t, s.HasPermission(crm.PermProspectsDelete))

	assert.True(t, s.HasAnyPermission(crm.PermProspectsDelete, crm.PermProspectsUpdate))
	assert.False(t, s.HasAnyPermission(crm.PermProspectsDelete, crm.PermUsersRead))
	assert.False(t, s.HasAnyPermission())

	assert.True(t, s.HasAllPermissions(crm.PermProspectsRead, crm.PermProspectsUpdate))
	assert.False(t, s.HasAllPermissions(crm.PermProspectsRead, crm.PermProspectsDelete))
	assert.True(t, s.HasAllPermissions())
}

func TestSession_Require(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.session.Require("delete prospect", crm.PermProspectsDelete)
	require.ErrorIs(t, err, crm.ErrNotAuthenticated)

	f.backend.AddUser(crm.User{Email: "agent@crm.ci"}, "secret-pass", crm.PermProspectsRead)

	_, err = f.session.Login(context.Background(), "agent@crm.ci", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, f.session.Require("list prospects", crm.PermProspectsRead))

	err = f.session.Require("delete prospect", crm.PermProspectsRead, crm.PermProspectsDelete)
	require.ErrorIs(t, err, crm.ErrPermissionDenied)

	var denied *crm.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, []string{crm.PermProspectsDelete}, denied.Missing)
	assert.Equal(t, "delete prospect", denied.Action)
}

func TestSession_LoginClearsPreviousUserData(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.AddUser(crm.User{Email: "second@crm.ci"}, "secret-pass")

	key := query.DetailKey("users", "me")
	_, err := query.Query(context.Background(), f.store, key, func(ctx context.Context) (string, error) {
		return "first", nil
	}, query.WithStaleTime(time.Hour))
	require.NoError(t, err)

	_, err = f.session.Login(context.Background(), "second@crm.ci", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, query.StateEmpty, f.store.State(key))
}
