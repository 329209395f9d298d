// Package session holds the authenticated user and permission set of a dashboard
// process, and the gating helpers built on top of it.
//
// A Session is constructed explicitly and passed to whatever needs it:
//
//	sess := session.New(cli, session.WithStore(store))
//	if err := sess.Init(ctx); err != nil { ... }
//
//	if sess.HasPermission(crm.PermProspectsCreate) { ... }
//
// Capability checks are pure lookups against the permission set loaded by Init or
// Login. Logout clears the user, the permissions, the cookies and the query store.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/query"
)

// Session is the authentication and permission context. It is safe for
// concurrent use.
type Session struct {
	mu          sync.RWMutex
	client      crm.Client
	store       *query.Store
	logger      crm.Logger
	user        *crm.User
	permissions map[string]struct{}
	initialized bool
}

// Option configures a Session.
type Option func(*Session)

// WithStore makes Login and Logout clear the query store, so one user never sees
// data cached for another.
func WithStore(store *query.Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger crm.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates an unauthenticated session over client.
func New(client crm.Client, opts ...Option) *Session {
	s := &Session{
		client:      client,
		permissions: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Init loads the current user from the "who am I" endpoint. An unauthorized answer
// is not an error: the session simply stays unauthenticated.
func (s *Session) Init(ctx context.Context) error {
	me, err := s.client.Auth().Me(ctx)

	switch {
	case crm.IsUnauthorized(err):
		s.reset()
		s.markInitialized()

		return nil
	case err != nil:
		return fmt.Errorf("initializing session: %w", err)
	}

	s.set(me)
	s.markInitialized()

	return nil
}

// Login validates the credentials locally, opens a server session and loads the
// user and permissions it returns.
func (s *Session) Login(ctx context.Context, email, password string) (*crm.User, error) {
	request := &crm.LoginRequest{Email: email, Password: password}

	err := crm.Validate(request)
	if err != nil {
		return nil, err
	}

	me, err := s.client.Auth().Login(ctx, request.Email, request.Password)
	if err != nil {
		return nil, err
	}

	s.clearStore(ctx)
	s.set(me)
	s.markInitialized()

	s.info("session opened", map[string]interface{}{"user": me.User.ID, "permissions": len(me.Permissions)})

	user := me.User

	return &user, nil
}

// Logout closes the server session and tears the local state down. Local state is
// cleared even when the server call fails, and that failure is returned.
func (s *Session) Logout(ctx context.Context) error {
	logoutErr := s.client.Auth().Logout(ctx)

	s.reset()
	s.client.ClearCookies()
	s.clearStore(ctx)

	s.info("session closed", nil)

	if logoutErr != nil && !crm.IsUnauthorized(logoutErr) {
		return logoutErr
	}

	return nil
}

// Initialized reports whether Init or Login has completed.
func (s *Session) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.initialized
}

// IsAuthenticated reports whether a user is loaded.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user != nil
}

// CurrentUser returns a copy of the current user.
func (s *Session) CurrentUser() (crm.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return crm.User{}, false
	}

	return *s.user, true
}

// Permissions returns the sorted permission names of the session.
func (s *Session) Permissions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.permissions))
	for name := range s.permissions {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// HasPermission reports whether the session holds name.
func (s *Session) HasPermission(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.permissions[name]

	return ok
}

// HasAnyPermission reports whether the session holds at least one of names. It is
// false for an empty list.
func (s *Session) HasAnyPermission(names ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range names {
		if _, ok := s.permissions[name]; ok {
			return true
		}
	}

	return false
}

// HasAllPermissions reports whether the session holds every one of names. It is
// true for an empty list.
func (s *Session) HasAllPermissions(names ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range names {
		if _, ok := s.permissions[name]; !ok {
			return false
		}
	}

	return true
}

// Require returns a *crm.PermissionDeniedError naming the permissions among names
// that the session lacks, or crm.ErrNotAuthenticated when nobody is logged in.
func (s *Session) Require(action string, names ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return fmt.Errorf("%s: %w", action, crm.ErrNotAuthenticated)
	}

	var missing []string

	for _, name := range names {
		if _, ok := s.permissions[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return &crm.PermissionDeniedError{Action: action, Missing: missing}
	}

	return nil
}

// IsSelf reports whether userID is the current user.
func (s *Session) IsSelf(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user != nil && s.user.ID == userID
}

func (s *Session) set(me *crm.Me) {
	permissions := make(map[string]struct{}, len(me.Permissions))
	for _, name := range me.Permissions {
		permissions[name] = struct{}{}
	}

	user := me.User

	s.mu.Lock()
	s.user = &user
	s.permissions = permissions
	s.mu.Unlock()
}

func (s *Session) reset() {
	s.mu.Lock()
	s.user = nil
	s.permissions = make(map[string]struct{})
	s.mu.Unlock()
}

func (s *Session) markInitialized() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

func (s *Session) clearStore(ctx context.Context) {
	if s.store == nil {
		return
	}

	err := s.store.Clear(ctx)
	if err != nil && s.logger != nil {
		s.logger.Warn("clearing query store", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Session) info(msg string, fields map[string]interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, fields)
	}
}
