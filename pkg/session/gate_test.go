package session_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/session"
)

type staticChecker map[string]bool

func (c staticChecker) HasPermission(name string) bool {
	return c[name]
}

func (c staticChecker) HasAnyPermission(names ...string) bool {
	for _, name := range names {
		if c[name] {
			return true
		}
	}

	return false
}

func (c staticChecker) HasAllPermissions(names ...string) bool {
	for _, name := range names {
		if !c[name] {
			return false
		}
	}

	return true
}

func TestRequirement_SatisfiedBy(t *testing.T) {
	t.Parallel()

	checker := staticChecker{crm.PermProspectsRead: true, crm.PermProspectsUpdate: true}

	tests := []struct {
		name string
		req  session.Requirement
		want bool
	}{
		{"zero requirement", session.Requirement{}, true},
		{"held permission", session.Requirement{Permission: crm.PermProspectsRead}, true},
		{"missing permission", session.Requirement{Permission: crm.PermProspectsDelete}, false},
		{"any of with one held", session.Requirement{AnyOf: []string{crm.PermProspectsDelete, crm.PermProspectsUpdate}}, true},
		{"any of with none held", session.Requirement{AnyOf: []string{crm.PermProspectsDelete}}, false},
		{"all of held", session.Requirement{AllOf: []string{crm.PermProspectsRead, crm.PermProspectsUpdate}}, true},
		{"all of partly held", session.Requirement{AllOf: []string{crm.PermProspectsRead, crm.PermProspectsDelete}}, false},
		{
			"every field must hold",
			session.Requirement{Permission: crm.PermProspectsRead, AllOf: []string{crm.PermProspectsDelete}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.req.SatisfiedBy(checker))
		})
	}
}

func TestGate(t *testing.T) {
	t.Parallel()

	checker := staticChecker{crm.PermProspectsCreate: true}

	assert.Equal(t, "new prospect", session.Gate(checker, session.Requirement{Permission: crm.PermProspectsCreate}, "new prospect"))
	assert.Empty(t, session.Gate(checker, session.Requirement{Permission: crm.PermProspectsDelete}, "delete"))
	assert.Equal(t, "read only", session.Gate(checker, session.Requirement{Permission: crm.PermProspectsDelete}, "delete", "read only"))
}

type cookieJar struct {
	session bool
}

func (c *cookieJar) Cookies() []*http.Cookie {
	if !c.session {
		return nil
	}

	return []*http.Cookie{{Name: constants.DefaultSessionCookie, Value: "token"}}
}

func (c *cookieJar) SetCookies(cookies []*http.Cookie) {
	c.session = len(cookies) > 0
}

func (c *cookieJar) ClearCookies() {
	c.session = false
}

func (c *cookieJar) HasSessionCookie() bool {
	return c.session
}

func TestGuard_Decide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session bool
		path    string
		want    session.Decision
	}{
		{"anonymous on protected path", false, "/prospects", session.Decision{Redirect: "/login?redirect=%2Fprospects"}},
		{"anonymous keeps nested path", false, "/prospects/p-1", session.Decision{Redirect: "/login?redirect=%2Fprospects%2Fp-1"}},
		{"anonymous on login", false, "/login", session.Decision{Allow: true}},
		{"anonymous on login with redirect", false, "/login?redirect=%2Fusers", session.Decision{Allow: true}},
		{"anonymous on public path", false, "/public/brochure", session.Decision{Allow: true}},
		{"authenticated on protected path", true, "/prospects", session.Decision{Allow: true}},
		{"authenticated on login", true, "/login", session.Decision{Redirect: "/dashboard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			guard := session.NewGuard(&cookieJar{session: tt.session}, session.WithPublicPaths("/public"))
			assert.Equal(t, tt.want, guard.Decide(tt.path))
		})
	}
}

func TestGuard_Options(t *testing.T) {
	t.Parallel()

	guard := session.NewGuard(&cookieJar{session: true}, session.WithLoginPath("/signin"), session.WithHomePath("/home"))
	assert.Equal(t, session.Decision{Redirect: "/home"}, guard.Decide("/signin"))

	anonymous := session.NewGuard(&cookieJar{}, session.WithLoginPath("/signin"))
	assert.Equal(t, session.Decision{Redirect: "/signin?redirect=%2F"}, anonymous.Decide("/"))

	assert.Equal(t, session.Decision{Redirect: "/login?redirect=%2Fusers"}, session.NewGuard(nil).Decide("/users"))
}
