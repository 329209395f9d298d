package session

import (
	"net/url"
	"strings"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// Checker answers capability questions. *Session implements it.
type Checker interface {
	HasPermission(name string) bool
	HasAnyPermission(names ...string) bool
	HasAllPermissions(names ...string) bool
}

// Requirement describes what a view needs. Every non-empty field must hold; the
// zero Requirement is always satisfied.
type Requirement struct {
	Permission string
	AnyOf      []string
	AllOf      []string
}

// SatisfiedBy reports whether checker meets the requirement.
func (r Requirement) SatisfiedBy(checker Checker) bool {
	if r.Permission != "" && !checker.HasPermission(r.Permission) {
		return false
	}

	if len(r.AnyOf) > 0 && !checker.HasAnyPermission(r.AnyOf...) {
		return false
	}

	return checker.HasAllPermissions(r.AllOf...)
}

// Gate returns child when checker meets req, otherwise fallback, which defaults to
// the zero value of T.
func Gate[T any](checker Checker, req Requirement, child T, fallback ...T) T {
	if req.SatisfiedBy(checker) {
		return child
	}

	if len(fallback) > 0 {
		return fallback[0]
	}

	var zero T

	return zero
}

// Decision is the outcome of a navigation check.
type Decision struct {
	Allow    bool
	Redirect string
}

// Guard decides, once per navigation, whether a path may be shown. It only looks
// at the presence of the session cookie.
type Guard struct {
	cookies   crm.CookieStore
	loginPath string
	homePath  string
	public    []string
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLoginPath sets where unauthenticated navigations are sent.
func WithLoginPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithHomePath sets where authenticated visits to the login page are sent.
func WithHomePath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.homePath = path
		}
	}
}

// WithPublicPaths adds path prefixes that never need a session.
func WithPublicPaths(paths ...string) GuardOption {
	return func(g *Guard) {
		g.public = append(g.public, paths...)
	}
}

// NewGuard creates a guard reading the session cookie from cookies.
func NewGuard(cookies crm.CookieStore, opts ...GuardOption) *Guard {
	g := &Guard{
		cookies:   cookies,
		loginPath: constants.DefaultLoginPath,
		homePath:  constants.DefaultHomePath,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Decide returns whether path may be shown, or where to redirect instead.
// Protected paths redirect to the login path with the original path in the
// "redirect" parameter.
func (g *Guard) Decide(path string) Decision {
	hasSession := g.cookies != nil && g.cookies.HasSessionCookie()

	if path == g.loginPath || strings.HasPrefix(path, g.loginPath+"?") {
		if hasSession {
			return Decision{Redirect: g.homePath}
		}

		return Decision{Allow: true}
	}

	if g.isPublic(path) || hasSession {
		return Decision{Allow: true}
	}

	return Decision{Redirect: g.loginPath + "?redirect=" + url.QueryEscape(path)}
}

func (g *Guard) isPublic(path string) bool {
	for _, prefix := range g.public {
		if path == prefix || strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/") {
			return true
		}
	}

	return false
}
