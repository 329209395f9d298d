package crm

import (
	"context"
	"net/http"
	"time"
)

// ResourceClient is the operation set every CRM entity exposes.
type ResourceClient[T any, F Filter, C any, U any] interface {
	List(ctx context.Context, filter F) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, request *C) (*T, error)
	Update(ctx context.Context, id string, request *U) (*T, error)
	Remove(ctx context.Context, id string) (*T, error)
}

// ProspectsClient defines operations for prospects.
type ProspectsClient interface {
	ResourceClient[Prospect, *ProspectFilter, ProspectCreateRequest, ProspectUpdateRequest]

	Assign(ctx context.Context, id, userID string) (*Prospect, error)
	Stats(ctx context.Context, filter *StatsFilter) (*ProspectStats, error)
}

// UsersClient defines operations for users.
type UsersClient interface {
	ResourceClient[User, *UserFilter, UserCreateRequest, UserUpdateRequest]

	ChangePassword(ctx context.Context, id string, request *PasswordChangeRequest) error
}

// RolesClient defines operations for roles.
type RolesClient interface {
	ResourceClient[Role, *RoleFilter, RoleCreateRequest, RoleUpdateRequest]

	SetPermissions(ctx context.Context, id string, permissionIDs []string) (*Role, error)
}

// PermissionsClient defines operations for permissions.
type PermissionsClient interface {
	ResourceClient[Permission, *PermissionFilter, PermissionCreateRequest, PermissionUpdateRequest]
}

// CommentsClient defines operations for comments.
type CommentsClient interface {
	ResourceClient[Comment, *CommentFilter, CommentCreateRequest, CommentUpdateRequest]
}

// InteractionsClient defines operations for interactions.
type InteractionsClient interface {
	ResourceClient[Interaction, *InteractionFilter, InteractionCreateRequest, InteractionUpdateRequest]
}

// FormationsClient defines operations for formations.
type FormationsClient interface {
	ResourceClient[Formation, *CatalogFilter, CatalogCreateRequest, CatalogUpdateRequest]
}

// SimulateursClient defines operations for simulateurs.
type SimulateursClient interface {
	ResourceClient[Simulateur, *CatalogFilter, CatalogCreateRequest, CatalogUpdateRequest]
}

// AuthClient defines the session endpoints.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*Me, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*Me, error)
}

// CookieStore exposes the session cookies held by the transport.
type CookieStore interface {
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
	ClearCookies()
	HasSessionCookie() bool
}

// Client is the CRM API client. Every entity client shares one transport.
type Client interface {
	Prospects() ProspectsClient
	Users() UsersClient
	Roles() RolesClient
	Permissions() PermissionsClient
	Comments() CommentsClient
	Interactions() InteractionsClient
	Formations() FormationsClient
	Simulateurs() SimulateursClient
	Auth() AuthClient

	CookieStore
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// CredentialsMode controls whether the session cookie travels with requests.
type CredentialsMode string

const (
	// CredentialsInclude keeps a cookie jar and sends the session cookie on every request.
	CredentialsInclude CredentialsMode = "include"

	// CredentialsOmit sends no cookies.
	CredentialsOmit CredentialsMode = "omit"
)

// Config represents client configuration for building a crm.Client.
type Config struct {
	// BaseURL of the CRM API (e.g. "https://api.example.com/api"). crmclient.New
	// trims a trailing slash and adds "https://" when no scheme is present.
	BaseURL string

	// Credentials defaults to CredentialsInclude.
	Credentials CredentialsMode
	// SessionCookieName is the httponly cookie the server sets on login.
	SessionCookieName string
	// Cookies seeds the jar, typically with a session saved by a previous run.
	Cookies []*http.Cookie

	// HTTPTimeout bounds a single round-trip. Zero uses the package default.
	HTTPTimeout time.Duration
	// RetryMax is zero by default: transport failures surface to the caller.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug enables request/response logging through Logger.
	Debug     bool
	Logger    Logger
	UserAgent string

	// Interceptors run around every request.
	Interceptors *InterceptorChain
}
