// Package dashboard is the data side of the CRM views: every list, detail and form
// of the dashboard reads through the query store and writes through a mutation that
// names the cache entries it makes stale.
//
//	d := dashboard.New(client, store, dashboard.WithSession(sess))
//
//	prospects, err := d.Prospects(ctx, &crm.ProspectFilter{Country: "CI"})
//	result := d.UpdateProspect(ctx, id, &crm.ProspectUpdateRequest{Status: &closed})
//	if !result.OK() {
//		note := d.Notify(result.Err)
//		...
//	}
//
// When a session is attached, mutations are checked against its permission set
// before any request is sent.
package dashboard

import (
	"context"
	"time"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/query"
	"github.com/freddy208/crmprospect/pkg/session"
)

// Entity names used as the first segment of query keys.
const (
	EntityProspects    = "prospects"
	EntityUsers        = "users"
	EntityRoles        = "roles"
	EntityPermissions  = "permissions"
	EntityComments     = "comments"
	EntityInteractions = "interactions"
	EntityFormations   = "formations"
	EntitySimulateurs  = "simulateurs"
)

// Dashboard binds the CRM client, the query store and the session together.
type Dashboard struct {
	client      crm.Client
	store       *query.Store
	session     *session.Session
	logger      crm.Logger
	concurrency int

	prospects    *View[crm.Prospect, *crm.ProspectFilter, crm.ProspectCreateRequest, crm.ProspectUpdateRequest]
	users        *View[crm.User, *crm.UserFilter, crm.UserCreateRequest, crm.UserUpdateRequest]
	roles        *View[crm.Role, *crm.RoleFilter, crm.RoleCreateRequest, crm.RoleUpdateRequest]
	permissions  *View[crm.Permission, *crm.PermissionFilter, crm.PermissionCreateRequest, crm.PermissionUpdateRequest]
	comments     *View[crm.Comment, *crm.CommentFilter, crm.CommentCreateRequest, crm.CommentUpdateRequest]
	interactions *View[crm.Interaction, *crm.InteractionFilter, crm.InteractionCreateRequest, crm.InteractionUpdateRequest]
	formations   *View[crm.Formation, *crm.CatalogFilter, crm.CatalogCreateRequest, crm.CatalogUpdateRequest]
	simulateurs  *View[crm.Simulateur, *crm.CatalogFilter, crm.CatalogCreateRequest, crm.CatalogUpdateRequest]
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithSession enables permission pre-flight checks on mutations.
func WithSession(sess *session.Session) Option {
	return func(d *Dashboard) {
		d.session = sess
	}
}

// WithLogger sets the logger used for failures the user only sees generically.
func WithLogger(logger crm.Logger) Option {
	return func(d *Dashboard) {
		d.logger = logger
	}
}

// WithConcurrency bounds the requests a bulk operation keeps in flight.
func WithConcurrency(limit int) Option {
	return func(d *Dashboard) {
		if limit > 0 {
			d.concurrency = limit
		}
	}
}

// New creates a Dashboard. A nil store gets a default one.
func New(client crm.Client, store *query.Store, opts ...Option) *Dashboard {
	if store == nil {
		store = query.NewStore()
	}

	d := &Dashboard{
		client:      client,
		store:       store,
		concurrency: constants.DefaultConcurrencyLimit,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.initializeViews()

	return d
}

func (d *Dashboard) initializeViews() {
	prospectViews := []query.Key{
		query.ScopeKey(EntityProspects, query.ScopeList),
		query.ScopeKey(EntityProspects, query.ScopeStats),
	}
	prospectChildren := append([]query.Key{query.ScopeKey(EntityProspects, query.ScopeDetail)}, prospectViews...)
	catalogLists := []query.Key{
		query.ScopeKey(EntityFormations, query.ScopeList),
		query.ScopeKey(EntitySimulateurs, query.ScopeList),
	}

	d.prospects = newView(d, EntityProspects, d.client.Prospects(), 0, rights{
		create: crm.PermProspectsCreate,
		update: crm.PermProspectsUpdate,
		remove: crm.PermProspectsDelete,
	}, append(append([]query.Key{}, prospectViews...), catalogLists...)...)

	d.users = newView(d, EntityUsers, d.client.Users(), 0, rights{
		create: crm.PermUsersCreate,
		update: crm.PermUsersUpdate,
		remove: crm.PermUsersDelete,
	}, query.ScopeKey(EntityRoles, query.ScopeList))

	d.roles = newView(d, EntityRoles, d.client.Roles(), 0, rights{
		create: crm.PermRolesManage,
		update: crm.PermRolesManage,
		remove: crm.PermRolesManage,
	})

	d.permissions = newView(d, EntityPermissions, d.client.Permissions(), constants.CatalogStaleTime, rights{
		create: crm.PermRolesManage,
		update: crm.PermRolesManage,
		remove: crm.PermRolesManage,
	}, query.EntityKey(EntityRoles))

	d.comments = newView(d, EntityComments, d.client.Comments(), 0, rights{
		create: crm.PermCommentsCreate,
		update: crm.PermCommentsCreate,
		remove: crm.PermCommentsDelete,
	}, prospectChildren...)

	d.interactions = newView(d, EntityInteractions, d.client.Interactions(), 0, rights{
		create: crm.PermInteractionsCreate,
		update: crm.PermInteractionsCreate,
		remove: crm.PermInteractionsDelete,
	}, prospectChildren...)

	d.formations = newView(d, EntityFormations, d.client.Formations(), constants.CatalogStaleTime, rights{
		create: crm.PermFormationsManage,
		update: crm.PermFormationsManage,
		remove: crm.PermFormationsManage,
	})

	d.simulateurs = newView(d, EntitySimulateurs, d.client.Simulateurs(), constants.CatalogStaleTime, rights{
		create: crm.PermSimulateursManage,
		update: crm.PermSimulateursManage,
		remove: crm.PermSimulateursManage,
	})
}

// Store returns the query store.
func (d *Dashboard) Store() *query.Store {
	return d.store
}

// Mount registers a view showing key. Call the returned function when the view
// goes away; the entry is then collected once it has been idle for the GC time.
func (d *Dashboard) Mount(key query.Key) func() {
	return d.store.Observe(key)
}

// Users returns the users view.
func (d *Dashboard) Users() *View[crm.User, *crm.UserFilter, crm.UserCreateRequest, crm.UserUpdateRequest] {
	return d.users
}

// Roles returns the roles view.
func (d *Dashboard) Roles() *View[crm.Role, *crm.RoleFilter, crm.RoleCreateRequest, crm.RoleUpdateRequest] {
	return d.roles
}

// Permissions returns the permissions view.
func (d *Dashboard) Permissions() *View[crm.Permission, *crm.PermissionFilter, crm.PermissionCreateRequest, crm.PermissionUpdateRequest] {
	return d.permissions
}

// Comments returns the comments view.
func (d *Dashboard) Comments() *View[crm.Comment, *crm.CommentFilter, crm.CommentCreateRequest, crm.CommentUpdateRequest] {
	return d.comments
}

// Interactions returns the interactions view.
func (d *Dashboard) Interactions() *View[crm.Interaction, *crm.InteractionFilter, crm.InteractionCreateRequest, crm.InteractionUpdateRequest] {
	return d.interactions
}

// Formations returns the formations view.
func (d *Dashboard) Formations() *View[crm.Formation, *crm.CatalogFilter, crm.CatalogCreateRequest, crm.CatalogUpdateRequest] {
	return d.formations
}

// Simulateurs returns the simulateurs view.
func (d *Dashboard) Simulateurs() *View[crm.Simulateur, *crm.CatalogFilter, crm.CatalogCreateRequest, crm.CatalogUpdateRequest] {
	return d.simulateurs
}

// require checks names against the session, when there is one.
func (d *Dashboard) require(action string, names ...string) error {
	if d.session == nil {
		return nil
	}

	return d.session.Require(action, names...)
}

type rights struct {
	create string
	update string
	remove string
}

func permissionList(name string) []string {
	if name == "" {
		return nil
	}

	return []string{name}
}

// View exposes the cached reads and invalidating writes of one entity.
type View[T any, F crm.Filter, C any, U any] struct {
	d          *Dashboard
	entity     string
	client     crm.ResourceClient[T, F, C, U]
	staleTime  time.Duration
	rights     rights
	dependents []query.Key
}

func newView[T any, F crm.Filter, C any, U any](
	d *Dashboard,
	entity string,
	client crm.ResourceClient[T, F, C, U],
	staleTime time.Duration,
	r rights,
	dependents ...query.Key,
) *View[T, F, C, U] {
	return &View[T, F, C, U]{
		d:          d,
		entity:     entity,
		client:     client,
		staleTime:  staleTime,
		rights:     r,
		dependents: dependents,
	}
}

// ListKey returns the cache key of a list query.
func (v *View[T, F, C, U]) ListKey(filter F) query.Key {
	return query.ListKey(v.entity, filter.ToValues())
}

// DetailKey returns the cache key of a detail query.
func (v *View[T, F, C, U]) DetailKey(id string) query.Key {
	return query.DetailKey(v.entity, id)
}

// List reads the filtered collection through the cache.
func (v *View[T, F, C, U]) List(ctx context.Context, filter F) ([]T, error) {
	return query.Query(ctx, v.d.store, v.ListKey(filter), func(ctx context.Context) ([]T, error) {
		return v.client.List(ctx, filter)
	}, query.WithStaleTime(v.staleTime))
}

// Get reads one item through the cache.
func (v *View[T, F, C, U]) Get(ctx context.Context, id string) (*T, error) {
	return query.Query(ctx, v.d.store, v.DetailKey(id), func(ctx context.Context) (*T, error) {
		return v.client.Get(ctx, id)
	}, query.WithStaleTime(v.staleTime))
}

// Create validates and posts request, then invalidates the lists it changes.
func (v *View[T, F, C, U]) Create(ctx context.Context, request *C) query.Result[*T] {
	err := v.d.require("create "+v.entity, permissionList(v.rights.create)...)
	if err != nil {
		return query.Result[*T]{Err: err}
	}

	err = crm.Validate(request)
	if err != nil {
		return query.Result[*T]{Err: err}
	}

	return query.Mutate(ctx, v.d.store, func(ctx context.Context) (*T, error) {
		return v.client.Create(ctx, request)
	}, query.Invalidates(v.invalidates()...))
}

// Update validates and sends the partial request. The returned item replaces the
// cached detail and the lists are invalidated.
func (v *View[T, F, C, U]) Update(ctx context.Context, id string, request *U) query.Result[*T] {
	err := v.d.require("update "+v.entity, permissionList(v.rights.update)...)
	if err != nil {
		return query.Result[*T]{Err: err}
	}

	err = crm.Validate(request)
	if err != nil {
		return query.Result[*T]{Err: err}
	}

	return query.Mutate(ctx, v.d.store, func(ctx context.Context) (*T, error) {
		return v.client.Update(ctx, id, request)
	}, query.Updates(v.DetailKey(id)), query.Invalidates(v.invalidates()...))
}

// Remove soft-deletes an item. The cached detail takes its deleted state.
func (v *View[T, F, C, U]) Remove(ctx context.Context, id string) query.Result[*T] {
	err := v.d.require("remove "+v.entity, permissionList(v.rights.remove)...)
	if err != nil {
		return query.Result[*T]{Err: err}
	}

	return query.Mutate(ctx, v.d.store, func(ctx context.Context) (*T, error) {
		return v.client.Remove(ctx, id)
	}, query.Updates(v.DetailKey(id)), query.Invalidates(v.invalidates()...))
}

func (v *View[T, F, C, U]) invalidates() []query.Key {
	keys := make([]query.Key, 0, len(v.dependents)+1)
	keys = append(keys, query.ScopeKey(v.entity, query.ScopeList))

	return append(keys, v.dependents...)
}
