package crm

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter serializes list criteria as query parameters. Empty and zero fields are
// omitted so the server never receives a literal empty filter.
type Filter interface {
	ToValues() url.Values
}

// Pagination selects a page of a list endpoint.
type Pagination struct {
	Page  int `json:"page,omitempty"  yaml:"page,omitempty"`
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

func (p Pagination) apply(values url.Values) {
	setInt(values, "page", p.Page)
	setInt(values, "limit", p.Limit)
}

// Sort orders a list endpoint.
type Sort struct {
	SortBy    string `json:"sortBy,omitempty"    yaml:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty" yaml:"sortOrder,omitempty"`
}

func (s Sort) apply(values url.Values) {
	setString(values, "sortBy", s.SortBy)
	setString(values, "sortOrder", strings.ToLower(s.SortOrder))
}

// ProspectFilter narrows GET /prospects.
type ProspectFilter struct {
	Pagination
	Sort

	Search        string
	Status        ProspectStatus
	GenericStatus GenericStatus
	Type          ProspectType
	Country       string
	City          string
	Source        string
	AssignedToID  string
	CreatedByID   string
	FormationID   string
	SimulateurID  string
}

// ToValues implements Filter.
func (f *ProspectFilter) ToValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}

	setString(values, "search", f.Search)
	setString(values, "status", string(f.Status))
	setString(values, "genericStatus", string(f.GenericStatus))
	setString(values, "type", string(f.Type))
	setString(values, "country", f.Country)
	setString(values, "city", f.City)
	setString(values, "source", f.Source)
	setString(values, "assignedToId", f.AssignedToID)
	setString(values, "createdById", f.CreatedByID)
	setString(values, "formationId", f.FormationID)
	setString(values, "simulateurId", f.SimulateurID)
	f.Pagination.apply(values)
	f.Sort.apply(values)

	return values
}

// UserFilter narrows GET /users.
type UserFilter struct {
	Pagination

	Search   string
	Role     UserRole
	Status   GenericStatus
	Country  string
	IsActive *bool
}

// ToValues implements Filter.
func (f *UserFilter) ToValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}

	setString(values, "search", f.Search)
	setString(values, "role", string(f.Role))
	setString(values, "status", string(f.Status))
	setString(values, "country", f.Country)

	if f.IsActive != nil {
		values.Set("isActive", strconv.FormatBool(*f.IsActive))
	}

	f.Pagination.apply(values)

	return values
}

// RoleFilter narrows GET /roles.
type RoleFilter struct {
	Pagination

	Search string
}

// ToValues implements Filter.
func (f *RoleFilter) ToValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}

	setString(values, "search", f.Search)
	f.Pagination.apply(values)

	return values
}

// PermissionFilter narrows GET /permissions.
type PermissionFilter struct {
	Search string
}

// ToValues implements Filter.
func (f *PermissionFilter) ToValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}

	setString(values, "search", f.Search)

	return values
}

// CommentFilter narrows GET /comments.
type CommentFilter struct {
	Pagination

	ProspectID string
	AuthorID   string
}

// ToValues implements Filter.
func (f *CommentFilter) ToValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}

	setString(values, "prospectId", f.ProspectID)
	setString(values, "authorId", f.AuthorID)
	f.Pagination.apply(values)

	return values
}

// InteractionFilter narrows GET /interactions.
type InteractionFilter struct {
	Pagination

	ProspectID string
	AuthorID   string
	Channel    InteractionChannel
}

// ToValues implements Filter.
func (f *InteractionFilter) ToValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}

	setString(values, "prospectId", f.ProspectID)
	setString(values, "authorId", f.AuthorID)
	setString(values, "channel", string(f.Channel))
	f.Pagination.apply(values)

	return values
}

// CatalogFilter narrows GET /formations and GET /simulateurs.
type CatalogFilter struct {
	Pagination

	Search  string
	Country string
	Status  GenericStatus
}

// ToValues implements Filter.
func (f *CatalogFilter) ToValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}

	setString(values, "search", f.Search)
	setString(values, "country", f.Country)
	setString(values, "status", string(f.Status))
	f.Pagination.apply(values)

	return values
}

// StatsFilter narrows GET /prospects/stats.
type StatsFilter struct {
	Country      string
	AssignedToID string
}

// ToValues implements Filter.
func (f *StatsFilter) ToValues() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}

	setString(values, "country", f.Country)
	setString(values, "assignedToId", f.AssignedToID)

	return values
}

func setString(values url.Values, key, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		values.Set(key, value)
	}
}

func setInt(values url.Values, key string, value int) {
	if value > 0 {
		values.Set(key, strconv.Itoa(value))
	}
}
