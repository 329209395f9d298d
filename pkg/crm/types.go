package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resource carries the identity and audit timestamps assigned by the server.
type Resource struct {
	ID        string    `json:"id"        yaml:"id"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// UserSummary is the embedded form of a user inside other resources.
type UserSummary struct {
	ID        string   `json:"id"                  yaml:"id"`
	FirstName string   `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"  yaml:"lastName,omitempty"`
	Email     string   `json:"email,omitempty"     yaml:"email,omitempty"`
	Role      UserRole `json:"role,omitempty"      yaml:"role,omitempty"`
}

// FullName returns "First Last", or the email when no name is known.
func (u *UserSummary) FullName() string {
	if u == nil {
		return ""
	}

	return fullName(u.FirstName, u.LastName, u.Email)
}

// ProspectCounts holds the number of child records of a prospect.
type ProspectCounts struct {
	Comments     int `json:"comments"     yaml:"comments"`
	Interactions int `json:"interactions" yaml:"interactions"`
}

// Prospect is a lead tracked through the sales pipeline.
type Prospect struct {
	Resource `yaml:",inline"`

	Type          ProspectType   `json:"type,omitempty"          yaml:"type,omitempty"`
	FirstName     string         `json:"firstName,omitempty"     yaml:"firstName,omitempty"`
	LastName      string         `json:"lastName,omitempty"      yaml:"lastName,omitempty"`
	CompanyName   string         `json:"companyName,omitempty"   yaml:"companyName,omitempty"`
	Email         string         `json:"email"                   yaml:"email"`
	Phone         string         `json:"phone,omitempty"         yaml:"phone,omitempty"`
	Country       string         `json:"country"                 yaml:"country"`
	City          string         `json:"city,omitempty"          yaml:"city,omitempty"`
	Address       string         `json:"address,omitempty"       yaml:"address,omitempty"`
	Source        string         `json:"source,omitempty"        yaml:"source,omitempty"`
	Status        ProspectStatus `json:"status,omitempty"        yaml:"status,omitempty"`
	GenericStatus GenericStatus  `json:"genericStatus,omitempty" yaml:"genericStatus,omitempty"`

	CreatedByID  string       `json:"createdById"            yaml:"createdById"`
	CreatedBy    *UserSummary `json:"createdBy,omitempty"    yaml:"createdBy,omitempty"`
	AssignedToID *string      `json:"assignedToId,omitempty" yaml:"assignedToId,omitempty"`
	AssignedTo   *UserSummary `json:"assignedTo,omitempty"   yaml:"assignedTo,omitempty"`
	FormationID  *string      `json:"formationId,omitempty"  yaml:"formationId,omitempty"`
	SimulateurID *string      `json:"simulateurId,omitempty" yaml:"simulateurId,omitempty"`

	Counts ProspectCounts `json:"_count" yaml:"counts"`
}

// DisplayName returns the company name for companies and the person name otherwise.
func (p *Prospect) DisplayName() string {
	if p.Type == ProspectTypeEntreprise && p.CompanyName != "" {
		return p.CompanyName
	}

	return fullName(p.FirstName, p.LastName, p.Email)
}

// IsDeleted reports whether the prospect has been soft-deleted.
func (p *Prospect) IsDeleted() bool {
	return p.Status == ProspectStatusDeleted || p.GenericStatus == GenericStatusDeleted
}

// User is an account of the dashboard.
type User struct {
	Resource `yaml:",inline"`

	Email       string        `json:"email"                 yaml:"email"`
	FirstName   string        `json:"firstName,omitempty"   yaml:"firstName,omitempty"`
	LastName    string        `json:"lastName,omitempty"    yaml:"lastName,omitempty"`
	Phone       string        `json:"phone,omitempty"       yaml:"phone,omitempty"`
	Role        UserRole      `json:"role,omitempty"        yaml:"role,omitempty"`
	RoleID      string        `json:"roleId,omitempty"      yaml:"roleId,omitempty"`
	IsActive    bool          `json:"isActive"              yaml:"isActive"`
	Status      GenericStatus `json:"status,omitempty"      yaml:"status,omitempty"`
	Country     string        `json:"country,omitempty"     yaml:"country,omitempty"`
	LastLoginAt *time.Time    `json:"lastLoginAt,omitempty" yaml:"lastLoginAt,omitempty"`
}

// FullName returns "First Last", or the email when no name is known.
func (u *User) FullName() string {
	return fullName(u.FirstName, u.LastName, u.Email)
}

// Summary returns the embedded form of the user.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// Permission is an atomic named capability.
type Permission struct {
	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// RoleCounts holds the number of users assigned to a role.
type RoleCounts struct {
	Users int `json:"users" yaml:"users"`
}

// Role groups permissions under a name.
type Role struct {
	Resource `yaml:",inline"`

	Name        string       `json:"name"                  yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Permissions []Permission `json:"permissions"           yaml:"permissions"`
	Counts      RoleCounts   `json:"_count"                yaml:"counts"`
}

// PermissionNames returns the names of the permissions granted by the role.
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, permission := range r.Permissions {
		names = append(names, permission.Name)
	}

	return names
}

// Comment is a free-text note left on a prospect.
type Comment struct {
	Resource `yaml:",inline"`

	Content    string       `json:"content"          yaml:"content"`
	ProspectID string       `json:"prospectId"       yaml:"prospectId"`
	AuthorID   string       `json:"authorId"         yaml:"authorId"`
	Author     *UserSummary `json:"author,omitempty" yaml:"author,omitempty"`
}

// Interaction records a contact with a prospect.
type Interaction struct {
	Resource `yaml:",inline"`

	ProspectID string             `json:"prospectId"           yaml:"prospectId"`
	AuthorID   string             `json:"authorId"             yaml:"authorId"`
	Author     *UserSummary       `json:"author,omitempty"     yaml:"author,omitempty"`
	Channel    InteractionChannel `json:"channel,omitempty"    yaml:"channel,omitempty"`
	Duration   int                `json:"duration"             yaml:"duration"`
	Notes      string             `json:"notes,omitempty"      yaml:"notes,omitempty"`
	OccurredAt *time.Time         `json:"occurredAt,omitempty" yaml:"occurredAt,omitempty"`
}

// CatalogCounts holds the number of prospects attached to a catalog item.
type CatalogCounts struct {
	Prospects int `json:"prospects" yaml:"prospects"`
}

// CatalogItem is the shape shared by formations and simulateurs.
type CatalogItem struct {
	Resource `yaml:",inline"`

	Name        string        `json:"name"                  yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Price       Money         `json:"price"                 yaml:"price"`
	Country     string        `json:"country"               yaml:"country"`
	Status      GenericStatus `json:"status,omitempty"      yaml:"status,omitempty"`
	Counts      CatalogCounts `json:"_count"                yaml:"counts"`
}

// Formation is a training offer prospects can be associated with.
type Formation struct {
	CatalogItem `yaml:",inline"`
}

// Simulateur is a simulation product prospects can be associated with.
type Simulateur struct {
	CatalogItem `yaml:",inline"`
}

// ProspectStats aggregates prospects for the dashboard home page.
type ProspectStats struct {
	Total      int                    `json:"total"      yaml:"total"`
	ByStatus   map[ProspectStatus]int `json:"byStatus"   yaml:"byStatus"`
	ByCountry  map[string]int         `json:"byCountry"  yaml:"byCountry"`
	Assigned   int                    `json:"assigned"   yaml:"assigned"`
	Unassigned int                    `json:"unassigned" yaml:"unassigned"`
}

// Me is the "who am I" answer: the session user and its flattened permission set.
type Me struct {
	User        User     `json:"user"        yaml:"user"`
	Permissions []string `json:"permissions" yaml:"permissions"`
}

// Money is a decimal amount sent to the API as a bare JSON number.
type Money struct {
	decimal.Decimal
}

// NewMoney parses an amount such as "150000" or "99.90".
func NewMoney(value string) (Money, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, err
	}

	return Money{Decimal: amount}, nil
}

// MoneyFromInt builds an amount from an integer number of units.
func MoneyFromInt(value int64) Money {
	return Money{Decimal: decimal.NewFromInt(value)}
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Money) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

func fullName(first, last, fallback string) string {
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return fallback
	}
}
