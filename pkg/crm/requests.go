package crm

import "time"

// Create requests carry required fields as values. Update requests are partial: every
// field is a pointer and only non-nil fields are sent.

// ProspectCreateRequest is the payload of POST /prospects.
type ProspectCreateRequest struct {
	Type         ProspectType `json:"type,omitempty"         yaml:"type,omitempty"         validate:"required,enum"`
	FirstName    string       `json:"firstName,omitempty"    yaml:"firstName,omitempty"    validate:"required_if=Type PARTICULIER,max=100"`
	LastName     string       `json:"lastName,omitempty"     yaml:"lastName,omitempty"     validate:"max=100"`
	CompanyName  string       `json:"companyName,omitempty"  yaml:"companyName,omitempty"  validate:"required_if=Type ENTREPRISE,max=200"`
	Email        string       `json:"email"                  yaml:"email"                  validate:"required,email"`
	Phone        string       `json:"phone,omitempty"        yaml:"phone,omitempty"        validate:"max=30"`
	Country      string       `json:"country"                yaml:"country"                validate:"required,min=2,max=60"`
	City         string       `json:"city,omitempty"         yaml:"city,omitempty"`
	Address      string       `json:"address,omitempty"      yaml:"address,omitempty"`
	Source       string       `json:"source,omitempty"       yaml:"source,omitempty"`
	AssignedToID *string      `json:"assignedToId,omitempty" yaml:"assignedToId,omitempty" validate:"omitempty,min=1"`
	FormationID  *string      `json:"formationId,omitempty"  yaml:"formationId,omitempty"  validate:"omitempty,min=1"`
	SimulateurID *string      `json:"simulateurId,omitempty" yaml:"simulateurId,omitempty" validate:"omitempty,min=1"`
}

// ProspectUpdateRequest is the partial payload of PUT /prospects/{id}.
type ProspectUpdateRequest struct {
	Type          *ProspectType   `json:"type,omitempty"          yaml:"type,omitempty"          validate:"omitempty,enum"`
	FirstName     *string         `json:"firstName,omitempty"     yaml:"firstName,omitempty"     validate:"omitempty,max=100"`
	LastName      *string         `json:"lastName,omitempty"      yaml:"lastName,omitempty"      validate:"omitempty,max=100"`
	CompanyName   *string         `json:"companyName,omitempty"   yaml:"companyName,omitempty"   validate:"omitempty,max=200"`
	Email         *string         `json:"email,omitempty"         yaml:"email,omitempty"         validate:"omitempty,email"`
	Phone         *string         `json:"phone,omitempty"         yaml:"phone,omitempty"         validate:"omitempty,max=30"`
	Country       *string         `json:"country,omitempty"       yaml:"country,omitempty"       validate:"omitempty,min=2,max=60"`
	City          *string         `json:"city,omitempty"          yaml:"city,omitempty"`
	Address       *string         `json:"address,omitempty"       yaml:"address,omitempty"`
	Source        *string         `json:"source,omitempty"        yaml:"source,omitempty"`
	Status        *ProspectStatus `json:"status,omitempty"        yaml:"status,omitempty"        validate:"omitempty,enum"`
	GenericStatus *GenericStatus  `json:"genericStatus,omitempty" yaml:"genericStatus,omitempty" validate:"omitempty,enum"`
	AssignedToID  *string         `json:"assignedToId,omitempty"  yaml:"assignedToId,omitempty"`
	FormationID   *string         `json:"formationId,omitempty"   yaml:"formationId,omitempty"`
	SimulateurID  *string         `json:"simulateurId,omitempty"  yaml:"simulateurId,omitempty"`
}

// ProspectAssignRequest is the payload of PATCH /prospects/{id}/assign.
type ProspectAssignRequest struct {
	AssignedToID string `json:"assignedToId" yaml:"assignedToId" validate:"required"`
}

// UserCreateRequest is the payload of POST /users.
type UserCreateRequest struct {
	Email     string   `json:"email"             yaml:"email"             validate:"required,email"`
	Password  string   `json:"password"          yaml:"-"                 validate:"required,min=8,max=64"`
	FirstName string   `json:"firstName"         yaml:"firstName"         validate:"required,max=100"`
	LastName  string   `json:"lastName"          yaml:"lastName"          validate:"required,max=100"`
	Phone     string   `json:"phone,omitempty"   yaml:"phone,omitempty"   validate:"max=30"`
	Role      UserRole `json:"role,omitempty"    yaml:"role,omitempty"    validate:"required,enum"`
	RoleID    string   `json:"roleId,omitempty"  yaml:"roleId,omitempty"`
	Country   string   `json:"country,omitempty" yaml:"country,omitempty"`
}

// UserUpdateRequest is the partial payload of PUT /users/{id}.
type UserUpdateRequest struct {
	Email     *string        `json:"email,omitempty"     yaml:"email,omitempty"     validate:"omitempty,email"`
	FirstName *string        `json:"firstName,omitempty" yaml:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  *string        `json:"lastName,omitempty"  yaml:"lastName,omitempty"  validate:"omitempty,max=100"`
	Phone     *string        `json:"phone,omitempty"     yaml:"phone,omitempty"     validate:"omitempty,max=30"`
	Role      *UserRole      `json:"role,omitempty"      yaml:"role,omitempty"      validate:"omitempty,enum"`
	RoleID    *string        `json:"roleId,omitempty"    yaml:"roleId,omitempty"`
	IsActive  *bool          `json:"isActive,omitempty"  yaml:"isActive,omitempty"`
	Status    *GenericStatus `json:"status,omitempty"    yaml:"status,omitempty"    validate:"omitempty,enum"`
	Country   *string        `json:"country,omitempty"   yaml:"country,omitempty"`
}

// PasswordChangeRequest is the payload of PATCH /users/{id}/password. CurrentPassword
// is only required when users change their own password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword,omitempty" yaml:"-"`
	NewPassword     string `json:"newPassword"               yaml:"-" validate:"required,min=8,max=64"`
}

// RoleCreateRequest is the payload of POST /roles.
type RoleCreateRequest struct {
	Name          string   `json:"name"                    yaml:"name"                    validate:"required,max=100"`
	Description   string   `json:"description,omitempty"   yaml:"description,omitempty"`
	PermissionIDs []string `json:"permissionIds,omitempty" yaml:"permissionIds,omitempty" validate:"dive,required"`
}

// RoleUpdateRequest is the partial payload of PUT /roles/{id}.
type RoleUpdateRequest struct {
	Name          *string   `json:"name,omitempty"          yaml:"name,omitempty"          validate:"omitempty,max=100"`
	Description   *string   `json:"description,omitempty"   yaml:"description,omitempty"`
	PermissionIDs *[]string `json:"permissionIds,omitempty" yaml:"permissionIds,omitempty"`
}

// RolePermissionsRequest is the payload of PUT /roles/{id}/permissions.
type RolePermissionsRequest struct {
	PermissionIDs []string `json:"permissionIds" yaml:"permissionIds"`
}

// PermissionCreateRequest is the payload of POST /permissions.
type PermissionCreateRequest struct {
	Name        string `json:"name"                  yaml:"name"                  validate:"required,max=100"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PermissionUpdateRequest is the partial payload of PUT /permissions/{id}.
type PermissionUpdateRequest struct {
	Name        *string `json:"name,omitempty"        yaml:"name,omitempty"        validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// CommentCreateRequest is the payload of POST /comments.
type CommentCreateRequest struct {
	ProspectID string `json:"prospectId" yaml:"prospectId" validate:"required"`
	Content    string `json:"content"    yaml:"content"    validate:"required,max=2000"`
}

// CommentUpdateRequest is the partial payload of PUT /comments/{id}.
type CommentUpdateRequest struct {
	Content *string `json:"content,omitempty" yaml:"content,omitempty" validate:"omitempty,min=1,max=2000"`
}

// InteractionCreateRequest is the payload of POST /interactions.
type InteractionCreateRequest struct {
	ProspectID string             `json:"prospectId"           yaml:"prospectId"           validate:"required"`
	Channel    InteractionChannel `json:"channel,omitempty"    yaml:"channel,omitempty"    validate:"required,enum"`
	Duration   int                `json:"duration"             yaml:"duration"             validate:"gte=0"`
	Notes      string             `json:"notes,omitempty"      yaml:"notes,omitempty"      validate:"max=2000"`
	OccurredAt *time.Time         `json:"occurredAt,omitempty" yaml:"occurredAt,omitempty"`
}

// InteractionUpdateRequest is the partial payload of PUT /interactions/{id}.
type InteractionUpdateRequest struct {
	Channel    *InteractionChannel `json:"channel,omitempty"    yaml:"channel,omitempty"    validate:"omitempty,enum"`
	Duration   *int                `json:"duration,omitempty"   yaml:"duration,omitempty"   validate:"omitempty,gte=0"`
	Notes      *string             `json:"notes,omitempty"      yaml:"notes,omitempty"      validate:"omitempty,max=2000"`
	OccurredAt *time.Time          `json:"occurredAt,omitempty" yaml:"occurredAt,omitempty"`
}

// CatalogCreateRequest is the payload of POST /formations and POST /simulateurs.
type CatalogCreateRequest struct {
	Name        string        `json:"name"                  yaml:"name"                  validate:"required,max=200"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Price       Money         `json:"price"                 yaml:"price"                 validate:"gte=0"`
	Country     string        `json:"country"               yaml:"country"               validate:"required,min=2,max=60"`
	Status      GenericStatus `json:"status,omitempty"      yaml:"status,omitempty"      validate:"omitempty,enum"`
}

// CatalogUpdateRequest is the partial payload of PUT /formations/{id} and PUT /simulateurs/{id}.
type CatalogUpdateRequest struct {
	Name        *string        `json:"name,omitempty"        yaml:"name,omitempty"        validate:"omitempty,max=200"`
	Description *string        `json:"description,omitempty" yaml:"description,omitempty"`
	Price       *Money         `json:"price,omitempty"       yaml:"price,omitempty"       validate:"omitempty,gte=0"`
	Country     *string        `json:"country,omitempty"     yaml:"country,omitempty"     validate:"omitempty,min=2,max=60"`
	Status      *GenericStatus `json:"status,omitempty"      yaml:"status,omitempty"      validate:"omitempty,enum"`
}

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Ptr returns a pointer to v, for filling partial update requests.
func Ptr[T any](v T) *T {
	return &v
}
