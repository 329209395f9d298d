package crm

import (
	"encoding/json"
	"fmt"
)

// ProspectType classifies a prospect as a person or a company.
type ProspectType string

const (
	ProspectTypeParticulier ProspectType = "PARTICULIER"
	ProspectTypeEntreprise  ProspectType = "ENTREPRISE"
)

// Valid reports whether t is one of the declared prospect types.
func (t ProspectType) Valid() bool {
	switch t {
	case ProspectTypeParticulier, ProspectTypeEntreprise:
		return true
	}

	return false
}

func (t ProspectType) MarshalJSON() ([]byte, error)     { return marshalEnum(t) }
func (t *ProspectType) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, t) }

// ProspectStatus is the pipeline stage of a prospect.
type ProspectStatus string

const (
	ProspectStatusNouveau       ProspectStatus = "NOUVEAU"
	ProspectStatusContacte      ProspectStatus = "CONTACTE"
	ProspectStatusInteresse     ProspectStatus = "INTERESSE"
	ProspectStatusEnNegociation ProspectStatus = "EN_NEGOCIATION"
	ProspectStatusClosed        ProspectStatus = "CLOSED"
	ProspectStatusPerdu         ProspectStatus = "PERDU"
	ProspectStatusDeleted       ProspectStatus = "DELETED"
)

// InitialProspectStatus is the stage the server assigns to new prospects.
const InitialProspectStatus = ProspectStatusNouveau

// ProspectStatuses lists every pipeline stage in pipeline order.
func ProspectStatuses() []ProspectStatus {
	return []ProspectStatus{
		ProspectStatusNouveau,
		ProspectStatusContacte,
		ProspectStatusInteresse,
		ProspectStatusEnNegociation,
		ProspectStatusClosed,
		ProspectStatusPerdu,
		ProspectStatusDeleted,
	}
}

// Valid reports whether s is one of the declared pipeline stages.
func (s ProspectStatus) Valid() bool {
	switch s {
	case ProspectStatusNouveau, ProspectStatusContacte, ProspectStatusInteresse,
		ProspectStatusEnNegociation, ProspectStatusClosed, ProspectStatusPerdu,
		ProspectStatusDeleted:
		return true
	}

	return false
}

func (s ProspectStatus) MarshalJSON() ([]byte, error)     { return marshalEnum(s) }
func (s *ProspectStatus) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, s) }

// GenericStatus is the lifecycle status shared by users, prospects and catalog items.
type GenericStatus string

const (
	GenericStatusActive   GenericStatus = "ACTIVE"
	GenericStatusInactive GenericStatus = "INACTIVE"
	GenericStatusDeleted  GenericStatus = "DELETED"
)

// Valid reports whether s is a declared lifecycle status.
func (s GenericStatus) Valid() bool {
	switch s {
	case GenericStatusActive, GenericStatusInactive, GenericStatusDeleted:
		return true
	}

	return false
}

func (s GenericStatus) MarshalJSON() ([]byte, error)     { return marshalEnum(s) }
func (s *GenericStatus) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, s) }

// UserRole is the fixed set of roles a user can hold.
type UserRole string

const (
	UserRoleDirecteurGeneral UserRole = "DIRECTEUR_GENERAL"
	UserRoleCountryManager   UserRole = "COUNTRY_MANAGER"
	UserRoleSalesOfficer     UserRole = "SALES_OFFICER"
)

// Valid reports whether r is a declared role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleDirecteurGeneral, UserRoleCountryManager, UserRoleSalesOfficer:
		return true
	}

	return false
}

func (r UserRole) MarshalJSON() ([]byte, error)     { return marshalEnum(r) }
func (r *UserRole) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, r) }

// InteractionChannel is how an interaction with a prospect took place.
type InteractionChannel string

const (
	InteractionChannelAppel    InteractionChannel = "APPEL"
	InteractionChannelEmail    InteractionChannel = "EMAIL"
	InteractionChannelWhatsApp InteractionChannel = "WHATSAPP"
	InteractionChannelReunion  InteractionChannel = "REUNION"
	InteractionChannelSMS      InteractionChannel = "SMS"
)

// Valid reports whether c is a declared channel.
func (c InteractionChannel) Valid() bool {
	switch c {
	case InteractionChannelAppel, InteractionChannelEmail, InteractionChannelWhatsApp,
		InteractionChannelReunion, InteractionChannelSMS:
		return true
	}

	return false
}

func (c InteractionChannel) MarshalJSON() ([]byte, error)     { return marshalEnum(c) }
func (c *InteractionChannel) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, c) }

type enum interface {
	~string
	Valid() bool
}

// marshalEnum refuses to put a value outside the closed set on the wire.
func marshalEnum[E enum](value E) ([]byte, error) {
	if !value.Valid() {
		return nil, fmt.Errorf("%w: %T %q", ErrInvalidEnumValue, value, string(value))
	}

	return json.Marshal(string(value))
}

// unmarshalEnum accepts null and "" as the absent value.
func unmarshalEnum[E enum](data []byte, target *E) error {
	var raw *string

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("decoding %T: %w", *target, err)
	}

	if raw == nil || *raw == "" {
		var zero E

		*target = zero

		return nil
	}

	value := E(*raw)
	if !value.Valid() {
		return fmt.Errorf("%w: %T %q", ErrInvalidEnumValue, value, *raw)
	}

	*target = value

	return nil
}
