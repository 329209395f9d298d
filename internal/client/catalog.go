package client

import (
	"github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// NewPermissionsClient creates a client for /permissions.
func NewPermissionsClient(httpClient *http.Client) crm.PermissionsClient {
	return NewResourceClient[crm.Permission, *crm.PermissionFilter, crm.PermissionCreateRequest, crm.PermissionUpdateRequest](
		httpClient, "/permissions", "permission", "permissions")
}

// NewCommentsClient creates a client for /comments.
func NewCommentsClient(httpClient *http.Client) crm.CommentsClient {
	return NewResourceClient[crm.Comment, *crm.CommentFilter, crm.CommentCreateRequest, crm.CommentUpdateRequest](
		httpClient, "/comments", "comment", "comments")
}

// NewInteractionsClient creates a client for /interactions.
func NewInteractionsClient(httpClient *http.Client) crm.InteractionsClient {
	return NewResourceClient[crm.Interaction, *crm.InteractionFilter, crm.InteractionCreateRequest, crm.InteractionUpdateRequest](
		httpClient, "/interactions", "interaction", "interactions")
}

// NewFormationsClient creates a client for /formations.
func NewFormationsClient(httpClient *http.Client) crm.FormationsClient {
	return NewResourceClient[crm.Formation, *crm.CatalogFilter, crm.CatalogCreateRequest, crm.CatalogUpdateRequest](
		httpClient, "/formations", "formation", "formations")
}

// NewSimulateursClient creates a client for /simulateurs.
func NewSimulateursClient(httpClient *http.Client) crm.SimulateursClient {
	return NewResourceClient[crm.Simulateur, *crm.CatalogFilter, crm.CatalogCreateRequest, crm.CatalogUpdateRequest](
		httpClient, "/simulateurs", "simulateur", "simulateurs")
}
