package client

import (
	"context"
	"fmt"

	"github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// RolesClient implements crm.RolesClient.
type RolesClient struct {
	*ResourceClient[crm.Role, *crm.RoleFilter, crm.RoleCreateRequest, crm.RoleUpdateRequest]
}

// NewRolesClient creates a new roles client.
func NewRolesClient(httpClient *http.Client) *RolesClient {
	return &RolesClient{
		ResourceClient: NewResourceClient[crm.Role, *crm.RoleFilter, crm.RoleCreateRequest, crm.RoleUpdateRequest](
			httpClient, "/roles", "role", "roles"),
	}
}

// SetPermissions replaces the permission set of a role.
func (c *RolesClient) SetPermissions(ctx context.Context, id string, permissionIDs []string) (*crm.Role, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}

	if permissionIDs == nil {
		permissionIDs = []string{}
	}

	resp, err := c.httpClient.Put(ctx, path+"/permissions", &crm.RolePermissionsRequest{PermissionIDs: permissionIDs})
	if err != nil {
		return nil, fmt.Errorf("setting role permissions: %w", err)
	}

	role, err := decode[crm.Role](resp.Body, "role")
	if err != nil {
		return nil, fmt.Errorf("parsing role response: %w", err)
	}

	return role, nil
}
