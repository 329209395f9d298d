package client

import (
	"context"
	"fmt"

	"github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// UsersClient implements crm.UsersClient.
type UsersClient struct {
	*ResourceClient[crm.User, *crm.UserFilter, crm.UserCreateRequest, crm.UserUpdateRequest]
}

// NewUsersClient creates a new users client.
func NewUsersClient(httpClient *http.Client) *UsersClient {
	return &UsersClient{
		ResourceClient: NewResourceClient[crm.User, *crm.UserFilter, crm.UserCreateRequest, crm.UserUpdateRequest](
			httpClient, "/users", "user", "users"),
	}
}

// ChangePassword implements crm.UsersClient.ChangePassword.
func (c *UsersClient) ChangePassword(ctx context.Context, id string, request *crm.PasswordChangeRequest) error {
	path, err := c.itemPath(id)
	if err != nil {
		return err
	}

	_, err = c.httpClient.Patch(ctx, path+"/password", request)
	if err != nil {
		return fmt.Errorf("changing user password: %w", err)
	}

	return nil
}
