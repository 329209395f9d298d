package dashboard

import (
	"context"

	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/query"
)

// ChangePassword sets the password of a user. Changing another user's password
// needs users.update_password and is refused before any request when the session
// lacks it. Users changing their own password must give the current one.
func (d *Dashboard) ChangePassword(ctx context.Context, userID string, request *crm.PasswordChangeRequest) query.Result[struct{}] {
	if d.session != nil && !d.session.IsSelf(userID) {
		err := d.session.Require("change another user's password", crm.PermUsersUpdatePassword)
		if err != nil {
			return query.Result[struct{}]{Err: err}
		}
	}

	err := crm.Validate(request)
	if err != nil {
		return query.Result[struct{}]{Err: err}
	}

	return query.Mutate(ctx, d.store, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.client.Users().ChangePassword(ctx, userID, request)
	}, query.WithTarget(d.users.DetailKey(userID)))
}

// SetRolePermissions replaces the permission set of a role. Every role view and
// the permission lists are invalidated.
func (d *Dashboard) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) query.Result[*crm.Role] {
	err := d.require("set role permissions", crm.PermRolesManage)
	if err != nil {
		return query.Result[*crm.Role]{Err: err}
	}

	return query.Mutate(ctx, d.store, func(ctx context.Context) (*crm.Role, error) {
		return d.client.Roles().SetPermissions(ctx, roleID, permissionIDs)
	}, query.Updates(d.roles.DetailKey(roleID)), query.Invalidates(d.roles.invalidates()...))
}
