package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/query"
)

// NewRolesCommand creates the roles command group.
func NewRolesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "roles",
		Aliases: []string{"role"},
		Short:   "Manage roles",
		Long:    "List, create, update and delete roles and set the permissions they grant",
	}

	cmd.AddCommand(newRolesListCommand())
	cmd.AddCommand(newGetCommand("role", func(rt *runtime) func(context.Context, string) (*crm.Role, error) {
		return rt.dashboard.Roles().Get
	}, printRole))
	cmd.AddCommand(newRolesCreateCommand())
	cmd.AddCommand(newRolesUpdateCommand())
	cmd.AddCommand(newDeleteCommand("role", func(rt *runtime) func(context.Context, string) query.Result[*crm.Role] {
		return rt.dashboard.Roles().Remove
	}))
	cmd.AddCommand(newRolesSetPermissionsCommand())

	return cmd
}

func newRolesListCommand() *cobra.Command {
	var filter crm.RoleFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roles",
		Long:  "List roles with their permission and user counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			roles, err := rt.dashboard.Roles().List(cmd.Context(), &filter)
			if err != nil {
				return rt.explain(err)
			}

			rows := make([][]string, 0, len(roles))
			for _, role := range roles {
				rows = append(rows, []string{
					role.ID,
					role.Name,
					valueOrNA(role.Description),
					strconv.Itoa(len(role.Permissions)),
					strconv.Itoa(role.Counts.Users),
				})
			}

			return newPrinter(cmd).list(roles, "roles", []string{"ID", "Name", "Description", "Permissions", "Users"}, rows)
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "search in role names")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")

	return cmd
}

func printRole(cmd *cobra.Command, role *crm.Role) error {
	return newPrinter(cmd).properties(role, [][2]string{
		{"ID", role.ID},
		{"Name", role.Name},
		{"Description", valueOrNA(role.Description)},
		{"Users", strconv.Itoa(role.Counts.Users)},
		{"Permissions", valueOrNA(strings.Join(role.PermissionNames(), "\n"))},
		{"Created", formatTime(role.CreatedAt)},
	})
}

func newRolesCreateCommand() *cobra.Command {
	var request crm.RoleCreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a role",
		Long:  "Create a role, optionally granting permissions by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			role, err := unwrap(rt, rt.dashboard.Roles().Create(cmd.Context(), &request))
			if err != nil {
				return err
			}

			return printRole(cmd, role)
		},
	}

	cmd.Flags().StringVar(&request.Name, "name", "", "role name")
	cmd.Flags().StringVar(&request.Description, "description", "", "role description")
	cmd.Flags().StringSliceVar(&request.PermissionIDs, "permission", nil, "permission ID to grant (repeatable)")

	return cmd
}

func newRolesUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a role",
		Long:  "Rename a role or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &crm.RoleUpdateRequest{
				Name:        stringFlag(cmd, "name"),
				Description: stringFlag(cmd, "description"),
			}

			if request.Name == nil && request.Description == nil {
				return constants.ErrNothingToUpdate
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			role, err := unwrap(rt, rt.dashboard.Roles().Update(cmd.Context(), args[0], request))
			if err != nil {
				return err
			}

			return printRole(cmd, role)
		},
	}

	cmd.Flags().String("name", "", "role name")
	cmd.Flags().String("description", "", "role description")

	return cmd
}

func newRolesSetPermissionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-permissions ID [PERMISSION_ID...]",
		Short: "Replace the permissions of a role",
		Long:  "Replace the permission set of a role. Passing no permission IDs revokes every permission.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			role, err := unwrap(rt, rt.dashboard.SetRolePermissions(cmd.Context(), args[0], args[1:]))
			if err != nil {
				return err
			}

			return printRole(cmd, role)
		},
	}
}

// NewPermissionsCommand creates the permissions command group.
func NewPermissionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "permissions",
		Aliases: []string{"permission", "perms"},
		Short:   "Manage permissions",
		Long:    "List, create, update and delete the named permissions roles can grant",
	}

	cmd.AddCommand(newPermissionsListCommand())
	cmd.AddCommand(newGetCommand("permission", func(rt *runtime) func(context.Context, string) (*crm.Permission, error) {
		return rt.dashboard.Permissions().Get
	}, printPermission))
	cmd.AddCommand(newPermissionsCreateCommand())
	cmd.AddCommand(newPermissionsUpdateCommand())
	cmd.AddCommand(newDeleteCommand("permission", func(rt *runtime) func(context.Context, string) query.Result[*crm.Permission] {
		return rt.dashboard.Permissions().Remove
	}))

	return cmd
}

func newPermissionsListCommand() *cobra.Command {
	var filter crm.PermissionFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List permissions",
		Long:  "List every permission known to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			permissions, err := rt.dashboard.Permissions().List(cmd.Context(), &filter)
			if err != nil {
				return rt.explain(err)
			}

			rows := make([][]string, 0, len(permissions))
			for _, permission := range permissions {
				rows = append(rows, []string{permission.ID, permission.Name, valueOrNA(permission.Description)})
			}

			return newPrinter(cmd).list(permissions, "permissions", []string{"ID", "Name", "Description"}, rows)
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "search in permission names")

	return cmd
}

func printPermission(cmd *cobra.Command, permission *crm.Permission) error {
	return newPrinter(cmd).properties(permission, [][2]string{
		{"ID", permission.ID},
		{"Name", permission.Name},
		{"Description", valueOrNA(permission.Description)},
	})
}

func newPermissionsCreateCommand() *cobra.Command {
	var request crm.PermissionCreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a permission",
		Long:  "Create a named permission, e.g. prospects.export",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			permission, err := unwrap(rt, rt.dashboard.Permissions().Create(cmd.Context(), &request))
			if err != nil {
				return err
			}

			return printPermission(cmd, permission)
		},
	}

	cmd.Flags().StringVar(&request.Name, "name", "", "permission name")
	cmd.Flags().StringVar(&request.Description, "description", "", "permission description")

	return cmd
}

func newPermissionsUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a permission",
		Long:  "Rename a permission or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &crm.PermissionUpdateRequest{
				Name:        stringFlag(cmd, "name"),
				Description: stringFlag(cmd, "description"),
			}

			if request.Name == nil && request.Description == nil {
				return constants.ErrNothingToUpdate
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			permission, err := unwrap(rt, rt.dashboard.Permissions().Update(cmd.Context(), args[0], request))
			if err != nil {
				return err
			}

			return printPermission(cmd, permission)
		},
	}

	cmd.Flags().String("name", "", "permission name")
	cmd.Flags().String("description", "", "permission description")

	return cmd
}
