package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/query"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user", "u"},
		Short:   "Manage users",
		Long:    "List, create, update and delete dashboard accounts and change passwords",
	}

	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newGetCommand("user", func(rt *runtime) func(context.Context, string) (*crm.User, error) {
		return rt.dashboard.Users().Get
	}, printUser))
	cmd.AddCommand(newUsersCreateCommand())
	cmd.AddCommand(newUsersUpdateCommand())
	cmd.AddCommand(newDeleteCommand("user", func(rt *runtime) func(context.Context, string) query.Result[*crm.User] {
		return rt.dashboard.Users().Remove
	}))
	cmd.AddCommand(newUsersPasswordCommand())

	return cmd
}

func newUsersListCommand() *cobra.Command {
	var (
		filter crm.UserFilter
		role   string
		status string
		active string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long:  "List dashboard accounts, optionally filtered by role, status and country",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			filter.Role, err = parseOptionalEnum[crm.UserRole]("role", role)
			if err != nil {
				return err
			}

			filter.Status, err = parseOptionalEnum[crm.GenericStatus]("status", status)
			if err != nil {
				return err
			}

			if active != "" {
				isActive, err := strconv.ParseBool(active)
				if err != nil {
					return fmt.Errorf("%w: --active %q", constants.ErrInvalidFlagValue, active)
				}

				filter.IsActive = &isActive
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			users, err := rt.dashboard.Users().List(cmd.Context(), &filter)
			if err != nil {
				return rt.explain(err)
			}

			rows := make([][]string, 0, len(users))
			for _, user := range users {
				rows = append(rows, []string{
					user.ID,
					user.FullName(),
					user.Email,
					string(user.Role),
					valueOrNA(user.Country),
					strconv.FormatBool(user.IsActive),
					formatTimePtr(user.LastLoginAt),
				})
			}

			return newPrinter(cmd).list(users, "users",
				[]string{"ID", "Name", "Email", "Role", "Country", "Active", "Last Login"}, rows)
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "search in names and email")
	cmd.Flags().StringVar(&role, "role", "", "role (DIRECTEUR_GENERAL, COUNTRY_MANAGER, SALES_OFFICER)")
	cmd.Flags().StringVar(&status, "status", "", "lifecycle status (ACTIVE, INACTIVE, DELETED)")
	cmd.Flags().StringVar(&filter.Country, "country", "", "filter by country")
	cmd.Flags().StringVar(&active, "active", "", "filter by active flag (true, false)")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")

	return cmd
}

func printUser(cmd *cobra.Command, user *crm.User) error {
	return newPrinter(cmd).properties(user, [][2]string{
		{"ID", user.ID},
		{"Name", user.FullName()},
		{"Email", user.Email},
		{"Phone", valueOrNA(user.Phone)},
		{"Role", valueOrNA(string(user.Role))},
		{"Role ID", valueOrNA(user.RoleID)},
		{"Country", valueOrNA(user.Country)},
		{"Active", strconv.FormatBool(user.IsActive)},
		{"Status", valueOrNA(string(user.Status))},
		{"Last Login", formatTimePtr(user.LastLoginAt)},
		{"Created", formatTime(user.CreatedAt)},
	})
}

func newUsersCreateCommand() *cobra.Command {
	var (
		request crm.UserCreateRequest
		role    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long:  "Create a dashboard account. The password is prompted when --password is omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			request.Role, err = parseEnum[crm.UserRole]("role", role)
			if err != nil {
				return err
			}

			if request.Password == "" {
				request.Password, err = readNewPassword(newPrompter(cmd))
				if err != nil {
					return err
				}
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			user, err := unwrap(rt, rt.dashboard.Users().Create(cmd.Context(), &request))
			if err != nil {
				return err
			}

			return printUser(cmd, user)
		},
	}

	cmd.Flags().StringVar(&request.Email, "email", "", "email address")
	cmd.Flags().StringVar(&request.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&request.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&request.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&request.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&role, "role", string(crm.UserRoleSalesOfficer), "role")
	cmd.Flags().StringVar(&request.RoleID, "role-id", "", "custom role ID")
	cmd.Flags().StringVar(&request.Country, "country", "", "country")

	return cmd
}

func newUsersUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a user",
		Long:  "Update the fields given as flags. Other fields are left unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &crm.UserUpdateRequest{
				Email:     stringFlag(cmd, "email"),
				FirstName: stringFlag(cmd, "first-name"),
				LastName:  stringFlag(cmd, "last-name"),
				Phone:     stringFlag(cmd, "phone"),
				RoleID:    stringFlag(cmd, "role-id"),
				Country:   stringFlag(cmd, "country"),
			}

			changed := request.Email != nil || request.FirstName != nil || request.LastName != nil ||
				request.Phone != nil || request.RoleID != nil || request.Country != nil

			if value := stringFlag(cmd, "role"); value != nil {
				role, err := parseEnum[crm.UserRole]("role", *value)
				if err != nil {
					return err
				}

				request.Role = &role
				changed = true
			}

			if value := stringFlag(cmd, "status"); value != nil {
				status, err := parseEnum[crm.GenericStatus]("status", *value)
				if err != nil {
					return err
				}

				request.Status = &status
				changed = true
			}

			if cmd.Flags().Changed("active") {
				active, _ := cmd.Flags().GetBool("active")
				request.IsActive = &active
				changed = true
			}

			if !changed {
				return constants.ErrNothingToUpdate
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			user, err := unwrap(rt, rt.dashboard.Users().Update(cmd.Context(), args[0], request))
			if err != nil {
				return err
			}

			return printUser(cmd, user)
		},
	}

	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("first-name", "", "first name")
	cmd.Flags().String("last-name", "", "last name")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("role", "", "role")
	cmd.Flags().String("role-id", "", "custom role ID")
	cmd.Flags().String("status", "", "lifecycle status")
	cmd.Flags().String("country", "", "country")
	cmd.Flags().Bool("active", true, "whether the account may log in")

	return cmd
}

func newUsersPasswordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password ID",
		Short: "Change a user's password",
		Long:  "Change a password. Your own password needs the current one; other users' need users.update_password.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			prompt := newPrompter(cmd)
			request := &crm.PasswordChangeRequest{}

			if rt.session.IsSelf(args[0]) {
				request.CurrentPassword, err = prompt.secret("Current password: ")
				if err != nil {
					return err
				}
			}

			request.NewPassword, err = readNewPassword(prompt)
			if err != nil {
				return err
			}

			_, err = unwrap(rt, rt.dashboard.ChangePassword(cmd.Context(), args[0], request))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Password changed")

			return nil
		},
	}

	return cmd
}

// readNewPassword prompts for a password twice.
func readNewPassword(prompt *prompter) (string, error) {
	password, err := prompt.secret("New password: ")
	if err != nil {
		return "", err
	}

	if password == "" {
		return "", constants.ErrPasswordRequired
	}

	again, err := prompt.secret("Repeat password: ")
	if err != nil {
		return "", err
	}

	if again != password {
		return "", constants.ErrPasswordMismatch
	}

	return password, nil
}
