package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the CRM",
		Long:  "Authenticate with email and password. The session cookie is saved in the configuration file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.API == "" {
				return constants.ErrNoBaseURLConfigured
			}

			prompt := newPrompter(cmd)

			if email == "" {
				email = config.Email
			}

			if email == "" {
				answer, err := prompt.line("Email: ")
				if err != nil {
					return err
				}

				email = answer
			}

			if email == "" {
				return constants.ErrEmailRequired
			}

			if password == "" {
				answer, err := prompt.secret("Password: ")
				if err != nil {
					return err
				}

				password = answer
			}

			if password == "" {
				return constants.ErrPasswordRequired
			}

			// A new login never reuses the previous cookies.
			config.Cookies = nil

			rt, err := newRuntime(cmd.Context(), cmd, config)
			if err != nil {
				return err
			}
			defer rt.close()

			user, err := rt.session.Login(cmd.Context(), email, password)
			if err != nil {
				return rt.explain(err)
			}

			config.Email = user.Email

			err = rt.saveSession()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s> (%s)\n", user.FullName(), user.Email, user.Role)

			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the CRM",
		Long:  "End the session on the server and remove the saved session cookie",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if len(config.Cookies) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")

				return nil
			}

			rt, err := newRuntime(cmd.Context(), cmd, config)
			if err != nil {
				return err
			}
			defer rt.close()

			logoutErr := rt.session.Logout(cmd.Context())

			err = rt.saveSession()
			if err != nil {
				return err
			}

			if logoutErr != nil {
				return rt.explain(logoutErr)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Long:  "Show the user of the saved session and the permissions it grants",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			user, _ := rt.session.CurrentUser()
			permissions := rt.session.Permissions()

			return newPrinter(cmd).properties(crm.Me{User: user, Permissions: permissions}, [][2]string{
				{"ID", user.ID},
				{"Name", user.FullName()},
				{"Email", user.Email},
				{"Role", valueOrNA(string(user.Role))},
				{"Country", valueOrNA(user.Country)},
				{"Last Login", formatTimePtr(user.LastLoginAt)},
				{"Permissions", valueOrNA(strings.Join(permissions, "\n"))},
			})
		},
	}
}
