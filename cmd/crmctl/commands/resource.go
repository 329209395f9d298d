package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freddy208/crmprospect/pkg/query"
)

// The get and delete subcommands look the same for every entity.

func newGetCommand[T any](
	noun string,
	get func(rt *runtime) func(ctx context.Context, id string) (*T, error),
	show func(cmd *cobra.Command, item *T) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: fmt.Sprintf("Get %s details", noun),
		Long:  fmt.Sprintf("Display the details of a %s", noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			item, err := get(rt)(cmd.Context(), args[0])
			if err != nil {
				return rt.explain(err)
			}

			return show(cmd, item)
		},
	}
}

func newDeleteCommand[T any](
	noun string,
	remove func(rt *runtime) func(ctx context.Context, id string) query.Result[*T],
) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: fmt.Sprintf("Delete a %s", noun),
		Long:  fmt.Sprintf("Delete a %s", noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Really delete %s %s? (y/N): ", noun, args[0])

				if !confirm(cmd.InOrStdin()) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")

					return nil
				}
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			_, err = unwrap(rt, remove(rt)(cmd.Context(), args[0]))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", noun, args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}
