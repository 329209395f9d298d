package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/query"
)

// NewCommentsCommand creates the comments command group.
func NewCommentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Manage prospect comments",
		Long:    "List, add, edit and delete the notes left on prospects",
	}

	cmd.AddCommand(newCommentsListCommand())
	cmd.AddCommand(newGetCommand("comment", func(rt *runtime) func(context.Context, string) (*crm.Comment, error) {
		return rt.dashboard.Comments().Get
	}, printComment))
	cmd.AddCommand(newCommentsCreateCommand())
	cmd.AddCommand(newCommentsUpdateCommand())
	cmd.AddCommand(newDeleteCommand("comment", func(rt *runtime) func(context.Context, string) query.Result[*crm.Comment] {
		return rt.dashboard.Comments().Remove
	}))

	return cmd
}

func newCommentsListCommand() *cobra.Command {
	var filter crm.CommentFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List comments",
		Long:  "List comments, usually those of one prospect",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			comments, err := rt.dashboard.Comments().List(cmd.Context(), &filter)
			if err != nil {
				return rt.explain(err)
			}

			rows := make([][]string, 0, len(comments))
			for _, comment := range comments {
				rows = append(rows, []string{
					comment.ID,
					comment.ProspectID,
					userName(comment.Author),
					comment.Content,
					formatTime(comment.CreatedAt),
				})
			}

			return newPrinter(cmd).list(comments, "comments", []string{"ID", "Prospect", "Author", "Content", "Created"}, rows)
		},
	}

	cmd.Flags().StringVar(&filter.ProspectID, "prospect", "", "prospect ID")
	cmd.Flags().StringVar(&filter.AuthorID, "author", "", "author user ID")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")

	return cmd
}

func printComment(cmd *cobra.Command, comment *crm.Comment) error {
	return newPrinter(cmd).properties(comment, [][2]string{
		{"ID", comment.ID},
		{"Prospect", comment.ProspectID},
		{"Author", userName(comment.Author)},
		{"Content", comment.Content},
		{"Created", formatTime(comment.CreatedAt)},
		{"Updated", formatTime(comment.UpdatedAt)},
	})
}

func newCommentsCreateCommand() *cobra.Command {
	var request crm.CommentCreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a comment",
		Long:  "Add a comment to a prospect",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			comment, err := unwrap(rt, rt.dashboard.Comments().Create(cmd.Context(), &request))
			if err != nil {
				return err
			}

			return printComment(cmd, comment)
		},
	}

	cmd.Flags().StringVar(&request.ProspectID, "prospect", "", "prospect ID")
	cmd.Flags().StringVar(&request.Content, "content", "", "comment text")

	return cmd
}

func newCommentsUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a comment",
		Long:  "Replace the text of a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &crm.CommentUpdateRequest{Content: stringFlag(cmd, "content")}
			if request.Content == nil {
				return constants.ErrNothingToUpdate
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			comment, err := unwrap(rt, rt.dashboard.Comments().Update(cmd.Context(), args[0], request))
			if err != nil {
				return err
			}

			return printComment(cmd, comment)
		},
	}

	cmd.Flags().String("content", "", "comment text")

	return cmd
}

// NewInteractionsCommand creates the interactions command group.
func NewInteractionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interactions",
		Aliases: []string{"interaction"},
		Short:   "Manage prospect interactions",
		Long:    "List, record, edit and delete calls, emails and meetings with prospects",
	}

	cmd.AddCommand(newInteractionsListCommand())
	cmd.AddCommand(newGetCommand("interaction", func(rt *runtime) func(context.Context, string) (*crm.Interaction, error) {
		return rt.dashboard.Interactions().Get
	}, printInteraction))
	cmd.AddCommand(newInteractionsCreateCommand())
	cmd.AddCommand(newInteractionsUpdateCommand())
	cmd.AddCommand(newDeleteCommand("interaction", func(rt *runtime) func(context.Context, string) query.Result[*crm.Interaction] {
		return rt.dashboard.Interactions().Remove
	}))

	return cmd
}

func newInteractionsListCommand() *cobra.Command {
	var (
		filter  crm.InteractionFilter
		channel string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interactions",
		Long:  "List interactions, usually those of one prospect",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			filter.Channel, err = parseOptionalEnum[crm.InteractionChannel]("channel", channel)
			if err != nil {
				return err
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			interactions, err := rt.dashboard.Interactions().List(cmd.Context(), &filter)
			if err != nil {
				return rt.explain(err)
			}

			rows := make([][]string, 0, len(interactions))
			for _, interaction := range interactions {
				rows = append(rows, []string{
					interaction.ID,
					interaction.ProspectID,
					string(interaction.Channel),
					strconv.Itoa(interaction.Duration),
					userName(interaction.Author),
					formatTimePtr(interaction.OccurredAt),
				})
			}

			return newPrinter(cmd).list(interactions, "interactions",
				[]string{"ID", "Prospect", "Channel", "Minutes", "Author", "Occurred"}, rows)
		},
	}

	cmd.Flags().StringVar(&filter.ProspectID, "prospect", "", "prospect ID")
	cmd.Flags().StringVar(&filter.AuthorID, "author", "", "author user ID")
	cmd.Flags().StringVar(&channel, "channel", "", "channel (APPEL, EMAIL, WHATSAPP, REUNION, SMS)")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")

	return cmd
}

func printInteraction(cmd *cobra.Command, interaction *crm.Interaction) error {
	return newPrinter(cmd).properties(interaction, [][2]string{
		{"ID", interaction.ID},
		{"Prospect", interaction.ProspectID},
		{"Channel", string(interaction.Channel)},
		{"Minutes", strconv.Itoa(interaction.Duration)},
		{"Notes", valueOrNA(interaction.Notes)},
		{"Author", userName(interaction.Author)},
		{"Occurred", formatTimePtr(interaction.OccurredAt)},
		{"Created", formatTime(interaction.CreatedAt)},
	})
}

func newInteractionsCreateCommand() *cobra.Command {
	var (
		request    crm.InteractionCreateRequest
		channel    string
		occurredAt string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record an interaction",
		Long:  "Record a call, email, message or meeting with a prospect",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			request.Channel, err = parseEnum[crm.InteractionChannel]("channel", channel)
			if err != nil {
				return err
			}

			if occurredAt != "" {
				when, err := parseTimestamp("occurred-at", occurredAt)
				if err != nil {
					return err
				}

				request.OccurredAt = &when
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			interaction, err := unwrap(rt, rt.dashboard.Interactions().Create(cmd.Context(), &request))
			if err != nil {
				return err
			}

			return printInteraction(cmd, interaction)
		},
	}

	cmd.Flags().StringVar(&request.ProspectID, "prospect", "", "prospect ID")
	cmd.Flags().StringVar(&channel, "channel", string(crm.InteractionChannelAppel), "channel")
	cmd.Flags().IntVar(&request.Duration, "duration", 0, "duration in minutes")
	cmd.Flags().StringVar(&request.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&occurredAt, "occurred-at", "", "when it happened (RFC 3339), defaults to now on the server")

	return cmd
}

func newInteractionsUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit an interaction",
		Long:  "Update the fields given as flags. Other fields are left unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &crm.InteractionUpdateRequest{Notes: stringFlag(cmd, "notes")}
			changed := request.Notes != nil

			if value := stringFlag(cmd, "channel"); value != nil {
				channel, err := parseEnum[crm.InteractionChannel]("channel", *value)
				if err != nil {
					return err
				}

				request.Channel = &channel
				changed = true
			}

			if cmd.Flags().Changed("duration") {
				duration, _ := cmd.Flags().GetInt("duration")
				request.Duration = &duration
				changed = true
			}

			if value := stringFlag(cmd, "occurred-at"); value != nil {
				when, err := parseTimestamp("occurred-at", *value)
				if err != nil {
					return err
				}

				request.OccurredAt = &when
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

			interaction, err := unwrap(rt, rt.dashboard.Interactions().Update(cmd.Context(), args[0], request))
			if err != nil {
				return err
			}

			return printInteraction(cmd, interaction)
		},
	}

	cmd.Flags().String("channel", "", "channel")
	cmd.Flags().Int("duration", 0, "duration in minutes")
	cmd.Flags().String("notes", "", "notes")
	cmd.Flags().String("occurred-at", "", "when it happened (RFC 3339)")

	return cmd
}

func parseTimestamp(flag, value string) (time.Time, error) {
	when, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s %q", constants.ErrInvalidFlagValue, flag, value)
	}

	return when, nil
}
