package commands

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/dashboard"
)

// NewProspectsCommand creates the prospects command group.
func NewProspectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prospects",
		Aliases: []string{"prospect", "p"},
		Short:   "Manage prospects",
		Long:    "List, create, update, delete and assign prospects of the sales pipeline",
	}

	cmd.AddCommand(newProspectsListCommand())
	cmd.AddCommand(newProspectsGetCommand())
	cmd.AddCommand(newProspectsCreateCommand())
	cmd.AddCommand(newProspectsUpdateCommand())
	cmd.AddCommand(newProspectsDeleteCommand())
	cmd.AddCommand(newProspectsAssignCommand())
	cmd.AddCommand(newProspectsStatsCommand())
	cmd.AddCommand(newProspectsActivityCommand())

	return cmd
}

func newProspectsListCommand() *cobra.Command {
	var (
		filter        crm.ProspectFilter
		status        string
		genericStatus string
		prospectType  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prospects",
		Long:  "List prospects, optionally filtered by status, country, assignee and search text",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			filter.Status, err = parseOptionalEnum[crm.ProspectStatus]("status", status)
			if err != nil {
				return err
			}

			filter.GenericStatus, err = parseOptionalEnum[crm.GenericStatus]("generic-status", genericStatus)
			if err != nil {
				return err
			}

			filter.Type, err = parseOptionalEnum[crm.ProspectType]("type", prospectType)
			if err != nil {
				return err
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			prospects, err := rt.dashboard.Prospects(cmd.Context(), &filter)
			if err != nil {
				return rt.explain(err)
			}

			rows := make([][]string, 0, len(prospects))
			for _, prospect := range prospects {
				rows = append(rows, []string{
					prospect.ID,
					prospect.DisplayName(),
					string(prospect.Type),
					prospect.Email,
					prospect.Country,
					string(prospect.Status),
					userName(prospect.AssignedTo),
					formatTime(prospect.CreatedAt),
				})
			}

			return newPrinter(cmd).list(prospects, "prospects",
				[]string{"ID", "Name", "Type", "Email", "Country", "Status", "Assigned To", "Created"}, rows)
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "search in names, email and company")
	cmd.Flags().StringVar(&status, "status", "", "pipeline status (NOUVEAU, CONTACTE, INTERESSE, EN_NEGOCIATION, CLOSED, PERDU)")
	cmd.Flags().StringVar(&genericStatus, "generic-status", "", "lifecycle status (ACTIVE, INACTIVE, DELETED)")
	cmd.Flags().StringVar(&prospectType, "type", "", "prospect type (PARTICULIER, ENTREPRISE)")
	cmd.Flags().StringVar(&filter.Country, "country", "", "filter by country")
	cmd.Flags().StringVar(&filter.City, "city", "", "filter by city")
	cmd.Flags().StringVar(&filter.Source, "source", "", "filter by source")
	cmd.Flags().StringVar(&filter.AssignedToID, "assigned-to", "", "filter by assignee ID")
	cmd.Flags().StringVar(&filter.CreatedByID, "created-by", "", "filter by creator ID")
	cmd.Flags().StringVar(&filter.FormationID, "formation", "", "filter by formation ID")
	cmd.Flags().StringVar(&filter.SimulateurID, "simulateur", "", "filter by simulateur ID")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")
	cmd.Flags().StringVar(&filter.SortBy, "sort-by", "", "sort field, e.g. createdAt")
	cmd.Flags().StringVar(&filter.SortOrder, "sort-order", "", "sort order (asc, desc)")

	return cmd
}

func newProspectsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PROSPECT_ID",
		Short: "Get prospect details",
		Long:  "Display the details of a prospect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			prospect, err := rt.dashboard.Prospect(cmd.Context(), args[0])
			if err != nil {
				return rt.explain(err)
			}

			return printProspect(cmd, prospect)
		},
	}
}

func printProspect(cmd *cobra.Command, prospect *crm.Prospect) error {
	return newPrinter(cmd).properties(prospect, [][2]string{
		{"ID", prospect.ID},
		{"Name", prospect.DisplayName()},
		{"Type", string(prospect.Type)},
		{"Email", prospect.Email},
		{"Phone", valueOrNA(prospect.Phone)},
		{"Country", prospect.Country},
		{"City", valueOrNA(prospect.City)},
		{"Address", valueOrNA(prospect.Address)},
		{"Source", valueOrNA(prospect.Source)},
		{"Status", string(prospect.Status)},
		{"Lifecycle", valueOrNA(string(prospect.GenericStatus))},
		{"Created By", userName(prospect.CreatedBy)},
		{"Assigned To", userName(prospect.AssignedTo)},
		{"Formation", derefOrNA(prospect.FormationID)},
		{"Simulateur", derefOrNA(prospect.SimulateurID)},
		{"Comments", strconv.Itoa(prospect.Counts.Comments)},
		{"Interactions", strconv.Itoa(prospect.Counts.Interactions)},
		{"Created", formatTime(prospect.CreatedAt)},
		{"Updated", formatTime(prospect.UpdatedAt)},
	})
}

// addProspectFields registers the editable prospect fields on cmd.
func addProspectFields(cmd *cobra.Command) {
	cmd.Flags().String("type", string(crm.ProspectTypeParticulier), "prospect type (PARTICULIER, ENTREPRISE)")
	cmd.Flags().String("first-name", "", "first name")
	cmd.Flags().String("last-name", "", "last name")
	cmd.Flags().String("company", "", "company name, required for ENTREPRISE")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("country", "", "country")
	cmd.Flags().String("city", "", "city")
	cmd.Flags().String("address", "", "postal address")
	cmd.Flags().String("source", "", "where the prospect came from")
	cmd.Flags().String("assign-to", "", "assignee user ID")
	cmd.Flags().String("formation", "", "formation ID")
	cmd.Flags().String("simulateur", "", "simulateur ID")
}

func newProspectsCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a prospect",
		Long:  "Create a prospect. Particuliers need a first name and entreprises a company name.",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			typeValue, _ := flags.GetString("type")

			prospectType, err := parseEnum[crm.ProspectType]("type", typeValue)
			if err != nil {
				return err
			}

			request := &crm.ProspectCreateRequest{
				Type:         prospectType,
				AssignedToID: stringFlag(cmd, "assign-to"),
				FormationID:  stringFlag(cmd, "formation"),
				SimulateurID: stringFlag(cmd, "simulateur"),
			}

			request.FirstName, _ = flags.GetString("first-name")
			request.LastName, _ = flags.GetString("last-name")
			request.CompanyName, _ = flags.GetString("company")
			request.Email, _ = flags.GetString("email")
			request.Phone, _ = flags.GetString("phone")
			request.Country, _ = flags.GetString("country")
			request.City, _ = flags.GetString("city")
			request.Address, _ = flags.GetString("address")
			request.Source, _ = flags.GetString("source")

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			prospect, err := unwrap(rt, rt.dashboard.CreateProspect(cmd.Context(), request))
			if err != nil {
				return err
			}

			return printProspect(cmd, prospect)
		},
	}

	addProspectFields(cmd)

	return cmd
}

func newProspectsUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update PROSPECT_ID",
		Short: "Update a prospect",
		Long:  "Update the fields given as flags. Other fields are left unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := prospectUpdateFromFlags(cmd)
			if err != nil {
				return err
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			prospect, err := unwrap(rt, rt.dashboard.UpdateProspect(cmd.Context(), args[0], request))
			if err != nil {
				return err
			}

			return printProspect(cmd, prospect)
		},
	}

	addProspectFields(cmd)
	cmd.Flags().String("status", "", "pipeline status")
	cmd.Flags().String("generic-status", "", "lifecycle status")

	return cmd
}

func prospectUpdateFromFlags(cmd *cobra.Command) (*crm.ProspectUpdateRequest, error) {
	request := &crm.ProspectUpdateRequest{
		FirstName:    stringFlag(cmd, "first-name"),
		LastName:     stringFlag(cmd, "last-name"),
		CompanyName:  stringFlag(cmd, "company"),
		Email:        stringFlag(cmd, "email"),
		Phone:        stringFlag(cmd, "phone"),
		Country:      stringFlag(cmd, "country"),
		City:         stringFlag(cmd, "city"),
		Address:      stringFlag(cmd, "address"),
		Source:       stringFlag(cmd, "source"),
		AssignedToID: stringFlag(cmd, "assign-to"),
		FormationID:  stringFlag(cmd, "formation"),
		SimulateurID: stringFlag(cmd, "simulateur"),
	}

	changed := request.FirstName != nil || request.LastName != nil || request.CompanyName != nil ||
		request.Email != nil || request.Phone != nil || request.Country != nil || request.City != nil ||
		request.Address != nil || request.Source != nil || request.AssignedToID != nil ||
		request.FormationID != nil || request.SimulateurID != nil

	if value := stringFlag(cmd, "type"); value != nil {
		prospectType, err := parseEnum[crm.ProspectType]("type", *value)
		if err != nil {
			return nil, err
		}

		request.Type = &prospectType
		changed = true
	}

	if value := stringFlag(cmd, "status"); value != nil {
		status, err := parseEnum[crm.ProspectStatus]("status", *value)
		if err != nil {
			return nil, err
		}

		request.Status = &status
		changed = true
	}

	if value := stringFlag(cmd, "generic-status"); value != nil {
		status, err := parseEnum[crm.GenericStatus]("generic-status", *value)
		if err != nil {
			return nil, err
		}

		request.GenericStatus = &status
		changed = true
	}

	if !changed {
		return nil, constants.ErrNothingToUpdate
	}

	return request, nil
}

func newProspectsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete PROSPECT_ID",
		Short: "Delete a prospect",
		Long:  "Soft-delete a prospect. It stays visible with the DELETED status.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Really delete prospect %s? (y/N): ", args[0])

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

			_, err = unwrap(rt, rt.dashboard.RemoveProspect(cmd.Context(), args[0]))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Prospect %s deleted\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}

func newProspectsAssignCommand() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "assign PROSPECT_ID [PROSPECT_ID...]",
		Short: "Assign prospects to a user",
		Long:  "Assign one or more prospects to a user. Failed assignments are reported without stopping the others.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			results, err := rt.dashboard.AssignProspects(cmd.Context(), args, userID)
			if err != nil && results == nil {
				return rt.explain(err)
			}

			report := assignReport(rt, results)
			failed := 0
			rows := make([][]string, 0, len(report))

			for _, entry := range report {
				outcome := "assigned"
				if entry.Error != "" {
					failed++
					outcome = entry.Error
				}

				rows = append(rows, []string{entry.ID, outcome, entry.Duration})
			}

			err = newPrinter(cmd).list(report, "assignments", []string{"Prospect", "Result", "Duration"}, rows)
			if err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d assignments failed", failed, len(results))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "to", "", "assignee user ID (required)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

type assignment struct {
	ID       string        `json:"id"                 yaml:"id"`
	Prospect *crm.Prospect `json:"prospect,omitempty" yaml:"prospect,omitempty"`
	Error    string        `json:"error,omitempty"    yaml:"error,omitempty"`
	Duration string        `json:"duration"           yaml:"duration"`
}

func assignReport(rt *runtime, results []dashboard.AssignResult) []assignment {
	report := make([]assignment, 0, len(results))

	for _, res := range results {
		entry := assignment{
			ID:       res.ID,
			Prospect: res.Prospect,
			Duration: res.Duration.Round(time.Millisecond).String(),
		}

		if res.Err != nil {
			entry.Error = rt.explain(res.Err).Error()
		}

		report = append(report, entry)
	}

	return report
}

func newProspectsStatsCommand() *cobra.Command {
	var filter crm.StatsFilter

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show prospect statistics",
		Long:  "Show prospect counts by status and country",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			stats, err := rt.dashboard.ProspectStats(cmd.Context(), &filter)
			if err != nil {
				return rt.explain(err)
			}

			pairs := [][2]string{
				{"Total", strconv.Itoa(stats.Total)},
				{"Assigned", strconv.Itoa(stats.Assigned)},
				{"Unassigned", strconv.Itoa(stats.Unassigned)},
			}

			for _, status := range crm.ProspectStatuses() {
				if count, ok := stats.ByStatus[status]; ok {
					pairs = append(pairs, [2]string{"Status " + string(status), strconv.Itoa(count)})
				}
			}

			countries := make([]string, 0, len(stats.ByCountry))
			for country := range stats.ByCountry {
				countries = append(countries, country)
			}

			sort.Strings(countries)

			for _, country := range countries {
				pairs = append(pairs, [2]string{"Country " + country, strconv.Itoa(stats.ByCountry[country])})
			}

			return newPrinter(cmd).properties(stats, pairs)
		},
	}

	cmd.Flags().StringVar(&filter.Country, "country", "", "restrict to a country")
	cmd.Flags().StringVar(&filter.AssignedToID, "assigned-to", "", "restrict to an assignee")

	return cmd
}

func newProspectsActivityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "activity PROSPECT_ID",
		Short: "Show the activity of a prospect",
		Long:  "Show a prospect with its comments and interactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			activity, err := rt.dashboard.ProspectActivity(cmd.Context(), args[0])
			if err != nil {
				return rt.explain(err)
			}

			rows := make([][]string, 0, len(activity.Comments)+len(activity.Interactions))

			for _, comment := range activity.Comments {
				rows = append(rows, []string{formatTime(comment.CreatedAt), "COMMENT", userName(comment.Author), comment.Content})
			}

			for _, interaction := range activity.Interactions {
				occurred := interaction.CreatedAt
				if interaction.OccurredAt != nil {
					occurred = *interaction.OccurredAt
				}

				rows = append(rows, []string{formatTime(occurred), string(interaction.Channel), userName(interaction.Author), interaction.Notes})
			}

			sort.SliceStable(rows, func(i, j int) bool { return rows[i][0] > rows[j][0] })

			p := newPrinter(cmd)
			if p.isTable() {
				_, _ = fmt.Fprintf(p.out, "%s (%s)\n", activity.Prospect.DisplayName(), activity.Prospect.Status)
			}

			return p.list(activity, "activity", []string{"When", "Kind", "Author", "Content"}, rows)
		},
	}
}
