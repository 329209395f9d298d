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

// catalogView is the part of a dashboard view the formations and simulateurs
// commands use.
type catalogView[T any] interface {
	List(ctx context.Context, filter *crm.CatalogFilter) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, request *crm.CatalogCreateRequest) query.Result[*T]
	Update(ctx context.Context, id string, request *crm.CatalogUpdateRequest) query.Result[*T]
	Remove(ctx context.Context, id string) query.Result[*T]
}

type catalog[T any] struct {
	use     string
	aliases []string
	noun    string
	plural  string
	view    func(rt *runtime) catalogView[T]
	item    func(value *T) *crm.CatalogItem
}

// NewFormationsCommand creates the formations command group.
func NewFormationsCommand() *cobra.Command {
	return newCatalogCommand(catalog[crm.Formation]{
		use:     "formations",
		aliases: []string{"formation"},
		noun:    "formation",
		plural:  "formations",
		view: func(rt *runtime) catalogView[crm.Formation] {
			return rt.dashboard.Formations()
		},
		item: func(value *crm.Formation) *crm.CatalogItem { return &value.CatalogItem },
	})
}

// NewSimulateursCommand creates the simulateurs command group.
func NewSimulateursCommand() *cobra.Command {
	return newCatalogCommand(catalog[crm.Simulateur]{
		use:     "simulateurs",
		aliases: []string{"simulateur", "sims"},
		noun:    "simulateur",
		plural:  "simulateurs",
		view: func(rt *runtime) catalogView[crm.Simulateur] {
			return rt.dashboard.Simulateurs()
		},
		item: func(value *crm.Simulateur) *crm.CatalogItem { return &value.CatalogItem },
	})
}

func newCatalogCommand[T any](c catalog[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     c.use,
		Aliases: c.aliases,
		Short:   "Manage " + c.plural,
		Long:    fmt.Sprintf("List, create, update and delete %s prospects can be attached to", c.plural),
	}

	cmd.AddCommand(c.listCommand())
	cmd.AddCommand(newGetCommand(c.noun, func(rt *runtime) func(context.Context, string) (*T, error) {
		return c.view(rt).Get
	}, c.print))
	cmd.AddCommand(c.createCommand())
	cmd.AddCommand(c.updateCommand())
	cmd.AddCommand(newDeleteCommand(c.noun, func(rt *runtime) func(context.Context, string) query.Result[*T] {
		return c.view(rt).Remove
	}))

	return cmd
}

func (c catalog[T]) listCommand() *cobra.Command {
	var (
		filter crm.CatalogFilter
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + c.plural,
		Long:  fmt.Sprintf("List %s, optionally filtered by country and status", c.plural),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			filter.Status, err = parseOptionalEnum[crm.GenericStatus]("status", status)
			if err != nil {
				return err
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			items, err := c.view(rt).List(cmd.Context(), &filter)
			if err != nil {
				return rt.explain(err)
			}

			rows := make([][]string, 0, len(items))
			for i := range items {
				item := c.item(&items[i])
				rows = append(rows, []string{
					item.ID,
					item.Name,
					item.Price.String(),
					item.Country,
					valueOrNA(string(item.Status)),
					strconv.Itoa(item.Counts.Prospects),
				})
			}

			return newPrinter(cmd).list(items, c.plural, []string{"ID", "Name", "Price", "Country", "Status", "Prospects"}, rows)
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "search in names")
	cmd.Flags().StringVar(&filter.Country, "country", "", "filter by country")
	cmd.Flags().StringVar(&status, "status", "", "lifecycle status (ACTIVE, INACTIVE, DELETED)")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")

	return cmd
}

func (c catalog[T]) print(cmd *cobra.Command, value *T) error {
	item := c.item(value)

	return newPrinter(cmd).properties(value, [][2]string{
		{"ID", item.ID},
		{"Name", item.Name},
		{"Description", valueOrNA(item.Description)},
		{"Price", item.Price.String()},
		{"Country", item.Country},
		{"Status", valueOrNA(string(item.Status))},
		{"Prospects", strconv.Itoa(item.Counts.Prospects)},
		{"Created", formatTime(item.CreatedAt)},
	})
}

func (c catalog[T]) createCommand() *cobra.Command {
	var (
		request crm.CatalogCreateRequest
		price   string
		status  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + c.noun,
		Long:  fmt.Sprintf("Create a %s with a name, a price and a country", c.noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			request.Price, err = parseMoney(price)
			if err != nil {
				return err
			}

			request.Status, err = parseOptionalEnum[crm.GenericStatus]("status", status)
			if err != nil {
				return err
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			created, err := unwrap(rt, c.view(rt).Create(cmd.Context(), &request))
			if err != nil {
				return err
			}

			return c.print(cmd, created)
		},
	}

	cmd.Flags().StringVar(&request.Name, "name", "", "name")
	cmd.Flags().StringVar(&request.Description, "description", "", "description")
	cmd.Flags().StringVar(&price, "price", "0", "price, e.g. 150000 or 99.90")
	cmd.Flags().StringVar(&request.Country, "country", "", "country")
	cmd.Flags().StringVar(&status, "status", "", "lifecycle status")

	return cmd
}

func (c catalog[T]) updateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a " + c.noun,
		Long:  "Update the fields given as flags. Other fields are left unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &crm.CatalogUpdateRequest{
				Name:        stringFlag(cmd, "name"),
				Description: stringFlag(cmd, "description"),
				Country:     stringFlag(cmd, "country"),
			}

			changed := request.Name != nil || request.Description != nil || request.Country != nil

			if value := stringFlag(cmd, "price"); value != nil {
				price, err := parseMoney(*value)
				if err != nil {
					return err
				}

				request.Price = &price
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

			if !changed {
				return constants.ErrNothingToUpdate
			}

			rt, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			updated, err := unwrap(rt, c.view(rt).Update(cmd.Context(), args[0], request))
			if err != nil {
				return err
			}

			return c.print(cmd, updated)
		},
	}

	cmd.Flags().String("name", "", "name")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().String("price", "", "price")
	cmd.Flags().String("country", "", "country")
	cmd.Flags().String("status", "", "lifecycle status")

	return cmd
}

func parseMoney(value string) (crm.Money, error) {
	price, err := crm.NewMoney(value)
	if err != nil {
		return crm.Money{}, fmt.Errorf("%w: --price %q", constants.ErrInvalidFlagValue, value)
	}

	return price, nil
}
