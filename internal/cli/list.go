package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entityprop/internal/listing"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the entity types properties can be attached to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			links := listing.New(a.svc).Types()
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), links)
			}
			rows := make([][]string, 0, len(links))
			for _, l := range links {
				rows = append(rows, []string{l.ID, l.Title, l.Path})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Label", "Path"}, rows)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <entity_type>",
		Short: "List the properties of an entity type",
		Long: `List prints the property table of an entity type. Base fields come first
when show_all_properties is on. Properties that already hold data offer no
operations.

Example:
  entityprop list node
  entityprop list user --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			table, err := listing.New(a.svc).Properties(cmdContext(cmd), args[0])
			if err != nil {
				return fail(err)
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), table)
			}

			fmt.Fprintln(cmd.OutOrStdout(), table.Title)
			if len(table.Rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No properties found.")
				return nil
			}
			rows := make([][]string, 0, len(table.Rows))
			for _, r := range table.Rows {
				ops := make([]string, 0, len(r.Operations))
				for _, op := range r.Operations {
					ops = append(ops, strings.ToLower(op.Title))
				}
				rows = append(rows, []string{r.Label, r.Name, r.Type, r.Configurable, strings.Join(ops, ", ")})
			}
			printTable(cmd.OutOrStdout(), table.Header, rows)
			return nil
		},
	}
}
