package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entityprop/internal/form"
)

func newSettingsCmd() *cobra.Command {
	var (
		fieldTypes []string
		showAll    bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the editor settings",
		Long: `Settings prints the global editor settings. With --field-types or
--show-all it saves them; unset flags keep their stored values.

Example:
  entityprop settings
  entityprop settings --field-types integer,string,boolean
  entityprop settings --show-all=true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			current, err := a.svc.Settings()
			if err != nil {
				return fail(err)
			}
			changed := cmd.Flags().Changed
			if !changed("field-types") && !changed("show-all") {
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), current)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "field_types: %s\nshow_all_properties: %t\n",
					strings.Join(current.FieldTypes, ", "), current.ShowAllProperties)
				return nil
			}

			values := map[string]any{
				"field_types":         current.FieldTypes,
				"show_all_properties": current.ShowAllProperties,
			}
			if changed("field-types") {
				values["field_types"] = fieldTypes
			}
			if changed("show-all") {
				values["show_all_properties"] = showAll
			}
			res, err := form.NewSettingsForm(a.svc).Submit(cmdContext(cmd), &form.State{Values: values})
			if err != nil {
				return fail(err)
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printMessages(cmd.OutOrStdout(), res.Messages)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&fieldTypes, "field-types", nil, "field types offered in the editor")
	cmd.Flags().BoolVar(&showAll, "show-all", false, "list base fields along with properties")
	return cmd
}
