package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sync [entity_type]",
		Short: "Install missing storage fields",
		Long: `Sync rebuilds the field definitions of an entity type and installs a storage
field for every declared property that has none. Installed fields are never
altered.

Example:
  entityprop sync node
  entityprop sync --all`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ids := args
			if all {
				ids = nil
				for _, et := range a.svc.EntityTypes() {
					ids = append(ids, et.ID)
				}
			} else if _, err := a.svc.EntityType(args[0]); err != nil {
				return fail(err)
			}

			ctx := cmdContext(cmd)
			installed := make(map[string][]string, len(ids))
			for _, id := range ids {
				names, err := a.svc.RebuildEntityType(ctx, id)
				if err != nil {
					return fail(fmt.Errorf("sync %s: %w", id, err))
				}
				if names == nil {
					names = []string{}
				}
				installed[id] = names
			}

			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), installed)
			}
			for _, id := range ids {
				names := installed[id]
				if len(names) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: up to date\n", id)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: installed %s\n", id, strings.Join(names, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "sync every entity type")
	return cmd
}
