package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize entityprop storage",
		Long: "Create the configuration and data directories, write a default config.yaml\n" +
			"when missing, and bring the storage schema of every entity type in sync\n" +
			"with its declared properties.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmdContext(cmd)
	installed := map[string][]string{}
	for _, et := range a.svc.EntityTypes() {
		names, err := a.svc.RebuildEntityType(ctx, et.ID)
		if err != nil {
			return exitError(exitSysError, fmt.Sprintf("initialize %s: %s", et.ID, err))
		}
		if names == nil {
			names = []string{}
		}
		installed[et.ID] = names
	}

	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"config_dir": a.cfg.ConfigDir,
			"driver":     a.backend.Driver(),
			"installed":  installed,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "entityprop initialized successfully")
	return nil
}
