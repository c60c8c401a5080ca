// Package cli implements the entityprop command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entityprop/internal/form"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	global    bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "entityprop" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "entityprop",
		Short: "Attach user-defined properties to entity types",
		Long: "entityprop declares typed properties on entity types and keeps the\n" +
			"field storage of each entity type in sync with those declarations.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .entityprop)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .entityprop-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&flags.global, "global", false, "use the per-user platform directories as defaults")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log storage changes to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newTypesCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newEditCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newSettingsCmd())
	root.AddCommand(newEntityCmd())
	root.AddCommand(newServeCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitCode(err))
}

// cliError carries the exit code a command failed with.
type cliError struct {
	code int
	msg  string
}

func (e *cliError) Error() string { return e.msg }

// exitError returns an error that makes Execute exit with code.
func exitError(code int, msg string) error {
	return &cliError{code: code, msg: msg}
}

// exitCode returns the exit code for an error returned by a command.
func exitCode(err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	// Flag and argument errors from cobra.
	return exitUserError
}

// fail classifies err into a user or system error. Validation failures and
// lookups of things that do not exist are the caller's fault; anything else
// is a system error.
func fail(err error) error {
	var errs form.Errors
	if errors.As(err, &errs) {
		return exitError(exitUserError, errs.Error())
	}
	var ue *form.UserError
	if errors.As(err, &ue) {
		return exitError(exitUserError, ue.Message)
	}
	switch {
	case errors.Is(err, types.ErrEntityTypeNotFound),
		errors.Is(err, types.ErrPropertyNotFound),
		errors.Is(err, types.ErrEntityNotFound),
		errors.Is(err, types.ErrFieldTypeNotFound),
		errors.Is(err, types.ErrHasData),
		errors.Is(err, types.ErrFieldStorageExists),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrNameReserved),
		errors.Is(err, types.ErrInvalidDefinition),
		errors.Is(err, types.ErrUnknownColumn),
		errors.Is(err, types.ErrInvalidDocument):
		return exitError(exitUserError, err.Error())
	}
	return exitError(exitSysError, err.Error())
}
