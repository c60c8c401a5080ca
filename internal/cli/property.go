package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/entityprop/internal/form"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// propertyFlags are the editor inputs shared by add and edit.
type propertyFlags struct {
	fieldType    string
	label        string
	name         string
	required     bool
	configurable []string
	settings     []string
	targetType   string
	handler      string
}

func (pf *propertyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&pf.fieldType, "type", "", "field type, e.g. integer or entity_reference")
	cmd.Flags().StringVar(&pf.label, "label", "", "human readable label")
	cmd.Flags().StringVar(&pf.name, "name", "", "machine name (default: derived from the label)")
	cmd.Flags().BoolVar(&pf.required, "required", false, "require a value")
	cmd.Flags().StringSliceVar(&pf.configurable, "configurable", nil, "display contexts the property is configurable in (form, view)")
	cmd.Flags().StringArrayVar(&pf.settings, "setting", nil, "field setting as key=value; dotted keys nest, values are YAML scalars or lists")
	cmd.Flags().StringVar(&pf.targetType, "target-type", "", "target entity type of a reference property")
	cmd.Flags().StringVar(&pf.handler, "handler", "", "selection handler of a reference property")
}

// apply writes the flags the user set into values.
func (pf *propertyFlags) apply(cmd *cobra.Command, values map[string]any) error {
	changed := cmd.Flags().Changed
	if changed("type") {
		values["type"] = pf.fieldType
	}
	if changed("label") {
		values["label"] = pf.label
	}
	if changed("name") {
		values["name"] = pf.name
	}
	if changed("required") {
		values["required"] = pf.required
	}
	if changed("configurable") {
		values["configurable"] = pf.configurable
	}

	settings, _ := values["settings"].(map[string]any)
	if settings == nil {
		settings = map[string]any{}
	}
	if err := parseSettings(pf.settings, settings); err != nil {
		return err
	}
	if changed("target-type") {
		settings[types.SettingTargetType] = pf.targetType
	}
	if changed("handler") {
		settings[types.SettingHandler] = pf.handler
	}
	if len(settings) > 0 {
		values["settings"] = settings
	}
	return nil
}

// parsePair splits key=value and decodes the value as YAML, so "10" is an
// integer and "[a, b]" a list. An empty value is the empty string.
func parsePair(pair string) (string, any, error) {
	key, raw, ok := strings.Cut(pair, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, exitError(exitUserError, fmt.Sprintf("invalid pair %q: want key=value", pair))
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, exitError(exitUserError, fmt.Sprintf("invalid pair %q: %s", pair, err))
	}
	if value == nil {
		value = ""
	}
	return key, value, nil
}

// parseSettings decodes key=value pairs into dst. "a.b=1" sets dst["a"]["b"].
func parseSettings(pairs []string, dst map[string]any) error {
	for _, pair := range pairs {
		key, value, err := parsePair(pair)
		if err != nil {
			return err
		}

		parts := strings.Split(key, ".")
		m := dst
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = value
	}
	return nil
}

func newAddCmd() *cobra.Command {
	var pf propertyFlags
	cmd := &cobra.Command{
		Use:   "add <entity_type>",
		Short: "Declare a property on an entity type",
		Long: `Add declares a property and installs its storage field.

Example:
  entityprop add node --type integer --label Priority --required
  entityprop add node --type decimal --label Price --setting precision=10 --setting scale=2
  entityprop add node --type entity_reference --label Author --target-type user`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := map[string]any{}
			if err := pf.apply(cmd, values); err != nil {
				return err
			}
			if _, ok := values["name"]; !ok {
				values["name"] = form.MachineName(pf.label)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return submitProperty(cmd, a, args[0], "", values)
		},
	}
	pf.register(cmd)
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func newEditCmd() *cobra.Command {
	var pf propertyFlags
	cmd := &cobra.Command{
		Use:   "edit <entity_type> <name>",
		Short: "Change a declared property",
		Long: `Edit changes the label, flags or settings of a property. The machine name
is fixed once saved. Unset flags keep their stored values.

Example:
  entityprop edit node priority --label "Sort priority"
  entityprop edit node priority --configurable form,view`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.svc.Property(args[0], args[1])
			if err != nil {
				return fail(err)
			}
			values := storedValues(p)
			if err := pf.apply(cmd, values); err != nil {
				return err
			}
			return submitProperty(cmd, a, args[0], args[1], values)
		},
	}
	pf.register(cmd)
	return cmd
}

// storedValues turns a stored property into editor input.
func storedValues(p *types.Property) map[string]any {
	settings := map[string]any{}
	for k, v := range p.Settings {
		settings[k] = v
	}
	return map[string]any{
		"type":         p.Type,
		"label":        p.Label,
		"name":         p.Name,
		"required":     p.Required,
		"configurable": p.ConfigurableContexts(),
		"settings":     settings,
	}
}

// submitProperty runs the single-row editor. name is empty when adding.
func submitProperty(cmd *cobra.Command, a *app, entityType, name string, values map[string]any) error {
	res, err := form.NewPropertyForm(a.svc).Submit(cmdContext(cmd), entityType, name, &form.State{Values: values})
	if err != nil {
		return fail(err)
	}
	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printMessages(cmd.OutOrStdout(), res.Messages)
	return nil
}

func newDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <entity_type> <name>",
		Short: "Delete a property and its storage field",
		Long: `Delete removes a property declaration and uninstalls its storage field.
Properties that hold data cannot be deleted. Without --yes the command only
prints the confirmation question.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmdContext(cmd)
			del := form.NewDeleteConfirmForm(a.svc)
			f, err := del.Build(ctx, args[0], args[1])
			if err != nil {
				return fail(err)
			}
			if f.Find("confirm") == nil {
				return exitError(exitUserError, f.Title)
			}
			if !yes {
				fmt.Fprintln(cmd.OutOrStdout(), f.Title)
				return exitError(exitUserError, "not deleted: pass --yes to confirm")
			}

			res, err := del.Submit(ctx, args[0], args[1], &form.State{})
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
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}
