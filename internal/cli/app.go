package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entityprop/internal/entityprop"
	"github.com/mesh-intelligence/entityprop/internal/entitytype"
	"github.com/mesh-intelligence/entityprop/internal/fieldtype"
	"github.com/mesh-intelligence/entityprop/internal/paths"
	"github.com/mesh-intelligence/entityprop/internal/selection"
	"github.com/mesh-intelligence/entityprop/internal/storage"
	"github.com/mesh-intelligence/entityprop/internal/store"
)

// app is the wired service a command runs against. The caller must defer
// close.
type app struct {
	cfg     *config
	backend *storage.Backend
	svc     *entityprop.Service
	logger  *log.Logger
}

// resolveConfig resolves both directories and loads config.yaml.
func resolveConfig() (*config, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir, flags.global)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir), flags.global)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	return decodeConfig(v, configDir, dataDir)
}

// openApp loads the configuration, opens field storage and wires the
// property service. Failures are system errors.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, exitError(exitSysError, err.Error())
	}

	logger := log.New(io.Discard, "", 0)
	if flags.verbose {
		logger = log.New(cmd.ErrOrStderr(), "entityprop: ", log.LstdFlags)
	}

	ets, err := entitytype.NewRegistry(cfg.EntityTypes)
	if err != nil {
		return nil, exitError(exitSysError, fmt.Sprintf("entity types: %s", err))
	}

	backend, err := storage.Open(cmdContext(cmd), cfg.Storage, storage.WithLogger(logger))
	if err != nil {
		return nil, exitError(exitSysError, fmt.Sprintf("open storage: %s", err))
	}

	svc := entityprop.New(entityprop.Config{
		Store:             store.New(cfg.ConfigDir),
		Storage:           backend,
		EntityTypes:       ets,
		FieldTypes:        fieldtype.NewRegistry(),
		Selections:        selection.NewRegistry(ets.Definitions()),
		DefaultTargetType: cfg.DefaultTargetType,
		Logger:            logger,
	})
	return &app{cfg: cfg, backend: backend, svc: svc, logger: logger}, nil
}

func (a *app) close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Printf("close storage: %v", err)
	}
}

// cmdContext returns the command's context, which is nil when the command
// runs outside ExecuteContext.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
