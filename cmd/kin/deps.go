package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/domain/scoring"
	"github.com/ersonp/kin-core/internal/domain/services"
	"github.com/ersonp/kin-core/internal/infrastructure/config"
	"github.com/ersonp/kin-core/internal/infrastructure/logging"
	"github.com/ersonp/kin-core/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config            *config.Config
	Logger            *zap.Logger
	TreeHandler       *handlers.TreeHandler
	EdgeHandler       *handlers.EdgeHandler
	SuggestionHandler *handlers.SuggestionHandler
	PersonHandler     *handlers.PersonHandler
	ImportHandler     *handlers.ImportHandler
	AuditHandler      *handlers.AuditHandler
}

// internalDeps holds all dependencies including low-level components.
// Used by serve, which rewires validator and scorer on config reload.
type internalDeps struct {
	Deps
	basePath     string
	relationalDB *sqlite.Repository
	validator    *graph.Validator
	scorer       *scoring.Scorer
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps opens the selected family database, loads its graph and
// builds every service on top of it.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	families, err := config.LoadFamilies(cwd)
	if err != nil {
		return fmt.Errorf("loading families: %w", err)
	}
	if _, err := families.Get(globalFamily); err != nil {
		return fmt.Errorf("%w (use 'kin families create %s')", err, globalFamily)
	}

	logger, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("family", globalFamily))

	relationalDB, err := sqlite.NewRepository(config.SQLiteConfig{Path: config.SQLitePathForFamily(cwd, globalFamily)})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer relationalDB.Close()

	if err := relationalDB.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	validator := graph.NewValidator(cfg.ValidatorConfig())
	projector := graph.NewProjector(cfg.ProjectorConfig())
	scorer := scoring.New(cfg.ScorerConfig(), validator)

	treeService := services.NewFamilyTreeService(relationalDB, validator, projector, logger)
	loaded, err := treeService.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading family graph: %w", err)
	}
	logger.Debug("family graph loaded",
		zap.Int("people", loaded.People),
		zap.Int("partnerships", loaded.Partnerships),
		zap.Int("parent_child", loaded.ParentChild),
		zap.Int("skipped", loaded.Skipped))

	suggestionService := services.NewSuggestionService(relationalDB, treeService, scorer, logger)
	personService := services.NewPersonService(relationalDB)
	importService := services.NewImportService(relationalDB, treeService, logger)

	deps := &internalDeps{
		Deps: Deps{
			Config:            cfg,
			Logger:            logger,
			TreeHandler:       handlers.NewTreeHandler(treeService),
			EdgeHandler:       handlers.NewEdgeHandler(treeService),
			SuggestionHandler: handlers.NewSuggestionHandler(suggestionService),
			PersonHandler:     handlers.NewPersonHandler(personService),
			ImportHandler:     handlers.NewImportHandler(importService),
			AuditHandler:      handlers.NewAuditHandler(services.NewAuditService(relationalDB)),
		},
		basePath:     cwd,
		relationalDB: relationalDB,
		validator:    validator,
		scorer:       scorer,
	}

	return fn(deps)
}

// withFamilyHandler provides the family registry handler for commands that
// run before any family database is selected.
func withFamilyHandler(fn func(*handlers.FamilyHandler) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	return fn(handlers.NewFamilyHandler(cwd, openSQLite))
}

// openSQLite opens a family database. It satisfies handlers.OpenDBFunc.
func openSQLite(path string) (ports.RelationalDB, error) {
	return sqlite.NewRepository(config.SQLiteConfig{Path: path})
}
