package services

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/csvlab/internal/db"
	"github.com/vvka-141/csvlab/internal/db/manager"
	"github.com/vvka-141/csvlab/internal/files/scanner"
	"github.com/vvka-141/csvlab/internal/schema"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// RunResult summarizes a full tutorial run.
type RunResult struct {
	Listed   int64
	Populate csvlab.PopulateResult
	// Copy is nil when the copy step was skipped.
	Copy *csvlab.CopyResult
}

// Runner wires the tutorial steps to a database connection.
// Thread-Safety: NOT safe for concurrent calls on the same instance.
type Runner struct {
	connectorFactory db.ConnectorFactory
	approver         csvlab.Approver
	logger           csvlab.Logger
	scanner          *scanner.Scanner
	dbManager        *manager.Manager
	populator        *Populator
	copier           *Copier
}

// NewRunner creates a Runner with all dependencies injected.
// Panics on nil dependencies; runtime conditions are returned as errors.
func NewRunner(
	connectorFactory db.ConnectorFactory,
	approver csvlab.Approver,
	logger csvlab.Logger,
	fileScanner *scanner.Scanner,
) *Runner {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if fileScanner == nil {
		panic("fileScanner cannot be nil")
	}
	return &Runner{
		connectorFactory: connectorFactory,
		approver:         approver,
		logger:           logger,
		scanner:          fileScanner,
		dbManager:        manager.New(),
		populator:        NewPopulator(fileScanner.FileSystem(), logger),
		copier:           NewCopier(logger),
	}
}

// open connects with config and returns the pool and a cleanup func that
// also releases connectors holding resources of their own.
func (r *Runner) open(ctx context.Context, config *csvlab.ConnectionConfig) (*pgxpool.Pool, func(), error) {
	connector, err := r.connectorFactory(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		if c, ok := connector.(io.Closer); ok {
			c.Close()
		}
		return nil, nil, err
	}
	cleanup := func() {
		pool.Close()
		if c, ok := connector.(io.Closer); ok {
			c.Close()
		}
	}
	return pool, cleanup, nil
}

// connect opens the target database, creating it first when requested.
func (r *Runner) connect(ctx context.Context, cfg csvlab.RunConfig) (*pgxpool.Pool, func(), error) {
	if cfg.CreateDatabase {
		if err := r.ensureDatabaseExists(ctx, cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure database exists: %w", err)
		}
	}
	r.logger.Verbose("Connecting to %s:%d/%s", cfg.Connection.Host, cfg.Connection.Port, cfg.Connection.Database)
	return r.open(ctx, cfg.Connection)
}

func (r *Runner) ensureDatabaseExists(ctx context.Context, cfg csvlab.RunConfig) error {
	mgmtConfig := *cfg.Connection
	mgmtConfig.Database = cfg.ManagementDatabase
	if mgmtConfig.Database == "" {
		mgmtConfig.Database = csvlab.DefaultManagementDB
	}
	if mgmtConfig.Database == cfg.Connection.Database {
		return nil
	}

	r.logger.Verbose("Connecting to management database '%s'", mgmtConfig.Database)
	pool, cleanup, err := r.open(ctx, &mgmtConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	created, err := r.dbManager.CreateDatabase(ctx, pool, cfg.Connection.Database)
	if err != nil {
		return err
	}
	if created {
		r.logger.Info("✓ Database '%s' created", cfg.Connection.Database)
	} else {
		r.logger.Verbose("Database '%s' already exists", cfg.Connection.Database)
	}
	return nil
}

// scan lists the source directory's CSV files.
func (r *Runner) scan(sourcePath string) ([]csvlab.FileRef, error) {
	result, err := r.scanner.ScanDirectory(sourcePath)
	if err != nil {
		return nil, err
	}
	for _, name := range result.Skipped {
		r.logger.Verbose("Skipping %s", name)
	}
	r.logger.Verbose("Found %d CSV file(s) in %s", len(result.Files), sourcePath)
	return result.Files, nil
}

// declareMain declares the tutorial layout and lists files into file_list.
func (r *Runner) declareMain(ctx context.Context, q csvlab.Querier, names csvlab.SchemaNames, files []csvlab.FileRef) (*schema.Module, int64, error) {
	if _, err := schema.DeclareLayout(ctx, q, schema.LayoutTutorial, names); err != nil {
		return nil, 0, err
	}
	mod, err := schema.OpenModule(ctx, q, names.Main)
	if err != nil {
		return nil, 0, err
	}
	fileList, err := mod.Table(schema.TableFileList)
	if err != nil {
		return nil, 0, err
	}
	listed, err := SyncFileList(ctx, q, fileList, files)
	if err != nil {
		return nil, 0, err
	}
	r.logger.Info("✓ Schema %s declared, %d new file(s) listed", names.Main, listed)
	return mod, listed, nil
}

// copyPlan opens the copy targets by name, declaring them first when declare is set.
func (r *Runner) copyPlan(ctx context.Context, q csvlab.Querier, main *schema.Module, cfg csvlab.RunConfig) (CopyPlan, error) {
	plan := CopyPlan{Main: main, SkipDuplicateSessions: cfg.SkipDuplicateSessions}

	if cfg.DeclareTargets {
		for _, layout := range []schema.Layout{schema.LayoutLab, schema.LayoutExperiment} {
			if _, err := schema.DeclareLayout(ctx, q, layout, cfg.Schemas); err != nil {
				return CopyPlan{}, err
			}
		}
	}

	var err error
	if plan.Lab, err = schema.OpenModule(ctx, q, cfg.Schemas.Lab); err != nil {
		return CopyPlan{}, err
	}
	if plan.Experiment, err = schema.OpenModule(ctx, q, cfg.Schemas.Experiment); err != nil {
		return CopyPlan{}, err
	}
	return plan, nil
}

// Run executes the whole tutorial: list files, declare the main schema,
// populate sessions, then copy into the lab and experiment schemas.
// Suppressed populate errors do not stop the copy; they are returned
// afterwards wrapped in csvlab.ErrPopulateFailed.
func (r *Runner) Run(ctx context.Context, cfg csvlab.RunConfig) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	files, err := r.scan(cfg.SourcePath)
	if err != nil {
		return nil, err
	}

	pool, cleanup, err := r.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result := &RunResult{}
	mainMod, listed, err := r.declareMain(ctx, pool, cfg.Schemas, files)
	if err != nil {
		return result, err
	}
	result.Listed = listed

	result.Populate, err = r.populator.Populate(ctx, pool, mainMod, cfg.Populate)
	if err != nil {
		return result, err
	}
	r.logger.Info("✓ Populated %d file(s): %d session(s), %d new user(s), %d new subject(s)",
		result.Populate.Populated, result.Populate.Sessions, result.Populate.Users, result.Populate.Subjects)
	r.logSkipped(result.Populate)

	if !cfg.SkipCopy {
		plan, err := r.copyPlan(ctx, pool, mainMod, cfg)
		if err != nil {
			return result, err
		}
		copied, err := r.copier.Copy(ctx, pool, plan)
		if err != nil {
			return result, err
		}
		result.Copy = &copied
		r.logger.Info("✓ Copied %d user(s), %d subject(s) to %s and %d session(s) to %s",
			copied.Users, copied.Subjects, cfg.Schemas.Lab, copied.Sessions, cfg.Schemas.Experiment)
	}

	return result, result.Populate.Err()
}

// Declare declares one layout. The tutorial layout also lists the source
// directory's files into file_list. It returns the schema declared.
func (r *Runner) Declare(ctx context.Context, cfg csvlab.RunConfig, layout schema.Layout) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var files []csvlab.FileRef
	if layout == schema.LayoutTutorial {
		var err error
		if files, err = r.scan(cfg.SourcePath); err != nil {
			return "", err
		}
	}

	pool, cleanup, err := r.connect(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer cleanup()

	if layout == schema.LayoutTutorial {
		if _, _, err := r.declareMain(ctx, pool, cfg.Schemas, files); err != nil {
			return "", err
		}
		return cfg.Schemas.Main, nil
	}

	name, err := schema.DeclareLayout(ctx, pool, layout, cfg.Schemas)
	if err != nil {
		return "", err
	}
	r.logger.Info("✓ Schema %s declared (%s layout)", name, layout)
	return name, nil
}

// Populate populates the main schema's session table.
func (r *Runner) Populate(ctx context.Context, cfg csvlab.RunConfig) (csvlab.PopulateResult, error) {
	if err := cfg.Validate(); err != nil {
		return csvlab.PopulateResult{}, err
	}
	pool, cleanup, err := r.connect(ctx, cfg)
	if err != nil {
		return csvlab.PopulateResult{}, err
	}
	defer cleanup()

	mainMod, err := schema.OpenModule(ctx, pool, cfg.Schemas.Main)
	if err != nil {
		return csvlab.PopulateResult{}, err
	}
	res, err := r.populator.Populate(ctx, pool, mainMod, cfg.Populate)
	if err != nil {
		return res, err
	}
	r.logger.Info("✓ Populated %d of %d pending file(s): %d session(s)", res.Populated, res.Pending, res.Sessions)
	r.logSkipped(res)
	return res, res.Err()
}

// logSkipped reports keys left to concurrent runs.
func (r *Runner) logSkipped(res csvlab.PopulateResult) {
	if res.Reserved > 0 || res.Skipped > 0 {
		r.logger.Info("↷ Skipped %d file(s) reserved by other runs, %d populated by them meanwhile", res.Reserved, res.Skipped)
	}
}

// Copy copies users, subjects and sessions into the lab and experiment schemas.
func (r *Runner) Copy(ctx context.Context, cfg csvlab.RunConfig) (csvlab.CopyResult, error) {
	if err := cfg.Validate(); err != nil {
		return csvlab.CopyResult{}, err
	}
	pool, cleanup, err := r.connect(ctx, cfg)
	if err != nil {
		return csvlab.CopyResult{}, err
	}
	defer cleanup()

	mainMod, err := schema.OpenModule(ctx, pool, cfg.Schemas.Main)
	if err != nil {
		return csvlab.CopyResult{}, err
	}
	plan, err := r.copyPlan(ctx, pool, mainMod, cfg)
	if err != nil {
		return csvlab.CopyResult{}, err
	}
	res, err := r.copier.Copy(ctx, pool, plan)
	if err != nil {
		return csvlab.CopyResult{}, err
	}
	r.logger.Info("✓ Copied %d user(s), %d subject(s) and %d session(s)", res.Users, res.Subjects, res.Sessions)
	return res, nil
}

// Status reports counts and populate progress.
func (r *Runner) Status(ctx context.Context, cfg csvlab.RunConfig) (*StatusReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, cleanup, err := r.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return NewInspector(r.scanner).Status(ctx, pool, cfg.Schemas, cfg.SourcePath)
}

// Drop drops schemaName with everything in it after approval.
func (r *Runner) Drop(ctx context.Context, cfg csvlab.RunConfig, schemaName string) error {
	if cfg.Connection == nil {
		return fmt.Errorf("Connection is required: %w", csvlab.ErrInvalidConfig)
	}
	if schemaName == "" {
		return fmt.Errorf("schema name is required: %w", csvlab.ErrInvalidConfig)
	}
	pool, cleanup, err := r.open(ctx, cfg.Connection)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := r.dbManager.RequireSchema(ctx, pool, schemaName); err != nil {
		return err
	}

	r.logger.Verbose("Schema '%s' exists. Requesting approval to drop it.", schemaName)
	approved, err := r.approver.RequestApproval(ctx, schemaName)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return csvlab.ErrApprovalDenied
	}

	if err := r.dbManager.DropSchema(ctx, pool, schemaName); err != nil {
		return err
	}
	r.logger.Info("✓ Schema '%s' dropped", schemaName)
	return nil
}
