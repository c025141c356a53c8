package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/csvlab/internal/checksum"
	"github.com/vvka-141/csvlab/internal/db"
	"github.com/vvka-141/csvlab/internal/files/scanner"
	"github.com/vvka-141/csvlab/internal/logging"
	"github.com/vvka-141/csvlab/internal/services"
	testhelpers "github.com/vvka-141/csvlab/internal/testing"
	"github.com/vvka-141/csvlab/internal/testing/fixtures"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

type runEnv struct {
	pool   *pgxpool.Pool
	dir    string
	cfg    csvlab.RunConfig
	runner *services.Runner
	log    *logging.Recorder
}

func newRunEnv(t *testing.T, builder *fixtures.ExperimentFixtureBuilder, approver csvlab.Approver) *runEnv {
	t.Helper()
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	mainSchema, labSchema, expSchema := testhelpers.TestSchemas(t, pool)

	dir := t.TempDir()
	require.NoError(t, builder.WriteTo(dir))

	conn, err := db.ParseConnectionString(connString)
	require.NoError(t, err)

	if approver == nil {
		approver = &testhelpers.ForceApprover{}
	}
	log := logging.NewRecorder()
	return &runEnv{
		log:  log,
		pool: pool,
		dir:  dir,
		cfg: csvlab.RunConfig{
			SourcePath:            dir,
			Connection:            conn,
			Schemas:               csvlab.SchemaNames{Main: mainSchema, Lab: labSchema, Experiment: expSchema},
			DeclareTargets:        true,
			SkipDuplicateSessions: true,
			Timeout:               time.Minute,
		},
		runner: services.NewRunner(db.NewConnector, approver, log, scanner.NewScanner(checksum.New())),
	}
}

func (e *runEnv) count(t *testing.T, schemaName, table string) int64 {
	t.Helper()
	var n int64
	err := e.pool.QueryRow(context.Background(),
		"SELECT count(*) FROM "+quote(schemaName)+"."+quote(table)).Scan(&n)
	require.NoError(t, err)
	return n
}

func quote(s string) string { return `"` + s + `"` }

func tutorialFixture() *fixtures.ExperimentFixtureBuilder {
	return fixtures.NewExperimentFixtureBuilder().
		AddSession("day1.csv", "alice", "mouse1", "2024-01-01", 5).
		AddSession("day1.csv", "bob", "mouse1", "2024-01-01", -3).
		AddSession("day2.csv", "alice", "mouse2", "2024-01-02", 127).
		AddFile("README.txt", "not a csv")
}

func TestRunner_Run_EndToEnd(t *testing.T) {
	env := newRunEnv(t, tutorialFixture(), nil)
	ctx := context.Background()
	names := env.cfg.Schemas

	res, err := env.runner.Run(ctx, env.cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 2, res.Listed)
	assert.Equal(t, 2, res.Populate.Populated)
	assert.EqualValues(t, 3, res.Populate.Sessions)
	assert.EqualValues(t, 2, res.Populate.Users, "alice appears twice but is inserted once")
	assert.EqualValues(t, 2, res.Populate.Subjects)
	require.NotNil(t, res.Copy)
	assert.Equal(t, csvlab.CopyResult{Users: 2, Subjects: 2, Sessions: 3}, *res.Copy)

	assert.EqualValues(t, 2, env.count(t, names.Main, "file_list"))
	assert.EqualValues(t, 3, env.count(t, names.Main, "session"))
	assert.EqualValues(t, 2, env.count(t, names.Lab, "user"))
	assert.EqualValues(t, 2, env.count(t, names.Lab, "subject"))
	assert.EqualValues(t, 3, env.count(t, names.Experiment, "session"))
	assert.True(t, env.log.Contains(logging.LevelInfo, "Populated 2 file(s)"))
	assert.Empty(t, env.log.Messages(logging.LevelError))

	var result int16
	var file string
	err = env.pool.QueryRow(ctx, `SELECT session_result, experiment_file FROM `+quote(names.Main)+`.session
		WHERE user_name = 'bob' AND subject_name = 'mouse1' AND session_date = '2024-01-01'`).Scan(&result, &file)
	require.NoError(t, err)
	assert.EqualValues(t, -3, result)
	assert.Equal(t, filepath.ToSlash(filepath.Join(env.dir, "day1.csv")), file)

	var hasFileColumn bool
	err = env.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = 'session' AND column_name = 'experiment_file')`, names.Experiment).Scan(&hasFileColumn)
	require.NoError(t, err)
	assert.False(t, hasFileColumn)
}

func TestRunner_Run_Rerun(t *testing.T) {
	env := newRunEnv(t, tutorialFixture(), nil)
	ctx := context.Background()

	_, err := env.runner.Run(ctx, env.cfg)
	require.NoError(t, err)

	res, err := env.runner.Run(ctx, env.cfg)
	require.NoError(t, err)
	assert.Zero(t, res.Listed)
	assert.Zero(t, res.Populate.Pending)
	assert.Equal(t, csvlab.CopyResult{}, *res.Copy)

	env.cfg.SkipDuplicateSessions = false
	_, err = env.runner.Run(ctx, env.cfg)
	require.ErrorIs(t, err, csvlab.ErrCopyFailed)
	assert.ErrorIs(t, err, csvlab.ErrDuplicateKey)
	assert.EqualValues(t, 3, env.count(t, env.cfg.Schemas.Experiment, "session"), "failed copy rolls back")
}

func TestRunner_Run_NewFileIsPickedUp(t *testing.T) {
	env := newRunEnv(t, tutorialFixture(), nil)
	ctx := context.Background()

	_, err := env.runner.Run(ctx, env.cfg)
	require.NoError(t, err)

	content := fixtures.Header + "\ncarol,mouse1,2024-01-03,9\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "day3.csv"), []byte(content), 0644))

	res, err := env.runner.Run(ctx, env.cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Listed)
	assert.Equal(t, 1, res.Populate.Populated)
	assert.Equal(t, csvlab.CopyResult{Users: 1, Subjects: 0, Sessions: 1}, *res.Copy)
}

func TestRunner_Run_BadFile(t *testing.T) {
	builder := tutorialFixture().AddFile("bad.csv", fixtures.Header+"\ndave,mouse3,2024-13-45,1\n")

	t.Run("stops at the failing key", func(t *testing.T) {
		env := newRunEnv(t, builder, nil)

		res, err := env.runner.Run(context.Background(), env.cfg)

		require.ErrorIs(t, err, csvlab.ErrPopulateFailed)
		assert.ErrorIs(t, err, csvlab.ErrInvalidRecord)
		assert.Equal(t, csvlab.ExitInvalidSource, csvlab.ExitCodeForError(err))
		assert.Nil(t, res.Copy)
		assert.Zero(t, res.Populate.Populated, "bad.csv sorts first")
	})

	t.Run("suppressed errors still copy", func(t *testing.T) {
		env := newRunEnv(t, builder, nil)
		env.cfg.Populate.SuppressErrors = true

		res, err := env.runner.Run(context.Background(), env.cfg)

		require.ErrorIs(t, err, csvlab.ErrPopulateFailed)
		assert.Equal(t, 2, res.Populate.Populated)
		require.Len(t, res.Populate.Errors, 1)
		assert.Contains(t, res.Populate.Errors[0].Key, "bad.csv")
		require.NotNil(t, res.Copy)
		assert.EqualValues(t, 3, res.Copy.Sessions)
	})
}

func TestRunner_Run_SkipCopy(t *testing.T) {
	env := newRunEnv(t, tutorialFixture(), nil)
	env.cfg.SkipCopy = true

	res, err := env.runner.Run(context.Background(), env.cfg)

	require.NoError(t, err)
	assert.Nil(t, res.Copy)
	var exists bool
	require.NoError(t, env.pool.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM pg_namespace WHERE nspname = $1)", env.cfg.Schemas.Lab).Scan(&exists))
	assert.False(t, exists)
}

func TestRunner_Copy_TargetsMustExist(t *testing.T) {
	env := newRunEnv(t, tutorialFixture(), nil)
	ctx := context.Background()
	env.cfg.SkipCopy = true
	_, err := env.runner.Run(ctx, env.cfg)
	require.NoError(t, err)

	env.cfg.SkipCopy = false
	env.cfg.DeclareTargets = false
	_, err = env.runner.Copy(ctx, env.cfg)
	require.ErrorIs(t, err, csvlab.ErrSchemaNotFound)

	_, err = env.runner.Declare(ctx, env.cfg, "lab")
	require.NoError(t, err)
	_, err = env.runner.Declare(ctx, env.cfg, "experiment")
	require.NoError(t, err)

	res, err := env.runner.Copy(ctx, env.cfg)
	require.NoError(t, err)
	assert.Equal(t, csvlab.CopyResult{Users: 2, Subjects: 2, Sessions: 3}, res)
}

func TestRunner_DeclareThenPopulate(t *testing.T) {
	env := newRunEnv(t, tutorialFixture(), nil)
	ctx := context.Background()

	_, err := env.runner.Populate(ctx, env.cfg)
	require.ErrorIs(t, err, csvlab.ErrSchemaNotFound)

	name, err := env.runner.Declare(ctx, env.cfg, "tutorial")
	require.NoError(t, err)
	assert.Equal(t, env.cfg.Schemas.Main, name)

	env.cfg.Populate.MaxCalls = 1
	env.cfg.Populate.Order = csvlab.OrderReverse
	res, err := env.runner.Populate(ctx, env.cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pending)
	assert.Equal(t, 1, res.Populated)
	assert.EqualValues(t, 1, res.Sessions, "day2.csv comes first in reverse order")
}

func TestRunner_Status(t *testing.T) {
	env := newRunEnv(t, tutorialFixture(), nil)
	ctx := context.Background()
	env.cfg.Populate.MaxCalls = 1
	_, err := env.runner.Run(ctx, env.cfg)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "day2.csv"), []byte(fixtures.Header+"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "day9.csv"), []byte(fixtures.Header+"\n"), 0644))
	require.NoError(t, os.Remove(filepath.Join(env.dir, "day1.csv")))

	report, err := env.runner.Status(ctx, env.cfg)
	require.NoError(t, err)

	assert.Empty(t, report.MissingSchemas)
	require.Len(t, report.Files, 2)
	day1, day2 := report.Files[0], report.Files[1]
	assert.True(t, day1.Populated())
	assert.True(t, day1.Missing)
	assert.False(t, day2.Populated())
	assert.True(t, day2.Stale)
	assert.Equal(t, 1, report.Pending())
	assert.Equal(t, []string{filepath.ToSlash(filepath.Join(env.dir, "day9.csv"))}, report.Unlisted)

	counts := map[string]int64{}
	for _, tc := range report.Tables {
		counts[tc.Schema+"."+tc.Table] = tc.Rows
	}
	assert.EqualValues(t, 2, counts[env.cfg.Schemas.Main+".session"])
	assert.EqualValues(t, 2, counts[env.cfg.Schemas.Experiment+".session"])
	assert.NotContains(t, counts, env.cfg.Schemas.Main+".~jobs")
}

func TestRunner_Status_Undeclared(t *testing.T) {
	env := newRunEnv(t, tutorialFixture(), nil)

	report, err := env.runner.Status(context.Background(), env.cfg)

	require.NoError(t, err)
	assert.Len(t, report.MissingSchemas, 3)
	assert.Empty(t, report.Files)
}

func TestRunner_Drop(t *testing.T) {
	ctx := context.Background()

	t.Run("denied", func(t *testing.T) {
		env := newRunEnv(t, tutorialFixture(), &testhelpers.DenyApprover{})
		_, err := env.runner.Declare(ctx, env.cfg, "lab")
		require.NoError(t, err)

		err = env.runner.Drop(ctx, env.cfg, env.cfg.Schemas.Lab)
		require.ErrorIs(t, err, csvlab.ErrApprovalDenied)
		assert.EqualValues(t, 0, env.count(t, env.cfg.Schemas.Lab, "user"))
	})

	t.Run("approved", func(t *testing.T) {
		env := newRunEnv(t, tutorialFixture(), nil)
		_, err := env.runner.Run(ctx, env.cfg)
		require.NoError(t, err)

		require.NoError(t, env.runner.Drop(ctx, env.cfg, env.cfg.Schemas.Experiment))
		err = env.runner.Drop(ctx, env.cfg, env.cfg.Schemas.Experiment)
		assert.ErrorIs(t, err, csvlab.ErrSchemaNotFound)
	})
}
