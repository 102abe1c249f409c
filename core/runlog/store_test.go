package runlog

import (
	"context"
	"testing"
	"time"

	"dailies/core/database"
	"dailies/core/executor"
	"dailies/core/fault"
	"dailies/core/gate"
	"dailies/core/index"
	"dailies/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	store, err := NewStore(db)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate())
	return store
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func samplePayload() Payload {
	plan := &reconcile.Plan{
		Pair:   reconcile.Pair{Name: "ingest", Source: index.RootCard, Target: index.RootPool},
		Policy: reconcile.DefaultPolicy(),
		Items: []reconcile.Item{
			{Key: "a001#5", Action: reconcile.ActionCopy, Classification: reconcile.Missing, EstimatedBytes: 5, SourcePath: "A001.MOV", TargetPath: "20240501_01/A001.MOV"},
			{Key: "b001#5", Action: reconcile.ActionSkip, Classification: reconcile.UpToDate, SourcePath: "B001.MOV"},
		},
		Summary: reconcile.Summary{Identities: 2, TransferFiles: 1, TransferBytes: 5},
	}
	report := &executor.Report{
		Pair:      "ingest",
		Succeeded: 0,
		Failed:    1,
		Results: []executor.Result{
			{Key: "a001#5", Action: reconcile.ActionCopy, Attempted: true, Error: fault.Newf(fault.Execution, "disk full")},
			{Key: "b001#5", Action: reconcile.ActionSkip},
		},
	}
	outcome := &gate.Outcome{
		State:    gate.Rejected,
		Blockers: []reconcile.Blocker{{Key: "a001#5", Path: "A001.MOV", Reason: "COPY failed"}},
	}
	return Payload{Plan: plan, Report: report, Gate: outcome}
}

func TestStore_AppendAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	run := &Run{Command: "run", Source: "/Volumes/CARD", Target: "/Volumes/POOL"}
	require.NoError(t, store.Append(ctx, run, samplePayload()))
	require.NotEmpty(t, run.ID)

	assert.Equal(t, "ingest", run.Pair)
	assert.Equal(t, 2, run.Identities)
	assert.Equal(t, 1, run.Transfers)
	assert.Equal(t, int64(5), run.TransferBytes)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, "REJECTED", run.GateState)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, run.Payload[:4], "zstd frame")

	got, payload, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "run", got.Command)
	assert.Equal(t, "/Volumes/CARD", got.Source)

	require.NotNil(t, payload.Plan)
	assert.Len(t, payload.Plan.Items, 2)
	assert.Equal(t, reconcile.ActionCopy, payload.Plan.Items[0].Action)
	require.NotNil(t, payload.Report)
	require.NotNil(t, payload.Report.Results[0].Error)
	assert.Equal(t, fault.Execution, payload.Report.Results[0].Error.Kind)
	assert.Equal(t, "disk full", payload.Report.Results[0].Error.Message)
	require.NotNil(t, payload.Gate)
	assert.Equal(t, gate.Rejected, payload.Gate.State)
}

func TestStore_GetUnknown(t *testing.T) {
	store := setupStore(t)
	_, _, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_List(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, pair := range []string{"ingest", "proxy", "ingest"} {
		p := Payload{Plan: &reconcile.Plan{Pair: reconcile.Pair{Name: pair}}}
		run := &Run{Command: "plan", StartedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, store.Append(ctx, run, p))
	}

	runs, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt), "newest first")
	assert.Nil(t, runs[0].Payload, "payload omitted from listings")

	runs, err = store.List(ctx, ListOptions{Pair: "ingest", Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ingest", runs[0].Pair)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(2*time.Hour)))
}

func TestStore_Check(t *testing.T) {
	t.Run("Migrated", func(t *testing.T) {
		assert.NoError(t, setupStore(t).Check())
	})

	t.Run("OutdatedTable", func(t *testing.T) {
		db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
		require.NoError(t, err)
		require.NoError(t, db.Exec("CREATE TABLE dailies_runs (id TEXT PRIMARY KEY, command TEXT, payload BLOB)").Error)

		store, err := NewStore(db)
		require.NoError(t, err)
		defer store.Close()

		err = store.Check()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pair, source, target")
	})

	t.Run("MySQL", func(t *testing.T) {
		db, mock := setupMockDB(t)
		rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
		for _, c := range columns {
			rows.AddRow(c, "varchar(64)", "YES", "", nil, "")
		}
		mock.ExpectQuery("SHOW COLUMNS FROM `dailies_runs`").WillReturnRows(rows)

		store, err := NewStore(db)
		require.NoError(t, err)
		defer store.Close()

		assert.NoError(t, store.Check())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_AppendMySQL(t *testing.T) {
	db, mock := setupMockDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)
	defer store.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `dailies_runs`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	run := &Run{ID: "run-1", Command: "wipe"}
	require.NoError(t, store.Append(context.Background(), run, Payload{Wiped: []string{"A001.MOV"}}))
	assert.Equal(t, 1, run.Wiped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
