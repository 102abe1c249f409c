package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailies/core/database"
	"dailies/core/executor"
	"dailies/core/fault"
	"dailies/core/gate"
	"dailies/core/media"
	"dailies/core/pipeline"
	"dailies/core/reconcile"
	"dailies/core/retry"
	"dailies/core/runlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	shot  = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	today = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
)

func writeFile(t *testing.T, root, rel, content string, mtime time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(p, mtime, mtime))
}

func exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

type fixture struct {
	card, pool string
	svc        *Service
	store      *runlog.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store, err := runlog.NewStore(db)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate())

	f := &fixture{card: t.TempDir(), pool: t.TempDir(), store: store}
	runner := pipeline.NewRunner(nil, store, nil)
	scan := pipeline.Scan{Retry: retry.Policy{Attempts: 1}}
	f.svc = NewService(runner, scan, Settings{
		Card:     f.card,
		Pool:     f.pool,
		Config:   Config{ManifestDir: "_reports/manifests", PruneDirs: true},
		Executor: executor.Config{Workers: 2, StagingMaxAge: time.Hour},
		Policy:   reconcile.DefaultPolicy(),
		Retry:    retry.Policy{Attempts: 1},
	})
	f.svc.now = func() time.Time { return today }
	return f
}

func yes(*gate.WipeAuthorization) (bool, error) { return true, nil }

func TestRun_NewAndMatchingCardFiles(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "DCIM/A001.MOV", "alpha", shot)
	writeFile(t, f.card, "DCIM/B001.MOV", "bravo", shot)
	writeFile(t, f.pool, "20240501_01/DCIM/B001.MOV", "bravo", shot)

	res, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "20240502_01", res.Bin)
	assert.Equal(t, 1, res.Plan.Summary.TransferFiles)
	assert.True(t, res.Report.Complete())
	require.NotNil(t, res.Gate)
	assert.Equal(t, gate.Verified, res.Gate.State)
	assert.True(t, exists(f.pool, "20240502_01/DCIM/A001.MOV"))
	assert.False(t, exists(f.pool, "20240502_01/DCIM/B001.MOV"), "already in the pool")

	// Manifest lists both card files where they live now
	require.NotEmpty(t, res.Manifest)
	data, err := os.ReadFile(res.Manifest)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	require.Len(t, m.Entries, 2)
	assert.Equal(t, "20240502_01/DCIM/A001.MOV", m.Entries[0].FinalPath)
	assert.Equal(t, "20240502_01", m.Entries[0].Bin)
	assert.True(t, m.Entries[0].Copied)
	assert.Equal(t, "20240501_01", m.Entries[1].Bin)
	assert.False(t, m.Entries[1].Copied)

	runs, err := f.store.List(context.Background(), runlog.ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run", runs[0].Command)
	assert.Equal(t, string(gate.Verified), runs[0].GateState)

	// A fresh wipe now erases the card
	wipe, err := f.svc.Wipe(context.Background(), Options{Bin: res.Bin}, yes)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"DCIM/A001.MOV", "DCIM/B001.MOV"}, wipe.Wiped)
	assert.False(t, exists(f.card, "DCIM"), "empty directories pruned")
	assert.True(t, exists(f.pool, "20240502_01/DCIM/A001.MOV"))
}

func TestRun_ExplicitBinAndSuffix(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)

	res, err := f.svc.Run(context.Background(), Options{Suffix: "A-cam"})
	require.NoError(t, err)
	assert.Equal(t, "20240502_01_A-cam", res.Bin)

	_, err = f.svc.Run(context.Background(), Options{Suffix: "bad suffix"})
	assert.ErrorIs(t, err, media.ErrInvalidSuffix)

	writeFile(t, f.card, "B001.MOV", "bravo", shot)
	res, err = f.svc.Run(context.Background(), Options{Bin: "20240502_01_A-cam"})
	require.NoError(t, err)
	assert.True(t, exists(f.pool, "20240502_01_A-cam/B001.MOV"))
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)

	res, err := f.svc.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Nil(t, res.Gate)
	assert.Empty(t, res.Manifest)
	assert.Equal(t, fault.DryRun, res.Report.Results[0].Error.Kind)
	assert.False(t, exists(f.pool, res.Bin))
}

func TestPlan_Recorded(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)

	res, err := f.svc.Plan(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, res.Plan.WipeEligible)
	assert.NotEmpty(t, res.RunID)
	assert.False(t, exists(f.pool, res.Bin))

	run, payload, err := f.store.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "plan", run.Command)
	assert.Equal(t, 1, payload.Plan.Summary.TransferFiles)
}

func TestWipe_RefusedWhenStale(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)
	writeFile(t, f.pool, "20240501_01/A001.MOV", "alphx", shot.Add(time.Hour))

	called := false
	res, err := f.svc.Wipe(context.Background(), Options{}, func(*gate.WipeAuthorization) (bool, error) {
		called = true
		return true, nil
	})

	var rejected *gate.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, fault.GateRejected, fault.KindOf(err, fault.Execution))
	assert.False(t, called)
	assert.Equal(t, gate.Rejected, res.Gate.State)
	assert.Empty(t, res.Wiped)
	assert.True(t, exists(f.card, "A001.MOV"))
}

func TestWipe_RefusedWhenMissing(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)
	writeFile(t, f.card, "B001.MOV", "bravo", shot)
	writeFile(t, f.pool, "20240501_01/B001.MOV", "bravo", shot)

	_, err := f.svc.Wipe(context.Background(), Options{}, yes)
	require.Error(t, err)
	assert.True(t, exists(f.card, "A001.MOV"))
	assert.True(t, exists(f.card, "B001.MOV"))
}

func TestWipe_OrphanInBinBlocks(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)
	writeFile(t, f.pool, "20240501_01/A001.MOV", "alpha", shot)
	writeFile(t, f.pool, "20240501_01/Z999.MOV", "zulu", shot)

	_, err := f.svc.Wipe(context.Background(), Options{Bin: "20240501_01"}, yes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orphan inside 20240501_01")
	assert.True(t, exists(f.pool, "20240501_01/Z999.MOV"))

	// Outside the named bin the orphan does not count
	res, err := f.svc.Wipe(context.Background(), Options{Bin: "20240502_01"}, yes)
	require.NoError(t, err)
	assert.Equal(t, []string{"A001.MOV"}, res.Wiped)
	assert.True(t, exists(f.pool, "20240501_01/Z999.MOV"))
}

func TestWipe_NotConfirmed(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)
	writeFile(t, f.pool, "20240501_01/A001.MOV", "alpha", shot)

	res, err := f.svc.Wipe(context.Background(), Options{}, func(auth *gate.WipeAuthorization) (bool, error) {
		assert.Len(t, auth.Items, 1)
		assert.Equal(t, int64(5), auth.Bytes)
		return false, nil
	})
	assert.ErrorIs(t, err, ErrNotConfirmed)
	require.NotNil(t, res.Authorization)
	assert.True(t, exists(f.card, "A001.MOV"))
}

func TestWipe_ErasesConfirmedDuplicates(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "BACKUP/A001.MOV", "alpha", shot)
	writeFile(t, f.card, "DCIM/A001.MOV", "alpha", shot)
	writeFile(t, f.pool, "20240501_01/A001.MOV", "alpha", shot)

	res, err := f.svc.Wipe(context.Background(), Options{}, func(auth *gate.WipeAuthorization) (bool, error) {
		require.Len(t, auth.Items, 1)
		assert.Len(t, auth.Items[0].DuplicatePaths, 1)
		assert.Equal(t, int64(10), auth.Bytes)
		return true, nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"BACKUP/A001.MOV", "DCIM/A001.MOV"}, res.Wiped)
	assert.False(t, exists(f.card, "BACKUP/A001.MOV"))
	assert.False(t, exists(f.card, "DCIM/A001.MOV"))
	assert.True(t, exists(f.pool, "20240501_01/A001.MOV"))
}

func TestWipe_DryRun(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)
	writeFile(t, f.pool, "20240501_01/A001.MOV", "alpha", shot)

	res, err := f.svc.Wipe(context.Background(), Options{DryRun: true}, func(*gate.WipeAuthorization) (bool, error) {
		t.Fatal("confirm must not be called on a dry run")
		return false, nil
	})
	require.NoError(t, err)
	require.NotNil(t, res.Authorization)
	assert.Empty(t, res.Wiped)
	assert.True(t, exists(f.card, "A001.MOV"))
}

func TestPreview(t *testing.T) {
	f := setup(t)
	writeFile(t, f.card, "A001.MOV", "alpha", shot)

	planned, err := f.svc.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ingest", f.svc.Name())
	assert.Equal(t, "20240502_01/A001.MOV", planned.Plan.Items[0].TargetPath)

	runs, err := f.store.List(context.Background(), runlog.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
