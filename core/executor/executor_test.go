package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailies/core/fault"
	"dailies/core/media"
	"dailies/core/reconcile"
	"dailies/core/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mtime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(p, mtime, mtime))
	return p
}

func item(action reconcile.Action, stem, src, dst string) reconcile.Item {
	id := media.Identity{Stem: stem, Size: 1}
	return reconcile.Item{Key: id.Key(), Identity: id, Action: action, SourcePath: src, TargetPath: dst}
}

func newPlan(items ...reconcile.Item) *reconcile.Plan {
	return &reconcile.Plan{
		Pair:   reconcile.Pair{Name: "ingest"},
		Policy: reconcile.DefaultPolicy(),
		Items:  items,
	}
}

func newExecutor(src, dst string, cfg Config) *Executor {
	if cfg.Workers == 0 {
		cfg.Workers = 2
	}
	return New(cfg, src, NewFSDestination(dst), nil).WithRetry(retry.Policy{Attempts: 2})
}

func stagingLeft(t *testing.T, root string) []string {
	t.Helper()
	var found []string
	_ = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && filepath.Base(p)[0] == '.' {
			found = append(found, p)
		}
		return nil
	})
	return found
}

func TestExecute_CopiesAndPreservesMTime(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "DCIM/A001.MOV", "alpha")
	writeFile(t, src, "DCIM/B001.MOV", "bravo")

	plan := newPlan(
		item(reconcile.ActionCopy, "a001", "DCIM/A001.MOV", "20240501_01/A001.MOV"),
		item(reconcile.ActionCopy, "b001", "DCIM/B001.MOV", "20240501_01/B001.MOV"),
		item(reconcile.ActionSkip, "c001", "C001.MOV", "x/C001.MOV"),
	)

	report := newExecutor(src, dst, Config{}).Execute(context.Background(), plan)

	require.Len(t, report.Results, 3)
	assert.True(t, report.Complete())
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, int64(10), report.Bytes)

	for _, res := range report.Results[:2] {
		assert.True(t, res.Attempted)
		assert.True(t, res.Succeeded)
		assert.Nil(t, res.Error)
		assert.Equal(t, 1, res.Attempts)

		info, err := os.Stat(filepath.Join(dst, filepath.FromSlash(res.TargetPath)))
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(mtime), "mtime carried over")
	}

	data, err := os.ReadFile(filepath.Join(dst, "20240501_01", "A001.MOV"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	skip := report.Results[2]
	assert.False(t, skip.Attempted)
	assert.False(t, skip.Succeeded)
	assert.Nil(t, skip.Error)

	assert.Empty(t, stagingLeft(t, dst))
}

func TestExecute_OverwritesStaleTarget(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "A001.MOV", "complete clip")
	writeFile(t, dst, "bin/A001.MOV", "trunc")

	item := item(reconcile.ActionCopy, "a001", "A001.MOV", "bin/A001.MOV")
	item.Classification = reconcile.Stale
	report := newExecutor(src, dst, Config{}).Execute(context.Background(), newPlan(item))

	require.True(t, report.Complete())
	data, err := os.ReadFile(filepath.Join(dst, "bin", "A001.MOV"))
	require.NoError(t, err)
	assert.Equal(t, "complete clip", string(data))
}

func TestExecute_FailureIsolated(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "A001.MOV", "alpha")

	plan := newPlan(
		item(reconcile.ActionCopy, "a001", "A001.MOV", "A001.MOV"),
		item(reconcile.ActionCopy, "gone", "GONE.MOV", "GONE.MOV"),
	)
	report := newExecutor(src, dst, Config{}).Execute(context.Background(), plan)

	assert.False(t, report.Complete())
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	failed := report.Results[1]
	assert.True(t, failed.Attempted)
	assert.False(t, failed.Succeeded)
	require.NotNil(t, failed.Error)
	assert.Equal(t, fault.Execution, failed.Error.Kind)
	assert.Equal(t, 1, failed.Attempts, "missing sources are not retried")

	require.Len(t, report.Failures(), 1)
	assert.Equal(t, "gone", report.Failures()[0].Identity.Stem)
	assert.NoFileExists(t, filepath.Join(dst, "GONE.MOV"))
}

func TestExecute_DryRun(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "A001.MOV", "alpha")

	plan := newPlan(item(reconcile.ActionCopy, "a001", "A001.MOV", "A001.MOV"))
	report := newExecutor(src, dst, Config{DryRun: true}).Execute(context.Background(), plan)

	res := report.Results[0]
	assert.True(t, report.DryRun)
	assert.False(t, res.Attempted)
	require.NotNil(t, res.Error)
	assert.Equal(t, fault.DryRun, res.Error.Kind)
	assert.False(t, report.Complete())
	assert.NoFileExists(t, filepath.Join(dst, "A001.MOV"))
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "A001.MOV", "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := newPlan(
		item(reconcile.ActionCopy, "a001", "A001.MOV", "A001.MOV"),
		item(reconcile.ActionFlagOrphan, "z001", "", "Z001.MOV"),
	)
	report := newExecutor(src, dst, Config{}).Execute(ctx, plan)

	res := report.Results[0]
	assert.False(t, res.Attempted)
	require.NotNil(t, res.Error)
	assert.Equal(t, fault.Cancelled, res.Error.Kind)
	assert.Equal(t, 1, report.Cancelled)
	assert.Nil(t, report.Results[1].Error)
	assert.NoFileExists(t, filepath.Join(dst, "A001.MOV"))
}

// blockingDestination publishes the first transfer, then holds the next
// one until the context is done.
type blockingDestination struct {
	*FSDestination
	published chan struct{}
	puts      int
}

func (d *blockingDestination) Put(ctx context.Context, t Transfer) (int64, error) {
	d.puts++
	if d.puts == 1 {
		n, err := d.FSDestination.Put(ctx, t)
		close(d.published)
		return n, err
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestExecute_CancelledMidBatch(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "A001.MOV", "alpha")
	writeFile(t, src, "B001.MOV", "bravo")
	writeFile(t, src, "C001.MOV", "charlie")

	dest := &blockingDestination{FSDestination: NewFSDestination(dst), published: make(chan struct{})}
	exec := New(Config{Workers: 1}, src, dest, nil).WithRetry(retry.Policy{Attempts: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-dest.published
		// B001 is in flight or about to start
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	plan := newPlan(
		item(reconcile.ActionCopy, "a001", "A001.MOV", "A001.MOV"),
		item(reconcile.ActionCopy, "b001", "B001.MOV", "B001.MOV"),
		item(reconcile.ActionCopy, "c001", "C001.MOV", "C001.MOV"),
	)
	report := exec.Execute(ctx, plan)

	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].Succeeded)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Cancelled)
	assert.Zero(t, report.Failed)
	assert.False(t, report.Complete())

	for _, res := range report.Results[1:] {
		assert.False(t, res.Succeeded)
		require.NotNil(t, res.Error)
		assert.Equal(t, fault.Cancelled, res.Error.Kind)
	}
	assert.False(t, report.Results[2].Attempted, "no new work after cancellation")

	assert.Equal(t, "alpha", readDest(t, dst, "A001.MOV"))
	assert.NoFileExists(t, filepath.Join(dst, "B001.MOV"))
	assert.NoFileExists(t, filepath.Join(dst, "C001.MOV"))
	assert.Empty(t, stagingLeft(t, dst))
}

func readDest(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

type fakeTranscoder struct {
	dir string
	err error
}

func (f *fakeTranscoder) Transcode(ctx context.Context, sourcePath, profile string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	out := filepath.Join(f.dir, filepath.Base(sourcePath)+"."+profile+".mp4")
	return out, os.WriteFile(out, []byte("proxy"), 0o644)
}

func TestExecute_Transcode(t *testing.T) {
	src, dst, tmp := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, src, "A001.MOV", "raw footage")

	plan := newPlan(item(reconcile.ActionTranscode, "a001", "A001.MOV", "A001.mp4"))

	t.Run("Success", func(t *testing.T) {
		report := newExecutor(src, dst, Config{}).WithTranscoder(&fakeTranscoder{dir: tmp}).Execute(context.Background(), plan)
		require.True(t, report.Complete())
		data, err := os.ReadFile(filepath.Join(dst, "A001.mp4"))
		require.NoError(t, err)
		assert.Equal(t, "proxy", string(data))
		assert.NoFileExists(t, filepath.Join(tmp, "A001.MOV.proxy_1080p.mp4"), "temporary output removed")
	})

	t.Run("Failure", func(t *testing.T) {
		report := newExecutor(src, t.TempDir(), Config{}).
			WithTranscoder(&fakeTranscoder{err: errors.New("ffmpeg exited 1")}).
			Execute(context.Background(), plan)
		res := report.Results[0]
		require.NotNil(t, res.Error)
		assert.Equal(t, fault.Transcode, res.Error.Kind)
		assert.Equal(t, 2, res.Attempts)
	})

	t.Run("NoTranscoder", func(t *testing.T) {
		report := newExecutor(src, t.TempDir(), Config{}).Execute(context.Background(), plan)
		res := report.Results[0]
		require.NotNil(t, res.Error)
		assert.Equal(t, fault.Transcode, res.Error.Kind)
		assert.Equal(t, 1, res.Attempts)
	})
}

func TestFSDestination_RefusesChangedSource(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	p := writeFile(t, src, "A001.MOV", "alpha")

	d := NewFSDestination(dst)
	_, err := d.Put(context.Background(), Transfer{Source: p, Target: "A001.MOV", Checksum: "deadbeef"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "changed since indexing")
	assert.NoFileExists(t, filepath.Join(dst, "A001.MOV"))
	assert.Empty(t, stagingLeft(t, dst), "staging file removed on failure")
}

func TestFSDestination_MatchingChecksum(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	p := writeFile(t, src, "A001.MOV", "alpha")
	sum, err := media.HashFile(context.Background(), p)
	require.NoError(t, err)

	n, err := NewFSDestination(dst).Put(context.Background(), Transfer{Source: p, Target: "a/b/A001.MOV", Checksum: sum})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.FileExists(t, filepath.Join(dst, "a", "b", "A001.MOV"))
}

func TestStagingName(t *testing.T) {
	name := StagingName("A001.MOV")
	assert.Regexp(t, `^\.A001\.MOV\.partial-[0-9a-f-]{36}$`, name)
	assert.True(t, media.Filter{}.SkipFile(name), "staging files are never indexed")
}

func TestCleanStaging(t *testing.T) {
	root := t.TempDir()
	old := writeFile(t, root, "bin/.A001.MOV.partial-1", "x")
	young := writeFile(t, root, "bin/.B001.MOV.partial-2", "x")
	keep := writeFile(t, root, "bin/A001.MOV", "x")

	now := mtime.Add(48 * time.Hour)
	require.NoError(t, os.Chtimes(young, now, now.Add(-time.Hour)))

	removed, err := CleanStaging(root, 24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, []string{old}, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, young)
	assert.FileExists(t, keep)
}

func TestKeyedMutex(t *testing.T) {
	var k keyedMutex
	unlock := k.Lock("a")

	acquired := make(chan struct{})
	go func() {
		release := k.Lock("a")
		close(acquired)
		release()
	}()

	other := k.Lock("b")
	other()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-acquired
	assert.Eventually(t, func() bool {
		k.mu.Lock()
		defer k.mu.Unlock()
		return len(k.locks) == 0
	}, time.Second, time.Millisecond)
}
