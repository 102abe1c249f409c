package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailies/core/executor"
	"dailies/core/gate"
	"dailies/core/pipeline"
	"dailies/core/reconcile"
	"dailies/core/retry"
	"dailies/core/storage"
	"dailies/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var shot = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, root, rel, content string, mtime time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(p, mtime, mtime))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func settings(pool, backup string) Settings {
	return Settings{
		Pool:     pool,
		Backup:   backup,
		Config:   Config{BackSync: true, BackSyncGlobs: []string{"*.mp4", "*.MP4"}},
		Executor: executor.Config{Workers: 2, StagingMaxAge: time.Hour},
		Policy:   reconcile.DefaultPolicy(),
		Retry:    retry.Policy{Attempts: 1},
	}
}

func newService(client storage.Client, set Settings) *Service {
	return NewService(pipeline.NewRunner(nil, nil, nil), pipeline.Scan{Retry: retry.Policy{Attempts: 1}}, client, set)
}

func TestRun_MirrorAndBackSync(t *testing.T) {
	pool, backup := t.TempDir(), t.TempDir()
	writeFile(t, pool, "20240501_01/A001.MOV", "alpha", shot)
	writeFile(t, pool, "20240501_01/B001.MOV", "bravo", shot)
	writeFile(t, backup, "20240501_01/B001.MOV", "bravx", shot.Add(time.Hour))
	writeFile(t, backup, "20240501_01/OLD001.MOV", "gone", shot)
	writeFile(t, backup, "exports/cut_v1.mp4", "edit", shot)
	writeFile(t, backup, "exports/cut_v2.MP4", "edit2", shot)
	writeFile(t, pool, "exports/cut_v2.MP4", "edit2", shot)

	res, err := newService(nil, settings(pool, backup)).Run(context.Background(), Options{})
	require.NoError(t, err)

	// Forward: missing and outdated files mirrored, orphans kept
	fwd := res.Forward
	assert.Equal(t, 2, fwd.Report.Succeeded)
	assert.Equal(t, gate.Verified, fwd.Gate.State)
	assert.Equal(t, "alpha", readFile(t, backup, "20240501_01/A001.MOV"))
	assert.Equal(t, "bravo", readFile(t, backup, "20240501_01/B001.MOV"))
	assert.Equal(t, "gone", readFile(t, backup, "20240501_01/OLD001.MOV"))

	// Back-sync: only the export the pool lacks
	require.NotNil(t, res.BackSync)
	require.Len(t, res.BackSync.Plan.Mutations(), 1)
	assert.Equal(t, "exports/cut_v1.mp4", res.BackSync.Plan.Mutations()[0].SourcePath)
	assert.Equal(t, "edit", readFile(t, pool, "exports/cut_v1.mp4"))
	assert.Equal(t, gate.Verified, res.BackSync.Gate.State)
}

func TestRun_MirrorsProxyPool(t *testing.T) {
	pool, proxies, backup := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, pool, "20240501_01/A001.MOV", "alpha", shot)
	writeFile(t, pool, "scratch/TEST.MOV", "junk", shot)
	writeFile(t, proxies, "20240501_01/A001.mp4", "alpha-proxy", shot.Add(time.Hour))
	writeFile(t, backup, "exports/cut_v1.mp4", "edit", shot)

	set := settings(pool, backup)
	set.Proxy = proxies
	set.Config.ProxyDir = "PROXY_POOL"
	set.Config.Excludes = []string{"scratch"}
	svc := newService(nil, set)

	res, err := svc.Run(context.Background(), Options{})
	require.NoError(t, err)

	// Media pool at the backup root, excluded folders left out
	assert.Equal(t, 1, res.Forward.Report.Succeeded)
	assert.Equal(t, "alpha", readFile(t, backup, "20240501_01/A001.MOV"))
	assert.NoFileExists(t, filepath.Join(backup, "scratch", "TEST.MOV"))

	// Proxy pool below its own folder
	require.NotNil(t, res.Proxies)
	assert.Equal(t, ProxyPairName, res.Proxies.Plan.Pair.Name)
	assert.Equal(t, 1, res.Proxies.Report.Succeeded)
	assert.Equal(t, gate.Verified, res.Proxies.Gate.State)
	assert.Equal(t, "alpha-proxy", readFile(t, backup, "PROXY_POOL/20240501_01/A001.mp4"))

	// Mirrored proxies are never back-synced into the media pool
	require.NotNil(t, res.BackSync)
	require.Len(t, res.BackSync.Plan.Mutations(), 1)
	assert.Equal(t, "exports/cut_v1.mp4", res.BackSync.Plan.Mutations()[0].SourcePath)
	assert.NoFileExists(t, filepath.Join(pool, "PROXY_POOL", "20240501_01", "A001.mp4"))

	// A second pass finds nothing to do and no proxy passes for an orphan
	again, err := svc.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, again.Forward.Plan.Mutations())
	assert.Zero(t, again.Forward.Plan.Summary.Actions[reconcile.ActionFlagOrphan])
	assert.Empty(t, again.Proxies.Plan.Mutations())
	assert.Empty(t, again.BackSync.Plan.Mutations())
}

func TestRun_SkipProxies(t *testing.T) {
	pool, proxies, backup := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, proxies, "20240501_01/A001.mp4", "alpha-proxy", shot)

	set := settings(pool, backup)
	set.Proxy = proxies
	set.Config.ProxyDir = "PROXY_POOL"

	res, err := newService(nil, set).Run(context.Background(), Options{SkipProxies: true, SkipBackSync: true})
	require.NoError(t, err)
	assert.Nil(t, res.Proxies)
	assert.NoDirExists(t, filepath.Join(backup, "PROXY_POOL"))
}

func TestRun_BackSyncIgnoresExisting(t *testing.T) {
	pool, backup := t.TempDir(), t.TempDir()
	writeFile(t, pool, "exports/cut.mp4", "pool", shot)
	writeFile(t, backup, "exports/cut.mp4", "back", shot.Add(time.Hour))

	svc := newService(nil, settings(pool, backup))
	leg, err := svc.backSync(context.Background(), Options{})
	require.NoError(t, err)

	assert.Empty(t, leg.Plan.Mutations())
	assert.Equal(t, "pool", readFile(t, pool, "exports/cut.mp4"))
}

func TestRun_DryRunMissingBackupRoot(t *testing.T) {
	pool := t.TempDir()
	backup := filepath.Join(t.TempDir(), "backup")
	writeFile(t, pool, "A001.MOV", "alpha", shot)

	res, err := newService(nil, settings(pool, backup)).Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Forward.Plan.Summary.TransferFiles)
	assert.Nil(t, res.Forward.Gate)
	assert.Nil(t, res.BackSync)
	_, err = os.Stat(backup)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func objectChan(objs ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objs))
	for _, o := range objs {
		ch <- o
	}
	close(ch)
	return ch
}

func TestRun_ObjectStorage(t *testing.T) {
	pool := t.TempDir()
	writeFile(t, pool, "20240501_01/A001.MOV", "alpha", shot)

	set := settings(pool, "")
	set.Storage = storage.Config{Enabled: true, Bucket: "dailies", Prefix: "show"}

	listing := minio.ListObjectsOptions{Prefix: "show/", Recursive: true, WithMetadata: true}
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "dailies").Return(true, nil)
	client.On("ListObjects", mock.Anything, "dailies", listing).Return(objectChan()).Once()
	client.On("PutObject", mock.Anything, "dailies", "show/20240501_01/A001.MOV", mock.Anything, int64(5), mock.Anything).
		Return(minio.UploadInfo{Size: 5}, nil).Once()
	client.On("ListObjects", mock.Anything, "dailies", listing).Return(objectChan(minio.ObjectInfo{
		Key:          "show/20240501_01/A001.MOV",
		Size:         5,
		LastModified: time.Now(),
		UserMetadata: map[string]string{"X-Amz-Meta-Source-Mtime": shot.Format(time.RFC3339Nano)},
	})).Once()

	svc := newService(client, set)
	res, err := svc.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "s3://dailies/show", res.Forward.Report.Destination)
	assert.Equal(t, 1, res.Forward.Report.Succeeded)
	assert.Equal(t, gate.Verified, res.Forward.Gate.State)
	assert.Nil(t, res.BackSync)
	client.AssertExpectations(t)
}

func TestRun_ObjectStorageCreatesBucket(t *testing.T) {
	pool := t.TempDir()
	set := settings(pool, "")
	set.Storage = storage.Config{Enabled: true, Bucket: "dailies", Region: "eu-west-1"}

	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "dailies").Return(false, nil).Once()
	client.On("MakeBucket", mock.Anything, "dailies", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)
	client.On("BucketExists", mock.Anything, "dailies").Return(true, nil)
	client.On("ListObjects", mock.Anything, "dailies", mock.Anything).Return(objectChan())

	res, err := newService(client, set).Run(context.Background(), Options{SkipBackSync: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Forward.Plan.Summary.TransferFiles)
	client.AssertExpectations(t)
}
