package checks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailies/core/database"
	"dailies/core/runlog"
	"dailies/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

func objects(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, i := range infos {
		ch <- i
	}
	close(ch)
	return ch
}

func TestCheckRoots(t *testing.T) {
	pool := t.TempDir()
	proxy := t.TempDir()
	staged := filepath.Join(proxy, "A", ".A001.mp4.partial-1234")
	require.NoError(t, os.MkdirAll(filepath.Dir(staged), 0o755))
	require.NoError(t, os.WriteFile(staged, []byte("x"), 0o644))
	old := now.Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(staged, old, old))

	file := filepath.Join(pool, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	results := CheckRoots(map[string]string{
		"media":  pool,
		"proxy":  proxy,
		"card":   filepath.Join(pool, "unmounted"),
		"backup": "",
		"zfile":  file,
	}, 24*time.Hour, now)

	require.Len(t, results, 5)
	byName := make(map[string]Result)
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, "backup", results[0].Name, "sorted by name")
	assert.Equal(t, StatusDisabled, byName["backup"].Status)
	assert.Equal(t, StatusError, byName["card"].Status)
	assert.Equal(t, StatusOK, byName["media"].Status)
	assert.Equal(t, StatusWarning, byName["proxy"].Status)
	assert.Contains(t, byName["proxy"].Detail, "1 stale staging file")
	assert.Equal(t, StatusError, byName["zfile"].Status)
}

func TestCheckRoots_YoungStagingIgnored(t *testing.T) {
	root := t.TempDir()
	staged := filepath.Join(root, ".A001.MOV.partial-1")
	require.NoError(t, os.WriteFile(staged, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(staged, now.Add(-time.Minute), now.Add(-time.Minute)))

	results := CheckRoots(map[string]string{"media": root}, time.Hour, now)
	assert.Equal(t, StatusOK, results[0].Status)
}

func TestCheckStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Disabled", func(t *testing.T) {
		assert.Equal(t, StatusDisabled, CheckStorage(ctx, nil, "dailies", "").Status)
	})

	t.Run("OK", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "dailies").Return(true, nil)
		client.On("ListObjects", mock.Anything, "dailies", mock.Anything).Return(objects(minio.ObjectInfo{Key: "show/20240501_01/A001.MOV"}))

		res := CheckStorage(ctx, client, "dailies", "show")
		assert.Equal(t, StatusOK, res.Status)
		assert.Equal(t, "dailies/show", res.Name)
		client.AssertExpectations(t)
	})

	t.Run("MissingBucket", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "dailies").Return(false, nil)
		assert.Equal(t, StatusWarning, CheckStorage(ctx, client, "dailies", "").Status)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "dailies").Return(false, errors.New("connection refused"))
		res := CheckStorage(ctx, client, "dailies", "")
		assert.Equal(t, StatusError, res.Status)
		assert.Contains(t, res.Detail, "connection refused")
	})

	t.Run("ListError", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "dailies").Return(true, nil)
		client.On("ListObjects", mock.Anything, "dailies", mock.Anything).Return(objects(minio.ObjectInfo{Err: errors.New("access denied")}))
		assert.Equal(t, StatusError, CheckStorage(ctx, client, "dailies", "").Status)
	})
}

func TestCheckRunLog(t *testing.T) {
	assert.Equal(t, StatusDisabled, CheckRunLog(nil).Status)

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store, err := runlog.NewStore(db)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	assert.Equal(t, StatusError, CheckRunLog(store).Status, "table not migrated")

	require.NoError(t, store.Migrate())
	assert.Equal(t, StatusOK, CheckRunLog(store).Status)
}

func TestCheckTools(t *testing.T) {
	results := CheckTools([]Tool{
		{Binary: "dailies-no-such-binary", Missing: StatusWarning},
		{Binary: os.Args[0], Missing: StatusError},
	})
	require.Len(t, results, 2)

	byName := make(map[string]Result)
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, StatusWarning, byName["dailies-no-such-binary"].Status)
	assert.Equal(t, StatusOK, byName[os.Args[0]].Status)
}

func TestWorst(t *testing.T) {
	assert.Equal(t, StatusOK, Worst(nil))
	assert.Equal(t, StatusOK, Worst([]Result{{Status: StatusDisabled}, {Status: StatusOK}}))
	assert.Equal(t, StatusWarning, Worst([]Result{{Status: StatusWarning}, {Status: StatusOK}}))
	assert.Equal(t, StatusError, Worst([]Result{{Status: StatusWarning}, {Status: StatusError}}))
}
