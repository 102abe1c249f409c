package integrity_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"dailies/core/storage"
	"dailies/core/storage/mocks"
	"dailies/feature/integrity"
	"dailies/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, client storage.Client) *fiber.App {
	app := fiber.New()
	set := integrity.Settings{
		Roots:         map[string]string{"media": t.TempDir(), "card": ""},
		StagingMaxAge: 24 * time.Hour,
		Bucket:        "dailies",
		Tools:         []checks.Tool{{Binary: "dailies-no-such-binary", Missing: checks.StatusWarning}},
	}
	svc := integrity.NewService(client, nil, set, zap.NewNop())
	require.NoError(t, integrity.NewFeature(svc).Load(app))
	return app
}

func TestHandleIntegrityCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report integrity.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, checks.StatusWarning, report.Status, "missing ffprobe-like tool")
	require.Len(t, report.Roots, 2)
	assert.Equal(t, checks.StatusDisabled, report.Roots[0].Status)
	assert.Equal(t, checks.StatusOK, report.Roots[1].Status)
	assert.Equal(t, checks.StatusDisabled, report.Storage.Status)
	assert.Equal(t, checks.StatusDisabled, report.RunLog.Status)
}

func TestHandleStorageCheck(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "dailies").Return(true, nil)
		ch := make(chan minio.ObjectInfo)
		close(ch)
		client.On("ListObjects", mock.Anything, "dailies", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

		resp, err := setupTestApp(t, client).Test(httptest.NewRequest("GET", "/integrity/storage", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "dailies").Return(false, errors.New("dial tcp: connection refused"))

		resp, err := setupTestApp(t, client).Test(httptest.NewRequest("GET", "/integrity/storage", nil))
		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)

		var res checks.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, checks.StatusError, res.Status)
	})
}

func TestHandleRunLogAndTools(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/runlog", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity/tools", nil))
	require.NoError(t, err)
	var tools []checks.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tools))
	require.Len(t, tools, 1)
	assert.Equal(t, checks.StatusWarning, tools[0].Status)
}

func TestFeature(t *testing.T) {
	f := integrity.NewFeature(integrity.NewService(nil, nil, integrity.Settings{}, nil))
	assert.Equal(t, "integrity", f.Name())
	assert.True(t, f.IsEnabled())
}
