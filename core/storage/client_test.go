package storage_test

import (
	"context"
	"errors"
	"testing"

	"dailies/core/storage"
	"dailies/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			Bucket:    "dailies",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTP", func(t *testing.T) {
		client, err := storage.NewClient(storage.Config{Endpoint: "http://localhost:9000"})
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		client, err := storage.NewClient(storage.Config{Endpoint: "https://s3.amazonaws.com", UseSSL: true, Region: "us-east-1"})
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "dailies").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(ctx, m, "dailies", ""))
		m.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "dailies").Return(false, nil)
		m.On("MakeBucket", ctx, "dailies", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

		assert.NoError(t, storage.EnsureBucket(ctx, m, "dailies", "eu-west-1"))
		m.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "dailies").Return(false, errors.New("denied"))

		err := storage.EnsureBucket(ctx, m, "dailies", "")
		assert.ErrorContains(t, err, "failed to check bucket dailies")
	})
}

func TestUserMeta(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]string
		want string
		ok   bool
	}{
		{"Canonical", map[string]string{"Source-Mtime": "a"}, "a", true},
		{"Lowercase", map[string]string{"source-mtime": "b"}, "b", true},
		{"HeaderPrefixed", map[string]string{"X-Amz-Meta-Source-Mtime": "c"}, "c", true},
		{"Absent", map[string]string{"Other": "d"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := storage.UserMeta(minio.ObjectInfo{UserMetadata: tt.meta}, storage.MetaSourceMTime)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "clip.mov", storage.ObjectKey("", "clip.mov"))
	assert.Equal(t, "show/20240101_01/clip.mov", storage.ObjectKey("/show/", "20240101_01/clip.mov"))
}
