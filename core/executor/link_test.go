package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dailies/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkDestination_Put(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "20240501_01/A001.mp4", "proxy")

	report := New(Config{Workers: 1}, src, NewLinkDestination(dst), nil).
		Execute(context.Background(), newPlan(item(reconcile.ActionCopy, "a001", "20240501_01/A001.mp4", "20240502_01/20240501_01/A001.mp4")))
	require.True(t, report.Complete())
	assert.Equal(t, int64(5), report.Bytes)

	a, err := os.Stat(filepath.Join(src, "20240501_01", "A001.mp4"))
	require.NoError(t, err)
	b, err := os.Stat(filepath.Join(dst, "20240502_01", "20240501_01", "A001.mp4"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(a, b), "published as a hard link")
	assert.Equal(t, dst, NewLinkDestination(dst).Location())
}

func TestLinkDestination_MissingSource(t *testing.T) {
	_, err := NewLinkDestination(t.TempDir()).Put(context.Background(), Transfer{
		Source: filepath.Join(t.TempDir(), "gone.mp4"),
		Target: "x/gone.mp4",
	})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
