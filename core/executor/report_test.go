package executor

import (
	"fmt"
	"testing"

	"dailies/core/fault"
	"dailies/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Index(t *testing.T) {
	report := &Report{}
	for i := 0; i < 5000; i++ {
		report.Results = append(report.Results, Result{
			Key:       fmt.Sprintf("a%04d#1", i),
			Action:    reconcile.ActionCopy,
			Succeeded: i%2 == 0,
		})
	}
	report.Results = append(report.Results, Result{
		Key:    "a0001#1",
		Action: reconcile.ActionTranscode,
		Error:  fault.Newf(fault.Transcode, "ffmpeg exited 1"),
	})

	ix := report.Index()
	require.Len(t, ix, 5001)

	res, ok := ix.Lookup("a4998#1", reconcile.ActionCopy)
	require.True(t, ok)
	assert.True(t, res.Succeeded)

	res, ok = ix.Lookup("a0001#1", reconcile.ActionTranscode)
	require.True(t, ok)
	assert.Equal(t, fault.Transcode, res.Error.Kind)

	_, ok = ix.Lookup("a0001#1", reconcile.ActionSkip)
	assert.False(t, ok)
	_, ok = ix.Lookup("zzz#1", reconcile.ActionCopy)
	assert.False(t, ok)
}

func TestReport_IndexNil(t *testing.T) {
	var report *Report
	_, ok := report.Index().Lookup("a001#1", reconcile.ActionCopy)
	assert.False(t, ok)
}
