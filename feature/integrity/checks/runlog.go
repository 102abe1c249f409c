package checks

import (
	"dailies/core/runlog"
)

// CheckRunLog verifies the run table. A nil store means the run log is
// disabled.
func CheckRunLog(store *runlog.Store) Result {
	if store == nil {
		return Result{Name: runlog.TableName, Status: StatusDisabled, Detail: "run log not enabled"}
	}
	if err := store.Check(); err != nil {
		return Result{Name: runlog.TableName, Status: StatusError, Detail: err.Error()}
	}
	return Result{Name: runlog.TableName, Status: StatusOK}
}
