package domain

import "errors"

// ErrForbidden is returned when the viewer's role does not cover the task.
var ErrForbidden = errors.New("access to the task is not allowed for this role")

// Viewer is the caller as asserted by its bearer token. Status comes from the
// role claim at issuance time, not from the current user row.
type Viewer struct {
	UserID int64
	Status UserStatus
}

// SeesAllTasks reports whether the role covers every task.
func (v Viewer) SeesAllTasks() bool {
	return v.Status == StatusAdmin || v.Status == StatusEditor
}

// CanAccess reports whether the viewer may see and act on t.
func (v Viewer) CanAccess(t Task) bool {
	return v.SeesAllTasks() || t.ExecutedBy(v.UserID)
}

func (v Viewer) scope(f TaskFilter) TaskFilter {
	if v.SeesAllTasks() {
		return f
	}
	id := v.UserID
	f.ExecutorID = &id
	return f
}
