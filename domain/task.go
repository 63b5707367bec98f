package domain

import (
	"context"
	"time"
)

// Task is a card placed in a column of a desk.
type Task struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	CreatedAt    time.Time  `json:"createDateTime"`
	File         []byte    `json:"file,omitempty"`
	Photo        []byte    `json:"photo,omitempty"`
	DeskID       int64     `json:"deskId"`
	DeskName     string    `json:"deskName,omitempty"`
	ColumnID     int64     `json:"columnId"`
	ColumnName   string    `json:"columnName,omitempty"`
	CreatorID    *int64    `json:"creatorId,omitempty"`
	CreatorName  string    `json:"creatorName,omitempty"`
	ExecutorID   *int64    `json:"executorId,omitempty"`
	ExecutorName string    `json:"executorName,omitempty"`
}

// datesOrdered reports whether end does not precede start. Unset dates are
// always ordered.
func datesOrdered(start, end *time.Time) bool {
	return start == nil || end == nil || !end.Before(*start)
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ExecutedBy reports whether userID is the task's executor.
func (t Task) ExecutedBy(userID int64) bool {
	return t.ExecutorID != nil && *t.ExecutorID == userID
}

// TaskCreate carries the fields of a new task.
type TaskCreate struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	File        []byte    `json:"file,omitempty"`
	Photo       []byte    `json:"photo,omitempty"`
	DeskID      int64     `json:"deskId"`
	ColumnID    int64     `json:"columnId"`
	CreatorID   *int64    `json:"creatorId"`
	ExecutorID  *int64    `json:"executorId"`
}

// TaskUpdate is a partial update.
type TaskUpdate struct {
	Name        Optional[string]    `json:"name"`
	Description Optional[string]    `json:"description"`
	StartDate   Optional[time.Time] `json:"startDate"`
	EndDate     Optional[time.Time] `json:"endDate"`
	File        Optional[[]byte]    `json:"file"`
	Photo       Optional[[]byte]    `json:"photo"`
	DeskID      Optional[int64]     `json:"deskId"`
	ColumnID    Optional[int64]     `json:"columnId"`
	ExecutorID  Optional[int64]     `json:"executorId"`
}

// Empty reports whether no field is set.
func (u TaskUpdate) Empty() bool {
	return !u.Name.Set && !u.Description.Set && !u.StartDate.Set && !u.EndDate.Set &&
		!u.File.Set && !u.Photo.Set && !u.DeskID.Set && !u.ColumnID.Set && !u.ExecutorID.Set
}

// TaskFilter narrows a task listing. Nil fields do not filter.
type TaskFilter struct {
	DeskID     *int64
	ColumnID   *int64
	ExecutorID *int64
}

// TaskStore persists tasks. Writes fail with ErrColumnNotInDesk when the
// resulting column is owned by another desk.
type TaskStore interface {
	CreateTask(ctx context.Context, t *Task) error
	TaskByID(ctx context.Context, id int64) (*Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]Task, error)
	UpdateTask(ctx context.Context, id int64, fn func(*Task) error) (*Task, error)
	DeleteTask(ctx context.Context, id int64) error
}
