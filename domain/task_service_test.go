package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

type taskFixture struct {
	st    *fakeStore
	pub   *recordingPublisher
	desks *DeskService
	tasks *TaskService
	desk  *Desk
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	st := newFakeStore()
	pub := &recordingPublisher{}
	f := &taskFixture{st: st, pub: pub, desks: NewDeskService(st, pub), tasks: NewTaskService(st, pub)}
	d, err := f.desks.Create(context.Background(), DeskCreate{Name: "Sprint"})
	if err != nil {
		t.Fatalf("create desk: %v", err)
	}
	f.desk = d
	return f
}

func (f *taskFixture) create(t *testing.T, name string, executor *int64) *Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), TaskCreate{
		Name:       name,
		DeskID:     f.desk.ID,
		ColumnID:   f.desk.Columns[0].ID,
		ExecutorID: executor,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func ptr(v int64) *int64 { return &v }

func TestDeskGetsDefaultColumns(t *testing.T) {
	f := newTaskFixture(t)
	got, err := f.desks.Get(context.Background(), f.desk.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := []string{"To Do", "In Progress", "Done"}
	if len(got.Columns) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(got.Columns))
	}
	for i, c := range got.Columns {
		if c.Name != want[i] || c.Order != i+1 || c.DeskID != got.ID {
			t.Fatalf("unexpected column %d: %+v", i, c)
		}
	}
}

func TestDeskDeleteRejectedWhileTasksRemain(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, "write docs", nil)

	if err := f.desks.Delete(context.Background(), f.desk.ID); !errors.Is(err, ErrReferenced) {
		t.Fatalf("expected referenced, got %v", err)
	}
	admin := Viewer{UserID: 1, Status: StatusAdmin}
	if err := f.tasks.Delete(context.Background(), admin, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := f.desks.Delete(context.Background(), f.desk.ID); err != nil {
		t.Fatalf("delete desk: %v", err)
	}
}

func TestTaskVisibilityByRole(t *testing.T) {
	f := newTaskFixture(t)
	mine := f.create(t, "mine", ptr(7))
	other := f.create(t, "other", ptr(8))
	f.create(t, "unassigned", nil)

	user := Viewer{UserID: 7, Status: StatusUser}
	got, err := f.tasks.ListMine(context.Background(), user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("user sees %+v", got)
	}

	for _, st := range []UserStatus{StatusAdmin, StatusEditor} {
		got, err = f.tasks.ListMine(context.Background(), Viewer{UserID: 1, Status: st})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("%s sees %d tasks", st, len(got))
		}
	}

	if _, err := f.tasks.Get(context.Background(), user, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.tasks.Update(context.Background(), user, other.ID, TaskUpdate{Name: Some("x")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden on update, got %v", err)
	}
	if err := f.tasks.Delete(context.Background(), user, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden on delete, got %v", err)
	}
	if _, err := f.tasks.Get(context.Background(), user, mine.ID); err != nil {
		t.Fatalf("own task: %v", err)
	}
}

func TestTaskUpdateOnlyTouchesSetFields(t *testing.T) {
	f := newTaskFixture(t)
	task, err := f.tasks.Create(context.Background(), TaskCreate{
		Name:        "old",
		Description: "keep me",
		DeskID:      f.desk.ID,
		ColumnID:    f.desk.Columns[0].ID,
		ExecutorID:  ptr(3),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var upd TaskUpdate
	if err := sonic.Unmarshal([]byte(`{"name":"new","description":null}`), &upd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, err := f.tasks.Update(context.Background(), Viewer{UserID: 1, Status: StatusEditor}, task.ID, upd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "new" || got.Description != "keep me" || got.ColumnID != task.ColumnID || !got.ExecutedBy(3) {
		t.Fatalf("unexpected task %+v", got)
	}
}

func TestTaskUpdateRejectsInvertedDates(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, "t", nil)
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	upd := TaskUpdate{StartDate: Some(start), EndDate: Some(start.AddDate(0, 0, -1))}
	_, err := f.tasks.Update(context.Background(), Viewer{Status: StatusAdmin}, task.ID, upd)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEmptyTaskUpdateIsNoop(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, "t", ptr(5))
	before := len(f.pub.types())

	got, err := f.tasks.Update(context.Background(), Viewer{UserID: 5, Status: StatusUser}, task.ID, TaskUpdate{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "t" {
		t.Fatalf("unexpected task %+v", got)
	}
	if after := len(f.pub.types()); after != before {
		t.Fatalf("empty update must not publish, got %v", f.pub.types())
	}
	if _, err := f.tasks.Update(context.Background(), Viewer{UserID: 6, Status: StatusUser}, task.ID, TaskUpdate{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for another user, got %v", err)
	}
}

func TestTaskMove(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, "t", ptr(5))
	admin := Viewer{UserID: 1, Status: StatusAdmin}

	got, err := f.tasks.Move(context.Background(), admin, task.ID, f.desk.Columns[2].ID)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got.ColumnID != f.desk.Columns[2].ID || got.Name != "t" || !got.ExecutedBy(5) {
		t.Fatalf("unexpected task %+v", got)
	}

	if _, err := f.tasks.Move(context.Background(), admin, 999, f.desk.Columns[1].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	other, _ := f.desks.Create(context.Background(), DeskCreate{Name: "Other"})
	if _, err := f.tasks.Move(context.Background(), admin, task.ID, other.Columns[0].ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected column/desk mismatch, got %v", err)
	}
	if _, err := f.tasks.Move(context.Background(), admin, task.ID, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTaskAssign(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, "t", nil)
	editor := Viewer{UserID: 2, Status: StatusEditor}

	got, err := f.tasks.Assign(context.Background(), editor, task.ID, 9)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !got.ExecutedBy(9) {
		t.Fatalf("executor not set: %+v", got)
	}
	if _, err := f.tasks.Assign(context.Background(), editor, 999, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	types := f.pub.types()
	if types[len(types)-1] != TaskAssigned {
		t.Fatalf("last event %q", types[len(types)-1])
	}
}

func TestOptionalUnmarshal(t *testing.T) {
	var upd TaskUpdate
	if err := sonic.Unmarshal([]byte(`{"columnId":4,"executorId":null}`), &upd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := upd.ColumnID.Get(); !ok || v != 4 {
		t.Fatalf("columnId not set: %+v", upd.ColumnID)
	}
	if upd.ExecutorID.Set || upd.Name.Set {
		t.Fatalf("absent or null fields must stay unset")
	}
	if (TaskUpdate{}).Empty() != true || upd.Empty() {
		t.Fatalf("unexpected Empty result")
	}
}
