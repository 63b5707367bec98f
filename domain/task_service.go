package domain

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// TaskService manages tasks and applies the role based visibility policy.
type TaskService struct {
	st  TaskStore
	pub Publisher
	now func() time.Time
}

func NewTaskService(st TaskStore, pub Publisher) *TaskService {
	return &TaskService{st: st, pub: publisherOrNop(pub), now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, in TaskCreate) (*Task, error) {
	if err := requireText("name", in.Name, maxNameLen); err != nil {
		return nil, err
	}
	if err := limitText("description", in.Description, maxDescriptionLen); err != nil {
		return nil, err
	}
	if err := positiveID("deskId", in.DeskID); err != nil {
		return nil, err
	}
	if err := positiveID("columnId", in.ColumnID); err != nil {
		return nil, err
	}
	start, end := timeOrNil(in.StartDate), timeOrNil(in.EndDate)
	if !datesOrdered(start, end) {
		return nil, Invalid("endDate", "must not be before startDate")
	}
	t := &Task{
		Name:        in.Name,
		Description: in.Description,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   s.now().UTC(),
		File:        in.File,
		Photo:       in.Photo,
		DeskID:      in.DeskID,
		ColumnID:    in.ColumnID,
		CreatorID:   in.CreatorID,
		ExecutorID:  in.ExecutorID,
	}
	if err := s.st.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"task": t.ID, "desk": t.DeskID, "column": t.ColumnID}).Info("task created")
	s.publish(TaskCreated, t.ID, map[string]any{"deskId": t.DeskID, "columnId": t.ColumnID})
	return t, nil
}

// Get returns the task when the viewer may see it.
func (s *TaskService) Get(ctx context.Context, v Viewer, id int64) (*Task, error) {
	t, err := s.st.TaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.CanAccess(*t) {
		return nil, ErrForbidden
	}
	return t, nil
}

// List returns the tasks matching f that the viewer may see.
func (s *TaskService) List(ctx context.Context, v Viewer, f TaskFilter) ([]Task, error) {
	return s.st.ListTasks(ctx, v.scope(f))
}

// ListMine returns every task for Admin and Editor and the executed tasks for
// any other role.
func (s *TaskService) ListMine(ctx context.Context, v Viewer) ([]Task, error) {
	log.WithFields(log.Fields{"user": v.UserID, "status": v.Status, "all": v.SeesAllTasks()}).Debug("listing tasks for viewer")
	return s.List(ctx, v, TaskFilter{})
}

// Update applies the set fields of upd. An update with no field set writes
// nothing and publishes no event.
func (s *TaskService) Update(ctx context.Context, v Viewer, id int64, upd TaskUpdate) (*Task, error) {
	if upd.Empty() {
		return s.Get(ctx, v, id)
	}
	if val, ok := upd.Name.Get(); ok {
		if err := requireText("name", val, maxNameLen); err != nil {
			return nil, err
		}
	}
	if val, ok := upd.Description.Get(); ok {
		if err := limitText("description", val, maxDescriptionLen); err != nil {
			return nil, err
		}
	}
	if val, ok := upd.DeskID.Get(); ok {
		if err := positiveID("deskId", val); err != nil {
			return nil, err
		}
	}
	if val, ok := upd.ColumnID.Get(); ok {
		if err := positiveID("columnId", val); err != nil {
			return nil, err
		}
	}
	if val, ok := upd.ExecutorID.Get(); ok {
		if err := positiveID("executorId", val); err != nil {
			return nil, err
		}
	}
	t, err := s.st.UpdateTask(ctx, id, func(t *Task) error {
		if !v.CanAccess(*t) {
			return ErrForbidden
		}
		upd.Name.ApplyTo(&t.Name)
		upd.Description.ApplyTo(&t.Description)
		upd.StartDate.ApplyToPtr(&t.StartDate)
		upd.EndDate.ApplyToPtr(&t.EndDate)
		upd.File.ApplyTo(&t.File)
		upd.Photo.ApplyTo(&t.Photo)
		upd.DeskID.ApplyTo(&t.DeskID)
		upd.ColumnID.ApplyTo(&t.ColumnID)
		upd.ExecutorID.ApplyToPtr(&t.ExecutorID)
		if !datesOrdered(t.StartDate, t.EndDate) {
			return Invalid("endDate", "must not be before startDate")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithField("task", id).Info("task updated")
	s.publish(TaskUpdated, id, nil)
	return t, nil
}

// Move places the task into columnID.
func (s *TaskService) Move(ctx context.Context, v Viewer, id, columnID int64) (*Task, error) {
	if err := positiveID("newColumnId", columnID); err != nil {
		return nil, err
	}
	var from int64
	t, err := s.st.UpdateTask(ctx, id, func(t *Task) error {
		if !v.CanAccess(*t) {
			return ErrForbidden
		}
		from = t.ColumnID
		t.ColumnID = columnID
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"task": id, "from": from, "to": columnID}).Info("task moved")
	s.publish(TaskMoved, id, map[string]any{"fromColumnId": from, "toColumnId": columnID})
	return t, nil
}

// Assign sets the executor of the task.
func (s *TaskService) Assign(ctx context.Context, v Viewer, id, executorID int64) (*Task, error) {
	if err := positiveID("executorId", executorID); err != nil {
		return nil, err
	}
	t, err := s.st.UpdateTask(ctx, id, func(t *Task) error {
		if !v.CanAccess(*t) {
			return ErrForbidden
		}
		t.ExecutorID = &executorID
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"task": id, "executor": executorID}).Info("task assigned")
	s.publish(TaskAssigned, id, map[string]any{"executorId": executorID})
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, v Viewer, id int64) error {
	if !v.SeesAllTasks() {
		if _, err := s.Get(ctx, v, id); err != nil {
			return err
		}
	}
	if err := s.st.DeleteTask(ctx, id); err != nil {
		return err
	}
	log.WithField("task", id).Info("task deleted")
	s.publish(TaskDeleted, id, nil)
	return nil
}

func (s *TaskService) publish(typ string, id int64, data map[string]any) {
	s.pub.Publish(Event{Type: typ, EntityType: "task", EntityID: id, Data: data, Time: s.now().UTC()})
}
