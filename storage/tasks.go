package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"taskmanager-api/domain"
)

const taskSelect = `SELECT t.id, t.name, t.description, t.start_date, t.end_date, t.created_at, t.file, t.photo,
	t.desk_id, d.name, t.column_id, c.name,
	t.creator_id, cu.first_name, cu.last_name,
	t.executor_id, eu.first_name, eu.last_name
	FROM tasks t
	JOIN desks d ON d.id = t.desk_id
	JOIN columns c ON c.id = t.column_id
	LEFT JOIN users cu ON cu.id = t.creator_id
	LEFT JOIN users eu ON eu.id = t.executor_id`

func scanTask(row scanner) (*domain.Task, error) {
	var (
		t                     domain.Task
		start, end            sql.NullTime
		creatorID, executorID sql.NullInt64
		cFirst, cLast         sql.NullString
		eFirst, eLast         sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &t.Description, &start, &end, &t.CreatedAt, &t.File, &t.Photo,
		&t.DeskID, &t.DeskName, &t.ColumnID, &t.ColumnName,
		&creatorID, &cFirst, &cLast,
		&executorID, &eFirst, &eLast)
	if err != nil {
		return nil, err
	}
	t.StartDate = timePtr(start)
	t.EndDate = timePtr(end)
	t.CreatedAt = t.CreatedAt.UTC()
	t.CreatorID = idPtr(creatorID)
	t.CreatorName = fullName(cFirst, cLast)
	t.ExecutorID = idPtr(executorID)
	t.ExecutorName = fullName(eFirst, eLast)
	return &t, nil
}

// checkColumn verifies that columnID exists and belongs to deskID.
func (s *Store) checkColumn(ctx context.Context, tx *sql.Tx, deskID, columnID int64) error {
	var owner int64
	err := s.queryRow(ctx, tx, "SELECT desk_id FROM columns WHERE id = ?", columnID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invalid("columnId", "column does not exist")
	}
	if err != nil {
		return err
	}
	if owner != deskID {
		return domain.ErrColumnNotInDesk
	}
	return nil
}

func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkColumn(ctx, tx, t.DeskID, t.ColumnID); err != nil {
			return err
		}
		id, err := s.insert(ctx, tx, `INSERT INTO tasks (name, description, start_date, end_date, created_at,
			file, photo, desk_id, column_id, creator_id, executor_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Name, t.Description, nullTime(t.StartDate), nullTime(t.EndDate), t.CreatedAt.UTC(),
			t.File, t.Photo, t.DeskID, t.ColumnID, nullID(t.CreatorID), nullID(t.ExecutorID))
		if err != nil {
			return mapWriteErr(err)
		}
		created, err := s.taskByID(ctx, tx, id)
		if err != nil {
			return err
		}
		*t = *created
		return nil
	})
}

func (s *Store) TaskByID(ctx context.Context, id int64) (*domain.Task, error) {
	return s.taskByID(ctx, s.db, id)
}

func (s *Store) taskByID(ctx context.Context, q querier, id int64) (*domain.Task, error) {
	t, err := scanTask(s.queryRow(ctx, q, taskSelect+" WHERE t.id = ?", id))
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if f.DeskID != nil {
		where = append(where, "t.desk_id = ?")
		args = append(args, *f.DeskID)
	}
	if f.ColumnID != nil {
		where = append(where, "t.column_id = ?")
		args = append(args, *f.ColumnID)
	}
	if f.ExecutorID != nil {
		where = append(where, "t.executor_id = ?")
		args = append(args, *f.ExecutorID)
	}
	query := taskSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := s.query(ctx, s.db, query+" ORDER BY t.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, id int64, fn func(*domain.Task) error) (*domain.Task, error) {
	var out *domain.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := s.taskByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		if err := s.checkColumn(ctx, tx, t.DeskID, t.ColumnID); err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `UPDATE tasks SET name = ?, description = ?, start_date = ?, end_date = ?,
			file = ?, photo = ?, desk_id = ?, column_id = ?, creator_id = ?, executor_id = ? WHERE id = ?`,
			t.Name, t.Description, nullTime(t.StartDate), nullTime(t.EndDate), t.File, t.Photo,
			t.DeskID, t.ColumnID, nullID(t.CreatorID), nullID(t.ExecutorID), id)
		if err != nil {
			return mapWriteErr(err)
		}
		out, err = s.taskByID(ctx, tx, id)
		return err
	})
	return out, err
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "tasks", "task", id)
}
