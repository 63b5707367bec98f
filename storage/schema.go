package storage

import (
	"context"
	"fmt"
	"strings"
)

// Tables are created in dependency order. Placeholders in braces are
// replaced with the column types of the active driver.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {pk},
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		login TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		registration_date {time} NOT NULL,
		last_login_date {time} NOT NULL,
		photo {blob}
	)`,
	`CREATE TABLE IF NOT EXISTS project_admins (
		id {pk},
		user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id {pk},
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		photo {blob},
		created_at {time} NOT NULL,
		admin_id BIGINT REFERENCES project_admins(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_users (
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (project_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS desks (
		id {pk},
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_private BOOLEAN NOT NULL DEFAULT FALSE,
		photo {blob},
		created_at {time} NOT NULL,
		admin_id BIGINT REFERENCES users(id) ON DELETE RESTRICT,
		project_id BIGINT REFERENCES projects(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS columns (
		id {pk},
		desk_id BIGINT NOT NULL REFERENCES desks(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id {pk},
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date {time},
		end_date {time},
		created_at {time} NOT NULL,
		file {blob},
		photo {blob},
		desk_id BIGINT NOT NULL REFERENCES desks(id) ON DELETE RESTRICT,
		column_id BIGINT NOT NULL REFERENCES columns(id) ON DELETE RESTRICT,
		creator_id BIGINT REFERENCES users(id) ON DELETE RESTRICT,
		executor_id BIGINT REFERENCES users(id) ON DELETE RESTRICT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_columns_desk ON columns(desk_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_desk ON tasks(desk_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_executor ON tasks(executor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_project_users_user ON project_users(user_id)`,
}

var columnTypes = map[string]*strings.Replacer{
	DriverSQLite: strings.NewReplacer(
		"{pk}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{time}", "DATETIME",
		"{blob}", "BLOB",
	),
	DriverPostgres: strings.NewReplacer(
		"{pk}", "BIGSERIAL PRIMARY KEY",
		"{time}", "TIMESTAMPTZ",
		"{blob}", "BYTEA",
	),
}

func (s *Store) migrate(ctx context.Context) error {
	r := columnTypes[s.driver]
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
