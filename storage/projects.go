package storage

import (
	"context"
	"database/sql"
	"errors"

	"taskmanager-api/domain"
)

const projectSelect = `SELECT p.id, p.name, p.description, p.status, p.photo, p.created_at, p.admin_id, pa.user_id
	FROM projects p LEFT JOIN project_admins pa ON pa.id = p.admin_id`

func scanProject(row scanner) (*domain.Project, error) {
	var (
		p           domain.Project
		status      string
		adminID     sql.NullInt64
		adminUserID sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &status, &p.Photo, &p.CreatedAt, &adminID, &adminUserID); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.AdminID = idPtr(adminID)
	p.AdminUserID = idPtr(adminUserID)
	p.MemberIDs = []int64{}
	p.DeskIDs = []int64{}
	return &p, nil
}

// projectAdminFor returns the ProjectAdmin row of userID, creating it on first use.
func (s *Store) projectAdminFor(ctx context.Context, tx *sql.Tx, userID *int64) (*int64, error) {
	if userID == nil {
		return nil, nil
	}
	var id int64
	err := s.queryRow(ctx, tx, "SELECT id FROM project_admins WHERE user_id = ?", *userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id, err = s.insert(ctx, tx, "INSERT INTO project_admins (user_id) VALUES (?)", *userID)
		if err != nil {
			return nil, mapWriteErr(err)
		}
		return &id, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		adminID, err := s.projectAdminFor(ctx, tx, p.AdminUserID)
		if err != nil {
			return err
		}
		id, err := s.insert(ctx, tx, `INSERT INTO projects (name, description, status, photo, created_at, admin_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.Name, p.Description, string(p.Status), p.Photo, p.CreatedAt.UTC(), nullID(adminID))
		if err != nil {
			return mapWriteErr(err)
		}
		for _, uid := range p.MemberIDs {
			if _, err := s.exec(ctx, tx, "INSERT INTO project_users (project_id, user_id) VALUES (?, ?)", id, uid); err != nil {
				return mapWriteErr(err)
			}
		}
		p.ID = id
		p.AdminID = adminID
		if p.MemberIDs == nil {
			p.MemberIDs = []int64{}
		}
		p.DeskIDs = []int64{}
		return nil
	})
}

func (s *Store) ProjectByID(ctx context.Context, id int64) (*domain.Project, error) {
	return s.projectByID(ctx, s.db, id)
}

func (s *Store) projectByID(ctx context.Context, q querier, id int64) (*domain.Project, error) {
	p, err := scanProject(s.queryRow(ctx, q, projectSelect+" WHERE p.id = ?", id))
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	projects := []domain.Project{*p}
	if err := s.fillProjectRelations(ctx, q, projects); err != nil {
		return nil, err
	}
	return &projects[0], nil
}

func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.listProjects(ctx, projectSelect+" ORDER BY p.id")
}

func (s *Store) ProjectsByUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	return s.listProjects(ctx, projectSelect+
		" WHERE p.id IN (SELECT project_id FROM project_users WHERE user_id = ?) ORDER BY p.id", userID)
}

func (s *Store) listProjects(ctx context.Context, query string, args ...any) ([]domain.Project, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		projects = append(projects, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// rows must be closed first: sqlite runs on a single connection
	if err := s.fillProjectRelations(ctx, s.db, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// fillProjectRelations loads member and desk ids for the given projects.
func (s *Store) fillProjectRelations(ctx context.Context, q querier, projects []domain.Project) error {
	if len(projects) == 0 {
		return nil
	}
	index := make(map[int64]int, len(projects))
	for i := range projects {
		index[projects[i].ID] = i
	}
	collect := func(query string, add func(p *domain.Project, id int64)) error {
		rows, err := s.query(ctx, q, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var pid, id int64
			if err := rows.Scan(&pid, &id); err != nil {
				return err
			}
			if i, ok := index[pid]; ok {
				add(&projects[i], id)
			}
		}
		return rows.Err()
	}
	err := collect("SELECT project_id, user_id FROM project_users ORDER BY project_id, user_id",
		func(p *domain.Project, id int64) { p.MemberIDs = append(p.MemberIDs, id) })
	if err != nil {
		return err
	}
	return collect("SELECT project_id, id FROM desks WHERE project_id IS NOT NULL ORDER BY project_id, id",
		func(p *domain.Project, id int64) { p.DeskIDs = append(p.DeskIDs, id) })
}

func (s *Store) UpdateProject(ctx context.Context, id int64, fn func(*domain.Project) error) (*domain.Project, error) {
	var out *domain.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := s.projectByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		adminID, err := s.projectAdminFor(ctx, tx, p.AdminUserID)
		if err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `UPDATE projects SET name = ?, description = ?, status = ?, photo = ?, admin_id = ?
			WHERE id = ?`, p.Name, p.Description, string(p.Status), p.Photo, nullID(adminID), id)
		if err != nil {
			return mapWriteErr(err)
		}
		p.AdminID = adminID
		out = p
		return nil
	})
	return out, err
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "projects", "project", id)
}

func (s *Store) exists(ctx context.Context, q querier, table string, id int64) (bool, error) {
	var n int
	err := s.queryRow(ctx, q, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

func (s *Store) requireProjectAndUser(ctx context.Context, tx *sql.Tx, projectID, userID int64) error {
	ok, err := s.exists(ctx, tx, "projects", projectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("project", projectID)
	}
	ok, err = s.exists(ctx, tx, "users", userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("user", userID)
	}
	return nil
}

func (s *Store) AddProjectMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var added bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireProjectAndUser(ctx, tx, projectID, userID); err != nil {
			return err
		}
		res, err := s.exec(ctx, tx, `INSERT INTO project_users (project_id, user_id) VALUES (?, ?)
			ON CONFLICT (project_id, user_id) DO NOTHING`, projectID, userID)
		if err != nil {
			return mapWriteErr(err)
		}
		n, err := res.RowsAffected()
		added = n > 0
		return err
	})
	return added, err
}

func (s *Store) RemoveProjectMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var removed bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireProjectAndUser(ctx, tx, projectID, userID); err != nil {
			return err
		}
		res, err := s.exec(ctx, tx, "DELETE FROM project_users WHERE project_id = ? AND user_id = ?", projectID, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		removed = n > 0
		return err
	})
	return removed, err
}
