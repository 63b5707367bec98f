package storage

import (
	"context"
	"database/sql"

	"taskmanager-api/domain"
)

const deskSelect = `SELECT d.id, d.name, d.description, d.is_private, d.photo, d.created_at,
	d.admin_id, u.first_name, u.last_name, d.project_id, p.name
	FROM desks d
	LEFT JOIN users u ON u.id = d.admin_id
	LEFT JOIN projects p ON p.id = d.project_id`

func scanDesk(row scanner) (*domain.Desk, error) {
	var (
		d                     domain.Desk
		adminID, projectID    sql.NullInt64
		adminFirst, adminLast sql.NullString
		projectName           sql.NullString
	)
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.IsPrivate, &d.Photo, &d.CreatedAt,
		&adminID, &adminFirst, &adminLast, &projectID, &projectName)
	if err != nil {
		return nil, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.AdminID = idPtr(adminID)
	d.AdminName = fullName(adminFirst, adminLast)
	d.ProjectID = idPtr(projectID)
	d.ProjectName = projectName.String
	d.Columns = []domain.Column{}
	return &d, nil
}

func (s *Store) CreateDesk(ctx context.Context, d *domain.Desk) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := s.insert(ctx, tx, `INSERT INTO desks (name, description, is_private, photo, created_at, admin_id, project_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.Name, d.Description, d.IsPrivate, d.Photo, d.CreatedAt.UTC(), nullID(d.AdminID), nullID(d.ProjectID))
		if err != nil {
			return mapWriteErr(err)
		}
		for i := range d.Columns {
			c := &d.Columns[i]
			cid, err := s.insert(ctx, tx, "INSERT INTO columns (desk_id, name, description, position) VALUES (?, ?, ?, ?)",
				id, c.Name, c.Description, c.Order)
			if err != nil {
				return mapWriteErr(err)
			}
			c.ID = cid
			c.DeskID = id
		}
		created, err := s.deskByID(ctx, tx, id)
		if err != nil {
			return err
		}
		*d = *created
		return nil
	})
}

func (s *Store) DeskByID(ctx context.Context, id int64) (*domain.Desk, error) {
	return s.deskByID(ctx, s.db, id)
}

func (s *Store) deskByID(ctx context.Context, q querier, id int64) (*domain.Desk, error) {
	d, err := scanDesk(s.queryRow(ctx, q, deskSelect+" WHERE d.id = ?", id))
	if err != nil {
		return nil, notFound(err, "desk", id)
	}
	desks := []domain.Desk{*d}
	if err := s.fillColumns(ctx, q, desks, "SELECT id, desk_id, name, description, position FROM columns WHERE desk_id = ? ORDER BY position, id", id); err != nil {
		return nil, err
	}
	return &desks[0], nil
}

func (s *Store) ListDesks(ctx context.Context) ([]domain.Desk, error) {
	rows, err := s.query(ctx, s.db, deskSelect+" ORDER BY d.id")
	if err != nil {
		return nil, err
	}
	desks := []domain.Desk{}
	for rows.Next() {
		d, err := scanDesk(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		desks = append(desks, *d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.fillColumns(ctx, s.db, desks, "SELECT id, desk_id, name, description, position FROM columns ORDER BY desk_id, position, id"); err != nil {
		return nil, err
	}
	return desks, nil
}

func (s *Store) fillColumns(ctx context.Context, q querier, desks []domain.Desk, query string, args ...any) error {
	index := make(map[int64]int, len(desks))
	for i := range desks {
		index[desks[i].ID] = i
	}
	rows, err := s.query(ctx, q, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.ID, &c.DeskID, &c.Name, &c.Description, &c.Order); err != nil {
			return err
		}
		if i, ok := index[c.DeskID]; ok {
			desks[i].Columns = append(desks[i].Columns, c)
		}
	}
	return rows.Err()
}

func (s *Store) UpdateDesk(ctx context.Context, id int64, fn func(*domain.Desk) error) (*domain.Desk, error) {
	var out *domain.Desk
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		d, err := s.deskByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `UPDATE desks SET name = ?, description = ?, is_private = ?, photo = ?,
			admin_id = ?, project_id = ? WHERE id = ?`,
			d.Name, d.Description, d.IsPrivate, d.Photo, nullID(d.AdminID), nullID(d.ProjectID), id)
		if err != nil {
			return mapWriteErr(err)
		}
		out, err = s.deskByID(ctx, tx, id)
		return err
	})
	return out, err
}

// DeleteDesk removes the desk together with its columns. Tasks still on the
// desk make it fail with domain.ErrReferenced.
func (s *Store) DeleteDesk(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "desks", "desk", id)
}
