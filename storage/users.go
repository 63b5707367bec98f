package storage

import (
	"context"
	"database/sql"
	"time"

	"taskmanager-api/domain"
)

const userColumns = `id, first_name, last_name, login, email, password_hash, phone, status,
	registration_date, last_login_date, photo`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u      domain.User
		status string
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Login, &u.Email, &u.PasswordHash,
		&u.Phone, &status, &u.RegistrationDate, &u.LastLoginDate, &u.Photo)
	if err != nil {
		return nil, err
	}
	u.Status = domain.UserStatus(status)
	u.RegistrationDate = u.RegistrationDate.UTC()
	u.LastLoginDate = u.LastLoginDate.UTC()
	return &u, nil
}

func (s *Store) CreateUsers(ctx context.Context, users []*domain.User) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, u := range users {
			id, err := s.insert(ctx, tx, `INSERT INTO users (first_name, last_name, login, email,
				password_hash, phone, status, registration_date, last_login_date, photo)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				u.FirstName, u.LastName, u.Login, u.Email, u.PasswordHash, u.Phone, string(u.Status),
				u.RegistrationDate.UTC(), u.LastLoginDate.UTC(), u.Photo)
			if err != nil {
				return mapWriteErr(err)
			}
			u.ID = id
		}
		return nil
	})
}

func (s *Store) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.userByID(ctx, s.db, id)
}

func (s *Store) userByID(ctx context.Context, q querier, id int64) (*domain.User, error) {
	u, err := scanUser(s.queryRow(ctx, q, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

func (s *Store) UserByLogin(ctx context.Context, login string) (*domain.User, error) {
	u, err := scanUser(s.queryRow(ctx, s.db, "SELECT "+userColumns+" FROM users WHERE login = ?", login))
	if err != nil {
		return nil, notFound(err, "user", login)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.query(ctx, s.db, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, id int64, fn func(*domain.User) error) (*domain.User, error) {
	var out *domain.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := s.userByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `UPDATE users SET first_name = ?, last_name = ?, login = ?, email = ?,
			password_hash = ?, phone = ?, status = ?, photo = ? WHERE id = ?`,
			u.FirstName, u.LastName, u.Login, u.Email, u.PasswordHash, u.Phone, string(u.Status), u.Photo, id)
		if err != nil {
			return mapWriteErr(err)
		}
		out = u
		return nil
	})
	return out, err
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", "user", id)
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.exec(ctx, s.db, "UPDATE users SET last_login_date = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "user", id)
}

func (s *Store) HasAdmin(ctx context.Context) (bool, error) {
	var n int
	err := s.queryRow(ctx, s.db, "SELECT COUNT(*) FROM users WHERE status = ?", string(domain.StatusAdmin)).Scan(&n)
	return n > 0, err
}
