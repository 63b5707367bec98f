package domain

import (
	"context"
	"time"
)

// UserStatus is both the account kind and the role carried in issued tokens.
type UserStatus string

const (
	StatusUser   UserStatus = "User"
	StatusEditor UserStatus = "Editor"
	StatusAdmin  UserStatus = "Admin"
)

// Valid reports whether s is one of the known statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusUser, StatusEditor, StatusAdmin:
		return true
	}
	return false
}

// User is an account able to log in. PasswordHash never leaves the process.
type User struct {
	ID               int64      `json:"id"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Login            string     `json:"login"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Phone            string     `json:"phone"`
	Status           UserStatus `json:"userStatus"`
	RegistrationDate time.Time  `json:"registrationDate"`
	LastLoginDate    time.Time  `json:"lastLoginDate"`
	Photo            []byte     `json:"photo,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserCreate carries the fields of a new user.
type UserCreate struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Login     string     `json:"login"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Phone     string     `json:"phone"`
	Photo     []byte     `json:"photo,omitempty"`
	Status    UserStatus `json:"userStatus"`
}

// UserUpdate is a partial update; unset fields keep their stored value.
type UserUpdate struct {
	FirstName Optional[string]     `json:"firstName"`
	LastName  Optional[string]     `json:"lastName"`
	Login     Optional[string]     `json:"login"`
	Email     Optional[string]     `json:"email"`
	Password  Optional[string]     `json:"password"`
	Phone     Optional[string]     `json:"phone"`
	Photo     Optional[[]byte]     `json:"photo"`
	Status    Optional[UserStatus] `json:"userStatus"`
}

// UserStore persists users.
type UserStore interface {
	// CreateUsers inserts all users in one transaction and assigns their IDs.
	CreateUsers(ctx context.Context, users []*User) error
	UserByID(ctx context.Context, id int64) (*User, error)
	UserByLogin(ctx context.Context, login string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	// UpdateUser loads the user, applies fn and saves the result in one transaction.
	UpdateUser(ctx context.Context, id int64, fn func(*User) error) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	HasAdmin(ctx context.Context) (bool, error)
}

// PasswordHasher turns a plaintext password into a one-way hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}
