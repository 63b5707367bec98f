package domain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestUserService(st *fakeStore) *UserService {
	s := NewUserService(st, plainHasher{})
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func validUser(login string) UserCreate {
	return UserCreate{
		FirstName: "Ann",
		LastName:  "Lee",
		Login:     login,
		Email:     login + "@example.com",
		Password:  "secret",
	}
}

func TestUserCreateDefaults(t *testing.T) {
	st := newFakeStore()
	s := newTestUserService(st)

	u, err := s.Create(context.Background(), validUser("ann"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}
	if u.Status != StatusUser {
		t.Fatalf("expected default status User, got %q", u.Status)
	}
	if u.PasswordHash != "hashed:SECRET" {
		t.Fatalf("password not hashed: %q", u.PasswordHash)
	}
	if !u.RegistrationDate.Equal(s.now()) || !u.LastLoginDate.Equal(s.now()) {
		t.Fatalf("unexpected dates %v %v", u.RegistrationDate, u.LastLoginDate)
	}
}

func TestUserCreateValidation(t *testing.T) {
	s := newTestUserService(newFakeStore())
	cases := map[string]func(*UserCreate){
		"missing first name": func(u *UserCreate) { u.FirstName = " " },
		"bad email":          func(u *UserCreate) { u.Email = "nope" },
		"short password":     func(u *UserCreate) { u.Password = "ab" },
		"unknown status":     func(u *UserCreate) { u.Status = "Owner" },
	}
	for name, mutate := range cases {
		in := validUser("bob")
		mutate(&in)
		if _, err := s.Create(context.Background(), in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestUserCreateManyIsAtomic(t *testing.T) {
	st := newFakeStore()
	s := newTestUserService(st)

	bad := validUser("c")
	bad.Email = "broken"
	_, err := s.CreateMany(context.Background(), []UserCreate{validUser("a"), validUser("b"), bad})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(st.users) != 0 {
		t.Fatalf("expected no users stored, got %d", len(st.users))
	}

	users, err := s.CreateMany(context.Background(), []UserCreate{validUser("a"), validUser("b")})
	if err != nil {
		t.Fatalf("create many: %v", err)
	}
	if len(users) != 2 || users[0].ID == users[1].ID {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestUserCreateDuplicateLogin(t *testing.T) {
	s := newTestUserService(newFakeStore())
	if _, err := s.Create(context.Background(), validUser("ann")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(context.Background(), validUser("ann")); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserUpdatePartial(t *testing.T) {
	st := newFakeStore()
	s := newTestUserService(st)
	u, _ := s.Create(context.Background(), validUser("ann"))

	got, err := s.Update(context.Background(), u.ID, UserUpdate{FirstName: Some("Anna")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FirstName != "Anna" || got.LastName != "Lee" || got.Email != "ann@example.com" {
		t.Fatalf("unexpected user %+v", got)
	}
	if got.PasswordHash != u.PasswordHash {
		t.Fatalf("password hash changed without a new password")
	}

	got, err = s.Update(context.Background(), u.ID, UserUpdate{Password: Some("another")})
	if err != nil {
		t.Fatalf("update password: %v", err)
	}
	if got.PasswordHash != "hashed:ANOTHER" {
		t.Fatalf("password not rehashed: %q", got.PasswordHash)
	}
}

func TestUserUpdateSelfKeepsStatus(t *testing.T) {
	st := newFakeStore()
	s := newTestUserService(st)
	u, _ := s.Create(context.Background(), validUser("ann"))

	got, err := s.UpdateSelf(context.Background(), u.ID, UserUpdate{Status: Some(StatusAdmin), Phone: Some("555")})
	if err != nil {
		t.Fatalf("update self: %v", err)
	}
	if got.Status != StatusUser {
		t.Fatalf("status must not change, got %q", got.Status)
	}
	if got.Phone != "555" {
		t.Fatalf("phone not applied")
	}
}

func TestUserUpdateMissing(t *testing.T) {
	s := newTestUserService(newFakeStore())
	_, err := s.Update(context.Background(), 42, UserUpdate{FirstName: Some("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "user with ID 42 not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestEnsureAdmin(t *testing.T) {
	st := newFakeStore()
	s := newTestUserService(st)

	created, err := s.EnsureAdmin(context.Background(), validUser("Admin"))
	if err != nil || !created {
		t.Fatalf("expected admin created, got %v %v", created, err)
	}
	created, err = s.EnsureAdmin(context.Background(), validUser("Other"))
	if err != nil || created {
		t.Fatalf("expected no second admin, got %v %v", created, err)
	}
	u, _ := st.UserByLogin(context.Background(), "Admin")
	if u.Status != StatusAdmin {
		t.Fatalf("bootstrap user is %q", u.Status)
	}
}
