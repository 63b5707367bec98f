package domain

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// UserService manages user accounts.
type UserService struct {
	st     UserStore
	hasher PasswordHasher
	now    func() time.Time
}

func NewUserService(st UserStore, hasher PasswordHasher) *UserService {
	return &UserService{st: st, hasher: hasher, now: time.Now}
}

// Create validates and stores a single user.
func (s *UserService) Create(ctx context.Context, in UserCreate) (*User, error) {
	users, err := s.CreateMany(ctx, []UserCreate{in})
	if err != nil {
		return nil, err
	}
	return &users[0], nil
}

// CreateMany stores all users or none of them.
func (s *UserService) CreateMany(ctx context.Context, in []UserCreate) ([]User, error) {
	if len(in) == 0 {
		return nil, Invalid("users", "at least one user is required")
	}
	now := s.now().UTC()
	users := make([]*User, 0, len(in))
	for i := range in {
		u, err := s.newUser(in[i], now)
		if err != nil {
			if len(in) > 1 {
				return nil, fmt.Errorf("user %d: %w", i, err)
			}
			return nil, err
		}
		users = append(users, u)
	}
	if err := s.st.CreateUsers(ctx, users); err != nil {
		return nil, err
	}
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = *u
		log.WithFields(log.Fields{"user": u.ID, "login": u.Login}).Info("user created")
	}
	return out, nil
}

func (s *UserService) newUser(in UserCreate, now time.Time) (*User, error) {
	if err := requireText("firstName", in.FirstName, maxNameLen); err != nil {
		return nil, err
	}
	if err := requireText("lastName", in.LastName, maxNameLen); err != nil {
		return nil, err
	}
	if err := requireText("login", in.Login, maxNameLen); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := limitText("phone", in.Phone, maxNameLen); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = StatusUser
	}
	if !status.Valid() {
		return nil, Invalid("userStatus", "unknown status")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &User{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Login:            in.Login,
		Email:            in.Email,
		PasswordHash:     hash,
		Phone:            in.Phone,
		Status:           status,
		RegistrationDate: now,
		LastLoginDate:    now,
		Photo:            in.Photo,
	}, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*User, error) {
	return s.st.UserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]User, error) {
	return s.st.ListUsers(ctx)
}

// Update applies the set fields of upd. A new password is hashed before the
// transaction starts.
func (s *UserService) Update(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	if err := validateUserUpdate(upd); err != nil {
		return nil, err
	}
	var hash string
	if pw, ok := upd.Password.Get(); ok {
		h, err := s.hasher.Hash(pw)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}
	u, err := s.st.UpdateUser(ctx, id, func(u *User) error {
		upd.FirstName.ApplyTo(&u.FirstName)
		upd.LastName.ApplyTo(&u.LastName)
		upd.Login.ApplyTo(&u.Login)
		upd.Email.ApplyTo(&u.Email)
		upd.Phone.ApplyTo(&u.Phone)
		upd.Photo.ApplyTo(&u.Photo)
		upd.Status.ApplyTo(&u.Status)
		if hash != "" {
			u.PasswordHash = hash
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithField("user", id).Info("user updated")
	return u, nil
}

// UpdateSelf is Update for the account owner, who may not change its own status.
func (s *UserService) UpdateSelf(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	upd.Status = Optional[UserStatus]{}
	return s.Update(ctx, id, upd)
}

func validateUserUpdate(upd UserUpdate) error {
	if v, ok := upd.FirstName.Get(); ok {
		if err := requireText("firstName", v, maxNameLen); err != nil {
			return err
		}
	}
	if v, ok := upd.LastName.Get(); ok {
		if err := requireText("lastName", v, maxNameLen); err != nil {
			return err
		}
	}
	if v, ok := upd.Login.Get(); ok {
		if err := requireText("login", v, maxNameLen); err != nil {
			return err
		}
	}
	if v, ok := upd.Email.Get(); ok {
		if err := validateEmail(v); err != nil {
			return err
		}
	}
	if v, ok := upd.Password.Get(); ok {
		if err := validatePassword(v); err != nil {
			return err
		}
	}
	if v, ok := upd.Phone.Get(); ok {
		if err := limitText("phone", v, maxNameLen); err != nil {
			return err
		}
	}
	if v, ok := upd.Status.Get(); ok && !v.Valid() {
		return Invalid("userStatus", "unknown status")
	}
	return nil
}

// Delete removes the user. The store rejects it with ErrReferenced while
// tasks or desks still point at the user.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.st.DeleteUser(ctx, id); err != nil {
		return err
	}
	log.WithField("user", id).Info("user deleted")
	return nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet.
func (s *UserService) EnsureAdmin(ctx context.Context, in UserCreate) (bool, error) {
	ok, err := s.st.HasAdmin(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	in.Status = StatusAdmin
	if _, err := s.Create(ctx, in); err != nil {
		return false, err
	}
	return true, nil
}
