package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"taskmanager-api/domain"
)

var logger = log.WithField("component", "auth")

var (
	// ErrInvalidCredentials is returned when login or password do not match.
	ErrInvalidCredentials = errors.New("invalid login or password")
	// ErrAuthentication signals that credentials could not be checked at all.
	ErrAuthentication = errors.New("authentication failed")
)

const basicPrefix = "basic "

// ExtractBasicCredentials decodes an Authorization header of the Basic
// scheme. Any malformed header yields two empty strings.
func ExtractBasicCredentials(header string) (string, string) {
	header = strings.TrimSpace(header)
	if len(header) <= len(basicPrefix) || !strings.EqualFold(header[:len(basicPrefix)], basicPrefix) {
		return "", ""
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(basicPrefix):]))
	if err != nil {
		logger.WithError(err).Debug("malformed basic credentials")
		return "", ""
	}
	login, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		logger.Debug("basic credentials without separator")
		return "", ""
	}
	return strings.TrimSpace(login), strings.TrimSpace(password)
}

// UserLookup is the part of the user store needed to log users in.
type UserLookup interface {
	UserByLogin(ctx context.Context, login string) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(hash, password string) VerificationResult
}

// Token is the body returned by the login endpoints.
type Token struct {
	AccessToken string    `json:"access_token"`
	Username    string    `json:"username"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service turns credentials into signed tokens.
type Service struct {
	users  UserLookup
	hasher PasswordVerifier
	issuer *Issuer
	now    func() time.Time
}

func NewService(users UserLookup, hasher PasswordVerifier, issuer *Issuer) *Service {
	return &Service{users: users, hasher: hasher, issuer: issuer, now: time.Now}
}

// Authenticate returns the user owning the credentials, or nil when they do
// not match. Store failures other than a missing user are reported as
// ErrAuthentication.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	if login == "" || password == "" {
		return nil, nil
	}
	u, err := s.users.UserByLogin(ctx, login)
	if errors.Is(err, domain.ErrNotFound) {
		logger.WithField("login", login).Info("login attempt for unknown user")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	if s.hasher.Verify(u.PasswordHash, password) != VerificationSuccess {
		logger.WithField("login", login).Info("password verification failed")
		return nil, nil
	}
	return u, nil
}

// BuildClaims records the login and returns the identity to sign.
func (s *Service) BuildClaims(ctx context.Context, u *domain.User) (Identity, error) {
	if err := s.users.TouchLastLogin(ctx, u.ID, s.now().UTC()); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return Identity{Name: u.Login, UserID: u.ID, Email: u.Email, Role: RoleOf(u.Status)}, nil
}

// Login authenticates the credentials and issues a token for them.
func (s *Service) Login(ctx context.Context, login, password string) (*Token, error) {
	u, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	id, err := s.BuildClaims(ctx, u)
	if err != nil {
		return nil, err
	}
	signed, exp, err := s.issuer.Issue(id)
	if err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{"user": u.ID, "role": id.Role}).Info("token issued")
	return &Token{
		AccessToken: signed,
		Username:    u.Login,
		ExpiresIn:   int64(s.issuer.TTL() / time.Second),
		ExpiresAt:   exp,
	}, nil
}

// RoleOf maps a user status to the role claim. Unknown statuses get the
// least privileged role.
func RoleOf(status domain.UserStatus) domain.UserStatus {
	if status.Valid() {
		return status
	}
	return domain.StatusUser
}

// HasRole reports whether the claims carry one of roles.
func HasRole(c *Claims, roles ...domain.UserStatus) bool {
	if c == nil || c.Role == "" {
		return false
	}
	for _, r := range roles {
		if domain.UserStatus(c.Role) == r {
			return true
		}
	}
	return false
}
