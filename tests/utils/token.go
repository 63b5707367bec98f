// Package testutil holds helpers shared by the developer tools under cmd/.
package testutil

import (
	"errors"
	"os"
	"time"

	"taskmanager-api/auth"
	"taskmanager-api/domain"
)

// TestToken signs a bearer token for the given identity with the key from
// TASKMANAGER_JWT_KEY. Issuer and audience follow the service defaults
// unless TASKMANAGER_JWT_ISSUER or TASKMANAGER_JWT_AUDIENCE are set.
func TestToken(login string, userID int64, role domain.UserStatus) (string, error) {
	secret := os.Getenv("TASKMANAGER_JWT_KEY")
	if secret == "" {
		return "", errors.New("TASKMANAGER_JWT_KEY must be set")
	}
	if !role.Valid() {
		return "", errors.New("role must be Admin, Editor or User")
	}
	issuer := auth.NewIssuer([]byte(secret), envOr("TASKMANAGER_JWT_ISSUER", "taskmanager-api"),
		envOr("TASKMANAGER_JWT_AUDIENCE", "taskmanager-clients"), time.Hour)
	token, _, err := issuer.Issue(auth.Identity{Name: login, UserID: userID, Role: role})
	return token, err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
