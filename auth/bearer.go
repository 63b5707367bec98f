package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerToken extracts the token of a Bearer Authorization header. A missing
// header gives ErrMissingToken, anything not shaped like a JWT ErrInvalidToken.
func BearerToken(header http.Header) (string, error) {
	raw := strings.TrimSpace(header.Get("Authorization"))
	if raw == "" {
		return "", ErrMissingToken
	}
	if len(raw) <= len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(raw[len(bearerPrefix):])
	if strings.Count(token, ".") != 2 {
		return "", ErrInvalidToken
	}
	return token, nil
}
