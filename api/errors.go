package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/auth"
	"taskmanager-api/domain"
)

var errRoleRequired = errors.New("insufficient role")

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps an error to the response status and the message shown to
// the client. Internal errors get a generic message.
func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidReference):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, errRoleRequired):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrReferenced):
		return http.StatusConflict, err.Error()
	case errors.As(err, &httpErr):
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondError writes err as a JSON error body.
func respondError(c echo.Context, logger *log.Logger, err error) error {
	status, msg := statusFor(err)
	if status == http.StatusUnauthorized && !errors.Is(err, auth.ErrInvalidCredentials) {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	if status >= http.StatusInternalServerError {
		logger.WithFields(log.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).WithError(err).Error("request failed")
	}
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, errorBody{Error: msg})
}

func newErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if werr := respondError(c, logger, err); werr != nil {
			logger.WithError(werr).Warn("write error response")
		}
	}
}
