package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/auth"
	"taskmanager-api/domain"
)

var errMissingCredentials = domain.Invalid("credentials", "login and password are required")

// basicLogin exchanges Basic credentials for a bearer token.
func (h *handlers) basicLogin(c echo.Context) error {
	login, password := auth.ExtractBasicCredentials(c.Request().Header.Get(echo.HeaderAuthorization))
	return h.login(c, login, password)
}

// jsonLogin exchanges a {"login","password"} body for a bearer token.
func (h *handlers) jsonLogin(c echo.Context) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	return h.login(c, req.Login, req.Password)
}

func (h *handlers) login(c echo.Context, login, password string) error {
	const op = "handlers.account.login"
	if login == "" || password == "" {
		metricsFrom(c).SetErrorStage("decode")
		return errMissingCredentials
	}
	logger := h.log.WithFields(log.Fields{"operation": op, "login": login})

	token, err := h.auth.Login(c.Request().Context(), login, password)
	if err != nil {
		metricsFrom(c).SetErrorStage("auth")
		logger.WithError(err).Info("login rejected")
		return err
	}
	return c.JSON(http.StatusOK, token)
}

func (h *handlers) accountInfo(c echo.Context) error {
	u, err := h.users.Get(c.Request().Context(), claimsFrom(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// accountUpdate lets callers edit their own profile. The status field is
// ignored so nobody can promote themselves.
func (h *handlers) accountUpdate(c echo.Context) error {
	const op = "handlers.account.update"
	var upd domain.UserUpdate
	if err := bindJSON(c, &upd); err != nil {
		return err
	}
	claims := claimsFrom(c)
	u, err := h.users.UpdateSelf(c.Request().Context(), claims.UserID, upd)
	if err != nil {
		return err
	}
	h.log.WithFields(log.Fields{"operation": op, "user": u.ID}).Info("account updated")
	return c.JSON(http.StatusOK, toUserResponse(u))
}
