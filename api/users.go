package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/domain"
)

func (h *handlers) createUser(c echo.Context) error {
	const op = "handlers.users.create"
	var in domain.UserCreate
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	u, err := h.users.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.log.WithFields(log.Fields{"operation": op, "user": u.ID}).Info("user created")
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// createUsers creates all users of the batch or none of them.
func (h *handlers) createUsers(c echo.Context) error {
	const op = "handlers.users.createBulk"
	var in []domain.UserCreate
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	users, err := h.users.CreateMany(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.log.WithFields(log.Fields{"operation": op, "count": len(users)}).Info("users created")
	return c.JSON(http.StatusCreated, toUserResponses(users))
}

func (h *handlers) listUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

func (h *handlers) getUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *handlers) updateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var upd domain.UserUpdate
	if err := bindJSON(c, &upd); err != nil {
		return err
	}
	u, err := h.users.Update(c.Request().Context(), id, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *handlers) deleteUser(c echo.Context) error {
	const op = "handlers.users.delete"
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	h.log.WithFields(log.Fields{"operation": op, "user": id}).Info("user deleted")
	return c.NoContent(http.StatusNoContent)
}
