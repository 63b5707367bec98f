package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskmanager-api/domain"
)

func (h *handlers) createDesk(c echo.Context) error {
	var in domain.DeskCreate
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	d, err := h.desks.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *handlers) listDesks(c echo.Context) error {
	desks, err := h.desks.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyIfNil(desks))
}

func (h *handlers) getDesk(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.desks.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *handlers) updateDesk(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var upd domain.DeskUpdate
	if err := bindJSON(c, &upd); err != nil {
		return err
	}
	d, err := h.desks.Update(c.Request().Context(), id, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// deleteDesk removes the desk and its columns. Desks that still hold tasks
// are kept and reported as a conflict.
func (h *handlers) deleteDesk(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.desks.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
