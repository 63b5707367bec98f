package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/domain"
)

func (h *handlers) createProject(c echo.Context) error {
	var in domain.ProjectCreate
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	p, err := h.projects.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *handlers) listProjects(c echo.Context) error {
	projects, err := h.projects.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyIfNil(projects))
}

func (h *handlers) listUserProjects(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	projects, err := h.projects.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyIfNil(projects))
}

func (h *handlers) getProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *handlers) updateProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var upd domain.ProjectUpdate
	if err := bindJSON(c, &upd); err != nil {
		return err
	}
	p, err := h.projects.Update(c.Request().Context(), id, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *handlers) deleteProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// addProjectUser is idempotent: adding an existing member succeeds.
func (h *handlers) addProjectUser(c echo.Context) error {
	return h.changeMembership(c, "handlers.projects.addUser", h.projects.AddUser)
}

// removeProjectUser is idempotent: removing a non-member succeeds.
func (h *handlers) removeProjectUser(c echo.Context) error {
	return h.changeMembership(c, "handlers.projects.removeUser", h.projects.RemoveUser)
}

func (h *handlers) changeMembership(c echo.Context, op string, change func(ctx context.Context, projectID, userID int64) error) error {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := change(ctx, projectID, userID); err != nil {
		return err
	}
	p, err := h.projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	h.log.WithFields(log.Fields{"operation": op, "project": projectID, "user": userID}).Debug("membership changed")
	return c.JSON(http.StatusOK, p)
}
