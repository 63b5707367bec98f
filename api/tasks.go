package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/domain"
)

// createTask records the caller as creator unless the body names one.
func (h *handlers) createTask(c echo.Context) error {
	const op = "handlers.tasks.create"
	var in domain.TaskCreate
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if in.CreatorID == nil {
		uid := claimsFrom(c).UserID
		in.CreatorID = &uid
	}
	t, err := h.tasks.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.log.WithFields(log.Fields{"operation": op, "task": t.ID}).Debug("task created")
	return c.JSON(http.StatusCreated, t)
}

func (h *handlers) listTasks(c echo.Context) error {
	return h.respondTasks(c, domain.TaskFilter{})
}

func (h *handlers) myTasks(c echo.Context) error {
	tasks, err := h.tasks.ListMine(c.Request().Context(), viewerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyIfNil(tasks))
}

func (h *handlers) listDeskTasks(c echo.Context) error {
	id, err := pathID(c, "deskId")
	if err != nil {
		return err
	}
	return h.respondTasks(c, domain.TaskFilter{DeskID: &id})
}

func (h *handlers) listColumnTasks(c echo.Context) error {
	id, err := pathID(c, "columnId")
	if err != nil {
		return err
	}
	return h.respondTasks(c, domain.TaskFilter{ColumnID: &id})
}

// respondTasks lists the tasks matching f that the caller may see.
func (h *handlers) respondTasks(c echo.Context, f domain.TaskFilter) error {
	tasks, err := h.tasks.List(c.Request().Context(), viewerFrom(c), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emptyIfNil(tasks))
}

func (h *handlers) getTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	t, err := h.tasks.Get(c.Request().Context(), viewerFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// updateTask applies the fields present in the body and leaves the rest.
func (h *handlers) updateTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var upd domain.TaskUpdate
	if err := bindJSON(c, &upd); err != nil {
		return err
	}
	t, err := h.tasks.Update(c.Request().Context(), viewerFrom(c), id, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) moveTask(c echo.Context) error {
	const op = "handlers.tasks.move"
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	columnID, err := queryID(c, "newColumnId")
	if err != nil {
		return err
	}
	t, err := h.tasks.Move(c.Request().Context(), viewerFrom(c), id, columnID)
	if err != nil {
		return err
	}
	h.log.WithFields(log.Fields{"operation": op, "task": id, "column": columnID}).Debug("task moved")
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) assignTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	executorID, err := queryID(c, "executorId")
	if err != nil {
		return err
	}
	t, err := h.tasks.Assign(c.Request().Context(), viewerFrom(c), id, executorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) deleteTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.Request().Context(), viewerFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
