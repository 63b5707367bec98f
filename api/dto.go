package api

import (
	"bytes"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"

	"taskmanager-api/domain"
)

type userResponse struct {
	domain.User
	FullName string `json:"fullName"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{User: *u, FullName: u.FullName()}
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type statusResponse struct {
	Status string `json:"status"`
}

var errMissingBody = domain.Invalid("body", "is required")

// bindJSON decodes the JSON request body into dst regardless of the declared
// content type. An empty or null body is rejected. Path and query parameters
// are never bound into request bodies.
func bindJSON(c echo.Context, dst any) error {
	req := c.Request()
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		metricsFrom(c).SetErrorStage("decode")
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		metricsFrom(c).SetErrorStage("decode")
		return errMissingBody
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))
	if err := c.Echo().JSONSerializer.Deserialize(c, dst); err != nil {
		metricsFrom(c).SetErrorStage("decode")
		return err
	}
	return nil
}

func pathID(c echo.Context, name string) (int64, error) {
	return parseID(name, c.Param(name))
}

func queryID(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, domain.Invalid(name, "is required")
	}
	return parseID(name, raw)
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// emptyIfNil keeps list responses as JSON arrays.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
