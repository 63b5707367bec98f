package domain

import (
	"context"
	"time"
)

// ProjectStatus tracks the lifecycle of a project.
type ProjectStatus string

const (
	ProjectInProgress ProjectStatus = "InProgress"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectSuspended  ProjectStatus = "Suspended"
	ProjectCancelled  ProjectStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectInProgress, ProjectCompleted, ProjectSuspended, ProjectCancelled:
		return true
	}
	return false
}

// ProjectAdmin grants a user administrative rights over projects. A user has
// at most one ProjectAdmin row, shared by every project it administers.
type ProjectAdmin struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"userId"`
}

// Project groups desks and member users. Relationships are exposed as ids.
type Project struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"projectStatus"`
	Photo       []byte        `json:"photo,omitempty"`
	CreatedAt   time.Time     `json:"createDateTime"`
	AdminID     *int64        `json:"adminId,omitempty"`
	AdminUserID *int64        `json:"adminUserId,omitempty"`
	MemberIDs   []int64       `json:"userIds"`
	DeskIDs     []int64       `json:"deskIds"`
}

// ProjectCreate carries the fields of a new project. AdminID is a user id.
type ProjectCreate struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Photo       []byte        `json:"photo,omitempty"`
	Status      ProjectStatus `json:"projectStatus"`
	AdminID     *int64        `json:"adminId"`
	UserIDs     []int64       `json:"userIds"`
}

// ProjectUpdate is a partial update. AdminID is a user id.
type ProjectUpdate struct {
	Name        Optional[string]        `json:"name"`
	Description Optional[string]        `json:"description"`
	Photo       Optional[[]byte]        `json:"photo"`
	Status      Optional[ProjectStatus] `json:"projectStatus"`
	AdminID     Optional[int64]         `json:"adminId"`
}

// ProjectStore persists projects and their membership.
type ProjectStore interface {
	// CreateProject inserts the project, resolves AdminUserID to a
	// ProjectAdmin row and records the initial members, atomically.
	CreateProject(ctx context.Context, p *Project) error
	ProjectByID(ctx context.Context, id int64) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	ProjectsByUser(ctx context.Context, userID int64) ([]Project, error)
	UpdateProject(ctx context.Context, id int64, fn func(*Project) error) (*Project, error)
	DeleteProject(ctx context.Context, id int64) error
	// AddProjectMember reports whether a membership row was inserted.
	AddProjectMember(ctx context.Context, projectID, userID int64) (bool, error)
	// RemoveProjectMember reports whether a membership row was deleted.
	RemoveProjectMember(ctx context.Context, projectID, userID int64) (bool, error)
}
