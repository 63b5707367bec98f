package domain

import (
	"context"
	"time"
)

// Column is an ordered stage of a desk. Order defines left-to-right position.
type Column struct {
	ID          int64  `json:"id"`
	DeskID      int64  `json:"deskId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// Desk is a Kanban board.
type Desk struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPrivate   bool      `json:"isPrivate"`
	Photo       []byte    `json:"photo,omitempty"`
	CreatedAt   time.Time `json:"createDateTime"`
	AdminID     *int64    `json:"adminId,omitempty"`
	AdminName   string    `json:"adminName,omitempty"`
	ProjectID   *int64    `json:"projectId,omitempty"`
	ProjectName string    `json:"projectName,omitempty"`
	Columns     []Column  `json:"columns"`
}

// DefaultColumns are attached to every new desk.
func DefaultColumns() []Column {
	return []Column{
		{Name: "To Do", Order: 1, Description: "Tasks that need to be done"},
		{Name: "In Progress", Order: 2, Description: "Tasks currently being worked on"},
		{Name: "Done", Order: 3, Description: "Completed tasks"},
	}
}

// DeskCreate carries the fields of a new desk.
type DeskCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
	AdminID     *int64 `json:"adminId"`
	ProjectID   *int64 `json:"projectId"`
	Photo       []byte `json:"photo,omitempty"`
}

// DeskUpdate is a partial update.
type DeskUpdate struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
	IsPrivate   Optional[bool]   `json:"isPrivate"`
	AdminID     Optional[int64]  `json:"adminId"`
	ProjectID   Optional[int64]  `json:"projectId"`
	Photo       Optional[[]byte] `json:"photo"`
}

// DeskStore persists desks and their columns.
type DeskStore interface {
	// CreateDesk inserts the desk and its Columns in one transaction.
	CreateDesk(ctx context.Context, d *Desk) error
	DeskByID(ctx context.Context, id int64) (*Desk, error)
	ListDesks(ctx context.Context) ([]Desk, error)
	UpdateDesk(ctx context.Context, id int64, fn func(*Desk) error) (*Desk, error)
	DeleteDesk(ctx context.Context, id int64) error
}
