package domain

import "time"

const (
	TaskCreated          = "task.created"
	TaskUpdated          = "task.updated"
	TaskMoved            = "task.moved"
	TaskAssigned         = "task.assigned"
	TaskDeleted          = "task.deleted"
	DeskCreated          = "desk.created"
	DeskDeleted          = "desk.deleted"
	ProjectMemberAdded   = "project.member_added"
	ProjectMemberRemoved = "project.member_removed"
)

// Event describes a committed change. Data holds event specific fields.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	EntityType string         `json:"entityType"`
	EntityID   int64          `json:"entityId"`
	Data       map[string]any `json:"data,omitempty"`
	Time       time.Time      `json:"time"`
}

// Publisher delivers events after the change has been committed. Publish
// must not block the caller on the delivery itself.
type Publisher interface {
	Publish(ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
