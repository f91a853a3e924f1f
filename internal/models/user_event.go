package models

// User event operations.
const (
	UserCreated = "created"
	UserUpdated = "updated"
	UserDeleted = "deleted"
)

// UserEvent describes a change applied to the "User" table.
type UserEvent struct {
	EventID   string `json:"event_id"`  // EventID is a unique identifier of the event.
	Timestamp int64  `json:"timestamp"` // Timestamp is the Unix time (seconds) the change was applied.
	Operation string `json:"operation"` // Operation is one of created, updated, deleted.
	UserID    string `json:"user_id"`   // UserID is the affected row id.
	Name      string `json:"name"`      // Name is the row name after the change, empty on delete.
}
