package events

import "time"

const (
	EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"
	EmployeeCreated        = "employee_created"
)

// EmployeeCreatedEvent is published by the HR system when a user joins.
// Year is optional; consumers fall back to the year of OccurredAt.
type EmployeeCreatedEvent struct {
	EventType  string    `json:"event_type"`
	UserID     string    `json:"user_id"`
	Year       int       `json:"year,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
