package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveApplied  = "leave_applied"
	LeaveApproved = "leave_approved"
	LeaveRejected = "leave_rejected"
)

type LeaveLifecycleEvent struct {
	EventType       string    `json:"event_type"`
	LeaveID         string    `json:"leave_id"`
	UserID          string    `json:"user_id"`
	LeaveTypeID     string    `json:"leave_type_id"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	TotalDays       int       `json:"total_days"`
	Status          string    `json:"status"`
	ProcessedBy     string    `json:"processed_by,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
