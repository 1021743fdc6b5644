package leave

type ApplyLeaveRequest struct {
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

type RejectLeaveRequest struct {
	RejectionReason *string `json:"rejection_reason"`
}

// ListQuery carries the list filters; Status "" or "all" keeps every status.
type ListQuery struct {
	Status   string
	Sort     string
	Page     int
	PageSize int
}

type ApplyLeaveResponse struct {
	LeaveID   string `json:"leave_id"`
	TotalDays int    `json:"total_days"`
	Status    string `json:"status"`
}

type LeaveResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	LeaveTypeID     string  `json:"leave_type_id"`
	LeaveType       string  `json:"leave_type,omitempty"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       int     `json:"total_days"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	AppliedAt       string  `json:"applied_at"`
	ProcessedAt     *string `json:"processed_at,omitempty"`
	ProcessedBy     *string `json:"processed_by,omitempty"`
}
