package ledger

type CreateLedgerRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	Year        int    `json:"year" binding:"required,min=2000,max=9999"`
	TotalQuota  *int   `json:"total_quota" binding:"omitempty,min=0"`
}

type UpdateQuotaRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	Year        int    `json:"year" binding:"omitempty,min=2000,max=9999"`
	TotalQuota  int    `json:"total_quota" binding:"min=0"`
}

type AdjustQuotaRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	Year        int    `json:"year" binding:"omitempty,min=2000,max=9999"`
	Delta       int    `json:"delta" binding:"required"`
}

type LedgerResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	LeaveTypeID   string `json:"leave_type_id"`
	LeaveTypeName string `json:"leave_type_name,omitempty"`
	Year          int    `json:"year"`
	TotalQuota    int    `json:"total_quota"`
	UsedDays      int    `json:"used_days"`
	RemainingDays int    `json:"remaining_days"`
}

type OnboardResult struct {
	UserID  string           `json:"user_id"`
	Year    int              `json:"year"`
	Created []LedgerResponse `json:"created"`
	Skipped int              `json:"skipped"`
}

type RolloverResult struct {
	Year    int `json:"year"`
	Users   int `json:"users"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
