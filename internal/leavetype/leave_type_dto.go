package leavetype

type LeaveTypeResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type SeedResult struct {
	Created []LeaveTypeResponse `json:"created"`
	Skipped []string            `json:"skipped"`
}
