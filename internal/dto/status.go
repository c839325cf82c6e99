package dto

// ── 上报状态 DTO ──

// StatusQuery 单日状态查询参数，date 为空取今天
type StatusQuery struct {
	Date string `form:"date"`
}

// HistoryQuery 历史区间查询参数
type HistoryQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to"   binding:"required"`
}

// ShiftStateResponse 单个班次的状态
type ShiftStateResponse struct {
	Shift       string   `json:"shift"`
	Code        string   `json:"code"`
	Status      string   `json:"status"`
	ReportID    string   `json:"report_id,omitempty"`
	SubmittedAt string   `json:"submitted_at,omitempty"`
	Overdue     int      `json:"overdue"`
	PendingDays []string `json:"pending_days,omitempty"`
}

// ConflictResponse 重复报表冲突
type ConflictResponse struct {
	Date      string   `json:"date"`
	Shift     string   `json:"shift"`
	ReportIDs []string `json:"report_ids"`
	KeptID    string   `json:"kept_id"`
}

// DepartmentStatusResponse 科室某日上报状态
type DepartmentStatusResponse struct {
	DepartmentID   string               `json:"department_id"`
	Department     string               `json:"department"`
	Date           string               `json:"date"`
	IsActive       bool                 `json:"is_active"`
	Shifts         []ShiftStateResponse `json:"shifts"`
	PendingCount   int                  `json:"pending_count"`
	SubmittedCount int                  `json:"submitted_count"`
	Conflicts      []ConflictResponse   `json:"conflicts,omitempty"`
}

// BoardResponse 全院看板
type BoardResponse struct {
	Date           string                     `json:"date"`
	Departments    []DepartmentStatusResponse `json:"departments"`
	TotalPending   int                        `json:"total_pending"`
	TotalSubmitted int                        `json:"total_submitted"`
}

// DayStatusResponse 历史区间中的一天
type DayStatusResponse struct {
	Date   string            `json:"date"`
	Shifts map[string]string `json:"shifts"`
}

// HistoryResponse 科室历史上报状态
type HistoryResponse struct {
	Department string              `json:"department"`
	From       string              `json:"from"`
	To         string              `json:"to"`
	Days       []DayStatusResponse `json:"days"`
	Missing    int                 `json:"missing"`
	Conflicts  []ConflictResponse  `json:"conflicts,omitempty"`
}
