package dto

import "github.com/SyberOman/testing-hospital/internal/reporting"

// ── 交班报表 DTO ──

// ReportRequest 提交 / 整体更新报表请求
// department 为空时取当前用户所属科室
type ReportRequest struct {
	Date       string `json:"date"       binding:"required"`
	Department string `json:"department" binding:"omitempty,max=50"`
	Shift      string `json:"shift"      binding:"required"`
	reporting.Counts
	FridgeMinTemp string `json:"fridge_min_temp" binding:"omitempty,max=20"`
	FridgeMaxTemp string `json:"fridge_max_temp" binding:"omitempty,max=20"`
	Notes         string `json:"notes"           binding:"omitempty,max=2000"`
	SubmittedBy   string `json:"submitted_by"    binding:"omitempty,max=100"`
	Version       int    `json:"version"         binding:"omitempty,min=1"`
}

// ReportListRequest 报表列表查询参数
type ReportListRequest struct {
	PaginationRequest
	From       string `form:"from"`
	To         string `form:"to"`
	Department string `form:"department" binding:"omitempty,max=50"`
	Shift      string `form:"shift"`
	HasNotes   bool   `form:"has_notes"`
}

// ReportResponse 报表响应
type ReportResponse struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Department string `json:"department"`
	Shift      string `json:"shift"`
	ShiftCode  string `json:"shift_code"`
	reporting.Counts
	FridgeMinTemp string `json:"fridge_min_temp"`
	FridgeMaxTemp string `json:"fridge_max_temp"`
	Notes         string `json:"notes,omitempty"`
	SubmittedBy   string `json:"submitted_by"`
	SubmittedAt   string `json:"submitted_at"`
	Version       int    `json:"version"`
}
