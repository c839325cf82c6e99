package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/service"
	"github.com/SyberOman/testing-hospital/pkg/response"
)

// ReportHandler 交班报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// SubmitReport 提交班次报表
// POST /api/v1/reports
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	report, err := h.reportSvc.Submit(c.Request.Context(), &req, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, report)
}

// GetReport 报表详情
// GET /api/v1/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.GetByID(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, report)
}

// ListReports 报表列表
// GET /api/v1/reports?from=&to=&department=&shift=&has_notes=&page=&page_size=
func (h *ReportHandler) ListReports(c *gin.Context) {
	h.listReports(c, false)
}

// ListNoteReports 带备注的报表列表
// GET /api/v1/reports/notes
func (h *ReportHandler) ListNoteReports(c *gin.Context) {
	h.listReports(c, true)
}

func (h *ReportHandler) listReports(c *gin.Context, notesOnly bool) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if notesOnly {
		req.HasNotes = true
	}

	reports, total, err := h.reportSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, reports, total, req.GetPage(), req.GetPageSize())
}

// UpdateReport 整体更新报表
// PUT /api/v1/reports/:id
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	report, err := h.reportSvc.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, report)
}

// DeleteReport 删除报表
// DELETE /api/v1/reports/:id
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.reportSvc.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
