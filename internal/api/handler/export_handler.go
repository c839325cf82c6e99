package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SyberOman/testing-hospital/internal/service"
	"github.com/SyberOman/testing-hospital/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDaily 导出报表明细
// GET /api/v1/export/daily?from=&to=&department=&shift=
func (h *ExportHandler) ExportDaily(c *gin.Context) {
	caller, q, ok := bindSummaryQuery(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportDaily(c.Request.Context(), q, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.File(c, filename, xlsxContentType, buf.Bytes())
}

// ExportMonthly 导出按科室汇总
// GET /api/v1/export/monthly?from=&to=
func (h *ExportHandler) ExportMonthly(c *gin.Context) {
	caller, q, ok := bindSummaryQuery(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportMonthly(c.Request.Context(), q, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.File(c, filename, xlsxContentType, buf.Bytes())
}
