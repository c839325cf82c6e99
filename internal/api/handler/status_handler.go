package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/service"
	"github.com/SyberOman/testing-hospital/pkg/response"
)

// StatusHandler 上报状态 HTTP 处理器
type StatusHandler struct {
	statusSvc service.StatusService
}

// NewStatusHandler 创建 StatusHandler
func NewStatusHandler(statusSvc service.StatusService) *StatusHandler {
	return &StatusHandler{statusSvc: statusSvc}
}

// Board 全院上报看板（管理员）
// GET /api/v1/status/board?date=2024-03-06
func (h *StatusHandler) Board(c *gin.Context) {
	var q dto.StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	board, err := h.statusSvc.Board(c.Request.Context(), q.Date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, board)
}

// Department 单科室某日状态
// GET /api/v1/status/departments/:name?date=
func (h *StatusHandler) Department(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var q dto.StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	status, err := h.statusSvc.Department(c.Request.Context(), c.Param("name"), q.Date, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, status)
}

// History 单科室区间历史
// GET /api/v1/status/departments/:name/history?from=&to=
func (h *StatusHandler) History(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var q dto.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	history, err := h.statusSvc.History(c.Request.Context(), c.Param("name"), &q, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, history)
}
