package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/service"
	"github.com/SyberOman/testing-hospital/pkg/response"
)

// SummaryHandler 汇总统计 HTTP 处理器
type SummaryHandler struct {
	summarySvc service.SummaryService
}

// NewSummaryHandler 创建 SummaryHandler
func NewSummaryHandler(summarySvc service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summarySvc: summarySvc}
}

// Daily 按条件汇总
// GET /api/v1/summary/daily
func (h *SummaryHandler) Daily(c *gin.Context) {
	caller, q, ok := bindSummaryQuery(c)
	if !ok {
		return
	}

	result, err := h.summarySvc.Daily(c.Request.Context(), q, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Monthly 按科室分组汇总
// GET /api/v1/summary/monthly
func (h *SummaryHandler) Monthly(c *gin.Context) {
	caller, q, ok := bindSummaryQuery(c)
	if !ok {
		return
	}

	result, err := h.summarySvc.Monthly(c.Request.Context(), q, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Trend 按日趋势
// GET /api/v1/summary/trend
func (h *SummaryHandler) Trend(c *gin.Context) {
	caller, q, ok := bindSummaryQuery(c)
	if !ok {
		return
	}

	result, err := h.summarySvc.Trend(c.Request.Context(), q, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Sum 单字段求和
// GET /api/v1/summary/sum?field=opd_cases
func (h *SummaryHandler) Sum(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var q dto.SumQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.summarySvc.Sum(c.Request.Context(), &q, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

func bindSummaryQuery(c *gin.Context) (service.Caller, *dto.SummaryQuery, bool) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return service.Caller{}, nil, false
	}
	var q dto.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return service.Caller{}, nil, false
	}
	return caller, &q, true
}
