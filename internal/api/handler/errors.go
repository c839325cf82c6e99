package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/service"
	pkgerrors "github.com/SyberOman/testing-hospital/pkg/errors"
	"github.com/SyberOman/testing-hospital/pkg/response"
)

// 业务错误码
//
//	100xx 通用  110xx 认证  120xx 用户  130xx 科室
//	140xx 报表  150xx 状态与汇总  160xx 导出
const (
	codeInvalidParams   = 10001
	codeForbidden       = 10003
	codeVersionConflict = 10006
	codeNoDepartment    = 10007

	codeInvalidCredentials = 11001
	codeUserInactive       = 11002
	codeInvalidOldPassword = 11003
	codeSamePassword       = 11004

	codeUserNotFound       = 12001
	codeUsernameExists     = 12002
	codeUserSelfDelete     = 12003
	codeUserSelfRoleChange = 12004
	codeDepartmentRequired = 12005

	codeDepartmentNotFound   = 13001
	codeDepartmentNameExists = 13002
	codeDepartmentInactive   = 13003
	codeInvalidShift         = 13004

	codeReportNotFound   = 14001
	codeDuplicateReport  = 14002
	codeShiftNotRequired = 14003
	codeFutureReportDate = 14004
	codeInvalidReport    = 14005
	codeInvalidDate      = 14006

	codeInvalidDateRange = 15001
	codeNonNumericField  = 15002

	codeExportNoReports = 16001
)

// handleServiceError 将 Service 层错误映射为统一响应
func handleServiceError(c *gin.Context, err error) {
	switch {
	// ── 通用 ──
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, codeForbidden, err.Error())
	case errors.Is(err, service.ErrNoDepartment):
		response.Forbidden(c, codeNoDepartment, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeVersionConflict, "数据已被修改，请刷新后重试")

	// ── 认证 ──
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, codeInvalidCredentials, err.Error())
	case errors.Is(err, service.ErrUserInactive):
		response.Forbidden(c, codeUserInactive, err.Error())
	case errors.Is(err, service.ErrInvalidOldPassword):
		response.BadRequest(c, codeInvalidOldPassword, err.Error())
	case errors.Is(err, service.ErrSamePassword):
		response.BadRequest(c, codeSamePassword, err.Error())

	// ── 用户 ──
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, codeUserNotFound, err.Error())
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, codeUsernameExists, err.Error())
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, codeUserSelfDelete, err.Error())
	case errors.Is(err, service.ErrUserSelfRoleChange):
		response.BadRequest(c, codeUserSelfRoleChange, err.Error())
	case errors.Is(err, service.ErrDepartmentRequired):
		response.BadRequest(c, codeDepartmentRequired, err.Error())

	// ── 科室 ──
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, codeDepartmentNotFound, err.Error())
	case errors.Is(err, service.ErrDepartmentNameExists):
		response.Conflict(c, codeDepartmentNameExists, err.Error())
	case errors.Is(err, service.ErrDepartmentInactive):
		response.UnprocessableEntity(c, codeDepartmentInactive, err.Error())
	case errors.Is(err, reporting.ErrInvalidShift):
		response.BadRequest(c, codeInvalidShift, err.Error())

	// ── 报表 ──
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, codeReportNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateReport):
		response.Conflict(c, codeDuplicateReport, err.Error())
	case errors.Is(err, service.ErrShiftNotRequired):
		response.UnprocessableEntity(c, codeShiftNotRequired, err.Error())
	case errors.Is(err, service.ErrFutureReportDate):
		response.UnprocessableEntity(c, codeFutureReportDate, err.Error())
	case errors.Is(err, reporting.ErrInvalidReport):
		response.UnprocessableEntity(c, codeInvalidReport, err.Error())
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, codeInvalidDate, err.Error())

	// ── 状态与汇总 ──
	case errors.Is(err, reporting.ErrInvalidDateRange):
		response.BadRequest(c, codeInvalidDateRange, err.Error())
	case errors.Is(err, reporting.ErrNonNumericField):
		response.BadRequest(c, codeNonNumericField, err.Error())

	// ── 导出 ──
	case errors.Is(err, service.ErrExportNoReports):
		response.NotFound(c, codeExportNoReports, err.Error())

	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, 400, codeInvalidParams, "参数校验失败", err.Error())
}
