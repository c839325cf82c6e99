package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SyberOman/testing-hospital/config"
	"github.com/SyberOman/testing-hospital/internal/model"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/repository"
	"github.com/SyberOman/testing-hospital/pkg/jwt"
)

// ── 通用业务错误 ──

var (
	ErrInvalidDate  = errors.New("日期格式错误，应为 YYYY-MM-DD")
	ErrForbidden    = errors.New("无权访问其他科室的数据")
	ErrNoDepartment = errors.New("当前用户未关联科室")
)

// Caller 当前请求的用户身份（来自 JWT）
type Caller struct {
	UserID       string
	Role         string
	DepartmentID string
}

// IsAdmin 是否管理员
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// TokenBlacklist Token 黑名单存储
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// DepartmentNotifier 科室配置变更广播
type DepartmentNotifier interface {
	PublishDepartmentsChanged(ctx context.Context, origin string) error
}

// Deps 可选外部依赖，Redis 不可用时均可为空
type Deps struct {
	Blacklist  TokenBlacklist
	Notifier   DepartmentNotifier
	InstanceID string
	Now        func() time.Time
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Department DepartmentService
	Report     ReportService
	Status     StatusService
	Summary    SummaryService
	Export     ExportService
}

// NewService 创建 Service 聚合
//
// 科室注册表在各服务间共享，由 DepartmentService 负责与数据库同步。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
	deps Deps,
) *Service {
	registry := reporting.NewRegistry()
	cal := newCalendar(cfg.Report.Location(), deps.Now)
	deriver := reporting.NewDeriver(cfg.Report.LookbackDays, cal.now)

	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, deps.Blacklist, logger),
		User:       NewUserService(repo, logger),
		Department: NewDepartmentService(repo, registry, deps.Notifier, deps.InstanceID, logger),
		Report:     NewReportService(repo, registry, cal, logger),
		Status:     NewStatusService(repo, registry, deriver, cal, logger),
		Summary:    NewSummaryService(repo, registry, cal, logger),
		Export:     NewExportService(repo, registry, cal, logger),
	}
}

// ── 报表日期换算 ──

// calendar 在报表时区内解析日期与计算"今天"
type calendar struct {
	loc *time.Location
	now func() time.Time
}

func newCalendar(loc *time.Location, now func() time.Time) calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return calendar{loc: loc, now: now}
}

func (c calendar) today() time.Time {
	return reporting.Day(c.now().In(c.loc))
}

// parseDay 空字符串视为今天
func (c calendar) parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return c.today(), nil
	}
	d, err := reporting.ParseDay(s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// parseRange 解析闭区间，缺省端点取今天
func (c calendar) parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := c.parseDay(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := c.parseDay(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 开始日期晚于结束日期", reporting.ErrInvalidDateRange)
	}
	return start, end, nil
}

// ── 科室可见范围 ──

// callerDepartment 返回非管理员用户所属科室名称；管理员返回空字符串
func callerDepartment(registry *reporting.Registry, caller Caller) (string, error) {
	if caller.IsAdmin() {
		return "", nil
	}
	if caller.DepartmentID == "" {
		return "", ErrNoDepartment
	}
	d, err := registry.GetByID(caller.DepartmentID)
	if err != nil {
		return "", ErrNoDepartment
	}
	return d.Name, nil
}

// checkDepartmentAccess 非管理员只能访问本科室
func checkDepartmentAccess(registry *reporting.Registry, caller Caller, department string) error {
	own, err := callerDepartment(registry, caller)
	if err != nil {
		return err
	}
	if own != "" && !strings.EqualFold(own, department) {
		return ErrForbidden
	}
	return nil
}

// loadReports 读取并转换报表
func loadReports(ctx context.Context, repo *repository.Repository, filter repository.ReportFilter, loc *time.Location) ([]reporting.ShiftReport, error) {
	rows, err := repo.ShiftReport.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return model.ToReportingSlice(rows, loc)
}
