package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/repository"
)

// StatusService 上报状态业务接口
type StatusService interface {
	// Board 所有启用科室在指定日期的状态（管理员看板）
	Board(ctx context.Context, date string) (*dto.BoardResponse, error)
	// Department 单科室在指定日期的状态
	Department(ctx context.Context, name, date string, caller Caller) (*dto.DepartmentStatusResponse, error)
	// History 单科室在 [from, to] 区间的逐日状态，过去未提交的班次为 missing
	History(ctx context.Context, name string, q *dto.HistoryQuery, caller Caller) (*dto.HistoryResponse, error)
}

type statusService struct {
	repo     *repository.Repository
	registry *reporting.Registry
	deriver  *reporting.Deriver
	cal      calendar
	logger   *zap.Logger
}

// NewStatusService 创建 StatusService 实例
func NewStatusService(
	repo *repository.Repository,
	registry *reporting.Registry,
	deriver *reporting.Deriver,
	cal calendar,
	logger *zap.Logger,
) StatusService {
	return &statusService{repo: repo, registry: registry, deriver: deriver, cal: cal, logger: logger}
}

// ────────────────────── Board ──────────────────────

func (s *statusService) Board(ctx context.Context, date string) (*dto.BoardResponse, error) {
	target, err := s.cal.parseDay(date)
	if err != nil {
		return nil, err
	}
	if target.After(s.cal.today()) {
		return nil, fmt.Errorf("%w: %s 晚于今天", reporting.ErrInvalidDateRange, reporting.DayString(target))
	}

	reports, err := loadReports(ctx, s.repo, s.window(target, ""), s.cal.loc)
	if err != nil {
		s.logger.Error("加载报表失败", zap.Error(err))
		return nil, err
	}

	snap := s.registry.Snapshot()
	statuses, err := s.deriver.DeriveBoard(snap, target, reports)
	if err != nil {
		return nil, err
	}

	resp := &dto.BoardResponse{
		Date:        reporting.DayString(target),
		Departments: make([]dto.DepartmentStatusResponse, 0, len(statuses)),
	}
	for i := range statuses {
		st := &statuses[i]
		s.warnConflicts(st.Department, st.Conflicts)
		cfg, _ := snap.GetConfig(st.Department)
		item := toDepartmentStatusResponse(cfg, st)
		resp.TotalPending += item.PendingCount
		resp.TotalSubmitted += item.SubmittedCount
		resp.Departments = append(resp.Departments, *item)
	}
	return resp, nil
}

// ────────────────────── Department ──────────────────────

func (s *statusService) Department(ctx context.Context, name, date string, caller Caller) (*dto.DepartmentStatusResponse, error) {
	cfg, err := s.resolve(name, caller)
	if err != nil {
		return nil, err
	}
	target, err := s.cal.parseDay(date)
	if err != nil {
		return nil, err
	}

	reports, err := loadReports(ctx, s.repo, s.window(target, cfg.Name), s.cal.loc)
	if err != nil {
		s.logger.Error("加载报表失败", zap.String("department", cfg.Name), zap.Error(err))
		return nil, err
	}

	st, err := s.deriver.DeriveStatus(cfg, target, reports)
	if err != nil {
		return nil, err
	}
	s.warnConflicts(cfg.Name, st.Conflicts)
	return toDepartmentStatusResponse(cfg, &st), nil
}

// ────────────────────── History ──────────────────────

func (s *statusService) History(ctx context.Context, name string, q *dto.HistoryQuery, caller Caller) (*dto.HistoryResponse, error) {
	cfg, err := s.resolve(name, caller)
	if err != nil {
		return nil, err
	}
	from, to, err := s.cal.parseRange(q.From, q.To)
	if err != nil {
		return nil, err
	}

	reports, err := loadReports(ctx, s.repo, repository.ReportFilter{From: from, To: to, Department: cfg.Name}, s.cal.loc)
	if err != nil {
		s.logger.Error("加载报表失败", zap.String("department", cfg.Name), zap.Error(err))
		return nil, err
	}

	days, conflicts, err := s.deriver.DeriveRange(cfg, from, to, reports)
	if err != nil {
		return nil, err
	}
	s.warnConflicts(cfg.Name, conflicts)

	resp := &dto.HistoryResponse{
		Department: cfg.Name,
		From:       reporting.DayString(from),
		To:         reporting.DayString(to),
		Days:       make([]dto.DayStatusResponse, 0, len(days)),
		Conflicts:  toConflictResponses(conflicts),
	}
	for _, d := range days {
		item := dto.DayStatusResponse{Date: d.Date, Shifts: make(map[string]string, len(reporting.AllShifts))}
		for _, sh := range reporting.AllShifts {
			item.Shifts[sh.String()] = string(d.Shifts[sh])
			if d.Shifts[sh] == reporting.StatusMissing {
				resp.Missing++
			}
		}
		resp.Days = append(resp.Days, item)
	}
	return resp, nil
}

// ── 内部方法 ──

func (s *statusService) resolve(name string, caller Caller) (reporting.Department, error) {
	cfg, err := s.registry.GetConfig(name)
	if err != nil {
		if errors.Is(err, reporting.ErrConfigNotFound) {
			return reporting.Department{}, ErrDepartmentNotFound
		}
		return reporting.Department{}, err
	}
	if err := checkDepartmentAccess(s.registry, caller, cfg.Name); err != nil {
		return reporting.Department{}, err
	}
	if !cfg.IsActive {
		return reporting.Department{}, ErrDepartmentInactive
	}
	return cfg, nil
}

// window 逾期回溯所需的报表区间 [target-lookback+1, target]
func (s *statusService) window(target time.Time, department string) repository.ReportFilter {
	lookback := s.deriver.Lookback
	if lookback <= 0 {
		lookback = reporting.DefaultLookback
	}
	return repository.ReportFilter{
		From:       target.AddDate(0, 0, -(lookback - 1)),
		To:         target,
		Department: department,
	}
}

// warnConflicts 重复报表属于数据完整性问题，记录告警但不中断计算
func (s *statusService) warnConflicts(department string, conflicts []reporting.DuplicateReportConflict) {
	for _, c := range conflicts {
		s.logger.Warn("发现重复报表",
			zap.String("department", department),
			zap.String("date", c.Date),
			zap.String("shift", c.Shift.String()),
			zap.Strings("report_ids", c.ReportIDs),
			zap.String("kept_id", c.KeptID),
		)
	}
}

func toDepartmentStatusResponse(cfg reporting.Department, st *reporting.DepartmentStatus) *dto.DepartmentStatusResponse {
	resp := &dto.DepartmentStatusResponse{
		DepartmentID:   cfg.ID,
		Department:     st.Department,
		Date:           st.Date,
		IsActive:       cfg.IsActive,
		Shifts:         make([]dto.ShiftStateResponse, 0, len(st.Shifts)),
		PendingCount:   st.PendingCount(),
		SubmittedCount: st.SubmittedCount(),
		Conflicts:      toConflictResponses(st.Conflicts),
	}
	for _, state := range st.Shifts {
		item := dto.ShiftStateResponse{
			Shift:       state.Shift.String(),
			Code:        state.Shift.Code(),
			Status:      string(state.Status),
			ReportID:    state.ReportID,
			Overdue:     state.Overdue,
			PendingDays: state.PendingDays,
		}
		if state.SubmittedAt != nil {
			item.SubmittedAt = state.SubmittedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		resp.Shifts = append(resp.Shifts, item)
	}
	return resp
}

func toConflictResponses(conflicts []reporting.DuplicateReportConflict) []dto.ConflictResponse {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]dto.ConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, dto.ConflictResponse{
			Date:      c.Date,
			Shift:     c.Shift.String(),
			ReportIDs: c.ReportIDs,
			KeptID:    c.KeptID,
		})
	}
	return out
}
