package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/model"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/repository"
	pkgerrors "github.com/SyberOman/testing-hospital/pkg/errors"
)

// ── 报表模块业务错误 ──

var (
	ErrReportNotFound   = errors.New("报表不存在")
	ErrDuplicateReport  = errors.New("该科室当日该班次已提交报表")
	ErrShiftNotRequired = errors.New("该科室不需要提交此班次")
	ErrFutureReportDate = errors.New("不能提交未来日期的报表")
)

// ReportService 交班报表业务接口
type ReportService interface {
	Submit(ctx context.Context, req *dto.ReportRequest, caller Caller) (*dto.ReportResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.ReportResponse, error)
	// List 非管理员只返回本科室报表
	List(ctx context.Context, req *dto.ReportListRequest, caller Caller) ([]dto.ReportResponse, int64, error)
	// Update 整体替换报表内容，唯一键变化时重新校验
	Update(ctx context.Context, id string, req *dto.ReportRequest, caller Caller) (*dto.ReportResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
}

type reportService struct {
	repo     *repository.Repository
	registry *reporting.Registry
	cal      calendar
	logger   *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, registry *reporting.Registry, cal calendar, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, registry: registry, cal: cal, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *reportService) Submit(ctx context.Context, req *dto.ReportRequest, caller Caller) (*dto.ReportResponse, error) {
	r, err := s.buildReport(ctx, req, caller)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.ShiftReport.GetByKey(ctx, r.Department, r.ReportDate, r.Shift); err == nil {
		return nil, ErrDuplicateReport
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询报表失败", zap.Error(err))
		return nil, err
	}

	r.SubmittedAt = s.cal.now()
	r.CreatedBy = model.StrPtr(caller.UserID)
	r.UpdatedBy = model.StrPtr(caller.UserID)

	if err := s.repo.ShiftReport.Create(ctx, r); err != nil {
		// 并发提交由唯一索引兜底
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrDuplicateReport
		}
		s.logger.Error("保存报表失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("报表已提交",
		zap.String("report_id", r.ReportID),
		zap.String("department", r.Department),
		zap.String("date", reporting.DayString(r.ReportDate)),
		zap.String("shift", r.Shift),
	)
	return s.toResponse(r)
}

// ────────────────────── GetByID ──────────────────────

func (s *reportService) GetByID(ctx context.Context, id string, caller Caller) (*dto.ReportResponse, error) {
	r, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return s.toResponse(r)
}

// ────────────────────── List ──────────────────────

func (s *reportService) List(ctx context.Context, req *dto.ReportListRequest, caller Caller) ([]dto.ReportResponse, int64, error) {
	filter, err := s.filterFor(req.From, req.To, req.Department, req.Shift, caller)
	if err != nil {
		return nil, 0, err
	}
	filter.HasNotes = req.HasNotes

	rows, total, err := s.repo.ShiftReport.ListPage(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询报表列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ReportResponse, 0, len(rows))
	for i := range rows {
		item, err := s.toResponse(&rows[i])
		if err != nil {
			s.logger.Error("报表数据异常", zap.Error(err))
			return nil, 0, err
		}
		result = append(result, *item)
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *reportService) Update(ctx context.Context, id string, req *dto.ReportRequest, caller Caller) (*dto.ReportResponse, error) {
	existing, err := s.load(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	if req.Department == "" {
		req.Department = existing.Department
	}
	next, err := s.buildReport(ctx, req, caller)
	if err != nil {
		return nil, err
	}

	keyChanged := !strings.EqualFold(next.Department, existing.Department) ||
		!reporting.SameDay(next.ReportDate, existing.ReportDate) ||
		next.Shift != existing.Shift
	if keyChanged {
		other, err := s.repo.ShiftReport.GetByKey(ctx, next.Department, next.ReportDate, next.Shift)
		if err == nil && other.ReportID != existing.ReportID {
			return nil, ErrDuplicateReport
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询报表失败", zap.Error(err))
			return nil, err
		}
	}

	next.ReportID = existing.ReportID
	next.VersionedModel = existing.VersionedModel
	if req.Version > 0 {
		next.Version = req.Version
	}
	next.SubmittedAt = s.cal.now()
	next.UpdatedBy = model.StrPtr(caller.UserID)

	if err := s.repo.ShiftReport.Update(ctx, next); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrDuplicateReport
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新报表失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return s.toResponse(next)
}

// ────────────────────── Delete ──────────────────────

func (s *reportService) Delete(ctx context.Context, id string, caller Caller) error {
	if _, err := s.load(ctx, id, caller); err != nil {
		return err
	}
	if err := s.repo.ShiftReport.Delete(ctx, id, caller.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		s.logger.Error("删除报表失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("报表已删除", zap.String("report_id", id), zap.String("by", caller.UserID))
	return nil
}

// ── 内部方法 ──

// load 读取报表并校验可见范围
func (s *reportService) load(ctx context.Context, id string, caller Caller) (*model.ShiftReport, error) {
	r, err := s.repo.ShiftReport.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("查询报表失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := checkDepartmentAccess(s.registry, caller, r.Department); err != nil {
		return nil, err
	}
	return r, nil
}

// buildReport 校验请求并构造待保存的报表
func (s *reportService) buildReport(ctx context.Context, req *dto.ReportRequest, caller Caller) (*model.ShiftReport, error) {
	date, err := s.cal.parseDay(req.Date)
	if err != nil {
		return nil, err
	}
	if date.After(s.cal.today()) {
		return nil, ErrFutureReportDate
	}
	shift, err := reporting.ParseShift(req.Shift)
	if err != nil {
		return nil, err
	}

	department := strings.TrimSpace(req.Department)
	own, err := callerDepartment(s.registry, caller)
	if err != nil {
		return nil, err
	}
	if own != "" {
		if department != "" && !strings.EqualFold(department, own) {
			return nil, ErrForbidden
		}
		department = own
	}
	if department == "" {
		return nil, fmt.Errorf("%w: 科室不能为空", reporting.ErrInvalidReport)
	}

	cfg, err := s.registry.GetConfig(department)
	if err != nil {
		return nil, ErrDepartmentNotFound
	}
	if !cfg.IsActive {
		return nil, ErrDepartmentInactive
	}
	if !cfg.RequiredShifts.Has(shift) {
		return nil, fmt.Errorf("%w: %s / %s", ErrShiftNotRequired, cfg.Name, shift)
	}

	core := reporting.ShiftReport{
		Date:          date,
		Department:    cfg.Name,
		Shift:         shift,
		Counts:        req.Counts,
		FridgeMinTemp: strings.TrimSpace(req.FridgeMinTemp),
		FridgeMaxTemp: strings.TrimSpace(req.FridgeMaxTemp),
		Notes:         req.Notes,
	}
	if err := reporting.ValidateReport(&core); err != nil {
		return nil, err
	}

	submittedBy := strings.TrimSpace(req.SubmittedBy)
	if submittedBy == "" {
		submittedBy = s.callerName(ctx, caller)
	}

	r := &model.ShiftReport{
		ReportDate:    core.Date,
		Department:    core.Department,
		Shift:         shift.Code(),
		FridgeMinTemp: core.FridgeMinTemp,
		FridgeMaxTemp: core.FridgeMaxTemp,
		Notes:         core.Notes,
		SubmittedBy:   submittedBy,
	}
	r.SetCounts(core.Counts)
	return r, nil
}

func (s *reportService) callerName(ctx context.Context, caller Caller) string {
	if caller.UserID == "" {
		return ""
	}
	u, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		return caller.UserID
	}
	return u.Name
}

// filterFor 构造查询条件；非管理员缺省为本科室，指定其他科室返回 ErrForbidden
func (s *reportService) filterFor(from, to, department, shift string, caller Caller) (repository.ReportFilter, error) {
	var f repository.ReportFilter
	var err error

	if from != "" {
		if f.From, err = s.cal.parseDay(from); err != nil {
			return f, err
		}
	}
	if to != "" {
		if f.To, err = s.cal.parseDay(to); err != nil {
			return f, err
		}
	}
	if shift != "" {
		sh, err := reporting.ParseShift(shift)
		if err != nil {
			return f, err
		}
		f.Shift = sh.Code()
	}

	own, err := callerDepartment(s.registry, caller)
	if err != nil {
		return f, err
	}
	f.Department = strings.TrimSpace(department)
	switch {
	case own == "":
	case f.Department == "":
		f.Department = own
	case !strings.EqualFold(own, f.Department):
		return f, ErrForbidden
	}
	return f, nil
}

func (s *reportService) toResponse(r *model.ShiftReport) (*dto.ReportResponse, error) {
	core, err := r.ToReporting(s.cal.loc)
	if err != nil {
		return nil, err
	}
	return &dto.ReportResponse{
		ID:            r.ReportID,
		Date:          reporting.DayString(core.Date),
		Department:    r.Department,
		Shift:         core.Shift.String(),
		ShiftCode:     core.Shift.Code(),
		Counts:        core.Counts,
		FridgeMinTemp: r.FridgeMinTemp,
		FridgeMaxTemp: r.FridgeMaxTemp,
		Notes:         r.Notes,
		SubmittedBy:   r.SubmittedBy,
		SubmittedAt:   r.SubmittedAt.In(s.cal.loc).Format("2006-01-02T15:04:05Z07:00"),
		Version:       r.Version,
	}, nil
}
