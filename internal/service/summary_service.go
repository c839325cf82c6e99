package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/repository"
)

// SummaryService 汇总统计业务接口
type SummaryService interface {
	// Daily 按条件合计全部计数字段，默认今天
	Daily(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*dto.DailySummaryResponse, error)
	// Monthly 按科室分组合计，默认本月 1 日至今天
	Monthly(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*dto.MonthlySummaryResponse, error)
	// Trend 按日合计，默认最近 30 天
	Trend(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*dto.TrendResponse, error)
	// Sum 单字段求和，非计数字段返回 reporting.ErrNonNumericField
	Sum(ctx context.Context, q *dto.SumQuery, caller Caller) (*dto.SumResponse, error)
}

// 默认区间
type defaultRange int

const (
	rangeToday defaultRange = iota
	rangeMonth
	rangeTrend
)

const trendDefaultDays = 30

// reportQuery 汇总与导出共用的报表查询
type reportQuery struct {
	repo     *repository.Repository
	registry *reporting.Registry
	cal      calendar
}

// queryResult 查询结果及实际生效的条件
type queryResult struct {
	From       time.Time
	To         time.Time
	Department string
	Shift      string
	Reports    []reporting.ShiftReport
}

func (q reportQuery) run(ctx context.Context, in *dto.SummaryQuery, caller Caller, def defaultRange) (*queryResult, error) {
	from, to, err := q.resolveRange(in.From, in.To, def)
	if err != nil {
		return nil, err
	}
	if int(to.Sub(from).Hours()/24) >= reporting.MaxRangeDays {
		return nil, fmt.Errorf("%w: 区间超过 %d 天", reporting.ErrInvalidDateRange, reporting.MaxRangeDays)
	}

	res := &queryResult{From: from, To: to}
	filter := repository.ReportFilter{From: from, To: to}

	if in.Shift != "" {
		sh, err := reporting.ParseShift(in.Shift)
		if err != nil {
			return nil, err
		}
		filter.Shift = sh.Code()
		res.Shift = sh.String()
	}

	department, err := q.resolveDepartment(in.Department, caller)
	if err != nil {
		return nil, err
	}
	filter.Department = department
	res.Department = department

	reports, err := loadReports(ctx, q.repo, filter, q.cal.loc)
	if err != nil {
		return nil, err
	}
	res.Reports = q.dropInactive(reports)
	return res, nil
}

// resolveDepartment 非管理员缺省为本科室，指定其他科室返回 ErrForbidden；
// 停用科室返回 ErrDepartmentInactive
func (q reportQuery) resolveDepartment(name string, caller Caller) (string, error) {
	own, err := callerDepartment(q.registry, caller)
	if err != nil {
		return "", err
	}
	department := strings.TrimSpace(name)
	if department == "" {
		department = own
	} else if own != "" && !strings.EqualFold(own, department) {
		return "", ErrForbidden
	}
	if department == "" {
		return "", nil
	}

	cfg, err := q.registry.GetConfig(department)
	if err != nil {
		// 已删除科室的历史报表仍可查询
		return department, nil
	}
	if !cfg.IsActive {
		return "", ErrDepartmentInactive
	}
	return cfg.Name, nil
}

// dropInactive 停用科室不参与汇总
func (q reportQuery) dropInactive(reports []reporting.ShiftReport) []reporting.ShiftReport {
	kept := reports[:0]
	for _, r := range reports {
		if cfg, err := q.registry.GetConfig(r.Department); err == nil && !cfg.IsActive {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func (q reportQuery) resolveRange(from, to string, def defaultRange) (time.Time, time.Time, error) {
	if strings.TrimSpace(from) == "" && strings.TrimSpace(to) == "" {
		today := q.cal.today()
		switch def {
		case rangeMonth:
			return today.AddDate(0, 0, 1-today.Day()), today, nil
		case rangeTrend:
			return today.AddDate(0, 0, -(trendDefaultDays - 1)), today, nil
		default:
			return today, today, nil
		}
	}
	if strings.TrimSpace(from) == "" {
		from = to
	}
	return q.cal.parseRange(from, to)
}

type summaryService struct {
	query  reportQuery
	logger *zap.Logger
}

// NewSummaryService 创建 SummaryService 实例
func NewSummaryService(repo *repository.Repository, registry *reporting.Registry, cal calendar, logger *zap.Logger) SummaryService {
	return &summaryService{
		query:  reportQuery{repo: repo, registry: registry, cal: cal},
		logger: logger,
	}
}

// ────────────────────── Daily ──────────────────────

func (s *summaryService) Daily(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*dto.DailySummaryResponse, error) {
	res, err := s.run(ctx, q, caller, rangeToday)
	if err != nil {
		return nil, err
	}
	return &dto.DailySummaryResponse{
		From:       reporting.DayString(res.From),
		To:         reporting.DayString(res.To),
		Department: res.Department,
		Shift:      res.Shift,
		Totals:     toTotalsResponse(reporting.Aggregate(res.Reports)),
	}, nil
}

// ────────────────────── Monthly ──────────────────────

func (s *summaryService) Monthly(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*dto.MonthlySummaryResponse, error) {
	res, err := s.run(ctx, q, caller, rangeMonth)
	if err != nil {
		return nil, err
	}

	groups := reporting.GroupByDepartment(res.Reports)
	resp := &dto.MonthlySummaryResponse{
		From:        reporting.DayString(res.From),
		To:          reporting.DayString(res.To),
		Departments: make([]dto.DepartmentSummaryResponse, 0, len(groups)),
	}

	var overall reporting.Totals
	for _, g := range groups {
		overall = overall.Add(g.Totals)
		item := dto.DepartmentSummaryResponse{
			Department: g.Department,
			Totals:     toTotalsResponse(g.Totals),
		}
		if g.HasFridgeTemp {
			item.AvgFridgeMin = g.AvgFridgeMin
			item.AvgFridgeMax = g.AvgFridgeMax
		}
		resp.Departments = append(resp.Departments, item)
	}
	resp.Overall = toTotalsResponse(overall)
	return resp, nil
}

// ────────────────────── Trend ──────────────────────

func (s *summaryService) Trend(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*dto.TrendResponse, error) {
	res, err := s.run(ctx, q, caller, rangeTrend)
	if err != nil {
		return nil, err
	}

	days := reporting.GroupByDay(res.Reports)
	resp := &dto.TrendResponse{
		From:       reporting.DayString(res.From),
		To:         reporting.DayString(res.To),
		Department: res.Department,
		Days:       make([]dto.DayTotalsResponse, 0, len(days)),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, dto.DayTotalsResponse{Date: d.Date, Totals: toTotalsResponse(d.Totals)})
	}
	return resp, nil
}

// ────────────────────── Sum ──────────────────────

func (s *summaryService) Sum(ctx context.Context, q *dto.SumQuery, caller Caller) (*dto.SumResponse, error) {
	field, err := reporting.ParseField(q.Field)
	if err != nil {
		return nil, err
	}
	res, err := s.run(ctx, &q.SummaryQuery, caller, rangeToday)
	if err != nil {
		return nil, err
	}
	return &dto.SumResponse{
		Field: field.String(),
		Label: field.Label(),
		Total: reporting.Sum(res.Reports, field),
	}, nil
}

func (s *summaryService) run(ctx context.Context, q *dto.SummaryQuery, caller Caller, def defaultRange) (*queryResult, error) {
	res, err := s.query.run(ctx, q, caller, def)
	if err != nil {
		s.logger.Debug("汇总查询失败", zap.Error(err))
		return nil, err
	}
	return res, nil
}

func toTotalsResponse(t reporting.Totals) dto.TotalsResponse {
	return dto.TotalsResponse{
		Reports:       t.Reports,
		Fields:        t.Map(),
		CriticalCases: t.CriticalCases(),
		Referrals:     t.Referrals(),
	}
}
