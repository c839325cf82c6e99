package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SyberOman/testing-hospital/internal/model"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	pkgerrors "github.com/SyberOman/testing-hospital/pkg/errors"
)

// ReportFilter 报表查询条件，零值字段不参与过滤
type ReportFilter struct {
	From       time.Time // 含
	To         time.Time // 含
	Department string    // 大小写不敏感
	Shift      string    // M/A/N
	HasNotes   bool      // 仅备注非空
}

// ShiftReportRepository 交班报表数据访问接口
type ShiftReportRepository interface {
	Create(ctx context.Context, report *model.ShiftReport) error
	GetByID(ctx context.Context, id string) (*model.ShiftReport, error)
	GetByKey(ctx context.Context, department string, date time.Time, shift string) (*model.ShiftReport, error)
	// List 返回全部匹配记录，按日期倒序
	List(ctx context.Context, filter ReportFilter) ([]model.ShiftReport, error)
	ListPage(ctx context.Context, filter ReportFilter, offset, limit int) ([]model.ShiftReport, int64, error)
	Update(ctx context.Context, report *model.ShiftReport) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// shiftReportRepo ShiftReportRepository 的 GORM 实现
type shiftReportRepo struct {
	db *gorm.DB
}

// NewShiftReportRepo 创建 ShiftReportRepository 实例
func NewShiftReportRepo(db *gorm.DB) ShiftReportRepository {
	return &shiftReportRepo{db: db}
}

func (r *shiftReportRepo) Create(ctx context.Context, report *model.ShiftReport) error {
	return pkgerrors.TranslateDBError(r.db.WithContext(ctx).Create(report).Error)
}

func (r *shiftReportRepo) GetByID(ctx context.Context, id string) (*model.ShiftReport, error) {
	var report model.ShiftReport
	err := r.db.WithContext(ctx).
		Where("report_id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *shiftReportRepo) GetByKey(ctx context.Context, department string, date time.Time, shift string) (*model.ShiftReport, error) {
	var report model.ShiftReport
	err := r.db.WithContext(ctx).
		Where("LOWER(department) = LOWER(?) AND report_date = ? AND shift = ?",
			department, reporting.DayString(date), shift).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *shiftReportRepo) filtered(ctx context.Context, f ReportFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.ShiftReport{})
	if !f.From.IsZero() {
		db = db.Where("report_date >= ?", reporting.DayString(f.From))
	}
	if !f.To.IsZero() {
		db = db.Where("report_date <= ?", reporting.DayString(f.To))
	}
	if f.Department != "" {
		db = db.Where("LOWER(department) = LOWER(?)", f.Department)
	}
	if f.Shift != "" {
		db = db.Where("shift = ?", f.Shift)
	}
	if f.HasNotes {
		db = db.Where("TRIM(notes) <> ''")
	}
	return db
}

func (r *shiftReportRepo) List(ctx context.Context, filter ReportFilter) ([]model.ShiftReport, error) {
	var reports []model.ShiftReport
	err := r.filtered(ctx, filter).
		Order("report_date DESC, department ASC, shift ASC").
		Find(&reports).Error
	return reports, err
}

func (r *shiftReportRepo) ListPage(ctx context.Context, filter ReportFilter, offset, limit int) ([]model.ShiftReport, int64, error) {
	var reports []model.ShiftReport
	var total int64

	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.filtered(ctx, filter).
		Order("report_date DESC, submitted_at DESC").
		Offset(offset).Limit(limit).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (r *shiftReportRepo) Update(ctx context.Context, report *model.ShiftReport) error {
	oldVersion := report.Version
	result := r.db.WithContext(ctx).
		Model(report).
		Where("report_id = ? AND version = ?", report.ReportID, oldVersion).
		Updates(map[string]interface{}{
			"report_date":            reporting.DayString(report.ReportDate),
			"department":             report.Department,
			"shift":                  report.Shift,
			"staff_count":            report.StaffCount,
			"mo_count":               report.MOCount,
			"sick_leave":             report.SickLeave,
			"opd_cases":              report.OPDCases,
			"short_stay_cases":       report.ShortStayCases,
			"referral_to_bh":         report.ReferralToBH,
			"rta_cases":              report.RTACases,
			"mlc_cases":              report.MLCCases,
			"escort_cases":           report.EscortCases,
			"lama_cases":             report.LAMACases,
			"dressing_cases":         report.DressingCases,
			"referral_from_hhc":      report.ReferralFromHHC,
			"cases_with_referral":    report.CasesWithReferral,
			"cases_without_referral": report.CasesWithoutReferral,
			"fridge_min_temp":        report.FridgeMinTemp,
			"fridge_max_temp":        report.FridgeMaxTemp,
			"notes":                  report.Notes,
			"submitted_by":           report.SubmittedBy,
			"submitted_at":           report.SubmittedAt,
			"updated_by":             report.UpdatedBy,
			"version":                oldVersion + 1,
		})
	if result.Error != nil {
		return pkgerrors.TranslateDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	report.Version = oldVersion + 1
	return nil
}

func (r *shiftReportRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShiftReport{}).
		Where("report_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": model.StrPtr(deletedBy),
			"deleted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
