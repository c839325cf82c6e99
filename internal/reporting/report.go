package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout 日期（自然日）的统一格式
const DateLayout = "2006-01-02"

// ErrInvalidReport 报表字段校验失败
var ErrInvalidReport = errors.New("报表数据无效")

// Department 科室及其班次要求配置
type Department struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	RequiredShifts ShiftSet `json:"required_shifts"`
	IsActive       bool     `json:"is_active"`
}

// Counts 报表中的全部计数字段（均为非负整数）
type Counts struct {
	StaffCount           int `json:"staff_count"`
	MOCount              int `json:"mo_count"`
	SickLeave            int `json:"sick_leave"`
	OPDCases             int `json:"opd_cases"`
	ShortStayCases       int `json:"short_stay_cases"`
	ReferralToBH         int `json:"referral_to_bh"`
	RTACases             int `json:"rta_cases"`
	MLCCases             int `json:"mlc_cases"`
	EscortCases          int `json:"escort_cases"`
	LAMACases            int `json:"lama_cases"`
	DressingCases        int `json:"dressing_cases"`
	ReferralFromHHC      int `json:"referral_from_hhc"`
	CasesWithReferral    int `json:"cases_with_referral"`
	CasesWithoutReferral int `json:"cases_without_referral"`
}

// Get 读取指定计数字段
func (c Counts) Get(f Field) int {
	switch f {
	case FieldStaffCount:
		return c.StaffCount
	case FieldMOCount:
		return c.MOCount
	case FieldSickLeave:
		return c.SickLeave
	case FieldOPDCases:
		return c.OPDCases
	case FieldShortStayCases:
		return c.ShortStayCases
	case FieldReferralToBH:
		return c.ReferralToBH
	case FieldRTACases:
		return c.RTACases
	case FieldMLCCases:
		return c.MLCCases
	case FieldEscortCases:
		return c.EscortCases
	case FieldLAMACases:
		return c.LAMACases
	case FieldDressingCases:
		return c.DressingCases
	case FieldReferralFromHHC:
		return c.ReferralFromHHC
	case FieldCasesWithReferral:
		return c.CasesWithReferral
	case FieldCasesWithoutReferral:
		return c.CasesWithoutReferral
	default:
		return 0
	}
}

// ShiftReport 某科室某日某班次的交班报表
type ShiftReport struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Department  string    `json:"department"`
	Shift       Shift     `json:"shift"`
	Counts
	FridgeMinTemp string    `json:"fridge_min_temp"`
	FridgeMaxTemp string    `json:"fridge_max_temp"`
	Notes         string    `json:"notes,omitempty"`
	SubmittedBy   string    `json:"submitted_by"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ReportKey 报表唯一键：同一科室同一天同一班次至多一份
type ReportKey struct {
	Department string
	Day        string
	Shift      Shift
}

func (k ReportKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Department, k.Day, k.Shift)
}

// Key 返回报表的唯一键
func (r *ShiftReport) Key() ReportKey {
	return ReportKey{Department: r.Department, Day: DayString(r.Date), Shift: r.Shift}
}

// ValidateReport 校验科室、班次与计数字段
func ValidateReport(r *ShiftReport) error {
	if strings.TrimSpace(r.Department) == "" {
		return fmt.Errorf("%w: 科室不能为空", ErrInvalidReport)
	}
	if !r.Shift.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidReport, ErrInvalidShift)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: 日期不能为空", ErrInvalidReport)
	}
	for _, f := range AllFields {
		if r.Counts.Get(f) < 0 {
			return fmt.Errorf("%w: %s 不能为负数", ErrInvalidReport, f)
		}
	}
	return nil
}

// ── 自然日工具 ──

// Day 截断到所在时区的自然日零点
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayString 返回 YYYY-MM-DD
func DayString(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay 在指定时区解析 YYYY-MM-DD
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// SameDay 按自然日比较
func SameDay(a, b time.Time) bool {
	return DayString(a) == DayString(b)
}
