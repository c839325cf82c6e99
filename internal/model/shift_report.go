package model

import (
	"fmt"
	"time"

	"github.com/SyberOman/testing-hospital/internal/reporting"
)

// ShiftReport 交班报表，对应表 shift_reports
type ShiftReport struct {
	ReportID             string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"report_id"`
	ReportDate           time.Time `gorm:"type:date;not null"                             json:"report_date"`
	Department           string    `gorm:"type:varchar(50);not null"                      json:"department"`
	Shift                string    `gorm:"type:char(1);not null"                          json:"shift"` // M/A/N
	StaffCount           int       `gorm:"not null;default:0"                             json:"staff_count"`
	MOCount              int       `gorm:"column:mo_count;not null;default:0"             json:"mo_count"`
	SickLeave            int       `gorm:"not null;default:0"                             json:"sick_leave"`
	OPDCases             int       `gorm:"column:opd_cases;not null;default:0"            json:"opd_cases"`
	ShortStayCases       int       `gorm:"not null;default:0"                             json:"short_stay_cases"`
	ReferralToBH         int       `gorm:"column:referral_to_bh;not null;default:0"       json:"referral_to_bh"`
	RTACases             int       `gorm:"column:rta_cases;not null;default:0"            json:"rta_cases"`
	MLCCases             int       `gorm:"column:mlc_cases;not null;default:0"            json:"mlc_cases"`
	EscortCases          int       `gorm:"not null;default:0"                             json:"escort_cases"`
	LAMACases            int       `gorm:"column:lama_cases;not null;default:0"           json:"lama_cases"`
	DressingCases        int       `gorm:"not null;default:0"                             json:"dressing_cases"`
	ReferralFromHHC      int       `gorm:"column:referral_from_hhc;not null;default:0"    json:"referral_from_hhc"`
	CasesWithReferral    int       `gorm:"not null;default:0"                             json:"cases_with_referral"`
	CasesWithoutReferral int       `gorm:"not null;default:0"                             json:"cases_without_referral"`
	FridgeMinTemp        string    `gorm:"type:varchar(20);not null;default:''"           json:"fridge_min_temp"`
	FridgeMaxTemp        string    `gorm:"type:varchar(20);not null;default:''"           json:"fridge_max_temp"`
	Notes                string    `gorm:"type:text;not null;default:''"                  json:"notes"`
	SubmittedBy          string    `gorm:"type:varchar(100);not null;default:''"          json:"submitted_by"`
	SubmittedAt          time.Time `gorm:"not null"                                       json:"submitted_at"`
	VersionedModel
}

// TableName 指定表名
func (ShiftReport) TableName() string { return "shift_reports" }

// ToReporting 转换为报表核心类型，日期落在 loc 时区的自然日
func (r *ShiftReport) ToReporting(loc *time.Location) (reporting.ShiftReport, error) {
	if loc == nil {
		loc = time.UTC
	}
	shift, err := reporting.ParseShift(r.Shift)
	if err != nil {
		return reporting.ShiftReport{}, fmt.Errorf("报表 %s: %w", r.ReportID, err)
	}
	y, m, d := r.ReportDate.Date()
	return reporting.ShiftReport{
		ID:         r.ReportID,
		Date:       time.Date(y, m, d, 0, 0, 0, 0, loc),
		Department: r.Department,
		Shift:      shift,
		Counts: reporting.Counts{
			StaffCount:           r.StaffCount,
			MOCount:              r.MOCount,
			SickLeave:            r.SickLeave,
			OPDCases:             r.OPDCases,
			ShortStayCases:       r.ShortStayCases,
			ReferralToBH:         r.ReferralToBH,
			RTACases:             r.RTACases,
			MLCCases:             r.MLCCases,
			EscortCases:          r.EscortCases,
			LAMACases:            r.LAMACases,
			DressingCases:        r.DressingCases,
			ReferralFromHHC:      r.ReferralFromHHC,
			CasesWithReferral:    r.CasesWithReferral,
			CasesWithoutReferral: r.CasesWithoutReferral,
		},
		FridgeMinTemp: r.FridgeMinTemp,
		FridgeMaxTemp: r.FridgeMaxTemp,
		Notes:         r.Notes,
		SubmittedBy:   r.SubmittedBy,
		SubmittedAt:   r.SubmittedAt,
	}, nil
}

// SetCounts 写入全部计数字段
func (r *ShiftReport) SetCounts(c reporting.Counts) {
	r.StaffCount = c.StaffCount
	r.MOCount = c.MOCount
	r.SickLeave = c.SickLeave
	r.OPDCases = c.OPDCases
	r.ShortStayCases = c.ShortStayCases
	r.ReferralToBH = c.ReferralToBH
	r.RTACases = c.RTACases
	r.MLCCases = c.MLCCases
	r.EscortCases = c.EscortCases
	r.LAMACases = c.LAMACases
	r.DressingCases = c.DressingCases
	r.ReferralFromHHC = c.ReferralFromHHC
	r.CasesWithReferral = c.CasesWithReferral
	r.CasesWithoutReferral = c.CasesWithoutReferral
}

// ToReportingSlice 批量转换，遇到无法识别的班次立即返回错误
func ToReportingSlice(rows []ShiftReport, loc *time.Location) ([]reporting.ShiftReport, error) {
	out := make([]reporting.ShiftReport, 0, len(rows))
	for i := range rows {
		r, err := rows[i].ToReporting(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
