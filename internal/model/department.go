package model

import "github.com/SyberOman/testing-hospital/internal/reporting"

// Department 科室表，对应表 departments
type Department struct {
	DepartmentID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Name           string `gorm:"type:varchar(50);not null"                      json:"name"`
	RequiredShifts int16  `gorm:"type:smallint;not null;default:0"               json:"required_shifts"` // 班次位掩码
	IsActive       bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// ToReporting 转换为报表核心的科室配置
func (d *Department) ToReporting() reporting.Department {
	return reporting.Department{
		ID:             d.DepartmentID,
		Name:           d.Name,
		RequiredShifts: reporting.ShiftSet(d.RequiredShifts) & reporting.FullShiftSet(),
		IsActive:       d.IsActive,
	}
}
