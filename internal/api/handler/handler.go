package handler

import "github.com/SyberOman/testing-hospital/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Department *DepartmentHandler
	Report     *ReportHandler
	Status     *StatusHandler
	Summary    *SummaryHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Department: NewDepartmentHandler(svc.Department),
		Report:     NewReportHandler(svc.Report),
		Status:     NewStatusHandler(svc.Status),
		Summary:    NewSummaryHandler(svc.Summary),
		Export:     NewExportHandler(svc.Export),
	}
}
