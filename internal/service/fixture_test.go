package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SyberOman/testing-hospital/internal/model"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/repository"
)

// ── 测试辅助 ──

// 测试时钟：2024-03-06 10:00 UTC
var testNow = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

var (
	adminCaller = Caller{UserID: "admin-1", Role: model.RoleAdmin}
	dermaHead   = Caller{UserID: "head-1", Role: model.RoleDepartmentHead, DepartmentID: "d2-derma"}
	orphanStaff = Caller{UserID: "staff-9", Role: model.RoleStaff}
)

type testEnv struct {
	repo     *repository.Repository
	depts    *mockDeptRepo
	users    *mockUserRepo
	reports  *mockShiftReportRepo
	registry *reporting.Registry
	cal      calendar
	deriver  *reporting.Deriver
	logger   *zap.Logger
}

// newTestEnv 预置四个科室：
// RESUS 三班、DERMA 早/午班、ANC 仅早班、OPTHALMO 停用
func newTestEnv() *testEnv {
	depts := newMockDeptRepo()
	depts.add("d1-resus", "RESUS", reporting.FullShiftSet(), true)
	depts.add("d2-derma", "DERMA", reporting.NewShiftSet(reporting.Morning, reporting.Afternoon), true)
	depts.add("d3-anc", "ANC", reporting.NewShiftSet(reporting.Morning), true)
	depts.add("d4-opthalmo", "OPTHALMO", reporting.FullShiftSet(), false)

	users := newMockUserRepo(depts)
	dermaID := "d2-derma"
	users.users["head-1"] = &model.User{
		UserID:       "head-1",
		Username:     "derma.head",
		Name:         "Dr. Ayesha",
		Role:         model.RoleDepartmentHead,
		DepartmentID: &dermaID,
		Status:       model.UserStatusActive,
	}
	users.users["head-1"].Version = 1

	reports := newMockShiftReportRepo()
	repo := &repository.Repository{
		User:        users,
		Department:  depts,
		ShiftReport: reports,
	}

	all, _ := depts.ListAll(context.Background())
	configs := make([]reporting.Department, 0, len(all))
	for i := range all {
		configs = append(configs, all[i].ToReporting())
	}

	cal := newCalendar(time.UTC, func() time.Time { return testNow })
	return &testEnv{
		repo:     repo,
		depts:    depts,
		users:    users,
		reports:  reports,
		registry: reporting.NewRegistry(configs...),
		cal:      cal,
		deriver:  reporting.NewDeriver(30, cal.now),
		logger:   zap.NewNop(),
	}
}

func (e *testEnv) reportService() ReportService {
	return NewReportService(e.repo, e.registry, e.cal, e.logger)
}

func (e *testEnv) statusService() StatusService {
	return NewStatusService(e.repo, e.registry, e.deriver, e.cal, e.logger)
}

func (e *testEnv) summaryService() SummaryService {
	return NewSummaryService(e.repo, e.registry, e.cal, e.logger)
}

func (e *testEnv) exportService() ExportService {
	return NewExportService(e.repo, e.registry, e.cal, e.logger)
}

func (e *testEnv) departmentService(notifier DepartmentNotifier) DepartmentService {
	return NewDepartmentService(e.repo, e.registry, notifier, "instance-a", e.logger)
}

// at 返回 testNow 当天的指定时刻
func at(hour int) time.Time {
	return time.Date(2024, 3, 6, hour, 0, 0, 0, time.UTC)
}
