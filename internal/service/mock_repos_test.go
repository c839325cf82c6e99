package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SyberOman/testing-hospital/internal/model"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/repository"
	pkgerrors "github.com/SyberOman/testing-hospital/pkg/errors"
)

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	departments map[string]*model.Department
	seq         int
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{departments: make(map[string]*model.Department)}
}

func (m *mockDeptRepo) add(id, name string, shifts reporting.ShiftSet, active bool) *model.Department {
	d := &model.Department{DepartmentID: id, Name: name, RequiredShifts: int16(shifts), IsActive: active}
	d.Version = 1
	m.departments[id] = d
	return d
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	for _, d := range m.departments {
		if d.IsActive && dept.IsActive && strings.EqualFold(d.Name, dept.Name) {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if dept.DepartmentID == "" {
		m.seq++
		dept.DepartmentID = fmt.Sprintf("dept-%d", m.seq)
	}
	dept.Version = 1
	cp := *dept
	m.departments[dept.DepartmentID] = &cp
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.departments[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	var found *model.Department
	for _, d := range m.departments {
		if !strings.EqualFold(d.Name, name) {
			continue
		}
		if d.IsActive || found == nil {
			found = d
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockDeptRepo) List(ctx context.Context) ([]model.Department, error) {
	all, _ := m.ListAll(ctx)
	var result []model.Department
	for _, d := range all {
		if d.IsActive {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockDeptRepo) ListAll(_ context.Context) ([]model.Department, error) {
	result := make([]model.Department, 0, len(m.departments))
	for _, d := range m.departments {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DepartmentID < result[j].DepartmentID })
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	cur, ok := m.departments[dept.DepartmentID]
	if !ok || cur.Version != dept.Version {
		return pkgerrors.ErrOptimisticLock
	}
	dept.Version++
	cp := *dept
	m.departments[dept.DepartmentID] = &cp
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.departments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.departments, id)
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	depts *mockDeptRepo
	seq   int
}

func newMockUserRepo(depts *mockDeptRepo) *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), depts: depts}
}

func (m *mockUserRepo) withDepartment(u *model.User) *model.User {
	cp := *u
	cp.Department = nil
	if cp.DepartmentID != nil && m.depts != nil {
		if d, ok := m.depts.departments[*cp.DepartmentID]; ok {
			dc := *d
			cp.Department = &dc
		}
	}
	return &cp
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Username, user.Username) {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.Version = 1
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return m.withDepartment(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return m.withDepartment(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	cur, ok := m.users[user.UserID]
	if !ok || cur.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var matched []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.DepartmentID != "" && (u.DepartmentID == nil || *u.DepartmentID != filter.DepartmentID) {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(u.Username, filter.Keyword) && !strings.Contains(u.Name, filter.Keyword) {
			continue
		}
		matched = append(matched, *m.withDepartment(u))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

// ── Mock ShiftReportRepository ──

type mockShiftReportRepo struct {
	reports map[string]*model.ShiftReport
	seq     int
}

func newMockShiftReportRepo() *mockShiftReportRepo {
	return &mockShiftReportRepo{reports: make(map[string]*model.ShiftReport)}
}

// add 直接写入一条报表，绕过唯一键检查（用于构造重复数据）
func (m *mockShiftReportRepo) add(id, department, date, shift string, submittedAt time.Time, counts reporting.Counts) *model.ShiftReport {
	d, _ := time.Parse(reporting.DateLayout, date)
	r := &model.ShiftReport{
		ReportID:    id,
		ReportDate:  d,
		Department:  department,
		Shift:       shift,
		SubmittedAt: submittedAt,
	}
	r.SetCounts(counts)
	r.Version = 1
	m.reports[id] = r
	return r
}

func (m *mockShiftReportRepo) sameKey(a *model.ShiftReport, department string, date time.Time, shift string) bool {
	return strings.EqualFold(a.Department, department) &&
		reporting.DayString(a.ReportDate) == reporting.DayString(date) &&
		a.Shift == shift
}

func (m *mockShiftReportRepo) Create(_ context.Context, report *model.ShiftReport) error {
	for _, r := range m.reports {
		if m.sameKey(r, report.Department, report.ReportDate, report.Shift) {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if report.ReportID == "" {
		m.seq++
		report.ReportID = fmt.Sprintf("report-%03d", m.seq)
	}
	report.Version = 1
	cp := *report
	m.reports[report.ReportID] = &cp
	return nil
}

func (m *mockShiftReportRepo) GetByID(_ context.Context, id string) (*model.ShiftReport, error) {
	if r, ok := m.reports[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftReportRepo) GetByKey(_ context.Context, department string, date time.Time, shift string) (*model.ShiftReport, error) {
	for _, r := range m.reports {
		if m.sameKey(r, department, date, shift) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftReportRepo) List(_ context.Context, filter repository.ReportFilter) ([]model.ShiftReport, error) {
	var result []model.ShiftReport
	for _, r := range m.reports {
		day := reporting.DayString(r.ReportDate)
		if !filter.From.IsZero() && day < reporting.DayString(filter.From) {
			continue
		}
		if !filter.To.IsZero() && day > reporting.DayString(filter.To) {
			continue
		}
		if filter.Department != "" && !strings.EqualFold(r.Department, filter.Department) {
			continue
		}
		if filter.Shift != "" && r.Shift != filter.Shift {
			continue
		}
		if filter.HasNotes && strings.TrimSpace(r.Notes) == "" {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		di, dj := reporting.DayString(result[i].ReportDate), reporting.DayString(result[j].ReportDate)
		if di != dj {
			return di > dj
		}
		if result[i].Department != result[j].Department {
			return result[i].Department < result[j].Department
		}
		return result[i].Shift < result[j].Shift
	})
	return result, nil
}

func (m *mockShiftReportRepo) ListPage(ctx context.Context, filter repository.ReportFilter, offset, limit int) ([]model.ShiftReport, int64, error) {
	all, _ := m.List(ctx, filter)
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockShiftReportRepo) Update(_ context.Context, report *model.ShiftReport) error {
	cur, ok := m.reports[report.ReportID]
	if !ok || cur.Version != report.Version {
		return pkgerrors.ErrOptimisticLock
	}
	report.Version++
	cp := *report
	m.reports[report.ReportID] = &cp
	return nil
}

func (m *mockShiftReportRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.reports[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.reports, id)
	return nil
}

// ── Mock 黑名单与广播 ──

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.tokens[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.tokens[jti]
	return ok, nil
}

type mockNotifier struct {
	origins []string
}

func (m *mockNotifier) PublishDepartmentsChanged(_ context.Context, origin string) error {
	m.origins = append(m.origins, origin)
	return nil
}
