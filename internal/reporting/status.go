package reporting

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultLookback 逾期天数回溯上限（天）
const DefaultLookback = 30

// MaxRangeDays DeriveRange 单次允许的最大天数
const MaxRangeDays = 366

// ErrInvalidDateRange 目标日期在未来，或区间非法
var ErrInvalidDateRange = errors.New("无效的日期范围")

// ShiftStatus 某科室某日某班次的派生状态，从不持久化
type ShiftStatus string

const (
	StatusSubmitted   ShiftStatus = "submitted"
	StatusPending     ShiftStatus = "pending"
	StatusNotRequired ShiftStatus = "not_required"
	StatusMissing     ShiftStatus = "missing"
)

// DuplicateReportConflict 同一 (科室, 日期, 班次) 存在多份报表
//
// 取舍规则：SubmittedAt 最晚者胜出；SubmittedAt 相同时 ID 字典序较大者胜出。
type DuplicateReportConflict struct {
	Key       ReportKey `json:"-"`
	Date      string    `json:"date"`
	Shift     Shift     `json:"shift"`
	ReportIDs []string  `json:"report_ids"`
	KeptID    string    `json:"kept_id"`
}

func (c DuplicateReportConflict) Error() string {
	return fmt.Sprintf("重复报表 %s: %s，保留 %s", c.Key, strings.Join(c.ReportIDs, ","), c.KeptID)
}

// ShiftState 单个班次的状态明细
type ShiftState struct {
	Shift       Shift       `json:"shift"`
	Status      ShiftStatus `json:"status"`
	ReportID    string      `json:"report_id,omitempty"`
	SubmittedAt *time.Time  `json:"submitted_at,omitempty"`
	Overdue     int         `json:"overdue"`
	PendingDays []string    `json:"pending_days,omitempty"` // 最近的日期在前
}

// DepartmentStatus 某科室在目标日期的三个班次状态
type DepartmentStatus struct {
	Department string                    `json:"department"`
	Date       string                    `json:"date"`
	Shifts     [3]ShiftState             `json:"shifts"`
	Conflicts  []DuplicateReportConflict `json:"conflicts,omitempty"`
}

func (s *DepartmentStatus) Status(sh Shift) ShiftStatus {
	if !sh.Valid() {
		return ""
	}
	return s.Shifts[sh].Status
}

func (s *DepartmentStatus) Overdue(sh Shift) int {
	if !sh.Valid() {
		return 0
	}
	return s.Shifts[sh].Overdue
}

func (s *DepartmentStatus) PendingDays(sh Shift) []string {
	if !sh.Valid() {
		return nil
	}
	return s.Shifts[sh].PendingDays
}

func (s *DepartmentStatus) SubmittedAt(sh Shift) *time.Time {
	if !sh.Valid() {
		return nil
	}
	return s.Shifts[sh].SubmittedAt
}

// PendingCount 待提交班次数
func (s *DepartmentStatus) PendingCount() int {
	return s.count(StatusPending)
}

// SubmittedCount 已提交班次数
func (s *DepartmentStatus) SubmittedCount() int {
	return s.count(StatusSubmitted)
}

func (s *DepartmentStatus) count(st ShiftStatus) int {
	n := 0
	for _, sh := range s.Shifts {
		if sh.Status == st {
			n++
		}
	}
	return n
}

// HasConflicts 是否检测到重复报表
func (s *DepartmentStatus) HasConflicts() bool {
	return len(s.Conflicts) > 0
}

// DayStatus 区间视图中某一天的三个班次状态
type DayStatus struct {
	Date   string         `json:"date"`
	Shifts [3]ShiftStatus `json:"shifts"`
}

// ── Deriver ──

// Deriver 状态推导器，无内部可变状态，可并发使用
type Deriver struct {
	// Lookback 逾期回溯上限（天），<=0 时使用 DefaultLookback
	Lookback int
	// Now 当前时间来源，为 nil 时使用 time.Now
	Now func() time.Time
}

// NewDeriver 创建推导器
func NewDeriver(lookback int, now func() time.Time) *Deriver {
	return &Deriver{Lookback: lookback, Now: now}
}

func (d *Deriver) lookback() int {
	if d == nil || d.Lookback <= 0 {
		return DefaultLookback
	}
	return d.Lookback
}

func (d *Deriver) today(loc *time.Location) string {
	now := time.Now
	if d != nil && d.Now != nil {
		now = d.Now
	}
	return DayString(now().In(loc))
}

// DeriveStatus 计算科室在 targetDate 的班次状态
//
// reports 可以包含其他科室的数据，按科室名称过滤。
// targetDate 晚于今天时返回 ErrInvalidDateRange。
// 重复报表按 DuplicateReportConflict 的规则取舍，并记录在 Conflicts 中，不作为错误返回。
func (d *Deriver) DeriveStatus(dept Department, targetDate time.Time, reports []ShiftReport) (DepartmentStatus, error) {
	target := DayString(targetDate)
	if target > d.today(targetDate.Location()) {
		return DepartmentStatus{}, fmt.Errorf("%w: %s 晚于今天", ErrInvalidDateRange, target)
	}

	index, conflicts := indexReports(dept.Name, reports)
	result := DepartmentStatus{
		Department: dept.Name,
		Date:       target,
		Conflicts:  conflicts,
	}

	for _, sh := range AllShifts {
		state := ShiftState{Shift: sh, Status: StatusNotRequired}
		if !dept.RequiredShifts.Has(sh) {
			result.Shifts[sh] = state
			continue
		}

		if r, ok := index[dayShift{day: target, shift: sh}]; ok {
			at := r.SubmittedAt
			state.Status = StatusSubmitted
			state.ReportID = r.ID
			state.SubmittedAt = &at
			result.Shifts[sh] = state
			continue
		}

		state.Status = StatusPending
		state.Overdue, state.PendingDays = d.scanOverdue(index, targetDate, sh)
		result.Shifts[sh] = state
	}

	return result, nil
}

// scanOverdue 从 targetDate 起逐日回溯，统计连续缺报天数，遇到已提交的日期或达到上限即停止
func (d *Deriver) scanOverdue(index map[dayShift]ShiftReport, targetDate time.Time, sh Shift) (int, []string) {
	limit := d.lookback()
	start := Day(targetDate)
	days := make([]string, 0, 4)
	for i := 0; i < limit; i++ {
		day := DayString(start.AddDate(0, 0, -i))
		if _, ok := index[dayShift{day: day, shift: sh}]; ok {
			break
		}
		days = append(days, day)
	}
	return len(days), days
}

// DeriveBoard 计算所有启用科室在 targetDate 的状态，顺序与注册表插入顺序一致
func (d *Deriver) DeriveBoard(reg *Registry, targetDate time.Time, reports []ShiftReport) ([]DepartmentStatus, error) {
	snap := reg.Snapshot()
	active := snap.ListActive()
	out := make([]DepartmentStatus, 0, len(active))
	for _, dept := range active {
		st, err := d.DeriveStatus(dept, targetDate, reports)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// DeriveRange 逐日计算 [from, to] 区间内的班次状态
//
// 今天之前的缺报班次为 missing，今天的缺报班次为 pending。
func (d *Deriver) DeriveRange(dept Department, from, to time.Time, reports []ShiftReport) ([]DayStatus, []DuplicateReportConflict, error) {
	start, end := Day(from), Day(to)
	if end.Before(start) {
		return nil, nil, fmt.Errorf("%w: 开始日期晚于结束日期", ErrInvalidDateRange)
	}
	today := d.today(to.Location())
	if DayString(end) > today {
		return nil, nil, fmt.Errorf("%w: %s 晚于今天", ErrInvalidDateRange, DayString(end))
	}

	index, conflicts := indexReports(dept.Name, reports)
	var days []DayStatus
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if len(days) >= MaxRangeDays {
			return nil, nil, fmt.Errorf("%w: 区间超过 %d 天", ErrInvalidDateRange, MaxRangeDays)
		}
		key := DayString(day)
		ds := DayStatus{Date: key}
		for _, sh := range AllShifts {
			switch {
			case !dept.RequiredShifts.Has(sh):
				ds.Shifts[sh] = StatusNotRequired
			case hasReport(index, key, sh):
				ds.Shifts[sh] = StatusSubmitted
			case key == today:
				ds.Shifts[sh] = StatusPending
			default:
				ds.Shifts[sh] = StatusMissing
			}
		}
		days = append(days, ds)
	}
	return days, conflicts, nil
}

// ── 报表索引 ──

type dayShift struct {
	day   string
	shift Shift
}

func hasReport(index map[dayShift]ShiftReport, day string, sh Shift) bool {
	_, ok := index[dayShift{day: day, shift: sh}]
	return ok
}

// indexReports 按 (日期, 班次) 索引指定科室的报表，并按取舍规则处理重复
func indexReports(department string, reports []ShiftReport) (map[dayShift]ShiftReport, []DuplicateReportConflict) {
	index := make(map[dayShift]ShiftReport)
	dupIDs := make(map[dayShift][]string)

	for _, r := range reports {
		if !strings.EqualFold(r.Department, department) || !r.Shift.Valid() {
			continue
		}
		key := dayShift{day: DayString(r.Date), shift: r.Shift}
		cur, exists := index[key]
		if !exists {
			index[key] = r
			continue
		}
		if len(dupIDs[key]) == 0 {
			dupIDs[key] = append(dupIDs[key], cur.ID)
		}
		dupIDs[key] = append(dupIDs[key], r.ID)
		if newer(r, cur) {
			index[key] = r
		}
	}

	if len(dupIDs) == 0 {
		return index, nil
	}

	conflicts := make([]DuplicateReportConflict, 0, len(dupIDs))
	for key, ids := range dupIDs {
		sort.Strings(ids)
		conflicts = append(conflicts, DuplicateReportConflict{
			Key:       ReportKey{Department: department, Day: key.day, Shift: key.shift},
			Date:      key.day,
			Shift:     key.shift,
			ReportIDs: ids,
			KeptID:    index[key].ID,
		})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Date != conflicts[j].Date {
			return conflicts[i].Date > conflicts[j].Date
		}
		return conflicts[i].Shift < conflicts[j].Shift
	})
	return index, conflicts
}

// newer 判断 a 是否应取代 b
func newer(a, b ShiftReport) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.After(b.SubmittedAt)
	}
	return a.ID > b.ID
}
