package reporting

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNonNumericField 请求汇总的字段不是计数字段
var ErrNonNumericField = errors.New("字段不可求和")

// Field 可求和的计数字段，封闭枚举
type Field uint8

const (
	FieldStaffCount Field = iota
	FieldMOCount
	FieldSickLeave
	FieldOPDCases
	FieldShortStayCases
	FieldReferralToBH
	FieldRTACases
	FieldMLCCases
	FieldEscortCases
	FieldLAMACases
	FieldDressingCases
	FieldReferralFromHHC
	FieldCasesWithReferral
	FieldCasesWithoutReferral

	fieldCount
)

// AllFields 全部计数字段，顺序与导出列一致
var AllFields = [...]Field{
	FieldStaffCount,
	FieldMOCount,
	FieldSickLeave,
	FieldOPDCases,
	FieldShortStayCases,
	FieldReferralToBH,
	FieldRTACases,
	FieldMLCCases,
	FieldEscortCases,
	FieldLAMACases,
	FieldDressingCases,
	FieldReferralFromHHC,
	FieldCasesWithReferral,
	FieldCasesWithoutReferral,
}

var fieldNames = [fieldCount]string{
	"staffCount",
	"moCount",
	"sickLeave",
	"opdCases",
	"shortStayCases",
	"referralToBH",
	"rtaCases",
	"mlcCases",
	"escortCases",
	"lamaCases",
	"dressingCases",
	"referralFromHHC",
	"casesWithReferral",
	"casesWithoutReferral",
}

var fieldLabels = [fieldCount]string{
	"Staff Count",
	"Medical Officers",
	"Sick Leave",
	"OPD Cases",
	"Short Stay Cases",
	"Referral to BH",
	"RTA Cases",
	"MLC Cases",
	"Escort Cases",
	"LAMA Cases",
	"Dressing Cases",
	"Referral from HHC",
	"Cases with Referral",
	"Cases without Referral",
}

// String 返回字段的规范名称，如 "opdCases"
func (f Field) String() string {
	if f >= fieldCount {
		return fmt.Sprintf("field(%d)", uint8(f))
	}
	return fieldNames[f]
}

// Label 导出表头使用的显示名称
func (f Field) Label() string {
	if f >= fieldCount {
		return f.String()
	}
	return fieldLabels[f]
}

// ParseField 按名称解析字段，接受 camelCase 与 snake_case，大小写不敏感
func ParseField(name string) (Field, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for i, n := range fieldNames {
		if strings.ToLower(n) == norm {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNonNumericField, name)
}

// ── 求和 ──

// Sum 对报表的指定字段求和；空输入返回 0
func Sum(reports []ShiftReport, f Field) int64 {
	var total int64
	for i := range reports {
		total += int64(reports[i].Counts.Get(f))
	}
	return total
}

// SumByName 按字段名求和，非计数字段返回 ErrNonNumericField
func SumByName(reports []ShiftReport, name string) (int64, error) {
	f, err := ParseField(name)
	if err != nil {
		return 0, err
	}
	return Sum(reports, f), nil
}

// TotalCriticalCases RTA + MLC
func TotalCriticalCases(reports []ShiftReport) int64 {
	return Sum(reports, FieldRTACases) + Sum(reports, FieldMLCCases)
}

// TotalReferrals 转诊病例总数
func TotalReferrals(reports []ShiftReport) int64 {
	return Sum(reports, FieldCasesWithReferral)
}

// ── Totals ──

// Totals 一组报表的全部字段合计；可分片求和后用 Add 合并
type Totals struct {
	Reports int64
	values  [fieldCount]int64
}

// Aggregate 计算全部字段的合计
func Aggregate(reports []ShiftReport) Totals {
	var t Totals
	for i := range reports {
		t.AddReport(&reports[i])
	}
	return t
}

// AddReport 累加一份报表
func (t *Totals) AddReport(r *ShiftReport) {
	t.Reports++
	for _, f := range AllFields {
		t.values[f] += int64(r.Counts.Get(f))
	}
}

// Add 合并另一个分片的合计，满足结合律与交换律
func (t Totals) Add(other Totals) Totals {
	t.Reports += other.Reports
	for i := range t.values {
		t.values[i] += other.values[i]
	}
	return t
}

// Get 读取某字段合计
func (t Totals) Get(f Field) int64 {
	if f >= fieldCount {
		return 0
	}
	return t.values[f]
}

// CriticalCases RTA + MLC
func (t Totals) CriticalCases() int64 {
	return t.values[FieldRTACases] + t.values[FieldMLCCases]
}

// Referrals 转诊病例总数
func (t Totals) Referrals() int64 {
	return t.values[FieldCasesWithReferral]
}

// Map 以规范字段名为键导出合计
func (t Totals) Map() map[string]int64 {
	m := make(map[string]int64, fieldCount)
	for _, f := range AllFields {
		m[f.String()] = t.values[f]
	}
	return m
}

// ── 分组汇总 ──

// DepartmentTotals 单个科室的合计（月报视图）
type DepartmentTotals struct {
	Department    string
	Totals        Totals
	AvgFridgeMin  string
	AvgFridgeMax  string
	HasFridgeTemp bool
}

// GroupByDepartment 按科室分组求和，按科室名称排序
func GroupByDepartment(reports []ShiftReport) []DepartmentTotals {
	groups := make(map[string][]ShiftReport)
	for _, r := range reports {
		groups[r.Department] = append(groups[r.Department], r)
	}

	out := make([]DepartmentTotals, 0, len(groups))
	for name, rs := range groups {
		lo, hi, ok := AverageFridgeTemps(rs)
		out = append(out, DepartmentTotals{
			Department:    name,
			Totals:        Aggregate(rs),
			AvgFridgeMin:  lo,
			AvgFridgeMax:  hi,
			HasFridgeTemp: ok,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}

// DayTotals 单日合计（趋势视图）
type DayTotals struct {
	Date   string
	Totals Totals
}

// GroupByDay 按自然日分组求和，日期升序
func GroupByDay(reports []ShiftReport) []DayTotals {
	byDay := make(map[string]*Totals)
	for i := range reports {
		key := DayString(reports[i].Date)
		t, ok := byDay[key]
		if !ok {
			t = &Totals{}
			byDay[key] = t
		}
		t.AddReport(&reports[i])
	}

	out := make([]DayTotals, 0, len(byDay))
	for day, t := range byDay {
		out = append(out, DayTotals{Date: day, Totals: *t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// AverageFridgeTemps 计算冰箱最低/最高温度的平均值，保留一位小数
//
// 温度以十进制字符串保存，无法解析的值被忽略；两项均无有效值时 ok=false。
func AverageFridgeTemps(reports []ShiftReport) (avgMin, avgMax string, ok bool) {
	var (
		minSum, maxSum float64
		minN, maxN     int
	)
	for i := range reports {
		if v, err := strconv.ParseFloat(strings.TrimSpace(reports[i].FridgeMinTemp), 64); err == nil {
			minSum += v
			minN++
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(reports[i].FridgeMaxTemp), 64); err == nil {
			maxSum += v
			maxN++
		}
	}
	if minN == 0 && maxN == 0 {
		return "", "", false
	}
	if minN > 0 {
		avgMin = strconv.FormatFloat(minSum/float64(minN), 'f', 1, 64)
	}
	if maxN > 0 {
		avgMax = strconv.FormatFloat(maxSum/float64(maxN), 'f', 1, 64)
	}
	return avgMin, avgMax, true
}
