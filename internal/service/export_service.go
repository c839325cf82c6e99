package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoReports    = errors.New("所选区间内没有报表")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportDaily 报表明细 + 合计
	ExportDaily(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*bytes.Buffer, string, error)
	// ExportMonthly 按科室汇总，含冰箱平均温度
	ExportMonthly(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	query  reportQuery
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, registry *reporting.Registry, cal calendar, logger *zap.Logger) ExportService {
	return &exportService{
		query:  reportQuery{repo: repo, registry: registry, cal: cal},
		logger: logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportDaily 报表明细
// ═══════════════════════════════════════════════════════════
//
// Sheet "Reports"：每行一份报表，末行为合计
// Sheet "Summary"：字段合计、危重病例、转诊数

func (s *exportService) ExportDaily(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*bytes.Buffer, string, error) {
	res, err := s.query.run(ctx, q, caller, rangeToday)
	if err != nil {
		return nil, "", err
	}
	if len(res.Reports) == 0 {
		return nil, "", ErrExportNoReports
	}

	f := excelize.NewFile()
	defer f.Close()

	styles := newSheetStyles(f)

	// ── Reports ──
	sheet := "Reports"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Date", "Department", "Shift"}
	for _, fld := range reporting.AllFields {
		headers = append(headers, fld.Label())
	}
	headers = append(headers, "Fridge Min", "Fridge Max", "Notes", "Submitted By", "Submitted At")
	writeHeader(f, sheet, 1, headers, styles.header)

	row := 2
	for _, r := range res.Reports {
		values := []interface{}{reporting.DayString(r.Date), r.Department, r.Shift.Code()}
		for _, fld := range reporting.AllFields {
			values = append(values, r.Counts.Get(fld))
		}
		values = append(values,
			r.FridgeMinTemp, r.FridgeMaxTemp, r.Notes, r.SubmittedBy,
			r.SubmittedAt.In(s.query.cal.loc).Format("2006-01-02 15:04"),
		)
		writeRow(f, sheet, row, values)
		row++
	}

	totals := reporting.Aggregate(res.Reports)
	totalRow := []interface{}{"Total", "", ""}
	for _, fld := range reporting.AllFields {
		totalRow = append(totalRow, totals.Get(fld))
	}
	writeRow(f, sheet, row, totalRow)
	f.SetCellStyle(sheet, cell("A", row), cell(colName(len(totalRow)-1), row), styles.total)

	f.SetColWidth(sheet, "A", "C", 12)
	f.SetColWidth(sheet, "D", colName(len(headers)-1), 14)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	// ── Summary ──
	sum := "Summary"
	f.NewSheet(sum)
	writeHeader(f, sum, 1, []string{"Field", "Total"}, styles.header)
	row = 2
	for _, fld := range reporting.AllFields {
		writeRow(f, sum, row, []interface{}{fld.Label(), totals.Get(fld)})
		row++
	}
	writeRow(f, sum, row, []interface{}{"Total Critical Cases (RTA + MLC)", totals.CriticalCases()})
	writeRow(f, sum, row+1, []interface{}{"Total Referrals", totals.Referrals()})
	writeRow(f, sum, row+2, []interface{}{"Reports", totals.Reports})
	f.SetColWidth(sum, "A", "A", 34)

	filename := fmt.Sprintf("shift_reports_%s.xlsx", rangeLabel(res))
	return s.write(f, filename)
}

// ═══════════════════════════════════════════════════════════
// ExportMonthly 科室汇总
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportMonthly(ctx context.Context, q *dto.SummaryQuery, caller Caller) (*bytes.Buffer, string, error) {
	res, err := s.query.run(ctx, q, caller, rangeMonth)
	if err != nil {
		return nil, "", err
	}
	if len(res.Reports) == 0 {
		return nil, "", ErrExportNoReports
	}

	f := excelize.NewFile()
	defer f.Close()

	styles := newSheetStyles(f)
	sheet := "Monthly"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Department", "Reports"}
	for _, fld := range reporting.AllFields {
		headers = append(headers, fld.Label())
	}
	headers = append(headers, "Critical Cases", "Avg Fridge Min", "Avg Fridge Max")

	// 标题行
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Monthly Summary %s ~ %s", reporting.DayString(res.From), reporting.DayString(res.To)))
	f.MergeCell(sheet, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", styles.header)
	writeHeader(f, sheet, 2, headers, styles.header)

	var overall reporting.Totals
	row := 3
	for _, g := range reporting.GroupByDepartment(res.Reports) {
		overall = overall.Add(g.Totals)
		values := []interface{}{g.Department, g.Totals.Reports}
		for _, fld := range reporting.AllFields {
			values = append(values, g.Totals.Get(fld))
		}
		minTemp, maxTemp := "-", "-"
		if g.HasFridgeTemp {
			minTemp, maxTemp = g.AvgFridgeMin, g.AvgFridgeMax
		}
		values = append(values, g.Totals.CriticalCases(), minTemp, maxTemp)
		writeRow(f, sheet, row, values)
		row++
	}

	totalRow := []interface{}{"Total", overall.Reports}
	for _, fld := range reporting.AllFields {
		totalRow = append(totalRow, overall.Get(fld))
	}
	totalRow = append(totalRow, overall.CriticalCases())
	writeRow(f, sheet, row, totalRow)
	f.SetCellStyle(sheet, cell("A", row), cell(colName(len(totalRow)-1), row), styles.total)

	f.SetColWidth(sheet, "A", "A", 16)
	f.SetColWidth(sheet, "B", colName(len(headers)-1), 14)

	filename := fmt.Sprintf("monthly_summary_%s.xlsx", rangeLabel(res))
	return s.write(f, filename)
}

// ── 辅助函数 ──

func (s *exportService) write(f *excelize.File, filename string) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, filename, nil
}

type sheetStyles struct {
	header int
	total  int
}

func newSheetStyles(f *excelize.File) sheetStyles {
	header, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	total, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	return sheetStyles{header: header, total: total}
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheet, cell("A", row), cell(colName(len(headers)-1), row), style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		f.SetCellValue(sheet, cell(colName(i), row), v)
	}
}

func rangeLabel(res *queryResult) string {
	label := reporting.DayString(res.From)
	if !reporting.SameDay(res.From, res.To) {
		label += "_" + reporting.DayString(res.To)
	}
	if res.Department != "" {
		label = res.Department + "_" + label
	}
	return label
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
