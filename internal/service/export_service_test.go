package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/reporting"
)

func TestExportService_ExportDaily(t *testing.T) {
	env := newTestEnv()
	seedSummaryReports(env)
	svc := env.exportService()

	buf, filename, err := svc.ExportDaily(context.Background(), &dto.SummaryQuery{}, adminCaller)
	if err != nil {
		t.Fatalf("ExportDaily 应成功: %v", err)
	}
	if filename != "shift_reports_2024-03-06.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开 xlsx 失败: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"A1": "Date",
		"D1": "Staff Count",
		"B2": "DERMA",
		"B3": "RESUS",
		"A4": "Total",
	}
	for c, want := range checks {
		if got, _ := f.GetCellValue("Reports", c); got != want {
			t.Errorf("Reports!%s 期望 %q，实际 %q", c, want, got)
		}
	}

	if got, _ := f.GetCellValue("Summary", "B16"); got != "3" {
		t.Errorf("危重病例合计期望 3，实际 %q", got)
	}
	if got, _ := f.GetCellValue("Summary", "B18"); got != "2" {
		t.Errorf("报表数期望 2，实际 %q", got)
	}
}

func TestExportService_ExportMonthly(t *testing.T) {
	env := newTestEnv()
	seedSummaryReports(env)
	svc := env.exportService()

	buf, filename, err := svc.ExportMonthly(context.Background(), &dto.SummaryQuery{}, adminCaller)
	if err != nil {
		t.Fatalf("ExportMonthly 应成功: %v", err)
	}
	if filename != "monthly_summary_2024-03-01_2024-03-06.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开 xlsx 失败: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue("Monthly", "A3"); got != "DERMA" {
		t.Errorf("A3 期望 DERMA，实际 %q", got)
	}
	// R 列：Avg Fridge Min
	if got, _ := f.GetCellValue("Monthly", "R3"); got != "-" {
		t.Errorf("DERMA 无温度记录应为 -，实际 %q", got)
	}
	if got, _ := f.GetCellValue("Monthly", "R4"); got != "2.5" {
		t.Errorf("RESUS 平均最低温度期望 2.5，实际 %q", got)
	}
	if got, _ := f.GetCellValue("Monthly", "A5"); got != "Total" {
		t.Errorf("A5 期望 Total，实际 %q", got)
	}
}

func TestExportService_NoReports(t *testing.T) {
	svc := newTestEnv().exportService()

	_, _, err := svc.ExportDaily(context.Background(), &dto.SummaryQuery{}, adminCaller)
	if !errors.Is(err, ErrExportNoReports) {
		t.Errorf("期望 ErrExportNoReports，实际: %v", err)
	}
}

func TestExportService_ScopedForDepartmentHead(t *testing.T) {
	env := newTestEnv()
	seedSummaryReports(env)
	svc := env.exportService()

	_, _, err := svc.ExportDaily(context.Background(), &dto.SummaryQuery{Department: "RESUS"}, dermaHead)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("导出其他科室期望 ErrForbidden，实际: %v", err)
	}

	buf, filename, err := svc.ExportDaily(context.Background(), &dto.SummaryQuery{}, dermaHead)
	if err != nil {
		t.Fatalf("ExportDaily 应成功: %v", err)
	}
	if filename != "shift_reports_DERMA_2024-03-06.xlsx" {
		t.Errorf("文件名应包含本科室，实际: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开 xlsx 失败: %v", err)
	}
	defer f.Close()
	if got, _ := f.GetCellValue("Reports", "A3"); got != "Total" {
		t.Errorf("只应导出 1 行 DERMA 报表，A3=%q", got)
	}
}

func TestExportService_InactiveDepartmentExcluded(t *testing.T) {
	env := newTestEnv()
	env.reports.add("r1", "OPTHALMO", "2024-03-06", "M", at(8), reporting.Counts{OPDCases: 9})
	svc := env.exportService()

	_, _, err := svc.ExportDaily(context.Background(), &dto.SummaryQuery{}, adminCaller)
	if !errors.Is(err, ErrExportNoReports) {
		t.Errorf("只有停用科室报表时期望 ErrExportNoReports，实际: %v", err)
	}
	_, _, err = svc.ExportMonthly(context.Background(), &dto.SummaryQuery{Department: "OPTHALMO"}, adminCaller)
	if !errors.Is(err, ErrDepartmentInactive) {
		t.Errorf("导出停用科室期望 ErrDepartmentInactive，实际: %v", err)
	}
}
