package dto

// ── 汇总统计 DTO ──

// SummaryQuery 汇总查询参数，from/to 为空时取今天
type SummaryQuery struct {
	From       string `form:"from"`
	To         string `form:"to"`
	Department string `form:"department" binding:"omitempty,max=50"`
	Shift      string `form:"shift"`
}

// SumQuery 单字段求和查询参数
type SumQuery struct {
	SummaryQuery
	Field string `form:"field" binding:"required"`
}

// TotalsResponse 计数字段合计
type TotalsResponse struct {
	Reports       int64            `json:"reports"`
	Fields        map[string]int64 `json:"fields"`
	CriticalCases int64            `json:"critical_cases"`
	Referrals     int64            `json:"referrals"`
}

// DailySummaryResponse 按条件汇总
type DailySummaryResponse struct {
	From       string         `json:"from"`
	To         string         `json:"to"`
	Department string         `json:"department,omitempty"`
	Shift      string         `json:"shift,omitempty"`
	Totals     TotalsResponse `json:"totals"`
}

// DepartmentSummaryResponse 单科室月度汇总
type DepartmentSummaryResponse struct {
	Department   string         `json:"department"`
	Totals       TotalsResponse `json:"totals"`
	AvgFridgeMin string         `json:"avg_fridge_min,omitempty"`
	AvgFridgeMax string         `json:"avg_fridge_max,omitempty"`
}

// MonthlySummaryResponse 按科室分组的区间汇总
type MonthlySummaryResponse struct {
	From        string                      `json:"from"`
	To          string                      `json:"to"`
	Departments []DepartmentSummaryResponse `json:"departments"`
	Overall     TotalsResponse              `json:"overall"`
}

// DayTotalsResponse 趋势中的一天
type DayTotalsResponse struct {
	Date   string         `json:"date"`
	Totals TotalsResponse `json:"totals"`
}

// TrendResponse 按日趋势
type TrendResponse struct {
	From       string              `json:"from"`
	To         string              `json:"to"`
	Department string              `json:"department,omitempty"`
	Days       []DayTotalsResponse `json:"days"`
}

// SumResponse 单字段求和结果
type SumResponse struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Total int64  `json:"total"`
}
