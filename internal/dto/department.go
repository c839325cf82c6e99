package dto

// ── 科室模块 DTO ──

// CreateDepartmentRequest 创建科室请求
// required_shifts 接受 morning/afternoon/night 或 M/A/N
type CreateDepartmentRequest struct {
	Name           string   `json:"name"            binding:"required,min=2,max=50"`
	RequiredShifts []string `json:"required_shifts" binding:"omitempty,max=3"`
	IsActive       *bool    `json:"is_active"`
}

// UpdateDepartmentRequest 更新科室请求（字段为空表示不修改）
type UpdateDepartmentRequest struct {
	Name           *string   `json:"name"            binding:"omitempty,min=2,max=50"`
	RequiredShifts *[]string `json:"required_shifts" binding:"omitempty,max=3"`
	IsActive       *bool     `json:"is_active"`
	Version        int       `json:"version"         binding:"omitempty,min=1"`
}

// DepartmentListRequest 科室列表查询参数
type DepartmentListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DepartmentDetailResponse 科室详细信息响应
type DepartmentDetailResponse struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	RequiredShifts     []string `json:"required_shifts"`
	RequiredShiftCodes []string `json:"required_shift_codes"`
	IsActive           bool     `json:"is_active"`
	Version            int      `json:"version"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// RequiredShiftsResponse 提交表单可选班次（GET /departments/shifts?name=）
type RequiredShiftsResponse struct {
	Department string   `json:"department"`
	Found      bool     `json:"found"`
	Shifts     []string `json:"shifts"`
	Codes      []string `json:"codes"`
}
