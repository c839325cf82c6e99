package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Role         string `form:"role"          binding:"omitempty,oneof=admin department_head staff"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
}

// CreateUserRequest 创建用户请求（管理员）
type CreateUserRequest struct {
	Username     string `json:"username"      binding:"required,min=3,max=50"`
	Name         string `json:"name"          binding:"required,min=2,max=100"`
	Email        string `json:"email"         binding:"omitempty,email"`
	Password     string `json:"password"      binding:"required,min=8,max=64"`
	Role         string `json:"role"          binding:"required,oneof=admin department_head staff"`
	DepartmentID string `json:"department_id" binding:"omitempty,uuid"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=2,max=100"`
	Email        *string `json:"email"         binding:"omitempty,email"`
	Role         *string `json:"role"          binding:"omitempty,oneof=admin department_head staff"`
	DepartmentID *string `json:"department_id" binding:"omitempty"`
	Status       *string `json:"status"        binding:"omitempty,oneof=active inactive"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}
