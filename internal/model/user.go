package model

// 用户角色
const (
	RoleAdmin          = "admin"
	RoleDepartmentHead = "department_head"
	RoleStaff          = "staff"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User 用户表，对应表 users
type User struct {
	UserID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username           string  `gorm:"type:varchar(50);not null"                      json:"username"`
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string  `gorm:"type:varchar(255);not null;default:''"          json:"email"`
	PasswordHash       string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string  `gorm:"type:varchar(20);not null;default:'staff'"      json:"role"`
	DepartmentID       *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	Status             string  `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	MustChangePassword bool    `gorm:"not null;default:false"                         json:"must_change_password"`
	VersionedModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// DepartmentName 所属科室名称，未关联时为空
func (u *User) DepartmentName() string {
	if u.Department == nil {
		return ""
	}
	return u.Department.Name
}
