package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SyberOman/testing-hospital/internal/api/middleware"
	"github.com/SyberOman/testing-hospital/internal/service"
	"github.com/SyberOman/testing-hospital/pkg/jwt"
	"github.com/SyberOman/testing-hospital/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString("user_id")
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCaller 提取当前用户身份（user_id、role、department_id）
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role := c.GetString("role")
	if role == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:       userID,
		Role:         role,
		DepartmentID: c.GetString("department_id"),
	}, true
}

// GetClaims 提取 JWT 声明，未注入时返回 nil
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(middleware.ClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
