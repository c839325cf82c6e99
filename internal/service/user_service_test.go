package service

import (
	"context"
	"errors"
	"testing"
	"unicode"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/model"
)

func setupTestUserService() (UserService, *testEnv) {
	env := newTestEnv()
	return NewUserService(env.repo, env.logger), env
}

// ── Create 测试 ──

func TestUserService_Create(t *testing.T) {
	svc, _ := setupTestUserService()

	result, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Username:     "resus.staff",
		Name:         "Nurse Sana",
		Password:     "password123",
		Role:         model.RoleStaff,
		DepartmentID: "d1-resus",
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Department == nil || result.Department.Name != "RESUS" {
		t.Errorf("期望关联 RESUS，实际=%+v", result.Department)
	}
	if !result.MustChangePassword {
		t.Error("新用户首次登录须修改密码")
	}
}

func TestUserService_Create_Errors(t *testing.T) {
	cases := []struct {
		name string
		req  dto.CreateUserRequest
		want error
	}{
		{"用户名重复", dto.CreateUserRequest{Username: "DERMA.HEAD", Role: model.RoleStaff, DepartmentID: "d2-derma"}, ErrUsernameExists},
		{"员工未关联科室", dto.CreateUserRequest{Username: "new.staff", Role: model.RoleStaff}, ErrDepartmentRequired},
		{"科室不存在", dto.CreateUserRequest{Username: "new.staff", Role: model.RoleStaff, DepartmentID: "d9-none"}, ErrDepartmentNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := setupTestUserService()
			tc.req.Name, tc.req.Password = "Someone", "password123"
			_, err := svc.Create(context.Background(), &tc.req, "admin-1")
			if !errors.Is(err, tc.want) {
				t.Errorf("期望 %v，实际: %v", tc.want, err)
			}
		})
	}

	// 管理员可以不关联科室
	svc, _ := setupTestUserService()
	_, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Username: "root", Name: "Admin", Password: "password123", Role: model.RoleAdmin,
	}, "admin-1")
	if err != nil {
		t.Errorf("管理员无需科室: %v", err)
	}
}

// ── List 测试 ──

func TestUserService_List(t *testing.T) {
	svc, env := setupTestUserService()
	createTestUser(env, "imran", "password123")

	users, total, err := svc.List(context.Background(), &dto.UserListRequest{DepartmentID: "d1-resus"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || users[0].Username != "imran" {
		t.Errorf("期望仅 imran，实际 total=%d", total)
	}
}

// ── Update 测试 ──

func TestUserService_Update(t *testing.T) {
	svc, env := setupTestUserService()
	createTestUser(env, "imran", "password123")

	dept := "d2-derma"
	role := model.RoleDepartmentHead
	result, err := svc.Update(context.Background(), "user-imran", &dto.UpdateUserRequest{DepartmentID: &dept, Role: &role}, "admin-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Role != model.RoleDepartmentHead || result.Department.Name != "DERMA" {
		t.Errorf("更新结果不符: %+v", result)
	}

	// 不能修改自己的角色
	if _, err := svc.Update(context.Background(), "head-1", &dto.UpdateUserRequest{Role: &role}, "head-1"); !errors.Is(err, ErrUserSelfRoleChange) {
		t.Errorf("期望 ErrUserSelfRoleChange，实际: %v", err)
	}

	// 清空科室的非管理员
	empty := ""
	if _, err := svc.Update(context.Background(), "user-imran", &dto.UpdateUserRequest{DepartmentID: &empty}, "admin-1"); !errors.Is(err, ErrDepartmentRequired) {
		t.Errorf("期望 ErrDepartmentRequired，实际: %v", err)
	}
}

// ── Delete / ResetPassword 测试 ──

func TestUserService_Delete(t *testing.T) {
	svc, env := setupTestUserService()
	createTestUser(env, "imran", "password123")

	if err := svc.Delete(context.Background(), "admin-1", "admin-1"); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), "user-imran", "admin-1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if err := svc.Delete(context.Background(), "user-imran", "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestUserService_ResetPassword(t *testing.T) {
	svc, env := setupTestUserService()
	createTestUser(env, "imran", "password123")

	result, err := svc.ResetPassword(context.Background(), "user-imran", "admin-1")
	if err != nil {
		t.Fatalf("ResetPassword 应成功: %v", err)
	}
	if len(result.TempPassword) != 10 {
		t.Errorf("期望临时密码长度 10，实际=%d", len(result.TempPassword))
	}
	if !env.users.users["user-imran"].MustChangePassword {
		t.Error("重置后应要求修改密码")
	}
}

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd, err := generateTempPassword(4)
		if err != nil {
			t.Fatalf("生成失败: %v", err)
		}
		if len(pwd) != 8 {
			t.Fatalf("最短长度应为 8，实际=%d", len(pwd))
		}
		var hasLetter, hasDigit bool
		for _, r := range pwd {
			hasLetter = hasLetter || unicode.IsLetter(r)
			hasDigit = hasDigit || unicode.IsDigit(r)
		}
		if !hasLetter || !hasDigit {
			t.Errorf("临时密码应同时包含字母和数字: %s", pwd)
		}
	}
}
