package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SyberOman/testing-hospital/internal/dto"
	"github.com/SyberOman/testing-hospital/internal/model"
	"github.com/SyberOman/testing-hospital/internal/reporting"
	"github.com/SyberOman/testing-hospital/internal/repository"
	pkgerrors "github.com/SyberOman/testing-hospital/pkg/errors"
)

// ── 科室模块业务错误 ──

var (
	ErrDepartmentNotFound   = errors.New("科室不存在")
	ErrDepartmentNameExists = errors.New("科室名称已存在")
	ErrDepartmentInactive   = errors.New("科室已停用")
)

// DepartmentService 科室业务接口
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error)
	List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	// Delete 删除科室，不受是否启用或是否有要求班次限制；历史报表保留
	Delete(ctx context.Context, id string, callerID string) error
	// RequiredShifts 提交表单可选班次；科室不存在或停用时为空
	RequiredShifts(name string) *dto.RequiredShiftsResponse
	// Reload 从数据库重新载入科室注册表
	Reload(ctx context.Context) error
}

type departmentService struct {
	repo       *repository.Repository
	registry   *reporting.Registry
	notifier   DepartmentNotifier
	instanceID string
	logger     *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(
	repo *repository.Repository,
	registry *reporting.Registry,
	notifier DepartmentNotifier,
	instanceID string,
	logger *zap.Logger,
) DepartmentService {
	return &departmentService{
		repo:       repo,
		registry:   registry,
		notifier:   notifier,
		instanceID: instanceID,
		logger:     logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	name := strings.TrimSpace(req.Name)
	shifts, err := reporting.ParseShiftSet(req.RequiredShifts)
	if err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	if active {
		if existing, err := s.registry.GetConfig(name); err == nil && existing.IsActive {
			return nil, ErrDepartmentNameExists
		}
	}

	dept := &model.Department{
		Name:           name,
		RequiredShifts: int16(shifts),
		IsActive:       active,
	}
	dept.CreatedBy = model.StrPtr(callerID)
	dept.UpdatedBy = model.StrPtr(callerID)

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrDepartmentNameExists
		}
		s.logger.Error("创建科室失败", zap.Error(err))
		return nil, err
	}

	s.syncRegistry(ctx, dept.ToReporting())
	s.logger.Info("科室已创建",
		zap.String("department_id", dept.DepartmentID),
		zap.String("name", dept.Name),
		zap.Strings("required_shifts", shifts.Names()),
	)
	return toDepartmentDetailResponse(dept), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询科室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toDepartmentDetailResponse(dept), nil
}

// ────────────────────── List ──────────────────────

func (s *departmentService) List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error) {
	var depts []model.Department
	var err error

	if req.IncludeInactive {
		depts, err = s.repo.Department.ListAll(ctx)
	} else {
		depts, err = s.repo.Department.List(ctx)
	}
	if err != nil {
		s.logger.Error("列出科室失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentDetailResponse, 0, len(depts))
	for i := range depts {
		result = append(result, *toDepartmentDetailResponse(&depts[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询科室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		dept.Name = strings.TrimSpace(*req.Name)
	}
	if req.RequiredShifts != nil {
		shifts, err := reporting.ParseShiftSet(*req.RequiredShifts)
		if err != nil {
			return nil, err
		}
		dept.RequiredShifts = int16(shifts)
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	if req.Version > 0 {
		dept.Version = req.Version
	}

	// 启用状态下名称不能与其他启用科室重复
	if dept.IsActive {
		if existing, err := s.registry.GetConfig(dept.Name); err == nil && existing.IsActive && existing.ID != dept.DepartmentID {
			return nil, ErrDepartmentNameExists
		}
	}
	dept.UpdatedBy = model.StrPtr(callerID)

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrDepartmentNameExists
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新科室失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.syncRegistry(ctx, dept.ToReporting())
	return toDepartmentDetailResponse(dept), nil
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, id string, callerID string) error {
	if err := s.repo.Department.Delete(ctx, id, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		s.logger.Error("删除科室失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.registry.Delete(id); err != nil && !errors.Is(err, reporting.ErrConfigNotFound) {
		s.logger.Warn("注册表删除科室失败", zap.String("id", id), zap.Error(err))
	}
	s.publish(ctx)
	s.logger.Info("科室已删除", zap.String("department_id", id), zap.String("by", callerID))
	return nil
}

// ────────────────────── RequiredShifts ──────────────────────

func (s *departmentService) RequiredShifts(name string) *dto.RequiredShiftsResponse {
	resp := &dto.RequiredShiftsResponse{Department: name, Shifts: []string{}, Codes: []string{}}
	d, err := s.registry.GetConfig(name)
	if err != nil {
		return resp
	}
	resp.Department = d.Name
	resp.Found = true
	set := s.registry.RequiredShifts(d.Name)
	resp.Shifts = set.Names()
	resp.Codes = set.Codes()
	return resp
}

// ────────────────────── Reload ──────────────────────

func (s *departmentService) Reload(ctx context.Context) error {
	depts, err := s.repo.Department.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("载入科室失败: %w", err)
	}

	configs := make([]reporting.Department, 0, len(depts))
	for i := range depts {
		configs = append(configs, depts[i].ToReporting())
	}
	if err := s.registry.Replace(configs); err != nil {
		s.logger.Error("科室注册表替换失败", zap.Error(err))
		return err
	}

	s.logger.Info("科室注册表已载入",
		zap.Int("total", s.registry.Len()),
		zap.Int("active", len(s.registry.ListActive())),
	)
	return nil
}

// ── 内部方法 ──

// syncRegistry 写入注册表，失败时整体重载
func (s *departmentService) syncRegistry(ctx context.Context, d reporting.Department) {
	if err := s.registry.Upsert(d); err != nil {
		s.logger.Warn("注册表更新失败，重新载入", zap.String("name", d.Name), zap.Error(err))
		if err := s.Reload(ctx); err != nil {
			s.logger.Error("重新载入科室注册表失败", zap.Error(err))
		}
	}
	s.publish(ctx)
}

func (s *departmentService) publish(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishDepartmentsChanged(ctx, s.instanceID); err != nil {
		s.logger.Warn("广播科室变更失败", zap.Error(err))
	}
}

func toDepartmentDetailResponse(d *model.Department) *dto.DepartmentDetailResponse {
	set := d.ToReporting().RequiredShifts
	return &dto.DepartmentDetailResponse{
		ID:                 d.DepartmentID,
		Name:               d.Name,
		RequiredShifts:     set.Names(),
		RequiredShiftCodes: set.Codes(),
		IsActive:           d.IsActive,
		Version:            d.Version,
		CreatedAt:          d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:          d.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
