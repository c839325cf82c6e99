package reporting

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrConfigNotFound          = errors.New("科室配置不存在")
	ErrDuplicateDepartmentName = errors.New("科室名称已被启用中的科室使用")
	ErrInvalidDepartment       = errors.New("科室配置无效")
)

// Registry 科室班次配置注册表
//
// 单写多读：写操作持有写锁，读操作返回副本。
// 一次状态计算应使用 Snapshot() 的结果，避免计算过程中配置被修改。
type Registry struct {
	mu    sync.RWMutex
	order []string // 按插入顺序保存的科室 ID
	byID  map[string]Department
}

// NewRegistry 创建注册表，按给定顺序载入科室
func NewRegistry(depts ...Department) *Registry {
	r := &Registry{byID: make(map[string]Department)}
	for _, d := range depts {
		// 初始数据允许同名停用科室；冲突的启用科室直接跳过
		_ = r.upsertLocked(d)
	}
	return r
}

// GetConfig 按名称查找科室配置；同名时优先返回启用中的科室
func (r *Registry) GetConfig(name string) (Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found Department
		ok    bool
	)
	for _, id := range r.order {
		d := r.byID[id]
		if !strings.EqualFold(d.Name, name) {
			continue
		}
		if d.IsActive {
			return d, nil
		}
		if !ok {
			found, ok = d, true
		}
	}
	if !ok {
		return Department{}, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
	}
	return found, nil
}

func (r *Registry) GetByID(id string) (Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return Department{}, fmt.Errorf("%w: id=%s", ErrConfigNotFound, id)
	}
	return d, nil
}

// RequiredShifts 返回科室要求的班次；配置不存在时视为不要求任何班次
func (r *Registry) RequiredShifts(name string) ShiftSet {
	d, err := r.GetConfig(name)
	if err != nil || !d.IsActive {
		return 0
	}
	return d.RequiredShifts
}

// ListActive 按插入顺序返回所有启用中的科室
func (r *Registry) ListActive() []Department {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Department, 0, len(r.order))
	for _, id := range r.order {
		if d := r.byID[id]; d.IsActive {
			out = append(out, d)
		}
	}
	return out
}

// List 按插入顺序返回全部科室（含停用）
func (r *Registry) List() []Department {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Department, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Upsert 新增或整体替换科室配置
//
// 名称在启用科室间唯一；改名不会影响历史报表中保存的旧科室名。
func (r *Registry) Upsert(d Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertLocked(d)
}

func (r *Registry) upsertLocked(d Department) error {
	if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: ID 与名称不能为空", ErrInvalidDepartment)
	}
	if d.IsActive {
		for _, id := range r.order {
			other := r.byID[id]
			if id != d.ID && other.IsActive && strings.EqualFold(other.Name, d.Name) {
				return fmt.Errorf("%w: %s", ErrDuplicateDepartmentName, d.Name)
			}
		}
	}
	if _, exists := r.byID[d.ID]; !exists {
		r.order = append(r.order, d.ID)
	}
	r.byID[d.ID] = d
	return nil
}

// Delete 删除科室配置；不因科室仍启用或仍有班次要求而阻止删除
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: id=%s", ErrConfigNotFound, id)
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Replace 用新的完整科室列表替换当前内容（从存储层重新加载时使用）
func (r *Registry) Replace(depts []Department) error {
	next := NewRegistry()
	for _, d := range depts {
		if err := next.upsertLocked(d); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = next.order
	r.byID = next.byID
	return nil
}

// Snapshot 返回当前配置的只读副本
func (r *Registry) Snapshot() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := &Registry{
		order: make([]string, len(r.order)),
		byID:  make(map[string]Department, len(r.byID)),
	}
	copy(cp.order, r.order)
	for k, v := range r.byID {
		cp.byID[k] = v
	}
	return cp
}

// Len 科室总数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
