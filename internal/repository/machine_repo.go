package repository

import (
	"context"

	"ParcSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MachineFilter 机器列表筛选
type MachineFilter struct {
	SerialNumber string // 精确序列号
	Search       string // serial/model/客户名 模糊搜索
}

// InspectionCacheUpdate 巡检装载器对 machines 去范式缓存字段的重写载荷
type InspectionCacheUpdate struct {
	MachineID uint64
	LastVisit *string
	PSIStatus *string
}

// MachineRepository 机器主档仓储
type MachineRepository interface {
	// UpsertAuthoritative 主表 upsert：冲突时只覆盖可变字段（保养计数、状态、坐标、客户关联）。
	// 只有主表有权覆盖这些核心字段。
	UpsertAuthoritative(ctx context.Context, machines []*model.Machine, batchSize int) error
	// UpsertStubs 附表引用未知序列号时的最小机器行，冲突时什么都不做，
	// 避免覆盖并发/先行的主表数据
	UpsertStubs(ctx context.Context, stubs []*model.Machine) error
	// SerialSet 当前全部序列号集合（装载器阶段间刷新协调上下文用）
	SerialSet(ctx context.Context) (map[string]struct{}, error)
	// MapSerialToID 序列号 → 内部ID
	MapSerialToID(ctx context.Context) (map[string]uint64, error)
	// RewriteInspectionCache 重写 last_visit/psi_status 缓存（与巡检记录替换同事务）
	RewriteInspectionCache(ctx context.Context, updates []InspectionCacheUpdate) error
	// List 机器列表（预加载全部关联，供状态推导）
	List(ctx context.Context, filter MachineFilter, limit, offset int) ([]*model.Machine, error)
	// GetBySerial 单台机器（预加载全部关联）
	GetBySerial(ctx context.Context, serial string) (*model.Machine, error)
}

type machineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) MachineRepository {
	return &machineRepository{db: db}
}

func (r *machineRepository) UpsertAuthoritative(ctx context.Context, machines []*model.Machine, batchSize int) error {
	if len(machines) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "serial_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"service_meter", "last_reported_time", "status",
			"latitude", "longitude", "client_id", "updated_at",
		}),
	}).CreateInBatches(machines, batchSize).Error
}

func (r *machineRepository) UpsertStubs(ctx context.Context, stubs []*model.Machine) error {
	if len(stubs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "serial_number"}},
		DoNothing: true,
	}).Create(stubs).Error
}

func (r *machineRepository) SerialSet(ctx context.Context) (map[string]struct{}, error) {
	var serials []string
	if err := r.db.WithContext(ctx).Model(&model.Machine{}).
		Pluck("serial_number", &serials).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(serials))
	for _, s := range serials {
		set[s] = struct{}{}
	}
	return set, nil
}

func (r *machineRepository) MapSerialToID(ctx context.Context) (map[string]uint64, error) {
	var rows []model.Machine
	if err := r.db.WithContext(ctx).Select("id", "serial_number").Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]uint64, len(rows))
	for _, mc := range rows {
		m[mc.SerialNumber] = mc.ID
	}
	return m, nil
}

func (r *machineRepository) RewriteInspectionCache(ctx context.Context, updates []InspectionCacheUpdate) error {
	for _, u := range updates {
		if err := r.db.WithContext(ctx).Model(&model.Machine{}).
			Where("id = ?", u.MachineID).
			Updates(map[string]interface{}{
				"last_visit": u.LastVisit,
				"psi_status": u.PSIStatus,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *machineRepository) preloadAll(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Client").
		Preload("Contract").
		Preload("Inspections").
		Preload("Campaigns").
		Preload("Remote").
		Preload("Interventions")
}

func (r *machineRepository) List(ctx context.Context, filter MachineFilter, limit, offset int) ([]*model.Machine, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	db := r.db.WithContext(ctx).Model(&model.Machine{})
	if filter.SerialNumber != "" {
		db = db.Where("machines.serial_number = ?", filter.SerialNumber)
	}
	if filter.Search != "" {
		// LOWER+LIKE 在 postgres 与 sqlite 上行为一致
		term := "%" + filter.Search + "%"
		db = db.Select("machines.*").
			Joins("LEFT JOIN clients ON clients.id = machines.client_id").
			Where("LOWER(machines.serial_number) LIKE LOWER(?) OR LOWER(machines.model) LIKE LOWER(?) OR LOWER(clients.name) LIKE LOWER(?)",
				term, term, term)
	}
	var machines []*model.Machine
	if err := r.preloadAll(db).
		Order("machines.serial_number ASC").
		Limit(limit).Offset(offset).
		Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *machineRepository) GetBySerial(ctx context.Context, serial string) (*model.Machine, error) {
	var m model.Machine
	if err := r.preloadAll(r.db.WithContext(ctx)).
		Where("serial_number = ?", serial).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
