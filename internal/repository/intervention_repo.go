package repository

import (
	"context"

	"ParcSync/internal/model"

	"gorm.io/gorm"
)

// InterventionFilter 行动项列表筛选
type InterventionFilter struct {
	Priority  string
	Status    string
	MachineID uint64
}

// ContractScoreRow 生成任务的集合式查询结果：评分命中 0/1 的合同
type ContractScoreRow struct {
	MachineID       uint64
	InspectionScore *string
	SosScore        *string
}

// OpenCampaignRow 生成任务的集合式查询结果：状态 Open 的服务信函
type OpenCampaignRow struct {
	MachineID       uint64
	ReferenceNumber *string
	PsType          *string
	Deadline        *string
	Description     *string
}

// InterventionRepository 行动项仓储 + 生成任务的集合式查询
type InterventionRepository interface {
	// DeletePending 只清 PENDING；其余生命周期状态是人工流程数据，必须保留
	DeletePending(ctx context.Context) (int64, error)
	BulkCreate(ctx context.Context, records []*model.Intervention, batchSize int) error
	List(ctx context.Context, filter InterventionFilter) ([]*model.Intervention, error)

	// ContractsAtZeroOfOne 巡检分或SOS分字面为 "0/1" 的机器（批量口径，刻意窄于逐机引擎）
	ContractsAtZeroOfOne(ctx context.Context) ([]ContractScoreRow, error)
	// MachinesNotInspected psi_status 缓存等于「Non Inspecté」的机器ID
	MachinesNotInspected(ctx context.Context) ([]uint64, error)
	// OpenCampaigns 状态 Open 的服务信函（每条一行）
	OpenCampaigns(ctx context.Context) ([]OpenCampaignRow, error)
}

type interventionRepository struct {
	db *gorm.DB
}

func NewInterventionRepository(db *gorm.DB) InterventionRepository {
	return &interventionRepository{db: db}
}

func (r *interventionRepository) DeletePending(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ?", model.StatusPending).
		Delete(&model.Intervention{})
	return res.RowsAffected, res.Error
}

func (r *interventionRepository) BulkCreate(ctx context.Context, records []*model.Intervention, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return r.db.WithContext(ctx).CreateInBatches(records, batchSize).Error
}

func (r *interventionRepository) List(ctx context.Context, filter InterventionFilter) ([]*model.Intervention, error) {
	db := r.db.WithContext(ctx).Model(&model.Intervention{})
	if filter.Priority != "" {
		db = db.Where("priority = ?", filter.Priority)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.MachineID != 0 {
		db = db.Where("machine_id = ?", filter.MachineID)
	}
	var list []*model.Intervention
	if err := db.Order("date_created DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *interventionRepository) ContractsAtZeroOfOne(ctx context.Context) ([]ContractScoreRow, error) {
	var rows []ContractScoreRow
	if err := r.db.WithContext(ctx).Model(&model.ContractRecord{}).
		Select("machines.id AS machine_id, cvaf.inspection_score, cvaf.sos_score").
		Joins("JOIN machines ON machines.serial_number = cvaf.serial_number").
		Where("cvaf.inspection_score = ? OR cvaf.sos_score = ?", "0/1", "0/1").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *interventionRepository) MachinesNotInspected(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).Model(&model.Machine{}).
		Where("psi_status = ?", model.PSINotInspected).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *interventionRepository) OpenCampaigns(ctx context.Context) ([]OpenCampaignRow, error) {
	var rows []OpenCampaignRow
	if err := r.db.WithContext(ctx).Model(&model.ServiceCampaignRecord{}).
		Select("machines.id AS machine_id, suivi_ps.reference_number, suivi_ps.ps_type, suivi_ps.deadline, suivi_ps.description").
		Joins("JOIN machines ON machines.serial_number = suivi_ps.serial_number").
		Where("suivi_ps.status = ?", "Open").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
