package repository

import (
	"context"

	"ParcSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgramRepository 四类附表记录的仓储。
// 一对一记录（CVAF、Remote）按 serial upsert；
// 一对多记录（巡检、服务信函）对本次出现的 serial 集合整体替换——
// 不做全表清空，本次未出现的机器保留既有记录。
type ProgramRepository interface {
	UpsertContracts(ctx context.Context, records []*model.ContractRecord, batchSize int) error
	UpsertRemote(ctx context.Context, records []*model.RemoteServiceRecord, batchSize int) error
	ReplaceInspections(ctx context.Context, serials []string, records []*model.InspectionRecord, batchSize int) error
	ReplaceCampaigns(ctx context.Context, serials []string, records []*model.ServiceCampaignRecord, batchSize int) error
}

type programRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

func (r *programRepository) UpsertContracts(ctx context.Context, records []*model.ContractRecord, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "serial_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"start_date", "end_date", "cva_type", "country_code", "product_vertical",
			"dlr_cust_nm", "current_asset_age", "asset_age_group",
			"inspection_score", "connectivity_score", "sos_score",
		}),
	}).CreateInBatches(records, batchSize).Error
}

func (r *programRepository) UpsertRemote(ctx context.Context, records []*model.RemoteServiceRecord, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "serial_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"flash_update"}),
	}).CreateInBatches(records, batchSize).Error
}

func (r *programRepository) ReplaceInspections(ctx context.Context, serials []string, records []*model.InspectionRecord, batchSize int) error {
	if len(serials) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	if err := r.db.WithContext(ctx).
		Where("serial_number IN ?", serials).
		Delete(&model.InspectionRecord{}).Error; err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, batchSize).Error
}

func (r *programRepository) ReplaceCampaigns(ctx context.Context, serials []string, records []*model.ServiceCampaignRecord, batchSize int) error {
	if len(serials) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	if err := r.db.WithContext(ctx).
		Where("serial_number IN ?", serials).
		Delete(&model.ServiceCampaignRecord{}).Error; err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, batchSize).Error
}
