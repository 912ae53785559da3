package repository

import (
	"context"

	"ParcSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientRepository 客户主档仓储。external_id 是唯一安全的跨导入合并键，
// 内部自增 id 不得被调用方假定稳定。
type ClientRepository interface {
	// UpsertClients 按 external_id upsert，冲突时更新名称与账号，永不删除
	UpsertClients(ctx context.Context, clients []*model.Client) error
	// MapExternalIDToID 外部ID → 内部ID
	MapExternalIDToID(ctx context.Context) (map[string]uint64, error)
	// MapNameToID 客户名称 → 内部ID（PSSR_Client 表只按名称关联）
	MapNameToID(ctx context.Context) (map[string]uint64, error)
	// AssignRepresentative 写入负责代表
	AssignRepresentative(ctx context.Context, clientID uint64, representative string) error
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) UpsertClients(ctx context.Context, clients []*model.Client) error {
	if len(clients) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "account_number", "updated_at"}),
	}).Create(clients).Error
}

func (r *clientRepository) MapExternalIDToID(ctx context.Context) (map[string]uint64, error) {
	var rows []model.Client
	if err := r.db.WithContext(ctx).Select("id", "external_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]uint64, len(rows))
	for _, c := range rows {
		m[c.ExternalID] = c.ID
	}
	return m, nil
}

func (r *clientRepository) MapNameToID(ctx context.Context) (map[string]uint64, error) {
	var rows []model.Client
	if err := r.db.WithContext(ctx).Select("id", "name").Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]uint64, len(rows))
	for _, c := range rows {
		m[c.Name] = c.ID
	}
	return m, nil
}

func (r *clientRepository) AssignRepresentative(ctx context.Context, clientID uint64, representative string) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).
		Where("id = ?", clientID).
		Update("pssr", representative).Error
}
