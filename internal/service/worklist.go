package service

import (
	"context"
	"fmt"
	"strings"

	"ParcSync/internal/model"
	"ParcSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WorklistService 行动项生成任务：整体重建 PENDING 工作清单。
// 批量口径刻意比逐机引擎窄（合同评分只认字面 "0/1"），两套口径并存。
type WorklistService struct {
	db        *gorm.DB
	logger    *logrus.Logger
	batchSize int
}

func NewWorklistService(db *gorm.DB, logger *logrus.Logger, batchSize int) *WorklistService {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &WorklistService{db: db, logger: logger, batchSize: batchSize}
}

// Generate 删除全部 PENDING 行动项后按三类集合式查询重建，返回新建条数。
// 删除与重建在同一事务内；PLANNED/COMPLETED/CANCELLED 一概不动。
func (s *WorklistService) Generate(ctx context.Context) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewInterventionRepository(tx)

		deleted, err := repo.DeletePending(ctx)
		if err != nil {
			return fmt.Errorf("清除PENDING行动项失败: %w", err)
		}
		s.logger.Infof("清除PENDING行动项%d条", deleted)

		var records []*model.Intervention

		// 1. 合同评分字面 0/1
		scoreRows, err := repo.ContractsAtZeroOfOne(ctx)
		if err != nil {
			return err
		}
		for _, row := range scoreRows {
			var reasons []string
			if model.ParseScore(row.InspectionScore).IsZeroOfOne() {
				reasons = append(reasons, "Inspection manquante")
			}
			if model.ParseScore(row.SosScore).IsZeroOfOne() {
				reasons = append(reasons, "Analyse SOS manquante")
			}
			desc := "Action requise : " + strings.Join(reasons, ", ")
			records = append(records, &model.Intervention{
				MachineID:   row.MachineID,
				Type:        model.InterventionTypeContract,
				Priority:    model.PriorityHigh,
				Status:      model.StatusPending,
				Description: &desc,
			})
		}

		// 2. 巡检缓存 Non Inspecté
		notInspected, err := repo.MachinesNotInspected(ctx)
		if err != nil {
			return err
		}
		for _, machineID := range notInspected {
			desc := "Machine non inspectée (Programme Inspection Rate)"
			records = append(records, &model.Intervention{
				MachineID:   machineID,
				Type:        model.InterventionTypeInspection,
				Priority:    model.PriorityHigh,
				Status:      model.StatusPending,
				Description: &desc,
			})
		}

		// 3. 状态 Open 的服务信函，每条一行
		campaigns, err := repo.OpenCampaigns(ctx)
		if err != nil {
			return err
		}
		for _, c := range campaigns {
			desc := campaignDescription(c)
			records = append(records, &model.Intervention{
				MachineID:   c.MachineID,
				Type:        model.InterventionTypeCampaign,
				Priority:    model.PriorityLow,
				Status:      model.StatusPending,
				Description: &desc,
			})
		}

		if err := repo.BulkCreate(ctx, records, s.batchSize); err != nil {
			return fmt.Errorf("批量写入行动项失败: %w", err)
		}
		created = len(records)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infof("工作清单重建完成：新建%d条", created)
	return created, nil
}

// ListInterventions 行动项列表（按优先级/状态/机器过滤）
func (s *WorklistService) ListInterventions(ctx context.Context, filter repository.InterventionFilter) ([]*model.Intervention, error) {
	return repository.NewInterventionRepository(s.db).List(ctx, filter)
}

// campaignDescription 「PS {编号} - {类型} (Fin: {期限}) - {描述}」，缺失段落逐段省略
func campaignDescription(c repository.OpenCampaignRow) string {
	ref := "?"
	if c.ReferenceNumber != nil && *c.ReferenceNumber != "" {
		ref = *c.ReferenceNumber
	}
	psType := ""
	if c.PsType != nil {
		psType = *c.PsType
	}
	desc := fmt.Sprintf("PS %s - %s", ref, psType)
	if c.Deadline != nil && *c.Deadline != "" {
		desc += fmt.Sprintf(" (Fin: %s)", *c.Deadline)
	}
	if c.Description != nil && *c.Description != "" {
		desc += " - " + *c.Description
	}
	return desc
}
