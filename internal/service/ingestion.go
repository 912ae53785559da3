package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"ParcSync/internal/interfaces"
	"ParcSync/internal/loader"
	"ParcSync/internal/model"
	"ParcSync/internal/repository"
	"ParcSync/internal/sheet"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IngestReport 一次导入的对外结果：运行 uuid + 各类目处理计数
type IngestReport struct {
	RunUUID string         `json:"runUuid"`
	Counts  map[string]int `json:"counts"`
}

// IngestionService 导入编排器。整次导入跑在单事务里：
// 主表失败整体回滚；单个附表失败记日志计 0 条继续。
// 同一机器集合的并发导入不做互锁，由调用方串行化。
type IngestionService struct {
	db        *gorm.DB
	logger    *logrus.Logger
	batchSize int
}

func NewIngestionService(db *gorm.DB, logger *logrus.Logger, batchSize int) *IngestionService {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &IngestionService{db: db, logger: logger, batchSize: batchSize}
}

// IngestFile 导入一份 Excel 导出。无论成败都落一条审计记录。
func (s *IngestionService) IngestFile(ctx context.Context, filename string, r io.Reader) (*IngestReport, error) {
	runUUID := uuid.New().String()
	started := time.Now()
	counts := map[string]int{}
	log := s.logger.WithField("run_uuid", runUUID).WithField("filename", filename)
	log.Info("开始导入")

	wb, err := sheet.Open(r)
	if err != nil {
		s.recordRun(ctx, runUUID, filename, counts, started, err)
		return nil, err
	}
	defer wb.Close()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clientRepo := repository.NewClientRepository(tx)
		machineRepo := repository.NewMachineRepository(tx)
		programRepo := repository.NewProgramRepository(tx)

		rc := interfaces.NewReconcileContext()
		reconciler := loader.NewReconciler(clientRepo, machineRepo, s.logger, s.batchSize)
		clients, machines, err := reconciler.LoadMaster(ctx, wb, rc)
		if err != nil {
			return fmt.Errorf("主表调和失败: %w", err)
		}
		counts["clients"] = clients
		counts["machines"] = machines

		// 附表固定顺序：合同 → 代表 → 巡检 → 服务信函 → 远程服务
		loaders := []interfaces.SheetLoader{
			loader.NewContractLoader(machineRepo, programRepo, s.logger, s.batchSize),
			loader.NewRepresentativeLoader(clientRepo, s.logger),
			loader.NewInspectionLoader(machineRepo, programRepo, s.logger, s.batchSize),
			loader.NewCampaignLoader(machineRepo, programRepo, s.logger, s.batchSize),
			loader.NewRemoteLoader(machineRepo, programRepo, s.logger, s.batchSize),
		}
		for _, l := range loaders {
			n, err := l.Load(ctx, wb, rc)
			if err != nil {
				log.WithError(err).Warnf("装载器 %s 失败，计0条继续", l.Name())
				counts[l.Name()] = 0
				continue
			}
			counts[l.Name()] = n
		}
		return nil
	})
	s.recordRun(ctx, runUUID, filename, counts, started, err)
	if err != nil {
		return nil, err
	}
	log.WithField("counts", counts).Info("导入完成")
	return &IngestReport{RunUUID: runUUID, Counts: counts}, nil
}

// recordRun 审计记录在导入事务之外写入：失败的运行也要留痕
func (s *IngestionService) recordRun(ctx context.Context, runUUID, filename string, counts map[string]int, started time.Time, runErr error) {
	payload, err := json.Marshal(counts)
	if err != nil {
		payload = []byte("{}")
	}
	finished := time.Now()
	run := &model.IngestRun{
		RunUUID:    runUUID,
		Filename:   filename,
		Counts:     datatypes.JSON(payload),
		Success:    runErr == nil,
		StartedAt:  started,
		FinishedAt: &finished,
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Error = &msg
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		s.logger.WithError(err).Error("写入导入审计记录失败")
	}
}
