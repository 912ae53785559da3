package loader

import (
	"context"
	"errors"
	"fmt"

	"ParcSync/internal/interfaces"
	"ParcSync/internal/model"
	"ParcSync/internal/repository"
	"ParcSync/internal/sheet"

	"github.com/sirupsen/logrus"
)

// CampaignLoader Suivi_PS 表装载器：厂家服务信函，一对多记录，
// 对本次出现的 serial 集合整体替换。
type CampaignLoader struct {
	machineRepo repository.MachineRepository
	programRepo repository.ProgramRepository
	logger      *logrus.Logger
	batchSize   int
}

func NewCampaignLoader(machineRepo repository.MachineRepository, programRepo repository.ProgramRepository, logger *logrus.Logger, batchSize int) interfaces.SheetLoader {
	return &CampaignLoader{
		machineRepo: machineRepo,
		programRepo: programRepo,
		logger:      logger,
		batchSize:   batchSize,
	}
}

func (l *CampaignLoader) Name() string { return "suivi_ps" }

func (l *CampaignLoader) Load(ctx context.Context, wb *sheet.Workbook, rc *interfaces.ReconcileContext) (int, error) {
	tab, err := wb.ByName("Suivi_PS")
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			l.logger.Info("Suivi_PS sheet 未找到，跳过")
			return 0, nil
		}
		return 0, err
	}
	serialCol := tab.Column(serialAliases...)
	if serialCol < 0 {
		return 0, fmt.Errorf("Suivi_PS sheet 缺少序列号列")
	}

	dateCol := tab.Column("Letter Date")
	clientCol := tab.Column("Client")
	refCol := tab.Column("Program Number")
	typeCol := tab.Column("Service Letter Type")
	statusCol := tab.Column("Status")
	descCol := tab.Column("Description")
	actionCol := tab.Column("Action Required")
	deadlineCol := tab.Column("Term Date")
	modelCol := tab.Column("Model", "Modèle")

	var records []*model.ServiceCampaignRecord
	var stubs []*model.Machine
	seen := make(map[string]struct{})
	for i := 0; i < tab.Len(); i++ {
		row := tab.Row(i)
		serialPtr := row.String(serialCol)
		if serialPtr == nil {
			continue
		}
		serial := *serialPtr

		if !rc.KnownSerial(serial) {
			stubs = append(stubs, &model.Machine{SerialNumber: serial, Model: row.String(modelCol)})
			rc.AddSerial(serial)
		}
		seen[serial] = struct{}{}
		records = append(records, &model.ServiceCampaignRecord{
			SerialNumber:    serial,
			Date:            row.String(dateCol),
			Client:          row.String(clientCol),
			ReferenceNumber: row.String(refCol),
			PsType:          row.String(typeCol),
			Status:          row.String(statusCol),
			Description:     row.String(descCol),
			ActionRequired:  row.String(actionCol),
			Deadline:        row.String(deadlineCol),
		})
	}

	if err := ensureStubs(ctx, l.machineRepo, rc, stubs); err != nil {
		return 0, fmt.Errorf("Suivi_PS stub机器失败: %w", err)
	}
	if err := l.programRepo.ReplaceCampaigns(ctx, sortedSerials(seen), records, l.batchSize); err != nil {
		return 0, fmt.Errorf("替换服务信函失败: %w", err)
	}
	l.logger.Infof("Suivi_PS装载完成：%d条（stub %d台）", len(records), len(stubs))
	return len(records), nil
}
