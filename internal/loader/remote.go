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

// remote sheet 名跨导出最不稳定，先按别名找，再按表头特征兜底
var (
	remoteSheetAliases  = []string{"remote service", "remote_service", "suivi remote service"}
	remoteHeaderSig     = []string{"Flash Update"}
	remoteSerialAliases = []string{"S/N", "Serial Number", "N° série"}
	remoteFlashAliases  = []string{"Flash Update", "flash_update"}
)

// RemoteLoader 远程服务标志装载器：一对一记录，按 serial upsert。
// 同 serial 多行时保留首行，后续行跳过。
type RemoteLoader struct {
	machineRepo repository.MachineRepository
	programRepo repository.ProgramRepository
	logger      *logrus.Logger
	batchSize   int
}

func NewRemoteLoader(machineRepo repository.MachineRepository, programRepo repository.ProgramRepository, logger *logrus.Logger, batchSize int) interfaces.SheetLoader {
	return &RemoteLoader{
		machineRepo: machineRepo,
		programRepo: programRepo,
		logger:      logger,
		batchSize:   batchSize,
	}
}

func (l *RemoteLoader) Name() string { return "remote_service" }

func (l *RemoteLoader) Load(ctx context.Context, wb *sheet.Workbook, rc *interfaces.ReconcileContext) (int, error) {
	tab, err := wb.ByAliases(remoteSheetAliases)
	if errors.Is(err, sheet.ErrSheetNotFound) {
		tab, err = wb.ByHeaderSignature(remoteHeaderSig)
	}
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			l.logger.Info("remote service sheet 未找到，跳过")
			return 0, nil
		}
		return 0, err
	}
	serialCol := tab.Column(remoteSerialAliases...)
	if serialCol < 0 {
		return 0, fmt.Errorf("remote service sheet（%s）缺少序列号列", tab.Name)
	}
	flashCol := tab.Column(remoteFlashAliases...)
	modelCol := tab.Column("Product Model", "Model", "Modèle")

	var records []*model.RemoteServiceRecord
	var stubs []*model.Machine
	seen := make(map[string]struct{})
	for i := 0; i < tab.Len(); i++ {
		row := tab.Row(i)
		serialPtr := row.String(serialCol)
		if serialPtr == nil {
			continue
		}
		serial := *serialPtr
		if _, dup := seen[serial]; dup {
			continue
		}
		seen[serial] = struct{}{}

		if !rc.KnownSerial(serial) {
			stubs = append(stubs, &model.Machine{SerialNumber: serial, Model: row.String(modelCol)})
			rc.AddSerial(serial)
		}
		records = append(records, &model.RemoteServiceRecord{
			SerialNumber: serial,
			FlashUpdate:  row.String(flashCol),
		})
	}

	if err := ensureStubs(ctx, l.machineRepo, rc, stubs); err != nil {
		return 0, fmt.Errorf("remote stub机器失败: %w", err)
	}
	if err := l.programRepo.UpsertRemote(ctx, records, l.batchSize); err != nil {
		return 0, fmt.Errorf("upsert remote失败: %w", err)
	}
	l.logger.Infof("remote装载完成：%d条（sheet=%s，stub %d台）", len(records), tab.Name, len(stubs))
	return len(records), nil
}
