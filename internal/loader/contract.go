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

// ContractLoader CVAF 合同表装载器：一对一记录，按 serial upsert
type ContractLoader struct {
	machineRepo repository.MachineRepository
	programRepo repository.ProgramRepository
	logger      *logrus.Logger
	batchSize   int
}

func NewContractLoader(machineRepo repository.MachineRepository, programRepo repository.ProgramRepository, logger *logrus.Logger, batchSize int) interfaces.SheetLoader {
	return &ContractLoader{
		machineRepo: machineRepo,
		programRepo: programRepo,
		logger:      logger,
		batchSize:   batchSize,
	}
}

func (l *ContractLoader) Name() string { return "cvaf" }

func (l *ContractLoader) Load(ctx context.Context, wb *sheet.Workbook, rc *interfaces.ReconcileContext) (int, error) {
	tab, err := wb.ByName("CVAF")
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			l.logger.Info("CVAF sheet 未找到，跳过")
			return 0, nil
		}
		return 0, err
	}
	serialCol := tab.Column(serialAliases...)
	if serialCol < 0 {
		return 0, fmt.Errorf("CVAF sheet 缺少序列号列")
	}

	startCol := tab.Column("Start Date")
	endCol := tab.Column("End Date")
	typeCol := tab.Column("Cva Type", "CVA Type")
	countryCol := tab.Column("Country Code")
	verticalCol := tab.Column("Product Vertical")
	dlrCol := tab.Column("Dlr Cust Nm")
	ageCol := tab.Column("Current Asset Age")
	ageGroupCol := tab.Column("Asset Age Group")
	inspCol := tab.Column("Inspection Score")
	connCol := tab.Column("Connectivity Score")
	sosCol := tab.Column("Sos Score", "SOS Score")
	modelCol := tab.Column("Model", "Modèle")

	// 一对一记录：同 serial 多行时后行覆盖前行，避免同批冲突两次
	recordBySerial := make(map[string]*model.ContractRecord)
	var order []string
	var stubs []*model.Machine
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
		if _, seen := recordBySerial[serial]; !seen {
			order = append(order, serial)
		}
		recordBySerial[serial] = &model.ContractRecord{
			SerialNumber:      serial,
			StartDate:         row.String(startCol),
			EndDate:           row.String(endCol),
			CvaType:           row.String(typeCol),
			CountryCode:       row.String(countryCol),
			ProductVertical:   row.String(verticalCol),
			DlrCustNm:         row.String(dlrCol),
			CurrentAssetAge:   row.Int(ageCol),
			AssetAgeGroup:     row.String(ageGroupCol),
			InspectionScore:   row.String(inspCol),
			ConnectivityScore: row.String(connCol),
			SosScore:          row.String(sosCol),
		}
	}

	if err := ensureStubs(ctx, l.machineRepo, rc, stubs); err != nil {
		return 0, fmt.Errorf("CVAF stub机器失败: %w", err)
	}
	records := make([]*model.ContractRecord, 0, len(order))
	for _, s := range order {
		records = append(records, recordBySerial[s])
	}
	if err := l.programRepo.UpsertContracts(ctx, records, l.batchSize); err != nil {
		return 0, fmt.Errorf("upsert CVAF失败: %w", err)
	}
	l.logger.Infof("CVAF装载完成：%d条（stub %d台）", len(records), len(stubs))
	return len(records), nil
}
