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

// InspectionLoader Inspection Rate 表装载器：一对多记录。
// 对本次出现的 serial 集合整体替换巡检记录，并重写 machines 上的
// last_visit / psi_status 去范式缓存（同一行最后出现的值生效）。
type InspectionLoader struct {
	machineRepo repository.MachineRepository
	programRepo repository.ProgramRepository
	logger      *logrus.Logger
	batchSize   int
}

func NewInspectionLoader(machineRepo repository.MachineRepository, programRepo repository.ProgramRepository, logger *logrus.Logger, batchSize int) interfaces.SheetLoader {
	return &InspectionLoader{
		machineRepo: machineRepo,
		programRepo: programRepo,
		logger:      logger,
		batchSize:   batchSize,
	}
}

func (l *InspectionLoader) Name() string { return "inspection_rate" }

func (l *InspectionLoader) Load(ctx context.Context, wb *sheet.Workbook, rc *interfaces.ReconcileContext) (int, error) {
	tab, err := wb.ByName("Inspection Rate")
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			l.logger.Info("Inspection Rate sheet 未找到，跳过")
			return 0, nil
		}
		return 0, err
	}
	serialCol := tab.Column("S/N", "Serial Number", "N° série")
	if serialCol < 0 {
		return 0, fmt.Errorf("Inspection Rate sheet 缺少序列号列")
	}

	orCol := tab.Column("N° OR (Segment)")
	typeCol := tab.Column("Type matériel")
	atelierCol := tab.Column("Atelier")
	factureCol := tab.Column("Date Facture (Lignes)")
	lastInspCol := tab.Column("Last Inspect")
	nbrCol := tab.Column("Nbr")
	nomOrCol := tab.Column("Nom Client OR (or)")
	inspectedCol := tab.Column("Is Inspected")
	technicienCol := tab.Column("Technicien Réel")
	equipeCol := tab.Column("Equipe Réelle")
	tempsCol := tab.Column("Temps Réel (h)")
	modelCol := tab.Column("Model", "Modèle")

	var records []*model.InspectionRecord
	var stubs []*model.Machine
	seen := make(map[string]struct{})
	// 缓存重写取每个 serial 最后一行的值
	lastBySerial := make(map[string]*model.InspectionRecord)
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
		rec := &model.InspectionRecord{
			SerialNumber:   serial,
			OrSegment:      row.String(orCol),
			TypeMateriel:   row.String(typeCol),
			Atelier:        row.String(atelierCol),
			DateFacture:    row.String(factureCol),
			LastInspect:    row.String(lastInspCol),
			Nbr:            row.Int(nbrCol),
			NomClientOr:    row.String(nomOrCol),
			IsInspected:    row.String(inspectedCol),
			TechnicienReel: row.String(technicienCol),
			EquipeReelle:   row.String(equipeCol),
			TempsReel:      row.Float(tempsCol),
		}
		records = append(records, rec)
		lastBySerial[serial] = rec
	}

	if err := ensureStubs(ctx, l.machineRepo, rc, stubs); err != nil {
		return 0, fmt.Errorf("巡检stub机器失败: %w", err)
	}
	if err := l.programRepo.ReplaceInspections(ctx, sortedSerials(seen), records, l.batchSize); err != nil {
		return 0, fmt.Errorf("替换巡检记录失败: %w", err)
	}

	// stub 刚落库，序列号 → ID 映射要重拉一次再刷进上下文
	idMap, err := l.machineRepo.MapSerialToID(ctx)
	if err != nil {
		return 0, err
	}
	rc.ResetMachineIDs(idMap)
	updates := make([]repository.InspectionCacheUpdate, 0, len(lastBySerial))
	for _, serial := range sortedSerials(seen) {
		id, ok := rc.MachineID(serial)
		if !ok {
			continue
		}
		rec := lastBySerial[serial]
		updates = append(updates, repository.InspectionCacheUpdate{
			MachineID: id,
			LastVisit: rec.LastInspect,
			PSIStatus: rec.IsInspected,
		})
	}
	if err := l.machineRepo.RewriteInspectionCache(ctx, updates); err != nil {
		return 0, fmt.Errorf("重写巡检缓存失败: %w", err)
	}
	l.logger.Infof("巡检装载完成：%d条记录，%d台机器缓存，stub %d台", len(records), len(updates), len(stubs))
	return len(records), nil
}
