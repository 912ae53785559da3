package service

import (
	"bytes"
	"context"
	"io"
	"testing"

	"ParcSync/internal/model"
	"ParcSync/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fixtureSheet 测试工作簿里的一张 sheet（顺序即 sheet 顺序，第一张是主表）
type fixtureSheet struct {
	name string
	rows [][]interface{}
}

func buildFixture(t *testing.T, sheets []fixtureSheet) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	for i, sh := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sh.name))
		} else {
			_, err := f.NewSheet(sh.name)
			require.NoError(t, err)
		}
		for r := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sh.name, cell, &sh.rows[r]))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Client{},
		&model.Machine{},
		&model.ContractRecord{},
		&model.InspectionRecord{},
		&model.ServiceCampaignRecord{},
		&model.RemoteServiceRecord{},
		&model.Intervention{},
		&model.IngestRun{},
	))
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func masterSheet(rows ...[]interface{}) fixtureSheet {
	header := []interface{}{
		"ID client", "Nom de compte client", "Numéro de compte client",
		"N° série du matériel", "Marque", "Modèle", "Famille de produits",
		"Compteur d'entretien (Heures)", "Dernier statut matériel remonté",
		"LATITUDE", "LONGITUDE",
	}
	return fixtureSheet{name: "Parc", rows: append([][]interface{}{header}, rows...)}
}

func TestIngestIdempotence(t *testing.T) {
	db := setupDB(t)
	svc := NewIngestionService(db, testLogger(), 100)
	ctx := context.Background()

	sheets := []fixtureSheet{
		masterSheet(
			[]interface{}{"100", "Acme", "ACC-1", "SN1", "CAT", "320D", "Pelle", "1200.5", "OK", "48.85", "2.35"},
			[]interface{}{"100", "Acme", "ACC-1", "SN2", "CAT", "950H", "Chargeuse", "800", "OK", "", ""},
		),
		{name: "CVAF", rows: [][]interface{}{
			{"Serial Number", "Start Date", "End Date", "Cva Type", "Inspection Score", "Sos Score"},
			{"SN1", "2024-01-01", "2026-01-01", "Premium", "3/4", "1/1"},
		}},
		{name: "Suivi_PS", rows: [][]interface{}{
			{"Serial Number", "Letter Date", "Program Number", "Service Letter Type", "Status", "Description", "Term Date"},
			{"SN2", "2024-05-01", "PS123", "Recall", "Open", "Remplacement durite", "2026-12-31"},
		}},
	}

	report1, err := svc.IngestFile(ctx, "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)
	assert.Equal(t, 1, report1.Counts["clients"])
	assert.Equal(t, 2, report1.Counts["machines"])
	assert.Equal(t, 1, report1.Counts["cvaf"])
	assert.Equal(t, 1, report1.Counts["suivi_ps"])

	// 同一份文件再导一次：行集不变，无重复
	_, err = svc.IngestFile(ctx, "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)

	var clients, machines, contracts, campaigns int64
	require.NoError(t, db.Model(&model.Client{}).Count(&clients).Error)
	require.NoError(t, db.Model(&model.Machine{}).Count(&machines).Error)
	require.NoError(t, db.Model(&model.ContractRecord{}).Count(&contracts).Error)
	require.NoError(t, db.Model(&model.ServiceCampaignRecord{}).Count(&campaigns).Error)
	assert.Equal(t, int64(1), clients)
	assert.Equal(t, int64(2), machines)
	assert.Equal(t, int64(1), contracts)
	assert.Equal(t, int64(1), campaigns)

	// 两次运行都有审计记录
	var runs int64
	require.NoError(t, db.Model(&model.IngestRun{}).Where("success = ?", true).Count(&runs).Error)
	assert.Equal(t, int64(2), runs)
}

func TestIngestStubMachineFromCampaignSheet(t *testing.T) {
	db := setupDB(t)
	svc := NewIngestionService(db, testLogger(), 100)

	sheets := []fixtureSheet{
		masterSheet(
			[]interface{}{"100", "Acme", "ACC-1", "SN1", "CAT", "320D", "Pelle", "1200", "OK", "", ""},
		),
		{name: "Suivi_PS", rows: [][]interface{}{
			{"Serial Number", "Letter Date", "Program Number", "Service Letter Type", "Status", "Description", "Term Date"},
			{"X9Z", "2024-05-01", "PS999", "Recall", "Open", "Inspection chassis", ""},
		}},
	}
	_, err := svc.IngestFile(context.Background(), "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)

	// 主表没有的序列号落成 stub：serial 存在，客户关联为空
	var stub model.Machine
	require.NoError(t, db.Where("serial_number = ?", "X9Z").First(&stub).Error)
	assert.Nil(t, stub.ClientID)

	var campaign model.ServiceCampaignRecord
	require.NoError(t, db.Where("serial_number = ?", "X9Z").First(&campaign).Error)
}

func TestIngestMissingOptionalSheets(t *testing.T) {
	db := setupDB(t)
	svc := NewIngestionService(db, testLogger(), 100)

	sheets := []fixtureSheet{
		masterSheet(
			[]interface{}{"100", "Acme", "ACC-1", "SN1", "CAT", "320D", "Pelle", "1200", "OK", "", ""},
		),
	}
	report, err := svc.IngestFile(context.Background(), "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)

	// 附表全缺：计0条，不报错
	assert.Equal(t, 0, report.Counts["cvaf"])
	assert.Equal(t, 0, report.Counts["suivi_ps"])
	assert.Equal(t, 0, report.Counts["inspection_rate"])
	assert.Equal(t, 0, report.Counts["remote_service"])
	assert.Equal(t, 0, report.Counts["pssr"])
}

func TestIngestCoordinateValidation(t *testing.T) {
	db := setupDB(t)
	svc := NewIngestionService(db, testLogger(), 100)

	sheets := []fixtureSheet{
		masterSheet(
			[]interface{}{"100", "Acme", "ACC-1", "SN1", "CAT", "320D", "Pelle", "1200", "OK", "48.85", "2.35"},
			[]interface{}{"100", "Acme", "ACC-1", "SN2", "CAT", "950H", "Chargeuse", "800", "OK", "95.0", "2.35"},
			[]interface{}{"100", "Acme", "ACC-1", "SN3", "CAT", "950H", "Chargeuse", "800", "OK", "48.85", ""},
		),
	}
	_, err := svc.IngestFile(context.Background(), "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)

	var m1, m2, m3 model.Machine
	require.NoError(t, db.Where("serial_number = ?", "SN1").First(&m1).Error)
	require.NoError(t, db.Where("serial_number = ?", "SN2").First(&m2).Error)
	require.NoError(t, db.Where("serial_number = ?", "SN3").First(&m3).Error)

	assert.NotNil(t, m1.Latitude)
	assert.NotNil(t, m1.Longitude)
	// 纬度越界 → 整对置空
	assert.Nil(t, m2.Latitude)
	assert.Nil(t, m2.Longitude)
	// 半对坐标 → 整对置空
	assert.Nil(t, m3.Latitude)
	assert.Nil(t, m3.Longitude)
}

func TestIngestInspectionReplaceAndCacheRewrite(t *testing.T) {
	db := setupDB(t)
	svc := NewIngestionService(db, testLogger(), 100)
	ctx := context.Background()

	master := masterSheet(
		[]interface{}{"100", "Acme", "ACC-1", "SN1", "CAT", "320D", "Pelle", "1200", "OK", "", ""},
		[]interface{}{"100", "Acme", "ACC-1", "SN2", "CAT", "950H", "Chargeuse", "800", "OK", "", ""},
	)
	run1 := []fixtureSheet{
		master,
		{name: "Inspection Rate", rows: [][]interface{}{
			{"S/N", "N° OR (Segment)", "Atelier", "Last Inspect", "Is Inspected"},
			{"SN1", "OR-1", "Lyon", "2024-01-10", "Non Inspecté"},
			{"SN1", "OR-2", "Lyon", "2024-03-15", "Non Inspecté"},
			{"SN2", "OR-3", "Nantes", "2024-02-02", "Inspecté"},
		}},
	}
	report, err := svc.IngestFile(ctx, "export.xlsx", buildFixture(t, run1))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Counts["inspection_rate"])

	var sn1Records, sn2Records int64
	require.NoError(t, db.Model(&model.InspectionRecord{}).Where("serial_number = ?", "SN1").Count(&sn1Records).Error)
	require.NoError(t, db.Model(&model.InspectionRecord{}).Where("serial_number = ?", "SN2").Count(&sn2Records).Error)
	assert.Equal(t, int64(2), sn1Records)
	assert.Equal(t, int64(1), sn2Records)

	// 缓存取同一 serial 最后一行的值
	var m1, m2 model.Machine
	require.NoError(t, db.Where("serial_number = ?", "SN1").First(&m1).Error)
	require.NoError(t, db.Where("serial_number = ?", "SN2").First(&m2).Error)
	require.NotNil(t, m1.PSIStatus)
	assert.Equal(t, model.PSINotInspected, *m1.PSIStatus)
	require.NotNil(t, m1.LastVisit)
	assert.Equal(t, "2024-03-15", *m1.LastVisit)
	require.NotNil(t, m2.PSIStatus)
	assert.Equal(t, "Inspecté", *m2.PSIStatus)

	// 第二次导入：SN1 完成巡检、SN2 本次未出现 → SN1 记录整体替换 + 缓存重写，SN2 原样保留
	run2 := []fixtureSheet{
		master,
		{name: "Inspection Rate", rows: [][]interface{}{
			{"S/N", "N° OR (Segment)", "Atelier", "Last Inspect", "Is Inspected"},
			{"SN1", "OR-4", "Lyon", "2025-06-01", "Inspecté"},
		}},
	}
	report, err = svc.IngestFile(ctx, "export.xlsx", buildFixture(t, run2))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Counts["inspection_rate"])

	require.NoError(t, db.Model(&model.InspectionRecord{}).Where("serial_number = ?", "SN1").Count(&sn1Records).Error)
	require.NoError(t, db.Model(&model.InspectionRecord{}).Where("serial_number = ?", "SN2").Count(&sn2Records).Error)
	assert.Equal(t, int64(1), sn1Records)
	assert.Equal(t, int64(1), sn2Records)

	require.NoError(t, db.Where("serial_number = ?", "SN1").First(&m1).Error)
	require.NoError(t, db.Where("serial_number = ?", "SN2").First(&m2).Error)
	require.NotNil(t, m1.PSIStatus)
	assert.Equal(t, "Inspecté", *m1.PSIStatus)
	require.NotNil(t, m1.LastVisit)
	assert.Equal(t, "2025-06-01", *m1.LastVisit)
	require.NotNil(t, m2.PSIStatus)
	assert.Equal(t, "Inspecté", *m2.PSIStatus)
	require.NotNil(t, m2.LastVisit)
	assert.Equal(t, "2024-02-02", *m2.LastVisit)
}

func TestIngestRemoteServiceSheet(t *testing.T) {
	db := setupDB(t)
	svc := NewIngestionService(db, testLogger(), 100)
	ctx := context.Background()

	sheets := []fixtureSheet{
		masterSheet(
			[]interface{}{"100", "Acme", "ACC-1", "SN1", "CAT", "320D", "Pelle", "1200", "OK", "", ""},
		),
		{name: "Suivi Remote Service", rows: [][]interface{}{
			{"S/N", "Product Model", "Flash Update"},
			{"SN1", "320D", "1"},
			{"SN1", "320D", "0"}, // 同 serial 重复行：保留首行
			{"RZ9", "D6T", "0"},
		}},
	}
	report, err := svc.IngestFile(ctx, "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Counts["remote_service"])

	var r1 model.RemoteServiceRecord
	require.NoError(t, db.Where("serial_number = ?", "SN1").First(&r1).Error)
	require.NotNil(t, r1.FlashUpdate)
	assert.Equal(t, "1", *r1.FlashUpdate)

	// 主表没有的序列号落成 stub，型号来自 Product Model 列
	var stub model.Machine
	require.NoError(t, db.Where("serial_number = ?", "RZ9").First(&stub).Error)
	assert.Nil(t, stub.ClientID)
	require.NotNil(t, stub.Model)
	assert.Equal(t, "D6T", *stub.Model)

	// 再导一次：upsert 不产生重复行
	_, err = svc.IngestFile(ctx, "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)
	var remoteRows int64
	require.NoError(t, db.Model(&model.RemoteServiceRecord{}).Count(&remoteRows).Error)
	assert.Equal(t, int64(2), remoteRows)
}

func TestIngestRemoteSheetByHeaderSignature(t *testing.T) {
	db := setupDB(t)
	svc := NewIngestionService(db, testLogger(), 100)

	// sheet 名不在别名表里，只能靠表头特征「Flash Update」定位
	sheets := []fixtureSheet{
		masterSheet(
			[]interface{}{"100", "Acme", "ACC-1", "SN1", "CAT", "320D", "Pelle", "1200", "OK", "", ""},
		),
		{name: "Feuille3", rows: [][]interface{}{
			{"S/N", "Flash Update"},
			{"SN1", "1"},
		}},
	}
	report, err := svc.IngestFile(context.Background(), "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Counts["remote_service"])

	var rec model.RemoteServiceRecord
	require.NoError(t, db.Where("serial_number = ?", "SN1").First(&rec).Error)
	require.NotNil(t, rec.FlashUpdate)
	assert.Equal(t, "1", *rec.FlashUpdate)
}

func TestIngestEndToEndCriticalStatus(t *testing.T) {
	db := setupDB(t)
	logger := testLogger()
	svc := NewIngestionService(db, logger, 100)

	sheets := []fixtureSheet{
		masterSheet(
			[]interface{}{"100", "Acme", "ACC-1", "SN1", "CAT", "320D", "Pelle", "1200", "Défaut moteur", "", ""},
		),
	}
	_, err := svc.IngestFile(context.Background(), "export.xlsx", buildFixture(t, sheets))
	require.NoError(t, err)

	machineSvc := NewMachineService(repository.NewMachineRepository(db), NewStatusService(), logger)
	dtos, err := machineSvc.List(context.Background(), repository.MachineFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, dtos, 1)

	dto := dtos[0]
	assert.Equal(t, "SN1", dto.SerialNumber)
	assert.Equal(t, "Acme", dto.Client)
	assert.Equal(t, model.SeverityCritical, dto.Status)

	var alert *InterventionDTO
	for i := range dto.PendingInterventions {
		if dto.PendingInterventions[i].Type == model.InterventionTypeAlert {
			alert = &dto.PendingInterventions[i]
		}
	}
	require.NotNil(t, alert)
	assert.Equal(t, "Statut Excel: Défaut moteur", *alert.Description)
}
