package loader

import (
	"context"
	"fmt"
	"strconv"

	"ParcSync/internal/interfaces"
	"ParcSync/internal/model"
	"ParcSync/internal/repository"
	"ParcSync/internal/sheet"

	"github.com/sirupsen/logrus"
)

// 主表各逻辑字段的表头别名（跨导出写法不稳定，集中声明，不在业务代码里散落比较）
var (
	masterClientIDAliases   = []string{"ID client", "Customer ID"}
	masterClientNameAliases = []string{"Nom de compte client", "Nom du compte client"}
	masterClientAcctAliases = []string{"Numéro de compte client"}
	masterMakeAliases       = []string{"Marque", "Make"}
	masterModelAliases      = []string{"Modèle", "Model"}
	masterFamilyAliases     = []string{"Famille de produits", "Product Family"}
	masterMeterAliases      = []string{"Compteur d'entretien (Heures)"}
	masterReportedAliases   = []string{"Heure du dernier signalement du dernier compteur d'entretien connu"}
	masterStatusAliases     = []string{"Dernier statut matériel remonté"}
	masterLatAliases        = []string{"LATITUDE", "LAT"}
	masterLonAliases        = []string{"LONGITUDE", "LONG", "LNG"}
)

// Reconciler 主表调和器：upsert 客户与机器主档。
// 主表是核心字段唯一的权威来源，附表装载器只能补 stub。
type Reconciler struct {
	clientRepo  repository.ClientRepository
	machineRepo repository.MachineRepository
	logger      *logrus.Logger
	batchSize   int
}

func NewReconciler(clientRepo repository.ClientRepository, machineRepo repository.MachineRepository, logger *logrus.Logger, batchSize int) *Reconciler {
	return &Reconciler{
		clientRepo:  clientRepo,
		machineRepo: machineRepo,
		logger:      logger,
		batchSize:   batchSize,
	}
}

// LoadMaster 读主表（第一个 sheet），先 upsert 客户、再 upsert 机器，
// 完成后刷新协调上下文。主表不可读或序列号列缺失是整次导入的致命错误。
func (l *Reconciler) LoadMaster(ctx context.Context, wb *sheet.Workbook, rc *interfaces.ReconcileContext) (clients int, machines int, err error) {
	tab, err := wb.Master()
	if err != nil {
		return 0, 0, err
	}
	serialCol := tab.Column(masterSerialAliases()...)
	if serialCol < 0 {
		return 0, 0, fmt.Errorf("主表缺少序列号列（sheet=%s）", tab.Name)
	}

	clientIDCol := tab.Column(masterClientIDAliases...)
	clientNameCol := tab.Column(masterClientNameAliases...)
	clientAcctCol := tab.Column(masterClientAcctAliases...)
	makeCol := tab.Column(masterMakeAliases...)
	modelCol := tab.Column(masterModelAliases...)
	familyCol := tab.Column(masterFamilyAliases...)
	meterCol := tab.Column(masterMeterAliases...)
	reportedCol := tab.Column(masterReportedAliases...)
	statusCol := tab.Column(masterStatusAliases...)
	latCol := tab.Column(masterLatAliases...)
	lonCol := tab.Column(masterLonAliases...)

	// 1. 客户：按外部ID去重后 upsert
	clientByExt := make(map[string]*model.Client)
	for i := 0; i < tab.Len(); i++ {
		row := tab.Row(i)
		extID := normalizeExternalID(row, clientIDCol)
		if extID == "" {
			continue
		}
		if _, seen := clientByExt[extID]; seen {
			continue
		}
		name := "Unknown"
		if n := row.String(clientNameCol); n != nil {
			name = *n
		}
		clientByExt[extID] = &model.Client{
			ExternalID:    extID,
			Name:          name,
			AccountNumber: row.String(clientAcctCol),
		}
	}
	clientInserts := make([]*model.Client, 0, len(clientByExt))
	for _, c := range clientByExt {
		clientInserts = append(clientInserts, c)
	}
	if err := l.clientRepo.UpsertClients(ctx, clientInserts); err != nil {
		return 0, 0, fmt.Errorf("upsert客户失败: %w", err)
	}
	clientMap, err := l.clientRepo.MapExternalIDToID(ctx)
	if err != nil {
		return 0, 0, err
	}
	rc.ResetClientIDs(clientMap)

	// 2. 机器：逐行清洗后按 serial upsert（同 serial 多行时后行覆盖前行）
	machineBySerial := make(map[string]*model.Machine)
	var order []string
	for i := 0; i < tab.Len(); i++ {
		row := tab.Row(i)
		serialPtr := row.String(serialCol)
		if serialPtr == nil {
			continue
		}
		serial := *serialPtr

		var clientID *uint64
		if extID := normalizeExternalID(row, clientIDCol); extID != "" {
			if id, ok := rc.ClientID(extID); ok {
				clientID = &id
			}
		}
		lat, lon := validCoordinates(row.Float(latCol), row.Float(lonCol))

		if _, seen := machineBySerial[serial]; !seen {
			order = append(order, serial)
		}
		machineBySerial[serial] = &model.Machine{
			SerialNumber:     serial,
			Make:             row.String(makeCol),
			Model:            row.String(modelCol),
			Family:           row.String(familyCol),
			ServiceMeter:     row.Float(meterCol),
			LastReportedTime: row.Float(reportedCol),
			Status:           row.String(statusCol),
			Latitude:         lat,
			Longitude:        lon,
			ClientID:         clientID,
		}
	}
	machineInserts := make([]*model.Machine, 0, len(order))
	for _, s := range order {
		machineInserts = append(machineInserts, machineBySerial[s])
	}
	if err := l.machineRepo.UpsertAuthoritative(ctx, machineInserts, l.batchSize); err != nil {
		return 0, 0, fmt.Errorf("upsert机器失败: %w", err)
	}

	if err := l.refreshContext(ctx, rc); err != nil {
		return 0, 0, err
	}
	l.logger.Infof("主表调和完成：客户%d，机器%d", len(clientInserts), len(machineInserts))
	return len(clientInserts), len(machineInserts), nil
}

func (l *Reconciler) refreshContext(ctx context.Context, rc *interfaces.ReconcileContext) error {
	serials, err := l.machineRepo.SerialSet(ctx)
	if err != nil {
		return err
	}
	rc.ResetSerials(serials)
	ids, err := l.machineRepo.MapSerialToID(ctx)
	if err != nil {
		return err
	}
	rc.ResetMachineIDs(ids)
	return nil
}

func masterSerialAliases() []string {
	// 主表里序列号列几乎总叫全名，优先匹配
	return []string{"N° série du matériel", "Serial Number", "S/N"}
}

// normalizeExternalID 外部客户ID在源头是浮点化整数（"100.0"），统一成十进制整数串；
// 不可整数化的ID按无效跳过
func normalizeExternalID(row sheet.Row, col int) string {
	n := row.Int(col)
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// validCoordinates 坐标校验：两项都是数字且 lat∈[-90,90]、lon∈[-180,180] 才接受，
// 否则整对置缺失——绝不存半对坐标
func validCoordinates(lat, lon *float64) (*float64, *float64) {
	if lat == nil || lon == nil {
		return nil, nil
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return nil, nil
	}
	return lat, lon
}
