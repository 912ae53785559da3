package loader

import (
	"context"
	"errors"
	"fmt"

	"ParcSync/internal/interfaces"
	"ParcSync/internal/repository"
	"ParcSync/internal/sheet"

	"github.com/sirupsen/logrus"
)

// RepresentativeLoader PSSR_Client 表装载器：按客户名称回写负责代表。
// 只更新客户，不涉及机器，也不造 stub。
type RepresentativeLoader struct {
	clientRepo repository.ClientRepository
	logger     *logrus.Logger
}

func NewRepresentativeLoader(clientRepo repository.ClientRepository, logger *logrus.Logger) interfaces.SheetLoader {
	return &RepresentativeLoader{clientRepo: clientRepo, logger: logger}
}

func (l *RepresentativeLoader) Name() string { return "pssr" }

func (l *RepresentativeLoader) Load(ctx context.Context, wb *sheet.Workbook, rc *interfaces.ReconcileContext) (int, error) {
	tab, err := wb.ByName("PSSR_Client")
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			l.logger.Info("PSSR_Client sheet 未找到，跳过")
			return 0, nil
		}
		return 0, err
	}
	nameCol := tab.Column("Nom du compte", "Nom de compte client", "Account Name")
	repCol := tab.Column("PSSR/ ISR", "PSSR/ISR", "PSSR")
	if nameCol < 0 || repCol < 0 {
		return 0, fmt.Errorf("PSSR_Client sheet 缺少名称或代表列")
	}

	// 名称是这张表唯一的关联键，找不到的客户记一条日志后跳过
	nameMap, err := l.clientRepo.MapNameToID(ctx)
	if err != nil {
		return 0, err
	}
	assigned := 0
	missing := 0
	for i := 0; i < tab.Len(); i++ {
		row := tab.Row(i)
		namePtr := row.String(nameCol)
		repPtr := row.String(repCol)
		if namePtr == nil || repPtr == nil {
			continue
		}
		id, ok := nameMap[*namePtr]
		if !ok {
			missing++
			l.logger.WithField("client", *namePtr).Debug("PSSR行未匹配到客户")
			continue
		}
		if err := l.clientRepo.AssignRepresentative(ctx, id, *repPtr); err != nil {
			return assigned, fmt.Errorf("写入代表失败: %w", err)
		}
		assigned++
	}
	l.logger.Infof("PSSR装载完成：写入%d条，未匹配%d条", assigned, missing)
	return assigned, nil
}
