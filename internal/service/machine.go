package service

import (
	"context"
	"time"

	"ParcSync/internal/model"
	"ParcSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// InterventionDTO 行动项视图（合成项 id 为负数）
type InterventionDTO struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Description *string   `json:"description"`
	DateCreated time.Time `json:"dateCreated"`
}

// LocationDTO 机器位置。坐标缺失回退 0.0，地址回退客户名
type LocationDTO struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// MachineDTO 机器视图：主档字段 + 推导状态 + 行动项列表
type MachineDTO struct {
	ID                   uint64            `json:"id"`
	SerialNumber         string            `json:"serialNumber"`
	Model                *string           `json:"model"`
	Client               string            `json:"client"`
	Location             LocationDTO       `json:"location"`
	Status               string            `json:"status"`
	PendingInterventions []InterventionDTO `json:"pendingInterventions"`
}

// MachineService 机器查询服务：读主档 + 逐机推导状态。
// 永远基于最近一次提交的数据尽力返回，不透出导入过程的错误。
type MachineService struct {
	machineRepo repository.MachineRepository
	status      *StatusService
	logger      *logrus.Logger
}

func NewMachineService(machineRepo repository.MachineRepository, status *StatusService, logger *logrus.Logger) *MachineService {
	return &MachineService{machineRepo: machineRepo, status: status, logger: logger}
}

// List 机器列表（可按精确序列号或 serial/model/客户名模糊搜索过滤）
func (s *MachineService) List(ctx context.Context, filter repository.MachineFilter, limit, offset int) ([]*MachineDTO, error) {
	machines, err := s.machineRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	dtos := make([]*MachineDTO, 0, len(machines))
	for _, m := range machines {
		dtos = append(dtos, s.toDTO(m))
	}
	return dtos, nil
}

// Get 单台机器
func (s *MachineService) Get(ctx context.Context, serial string) (*MachineDTO, error) {
	m, err := s.machineRepo.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	return s.toDTO(m), nil
}

func (s *MachineService) toDTO(m *model.Machine) *MachineDTO {
	severity, list := s.status.Derive(m)

	clientName := "Unknown Client"
	address := "Unknown Location"
	if m.Client != nil {
		clientName = m.Client.Name
		address = m.Client.Name
	}
	loc := LocationDTO{Address: address}
	if m.Latitude != nil {
		loc.Lat = *m.Latitude
	}
	if m.Longitude != nil {
		loc.Lng = *m.Longitude
	}

	items := make([]InterventionDTO, 0, len(list))
	for _, iv := range list {
		items = append(items, InterventionDTO{
			ID:          iv.ID,
			Type:        iv.Type,
			Priority:    iv.Priority,
			Status:      iv.Status,
			Description: iv.Description,
			DateCreated: iv.DateCreated,
		})
	}
	return &MachineDTO{
		ID:                   m.ID,
		SerialNumber:         m.SerialNumber,
		Model:                m.Model,
		Client:               clientName,
		Location:             loc,
		Status:               severity,
		PendingInterventions: items,
	}
}
