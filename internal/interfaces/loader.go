package interfaces

import (
	"context"

	"ParcSync/internal/sheet"
)

// SheetLoader 所有附表装载器必须实现的核心接口。
// 装载器按固定顺序执行；sheet 缺失返回 (0, nil) 并自行记日志，不视为失败。
type SheetLoader interface {
	Name() string                                                                    // 装载器名称（日志与计数键）
	Load(ctx context.Context, wb *sheet.Workbook, rc *ReconcileContext) (int, error) // 装载并返回处理行数
}

// ReconcileContext 一次导入内贯穿各阶段的协调上下文。
// 取代跨装载器共享的全局可变序列号集合：每个可能新建机器的阶段结束后
// 由编排方整体刷新（Reset），而不是各处就地改全局。
type ReconcileContext struct {
	serials           map[string]struct{}
	clientIDByExtID   map[string]uint64
	machineIDBySerial map[string]uint64
}

func NewReconcileContext() *ReconcileContext {
	return &ReconcileContext{
		serials:           map[string]struct{}{},
		clientIDByExtID:   map[string]uint64{},
		machineIDBySerial: map[string]uint64{},
	}
}

// ResetSerials 用数据库当前状态整体替换序列号集合
func (rc *ReconcileContext) ResetSerials(serials map[string]struct{}) {
	if serials == nil {
		serials = map[string]struct{}{}
	}
	rc.serials = serials
}

// ResetMachineIDs 刷新 序列号 → 机器ID 映射
func (rc *ReconcileContext) ResetMachineIDs(m map[string]uint64) {
	if m == nil {
		m = map[string]uint64{}
	}
	rc.machineIDBySerial = m
}

// ResetClientIDs 刷新 外部客户ID → 内部ID 映射
func (rc *ReconcileContext) ResetClientIDs(m map[string]uint64) {
	if m == nil {
		m = map[string]uint64{}
	}
	rc.clientIDByExtID = m
}

// KnownSerial 序列号是否已有机器行
func (rc *ReconcileContext) KnownSerial(serial string) bool {
	_, ok := rc.serials[serial]
	return ok
}

// AddSerial 装载器落了 stub 后登记（仅对当前阶段内可见；阶段结束仍会整体刷新）
func (rc *ReconcileContext) AddSerial(serial string) {
	rc.serials[serial] = struct{}{}
}

// ClientID 外部客户ID → 内部ID
func (rc *ReconcileContext) ClientID(externalID string) (uint64, bool) {
	id, ok := rc.clientIDByExtID[externalID]
	return id, ok
}

// MachineID 序列号 → 机器ID
func (rc *ReconcileContext) MachineID(serial string) (uint64, bool) {
	id, ok := rc.machineIDBySerial[serial]
	return id, ok
}
