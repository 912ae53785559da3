package loader

import (
	"context"
	"sort"

	"ParcSync/internal/interfaces"
	"ParcSync/internal/model"
	"ParcSync/internal/repository"
)

// 序列号列在各附表的表头写法（优先级顺序）
var serialAliases = []string{"Serial Number", "S/N", "N° série", "N° série du matériel"}

// ensureStubs 给附表里出现但机器主档没有的序列号落最小 stub 行
// （serial + 尽力而为的 model），冲突时什么都不做，并登记进协调上下文。
func ensureStubs(ctx context.Context, machineRepo repository.MachineRepository, rc *interfaces.ReconcileContext, stubs []*model.Machine) error {
	if len(stubs) == 0 {
		return nil
	}
	if err := machineRepo.UpsertStubs(ctx, stubs); err != nil {
		return err
	}
	for _, s := range stubs {
		rc.AddSerial(s.SerialNumber)
	}
	return nil
}

// sortedSerials set → 稳定有序切片（删除语句参数可复现，便于测试与日志）
func sortedSerials(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
