package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound 可选 sheet 缺失：预期情况，调用方记 0 条跳过，不作失败
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook excelize 工作簿的薄封装：按名称/别名/表头特征定位 sheet，读出带表头映射的 Table
type Workbook struct {
	f *excelize.File
}

// Open 从流打开 xlsx（上传或 HTTP 下载的内容）
func Open(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开Excel失败: %w", err)
	}
	return &Workbook{f: f}, nil
}

func (w *Workbook) Close() error { return w.f.Close() }

// SheetNames 工作簿内全部 sheet 名（原始顺序）
func (w *Workbook) SheetNames() []string { return w.f.GetSheetList() }

// Master 主表：第一个 sheet
func (w *Workbook) Master() (*Table, error) {
	names := w.f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("工作簿无sheet")
	}
	return w.readTable(names[0])
}

// ByName 精确名称定位
func (w *Workbook) ByName(name string) (*Table, error) {
	for _, n := range w.f.GetSheetList() {
		if n == name {
			return w.readTable(n)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
}

// ByAliases 名称大小写不敏感匹配别名列表（sheet 名跨导出不稳定时用）
func (w *Workbook) ByAliases(aliases []string) (*Table, error) {
	for _, n := range w.f.GetSheetList() {
		lower := strings.ToLower(strings.TrimSpace(n))
		for _, a := range aliases {
			if lower == strings.ToLower(a) {
				return w.readTable(n)
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, strings.Join(aliases, "/"))
}

// ByHeaderSignature 兜底方案：扫描所有 sheet，表头含任一特征列名即认定。
// 单个 sheet 读取失败时继续扫下一个。
func (w *Workbook) ByHeaderSignature(headerCandidates []string) (*Table, error) {
	for _, n := range w.f.GetSheetList() {
		t, err := w.readTable(n)
		if err != nil {
			continue
		}
		for _, cand := range headerCandidates {
			if t.Column(cand) >= 0 {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: 按表头特征未找到 [%s]", ErrSheetNotFound, strings.Join(headerCandidates, ","))
}

func (w *Workbook) readTable(name string) (*Table, error) {
	rows, err := w.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("读取sheet %s 失败: %w", name, err)
	}
	t := &Table{Name: name}
	if len(rows) == 0 {
		return t, nil
	}
	t.headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		t.headers[i] = strings.TrimSpace(h)
	}
	t.rows = rows[1:]
	return t, nil
}
