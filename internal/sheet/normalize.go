package sheet

import (
	"strconv"
	"strings"
)

// Table 一个 sheet 的表头 + 数据行。列查找统一走别名解析，
// 业务代码不直接比对表头字符串。
type Table struct {
	Name    string
	headers []string
	rows    [][]string
}

// Len 数据行数（不含表头）
func (t *Table) Len() int { return len(t.rows) }

// Column 按优先级顺序的别名列表解析列号（大小写不敏感、两端去空白），找不到返回 -1
func (t *Table) Column(aliases ...string) int {
	for _, a := range aliases {
		want := strings.ToLower(strings.TrimSpace(a))
		for i, h := range t.headers {
			if strings.ToLower(h) == want {
				return i
			}
		}
	}
	return -1
}

// Row 取第 i 行（0 基）
func (t *Table) Row(i int) Row { return Row{cells: t.rows[i]} }

// Row 一行已读出的单元格。所有取值方法把缺失哨兵归一为 nil，
// 类型转换失败同样落 nil，单格异常绝不中断整行处理。
type Row struct {
	cells []string
}

// excelize 把空单元格读成 ""；pandas 系导出还可能残留 NaN 字面量
func isAbsent(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "#n/a":
		return true
	}
	return false
}

// String 去空白字符串，缺失 → nil
func (r Row) String(col int) *string {
	if col < 0 || col >= len(r.cells) {
		return nil
	}
	s := strings.TrimSpace(r.cells[col])
	if isAbsent(s) {
		return nil
	}
	return &s
}

// Float 数字强转，失败 → nil。法语导出可能用逗号小数点
func (r Row) Float(col int) *float64 {
	s := r.String(col)
	if s == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(*s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// Int 整数强转（容忍 "100.0" 这类 Excel 浮点化整数），失败 → nil
func (r Row) Int(col int) *int {
	f := r.Float(col)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
