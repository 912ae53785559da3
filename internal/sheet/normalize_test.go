package sheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook 用 excelize 在内存里造一个测试工作簿
func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) *Workbook {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	wb, err := Open(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestColumnAliasResolution(t *testing.T) {
	wb := buildWorkbook(t, map[string][][]interface{}{
		"Feuil1": {
			{"  S/N  ", "Modèle", "Heures"},
			{"SN1", "D6R", "120.5"},
		},
	})
	tab, err := wb.Master()
	require.NoError(t, err)

	// 别名按优先级解析，大小写与两端空白不敏感
	assert.Equal(t, 0, tab.Column("Serial Number", "s/n"))
	assert.Equal(t, 1, tab.Column("modèle"))
	assert.Equal(t, -1, tab.Column("LATITUDE", "lat"))
}

func TestRowNormalization(t *testing.T) {
	wb := buildWorkbook(t, map[string][][]interface{}{
		"data": {
			{"serial", "hours", "status", "count"},
			{"  SN9 ", "1234,5", "NaN", "7.0"},
			{"", "abc", "  Défaut  ", ""},
		},
	})
	tab, err := wb.Master()
	require.NoError(t, err)
	require.Equal(t, 2, tab.Len())

	r0 := tab.Row(0)
	require.NotNil(t, r0.String(0))
	assert.Equal(t, "SN9", *r0.String(0)) // 去空白
	require.NotNil(t, r0.Float(1))
	assert.Equal(t, 1234.5, *r0.Float(1)) // 逗号小数点
	assert.Nil(t, r0.String(2))           // NaN 哨兵 → 缺失
	require.NotNil(t, r0.Int(3))
	assert.Equal(t, 7, *r0.Int(3))

	r1 := tab.Row(1)
	assert.Nil(t, r1.String(0))  // 空串 → 缺失
	assert.Nil(t, r1.Float(1))   // 强转失败 → 缺失，不报错
	require.NotNil(t, r1.String(2))
	assert.Equal(t, "Défaut", *r1.String(2))
	assert.Nil(t, r1.Int(3))
	// 越界列安全返回缺失
	assert.Nil(t, r1.String(99))
}

func TestSheetLocation(t *testing.T) {
	wb := buildWorkbook(t, map[string][][]interface{}{
		"Feuil1":                {{"N° série du matériel"}, {"SN1"}},
		"CVAF":                  {{"Serial Number", "Sos Score"}, {"SN1", "0/1"}},
		"Suivi Remote Service":  {{"S/N", "Flash Update"}, {"SN1", "1"}},
	})

	_, err := wb.ByName("CVAF")
	assert.NoError(t, err)

	_, err = wb.ByName("Inspection Rate")
	assert.ErrorIs(t, err, ErrSheetNotFound)

	// 名称别名，大小写不敏感
	tab, err := wb.ByAliases([]string{"remote service", "remote_service", "suivi remote service"})
	require.NoError(t, err)
	assert.Equal(t, "Suivi Remote Service", tab.Name)

	// 表头特征扫描兜底
	tab, err = wb.ByHeaderSignature([]string{"Flash Update"})
	require.NoError(t, err)
	assert.Equal(t, "Suivi Remote Service", tab.Name)

	_, err = wb.ByHeaderSignature([]string{"No Such Column"})
	assert.ErrorIs(t, err, ErrSheetNotFound)
}
