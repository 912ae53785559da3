package model

import (
	"strconv"
	"strings"
)

// ScoreKind 合同评分的标签类型
type ScoreKind int

const (
	ScoreAbsent   ScoreKind = iota // 缺失/空串
	ScoreNumeric                   // 纯数字（"0"、"1.0"、"0.85"…）
	ScoreFraction                  // 分数（"0/1"、"3/4"…）
	ScoreText                      // 其余文本（"N/A"…）
)

// Score 合同评分的解析结果。源头把评分写成数字、分数或文本，
// 统一解析一次，低分判定在标签值上做，不在业务代码里散落字符串比较。
type Score struct {
	Kind  ScoreKind
	Value float64 // Kind==ScoreNumeric 时有效
	Num   int     // Kind==ScoreFraction 时有效
	Den   int
	Raw   string
}

// ParseScore 解析原始评分串。nil/空白 → Absent；解析失败不报错，落为 Text。
func ParseScore(raw *string) Score {
	if raw == nil {
		return Score{Kind: ScoreAbsent}
	}
	s := strings.ToLower(strings.TrimSpace(*raw))
	if s == "" {
		return Score{Kind: ScoreAbsent, Raw: *raw}
	}
	if idx := strings.Index(s, "/"); idx >= 0 {
		numPart := strings.TrimSpace(s[:idx])
		denPart := strings.TrimSpace(s[idx+1:])
		num, errN := strconv.Atoi(numPart)
		den, errD := strconv.Atoi(denPart)
		if errN == nil && errD == nil {
			return Score{Kind: ScoreFraction, Num: num, Den: den, Raw: *raw}
		}
		return Score{Kind: ScoreText, Raw: *raw}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Score{Kind: ScoreNumeric, Value: v, Raw: *raw}
	}
	return Score{Kind: ScoreText, Raw: *raw}
}

// IsLow 低分判定：数字 0 或 1（覆盖 "0"/"1"/"0.0"/"1.0"），
// 或分子为 0、分母非 0 的分数（"0/1" 等，代表零完成）。
// 文本与缺失一律不触发。
func (s Score) IsLow() bool {
	switch s.Kind {
	case ScoreNumeric:
		return s.Value == 0 || s.Value == 1
	case ScoreFraction:
		return s.Num == 0 && s.Den != 0
	default:
		return false
	}
}

// IsZeroOfOne 批量生成任务只认字面分数 0/1（与逐机引擎的泛化 IsLow 有意保持两套口径）
func (s Score) IsZeroOfOne() bool {
	return s.Kind == ScoreFraction && s.Num == 0 && s.Den == 1
}
