package service

import (
	"fmt"
	"strings"
	"time"

	"ParcSync/internal/model"
)

// 自由文本状态里触发 critical 的关键词（大小写不敏感子串匹配）
var criticalKeywords = []string{"défaut", "urgent", "critique", "critical", "breakdown"}

// StatusService 逐机状态推导引擎。纯函数，不读写数据库，
// 可对不同机器并发调用；机器关联数据由调用方预加载。
type StatusService struct{}

func NewStatusService() *StatusService {
	return &StatusService{}
}

// Derive 给定一台已预加载全部关联的机器，计算三级状态与行动项列表。
// 返回列表 = 合成项（负ID，不落库）+ 既有 PENDING 行动项。
// 单个字段坏值只导致该信号不触发，绝不让整台机器的推导失败。
func (s *StatusService) Derive(m *model.Machine) (string, []model.Intervention) {
	now := time.Now()
	nextID := int64(-1)
	synth := func(typ, priority string, desc string) model.Intervention {
		iv := model.Intervention{
			ID:          nextID,
			MachineID:   m.ID,
			Type:        typ,
			Priority:    priority,
			Status:      model.StatusPending,
			Description: &desc,
			DateCreated: now,
		}
		nextID--
		return iv
	}

	var list []model.Intervention

	// 信号逐项评估
	keywordHit := statusKeywordHit(m.Status)
	pendingHigh := false
	pendingMedium := false
	var pending []model.Intervention
	for _, iv := range m.Interventions {
		if iv.Status != model.StatusPending {
			continue
		}
		pending = append(pending, iv)
		switch iv.Priority {
		case model.PriorityHigh:
			pendingHigh = true
		case model.PriorityMedium:
			pendingMedium = true
		}
	}

	lowScore := false
	if m.Contract != nil {
		insp := model.ParseScore(m.Contract.InspectionScore)
		sos := model.ParseScore(m.Contract.SosScore)
		lowScore = insp.IsLow() || sos.IsLow()

		priority := model.PriorityLow
		if lowScore {
			priority = model.PriorityHigh
		}
		list = append(list, synth(model.InterventionTypeContract, priority,
			fmt.Sprintf("Contrat %s - Scores (Inspection: %s, SOS: %s)",
				deref(m.Contract.CvaType, "CVAF"),
				deref(m.Contract.InspectionScore, "-"),
				deref(m.Contract.SosScore, "-"))))
	}

	if m.PSIStatus == nil {
		list = append(list, synth(model.InterventionTypeInspection, model.PriorityMedium,
			"Statut d'inspection inconnu (Programme Inspection Rate)"))
	}

	for _, c := range m.Campaigns {
		if deref(c.Status, "") != "Open" {
			continue
		}
		list = append(list, synth(model.InterventionTypeCampaign, model.PriorityLow,
			fmt.Sprintf("PS %s - %s - %s",
				deref(c.ReferenceNumber, "?"),
				deref(c.PsType, ""),
				deref(c.Description, ""))))
	}

	flashRequired := m.Remote != nil && deref(m.Remote.FlashUpdate, "") == "1"
	if flashRequired {
		list = append(list, synth(model.InterventionTypeRemote, model.PriorityMedium,
			"Mise à jour Flash requise (Remote Service)"))
	}

	if keywordHit {
		list = append(list, synth(model.InterventionTypeAlert, model.PriorityHigh,
			"Statut Excel: "+deref(m.Status, "")))
	}

	list = append(list, pending...)

	// 固定优先级：先判 critical，不命中再判 maintenance，没有降级后再升级
	severity := model.SeverityOperational
	switch {
	case keywordHit || pendingHigh || lowScore:
		severity = model.SeverityCritical
	case isNotInspected(m.PSIStatus) || flashRequired || len(m.Campaigns) > 0 || pendingMedium:
		severity = model.SeverityMaintenance
	}
	return severity, list
}

func statusKeywordHit(status *string) bool {
	if status == nil {
		return false
	}
	lower := strings.ToLower(*status)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isNotInspected(psiStatus *string) bool {
	return psiStatus != nil && *psiStatus == model.PSINotInspected
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
