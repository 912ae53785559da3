package model

// 三级机器健康状态（对外 API 用小写）
const (
	SeverityOperational = "operational"
	SeverityMaintenance = "maintenance"
	SeverityCritical    = "critical"
)

// Intervention.Priority
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Intervention.Status 生命周期。只有 PENDING 会被生成任务重建
const (
	StatusPending   = "PENDING"
	StatusPlanned   = "PLANNED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Intervention.Type
const (
	InterventionTypeContract   = "CVAF"
	InterventionTypeInspection = "INSPECTION"
	InterventionTypeCampaign   = "SUIVI_PS"
	InterventionTypeRemote     = "REMOTE_SERVICE"
	InterventionTypeAlert      = "ALERTE"
)

// PSINotInspected 巡检缓存字段的触发字面量（源表原文）
const PSINotInspected = "Non Inspecté"
