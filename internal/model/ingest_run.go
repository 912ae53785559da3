package model

import (
	"time"

	"gorm.io/datatypes"
)

// IngestRun 一次导入的审计记录：运行 uuid + 各类目处理计数（jsonb）。
// 只写不读，供排查导入历史用。
type IngestRun struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID    string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null"`
	Filename   string         `gorm:"column:filename;type:varchar(256)"`
	Counts     datatypes.JSON `gorm:"column:counts;type:jsonb"`
	Success    bool           `gorm:"column:success;type:boolean;default:false"`
	Error      *string        `gorm:"column:error;type:text"`
	StartedAt  time.Time      `gorm:"column:started_at;type:timestamp;not null"`
	FinishedAt *time.Time     `gorm:"column:finished_at;type:timestamp"`
}

func (IngestRun) TableName() string { return "ingest_runs" }
