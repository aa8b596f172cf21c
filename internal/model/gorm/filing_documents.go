package gorm

import (
	"time"
)

// 台账状态流转: pending -> indexing -> active / failed
const (
	FilingStatusPending  = 0
	FilingStatusIndexing = 1
	FilingStatusActive   = 2
	FilingStatusFailed   = 3
)

// FilingDocuments GORM模型定义
type FilingDocuments struct {
	ID          string     `gorm:"primaryKey;column:id;type:varchar(255)"`
	SourceKey   string     `gorm:"column:source_key;type:varchar(512);uniqueIndex;not null"`
	CompanyName string     `gorm:"column:company_name;type:varchar(255)"`
	FilingDate  string     `gorm:"column:filing_date;type:varchar(64)"`
	DocType     string     `gorm:"column:doc_type;type:varchar(64)"`
	ChunkCount  int        `gorm:"column:chunk_count;type:int;not null;default:0"`
	TableCount  int        `gorm:"column:table_count;type:int;not null;default:0"`
	VectorCount int        `gorm:"column:vector_count;type:int;not null;default:0"`
	Status      int8       `gorm:"column:status;type:tinyint;not null;default:0"`
	CreateTime  *time.Time `gorm:"column:create_time;type:timestamp;autoCreateTime"`
	UpdateTime  *time.Time `gorm:"column:update_time;type:timestamp;autoUpdateTime"`
}

// TableName 设置表名
func (FilingDocuments) TableName() string {
	return "filing_documents"
}
