package dao

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	gormModel "github.com/pecunia-ai/findex/internal/model/gorm"
)

// EnsureFiling 登记台账记录，已存在则更新文档级元数据。
// metadata 来自对象存储的用户元数据，company/filing_date/doc_type 可缺失。
func EnsureFiling(ctx context.Context, sourceKey string, metadata map[string]string) error {
	record := gormModel.FilingDocuments{
		ID:          uuid.New().String(),
		SourceKey:   sourceKey,
		CompanyName: metadata["company"],
		FilingDate:  metadata["filing_date"],
		DocType:     metadata["doc_type"],
		Status:      gormModel.FilingStatusPending,
	}

	err := GetDB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"company_name", "filing_date", "doc_type"}),
		}).
		Create(&record).Error
	if err != nil {
		g.Log().Errorf(ctx, "Failed to ensure filing record, sourceKey=%s, err=%v", sourceKey, err)
		return err
	}
	return nil
}

// UpdateFilingStatus 更新台账状态
func UpdateFilingStatus(ctx context.Context, sourceKey string, status int) error {
	err := GetDB().WithContext(ctx).
		Model(&gormModel.FilingDocuments{}).
		Where("source_key = ?", sourceKey).
		Update("status", status).Error
	if err != nil {
		g.Log().Errorf(ctx, "Failed to update filing status, sourceKey=%s, status=%d, err=%v", sourceKey, status, err)
		return err
	}
	return nil
}

// MarkFilingActive 记录产出数量并置为 active
func MarkFilingActive(ctx context.Context, sourceKey string, chunkCount, tableCount, vectorCount int) error {
	err := GetDB().WithContext(ctx).
		Model(&gormModel.FilingDocuments{}).
		Where("source_key = ?", sourceKey).
		Updates(map[string]any{
			"status":       gormModel.FilingStatusActive,
			"chunk_count":  chunkCount,
			"table_count":  tableCount,
			"vector_count": vectorCount,
		}).Error
	if err != nil {
		g.Log().Errorf(ctx, "Failed to mark filing active, sourceKey=%s, err=%v", sourceKey, err)
		return err
	}
	return nil
}

// GetFilingByKey 按源 key 查询台账记录
func GetFilingByKey(ctx context.Context, sourceKey string) (*gormModel.FilingDocuments, error) {
	var record gormModel.FilingDocuments
	err := GetDB().WithContext(ctx).
		Where("source_key = ?", sourceKey).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		g.Log().Errorf(ctx, "Failed to get filing record, sourceKey=%s, err=%v", sourceKey, err)
		return nil, err
	}
	return &record, nil
}

// ListFilingsByStatus 按状态列出台账记录
func ListFilingsByStatus(ctx context.Context, status int) ([]gormModel.FilingDocuments, error) {
	var records []gormModel.FilingDocuments
	err := GetDB().WithContext(ctx).
		Where("status = ?", status).
		Order("update_time DESC").
		Find(&records).Error
	if err != nil {
		g.Log().Errorf(ctx, "Failed to list filings by status=%d, err=%v", status, err)
		return nil, err
	}
	return records, nil
}
