package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/pecunia-ai/findex/core/errors"
)

// EmbeddingDim 索引的固定向量维度，必须与使用的 embedding 模型一致
const EmbeddingDim = 1536

// ValidateConfiguration validates all required configuration items
func ValidateConfiguration(ctx context.Context) error {
	var missingConfigs []string
	var warnings []string

	// 验证 Milvus 配置
	milvusAddress := g.Cfg().MustGet(ctx, "milvus.address", "").String()
	if milvusAddress == "" {
		missingConfigs = append(missingConfigs, "milvus.address")
	}

	// 验证 Embedding 配置
	embeddingAPIKey := g.Cfg().MustGet(ctx, "embedding.apiKey", "").String()
	embeddingBaseURL := g.Cfg().MustGet(ctx, "embedding.baseURL", "").String()
	embeddingModel := g.Cfg().MustGet(ctx, "embedding.model", "").String()

	if embeddingAPIKey == "" {
		missingConfigs = append(missingConfigs, "embedding.apiKey")
	}
	if embeddingBaseURL == "" {
		missingConfigs = append(missingConfigs, "embedding.baseURL")
	}
	if embeddingModel == "" {
		missingConfigs = append(missingConfigs, "embedding.model")
	}

	// 验证对象存储配置
	storageEndpoint := g.Cfg().MustGet(ctx, "storage.endpoint", "").String()
	storageBucket := g.Cfg().MustGet(ctx, "storage.bucket", "").String()
	storageAccessKey := g.Cfg().MustGet(ctx, "storage.accessKey", "").String()

	if storageEndpoint == "" {
		missingConfigs = append(missingConfigs, "storage.endpoint")
	}
	if storageBucket == "" {
		missingConfigs = append(missingConfigs, "storage.bucket")
	}
	if storageAccessKey == "" {
		missingConfigs = append(missingConfigs, "storage.accessKey")
	}
	if g.Cfg().MustGet(ctx, "storage.tablePrefix", "").String() == "" {
		warnings = append(warnings, "storage.tablePrefix is not set, using 'extracted-tables'")
	}

	// 验证数据库配置
	dbHost := g.Cfg().MustGet(ctx, "database.default.host", "").String()
	dbUser := g.Cfg().MustGet(ctx, "database.default.user", "").String()
	dbName := g.Cfg().MustGet(ctx, "database.default.name", "").String()

	if dbHost == "" {
		missingConfigs = append(missingConfigs, "database.default.host")
	}
	if dbUser == "" {
		missingConfigs = append(missingConfigs, "database.default.user")
	}
	if dbName == "" {
		missingConfigs = append(missingConfigs, "database.default.name")
	}

	// 输出警告信息
	if len(warnings) > 0 {
		g.Log().Warningf(ctx, "Configuration warnings:\n- %s", strings.Join(warnings, "\n- "))
	}

	// 检查是否有缺失的必需配置
	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configuration items:\n- %s\n\nPlease check your config.yaml file and ensure all required settings are properly configured", strings.Join(missingConfigs, "\n- "))
	}

	g.Log().Info(ctx, "✓ All required configuration items are present")

	return nil
}

// ParserConfig 文档解析配置
type ParserConfig struct {
	MaxChunkSize      int     // 文本分片最大长度（字符）
	ChunkOverlap      int     // 相邻分片重叠长度
	MaxCaptionLines   int     // 表格标题最多取几行
	FontDropRatio     float64 // 行平均字号低于上一行的该比例时停止收集标题行
	WordMergeGap      float64 // 同行 token 水平间距不超过该值时合并为一个词（像素）
	NumericTokenRatio float64 // 数字类 token 占比超过该值的分片按表格碎片丢弃
	CaptionFallbackN  int     // 无法分行时标题回退取的字符数
}

// DefaultParserConfig 返回默认解析配置
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		MaxChunkSize:      1000,
		ChunkOverlap:      100,
		MaxCaptionLines:   3,
		FontDropRatio:     0.7,
		WordMergeGap:      3,
		NumericTokenRatio: 0.4,
		CaptionFallbackN:  800,
	}
}

// Validate 校验解析配置，overlap 必须小于 maxChunkSize，否则快速失败
func (c ParserConfig) Validate() error {
	if c.MaxChunkSize <= 0 {
		return errors.Newf(errors.ErrInvalidConfig, "maxChunkSize must be positive, got %d", c.MaxChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.MaxChunkSize {
		return errors.Newf(errors.ErrInvalidConfig, "overlap must be smaller than maxChunkSize: overlap=%d, maxChunkSize=%d", c.ChunkOverlap, c.MaxChunkSize)
	}
	return nil
}

// WriterConfig 索引写入配置
type WriterConfig struct {
	// embedding 时使用
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	// 批量写入参数
	BatchSize int // 每次 upsert 的记录数上限
	Dim       int // 向量维度，必须与索引一致
}

// DefaultWriterConfig 从配置文件加载写入配置
func DefaultWriterConfig(ctx context.Context) *WriterConfig {
	return &WriterConfig{
		APIKey:         g.Cfg().MustGet(ctx, "embedding.apiKey", "").String(),
		BaseURL:        g.Cfg().MustGet(ctx, "embedding.baseURL", "").String(),
		EmbeddingModel: g.Cfg().MustGet(ctx, "embedding.model", "").String(),
		BatchSize:      g.Cfg().MustGet(ctx, "indexer.batchSize", 50).Int(),
		Dim:            g.Cfg().MustGet(ctx, "milvus.dim", EmbeddingDim).Int(),
	}
}

// WriterConfig 实现 embedding config 接口
func (c *WriterConfig) GetAPIKey() string         { return c.APIKey }
func (c *WriterConfig) GetBaseURL() string        { return c.BaseURL }
func (c *WriterConfig) GetEmbeddingModel() string { return c.EmbeddingModel }
