package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pecunia-ai/findex/core/errors"
)

func TestDefaultParserConfig(t *testing.T) {
	cfg := DefaultParserConfig()
	assert.Equal(t, 1000, cfg.MaxChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.MaxCaptionLines)
	assert.Equal(t, 0.7, cfg.FontDropRatio)
	assert.Equal(t, 3.0, cfg.WordMergeGap)
	assert.Equal(t, 0.4, cfg.NumericTokenRatio)
	assert.Equal(t, 800, cfg.CaptionFallbackN)
	assert.NoError(t, cfg.Validate())
}

func TestParserConfigValidate(t *testing.T) {
	cfg := DefaultParserConfig()

	cfg.ChunkOverlap = cfg.MaxChunkSize
	err := cfg.Validate()
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))

	cfg.ChunkOverlap = cfg.MaxChunkSize + 50
	assert.True(t, errors.HasCode(cfg.Validate(), errors.ErrInvalidConfig))

	cfg.ChunkOverlap = -1
	assert.True(t, errors.HasCode(cfg.Validate(), errors.ErrInvalidConfig))

	cfg = DefaultParserConfig()
	cfg.MaxChunkSize = 0
	assert.True(t, errors.HasCode(cfg.Validate(), errors.ErrInvalidConfig))

	// 无重叠是合法配置
	cfg = DefaultParserConfig()
	cfg.ChunkOverlap = 0
	assert.NoError(t, cfg.Validate())
}

func TestWriterConfigGetters(t *testing.T) {
	cfg := &WriterConfig{
		APIKey:         "sk-test",
		BaseURL:        "https://api.example.com/v1",
		EmbeddingModel: "text-embedding-3-small",
		BatchSize:      50,
		Dim:            EmbeddingDim,
	}

	assert.Equal(t, "sk-test", cfg.GetAPIKey())
	assert.Equal(t, "https://api.example.com/v1", cfg.GetBaseURL())
	assert.Equal(t, "text-embedding-3-small", cfg.GetEmbeddingModel())
	assert.Equal(t, 1536, cfg.Dim)
}
