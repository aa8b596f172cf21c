package schema

// RawDocument 原始文档，从对象存储取回后不再修改
type RawDocument struct {
	// Key 对象存储中的来源标识
	Key string `json:"key"`
	// Data 原始 PDF 字节
	Data []byte `json:"-"`
	// Metadata 对象携带的业务元数据（company、filing_date、doc_type 等）
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TableRecord 解析出的表格。Grid 第一行按约定为列头
type TableRecord struct {
	// Grid 单元格二维数组
	Grid [][]string `json:"grid"`
	// Caption 从表格上方文本推断出的标题
	Caption string `json:"caption"`
	// PageNumber 所在页码（从 1 开始）
	PageNumber int `json:"page_number"`
	// StorageKey 表格作为 CSV 副产物上传后的对象 key，上传前为空
	StorageKey string `json:"storage_key,omitempty"`
}

// TextChunk 一段叙述性文本，产生后不可变
type TextChunk struct {
	Text       string `json:"text"`
	PageNumber int    `json:"page_number"`
}

// ParsedDocument 单个 RawDocument 的全部解析结果，是写入索引的单位
type ParsedDocument struct {
	Key      string            `json:"key"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Chunks   []TextChunk       `json:"chunks"`
	Tables   []*TableRecord    `json:"tables"`
}

// VectorRecord 持久化到向量索引的记录
type VectorRecord struct {
	// ID 记录唯一标识，由来源 key 和单元序号确定性派生
	ID string `json:"id"`
	// Values 定长向量，长度必须等于索引的固定维度
	Values []float32 `json:"values"`
	// Metadata 固定键集合的元数据，见 indexer 的 schema 校验
	Metadata map[string]any `json:"metadata"`
}

// SearchMatch 向量检索返回的单条命中
type SearchMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
