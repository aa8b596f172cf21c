package errors

// ErrCode 业务错误码类型
type ErrCode int

const (
	// 通用/配置错误 1000-1999，配置错误在任何 I/O 之前快速失败
	ErrInvalidConfig    ErrCode = 1001 // 配置错误（如 overlap >= maxChunkSize）
	ErrInvalidParameter ErrCode = 1002 // 参数错误
	ErrInternalError    ErrCode = 1003 // 内部错误
	ErrObjectNotFound   ErrCode = 1004 // 对象存储中 key 不存在

	// 解析相关 2000-2999
	ErrDocumentParseFailed ErrCode = 2001 // PDF 解析失败
	ErrLayoutExtraction    ErrCode = 2002 // 页面布局提取失败

	// 嵌入服务 3000-3999
	ErrEmbeddingProvider ErrCode = 3001 // Embedding 服务调用失败（配额/网络/服务端）

	// 向量索引 4000-4999
	ErrVectorStoreInit  ErrCode = 4001 // 向量库初始化失败
	ErrIndexUpsert      ErrCode = 4002 // 向量批量写入失败
	ErrVectorSearch     ErrCode = 4003 // 向量检索失败
	ErrRecordValidation ErrCode = 4004 // 单条向量记录校验失败（丢弃，不中断批次）

	// 对象存储 5000-5999
	ErrFileReadFailed   ErrCode = 5001 // 对象读取失败
	ErrFileUploadFailed ErrCode = 5002 // 对象上传失败

	// 数据库相关 6000-6999
	ErrDatabaseInit   ErrCode = 6001 // 数据库初始化失败
	ErrDatabaseQuery  ErrCode = 6002 // 数据库查询失败
	ErrDatabaseUpdate ErrCode = 6003 // 数据库更新失败
)
