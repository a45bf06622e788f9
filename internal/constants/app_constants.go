package constants

import "time"

const (
	// 请求入口约束
	MinResumeTextLength = 50 // 简历文本最少字符数，低于该值直接拒绝请求
	MaxJobsPerRequest   = 30 // 单次排序请求最多处理的岗位数量，超出部分静默忽略

	// 岗位详情回填
	MinJobDescriptionLength = 40 // 岗位描述低于该长度时触发详情抓取回填

	// 打分与混合权重
	KeywordScoreWeight   = 0.8 // 关键词重合度得分权重
	EmbeddingScoreWeight = 0.2 // 语义向量得分权重（未配置Embedder时贡献为0）

	// LLM重排
	MaxRerankJobs        = 10   // 仅对启发式得分最高的前N个岗位做LLM重排
	RerankOriginalWeight = 0.7  // 重排混合中原始得分的权重
	RerankRefineWeight   = 0.3  // 重排混合中LLM细化得分的权重
	ResumePreviewLength  = 2500 // 发送给LLM的简历预览最大字符数（空白折叠后截断）
	JobDescPreviewLength = 1200 // 发送给LLM的岗位描述最大字符数
	MaxRerankReasons     = 3    // 每个岗位最多采纳的fit/fix条数

	// 理由列表
	MaxMatchedReasonTerms = 10 // "Matches: ..."中最多列出的关键词数
	MaxMissingReasonTerms = 10 // "Consider adding: ..."中最多列出的关键词数

	// 关键词画像
	TopSearchKeywords = 18 // 搜索关键词取权重最高的前18个
	TopDominantSkills = 5  // 元数据中报告的主导技能数量

	// 缓存键取材范围
	ResumeKeySampleLength = 2000 // 参与整单响应缓存键计算的简历前缀长度
	JobURLsKeyMaxLength   = 8000 // 参与缓存键计算的URL拼接串最大长度

	// 缓存TTL
	ResponseCacheTTL = 600 * time.Second // 整单排序结果缓存
	JobScoreCacheTTL = 10 * time.Minute  // 单岗位启发式得分缓存
	RerankCacheTTL   = 10 * time.Minute  // 单岗位重排混合结果缓存
	ResumeTextCacheTTL = 24 * time.Hour  // resume_id -> 简历文本的读穿缓存
)
