package constants

// Redis Key 前缀和格式常量
// 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// RankModulePrefix 排序模块
	RankModulePrefix = "rank"
	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"

	// EntityResponse 整单排序响应实体
	EntityResponse = "response"
	// EntityJobScore 单岗位启发式得分实体
	EntityJobScore = "jobscore"
	// EntityRerank 单岗位重排混合结果实体
	EntityRerank = "rerank"
	// EntityResumeText 简历文本实体
	EntityResumeText = "text"

	// KeyRankResponse 整单排序响应缓存 (STRING, JSON)
	// 格式: app:rank:response:{contentHash}
	KeyRankResponse = AppPrefix + ":" + RankModulePrefix + ":" + EntityResponse + ":%s"

	// KeyJobScore 单岗位启发式得分缓存 (STRING, JSON)
	// 格式: app:rank:jobscore:{contentHash}
	KeyJobScore = AppPrefix + ":" + RankModulePrefix + ":" + EntityJobScore + ":%s"

	// KeyRerankBlend 单岗位重排混合结果缓存 (STRING, JSON)
	// 格式: app:rank:rerank:{contentHash}
	KeyRerankBlend = AppPrefix + ":" + RankModulePrefix + ":" + EntityRerank + ":%s"

	// KeyResumeText 简历文本读穿缓存 (STRING)
	// 格式: app:resume:text:{resumeID}
	KeyResumeText = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityResumeText + ":%s"
)
