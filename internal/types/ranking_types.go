package types

import "time"

// ResumeRole 从简历自由文本中解析出的一段工作经历
type ResumeRole struct {
	Title         string     `json:"title"`          // 职位名称
	Company       string     `json:"company"`        // 公司名称
	StartDate     time.Time  `json:"start_date"`     // 起始时间
	EndDate       *time.Time `json:"end_date"`       // 结束时间，nil表示至今在职
	DurationYears float64    `json:"duration_years"` // 任职年限，保留一位小数，恒 >= 0
	Description   string     `json:"description"`    // 该段经历的描述文本
	Industry      string     `json:"industry"`       // 按词表推断出的行业
	IsCurrent     bool       `json:"is_current"`     // 是否当前在职，与EndDate为nil等价
}

// ResumeStructure 解析后的简历结构
type ResumeStructure struct {
	Roles []ResumeRole `json:"roles"` // 按出现顺序排列的工作经历

	// TotalExperienceYears 是所有经历时长的直接累加。
	// 重叠的任职区间不做合并，兼职并行经历会被重复计入。
	TotalExperienceYears float64 `json:"total_experience_years"`
	PrimaryIndustry      string  `json:"primary_industry"` // 累计时长最长的行业
}

// WeightedKeyword 一个带权重的技能/关键词
type WeightedKeyword struct {
	Keyword     string   `json:"keyword"`
	Weight      float64  `json:"weight"`       // 1.0 × 时效 × 年限 × 行业 × 级别 四个乘数之积
	Sources     []string `json:"sources"`      // 命中该关键词的公司名集合
	Recency     float64  `json:"recency"`      // 时效乘数快照
	TenureYears float64  `json:"tenure_years"` // 所有命中经历的任职年限之和
}

// KeywordSummary 关键词画像的元数据
type KeywordSummary struct {
	TotalCandidates      int      `json:"total_candidates"`       // 候选关键词总数
	PrimaryIndustry      string   `json:"primary_industry"`       // 主行业
	TotalExperienceYears float64  `json:"total_experience_years"` // 总工作年限（未合并重叠）
	DominantSkills       []string `json:"dominant_skills"`        // 权重最高的前5个关键词
	RolesAnalyzed        int      `json:"roles_analyzed"`         // 参与分析的经历条数
}

// KeywordProfile 关键词提取器的完整输出
type KeywordProfile struct {
	SearchKeywords []string          `json:"search_keywords"` // 权重最高的前18个，用于外部搜索
	AllKeywords    []WeightedKeyword `json:"all_keywords"`    // 按权重降序的全量列表（稳定排序）
	Summary        KeywordSummary    `json:"summary"`
}

// CandidateJob 待排序的岗位输入，URL是缓存与去重的唯一标识
type CandidateJob struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// ScoredJob 排序输出中的一条岗位结果，Score恒在[0,100]内
type ScoredJob struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	CompanyName string   `json:"company_name"`
	Score       int      `json:"score"`
	Reasons     []string `json:"reasons"`
}

// JobDetail 岗位详情抓取回填的结果，字段均可缺省
type JobDetail struct {
	Title       string `json:"title,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// RerankCandidate 发送给LLM裁判的单个岗位（文本已截断）
type RerankCandidate struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Description string `json:"description"` // 截断到前1200字符
}

// RerankJudgment LLM裁判针对单个岗位返回的细化结果
type RerankJudgment struct {
	URL            string   `json:"url"`
	RefineScore    *int     `json:"refine_score"` // 0-100；缺失或非法时该岗位被忽略
	FitReasons     []string `json:"fit_reasons"`
	FixSuggestions []string `json:"fix_suggestions"`
}

// RankRequest 排序请求体。简历文本可以直接携带，
// 也可以通过resume_id由存储层解析。
type RankRequest struct {
	Jobs       []CandidateJob `json:"jobs"`
	ResumeID   string         `json:"resume_id,omitempty"`
	ResumeText string         `json:"resume_text,omitempty"`
}

// RankResponse 排序响应体，Rankings按得分降序排列
type RankResponse struct {
	Success   bool        `json:"success"`
	RankingID string      `json:"ranking_id,omitempty"`
	Rankings  []ScoredJob `json:"rankings"`
}
