package parser

import (
	"io"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"job-ranker-go/internal/constants"
	"job-ranker-go/internal/types"
)

// 精选技能词表。候选词先走这里，再补充职位名词元和行业特定词。
var curatedSkillVocabulary = []string{
	// 编程语言与框架
	"python", "java", "javascript", "typescript", "golang", "react", "node.js",
	"django", "spring", "kubernetes", "docker", "terraform", "linux",
	// 数据与云
	"sql", "mysql", "postgresql", "mongodb", "redis", "kafka", "spark",
	"aws", "azure", "gcp", "snowflake", "tableau", "etl", "analytics",
	"machine learning", "data engineering", "data analysis",
	// 销售与商务
	"sales", "business development", "account management", "lead generation",
	"negotiation", "cold calling", "crm", "salesforce", "hubspot",
	"pipeline management", "quota", "prospecting", "closing",
	// 金融与信贷
	"lending", "underwriting", "mortgage", "loan origination", "credit analysis",
	"financial analysis", "risk management", "compliance", "banking",
	// 管理与运营
	"project management", "team leadership", "operations", "strategy",
	"budgeting", "forecasting", "recruiting", "training", "coaching",
	"customer service", "client relations", "vendor management",
	// 市场与产品
	"marketing", "product management", "seo", "content marketing",
	"social media", "branding", "market research",
}

// 职位名词元的停用词
var titleStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {},
	"senior": {}, "junior": {}, "lead": {}, "head": {}, "chief": {},
	"assistant": {}, "associate": {}, "intern": {}, "entry": {},
	"level": {}, "staff": {}, "principal": {},
}

// 各行业追加的领域关键词
var industrySupplementKeywords = map[string][]string{
	"Finance/Lending":            {"loan processing", "deal structuring", "portfolio management"},
	"Technology/Software":        {"agile", "ci/cd", "microservices"},
	"Sales/Business Development": {"territory management", "upselling", "revenue growth"},
	"Automotive":                 {"f&i", "inventory management", "dealership operations"},
	"Construction":               {"estimating", "safety compliance", "subcontractor management"},
	"Nonprofit":                  {"fundraising", "grant writing", "community outreach"},
}

// 职级乘数标记词。高级标记优先级高于初级标记。
var (
	seniorTitleMarkers = []string{"senior", "lead", "manager", "director", "vp", "ceo", "cto", "head", "principal", "chief"}
	juniorTitleMarkers = []string{"junior", "entry", "associate", "intern", "assistant"}
)

var titleTokenRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z+#.]*`)

// KeywordExtractor 从简历结构中提取带权重的关键词画像
type KeywordExtractor struct {
	logger *log.Logger
	now    func() time.Time
}

// KeywordExtractorOption 提取器配置选项
type KeywordExtractorOption func(*KeywordExtractor)

// WithExtractorNowFunc 替换时间源，测试中用于固定时效乘数的基准时间
func WithExtractorNowFunc(now func() time.Time) KeywordExtractorOption {
	return func(e *KeywordExtractor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewKeywordExtractor 创建关键词提取器
func NewKeywordExtractor(logger *log.Logger, options ...KeywordExtractorOption) *KeywordExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	e := &KeywordExtractor{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Extract 生成关键词画像。候选词 = 词表命中 + 职位名词元 + 主行业补充词，
// 每个词的权重 = 1.0 × 时效 × 年限 × 行业 × 级别。
func (e *KeywordExtractor) Extract(resumeText string, structure *types.ResumeStructure) *types.KeywordProfile {
	if structure == nil {
		structure = &types.ResumeStructure{PrimaryIndustry: DefaultIndustry}
	}

	candidates := e.collectCandidates(resumeText, structure)

	keywords := make([]types.WeightedKeyword, 0, len(candidates))
	for _, candidate := range candidates {
		keywords = append(keywords, e.weigh(candidate, structure))
	}

	// 稳定排序：权重相同的词保持发现顺序
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Weight > keywords[j].Weight
	})

	profile := &types.KeywordProfile{
		AllKeywords: keywords,
		Summary: types.KeywordSummary{
			TotalCandidates:      len(keywords),
			PrimaryIndustry:      structure.PrimaryIndustry,
			TotalExperienceYears: structure.TotalExperienceYears,
			RolesAnalyzed:        len(structure.Roles),
		},
	}

	topN := constants.TopSearchKeywords
	if topN > len(keywords) {
		topN = len(keywords)
	}
	profile.SearchKeywords = make([]string, 0, topN)
	for i := 0; i < topN; i++ {
		profile.SearchKeywords = append(profile.SearchKeywords, keywords[i].Keyword)
	}

	skillN := constants.TopDominantSkills
	if skillN > len(keywords) {
		skillN = len(keywords)
	}
	profile.Summary.DominantSkills = make([]string, 0, skillN)
	for i := 0; i < skillN; i++ {
		profile.Summary.DominantSkills = append(profile.Summary.DominantSkills, keywords[i].Keyword)
	}

	e.logger.Printf("提取关键词 %d 个, 主行业 %s", len(keywords), structure.PrimaryIndustry)
	return profile
}

// collectCandidates 收集去重后的候选关键词，保持发现顺序
func (e *KeywordExtractor) collectCandidates(resumeText string, structure *types.ResumeStructure) []string {
	lowerResume := strings.ToLower(resumeText)
	seen := make(map[string]struct{})
	var candidates []string

	add := func(keyword string) {
		normalized := strings.ToLower(strings.TrimSpace(keyword))
		if normalized == "" {
			return
		}
		if _, ok := seen[normalized]; ok {
			return
		}
		seen[normalized] = struct{}{}
		candidates = append(candidates, normalized)
	}

	// 1. 词表命中
	for _, term := range curatedSkillVocabulary {
		if strings.Contains(lowerResume, term) {
			add(term)
		}
	}

	// 2. 职位名词元：长度>3且不是停用词
	for _, role := range structure.Roles {
		for _, token := range titleTokenRe.FindAllString(strings.ToLower(role.Title), -1) {
			if len(token) <= 3 {
				continue
			}
			if _, stop := titleStopwords[token]; stop {
				continue
			}
			add(token)
		}
	}

	// 3. 主行业补充词（只补简历中确实出现过的）
	for _, term := range industrySupplementKeywords[structure.PrimaryIndustry] {
		if strings.Contains(lowerResume, term) {
			add(term)
		}
	}

	return candidates
}

// weigh 计算单个关键词的四因子权重。
// 没有任何命中经历的关键词所有乘数取中性值，权重保持基准1.0。
func (e *KeywordExtractor) weigh(keyword string, structure *types.ResumeStructure) types.WeightedKeyword {
	matching := matchingRoles(keyword, structure.Roles)
	if len(matching) == 0 {
		return types.WeightedKeyword{Keyword: keyword, Weight: 1.0, Recency: 1.0}
	}

	recency := e.recencyMultiplier(matching)
	tenureYears := 0.0
	sources := make([]string, 0, len(matching))
	for _, role := range matching {
		tenureYears += role.DurationYears
		if role.Company != "" {
			sources = append(sources, role.Company)
		}
	}

	weight := 1.0
	weight *= recency
	weight *= tenureMultiplier(tenureYears)
	weight *= industryMultiplier(matching, structure.PrimaryIndustry)
	weight *= seniorityMultiplier(matching)

	return types.WeightedKeyword{
		Keyword:     keyword,
		Weight:      weight,
		Sources:     sources,
		Recency:     recency,
		TenureYears: round1(tenureYears),
	}
}

// matchingRoles 返回职位名或描述中包含该关键词的经历
func matchingRoles(keyword string, roles []types.ResumeRole) []types.ResumeRole {
	var matched []types.ResumeRole
	for _, role := range roles {
		haystack := strings.ToLower(role.Title + " " + role.Description)
		if strings.Contains(haystack, keyword) {
			matched = append(matched, role)
		}
	}
	return matched
}

// recencyMultiplier 按最近一段命中经历的起始时间分档。
// 在职经历直接取最高档；没有任何命中经历时取中性值1.0。
func (e *KeywordExtractor) recencyMultiplier(matching []types.ResumeRole) float64 {
	if len(matching) == 0 {
		return 1.0
	}

	latest := matching[0]
	for _, role := range matching[1:] {
		if role.StartDate.After(latest.StartDate) {
			latest = role
		}
	}

	if latest.IsCurrent {
		return 2.0
	}

	yearsSinceStart := e.now().Sub(latest.StartDate).Hours() / 24 / 365.25
	switch {
	case yearsSinceStart < 1:
		return 2.0
	case yearsSinceStart < 3:
		return 1.5
	case yearsSinceStart < 5:
		return 1.0
	case yearsSinceStart < 10:
		return 0.7
	default:
		return 0.5
	}
}

// tenureMultiplier 按命中经历的累计任职年限分档
func tenureMultiplier(totalYears float64) float64 {
	switch {
	case totalYears >= 5:
		return 1.5
	case totalYears >= 3:
		return 1.3
	case totalYears >= 1:
		return 1.0
	default:
		return 0.8
	}
}

// industryMultiplier 命中经历中有主行业经历时加成
func industryMultiplier(matching []types.ResumeRole, primaryIndustry string) float64 {
	for _, role := range matching {
		if role.Industry == primaryIndustry && primaryIndustry != "" {
			return 1.25
		}
	}
	return 1.0
}

// seniorityMultiplier 按命中经历的职级标记分档，高级标记优先
func seniorityMultiplier(matching []types.ResumeRole) float64 {
	hasJunior := false
	for _, role := range matching {
		lowerTitle := strings.ToLower(role.Title)
		for _, marker := range seniorTitleMarkers {
			if strings.Contains(lowerTitle, marker) {
				return 1.2
			}
		}
		for _, marker := range juniorTitleMarkers {
			if strings.Contains(lowerTitle, marker) {
				hasJunior = true
			}
		}
	}
	if hasJunior {
		return 0.9
	}
	return 1.0
}
