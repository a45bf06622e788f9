package parser

import (
	"math"
	"regexp"
	"strings"
)

// 通用英文停用词，岗位描述分词时过滤
var matcherStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "will": {}, "have": {}, "your": {}, "about": {}, "their": {},
	"them": {}, "they": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"while": {}, "would": {}, "could": {}, "should": {}, "been": {}, "being": {},
	"more": {}, "most": {}, "other": {}, "some": {}, "such": {}, "than": {},
	"into": {}, "over": {}, "under": {}, "after": {}, "before": {}, "between": {},
	"each": {}, "every": {}, "able": {}, "well": {}, "also": {}, "must": {},
	"work": {}, "team": {}, "role": {}, "join": {}, "looking": {}, "seeking": {},
	"years": {}, "experience": {}, "required": {}, "preferred": {}, "including": {},
	"strong": {}, "skills": {}, "ability": {}, "candidate": {}, "position": {},
	"company": {}, "opportunity": {}, "responsibilities": {}, "requirements": {},
}

// 分词模式：保留 + # . 以免拆散 c++ / c# / node.js 这类技术名
var termTokenRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+#.]*`)

// TermMatcher 负责岗位文本分词与关键词重合度打分。
// 无任何状态，可在多个请求间安全复用。
type TermMatcher struct{}

// NewTermMatcher 创建匹配器
func NewTermMatcher() *TermMatcher {
	return &TermMatcher{}
}

// ExtractKeywords 从岗位文本中提取去重后的关键词，保持首次出现顺序。
// 保留规则：长度>3的非停用词，或长度>=2的全大写缩写（AWS、SQL等）。
func (m *TermMatcher) ExtractKeywords(text string) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, token := range termTokenRe.FindAllString(text, -1) {
		token = strings.Trim(token, ".")
		lower := strings.ToLower(token)
		if _, stop := matcherStopwords[lower]; stop {
			continue
		}
		isAcronym := len(token) >= 2 && token == strings.ToUpper(token) && strings.ContainsAny(token, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
		if len(token) <= 3 && !isAcronym {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		keywords = append(keywords, token)
	}
	return keywords
}

// MatchTerms 把岗位关键词按是否出现在简历文本中分为命中/缺失两组
func (m *TermMatcher) MatchTerms(resumeText string, jobKeywords []string) (matched, missing []string) {
	lowerResume := strings.ToLower(resumeText)
	for _, keyword := range jobKeywords {
		if strings.Contains(lowerResume, strings.ToLower(keyword)) {
			matched = append(matched, keyword)
		} else {
			missing = append(missing, keyword)
		}
	}
	return matched, missing
}

// OverlapScore 计算关键词重合度得分：round(100 × 命中数 / 岗位关键词总数)。
// 岗位侧无关键词时返回0，结果恒在[0,100]内。
func (m *TermMatcher) OverlapScore(resumeText, jobText string) (score int, matched, missing []string) {
	jobKeywords := m.ExtractKeywords(jobText)
	if len(jobKeywords) == 0 {
		return 0, nil, nil
	}

	matched, missing = m.MatchTerms(resumeText, jobKeywords)
	score = int(math.Round(100 * float64(len(matched)) / float64(len(jobKeywords))))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, matched, missing
}
