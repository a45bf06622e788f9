package parser

import (
	"io"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"job-ranker-go/internal/types"
)

// DefaultIndustry 无法从词表推断时的兜底行业
const DefaultIndustry = "General"

// 工作经历小节的标题同义词，按最早出现位置定位小节起点
var experienceHeadings = []string{
	"experience",
	"work history",
	"employment history",
	"professional experience",
	"career history",
}

// 日期区间模式。匹配顺序有讲究：先月份再MM/YYYY，最后裸年份，
// 避免裸年份模式吞掉更具体的写法。月份组限定为真实月份名，
// 否则"Acme 2015 - Present"这类行会被月份模式抢先拦截。
const monthNamePattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	monthYearRangeRe = regexp.MustCompile(`(?i)\b(` + monthNamePattern + `)\.?\s+(\d{4})\s*(?:-|–|—|to)\s*(?:(` + monthNamePattern + `)\.?\s+(\d{4})|(present|current))`)
	numericRangeRe   = regexp.MustCompile(`(?i)\b(\d{1,2})/(\d{4})\s*(?:-|–|—|to)\s*(?:(\d{1,2})/(\d{4})|(present|current))`)
	yearRangeRe      = regexp.MustCompile(`(?i)\b(\d{4})\s*(?:-|–|—|to)\s*(?:(\d{4})|(present|current))`)
)

// 月份名到月份序号的映射，兼容缩写
var monthLookup = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// 行业词表，按公司名+描述做大小写不敏感的子串匹配，先命中者先得
var industryLexicon = []struct {
	Name  string
	Terms []string
}{
	{"Finance/Lending", []string{"lending", "loan", "mortgage", "bank", "credit", "underwriting", "finance", "financial", "capital", "lender"}},
	{"Technology/Software", []string{"software", "saas", "engineering", "developer", "cloud", "platform", "startup", "tech", "digital", "data"}},
	{"Sales/Business Development", []string{"sales", "business development", "account executive", "account management", "revenue", "quota", "crm"}},
	{"Automotive", []string{"automotive", "dealership", "vehicle", "auto parts", "motors"}},
	{"Construction", []string{"construction", "contractor", "builder", "roofing", "hvac", "remodel"}},
	{"Nonprofit", []string{"nonprofit", "non-profit", "foundation", "charity", "volunteer", "ngo"}},
}

// 职位行剩余部分的切分符
var roleLineSeparatorRe = regexp.MustCompile(`\s*(?:[|•·@,]|\bat\b|\s-\s)\s*`)

// ResumeStructureParser 把简历自由文本解析为离散的工作经历结构
type ResumeStructureParser struct {
	logger *log.Logger
	now    func() time.Time
}

// ResumeStructureParserOption 解析器配置选项
type ResumeStructureParserOption func(*ResumeStructureParser)

// WithStructureNowFunc 替换时间源，测试中用于固定"当前时间"
func WithStructureNowFunc(now func() time.Time) ResumeStructureParserOption {
	return func(p *ResumeStructureParser) {
		if now != nil {
			p.now = now
		}
	}
}

// NewResumeStructureParser 创建结构解析器
func NewResumeStructureParser(logger *log.Logger, options ...ResumeStructureParserOption) *ResumeStructureParser {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	p := &ResumeStructureParser{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Parse 解析简历文本。任何输入都不会报错：
// 找不到任何经历时返回空角色列表、行业General、零年限。
func (p *ResumeStructureParser) Parse(text string) *types.ResumeStructure {
	structure := &types.ResumeStructure{
		Roles:           []types.ResumeRole{},
		PrimaryIndustry: DefaultIndustry,
	}
	if strings.TrimSpace(text) == "" {
		return structure
	}

	// 1. 定位工作经历小节；找不到标题时整篇文本视为一个小节
	section := p.locateExperienceSection(text)

	// 2. 逐行扫描日期区间，每个可解析的区间开启一段新经历
	var current *types.ResumeRole
	for _, line := range strings.Split(section, "\n") {
		start, end, matchedText, ok := p.parseDateRange(line)
		if !ok {
			// 非日期行（含日期格式非法的行）累积进当前经历的描述
			if current != nil {
				trimmed := strings.TrimSpace(line)
				if trimmed != "" {
					if current.Description != "" {
						current.Description += "\n"
					}
					current.Description += trimmed
				}
			}
			continue
		}

		if current != nil {
			structure.Roles = append(structure.Roles, *current)
		}

		title, company := splitRoleLine(strings.Replace(line, matchedText, "", 1))
		current = &types.ResumeRole{
			Title:     title,
			Company:   company,
			StartDate: start,
			EndDate:   end,
			IsCurrent: end == nil,
		}
	}
	if current != nil {
		structure.Roles = append(structure.Roles, *current)
	}

	// 3. 计算时长与行业，聚合总年限和主行业
	industryYears := make(map[string]float64)
	for i := range structure.Roles {
		role := &structure.Roles[i]
		role.DurationYears = p.durationYears(role.StartDate, role.EndDate)
		role.Industry = inferIndustry(role.Company + " " + role.Description)

		// 重叠区间不做合并，直接累加
		structure.TotalExperienceYears += role.DurationYears
		industryYears[role.Industry] += role.DurationYears
	}
	structure.TotalExperienceYears = round1(structure.TotalExperienceYears)

	// 主行业 = 累计时长最长的行业，按角色出现顺序打破平局
	bestYears := -1.0
	for i := range structure.Roles {
		industry := structure.Roles[i].Industry
		if years := industryYears[industry]; years > bestYears {
			bestYears = years
			structure.PrimaryIndustry = industry
		}
	}

	p.logger.Printf("解析出 %d 段工作经历, 总年限 %.1f, 主行业 %s",
		len(structure.Roles), structure.TotalExperienceYears, structure.PrimaryIndustry)

	return structure
}

// locateExperienceSection 找到最早出现的小节标题，返回其后的文本
func (p *ResumeStructureParser) locateExperienceSection(text string) string {
	lower := strings.ToLower(text)
	earliest := -1
	for _, heading := range experienceHeadings {
		if idx := strings.Index(lower, heading); idx >= 0 {
			if earliest < 0 || idx < earliest {
				earliest = idx
			}
		}
	}
	if earliest < 0 {
		return text
	}
	return text[earliest:]
}

// parseDateRange 尝试从一行中解析日期区间。
// 返回起始时间、结束时间（nil表示至今）、匹配到的原文片段。
// 某个模式匹配但日期校验失败时继续尝试后面的模式；
// 全部落空才按未匹配处理，该行不会成为经历边界。
func (p *ResumeStructureParser) parseDateRange(line string) (time.Time, *time.Time, string, bool) {
	if m := monthYearRangeRe.FindStringSubmatch(line); m != nil {
		if start, ok := monthYearDate(m[1], m[2]); ok {
			if m[5] != "" {
				return start, nil, m[0], true
			}
			if end, ok := monthYearDate(m[3], m[4]); ok {
				return start, &end, m[0], true
			}
		}
	}

	if m := numericRangeRe.FindStringSubmatch(line); m != nil {
		if start, ok := numericDate(m[1], m[2]); ok {
			if m[5] != "" {
				return start, nil, m[0], true
			}
			if end, ok := numericDate(m[3], m[4]); ok {
				return start, &end, m[0], true
			}
		}
	}

	if m := yearRangeRe.FindStringSubmatch(line); m != nil {
		if startYear, err := strconv.Atoi(m[1]); err == nil && plausibleYear(startYear) {
			start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
			if m[3] != "" {
				return start, nil, m[0], true
			}
			if endYear, err := strconv.Atoi(m[2]); err == nil && plausibleYear(endYear) {
				end := time.Date(endYear, time.January, 1, 0, 0, 0, 0, time.UTC)
				return start, &end, m[0], true
			}
		}
	}

	return time.Time{}, nil, "", false
}

// durationYears 计算任职年限，开放区间以当前时间封口，保留一位小数且不为负
func (p *ResumeStructureParser) durationYears(start time.Time, end *time.Time) float64 {
	effectiveEnd := p.now()
	if end != nil {
		effectiveEnd = *end
	}
	years := effectiveEnd.Sub(start).Hours() / 24 / 365.25
	if years < 0 {
		return 0
	}
	return round1(years)
}

// monthYearDate 把"月份名 + 年份"解析为该月1日
func monthYearDate(monthName, yearStr string) (time.Time, bool) {
	month, ok := monthLookup[strings.ToLower(monthName)]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || !plausibleYear(year) {
		return time.Time{}, false
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
}

// numericDate 把"MM/YYYY"解析为该月1日
func numericDate(monthStr, yearStr string) (time.Time, bool) {
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || !plausibleYear(year) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

// plausibleYear 过滤明显不是年份的四位数
func plausibleYear(year int) bool {
	return year >= 1950 && year <= 2100
}

// splitRoleLine 从日期行剩余文本中切出职位与公司候选
func splitRoleLine(remainder string) (title, company string) {
	parts := roleLineSeparatorRe.Split(remainder, -1)
	var fields []string
	for _, part := range parts {
		cleaned := strings.Trim(strings.TrimSpace(part), "-–—|•·,()")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned != "" {
			fields = append(fields, cleaned)
		}
	}
	if len(fields) > 0 {
		title = fields[0]
	}
	if len(fields) > 1 {
		company = fields[1]
	}
	return title, company
}

// inferIndustry 按词表推断行业，未命中时返回General
func inferIndustry(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range industryLexicon {
		for _, term := range entry.Terms {
			if strings.Contains(lower, term) {
				return entry.Name
			}
		}
	}
	return DefaultIndustry
}

// round1 保留一位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
