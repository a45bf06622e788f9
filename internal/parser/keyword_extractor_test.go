package parser

import (
	"testing"
	"time"

	"job-ranker-go/internal/constants"
	"job-ranker-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeywordExtractor() *KeywordExtractor {
	return NewKeywordExtractor(nil, WithExtractorNowFunc(fixedNow))
}

// 构造一段经历的辅助函数
func makeRole(title, company string, startYearsAgo float64, isCurrent bool, durationYears float64, industry, description string) types.ResumeRole {
	start := fixedNow().Add(-time.Duration(startYearsAgo * 365.25 * 24 * float64(time.Hour)))
	role := types.ResumeRole{
		Title:         title,
		Company:       company,
		StartDate:     start,
		DurationYears: durationYears,
		Description:   description,
		Industry:      industry,
		IsCurrent:     isCurrent,
	}
	if !isCurrent {
		end := start.Add(time.Duration(durationYears * 365.25 * 24 * float64(time.Hour)))
		role.EndDate = &end
	}
	return role
}

func TestRecencyMultiplierCurrentVsAncientIsExactlyFourTimes(t *testing.T) {
	// 两个关键词的年限/行业/级别因子完全相同，只差时效档位
	structure := &types.ResumeStructure{
		Roles: []types.ResumeRole{
			makeRole("Python Developer", "NowCo", 0.5, true, 2.0, "General", "writing python daily"),
			makeRole("Java Developer", "ThenCo", 12, false, 2.0, "General", "wrote java services"),
		},
		PrimaryIndustry: "General",
	}

	e := newTestKeywordExtractor()
	profile := e.Extract("long experience with python and java backend systems", structure)

	var pythonWeight, javaWeight float64
	for _, kw := range profile.AllKeywords {
		switch kw.Keyword {
		case "python":
			pythonWeight = kw.Weight
		case "java":
			javaWeight = kw.Weight
		}
	}
	require.NotZero(t, pythonWeight)
	require.NotZero(t, javaWeight)

	// 在职经历 2.0 vs 十年以上 0.5
	assert.Equal(t, 4.0, pythonWeight/javaWeight)
}

func TestTenureMultiplierTiers(t *testing.T) {
	cases := []struct {
		years    float64
		expected float64
	}{
		{7.0, 1.5},
		{5.0, 1.5},
		{3.5, 1.3},
		{1.0, 1.0},
		{0.5, 0.8},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, tenureMultiplier(tc.years), "years=%v", tc.years)
	}
}

func TestSeniorityMarkerPrecedence(t *testing.T) {
	// 同一个关键词同时命中高级和初级经历时，高级标记优先
	roles := []types.ResumeRole{
		makeRole("Junior Analyst", "A", 8, false, 1.0, "General", "used sql"),
		makeRole("Senior Analyst", "B", 1, true, 3.0, "General", "used sql"),
	}
	assert.Equal(t, 1.2, seniorityMultiplier(roles))

	juniorOnly := []types.ResumeRole{
		makeRole("Junior Analyst", "A", 2, true, 1.0, "General", "used sql"),
	}
	assert.Equal(t, 0.9, seniorityMultiplier(juniorOnly))

	neutral := []types.ResumeRole{
		makeRole("Analyst", "A", 2, true, 1.0, "General", "used sql"),
	}
	assert.Equal(t, 1.0, seniorityMultiplier(neutral))
}

func TestIndustryMultiplierAppliesForPrimaryIndustry(t *testing.T) {
	matching := []types.ResumeRole{
		makeRole("Loan Officer", "Acme", 1, true, 4.0, "Finance/Lending", "lending work"),
	}
	assert.Equal(t, 1.25, industryMultiplier(matching, "Finance/Lending"))
	assert.Equal(t, 1.0, industryMultiplier(matching, "Technology/Software"))
	assert.Equal(t, 1.0, industryMultiplier(nil, "Finance/Lending"))
}

func TestExtractProducesStableDescendingOrder(t *testing.T) {
	structure := &types.ResumeStructure{
		Roles: []types.ResumeRole{
			makeRole("Engineer", "X", 2, true, 4.0, "Technology/Software",
				"python sql aws docker kubernetes react"),
		},
		PrimaryIndustry: "Technology/Software",
	}

	e := newTestKeywordExtractor()
	profile := e.Extract("python sql aws docker kubernetes react", structure)

	require.NotEmpty(t, profile.AllKeywords)
	for i := 1; i < len(profile.AllKeywords); i++ {
		assert.GreaterOrEqual(t,
			profile.AllKeywords[i-1].Weight, profile.AllKeywords[i].Weight,
			"权重必须降序")
	}

	// 权重全部相同时保持词表发现顺序
	var equalRun []string
	for _, kw := range profile.AllKeywords {
		if kw.Weight == profile.AllKeywords[0].Weight {
			equalRun = append(equalRun, kw.Keyword)
		}
	}
	assert.Contains(t, equalRun, "python")
	if len(equalRun) > 1 {
		assert.Equal(t, "python", equalRun[0], "稳定排序应保留发现顺序")
	}
}

func TestExtractSearchKeywordsCappedAtEighteen(t *testing.T) {
	longResume := `python java javascript typescript golang react node.js django spring
kubernetes docker terraform linux sql mysql postgresql mongodb redis kafka spark
aws azure gcp snowflake tableau etl analytics marketing seo`

	structure := &types.ResumeStructure{
		Roles: []types.ResumeRole{
			makeRole("Engineer", "X", 2, true, 4.0, "Technology/Software", longResume),
		},
		PrimaryIndustry: "Technology/Software",
	}

	e := newTestKeywordExtractor()
	profile := e.Extract(longResume, structure)

	assert.Greater(t, profile.Summary.TotalCandidates, constants.TopSearchKeywords)
	assert.Len(t, profile.SearchKeywords, constants.TopSearchKeywords)
	assert.Len(t, profile.Summary.DominantSkills, constants.TopDominantSkills)
}

func TestExtractWithNilStructure(t *testing.T) {
	e := newTestKeywordExtractor()
	profile := e.Extract("python developer with aws experience", nil)

	require.NotNil(t, profile)
	assert.Equal(t, DefaultIndustry, profile.Summary.PrimaryIndustry)
	// 无经历时所有乘数取中性值，权重为1.0
	for _, kw := range profile.AllKeywords {
		assert.Equal(t, 1.0, kw.Weight)
	}
}

func TestExtractKeywordSourcesAndTenure(t *testing.T) {
	structure := &types.ResumeStructure{
		Roles: []types.ResumeRole{
			makeRole("Sales Manager", "Acme Corp", 2, true, 2.0, "Sales/Business Development", "crm pipeline sales"),
			makeRole("Sales Rep", "Beta Inc", 6, false, 3.0, "Sales/Business Development", "cold calling and sales"),
		},
		PrimaryIndustry: "Sales/Business Development",
	}

	e := newTestKeywordExtractor()
	profile := e.Extract("sales professional using crm and cold calling", structure)

	var salesKw *types.WeightedKeyword
	for i := range profile.AllKeywords {
		if profile.AllKeywords[i].Keyword == "sales" {
			salesKw = &profile.AllKeywords[i]
			break
		}
	}
	require.NotNil(t, salesKw)
	assert.ElementsMatch(t, []string{"Acme Corp", "Beta Inc"}, salesKw.Sources)
	assert.InDelta(t, 5.0, salesKw.TenureYears, 0.01)
}
