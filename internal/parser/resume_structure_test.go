package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 固定时间源，保证任职年限计算可复现
func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
}

func newTestStructureParser() *ResumeStructureParser {
	return NewResumeStructureParser(nil, WithStructureNowFunc(fixedNow))
}

func TestParseResumeWithMixedDateFormats(t *testing.T) {
	resume := `John Doe
Experience
Senior Loan Officer | Acme Lending | June 2018 - Present
Managed mortgage underwriting pipeline
Sales Associate | RetailCo | 03/2015 - 05/2018
Exceeded quota using Salesforce CRM
Developer | TechStart | 2012 - 2015
Built software in Python`

	p := newTestStructureParser()
	structure := p.Parse(resume)

	require.Len(t, structure.Roles, 3)

	first := structure.Roles[0]
	assert.Equal(t, "Senior Loan Officer", first.Title)
	assert.Equal(t, "Acme Lending", first.Company)
	assert.True(t, first.IsCurrent)
	assert.Nil(t, first.EndDate)
	assert.Equal(t, time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC), first.StartDate)
	assert.InDelta(t, 7.0, first.DurationYears, 0.11)
	assert.Equal(t, "Finance/Lending", first.Industry)
	assert.Contains(t, first.Description, "mortgage underwriting")

	second := structure.Roles[1]
	assert.Equal(t, "Sales Associate", second.Title)
	assert.Equal(t, "RetailCo", second.Company)
	assert.False(t, second.IsCurrent)
	require.NotNil(t, second.EndDate)
	assert.Equal(t, time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC), second.StartDate)
	assert.Equal(t, time.Date(2018, 5, 1, 0, 0, 0, 0, time.UTC), *second.EndDate)
	assert.InDelta(t, 3.2, second.DurationYears, 0.01)
	assert.Equal(t, "Sales/Business Development", second.Industry)

	third := structure.Roles[2]
	assert.Equal(t, "Developer", third.Title)
	assert.Equal(t, "TechStart", third.Company)
	assert.InDelta(t, 3.0, third.DurationYears, 0.01)
	assert.Equal(t, "Technology/Software", third.Industry)

	// 主行业 = 累计时长最长的行业
	assert.Equal(t, "Finance/Lending", structure.PrimaryIndustry)
	assert.InDelta(t, 13.2, structure.TotalExperienceYears, 0.2)
}

func TestParseResumeWithoutExperienceSection(t *testing.T) {
	p := newTestStructureParser()
	structure := p.Parse("Just a summary paragraph about my passions and hobbies with no dates at all.")

	assert.Empty(t, structure.Roles)
	assert.Equal(t, DefaultIndustry, structure.PrimaryIndustry)
	assert.Zero(t, structure.TotalExperienceYears)
}

func TestParseResumeEmptyInput(t *testing.T) {
	p := newTestStructureParser()

	for _, input := range []string{"", "   ", "\n\n"} {
		structure := p.Parse(input)
		assert.NotNil(t, structure)
		assert.Empty(t, structure.Roles)
		assert.Equal(t, DefaultIndustry, structure.PrimaryIndustry)
	}
}

func TestParseMalformedDateTreatedAsDescription(t *testing.T) {
	resume := `Work History
Manager | SomeCo | Jan 2020 - Present
Nevertheless 2020 was a great year for growth`

	p := newTestStructureParser()
	structure := p.Parse(resume)

	// 非法月份名不会开启新经历，该行归入描述
	require.Len(t, structure.Roles, 1)
	assert.Contains(t, structure.Roles[0].Description, "Nevertheless")
}

func TestParseYearRangePrecededByCompanyWord(t *testing.T) {
	// 年份区间前面直接跟公司名时不能被月份模式抢先拦截
	resume := `Experience
Acme 2015 - Present
Built python services on aws`

	p := newTestStructureParser()
	structure := p.Parse(resume)

	require.Len(t, structure.Roles, 1)
	assert.Equal(t, "Acme", structure.Roles[0].Title)
	assert.True(t, structure.Roles[0].IsCurrent)
	assert.Contains(t, structure.Roles[0].Description, "python")
}

func TestParseWordWithMonthPrefixDoesNotConfuseParser(t *testing.T) {
	// "Jan"开头的普通单词不是月份，应落到裸年份模式
	resume := `Experience
Janitor | CleanCo | 2015 - 2018
Facility maintenance`

	p := newTestStructureParser()
	structure := p.Parse(resume)

	require.Len(t, structure.Roles, 1)
	assert.Equal(t, "Janitor", structure.Roles[0].Title)
	assert.InDelta(t, 3.0, structure.Roles[0].DurationYears, 0.1)
}

func TestParseOverlappingRolesAreNotMerged(t *testing.T) {
	resume := `Experience
Consultant | FirmA | 2020 - 2024
Advised clients
Advisor | FirmB | 2021 - 2023
Part time engagement`

	p := newTestStructureParser()
	structure := p.Parse(resume)

	require.Len(t, structure.Roles, 2)
	// 重叠区间直接累加：4年 + 2年
	assert.InDelta(t, 6.0, structure.TotalExperienceYears, 0.1)
}

func TestParseImplausibleYearRejected(t *testing.T) {
	p := newTestStructureParser()
	structure := p.Parse("Experience\nEngineer | X | 1234 - 5678\ndetails here")

	assert.Empty(t, structure.Roles)
}

func TestDurationNeverNegative(t *testing.T) {
	resume := `Experience
Engineer | FutureCo | 2030 - Present
Time traveler`

	p := newTestStructureParser()
	structure := p.Parse(resume)

	require.Len(t, structure.Roles, 1)
	assert.GreaterOrEqual(t, structure.Roles[0].DurationYears, 0.0)
}

func TestInferIndustryFallsBackToGeneral(t *testing.T) {
	assert.Equal(t, "General", inferIndustry("totally unrelated words"))
	assert.Equal(t, "Nonprofit", inferIndustry("Helping Hands Foundation fundraiser"))
	assert.Equal(t, "Construction", inferIndustry("ABC Roofing and remodels"))
}
