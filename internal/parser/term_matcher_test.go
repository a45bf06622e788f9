package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywordsKeepsAcronymsAndDropsStopwords(t *testing.T) {
	m := NewTermMatcher()
	keywords := m.ExtractKeywords("The team needs AWS and SQL skills, preferred Python experience")

	assert.Contains(t, keywords, "AWS", "短大写缩写必须保留")
	assert.Contains(t, keywords, "SQL")
	assert.Contains(t, keywords, "Python")
	assert.NotContains(t, keywords, "The")
	assert.NotContains(t, keywords, "and")
	assert.NotContains(t, keywords, "team", "通用停用词应被过滤")
	assert.NotContains(t, keywords, "skills")
}

func TestExtractKeywordsDeduplicatesCaseInsensitively(t *testing.T) {
	m := NewTermMatcher()
	keywords := m.ExtractKeywords("Python python PYTHON golang Golang")

	pythonCount := 0
	for _, kw := range keywords {
		if kw == "Python" || kw == "python" || kw == "PYTHON" {
			pythonCount++
		}
	}
	assert.Equal(t, 1, pythonCount)
	// 保留首次出现的原始大小写
	assert.Contains(t, keywords, "Python")
}

func TestExtractKeywordsPreservesTechTokens(t *testing.T) {
	m := NewTermMatcher()
	keywords := m.ExtractKeywords("Looking for node.js developers")

	assert.Contains(t, keywords, "node.js")
}

func TestOverlapScoreBounds(t *testing.T) {
	m := NewTermMatcher()

	// 完全命中
	score, matched, missing := m.OverlapScore(
		"experienced python developer with kubernetes background",
		"python kubernetes")
	assert.Equal(t, 100, score)
	assert.Len(t, matched, 2)
	assert.Empty(t, missing)

	// 完全不命中
	score, matched, missing = m.OverlapScore("accountant resume", "python kubernetes")
	assert.Equal(t, 0, score)
	assert.Empty(t, matched)
	assert.Len(t, missing, 2)
}

func TestOverlapScoreEmptyJobText(t *testing.T) {
	m := NewTermMatcher()
	score, matched, missing := m.OverlapScore("any resume text", "")
	assert.Equal(t, 0, score)
	assert.Nil(t, matched)
	assert.Nil(t, missing)
}

func TestOverlapScoreRounding(t *testing.T) {
	m := NewTermMatcher()
	// 岗位侧3个关键词，简历命中1个 -> round(33.3) = 33
	score, matched, missing := m.OverlapScore(
		"python resume content here",
		"python kubernetes terraform")
	require.Len(t, matched, 1)
	require.Len(t, missing, 2)
	assert.Equal(t, 33, score)
}
