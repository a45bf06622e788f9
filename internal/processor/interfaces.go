package processor

import (
	"context"

	"job-ranker-go/internal/types"
)

//
// 简历解析相关接口
//

// StructureParser 简历结构解析器接口
type StructureParser interface {
	// Parse 把简历自由文本解析为结构化的工作经历。
	// 任何输入都不报错，解析不出经历时返回空结构。
	Parse(text string) *types.ResumeStructure
}

// KeywordProfiler 关键词画像提取器接口
type KeywordProfiler interface {
	// Extract 基于简历文本和解析出的结构生成带权重的关键词画像
	Extract(resumeText string, structure *types.ResumeStructure) *types.KeywordProfile
}

//
// 打分相关接口
//

// OverlapScorer 关键词重合度打分接口
type OverlapScorer interface {
	// OverlapScore 返回[0,100]的重合度得分，以及命中/缺失的岗位关键词
	OverlapScore(resumeText, jobText string) (score int, matched, missing []string)
}

// JobDetailFetcher 岗位详情抓取接口，用于描述过短时的回填
type JobDetailFetcher interface {
	FetchJobDetail(ctx context.Context, url string) (*types.JobDetail, error)
}

//
// 重排相关接口
//

// RerankJudge LLM裁判接口。
// 返回的列表可以少于输入数量，非法条目由实现方过滤。
type RerankJudge interface {
	JudgeJobs(ctx context.Context, resumePreview string, jobs []types.RerankCandidate) ([]types.RerankJudgment, error)
}
