package processor

import (
	"log"

	"job-ranker-go/internal/storage"
)

// JobRankerOption 排序流水线的配置选项
type JobRankerOption func(*JobRanker)

// WithRerankJudge 启用LLM重排裁判。不设置时排序仅使用启发式得分。
func WithRerankJudge(judge RerankJudge) JobRankerOption {
	return func(r *JobRanker) {
		r.judge = judge
	}
}

// WithRankerCache 设置整单响应与重排结果的缓存
func WithRankerCache(cache storage.RankCache) JobRankerOption {
	return func(r *JobRanker) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithRankerLogger 设置日志记录器
func WithRankerLogger(logger *log.Logger) JobRankerOption {
	return func(r *JobRanker) {
		if logger != nil {
			r.logger = logger
		}
	}
}
