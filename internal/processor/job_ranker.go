package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"job-ranker-go/internal/constants"
	"job-ranker-go/internal/storage"
	"job-ranker-go/internal/tracing"
	"job-ranker-go/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// 打分阶段的并发上限，主要约束详情抓取的外部请求量
const scoreConcurrency = 5

var rankerTracer = otel.Tracer("job-ranker-go/processor/ranker")

// JobRanker 排序流水线：结构解析 -> 关键词画像 -> 混合打分 -> LLM重排 -> 稳定排序。
// 重排阶段是纯增强：裁判不可用或失败时结果退化为启发式排序，请求不受影响。
type JobRanker struct {
	structureParser StructureParser
	profiler        KeywordProfiler
	scorer          *HybridJobScorer
	judge           RerankJudge
	cache           storage.RankCache
	logger          *log.Logger
}

// NewJobRanker 创建排序流水线
func NewJobRanker(structureParser StructureParser, profiler KeywordProfiler, scorer *HybridJobScorer, options ...JobRankerOption) *JobRanker {
	ranker := &JobRanker{
		structureParser: structureParser,
		profiler:        profiler,
		scorer:          scorer,
		cache:           storage.NoopRankCache{},
		logger:          log.New(io.Discard, "", 0),
	}
	for _, opt := range options {
		opt(ranker)
	}
	return ranker
}

// RankJobs 执行完整的排序流水线。
// 返回的Rankings按得分降序排列，得分相同的保持输入顺序。
func (r *JobRanker) RankJobs(ctx context.Context, resumeText string, jobs []types.CandidateJob) (*types.RankResponse, error) {
	ctx, span := rankerTracer.Start(ctx, "ranker.RankJobs")
	defer span.End()

	// 1. 入口校验
	if len(jobs) == 0 {
		tracing.RecordError(span, ErrNoJobs, tracing.ErrorTypeValidation)
		return nil, ErrNoJobs
	}
	if len(strings.TrimSpace(resumeText)) < constants.MinResumeTextLength {
		tracing.RecordError(span, ErrResumeTooShort, tracing.ErrorTypeValidation)
		return nil, ErrResumeTooShort
	}

	// 2. 超出上限的岗位静默忽略
	if len(jobs) > constants.MaxJobsPerRequest {
		r.logger.Printf("岗位数量 %d 超出上限, 截断到 %d", len(jobs), constants.MaxJobsPerRequest)
		jobs = jobs[:constants.MaxJobsPerRequest]
	}
	span.SetAttributes(attribute.Int("rank.job_count", len(jobs)))

	// 3. 整单响应缓存
	responseKey := fmt.Sprintf(constants.KeyRankResponse, responseCacheHash(resumeText, jobs))
	if cached, ok := r.cache.Get(ctx, responseKey); ok {
		var response types.RankResponse
		if err := json.Unmarshal([]byte(cached), &response); err == nil {
			span.SetAttributes(attribute.Bool("rank.cache_hit", true))
			r.logger.Printf("整单响应缓存命中, 岗位数 %d", len(response.Rankings))
			return &response, nil
		}
	}

	// 4. 简历侧解析只做一次，所有岗位共享
	structure := r.structureParser.Parse(resumeText)
	profile := r.profiler.Extract(resumeText, structure)
	r.logger.Printf("简历画像: 经历 %d 段, 关键词 %d 个, 主行业 %s",
		len(structure.Roles), len(profile.AllKeywords), profile.Summary.PrimaryIndustry)

	// 5. 并发打分，结果按输入顺序落位
	scored := r.scoreAll(ctx, resumeText, jobs)

	// 6. LLM重排（尽力而为）。此时scored与jobs仍按下标对齐。
	if r.judge != nil && len(scored) > 1 {
		r.rerank(ctx, resumeText, jobs, scored)
	}

	// 7. 稳定排序：得分相同时保持输入顺序
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	response := &types.RankResponse{
		Success:   true,
		RankingID: uuid.New().String(),
		Rankings:  scored,
	}

	// 8. 写入整单响应缓存
	if data, err := json.Marshal(response); err == nil {
		r.cache.SetWithTTL(ctx, responseKey, string(data), constants.ResponseCacheTTL)
	}

	return response, nil
}

// scoreAll 并发给所有岗位打分，保持输入顺序
func (r *JobRanker) scoreAll(ctx context.Context, resumeText string, jobs []types.CandidateJob) []types.ScoredJob {
	scored := make([]types.ScoredJob, len(jobs))
	semaphore := make(chan struct{}, scoreConcurrency)
	var wg sync.WaitGroup

	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			scored[idx] = r.scorer.ScoreJob(ctx, resumeText, jobs[idx])
		}(i)
	}
	wg.Wait()
	return scored
}

// rerank 对启发式得分最高的前 min(10, N) 个岗位做LLM裁判混合。
// jobs与scored按下标对齐，裁判看到的是原始岗位描述的截断预览。
// 任何失败（裁判调用、缓存、解析）都只记录日志，原始得分保持不变。
func (r *JobRanker) rerank(ctx context.Context, resumeText string, jobs []types.CandidateJob, scored []types.ScoredJob) {
	ctx, span := rankerTracer.Start(ctx, "ranker.rerank")
	defer span.End()

	// 选出当前得分最高的岗位下标（稳定，不打乱原切片）
	order := make([]int, len(scored))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scored[order[a]].Score > scored[order[b]].Score
	})
	topCount := constants.MaxRerankJobs
	if topCount > len(order) {
		topCount = len(order)
	}
	top := order[:topCount]
	span.SetAttributes(attribute.Int("rerank.candidates", topCount))

	// 先查单岗位裁判缓存，只有未命中的才进入LLM批量调用
	judgments := make(map[string]types.RerankJudgment)
	var uncached []int
	for _, idx := range top {
		url := scored[idx].URL
		cacheKey := fmt.Sprintf(constants.KeyRerankBlend, pairHash(resumeText, url))
		if cached, ok := r.cache.Get(ctx, cacheKey); ok {
			var judgment types.RerankJudgment
			if err := json.Unmarshal([]byte(cached), &judgment); err == nil && judgment.RefineScore != nil {
				judgments[url] = judgment
				continue
			}
		}
		uncached = append(uncached, idx)
	}

	if len(uncached) > 0 {
		candidates := make([]types.RerankCandidate, 0, len(uncached))
		for _, idx := range uncached {
			candidates = append(candidates, types.RerankCandidate{
				URL:         scored[idx].URL,
				Title:       scored[idx].Title,
				CompanyName: scored[idx].CompanyName,
				Description: tracing.TruncateString(
					tracing.CollapseWhitespace(jobs[idx].Description), constants.JobDescPreviewLength),
			})
		}

		preview := tracing.CollapseWhitespace(resumeText)
		if len(preview) > constants.ResumePreviewLength {
			preview = preview[:constants.ResumePreviewLength]
		}

		fresh, err := r.judge.JudgeJobs(ctx, preview, candidates)
		if err != nil {
			r.logger.Printf("LLM重排失败, 保留启发式得分: %v", err)
			tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		} else {
			for _, judgment := range fresh {
				judgments[judgment.URL] = judgment
				cacheKey := fmt.Sprintf(constants.KeyRerankBlend, pairHash(resumeText, judgment.URL))
				if data, err := json.Marshal(judgment); err == nil {
					r.cache.SetWithTTL(ctx, cacheKey, string(data), constants.RerankCacheTTL)
				}
			}
		}
	}

	// 混合得分并补充裁判理由。裁判没有覆盖的岗位保持原样。
	blended := 0
	for _, idx := range top {
		judgment, ok := judgments[scored[idx].URL]
		if !ok || judgment.RefineScore == nil {
			continue
		}
		original := scored[idx].Score
		scored[idx].Score = clampScore(int(math.Round(
			constants.RerankOriginalWeight*float64(original) +
				constants.RerankRefineWeight*float64(*judgment.RefineScore))))

		for i, reason := range judgment.FitReasons {
			if i >= constants.MaxRerankReasons {
				break
			}
			scored[idx].Reasons = append(scored[idx].Reasons, "LLM: "+reason)
		}
		for i, suggestion := range judgment.FixSuggestions {
			if i >= constants.MaxRerankReasons {
				break
			}
			scored[idx].Reasons = append(scored[idx].Reasons, "Fix: "+suggestion)
		}
		blended++
	}
	span.SetAttributes(attribute.Int("rerank.blended", blended))
	r.logger.Printf("LLM重排完成: 候选 %d, 混合 %d", topCount, blended)
}

// responseCacheHash 整单响应的内容寻址哈希。
// 取材：简历前2000字符 + 排序后的URL拼接串（上限8000字符）。
func responseCacheHash(resumeText string, jobs []types.CandidateJob) string {
	sample := resumeText
	if len(sample) > constants.ResumeKeySampleLength {
		sample = sample[:constants.ResumeKeySampleLength]
	}

	urls := make([]string, 0, len(jobs))
	for _, job := range jobs {
		urls = append(urls, job.URL)
	}
	sort.Strings(urls)
	joined := strings.Join(urls, "|")
	if len(joined) > constants.JobURLsKeyMaxLength {
		joined = joined[:constants.JobURLsKeyMaxLength]
	}

	sum := sha256.Sum256([]byte(sample + "|" + joined))
	return hex.EncodeToString(sum[:])
}
