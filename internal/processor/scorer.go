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
	"strings"

	"job-ranker-go/internal/constants"
	"job-ranker-go/internal/storage"
	"job-ranker-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
)

// HybridJobScorer 混合打分器：关键词重合度为主，语义向量相似度为辅。
// Embedder缺失或调用失败时只保留关键词部分，得分恒在[0,100]内。
type HybridJobScorer struct {
	matcher  OverlapScorer
	embedder embedding.Embedder
	fetcher  JobDetailFetcher
	cache    storage.RankCache
	logger   *log.Logger
}

// HybridJobScorerOption 打分器配置选项
type HybridJobScorerOption func(*HybridJobScorer)

// WithScorerEmbedder 设置语义向量Embedder，不设置时仅使用关键词得分
func WithScorerEmbedder(embedder embedding.Embedder) HybridJobScorerOption {
	return func(s *HybridJobScorer) {
		s.embedder = embedder
	}
}

// WithScorerFetcher 设置岗位详情抓取器，用于描述过短时的回填
func WithScorerFetcher(fetcher JobDetailFetcher) HybridJobScorerOption {
	return func(s *HybridJobScorer) {
		s.fetcher = fetcher
	}
}

// WithScorerCache 设置单岗位得分缓存
func WithScorerCache(cache storage.RankCache) HybridJobScorerOption {
	return func(s *HybridJobScorer) {
		s.cache = cache
	}
}

// WithScorerLogger 设置日志记录器
func WithScorerLogger(logger *log.Logger) HybridJobScorerOption {
	return func(s *HybridJobScorer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHybridJobScorer 创建混合打分器
func NewHybridJobScorer(matcher OverlapScorer, options ...HybridJobScorerOption) *HybridJobScorer {
	scorer := &HybridJobScorer{
		matcher: matcher,
		cache:   storage.NoopRankCache{},
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range options {
		opt(scorer)
	}
	return scorer
}

// ScoreJob 对单个岗位打分。打分过程绝不失败：
// 详情回填失败、Embedding失败都只降级，不中断。
func (s *HybridJobScorer) ScoreJob(ctx context.Context, resumeText string, job types.CandidateJob) types.ScoredJob {
	// 1. 单岗位得分缓存
	cacheKey := fmt.Sprintf(constants.KeyJobScore, pairHash(resumeText, job.URL))
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		var scored types.ScoredJob
		if err := json.Unmarshal([]byte(cached), &scored); err == nil {
			return scored
		}
	}

	// 2. 描述过短时尝试抓取回填，失败则带着现有信息继续
	if len(job.Description) < constants.MinJobDescriptionLength && s.fetcher != nil && job.URL != "" {
		if detail, err := s.fetcher.FetchJobDetail(ctx, job.URL); err != nil {
			s.logger.Printf("岗位详情回填失败 url=%s: %v", job.URL, err)
		} else {
			if job.Title == "" {
				job.Title = detail.Title
			}
			if job.CompanyName == "" {
				job.CompanyName = detail.CompanyName
			}
			if len(detail.Description) > len(job.Description) {
				job.Description = detail.Description
			}
		}
	}

	jobText := strings.TrimSpace(job.Title + " " + job.CompanyName + " " + job.Description)

	// 3. 关键词重合度得分
	keywordScore, matched, missing := s.matcher.OverlapScore(resumeText, jobText)

	// 4. 语义向量得分，失败时混合得分退化为 round(0.8 × keyword)
	finalScore := int(math.Round(constants.KeywordScoreWeight * float64(keywordScore)))
	if s.embedder != nil && jobText != "" {
		if embedScore, err := s.embeddingScore(ctx, resumeText, jobText); err != nil {
			s.logger.Printf("Embedding打分失败 url=%s: %v", job.URL, err)
		} else {
			finalScore = int(math.Round(
				constants.KeywordScoreWeight*float64(keywordScore) +
					constants.EmbeddingScoreWeight*float64(embedScore)))
		}
	}
	finalScore = clampScore(finalScore)

	scored := types.ScoredJob{
		URL:         job.URL,
		Title:       job.Title,
		CompanyName: job.CompanyName,
		Score:       finalScore,
		Reasons:     buildMatchReasons(matched, missing),
	}

	// 5. 写入单岗位缓存
	if data, err := json.Marshal(scored); err == nil {
		s.cache.SetWithTTL(ctx, cacheKey, string(data), constants.JobScoreCacheTTL)
	}

	return scored
}

// embeddingScore 计算简历与岗位文本的语义相似度得分。
// 余弦相似度[-1,1]线性映射到[0,100]。
func (s *HybridJobScorer) embeddingScore(ctx context.Context, resumeText, jobText string) (int, error) {
	resumeSample := resumeText
	if len(resumeSample) > constants.ResumeKeySampleLength {
		resumeSample = resumeSample[:constants.ResumeKeySampleLength]
	}
	jobSample := jobText
	if len(jobSample) > constants.JobDescPreviewLength {
		jobSample = jobSample[:constants.JobDescPreviewLength]
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{resumeSample, jobSample})
	if err != nil {
		return 0, err
	}
	if len(vectors) < 2 {
		return 0, fmt.Errorf("embedding返回向量数量不足: %d", len(vectors))
	}

	similarity, err := cosineSimilarity(vectors[0], vectors[1])
	if err != nil {
		return 0, err
	}
	return clampScore(int(math.Round((similarity + 1) / 2 * 100))), nil
}

// buildMatchReasons 生成命中/缺失的理由列表，两侧均有数量上限
func buildMatchReasons(matched, missing []string) []string {
	var reasons []string
	if len(matched) > 0 {
		terms := matched
		if len(terms) > constants.MaxMatchedReasonTerms {
			terms = terms[:constants.MaxMatchedReasonTerms]
		}
		reasons = append(reasons, "Matches: "+strings.Join(terms, ", "))
	}
	if len(missing) > 0 {
		terms := missing
		if len(terms) > constants.MaxMissingReasonTerms {
			terms = terms[:constants.MaxMissingReasonTerms]
		}
		reasons = append(reasons, "Consider adding: "+strings.Join(terms, ", "))
	}
	return reasons
}

// cosineSimilarity 计算两个向量的余弦相似度
func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("向量维度不匹配: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("零向量无法计算余弦相似度")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// clampScore 把得分收敛到[0,100]
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// pairHash 生成"简历样本+URL"的内容寻址哈希
func pairHash(resumeText, url string) string {
	sample := resumeText
	if len(sample) > constants.ResumeKeySampleLength {
		sample = sample[:constants.ResumeKeySampleLength]
	}
	sum := sha256.Sum256([]byte(sample + "|" + url))
	return hex.EncodeToString(sum[:])
}
