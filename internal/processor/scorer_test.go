package processor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"job-ranker-go/internal/storage"
	"job-ranker-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOverlap 固定得分的重合度打分桩
type stubOverlap struct {
	score   int
	matched []string
	missing []string
}

func (s *stubOverlap) OverlapScore(resumeText, jobText string) (int, []string, []string) {
	return s.score, s.matched, s.missing
}

// stubFetcher 记录调用的岗位详情抓取桩
type stubFetcher struct {
	mu     sync.Mutex
	calls  []string
	detail *types.JobDetail
	err    error
}

func (s *stubFetcher) FetchJobDetail(ctx context.Context, url string) (*types.JobDetail, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// stubEmbedder 固定向量的Embedder桩
type stubEmbedder struct {
	vectors [][]float64
	err     error
}

func (s *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

func longResumeText() string {
	return strings.Repeat("experienced python developer with aws background ", 3)
}

func TestScoreJobKeywordOnlyDegradation(t *testing.T) {
	// 无Embedder时混合得分退化为 round(0.8 × keyword)
	scorer := NewHybridJobScorer(&stubOverlap{score: 75, matched: []string{"python"}})
	job := types.CandidateJob{URL: "u1", Title: "Dev", Description: strings.Repeat("x", 50)}

	scored := scorer.ScoreJob(context.Background(), longResumeText(), job)
	assert.Equal(t, 60, scored.Score)
}

func TestScoreJobBlendsEmbeddingScore(t *testing.T) {
	// 相同向量余弦相似度=1 -> embedding得分100
	embedder := &stubEmbedder{vectors: [][]float64{{1, 0, 1}, {1, 0, 1}}}
	scorer := NewHybridJobScorer(&stubOverlap{score: 75},
		WithScorerEmbedder(embedder))
	job := types.CandidateJob{URL: "u1", Description: strings.Repeat("x", 50)}

	scored := scorer.ScoreJob(context.Background(), longResumeText(), job)
	// round(0.8×75 + 0.2×100) = 80
	assert.Equal(t, 80, scored.Score)
}

func TestScoreJobEmbeddingFailureFallsBackToKeyword(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("embedding unavailable")}
	scorer := NewHybridJobScorer(&stubOverlap{score: 75},
		WithScorerEmbedder(embedder))
	job := types.CandidateJob{URL: "u1", Description: strings.Repeat("x", 50)}

	scored := scorer.ScoreJob(context.Background(), longResumeText(), job)
	assert.Equal(t, 60, scored.Score)
}

func TestScoreJobBackfillThreshold(t *testing.T) {
	shortDesc := strings.Repeat("x", 39)
	longDesc := strings.Repeat("x", 40)

	t.Run("描述39字符触发回填", func(t *testing.T) {
		fetcher := &stubFetcher{detail: &types.JobDetail{Title: "Fetched", Description: strings.Repeat("y", 200)}}
		scorer := NewHybridJobScorer(&stubOverlap{score: 50}, WithScorerFetcher(fetcher))

		scored := scorer.ScoreJob(context.Background(), longResumeText(),
			types.CandidateJob{URL: "u1", Description: shortDesc})
		assert.Equal(t, 1, fetcher.callCount())
		assert.Equal(t, "Fetched", scored.Title)
	})

	t.Run("描述40字符不触发回填", func(t *testing.T) {
		fetcher := &stubFetcher{detail: &types.JobDetail{}}
		scorer := NewHybridJobScorer(&stubOverlap{score: 50}, WithScorerFetcher(fetcher))

		scorer.ScoreJob(context.Background(), longResumeText(),
			types.CandidateJob{URL: "u1", Description: longDesc})
		assert.Equal(t, 0, fetcher.callCount())
	})
}

func TestScoreJobFetchFailureDegradesGracefully(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	scorer := NewHybridJobScorer(&stubOverlap{score: 50}, WithScorerFetcher(fetcher))

	scored := scorer.ScoreJob(context.Background(), longResumeText(),
		types.CandidateJob{URL: "u1", Title: "Dev", Description: "too short"})
	// 回填失败后带着现有信息继续打分
	assert.Equal(t, 40, scored.Score)
	assert.Equal(t, "Dev", scored.Title)
}

func TestScoreJobUsesCache(t *testing.T) {
	fetcher := &stubFetcher{detail: &types.JobDetail{Description: strings.Repeat("y", 100)}}
	cache := storage.NewMemoryRankCache(16)
	scorer := NewHybridJobScorer(&stubOverlap{score: 50},
		WithScorerFetcher(fetcher),
		WithScorerCache(cache))

	job := types.CandidateJob{URL: "u1", Description: "short"}
	first := scorer.ScoreJob(context.Background(), longResumeText(), job)
	second := scorer.ScoreJob(context.Background(), longResumeText(), job)

	assert.Equal(t, first, second)
	// 第二次命中缓存，不再抓取详情
	assert.Equal(t, 1, fetcher.callCount())
}

func TestScoreJobReasonsFormat(t *testing.T) {
	matched := []string{"python", "aws", "sql"}
	missing := []string{"kubernetes"}
	scorer := NewHybridJobScorer(&stubOverlap{score: 75, matched: matched, missing: missing})

	scored := scorer.ScoreJob(context.Background(), longResumeText(),
		types.CandidateJob{URL: "u1", Description: strings.Repeat("x", 50)})

	require.Len(t, scored.Reasons, 2)
	assert.Equal(t, "Matches: python, aws, sql", scored.Reasons[0])
	assert.Equal(t, "Consider adding: kubernetes", scored.Reasons[1])
}

func TestScoreJobReasonTermsCapped(t *testing.T) {
	var matched []string
	for i := 0; i < 25; i++ {
		matched = append(matched, "kw")
	}
	scorer := NewHybridJobScorer(&stubOverlap{score: 75, matched: matched})

	scored := scorer.ScoreJob(context.Background(), longResumeText(),
		types.CandidateJob{URL: "u1", Description: strings.Repeat("x", 50)})

	require.Len(t, scored.Reasons, 1)
	// 最多列出10个词
	assert.Equal(t, 10, strings.Count(scored.Reasons[0], "kw"))
}

func TestCosineSimilarity(t *testing.T) {
	sim, err := cosineSimilarity([]float64{1, 0}, []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = cosineSimilarity([]float64{1, 0}, []float64{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)

	_, err = cosineSimilarity([]float64{1, 0}, []float64{1})
	assert.Error(t, err)

	_, err = cosineSimilarity([]float64{0, 0}, []float64{1, 0})
	assert.Error(t, err)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-5))
	assert.Equal(t, 100, clampScore(130))
	assert.Equal(t, 55, clampScore(55))
}
