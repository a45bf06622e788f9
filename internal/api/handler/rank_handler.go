package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"job-ranker-go/internal/config"
	"job-ranker-go/internal/constants"
	"job-ranker-go/internal/logger"
	"job-ranker-go/internal/processor"
	"job-ranker-go/internal/storage"

	"job-ranker-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RankHandler 排序请求处理器，负责协调简历解析与排序流水线
type RankHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	ranker  *processor.JobRanker
}

// NewRankHandler 创建排序处理器
func NewRankHandler(cfg *config.Config, storage *storage.Storage, ranker *processor.JobRanker) *RankHandler {
	return &RankHandler{
		cfg:     cfg,
		storage: storage,
		ranker:  ranker,
	}
}

// HandleRankJobs 处理 POST /api/v1/jobs/rank 请求
func (h *RankHandler) HandleRankJobs(ctx context.Context, c *app.RequestContext) {
	var req types.RankRequest
	body, err := c.Body()
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("排序请求体解析失败")
		c.JSON(consts.StatusBadRequest, utils.H{"success": false, "error": "invalid request body"})
		return
	}

	if len(req.Jobs) == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"success": false, "error": processor.ErrNoJobs.Error()})
		return
	}

	// 简历文本优先用请求直接携带的，否则按resume_id从存储层解析
	resumeText := req.ResumeText
	if strings.TrimSpace(resumeText) == "" && req.ResumeID != "" {
		resolved, err := h.resolveResumeText(ctx, req.ResumeID)
		if err != nil {
			logger.Warn().Err(err).Str("resume_id", req.ResumeID).Msg("解析简历文本失败")
			c.JSON(consts.StatusBadRequest, utils.H{"success": false, "error": processor.ErrResumeNotResolved.Error()})
			return
		}
		resumeText = resolved
	}

	response, err := h.ranker.RankJobs(ctx, resumeText, req.Jobs)
	if err != nil {
		switch {
		case errors.Is(err, processor.ErrNoJobs), errors.Is(err, processor.ErrResumeTooShort):
			c.JSON(consts.StatusBadRequest, utils.H{"success": false, "error": err.Error()})
		default:
			logger.Error().Err(err).Int("job_count", len(req.Jobs)).Msg("排序流水线执行失败")
			c.JSON(consts.StatusInternalServerError, utils.H{"success": false, "error": "Failed to rank jobs"})
		}
		return
	}

	logger.Info().
		Str("ranking_id", response.RankingID).
		Int("job_count", len(response.Rankings)).
		Msg("排序完成")
	c.JSON(consts.StatusOK, response)
}

// resolveResumeText 按resume_id解析简历文本，Redis读穿MySQL
func (h *RankHandler) resolveResumeText(ctx context.Context, resumeID string) (string, error) {
	if h.storage == nil {
		return "", processor.ErrResumeNotResolved
	}

	cacheKey := fmt.Sprintf(constants.KeyResumeText, resumeID)
	if cached, ok := h.storage.Cache.Get(ctx, cacheKey); ok && cached != "" {
		return cached, nil
	}

	if h.storage.MySQL == nil {
		return "", processor.ErrResumeNotResolved
	}

	text, err := h.storage.MySQL.GetResumeText(ctx, resumeID)
	if err != nil {
		return "", err
	}

	h.storage.Cache.SetWithTTL(ctx, cacheKey, text, constants.ResumeTextCacheTTL)
	return text, nil
}
