package router

import (
	"context"

	"job-ranker-go/internal/api/handler"
	"job-ranker-go/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册 API 路由。
// 配置了api_keys时整个 /api/v1 组启用X-API-Key认证，健康检查除外。
func RegisterRoutes(h *server.Hertz, cfg *config.Config, rankHandler *handler.RankHandler) {
	// 健康检查不走认证
	h.GET("/api/v1/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")

	if len(cfg.Server.APIKeys) > 0 {
		allowed := make(map[string]struct{}, len(cfg.Server.APIKeys))
		for _, key := range cfg.Server.APIKeys {
			allowed[key] = struct{}{}
		}

		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
				_, ok := allowed[key]
				return ok, nil
			}),
			keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
				ctx.JSON(consts.StatusUnauthorized, utils.H{"success": false, "error": "invalid or missing API key"})
				ctx.Abort()
			}),
		))
	}

	api.POST("/jobs/rank", rankHandler.HandleRankJobs)
}
