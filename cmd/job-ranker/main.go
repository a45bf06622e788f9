package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-ranker-go/internal/agent"
	"job-ranker-go/internal/api/handler"
	"job-ranker-go/internal/api/router"
	"job-ranker-go/internal/config"
	appLogger "job-ranker-go/internal/logger"
	"job-ranker-go/internal/parser"
	"job-ranker-go/internal/processor"
	"job-ranker-go/internal/ratelimit"
	"job-ranker-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"      //nolint:gochecknoglobals
	serviceName = "job-ranker" //nolint:gochecknoglobals
)

// @title Job Ranker API
// @version 1.0
// @description 基于简历的岗位排序服务
// @BasePath /api/v1
func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	// 1. 加载配置文件
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志系统（含Hertz的日志适配）
	initLogger(cfg)
	appLogger.Info().Str("version", version).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. 初始化存储管理器
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("初始化存储管理器失败")
	}
	defer storageManager.Close()

	// 4. 组装排序流水线
	ranker := buildRanker(cfg, storageManager)
	rankHandler := handler.NewRankHandler(cfg, storageManager, ranker)

	// 5. 创建HTTP服务器并注册路由
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
	)
	router.RegisterRoutes(h, cfg, rankHandler)

	// 6. 启动HTTP服务器
	go func() {
		appLogger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动")
		if err := h.Run(); err != nil {
			appLogger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	// 7. 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info().Msg("接收到终止信号, 正在优雅退出...")

	// 8. 优雅关闭HTTP服务器
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("服务器关闭失败")
	}

	appLogger.Info().Msg("优雅退出完成")
}

// initLogger 初始化日志系统并把Hertz内部日志接到zerolog
func initLogger(cfg *config.Config) {
	logConfig := appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	}
	if logConfig.Level == "" {
		logConfig.Level = "info"
	}
	if logConfig.TimeFormat == "" {
		logConfig.TimeFormat = time.RFC3339
	}
	appLogger.Init(logConfig)

	appLogger.Logger = appLogger.Logger.With().
		Str("app", serviceName).
		Str("version", version).
		Logger()

	hertzCompatibleLogger := hertzadapter.From(appLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
}

// buildRanker 按配置组装排序流水线。
// 未配置Aliyun API Key时Embedding和LLM重排自动缺席，仅保留关键词排序。
func buildRanker(cfg *config.Config, storageManager *storage.Storage) *processor.JobRanker {
	componentLogger := log.New(io.Discard, "", 0)
	if cfg.Logger.Level == "debug" {
		componentLogger = log.New(os.Stderr, "[Ranker] ", log.LstdFlags)
	}

	structureParser := parser.NewResumeStructureParser(componentLogger)
	keywordExtractor := parser.NewKeywordExtractor(componentLogger)
	matcher := parser.NewTermMatcher()
	fetcher := parser.NewHTTPJobDetailFetcher(
		time.Duration(cfg.Fetcher.TimeoutSeconds)*time.Second,
		cfg.Fetcher.UserAgent,
		componentLogger,
	)

	scorerOptions := []processor.HybridJobScorerOption{
		processor.WithScorerFetcher(fetcher),
		processor.WithScorerCache(storageManager.Cache),
		processor.WithScorerLogger(componentLogger),
	}

	rankerOptions := []processor.JobRankerOption{
		processor.WithRankerCache(storageManager.Cache),
		processor.WithRankerLogger(componentLogger),
	}

	if cfg.Aliyun.APIKey != "" {
		embedder, err := parser.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding, componentLogger)
		if err != nil {
			appLogger.Warn().Err(err).Msg("初始化Embedder失败, 排序仅使用关键词得分")
		} else {
			scorerOptions = append(scorerOptions, processor.WithScorerEmbedder(embedder))
		}

		if cfg.Reranker.Enabled {
			modelName := cfg.Reranker.ModelName
			if modelName == "" {
				modelName = cfg.Aliyun.Model
			}
			chatModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, modelName, cfg.Aliyun.APIURL, componentLogger)
			if err != nil {
				appLogger.Warn().Err(err).Msg("初始化LLM模型失败, 跳过重排阶段")
			} else {
				// 裁判调用包一层限流，避免批量请求打爆模型服务的QPS限制
				throttled := ratelimit.NewThrottledChatModel(chatModel, cfg.Reranker.QPM).
					WithRetryPolicy(time.Duration(cfg.Reranker.RetryWaitSeconds)*time.Second, cfg.Reranker.MaxRetries)
				judge := parser.NewLLMJobReranker(throttled, componentLogger,
					parser.WithRerankJudgeTimeout(config.GetDuration(cfg.Reranker.JudgeTimeout, 20*time.Second)))
				rankerOptions = append(rankerOptions, processor.WithRerankJudge(judge))
			}
		}
	} else {
		appLogger.Info().Msg("未配置Aliyun API Key, Embedding与LLM重排不可用")
	}

	scorer := processor.NewHybridJobScorer(matcher, scorerOptions...)
	return processor.NewJobRanker(structureParser, keywordExtractor, scorer, rankerOptions...)
}
