package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"job-ranker-go/internal/config"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 关系型数据库（简历文本解析）
	MySQL *MySQL

	// 键值存储（排序缓存层）
	Redis *Redis

	// Cache 是排序流水线使用的缓存抽象。
	// Redis可用时指向Redis适配器，否则退化为进程内有界缓存。
	Cache RankCache
}

// NewStorage 创建存储管理器。单个组件初始化失败只降级，不阻断启动。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error
	var initErrors []string

	// 根据日志级别决定缓存适配器的logger
	var cacheLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		cacheLogger = log.New(os.Stderr, "[RankCache] ", log.LstdFlags|log.Lshortfile)
	} else {
		cacheLogger = log.New(io.Discard, "", 0)
	}

	// 初始化MySQL（如果配置了）
	if cfg.MySQL.Host != "" {
		log.Printf("初始化MySQL...")
		storage.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			log.Printf("警告: 初始化MySQL失败: %v", err)
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	} else {
		log.Printf("MySQL未配置, 仅接受直接携带resume_text的请求.")
	}

	// 初始化Redis（如果配置了）
	if cfg.Redis.Address != "" {
		log.Printf("初始化Redis at %s...", cfg.Redis.Address)
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Printf("警告: 初始化Redis失败: %v", err)
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		log.Printf("Redis未配置, 跳过初始化.")
	}

	// 选择缓存实现：Redis优先，否则进程内有界缓存
	if storage.Redis != nil {
		storage.Cache = NewRedisRankCache(storage.Redis, cacheLogger)
	} else {
		log.Printf("使用进程内有界缓存替代Redis.")
		storage.Cache = NewMemoryRankCache(0)
	}

	if len(initErrors) > 0 {
		log.Printf("警告: 以下存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}

	return storage, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Printf("关闭MySQL连接失败: %v", err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
}
