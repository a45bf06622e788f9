package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Bucket 令牌桶限流器，按每分钟请求数限制对外部API的调用频率
type Bucket struct {
	mu         sync.Mutex
	rate       float64 // 每秒补充的令牌数
	capacity   float64
	tokens     float64
	lastRefill time.Time

	retryWait  time.Duration
	maxRetries int
}

// NewBucket 创建限流器。qpm为每分钟允许的请求数；
// burst<=0时容量取qpm的一半，允许短时突发。
func NewBucket(qpm int, burst int) *Bucket {
	if qpm <= 0 {
		qpm = 30
	}
	if burst <= 0 {
		burst = qpm / 2
		if burst <= 0 {
			burst = 1
		}
	}

	return &Bucket{
		rate:       float64(qpm) / 60.0,
		capacity:   float64(burst),
		tokens:     float64(burst),
		lastRefill: time.Now(),
		retryWait:  time.Second,
		maxRetries: 3,
	}
}

// WithRetryPolicy 设置RetryWithBackoff的重试参数
func (b *Bucket) WithRetryPolicy(wait time.Duration, maxRetries int) *Bucket {
	if wait > 0 {
		b.retryWait = wait
	}
	if maxRetries > 0 {
		b.maxRetries = maxRetries
	}
	return b
}

// refill 按经过的时间补充令牌，调用方必须持有锁
func (b *Bucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// Allow 尝试立即消耗一个令牌，不阻塞
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// Wait 阻塞直到取得令牌或上下文取消
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refill()
		if b.tokens >= 1.0 {
			b.tokens -= 1.0
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1.0 - b.tokens) / b.rate * float64(time.Second))
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RetryWithBackoff 在限流下执行fn，可重试错误按指数退避重试
func (b *Bucket) RetryWithBackoff(ctx context.Context, fn func() error) error {
	var err error

	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if err = b.Wait(ctx); err != nil {
			return err
		}

		err = fn()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) || attempt >= b.maxRetries {
			return err
		}

		backoff := b.retryWait * time.Duration(1<<uint(attempt))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return err
}

// retryableFragments 模型服务限流或瞬时网络故障的错误特征
var retryableFragments = []string{
	"timeout",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"EOF",
	"429",
	"rate limit",
	"Throttling",
	"服务器繁忙",
	"请求超过限额",
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
