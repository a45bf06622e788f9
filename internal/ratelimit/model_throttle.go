package ratelimit

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ThrottledChatModel 在LLM模型调用外包一层限流与重试，
// 避免批量重排时触发模型服务的QPS限制
type ThrottledChatModel struct {
	inner  model.ToolCallingChatModel
	bucket *Bucket
}

// NewThrottledChatModel 包装一个LLM模型并按qpm限流
func NewThrottledChatModel(inner model.ToolCallingChatModel, qpm int) *ThrottledChatModel {
	return &ThrottledChatModel{
		inner:  inner,
		bucket: NewBucket(qpm, 0),
	}
}

// WithRetryPolicy 设置重试参数
func (t *ThrottledChatModel) WithRetryPolicy(wait time.Duration, maxRetries int) *ThrottledChatModel {
	t.bucket.WithRetryPolicy(wait, maxRetries)
	return t
}

// Generate 限流执行一次生成调用
func (t *ThrottledChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	var response *schema.Message

	err := t.bucket.RetryWithBackoff(ctx, func() error {
		var genErr error
		response, genErr = t.inner.Generate(ctx, messages, options...)
		return genErr
	})

	return response, err
}

// Stream 限流执行一次流式调用
func (t *ThrottledChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]

	err := t.bucket.RetryWithBackoff(ctx, func() error {
		var streamErr error
		stream, streamErr = t.inner.Stream(ctx, messages, options...)
		return streamErr
	})

	return stream, err
}

// WithTools 代理给内层模型，新模型共享同一个限流桶
func (t *ThrottledChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := t.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &ThrottledChatModel{inner: newModel, bucket: t.bucket}, nil
}

var _ model.ToolCallingChatModel = (*ThrottledChatModel)(nil)
