package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"job-ranker-go/internal/tracing"
	"job-ranker-go/internal/types"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// 抓取响应体最大读取量，防止异常页面撑爆内存
	maxFetchBodyBytes = 2 << 20

	// 正文兜底提取的最大字符数
	maxBodyTextChars = 4000

	defaultFetchTimeout = 8 * time.Second
	defaultUserAgent    = "Mozilla/5.0 (compatible; job-ranker/1.0)"
)

var fetcherTracer = otel.Tracer("job-ranker-go/parser/fetcher")

// HTTPJobDetailFetcher 抓取岗位页面并提取标题、公司与描述。
// 提取优先级：og标签 > meta description > 正文文本兜底。
type HTTPJobDetailFetcher struct {
	client    *http.Client
	userAgent string
	logger    *log.Logger
}

// NewHTTPJobDetailFetcher 创建岗位详情抓取器
func NewHTTPJobDetailFetcher(timeout time.Duration, userAgent string, logger *log.Logger) *HTTPJobDetailFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &HTTPJobDetailFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// FetchJobDetail 抓取并解析岗位页面。
// 网络错误和非200响应都返回error，由调用方决定是否降级。
func (f *HTTPJobDetailFetcher) FetchJobDetail(ctx context.Context, url string) (*types.JobDetail, error) {
	ctx, span := fetcherTracer.Start(ctx, "fetcher.FetchJobDetail")
	defer span.End()
	span.SetAttributes(attribute.String("fetch.url", tracing.TruncateString(url, 256)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeFetch)
		return nil, fmt.Errorf("构建岗位详情请求失败: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeFetch)
		return nil, fmt.Errorf("抓取岗位详情失败: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("fetch.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("岗位页面返回非200状态: %d", resp.StatusCode)
		tracing.RecordError(span, err, tracing.ErrorTypeFetch)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeFetch)
		return nil, fmt.Errorf("解析岗位页面HTML失败: %w", err)
	}

	detail := extractJobDetail(doc)
	f.logger.Printf("抓取岗位详情成功 url=%s title=%q desc_len=%d",
		url, detail.Title, len(detail.Description))
	return detail, nil
}

// extractJobDetail 从HTML文档中提取岗位字段
func extractJobDetail(doc *goquery.Document) *types.JobDetail {
	detail := &types.JobDetail{}

	// 标题：og:title优先，退化到<title>
	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		detail.Title = tracing.CollapseWhitespace(content)
	}
	if detail.Title == "" {
		detail.Title = tracing.CollapseWhitespace(doc.Find("title").First().Text())
	}

	// 公司：og:site_name作为近似
	if content, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok {
		detail.CompanyName = tracing.CollapseWhitespace(content)
	}

	// 描述：meta description > og:description > 正文兜底
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		detail.Description = tracing.CollapseWhitespace(content)
	}
	if detail.Description == "" {
		if content, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
			detail.Description = tracing.CollapseWhitespace(content)
		}
	}
	if detail.Description == "" {
		body := doc.Find("body").Clone()
		body.Find("script, style, nav, header, footer").Remove()
		text := tracing.CollapseWhitespace(body.Text())
		if len(text) > maxBodyTextChars {
			text = text[:maxBodyTextChars]
		}
		detail.Description = strings.TrimSpace(text)
	}

	return detail
}
