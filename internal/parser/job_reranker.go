package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"job-ranker-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
)

// LLMJobReranker 封装LLM裁判调用与Prompt逻辑。
// 一次调用对一批岗位给出细化得分与建议，供排序混合使用。
type LLMJobReranker struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	systemMessage  string
	judgeTimeout   time.Duration
	logger         *log.Logger
}

// LLMJobRerankerOption 重排裁判的配置选项
type LLMJobRerankerOption func(*LLMJobReranker)

// WithRerankPromptTemplate 设置自定义提示词模板
func WithRerankPromptTemplate(template string) LLMJobRerankerOption {
	return func(r *LLMJobReranker) {
		r.promptTemplate = template
	}
}

// WithRerankSystemMessage 设置自定义System Message
func WithRerankSystemMessage(message string) LLMJobRerankerOption {
	return func(r *LLMJobReranker) {
		r.systemMessage = message
	}
}

// WithRerankJudgeTimeout 设置单次批量裁判调用的超时上限
func WithRerankJudgeTimeout(timeout time.Duration) LLMJobRerankerOption {
	return func(r *LLMJobReranker) {
		if timeout > 0 {
			r.judgeTimeout = timeout
		}
	}
}

// NewLLMJobReranker 创建重排裁判实例
func NewLLMJobReranker(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...LLMJobRerankerOption) *LLMJobReranker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	reranker := &LLMJobReranker{
		llmModel:     llmModel,
		judgeTimeout: 20 * time.Second,
		logger:       logger,
	}

	reranker.generatePromptTemplate()
	reranker.systemMessage = "你是一位资深的职业规划顾问，专注于评估候选人简历与岗位列表的匹配细节。"

	for _, opt := range options {
		opt(reranker)
	}

	return reranker
}

func (r *LLMJobReranker) generatePromptTemplate() {
	r.promptTemplate = `你的任务是基于下面提供的【候选人简历】，逐一评估【岗位列表】中每个岗位与候选人的匹配程度，并严格按照指定的JSON格式输出评估结果。

**请严格遵循以下JSON输出格式规范：**
1. 完整输出必须是一个合法的JSON数组，数组元素与岗位一一对应。
2. 每个元素包含以下字段：
   - "url": 字符串，必须原样复制岗位的url，不得修改。
   - "refine_score": 整数 (0-100)，反映该岗位与候选人的匹配程度。
   - "fit_reasons": 字符串数组 (建议1-3项)，候选人与该岗位匹配的**具体关键点**。避免空泛描述。
   - "fix_suggestions": 字符串数组 (建议1-3项，可为空)，候选人若想提高该岗位竞争力的**具体改进建议**。
3. 所有字段名和字符串值都必须使用双引号；字符串值内部的双引号必须用反斜杠转义。
4. 禁止在JSON数组之外输出任何额外文本、解释或Markdown标记。

**评估原则：**
- 核心技能与经验的吻合程度是最高权重因素。
- 行业背景和职级匹配是中等权重因素。
- 岗位描述信息不足时保守给分，不要臆造匹配点。

【候选人简历】:
"""
%s
"""

【岗位列表】:
%s

请基于以上所有指令，仔细评估并输出JSON数组。`
}

// JudgeJobs 对一批岗位做LLM裁判评估。
// 返回的列表可能少于输入数量：缺少url或refine_score非法的条目会被丢弃。
func (r *LLMJobReranker) JudgeJobs(ctx context.Context, resumePreview string, jobs []types.RerankCandidate) ([]types.RerankJudgment, error) {
	if r.llmModel == nil {
		return nil, fmt.Errorf("LLMJobReranker: llmModel未初始化")
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	// 1. 构建岗位列表描述
	jobsJSON, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("LLMJobReranker: 序列化岗位列表失败: %w", err)
	}

	userMsgContent := fmt.Sprintf(r.promptTemplate, resumePreview, string(jobsJSON))

	// 2. 调用LLM
	messages := []*einoschema.Message{
		einoschema.SystemMessage(r.systemMessage),
		einoschema.UserMessage(userMsgContent),
	}

	r.logger.Printf("[LLMJobReranker] 裁判 %d 个岗位, 简历预览长度 %d", len(jobs), len(resumePreview))

	// 批量裁判调用必须有界，卡住的LLM服务不能拖垮整个排序请求
	if r.judgeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.judgeTimeout)
		defer cancel()
	}

	response, err := r.llmModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLMJobReranker: LLM调用失败: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, fmt.Errorf("LLMJobReranker: LLM返回空响应")
	}

	// 3. 提取并解析JSON数组
	processedContent := strings.TrimPrefix(response.Content, "\uFEFF")
	jsonStr := extractJSONArray(processedContent)
	if jsonStr == "" {
		return nil, fmt.Errorf("LLMJobReranker: 无法从LLM响应中提取JSON数组. 响应内容: %.500s", processedContent)
	}
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	var judgments []types.RerankJudgment
	// ① 正常解析
	if err := json.Unmarshal([]byte(jsonStr), &judgments); err != nil {
		// ② 解析失败 -> 自动修复再试一次
		fixedJsonStr := sanitizeJSON(jsonStr)
		if jsonErr := json.Unmarshal([]byte(fixedJsonStr), &judgments); jsonErr != nil {
			return nil, fmt.Errorf("LLMJobReranker: 修复后仍无法解析LLM JSON响应. 原始错误: %w. 修复后错误: %v", err, jsonErr)
		}
	}

	// 4. 过滤非法条目
	valid := make([]types.RerankJudgment, 0, len(judgments))
	for _, judgment := range judgments {
		if judgment.URL == "" {
			continue
		}
		if judgment.RefineScore == nil || *judgment.RefineScore < 0 || *judgment.RefineScore > 100 {
			continue
		}
		valid = append(valid, judgment)
	}

	r.logger.Printf("[LLMJobReranker] 裁判完成: 输入 %d, 有效 %d", len(jobs), len(valid))
	return valid, nil
}

// extractJSONArray 从文本中按括号配对提取最外层JSON数组
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	if start == -1 {
		return ""
	}
	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inStr {
				escaped = true
			}
		case '"':
			inStr = !inStr
		case '[':
			if !inStr {
				level++
			}
		case ']':
			if !inStr {
				level--
				if level == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

// sanitizeJSON 会遍历 src，将任何位于字符串字面量内部但并非"真正结束"的双引号写成 \"，
// 以保证整个 JSON 在 Go 端能够正常反序列化。
// 它通过检查下一个非空白字符是否为 :, ], }, 或 , 来判断该 " 是否为字符串的结束。
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '"' && !escaped {
			if !inStr {
				inStr = true
				b.WriteByte(c)
			} else {
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j < len(src) && (src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}') {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString("\\\"")
				}
			}
			escaped = false

		} else if c == '\\' && !escaped {
			escaped = true
			b.WriteByte(c)

		} else {
			b.WriteByte(c)
			escaped = false
		}
	}

	return b.String()
}
