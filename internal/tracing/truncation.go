package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxRedisLength Redis键值最大长度
	MaxRedisLength = 100

	// MaxResumeLength span属性中简历内容最大长度
	MaxResumeLength = 150

	// MaxJobTextLength span属性中岗位文本最大长度
	MaxJobTextLength = 150
)

// maskPIILookup 需要掩码处理的关键字映射
var maskPIILookup = map[string]bool{
	"email":    true,
	"phone":    true,
	"password": true,
	"id_card":  true,
	"address":  true,
	"name":     true,
	"secret":   true,
	"token":    true,
	"api_key":  true,
}

// SafeAttributeValue 确保属性值安全，不包含敏感信息。
// 敏感关键字对应的值做掩码处理；超长的值截断并加省略号。
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for keyword := range maskPIILookup {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}

	return TruncateString(value, maxLength)
}

// MaskPII 对个人敏感信息进行掩码处理，只保留首尾各一个字符
func MaskPII(value string) string {
	runes := []rune(value)
	if len(runes) <= 2 {
		return "**"
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}

// TruncateString 将字符串截断到maxLength个rune，截断时追加省略号
func TruncateString(value string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	runes := []rune(value)
	if len(runes) <= maxLength {
		return value
	}
	return string(runes[:maxLength]) + "..."
}

// CollapseWhitespace 将连续空白（含换行）折叠为单个空格并去除首尾空白。
// 用于构造发送给LLM的简历预览。
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
