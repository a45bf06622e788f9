package processor

import "errors"

// 排序流水线的校验错误，由API层映射为400响应
var (
	// ErrNoJobs 请求中缺少岗位列表
	ErrNoJobs = errors.New("jobs array required")

	// ErrResumeTooShort 简历文本过短，无法可靠打分
	ErrResumeTooShort = errors.New("resume text too short")

	// ErrResumeNotResolved 既没有简历文本也无法通过resume_id解析
	ErrResumeNotResolved = errors.New("resume text could not be resolved")
)
