package biz

import (
	"errors"
	"fmt"
)

// 问答流水线的典型失败，handler 层据此映射 HTTP 状态码。
var (
	// ErrInvalidQuestion 问题为空或仅包含空白字符。
	ErrInvalidQuestion = errors.New("question must not be empty")

	// ErrNoContext 所有来源均未检索到可用内容。
	ErrNoContext = errors.New("no context retrieved from any source")
)

// GenerationError 表示检索成功但答案生成失败。
type GenerationError struct {
	Cause error
}

// Error 实现 error 接口。
func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Cause)
}

// Unwrap 返回底层错误。
func (e *GenerationError) Unwrap() error {
	return e.Cause
}
