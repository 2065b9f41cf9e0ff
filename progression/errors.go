package progression

import (
	"errors"
	"fmt"
)

// ErrInvalidInput 所有输入校验错误的哨兵错误，可用 errors.Is 判断
var ErrInvalidInput = errors.New("输入数据无效")

// ValidationError 输入校验错误
// 业绩为负数、下级成员数据不一致、规则表格式错误时返回
type ValidationError struct {
	Field  string // 出错的字段
	Reason string // 错误原因
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap 使 errors.Is(err, ErrInvalidInput) 成立
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
