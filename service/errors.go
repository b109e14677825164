package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound 记录不存在或不属于当前用户（两种情况不作区分）
	ErrNotFound = errors.New("记录不存在")
	// ErrConflict 数据状态冲突，如抵扣金额大于总金额
	ErrConflict = errors.New("数据冲突")
	// ErrStoreUnavailable 数据库连接或事务失败，整个操作可安全重试
	ErrStoreUnavailable = errors.New("数据库暂不可用")
)

// ValidationError 参数缺失或格式错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid 构造参数错误
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// storeError 包装数据库错误，保留原始错误用于服务端日志
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *storeError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.err}
}

// StoreErr 将 gorm 错误归类为 ErrStoreUnavailable，已归类的错误原样返回
func StoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreUnavailable) || errors.As(err, &ve) {
		return err
	}
	return &storeError{op: op, err: err}
}

// TrimName 去除首尾空格，为空时返回参数错误
func TrimName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Invalid("name", "名称不能为空")
	}
	return name, nil
}
