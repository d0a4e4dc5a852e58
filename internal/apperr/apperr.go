// Package apperr 定义服务层错误类型及其到HTTP状态码的映射
package apperr

import (
	"errors"
	"net/http"
)

// Kind 错误类别
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindStorage        Kind = "storage"
	KindRateLimited    Kind = "rate_limited"
	KindInternal       Kind = "internal"
)

// Error 带类别的业务错误
type Error struct {
	Kind    Kind
	Message string // 返回给客户端的信息
	Err     error  // 原始错误，不返回给客户端
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 支持 errors.Is / errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同类别的 *Error 视为相同
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New 创建错误
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation 输入校验错误
func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

// Authentication 认证错误
func Authentication(message string) *Error {
	return New(KindAuthentication, message, nil)
}

// Forbidden 权限不足
func Forbidden(message string) *Error {
	return New(KindForbidden, message, nil)
}

// NotFound 资源不存在
func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

// Storage 图片存储失败
func Storage(message string, err error) *Error {
	return New(KindStorage, message, err)
}

// RateLimited 超出并发或频率限制
func RateLimited(message string) *Error {
	return New(KindRateLimited, message, nil)
}

// Internal 内部错误
func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// KindOf 返回错误类别，未分类的错误视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf 返回可以安全展示给客户端的信息
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus 错误类别对应的HTTP状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
