package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 业务错误分类，HTTP 层据此映射状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConfiguration
	KindUnauthorized
	KindForbidden
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConfiguration:
		return "configuration"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error 带分类的业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建一个指定分类的错误
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap 包装底层错误，err 为 nil 时返回 nil
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error    { return New(KindValidation, msg) }
func NotFound(msg string) *Error      { return New(KindNotFound, msg) }
func Configuration(msg string) *Error { return New(KindConfiguration, msg) }
func Unauthorized(msg string) *Error  { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *Error     { return New(KindForbidden, msg) }
func Conflict(msg string) *Error      { return New(KindConflict, msg) }
func Unavailable(msg string) *Error   { return New(KindUnavailable, msg) }

// Validationf 格式化版本
func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf 沿错误链查找分类，找不到视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断 err 是否属于指定分类
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf 返回可以展示给调用方的信息，内部错误不暴露细节
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}

// HTTPStatus 分类到 HTTP 状态码
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindConfiguration, KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
