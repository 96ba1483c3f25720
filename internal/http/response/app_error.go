package response

import "errors"

// AppError 带业务码的接口错误。Message 返回给调用方，Err 只进日志。
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Internal 业务码属于服务端错误
func (e *AppError) Internal() bool {
	return e != nil && e.Code >= CodeInternal
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ErrorRule 业务错误到接口错误的映射
type ErrorRule struct {
	Target  error
	Code    int
	Message string
}

// MatchError 按顺序匹配 rules，命中第一条即返回；都不命中时使用 fallback。
// err 链上已有 AppError 时原样返回。
func MatchError(err error, rules []ErrorRule, fallbackCode int, fallbackMsg string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			return WrapError(rule.Code, rule.Message, err)
		}
	}
	return WrapError(fallbackCode, fallbackMsg, err)
}
