// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"
	CodeCancelled    Code = "CANCELLED"

	// 排班引擎相关（致命配置错误，整次调用直接失败）
	CodeEmptyRoster         Code = "EMPTY_ROSTER"
	CodeMissingRequirements Code = "MISSING_REQUIREMENTS"
	CodeInvalidTimeRange    Code = "INVALID_TIME_RANGE"
	CodeInvalidShiftType    Code = "INVALID_SHIFT_TYPE"

	// 替班相关
	CodeInvalidReplacementRequest Code = "INVALID_REPLACEMENT_REQUEST"
	CodeNoAvailableCandidate      Code = "NO_AVAILABLE_CANDIDATE"

	// 数据相关
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidTimeRange,
		CodeInvalidShiftType, CodeInvalidReplacementRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout, CodeCancelled:
		return http.StatusGatewayTimeout
	case CodeEmptyRoster, CodeMissingRequirements, CodeNoAvailableCandidate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// 预定义错误
var (
	ErrNotFound            = New(CodeNotFound, "资源不存在")
	ErrInvalidInput        = New(CodeInvalidInput, "输入参数无效")
	ErrInternal            = New(CodeInternal, "内部错误")
	ErrEmptyRoster         = New(CodeEmptyRoster, "员工列表为空，无法生成排班")
	ErrMissingRequirements = New(CodeMissingRequirements, "缺少层级人力需求，无法生成排班")
)

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// InvalidSnapshot 创建快照配置错误
func InvalidSnapshot(reason error) *AppError {
	return Wrap(reason, CodeInvalidInput, "排班快照无效")
}

// Cancelled 创建取消错误（引擎在日期迭代之间响应取消信号）
func Cancelled(cause error) *AppError {
	return Wrap(cause, CodeCancelled, "排班生成被取消，结果为部分方案")
}

// InvalidReplacementRequest 创建替班请求无效错误
func InvalidReplacementRequest(reason error) *AppError {
	return Wrap(reason, CodeInvalidReplacementRequest, "替班请求无效")
}
