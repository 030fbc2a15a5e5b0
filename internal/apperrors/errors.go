package apperrors

import (
	"errors"
	"fmt"
)

// 카탈로그 로드 실패는 기동 시 치명적 오류로만 쓰인다.
var ErrCatalogLoad = errors.New("catalog load failed")

// LLM 관련 비치명 오류. 호출측은 룰 결과로 폴백한다.
var (
	ErrLLMUnavailable = errors.New("llm unavailable")
	ErrLLMMalformed   = errors.New("llm output malformed")
)

// FailureKind 외부 프로바이더 실패 분류
type FailureKind int

const (
	FailureUnavailable FailureKind = iota
	FailureAuth
	FailureRateLimited
	FailureTimeout
	FailureMalformed
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth_failed"
	case FailureRateLimited:
		return "rate_limited"
	case FailureTimeout:
		return "timeout"
	case FailureMalformed:
		return "malformed"
	default:
		return "unavailable"
	}
}

// ProviderError 외부 평판 조회 실패. 인텔 집계기에서 전부 "신고 없음"으로 흡수되며
// 사용자 응답으로는 절대 승격되지 않는다.
type ProviderError struct {
	Source string
	Kind   FailureKind
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s %s", e.Source, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError 프로바이더 실패 생성
func NewProviderError(source string, kind FailureKind, err error) *ProviderError {
	return &ProviderError{Source: source, Kind: kind, Err: err}
}

// InvalidRequestError 호출자 오류 (빈 텍스트 아님 - 길이 초과 등 계약 위반만)
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// NewInvalidRequest InvalidRequestError 생성
func NewInvalidRequest(format string, args ...interface{}) *InvalidRequestError {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidRequest 호출자 오류 여부
func IsInvalidRequest(err error) bool {
	var ir *InvalidRequestError
	return errors.As(err, &ir)
}

// InternalError 버그성 오류. 경계에서 5xx로 변환되며 상세는 응답에 노출하지 않는다.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// NewInternal InternalError 생성
func NewInternal(err error) *InternalError {
	return &InternalError{Err: err}
}

// IsInternal 내부 오류 여부
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
