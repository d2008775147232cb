package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As 链式判斷
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ErrorCode 取出錯誤對應的錯誤代碼；非 CustomError 一律視為內部錯誤
func ErrorCode(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternalError
}

// ErrorStatus 取出錯誤對應的 HTTP 狀態碼
func ErrorStatus(err error) int {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return http.StatusInternalServerError
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503

	// 業務錯誤代碼
	ErrCodeMalformedEvent         = "MALFORMED_EVENT"         // 原始購買紀錄不合法
	ErrCodeInsufficientCandidates = "INSUFFICIENT_CANDIDATES" // 過濾後候選食譜不足
	ErrCodeInvalidConstraint      = "INVALID_CONSTRAINT"      // 最佳化條件不合法
	ErrCodePriceLookupFailed      = "PRICE_LOOKUP_FAILED"     // 比價 API 查詢失敗
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)

	// 業務錯誤
	ErrMalformedEvent    = NewError(ErrCodeMalformedEvent, "購買紀錄缺少名稱或數量不合法", http.StatusBadRequest, nil)
	ErrInvalidConstraint = NewError(ErrCodeInvalidConstraint, "最佳化條件不合法", http.StatusBadRequest, nil)
	ErrPriceLookupFailed = NewError(ErrCodePriceLookupFailed, "比價 API 查詢失敗", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled     = NewError("CACHE_DISABLED", "緩存已禁用", http.StatusServiceUnavailable, nil)
)

// InsufficientCandidatesError 候選食譜不足，附帶缺口數量
// 寧可整批失敗也不能回傳短計畫，否則下游採買清單會被誤導
type InsufficientCandidatesError struct {
	Requested int // 要求的天數
	Available int // 過濾後剩餘的候選數
}

func (e *InsufficientCandidatesError) Error() string {
	return "insufficient candidates after filtering"
}

// Shortfall 回傳缺少幾道食譜
func (e *InsufficientCandidatesError) Shortfall() int {
	return e.Requested - e.Available
}

// IsInsufficientCandidates 檢查是否為候選不足錯誤
func IsInsufficientCandidates(err error) bool {
	var ie *InsufficientCandidatesError
	return errors.As(err, &ie)
}
