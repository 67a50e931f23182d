package usecase

import (
	"errors"
	"fmt"
)

// エラー種別コード。レスポンスボディにそのまま出す
const (
	CodeInvalidRequest      = "invalid_request"
	CodeInsufficientStock   = "insufficient_stock"
	CodeConflictingCheckout = "conflicting_checkout"
	CodeGatewayError        = "gateway_error"
	CodeNotFound            = "not_found"
	CodeCouponExhausted     = "coupon_exhausted"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeConflict            = "conflict"
	CodeInternal            = "internal_error"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
	//不足明細などの構造化データ（UIが行単位で出すため）
	Details any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func NewHTTPErrorWithDetails(status int, code string, message string, details any) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
