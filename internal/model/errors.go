// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// 呼び出し側に返すのはエラー種別と一般的なメッセージのみで、
// ドライバやライブラリのエラー内容は含めない。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, conflict, auth, not_found, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeConflict    = "CONFLICT"
	ErrCodeAuth        = "INVALID_CREDENTIALS"
	ErrCodeIO          = "IO_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeInvalidBody = "INVALID_REQUEST"
	ErrCodeNotFound    = "NOT_FOUND"
)

// NewValidationError は必須項目の欠落エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
	}
}

// NewMissingCredentialsError はメールアドレスまたはパスワードが未入力の場合のエラーを生成する。
func NewMissingCredentialsError() *APIError {
	return NewValidationError("Email and password required")
}

// NewInvalidBodyError はリクエストボディのJSON解析に失敗した場合のエラーを生成する。
func NewInvalidBodyError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBody,
		Message:  "Request body must be valid JSON",
		Category: "validation",
	}
}

// NewUserExistsError は同じメールアドレスのユーザーが既に存在する場合のエラーを生成する。
func NewUserExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  "User already exists",
		Category: "conflict",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// 未登録メールアドレスとパスワード不一致は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeAuth,
		Message:  "Invalid credentials",
		Category: "auth",
	}
}

// NewRideNotFoundError は指定IDの配車リクエストが存在しない場合のエラーを生成する。
func NewRideNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "Ride not found",
		Category: "not_found",
	}
}

// NewIOError はストレージやファイルシステムが利用できない場合のエラーを生成する。
func NewIOError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeIO,
		Message:  message,
		Category: "system",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、呼び出し側には一般的なメッセージを返す。
func NewInternalError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  message,
		Category: "system",
	}
}
