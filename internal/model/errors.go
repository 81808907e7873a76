// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, recipe, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeContentNotFound = "CONTENT_NOT_FOUND"
	ErrCodeRecipeNotFound  = "RECIPE_NOT_FOUND"
	ErrCodeInvalidStatus   = "INVALID_STATUS"
	ErrCodeInvalidKind     = "INVALID_KIND"
	ErrCodeInvalidRating   = "INVALID_RATING"
	ErrCodeEmptyContent    = "EMPTY_CONTENT"
	ErrCodeInvalidImageURL = "INVALID_IMAGE_URL"
	ErrCodeImageURLBlocked = "IMAGE_URL_BLOCKED"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
)

// NewForbiddenError は権限エラーを生成する。
// 未ログインと管理者権限なしの両方で同一のメッセージを返す。
// 原因を区別しないことでアカウント状態の推測を防ぐ。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしているか確認してください。",
	}
}

// NewContentNotFoundError は審査対象コンテンツ未検出エラーを生成する。
func NewContentNotFoundError(kind ContentKind, contentID string) *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  fmt.Sprintf("指定されたコンテンツが見つかりません: %s %s", kind, contentID),
		Category: "content",
		Action:   "一覧を再読み込みしてから再度お試しください。",
	}
}

// NewRecipeNotFoundError はレシピ未検出エラーを生成する。
func NewRecipeNotFoundError(recipeID string) *APIError {
	return &APIError{
		Code:     ErrCodeRecipeNotFound,
		Message:  fmt.Sprintf("指定されたレシピが見つかりません: %s", recipeID),
		Category: "recipe",
		Action:   "レシピIDを確認してください。",
	}
}

// NewInvalidStatusError は無効な遷移先状態エラーを生成する。
func NewInvalidStatusError(status ModerationStatus) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なモデレーション状態です: %s", status),
		Category: "validation",
		Action:   "遷移先には approved または denied を指定してください。",
	}
}

// NewInvalidKindError は無効なコンテンツ種別エラーを生成する。
func NewInvalidKindError(kind ContentKind) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidKind,
		Message:  fmt.Sprintf("無効なコンテンツ種別です: %s", kind),
		Category: "validation",
		Action:   "種別には review または comment を指定してください。",
	}
}

// NewInvalidRatingError は範囲外の星評価エラーを生成する。
func NewInvalidRatingError(stars int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", stars),
		Category: "validation",
		Action:   "評価は1から5の整数で指定してください。",
	}
}

// NewEmptyContentError は本文が空の投稿エラーを生成する。
func NewEmptyContentError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyContent,
		Message:  "本文が空です。",
		Category: "validation",
		Action:   "本文を入力してから投稿してください。",
	}
}

// NewInvalidImageURLError は無効な画像URLエラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("無効な画像URLです: %s", reason),
		Category: "validation",
		Action:   "https:// で始まる公開画像のURLを入力してください。",
	}
}

// NewImageURLBlockedError はSSRFブロックエラーを生成する。
func NewImageURLBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeImageURLBlocked,
		Message:  "セキュリティポリシーにより、指定された画像URLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイト上の画像URLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
