// Package model はドメインモデルを定義する。
package model

import "time"

// ModerationStatus はユーザー投稿コンテンツのモデレーション状態を表す。
type ModerationStatus string

const (
	// StatusPending は未審査状態。コンテンツ作成時の初期状態。
	StatusPending ModerationStatus = "pending"
	// StatusApproved は承認済み状態。公開ページに表示される。
	StatusApproved ModerationStatus = "approved"
	// StatusDenied は却下状態。公開ページに表示されない。
	StatusDenied ModerationStatus = "denied"
)

// IsReviewable は管理者が遷移先として指定できる状態かどうかを返す。
// pendingへ戻す遷移は存在しない。
func (s ModerationStatus) IsReviewable() bool {
	return s == StatusApproved || s == StatusDenied
}

// ContentKind はモデレーション対象のコンテンツ種別を表す。
type ContentKind string

const (
	// KindReview はレビュー（星評価＋本文）を示す。
	KindReview ContentKind = "review"
	// KindComment はコメントを示す。
	KindComment ContentKind = "comment"
)

// Valid はサポートされているコンテンツ種別かどうかを返す。
func (k ContentKind) Valid() bool {
	return k == KindReview || k == KindComment
}

// Review はレシピに対するレビュー（星評価＋本文）を表す。
// 作成時はstatus=pendingで、管理者の承認後に公開される。
// 不変条件: Status==pending ⇔ ReviewedAt==nil ⇔ ReviewedBy==nil。
// 状態遷移は常にStatus・ReviewedAt・ReviewedByを同一UPDATEで更新する。
type Review struct {
	ID         string
	RecipeID   string
	AuthorID   string
	Rating     int    // 1〜5
	Body       string // サニタイズ済み
	Status     ModerationStatus
	ReviewedAt *time.Time
	ReviewedBy *string
	CreatedAt  time.Time
}

// Comment はレシピに対するコメントを表す。
// レビューと同じモデレーションライフサイクルに従う。
type Comment struct {
	ID         string
	RecipeID   string
	AuthorID   string
	Body       string // サニタイズ済み
	Status     ModerationStatus
	ReviewedAt *time.Time
	ReviewedBy *string
	CreatedAt  time.Time
}

// Rating はレビュー本文を伴わない星評価を表す。
// ユーザー×レシピごとに1件で、再評価時は上書きされる。
type Rating struct {
	ID        string
	RecipeID  string
	UserID    string
	Stars     int // 1〜5
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SavedRecipe はユーザーのレシピ保存（ブックマーク）を表す。
type SavedRecipe struct {
	UserID    string
	RecipeID  string
	CreatedAt time.Time
}
