// Package model はドメインモデルを定義する。
package model

import "time"

// User はレシピを投稿・閲覧するサービス利用者を表す。
// 認証情報は持たず、外部IdPとの紐付けはIdentityが担う。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity はユーザーと外部IdPアカウントの紐付けを表す。
// 現状のプロバイダーはGoogleのみだが、(Provider, ProviderUserID)の組で
// 一意になる構造のため他のIdPを後から追加できる。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はログインセッションを表す。ExpiresAtを過ぎた行は無効として扱う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AdminEntry は管理者許可リストの1行を表す。
// 行が存在すること自体が管理者権限の付与を意味し、ロール等の属性は持たない。
// 許可リストの編集はこのアプリケーションの外側（運用オペレーション）で行う。
type AdminEntry struct {
	UserID    string
	CreatedAt time.Time
}
