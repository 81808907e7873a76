// Package viewcache はビューのキャッシュ無効化シグナルを管理する。
//
// モデレーションやレシピ削除の成功後、影響を受けるビューのキーを
// 失効としてマークする。フロントエンドはポーリングまたはレスポンス
// ヘッダー経由で失効キーを受け取り、該当ビューを再取得する。
// データ本体は保持しない。あくまで「再取得が必要」というヒントのみを扱う。
package viewcache

import (
	"sync"
	"time"
)

// ViewKey は無効化対象のビューを識別するキー。
type ViewKey string

// 定義済みビューキー
const (
	// ViewAdminDashboard は管理画面ダッシュボード（件数表示）。
	ViewAdminDashboard ViewKey = "admin_dashboard"
	// ViewAdminReviews は管理画面のレビュー審査キュー。
	ViewAdminReviews ViewKey = "admin_reviews"
	// ViewAdminComments は管理画面のコメント審査キュー。
	ViewAdminComments ViewKey = "admin_comments"
	// ViewRecipeList はレシピ一覧ページ。
	ViewRecipeList ViewKey = "recipe_list"
)

// RecipeDetailKey は指定レシピの詳細ページのビューキーを返す。
func RecipeDetailKey(recipeID string) ViewKey {
	return ViewKey("recipe_detail:" + recipeID)
}

// Invalidator はビュー無効化シグナルの送信インターフェース。
// サービス層はこのインターフェースにのみ依存する。
type Invalidator interface {
	// Invalidate は指定されたビューを失効としてマークする。
	Invalidate(keys ...ViewKey)
}

// Registry は失効ビューキーのプロセス内レジストリ。
// 複数リクエストから並行にアクセスされるためミューテックスで保護する。
type Registry struct {
	mu    sync.Mutex
	stale map[ViewKey]time.Time
}

// NewRegistry は空のRegistryを生成する。
func NewRegistry() *Registry {
	return &Registry{
		stale: make(map[ViewKey]time.Time),
	}
}

// Invalidate は指定されたビューを失効としてマークする。
// 同一キーの再マークは失効時刻を更新する。
func (r *Registry) Invalidate(keys ...ViewKey) {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		r.stale[key] = now
	}
}

// StaleSince は指定時刻以降に失効したビューキーの一覧を返す。
func (r *Registry) StaleSince(since time.Time) []ViewKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []ViewKey
	for key, at := range r.stale {
		if !at.Before(since) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Acknowledge は指定されたビューキーの失効マークを取り下げる。
// 再取得が完了したビューに対して呼び出す。
func (r *Registry) Acknowledge(keys ...ViewKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		delete(r.stale, key)
	}
}

// isStale は指定されたビューが失効中かどうかを返す。
func (r *Registry) isStale(key ViewKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.stale[key]
	return ok
}

// compile-time interface check
var _ Invalidator = (*Registry)(nil)
