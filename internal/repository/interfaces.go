// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/recepti/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// AdminRepository は管理者許可リストの永続化インターフェース。
type AdminRepository interface {
	// FindEntry は指定ユーザーの許可リスト行を取得する。見つからない場合はnilを返す。
	// 行の存在自体が管理者権限の定義となる。
	FindEntry(ctx context.Context, userID string) (*model.AdminEntry, error)
}

// RecipeRepository はレシピデータの永続化インターフェース。
type RecipeRepository interface {
	// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Recipe, error)

	// FindBySlug はスラッグでレシピを検索する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Recipe, error)

	// List はレシピ一覧を評価集計付きでcreated_at降順で返す。
	List(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error)

	// Count はレシピの総数を返す。
	Count(ctx context.Context) (int, error)

	// Create はレシピと材料・手順・栄養情報を同一トランザクションで作成する。
	Create(ctx context.Context, recipe *model.Recipe, ingredients []model.Ingredient, steps []model.Step, nutrition *model.Nutrition) error

	// DeleteCascade はレシピと全従属行を同一トランザクションで削除する。
	// 削除順序は子から親へ: nutrition → categorizations → steps → ingredients
	// → reviews → ratings → saves → comments → recipe本体。
	// 削除されたレシピ行数を返す。レシピが存在しない場合は0を返す。
	DeleteCascade(ctx context.Context, recipeID string) (int64, error)

	// ListIngredients は指定レシピの材料一覧をposition昇順で返す。
	ListIngredients(ctx context.Context, recipeID string) ([]model.Ingredient, error)

	// ListSteps は指定レシピの手順一覧をposition昇順で返す。
	ListSteps(ctx context.Context, recipeID string) ([]model.Step, error)

	// FindNutrition は指定レシピの栄養情報を取得する。見つからない場合はnilを返す。
	FindNutrition(ctx context.Context, recipeID string) (*model.Nutrition, error)
}

// ReviewWithRecipe はレビューと親レシピのタイトルを結合した構造体。
// レシピが削除済みの場合、RecipeTitleはnilになる（LEFT JOIN）。
type ReviewWithRecipe struct {
	model.Review
	RecipeTitle *string
}

// CommentWithRecipe はコメントと親レシピのタイトルを結合した構造体。
// レシピが削除済みの場合、RecipeTitleはnilになる（LEFT JOIN）。
type CommentWithRecipe struct {
	model.Comment
	RecipeTitle *string
}

// ReviewRepository はレビューデータの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成する。statusは呼び出し側でpendingに設定する。
	Create(ctx context.Context, review *model.Review) error

	// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Review, error)

	// ListApprovedByRecipe は指定レシピの承認済みレビューをcreated_at降順で返す。
	ListApprovedByRecipe(ctx context.Context, recipeID string) ([]model.Review, error)

	// ListByStatus は指定状態のレビューをレシピタイトル付きでcreated_at昇順で返す。
	// 管理画面の審査キュー用。親レシピが削除済みの行も含む。
	ListByStatus(ctx context.Context, status model.ModerationStatus, limit int) ([]ReviewWithRecipe, error)

	// CountByStatus は指定状態のレビュー数を返す。
	CountByStatus(ctx context.Context, status model.ModerationStatus) (int, error)

	// UpdateStatus はレビューの状態・審査日時・審査者を単一UPDATEで更新する。
	// 事前状態の条件は付けない（遷移は無条件かつ冪等）。
	// 更新された行数を返す。対象が存在しない場合は0を返す。
	UpdateStatus(ctx context.Context, id string, status model.ModerationStatus, reviewedAt time.Time, reviewedBy string) (int64, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。statusは呼び出し側でpendingに設定する。
	Create(ctx context.Context, comment *model.Comment) error

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListApprovedByRecipe は指定レシピの承認済みコメントをcreated_at昇順で返す。
	ListApprovedByRecipe(ctx context.Context, recipeID string) ([]model.Comment, error)

	// ListByStatus は指定状態のコメントをレシピタイトル付きでcreated_at昇順で返す。
	ListByStatus(ctx context.Context, status model.ModerationStatus, limit int) ([]CommentWithRecipe, error)

	// CountByStatus は指定状態のコメント数を返す。
	CountByStatus(ctx context.Context, status model.ModerationStatus) (int, error)

	// UpdateStatus はコメントの状態・審査日時・審査者を単一UPDATEで更新する。
	// 更新された行数を返す。対象が存在しない場合は0を返す。
	UpdateStatus(ctx context.Context, id string, status model.ModerationStatus, reviewedAt time.Time, reviewedBy string) (int64, error)
}

// RatingRepository は星評価データの永続化インターフェース。
type RatingRepository interface {
	// Upsert はユーザー×レシピの評価を冪等にUPSERTする。
	// 既存評価がある場合はstarsとupdated_atのみ上書きする。
	Upsert(ctx context.Context, rating *model.Rating) error

	// AverageByRecipe は指定レシピの平均評価と評価数を返す。
	// 評価が存在しない場合は(0, 0)を返す。
	AverageByRecipe(ctx context.Context, recipeID string) (float64, int, error)
}

// SavedRecipeRepository はレシピ保存（ブックマーク）の永続化インターフェース。
type SavedRecipeRepository interface {
	// Find はユーザー×レシピの保存行を取得する。見つからない場合はnilを返す。
	Find(ctx context.Context, userID, recipeID string) (*model.SavedRecipe, error)

	// Insert は保存行を作成する。
	Insert(ctx context.Context, userID, recipeID string) error

	// Delete は保存行を削除する。
	Delete(ctx context.Context, userID, recipeID string) error

	// ListRecipeIDsByUser はユーザーが保存した全レシピIDを返す。
	ListRecipeIDsByUser(ctx context.Context, userID string) ([]string, error)
}
