// Package model はドメインモデルを定義する。
package model

import "time"

// Recipe はレシピを表す。
// AuthorIDはシードデータ等の投稿者不明レシピではnilになる。
type Recipe struct {
	ID          string
	Title       string
	Slug        string
	Description string
	ImageURL    string
	Servings    int
	PrepMinutes int
	CookMinutes int
	AuthorID    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ingredient はレシピの材料1行を表す。
type Ingredient struct {
	ID       string
	RecipeID string
	Position int
	Text     string
}

// Step はレシピの調理手順1行を表す。
type Step struct {
	ID       string
	RecipeID string
	Position int
	Text     string
}

// Nutrition はレシピの栄養情報（1人前あたり）を表す。
// 登録は任意で、レシピ1件につき最大1件。
type Nutrition struct {
	RecipeID string
	Calories int
	ProteinG int
	CarbsG   int
	FatG     int
}

// Category はレシピのカテゴリを表す。recipe_categoriesテーブルで多対多に紐付く。
type Category struct {
	ID   string
	Name string
	Slug string
}

// RecipeSummary はレシピ一覧用にレシピと評価集計を結合したモデル。
type RecipeSummary struct {
	Recipe
	AverageRating float64
	RatingCount   int
	ReviewCount   int // 承認済みレビューのみ
}
