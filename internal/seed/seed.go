// Package seed は開発・デモ用のモックレシピ投入処理を提供する。
//
// 既存の全レシピを従属行ごと削除した後、実在するセルビア料理のタイトルと
// ダミー本文で30件のモックレシピを作成する。サービスロール相当の処理であり、
// セッションや権限判定を経由せずリポジトリを直接操作する。
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/recipe"
	"github.com/hitoshi/recepti/internal/repository"
)

const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris."

const loremStep = "Ut aliquet tristique nisl. Pellentesque habitant morbi tristique senectus. Donec vitae sapien ut libero venenatis faucibus."

// recipeTitles は投入するモックレシピのタイトル（実在するセルビア料理名）。
var recipeTitles = []string{
	"Sarma",
	"Punjene paprike",
	"Karadjordjeva šnicla",
	"Gibanica",
	"Čorba od sočiva",
	"Palačinke sa džemom",
	"Pasulj prebranac",
	"Mućkalica",
	"Karađorđeva šnicla",
	"Podvarak",
	"Proja",
	"Satarash",
	"Đuveč",
	"Čvarci",
	"Kiseli kupus",
	"Pileća supa",
	"Šnicle u sosu",
	"Tulumba",
	"Krofne",
	"Pita sa sirom",
	"Čorba od pilećih grudi",
	"Pljeskavica",
	"Ćevapi",
	"Baklava",
	"Pita sa jabukama",
	"Kuvana svinjetina",
	"Pečena šunka",
	"Štrudla sa višnjama",
	"Riblja čorba",
	"Teleća čorba",
}

// sampleIngredients は材料のサンプル（分量込みの1行表記）。
var sampleIngredients = []string{
	"500 g Mleveno meso",
	"1 glavica Crni luk",
	"2 češnja Beli luk",
	"200 ml Pavlaka",
	"1 kašika Vegeta",
	"So",
	"Mleveni biber",
	"3 kom Jaja",
	"400 g Brasno",
	"100 g Sir",
	"1 kg Krompir",
	"500 g Kiseli kupus",
	"2 kašike Ulje",
	"1 litra Voda",
	"200 g Šargarepa",
}

// recipeImages はレシピ画像URL（Unsplash、利用可能なフリー素材）。
// レシピに循環的に割り当てる。
var recipeImages = []string{
	"https://images.unsplash.com/photo-1547592166-23ac45744acd?w=800&q=80",
	"https://images.unsplash.com/photo-1495521821757-a1efb6729352?w=800&q=80",
	"https://images.unsplash.com/photo-1512621776951-a57141f2eefd?w=800&q=80",
	"https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=800&q=80",
	"https://images.unsplash.com/photo-1565958011703-44f9829ba187?w=800&q=80",
	"https://images.unsplash.com/photo-1567620905732-2d1ec7ab7445?w=800&q=80",
	"https://images.unsplash.com/photo-1606787366850-de6330128bfc?w=800&q=80",
	"https://images.unsplash.com/photo-1476224203421-9ac39bcb3327?w=800&q=80",
	"https://images.unsplash.com/photo-1546069901-ba9599a7e63c?w=800&q=80",
	"https://images.unsplash.com/photo-1504674900247-0877df9cc836?w=800&q=80",
}

// Seeder はモックレシピの投入処理を提供する。
type Seeder struct {
	recipeRepo repository.RecipeRepository
}

// NewSeeder はSeederを生成する。
func NewSeeder(recipeRepo repository.RecipeRepository) *Seeder {
	return &Seeder{recipeRepo: recipeRepo}
}

// Run は既存レシピを全削除し、30件のモックレシピを投入する。
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.deleteAll(ctx); err != nil {
		return err
	}

	for i, title := range recipeTitles {
		if err := s.insertMockRecipe(ctx, i, title); err != nil {
			return err
		}
	}

	slog.Info("seed completed", slog.Int("recipes", len(recipeTitles)))
	return nil
}

// deleteAll は既存の全レシピを従属行ごと削除する。
func (s *Seeder) deleteAll(ctx context.Context) error {
	summaries, err := s.recipeRepo.List(ctx, 1000, 0)
	if err != nil {
		return fmt.Errorf("既存レシピの取得に失敗しました: %w", err)
	}

	for _, summary := range summaries {
		if _, err := s.recipeRepo.DeleteCascade(ctx, summary.ID); err != nil {
			return fmt.Errorf("既存レシピの削除に失敗しました: %w", err)
		}
	}

	slog.Info("existing recipes deleted", slog.Int("count", len(summaries)))
	return nil
}

// insertMockRecipe はi番目のモックレシピを作成する。
// 調理時間・人数・材料数・手順数はインデックスから決定的に導出する。
func (s *Seeder) insertMockRecipe(ctx context.Context, i int, title string) error {
	now := time.Now()
	rec := &model.Recipe{
		ID:          uuid.New().String(),
		Title:       title,
		Slug:        fmt.Sprintf("%s-%d", recipe.Slugify(title), i+1),
		Description: lorem,
		ImageURL:    recipeImages[i%len(recipeImages)],
		Servings:    4 + i%4,
		PrepMinutes: 15 + (i%5)*5,
		CookMinutes: 30 + (i%6)*10,
		AuthorID:    nil, // シードレシピには投稿者を紐付けない
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	numIngredients := 5 + i%(len(sampleIngredients)-4)
	ingredients := make([]model.Ingredient, numIngredients)
	for k := 0; k < numIngredients; k++ {
		ingredients[k] = model.Ingredient{
			ID:       uuid.New().String(),
			RecipeID: rec.ID,
			Position: k + 1,
			Text:     sampleIngredients[k],
		}
	}

	numSteps := 3 + i%4
	steps := make([]model.Step, numSteps)
	for k := 0; k < numSteps; k++ {
		steps[k] = model.Step{
			ID:       uuid.New().String(),
			RecipeID: rec.ID,
			Position: k + 1,
			Text:     loremStep,
		}
	}

	// 3件に1件だけ栄養情報を付与する
	var nutrition *model.Nutrition
	if i%3 == 0 {
		nutrition = &model.Nutrition{
			RecipeID: rec.ID,
			Calories: 250 + (i%20)*25,
			ProteinG: 15 + i%12,
			CarbsG:   25 + i%15,
			FatG:     10 + i%8,
		}
	}

	if err := s.recipeRepo.Create(ctx, rec, ingredients, steps, nutrition); err != nil {
		return fmt.Errorf("モックレシピの作成に失敗しました: %s: %w", title, err)
	}

	slog.Info("mock recipe inserted",
		slog.String("title", title),
		slog.String("slug", rec.Slug),
	)
	return nil
}
