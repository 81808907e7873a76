// Package recipe はレシピの閲覧・投稿・削除のドメインロジックを提供する。
package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/repository"
	"github.com/hitoshi/recepti/internal/viewcache"
)

// AdminChecker は管理者権限判定のインターフェース。
// admin.Serviceの部分集合として定義する。
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// ImageURLValidator はレシピ画像URLの安全性検証のインターフェース。
// security.SSRFGuardServiceの部分集合として定義する。
type ImageURLValidator interface {
	ValidateURL(rawURL string) error
	CheckReachable(ctx context.Context, rawURL string) error
}

// MetricsRecorder はレシピ関連メトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordRecipeDeleted()
	RecordModerationDenied()
}

// RecipeDetail はレシピ詳細と従属データを結合したドメインオブジェクト。
type RecipeDetail struct {
	model.Recipe
	Ingredients   []model.Ingredient
	Steps         []model.Step
	Nutrition     *model.Nutrition
	AverageRating float64
	RatingCount   int
}

// NewRecipeInput はレシピ投稿の入力。
type NewRecipeInput struct {
	Title       string
	Description string
	ImageURL    string
	Servings    int
	PrepMinutes int
	CookMinutes int
	Ingredients []string
	Steps       []string
	Nutrition   *model.Nutrition
}

// Service はレシピ管理のサービス層。
type Service struct {
	recipeRepo  repository.RecipeRepository
	ratingRepo  repository.RatingRepository
	gate        AdminChecker
	imageGuard  ImageURLValidator
	invalidator viewcache.Invalidator
	metrics     MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// invalidatorとmetricsはnilを許容する。
func NewService(
	recipeRepo repository.RecipeRepository,
	ratingRepo repository.RatingRepository,
	gate AdminChecker,
	imageGuard ImageURLValidator,
	invalidator viewcache.Invalidator,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		recipeRepo:  recipeRepo,
		ratingRepo:  ratingRepo,
		gate:        gate,
		imageGuard:  imageGuard,
		invalidator: invalidator,
		metrics:     metrics,
	}
}

// List はレシピ一覧を評価集計付きで返す。認証不要。
func (s *Service) List(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error) {
	summaries, err := s.recipeRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("レシピ一覧の取得に失敗しました: %w", err)
	}
	return summaries, nil
}

// Get は指定IDのレシピ詳細を返す。見つからない場合はnilを返す。認証不要。
func (s *Service) Get(ctx context.Context, recipeID string) (*RecipeDetail, error) {
	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if recipe == nil {
		return nil, nil
	}
	return s.loadDetail(ctx, recipe)
}

// GetBySlug はスラッグでレシピ詳細を返す。見つからない場合はnilを返す。認証不要。
func (s *Service) GetBySlug(ctx context.Context, slug string) (*RecipeDetail, error) {
	recipe, err := s.recipeRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if recipe == nil {
		return nil, nil
	}
	return s.loadDetail(ctx, recipe)
}

// loadDetail はレシピ本体に従属データと評価集計を付加する。
func (s *Service) loadDetail(ctx context.Context, recipe *model.Recipe) (*RecipeDetail, error) {
	ingredients, err := s.recipeRepo.ListIngredients(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("材料の取得に失敗しました: %w", err)
	}

	steps, err := s.recipeRepo.ListSteps(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("手順の取得に失敗しました: %w", err)
	}

	nutrition, err := s.recipeRepo.FindNutrition(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("栄養情報の取得に失敗しました: %w", err)
	}

	avg, count, err := s.ratingRepo.AverageByRecipe(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("評価の集計に失敗しました: %w", err)
	}

	return &RecipeDetail{
		Recipe:        *recipe,
		Ingredients:   ingredients,
		Steps:         steps,
		Nutrition:     nutrition,
		AverageRating: avg,
		RatingCount:   count,
	}, nil
}

// Create は新規レシピを投稿する。ログイン済みユーザーのみ実行可能。
func (s *Service) Create(ctx context.Context, authorID string, input NewRecipeInput) (*model.Recipe, error) {
	if authorID == "" {
		return nil, model.NewForbiddenError()
	}
	if input.Title == "" {
		return nil, model.NewEmptyContentError()
	}

	// 画像URLは外部フェッチの対象になり得るため、形式チェックとSSRF検証を通した上で
	// SSRF防止付きクライアントによる到達性確認を行う
	if input.ImageURL != "" {
		parsed, err := url.Parse(input.ImageURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, model.NewInvalidImageURLError("URLの形式が正しくありません")
		}
		if err := s.imageGuard.ValidateURL(input.ImageURL); err != nil {
			return nil, model.NewImageURLBlockedError()
		}
		if err := s.imageGuard.CheckReachable(ctx, input.ImageURL); err != nil {
			return nil, model.NewInvalidImageURLError("画像URLに到達できません")
		}
	}

	now := time.Now()
	recipe := &model.Recipe{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Slug:        Slugify(input.Title),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Servings:    input.Servings,
		PrepMinutes: input.PrepMinutes,
		CookMinutes: input.CookMinutes,
		AuthorID:    &authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// スラッグ衝突時は末尾にIDの先頭8文字を付加する
	existing, err := s.recipeRepo.FindBySlug(ctx, recipe.Slug)
	if err != nil {
		return nil, fmt.Errorf("スラッグの確認に失敗しました: %w", err)
	}
	if existing != nil {
		recipe.Slug = fmt.Sprintf("%s-%s", recipe.Slug, recipe.ID[:8])
	}

	ingredients := make([]model.Ingredient, len(input.Ingredients))
	for i, text := range input.Ingredients {
		ingredients[i] = model.Ingredient{
			ID:       uuid.New().String(),
			RecipeID: recipe.ID,
			Position: i + 1,
			Text:     text,
		}
	}

	steps := make([]model.Step, len(input.Steps))
	for i, text := range input.Steps {
		steps[i] = model.Step{
			ID:       uuid.New().String(),
			RecipeID: recipe.ID,
			Position: i + 1,
			Text:     text,
		}
	}

	if input.Nutrition != nil {
		input.Nutrition.RecipeID = recipe.ID
	}

	if err := s.recipeRepo.Create(ctx, recipe, ingredients, steps, input.Nutrition); err != nil {
		return nil, fmt.Errorf("レシピの作成に失敗しました: %w", err)
	}

	slog.Info("recipe created",
		slog.String("recipe_id", recipe.ID),
		slog.String("slug", recipe.Slug),
		slog.String("author_id", authorID),
	)

	if s.invalidator != nil {
		s.invalidator.Invalidate(viewcache.ViewRecipeList, viewcache.ViewAdminDashboard)
	}

	return recipe, nil
}

// Delete はレシピと全従属行を削除する。管理者のみ実行可能。
//
// actorIDはセッションから解決した操作者のユーザーID（未ログインは空文字列）。
// 操作のたびに権限を再判定し、呼び出し側の事前チェック結果は信用しない。
// 従属行（栄養情報・カテゴリ紐付け・手順・材料・レビュー・評価・保存・コメント）
// はレシピ本体より先に、同一トランザクション内で削除される。
func (s *Service) Delete(ctx context.Context, actorID, recipeID string) error {
	// 1. 操作者の解決。未ログインは権限なしと同一のエラーを返す。
	if actorID == "" {
		if s.metrics != nil {
			s.metrics.RecordModerationDenied()
		}
		return model.NewForbiddenError()
	}

	// 2. 権限判定
	isAdmin, err := s.gate.IsAdmin(ctx, actorID)
	if err != nil {
		return fmt.Errorf("権限判定に失敗しました: %w", err)
	}
	if !isAdmin {
		if s.metrics != nil {
			s.metrics.RecordModerationDenied()
		}
		slog.Warn("recipe deletion denied",
			slog.String("actor_id", actorID),
			slog.String("recipe_id", recipeID),
		)
		return model.NewForbiddenError()
	}

	// 3. トランザクション内のカスケード削除
	affected, err := s.recipeRepo.DeleteCascade(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}
	if affected == 0 {
		return model.NewRecipeNotFoundError(recipeID)
	}

	slog.Info("recipe deleted",
		slog.String("actor_id", actorID),
		slog.String("recipe_id", recipeID),
	)

	// 4. レシピ一覧・該当レシピ詳細・ダッシュボード件数を無効化する
	if s.invalidator != nil {
		s.invalidator.Invalidate(
			viewcache.ViewRecipeList,
			viewcache.RecipeDetailKey(recipeID),
			viewcache.ViewAdminDashboard,
		)
	}
	if s.metrics != nil {
		s.metrics.RecordRecipeDeleted()
	}

	return nil
}
