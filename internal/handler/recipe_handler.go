package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recepti/internal/middleware"
	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/recipe"
)

// defaultRecipesPerPage はレシピ一覧の1回の取得件数（デフォルト）。
const defaultRecipesPerPage = 24

// maxRecipesPerPage はレシピ一覧の1回の取得件数の上限。
const maxRecipesPerPage = 100

// RecipeServiceInterface はレシピハンドラーが必要とするサービスインターフェース。
type RecipeServiceInterface interface {
	// List はレシピ一覧を評価集計付きで返す。
	List(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error)
	// Get はIDでレシピ詳細を返す。未検出はnil。
	Get(ctx context.Context, recipeID string) (*recipe.RecipeDetail, error)
	// GetBySlug はスラッグでレシピ詳細を返す。未検出はnil。
	GetBySlug(ctx context.Context, slug string) (*recipe.RecipeDetail, error)
	// Create はレシピを新規投稿する。
	Create(ctx context.Context, authorID string, input recipe.NewRecipeInput) (*model.Recipe, error)
}

// RecipeHandler はレシピ管理のHTTPハンドラー。
type RecipeHandler struct {
	service RecipeServiceInterface
}

// NewRecipeHandler はRecipeHandlerを生成する。
func NewRecipeHandler(service RecipeServiceInterface) *RecipeHandler {
	return &RecipeHandler{service: service}
}

// --- レスポンス型 ---

// recipeSummaryResponse はレシピ一覧のサマリーレスポンス。
type recipeSummaryResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	Servings      int       `json:"servings"`
	PrepMinutes   int       `json:"prep_minutes"`
	CookMinutes   int       `json:"cook_minutes"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ingredientResponse は材料1行のレスポンス。
type ingredientResponse struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// stepResponse は手順1行のレスポンス。
type stepResponse struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// nutritionResponse は栄養情報のレスポンス。
type nutritionResponse struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

// recipeDetailResponse はレシピ詳細のレスポンス。
type recipeDetailResponse struct {
	recipeSummaryResponse
	Ingredients []ingredientResponse `json:"ingredients"`
	Steps       []stepResponse       `json:"steps"`
	Nutrition   *nutritionResponse   `json:"nutrition,omitempty"`
}

// createRecipeRequest はレシピ投稿リクエストのボディ。
type createRecipeRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Servings    int      `json:"servings"`
	PrepMinutes int      `json:"prep_minutes"`
	CookMinutes int      `json:"cook_minutes"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

func toRecipeSummaryResponse(s model.RecipeSummary) recipeSummaryResponse {
	return recipeSummaryResponse{
		ID:            s.ID,
		Title:         s.Title,
		Slug:          s.Slug,
		Description:   s.Description,
		ImageURL:      s.ImageURL,
		Servings:      s.Servings,
		PrepMinutes:   s.PrepMinutes,
		CookMinutes:   s.CookMinutes,
		AverageRating: s.AverageRating,
		RatingCount:   s.RatingCount,
		ReviewCount:   s.ReviewCount,
		CreatedAt:     s.CreatedAt,
	}
}

// ListRecipes はレシピ一覧を取得する。認証不要。
// GET /api/recipes?limit=24&offset=0
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecipesPerPage
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxRecipesPerPage {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	summaries, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]recipeSummaryResponse, len(summaries))
	for i, s := range summaries {
		results[i] = toRecipeSummaryResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"recipes": results})
}

// GetRecipe はスラッグまたはIDでレシピ詳細を取得する。認証不要。
// スラッグを先に解決し、見つからなければIDとして解決する。
// GET /api/recipes/:id
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id")

	detail, err := h.service.GetBySlug(r.Context(), key)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if detail == nil {
		detail, err = h.service.Get(r.Context(), key)
		if err != nil {
			handleServiceError(w, err)
			return
		}
	}
	if detail == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRecipeNotFoundError(key))
		return
	}

	resp := recipeDetailResponse{
		recipeSummaryResponse: recipeSummaryResponse{
			ID:            detail.ID,
			Title:         detail.Title,
			Slug:          detail.Slug,
			Description:   detail.Description,
			ImageURL:      detail.ImageURL,
			Servings:      detail.Servings,
			PrepMinutes:   detail.PrepMinutes,
			CookMinutes:   detail.CookMinutes,
			AverageRating: detail.AverageRating,
			RatingCount:   detail.RatingCount,
			CreatedAt:     detail.CreatedAt,
		},
		Ingredients: make([]ingredientResponse, len(detail.Ingredients)),
		Steps:       make([]stepResponse, len(detail.Steps)),
	}
	for i, ing := range detail.Ingredients {
		resp.Ingredients[i] = ingredientResponse{Position: ing.Position, Text: ing.Text}
	}
	for i, st := range detail.Steps {
		resp.Steps[i] = stepResponse{Position: st.Position, Text: st.Text}
	}
	if detail.Nutrition != nil {
		resp.Nutrition = &nutritionResponse{
			Calories: detail.Nutrition.Calories,
			ProteinG: detail.Nutrition.ProteinG,
			CarbsG:   detail.Nutrition.CarbsG,
			FatG:     detail.Nutrition.FatG,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CreateRecipe はレシピを新規投稿する。
// POST /api/recipes
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	created, err := h.service.Create(r.Context(), userID, recipe.NewRecipeInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Servings:    req.Servings,
		PrepMinutes: req.PrepMinutes,
		CookMinutes: req.CookMinutes,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"id":   created.ID,
		"slug": created.Slug,
	})
}
