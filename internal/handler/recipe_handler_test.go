package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/recipe"
)

// --- モック定義 ---

// mockRecipeService はRecipeServiceInterfaceのモック実装。
type mockRecipeService struct {
	listFn      func(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error)
	getFn       func(ctx context.Context, recipeID string) (*recipe.RecipeDetail, error)
	getBySlugFn func(ctx context.Context, slug string) (*recipe.RecipeDetail, error)
	createFn    func(ctx context.Context, authorID string, input recipe.NewRecipeInput) (*model.Recipe, error)
}

func (m *mockRecipeService) List(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockRecipeService) Get(ctx context.Context, recipeID string) (*recipe.RecipeDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, recipeID)
	}
	return nil, nil
}

func (m *mockRecipeService) GetBySlug(ctx context.Context, slug string) (*recipe.RecipeDetail, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, nil
}

func (m *mockRecipeService) Create(ctx context.Context, authorID string, input recipe.NewRecipeInput) (*model.Recipe, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, input)
	}
	return nil, nil
}

// --- GET /api/recipes テスト ---

func TestRecipeHandler_ListRecipes_DefaultPaging(t *testing.T) {
	svc := &mockRecipeService{
		listFn: func(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error) {
			if limit != defaultRecipesPerPage {
				t.Errorf("limit = %d, want %d", limit, defaultRecipesPerPage)
			}
			if offset != 0 {
				t.Errorf("offset = %d, want 0", offset)
			}
			return []model.RecipeSummary{
				{
					Recipe:        model.Recipe{ID: "recipe-1", Title: "Sarma", Slug: "sarma-1"},
					AverageRating: 4.5,
					RatingCount:   12,
					ReviewCount:   3,
				},
			}, nil
		},
	}
	h := NewRecipeHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	w := httptest.NewRecorder()

	h.ListRecipes(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string][]map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	recipes := result["recipes"]
	if len(recipes) != 1 {
		t.Fatalf("recipes length = %d, want 1", len(recipes))
	}
	if recipes[0]["title"] != "Sarma" {
		t.Errorf("title = %v, want Sarma", recipes[0]["title"])
	}
	if recipes[0]["average_rating"] != 4.5 {
		t.Errorf("average_rating = %v, want 4.5", recipes[0]["average_rating"])
	}
}

func TestRecipeHandler_ListRecipes_CustomPaging(t *testing.T) {
	var gotLimit, gotOffset int
	svc := &mockRecipeService{
		listFn: func(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	h := NewRecipeHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes?limit=10&offset=20", nil)
	w := httptest.NewRecorder()

	h.ListRecipes(w, req)

	if gotLimit != 10 || gotOffset != 20 {
		t.Errorf("paging = (%d, %d), want (10, 20)", gotLimit, gotOffset)
	}
}

func TestRecipeHandler_ListRecipes_LimitAboveMax_FallsBackToDefault(t *testing.T) {
	var gotLimit int
	svc := &mockRecipeService{
		listFn: func(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	h := NewRecipeHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes?limit=500", nil)
	w := httptest.NewRecorder()

	h.ListRecipes(w, req)

	if gotLimit != defaultRecipesPerPage {
		t.Errorf("limit = %d, want %d", gotLimit, defaultRecipesPerPage)
	}
}

// --- GET /api/recipes/:id テスト ---

func TestRecipeHandler_GetRecipe_BySlug(t *testing.T) {
	svc := &mockRecipeService{
		getBySlugFn: func(ctx context.Context, slug string) (*recipe.RecipeDetail, error) {
			if slug != "sarma-1" {
				t.Errorf("slug = %q, want sarma-1", slug)
			}
			return &recipe.RecipeDetail{
				Recipe: model.Recipe{ID: "recipe-1", Title: "Sarma", Slug: "sarma-1"},
				Ingredients: []model.Ingredient{
					{Position: 1, Text: "500 g Mleveno meso"},
				},
				Steps: []model.Step{
					{Position: 1, Text: "Pripremite sastojke."},
				},
				Nutrition:     &model.Nutrition{Calories: 450, ProteinG: 25, CarbsG: 30, FatG: 20},
				AverageRating: 4.5,
				RatingCount:   12,
			}, nil
		},
	}
	h := NewRecipeHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/sarma-1", nil)
	req = withChiURLParams(req, map[string]string{"id": "sarma-1"})
	w := httptest.NewRecorder()

	h.GetRecipe(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["id"] != "recipe-1" {
		t.Errorf("id = %v, want recipe-1", result["id"])
	}
	ingredients, ok := result["ingredients"].([]interface{})
	if !ok || len(ingredients) != 1 {
		t.Fatalf("ingredients = %v, want 1 entry", result["ingredients"])
	}
	if result["nutrition"] == nil {
		t.Error("expected nutrition to be present")
	}
}

func TestRecipeHandler_GetRecipe_SlugMissFallsBackToID(t *testing.T) {
	svc := &mockRecipeService{
		getFn: func(ctx context.Context, recipeID string) (*recipe.RecipeDetail, error) {
			if recipeID != "recipe-1" {
				t.Errorf("recipeID = %q, want recipe-1", recipeID)
			}
			return &recipe.RecipeDetail{
				Recipe: model.Recipe{ID: "recipe-1", Title: "Sarma", Slug: "sarma-1"},
			}, nil
		},
	}
	h := NewRecipeHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/recipe-1", nil)
	req = withChiURLParams(req, map[string]string{"id": "recipe-1"})
	w := httptest.NewRecorder()

	h.GetRecipe(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRecipeHandler_GetRecipe_NutritionOmittedWhenAbsent(t *testing.T) {
	svc := &mockRecipeService{
		getBySlugFn: func(ctx context.Context, slug string) (*recipe.RecipeDetail, error) {
			return &recipe.RecipeDetail{
				Recipe: model.Recipe{ID: "recipe-1", Title: "Sarma", Slug: "sarma-1"},
			}, nil
		},
	}
	h := NewRecipeHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/sarma-1", nil)
	req = withChiURLParams(req, map[string]string{"id": "sarma-1"})
	w := httptest.NewRecorder()

	h.GetRecipe(w, req)

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, present := result["nutrition"]; present {
		t.Error("expected nutrition to be omitted")
	}
}

func TestRecipeHandler_GetRecipe_NotFound_Returns404(t *testing.T) {
	h := NewRecipeHandler(&mockRecipeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/missing", nil)
	req = withChiURLParams(req, map[string]string{"id": "missing"})
	w := httptest.NewRecorder()

	h.GetRecipe(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeRecipeNotFound {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeRecipeNotFound)
	}
}

// --- POST /api/recipes テスト ---

func TestRecipeHandler_CreateRecipe_Success(t *testing.T) {
	svc := &mockRecipeService{
		createFn: func(ctx context.Context, authorID string, input recipe.NewRecipeInput) (*model.Recipe, error) {
			if authorID != "user-1" {
				t.Errorf("authorID = %q, want user-1", authorID)
			}
			if input.Title != "Punjene paprike" {
				t.Errorf("title = %q, want Punjene paprike", input.Title)
			}
			if len(input.Ingredients) != 2 || len(input.Steps) != 1 {
				t.Errorf("ingredients/steps = %d/%d, want 2/1", len(input.Ingredients), len(input.Steps))
			}
			return &model.Recipe{ID: "recipe-9", Slug: "punjene-paprike"}, nil
		},
	}
	h := NewRecipeHandler(svc)

	body := `{"title": "Punjene paprike", "ingredients": ["Paprika", "Mleveno meso"], "steps": ["Napunite papriku."]}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()

	h.CreateRecipe(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["id"] != "recipe-9" || result["slug"] != "punjene-paprike" {
		t.Errorf("response = %v, want id=recipe-9 slug=punjene-paprike", result)
	}
}

func TestRecipeHandler_CreateRecipe_NoSession_ReturnsUnauthorized(t *testing.T) {
	h := NewRecipeHandler(&mockRecipeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewBufferString(`{"title": "Sarma"}`))
	w := httptest.NewRecorder()

	h.CreateRecipe(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRecipeHandler_CreateRecipe_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	h := NewRecipeHandler(&mockRecipeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewBufferString(`{invalid`))
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()

	h.CreateRecipe(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRecipeHandler_CreateRecipe_BlockedImageURL_ReturnsForbidden(t *testing.T) {
	svc := &mockRecipeService{
		createFn: func(ctx context.Context, authorID string, input recipe.NewRecipeInput) (*model.Recipe, error) {
			return nil, model.NewImageURLBlockedError()
		},
	}
	h := NewRecipeHandler(svc)

	body := `{"title": "Sarma", "image_url": "http://169.254.169.254/latest"}`
	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewBufferString(body))
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()

	h.CreateRecipe(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeImageURLBlocked {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeImageURLBlocked)
	}
}
