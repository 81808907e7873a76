package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/viewcache"
)

// --- モック ---

type mockRecipeRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.Recipe, error)
	findBySlugFn    func(ctx context.Context, slug string) (*model.Recipe, error)
	listFn          func(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error)
	createFn        func(ctx context.Context, recipe *model.Recipe, ingredients []model.Ingredient, steps []model.Step, nutrition *model.Nutrition) error
	deleteCascadeFn func(ctx context.Context, recipeID string) (int64, error)
	deleteCalls     int
}

func (m *mockRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockRecipeRepo) FindBySlug(ctx context.Context, slug string) (*model.Recipe, error) {
	if m.findBySlugFn != nil {
		return m.findBySlugFn(ctx, slug)
	}
	return nil, nil
}
func (m *mockRecipeRepo) List(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}
func (m *mockRecipeRepo) Count(ctx context.Context) (int, error) { return 0, nil }
func (m *mockRecipeRepo) Create(ctx context.Context, recipe *model.Recipe, ingredients []model.Ingredient, steps []model.Step, nutrition *model.Nutrition) error {
	if m.createFn != nil {
		return m.createFn(ctx, recipe, ingredients, steps, nutrition)
	}
	return nil
}
func (m *mockRecipeRepo) DeleteCascade(ctx context.Context, recipeID string) (int64, error) {
	m.deleteCalls++
	if m.deleteCascadeFn != nil {
		return m.deleteCascadeFn(ctx, recipeID)
	}
	return 1, nil
}
func (m *mockRecipeRepo) ListIngredients(ctx context.Context, recipeID string) ([]model.Ingredient, error) {
	return nil, nil
}
func (m *mockRecipeRepo) ListSteps(ctx context.Context, recipeID string) ([]model.Step, error) {
	return nil, nil
}
func (m *mockRecipeRepo) FindNutrition(ctx context.Context, recipeID string) (*model.Nutrition, error) {
	return nil, nil
}

type mockRatingRepo struct {
	averageFn func(ctx context.Context, recipeID string) (float64, int, error)
}

func (m *mockRatingRepo) Upsert(ctx context.Context, rating *model.Rating) error { return nil }
func (m *mockRatingRepo) AverageByRecipe(ctx context.Context, recipeID string) (float64, int, error) {
	if m.averageFn != nil {
		return m.averageFn(ctx, recipeID)
	}
	return 0, 0, nil
}

type mockAdminChecker struct {
	isAdminFn func(ctx context.Context, userID string) (bool, error)
}

func (m *mockAdminChecker) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return m.isAdminFn(ctx, userID)
}

type mockImageGuard struct {
	validateFn       func(rawURL string) error
	checkReachableFn func(ctx context.Context, rawURL string) error
}

func (m *mockImageGuard) ValidateURL(rawURL string) error {
	if m.validateFn != nil {
		return m.validateFn(rawURL)
	}
	return nil
}

func (m *mockImageGuard) CheckReachable(ctx context.Context, rawURL string) error {
	if m.checkReachableFn != nil {
		return m.checkReachableFn(ctx, rawURL)
	}
	return nil
}

type mockInvalidator struct {
	invalidated []viewcache.ViewKey
}

func (m *mockInvalidator) Invalidate(keys ...viewcache.ViewKey) {
	m.invalidated = append(m.invalidated, keys...)
}

type mockMetrics struct {
	recipesDeleted int
	denied         int
}

func (m *mockMetrics) RecordRecipeDeleted() { m.recipesDeleted++ }
func (m *mockMetrics) RecordModerationDenied() { m.denied++ }

func gateOf(admins ...string) *mockAdminChecker {
	return &mockAdminChecker{
		isAdminFn: func(ctx context.Context, userID string) (bool, error) {
			for _, a := range admins {
				if a == userID {
					return true, nil
				}
			}
			return false, nil
		},
	}
}

// --- Get のテスト ---

func TestGet_RecipeFound_ReturnsDetailWithAggregates(t *testing.T) {
	repo := &mockRecipeRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Recipe, error) {
			return &model.Recipe{ID: id, Title: "Sarma", Slug: "sarma-1"}, nil
		},
	}
	ratings := &mockRatingRepo{
		averageFn: func(ctx context.Context, recipeID string) (float64, int, error) {
			return 4.5, 12, nil
		},
	}
	svc := NewService(repo, ratings, gateOf(), &mockImageGuard{}, nil, nil)

	detail, err := svc.Get(context.Background(), "recipe-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if detail == nil {
		t.Fatal("expected non-nil detail")
	}
	if detail.Title != "Sarma" {
		t.Errorf("Title = %q, want Sarma", detail.Title)
	}
	if detail.AverageRating != 4.5 || detail.RatingCount != 12 {
		t.Errorf("aggregates = (%v, %d), want (4.5, 12)", detail.AverageRating, detail.RatingCount)
	}
}

func TestGet_RecipeMissing_ReturnsNil(t *testing.T) {
	svc := NewService(&mockRecipeRepo{}, &mockRatingRepo{}, gateOf(), &mockImageGuard{}, nil, nil)

	detail, err := svc.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if detail != nil {
		t.Errorf("expected nil detail, got %+v", detail)
	}
}

// --- Create のテスト ---

func TestCreate_AnonymousAuthor_ReturnsForbidden(t *testing.T) {
	svc := NewService(&mockRecipeRepo{}, &mockRatingRepo{}, gateOf(), &mockImageGuard{}, nil, nil)

	_, err := svc.Create(context.Background(), "", NewRecipeInput{Title: "Sarma"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestCreate_EmptyTitle_ReturnsEmptyContent(t *testing.T) {
	svc := NewService(&mockRecipeRepo{}, &mockRatingRepo{}, gateOf(), &mockImageGuard{}, nil, nil)

	_, err := svc.Create(context.Background(), "user-1", NewRecipeInput{Title: ""})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmptyContent {
		t.Fatalf("expected EMPTY_CONTENT, got %v", err)
	}
}

func TestCreate_MalformedImageURL_ReturnsInvalidImageURL(t *testing.T) {
	guard := &mockImageGuard{
		validateFn: func(rawURL string) error {
			t.Error("ValidateURL should not be called for a malformed URL")
			return nil
		},
	}
	svc := NewService(&mockRecipeRepo{}, &mockRatingRepo{}, gateOf(), guard, nil, nil)

	for _, imageURL := range []string{"ftp://example.com/sarma.jpg", "not a url", "javascript:alert(1)"} {
		_, err := svc.Create(context.Background(), "user-1", NewRecipeInput{
			Title:    "Sarma",
			ImageURL: imageURL,
		})

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidImageURL {
			t.Errorf("Create(%q): expected INVALID_IMAGE_URL, got %v", imageURL, err)
		}
	}
}

func TestCreate_BlockedImageURL_ReturnsImageURLBlocked(t *testing.T) {
	guard := &mockImageGuard{
		validateFn: func(rawURL string) error { return fmt.Errorf("blocked host") },
	}
	svc := NewService(&mockRecipeRepo{}, &mockRatingRepo{}, gateOf(), guard, nil, nil)

	_, err := svc.Create(context.Background(), "user-1", NewRecipeInput{
		Title:    "Sarma",
		ImageURL: "http://169.254.169.254/latest/meta-data",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeImageURLBlocked {
		t.Fatalf("expected IMAGE_URL_BLOCKED, got %v", err)
	}
}

func TestCreate_UnreachableImageURL_ReturnsInvalidImageURL(t *testing.T) {
	guard := &mockImageGuard{
		checkReachableFn: func(ctx context.Context, rawURL string) error {
			return fmt.Errorf("connection refused")
		},
	}
	svc := NewService(&mockRecipeRepo{}, &mockRatingRepo{}, gateOf(), guard, nil, nil)

	_, err := svc.Create(context.Background(), "user-1", NewRecipeInput{
		Title:    "Sarma",
		ImageURL: "https://images.example.com/sarma.jpg",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidImageURL {
		t.Fatalf("expected INVALID_IMAGE_URL, got %v", err)
	}
}

func TestCreate_ImageURL_ReachabilityChecked(t *testing.T) {
	var checkedURL string
	guard := &mockImageGuard{
		checkReachableFn: func(ctx context.Context, rawURL string) error {
			checkedURL = rawURL
			return nil
		},
	}
	svc := NewService(&mockRecipeRepo{}, &mockRatingRepo{}, gateOf(), guard, nil, nil)

	_, err := svc.Create(context.Background(), "user-1", NewRecipeInput{
		Title:    "Sarma",
		ImageURL: "https://images.example.com/sarma.jpg",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if checkedURL != "https://images.example.com/sarma.jpg" {
		t.Errorf("CheckReachable called with %q, want the submitted image URL", checkedURL)
	}
}

func TestCreate_Valid_SetsSlugAndPositions(t *testing.T) {
	var gotIngredients []model.Ingredient
	var gotSteps []model.Step
	repo := &mockRecipeRepo{
		createFn: func(ctx context.Context, recipe *model.Recipe, ingredients []model.Ingredient, steps []model.Step, nutrition *model.Nutrition) error {
			gotIngredients, gotSteps = ingredients, steps
			return nil
		},
	}
	svc := NewService(repo, &mockRatingRepo{}, gateOf(), &mockImageGuard{}, nil, nil)

	created, err := svc.Create(context.Background(), "user-1", NewRecipeInput{
		Title:       "Punjene paprike",
		Ingredients: []string{"500 g Mleveno meso", "4 kom Paprika"},
		Steps:       []string{"Pripremiti papriku", "Puniti i kuvati"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Slug != "punjene-paprike" {
		t.Errorf("Slug = %q, want punjene-paprike", created.Slug)
	}
	if created.AuthorID == nil || *created.AuthorID != "user-1" {
		t.Errorf("AuthorID = %v, want user-1", created.AuthorID)
	}
	for i, ing := range gotIngredients {
		if ing.Position != i+1 {
			t.Errorf("ingredient[%d].Position = %d, want %d", i, ing.Position, i+1)
		}
	}
	for i, st := range gotSteps {
		if st.Position != i+1 {
			t.Errorf("step[%d].Position = %d, want %d", i, st.Position, i+1)
		}
	}
}

func TestCreate_SlugCollision_AppendsIDPrefix(t *testing.T) {
	repo := &mockRecipeRepo{
		findBySlugFn: func(ctx context.Context, slug string) (*model.Recipe, error) {
			if slug == "sarma" {
				return &model.Recipe{ID: "other", Slug: "sarma"}, nil
			}
			return nil, nil
		},
	}
	svc := NewService(repo, &mockRatingRepo{}, gateOf(), &mockImageGuard{}, nil, nil)

	created, err := svc.Create(context.Background(), "user-1", NewRecipeInput{Title: "Sarma"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(created.Slug, "sarma-") {
		t.Errorf("Slug = %q, want sarma-<id prefix>", created.Slug)
	}
	if created.Slug == "sarma" {
		t.Error("slug collision not resolved")
	}
}

// --- Delete のテスト ---

func TestDelete_AnonymousActor_ReturnsForbidden(t *testing.T) {
	repo := &mockRecipeRepo{}
	metrics := &mockMetrics{}
	svc := NewService(repo, &mockRatingRepo{}, gateOf("admin-1"), &mockImageGuard{}, nil, metrics)

	err := svc.Delete(context.Background(), "", "recipe-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if repo.deleteCalls != 0 {
		t.Errorf("DeleteCascade called %d times, want 0", repo.deleteCalls)
	}
	if metrics.denied != 1 {
		t.Errorf("denied metric = %d, want 1", metrics.denied)
	}
}

func TestDelete_NonAdmin_ReturnsForbiddenWithoutDeleting(t *testing.T) {
	repo := &mockRecipeRepo{}
	svc := NewService(repo, &mockRatingRepo{}, gateOf("admin-1"), &mockImageGuard{}, nil, nil)

	err := svc.Delete(context.Background(), "user-2", "recipe-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if repo.deleteCalls != 0 {
		t.Errorf("DeleteCascade called %d times, want 0", repo.deleteCalls)
	}
}

func TestDelete_Admin_DeletesAndInvalidatesViews(t *testing.T) {
	var deletedID string
	repo := &mockRecipeRepo{
		deleteCascadeFn: func(ctx context.Context, recipeID string) (int64, error) {
			deletedID = recipeID
			return 1, nil
		},
	}
	invalidator := &mockInvalidator{}
	metrics := &mockMetrics{}
	svc := NewService(repo, &mockRatingRepo{}, gateOf("admin-1"), &mockImageGuard{}, invalidator, metrics)

	if err := svc.Delete(context.Background(), "admin-1", "recipe-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deletedID != "recipe-1" {
		t.Errorf("deleted ID = %q, want recipe-1", deletedID)
	}
	if metrics.recipesDeleted != 1 {
		t.Errorf("deleted metric = %d, want 1", metrics.recipesDeleted)
	}

	want := map[viewcache.ViewKey]bool{
		viewcache.ViewRecipeList:              false,
		viewcache.RecipeDetailKey("recipe-1"): false,
		viewcache.ViewAdminDashboard:          false,
	}
	for _, key := range invalidator.invalidated {
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("view %q not invalidated", key)
		}
	}
}

func TestDelete_RecipeMissing_ReturnsRecipeNotFound(t *testing.T) {
	repo := &mockRecipeRepo{
		deleteCascadeFn: func(ctx context.Context, recipeID string) (int64, error) {
			return 0, nil
		},
	}
	svc := NewService(repo, &mockRatingRepo{}, gateOf("admin-1"), &mockImageGuard{}, nil, nil)

	err := svc.Delete(context.Background(), "admin-1", "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRecipeNotFound {
		t.Fatalf("expected RECIPE_NOT_FOUND, got %v", err)
	}
}

func TestDelete_GateError_ReturnsWrappedError(t *testing.T) {
	gate := &mockAdminChecker{
		isAdminFn: func(ctx context.Context, userID string) (bool, error) {
			return false, fmt.Errorf("db down")
		},
	}
	repo := &mockRecipeRepo{}
	svc := NewService(repo, &mockRatingRepo{}, gate, &mockImageGuard{}, nil, nil)

	err := svc.Delete(context.Background(), "admin-1", "recipe-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if repo.deleteCalls != 0 {
		t.Errorf("DeleteCascade called %d times, want 0", repo.deleteCalls)
	}
}
