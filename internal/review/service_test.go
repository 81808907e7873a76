package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/repository"
)

// --- モック ---

type mockReviewRepo struct {
	createFn       func(ctx context.Context, review *model.Review) error
	listApprovedFn func(ctx context.Context, recipeID string) ([]model.Review, error)
	createCalls    int
}

func (m *mockReviewRepo) Create(ctx context.Context, review *model.Review) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, review)
	}
	return nil
}
func (m *mockReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	return nil, nil
}
func (m *mockReviewRepo) ListApprovedByRecipe(ctx context.Context, recipeID string) ([]model.Review, error) {
	if m.listApprovedFn != nil {
		return m.listApprovedFn(ctx, recipeID)
	}
	return nil, nil
}
func (m *mockReviewRepo) ListByStatus(ctx context.Context, status model.ModerationStatus, limit int) ([]repository.ReviewWithRecipe, error) {
	return nil, nil
}
func (m *mockReviewRepo) CountByStatus(ctx context.Context, status model.ModerationStatus) (int, error) {
	return 0, nil
}
func (m *mockReviewRepo) UpdateStatus(ctx context.Context, id string, status model.ModerationStatus, reviewedAt time.Time, reviewedBy string) (int64, error) {
	return 0, nil
}

type mockRatingRepo struct {
	upsertFn    func(ctx context.Context, rating *model.Rating) error
	upsertCalls int
}

func (m *mockRatingRepo) Upsert(ctx context.Context, rating *model.Rating) error {
	m.upsertCalls++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, rating)
	}
	return nil
}
func (m *mockRatingRepo) AverageByRecipe(ctx context.Context, recipeID string) (float64, int, error) {
	return 0, 0, nil
}

type mockRecipeRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Recipe, error)
}

func (m *mockRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockRecipeRepo) FindBySlug(ctx context.Context, slug string) (*model.Recipe, error) {
	return nil, nil
}
func (m *mockRecipeRepo) List(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error) {
	return nil, nil
}
func (m *mockRecipeRepo) Count(ctx context.Context) (int, error) { return 0, nil }
func (m *mockRecipeRepo) Create(ctx context.Context, recipe *model.Recipe, ingredients []model.Ingredient, steps []model.Step, nutrition *model.Nutrition) error {
	return nil
}
func (m *mockRecipeRepo) DeleteCascade(ctx context.Context, recipeID string) (int64, error) {
	return 0, nil
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

// mockSanitizer はタグ除去を簡略化したサニタイザ。
type mockSanitizer struct{}

func (m *mockSanitizer) Sanitize(input string) string {
	s := strings.ReplaceAll(input, "<script>", "")
	s = strings.ReplaceAll(s, "</script>", "")
	return strings.TrimSpace(s)
}

type mockMetrics struct {
	submitted []string
}

func (m *mockMetrics) RecordContentSubmitted(kind string) {
	m.submitted = append(m.submitted, kind)
}

func existingRecipe() *mockRecipeRepo {
	return &mockRecipeRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Recipe, error) {
			return &model.Recipe{ID: id, Title: "Sarma", Slug: "sarma-1"}, nil
		},
	}
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- Submit のテスト ---

func TestSubmit_AnonymousAuthor_ReturnsForbidden(t *testing.T) {
	reviews := &mockReviewRepo{}
	svc := NewService(reviews, &mockRatingRepo{}, existingRecipe(), &mockSanitizer{}, nil)

	_, err := svc.Submit(context.Background(), "", "recipe-1", 5, "Odlično")

	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
	if reviews.createCalls != 0 {
		t.Errorf("Create calls = %d, want 0", reviews.createCalls)
	}
}

func TestSubmit_RatingOutOfRange_ReturnsInvalidRating(t *testing.T) {
	svc := NewService(&mockReviewRepo{}, &mockRatingRepo{}, existingRecipe(), &mockSanitizer{}, nil)

	for _, stars := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), "user-1", "recipe-1", stars, "Odlično")
		assertAPIErrorCode(t, err, model.ErrCodeInvalidRating)
	}
}

func TestSubmit_BodyEmptyAfterSanitize_ReturnsEmptyContent(t *testing.T) {
	svc := NewService(&mockReviewRepo{}, &mockRatingRepo{}, existingRecipe(), &mockSanitizer{}, nil)

	_, err := svc.Submit(context.Background(), "user-1", "recipe-1", 5, "<script></script>  ")

	assertAPIErrorCode(t, err, model.ErrCodeEmptyContent)
}

func TestSubmit_RecipeMissing_ReturnsRecipeNotFound(t *testing.T) {
	svc := NewService(&mockReviewRepo{}, &mockRatingRepo{}, &mockRecipeRepo{}, &mockSanitizer{}, nil)

	_, err := svc.Submit(context.Background(), "user-1", "missing", 5, "Odlično")

	assertAPIErrorCode(t, err, model.ErrCodeRecipeNotFound)
}

func TestSubmit_ValidInput_CreatesPendingReview(t *testing.T) {
	var created *model.Review
	reviews := &mockReviewRepo{
		createFn: func(ctx context.Context, review *model.Review) error {
			created = review
			return nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(reviews, &mockRatingRepo{}, existingRecipe(), &mockSanitizer{}, metrics)

	review, err := svc.Submit(context.Background(), "user-1", "recipe-1", 4, "  <script></script>Vrlo dobro  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if review.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", review.Status, model.StatusPending)
	}
	if review.Body != "Vrlo dobro" {
		t.Errorf("Body = %q, want sanitized body", review.Body)
	}
	if review.Rating != 4 {
		t.Errorf("Rating = %d, want 4", review.Rating)
	}
	if review.AuthorID != "user-1" || review.RecipeID != "recipe-1" {
		t.Errorf("author/recipe = (%q, %q), want (user-1, recipe-1)", review.AuthorID, review.RecipeID)
	}
	if review.ID == "" {
		t.Error("expected generated review ID")
	}
	if len(metrics.submitted) != 1 || metrics.submitted[0] != "review" {
		t.Errorf("submitted metrics = %v, want [review]", metrics.submitted)
	}
}

func TestSubmit_CreateFails_ReturnsWrappedError(t *testing.T) {
	reviews := &mockReviewRepo{
		createFn: func(ctx context.Context, review *model.Review) error {
			return errors.New("db down")
		},
	}
	svc := NewService(reviews, &mockRatingRepo{}, existingRecipe(), &mockSanitizer{}, nil)

	_, err := svc.Submit(context.Background(), "user-1", "recipe-1", 5, "Odlično")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("expected plain wrapped error, got APIError %v", apiErr)
	}
}

func TestSubmit_NilMetrics_DoesNotPanic(t *testing.T) {
	svc := NewService(&mockReviewRepo{}, &mockRatingRepo{}, existingRecipe(), &mockSanitizer{}, nil)

	if _, err := svc.Submit(context.Background(), "user-1", "recipe-1", 5, "Odlično"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

// --- ListApproved のテスト ---

func TestListApproved_ReturnsRepositoryResult(t *testing.T) {
	reviews := &mockReviewRepo{
		listApprovedFn: func(ctx context.Context, recipeID string) ([]model.Review, error) {
			return []model.Review{
				{ID: "rev-1", RecipeID: recipeID, Status: model.StatusApproved},
				{ID: "rev-2", RecipeID: recipeID, Status: model.StatusApproved},
			}, nil
		},
	}
	svc := NewService(reviews, &mockRatingRepo{}, &mockRecipeRepo{}, &mockSanitizer{}, nil)

	got, err := svc.ListApproved(context.Background(), "recipe-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestListApproved_RepositoryError_ReturnsWrappedError(t *testing.T) {
	reviews := &mockReviewRepo{
		listApprovedFn: func(ctx context.Context, recipeID string) ([]model.Review, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(reviews, &mockRatingRepo{}, &mockRecipeRepo{}, &mockSanitizer{}, nil)

	if _, err := svc.ListApproved(context.Background(), "recipe-1"); err == nil {
		t.Fatal("expected error")
	}
}

// --- Rate のテスト ---

func TestRate_AnonymousUser_ReturnsForbidden(t *testing.T) {
	ratings := &mockRatingRepo{}
	svc := NewService(&mockReviewRepo{}, ratings, existingRecipe(), &mockSanitizer{}, nil)

	err := svc.Rate(context.Background(), "", "recipe-1", 5)

	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
	if ratings.upsertCalls != 0 {
		t.Errorf("Upsert calls = %d, want 0", ratings.upsertCalls)
	}
}

func TestRate_StarsOutOfRange_ReturnsInvalidRating(t *testing.T) {
	svc := NewService(&mockReviewRepo{}, &mockRatingRepo{}, existingRecipe(), &mockSanitizer{}, nil)

	for _, stars := range []int{0, 6} {
		err := svc.Rate(context.Background(), "user-1", "recipe-1", stars)
		assertAPIErrorCode(t, err, model.ErrCodeInvalidRating)
	}
}

func TestRate_RecipeMissing_ReturnsRecipeNotFound(t *testing.T) {
	svc := NewService(&mockReviewRepo{}, &mockRatingRepo{}, &mockRecipeRepo{}, &mockSanitizer{}, nil)

	err := svc.Rate(context.Background(), "user-1", "missing", 5)

	assertAPIErrorCode(t, err, model.ErrCodeRecipeNotFound)
}

func TestRate_ValidStars_UpsertsRating(t *testing.T) {
	var upserted *model.Rating
	ratings := &mockRatingRepo{
		upsertFn: func(ctx context.Context, rating *model.Rating) error {
			upserted = rating
			return nil
		},
	}
	svc := NewService(&mockReviewRepo{}, ratings, existingRecipe(), &mockSanitizer{}, nil)

	if err := svc.Rate(context.Background(), "user-1", "recipe-1", 3); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if upserted == nil {
		t.Fatal("expected Upsert to be called")
	}
	if upserted.Stars != 3 || upserted.UserID != "user-1" || upserted.RecipeID != "recipe-1" {
		t.Errorf("rating = %+v, want stars=3 user-1 recipe-1", upserted)
	}
	if upserted.ID == "" {
		t.Error("expected generated rating ID")
	}
	if upserted.CreatedAt.IsZero() || upserted.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestRate_UpsertFails_ReturnsWrappedError(t *testing.T) {
	ratings := &mockRatingRepo{
		upsertFn: func(ctx context.Context, rating *model.Rating) error {
			return errors.New("db down")
		},
	}
	svc := NewService(&mockReviewRepo{}, ratings, existingRecipe(), &mockSanitizer{}, nil)

	if err := svc.Rate(context.Background(), "user-1", "recipe-1", 5); err == nil {
		t.Fatal("expected error")
	}
}
