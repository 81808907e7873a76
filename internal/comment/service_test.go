package comment

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

type mockCommentRepo struct {
	createFn       func(ctx context.Context, comment *model.Comment) error
	listApprovedFn func(ctx context.Context, recipeID string) ([]model.Comment, error)
	createCalls    int
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, comment)
	}
	return nil
}
func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	return nil, nil
}
func (m *mockCommentRepo) ListApprovedByRecipe(ctx context.Context, recipeID string) ([]model.Comment, error) {
	if m.listApprovedFn != nil {
		return m.listApprovedFn(ctx, recipeID)
	}
	return nil, nil
}
func (m *mockCommentRepo) ListByStatus(ctx context.Context, status model.ModerationStatus, limit int) ([]repository.CommentWithRecipe, error) {
	return nil, nil
}
func (m *mockCommentRepo) CountByStatus(ctx context.Context, status model.ModerationStatus) (int, error) {
	return 0, nil
}
func (m *mockCommentRepo) UpdateStatus(ctx context.Context, id string, status model.ModerationStatus, reviewedAt time.Time, reviewedBy string) (int64, error) {
	return 0, nil
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
	comments := &mockCommentRepo{}
	svc := NewService(comments, existingRecipe(), &mockSanitizer{}, nil)

	_, err := svc.Submit(context.Background(), "", "recipe-1", "Odlično")

	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
	if comments.createCalls != 0 {
		t.Errorf("Create calls = %d, want 0", comments.createCalls)
	}
}

func TestSubmit_BodyEmptyAfterSanitize_ReturnsEmptyContent(t *testing.T) {
	svc := NewService(&mockCommentRepo{}, existingRecipe(), &mockSanitizer{}, nil)

	_, err := svc.Submit(context.Background(), "user-1", "recipe-1", " <script></script> ")

	assertAPIErrorCode(t, err, model.ErrCodeEmptyContent)
}

func TestSubmit_RecipeMissing_ReturnsRecipeNotFound(t *testing.T) {
	svc := NewService(&mockCommentRepo{}, &mockRecipeRepo{}, &mockSanitizer{}, nil)

	_, err := svc.Submit(context.Background(), "user-1", "missing", "Odlično")

	assertAPIErrorCode(t, err, model.ErrCodeRecipeNotFound)
}

func TestSubmit_ValidInput_CreatesPendingComment(t *testing.T) {
	var created *model.Comment
	comments := &mockCommentRepo{
		createFn: func(ctx context.Context, comment *model.Comment) error {
			created = comment
			return nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(comments, existingRecipe(), &mockSanitizer{}, metrics)

	comment, err := svc.Submit(context.Background(), "user-1", "recipe-1", " <script></script>Hvala na receptu ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if comment.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", comment.Status, model.StatusPending)
	}
	if comment.Body != "Hvala na receptu" {
		t.Errorf("Body = %q, want sanitized body", comment.Body)
	}
	if comment.AuthorID != "user-1" || comment.RecipeID != "recipe-1" {
		t.Errorf("author/recipe = (%q, %q), want (user-1, recipe-1)", comment.AuthorID, comment.RecipeID)
	}
	if comment.ID == "" {
		t.Error("expected generated comment ID")
	}
	if len(metrics.submitted) != 1 || metrics.submitted[0] != "comment" {
		t.Errorf("submitted metrics = %v, want [comment]", metrics.submitted)
	}
}

func TestSubmit_CreateFails_ReturnsWrappedError(t *testing.T) {
	comments := &mockCommentRepo{
		createFn: func(ctx context.Context, comment *model.Comment) error {
			return errors.New("db down")
		},
	}
	svc := NewService(comments, existingRecipe(), &mockSanitizer{}, nil)

	_, err := svc.Submit(context.Background(), "user-1", "recipe-1", "Odlično")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("expected plain wrapped error, got APIError %v", apiErr)
	}
}

// --- ListApproved のテスト ---

func TestListApproved_ReturnsRepositoryResult(t *testing.T) {
	comments := &mockCommentRepo{
		listApprovedFn: func(ctx context.Context, recipeID string) ([]model.Comment, error) {
			return []model.Comment{
				{ID: "com-1", RecipeID: recipeID, Status: model.StatusApproved},
			}, nil
		},
	}
	svc := NewService(comments, &mockRecipeRepo{}, &mockSanitizer{}, nil)

	got, err := svc.ListApproved(context.Background(), "recipe-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 1 || got[0].ID != "com-1" {
		t.Errorf("got %+v, want one approved comment com-1", got)
	}
}

func TestListApproved_RepositoryError_ReturnsWrappedError(t *testing.T) {
	comments := &mockCommentRepo{
		listApprovedFn: func(ctx context.Context, recipeID string) ([]model.Comment, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(comments, &mockRecipeRepo{}, &mockSanitizer{}, nil)

	if _, err := svc.ListApproved(context.Background(), "recipe-1"); err == nil {
		t.Fatal("expected error")
	}
}
