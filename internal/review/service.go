// Package review はレビュー投稿と星評価のドメインロジックを提供する。
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/repository"
	"github.com/hitoshi/recepti/internal/security"
)

// MetricsRecorder は投稿メトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordContentSubmitted(kind string)
}

// Service はレビュー管理のサービス層。
// 投稿は常にstatus=pendingで作成され、公開ページには承認済みのみが表示される。
type Service struct {
	reviewRepo repository.ReviewRepository
	ratingRepo repository.RatingRepository
	recipeRepo repository.RecipeRepository
	sanitizer  security.ContentSanitizerService
	metrics    MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilを許容する。
func NewService(
	reviewRepo repository.ReviewRepository,
	ratingRepo repository.RatingRepository,
	recipeRepo repository.RecipeRepository,
	sanitizer security.ContentSanitizerService,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		reviewRepo: reviewRepo,
		ratingRepo: ratingRepo,
		recipeRepo: recipeRepo,
		sanitizer:  sanitizer,
		metrics:    metrics,
	}
}

// Submit はレビューを投稿する。ログイン済みユーザーのみ実行可能。
// 本文はサニタイズされ、status=pendingで保存される。
func (s *Service) Submit(ctx context.Context, authorID, recipeID string, rating int, body string) (*model.Review, error) {
	if authorID == "" {
		return nil, model.NewForbiddenError()
	}
	if rating < 1 || rating > 5 {
		return nil, model.NewInvalidRatingError(rating)
	}

	sanitized := s.sanitizer.Sanitize(body)
	if sanitized == "" {
		return nil, model.NewEmptyContentError()
	}

	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの確認に失敗しました: %w", err)
	}
	if recipe == nil {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}

	review := &model.Review{
		ID:        uuid.New().String(),
		RecipeID:  recipeID,
		AuthorID:  authorID,
		Rating:    rating,
		Body:      sanitized,
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}

	slog.Info("review submitted",
		slog.String("review_id", review.ID),
		slog.String("recipe_id", recipeID),
		slog.String("author_id", authorID),
	)
	if s.metrics != nil {
		s.metrics.RecordContentSubmitted(string(model.KindReview))
	}

	return review, nil
}

// ListApproved は指定レシピの承認済みレビューを返す。認証不要。
func (s *Service) ListApproved(ctx context.Context, recipeID string) ([]model.Review, error) {
	reviews, err := s.reviewRepo.ListApprovedByRecipe(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// Rate はレビュー本文を伴わない星評価を登録する。ログイン済みユーザーのみ実行可能。
// 同一ユーザー×レシピの再評価は上書きされる。
func (s *Service) Rate(ctx context.Context, userID, recipeID string, stars int) error {
	if userID == "" {
		return model.NewForbiddenError()
	}
	if stars < 1 || stars > 5 {
		return model.NewInvalidRatingError(stars)
	}

	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("レシピの確認に失敗しました: %w", err)
	}
	if recipe == nil {
		return model.NewRecipeNotFoundError(recipeID)
	}

	now := time.Now()
	rating := &model.Rating{
		ID:        uuid.New().String(),
		RecipeID:  recipeID,
		UserID:    userID,
		Stars:     stars,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.ratingRepo.Upsert(ctx, rating); err != nil {
		return fmt.Errorf("評価の登録に失敗しました: %w", err)
	}

	return nil
}
