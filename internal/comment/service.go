// Package comment はコメント投稿のドメインロジックを提供する。
package comment

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

// Service はコメント管理のサービス層。
// 投稿は常にstatus=pendingで作成され、公開ページには承認済みのみが表示される。
type Service struct {
	commentRepo repository.CommentRepository
	recipeRepo  repository.RecipeRepository
	sanitizer   security.ContentSanitizerService
	metrics     MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilを許容する。
func NewService(
	commentRepo repository.CommentRepository,
	recipeRepo repository.RecipeRepository,
	sanitizer security.ContentSanitizerService,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		commentRepo: commentRepo,
		recipeRepo:  recipeRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
	}
}

// Submit はコメントを投稿する。ログイン済みユーザーのみ実行可能。
// 本文はサニタイズされ、status=pendingで保存される。
func (s *Service) Submit(ctx context.Context, authorID, recipeID, body string) (*model.Comment, error) {
	if authorID == "" {
		return nil, model.NewForbiddenError()
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

	comment := &model.Comment{
		ID:        uuid.New().String(),
		RecipeID:  recipeID,
		AuthorID:  authorID,
		Body:      sanitized,
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	slog.Info("comment submitted",
		slog.String("comment_id", comment.ID),
		slog.String("recipe_id", recipeID),
		slog.String("author_id", authorID),
	)
	if s.metrics != nil {
		s.metrics.RecordContentSubmitted(string(model.KindComment))
	}

	return comment, nil
}

// ListApproved は指定レシピの承認済みコメントを返す。認証不要。
func (s *Service) ListApproved(ctx context.Context, recipeID string) ([]model.Comment, error) {
	comments, err := s.commentRepo.ListApprovedByRecipe(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}
