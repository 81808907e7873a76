// Package admin は管理者権限の判定と管理画面用の集計を提供する。
package admin

import (
	"context"
	"fmt"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/repository"
)

// Service は管理者権限判定のサービス層。
// すべての特権操作はこのサービスのIsAdminを自身で呼び出す。
// 呼び出し側の事前チェック結果を信用してはならない。
type Service struct {
	adminRepo   repository.AdminRepository
	reviewRepo  repository.ReviewRepository
	commentRepo repository.CommentRepository
	recipeRepo  repository.RecipeRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	adminRepo repository.AdminRepository,
	reviewRepo repository.ReviewRepository,
	commentRepo repository.CommentRepository,
	recipeRepo repository.RecipeRepository,
) *Service {
	return &Service{
		adminRepo:   adminRepo,
		reviewRepo:  reviewRepo,
		commentRepo: commentRepo,
		recipeRepo:  recipeRepo,
	}
}

// IsAdmin は指定ユーザーが管理者かどうかを返す。
// userIDが空の場合は許可リストを参照せず即座にfalseを返す。
// それ以外は許可リストに行が存在するかどうかのみで判定する。副作用はない。
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	entry, err := s.adminRepo.FindEntry(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("管理者判定に失敗しました: %w", err)
	}

	return entry != nil, nil
}

// DashboardCounts は管理画面ダッシュボードの集計値。
type DashboardCounts struct {
	PendingReviews  int
	PendingComments int
	TotalRecipes    int
}

// GetDashboardCounts はダッシュボードの集計値を返す。管理者のみ実行可能。
func (s *Service) GetDashboardCounts(ctx context.Context, userID string) (*DashboardCounts, error) {
	isAdmin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, model.NewForbiddenError()
	}

	pendingReviews, err := s.reviewRepo.CountByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("レビュー数の集計に失敗しました: %w", err)
	}

	pendingComments, err := s.commentRepo.CountByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("コメント数の集計に失敗しました: %w", err)
	}

	totalRecipes, err := s.recipeRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("レシピ数の集計に失敗しました: %w", err)
	}

	return &DashboardCounts{
		PendingReviews:  pendingReviews,
		PendingComments: pendingComments,
		TotalRecipes:    totalRecipes,
	}, nil
}

// ListReviewsByStatus は指定状態のレビュー一覧を返す。管理者のみ実行可能。
func (s *Service) ListReviewsByStatus(ctx context.Context, userID string, status model.ModerationStatus, limit int) ([]repository.ReviewWithRecipe, error) {
	isAdmin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, model.NewForbiddenError()
	}

	rows, err := s.reviewRepo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return rows, nil
}

// ListCommentsByStatus は指定状態のコメント一覧を返す。管理者のみ実行可能。
func (s *Service) ListCommentsByStatus(ctx context.Context, userID string, status model.ModerationStatus, limit int) ([]repository.CommentWithRecipe, error) {
	isAdmin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, model.NewForbiddenError()
	}

	rows, err := s.commentRepo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return rows, nil
}
