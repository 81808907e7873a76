// Package saved はレシピ保存（ブックマーク）のドメインロジックを提供する。
package saved

import (
	"context"
	"fmt"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/repository"
)

// Service はレシピ保存管理のサービス層。
type Service struct {
	savedRepo  repository.SavedRecipeRepository
	recipeRepo repository.RecipeRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(savedRepo repository.SavedRecipeRepository, recipeRepo repository.RecipeRepository) *Service {
	return &Service{
		savedRepo:  savedRepo,
		recipeRepo: recipeRepo,
	}
}

// IsSaved はユーザーが指定レシピを保存済みかどうかを返す。
// 未ログイン（userIDが空）の場合はfalseを返す。
func (s *Service) IsSaved(ctx context.Context, userID, recipeID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	saved, err := s.savedRepo.Find(ctx, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("保存状態の取得に失敗しました: %w", err)
	}

	return saved != nil, nil
}

// Toggle はレシピの保存状態を反転し、反転後の状態を返す。
// ログイン済みユーザーのみ実行可能。
func (s *Service) Toggle(ctx context.Context, userID, recipeID string) (bool, error) {
	if userID == "" {
		return false, model.NewForbiddenError()
	}

	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return false, fmt.Errorf("レシピの確認に失敗しました: %w", err)
	}
	if recipe == nil {
		return false, model.NewRecipeNotFoundError(recipeID)
	}

	existing, err := s.savedRepo.Find(ctx, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("保存状態の取得に失敗しました: %w", err)
	}

	if existing != nil {
		if err := s.savedRepo.Delete(ctx, userID, recipeID); err != nil {
			return false, fmt.Errorf("保存の解除に失敗しました: %w", err)
		}
		return false, nil
	}

	if err := s.savedRepo.Insert(ctx, userID, recipeID); err != nil {
		return false, fmt.Errorf("保存の登録に失敗しました: %w", err)
	}
	return true, nil
}

// ListIDs はユーザーが保存した全レシピIDを返す。
// 未ログインの場合は空スライスを返す。
func (s *Service) ListIDs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}

	ids, err := s.savedRepo.ListRecipeIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("保存一覧の取得に失敗しました: %w", err)
	}

	return ids, nil
}
