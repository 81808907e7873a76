package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/recepti/internal/model"
)

// PostgresSavedRecipeRepo はPostgreSQLを使用したレシピ保存リポジトリ。
type PostgresSavedRecipeRepo struct {
	db *sql.DB
}

// NewPostgresSavedRecipeRepo はPostgresSavedRecipeRepoを生成する。
func NewPostgresSavedRecipeRepo(db *sql.DB) *PostgresSavedRecipeRepo {
	return &PostgresSavedRecipeRepo{db: db}
}

// Find はユーザー×レシピの保存行を取得する。見つからない場合はnilを返す。
func (r *PostgresSavedRecipeRepo) Find(ctx context.Context, userID, recipeID string) (*model.SavedRecipe, error) {
	saved := &model.SavedRecipe{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, recipe_id, created_at FROM saved_recipes
		 WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID,
	).Scan(&saved.UserID, &saved.RecipeID, &saved.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find saved recipe: %w", err)
	}

	return saved, nil
}

// Insert は保存行を作成する。既に存在する場合は何もしない。
func (r *PostgresSavedRecipeRepo) Insert(ctx context.Context, userID, recipeID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO saved_recipes (user_id, recipe_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, recipe_id) DO NOTHING`,
		userID, recipeID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert saved recipe: %w", err)
	}
	return nil
}

// Delete は保存行を削除する。
func (r *PostgresSavedRecipeRepo) Delete(ctx context.Context, userID, recipeID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_recipes WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete saved recipe: %w", err)
	}
	return nil
}

// ListRecipeIDsByUser はユーザーが保存した全レシピIDを返す。
func (r *PostgresSavedRecipeRepo) ListRecipeIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_id FROM saved_recipes WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved recipe IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan saved recipe ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved recipe IDs: %w", err)
	}

	return ids, nil
}

// compile-time interface check
var _ SavedRecipeRepository = (*PostgresSavedRecipeRepo)(nil)
