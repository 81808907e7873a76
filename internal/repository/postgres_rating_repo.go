package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/recepti/internal/model"
)

// PostgresRatingRepo はPostgreSQLを使用した星評価リポジトリ。
type PostgresRatingRepo struct {
	db *sql.DB
}

// NewPostgresRatingRepo はPostgresRatingRepoを生成する。
func NewPostgresRatingRepo(db *sql.DB) *PostgresRatingRepo {
	return &PostgresRatingRepo{db: db}
}

// Upsert はユーザー×レシピの評価を冪等にUPSERTする。
// (recipe_id, user_id)のユニーク制約で衝突した場合はstarsとupdated_atのみ上書きする。
func (r *PostgresRatingRepo) Upsert(ctx context.Context, rating *model.Rating) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ratings (id, recipe_id, user_id, stars, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (recipe_id, user_id)
		 DO UPDATE SET stars = EXCLUDED.stars, updated_at = EXCLUDED.updated_at`,
		rating.ID, rating.RecipeID, rating.UserID, rating.Stars,
		rating.CreatedAt, rating.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// AverageByRecipe は指定レシピの平均評価と評価数を返す。
// 評価が存在しない場合は(0, 0)を返す。
func (r *PostgresRatingRepo) AverageByRecipe(ctx context.Context, recipeID string) (float64, int, error) {
	var avg float64
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(stars), 0), COUNT(*) FROM ratings WHERE recipe_id = $1`,
		recipeID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return avg, count, nil
}

// compile-time interface check
var _ RatingRepository = (*PostgresRatingRepo)(nil)
