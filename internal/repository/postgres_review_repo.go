package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/recepti/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, recipe_id, author_id, rating, body, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.RecipeID, review.AuthorID, review.Rating, review.Body,
		review.Status, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	review := &model.Review{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, recipe_id, author_id, rating, body, status, reviewed_at, reviewed_by, created_at
		 FROM reviews WHERE id = $1`,
		id,
	).Scan(&review.ID, &review.RecipeID, &review.AuthorID, &review.Rating, &review.Body,
		&review.Status, &review.ReviewedAt, &review.ReviewedBy, &review.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	return review, nil
}

// ListApprovedByRecipe は指定レシピの承認済みレビューをcreated_at降順で返す。
func (r *PostgresReviewRepo) ListApprovedByRecipe(ctx context.Context, recipeID string) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipe_id, author_id, rating, body, status, reviewed_at, reviewed_by, created_at
		 FROM reviews
		 WHERE recipe_id = $1 AND status = $2
		 ORDER BY created_at DESC`,
		recipeID, model.StatusApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var review model.Review
		if err := rows.Scan(&review.ID, &review.RecipeID, &review.AuthorID, &review.Rating,
			&review.Body, &review.Status, &review.ReviewedAt, &review.ReviewedBy, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, nil
}

// ListByStatus は指定状態のレビューをレシピタイトル付きでcreated_at昇順で返す。
// 親レシピが削除済みの場合、RecipeTitleはnilになる。
func (r *PostgresReviewRepo) ListByStatus(ctx context.Context, status model.ModerationStatus, limit int) ([]ReviewWithRecipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.id, rv.recipe_id, rv.author_id, rv.rating, rv.body, rv.status,
		        rv.reviewed_at, rv.reviewed_by, rv.created_at, rc.title
		 FROM reviews rv
		 LEFT JOIN recipes rc ON rc.id = rv.recipe_id
		 WHERE rv.status = $1
		 ORDER BY rv.created_at ASC
		 LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews by status: %w", err)
	}
	defer rows.Close()

	var results []ReviewWithRecipe
	for rows.Next() {
		var row ReviewWithRecipe
		if err := rows.Scan(&row.ID, &row.RecipeID, &row.AuthorID, &row.Rating, &row.Body,
			&row.Status, &row.ReviewedAt, &row.ReviewedBy, &row.CreatedAt, &row.RecipeTitle); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}

	return results, nil
}

// CountByStatus は指定状態のレビュー数を返す。
func (r *PostgresReviewRepo) CountByStatus(ctx context.Context, status model.ModerationStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE status = $1`,
		status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// UpdateStatus はレビューの状態・審査日時・審査者を単一UPDATEで更新する。
// 事前状態の条件は付けない。更新された行数を返す。
func (r *PostgresReviewRepo) UpdateStatus(ctx context.Context, id string, status model.ModerationStatus, reviewedAt time.Time, reviewedBy string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET status = $1, reviewed_at = $2, reviewed_by = $3 WHERE id = $4`,
		status, reviewedAt, reviewedBy, id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update review status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
