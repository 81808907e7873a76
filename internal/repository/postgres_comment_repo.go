package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/recepti/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, recipe_id, author_id, body, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.RecipeID, comment.AuthorID, comment.Body,
		comment.Status, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	comment := &model.Comment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, recipe_id, author_id, body, status, reviewed_at, reviewed_by, created_at
		 FROM comments WHERE id = $1`,
		id,
	).Scan(&comment.ID, &comment.RecipeID, &comment.AuthorID, &comment.Body,
		&comment.Status, &comment.ReviewedAt, &comment.ReviewedBy, &comment.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return comment, nil
}

// ListApprovedByRecipe は指定レシピの承認済みコメントをcreated_at昇順で返す。
func (r *PostgresCommentRepo) ListApprovedByRecipe(ctx context.Context, recipeID string) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipe_id, author_id, body, status, reviewed_at, reviewed_by, created_at
		 FROM comments
		 WHERE recipe_id = $1 AND status = $2
		 ORDER BY created_at ASC`,
		recipeID, model.StatusApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var comment model.Comment
		if err := rows.Scan(&comment.ID, &comment.RecipeID, &comment.AuthorID, &comment.Body,
			&comment.Status, &comment.ReviewedAt, &comment.ReviewedBy, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// ListByStatus は指定状態のコメントをレシピタイトル付きでcreated_at昇順で返す。
// 親レシピが削除済みの場合、RecipeTitleはnilになる。
func (r *PostgresCommentRepo) ListByStatus(ctx context.Context, status model.ModerationStatus, limit int) ([]CommentWithRecipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cm.id, cm.recipe_id, cm.author_id, cm.body, cm.status,
		        cm.reviewed_at, cm.reviewed_by, cm.created_at, rc.title
		 FROM comments cm
		 LEFT JOIN recipes rc ON rc.id = cm.recipe_id
		 WHERE cm.status = $1
		 ORDER BY cm.created_at ASC
		 LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by status: %w", err)
	}
	defer rows.Close()

	var results []CommentWithRecipe
	for rows.Next() {
		var row CommentWithRecipe
		if err := rows.Scan(&row.ID, &row.RecipeID, &row.AuthorID, &row.Body, &row.Status,
			&row.ReviewedAt, &row.ReviewedBy, &row.CreatedAt, &row.RecipeTitle); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}

	return results, nil
}

// CountByStatus は指定状態のコメント数を返す。
func (r *PostgresCommentRepo) CountByStatus(ctx context.Context, status model.ModerationStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE status = $1`,
		status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// UpdateStatus はコメントの状態・審査日時・審査者を単一UPDATEで更新する。
// 事前状態の条件は付けない。更新された行数を返す。
func (r *PostgresCommentRepo) UpdateStatus(ctx context.Context, id string, status model.ModerationStatus, reviewedAt time.Time, reviewedBy string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET status = $1, reviewed_at = $2, reviewed_by = $3 WHERE id = $4`,
		status, reviewedAt, reviewedBy, id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update comment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
