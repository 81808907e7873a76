package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/recepti/internal/model"
)

// PostgresAdminRepo はPostgreSQLを使用した管理者許可リストリポジトリ。
type PostgresAdminRepo struct {
	db *sql.DB
}

// NewPostgresAdminRepo はPostgresAdminRepoを生成する。
func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

// FindEntry は指定ユーザーの許可リスト行を取得する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindEntry(ctx context.Context, userID string) (*model.AdminEntry, error) {
	entry := &model.AdminEntry{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, created_at FROM admin_users WHERE user_id = $1`,
		userID,
	).Scan(&entry.UserID, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin entry: %w", err)
	}

	return entry, nil
}

// compile-time interface check
var _ AdminRepository = (*PostgresAdminRepo)(nil)
