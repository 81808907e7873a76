package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/recepti/internal/model"
)

// PostgresIdentityRepo はPostgreSQLによるIdentityRepositoryの実装。
// identitiesテーブルはOAuthプロバイダーのアカウントとユーザーを紐付ける。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

const findIdentityQuery = `
	SELECT id, user_id, provider, provider_user_id, created_at
	FROM identities
	WHERE provider = $1 AND provider_user_id = $2`

// FindByProviderAndProviderUserID はプロバイダー名とプロバイダー側ユーザーIDで
// identityを検索する。未登録の場合はエラーではなくnilを返す。
// 呼び出し側（認証サービス）はnilを新規ユーザーのサインアップとして扱う。
func (r *PostgresIdentityRepo) FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.QueryRowContext(ctx, findIdentityQuery, provider, providerUserID).Scan(
		&identity.ID,
		&identity.UserID,
		&identity.Provider,
		&identity.ProviderUserID,
		&identity.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	return &identity, nil
}

var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
