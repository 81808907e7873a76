// Package moderation はユーザー投稿コンテンツの審査ワークフローを提供する。
//
// 状態機械は {pending, approved, denied} の3状態。pendingが唯一の初期状態で、
// approved/deniedは相互に遷移可能かつ自己遷移も許す。自動遷移は存在せず、
// すべての遷移は管理者の明示的な操作によってのみ発生する。
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/viewcache"
)

// AdminChecker は管理者権限判定のインターフェース。
// admin.Serviceの部分集合として定義する。
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// StatusUpdater はコンテンツ状態更新のインターフェース。
// repository.ReviewRepository / CommentRepositoryの部分集合として定義する。
type StatusUpdater interface {
	// UpdateStatus は状態・審査日時・審査者を単一UPDATEで更新し、更新行数を返す。
	UpdateStatus(ctx context.Context, id string, status model.ModerationStatus, reviewedAt time.Time, reviewedBy string) (int64, error)
}

// MetricsRecorder はモデレーション関連メトリクス記録のインターフェース。
type MetricsRecorder interface {
	RecordModeration(kind string, status string)
	RecordModerationDenied()
}

// Service はモデレーションワークフローのサービス層。
type Service struct {
	gate        AdminChecker
	reviewRepo  StatusUpdater
	commentRepo StatusUpdater
	invalidator viewcache.Invalidator
	metrics     MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// invalidatorとmetricsはnilを許容する（テストや一部のバッチ実行用）。
func NewService(
	gate AdminChecker,
	reviewRepo StatusUpdater,
	commentRepo StatusUpdater,
	invalidator viewcache.Invalidator,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		gate:        gate,
		reviewRepo:  reviewRepo,
		commentRepo: commentRepo,
		invalidator: invalidator,
		metrics:     metrics,
	}
}

// SetStatus は指定コンテンツのモデレーション状態を遷移させる。
//
// actorIDはセッションから解決した操作者のユーザーID（未ログインは空文字列）。
// 操作のたびに権限を再判定し、呼び出し側の事前チェック結果は信用しない。
//
// 遷移は事前状態によらず無条件かつ冪等で、承認済みを再承認した場合も
// reviewed_at/reviewed_byは最新の操作者・時刻で上書きされる（常に最後の
// 審査者を記録するという設計判断）。同一行への並行遷移は後勝ちで、
// 楽観ロックは行わない。
//
// 対象行が存在しない場合（更新行数0）はCONTENT_NOT_FOUNDを返す。
func (s *Service) SetStatus(ctx context.Context, actorID string, kind model.ContentKind, contentID string, target model.ModerationStatus) error {
	// 1. 操作者の解決。未ログインは権限なしと同一のエラーを返す。
	if actorID == "" {
		if s.metrics != nil {
			s.metrics.RecordModerationDenied()
		}
		return model.NewForbiddenError()
	}

	// 2. 権限判定
	isAdmin, err := s.gate.IsAdmin(ctx, actorID)
	if err != nil {
		return fmt.Errorf("権限判定に失敗しました: %w", err)
	}
	if !isAdmin {
		if s.metrics != nil {
			s.metrics.RecordModerationDenied()
		}
		slog.Warn("moderation denied",
			slog.String("actor_id", actorID),
			slog.String("kind", string(kind)),
			slog.String("content_id", contentID),
		)
		return model.NewForbiddenError()
	}

	// 3. 入力検証
	if !target.IsReviewable() {
		return model.NewInvalidStatusError(target)
	}
	updater, err := s.updaterFor(kind)
	if err != nil {
		return err
	}

	// 4. 条件付き更新。status・reviewed_at・reviewed_byを単一UPDATEで設定する。
	affected, err := updater.UpdateStatus(ctx, contentID, target, time.Now(), actorID)
	if err != nil {
		return fmt.Errorf("状態の更新に失敗しました: %w", err)
	}
	if affected == 0 {
		return model.NewContentNotFoundError(kind, contentID)
	}

	slog.Info("content moderated",
		slog.String("actor_id", actorID),
		slog.String("kind", string(kind)),
		slog.String("content_id", contentID),
		slog.String("status", string(target)),
	)

	// 5. 下流へ無効化シグナルを送る
	if s.invalidator != nil {
		s.invalidator.Invalidate(s.affectedViews(kind)...)
	}
	if s.metrics != nil {
		s.metrics.RecordModeration(string(kind), string(target))
	}

	return nil
}

// Approve は指定コンテンツを承認する。
func (s *Service) Approve(ctx context.Context, actorID string, kind model.ContentKind, contentID string) error {
	return s.SetStatus(ctx, actorID, kind, contentID, model.StatusApproved)
}

// Deny は指定コンテンツを却下する。
func (s *Service) Deny(ctx context.Context, actorID string, kind model.ContentKind, contentID string) error {
	return s.SetStatus(ctx, actorID, kind, contentID, model.StatusDenied)
}

// updaterFor はコンテンツ種別に対応するリポジトリを返す。
func (s *Service) updaterFor(kind model.ContentKind) (StatusUpdater, error) {
	switch kind {
	case model.KindReview:
		return s.reviewRepo, nil
	case model.KindComment:
		return s.commentRepo, nil
	default:
		return nil, model.NewInvalidKindError(kind)
	}
}

// affectedViews は状態遷移の影響を受けるビューキーを返す。
// 状態別一覧とダッシュボード件数が対象。
func (s *Service) affectedViews(kind model.ContentKind) []viewcache.ViewKey {
	keys := []viewcache.ViewKey{viewcache.ViewAdminDashboard}
	switch kind {
	case model.KindReview:
		keys = append(keys, viewcache.ViewAdminReviews)
	case model.KindComment:
		keys = append(keys, viewcache.ViewAdminComments)
	}
	return keys
}
