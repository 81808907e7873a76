package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recepti/internal/admin"
	"github.com/hitoshi/recepti/internal/middleware"
	"github.com/hitoshi/recepti/internal/model"
	"github.com/hitoshi/recepti/internal/repository"
	"github.com/hitoshi/recepti/internal/viewcache"
)

// defaultModerationQueueLimit は審査キュー一覧の1回の取得件数。
const defaultModerationQueueLimit = 50

// AdminServiceInterface は管理画面ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	// GetDashboardCounts はダッシュボードの集計値を返す。
	GetDashboardCounts(ctx context.Context, userID string) (*admin.DashboardCounts, error)
	// ListReviewsByStatus は指定状態のレビュー一覧をレシピタイトル付きで返す。
	ListReviewsByStatus(ctx context.Context, userID string, status model.ModerationStatus, limit int) ([]repository.ReviewWithRecipe, error)
	// ListCommentsByStatus は指定状態のコメント一覧をレシピタイトル付きで返す。
	ListCommentsByStatus(ctx context.Context, userID string, status model.ModerationStatus, limit int) ([]repository.CommentWithRecipe, error)
}

// ModerationServiceInterface は審査操作のサービスインターフェース。
type ModerationServiceInterface interface {
	// SetStatus は審査対象の状態を遷移させる。
	SetStatus(ctx context.Context, actorID string, kind model.ContentKind, contentID string, target model.ModerationStatus) error
}

// RecipeDeleter はレシピの連鎖削除インターフェース。
type RecipeDeleter interface {
	// Delete はレシピと従属行を削除する。管理者のみ実行できる。
	Delete(ctx context.Context, actorID, recipeID string) error
}

// ViewStateReporter は審査・削除で失効したビューキーの読み出しと確認を提供する。
type ViewStateReporter interface {
	StaleSince(since time.Time) []viewcache.ViewKey
	Acknowledge(keys ...viewcache.ViewKey)
}

// AdminHandler は管理画面のHTTPハンドラー。
// 全エンドポイントでサービス層が管理者権限を検証する。
type AdminHandler struct {
	adminService      AdminServiceInterface
	moderationService ModerationServiceInterface
	recipeDeleter     RecipeDeleter
	views             ViewStateReporter
}

// NewAdminHandler はAdminHandlerを生成する。viewsはnilでもよい。
func NewAdminHandler(
	adminService AdminServiceInterface,
	moderationService ModerationServiceInterface,
	recipeDeleter RecipeDeleter,
	views ViewStateReporter,
) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		moderationService: moderationService,
		recipeDeleter:     recipeDeleter,
		views:             views,
	}
}

// --- レスポンス型 ---

// dashboardResponse はダッシュボード集計のレスポンス。
// StaleViewsは前回取得以降に失効したビューキー。取得と同時に確認済みになる。
type dashboardResponse struct {
	PendingReviews  int      `json:"pending_reviews"`
	PendingComments int      `json:"pending_comments"`
	TotalRecipes    int      `json:"total_recipes"`
	StaleViews      []string `json:"stale_views"`
}

// moderationReviewResponse は審査キューのレビューレスポンス。
// RecipeTitleはレシピ削除済みの場合null。
type moderationReviewResponse struct {
	ID          string    `json:"id"`
	RecipeID    string    `json:"recipe_id"`
	RecipeTitle *string   `json:"recipe_title"`
	AuthorID    string    `json:"author_id"`
	Rating      int       `json:"rating"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// moderationCommentResponse は審査キューのコメントレスポンス。
type moderationCommentResponse struct {
	ID          string    `json:"id"`
	RecipeID    string    `json:"recipe_id"`
	RecipeTitle *string   `json:"recipe_title"`
	AuthorID    string    `json:"author_id"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// queryStatus はクエリパラメータから審査状態を解釈する。デフォルトはpending。
func queryStatus(r *http.Request) (model.ModerationStatus, bool) {
	v := r.URL.Query().Get("status")
	if v == "" {
		return model.StatusPending, true
	}
	status := model.ModerationStatus(v)
	switch status {
	case model.StatusPending, model.StatusApproved, model.StatusDenied:
		return status, true
	default:
		return "", false
	}
}

// Dashboard はダッシュボードの集計値を取得する。
// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	counts, err := h.adminService.GetDashboardCounts(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	stale := []string{}
	if h.views != nil {
		keys := h.views.StaleSince(time.Time{})
		for _, k := range keys {
			stale = append(stale, string(k))
		}
		h.views.Acknowledge(keys...)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboardResponse{
		PendingReviews:  counts.PendingReviews,
		PendingComments: counts.PendingComments,
		TotalRecipes:    counts.TotalRecipes,
		StaleViews:      stale,
	})
}

// ListModerationReviews は審査キューのレビュー一覧を取得する。
// GET /api/admin/reviews?status=pending|approved|denied
func (h *AdminHandler) ListModerationReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	status, ok := queryStatus(r)
	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidStatusError(model.ModerationStatus(r.URL.Query().Get("status"))))
		return
	}

	reviews, err := h.adminService.ListReviewsByStatus(r.Context(), userID, status, defaultModerationQueueLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]moderationReviewResponse, len(reviews))
	for i, rev := range reviews {
		results[i] = moderationReviewResponse{
			ID:          rev.ID,
			RecipeID:    rev.RecipeID,
			RecipeTitle: rev.RecipeTitle,
			AuthorID:    rev.AuthorID,
			Rating:      rev.Rating,
			Body:        rev.Body,
			Status:      string(rev.Status),
			CreatedAt:   rev.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"reviews": results})
}

// ListModerationComments は審査キューのコメント一覧を取得する。
// GET /api/admin/comments?status=pending|approved|denied
func (h *AdminHandler) ListModerationComments(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	status, ok := queryStatus(r)
	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidStatusError(model.ModerationStatus(r.URL.Query().Get("status"))))
		return
	}

	comments, err := h.adminService.ListCommentsByStatus(r.Context(), userID, status, defaultModerationQueueLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]moderationCommentResponse, len(comments))
	for i, c := range comments {
		results[i] = moderationCommentResponse{
			ID:          c.ID,
			RecipeID:    c.RecipeID,
			RecipeTitle: c.RecipeTitle,
			AuthorID:    c.AuthorID,
			Body:        c.Body,
			Status:      string(c.Status),
			CreatedAt:   c.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"comments": results})
}

// Approve は審査対象を承認する。
// POST /api/admin/moderation/:kind/:id/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusApproved)
}

// Deny は審査対象を却下する。
// POST /api/admin/moderation/:kind/:id/deny
func (h *AdminHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusDenied)
}

func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request, target model.ModerationStatus) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	kind := model.ContentKind(chi.URLParam(r, "kind"))
	contentID := chi.URLParam(r, "id")

	if err := h.moderationService.SetStatus(r.Context(), userID, kind, contentID, target); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"id":     contentID,
		"status": string(target),
	})
}

// DeleteRecipe はレシピと従属行を削除する。
// DELETE /api/admin/recipes/:id
func (h *AdminHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recipeID := chi.URLParam(r, "id")

	if err := h.recipeDeleter.Delete(r.Context(), userID, recipeID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
