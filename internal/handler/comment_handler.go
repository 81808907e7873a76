package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recepti/internal/middleware"
	"github.com/hitoshi/recepti/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	// Submit はコメントをpending状態で投稿する。
	Submit(ctx context.Context, authorID, recipeID, body string) (*model.Comment, error)
	// ListApproved はレシピの承認済みコメント一覧を返す。
	ListApproved(ctx context.Context, recipeID string) ([]model.Comment, error)
}

// CommentHandler はコメント投稿・閲覧のHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentResponse はコメントのレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipe_id"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// submitCommentRequest はコメント投稿リクエストのボディ。
type submitCommentRequest struct {
	Body string `json:"body"`
}

func toCommentResponse(c model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		RecipeID:  c.RecipeID,
		Body:      c.Body,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
	}
}

// ListComments はレシピの承認済みコメント一覧を取得する。認証不要。
// GET /api/recipes/:id/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "id")

	comments, err := h.service.ListApproved(r.Context(), recipeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]commentResponse, len(comments))
	for i, c := range comments {
		results[i] = toCommentResponse(c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"comments": results})
}

// SubmitComment はコメントを投稿する。承認されるまで公開されない。
// POST /api/recipes/:id/comments
func (h *CommentHandler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recipeID := chi.URLParam(r, "id")

	var req submitCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	created, err := h.service.Submit(r.Context(), userID, recipeID, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCommentResponse(*created))
}
