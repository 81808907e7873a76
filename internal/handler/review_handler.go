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

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	// Submit はレビューをpending状態で投稿する。
	Submit(ctx context.Context, authorID, recipeID string, rating int, body string) (*model.Review, error)
	// ListApproved はレシピの承認済みレビュー一覧を返す。
	ListApproved(ctx context.Context, recipeID string) ([]model.Review, error)
	// Rate は星評価を登録または上書きする。
	Rate(ctx context.Context, userID, recipeID string, stars int) error
}

// ReviewHandler はレビュー投稿・閲覧のHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// reviewResponse はレビューのレスポンス。
type reviewResponse struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipe_id"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// submitReviewRequest はレビュー投稿リクエストのボディ。
type submitReviewRequest struct {
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

// rateRequest は星評価リクエストのボディ。
type rateRequest struct {
	Stars int `json:"stars"`
}

func toReviewResponse(rev model.Review) reviewResponse {
	return reviewResponse{
		ID:        rev.ID,
		RecipeID:  rev.RecipeID,
		Rating:    rev.Rating,
		Body:      rev.Body,
		Status:    string(rev.Status),
		CreatedAt: rev.CreatedAt,
	}
}

// ListReviews はレシピの承認済みレビュー一覧を取得する。認証不要。
// GET /api/recipes/:id/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "id")

	reviews, err := h.service.ListApproved(r.Context(), recipeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]reviewResponse, len(reviews))
	for i, rev := range reviews {
		results[i] = toReviewResponse(rev)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"reviews": results})
}

// SubmitReview はレビューを投稿する。承認されるまで公開されない。
// POST /api/recipes/:id/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recipeID := chi.URLParam(r, "id")

	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	created, err := h.service.Submit(r.Context(), userID, recipeID, req.Rating, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toReviewResponse(*created))
}

// RateRecipe はレシピに星評価を付ける。既存の評価は上書きされる。
// PUT /api/recipes/:id/rating
func (h *ReviewHandler) RateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recipeID := chi.URLParam(r, "id")

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if err := h.service.Rate(r.Context(), userID, recipeID, req.Stars); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"stars": req.Stars})
}
