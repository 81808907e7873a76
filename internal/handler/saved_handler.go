package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recepti/internal/middleware"
)

// SavedRecipeServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type SavedRecipeServiceInterface interface {
	// Toggle は保存状態を反転し、反転後の状態を返す。
	Toggle(ctx context.Context, userID, recipeID string) (bool, error)
	// ListIDs はユーザーが保存したレシピIDの一覧を返す。
	ListIDs(ctx context.Context, userID string) ([]string, error)
}

// SavedRecipeHandler はお気に入りレシピのHTTPハンドラー。
type SavedRecipeHandler struct {
	service SavedRecipeServiceInterface
}

// NewSavedRecipeHandler はSavedRecipeHandlerを生成する。
func NewSavedRecipeHandler(service SavedRecipeServiceInterface) *SavedRecipeHandler {
	return &SavedRecipeHandler{service: service}
}

// ToggleSave はレシピの保存状態を反転する。
// POST /api/recipes/:id/save
func (h *SavedRecipeHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	recipeID := chi.URLParam(r, "id")

	saved, err := h.service.Toggle(r.Context(), userID, recipeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"saved": saved})
}

// ListSaved はユーザーが保存したレシピIDの一覧を取得する。
// GET /api/users/me/saved-recipes
func (h *SavedRecipeHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	ids, err := h.service.ListIDs(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"recipe_ids": ids})
}
