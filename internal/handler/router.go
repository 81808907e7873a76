package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recepti/internal/middleware"
)

// HealthChecker はDB接続の死活確認インターフェース。
// *sql.DBがこのインターフェースを満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	MetricsHandler    http.Handler
	HTTPMetrics       middleware.HTTPStatusRecorder
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// レシピ
	RecipeService RecipeServiceInterface

	// レビュー・コメント
	ReviewService  ReviewServiceInterface
	CommentService CommentServiceInterface

	// お気に入り
	SavedRecipeService SavedRecipeServiceInterface

	// 管理画面
	AdminService      AdminServiceInterface
	ModerationService ModerationServiceInterface
	RecipeDeleter     RecipeDeleter
	ViewRegistry      ViewStateReporter
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → HTTPMetrics → CORS
//	→ (認証ルートのみ) Session → CSRF → RateLimit(General)
//
// レシピ閲覧・承認済みレビュー/コメント閲覧は認証不要。
// 認証ルート（/auth/*）はミドルウェアチェーンの外に配置する。
// 管理系ルート（/api/admin/*）はセッション必須に加え、
// サービス層でadmin_users許可リストによる権限検証を行う。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewHTTPMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	recipeHandler := NewRecipeHandler(deps.RecipeService)
	reviewHandler := NewReviewHandler(deps.ReviewService)
	commentHandler := NewCommentHandler(deps.CommentService)
	savedHandler := NewSavedRecipeHandler(deps.SavedRecipeService)
	adminHandler := NewAdminHandler(deps.AdminService, deps.ModerationService, deps.RecipeDeleter, deps.ViewRegistry)

	// --- 認証不要のルート ---

	// ヘルスチェック（Dockerヘルスチェック用）
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheusスクレイプエンドポイント
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得（フロントエンドがヘッダーに載せるトークンを配布する）
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 公開ページ（閲覧のみ）
	r.Get("/api/recipes", recipeHandler.ListRecipes)
	r.Get("/api/recipes/{id}", recipeHandler.GetRecipe)
	r.Get("/api/recipes/{id}/reviews", reviewHandler.ListReviews)
	r.Get("/api/recipes/{id}/comments", commentHandler.ListComments)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// レシピ投稿
		r.Post("/api/recipes", recipeHandler.CreateRecipe)

		r.Route("/api/recipes/{id}", func(r chi.Router) {
			// レビュー・コメント投稿（投稿専用レート制限を追加）
			r.With(deps.RateLimiter.SubmissionMiddleware()).Post("/reviews", reviewHandler.SubmitReview)
			r.With(deps.RateLimiter.SubmissionMiddleware()).Post("/comments", commentHandler.SubmitComment)

			// 星評価（上書き可）
			r.Put("/rating", reviewHandler.RateRecipe)

			// お気に入りトグル
			r.Post("/save", savedHandler.ToggleSave)
		})

		// お気に入り一覧
		r.Get("/api/users/me/saved-recipes", savedHandler.ListSaved)

		// 管理画面（権限検証はサービス層で行う）
		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/dashboard", adminHandler.Dashboard)
			r.Get("/reviews", adminHandler.ListModerationReviews)
			r.Get("/comments", adminHandler.ListModerationComments)

			r.Route("/moderation/{kind}/{id}", func(r chi.Router) {
				r.Post("/approve", adminHandler.Approve)
				r.Post("/deny", adminHandler.Deny)
			})

			r.Delete("/recipes/{id}", adminHandler.DeleteRecipe)
		})
	})

	return r
}
