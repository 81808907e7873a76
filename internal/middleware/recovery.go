package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はハンドラー内のpanicを捕捉して500を返すミドルウェアを生成する。
// スタックトレースはログにのみ出力し、レスポンスには含めない。
// ミドルウェアチェーンの最外殻に配置する。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				logPanic(rec, r)
				WriteInternalServerError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func logPanic(rec any, r *http.Request) {
	slog.Error("panic recovered",
		slog.Any("panic", rec),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("stack", string(debug.Stack())),
	)
}
