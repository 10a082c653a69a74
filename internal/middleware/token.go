// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/quickride/internal/auth"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// emailContextKey はリクエストコンテキストにメールアドレスを格納するためのキー。
var emailContextKey = contextKey("user_email")

// TokenParser はBearerトークンの検証に必要なインターフェース。
// auth.TokenIssuerの部分集合として定義する。
type TokenParser interface {
	Parse(tokenStr string) (*auth.Claims, error)
}

// NewTokenMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 有効な場合はトークンのメールアドレスをリクエストコンテキストに注入するミドルウェアを返す。
// トークンが無い・不正な場合もリクエストは拒否せずにそのまま通す。
// parserがnilの場合は何もしない。
func NewTokenMiddleware(parser TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if parser == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := parser.Parse(tokenStr)
			if err != nil {
				slog.Debug("ignoring invalid bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			setLogEmail(r.Context(), claims.Email)
			next.ServeHTTP(w, r.WithContext(ContextWithEmail(r.Context(), claims.Email)))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// EmailFromContext はリクエストコンテキストからトークンのメールアドレスを取得する。
// 有効なトークンが提示されていない場合は空文字列とfalseを返す。
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailContextKey).(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

// ContextWithEmail はコンテキストにメールアドレスを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailContextKey, email)
}
