package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/quickride/internal/gallery"
	"github.com/hitoshi/quickride/internal/metrics"
	"github.com/hitoshi/quickride/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger // nilの場合はslog.Default()
	CORSAllowedOrigin string
	TokenParser       middleware.TokenParser // nilの場合はトークンを読まない
	HTTPRecorder      middleware.HTTPRecorder
	Gatherer          prometheus.Gatherer

	// サービス
	AuthService AuthServiceInterface
	RideService RideServiceInterface
	ImageLister ImageListerInterface

	// 静的ファイル
	PublicDir string
	ImageDir  string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Metrics → Recovery → SecurityHeaders → CORS
//
// POST /api/rides にのみTokenMiddlewareを追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	rideHandler := NewRideHandler(deps.RideService)
	imageHandler := NewImageHandler(deps.ImageLister)

	r.Get("/health", Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Route("/rides", func(r chi.Router) {
			r.With(middleware.NewTokenMiddleware(deps.TokenParser)).Post("/", rideHandler.CreateRide)
			r.Get("/{id}", rideHandler.GetRide)
		})

		r.Get("/images", imageHandler.ListImages)
	})

	// 静的フロントエンド
	if deps.ImageDir != "" {
		r.Handle(gallery.URLPrefix+"*", http.StripPrefix(gallery.URLPrefix, http.FileServer(http.Dir(deps.ImageDir))))
	}
	if deps.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(deps.PublicDir)))
	}

	return r
}
