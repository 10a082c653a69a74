package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/quickride/internal/auth"
	"github.com/hitoshi/quickride/internal/config"
	"github.com/hitoshi/quickride/internal/database"
	"github.com/hitoshi/quickride/internal/gallery"
	"github.com/hitoshi/quickride/internal/handler"
	"github.com/hitoshi/quickride/internal/logger"
	"github.com/hitoshi/quickride/internal/metrics"
	"github.com/hitoshi/quickride/internal/repository"
	"github.com/hitoshi/quickride/internal/ride"
	"github.com/hitoshi/quickride/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const dbPingTimeout = 5 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込んだ後、
// LOG_LEVELに従ってログレベルを再設定する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.Int("port", cfg.Port),
		slog.Bool("token_enabled", cfg.TokenEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き（到達できない場合も警告のみで続行）、全依存関係をワイヤリングし、リトライ付きでポートをバインドしてHTTPサーバーを起動する。
// ctxがキャンセルされる（SIGINT・SIGTERM受信）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	prepareDatabase(ctx, db, cfg)

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	rideRepo := repository.NewPostgresRideRepo(db)

	// 4. ドメインサービスの初期化
	var issuer *auth.TokenIssuer
	if cfg.TokenEnabled() {
		issuer = auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	}
	authService := auth.NewService(userRepo, auth.NewBcryptHasher(auth.DefaultBcryptCost), issuer, collector)
	rideService := ride.NewService(rideRepo, collector)

	if _, err := os.Stat(cfg.ImageDir); err != nil {
		slog.Warn("image directory is not readable",
			slog.String("dir", cfg.ImageDir),
			slog.String("error", err.Error()),
		)
	}
	imageLister := gallery.NewLister(cfg.ImageDir)

	// 5. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		HTTPRecorder:      collector,
		Gatherer:          reg,

		AuthService: authService,
		RideService: rideService,
		ImageLister: imageLister,

		PublicDir: cfg.PublicDir,
		ImageDir:  cfg.ImageDir,
	}
	// 型付きnilをインターフェースに入れないようにする
	if issuer != nil {
		deps.TokenParser = issuer
	}

	router := handler.NewRouter(deps)

	// 6. ポートのバインド
	ln, port, err := server.ListenWithRetry(ctx, server.BindConfig{
		Port:       cfg.Port,
		MaxRetries: cfg.BindMaxRetries,
		Delay:      cfg.BindRetryDelay,
		Recorder:   collector,
	})
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// 7. HTTPサーバーの起動
	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("API server starting",
		slog.String("url", fmt.Sprintf("http://localhost:%d", port)),
	)

	return server.Serve(ctx, srv, ln, cfg.ShutdownTimeout)
}

// prepareDatabase は接続確認と自動マイグレーションを行う。
// DBに到達できなくてもサーバーは起動し、永続化の失敗はリクエスト単位の500として返す。
func prepareDatabase(ctx context.Context, db *sql.DB, cfg *config.Config) {
	if err := database.Ping(ctx, db, dbPingTimeout); err != nil {
		slog.Warn("database is unreachable, continuing without it",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
			slog.String("error", err.Error()),
		)
		return
	}

	slog.Info("database connection established")

	if !cfg.AutoMigrate {
		return
	}
	if err := runMigrate(cfg); err != nil {
		slog.Warn("automatic migration failed",
			slog.String("error", err.Error()),
		)
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.Version(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
