// Package server はポートバインドのリトライとHTTPサーバーのライフサイクルを提供する。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/hitoshi/quickride/internal/metrics"
)

// デフォルトのバインド設定
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1000 * time.Millisecond
	maxPort           = 65535
)

// ErrRetriesExhausted はすべてのリトライでポートが使用中だった場合に返す。
var ErrRetriesExhausted = errors.New("port still in use after retries")

// ListenFunc はリスナーを開く関数。テスト時に差し替える。
type ListenFunc func(network, address string) (net.Listener, error)

// BindRecorder はバインド試行のメトリクス記録インターフェース。
type BindRecorder interface {
	RecordBindAttempt(result string)
}

// BindConfig はポートバインドの設定。
type BindConfig struct {
	Host       string // 空の場合は全インターフェース
	Port       int
	MaxRetries int
	Delay      time.Duration
	Listen     ListenFunc   // nilの場合はnet.Listen
	Recorder   BindRecorder // nilの場合は記録しない
}

// ListenWithRetry は指定ポートへのバインドを試み、使用中であれば待機してから
// ポート番号を1つ増やして再試行する。
// リトライはMaxRetries回まで行い、使用中以外のエラーでは即座に失敗する。
// 待機中にctxがキャンセルされた場合はctx.Err()を返す。
// 成功時は実際にバインドしたポート番号を返す。
func ListenWithRetry(ctx context.Context, cfg BindConfig) (net.Listener, int, error) {
	listen := cfg.Listen
	if listen == nil {
		listen = net.Listen
	}

	port := cfg.Port
	attempts := 0

	for {
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		ln, err := listen("tcp", addr)
		if err == nil {
			cfg.record(metrics.BindResultSuccess)
			slog.Info("server listening",
				slog.Int("port", port),
				slog.Int("retries", attempts),
			)
			return ln, port, nil
		}

		if !isAddrInUse(err) {
			cfg.record(metrics.BindResultOtherError)
			return nil, 0, fmt.Errorf("failed to bind %s: %w", addr, err)
		}

		cfg.record(metrics.BindResultAddrInUse)

		if attempts >= cfg.MaxRetries || port >= maxPort {
			slog.Error("port in use and no retries left",
				slog.Int("port", port),
				slog.Int("retries", attempts),
			)
			return nil, 0, fmt.Errorf("%w: last port %d, retries %d", ErrRetriesExhausted, port, attempts)
		}

		attempts++
		slog.Warn("port in use, retrying on next port",
			slog.Int("port", port),
			slog.Int("next_port", port+1),
			slog.Int("attempt", attempts),
			slog.Duration("delay", cfg.Delay),
		)

		if err := wait(ctx, cfg.Delay); err != nil {
			return nil, 0, err
		}
		port++
	}
}

func (c BindConfig) record(result string) {
	if c.Recorder != nil {
		c.Recorder.RecordBindAttempt(result)
	}
}

// isAddrInUse はバインドエラーがEADDRINUSEかどうかを判定する。
func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// wait はdだけ待機する。ctxがキャンセルされた場合はctx.Err()を返す。
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
