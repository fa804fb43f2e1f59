// Package retry 有限次数重试（线性退避）与固定间隔节流
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"storyreel/internal/pkg/ctxutil"
)

// Policy 重试策略
type Policy struct {
	MaxAttempts int           // 最大尝试次数（含第一次），<=0 按 1 处理
	Backoff     time.Duration // 线性退避基数，第 n 次失败后等待 n*Backoff
}

// Do 执行 fn，失败后按线性退避重试，直到成功、次数用尽或 ctx 取消
// 次数用尽时返回包装了最后一次错误的 error
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		wait := time.Duration(attempt) * p.Backoff
		event := log.Warn()
		if runID, ok := ctxutil.GetRunID(ctx); ok {
			event = event.Str("run_id", runID)
		}
		event.
			Err(lastErr).
			Str("op", op).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", wait).
			Msg("操作失败，准备重试")

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// Throttle 保证两次调用之间至少间隔 interval
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle 创建节流器，interval<=0 时不限速
func NewThrottle(interval time.Duration) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1)}
}

// Wait 阻塞到允许下一次调用；第一次调用立即返回
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}
