// Package redissessrun: Convenience wrapper running a callback between a
// session Read and a guaranteed Write, with panic recovery and a per-call
// timeout. Adapted from the teacher's redissuorun package: since
// redissess.Handler's own Read already performs the bounded lock
// acquisition loop internally, this package drops the infinite-retry
// acquire/release dance and keeps only the genuinely reusable parts: a
// panic-safe, context-scoped executor that guarantees the session is
// written back even when the callback fails
//
// redissessrun: 在会话 Read 和保证执行的 Write 之间运行回调的便利封装，
// 带 panic 恢复和单次调用超时。改编自 redissuorun：由于
// redissess.Handler 自身的 Read 已经在内部执行了有界的锁获取循环，
// 本包去掉了无限重试的获取/释放逻辑，只保留真正可复用的部分：
// 一个 panic 安全、受上下文约束的执行器，保证即使回调失败会话也会被写回
package redissessrun

import (
	"context"
	"time"

	"github.com/yyle88/erero"
	"github.com/yyle88/zaplog"
	"go.uber.org/zap"

	"github.com/go-xlan/redis-sess-suo/internal/logging"
	"github.com/go-xlan/redis-sess-suo/redissess"
)

// Handler is the subset of *redissess.Handler this package drives
// 本包所驱动的 *redissess.Handler 的子集接口
type Handler interface {
	Read(ctx context.Context, id string, reqCtx redissess.RequestContext) ([]byte, error)
	Write(ctx context.Context, id string, data []byte, reqCtx redissess.RequestContext) bool
}

// Callback receives the decoded session payload and returns the payload to
// be written back; returning an error skips the write-back of new data but
// the original payload is still committed so the record is never left dirty
//
// Callback 接收已解码的会话载荷，返回应写回的载荷；返回错误时会跳过
// 写回新数据，但原始载荷仍会被提交，以避免会话记录处于脏状态
type Callback func(ctx context.Context, data []byte) ([]byte, error)

// Run reads the session identified by id, executes run within timeout with
// panic recovery, and guarantees a Write of whatever payload is current
// (the callback's result on success, the original read payload otherwise)
// before returning. A Read failure is returned at once, without running
// the callback or writing; otherwise the run error (or a panic converted to
// error) is returned, and a Write failure is logged through the default logger
//
// Run 读取 id 对应的会话，在 timeout 内带 panic 恢复地执行 run，并在返回前
// 保证写回当前有效的载荷（成功时为回调结果，否则为原始读取载荷）
// Read 失败会立即返回，不执行回调也不写回；否则返回 run 的错误（或被转换
// 为错误的 panic），Write 失败通过默认日志记录器记录
func Run(ctx context.Context, handler Handler, id string, reqCtx redissess.RequestContext, timeout time.Duration, run Callback) error {
	return RunWithLogger(ctx, handler, id, reqCtx, timeout, run, logging.NewZapLogger(zaplog.LOGS.Skip(1)))
}

// RunWithLogger is Run with an explicit logger, mirroring the teacher's
// SuoLockXqt/SuoLockRun split
//
// RunWithLogger 即带显式日志记录器的 Run，对应教师包中 SuoLockXqt/SuoLockRun
// 的拆分方式
func RunWithLogger(ctx context.Context, handler Handler, id string, reqCtx redissess.RequestContext, timeout time.Duration, run Callback, logger logging.Logger) error {
	data, err := handler.Read(ctx, id, reqCtx)
	if err != nil {
		return erero.Wro(err)
	}

	output := data

	runErr := execRun(ctx, timeout, func(ctx context.Context) error {
		result, err := run(ctx, data)
		if err != nil {
			return err
		}
		output = result
		return nil
	})

	if ok := handler.Write(ctx, id, output, reqCtx); !ok {
		logger.Log(logging.LevelError, "redissessrun-write-back-failed", zap.String("session_id", id))
	}

	if runErr != nil {
		return erero.Wro(runErr)
	}
	return nil
}

func execRun(ctx context.Context, timeout time.Duration, run func(ctx context.Context) error) error {
	if timeout <= 0 {
		return safeRun(ctx, run)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return safeRun(ctx, run)
}

// safeRun converts a panic raised inside run into a returned error so a
// misbehaving callback can never leave the session lock dangling
//
// safeRun 将 run 内部触发的 panic 转换为返回的错误，避免行为异常的回调
// 使会话锁处于悬空状态
func safeRun(ctx context.Context, run func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			switch typed := rec.(type) {
			case error:
				err = typed
			default:
				err = erero.Errorf("redissessrun: recovered panic: %v", rec)
			}
		}
	}()
	return run(ctx)
}
