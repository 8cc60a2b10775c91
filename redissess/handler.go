package redissess

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yyle88/erero"
	"github.com/yyle88/must"
	"github.com/yyle88/zaplog"
	"go.uber.org/zap"

	"github.com/go-xlan/redis-sess-suo/internal/botcheck"
	"github.com/go-xlan/redis-sess-suo/internal/codec"
	"github.com/go-xlan/redis-sess-suo/internal/lifetime"
	"github.com/go-xlan/redis-sess-suo/internal/lockengine"
	"github.com/go-xlan/redis-sess-suo/internal/logging"
	"github.com/go-xlan/redis-sess-suo/internal/pidprobe"
	"github.com/go-xlan/redis-sess-suo/internal/utils"
)

const sessionKeyPrefix = "sess_"

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Handler owns, per process, a Redis connection and the policy knobs
// resolved from a Config, and composes the codec, bot classifier, lifetime
// policy, PID probe, and lock engine behind the session lifecycle surface
//
// Handler 每进程持有一个 Redis 连接和由 Config 解析出的策略参数，
// 在会话生命周期接口背后组合编解码器、爬虫分类器、生命周期策略、
// 进程探测器和锁引擎
type Handler struct {
	client redis.UniversalClient
	cfg    resolvedConfig
	codec  *codec.Codec
	bots   *botcheck.Classifier
	prober pidprobe.Prober
	logger logging.Logger

	identity string

	readOnly       bool
	hasLock        bool
	sessionWritten bool

	failedLockAttempts int
	sessionWrites       int64
	lifeTimeCached      *int
}

// Option customizes a Handler at construction time
// 在构造时定制 Handler
type Option func(*Handler)

// WithLogger overrides the default zaplog-backed logger
// 覆盖默认的基于 zaplog 的日志记录器
func WithLogger(logger logging.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithBotOverride installs a bot-check override hook on this Handler,
// consulted after the regex verdict (§4.2); nil disables the override
//
// WithBotOverride 为本 Handler 安装一个爬虫判定覆盖钩子，在正则判定之后
// 调用（§4.2）；nil 表示禁用覆盖
func WithBotOverride(override botcheck.Override) Option {
	return func(h *Handler) {
		h.bots = botcheck.New(override)
	}
}

// WithProber overrides the default host-local PID prober, mainly for tests
// 覆盖默认的本机 PID 探测器，主要用于测试
func WithProber(prober pidprobe.Prober) Option {
	return func(h *Handler) {
		h.prober = prober
	}
}

// NewHandler validates cfg, establishes the Redis connection (direct or via
// Sentinel), and returns a ready-to-use Handler. Connection failure returns
// ErrConnectionFailed with the nested cause preserved
//
// NewHandler 校验 cfg、建立 Redis 连接（直连或经 Sentinel），返回一个
// 可直接使用的 Handler。连接失败时返回保留了内部原因的 ErrConnectionFailed
func NewHandler(ctx context.Context, cfg Config, opts ...Option) (*Handler, error) {
	must.Nice(cfg)
	rc := resolveConfig(cfg)

	h := &Handler{
		cfg:    rc,
		bots:   botcheck.New(nil),
		prober: pidprobe.NewHostProber(),
		logger: logging.NewZapLogger(zaplog.LOGS.Skip(1)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger.SetLevel(logging.Level(rc.logLevel))
	h.codec = codec.New(rc.compressionThreshold, rc.compressionLibrary, h.logger)
	h.identity = h.prober.Identity() + "|" + utils.NewUUID()[:8]

	client, err := connect(ctx, rc, h.logger)
	if err != nil {
		return nil, err
	}
	h.client = client
	return h, nil
}

// Open is a no-op success, matching the host framework's open(savePath,
// sessionName) -> bool contract
//
// Open 是一个无操作的成功返回，匹配宿主框架的 open(savePath, sessionName)
// -> bool 契约
func (h *Handler) Open(_ string, _ string) bool {
	return true
}

// Read acquires the session lock (unless read-only or locking is disabled),
// then fetches and decodes the payload. ErrConcurrentConnectionsExceeded
// (admission control) and ErrDecode (undecodable payload) are the
// distinguished errors; any other Redis failure is returned wrapped
//
// Read 获取会话锁（除非只读或锁已禁用），然后获取并解码载荷
// ErrConcurrentConnectionsExceeded（准入控制）和 ErrDecode（载荷无法解码）
// 是可区分的错误；其他任何 Redis 失败都被包装后返回
func (h *Handler) Read(ctx context.Context, id string, reqCtx RequestContext) ([]byte, error) {
	key := sessionKey(id)
	h.sessionWritten = false

	if h.readOnly {
		data, err := h.client.HGet(ctx, key, "data").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, erero.Wro(err)
		}
		return h.codec.Decode([]byte(data))
	}

	registeredAsWaiter := false
	broken := false

	if h.cfg.disableLocking {
		h.hasLock = true
		h.failedLockAttempts = 0
	} else {
		outcome, err := lockengine.Acquire(ctx, h.client, key, h.identity, lockengine.Config{
			SleepTime:          500 * time.Millisecond,
			BreakAfter:         h.cfg.breakAfter,
			FailAfter:          h.cfg.failAfter,
			MaxConcurrency:     h.cfg.maxConcurrency,
			DetectZombiesEvery: 20,
		}, h.prober, h.logger)
		if err != nil {
			if errors.Is(err, lockengine.ErrConcurrentConnectionsExceeded) {
				h.sessionWritten = true
				return nil, ErrConcurrentConnectionsExceeded
			}
			return nil, err
		}
		h.hasLock = outcome.HasLock
		h.failedLockAttempts = outcome.Tries
		registeredAsWaiter = outcome.Tries > 0
		broken = outcome.Broken
	}

	results, err := h.client.HMGet(ctx, key, "data", "writes", "req").Result()
	if err != nil {
		return nil, erero.Wro(err)
	}
	data, _ := results[0].(string)
	h.sessionWrites = toInt64(results[1])
	previousReq, _ := results[2].(string)

	if registeredAsWaiter {
		if err := h.client.HIncrBy(ctx, key, "wait", -1).Err(); err != nil {
			return nil, erero.Wro(err)
		}
	}

	pipe := h.client.TxPipeline()
	if h.hasLock {
		pipe.HSet(ctx, key, "pid", h.identity, "lock", 1, "req", reqCtx.Descriptor())
		if broken {
			h.logger.Log(logging.LevelNotice, "redissess-lock-acquired-via-break",
				zap.String("session_key", key), zap.String("previous_req", previousReq))
		}
	}
	pipe.Expire(ctx, key, placeholderLockTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, erero.Wro(err)
	}

	h.sessionWritten = false
	return h.codec.Decode([]byte(data))
}

// Write is idempotent per handler instance: a second call after a
// successful commit is a no-op returning true. Ownership is re-verified
// against the stored pid; if we lost (or never had) the lock, the write is
// skipped but the call still returns true. Any driver failure is caught,
// logged, and converted to false
//
// Write 在单个 handler 实例内是幂等的：成功提交后的第二次调用是空操作并
// 返回 true。所有权会针对存储的 pid 重新校验；若我们丢失（或从未拥有）
// 锁，写入会被跳过但调用仍返回 true。任何驱动层失败都会被捕获、记录
// 并转换为 false
func (h *Handler) Write(ctx context.Context, id string, data []byte, reqCtx RequestContext) bool {
	if h.sessionWritten || h.readOnly {
		h.logger.Log(logging.LevelDebug, "redissess-write-skipped", zap.Bool("already_written", h.sessionWritten), zap.Bool("read_only", h.readOnly))
		return true
	}
	h.sessionWritten = true
	key := sessionKey(id)

	owns, err := h.ownsLock(ctx, key)
	if err != nil {
		h.logger.LogException(err)
		return false
	}
	if !owns {
		if h.hasLock {
			h.logger.Log(logging.LevelWarning, "redissess-write-lost-lock-another-process-took-it", zap.String("session_key", key))
		} else {
			h.logger.Log(logging.LevelWarning, "redissess-write-never-acquired-lock", zap.String("session_key", key))
		}
		return true
	}

	lifeTime := h.resolveLifeTime(reqCtx.UserAgent)
	encoded := h.codec.Encode(data)

	pipe := h.client.TxPipeline()
	pipe.HSet(ctx, key, "data", encoded, "lock", 0)
	pipe.HIncrBy(ctx, key, "writes", 1)
	pipe.Expire(ctx, key, time.Duration(lifeTime)*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		h.logger.LogException(err)
		return false
	}
	return true
}

func (h *Handler) ownsLock(ctx context.Context, key string) (bool, error) {
	if h.cfg.disableLocking {
		return true, nil
	}
	pid, err := h.client.HGet(ctx, key, "pid").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, erero.Wro(err)
	}
	return pid == "" || pid == h.identity, nil
}

func (h *Handler) resolveLifeTime(userAgent string) int {
	if h.lifeTimeCached != nil {
		return *h.lifeTimeCached
	}
	result := lifetime.Compute(h.sessionWrites, userAgent, lifetime.Config{
		BotLifetime:      h.cfg.botLifetime,
		BotFirstLifetime: h.cfg.botFirstLifetime,
		FirstLifetime:    h.cfg.firstLifetime,
		Lifetime:         h.cfg.lifetime,
		MinLifetime:      h.cfg.minLifetime,
		MaxLifetime:      h.cfg.maxLifetime,
	}, h.bots)
	h.lifeTimeCached = &result
	return result
}

// Destroy unconditionally deletes the session record and always reports success
// Destroy 无条件删除会话记录，始终报告成功
func (h *Handler) Destroy(ctx context.Context, id string) bool {
	pipe := h.client.TxPipeline()
	pipe.Unlink(ctx, sessionKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		h.logger.LogException(err)
	}
	return true
}

// Close releases the Redis connection if present; safe to call more than once
// Close 释放 Redis 连接（如果存在）；可安全地多次调用
func (h *Handler) Close() bool {
	if h.client != nil {
		h.logger.Log(logging.LevelDebug, "Closing connection")
		_ = h.client.Close()
		h.client = nil
	}
	return true
}

// Gc is a no-op success: Redis TTL handles expiry natively
// Gc 是无操作的成功返回：Redis 的 TTL 原生处理过期
func (h *Handler) Gc(_ int) bool {
	return true
}

// FailedLockAttempts reports the tick count of the most recent acquisition
// 报告最近一次获取锁尝试所耗费的节拍数
func (h *Handler) FailedLockAttempts() int {
	return h.failedLockAttempts
}

// SetReadOnly toggles read-only mode: subsequent Read calls skip the lock
// loop entirely and Write calls become no-ops returning true
//
// SetReadOnly 切换只读模式：后续的 Read 调用会完全跳过锁循环，
// Write 调用会变为返回 true 的空操作
func (h *Handler) SetReadOnly(readOnly bool) {
	h.readOnly = readOnly
}

func toInt64(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
