// Package redissess: Redis-backed session storage with optimistic mutual
// exclusion. Composes the codec, bot classifier, lifetime policy, PID
// probe, and lock engine behind an open/read/write/destroy/close surface
//
// redissess: 基于 Redis 的会话存储，带乐观互斥机制
// 在 open/read/write/destroy/close 接口背后组合编解码器、爬虫分类器、
// 生命周期策略、进程探测器和锁引擎
package redissess

import (
	"time"

	"github.com/go-xlan/redis-sess-suo/internal/codec"
)

// Config is the tunable surface a caller provides; any method returning a
// falsy/zero value means "use the default" (defaults listed per field below)
//
// Config 是调用方提供的可调参数面；任何方法返回零值都意味着"使用默认值"
// （各字段的默认值见下）
type Config interface {
	Host() string
	Port() int
	Database() int
	Password() string
	Timeout() time.Duration
	PersistentIdentifier() string

	CompressionThreshold() int
	CompressionLibrary() string // gzip|lzf|lz4|snappy|none

	MaxConcurrency() int64
	Lifetime() int
	MaxLifetime() int
	MinLifetime() int
	DisableLocking() bool
	BotLifetime() int
	BotFirstLifetime() int
	FirstLifetime() int
	BreakAfter() int
	FailAfter() int
	LogLevel() int

	SentinelServers() []string
	SentinelMaster() string
	SentinelVerifyMaster() bool
	SentinelConnectRetries() int
	SentinelPassword() string
}

const (
	defaultHost    = "127.0.0.1"
	defaultPort    = 6379
	defaultTimeout = 5 * time.Second

	defaultMaxConcurrency  = int64(6)
	defaultLifetime        = 1440
	defaultMaxLifetime     = 2592000
	defaultMinLifetime     = 60
	defaultFirstLifetime   = 600
	defaultBotFirstLifetime = 60
	defaultBotLifetime     = 7200
	defaultBreakAfterSec   = 30
	defaultFailAfterSec    = 15
	defaultLogLevel        = 7 // debug

	defaultSentinelConnectRetries = 1

	placeholderLockTTL = 6 * time.Hour
)

// resolvedConfig is Config with every falsy field replaced by its default;
// the rest of the package only ever reads from this, never from Config directly
//
// resolvedConfig 是所有假值字段都被替换为默认值后的 Config；
// 包内其余代码只从这里读取，不会直接读取 Config
type resolvedConfig struct {
	host                 string
	port                 int
	database             int
	password             string
	timeout              time.Duration
	persistentIdentifier string

	compressionThreshold int
	compressionLibrary   codec.Algorithm

	maxConcurrency   int64
	lifetime         int
	maxLifetime      int
	minLifetime      int
	disableLocking   bool
	botLifetime      int
	botFirstLifetime int
	firstLifetime    int
	breakAfter       time.Duration
	failAfter        time.Duration
	logLevel         int

	sentinelServers        []string
	sentinelMaster         string
	sentinelVerifyMaster   bool
	sentinelConnectRetries int
	sentinelPassword       string
}

func resolveConfig(cfg Config) resolvedConfig {
	return resolvedConfig{
		host:                 orDefault(cfg.Host(), defaultHost),
		port:                 orDefault(cfg.Port(), defaultPort),
		database:             cfg.Database(),
		password:             cfg.Password(),
		timeout:              orDefault(cfg.Timeout(), defaultTimeout),
		persistentIdentifier: cfg.PersistentIdentifier(),

		compressionThreshold: cfg.CompressionThreshold(),
		compressionLibrary:   resolveAlgorithm(cfg.CompressionLibrary()),

		maxConcurrency:   orDefault(int64(cfg.MaxConcurrency()), defaultMaxConcurrency),
		lifetime:         orDefault(cfg.Lifetime(), defaultLifetime),
		maxLifetime:      orDefault(cfg.MaxLifetime(), defaultMaxLifetime),
		minLifetime:      orDefault(cfg.MinLifetime(), defaultMinLifetime),
		disableLocking:   cfg.DisableLocking(),
		botLifetime:      orDefault(cfg.BotLifetime(), defaultBotLifetime),
		botFirstLifetime: orDefault(cfg.BotFirstLifetime(), defaultBotFirstLifetime),
		firstLifetime:    orDefault(cfg.FirstLifetime(), defaultFirstLifetime),
		breakAfter:       orDefault(time.Duration(cfg.BreakAfter())*time.Second, defaultBreakAfterSec*time.Second),
		failAfter:        orDefault(time.Duration(cfg.FailAfter())*time.Second, defaultFailAfterSec*time.Second),
		logLevel:         orDefault(cfg.LogLevel(), defaultLogLevel),

		sentinelServers:        cfg.SentinelServers(),
		sentinelMaster:         cfg.SentinelMaster(),
		sentinelVerifyMaster:   cfg.SentinelVerifyMaster(),
		sentinelConnectRetries: orDefault(cfg.SentinelConnectRetries(), defaultSentinelConnectRetries),
		sentinelPassword:       cfg.SentinelPassword(),
	}
}

func resolveAlgorithm(library string) codec.Algorithm {
	switch codec.Algorithm(library) {
	case codec.AlgorithmGzip, codec.AlgorithmLZF, codec.AlgorithmLZ4, codec.AlgorithmSnappy:
		return codec.Algorithm(library)
	default:
		return codec.AlgorithmNone
	}
}

// orDefault returns def when v is the zero value of T, else v
// 当 v 为 T 的零值时返回 def，否则返回 v
func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
