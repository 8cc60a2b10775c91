package redissess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/go-xlan/redis-sess-suo/internal/logging"
)

// Two known "no password set" error shapes returned by Redis/Sentinel when
// AUTH is attempted against a server that has no password configured; these
// are tolerated rather than treated as a connection failure
//
// 两种已知的 "no password set" 错误形态，是在向未配置密码的服务器发送 AUTH
// 时返回的；这些会被容忍而非视为连接失败
var noPasswordSetErrorShapes = []string{
	"ERR Client sent AUTH, but no password is set",
	"ERR AUTH <password> called without any password configured",
}

func isNoPasswordSetErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, shape := range noPasswordSetErrorShapes {
		if strings.Contains(msg, shape) {
			return true
		}
	}
	return false
}

// connect establishes the Redis connection per the resolved config: a
// Sentinel topology if sentinel servers are configured, otherwise a direct
// connection. Either way, failure to produce a working connection surfaces
// ErrConnectionFailed with the nested cause preserved
//
// connect 按已解析配置建立 Redis 连接：若配置了 Sentinel 服务器则走
// Sentinel 拓扑，否则直连。无论哪种方式，若最终未能建立可用连接，都会
// 返回保留了内部原因的 ErrConnectionFailed
func connect(ctx context.Context, rc resolvedConfig, logger logging.Logger) (redis.UniversalClient, error) {
	if len(rc.sentinelServers) > 0 {
		return connectViaSentinel(ctx, rc, logger)
	}
	return connectDirect(ctx, rc, logger)
}

func connectDirect(ctx context.Context, rc resolvedConfig, logger logging.Logger) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", rc.host, rc.port),
		Password:    rc.password,
		DB:          rc.database,
		DialTimeout: rc.timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil && !isNoPasswordSetErr(err) {
		_ = client.Close()
		return nil, connectionFailedErr(err)
	}

	logger.Log(logging.LevelInfo, "redissess-connected-direct", zap.String("addr", fmt.Sprintf("%s:%d", rc.host, rc.port)))
	return client, nil
}

// connectViaSentinel iterates the configured Sentinel endpoints up to
// sentinelConnectRetries+1 passes, delegating the round-robin/auth/master
// resolution dance to go-redis's FailoverClient (it already implements the
// same Sentinel protocol the original source hand-rolls), then layers the
// spec's own master-role verification with one 100ms retry on top
//
// connectViaSentinel 对配置的 Sentinel 端点迭代最多 sentinelConnectRetries+1
// 轮，将轮询/认证/主节点解析委托给 go-redis 的 FailoverClient（它已实现
// 与原始实现手写版本相同的 Sentinel 协议），再在其上叠加带一次 100ms 重试
// 的主节点角色校验
func connectViaSentinel(ctx context.Context, rc resolvedConfig, logger logging.Logger) (redis.UniversalClient, error) {
	var lastErr error

	for pass := 0; pass < rc.sentinelConnectRetries+1; pass++ {
		client := redis.NewFailoverClient(&redis.FailoverOptions{
			SentinelAddrs:    rc.sentinelServers,
			SentinelPassword: rc.sentinelPassword,
			MasterName:       rc.sentinelMaster,
			Password:         rc.password,
			DB:               rc.database,
			DialTimeout:      rc.timeout,
		})

		if err := client.Ping(ctx).Err(); err != nil && !isNoPasswordSetErr(err) {
			lastErr = err
			_ = client.Close()
			continue
		}

		if rc.sentinelVerifyMaster {
			if err := verifyMasterRole(ctx, client); err != nil {
				time.Sleep(100 * time.Millisecond)
				if err := verifyMasterRole(ctx, client); err != nil {
					lastErr = err
					_ = client.Close()
					continue
				}
			}
		}

		logger.Log(logging.LevelInfo, "redissess-connected-via-sentinel",
			zap.String("master", rc.sentinelMaster), zap.Int("pass", pass+1))
		return client, nil
	}

	return nil, connectionFailedErr(lastErr)
}

func verifyMasterRole(ctx context.Context, client redis.UniversalClient) error {
	reply, err := client.Do(ctx, "role").Result()
	if err != nil {
		return err
	}
	fields, ok := reply.([]interface{})
	if !ok || len(fields) == 0 {
		return errors.New("redissess: unexpected ROLE reply shape")
	}
	role, ok := fields[0].(string)
	if !ok || role != "master" {
		return errors.Errorf("redissess: expected master role, got %v", fields[0])
	}
	return nil
}
