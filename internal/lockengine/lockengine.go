// Package lockengine: Non-blocking, counter-based advisory mutex over a
// Redis hash record. There is no server-side locking primitive and no Lua
// scripting involved — every contender coordinates purely through atomic
// HINCRBY arithmetic on the record's lock/wait fields, polling at a fixed
// tick interval until it takes the lock, breaks a stale one, or gives up
//
// lockengine: 基于 Redis 哈希记录的非阻塞、计数器式咨询互斥锁
// 没有服务端加锁原语，也不涉及 Lua 脚本 —— 每个竞争者仅通过对记录的
// lock/wait 字段进行原子 HINCRBY 运算来协调，以固定的节拍轮询，
// 直到获得锁、打破一个陈旧的锁，或放弃
package lockengine

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yyle88/erero"
	"go.uber.org/zap"

	"github.com/go-xlan/redis-sess-suo/internal/logging"
	"github.com/go-xlan/redis-sess-suo/internal/pidprobe"
)

// Config carries the resolved (defaulted) tunables for one acquisition
// 携带已解析（已应用默认值）的获取锁调优参数
type Config struct {
	SleepTime          time.Duration
	BreakAfter         time.Duration
	FailAfter          time.Duration
	MaxConcurrency     int64
	DetectZombiesEvery int
}

// Outcome reports the result of one acquisition attempt
// 报告一次获取锁尝试的结果
type Outcome struct {
	HasLock bool
	Tries   int
	Broken  bool
}

// Acquire runs the bounded polling loop against key's hash record. ctx
// cancellation aborts the loop early and surfaces ctx.Err()
//
// Acquire 针对 key 对应的哈希记录运行有界轮询循环
// ctx 被取消会提前终止循环并返回 ctx.Err()
func Acquire(ctx context.Context, client redis.Cmdable, key, identity string, cfg Config, prober pidprobe.Prober, logger logging.Logger) (Outcome, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	sleepTime := cfg.SleepTime
	breakAfterTicks := int(cfg.BreakAfter / cfg.SleepTime)
	failAfterTicks := int(cfg.FailAfter / cfg.SleepTime)
	giveUpTicks := breakAfterTicks + failAfterTicks

	var (
		tries      int
		registered bool
		zombieFlag bool
		lockPid    string
		oldLock    int64
	)

	for {
		lockVal, err := client.HIncrBy(ctx, key, "lock", 1).Result()
		if err != nil {
			return Outcome{}, erero.Errorf("lockengine: incrementing lock: %w", err)
		}

		if lockVal == 1 {
			return Outcome{HasLock: true, Tries: tries}, nil
		}

		if tries >= breakAfterTicks-1 {
			oldLockPid := lockPid
			newPid, err := readPid(ctx, client, key)
			if err != nil {
				return Outcome{}, err
			}
			lockPid = newPid

			if tries >= breakAfterTicks && lockPid == oldLockPid {
				logger.Log(logging.LevelNotice, "lockengine-lock-broken",
					zap.String("key", key), zap.String("previous_pid", oldLockPid),
					zap.String("breaker_identity", identity), zap.Int("tries", tries))
				return Outcome{HasLock: true, Tries: tries, Broken: true}, nil
			}
		}

		if !registered {
			for attempt := int64(0); attempt < cfg.MaxConcurrency; attempt++ {
				waitVal, err := client.HIncrBy(ctx, key, "wait", 1).Result()
				if err != nil {
					return Outcome{}, erero.Errorf("lockengine: registering waiter: %w", err)
				}
				if waitVal >= 1 {
					break
				}
			}
			registered = true
		}

		inZombieCheck := zombieFlag
		if zombieFlag {
			waitVal, err := readWait(ctx, client, key)
			if err != nil {
				return Outcome{}, err
			}
			if lockVal > oldLock && lockVal+1 < oldLock+waitVal {
				if _, err := client.HIncrBy(ctx, key, "wait", -1).Result(); err != nil {
					return Outcome{}, erero.Errorf("lockengine: correcting zombie waiter: %w", err)
				}
				logger.Log(logging.LevelInfo, "lockengine-zombie-waiter-corrected", zap.String("key", key))
			}
			zombieFlag = false
		}

		waitVal, err := readWait(ctx, client, key)
		if err != nil {
			return Outcome{}, err
		}

		if waitVal >= cfg.MaxConcurrency && !inZombieCheck {
			if _, err := client.HIncrBy(ctx, key, "wait", -1).Result(); err != nil {
				return Outcome{}, erero.Errorf("lockengine: releasing waiter slot on rejection: %w", err)
			}
			logger.Log(logging.LevelWarning, "lockengine-admission-control-rejected",
				zap.String("key", key), zap.Int64("wait", waitVal), zap.Int64("max_concurrency", cfg.MaxConcurrency))
			return Outcome{}, ErrConcurrentConnectionsExceeded
		}

		tries++
		oldLock = lockVal

		if cfg.DetectZombiesEvery > 0 {
			switch phase := tries % cfg.DetectZombiesEvery; {
			case phase == 1:
				zombieFlag = true
				sleepTime = cfg.SleepTime + 10*time.Millisecond
			case phase == 0:
				if err := detectZombieOwner(ctx, client, key, prober, logger); err != nil {
					return Outcome{}, err
				}
				sleepTime = cfg.SleepTime
			default:
				sleepTime = cfg.SleepTime
			}
		}

		if tries >= giveUpTicks {
			logger.Log(logging.LevelWarning, "lockengine-lock-acquisition-abandoned",
				zap.String("key", key), zap.Int("tries", tries))
			return Outcome{HasLock: false, Tries: tries}, nil
		}

		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-time.After(sleepTime):
		}
	}
}

func detectZombieOwner(ctx context.Context, client redis.Cmdable, key string, prober pidprobe.Prober, logger logging.Logger) error {
	ownerPid, err := readPid(ctx, client, key)
	if err != nil {
		return err
	}
	if ownerPid == "" {
		return nil
	}
	if prober.IsAlive(ownerPid) {
		return nil
	}
	if err := client.HSet(ctx, key, "lock", 0).Err(); err != nil {
		return erero.Errorf("lockengine: resetting lock held by dead owner: %w", err)
	}
	logger.Log(logging.LevelNotice, "lockengine-zombie-owner-reset", zap.String("key", key), zap.String("owner_pid", ownerPid))
	return nil
}

func readPid(ctx context.Context, client redis.Cmdable, key string) (string, error) {
	val, err := client.HGet(ctx, key, "pid").Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", erero.Errorf("lockengine: reading pid: %w", err)
	}
	return val, nil
}

func readWait(ctx context.Context, client redis.Cmdable, key string) (int64, error) {
	val, err := client.HGet(ctx, key, "wait").Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, erero.Errorf("lockengine: reading wait: %w", err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, erero.Errorf("lockengine: parsing wait counter %q: %w", val, err)
	}
	return n, nil
}
