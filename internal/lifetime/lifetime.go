// Package lifetime: Adaptive session TTL policy driven by write count and bot status
// First-write sessions (and first-write bot sessions) get a short TTL so
// abandoned sessions from crawlers that never return don't linger; returning
// writers get the steady-state TTL. The result is always clamped to the
// configured [min, max] window
//
// lifetime: 由写入次数和爬虫状态驱动的自适应会话 TTL 策略
// 首次写入的会话（以及首次写入的爬虫会话）获得较短的 TTL，
// 避免永不回访的爬虫留下的会话长期占用；回访的写入者获得稳态 TTL
// 结果始终被限定在配置的 [min, max] 区间内
package lifetime

// Config carries the resolved (defaulted) lifetime tunables
// 携带已解析（已应用默认值）的生命周期可调参数
type Config struct {
	BotLifetime      int
	BotFirstLifetime int
	FirstLifetime    int
	Lifetime         int
	MinLifetime      int
	MaxLifetime      int
}

// BotChecker decides whether a user-agent belongs to a bot
// 判定 user-agent 是否属于爬虫
type BotChecker interface {
	IsBot(userAgent string) bool
}

// Compute picks the TTL (seconds) for a session given its write count and
// user-agent, in this order of precedence:
//
//  1. bot + botLifetime configured: first write uses botFirstLifetime scaled
//     by writes, otherwise the steady-state botLifetime
//  2. first write (writes <= 1) with firstLifetime configured: firstLifetime
//     scaled by writes
//  3. otherwise: the steady-state lifetime
//
// The result is always clamped to [minLifetime, maxLifetime].
//
// Compute 依据写入次数和 user-agent 选取会话 TTL（秒），优先级如上所述
// 结果始终被限定在 [minLifetime, maxLifetime] 区间内
func Compute(sessionWrites int64, userAgent string, cfg Config, checker BotChecker) int {
	var result int
	switch {
	case cfg.BotLifetime > 0 && checker.IsBot(userAgent):
		if sessionWrites <= 1 && cfg.BotFirstLifetime > 0 {
			result = cfg.BotFirstLifetime * int(1+sessionWrites)
		} else {
			result = cfg.BotLifetime
		}
	case sessionWrites <= 1 && cfg.FirstLifetime > 0:
		result = cfg.FirstLifetime * int(1+sessionWrites)
	default:
		result = cfg.Lifetime
	}
	return clamp(result, cfg.MinLifetime, cfg.MaxLifetime)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
