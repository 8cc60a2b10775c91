package lifetime_test

import (
	"testing"

	"github.com/go-xlan/redis-sess-suo/internal/lifetime"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct{ bot bool }

func (f fakeChecker) IsBot(string) bool { return f.bot }

func baseConfig() lifetime.Config {
	return lifetime.Config{
		BotLifetime:      600,
		BotFirstLifetime: 30,
		FirstLifetime:    600,
		Lifetime:         1440,
		MinLifetime:      60,
		MaxLifetime:      2592000,
	}
}

func TestComputeBotFirstLifetimeClampedUp(t *testing.T) {
	cfg := baseConfig()
	cfg.BotLifetime = 600
	cfg.BotFirstLifetime = 30

	got := lifetime.Compute(0, "Googlebot", cfg, fakeChecker{bot: true})
	require.Equal(t, 60, got) // 30*(1+0)=30, clamped up to min 60
}

func TestComputeBotSteadyState(t *testing.T) {
	cfg := baseConfig()
	got := lifetime.Compute(5, "Googlebot", cfg, fakeChecker{bot: true})
	require.Equal(t, 600, got)
}

func TestComputeFirstWriteHuman(t *testing.T) {
	cfg := baseConfig()
	got := lifetime.Compute(1, "a normal browser", cfg, fakeChecker{bot: false})
	require.Equal(t, 1200, got) // 600*(1+1)
}

func TestComputeSteadyStateHuman(t *testing.T) {
	cfg := baseConfig()
	got := lifetime.Compute(10, "a normal browser", cfg, fakeChecker{bot: false})
	require.Equal(t, 1440, got)
}

func TestComputeAlwaysClamped(t *testing.T) {
	cfg := baseConfig()
	cfg.Lifetime = 999999999
	got := lifetime.Compute(10, "a normal browser", cfg, fakeChecker{bot: false})
	require.Equal(t, cfg.MaxLifetime, got)

	cfg.Lifetime = -5
	got = lifetime.Compute(10, "a normal browser", cfg, fakeChecker{bot: false})
	require.Equal(t, cfg.MinLifetime, got)
}

func TestComputeBotDisabledFallsThrough(t *testing.T) {
	cfg := baseConfig()
	cfg.BotLifetime = 0 // bot policy disabled entirely
	got := lifetime.Compute(0, "Googlebot", cfg, fakeChecker{bot: true})
	require.Equal(t, 600, got) // falls to first-write human rule: 600*(1+0)
}
