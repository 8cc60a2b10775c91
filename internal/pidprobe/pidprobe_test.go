package pidprobe_test

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/go-xlan/redis-sess-suo/internal/pidprobe"
	"github.com/stretchr/testify/require"
)

func TestIdentityShape(t *testing.T) {
	probe := pidprobe.NewHostProber()
	identity := probe.Identity()

	require.Contains(t, identity, "|")
	parts := strings.SplitN(identity, "|", 2)
	require.Len(t, parts, 2)
	require.NotEmpty(t, parts[0])
	require.Equal(t, fmt.Sprintf("%d", os.Getpid()), parts[1])
}

func TestIsAliveSelf(t *testing.T) {
	probe := pidprobe.NewHostProber()
	require.True(t, probe.IsAlive(probe.Identity()))
}

func TestIsAliveDifferentHostIsConservative(t *testing.T) {
	probe := pidprobe.NewHostProber()
	require.True(t, probe.IsAlive("some-other-host|99999999"))
}

func TestIsAliveMalformedIdentity(t *testing.T) {
	probe := pidprobe.NewHostProber()
	require.True(t, probe.IsAlive("not-a-valid-identity"))
}

func TestIsAliveDeadLocalPid(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("same-host liveness detection only runs on linux")
	}
	probe := pidprobe.NewHostProber()
	hostname, err := os.Hostname()
	require.NoError(t, err)

	// PID 1 always exists; a very large PID almost certainly does not.
	require.False(t, probe.IsAlive(fmt.Sprintf("%s|2147483647", hostname)))
}
