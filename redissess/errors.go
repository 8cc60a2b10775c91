package redissess

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-xlan/redis-sess-suo/internal/codec"
	"github.com/go-xlan/redis-sess-suo/internal/lockengine"
)

// ErrConnectionFailed is returned by NewHandler when no Redis connection
// (direct or via Sentinel) could be established; the underlying cause is
// preserved and retrievable with errors.Is / errors.As
//
// ErrConnectionFailed 在 NewHandler 无法建立任何 Redis 连接（直连或经
// Sentinel）时返回；底层原因被保留，可通过 errors.Is / errors.As 获取
var ErrConnectionFailed = errors.New("redissess: connection failed")

// ErrConcurrentConnectionsExceeded is re-exported from the lock engine: the
// number of waiters for a session reached the configured ceiling
//
// ErrConcurrentConnectionsExceeded 从锁引擎重新导出：某会话的等待者数量
// 达到了配置的上限
var ErrConcurrentConnectionsExceeded = lockengine.ErrConcurrentConnectionsExceeded

// ErrDecode is re-exported from the codec: a tagged payload could not be
// decompressed by the indicated algorithm
//
// ErrDecode 从编解码器重新导出：带标记的载荷无法被指定算法解压
var ErrDecode = codec.ErrDecode

func connectionFailedErr(cause error) error {
	return fmt.Errorf("%w: %w", ErrConnectionFailed, cause)
}
