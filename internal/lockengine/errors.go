package lockengine

import "errors"

// ErrConcurrentConnectionsExceeded is returned when the number of waiters for
// a session has reached the configured ceiling; callers translate this into
// a rejected request (HTTP 503 at the host framework boundary)
//
// ErrConcurrentConnectionsExceeded 在某会话的等待者数量达到配置上限时返回；
// 调用方应将其转换为被拒绝的请求（在宿主框架层面对应 HTTP 503）
var ErrConcurrentConnectionsExceeded = errors.New("lockengine: concurrent connections exceeded")
