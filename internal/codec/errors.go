package codec

import (
	"errors"
	"fmt"

	"github.com/yyle88/erero"
)

// ErrDecode wraps any failure to decompress a tagged payload
// A decode failure is fatal to the read operation it occurs in
//
// ErrDecode 包裹任何解压带标记载荷失败的情形
// 解码失败对其所在的读取操作而言是致命的
var ErrDecode = errors.New("codec: decode failed")

var errMalformedVarint = errors.New("codec: malformed varint")

func decodeErr(cause error) error {
	if cause == nil {
		return erero.Wro(ErrDecode)
	}
	return fmt.Errorf("%w: %v", ErrDecode, cause)
}
