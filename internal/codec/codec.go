// Package codec: Self-describing payload compression for session records
// Encode prepends a four-byte tag identifying the compressor used, so that
// changing the configured algorithm never breaks reads of records written
// under a previous algorithm. Compression is best-effort: a failed or empty
// compressor result falls back to storing the payload untagged
//
// codec: 会话记录载荷的自描述压缩编解码
// Encode 会加上一个四字节标记来标识所用的压缩算法，因此更改已配置的算法
// 永远不会破坏在先前算法下写入的记录的读取。压缩是尽力而为：压缩器失败或
// 返回空结果时，回退为不带标记地存储原始载荷
package codec

import (
	"go.uber.org/zap"

	"github.com/go-xlan/redis-sess-suo/internal/logging"
)

// Algorithm names one of the supported compressors, or "none"
// 命名受支持的压缩算法之一，或 "none"
type Algorithm string

const (
	AlgorithmNone   Algorithm = "none"
	AlgorithmGzip   Algorithm = "gzip"
	AlgorithmLZF    Algorithm = "lzf"
	AlgorithmLZ4    Algorithm = "lz4"
	AlgorithmSnappy Algorithm = "snappy"
)

const tagLen = 4

var tagBytes = map[Algorithm]string{
	AlgorithmSnappy: ":sn:",
	AlgorithmLZF:    ":lz:",
	AlgorithmLZ4:    ":l4:",
	AlgorithmGzip:   ":gz:",
}

// Codec encodes/decodes session payloads with pluggable compression
// 以可插拔的压缩方式编解码会话载荷
type Codec struct {
	threshold int
	algorithm Algorithm
	logger    logging.Logger
}

// New builds a Codec; compression only triggers when threshold > 0,
// algorithm is not "none", and the payload is at least threshold bytes long
//
// New 构建一个 Codec；仅当 threshold > 0、algorithm 不为 "none"
// 且载荷长度不小于 threshold 时才会触发压缩
func New(threshold int, algorithm Algorithm, logger logging.Logger) *Codec {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Codec{threshold: threshold, algorithm: algorithm, logger: logger}
}

// Encode compresses payload if configured and eligible, tagging the result;
// on any compressor failure it logs a warning and stores payload untagged
//
// Encode 在配置允许且满足条件时压缩 payload 并打标记；
// 压缩器失败时记录警告日志并不带标记地存储原始载荷
func (c *Codec) Encode(payload []byte) []byte {
	if c.threshold <= 0 || c.algorithm == AlgorithmNone || c.algorithm == "" || len(payload) < c.threshold {
		return payload
	}

	compressed, ok := compress(c.algorithm, payload)
	if !ok || len(compressed) == 0 {
		c.logger.Log(logging.LevelWarning, "codec-compress-best-effort-failed",
			zap.String("algorithm", string(c.algorithm)), zap.Int("payload_len", len(payload)))
		return payload
	}

	tag := tagBytes[c.algorithm]
	out := make([]byte, 0, len(tag)+len(compressed))
	out = append(out, tag...)
	out = append(out, compressed...)
	return out
}

// Decode inspects the first four bytes of payload and dispatches to the
// matching decompressor; input with no recognized tag is returned unchanged
//
// Decode 检查 payload 的前四个字节并分派给对应的解压器；
// 没有可识别标记的输入原样返回
func (c *Codec) Decode(payload []byte) ([]byte, error) {
	if len(payload) < tagLen {
		return payload, nil
	}
	switch string(payload[:tagLen]) {
	case ":sn:":
		return decompressSnappy(payload[tagLen:])
	case ":lz:":
		return decompressLZF(payload[tagLen:])
	case ":l4:":
		return decompressLZ4(payload[tagLen:])
	case ":gz:":
		return decompressGzip(payload[tagLen:])
	default:
		return payload, nil
	}
}

func compress(algorithm Algorithm, payload []byte) ([]byte, bool) {
	switch algorithm {
	case AlgorithmSnappy:
		return compressSnappy(payload)
	case AlgorithmLZF:
		return compressLZF(payload)
	case AlgorithmLZ4:
		return compressLZ4(payload)
	case AlgorithmGzip:
		return compressGzip(payload)
	default:
		return nil, false
	}
}
