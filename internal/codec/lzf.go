package codec

import (
	"bytes"
	"encoding/binary"
)

// compressLZF and decompressLZF implement a minimal, self-contained LZ77
// variant: a stream of literal-run and back-reference tokens, each prefixed
// by a one-byte opcode and unsigned varints for lengths/distances. No
// corpus example or reachable ecosystem library implements the classic LZF
// format, so this codec is hand-rolled; see the design notes for the
// dependency it stands in for
//
// compressLZF 和 decompressLZF 实现一个最小化、自成一体的 LZ77 变体：
// 由字面量段和回溯引用 token 组成的流，每个 token 前缀一个操作码字节，
// 长度/距离用无符号变长整数编码。语料库中没有任何实现经典 LZF 格式的
// 库可用，因此该编解码器为手写实现

const (
	opLiteral = byte(0x00)
	opMatch   = byte(0x01)

	lzfMinMatch   = 4
	lzfMaxMatch   = 1 << 16
	lzfMaxWindow  = 1 << 15
	lzfHashWindow = 4
)

func compressLZF(payload []byte) ([]byte, bool) {
	n := len(payload)
	var out bytes.Buffer

	if n == 0 {
		return out.Bytes(), true
	}

	hashTable := make(map[uint32]int, n/2)
	literalStart := 0
	i := 0

	for i+lzfHashWindow <= n {
		h := lzfHash(payload[i : i+lzfHashWindow])
		matchPos, seen := hashTable[h]
		hashTable[h] = i

		if seen && i-matchPos <= lzfMaxWindow {
			length := lzfMatchLen(payload, matchPos, i, n)
			if length >= lzfMinMatch {
				if literalStart < i {
					writeLZFLiteral(&out, payload[literalStart:i])
				}
				writeLZFMatch(&out, i-matchPos, length)
				i += length
				literalStart = i
				continue
			}
		}
		i++
	}

	if literalStart < n {
		writeLZFLiteral(&out, payload[literalStart:n])
	}
	return out.Bytes(), true
}

func decompressLZF(payload []byte) ([]byte, error) {
	var out []byte
	buf := payload

	for len(buf) > 0 {
		op := buf[0]
		buf = buf[1:]

		switch op {
		case opLiteral:
			length, rest, err := readUvarint(buf)
			if err != nil {
				return nil, decodeErr(err)
			}
			if uint64(len(rest)) < length {
				return nil, decodeErr(nil)
			}
			out = append(out, rest[:length]...)
			buf = rest[length:]
		case opMatch:
			distance, rest, err := readUvarint(buf)
			if err != nil {
				return nil, decodeErr(err)
			}
			length, rest2, err := readUvarint(rest)
			if err != nil {
				return nil, decodeErr(err)
			}
			if distance == 0 || distance > uint64(len(out)) {
				return nil, decodeErr(nil)
			}
			start := len(out) - int(distance)
			for k := uint64(0); k < length; k++ {
				out = append(out, out[start+int(k)])
			}
			buf = rest2
		default:
			return nil, decodeErr(nil)
		}
	}
	return out, nil
}

func lzfHash(window []byte) uint32 {
	return binary.BigEndian.Uint32(window)
}

func lzfMatchLen(payload []byte, matchPos, pos, n int) int {
	length := 0
	limit := n - pos
	if limit > lzfMaxMatch {
		limit = lzfMaxMatch
	}
	for length < limit && payload[matchPos+length] == payload[pos+length] {
		length++
	}
	return length
}

func writeLZFLiteral(out *bytes.Buffer, literal []byte) {
	out.WriteByte(opLiteral)
	writeUvarint(out, uint64(len(literal)))
	out.Write(literal)
}

func writeLZFMatch(out *bytes.Buffer, distance, length int) {
	out.WriteByte(opMatch)
	writeUvarint(out, uint64(distance))
	writeUvarint(out, uint64(length))
}

func writeUvarint(out *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	out.Write(tmp[:n])
}

func readUvarint(buf []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, nil, errMalformedVarint
	}
	return v, buf[n:], nil
}
