package codec

import "github.com/golang/snappy"

func compressSnappy(payload []byte) ([]byte, bool) {
	return snappy.Encode(nil, payload), true
}

func decompressSnappy(payload []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, decodeErr(err)
	}
	return out, nil
}
