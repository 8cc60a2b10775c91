package codec_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-xlan/redis-sess-suo/internal/codec"
	"github.com/stretchr/testify/require"
)

func repeatedPayload() []byte {
	return bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)
}

func TestEncodeDecodeRoundTripAllAlgorithms(t *testing.T) {
	payload := repeatedPayload()

	for _, algorithm := range []codec.Algorithm{
		codec.AlgorithmSnappy,
		codec.AlgorithmLZF,
		codec.AlgorithmLZ4,
		codec.AlgorithmGzip,
	} {
		algorithm := algorithm
		t.Run(string(algorithm), func(t *testing.T) {
			c := codec.New(10, algorithm, nil)
			encoded := c.Encode(payload)
			require.NotEqual(t, payload, encoded)

			decoded, err := c.Decode(encoded)
			require.NoError(t, err)
			require.Equal(t, payload, decoded)
		})
	}
}

func TestEncodeBelowThresholdIsUntagged(t *testing.T) {
	c := codec.New(1024, codec.AlgorithmSnappy, nil)
	payload := []byte("short")

	encoded := c.Encode(payload)
	require.Equal(t, payload, encoded)

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestEncodeNoneAlgorithmNeverCompresses(t *testing.T) {
	c := codec.New(1, codec.AlgorithmNone, nil)
	payload := repeatedPayload()

	encoded := c.Encode(payload)
	require.Equal(t, payload, encoded)
}

func TestDecodeUntaggedPassesThrough(t *testing.T) {
	c := codec.New(10, codec.AlgorithmSnappy, nil)
	payload := []byte("just a plain record, never compressed")

	decoded, err := c.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestDecodeIsTransparentAcrossAlgorithmChange(t *testing.T) {
	payload := repeatedPayload()

	writer := codec.New(10, codec.AlgorithmGzip, nil)
	encoded := writer.Encode(payload)

	reader := codec.New(10, codec.AlgorithmLZ4, nil)
	decoded, err := reader.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestDecodeShortPayloadIsNotTruncated(t *testing.T) {
	c := codec.New(10, codec.AlgorithmSnappy, nil)
	payload := []byte("ab")

	decoded, err := c.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestDecodeCorruptTaggedPayloadErrors(t *testing.T) {
	c := codec.New(10, codec.AlgorithmGzip, nil)

	corrupt := append([]byte(":gz:"), []byte("not actually gzip data")...)
	_, err := c.Decode(corrupt)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "decode failed"))
}

func TestLZFRoundTripEmptyAndSmallPayloads(t *testing.T) {
	c := codec.New(1, codec.AlgorithmLZF, nil)

	for _, payload := range [][]byte{
		{},
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
	} {
		encoded := c.Encode(payload)
		decoded, err := c.Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, payload, decoded)
	}
}
