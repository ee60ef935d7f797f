package statistic

import (
	"bytes"
	"errors"
	"fmt"
	"listenerd/internal/statistic/interfaces"
	"listenerd/internal/structures"

	"github.com/klauspost/compress/zstd"
)

var ErrNotZstd = errors.New("live snapshot is not a zstd frame")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ZstdCompression encodes the live snapshot file. Snapshots are small and
// written on every save tick, so one encoder and decoder are reused.
type ZstdCompression struct {
	level   zstd.EncoderLevel
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(snapshot []byte) ([]byte, error) {
	return z.encoder.EncodeAll(snapshot, make([]byte, 0, len(snapshot)/2)), nil
}

func (z *ZstdCompression) Decompress(frame []byte) ([]byte, error) {
	if !bytes.HasPrefix(frame, zstdMagic) {
		return nil, ErrNotZstd
	}
	return z.decoder.DecodeAll(frame, nil)
}

func (z *ZstdCompression) Level() zstd.EncoderLevel {
	return z.level
}

func (z *ZstdCompression) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

// NewZstdCompressor builds the codec at persistence.compression, one of
// fastest, default, better or best.
func NewZstdCompressor(conf *structures.Config) (interfaces.CompressorInterface, error) {
	ok, level := zstd.EncoderLevelFromString(conf.Persistence.Compression)
	if !ok {
		return nil, fmt.Errorf("unknown compression level %q", conf.Persistence.Compression)
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(64<<20))
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{level: level, encoder: encoder, decoder: decoder}, nil
}
