// Package envelope carries a byte payload as a compression-tagged frame. A
// frame is a union whose selector names the compression algorithm and whose
// payload is the compressed bytes, so a receiver needs nothing but the frame
// to recover the data.
package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/clockworklabs/sszunion/pkg/ssz"
	"github.com/clockworklabs/sszunion/pkg/union"
)

// DefaultMaxSize caps the decompressed size accepted by Open.
const DefaultMaxSize = 64 << 20

var (
	ErrUnknownAlgorithm = errors.New("envelope: unknown compression algorithm")
	ErrTooLarge         = errors.New("envelope: decompressed payload exceeds limit")
)

// Algorithm identifies how a frame's payload is compressed. Its value is the
// frame's selector; these are wire constants.
type Algorithm uint8

const (
	AlgUncompressed Algorithm = 0
	AlgBrotli       Algorithm = 1
	AlgGzip         Algorithm = 2
	AlgZstd         Algorithm = 3
	AlgLZ4          Algorithm = 4
)

func (a Algorithm) String() string {
	switch a {
	case AlgUncompressed:
		return "none"
	case AlgBrotli:
		return "brotli"
	case AlgGzip:
		return "gzip"
	case AlgZstd:
		return "zstd"
	case AlgLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm parses the name String returns.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "none", "uncompressed":
		return AlgUncompressed, nil
	case "brotli", "br":
		return AlgBrotli, nil
	case "gzip", "gz":
		return AlgGzip, nil
	case "zstd":
		return AlgZstd, nil
	case "lz4":
		return AlgLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Payload is the sealed base of the frame variants.
type Payload interface {
	Algorithm() Algorithm
	Bytes() []byte
}

type (
	Uncompressed []byte
	Brotli       []byte
	Gzip         []byte
	Zstd         []byte
	LZ4          []byte
)

func (Uncompressed) Algorithm() Algorithm { return AlgUncompressed }
func (Brotli) Algorithm() Algorithm       { return AlgBrotli }
func (Gzip) Algorithm() Algorithm         { return AlgGzip }
func (Zstd) Algorithm() Algorithm         { return AlgZstd }
func (LZ4) Algorithm() Algorithm          { return AlgLZ4 }

func (p Uncompressed) Bytes() []byte { return p }
func (p Brotli) Bytes() []byte       { return p }
func (p Gzip) Bytes() []byte         { return p }
func (p Zstd) Bytes() []byte         { return p }
func (p LZ4) Bytes() []byte          { return p }

// Frame is one compression-tagged payload.
type Frame = union.Union[Payload]

// Kind is the frame union. Declaration order fixes the selectors and matches
// the Algorithm constants.
var Kind = union.MustDefine[Payload]("Frame",
	union.Of[Payload, Uncompressed](ssz.BytesOf[Uncompressed]{}),
	union.Of[Payload, Brotli](ssz.BytesOf[Brotli]{}),
	union.Of[Payload, Gzip](ssz.BytesOf[Gzip]{}),
	union.Of[Payload, Zstd](ssz.BytesOf[Zstd]{}),
	union.Of[Payload, LZ4](ssz.BytesOf[LZ4]{}),
)

var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("envelope: zstd encoder initialization failed: " + err.Error())
	}
}

// Seal compresses data with alg and wraps it in a frame.
func Seal(alg Algorithm, data []byte) (Frame, error) {
	var payload Payload
	switch alg {
	case AlgUncompressed:
		payload = Uncompressed(bytes.Clone(data))
	case AlgBrotli:
		out, err := compressStream(data, func(w io.Writer) io.WriteCloser {
			return brotli.NewWriterLevel(w, brotli.DefaultCompression)
		})
		if err != nil {
			return Frame{}, fmt.Errorf("brotli compress: %w", err)
		}
		payload = Brotli(out)
	case AlgGzip:
		out, err := compressStream(data, func(w io.Writer) io.WriteCloser {
			return gzip.NewWriter(w)
		})
		if err != nil {
			return Frame{}, fmt.Errorf("gzip compress: %w", err)
		}
		payload = Gzip(out)
	case AlgZstd:
		payload = Zstd(zstdEncoder.EncodeAll(data, nil))
	case AlgLZ4:
		out, err := compressStream(data, func(w io.Writer) io.WriteCloser {
			return lz4.NewWriter(w)
		})
		if err != nil {
			return Frame{}, fmt.Errorf("lz4 compress: %w", err)
		}
		payload = LZ4(out)
	default:
		return Frame{}, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(alg))
	}
	return Kind.Wrap(payload)
}

// Open decompresses a frame, refusing output larger than DefaultMaxSize.
func Open(f Frame) ([]byte, error) {
	return OpenLimit(f, DefaultMaxSize)
}

// OpenLimit decompresses a frame, refusing output larger than limit bytes.
func OpenLimit(f Frame, limit int) ([]byte, error) {
	switch p := f.Payload().(type) {
	case Uncompressed:
		if len(p) > limit {
			return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(p), limit)
		}
		return bytes.Clone(p), nil
	case Brotli:
		return readLimited(brotli.NewReader(bytes.NewReader(p)), limit, AlgBrotli)
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(p))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		defer r.Close()
		return readLimited(r, limit, AlgGzip)
	case Zstd:
		r, err := zstd.NewReader(bytes.NewReader(p), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		defer r.Close()
		return readLimited(r, limit, AlgZstd)
	case LZ4:
		return readLimited(lz4.NewReader(bytes.NewReader(p)), limit, AlgLZ4)
	default:
		return nil, fmt.Errorf("%w: frame holds %T", union.ErrUnsupportedVariantPayload, p)
	}
}

// Marshal seals data and returns the encoded frame.
func Marshal(alg Algorithm, data []byte) ([]byte, error) {
	f, err := Seal(alg, data)
	if err != nil {
		return nil, err
	}
	return Kind.Encode(f)
}

// Unmarshal decodes an encoded frame and returns the decompressed data.
func Unmarshal(buf []byte) ([]byte, error) {
	f, err := Kind.Decode(buf)
	if err != nil {
		return nil, err
	}
	return Open(f)
}

func compressStream(data []byte, newWriter func(io.Writer) io.WriteCloser) ([]byte, error) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readLimited(r io.Reader, limit int, alg Algorithm) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", alg, err)
	}
	if len(out) > limit {
		return nil, fmt.Errorf("%w: %s payload over %d bytes", ErrTooLarge, alg, limit)
	}
	return out, nil
}
