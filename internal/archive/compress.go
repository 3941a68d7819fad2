package archive

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how a session file is encoded before upload.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression parses a compression name. Empty means zstd.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none":
		return CompressionNone, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none, zstd or lz4)", name)
	}
}

// Ext returns the file extension appended to archived object names.
func (c Compression) Ext() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ContentType returns the MIME type used when uploading.
func (c Compression) ContentType() string {
	switch c {
	case CompressionZstd:
		return "application/zstd"
	case CompressionLZ4:
		return "application/x-lz4"
	default:
		return "text/csv"
	}
}

// Compress copies src to dst using the selected frame format. Both zstd and
// lz4 output are standard frames readable by the command-line tools.
func Compress(dst io.Writer, src io.Reader, c Compression) error {
	var w io.WriteCloser
	switch c {
	case CompressionNone:
		_, err := io.Copy(dst, src)
		return err
	case CompressionZstd:
		zw, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = zw
	case CompressionLZ4:
		w = lz4.NewWriter(dst)
	default:
		return fmt.Errorf("unsupported compression %q", c)
	}

	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return fmt.Errorf("%s compress: %w", c, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s compress: %w", c, err)
	}
	return nil
}

// Decompress reverses Compress.
func Decompress(dst io.Writer, src io.Reader, c Compression) error {
	switch c {
	case CompressionNone:
		_, err := io.Copy(dst, src)
		return err
	case CompressionZstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		if _, err := io.Copy(dst, zr); err != nil {
			return fmt.Errorf("zstd decompress: %w", err)
		}
		return nil
	case CompressionLZ4:
		if _, err := io.Copy(dst, lz4.NewReader(src)); err != nil {
			return fmt.Errorf("lz4 decompress: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported compression %q", c)
	}
}
