// FILE: lixenwraith/logfile/compress.go
package logfile

import (
	"context"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// copyChunkSize bounds the work done between cancellation checks
const copyChunkSize = 256 * 1024

// compressPass compresses every rotated file of this logger that is not yet
// an archive and returns the number compressed. Passes never overlap.
func (l *Logger) compressPass(ctx context.Context) (int, error) {
	l.compressMu.Lock()
	defer l.compressMu.Unlock()

	s := l.getSettings()
	if s.compressionFormat == CompressionNone {
		return 0, nil
	}

	files, err := listLogFiles(l.fs, s.directory, s.name, s.extension)
	if err != nil {
		return 0, err
	}

	archived := make(map[string]bool)
	for _, f := range files {
		if f.Compressed {
			archived[f.Name] = true
		}
	}

	compressed := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return compressed, err
		}
		if f.Compressed {
			continue
		}
		// Loaded after the listing: the writer publishes a path before creating it
		if f.Path == l.CurrentFile() {
			continue
		}

		archive := archiveName(f.Path, s.compressionFormat)
		if archived[archiveName(f.Name, s.compressionFormat)] {
			// A previous pass renamed the archive but failed to remove the original
			if err := l.fs.Remove(f.Path); err != nil && !isNotExist(err) {
				l.reportError("compress", ioError("remove compressed original", f.Path, err))
			}
			continue
		}

		if err := compressFile(ctx, l.fs, f.Path, archive, s.compressionFormat); err != nil {
			if isNotExist(err) {
				// Removed by someone else meanwhile
				continue
			}
			if ctx.Err() != nil {
				return compressed, ctx.Err()
			}
			l.reportError("compress", err)
			continue
		}

		if err := retryFileOperation(func() error { return l.fs.Remove(f.Path) }, 3, minWaitTime); err != nil && !isNotExist(err) {
			// The archive is complete; the next pass removes the original
			l.reportError("compress", ioError("remove compressed original", f.Path, err))
		}

		compressed++
		l.state.TotalCompressions.Add(1)
		l.emit(EventCompressed, archive)
	}

	return compressed, nil
}

// compressFile streams src into a temporary file next to dst and renames it
// into place once complete. The source is left untouched.
func compressFile(ctx context.Context, fsys FileSystem, src, dst, format string) (err error) {
	in, err := fsys.Open(src)
	if err != nil {
		return ioError("open", src, err)
	}
	defer in.Close()

	tmp := dst + tmpSuffix
	out, err := fsys.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return ioError("create", tmp, err)
	}
	closed := false
	defer func() {
		if err != nil {
			if !closed {
				_ = out.Close()
			}
			_ = fsys.Remove(tmp)
		}
	}()

	enc, err := newEncoder(out, format)
	if err != nil {
		return fmtErrorf("init %s encoder for '%s': %w", format, dst, err)
	}

	if err = copyWithContext(ctx, enc, in); err != nil {
		_ = enc.Close()
		return ioError("compress", src, err)
	}
	if err = enc.Close(); err != nil {
		return ioError("finalize", tmp, err)
	}
	if err = out.Sync(); err != nil {
		return ioError("sync", tmp, err)
	}
	closed = true
	if err = out.Close(); err != nil {
		return ioError("close", tmp, err)
	}

	if err = fsys.Rename(tmp, dst); err != nil {
		return ioError("rename", tmp, err)
	}
	return nil
}

// newEncoder returns a compressing writer for the archive format
func newEncoder(w io.Writer, format string) (io.WriteCloser, error) {
	switch format {
	case CompressionZstd:
		return zstd.NewWriter(w)
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	default:
		return nil, fmtErrorf("%w: unsupported compression format '%s'", ErrConfiguration, format)
	}
}

// copyWithContext copies in chunks, stopping between chunks when ctx is done
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, copyChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
