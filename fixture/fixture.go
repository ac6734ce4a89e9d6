// Package fixture stores serialized input buffers on disk. Files ending in
// .lz4 or .xz are compressed; anything else is read and written as is.
package fixture

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/errors"
)

// Format is the on-disk encoding of a fixture.
type Format int

const (
	Raw Format = iota
	LZ4
	XZ
)

func (f Format) String() string {
	switch f {
	case LZ4:
		return "lz4"
	case XZ:
		return "xz"
	default:
		return "raw"
	}
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lz4":
		return LZ4
	case ".xz":
		return XZ
	default:
		return Raw
	}
}

// Load reads the fixture at path and checks that it is a well-formed input
// buffer.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load("open fixture", err)
	}
	defer f.Close()

	buf, err := Read(f, FormatOf(path))
	if err != nil {
		return nil, err
	}
	if err := entrypoint.Validate(buf); err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidAccountData, err, path)
	}
	return buf, nil
}

// Read decodes a fixture from r.
func Read(r io.Reader, format Format) ([]byte, error) {
	switch format {
	case LZ4:
		r = lz4.NewReader(r)
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Load("open xz stream", err)
		}
		r = xr
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Load("read "+format.String()+" fixture", err)
	}
	return buf, nil
}

// Save writes buf to path in the format its extension names. The file is
// written to a temporary name first and renamed into place.
func Save(path string, buf []byte) error {
	var out bytes.Buffer
	if err := Write(&out, buf, FormatOf(path)); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out.Bytes(), 0o644); err != nil {
		return errors.Load("write fixture", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Load("rename fixture", err)
	}
	return nil
}

// Write encodes buf to w.
func Write(w io.Writer, buf []byte, format Format) error {
	var (
		zw  io.WriteCloser
		err error
	)
	switch format {
	case LZ4:
		zw = lz4.NewWriter(w)
	case XZ:
		zw, err = xz.NewWriter(w)
		if err != nil {
			return errors.Load("open xz writer", err)
		}
	default:
		if _, err := w.Write(buf); err != nil {
			return errors.Load("write fixture", err)
		}
		return nil
	}

	if _, err := zw.Write(buf); err != nil {
		return errors.Load("write "+format.String()+" fixture", err)
	}
	if err := zw.Close(); err != nil {
		return errors.Load("flush "+format.String()+" fixture", err)
	}
	return nil
}
