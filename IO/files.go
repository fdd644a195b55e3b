package IO

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/manningwu07/pcadata/generator"
)

const zstdExt = ".zst"

// Format is the on-disk encoding of a matrix file.
type Format int

const (
	FormatCSV Format = iota
	FormatBinary
)

// DetectFormat picks the codec from the file extension, ignoring a trailing
// ".zst". It reports whether the file is zstd-compressed.
func DetectFormat(path string) (Format, bool, error) {
	compressed := strings.HasSuffix(path, zstdExt)
	base := strings.TrimSuffix(path, zstdExt)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv":
		return FormatCSV, compressed, nil
	case ".bin":
		return FormatBinary, compressed, nil
	default:
		return 0, false, errors.Newf("unknown matrix file extension in %q (want .csv or .bin, optionally .zst)", path)
	}
}

// SaveMatrix writes m to path in the format implied by its extension. On
// failure nothing is left at path.
func SaveMatrix(path string, m mat.Matrix) error {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if _, _, err := generator.Shape(m); err != nil {
		return err
	}
	return writeAtomic(path, func(w io.Writer) (err error) {
		if compressed {
			enc, zerr := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
			if zerr != nil {
				return errors.Wrap(zerr, "zstd writer")
			}
			defer func() {
				if cerr := enc.Close(); err == nil {
					err = errors.Wrap(cerr, "zstd close")
				}
			}()
			w = enc
		}
		if format == FormatBinary {
			return WriteBinary(w, m)
		}
		return WriteCSV(w, m)
	})
}

// writeAtomic writes through a temp file in the target directory and renames
// it over path only once write and close both succeed.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	if err = write(tmp); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// LoadMatrix reads a matrix from path in the format implied by its extension.
func LoadMatrix(path string) (*mat.Dense, error) {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load")
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s: zstd reader", path)
		}
		defer dec.Close()
		r = dec
	}

	var m *mat.Dense
	if format == FormatBinary {
		m, err = ReadBinary(r)
	} else {
		var rows [][]float64
		if rows, err = ReadCSV(r); err == nil {
			m, err = generator.FromRows(rows)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return m, nil
}
