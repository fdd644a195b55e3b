package IO

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/manningwu07/pcadata/generator"
)

// WriteCSV writes m with one CSV record per matrix row.
func WriteCSV(w io.Writer, m mat.Matrix) error {
	r, c := m.Dims()
	cw := csv.NewWriter(w)
	record := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write csv row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// ReadCSV reads every record of r as a row of floats. Records may differ in
// length; callers decide whether that is an error.
func ReadCSV(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]float64
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv record")
		}
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %d", len(rows), j)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteBinary writes m as little-endian int64 rows, int64 cols and then the
// row-major float64 payload.
func WriteBinary(w io.Writer, m mat.Matrix) error {
	r, c := m.Dims()
	bw := bufio.NewWriter(w)
	buf8 := make([]byte, 8)

	binary.LittleEndian.PutUint64(buf8, uint64(r))
	if _, err := bw.Write(buf8); err != nil {
		return errors.Wrap(err, "write header")
	}
	binary.LittleEndian.PutUint64(buf8, uint64(c))
	if _, err := bw.Write(buf8); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			binary.LittleEndian.PutUint64(buf8, math.Float64bits(m.At(i, j)))
			if _, err := bw.Write(buf8); err != nil {
				return errors.Wrapf(err, "write element (%d,%d)", i, j)
			}
		}
	}
	return errors.Wrap(bw.Flush(), "flush binary")
}

// maxBinaryElems caps the payload ReadBinary will allocate for.
const maxBinaryElems = 1 << 28

// ReadBinary reads a matrix written by WriteBinary.
func ReadBinary(r io.Reader) (*mat.Dense, error) {
	br := bufio.NewReader(r)
	var hdr [2]int64
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	rows, cols := hdr[0], hdr[1]
	if rows <= 0 || cols <= 0 || rows > maxBinaryElems/cols {
		return nil, errors.Wrapf(generator.ErrShapeMismatch, "bad binary header %dx%d", rows, cols)
	}
	data := make([]float64, rows*cols)
	if err := binary.Read(br, binary.LittleEndian, data); err != nil {
		return nil, errors.Wrap(err, "read payload")
	}
	return mat.NewDense(int(rows), int(cols), data), nil
}
