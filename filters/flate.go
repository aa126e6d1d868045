package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"io/ioutil"
)

// the PNG/TIFF predictor postprocessing is adapted from pdfcpu/filter.

func decodeFlateWithPredictor(params Params, src []byte) ([]byte, error) {
	rc, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, &Error{Filter: Flate, Stage: "decode", Err: err}
	}
	defer rc.Close()

	pp, err := processFlateParams(params)
	if err != nil {
		return nil, &Error{Filter: Flate, Stage: "params", Err: err}
	}

	out, err := pp.decodePostProcess(rc)
	if err != nil {
		return nil, &Error{Filter: Flate, Stage: "decode", Err: err}
	}
	return ioutil.ReadAll(out)
}

func encodeFlate(src []byte, params Params) ([]byte, error) {
	pp, err := processFlateParams(params)
	if err != nil {
		return nil, &Error{Filter: Flate, Stage: "params", Err: err}
	}

	var buf bytes.Buffer
	var w *zlib.Writer
	if params.Level >= 1 && params.Level <= 9 {
		w, err = zlib.NewWriterLevel(&buf, params.Level)
		if err != nil {
			return nil, &Error{Filter: Flate, Stage: "encode", Err: err}
		}
	} else {
		w = zlib.NewWriter(&buf)
	}
	if pp.predictor == 0 || pp.predictor == 1 {
		if _, err := w.Write(src); err != nil {
			return nil, &Error{Filter: Flate, Stage: "encode", Err: err}
		}
	} else {
		pre, err := pp.encodePreProcess(src)
		if err != nil {
			return nil, &Error{Filter: Flate, Stage: "encode", Err: err}
		}
		if _, err := w.Write(pre); err != nil {
			return nil, &Error{Filter: Flate, Stage: "encode", Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Filter: Flate, Stage: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// post process params
type flateDecodeParams struct {
	predictor int

	colors  int
	bpc     int
	columns int
}

func processFlateParams(params Params) (out flateDecodeParams, err error) {
	predictor := params.Predictor
	switch predictor {
	case 0, 1, 2, 10, 11, 12, 13, 14, 15:
	default:
		return out, fmt.Errorf("unexpected Predictor: %d", predictor)
	}

	// Colors, int
	// The number of interleaved colour components per sample.
	// Valid values are 1 to 4 (PDF 1.0) and 1 or greater (PDF 1.3). Default value: 1.
	// Used by PredictorTIFF only.
	colors := params.Colors
	if colors == 0 {
		colors = 1
	} else if colors < 0 {
		return out, fmt.Errorf("Colors must be > 0, got %d", colors)
	}

	// BitsPerComponent, int
	// The number of bits used to represent each colour component in a sample.
	// Valid values are 1, 2, 4, 8, and (PDF 1.5) 16. Default value: 8.
	// Used by PredictorTIFF only.
	bpc := params.BitsPerComponent
	if bpc == 0 {
		bpc = 8
	} else {
		switch bpc {
		case 1, 2, 4, 8, 16:
		default:
			return out, fmt.Errorf("unexpected BitsPerComponent: %d", bpc)
		}
	}

	// Columns, int
	// The number of samples in each row. Default value: 1.
	columns := params.Columns
	if columns == 0 {
		columns = 1
	}

	return flateDecodeParams{predictor: predictor, colors: colors, bpc: bpc, columns: columns}, nil
}

func (f flateDecodeParams) rowSize() int {
	return f.bpc * f.colors * f.columns / 8
}

// decodePostProcess reverses the PNG (predictor >= 10) or TIFF (predictor ==
// 2) row filter applied before compression. predictor 0 or 1 is a no-op.
func (f flateDecodeParams) decodePostProcess(r io.Reader) (io.Reader, error) {
	if f.predictor == 0 || f.predictor == 1 {
		return r, nil
	}

	bytesPerPixel := (f.bpc*f.colors + 7) / 8

	rowSize := f.rowSize()
	if f.predictor != 2 {
		// PNG prediction uses a row filter byte prefixing the pixelbytes of a row.
		rowSize++
	}

	// cr and pr are the bytes for the current and previous row.
	cr := make([]byte, rowSize)
	pr := make([]byte, rowSize)

	// Output buffer
	var out []byte

	for {
		// Read decompressed bytes for one pixel row.
		_, err := io.ReadFull(r, cr)
		if err != nil {
			if err != io.EOF {
				return nil, err
			}
			break
		}

		d, err := processRow(pr, cr, f.predictor, f.colors, bytesPerPixel)
		if err != nil {
			return nil, err
		}

		out = append(out, d...)

		// Swap byte slices.
		pr, cr = cr, pr
	}

	if len(out)%f.rowSize() != 0 {
		return nil, fmt.Errorf("postprocessing failed (%d %d)", len(out), f.rowSize())
	}

	return bytes.NewReader(out), nil
}

// encodePreProcess applies the PNG "none" row filter (type 0) ahead of
// compression for any predictor >= 10: it is always a valid choice and
// spares us the heuristics a real PDF producer uses to pick the best filter
// type per row. For predictor 2 it applies TIFF horizontal differencing.
func (f flateDecodeParams) encodePreProcess(src []byte) ([]byte, error) {
	row := f.rowSize()
	if row <= 0 {
		return nil, fmt.Errorf("invalid row size")
	}
	if len(src)%row != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of row size %d", len(src), row)
	}

	if f.predictor == 2 {
		// TIFF predictor: horizontal difference, reversible in place.
		out := make([]byte, len(src))
		copy(out, src)
		for start := 0; start < len(out); start += row {
			applyHorDiffEncode(out[start:start+row], f.colors)
		}
		return out, nil
	}

	out := make([]byte, 0, len(src)+len(src)/row+1)
	for start := 0; start < len(src); start += row {
		out = append(out, 0) // filter type 0: none
		out = append(out, src[start:start+row]...)
	}
	return out, nil
}

func applyHorDiffEncode(row []byte, colors int) {
	for i := len(row)/colors - 1; i >= 1; i-- {
		for j := 0; j < colors; j++ {
			row[i*colors+j] -= row[(i-1)*colors+j]
		}
	}
}

func processRow(pr, cr []byte, p, colors, bytesPerPixel int) ([]byte, error) {
	if p == 2 { // TIFF
		return applyHorDiff(cr, colors)
	}

	// Apply the filter.
	cdat := cr[1:]
	pdat := pr[1:]

	// Get row filter from 1st byte
	f := int(cr[0])

	// The value of Predictor supplied by the decoding filter need not match the value
	// used when the data was encoded if they are both greater than or equal to 10.

	switch f {
	case 0:
		// No operation.
	case 1:
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += cdat[i-bytesPerPixel]
		}
	case 2:
		for i, p := range pdat {
			cdat[i] += p
		}
	case 3:
		// The average of the two neighboring pixels (left and above).
		// Raw(x) - floor((Raw(x-bpp)+Prior(x))/2)
		for i := 0; i < bytesPerPixel; i++ {
			cdat[i] += pdat[i] / 2
		}
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += uint8((int(cdat[i-bytesPerPixel]) + int(pdat[i])) / 2)
		}
	case 4:
		filterPaeth(cdat, pdat, bytesPerPixel)
	default:
		return nil, fmt.Errorf("unsupported PNG filter type %d", f)
	}

	return cdat, nil
}

func applyHorDiff(row []byte, colors int) ([]byte, error) {
	// This works for 8 bits per color only.
	for i := 1; i < len(row)/colors; i++ {
		for j := 0; j < colors; j++ {
			row[i*colors+j] += row[(i-1)*colors+j]
		}
	}
	return row, nil
}

func abs(x int32) int32 {
	const intSize = 32

	// m := -1 if x < 0. m := 0 otherwise.
	m := x >> (intSize - 1)
	return (x ^ m) - m
}

// filterPaeth applies the Paeth filter to the cdat slice.
// cdat is the current row's data, pdat is the previous row's data.
func filterPaeth(cdat, pdat []byte, bytesPerPixel int) {
	var a, b, c, pa, pb, pc int32
	for i := 0; i < bytesPerPixel; i++ {
		a, c = 0, 0
		for j := i; j < len(cdat); j += bytesPerPixel {
			b = int32(pdat[j])
			pa = b - c
			pb = a - c
			pc = abs(pa + pb)
			pa = abs(pa)
			pb = abs(pb)
			if pa <= pb && pa <= pc {
				// No-op.
			} else if pb <= pc {
				a = b
			} else {
				a = c
			}
			a += int32(cdat[j])
			a &= 0xff
			cdat[j] = uint8(a)
			c = b
		}
	}
}
