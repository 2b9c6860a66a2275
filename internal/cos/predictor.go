package cos

import "fmt"

// predictParams are the DecodeParms entries shared by Flate and LZW.
type predictParams struct {
	predictor int
	colors    int
	bpc       int
	columns   int
}

func readPredictParams(parms Obj) predictParams {
	p := predictParams{predictor: 1, colors: 1, bpc: 8, columns: 1}
	if parms.Type() != TypeDict {
		return p
	}
	intParam(parms, "Predictor", &p.predictor)
	intParam(parms, "Colors", &p.colors)
	intParam(parms, "BitsPerComponent", &p.bpc)
	intParam(parms, "Columns", &p.columns)
	return p
}

func intParam(parms Obj, key string, dst *int) {
	if v := parms.DictGet(key); v.Type() == TypeInt {
		*dst = int(v.Int())
	}
}

func (p predictParams) bytesPerPixel() int {
	bpp := (p.colors*p.bpc + 7) / 8
	if bpp < 1 {
		bpp = 1
	}
	return bpp
}

func (p predictParams) rowSize() int {
	return (p.colors*p.bpc*p.columns + 7) / 8
}

// unpredict reverses a TIFF or PNG predictor.
func unpredict(data []byte, p predictParams) ([]byte, error) {
	if p.colors < 1 || p.bpc < 1 || p.columns < 1 || p.colors > 32 || p.bpc > 16 {
		return nil, fmt.Errorf("invalid predictor parameters %+v", p)
	}
	switch {
	case p.predictor <= 1:
		return data, nil
	case p.predictor == 2:
		return unpredictTIFF(data, p)
	case p.predictor >= 10 && p.predictor <= 15:
		return unpredictPNG(data, p)
	}
	return nil, fmt.Errorf("unsupported predictor %d", p.predictor)
}

func unpredictTIFF(data []byte, p predictParams) ([]byte, error) {
	if p.bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor with %d bits per component", p.bpc)
	}
	row := p.rowSize()
	out := make([]byte, len(data))
	copy(out, data)
	for start := 0; start+row <= len(out); start += row {
		r := out[start : start+row]
		for i := p.colors; i < len(r); i++ {
			r[i] += r[i-p.colors]
		}
	}
	return out, nil
}

func unpredictPNG(data []byte, p predictParams) ([]byte, error) {
	row := p.rowSize()
	bpp := p.bytesPerPixel()
	prev := make([]byte, row)
	out := make([]byte, 0, len(data)/(row+1)*row)
	for len(data) > 0 {
		n := row + 1
		if len(data) < n {
			// Short final row.
			n = len(data)
		}
		tag, cur := data[0], append([]byte(nil), data[1:n]...)
		data = data[n:]
		for i := range cur {
			var left, up, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]
			switch tag {
			case 0:
			case 1:
				cur[i] += left
			case 2:
				cur[i] += up
			case 3:
				cur[i] += byte((int(left) + int(up)) / 2)
			case 4:
				cur[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("malformed PNG predictor tag %d", tag)
			}
		}
		out = append(out, cur...)
		copy(prev, cur)
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
