package cos

import (
	"bytes"
	"compress/flate"
	"compress/lzw"
	"compress/zlib"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/image/ccitt"
	tifflzw "golang.org/x/image/tiff/lzw"
)

// A filterFunc decodes data with one stream filter.
type filterFunc func(d *Doc, data []byte, parms Obj) ([]byte, error)

// A filter is one entry of the decode table.
type filter struct {
	name   string
	decode filterFunc
	// image filters produce pixel data the engine does not interpret; the
	// chain stops in front of them and the data is passed through.
	image bool
}

// decode applies the stream's /Filter chain to data.
func (d *Doc) decode(hdr Obj, data []byte) (out []byte, err error) {
	var filters, parms []Obj
	err = Catch(func() {
		switch f := hdr.DictGet("Filter"); f.Type() {
		case TypeNull:
		case TypeName:
			filters = []Obj{f}
			parms = []Obj{hdr.DictGet("DecodeParms")}
		case TypeArray:
			p := hdr.DictGet("DecodeParms")
			for i := 0; i < f.ArrayLen(); i++ {
				filters = append(filters, f.ArrayGet(i))
				if p.Type() == TypeArray && i < p.ArrayLen() {
					parms = append(parms, p.ArrayGet(i))
				} else {
					parms = append(parms, Obj{})
				}
			}
		default:
			faultf("invalid /Filter %v", f)
		}
	})
	if err != nil {
		return nil, err
	}

	for i, f := range filters {
		if f.Type() != TypeName {
			return nil, fmt.Errorf("invalid filter %v", f)
		}
		flt, ok := lookupFilter(f.Name())
		if !ok {
			return nil, fmt.Errorf("unsupported filter %s", f.Name())
		}
		if flt.image {
			d.log.Debug("image filter left encoded", slog.String("filter", flt.name))
			break
		}
		var ferr error
		if cerr := Catch(func() { data, ferr = flt.decode(d, data, parms[i]) }); cerr != nil {
			ferr = cerr
		}
		if ferr != nil {
			return nil, fmt.Errorf("%s: %w", flt.name, ferr)
		}
	}
	return data, nil
}

func decodeFlate(d *Doc, data []byte, parms Obj) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		// Some writers omit the zlib header.
		zr = flate.NewReader(bytes.NewReader(data))
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		if len(out) == 0 || !truncated(err) {
			return nil, err
		}
		d.log.Debug("flate data truncated", slog.Int("decoded", len(out)), slog.String("err", err.Error()))
	}
	return unpredict(out, readPredictParams(parms))
}

func truncated(err error) bool {
	var ce flate.CorruptInputError
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &ce) || errors.Is(err, zlib.ErrChecksum)
}

func decodeLZW(d *Doc, data []byte, parms Obj) ([]byte, error) {
	early := 1
	if parms.Type() == TypeDict {
		intParam(parms, "EarlyChange", &early)
	}
	var r io.ReadCloser
	if early == 0 {
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	} else {
		r = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		if len(out) == 0 {
			return nil, err
		}
		d.log.Debug("lzw data truncated", slog.Int("decoded", len(out)), slog.String("err", err.Error()))
	}
	return unpredict(out, readPredictParams(parms))
}

func decodeASCII85(_ *Doc, data []byte, _ Obj) ([]byte, error) {
	clean := make([]byte, 0, len(data))
	for _, c := range data {
		if !isSpace(c) {
			clean = append(clean, c)
		}
	}
	clean = bytes.TrimPrefix(clean, []byte("<~"))
	if i := bytes.Index(clean, []byte("~>")); i >= 0 {
		clean = clean[:i]
	} else if n := len(clean); n > 0 && clean[n-1] == '~' {
		clean = clean[:n-1]
	}
	out := make([]byte, 4*len(clean)+4)
	n, _, err := ascii85.Decode(out, clean, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

func decodeASCIIHex(_ *Doc, data []byte, _ Obj) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	hi := -1
	for _, c := range data {
		if c == '>' {
			break
		}
		if isSpace(c) {
			continue
		}
		x := unhex(c)
		if x < 0 {
			return nil, fmt.Errorf("invalid hex digit %q", c)
		}
		if hi < 0 {
			hi = x
			continue
		}
		out = append(out, byte(hi<<4|x))
		hi = -1
	}
	if hi >= 0 {
		out = append(out, byte(hi<<4))
	}
	return out, nil
}

func decodeRunLength(_ *Doc, data []byte, _ Obj) ([]byte, error) {
	var out []byte
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + n + 1
			if end > len(data) {
				end = len(data)
			}
			out = append(out, data[i:end]...)
			i = end
		default:
			if i >= len(data) {
				return out, nil
			}
			out = append(out, bytes.Repeat(data[i:i+1], 257-n)...)
			i++
		}
	}
	return out, nil
}

func decodeCCITTFax(_ *Doc, data []byte, parms Obj) ([]byte, error) {
	k, columns, rows := 0, 1728, 0
	var blackIs1, align bool
	if parms.Type() == TypeDict {
		intParam(parms, "K", &k)
		intParam(parms, "Columns", &columns)
		intParam(parms, "Rows", &rows)
		if v := parms.DictGet("BlackIs1"); v.Type() == TypeBool {
			blackIs1 = v.Bool()
		}
		if v := parms.DictGet("EncodedByteAlign"); v.Type() == TypeBool {
			align = v.Bool()
		}
	}
	if k > 0 {
		return nil, fmt.Errorf("mixed one- and two-dimensional encoding (K=%d) is not supported", k)
	}
	sf := ccitt.Group3
	if k < 0 {
		sf = ccitt.Group4
	}
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, &ccitt.Options{Invert: blackIs1, Align: align})
	return io.ReadAll(r)
}

func decodeCrypt(_ *Doc, data []byte, parms Obj) ([]byte, error) {
	if parms.Type() == TypeDict {
		if n := parms.DictGet("Name"); n.Type() == TypeName && n.Name() != "Identity" {
			return nil, fmt.Errorf("crypt filter %s is not supported", n.Name())
		}
	}
	return data, nil
}
