package cos

import (
	"bytes"
	"compress/lzw"
	"encoding/ascii85"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScriptRock/pdfwrap/internal/pdftest"
)

// streamDoc returns a document whose catalog /Data entry is a stream with
// the given extra dictionary entries and raw data.
func streamDoc(t *testing.T, dict string, data []byte) Obj {
	t.Helper()
	b := pdftest.New()
	b.Set(1, "<< /Type /Catalog /Data 2 0 R >>")
	b.Set(2, pdftest.Stream(dict, data))
	d := newTestDoc(t, b)
	v := d.Root().DictGet("Data")
	require.Equal(t, TypeStream, v.Type())
	return v
}

func TestDecode(t *testing.T) {
	plain := []byte("Hello, PDF world! Hello, PDF world! Hello, PDF world!")

	var a85 bytes.Buffer
	enc := ascii85.NewEncoder(&a85)
	enc.Write(plain)
	enc.Close()

	// Short inputs never reach the code width where EarlyChange matters, so
	// one encoding serves both readers.
	var lzwData bytes.Buffer
	lw := lzw.NewWriter(&lzwData, lzw.MSB, 8)
	lw.Write(plain)
	lw.Close()

	tests := []struct {
		name string
		dict string
		data []byte
		want []byte
	}{
		{"none", "", plain, plain},
		{"flate", "/Filter /FlateDecode", pdftest.Deflate(plain), plain},
		{"flate abbreviated", "/Filter /Fl", pdftest.Deflate(plain), plain},
		{"ascii85", "/Filter /ASCII85Decode", append(a85.Bytes(), "~>"...), plain},
		{"ascii85 wrapped", "/Filter /A85", []byte("<~" + a85.String()[:10] + "\n" + a85.String()[10:] + "~>"), plain},
		{"asciihex", "/Filter /ASCIIHexDecode", []byte("48 65 6c 6C 6f>"), []byte("Hello")},
		{"asciihex odd", "/Filter /AHx", []byte("414>"), []byte("A@")},
		{"runlength", "/Filter /RunLengthDecode", []byte{2, 'a', 'b', 'c', 254, 'z', 128}, []byte("abczzz")},
		{"lzw early change", "/Filter /LZWDecode", lzwData.Bytes(), plain},
		{"lzw no early change", "/Filter /LZWDecode /DecodeParms << /EarlyChange 0 >>", lzwData.Bytes(), plain},
		{"chain", "/Filter [/ASCIIHexDecode /FlateDecode]", []byte(fmt.Sprintf("%x>", pdftest.Deflate(plain))), plain},
		{"image passthrough", "/Filter [/FlateDecode /DCTDecode]", pdftest.Deflate([]byte("\xff\xd8jpeg")), []byte("\xff\xd8jpeg")},
		{"identity crypt", "/Filter /Crypt /DecodeParms << /Name /Identity >>", plain, plain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := streamDoc(t, tt.dict, tt.data)
			got, err := v.StreamDecoded()
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("decoded data mismatch (-want +got):\n%s", diff)
			}
			raw, err := v.StreamRaw()
			require.NoError(t, err)
			assert.Equal(t, tt.data, raw)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		dict string
		data []byte
	}{
		{"unknown filter", "/Filter /NoSuchDecode", []byte("x")},
		{"bad flate", "/Filter /FlateDecode", []byte{0x07, 0x00, 0x00}},
		{"bad hex", "/Filter /ASCIIHexDecode", []byte("zz>")},
		{"bad predictor", "/Filter /FlateDecode /DecodeParms << /Predictor 7 >>", pdftest.Deflate([]byte("abc"))},
		{"ccitt k>0", "/Filter /CCITTFaxDecode /DecodeParms << /K 4 >>", []byte{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := streamDoc(t, tt.dict, tt.data)
			_, err := v.StreamDecoded()
			assert.Error(t, err)
		})
	}
}

func TestDecode_TruncatedFlate(t *testing.T) {
	plain := bytes.Repeat([]byte("truncated flate data "), 200)
	z := pdftest.Deflate(plain)
	v := streamDoc(t, "/Filter /FlateDecode", z[:len(z)-8])
	got, err := v.StreamDecoded()
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.True(t, bytes.HasPrefix(plain, got))
}

func TestStreamLength_Recovered(t *testing.T) {
	b := pdftest.New()
	b.Set(1, "<< /Type /Catalog /Data 2 0 R >>")
	b.Set(2, "<< /Length 99 >>\nstream\nabcdef\nendstream")
	d := newTestDoc(t, b)
	raw, err := d.Root().DictGet("Data").StreamRaw()
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(raw))
}

func TestUnpredict(t *testing.T) {
	p := predictParams{predictor: 12, colors: 1, bpc: 8, columns: 3}
	// Row 1 uses Sub, row 2 uses Up.
	in := []byte{
		1, 10, 1, 1,
		2, 1, 1, 1,
	}
	got, err := unpredict(in, p)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 11, 12, 11, 12, 13}, got)

	p.predictor = 2
	got, err = unpredict([]byte{5, 1, 1, 7, 2, 2}, p)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 7, 7, 9, 11}, got)

	got, err = unpredict([]byte{4, 3, 2, 1}, predictParams{predictor: 10, colors: 1, bpc: 8, columns: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4}, got)
}

func TestPaeth(t *testing.T) {
	assert.Equal(t, byte(10), paeth(10, 20, 20))
	assert.Equal(t, byte(20), paeth(10, 20, 10))
	assert.Equal(t, byte(15), paeth(10, 20, 15))
}

func TestInit_Failure(t *testing.T) {
	in := &initter{setup: func() (map[string]filter, error) {
		return nil, fmt.Errorf("no filters")
	}}
	err := in.init()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Same(t, err, in.init())
}

func TestInit(t *testing.T) {
	require.NoError(t, Init())
	for _, name := range []string{"FlateDecode", "Fl", "LZW", "A85", "AHx", "RL", "CCF", "DCT", "JPXDecode", "JBIG2Decode", "Crypt"} {
		_, ok := lookupFilter(name)
		assert.True(t, ok, name)
	}
}
