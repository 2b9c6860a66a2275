package encoding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode(t *testing.T) {
	testCases := map[string]struct {
		input string
		want  string
	}{
		"ascii":            {input: "Hello", want: "Hello"},
		"empty":            {input: "", want: ""},
		"pdfdoc bullet":    {input: "\x80 item", want: "• item"},
		"pdfdoc euro":      {input: "\xa0100", want: "€100"},
		"utf16 bom":        {input: "\xfe\xff\x00H\x00i", want: "Hi"},
		"utf16 non-latin":  {input: "\xfe\xff\x04\x1f\x04\x40", want: "Пр"},
		"utf8 bom":         {input: "\xef\xbb\xbfcaf\xc3\xa9", want: "café"},
		"undefined passes": {input: "a\x7fb", want: "a\x7fb"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Decode(tc.input)); diff != "" {
				t.Error("decoded text did not match:", diff)
			}
		})
	}
}

func TestIsPDFDocEncoded(t *testing.T) {
	if !IsPDFDocEncoded("plain\ttext\n") {
		t.Error("plain text should be PDFDocEncoded")
	}
	if IsPDFDocEncoded("\x00") {
		t.Error("NUL has no PDFDocEncoding mapping")
	}
	if IsPDFDocEncoded("\xfe\xff\x00A") {
		t.Error("UTF-16 text is not PDFDocEncoded")
	}
}

func TestUTF16Decode_OddLength(t *testing.T) {
	if got := UTF16Decode("\x00A\x00"); got != "A" {
		t.Errorf("UTF16Decode dropped the wrong bytes: %q", got)
	}
}
