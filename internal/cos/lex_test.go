package cos

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readAll(src string) object {
	l := newLexer(strings.NewReader(src), 0)
	l.allowEOF = true
	return l.readObject()
}

func Test_Lexer_ReadObject(t *testing.T) {
	testCases := map[string]struct {
		input string
		want  object
	}{
		"null":           {input: "null", want: nil},
		"true":           {input: "true", want: true},
		"integer":        {input: "-42", want: int64(-42)},
		"real":           {input: "3.25", want: 3.25},
		"leading dot":    {input: "-.5", want: -0.5},
		"huge integer":   {input: "99999999999999999999", want: 1e20},
		"name":           {input: "/Type", want: name("Type")},
		"name escape":    {input: "/A#20B", want: name("A B")},
		"literal":        {input: "(a (nested) string)", want: "a (nested) string"},
		"escapes":        {input: `(\n\t\(\)\\\101\7)`, want: "\n\t()\\A\x07"},
		"continuation":   {input: "(ab\\\ncd)", want: "abcd"},
		"crlf in string": {input: "(a\r\nb\rc)", want: "a\nb\nc"},
		"hex":            {input: "<48 65 6C6C 6F>", want: "Hello"},
		"odd hex":        {input: "<901FA>", want: "\x90\x1f\xa0"},
		"array":          {input: "[1 2 0 R /N (s)]", want: array{int64(1), objptr{2, 0}, name("N"), "s"}},
		"dict":           {input: "<</A 1 /B [true] /C <</D null>>>>", want: dict{"A": int64(1), "B": array{true}, "C": dict{"D": nil}}},
		"comment":        {input: "% comment\n7", want: int64(7)},
		"definition":     {input: "12 0 obj\n<</K /V>>\nendobj", want: objdef{objptr{12, 0}, dict{"K": name("V")}}},
		"no endobj":      {input: "3 1 obj 5", want: objdef{objptr{3, 1}, int64(5)}},
	}

	opt := cmp.AllowUnexported(objptr{}, objdef{}, stream{})
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := readAll(tc.input)
			if diff := cmp.Diff(got, tc.want, opt); diff != "" {
				t.Error("object did not match expectations:", diff)
			}
		})
	}
}

func Test_Lexer_Stream(t *testing.T) {
	src := "4 0 obj\n<</Length 3>>\nstream\r\nabc\nendstream\nendobj"
	def, ok := readAll(src).(objdef)
	if !ok {
		t.Fatalf("got %T, want objdef", def)
	}
	s, ok := def.obj.(stream)
	if !ok {
		t.Fatalf("got %T, want stream", def.obj)
	}
	if s.ptr != (objptr{4, 0}) {
		t.Errorf("stream ptr = %v, want 4 0", s.ptr)
	}
	if got := src[s.offset : s.offset+3]; got != "abc" {
		t.Errorf("stream data at offset %d = %q, want %q", s.offset, got, "abc")
	}
}

func Test_Lexer_Faults(t *testing.T) {
	testCases := map[string]string{
		"open array":      "[1 2",
		"open dict":       "<</A 1",
		"non-name key":    "<<1 2>>",
		"stray delimiter": ")",
		"bad hex":         "<zz>",
		"empty":           "",
	}
	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			err := Catch(func() { readAll(input) })
			if err == nil {
				t.Error("expected a fault")
			}
		})
	}
}

func Test_Objfmt(t *testing.T) {
	testCases := map[string]struct {
		input object
		want  string
	}{
		"null":   {input: nil, want: "null"},
		"name":   {input: name("Type"), want: "/Type"},
		"string": {input: "hi", want: `"hi"`},
		"binary": {input: "\xfe\xff", want: "<feff>"},
		"ref":    {input: objptr{3, 0}, want: "3 0 R"},
		"dict":   {input: dict{"B": int64(2), "A": array{true, 1.5}}, want: "<</A [true 1.5] /B 2>>"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := objfmt(tc.input); got != tc.want {
				t.Errorf("objfmt = %q, want %q", got, tc.want)
			}
		})
	}
}
