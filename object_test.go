package pdfwrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Type_String(t *testing.T) {
	testCases := map[Type]string{
		TypeUnknown: "unknown",
		TypeNull:    "null",
		TypeBoolean: "boolean",
		TypeInteger: "integer",
		TypeFixed:   "fixed-point",
		TypeName:    "name",
		TypeString:  "string",
		TypeStream:  "stream",
		TypeArray:   "array",
		TypeDict:    "dictionary",
		Type(99):    "unknown",
	}
	for typ, want := range testCases {
		assert.Equal(t, want, typ.String())
	}
}

func Test_ParseType(t *testing.T) {
	testCases := map[string]Type{
		"CosNull":    TypeNull,
		"CosBool":    TypeBoolean,
		"CosBoolean": TypeBoolean,
		"CosInteger": TypeInteger,
		"CosFixed":   TypeFixed,
		"CosName":    TypeName,
		"CosString":  TypeString,
		"CosStream":  TypeStream,
		"CosArray":   TypeArray,
		"CosDict":    TypeDict,
		"CosUnknown": TypeUnknown,
		"":           TypeUnknown,
	}
	for name, want := range testCases {
		assert.Equal(t, want, ParseType(name), name)
	}
}

func Test_KeyName(t *testing.T) {
	n, ok := KeyName(Key("Root"))
	assert.True(t, ok)
	assert.True(t, n == Intern("Root"))

	n, ok = KeyName(Intern("Root"))
	assert.True(t, ok)
	assert.True(t, n == Intern("Root"))

	_, ok = KeyName(Name{})
	assert.False(t, ok)
	_, ok = KeyName(Index(0))
	assert.False(t, ok)
}

func Test_Lookup(t *testing.T) {
	d := &fakeObject{typ: TypeDict, dict: map[Name]Object{
		Intern("Count"): scalar(TypeInteger, int64(3)),
		Intern("Type"):  scalar(TypeName, Intern("Pages")),
	}}

	n, ok := Lookup[int64](d, Key("Count"))
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)

	typ, ok := Lookup[Name](d, Key("Type"))
	assert.True(t, ok)
	assert.Equal(t, "Pages", typ.String())

	_, ok = Lookup[bool](d, Key("Count"))
	assert.False(t, ok)
	_, ok = Lookup[int64](d, Key("Missing"))
	assert.False(t, ok)
}

func Test_Summary(t *testing.T) {
	testCases := map[string]struct {
		input Object
		want  string
	}{
		"nil":     {input: nil, want: "{unknown}"},
		"null":    {input: scalar(TypeNull, nil), want: "null"},
		"bool":    {input: scalar(TypeBoolean, true), want: "true"},
		"integer": {input: scalar(TypeInteger, int64(-7)), want: "-7"},
		"fixed":   {input: scalar(TypeFixed, 0.5), want: "0.5"},
		"whole":   {input: scalar(TypeFixed, 612.0), want: "612"},
		"name":    {input: scalar(TypeName, Intern("Catalog")), want: "/Catalog"},
		"string":  {input: scalar(TypeString, "hello"), want: "(hello)"},
		"array":   {input: &fakeObject{typ: TypeArray}, want: "[...]"},
		"dict":    {input: &fakeObject{typ: TypeDict}, want: "<<...>>"},
		"stream":  {input: &fakeObject{typ: TypeStream}, want: "{stream}"},
		"unknown": {input: scalar(TypeUnknown, nil), want: "{unknown}"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summary(tc.input))
		})
	}
}

func Test_DecodeText(t *testing.T) {
	assert.Equal(t, "plain", DecodeText("plain"))
	assert.Equal(t, "Hi", DecodeText("\xfe\xff\x00H\x00i"))
}

func Test_UnsupportedError(t *testing.T) {
	err := Unsupported(new(complex128))
	assert.Equal(t, "pdfwrap: unsupported destination type *complex128", err.Error())

	d := scalar(TypeInteger, int64(1))
	assert.PanicsWithError(t, "pdfwrap: unsupported destination type *chan int", func() {
		d.Get(new(chan int), Index(0))
	})
}
