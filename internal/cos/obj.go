package cos

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// A Type identifies the kind of a syntax object.
type Type int

const (
	TypeNull Type = iota
	TypeBool
	TypeInt
	TypeReal
	TypeName
	TypeString
	TypeStream
	TypeArray
	TypeDict
	TypeUnknown
)

var typeNames = [...]string{
	TypeNull:    "CosNull",
	TypeBool:    "CosBoolean",
	TypeInt:     "CosInteger",
	TypeReal:    "CosFixed",
	TypeName:    "CosName",
	TypeString:  "CosString",
	TypeStream:  "CosStream",
	TypeArray:   "CosArray",
	TypeDict:    "CosDict",
	TypeUnknown: "CosUnknown",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "CosUnknown"
}

// An Obj is a handle to one syntax object of a Doc. Handles are plain
// values: copying one is free and two handles to the same indirect object
// compare equal by ID.
//
// Accessors for a specific type fault when the handle holds another type.
type Obj struct {
	d    *Doc
	set  bool
	ref  objptr // non-zero for indirect objects
	data object
}

// IsZero reports whether v refers to nothing at all, as opposed to a null.
func (v Obj) IsZero() bool { return !v.set }

// Type returns the kind of v. The zero Obj is TypeNull.
func (v Obj) Type() Type {
	switch v.data.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBool
	case int64:
		return TypeInt
	case float64:
		return TypeReal
	case name:
		return TypeName
	case string:
		return TypeString
	case stream:
		return TypeStream
	case array:
		return TypeArray
	case dict:
		return TypeDict
	}
	return TypeUnknown
}

// IsIndirect reports whether v was reached through an object reference.
func (v Obj) IsIndirect() bool { return v.ref.id != 0 }

// ID returns the object number of an indirect object, or 0.
func (v Obj) ID() uint32 { return v.ref.id }

// Gen returns the generation number of an indirect object.
func (v Obj) Gen() uint16 { return v.ref.gen }

func (v Obj) mustBe(t Type) {
	if got := v.Type(); got != t {
		faultf("%v used as %v", got, t)
	}
}

func (v Obj) Bool() bool {
	v.mustBe(TypeBool)
	return v.data.(bool)
}

func (v Obj) Int() int64 {
	v.mustBe(TypeInt)
	return v.data.(int64)
}

func (v Obj) Real() float64 {
	v.mustBe(TypeReal)
	return v.data.(float64)
}

// Name returns a name without its leading slash.
func (v Obj) Name() string {
	v.mustBe(TypeName)
	return string(v.data.(name))
}

// Str returns the bytes of a string object, decrypted.
func (v Obj) Str() string {
	v.mustBe(TypeString)
	return v.data.(string)
}

func (v Obj) ArrayLen() int {
	v.mustBe(TypeArray)
	return len(v.data.(array))
}

// ArrayGet returns element i, resolving references. It faults when i is
// out of range.
func (v Obj) ArrayGet(i int) Obj {
	v.mustBe(TypeArray)
	a := v.data.(array)
	if i < 0 || i >= len(a) {
		faultf("array index %d out of range [0:%d]", i, len(a))
	}
	return v.d.resolve(a[i])
}

func (v Obj) dict() dict {
	switch x := v.data.(type) {
	case dict:
		return x
	case stream:
		return x.hdr
	}
	faultf("%v used as %v", v.Type(), TypeDict)
	return nil
}

// DictKnown reports whether the dictionary (or stream dictionary) v has key.
func (v Obj) DictKnown(key string) bool {
	_, ok := v.dict()[name(key)]
	return ok
}

// DictGet returns the value for key, resolving references. Missing keys
// yield a null.
func (v Obj) DictGet(key string) Obj {
	return v.d.resolve(v.dict()[name(key)])
}

// DictKeys returns the keys of the dictionary (or stream dictionary) v in
// sorted order.
func (v Obj) DictKeys() []string {
	d := v.dict()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// StreamDict returns the dictionary of the stream v as a direct object.
func (v Obj) StreamDict() Obj {
	v.mustBe(TypeStream)
	return Obj{d: v.d, set: true, data: v.data.(stream).hdr}
}

// StreamRaw returns the stream's data as stored, decrypted but with no
// filters applied.
func (v Obj) StreamRaw() ([]byte, error) {
	v.mustBe(TypeStream)
	if v.d.closed {
		return nil, errClosed
	}
	strm := v.data.(stream)
	data, err := v.d.streamBytes(strm)
	if err != nil {
		return nil, err
	}
	if strm.hdr["Type"] == name("XRef") || hasCryptFilter(strm.hdr) {
		return data, nil
	}
	return v.d.sec.decryptStream(strm.ptr, data)
}

// StreamDecoded returns the stream's data with all of its filters applied.
// Image filters end the chain; their data is returned still encoded.
func (v Obj) StreamDecoded() ([]byte, error) {
	data, err := v.StreamRaw()
	if err != nil {
		return nil, err
	}
	return v.d.decode(v.StreamDict(), data)
}

func hasCryptFilter(hdr dict) bool {
	switch f := hdr["Filter"].(type) {
	case name:
		return f == "Crypt"
	case array:
		return len(f) > 0 && f[0] == name("Crypt")
	}
	return false
}

// streamBytes locates the data of strm. A /Length that is missing or does
// not land on endstream is replaced by a search for the endstream keyword.
func (d *Doc) streamBytes(strm stream) ([]byte, error) {
	if strm.offset < 0 || strm.offset > int64(len(d.data)) {
		return nil, fmt.Errorf("stream %d: data offset %d out of range", strm.ptr.id, strm.offset)
	}
	rest := d.data[strm.offset:]
	length := int64(-1)
	if err := Catch(func() {
		if l := d.resolve(strm.hdr["Length"]); l.Type() == TypeInt {
			length = l.Int()
		}
	}); err != nil {
		length = -1
	}
	if length >= 0 && length <= int64(len(rest)) && endsStream(rest[length:]) {
		return rest[:length], nil
	}
	i := bytes.Index(rest, []byte("endstream"))
	if i < 0 {
		if length >= 0 && length <= int64(len(rest)) {
			return rest[:length], nil
		}
		return nil, fmt.Errorf("stream %d: no endstream", strm.ptr.id)
	}
	end := i
	if end > 0 && rest[end-1] == '\n' {
		end--
	}
	if end > 0 && rest[end-1] == '\r' {
		end--
	}
	if length >= 0 {
		d.log.Debug("stream length does not match data",
			slog.Int("id", int(strm.ptr.id)), slog.Int64("length", length), slog.Int("found", end))
	}
	return rest[:end], nil
}

func endsStream(b []byte) bool {
	b = bytes.TrimLeft(b, "\x00\t\n\f\r ")
	return bytes.HasPrefix(b, []byte("endstream"))
}

// String returns v in PDF syntax, for debugging.
func (v Obj) String() string {
	if v.IsIndirect() {
		return fmt.Sprintf("%d %d R", v.ref.id, v.ref.gen)
	}
	return objfmt(v.data)
}

func objfmt(x object) string {
	switch x := x.(type) {
	default:
		return fmt.Sprint(x)
	case nil:
		return "null"
	case string:
		if printable(x) {
			return strconv.Quote(x)
		}
		return "<" + fmt.Sprintf("%x", x) + ">"
	case name:
		return "/" + string(x)
	case dict:
		var keys []string
		for k := range x {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		var buf strings.Builder
		buf.WriteString("<<")
		for i, k := range keys {
			elem := x[name(k)]
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString("/")
			buf.WriteString(k)
			buf.WriteString(" ")
			buf.WriteString(objfmt(elem))
		}
		buf.WriteString(">>")
		return buf.String()
	case array:
		var buf strings.Builder
		buf.WriteString("[")
		for i, elem := range x {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(objfmt(elem))
		}
		buf.WriteString("]")
		return buf.String()
	case stream:
		return fmt.Sprintf("%v@%d", objfmt(x.hdr), x.offset)
	case objptr:
		return fmt.Sprintf("%d %d R", x.id, x.gen)
	case objdef:
		return fmt.Sprintf("{%d %d obj}%v", x.ptr.id, x.ptr.gen, objfmt(x.obj))
	}
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 && s[i] != '\n' && s[i] != '\r' && s[i] != '\t' || s[i] >= 0x7f {
			return false
		}
	}
	return true
}
