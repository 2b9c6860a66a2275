package pdfwrap

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ScriptRock/pdfwrap/internal/encoding"
)

// A Type specifies the kind of PDF value underlying an Object.
type Type int

// The PDF value types.
const (
	TypeUnknown Type = iota
	TypeNull
	TypeBoolean
	TypeInteger
	TypeFixed
	TypeName
	TypeString
	TypeStream
	TypeArray
	TypeDict
)

var typeNames = map[Type]string{
	TypeNull:    "null",
	TypeBoolean: "boolean",
	TypeInteger: "integer",
	TypeFixed:   "fixed-point",
	TypeName:    "name",
	TypeString:  "string",
	TypeStream:  "stream",
	TypeArray:   "array",
	TypeDict:    "dictionary",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseType maps an engine type name such as "CosDict" to a Type.
// Unrecognised names yield TypeUnknown.
func ParseType(engineName string) Type {
	switch engineName {
	case "CosNull":
		return TypeNull
	case "CosBool", "CosBoolean":
		return TypeBoolean
	case "CosInteger":
		return TypeInteger
	case "CosFixed", "CosReal":
		return TypeFixed
	case "CosName":
		return TypeName
	case "CosString":
		return TypeString
	case "CosStream":
		return TypeStream
	case "CosArray":
		return TypeArray
	case "CosDict":
		return TypeDict
	}
	return TypeUnknown
}

// An ID is the object number of an indirect object.
type ID int64

// InvalidID is the ID of every direct object.
const InvalidID ID = math.MaxInt64

// A Selector picks a child of an Object: an Index into an array (or 0 for a
// scalar), or a dictionary key given as a Name or a Key.
type Selector interface {
	selector()
}

// An Index selects an array element.
type Index int

// A Key selects a dictionary entry by its string form. It is interned
// before use, so Key("Type") and Intern("Type") select the same entry.
type Key string

func (Index) selector() {}
func (Name) selector()  {}
func (Key) selector()   {}

// Name returns the interned form of k.
func (k Key) Name() Name { return Intern(string(k)) }

// KeyName returns the Name that sel refers to, if sel is a Name or a Key.
func KeyName(sel Selector) (Name, bool) {
	switch s := sel.(type) {
	case Name:
		return s, s.IsValid()
	case Key:
		return s.Name(), true
	}
	return Name{}, false
}

// A Buffer receives the raw bytes of a stream: decrypted, but with its
// filters still applied.
type Buffer []byte

// An Object is one PDF value in a Document.
//
// Get copies the child picked by sel into dest, which must be one of
//
//	*bool
//	*int, *int64, *uint   integers; *uint rejects negative values
//	*float32, *float64    fixed-point (real) values only
//	*Name
//	*string               string bytes as stored
//	*Object               any child, null included
//	*Buffer               raw stream data
//	*io.ReadCloser        stream data with its filters decoded
//
// Get reports false and leaves dest alone when the child is missing or its
// type does not match dest. Any other dest type is a programming error and
// Get panics with an *UnsupportedError.
//
// Arrays are indexed from 0; every other type has Len 1 and yields itself at
// Index(0). Dictionaries and streams are keyed by Name or Key. A dictionary
// entry whose value is null counts as missing.
type Object interface {
	Type() Type
	IsIndirect() bool
	// ID is InvalidID for direct objects.
	ID() ID
	Len() int
	Keys() (NameSet, bool)
	HasKey(sel Selector) bool
	Get(dest any, sel Selector) bool
	// Document returns the Document the Object was read from.
	Document() Document
}

// An UnsupportedError is the panic value for a Get destination that no
// binding can fill.
type UnsupportedError struct {
	Dest string // Go type of the destination
	Op   string
}

func (e *UnsupportedError) Error() string {
	if e.Op != "" {
		return "pdfwrap: unsupported operation " + e.Op
	}
	return "pdfwrap: unsupported destination type " + e.Dest
}

// Unsupported returns the panic value for dest.
func Unsupported(dest any) *UnsupportedError {
	return &UnsupportedError{Dest: fmt.Sprintf("%T", dest)}
}

// Lookup is a typed form of Get.
func Lookup[T any](o Object, sel Selector) (T, bool) {
	var v T
	ok := o.Get(&v, sel)
	return v, ok
}

// Summary renders o on one line, without descending into containers.
func Summary(o Object) string {
	if o == nil {
		return "{unknown}"
	}
	self := Index(0)
	switch o.Type() {
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v, ok := Lookup[bool](o, self); ok {
			return strconv.FormatBool(v)
		}
	case TypeInteger:
		if v, ok := Lookup[int64](o, self); ok {
			return strconv.FormatInt(v, 10)
		}
	case TypeFixed:
		if v, ok := Lookup[float64](o, self); ok {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	case TypeName:
		if v, ok := Lookup[Name](o, self); ok {
			return "/" + v.String()
		}
	case TypeString:
		if v, ok := Lookup[string](o, self); ok {
			return "(" + v + ")"
		}
	case TypeArray:
		return "[...]"
	case TypeDict:
		return "<<...>>"
	case TypeStream:
		return "{stream}"
	default:
		return "{unknown}"
	}
	return ""
}

// DecodeText decodes a PDF text string (PDFDocEncoding, or UTF-16BE and
// UTF-8 with a byte order mark) to UTF-8. Other bytes are returned as is.
func DecodeText(raw string) string {
	return encoding.Decode(raw)
}
