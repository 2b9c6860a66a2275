package cosdoc

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/ScriptRock/pdfwrap"
	"github.com/ScriptRock/pdfwrap/internal/cos"
)

// An object is the binding for one engine handle.
type object struct {
	doc *document
	co  cos.Obj
	typ pdfwrap.Type
	// children caches key lookups; values are never nil.
	children map[pdfwrap.Name]pdfwrap.Object
}

func newObject(d *document, co cos.Obj) *object {
	typ, ok := typeMap[co.Type()]
	if !ok {
		typ = pdfwrap.TypeUnknown
	}
	return &object{doc: d, co: co, typ: typ}
}

func (o *object) Type() pdfwrap.Type { return o.typ }

func (o *object) IsIndirect() bool { return o.co.IsIndirect() }

func (o *object) ID() pdfwrap.ID {
	if !o.co.IsIndirect() {
		return pdfwrap.InvalidID
	}
	return pdfwrap.ID(o.co.ID())
}

func (o *object) Len() int {
	if o.typ != pdfwrap.TypeArray {
		return 1
	}
	n := 0
	o.doc.guard(func() { n = o.co.ArrayLen() })
	return n
}

func (o *object) Document() pdfwrap.Document { return o.doc }

func (o *object) keyed() bool {
	return o.typ == pdfwrap.TypeDict || o.typ == pdfwrap.TypeStream
}

// Keys lists the entries of a dictionary or stream dictionary that HasKey
// reports: null values, dangling references and referents the engine
// cannot load are left out one key at a time.
func (o *object) Keys() (pdfwrap.NameSet, bool) {
	if !o.keyed() || !o.doc.IsValid() {
		return nil, false
	}
	var keys []string
	if !o.doc.guard(func() { keys = o.co.DictKeys() }) {
		return nil, false
	}
	set := pdfwrap.NameSet{}
	for _, k := range keys {
		if o.HasKey(pdfwrap.Key(k)) {
			set.Add(pdfwrap.Intern(k))
		}
	}
	return set, true
}

func (o *object) HasKey(sel pdfwrap.Selector) bool {
	var c pdfwrap.Object
	return o.Get(&c, sel)
}

// child returns the value sel picks out of o.
func (o *object) child(sel pdfwrap.Selector) (pdfwrap.Object, bool) {
	if !o.doc.IsValid() {
		return nil, false
	}
	if i, ok := sel.(pdfwrap.Index); ok {
		if i < 0 || int(i) >= o.Len() {
			return nil, false
		}
		if o.typ != pdfwrap.TypeArray {
			return o, true
		}
		var co cos.Obj
		if !o.doc.guard(func() { co = o.co.ArrayGet(int(i)) }) {
			return nil, false
		}
		return o.doc.resolve(co), true
	}

	key, ok := pdfwrap.KeyName(sel)
	if !ok || !o.keyed() {
		return nil, false
	}
	if c, ok := o.children[key]; ok {
		return c, true
	}
	var co cos.Obj
	if !o.doc.guard(func() { co = o.co.DictGet(key.String()) }) || co.Type() == cos.TypeNull {
		return nil, false
	}
	c := o.doc.resolve(co)
	if o.children == nil {
		o.children = make(map[pdfwrap.Name]pdfwrap.Object)
	}
	o.children[key] = c
	return c, true
}

// Get implements pdfwrap.Object. The destination is checked before the
// engine is consulted, so an unsupported destination panics even when the
// child is missing.
func (o *object) Get(dest any, sel pdfwrap.Selector) bool {
	switch dest.(type) {
	case *pdfwrap.Object, *bool, *int, *int64, *uint, *float32, *float64,
		*pdfwrap.Name, *string, *pdfwrap.Buffer, *io.ReadCloser:
	default:
		panic(pdfwrap.Unsupported(dest))
	}

	c, ok := o.child(sel)
	if !ok {
		return false
	}
	if p, ok := dest.(*pdfwrap.Object); ok {
		*p = c
		return true
	}
	return c.(*object).assign(dest)
}

// assign stores o's value in dest if o has a matching type.
func (o *object) assign(dest any) bool {
	co := o.co
	switch p := dest.(type) {
	case *bool:
		if o.typ != pdfwrap.TypeBoolean {
			return false
		}
		*p = co.Bool()
	case *int:
		if o.typ != pdfwrap.TypeInteger {
			return false
		}
		*p = int(co.Int())
	case *int64:
		if o.typ != pdfwrap.TypeInteger {
			return false
		}
		*p = co.Int()
	case *uint:
		if o.typ != pdfwrap.TypeInteger || co.Int() < 0 {
			return false
		}
		*p = uint(co.Int())
	case *float32:
		if o.typ != pdfwrap.TypeFixed {
			return false
		}
		*p = float32(co.Real())
	case *float64:
		if o.typ != pdfwrap.TypeFixed {
			return false
		}
		*p = co.Real()
	case *pdfwrap.Name:
		if o.typ != pdfwrap.TypeName {
			return false
		}
		*p = pdfwrap.Intern(co.Name())
	case *string:
		if o.typ != pdfwrap.TypeString {
			return false
		}
		*p = co.Str()
	case *pdfwrap.Buffer:
		data, ok := o.streamData(co.StreamRaw)
		if !ok {
			return false
		}
		*p = data
	case *io.ReadCloser:
		data, ok := o.streamData(co.StreamDecoded)
		if !ok {
			return false
		}
		*p = io.NopCloser(bytes.NewReader(data))
	default:
		return false
	}
	return true
}

// streamData copies the result of read out of the file mapping.
func (o *object) streamData(read func() ([]byte, error)) ([]byte, bool) {
	if o.typ != pdfwrap.TypeStream {
		return nil, false
	}
	var (
		data []byte
		err  error
	)
	if !o.doc.guard(func() { data, err = read() }) {
		return nil, false
	}
	if err != nil {
		o.doc.logger().Debug("cannot read stream",
			slog.Int64("id", int64(o.ID())),
			slog.String("err", err.Error()))
		return nil, false
	}
	return bytes.Clone(data), true
}
