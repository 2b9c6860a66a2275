package pdfwrap

// fakeObject is an in-memory Object for testing engine-independent code.
type fakeObject struct {
	typ   Type
	id    ID // 0 for direct objects
	val   any
	elems []Object
	dict  map[Name]Object
}

func (o *fakeObject) Type() Type       { return o.typ }
func (o *fakeObject) IsIndirect() bool { return o.id != 0 }

func (o *fakeObject) ID() ID {
	if o.id == 0 {
		return InvalidID
	}
	return o.id
}

func (o *fakeObject) Len() int {
	if o.typ == TypeArray {
		return len(o.elems)
	}
	return 1
}

func (o *fakeObject) Keys() (NameSet, bool) {
	if o.typ != TypeDict {
		return nil, false
	}
	s := NameSet{}
	for k := range o.dict {
		s.Add(k)
	}
	return s, true
}

func (o *fakeObject) HasKey(sel Selector) bool {
	var c Object
	return o.Get(&c, sel)
}

func (o *fakeObject) child(sel Selector) (Object, bool) {
	if n, ok := KeyName(sel); ok {
		c, ok := o.dict[n]
		return c, ok
	}
	i, ok := sel.(Index)
	if !ok || i < 0 || int(i) >= o.Len() {
		return nil, false
	}
	if o.typ != TypeArray {
		return o, true
	}
	return o.elems[i], true
}

func (o *fakeObject) Get(dest any, sel Selector) bool {
	c, ok := o.child(sel)
	if !ok {
		return false
	}
	if p, ok := dest.(*Object); ok {
		*p = c
		return true
	}
	f := c.(*fakeObject)
	switch p := dest.(type) {
	case *bool:
		v, ok := f.val.(bool)
		if ok {
			*p = v
		}
		return ok
	case *int64:
		v, ok := f.val.(int64)
		if ok {
			*p = v
		}
		return ok
	case *float64:
		v, ok := f.val.(float64)
		if ok {
			*p = v
		}
		return ok
	case *Name:
		v, ok := f.val.(Name)
		if ok {
			*p = v
		}
		return ok
	case *string:
		v, ok := f.val.(string)
		if ok {
			*p = v
		}
		return ok
	}
	panic(Unsupported(dest))
}

func (o *fakeObject) Document() Document { return nil }

func scalar(t Type, v any) *fakeObject { return &fakeObject{typ: t, val: v} }
