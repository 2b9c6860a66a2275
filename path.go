package pdfwrap

import (
	"strconv"
	"strings"
)

// A PathElement is one step of a traversal: the selector used to reach an
// Object from its parent.
type PathElement struct {
	Selector Selector // nil for the starting object
	Object   Object   // nil when the selector found nothing
	ID       ID
}

// Step returns the PathElement for reaching o through sel.
func Step(sel Selector, o Object) PathElement {
	id := InvalidID
	if o != nil && o.IsIndirect() {
		id = o.ID()
	}
	return PathElement{Selector: sel, Object: o, ID: id}
}

// Describe renders a path such as
//
//	(Object 3) /Kids (Object)[0] (Object 4)
//
// Unless fullPath is set only the tail of the path is described. With
// needParent the tail reaches back over direct objects towards the nearest
// indirect ancestor, so the result names an object that can be looked up.
func Describe(path []PathElement, needParent, fullPath bool) string {
	if len(path) == 0 {
		return ""
	}
	start := 0
	if !fullPath {
		start = len(path) - 1
		seenDirect := false
		for needParent && start > 0 && path[start].ID == InvalidID {
			if seenDirect {
				needParent = false
			}
			start--
			if path[start].ID == InvalidID {
				seenDirect = true
			}
		}
	}

	var b strings.Builder
	var last Object
	first := true
	for _, el := range path[start:] {
		if !first && el.Object != nil && el.Object == last {
			continue
		}
		last = el.Object
		if first {
			first = false
		} else {
			switch s := el.Selector.(type) {
			case Name, Key:
				if n, ok := KeyName(s); ok {
					b.WriteString(" /")
					b.WriteString(n.String())
				}
			case Index:
				if s >= 0 {
					b.WriteString("[" + strconv.Itoa(int(s)) + "]")
				}
			}
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		switch {
		case el.Object == nil:
			b.WriteString(" (object not present)")
		case el.Object.IsIndirect():
			b.WriteString("(Object " + strconv.FormatInt(int64(el.Object.ID()), 10) + ")")
		default:
			b.WriteString("(Object)")
		}
	}
	return b.String()
}
