// Package dump traverses and prints the object graph of a pdfwrap.Document.
package dump

import (
	"github.com/pkg/errors"

	"github.com/ScriptRock/pdfwrap"
)

// SkipChildren is returned by a WalkFunc to keep Walk from descending into
// the current object. It is not returned as an error by Walk.
var SkipChildren = errors.New("skip children")

// A WalkFunc is called for every object Walk reaches. The last element of
// path holds the object. seen reports that an indirect object with the same
// ID was reached before; its children are not visited again.
type WalkFunc func(path []pdfwrap.PathElement, seen bool) error

// Walk calls fn for root and everything reachable from it, depth first.
// Arrays are walked in index order and dictionaries in lexical key order.
// Walk stops at the first error fn returns other than SkipChildren. A nil
// root is not walked.
func Walk(root pdfwrap.Object, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	w := walker{fn: fn, visited: make(map[pdfwrap.ID]bool)}
	return w.walk([]pdfwrap.PathElement{pdfwrap.Step(nil, root)})
}

type walker struct {
	fn      WalkFunc
	visited map[pdfwrap.ID]bool
}

func (w *walker) walk(path []pdfwrap.PathElement) error {
	o := path[len(path)-1].Object
	seen := false
	if o.IsIndirect() {
		seen = w.visited[o.ID()]
		w.visited[o.ID()] = true
	}
	if err := w.fn(path, seen); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	if seen {
		return nil
	}

	for _, sel := range children(o) {
		var c pdfwrap.Object
		if !o.Get(&c, sel) {
			continue
		}
		if err := w.walk(append(path[:len(path):len(path)], pdfwrap.Step(sel, c))); err != nil {
			return err
		}
	}
	return nil
}

// children lists the selectors of o's children in traversal order.
func children(o pdfwrap.Object) []pdfwrap.Selector {
	var sels []pdfwrap.Selector
	switch o.Type() {
	case pdfwrap.TypeArray:
		for i := 0; i < o.Len(); i++ {
			sels = append(sels, pdfwrap.Index(i))
		}
	case pdfwrap.TypeDict, pdfwrap.TypeStream:
		keys, _ := o.Keys()
		for _, k := range keys.Strings() {
			sels = append(sels, pdfwrap.Key(k))
		}
	}
	return sels
}
