package dump

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ScriptRock/pdfwrap"
)

// Options control Print.
type Options struct {
	// Depth is the number of container levels expanded below the root.
	// Containers past it are summarised by their size.
	Depth int
}

const indentStep = 3

// Print writes an indented tree of root to w. Indirect objects are tagged
// with their ID and printed in full only once; later occurrences print
// {previously printed}. Nothing is written for a nil root.
func Print(w io.Writer, root pdfwrap.Object, opts Options) error {
	if root == nil {
		return nil
	}
	p := printer{w: bufio.NewWriter(w), visited: make(map[pdfwrap.ID]bool)}
	p.print(root, opts.Depth, 0)
	return errors.Wrap(p.w.Flush(), "dump")
}

type printer struct {
	w       *bufio.Writer
	visited map[pdfwrap.ID]bool
}

func (p *printer) pad(n int) {
	p.w.WriteString(strings.Repeat(" ", n))
}

func (p *printer) print(o pdfwrap.Object, depth, indent int) {
	typ := o.Type()
	container := typ == pdfwrap.TypeArray || typ == pdfwrap.TypeDict || typ == pdfwrap.TypeStream
	if o.IsIndirect() {
		id := o.ID()
		p.w.WriteString("(#" + strconv.FormatInt(int64(id), 10) + ") ")
		if p.visited[id] {
			p.w.WriteString("{previously printed}\n")
			return
		}
		if !container || depth > 0 {
			p.visited[id] = true
		}
	}

	switch typ {
	case pdfwrap.TypeArray:
		p.array(o, depth, indent)
	case pdfwrap.TypeStream:
		p.w.WriteString("{stream}  ")
		p.dict(o, depth, indent)
	case pdfwrap.TypeDict:
		p.dict(o, depth, indent)
	case pdfwrap.TypeString:
		s, _ := pdfwrap.Lookup[string](o, pdfwrap.Index(0))
		p.w.WriteString("(" + pdfwrap.DecodeText(s) + ")   {" + typ.String() + "}\n")
	default:
		p.w.WriteString(pdfwrap.Summary(o) + "   {" + typ.String() + "}\n")
	}
}

func (p *printer) dict(o pdfwrap.Object, depth, indent int) {
	keys, _ := o.Keys()
	if depth <= 0 {
		p.w.WriteString("{dictionary} with " + strconv.Itoa(len(keys)) + " key(s)\n")
		return
	}
	names := keys.Strings()
	if len(names) == 0 {
		p.w.WriteString("<< >>\n")
		return
	}
	longest := 0
	for _, k := range names {
		longest = max(longest, len(k))
	}
	p.w.WriteString("<<\n")
	for _, k := range names {
		var c pdfwrap.Object
		if !o.Get(&c, pdfwrap.Key(k)) {
			continue
		}
		p.pad(indent + indentStep)
		p.w.WriteString("/" + k)
		p.pad(longest - len(k) + 2)
		p.print(c, depth-1, indent+indentStep)
	}
	p.pad(indent)
	p.w.WriteString(">>\n")
}

func (p *printer) array(o pdfwrap.Object, depth, indent int) {
	n := o.Len()
	if depth <= 0 {
		p.w.WriteString("{array} with " + strconv.Itoa(n) + " element(s)\n")
		return
	}
	if n == 0 {
		p.w.WriteString("[ ]\n")
		return
	}
	p.w.WriteString("[\n")
	for i := 0; i < n; i++ {
		p.pad(indent + indentStep)
		var c pdfwrap.Object
		if !o.Get(&c, pdfwrap.Index(i)) {
			p.w.WriteString("{error}\n")
			continue
		}
		p.print(c, depth-1, indent+indentStep)
	}
	p.pad(indent)
	p.w.WriteString("]\n")
}
