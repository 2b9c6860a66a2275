// Package pdftest builds small PDF files for tests.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// A Builder assembles a PDF from object bodies written in PDF syntax.
type Builder struct {
	// Version goes into the %PDF- header; the default is "1.7".
	Version string
	// Root is the object number of the catalog; the default is 1.
	Root int
	// Trailer holds extra trailer entries, such as "/Info 9 0 R".
	Trailer string
	// XRefStream writes a cross-reference stream instead of a table.
	XRefStream bool
	// Prefix is written before the %PDF- header.
	Prefix string
	// BadStartxref points startxref at a bogus offset.
	BadStartxref bool
	// Encrypt adds an /Encrypt dictionary and an /ID to the trailer. The
	// object bodies must already be encrypted with it.
	Encrypt *Security

	objs       map[int]string
	compressed map[int]bool
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{objs: map[int]string{}, compressed: map[int]bool{}}
}

// Set defines object id with the given body.
func (b *Builder) Set(id int, body string) *Builder {
	b.objs[id] = body
	return b
}

// Add defines a new object after the highest one defined so far and returns
// its object number.
func (b *Builder) Add(body string) int {
	id := b.maxID() + 1
	b.objs[id] = body
	return id
}

// Compress stores the given objects in an object stream. It implies
// XRefStream.
func (b *Builder) Compress(ids ...int) *Builder {
	for _, id := range ids {
		b.compressed[id] = true
	}
	b.XRefStream = true
	return b
}

// Stream returns the body of a stream object holding data unfiltered.
// dict holds extra dictionary entries.
func Stream(dict string, data []byte) string {
	return fmt.Sprintf("<<%s /Length %d>>\nstream\n%s\nendstream", dict, len(data), data)
}

// FlateStream returns the body of a FlateDecode stream object.
func FlateStream(dict string, data []byte) string {
	return Stream(dict+" /Filter /FlateDecode", Deflate(data))
}

// Deflate compresses data in zlib format.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

// SinglePage returns a Builder for a one-page document: catalog 1, page tree
// 2, page 3, content stream 4.
func SinglePage() *Builder {
	b := New()
	b.Set(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Set(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Set(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")
	b.Set(4, FlateStream("", []byte("BT /F1 12 Tf 72 712 Td (Hello) Tj ET")))
	return b
}

func (b *Builder) maxID() int {
	max := 0
	for id := range b.objs {
		if id > max {
			max = id
		}
	}
	return max
}

type entry struct {
	typ    int
	offset int
	stream int
	index  int
}

// Bytes renders the document.
func (b *Builder) Bytes() []byte {
	version := b.Version
	if version == "" {
		version = "1.7"
	}
	root := b.Root
	if root == 0 {
		root = 1
	}

	var out bytes.Buffer
	out.WriteString(b.Prefix)
	base := out.Len()
	fmt.Fprintf(&out, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)

	ids := make([]int, 0, len(b.objs))
	for id := range b.objs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	entries := map[int]entry{}
	next := b.maxID() + 1
	for _, id := range ids {
		if b.compressed[id] {
			continue
		}
		entries[id] = entry{typ: 1, offset: out.Len() - base}
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", id, b.objs[id])
	}

	trailer := b.Trailer
	if b.Encrypt != nil {
		encID := next
		next++
		entries[encID] = entry{typ: 1, offset: out.Len() - base}
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", encID, b.Encrypt.dict())
		trailer += fmt.Sprintf(" /Encrypt %d 0 R /ID [<%X> <%X>] ", encID, FileID, FileID)
	}

	if len(b.compressed) > 0 {
		stmID := next
		next++
		var hdr, body bytes.Buffer
		n := 0
		for _, id := range ids {
			if !b.compressed[id] {
				continue
			}
			fmt.Fprintf(&hdr, "%d %d ", id, body.Len())
			body.WriteString(b.objs[id])
			body.WriteString("\n")
			entries[id] = entry{typ: 2, stream: stmID, index: n}
			n++
		}
		data := Deflate(append(hdr.Bytes(), body.Bytes()...))
		if b.Encrypt != nil {
			data = b.Encrypt.Seal(stmID, data)
		}
		entries[stmID] = entry{typ: 1, offset: out.Len() - base}
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", stmID,
			Stream(fmt.Sprintf("/Type /ObjStm /N %d /First %d /Filter /FlateDecode", n, hdr.Len()), data))
	}

	var startxref int
	if b.XRefStream {
		xrefID := next
		size := xrefID + 1
		startxref = out.Len() - base
		entries[xrefID] = entry{typ: 1, offset: startxref}
		var rows bytes.Buffer
		for id := 0; id < size; id++ {
			e, ok := entries[id]
			var rec [7]byte
			switch {
			case !ok:
				rec[0] = 0
				binary.BigEndian.PutUint16(rec[5:], 65535)
			case e.typ == 1:
				rec[0] = 1
				binary.BigEndian.PutUint32(rec[1:], uint32(e.offset))
			default:
				rec[0] = 2
				binary.BigEndian.PutUint32(rec[1:], uint32(e.stream))
				binary.BigEndian.PutUint16(rec[5:], uint16(e.index))
			}
			rows.Write(rec[:])
		}
		dict := fmt.Sprintf("/Type /XRef /Size %d /W [1 4 2] /Root %d 0 R %s", size, root, trailer)
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", xrefID, FlateStream(dict, rows.Bytes()))
	} else {
		size := next
		startxref = out.Len() - base
		fmt.Fprintf(&out, "xref\n0 %d\n", size)
		for id := 0; id < size; id++ {
			if e, ok := entries[id]; ok {
				fmt.Fprintf(&out, "%010d 00000 n\r\n", e.offset)
			} else {
				out.WriteString("0000000000 65535 f\r\n")
			}
		}
		fmt.Fprintf(&out, "trailer\n<< /Size %d /Root %d 0 R %s>>\n", size, root, trailer)
	}
	if b.BadStartxref {
		startxref = 999999999
	}
	fmt.Fprintf(&out, "startxref\n%d\n%%%%EOF\n", startxref)
	return out.Bytes()
}

// WriteFile writes the document into a temporary directory owned by t and
// returns its path.
func (b *Builder) WriteFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
