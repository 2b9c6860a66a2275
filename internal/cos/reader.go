// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cos

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/edsrzf/mmap-go"

	"github.com/ScriptRock/pdfwrap/logging"
)

var errClosed = errors.New("document is closed")

// A Doc is a single PDF file open for reading.
type Doc struct {
	data   []byte // file contents from the %PDF header on
	closer func() error
	closed bool

	major, minor int

	xref       []xref
	trailer    dict
	trailerptr objptr // xref stream holding the trailer, if any
	sec        *security
	repaired   bool

	objects map[objptr]object
	loading map[objptr]bool
	objstms map[uint32]*objStream

	log *slog.Logger
}

// Config carries per-document engine settings.
type Config struct {
	// Password is tried as the user password of an encrypted document.
	Password string
	// Logger receives debug output; nil means logging.Logger().
	Logger *slog.Logger
}

// Open maps the named file into memory and parses its cross-reference data.
// Doc.Close should be called when done with the Doc.
func Open(file string, cfg Config) (*Doc, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("not a PDF file: %s is empty", file)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	closer := func() error {
		err := m.Unmap()
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}
	d, err := newDoc([]byte(m), cfg)
	if err != nil {
		closer()
		return nil, err
	}
	d.closer = closer
	return d, nil
}

// NewDoc parses a document held in memory.
func NewDoc(data []byte, cfg Config) (*Doc, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return newDoc(data, cfg)
}

func newDoc(data []byte, cfg Config) (d *Doc, err error) {
	// Faults while reading the structure become errors here; faults while
	// reading individual objects later are the caller's to catch.
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, AsFault(r)
		}
	}()

	start, major, minor, ok := findHeader(data)
	if !ok {
		return nil, fmt.Errorf("not a PDF file: invalid header")
	}

	d = &Doc{
		data:    data[start:],
		major:   major,
		minor:   minor,
		objects: make(map[objptr]object),
		loading: make(map[objptr]bool),
		objstms: make(map[uint32]*objStream),
		log:     cfg.Logger,
	}
	if d.log == nil {
		d.log = logging.Logger()
	}

	if err := Catch(d.readXref); err != nil {
		d.log.Debug("cross-reference data unusable, rebuilding", slog.String("err", err.Error()))
		if rerr := d.rebuild(); rerr != nil {
			return nil, fmt.Errorf("malformed PDF: %v (repair failed: %v)", err, rerr)
		}
	}
	if d.trailer["Root"] == nil {
		if err := d.rebuild(); err != nil {
			return nil, fmt.Errorf("malformed PDF: trailer has no /Root: %v", err)
		}
	}

	if d.trailer["Encrypt"] != nil {
		if err := d.initSecurity(cfg.Password); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// findHeader locates %PDF-M.m within the first 1024 bytes.
func findHeader(data []byte) (start, major, minor int, ok bool) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	i := bytes.Index(head, []byte("%PDF-"))
	if i < 0 || i+8 > len(data) {
		return 0, 0, 0, false
	}
	v := data[i+5 : i+8]
	if v[0] < '1' || v[0] > '9' || v[1] != '.' || v[2] < '0' || v[2] > '9' {
		return 0, 0, 0, false
	}
	return i, int(v[0] - '0'), int(v[2] - '0'), true
}

// Close releases the file mapping. Handles obtained from d must not be used
// afterwards.
func (d *Doc) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.objects = nil
	d.objstms = nil
	if d.closer != nil {
		return d.closer()
	}
	return nil
}

// Closed reports whether Close has been called.
func (d *Doc) Closed() bool { return d.closed }

// Repaired reports whether the cross-reference data had to be rebuilt.
func (d *Doc) Repaired() bool { return d.repaired }

// NumObjects returns the size of the cross-reference table.
func (d *Doc) NumObjects() int { return len(d.xref) }

// Version returns the header version, raised by the catalog's /Version
// entry when that names a later version.
func (d *Doc) Version() (major, minor int) {
	major, minor = d.major, d.minor
	v := d.Root()
	if v.Type() != TypeDict {
		return
	}
	cv := v.DictGet("Version")
	if cv.Type() != TypeName {
		return
	}
	s := cv.Name()
	if len(s) != 3 || s[1] != '.' {
		return
	}
	cmaj, err1 := strconv.Atoi(s[:1])
	cmin, err2 := strconv.Atoi(s[2:])
	if err1 != nil || err2 != nil {
		return
	}
	if cmaj > major || cmaj == major && cmin > minor {
		major, minor = cmaj, cmin
	}
	return
}

// Root returns the document catalog, or a zero Obj if the trailer has none.
func (d *Doc) Root() Obj {
	if d.closed || d.trailer["Root"] == nil {
		return Obj{}
	}
	return d.resolve(d.trailer["Root"])
}

// Trailer returns the trailer dictionary. For documents whose
// cross-reference data is a stream, that stream object is returned.
func (d *Doc) Trailer() Obj {
	if d.closed || d.trailer == nil {
		return Obj{}
	}
	if d.trailerptr.id != 0 {
		if v := d.resolve(d.trailerptr); v.Type() == TypeStream {
			return v
		}
	}
	return Obj{d: d, set: true, data: d.trailer}
}

// ObjByID returns the indirect object with the given object number, or a
// zero Obj if the document does not define it.
func (d *Doc) ObjByID(id uint32) Obj {
	if d.closed || id == 0 || id >= uint32(len(d.xref)) {
		return Obj{}
	}
	x := d.xref[id]
	if x.free() {
		return Obj{}
	}
	obj, ok := d.load(x.ptr)
	if !ok {
		return Obj{}
	}
	return Obj{d: d, set: true, ref: x.ptr, data: obj}
}

// resolve turns a raw value into a handle, loading it if it is a reference.
// References to objects the document does not define resolve to null.
func (d *Doc) resolve(x object) Obj {
	ptr, ok := x.(objptr)
	if !ok {
		return Obj{d: d, set: true, data: x}
	}
	obj, ok := d.load(ptr)
	if !ok {
		return Obj{d: d, set: true}
	}
	return Obj{d: d, set: true, ref: ptr, data: obj}
}

func (d *Doc) load(ptr objptr) (object, bool) {
	if d.closed {
		panic(&Fault{Err: errClosed})
	}
	if obj, ok := d.objects[ptr]; ok {
		return obj, true
	}
	if ptr.id == 0 || ptr.id >= uint32(len(d.xref)) {
		return nil, false
	}
	x := d.xref[ptr.id]
	if x.ptr != ptr || x.free() {
		return nil, false
	}
	if d.loading[ptr] {
		faultf("object %d %d refers to itself while loading", ptr.id, ptr.gen)
	}
	d.loading[ptr] = true
	defer delete(d.loading, ptr)

	var obj object
	if x.inStream {
		obj = d.loadFromStream(ptr.id, x.stream)
	} else {
		var err error
		obj, err = d.loadAt(ptr, x.offset)
		if err != nil && !d.repaired {
			d.log.Debug("bad object offset, rebuilding", slog.Int("id", int(ptr.id)), slog.String("err", err.Error()))
			if d.rebuild() == nil && ptr.id < uint32(len(d.xref)) && !d.xref[ptr.id].inStream {
				obj, err = d.loadAt(ptr, d.xref[ptr.id].offset)
			}
		}
		if err != nil {
			panic(AsFault(err))
		}
	}
	d.objects[ptr] = obj
	return obj, true
}

func (d *Doc) loadAt(ptr objptr, offset int64) (obj object, err error) {
	err = Catch(func() {
		if offset <= 0 || offset >= int64(len(d.data)) {
			faultf("object %d %d: offset %d out of range", ptr.id, ptr.gen, offset)
		}
		l := d.lexerAt(offset)
		l.sec = d.sec
		def, ok := l.readObject().(objdef)
		if !ok {
			faultf("loading %d %d: no object definition at offset %d", ptr.id, ptr.gen, offset)
		}
		if def.ptr != ptr {
			faultf("loading %d %d: found %d %d", ptr.id, ptr.gen, def.ptr.id, def.ptr.gen)
		}
		obj = def.obj
	})
	return obj, err
}

func (d *Doc) lexerAt(offset int64) *lexer {
	return newLexer(bytes.NewReader(d.data[offset:]), offset)
}

// An objStream is a parsed object stream (PDF 32000-1 §7.5.7).
type objStream struct {
	data    []byte
	first   int64
	ids     []uint32
	offsets []int64
	extends uint32
}

func (d *Doc) objStream(id uint32) *objStream {
	if stm, ok := d.objstms[id]; ok {
		return stm
	}
	v := d.ObjByID(id)
	if v.Type() != TypeStream {
		faultf("object stream %d is not a stream", id)
	}
	hdr := v.StreamDict()
	if hdr.DictGet("Type").Name() != "ObjStm" {
		faultf("object %d is not an object stream", id)
	}
	n := int(hdr.DictGet("N").Int())
	first := hdr.DictGet("First").Int()
	data, err := v.StreamDecoded()
	if err != nil {
		faultf("object stream %d: %v", id, err)
	}
	if first <= 0 || first > int64(len(data)) {
		faultf("object stream %d: bad /First %d", id, first)
	}

	stm := &objStream{data: data, first: first}
	l := newLexer(bytes.NewReader(data[:first]), 0)
	l.allowEOF = true
	l.allowObjptr = false
	for i := 0; i < n; i++ {
		oid, ok1 := l.readToken().(int64)
		off, ok2 := l.readToken().(int64)
		if !ok1 || !ok2 {
			break
		}
		stm.ids = append(stm.ids, uint32(oid))
		stm.offsets = append(stm.offsets, off)
	}
	if ext := hdr.DictGet("Extends"); ext.IsIndirect() {
		stm.extends = ext.ID()
	}
	d.objstms[id] = stm
	return stm
}

func (d *Doc) loadFromStream(id, strm uint32) object {
	seen := map[uint32]bool{}
	for strm != 0 && !seen[strm] {
		seen[strm] = true
		stm := d.objStream(strm)
		for i, oid := range stm.ids {
			if oid != id {
				continue
			}
			off := stm.first + stm.offsets[i]
			if off < 0 || off >= int64(len(stm.data)) {
				faultf("object %d: offset %d outside object stream %d", id, off, strm)
			}
			l := newLexer(bytes.NewReader(stm.data[off:]), off)
			l.allowEOF = true
			l.allowStream = false
			return l.readObject()
		}
		strm = stm.extends
	}
	faultf("object %d not found in object stream", id)
	return nil
}

func (d *Doc) readXref() {
	const endChunk = 1024
	tail := d.data
	base := int64(0)
	if len(tail) > endChunk {
		base = int64(len(tail) - endChunk)
		tail = tail[base:]
	}
	i := findLastLine(tail, "startxref")
	if i < 0 {
		faultf("malformed PDF file: missing final startxref")
	}
	l := d.lexerAt(base + int64(i))
	l.allowEOF = true
	if l.readToken() != keyword("startxref") {
		faultf("malformed PDF file: missing startxref")
	}
	startxref, ok := l.readToken().(int64)
	if !ok || startxref <= 0 || startxref >= int64(len(d.data)) {
		faultf("malformed PDF file: startxref not followed by a usable offset")
	}

	seen := map[int64]bool{}
	for off := startxref; off != 0; {
		if seen[off] {
			faultf("malformed PDF: cross-reference sections form a loop at %d", off)
		}
		seen[off] = true
		trailer := d.readXrefSection(off)
		if d.trailer == nil {
			d.trailer = trailer
		}
		// Hybrid files keep their compressed entries in a side stream.
		if stm, ok := trailer["XRefStm"].(int64); ok && !seen[stm] {
			seen[stm] = true
			d.readXrefSection(stm)
		}
		prev, ok := trailer["Prev"].(int64)
		if !ok {
			break
		}
		off = prev
	}

	if size, ok := d.trailer["Size"].(int64); ok && size < int64(len(d.xref)) && size >= 0 {
		d.xref = d.xref[:size]
	}
}

// readXrefSection reads one cross-reference section at off. Entries already
// present, which come from newer sections, take precedence.
func (d *Doc) readXrefSection(off int64) dict {
	if off <= 0 || off >= int64(len(d.data)) {
		faultf("malformed PDF: cross-reference offset %d out of range", off)
	}
	l := d.lexerAt(off)
	tok := l.readToken()
	if tok == keyword("xref") {
		return d.readXrefTable(l)
	}
	if _, ok := tok.(int64); ok {
		l.unreadToken(tok)
		return d.readXrefStream(l)
	}
	faultf("malformed PDF: cross-reference table not found: %v", tok)
	return nil
}

func (d *Doc) readXrefTable(l *lexer) dict {
	for {
		tok := l.readToken()
		if tok == keyword("trailer") {
			break
		}
		start, ok1 := tok.(int64)
		n, ok2 := l.readToken().(int64)
		if !ok1 || !ok2 || start < 0 || n < 0 {
			faultf("malformed xref table")
		}
		for i := int64(0); i < n; i++ {
			off, ok1 := l.readToken().(int64)
			gen, ok2 := l.readToken().(int64)
			alloc, ok3 := l.readToken().(keyword)
			if !ok1 || !ok2 || !ok3 || alloc != "f" && alloc != "n" {
				faultf("malformed xref table")
			}
			x := d.growXref(uint32(start + i))
			if d.xref[x].ptr.id != 0 || d.xref[x].offset != 0 {
				continue
			}
			if alloc == "n" {
				d.xref[x] = xref{ptr: objptr{x, uint16(gen)}, offset: off}
			} else {
				// Mark free entries so older sections cannot revive them.
				d.xref[x] = xref{ptr: objptr{x, uint16(gen)}}
			}
		}
	}
	trailer, ok := l.readObject().(dict)
	if !ok {
		faultf("malformed PDF: xref table not followed by trailer dictionary")
	}
	return trailer
}

func (d *Doc) readXrefStream(l *lexer) dict {
	def, ok := l.readObject().(objdef)
	if !ok {
		faultf("malformed PDF: cross-reference stream not found")
	}
	strm, ok := def.obj.(stream)
	if !ok {
		faultf("malformed PDF: cross-reference stream %d is not a stream", def.ptr.id)
	}
	if strm.hdr["Type"] != name("XRef") {
		faultf("malformed PDF: xref stream does not have type XRef")
	}
	size, ok := strm.hdr["Size"].(int64)
	if !ok || size < 0 {
		faultf("malformed PDF: xref stream missing Size")
	}
	if d.trailerptr.id == 0 {
		d.trailerptr = def.ptr
	}
	d.objects[def.ptr] = strm

	index, _ := strm.hdr["Index"].(array)
	if index == nil {
		index = array{int64(0), size}
	}
	if len(index)%2 != 0 {
		faultf("malformed PDF: invalid xref stream Index %v", objfmt(index))
	}
	ww, ok := strm.hdr["W"].(array)
	if !ok || len(ww) < 3 {
		faultf("malformed PDF: xref stream missing W array")
	}
	var w [3]int
	for i := range w {
		x, ok := ww[i].(int64)
		if !ok || x < 0 || x > 8 {
			faultf("malformed PDF: invalid W array %v", objfmt(ww))
		}
		w[i] = int(x)
	}

	v := Obj{d: d, set: true, ref: def.ptr, data: strm}
	data, err := v.StreamDecoded()
	if err != nil {
		faultf("malformed PDF: reading xref stream: %v", err)
	}
	rec := w[0] + w[1] + w[2]
	if rec == 0 {
		faultf("malformed PDF: empty xref stream records")
	}
	for len(index) > 0 {
		start, ok1 := index[0].(int64)
		n, ok2 := index[1].(int64)
		if !ok1 || !ok2 || start < 0 || n < 0 {
			faultf("malformed PDF: bad xref stream Index pair %v %v", objfmt(index[0]), objfmt(index[1]))
		}
		index = index[2:]
		for i := int64(0); i < n; i++ {
			if len(data) < rec {
				faultf("malformed PDF: xref stream truncated")
			}
			f1 := decodeInt(data[:w[0]])
			if w[0] == 0 {
				f1 = 1
			}
			f2 := decodeInt(data[w[0] : w[0]+w[1]])
			f3 := decodeInt(data[w[0]+w[1] : rec])
			data = data[rec:]

			x := d.growXref(uint32(start + i))
			if d.xref[x].ptr.id != 0 || d.xref[x].offset != 0 || d.xref[x].inStream {
				continue
			}
			switch f1 {
			case 0:
				d.xref[x] = xref{ptr: objptr{x, uint16(f3)}}
			case 1:
				d.xref[x] = xref{ptr: objptr{x, uint16(f3)}, offset: f2}
			case 2:
				d.xref[x] = xref{ptr: objptr{x, 0}, inStream: true, stream: uint32(f2), index: int(f3)}
			default:
				d.log.Debug("invalid xref stream entry type", slog.Int64("type", f1), slog.Int("id", int(x)))
			}
		}
	}
	return strm.hdr
}

func (d *Doc) growXref(x uint32) uint32 {
	if x > 1<<23 {
		faultf("malformed PDF: object number %d too large", x)
	}
	for uint32(len(d.xref)) <= x {
		d.xref = append(d.xref, xref{})
	}
	return x
}

func decodeInt(b []byte) int64 {
	var x int64
	for _, c := range b {
		x = x<<8 | int64(c)
	}
	return x
}

func findLastLine(buf []byte, s string) int {
	bs := []byte(s)
	max := len(buf)
	for {
		i := bytes.LastIndex(buf[:max], bs)
		if i < 0 || i+len(bs) >= len(buf) {
			return -1
		}
		if (i == 0 || buf[i-1] == '\n' || buf[i-1] == '\r') && (buf[i+len(bs)] == '\n' || buf[i+len(bs)] == '\r' || buf[i+len(bs)] == ' ') {
			return i
		}
		if i == 0 {
			return -1
		}
		max = i
	}
}

// rebuild reconstructs the cross-reference table by scanning the file for
// object definitions, the way damaged files are usually recovered.
func (d *Doc) rebuild() error {
	if d.repaired {
		return fmt.Errorf("already rebuilt")
	}
	d.repaired = true

	table := map[uint32]xref{}
	var maxID uint32
	data := d.data
	for search := 0; ; {
		i := bytes.Index(data[search:], []byte("obj"))
		if i < 0 {
			break
		}
		pos := search + i
		search = pos + 3
		if pos+3 < len(data) && !isSpace(data[pos+3]) && !isDelim(data[pos+3]) {
			continue
		}
		id, gen, start, ok := objHeaderBefore(data, pos)
		if !ok {
			continue
		}
		// Later definitions belong to later incremental updates.
		table[id] = xref{ptr: objptr{id, gen}, offset: int64(start)}
		if id > maxID {
			maxID = id
		}
	}
	if len(table) == 0 {
		return fmt.Errorf("no object definitions found")
	}

	d.xref = make([]xref, maxID+1)
	for id, x := range table {
		d.xref[id] = x
	}
	d.objects = make(map[objptr]object)
	d.objstms = make(map[uint32]*objStream)

	d.recoverObjStreams(table)
	if err := d.recoverTrailer(); err != nil {
		return err
	}
	d.log.Debug("rebuilt cross-reference table", slog.Int("objects", len(table)))
	return nil
}

// objHeaderBefore parses "id gen " immediately preceding the obj keyword at pos.
func objHeaderBefore(data []byte, pos int) (id uint32, gen uint16, start int, ok bool) {
	i := pos
	skipSpace := func() {
		for i > 0 && isSpace(data[i-1]) {
			i--
		}
	}
	digits := func() (int64, bool) {
		end := i
		for i > 0 && data[i-1] >= '0' && data[i-1] <= '9' {
			i--
		}
		if i == end || end-i > 10 {
			return 0, false
		}
		n, err := strconv.ParseInt(string(data[i:end]), 10, 64)
		return n, err == nil
	}

	skipSpace()
	g, ok1 := digits()
	if !ok1 || i == pos || !isSpace(data[i-1]) {
		return 0, 0, 0, false
	}
	skipSpace()
	n, ok2 := digits()
	if !ok2 || n <= 0 || n > 1<<23 || g > 65535 {
		return 0, 0, 0, false
	}
	if i > 0 && !isSpace(data[i-1]) && !isDelim(data[i-1]) {
		return 0, 0, 0, false
	}
	return uint32(n), uint16(g), i, true
}

// recoverObjStreams adds entries for objects stored in object streams that
// the scan could not see directly.
func (d *Doc) recoverObjStreams(table map[uint32]xref) {
	for id := range table {
		var stm *objStream
		err := Catch(func() {
			v := d.ObjByID(id)
			if v.Type() != TypeStream || v.StreamDict().DictGet("Type").Name() != "ObjStm" {
				return
			}
			stm = d.objStream(id)
		})
		if err != nil || stm == nil {
			continue
		}
		for i, oid := range stm.ids {
			if _, ok := table[oid]; ok {
				continue
			}
			d.growXref(oid)
			d.xref[oid] = xref{ptr: objptr{oid, 0}, inStream: true, stream: id, index: i}
		}
	}
}

func (d *Doc) recoverTrailer() error {
	var trailer dict
	if i := bytes.LastIndex(d.data, []byte("trailer")); i >= 0 {
		Catch(func() {
			l := d.lexerAt(int64(i))
			l.allowEOF = true
			if l.readToken() == keyword("trailer") {
				trailer, _ = l.readObject().(dict)
			}
		})
	}
	if trailer == nil {
		trailer = dict{}
	}

	var xrefptr objptr
	if trailer["Root"] == nil {
		// Look for an xref stream header or, failing that, the catalog itself.
		for id := len(d.xref) - 1; id > 0 && trailer["Root"] == nil; id-- {
			if d.xref[id].free() {
				continue
			}
			Catch(func() {
				v := d.ObjByID(uint32(id))
				switch v.Type() {
				case TypeStream:
					strm := v.data.(stream)
					if strm.hdr["Type"] == name("XRef") && strm.hdr["Root"] != nil {
						trailer = strm.hdr
						xrefptr = v.ref
					}
				case TypeDict:
					if v.DictGet("Type").Name() == "Catalog" {
						trailer["Root"] = v.ref
					}
				}
			})
		}
	}
	if trailer["Root"] == nil {
		return fmt.Errorf("no document catalog found")
	}
	d.trailer = trailer
	d.trailerptr = xrefptr
	return nil
}

func (d *Doc) initSecurity(password string) error {
	// See PDF 32000-1:2008, §7.6.
	var encrypt Obj
	var id string
	err := Catch(func() {
		encrypt = d.resolve(d.trailer["Encrypt"])
		ids := d.resolve(d.trailer["ID"])
		if ids.Type() == TypeArray && ids.ArrayLen() > 0 {
			if first := ids.ArrayGet(0); first.Type() == TypeString {
				id = first.Str()
			}
		}
	})
	if err != nil {
		return err
	}
	if encrypt.Type() != TypeDict {
		return fmt.Errorf("malformed PDF: /Encrypt is not a dictionary")
	}
	sec, err := newSecurity(password, encrypt, id)
	if err != nil {
		return err
	}
	// Objects loaded before decryption was configured hold ciphertext.
	for ptr := range d.objects {
		if ptr != encrypt.ref && ptr != d.trailerptr {
			delete(d.objects, ptr)
		}
	}
	d.objstms = make(map[uint32]*objStream)
	d.sec = sec
	if encrypt.IsIndirect() {
		d.sec.encryptID = encrypt.ref
	}
	return nil
}
