package cos

// An object is a PDF syntax object, one of the following Go types:
//
//	bool, a PDF boolean
//	int64, a PDF integer
//	float64, a PDF real
//	string, a PDF string literal
//	name, a PDF name without the leading slash
//	dict, a PDF dictionary
//	array, a PDF array
//	stream, a PDF stream
//	objptr, a PDF object reference
//	objdef, a PDF object definition
//
// An object may also be nil, to represent the PDF null.
type object any

type name string

type dict map[name]object

type array []object

// A stream is a stream header plus the file offset of its data.
type stream struct {
	hdr    dict
	ptr    objptr
	offset int64
}

// An objptr names an indirect object. Object number 0 is never a valid
// indirect object, so the zero objptr means "direct".
type objptr struct {
	id  uint32
	gen uint16
}

type objdef struct {
	ptr objptr
	obj object
}

// An xref is one cross-reference entry.
type xref struct {
	ptr      objptr
	inStream bool
	stream   uint32 // object number of the containing object stream
	index    int    // index inside that object stream
	offset   int64
}

func (x xref) free() bool {
	return !x.inStream && x.offset == 0
}
