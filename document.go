package pdfwrap

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrOpen is wrapped by every error Open returns for a file that could
	// not be parsed.
	ErrOpen = errors.New("pdfwrap: cannot open document")
	// ErrNoPrototype is returned by Open before any binding has registered.
	ErrNoPrototype = errors.New("pdfwrap: no document prototype registered")
	// ErrInit reports that the PDF engine failed to initialize.
	ErrInit = errors.New("pdfwrap: engine initialization failed")
	// ErrClosed is returned for operations on a closed Document.
	ErrClosed = errors.New("pdfwrap: document closed")
)

// An OpenError records a failed Open. It matches both ErrOpen and the
// underlying cause under errors.Is.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("pdfwrap: open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() []error { return []error{ErrOpen, e.Err} }

// A Version is a PDF version number such as 1.7.
type Version struct {
	Major, Minor uint16
}

// IsSet reports whether v holds a version at all.
func (v Version) IsSet() bool { return v.Major != 0 || v.Minor != 0 }

func (v Version) Less(w Version) bool {
	return v.Major < w.Major || v.Major == w.Major && v.Minor < w.Minor
}

func (v Version) LessEqual(w Version) bool { return !w.Less(v) }

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// A Document is an open PDF file.
//
// Indirect objects are cached per Document: asking twice for the same
// object number yields the same Object. Documents are not safe for
// concurrent use.
type Document interface {
	// Path returns the file the Document was opened from.
	Path() string
	IsValid() bool
	Version() Version
	// Catalog returns the document's root dictionary.
	Catalog() (Object, bool)
	// Trailer returns the trailer dictionary, or the cross-reference
	// stream when the file has no classic trailer.
	Trailer() (Object, bool)
	// Object returns the indirect object with the given number.
	Object(id ID) (Object, bool)
	// Close releases the file. Later lookups report false.
	Close() error
}

// A Prototype is an unopened Document that Open clones for every file.
type Prototype interface {
	Document
	Clone() Prototype
	OpenFile(path string) error
}

type registry struct {
	mu    sync.Mutex
	name  string
	proto Prototype
}

func (r *registry) register(name string, p Prototype) bool {
	if p == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proto != nil {
		return false
	}
	r.name, r.proto = name, p
	return true
}

func (r *registry) registered() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

func (r *registry) open(path string) (Document, error) {
	r.mu.Lock()
	p := r.proto
	r.mu.Unlock()
	if p == nil {
		return nil, errors.WithStack(ErrNoPrototype)
	}
	d := p.Clone()
	if err := d.OpenFile(path); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return d, nil
}

var defaultRegistry registry

// Register makes p the prototype that Open clones. Only the first call has
// any effect; later calls report false.
func Register(name string, p Prototype) bool {
	return defaultRegistry.register(name, p)
}

// Registered returns the name the current prototype registered under, or
// "" if there is none.
func Registered() string {
	return defaultRegistry.registered()
}

// Open opens the named file with a clone of the registered prototype.
// On failure the Document is nil.
func Open(path string) (Document, error) {
	return defaultRegistry.open(path)
}
