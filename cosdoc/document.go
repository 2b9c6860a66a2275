// Package cosdoc implements pdfwrap.Document on top of the built-in COS
// engine. Importing it registers the engine as the prototype pdfwrap.Open
// clones:
//
//	import _ "github.com/ScriptRock/pdfwrap/cosdoc"
//
// Callers that need a password or a private logger use OpenFile instead.
package cosdoc

import (
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/ScriptRock/pdfwrap"
	"github.com/ScriptRock/pdfwrap/internal/cos"
	"github.com/ScriptRock/pdfwrap/logging"
)

// EngineName is the name the package registers its prototype under.
const EngineName = "COS"

// engineInit is replaced in tests.
var engineInit = cos.Init

// ErrInvalidPassword is wrapped by the OpenError of an encrypted document
// that neither the empty password nor WithPassword opens.
var ErrInvalidPassword = cos.ErrInvalidPassword

func init() {
	pdfwrap.Register(EngineName, New())
}

// typeMap translates engine types by their engine names.
var typeMap = func() map[cos.Type]pdfwrap.Type {
	m := make(map[cos.Type]pdfwrap.Type)
	for t := cos.TypeNull; t <= cos.TypeUnknown; t++ {
		m[t] = pdfwrap.ParseType(t.String())
	}
	return m
}()

type document struct {
	cfg     config
	path    string
	doc     *cos.Doc
	objects map[pdfwrap.ID]*object
}

// New returns an unopened document configured by opts.
func New(opts ...Option) pdfwrap.Prototype {
	return &document{cfg: newConfig(opts)}
}

// OpenFile opens the named file directly, bypassing the registry. Errors
// are *pdfwrap.OpenError values, as from pdfwrap.Open.
func OpenFile(path string, opts ...Option) (pdfwrap.Document, error) {
	d := &document{cfg: newConfig(opts)}
	if err := d.OpenFile(path); err != nil {
		return nil, &pdfwrap.OpenError{Path: path, Err: err}
	}
	return d, nil
}

func (d *document) Clone() pdfwrap.Prototype {
	return &document{cfg: d.cfg}
}

// OpenFile parses the named file. On failure d stays invalid and may be
// opened again with another path.
func (d *document) OpenFile(path string) error {
	if d.doc != nil {
		return errors.Errorf("cosdoc: %s is already open", d.path)
	}
	if err := engineInit(); err != nil {
		return errors.Wrapf(pdfwrap.ErrInit, "%v", err)
	}
	var (
		cd   *cos.Doc
		oerr error
	)
	cfg := cos.Config{Password: d.cfg.password, Logger: d.cfg.logger}
	if err := cos.Catch(func() { cd, oerr = cos.Open(path, cfg) }); err != nil {
		return errors.WithStack(err)
	}
	if oerr != nil {
		return errors.WithStack(oerr)
	}
	d.path = path
	d.doc = cd
	d.objects = make(map[pdfwrap.ID]*object)
	d.logger().Debug("opened document",
		slog.String("path", path),
		slog.Int("objects", cd.NumObjects()),
		slog.Bool("repaired", cd.Repaired()))
	return nil
}

func (d *document) logger() *slog.Logger {
	if d.cfg.logger != nil {
		return d.cfg.logger
	}
	return logging.Logger()
}

// guard runs fn and reports whether it finished without an engine fault.
func (d *document) guard(fn func()) bool {
	if err := cos.Catch(fn); err != nil {
		d.logger().Debug("engine fault", slog.String("path", d.path), slog.String("err", err.Error()))
		return false
	}
	return true
}

func (d *document) Path() string { return d.path }

func (d *document) IsValid() bool { return d.doc != nil && !d.doc.Closed() }

func (d *document) Version() pdfwrap.Version {
	if !d.IsValid() {
		return pdfwrap.Version{}
	}
	var major, minor int
	d.guard(func() { major, minor = d.doc.Version() })
	return pdfwrap.Version{Major: uint16(major), Minor: uint16(minor)}
}

func (d *document) Catalog() (pdfwrap.Object, bool) {
	if !d.IsValid() {
		return nil, false
	}
	var co cos.Obj
	if !d.guard(func() { co = d.doc.Root() }) || co.IsZero() || co.Type() == cos.TypeNull {
		return nil, false
	}
	return d.resolve(co), true
}

func (d *document) Trailer() (pdfwrap.Object, bool) {
	if !d.IsValid() {
		return nil, false
	}
	var co cos.Obj
	if !d.guard(func() { co = d.doc.Trailer() }) || co.IsZero() || co.Type() == cos.TypeNull {
		return nil, false
	}
	return d.resolve(co), true
}

func (d *document) Object(id pdfwrap.ID) (pdfwrap.Object, bool) {
	if !d.IsValid() || id <= 0 || id > math.MaxUint32 {
		return nil, false
	}
	if o, ok := d.objects[id]; ok {
		return o, true
	}
	var co cos.Obj
	if !d.guard(func() { co = d.doc.ObjByID(uint32(id)) }) || co.IsZero() {
		return nil, false
	}
	return d.resolve(co), true
}

// Close releases the file mapping. Objects already handed out keep their
// type and length but every lookup through them reports false.
func (d *document) Close() error {
	if d.doc == nil {
		return nil
	}
	d.objects = nil
	return errors.WithStack(d.doc.Close())
}

// resolve wraps co. Indirect objects are materialised once per ID; direct
// objects are wrapped afresh every time.
func (d *document) resolve(co cos.Obj) *object {
	if !co.IsIndirect() {
		return newObject(d, co)
	}
	id := pdfwrap.ID(co.ID())
	if o, ok := d.objects[id]; ok {
		return o
	}
	o := newObject(d, co)
	if d.objects != nil {
		d.objects[id] = o
	}
	return o
}
