package pdfwrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoFile = errors.New("no such file")

// fakeDoc opens any path except "missing.pdf".
type fakeDoc struct {
	name   string
	path   string
	valid  bool
	clones *int
}

func (d *fakeDoc) Path() string                { return d.path }
func (d *fakeDoc) IsValid() bool               { return d.valid }
func (d *fakeDoc) Version() Version            { return Version{1, 7} }
func (d *fakeDoc) Catalog() (Object, bool)     { return nil, false }
func (d *fakeDoc) Trailer() (Object, bool)     { return nil, false }
func (d *fakeDoc) Object(id ID) (Object, bool) { return nil, false }
func (d *fakeDoc) Close() error                { return nil }

func (d *fakeDoc) Clone() Prototype {
	*d.clones++
	return &fakeDoc{name: d.name, clones: d.clones}
}

func (d *fakeDoc) OpenFile(path string) error {
	if path == "missing.pdf" {
		return errNoFile
	}
	d.path, d.valid = path, true
	return nil
}

func Test_Registry(t *testing.T) {
	var r registry
	var clones int

	_, err := r.open("a.pdf")
	assert.ErrorIs(t, err, ErrNoPrototype)
	assert.Equal(t, "", r.registered())

	assert.False(t, r.register("nil", nil))
	first := &fakeDoc{name: "first", clones: &clones}
	assert.True(t, r.register("first", first))
	assert.False(t, r.register("second", &fakeDoc{name: "second", clones: &clones}))
	assert.Equal(t, "first", r.registered())

	d, err := r.open("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "first", d.(*fakeDoc).name)
	assert.True(t, d.IsValid())
	assert.Equal(t, "a.pdf", d.Path())
	assert.False(t, first.IsValid(), "the prototype itself is never opened")

	d2, err := r.open("b.pdf")
	require.NoError(t, err)
	assert.NotSame(t, d, d2)
	assert.Equal(t, 2, clones)
}

func Test_Registry_OpenError(t *testing.T) {
	var r registry
	var clones int
	r.register("fake", &fakeDoc{clones: &clones})

	d, err := r.open("missing.pdf")
	assert.Nil(t, d)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, errNoFile)

	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "missing.pdf", oe.Path)
	assert.Equal(t, "pdfwrap: open missing.pdf: no such file", err.Error())
}

func Test_Version(t *testing.T) {
	v14 := Version{1, 4}
	v17 := Version{1, 7}
	v20 := Version{2, 0}

	assert.False(t, Version{}.IsSet())
	assert.True(t, v14.IsSet())
	assert.True(t, v14.Less(v17))
	assert.True(t, v17.Less(v20))
	assert.False(t, v17.Less(v17))
	assert.True(t, v17.LessEqual(v17))
	assert.False(t, v20.LessEqual(v17))
	assert.Equal(t, "1.7", v17.String())
	assert.Equal(t, "2.0", v20.String())
}
