package cos

import (
	"errors"
	"sync"
)

// ErrNotInitialized reports that the engine could not be initialized.
var ErrNotInitialized = errors.New("cos: engine not initialized")

// An initter runs engine setup at most once and remembers the outcome.
type initter struct {
	once  sync.Once
	setup func() (map[string]filter, error)

	filters map[string]filter
	err     error
}

func (in *initter) init() error {
	in.once.Do(func() {
		in.filters, in.err = in.setup()
		if in.err != nil {
			in.err = errors.Join(ErrNotInitialized, in.err)
		}
	})
	return in.err
}

// engine.setup is assigned in init: the filters reach back into the
// engine through object streams.
var engine = &initter{}

func init() {
	engine.setup = buildFilters
}

// Init prepares the engine. It is safe to call repeatedly and from several
// goroutines; every call after the first returns the first call's result.
func Init() error {
	return engine.init()
}

func lookupFilter(name string) (filter, bool) {
	f, ok := engine.filters[name]
	return f, ok
}

func buildFilters() (map[string]filter, error) {
	table := []struct {
		name, abbrev string
		filter
	}{
		{"FlateDecode", "Fl", filter{decode: decodeFlate}},
		{"LZWDecode", "LZW", filter{decode: decodeLZW}},
		{"ASCII85Decode", "A85", filter{decode: decodeASCII85}},
		{"ASCIIHexDecode", "AHx", filter{decode: decodeASCIIHex}},
		{"RunLengthDecode", "RL", filter{decode: decodeRunLength}},
		{"CCITTFaxDecode", "CCF", filter{decode: decodeCCITTFax}},
		{"Crypt", "", filter{decode: decodeCrypt}},
		{"DCTDecode", "DCT", filter{image: true}},
		{"JPXDecode", "", filter{image: true}},
		{"JBIG2Decode", "", filter{image: true}},
	}
	m := make(map[string]filter, 2*len(table))
	for _, t := range table {
		f := t.filter
		f.name = t.name
		if !f.image && f.decode == nil {
			return nil, errors.New("filter " + t.name + " has no decoder")
		}
		m[t.name] = f
		if t.abbrev != "" {
			m[t.abbrev] = f
		}
	}
	return m, nil
}
