package pdfwrap

import (
	"slices"
	"sort"
	"strings"
	"sync"
)

// A Name is an interned PDF name. Two Names are == exactly when they were
// interned from the same bytes. The zero Name is invalid.
type Name struct {
	e *nameEntry
}

type nameEntry struct {
	tok uint32 // creation order, starting at 1
	s   string
}

type nameTable struct {
	mu   sync.RWMutex
	m    map[string]*nameEntry
	next uint32
}

var names = sync.OnceValue(func() *nameTable {
	return &nameTable{m: make(map[string]*nameEntry)}
})

func (t *nameTable) intern(s string) Name {
	t.mu.RLock()
	e := t.m[s]
	t.mu.RUnlock()
	if e != nil {
		return Name{e}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Another goroutine may have inserted s between the two locks.
	if e := t.m[s]; e != nil {
		return Name{e}
	}
	t.next++
	e = &nameEntry{tok: t.next, s: strings.Clone(s)}
	t.m[e.s] = e
	return Name{e}
}

// Intern returns the Name for s, creating it on first use. Names are never
// freed. Intern is safe for concurrent use.
func Intern(s string) Name {
	return names().intern(s)
}

// NewName is an alias for Intern.
func NewName(s string) Name { return Intern(s) }

// IsValid reports whether n was produced by Intern.
func (n Name) IsValid() bool { return n.e != nil }

// String returns the name without a leading slash.
func (n Name) String() string {
	if n.e == nil {
		return "{{invalid name}}"
	}
	return n.e.s
}

// Less orders Names by creation. The invalid Name sorts first.
func (n Name) Less(m Name) bool { return n.token() < m.token() }

func (n Name) token() uint32 {
	if n.e == nil {
		return 0
	}
	return n.e.tok
}

// UnmarshalText interns text into n.
func (n *Name) UnmarshalText(text []byte) error {
	*n = Intern(string(text))
	return nil
}

// A NameSet is a set of Names, such as the keys of a dictionary.
type NameSet map[Name]struct{}

// Add inserts n into s.
func (s NameSet) Add(n Name) { s[n] = struct{}{} }

// Has reports whether n is in s.
func (s NameSet) Has(n Name) bool {
	_, ok := s[n]
	return ok
}

// Sorted returns the Names of s in creation order.
func (s NameSet) Sorted() []Name {
	out := make([]Name, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Strings returns the Names of s as lexically sorted strings.
func (s NameSet) Strings() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n.String())
	}
	slices.Sort(out)
	return out
}
