package tree

import "github.com/mibar/dtxtract/internal/set"

// Attrs is an element's attribute mapping: lowercased name to raw string
// value, preserving declared order with class and id conventionally first
// (spec §3 invariant). It is built once by the HTML builder and read-only
// afterward.
type Attrs struct {
	order  set.Set[string]
	values map[string]string
}

// NewAttrs creates an empty, ordered attribute map.
func NewAttrs() *Attrs {
	return &Attrs{
		order:  set.New[string](),
		values: make(map[string]string),
	}
}

// Set records name=value, storing name as given (the HTML builder
// lowercases names before calling). Re-setting an existing name updates
// its value without changing its declared position.
func (a *Attrs) Set(name, value string) {
	a.order.Add(name)
	a.values[name] = value
}

// Promote moves name to the front of the declared order if present, used
// by the HTML builder to enforce the class/id-first convention.
func (a *Attrs) Promote(name string) {
	if !a.order.Has(name) {
		return
	}
	rest := make([]string, 0, a.order.Len())
	for _, n := range a.order.Values() {
		if n != name {
			rest = append(rest, n)
		}
	}
	a.order.Remove(rest...)
	a.order.Remove(name)
	a.order.Add(name)
	a.order.Add(rest...)
}

// Get returns the value for name and whether it was present.
func (a *Attrs) Get(name string) (string, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Has reports whether name is present, regardless of value.
func (a *Attrs) Has(name string) bool {
	return a.order.Has(name)
}

// Names returns attribute names in declared order.
func (a *Attrs) Names() []string {
	return a.order.Values()
}

// Len returns the number of attributes.
func (a *Attrs) Len() int {
	return a.order.Len()
}
