package warn

import "sync"

// filterKey addresses one filter rule: a category/caller-id/severity-bit
// triple (spec §6 "per category, per caller id, per severity bit").
type filterKey struct {
	category Category
	callerID string
	severity Severity
}

// Registry is a warning registry: it holds a filter table, with mutations
// serialized by its mutex, and fans out accepted warnings to a Sink. Each
// NewRegistry call creates an independent registry; there is no
// process-wide instance.
type Registry struct {
	mu      sync.Mutex
	filters map[filterKey]Action
	seen    map[filterKey]bool // ActionOnce bookkeeping
	sink    Sink
}

// NewRegistry returns a Registry delivering to sink. A nil sink is valid
// and simply discards every warning.
func NewRegistry(sink Sink) *Registry {
	return &Registry{
		filters: make(map[filterKey]Action),
		seen:    make(map[filterKey]bool),
		sink:    sink,
	}
}

// SetFilter installs a filter rule. category/severity may be matched more
// specifically by repeated calls; the most specific (exact category +
// caller id + severity bit) rule set via SetFilter always wins over a
// broader one, since lookups probe from most to least specific.
func (r *Registry) SetFilter(category Category, callerID string, severity Severity, action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[filterKey{category, callerID, severity}] = action
}

// Emit routes w through the filter table and, if accepted, forwards it to
// the sink. Returns whether the warning should be escalated to a fatal
// error (ActionError).
func (r *Registry) Emit(w Warning) (fatal bool) {
	r.mu.Lock()
	action := r.resolveAction(w)
	switch action {
	case ActionIgnore:
		r.mu.Unlock()
		return false
	case ActionOnce:
		key := filterKey{w.Category, w.CallerID, w.Severity}
		if r.seen[key] {
			r.mu.Unlock()
			return false
		}
		r.seen[key] = true
	case ActionError:
		r.mu.Unlock()
		if r.sink != nil {
			r.sink.Publish(w)
		}
		return true
	}
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		sink.Publish(w)
	}
	return false
}

// resolveAction probes progressively broader filter keys, most specific
// first, falling back to ActionDefault (deliver, not fatal) if nothing
// matches. Caller holds r.mu.
func (r *Registry) resolveAction(w Warning) Action {
	candidates := []filterKey{
		{w.Category, w.CallerID, w.Severity},
		{w.Category, "", w.Severity},
		{w.Category, w.CallerID, 0},
		{w.Category, "", 0},
		{0, w.CallerID, 0},
	}
	for _, k := range candidates {
		if a, ok := r.filters[k]; ok {
			return a
		}
	}
	return ActionDefault
}
