package flowrec

type flowPair struct {
	before, after int64
}

// Registry records which base samples and flow pairs were issued during one
// batch run. Create one per run; it is not safe for concurrent use.
type Registry struct {
	samples map[string]map[int64]struct{}
	pairs   map[string]map[flowPair]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		samples: make(map[string]map[int64]struct{}),
		pairs:   make(map[string]map[flowPair]struct{}),
	}
}

// SampleUsed reports whether base was already issued for key.
func (r *Registry) SampleUsed(key string, base Flow) bool {
	_, ok := r.samples[key][base.Milli()]
	return ok
}

// MarkSample records base as issued for key.
func (r *Registry) MarkSample(key string, base Flow) {
	set, ok := r.samples[key]
	if !ok {
		set = make(map[int64]struct{})
		r.samples[key] = set
	}
	set[base.Milli()] = struct{}{}
}

// PairUsed reports whether the (before, after) pair was already issued for key.
func (r *Registry) PairUsed(key string, before, after Flow) bool {
	_, ok := r.pairs[key][flowPair{before.Milli(), after.Milli()}]
	return ok
}

// MarkPair records the (before, after) pair as issued for key.
func (r *Registry) MarkPair(key string, before, after Flow) {
	set, ok := r.pairs[key]
	if !ok {
		set = make(map[flowPair]struct{})
		r.pairs[key] = set
	}
	set[flowPair{before.Milli(), after.Milli()}] = struct{}{}
}

// Reset forgets everything issued so far.
func (r *Registry) Reset() {
	clear(r.samples)
	clear(r.pairs)
}

// Len returns the number of distinct base samples issued across all keys.
func (r *Registry) Len() int {
	n := 0
	for _, set := range r.samples {
		n += len(set)
	}
	return n
}
