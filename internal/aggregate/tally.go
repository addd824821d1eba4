package aggregate

// tally is a per-run accumulator keyed by player name that remembers
// first-seen order. It never outlives a single computation.
type tally[V any] struct {
	order  []string
	values map[string]*V
}

func newTally[V any]() *tally[V] {
	return &tally[V]{values: make(map[string]*V)}
}

// getOrCreate returns the counters for name, registering it on first sight.
func (t *tally[V]) getOrCreate(name string) *V {
	if v, ok := t.values[name]; ok {
		return v
	}
	v := new(V)
	t.values[name] = v
	t.order = append(t.order, name)
	return v
}

func (t *tally[V]) has(name string) bool {
	_, ok := t.values[name]
	return ok
}

// rename moves from's counters to to, keeping from's position.
func (t *tally[V]) rename(from, to string) {
	v := t.values[from]
	delete(t.values, from)
	t.values[to] = v
	for i, name := range t.order {
		if name == from {
			t.order[i] = to
			return
		}
	}
}

func (t *tally[V]) remove(name string) {
	delete(t.values, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// each visits entries in first-seen order.
func (t *tally[V]) each(fn func(name string, v V)) {
	for _, name := range t.order {
		fn(name, *t.values[name])
	}
}

func (t *tally[V]) len() int {
	return len(t.order)
}

// fold credits every alias present in the tally to its canonical name and
// drops the alias entry. A canonical that was never seen takes over the
// alias's position.
func (t *tally[V]) fold(aliases AliasMap, merge func(dst *V, src V)) {
	for canonical, alts := range aliases {
		for _, alt := range alts {
			if alt == canonical || !t.has(alt) {
				continue
			}
			if !t.has(canonical) {
				t.rename(alt, canonical)
				continue
			}
			merge(t.values[canonical], *t.values[alt])
			t.remove(alt)
		}
	}
}
