package airzone

// merger reconciles a previous ordered collection of entities E with freshly
// fetched records R, keyed by K.
//
// Records rejected by keep are ignored. A record whose key matches a previous
// entity updates that same entity in place; an unmatched record creates a new
// entity; previous entities without a record are dropped. The result follows
// record order, and only the first record of a repeated key is used.
type merger[K comparable, R any, E any] struct {
	keep      func(R) bool
	recordKey func(R) K
	entityKey func(E) K
	update    func(E, R)
	create    func(R) E
}

func (m merger[K, R, E]) merge(prev []E, records []R) []E {
	known := make(map[K]E, len(prev))
	for _, e := range prev {
		known[m.entityKey(e)] = e
	}

	seen := make(map[K]struct{}, len(records))
	merged := make([]E, 0, len(records))
	for _, r := range records {
		if m.keep != nil && !m.keep(r) {
			continue
		}
		key := m.recordKey(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if e, ok := known[key]; ok {
			m.update(e, r)
			merged = append(merged, e)
			continue
		}
		merged = append(merged, m.create(r))
	}
	return merged
}
