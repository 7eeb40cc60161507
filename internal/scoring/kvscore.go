package scoring

// KeyValueScore maps a record's unique id to its numeric score
// contribution.
type KeyValueScore map[int64]float64

// Plus merges two scores by key-wise addition with outer-join semantics:
// an id present on only one side keeps its value, as if the other side
// held zero. The operation is associative and commutative (modulo
// floating-point reassociation) and leaves both operands unchanged.
func (s KeyValueScore) Plus(other KeyValueScore) KeyValueScore {
	merged := make(KeyValueScore, max(len(s), len(other)))
	for id, v := range s {
		merged[id] = v
	}
	for id, v := range other {
		merged[id] += v
	}
	return merged
}

// Clone returns an independent copy.
func (s KeyValueScore) Clone() KeyValueScore {
	out := make(KeyValueScore, len(s))
	for id, v := range s {
		out[id] = v
	}
	return out
}

// Values returns the scores in unspecified order.
func (s KeyValueScore) Values() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}
