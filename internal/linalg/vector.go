// Package linalg provides the sparse vector arithmetic used by model scoring.
package linalg

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Vector is a sparse vector stored as parallel index/value slices.
// Indices are strictly increasing and values are non-zero.
type Vector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// New builds a Vector from an index-to-value map. Zero values are dropped.
func New(entries map[int]float64) Vector {
	indices := make([]int, 0, len(entries))
	for i, v := range entries {
		if v == 0 {
			continue
		}
		indices = append(indices, i)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = entries[idx]
	}
	return Vector{Indices: indices, Values: values}
}

// NNZ returns the number of stored (non-zero) entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// At returns the value at index i, or 0 when i is not stored.
func (v Vector) At(i int) float64 {
	pos := sort.SearchInts(v.Indices, i)
	if pos < len(v.Indices) && v.Indices[pos] == i {
		return v.Values[pos]
	}
	return 0
}

// Dot computes the inner product of two sparse vectors.
func Dot(a, b Vector) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] < b.Indices[j]:
			i++
		case a.Indices[i] > b.Indices[j]:
			j++
		default:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		}
	}
	return sum
}

// Norm1 returns the L1 norm.
func (v Vector) Norm1() float64 {
	sum := 0.0
	for _, x := range v.Values {
		sum += math.Abs(x)
	}
	return sum
}

// Norm2 returns the L2 norm.
func (v Vector) Norm2() float64 {
	sumSq := 0.0
	for _, x := range v.Values {
		sumSq += x * x
	}
	return math.Sqrt(sumSq)
}

// Equal reports whether two vectors have identical sparsity patterns and
// values within tol of each other.
func (v Vector) Equal(other Vector, tol float64) bool {
	if len(v.Indices) != len(other.Indices) {
		return false
	}
	for i := range v.Indices {
		if v.Indices[i] != other.Indices[i] {
			return false
		}
		if math.Abs(v.Values[i]-other.Values[i]) > tol {
			return false
		}
	}
	return true
}

func (v Vector) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i := range v.Indices {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d:%g", v.Indices[i], v.Values[i])
	}
	b.WriteString("]")
	return b.String()
}
