// Package cluster groups documents with DBSCAN over a precomputed distance
// matrix.
package cluster

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/deusflow/dedupnews/internal/similarity"
)

// Noise labels a point that belongs to no dense region.
const Noise = -1

const (
	DefaultEps        = 0.8
	DefaultMinSamples = 2
)

// ErrInvalidParams is returned for a non-positive eps or a min samples
// below one.
var ErrInvalidParams = errors.New("invalid clustering parameters")

// Params are the DBSCAN parameters. MinSamples counts the point itself.
type Params struct {
	Eps        float64
	MinSamples int
}

// DefaultParams returns eps 0.8 and min samples 2: an article needs one
// close neighbor to leave the noise.
func DefaultParams() Params {
	return Params{Eps: DefaultEps, MinSamples: DefaultMinSamples}
}

// Validate reports whether the parameters are usable by DBSCAN.
func (p Params) Validate() error {
	if p.Eps <= 0 {
		return fmt.Errorf("%w: eps must be > 0, got %v", ErrInvalidParams, p.Eps)
	}
	if p.MinSamples < 1 {
		return fmt.Errorf("%w: min samples must be >= 1, got %d", ErrInvalidParams, p.MinSamples)
	}
	return nil
}

// Distances converts similarities into distances, max(1-s, 0). An empty
// matrix yields nil.
func Distances(m *similarity.Matrix) *mat.SymDense {
	n := m.Len()
	if n == 0 {
		return nil
	}
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := 1 - m.At(i, j)
			if v < 0 {
				v = 0
			}
			d.SetSym(i, j, v)
		}
	}
	return d
}

// DBSCAN labels every point of dist with a cluster number or Noise. Points
// are visited in index order, so a fixed input always yields the same
// labels.
func DBSCAN(dist *mat.SymDense, p Params) ([]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if dist == nil || dist.IsEmpty() {
		return []int{}, nil
	}

	n := dist.SymmetricDim()
	labels := make([]int, n)
	visited := make([]bool, n)
	for i := range labels {
		labels[i] = Noise
	}

	current := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := regionQuery(dist, i, p.Eps)
		if len(neighbors) < p.MinSamples {
			continue
		}
		expand(dist, i, neighbors, current, p, visited, labels)
		current++
	}
	return labels, nil
}

// regionQuery returns every point within eps of i, i included.
func regionQuery(dist *mat.SymDense, i int, eps float64) []int {
	n := dist.SymmetricDim()
	var out []int
	for j := 0; j < n; j++ {
		if j == i || dist.At(i, j) <= eps {
			out = append(out, j)
		}
	}
	return out
}

func expand(dist *mat.SymDense, seed int, neighbors []int, label int, p Params, visited []bool, labels []int) {
	labels[seed] = label

	queued := make(map[int]struct{}, len(neighbors))
	for _, nb := range neighbors {
		queued[nb] = struct{}{}
	}

	for k := 0; k < len(neighbors); k++ {
		j := neighbors[k]
		if !visited[j] {
			visited[j] = true
			more := regionQuery(dist, j, p.Eps)
			if len(more) >= p.MinSamples {
				for _, m := range more {
					if _, ok := queued[m]; !ok {
						queued[m] = struct{}{}
						neighbors = append(neighbors, m)
					}
				}
			}
		}
		if labels[j] == Noise {
			labels[j] = label
		}
	}
}

// Groups inverts labels into label -> member indices, members ascending.
// Noise points are grouped under Noise.
func Groups(labels []int) map[int][]int {
	groups := make(map[int][]int)
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}
	return groups
}

// SortedLabels returns the non-noise labels of groups, largest group first,
// ties by lowest label.
func SortedLabels(groups map[int][]int) []int {
	labels := make([]int, 0, len(groups))
	for l := range groups {
		if l != Noise {
			labels = append(labels, l)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := groups[labels[i]], groups[labels[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return labels[i] < labels[j]
	})
	return labels
}
