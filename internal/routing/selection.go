package routing

import (
	"sort"

	"github.com/sparedge/sparedge/internal/node"
)

// SelectionPolicy orders forwarding candidates for a request. Rank must be a
// pure function of its arguments: the same snapshot and request always produce
// the same ordering.
type SelectionPolicy interface {
	Rank(candidates []Entry, vcpus, memory int, origin node.Coordinate) []Entry
}

// LargestMarginPolicy prefers the neighbor with the most free capacity left
// after serving the request: vCPU headroom first, then memory headroom, ties
// broken by smallest grid distance to the request origin, then by neighbor
// identity.
type LargestMarginPolicy struct{}

func (LargestMarginPolicy) Rank(candidates []Entry, vcpus, memory int, origin node.Coordinate) []Entry {
	ranked := make([]Entry, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		am, bm := a.FreeVcpus-vcpus, b.FreeVcpus-vcpus
		if am != bm {
			return am > bm
		}
		am, bm = a.FreeMemory-memory, b.FreeMemory-memory
		if am != bm {
			return am > bm
		}
		da, db := a.Coord.Distance(origin), b.Coord.Distance(origin)
		if da != db {
			return da < db
		}
		return a.ID < b.ID
	})
	return ranked
}
