// Package spatial provides the approximate-Euclidean broad-phase index
// used by the detection engine. Coordinates are projected onto a local
// equirectangular plane (lat, lon·cos(lat)) so that nearby points can be
// found with a plain k-d tree before exact geodesic verification.
package spatial

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// NoNeighbor is the sentinel index returned for query slots with no
// neighbor inside the search radius.
const NoNeighbor = -1

// Point is a position in projected-degree space.
type Point struct {
	X float64 // latitude, degrees
	Y float64 // longitude scaled by cos(latitude), degrees
}

// Project maps a lat/lon pair onto the local equirectangular plane.
// The approximation degrades near the poles and over large spans, which
// is acceptable at the sub-kilometer radii this index is queried with;
// candidates are always re-verified with the exact geodesic distance.
func Project(lat, lon float64) Point {
	return Point{X: lat, Y: lon * math.Cos(lat*math.Pi/180)}
}

// Neighbor is one query result. Dist is the projected Euclidean
// distance in degrees, never a geodesic distance.
type Neighbor struct {
	Index int
	Dist  float64
}

type node struct {
	point       int32
	left, right int32 // node slice indices, -1 for none
	axis        uint8
}

// Index is an immutable k-d tree over a fixed point set.
type Index struct {
	pts   []Point
	nodes []node
	root  int32
}

// NewIndex builds a k-d tree over pts. It fails on an empty set or any
// non-finite coordinate; callers treat that as a degraded pass, not a
// fatal condition.
func NewIndex(pts []Point) (*Index, error) {
	if len(pts) == 0 {
		return nil, eris.New("spatial: cannot index an empty point set")
	}
	for i, p := range pts {
		if !finite(p.X) || !finite(p.Y) {
			return nil, eris.Errorf("spatial: non-finite coordinate at point %d", i)
		}
	}

	ix := &Index{pts: pts, nodes: make([]node, 0, len(pts))}
	order := make([]int, len(pts))
	for i := range order {
		order[i] = i
	}
	ix.root = ix.build(order, 0)
	return ix, nil
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return len(ix.pts) }

func (ix *Index) build(order []int, depth int) int32 {
	if len(order) == 0 {
		return -1
	}
	axis := depth % 2
	sort.Slice(order, func(i, j int) bool {
		return ix.coord(order[i], axis) < ix.coord(order[j], axis)
	})
	mid := len(order) / 2

	id := int32(len(ix.nodes))
	ix.nodes = append(ix.nodes, node{point: int32(order[mid]), axis: uint8(axis), left: -1, right: -1})
	left := ix.build(order[:mid], depth+1)
	right := ix.build(order[mid+1:], depth+1)
	ix.nodes[id].left = left
	ix.nodes[id].right = right
	return id
}

func (ix *Index) coord(pt, axis int) float64 {
	if axis == 0 {
		return ix.pts[pt].X
	}
	return ix.pts[pt].Y
}

// Nearest returns the k nearest indexed points to q within maxDist,
// ordered by ascending projected distance. Slots beyond the number of
// neighbors found carry Index == NoNeighbor, mirroring the bounded
// query contract the engine expects.
func (ix *Index) Nearest(q Point, k int, maxDist float64) []Neighbor {
	if k <= 0 {
		return nil
	}
	best := make([]Neighbor, 0, k)
	ix.search(ix.root, q, k, maxDist, &best)
	for len(best) < k {
		best = append(best, Neighbor{Index: NoNeighbor, Dist: math.Inf(1)})
	}
	return best
}

func (ix *Index) search(ni int32, q Point, k int, maxDist float64, best *[]Neighbor) {
	if ni < 0 {
		return
	}
	n := ix.nodes[ni]
	p := ix.pts[n.point]

	d := math.Hypot(p.X-q.X, p.Y-q.Y)
	if d <= maxDist {
		insertNeighbor(best, k, Neighbor{Index: int(n.point), Dist: d})
	}

	qc, pc := q.X, p.X
	if n.axis == 1 {
		qc, pc = q.Y, p.Y
	}
	near, far := n.left, n.right
	if qc > pc {
		near, far = far, near
	}

	ix.search(near, q, k, maxDist, best)

	// The far subtree can only contain a closer point if the splitting
	// plane is within the current search bound.
	bound := maxDist
	if len(*best) == k && (*best)[k-1].Dist < bound {
		bound = (*best)[k-1].Dist
	}
	if math.Abs(qc-pc) <= bound {
		ix.search(far, q, k, maxDist, best)
	}
}

func insertNeighbor(best *[]Neighbor, k int, nb Neighbor) {
	b := *best
	pos := len(b)
	for pos > 0 && nb.Dist < b[pos-1].Dist {
		pos--
	}
	if pos >= k {
		return
	}
	if len(b) < k {
		b = append(b, Neighbor{})
	}
	copy(b[pos+1:], b[pos:])
	b[pos] = nb
	*best = b
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
