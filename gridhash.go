// Package gridhash implements a fixed-capacity uniform-grid spatial hash for
// broad-phase collision queries. A Grid is rebuilt from scratch once per
// frame from a snapshot of entities and then queried any number of times for
// candidate overlaps. It never performs exact overlap tests itself: queries
// may yield false positives and duplicates, and the caller is expected to
// filter candidates with its own narrow-phase test.
//
// The Grid allocates everything up front (New) and never grows. Population
// runs a counting sort over the bucket table: count memberships per bucket,
// prefix-sum the counts into offsets, then scatter entries in by decrementing
// from each bucket's end offset. Entries end up contiguous per bucket but in
// reverse insertion order within a bucket; callers must not rely on order.
//
// A Grid is not safe for concurrent use. Confine one instance per simulation
// goroutine, and never query while a population call is in flight.
package gridhash

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSpacing is returned by New when spacing is not strictly positive.
	ErrSpacing = errors.New("gridhash: spacing must be > 0")
	// ErrMaxEntries is returned by New when maxEntries is not strictly positive.
	ErrMaxEntries = errors.New("gridhash: max entries must be > 0")
	// ErrCapacity is returned by population when the total number of
	// (entity, cell) memberships exceeds the grid's fixed capacity.
	ErrCapacity = errors.New("gridhash: capacity exceeded")
	// ErrMalformed is returned by population when an entity has a negative
	// extent, non-finite bounds, or a cell span too large to index.
	ErrMalformed = errors.New("gridhash: malformed bounds")
)

// Cell coordinates beyond this magnitude are rejected rather than enumerated,
// so a runaway AABB cannot turn one population or query into an unbounded
// walk over cell space.
const maxCellCoord = 1 << 30

// AABB is an axis-aligned bounding box: position of the min corner plus
// extent, all in world units. W and H must be >= 0.
type AABB struct {
	X, Y float64
	W, H float64
}

// Bounded is the capability an entity must expose to be indexed: its
// current AABB in world units.
type Bounded interface {
	Bounds() AABB
}

// Grid is a fixed-capacity spatial hash storing values of type T, one per
// (entity, overlapped cell) membership. T is typically a lightweight
// identifier supplied via PopulateFunc rather than a full entity handle.
type Grid[T comparable] struct {
	spacing    float64
	maxEntries int
	cellCount  int

	// cellStarts[i]..cellStarts[i+1] is the half-open range of entries
	// belonging to bucket i. cellStarts[cellCount] holds the total number
	// of memberships recorded by the last population.
	cellStarts []int
	entries    []T
}

// New allocates a grid with the given cell spacing and total membership
// capacity. The bucket table is sized at 2*maxEntries to keep hash
// collisions between distinct cells rare. Both arguments are fixed for the
// life of the grid.
func New[T comparable](spacing float64, maxEntries int) (*Grid[T], error) {
	if !(spacing > 0) {
		return nil, ErrSpacing
	}
	if maxEntries <= 0 {
		return nil, ErrMaxEntries
	}
	cellCount := 2 * maxEntries
	return &Grid[T]{
		spacing:    spacing,
		maxEntries: maxEntries,
		cellCount:  cellCount,
		cellStarts: make([]int, cellCount+1),
		entries:    make([]T, maxEntries),
	}, nil
}

// Spacing returns the world-unit edge length of one grid cell.
func (g *Grid[T]) Spacing() float64 { return g.spacing }

// Cap returns the maximum number of memberships one population can hold.
func (g *Grid[T]) Cap() int { return g.maxEntries }

// Len returns the number of memberships recorded by the last population.
func (g *Grid[T]) Len() int { return g.cellStarts[g.cellCount] }

// Populate rebuilds the grid from items, storing each item as its own value.
// Equivalent to PopulateFunc with an identity transform.
func Populate[E interface {
	comparable
	Bounded
}](g *Grid[E], items []E) error {
	return PopulateFunc(g, items, func(e E) E { return e })
}

// PopulateFunc rebuilds the grid from items, storing transform(item) for
// every cell the item's AABB overlaps. transform is called once per
// membership, so an item spanning several cells is transformed several
// times; it must be pure.
//
// The rebuild is atomic: on any error the grid's previous contents are left
// untouched and remain queryable.
func PopulateFunc[E Bounded, T comparable](g *Grid[T], items []E, transform func(E) T) error {
	// Validation pass. Everything that can fail is checked before the
	// arrays are touched, so a bad batch never leaves the grid half-built.
	total := 0
	for i, it := range items {
		x1, y1, x2, y2, err := g.cellRange(it.Bounds())
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		total += (x2 - x1 + 1) * (y2 - y1 + 1)
		if total > g.maxEntries {
			return fmt.Errorf("%w: %d items need more than %d slots", ErrCapacity, len(items), g.maxEntries)
		}
	}

	// Clear.
	clear(g.cellStarts)
	clear(g.entries)

	// Count memberships per bucket.
	for _, it := range items {
		x1, y1, x2, y2, _ := g.cellRange(it.Bounds())
		for cy := y1; cy <= y2; cy++ {
			for cx := x1; cx <= x2; cx++ {
				g.cellStarts[g.bucket(cx, cy)]++
			}
		}
	}

	// Prefix-sum the counts. After this pass cellStarts[i] is the end
	// offset of bucket i and cellStarts[cellCount] the grand total.
	sum := 0
	for i := 0; i < g.cellCount; i++ {
		sum += g.cellStarts[i]
		g.cellStarts[i] = sum
	}
	g.cellStarts[g.cellCount] = sum

	// Scatter. Writing at the decremented end offset fills each bucket
	// back-to-front without any secondary counters; once all memberships
	// are in, cellStarts[i] has landed on bucket i's start offset.
	for _, it := range items {
		x1, y1, x2, y2, _ := g.cellRange(it.Bounds())
		for cy := y1; cy <= y2; cy++ {
			for cx := x1; cx <= x2; cx++ {
				b := g.bucket(cx, cy)
				g.cellStarts[b]--
				g.entries[g.cellStarts[b]] = transform(it)
			}
		}
	}
	return nil
}

// Query yields every stored value whose bucket is overlapped by probe,
// calling visit for each. Values may be yielded more than once (an entity
// spanning several shared cells, or distinct cells hashing to one bucket);
// unrelated values may appear when cells collide in the hash. What is
// guaranteed is the absence of false negatives: any entity sharing at least
// one grid cell with probe is yielded at least once.
//
// visit returns false to stop the enumeration early. A probe with malformed
// bounds yields nothing.
func (g *Grid[T]) Query(probe AABB, visit func(T) bool) {
	x1, y1, x2, y2, err := g.cellRange(probe)
	if err != nil {
		return
	}
	for cy := y1; cy <= y2; cy++ {
		for cx := x1; cx <= x2; cx++ {
			b := g.bucket(cx, cy)
			for i := g.cellStarts[b]; i < g.cellStarts[b+1]; i++ {
				if !visit(g.entries[i]) {
					return
				}
			}
		}
	}
}

// QueryUnique is Query with per-call duplicate suppression: each distinct
// value is yielded exactly once. Costs one transient set allocation per
// call; use plain Query when the caller already de-duplicates.
func (g *Grid[T]) QueryUnique(probe AABB, visit func(T) bool) {
	var seen map[T]struct{}
	g.Query(probe, func(v T) bool {
		if seen == nil {
			seen = make(map[T]struct{})
		}
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
		return visit(v)
	})
}

// cellRange converts an AABB to the inclusive rectangle of cell coordinates
// it overlaps. Cell coordinates floor-divide by spacing, so negative world
// coordinates bin correctly (-1 with spacing 32 lands in cell -1, not 0).
func (g *Grid[T]) cellRange(b AABB) (x1, y1, x2, y2 int, err error) {
	if !(b.W >= 0) || !(b.H >= 0) {
		return 0, 0, 0, 0, ErrMalformed
	}
	fx1 := math.Floor(b.X / g.spacing)
	fy1 := math.Floor(b.Y / g.spacing)
	fx2 := math.Floor((b.X + b.W) / g.spacing)
	fy2 := math.Floor((b.Y + b.H) / g.spacing)
	if !(fx1 >= -maxCellCoord && fy1 >= -maxCellCoord && fx2 <= maxCellCoord && fy2 <= maxCellCoord) {
		return 0, 0, 0, 0, ErrMalformed
	}
	return int(fx1), int(fy1), int(fx2), int(fy2), nil
}

// bucket maps a cell coordinate pair to a bucket index. Fixed multiplicative
// XOR hash; folding with abs biases some residues slightly, which only costs
// locality, never correctness.
func (g *Grid[T]) bucket(cx, cy int) int {
	h := cx*9283711 ^ cy*689287499
	if h < 0 {
		h = -h & math.MaxInt
	}
	return h % g.cellCount
}
