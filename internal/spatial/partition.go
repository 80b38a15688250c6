// Package spatial indexes polylines segment by segment in an R-tree.
//
// A Partition stores one bounding box per segment so that a query returns
// not just which curves are nearby but also which stretch of each curve,
// letting callers run exact distance checks over a few segments instead of
// the whole polyline.
package spatial

import (
	"errors"
	"fmt"
	"sync"

	"github.com/beetlebugorg/hdmap/internal/geom"
	"github.com/dhconnelly/rtreego"
)

var (
	// ErrEmptyGeometry is returned when inserting a curve with no points.
	ErrEmptyGeometry = errors.New("spatial: empty geometry")

	// ErrTooManySegments is returned when a curve has more segments than the
	// partition's id step can address.
	ErrTooManySegments = errors.New("spatial: too many segments")
)

// Options configures a Partition.
type Options struct {
	// Step is the id space reserved per curve. A curve may have at most Step
	// segments.
	Step uint64

	// MinChildren and MaxChildren are the R-tree node fan-out bounds.
	MinChildren int
	MaxChildren int

	// Epsilon pads zero-width boxes and offsets the synthetic second point of
	// single-point curves.
	Epsilon float64
}

// DefaultOptions returns the options used by NewPartition.
func DefaultOptions() Options {
	return Options{
		Step:        1 << 16,
		MinChildren: 25,
		MaxChildren: 50,
		Epsilon:     geom.DegenerateEpsilon,
	}
}

// Hit is one curve touched by a search. Range is the inclusive vertex range
// [first, last] covering every touched segment.
type Hit[K comparable] struct {
	Key   K
	Range [2]int
}

// Partition is a thread-safe segment index keyed by K.
type Partition[K comparable] struct {
	mu    sync.Mutex
	opts  Options
	rtree *rtreego.Rtree

	nextBase uint64
	byKey    map[K]*entry[K]
	byBase   map[uint64]*entry[K]
}

type entry[K comparable] struct {
	key    K
	base   uint64
	points int
	env    geom.Envelope
	segs   []*segment
}

// segment is the R-tree payload for one segment of one curve.
type segment struct {
	id   uint64
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (s *segment) Bounds() rtreego.Rect { return s.rect }

// NewPartition creates an empty partition with default options.
func NewPartition[K comparable]() *Partition[K] {
	return NewPartitionWithOptions[K](DefaultOptions())
}

// NewPartitionWithOptions creates an empty partition. Zero fields fall back
// to their defaults.
func NewPartitionWithOptions[K comparable](opts Options) *Partition[K] {
	def := DefaultOptions()
	if opts.Step == 0 {
		opts.Step = def.Step
	}
	if opts.MinChildren <= 0 || opts.MaxChildren < opts.MinChildren {
		opts.MinChildren, opts.MaxChildren = def.MinChildren, def.MaxChildren
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = def.Epsilon
	}
	p := &Partition[K]{opts: opts}
	p.reset()
	return p
}

func (p *Partition[K]) reset() {
	p.rtree = rtreego.NewTree(2, p.opts.MinChildren, p.opts.MaxChildren)
	p.byKey = make(map[K]*entry[K])
	p.byBase = make(map[uint64]*entry[K])
}

// Insert indexes the polyline points under key, one box per segment.
//
// Inserting a key that is already present returns false and changes nothing.
// A single point is indexed as a tiny segment around it.
func (p *Partition[K]) Insert(points []geom.Point, key K) (bool, error) {
	if len(points) == 0 {
		return false, ErrEmptyGeometry
	}
	if uint64(len(points)-1) > p.opts.Step {
		return false, fmt.Errorf("%w: %d segments, limit %d", ErrTooManySegments, len(points)-1, p.opts.Step)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byKey[key]; ok {
		return false, nil
	}

	n := len(points)
	if n == 1 {
		q := points[0]
		q.X += p.opts.Epsilon
		q.Y += p.opts.Epsilon
		points = []geom.Point{points[0], q}
	}

	e := &entry[K]{
		key:    key,
		base:   p.nextBase,
		points: n,
		segs:   make([]*segment, 0, len(points)-1),
	}
	e.env, _ = geom.EnvelopeOf(points)
	p.nextBase += p.opts.Step

	for i := 0; i < len(points)-1; i++ {
		env, _ := geom.EnvelopeOf(points[i : i+2])
		rect, err := p.rect(env)
		if err != nil {
			for _, s := range e.segs {
				p.rtree.Delete(s)
			}
			return false, err
		}
		s := &segment{id: e.base + uint64(i), rect: rect}
		p.rtree.Insert(s)
		e.segs = append(e.segs, s)
	}

	p.byKey[key] = e
	p.byBase[e.base] = e
	return true, nil
}

// Remove deletes every segment of key. It reports whether key was present.
func (p *Partition[K]) Remove(key K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byKey[key]
	if !ok {
		return false
	}
	for _, s := range e.segs {
		p.rtree.Delete(s)
	}
	delete(p.byKey, key)
	delete(p.byBase, e.base)
	return true
}

// RemoveAll empties the partition.
func (p *Partition[K]) RemoveAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

// Search returns every curve with a segment intersecting env, in the order
// the R-tree first reports them.
func (p *Partition[K]) Search(env geom.Envelope) []Hit[K] {
	p.mu.Lock()
	defer p.mu.Unlock()

	rect, err := p.rect(env)
	if err != nil {
		return nil
	}

	var hits []Hit[K]
	seen := make(map[uint64]int)
	for _, sp := range p.rtree.SearchIntersect(rect) {
		s := sp.(*segment)
		base := s.id - s.id%p.opts.Step
		e, ok := p.byBase[base]
		if !ok {
			continue
		}
		i := int(s.id - base)
		if at, ok := seen[base]; ok {
			h := &hits[at]
			h.Range[0] = min(h.Range[0], i)
			h.Range[1] = max(h.Range[1], i+1)
			continue
		}
		seen[base] = len(hits)
		hits = append(hits, Hit[K]{Key: e.key, Range: [2]int{i, i + 1}})
	}

	for i := range hits {
		last := p.byKey[hits[i].Key].points - 1
		hits[i].Range[1] = min(hits[i].Range[1], last)
	}
	return hits
}

// SearchKeys is Search without the vertex ranges.
func (p *Partition[K]) SearchKeys(env geom.Envelope) []K {
	hits := p.Search(env)
	keys := make([]K, len(hits))
	for i, h := range hits {
		keys[i] = h.Key
	}
	return keys
}

// Contains reports whether key is indexed.
func (p *Partition[K]) Contains(key K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byKey[key]
	return ok
}

// Bounds returns the envelope of the whole curve stored under key.
func (p *Partition[K]) Bounds(key K) (geom.Envelope, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byKey[key]
	if !ok {
		return geom.Envelope{}, false
	}
	return e.env, true
}

// Len is the number of indexed curves.
func (p *Partition[K]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byKey)
}

// Segments is the number of boxes in the R-tree.
func (p *Partition[K]) Segments() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rtree.Size()
}

// rect converts an envelope to an R-tree rectangle. The tree rejects zero
// lengths, so thin axes are padded.
func (p *Partition[K]) rect(env geom.Envelope) (rtreego.Rect, error) {
	env = geom.PadDegenerate(env, p.opts.Epsilon)
	point := rtreego.Point{env.Min[0], env.Min[1]}
	lengths := []float64{env.Max[0] - env.Min[0], env.Max[1] - env.Min[1]}
	return rtreego.NewRect(point, lengths)
}
