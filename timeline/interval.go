package timeline

import (
	"math"

	"github.com/dudk/cadence"
)

// IntervalEvent occupies [Time(), Time()+Duration()). Duration may be
// positive infinity.
type IntervalEvent interface {
	Event
	Duration() float64
}

// IntervalTimeline is an AVL interval tree keyed by event start and
// augmented with the maximum end of each subtree, so point queries skip
// subtrees that end before the point.
type IntervalTimeline[E IntervalEvent] struct {
	root   *node[E]
	length int
}

type node[E IntervalEvent] struct {
	event       E
	low, high   float64
	max         float64
	height      int
	left, right *node[E]
}

// NewIntervalTimeline creates an empty interval timeline.
func NewIntervalTimeline[E IntervalEvent]() *IntervalTimeline[E] {
	return &IntervalTimeline[E]{}
}

// Len returns number of events.
func (it *IntervalTimeline[E]) Len() int {
	return it.length
}

// Add inserts an event. Events with equal start keep insertion order.
func (it *IntervalTimeline[E]) Add(e E) error {
	low, d := e.Time(), e.Duration()
	if math.IsNaN(low) || math.IsInf(low, 0) {
		return cadence.InvalidArgument("IntervalTimeline.Add", "time", low)
	}
	if math.IsNaN(d) || d < 0 {
		return cadence.InvalidArgument("IntervalTimeline.Add", "duration", d)
	}
	n := &node[E]{event: e, low: low, high: low + d, height: 1}
	n.max = n.high
	it.root = insert(it.root, n)
	it.length++
	return nil
}

// Remove deletes the event. Returns false if event is not in timeline.
func (it *IntervalTimeline[E]) Remove(e E) bool {
	var removed bool
	it.root = remove(it.root, e, e.Time(), &removed)
	if removed {
		it.length--
	}
	return removed
}

// Cancel removes all events which start at or after the given time.
func (it *IntervalTimeline[E]) Cancel(after float64) {
	it.ForEachFrom(after, func(e E) {
		it.Remove(e)
	})
}

// Get returns the event which contains t and starts closest to it.
func (it *IntervalTimeline[E]) Get(t float64) (E, bool) {
	var (
		result E
		found  bool
		start  = math.Inf(-1)
	)
	collect(it.root, t, func(n *node[E]) {
		if n.low >= start {
			start = n.low
			result = n.event
			found = true
		}
	})
	return result, found
}

// ForEach calls fn for every event in start order.
func (it *IntervalTimeline[E]) ForEach(fn func(E)) {
	var events []E
	inorder(it.root, func(n *node[E]) {
		events = append(events, n.event)
	})
	for _, e := range events {
		fn(e)
	}
}

// ForEachAtTime calls fn for every event which contains t.
func (it *IntervalTimeline[E]) ForEachAtTime(t float64, fn func(E)) {
	var events []E
	collect(it.root, t, func(n *node[E]) {
		events = append(events, n.event)
	})
	for _, e := range events {
		fn(e)
	}
}

// ForEachFrom calls fn for every event which starts at or after t.
func (it *IntervalTimeline[E]) ForEachFrom(t float64, fn func(E)) {
	var events []E
	from(it.root, t, func(n *node[E]) {
		events = append(events, n.event)
	})
	for _, e := range events {
		fn(e)
	}
}

// Dispose removes all events.
func (it *IntervalTimeline[E]) Dispose() {
	it.root = nil
	it.length = 0
}

func (n *node[E]) contains(t float64) bool {
	return n.low <= t && t < n.high
}

func height[E IntervalEvent](n *node[E]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *node[E]) update() {
	n.height = 1 + maxInt(height(n.left), height(n.right))
	n.max = n.high
	if n.left != nil && n.left.max > n.max {
		n.max = n.left.max
	}
	if n.right != nil && n.right.max > n.max {
		n.max = n.right.max
	}
}

func (n *node[E]) balance() int {
	return height(n.left) - height(n.right)
}

func rotateRight[E IntervalEvent](n *node[E]) *node[E] {
	l := n.left
	n.left = l.right
	l.right = n
	n.update()
	l.update()
	return l
}

func rotateLeft[E IntervalEvent](n *node[E]) *node[E] {
	r := n.right
	n.right = r.left
	r.left = n
	n.update()
	r.update()
	return r
}

func rebalance[E IntervalEvent](n *node[E]) *node[E] {
	n.update()
	switch b := n.balance(); {
	case b > 1:
		if n.left.balance() < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case b < -1:
		if n.right.balance() > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

// insert puts equal keys to the right so in-order traversal keeps
// insertion order.
func insert[E IntervalEvent](root, n *node[E]) *node[E] {
	if root == nil {
		return n
	}
	if n.low < root.low {
		root.left = insert(root.left, n)
	} else {
		root.right = insert(root.right, n)
	}
	return rebalance(root)
}

func remove[E IntervalEvent](n *node[E], e E, low float64, removed *bool) *node[E] {
	if n == nil {
		return nil
	}
	switch {
	case low < n.low:
		n.left = remove(n.left, e, low, removed)
	case low > n.low:
		n.right = remove(n.right, e, low, removed)
	case n.event == e:
		*removed = true
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		// replace with in-order successor.
		s := n.right
		for s.left != nil {
			s = s.left
		}
		var ok bool
		n.right = remove(n.right, s.event, s.low, &ok)
		s.left, s.right = n.left, n.right
		return rebalance(s)
	default:
		// equal keys may end up on both sides after rotations.
		n.left = remove(n.left, e, low, removed)
		if !*removed {
			n.right = remove(n.right, e, low, removed)
		}
	}
	return rebalance(n)
}

func inorder[E IntervalEvent](n *node[E], fn func(*node[E])) {
	if n == nil {
		return
	}
	inorder(n.left, fn)
	fn(n)
	inorder(n.right, fn)
}

// collect visits in order every node which contains t.
func collect[E IntervalEvent](n *node[E], t float64, fn func(*node[E])) {
	if n == nil || n.max <= t {
		return
	}
	collect(n.left, t, fn)
	if n.contains(t) {
		fn(n)
	}
	if n.low <= t {
		collect(n.right, t, fn)
	}
}

// from visits in order every node which starts at or after t.
func from[E IntervalEvent](n *node[E], t float64, fn func(*node[E])) {
	if n == nil {
		return
	}
	if n.low >= t {
		from(n.left, t, fn)
		fn(n)
	}
	from(n.right, t, fn)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
