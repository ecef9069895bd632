package ir

// RunAnalysis runs a generic worklist fixpoint over a Declarations'
// adjacency graph: every declaration starts queued, the queued declaration
// with the fewest not-yet-visited children is visited next, and any
// declaration whose computed value changes requeues its parents. It is
// generalized so a codegen backend can derive per-declaration properties (transitive
// size bounds, "references a deprecated type" flags, and similar) without
// reimplementing the queueing discipline.
//
// compute receives the declaration's own index and a lookup into the
// current value of every other declaration (values start at their zero
// value and are refined monotonically); it returns the declaration's new
// value and whether that value changed from the last time compute ran
// for this index.
func RunAnalysis[T any](decls *Declarations, compute func(i DeclarationIndex, value func(DeclarationIndex) T) (T, bool)) map[DeclarationIndex]T {
	n := len(decls.Decls)
	values := make(map[DeclarationIndex]T, n)
	settled := make([]bool, n)

	value := func(i DeclarationIndex) T { return values[i] }

	// remaining[i] counts children not yet visited at least once;
	// declarations with fewer unresolved children are processed first so
	// most values are already meaningful on first visit.
	remaining := make([]int, n)
	for i := 0; i < n; i++ {
		remaining[i] = len(decls.Children[DeclarationIndex(i)])
	}

	queue := make([]DeclarationIndex, 0, n)
	inQueue := make([]bool, n)
	enqueue := func(i DeclarationIndex) {
		if !inQueue[i] {
			inQueue[i] = true
			queue = append(queue, i)
		}
	}
	for i := 0; i < n; i++ {
		enqueue(DeclarationIndex(i))
	}

	for len(queue) > 0 {
		// Pop the queued entry with the fewest unsettled children, per
		// the "lowest child-count first" discipline.
		best := 0
		for i := 1; i < len(queue); i++ {
			if remaining[queue[i]] < remaining[queue[best]] {
				best = i
			}
		}
		i := queue[best]
		queue = append(queue[:best], queue[best+1:]...)
		inQueue[i] = false

		newVal, changed := compute(i, value)
		wasSettled := settled[i]
		values[i] = newVal
		settled[i] = true

		if changed || !wasSettled {
			for _, p := range decls.Parents[i] {
				if !wasSettled && remaining[p] > 0 {
					remaining[p]--
				}
				enqueue(p)
			}
		}
	}
	return values
}
