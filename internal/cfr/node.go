package cfr

// Node accumulates counterfactual regret and the reach-weighted strategy sum
// for one information set. The action count is fixed at construction; all
// accumulators are float64 so that long runs do not drift.
type Node struct {
	regretSum   []float64
	strategy    []float64
	strategySum []float64
	average     []float64
	// stale marks the average as needing recomputation from the strategy sum.
	stale bool
}

// NewNode returns a node for an information set with the given action count.
func NewNode(actions int) *Node {
	if actions < 1 {
		panic("cfr: node needs at least one action")
	}
	n := &Node{
		regretSum:   make([]float64, actions),
		strategy:    make([]float64, actions),
		strategySum: make([]float64, actions),
		average:     make([]float64, actions),
		stale:       true,
	}
	uniform := 1.0 / float64(actions)
	for a := range n.strategy {
		n.strategy[a] = uniform
	}
	return n
}

// newLoadedNode reconstructs a persisted node: only the average strategy is
// installed, everything else stays zero and the average is final.
func newLoadedNode(average []float64) *Node {
	return &Node{
		regretSum:   make([]float64, len(average)),
		strategy:    make([]float64, len(average)),
		strategySum: make([]float64, len(average)),
		average:     average,
	}
}

// NumActions returns the node's fixed action count.
func (n *Node) NumActions() int { return len(n.regretSum) }

// Strategy derives the current mixed strategy by regret matching: positive
// cumulative regrets normalized, uniform when none are positive. The cached
// buffer is updated in place and returned; callers that hold the slice across
// further traversal must copy it.
func (n *Node) Strategy() []float64 {
	total := 0.0
	for a, r := range n.regretSum {
		if r > 0 {
			n.strategy[a] = r
			total += r
		} else {
			n.strategy[a] = 0
		}
	}
	if total > 0 {
		for a := range n.strategy {
			n.strategy[a] /= total
		}
	} else {
		uniform := 1.0 / float64(len(n.strategy))
		for a := range n.strategy {
			n.strategy[a] = uniform
		}
	}
	return n.strategy
}

// AddStrategy accumulates the given strategy into the strategy sum, weighted
// by the acting player's reach probability.
func (n *Node) AddStrategy(strategy []float64, weight float64) {
	for a := range n.strategySum {
		n.strategySum[a] += weight * strategy[a]
	}
	n.stale = true
}

// AverageStrategy returns the normalized strategy sum, recomputing it only
// when stale. An empty sum collapses to uniform.
func (n *Node) AverageStrategy() []float64 {
	if !n.stale {
		return n.average
	}
	total := 0.0
	for _, s := range n.strategySum {
		total += s
	}
	if total > 0 {
		for a := range n.average {
			n.average[a] = n.strategySum[a] / total
		}
	} else {
		uniform := 1.0 / float64(len(n.average))
		for a := range n.average {
			n.average[a] = uniform
		}
	}
	n.stale = false
	return n.average
}

// Regret returns the cumulative counterfactual regret of an action.
func (n *Node) Regret(action int) float64 { return n.regretSum[action] }

// SetRegret overwrites the cumulative counterfactual regret of an action.
func (n *Node) SetRegret(action int, value float64) { n.regretSum[action] = value }
