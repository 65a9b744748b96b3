package cfr

import (
	"math"

	"github.com/lox/cfrkit/internal/game"
)

// Policy maps a decision state to a probability vector over its legal
// actions. The evaluator consults the acting player's Policy at every
// decision node.
type Policy func(g game.Game) []float64

// TablePolicy wraps a node table's average strategies as a Policy.
// Information sets the table never visited play uniformly.
func TablePolicy(table *NodeTable) Policy {
	return func(g game.Game) []float64 {
		if node, ok := table.Get(g.InfoSetKey()); ok {
			return node.AverageStrategy()
		}
		sigma := make([]float64, g.NumActions())
		uniform := 1.0 / float64(len(sigma))
		for a := range sigma {
			sigma[a] = uniform
		}
		return sigma
	}
}

// ExpectedPayoffs computes each player's expected payoff at the root under
// the given per-player policies, mixing over the full chance fan.
func ExpectedPayoffs(g game.Game, policies []Policy) []float64 {
	root := g.Clone()
	root.Reset(false)
	return expectedWalk(root, policies)
}

func expectedWalk(g game.Game, policies []Policy) []float64 {
	players := g.NumPlayers()
	out := make([]float64, players)

	if g.IsTerminal() {
		for p := range out {
			out[p] = g.Payoff(p)
		}
		return out
	}

	actions := g.NumActions()
	if g.IsChanceNode() {
		for a := 0; a < actions; a++ {
			child := g.Clone()
			child.Step(a)
			prob := child.ChanceProbability()
			for p, v := range expectedWalk(child, policies) {
				out[p] += prob * v
			}
		}
		return out
	}

	sigma := policies[g.CurrentPlayer()](g)
	for a := 0; a < actions; a++ {
		if sigma[a] == 0 {
			continue
		}
		child := g.Clone()
		child.Step(a)
		for p, v := range expectedWalk(child, policies) {
			out[p] += sigma[a] * v
		}
	}
	return out
}

// weightedState is one concrete state inside an information set, carrying the
// reach probability contributed by chance and the other players.
type weightedState struct {
	state  game.Game
	weight float64
}

// bestResponse carries the shared state of one best-response computation.
type bestResponse struct {
	policies []Policy
	target   int
	// index groups the target's reachable states by information set.
	index map[string][]weightedState
	// chosen memoizes the maximizing action per information set.
	chosen map[string]int
}

// BestResponseValue returns the expected payoff the target player achieves by
// best-responding against the other players' policies.
func BestResponseValue(g game.Game, policies []Policy, target int) float64 {
	br := &bestResponse{
		policies: policies,
		target:   target,
		index:    make(map[string][]weightedState),
		chosen:   make(map[string]int),
	}
	root := g.Clone()
	root.Reset(false)
	br.collect(root, 1)

	root = g.Clone()
	root.Reset(false)
	return br.value(root)
}

// Exploitability sums each player's best-response value against the profile.
// At an exact equilibrium the sum is zero. It is returned undivided, as the
// sum over players; for two-player zero-sum games, half of it is the usual
// NashConv epsilon.
func Exploitability(g game.Game, policies []Policy) float64 {
	total := 0.0
	for p := 0; p < g.NumPlayers(); p++ {
		total += BestResponseValue(g, policies, p)
	}
	return total
}

// collect walks the whole tree accumulating the opponents-and-chance reach
// weight, snapshotting every state where the target acts. Recursion descends
// through every action regardless of who acts.
func (br *bestResponse) collect(g game.Game, weight float64) {
	if g.IsTerminal() {
		return
	}

	actions := g.NumActions()
	if g.IsChanceNode() {
		for a := 0; a < actions; a++ {
			child := g.Clone()
			child.Step(a)
			br.collect(child, weight*child.ChanceProbability())
		}
		return
	}

	player := g.CurrentPlayer()
	if player == br.target {
		key := g.InfoSetKey()
		br.index[key] = append(br.index[key], weightedState{state: g.Clone(), weight: weight})
		for a := 0; a < actions; a++ {
			child := g.Clone()
			child.Step(a)
			br.collect(child, weight)
		}
		return
	}

	sigma := br.policies[player](g)
	for a := 0; a < actions; a++ {
		child := g.Clone()
		child.Step(a)
		br.collect(child, weight*sigma[a])
	}
}

// value evaluates the target's payoff while the target plays the maximizing
// pure action per information set and everyone else follows their policy.
func (br *bestResponse) value(g game.Game) float64 {
	if g.IsTerminal() {
		return g.Payoff(br.target)
	}

	actions := g.NumActions()
	if g.IsChanceNode() {
		util := 0.0
		for a := 0; a < actions; a++ {
			child := g.Clone()
			child.Step(a)
			util += child.ChanceProbability() * br.value(child)
		}
		return util
	}

	player := g.CurrentPlayer()
	if player != br.target {
		sigma := br.policies[player](g)
		util := 0.0
		for a := 0; a < actions; a++ {
			if sigma[a] == 0 {
				continue
			}
			child := g.Clone()
			child.Step(a)
			util += sigma[a] * br.value(child)
		}
		return util
	}

	key := g.InfoSetKey()
	best, ok := br.chosen[key]
	if !ok {
		// Weight each candidate action by the full information set, not just
		// this state, so the response maximizes over what the target can
		// actually distinguish. Ties resolve to the lowest action index.
		bestUtil := math.Inf(-1)
		for a := 0; a < actions; a++ {
			util := 0.0
			for _, ws := range br.index[key] {
				child := ws.state.Clone()
				child.Step(a)
				util += ws.weight * br.value(child)
			}
			if util > bestUtil {
				bestUtil = util
				best = a
			}
		}
		br.chosen[key] = best
	}

	child := g.Clone()
	child.Step(best)
	return br.value(child)
}
