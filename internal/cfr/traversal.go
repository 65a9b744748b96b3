package cfr

import "github.com/lox/cfrkit/internal/game"

// vanilla walks the full game tree. reachMe is the reach probability
// contributed by the target player's own actions, reachOthers the product of
// everyone else's (opponents and chance). Returns the target's expected
// utility at this node.
func (t *Trainer) vanilla(g game.Game, target int, reachMe, reachOthers float64) float64 {
	t.touched++

	if g.IsTerminal() {
		return g.Payoff(target)
	}

	actions := g.NumActions()
	if g.IsChanceNode() {
		util := 0.0
		for a := 0; a < actions; a++ {
			child := g.Clone()
			child.Step(a)
			p := child.ChanceProbability()
			util += p * t.vanilla(child, target, reachMe, reachOthers*p)
		}
		return util
	}

	player := g.CurrentPlayer()
	key := g.InfoSetKey()

	// A frozen player mixes like a second chance node: weight each branch by
	// the loaded average strategy and touch no accumulators.
	if !t.updating[player] {
		sigma := t.fixedStrategy(player, key, actions)
		util := 0.0
		for a := 0; a < actions; a++ {
			child := g.Clone()
			child.Step(a)
			util += sigma[a] * t.vanilla(child, target, reachMe, reachOthers*sigma[a])
		}
		return util
	}

	node := t.nodes.GetOrCreate(key, actions)
	sigma := append([]float64(nil), node.Strategy()...)

	utils := make([]float64, actions)
	nodeUtil := 0.0
	for a := 0; a < actions; a++ {
		child := g.Clone()
		child.Step(a)
		if player == target {
			utils[a] = t.vanilla(child, target, reachMe*sigma[a], reachOthers)
		} else {
			utils[a] = t.vanilla(child, target, reachMe, reachOthers*sigma[a])
		}
		nodeUtil += sigma[a] * utils[a]
	}

	if player == target {
		for a := 0; a < actions; a++ {
			node.SetRegret(a, node.Regret(a)+reachOthers*(utils[a]-nodeUtil))
		}
		node.AddStrategy(sigma, reachMe)
	}
	return nodeUtil
}

// chanceSampling is the vanilla recursion with the chance fan already
// collapsed: the episode was dealt at reset, so no chance nodes appear and
// reachOthers tracks opponent reach only.
func (t *Trainer) chanceSampling(g game.Game, target int, reachMe, reachOthers float64) float64 {
	t.touched++

	if g.IsTerminal() {
		return g.Payoff(target)
	}

	actions := g.NumActions()
	player := g.CurrentPlayer()
	key := g.InfoSetKey()

	if !t.updating[player] {
		sigma := t.fixedStrategy(player, key, actions)
		util := 0.0
		for a := 0; a < actions; a++ {
			child := g.Clone()
			child.Step(a)
			util += sigma[a] * t.chanceSampling(child, target, reachMe, reachOthers*sigma[a])
		}
		return util
	}

	node := t.nodes.GetOrCreate(key, actions)
	sigma := append([]float64(nil), node.Strategy()...)

	utils := make([]float64, actions)
	nodeUtil := 0.0
	for a := 0; a < actions; a++ {
		child := g.Clone()
		child.Step(a)
		if player == target {
			utils[a] = t.chanceSampling(child, target, reachMe*sigma[a], reachOthers)
		} else {
			utils[a] = t.chanceSampling(child, target, reachMe, reachOthers*sigma[a])
		}
		nodeUtil += sigma[a] * utils[a]
	}

	if player == target {
		for a := 0; a < actions; a++ {
			node.SetRegret(a, node.Regret(a)+reachOthers*(utils[a]-nodeUtil))
		}
		node.AddStrategy(sigma, reachMe)
	}
	return nodeUtil
}

// externalSampling enumerates the target player's actions and samples a
// single action from everyone else's current strategy. Regrets accumulate
// unweighted; non-target visits contribute weight 1 to the strategy sum.
func (t *Trainer) externalSampling(g game.Game, target int) float64 {
	t.touched++

	if g.IsTerminal() {
		return g.Payoff(target)
	}

	actions := g.NumActions()
	player := g.CurrentPlayer()
	node := t.nodes.GetOrCreate(g.InfoSetKey(), actions)
	sigma := append([]float64(nil), node.Strategy()...)

	if player != target {
		child := g.Clone()
		child.Step(sampleIndex(t.rng, sigma))
		util := t.externalSampling(child, target)
		node.AddStrategy(sigma, 1)
		return util
	}

	utils := make([]float64, actions)
	nodeUtil := 0.0
	for a := 0; a < actions; a++ {
		child := g.Clone()
		child.Step(a)
		utils[a] = t.externalSampling(child, target)
		nodeUtil += sigma[a] * utils[a]
	}
	for a := 0; a < actions; a++ {
		node.SetRegret(a, node.Regret(a)+utils[a]-nodeUtil)
	}
	return nodeUtil
}

// outcomeSampling follows a single trajectory. s is the sample probability of
// the path so far; the return value pairs the importance-corrected utility
// with the tail reach probability of the trajectory below this node.
func (t *Trainer) outcomeSampling(g game.Game, target int, reachMe, reachOthers, s float64) (float64, float64) {
	t.touched++

	if g.IsTerminal() {
		return g.Payoff(target) / s, 1
	}

	actions := g.NumActions()
	player := g.CurrentPlayer()
	node := t.nodes.GetOrCreate(g.InfoSetKey(), actions)
	sigma := append([]float64(nil), node.Strategy()...)

	// Behavior policy: epsilon-greedy over the current strategy at the
	// target's nodes, the strategy itself everywhere else.
	behavior := sigma
	if player == target {
		behavior = make([]float64, actions)
		for a := range behavior {
			behavior[a] = outcomeEpsilon/float64(actions) + (1-outcomeEpsilon)*sigma[a]
		}
	}
	sampled := sampleIndex(t.rng, behavior)

	child := g.Clone()
	child.Step(sampled)
	nextMe, nextOthers := reachMe, reachOthers
	if player == target {
		nextMe *= sigma[sampled]
	} else {
		nextOthers *= sigma[sampled]
	}
	util, tail := t.outcomeSampling(child, target, nextMe, nextOthers, s*behavior[sampled])

	if player == target {
		w := util * reachOthers
		for a := 0; a < actions; a++ {
			var regret float64
			if a == sampled {
				regret = w * (1 - sigma[sampled]) * tail
			} else {
				regret = -w * sigma[sampled] * tail
			}
			node.SetRegret(a, node.Regret(a)+regret)
		}
	} else {
		node.AddStrategy(sigma, reachOthers/s)
	}
	return util, tail * sigma[sampled]
}
