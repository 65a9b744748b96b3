package cfr

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/cfrkit/internal/game"
)

// Agent plays a persisted average strategy. The profile table is read-only
// and may be shared; the generator is the agent's own.
type Agent struct {
	rng     *rand.Rand
	profile *NodeTable
}

// NewAgent wraps an already-loaded profile.
func NewAgent(rng *rand.Rand, profile *NodeTable) *Agent {
	return &Agent{rng: rng, profile: profile}
}

// LoadAgent reads a strategy file and returns an agent playing it.
func LoadAgent(rng *rand.Rand, path string) (*Agent, error) {
	profile, err := LoadProfile(path)
	if err != nil {
		return nil, err
	}
	return NewAgent(rng, profile), nil
}

// Action samples one action from the stored strategy at the current
// information set. A single-action node short-circuits to 0 without
// consulting the profile.
func (a *Agent) Action(g game.Game) (int, error) {
	if g.NumActions() == 1 {
		return 0, nil
	}
	sigma, err := a.Strategy(g)
	if err != nil {
		return 0, err
	}
	return sampleIndex(a.rng, sigma), nil
}

// Strategy returns the stored probability vector at the current information
// set without sampling.
func (a *Agent) Strategy(g game.Game) ([]float64, error) {
	key := g.InfoSetKey()
	node, ok := a.profile.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInfoSet, key)
	}
	return node.AverageStrategy(), nil
}
