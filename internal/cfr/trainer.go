package cfr

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"path/filepath"

	"github.com/lox/cfrkit/internal/game"
)

// Algorithm selects the CFR variant a trainer runs.
type Algorithm string

const (
	// AlgorithmVanilla walks the full tree including the chance fan.
	AlgorithmVanilla Algorithm = "vanilla"
	// AlgorithmChance samples the chance outcome once per episode and walks
	// the rest of the tree in full.
	AlgorithmChance Algorithm = "chance"
	// AlgorithmExternal enumerates the target player's actions and samples
	// everyone else's.
	AlgorithmExternal Algorithm = "external"
	// AlgorithmOutcome samples a single trajectory per episode with an
	// epsilon-greedy exploration policy at the target player's nodes.
	AlgorithmOutcome Algorithm = "outcome"
)

// ParseAlgorithm maps a CLI string onto an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmVanilla, AlgorithmChance, AlgorithmExternal, AlgorithmOutcome:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown algorithm %q", s)
	}
}

// outcomeEpsilon is the exploration weight of outcome sampling's behavior
// policy at the target player's nodes.
const outcomeEpsilon = 0.6

// Progress is handed to the driver's callback at the reporting cadence.
type Progress struct {
	Iteration    int
	InfoSets     int
	NodesTouched uint64
	// Utilities holds the utility each updating player's last walk returned.
	Utilities []float64
}

// Trainer owns one training run: the game prototype, the node table, the
// generator, and the per-player fixed-strategy slots. It runs on a single
// goroutine.
type Trainer struct {
	game    game.Game
	algo    Algorithm
	rng     *rand.Rand
	nodes   *NodeTable
	touched uint64

	updating []bool
	fixed    []*NodeTable

	outDir        string
	progressEvery int
	snapshotEvery int
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithFixedStrategy freezes one player to a loaded profile. The player is
// excluded from updating and the table is never mutated.
func WithFixedStrategy(player int, table *NodeTable) Option {
	return func(t *Trainer) {
		t.fixed[player] = table
		t.updating[player] = false
	}
}

// WithOutputDir enables strategy persistence into dir.
func WithOutputDir(dir string) Option {
	return func(t *Trainer) { t.outDir = dir }
}

// WithProgressEvery overrides the progress reporting cadence.
func WithProgressEvery(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.progressEvery = n
		}
	}
}

// WithSnapshotEvery overrides the snapshot persistence cadence.
func WithSnapshotEvery(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.snapshotEvery = n
		}
	}
}

// NewTrainer builds a trainer for the given game prototype and variant. The
// generator is an explicit dependency; two trainers built with equal seeds,
// games, and variants produce identical strategy tables.
func NewTrainer(g game.Game, algo Algorithm, rng *rand.Rand, opts ...Option) (*Trainer, error) {
	if _, err := ParseAlgorithm(string(algo)); err != nil {
		return nil, err
	}
	players := g.NumPlayers()
	t := &Trainer{
		game:          g,
		algo:          algo,
		rng:           rng,
		nodes:         NewNodeTable(),
		updating:      make([]bool, players),
		fixed:         make([]*NodeTable, players),
		progressEvery: 1000,
		snapshotEvery: 10_000_000,
	}
	for p := range t.updating {
		t.updating[p] = true
	}
	for _, opt := range opts {
		opt(t)
	}

	anyFixed := false
	anyUpdating := false
	for p := range t.updating {
		if t.updating[p] {
			anyUpdating = true
		} else {
			anyFixed = true
		}
	}
	if !anyUpdating {
		return nil, errors.New("no updating players remain")
	}
	if anyFixed && (algo == AlgorithmExternal || algo == AlgorithmOutcome) {
		return nil, fmt.Errorf("%w: %s", ErrFixedOpponent, algo)
	}
	return t, nil
}

// Nodes exposes the trainer's table, primarily for evaluation after a run.
func (t *Trainer) Nodes() *NodeTable { return t.nodes }

// NodesTouched returns the cumulative count of tree nodes visited.
func (t *Trainer) NodesTouched() uint64 { return t.touched }

// Run executes the requested number of iterations, reporting progress and
// persisting snapshots at their configured cadences. The final profile is
// written when an output directory is set.
func (t *Trainer) Run(iterations int, progress func(Progress)) error {
	if iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", iterations)
	}

	utils := make([]float64, t.game.NumPlayers())
	for i := 0; i < iterations; i++ {
		for p := range t.updating {
			if !t.updating[p] {
				continue
			}
			switch t.algo {
			case AlgorithmVanilla:
				t.game.Reset(false)
				utils[p] = t.vanilla(t.game, p, 1, 1)
			case AlgorithmChance:
				t.game.Reset(true)
				utils[p] = t.chanceSampling(t.game, p, 1, 1)
			case AlgorithmExternal:
				t.game.Reset(true)
				utils[p] = t.externalSampling(t.game, p)
			case AlgorithmOutcome:
				t.game.Reset(true)
				utils[p], _ = t.outcomeSampling(t.game, p, 1, 1, 1)
			}
		}

		if progress != nil && i%t.progressEvery == 0 {
			progress(Progress{
				Iteration:    i,
				InfoSets:     t.nodes.Len(),
				NodesTouched: t.touched,
				Utilities:    append([]float64(nil), utils...),
			})
		}
		if t.outDir != "" && i != 0 && i%t.snapshotEvery == 0 {
			if err := t.writeSnapshot(i); err != nil {
				return err
			}
		}
	}

	if t.outDir != "" {
		return t.writeSnapshot(0)
	}
	return nil
}

// writeSnapshot persists the average strategies. A zero iteration marks the
// final profile of a completed run.
func (t *Trainer) writeSnapshot(iteration int) error {
	name := fmt.Sprintf("strategy_%s.bin", t.algo)
	if iteration > 0 {
		name = fmt.Sprintf("strategy_%d_%s.bin", iteration, t.algo)
	}
	return WriteProfile(filepath.Join(t.outDir, name), t.nodes)
}

// fixedStrategy returns the frozen policy for a non-updating player at the
// given information set. Sets the fixed profile never visited fall back to
// uniform play.
func (t *Trainer) fixedStrategy(player int, key string, actions int) []float64 {
	if table := t.fixed[player]; table != nil {
		if node, ok := table.Get(key); ok {
			return node.AverageStrategy()
		}
	}
	sigma := make([]float64, actions)
	uniform := 1.0 / float64(actions)
	for a := range sigma {
		sigma[a] = uniform
	}
	return sigma
}
