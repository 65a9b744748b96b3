package cfr

import (
	"errors"
	"math"
	"testing"

	"github.com/lox/cfrkit/internal/game/kuhn"
	"github.com/lox/cfrkit/internal/randutil"
)

func trainKuhn(t *testing.T, algo Algorithm, seed int64, iterations int, opts ...Option) *Trainer {
	t.Helper()
	rng := randutil.New(seed)
	trainer, err := NewTrainer(kuhn.New(rng), algo, rng, opts...)
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	if err := trainer.Run(iterations, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	return trainer
}

func averageStrategies(table *NodeTable) map[string][]float64 {
	out := make(map[string][]float64)
	for _, key := range table.Keys() {
		node, _ := table.Get(key)
		out[key] = append([]float64(nil), node.AverageStrategy()...)
	}
	return out
}

func TestTrainerDeterministicUnderFixedSeed(t *testing.T) {
	for _, algo := range []Algorithm{AlgorithmVanilla, AlgorithmChance, AlgorithmExternal, AlgorithmOutcome} {
		a := trainKuhn(t, algo, 7, 200)
		b := trainKuhn(t, algo, 7, 200)

		stratA := averageStrategies(a.Nodes())
		stratB := averageStrategies(b.Nodes())
		if len(stratA) == 0 {
			t.Fatalf("%s: expected info sets after training", algo)
		}
		if len(stratA) != len(stratB) {
			t.Fatalf("%s: table sizes differ: %d vs %d", algo, len(stratA), len(stratB))
		}
		for key, sa := range stratA {
			sb, ok := stratB[key]
			if !ok {
				t.Fatalf("%s: key %q missing from second run", algo, key)
			}
			for i := range sa {
				if sa[i] != sb[i] {
					t.Fatalf("%s: strategy at %q differs: %v vs %v", algo, key, sa, sb)
				}
			}
		}
	}
}

func TestTrainerStrategySimplexEverywhere(t *testing.T) {
	trainer := trainKuhn(t, AlgorithmVanilla, 3, 500)
	for _, key := range trainer.Nodes().Keys() {
		node, _ := trainer.Nodes().Get(key)
		for _, vec := range [][]float64{node.Strategy(), node.AverageStrategy()} {
			sum := 0.0
			for _, p := range vec {
				if p < 0 {
					t.Fatalf("negative probability at %q: %v", key, vec)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-6 {
				t.Fatalf("strategy at %q sums to %v", key, sum)
			}
		}
	}
}

func TestVanillaConvergesOnKuhn(t *testing.T) {
	trainer := trainKuhn(t, AlgorithmVanilla, 42, 10000)

	rng := randutil.New(1)
	g := kuhn.New(rng)
	policy := TablePolicy(trainer.Nodes())
	policies := []Policy{policy, policy}

	payoffs := ExpectedPayoffs(g, policies)
	if math.Abs(payoffs[0]+payoffs[1]) > 1e-6 {
		t.Fatalf("payoffs not zero-sum: %v", payoffs)
	}
	// Kuhn's equilibrium value for the first player is -1/18.
	if math.Abs(payoffs[0]-(-1.0/18.0)) > 0.02 {
		t.Fatalf("player 0 payoff %v, want about %v", payoffs[0], -1.0/18.0)
	}

	if exp := Exploitability(g, policies); exp > 0.05 {
		t.Fatalf("exploitability %v after 10k vanilla iterations", exp)
	}
}

func TestSamplingVariantsApproachEquilibrium(t *testing.T) {
	rng := randutil.New(1)
	g := kuhn.New(rng)
	for _, tc := range []struct {
		algo       Algorithm
		iterations int
		bound      float64
	}{
		{AlgorithmChance, 20000, 0.15},
		{AlgorithmExternal, 20000, 0.15},
		{AlgorithmOutcome, 40000, 0.25},
	} {
		trainer := trainKuhn(t, tc.algo, 42, tc.iterations)
		policy := TablePolicy(trainer.Nodes())
		exp := Exploitability(g, []Policy{policy, policy})
		if exp > tc.bound {
			t.Fatalf("%s: exploitability %v above %v after %d iterations",
				tc.algo, exp, tc.bound, tc.iterations)
		}
	}
}

func TestSamplingVariantsRejectFixedOpponents(t *testing.T) {
	fixed := NewNodeTable()
	for _, algo := range []Algorithm{AlgorithmExternal, AlgorithmOutcome} {
		rng := randutil.New(1)
		_, err := NewTrainer(kuhn.New(rng), algo, rng, WithFixedStrategy(0, fixed))
		if !errors.Is(err, ErrFixedOpponent) {
			t.Fatalf("%s: expected ErrFixedOpponent, got %v", algo, err)
		}
	}
}

func TestVanillaWithFixedOpponent(t *testing.T) {
	base := trainKuhn(t, AlgorithmVanilla, 42, 2000)
	fixed := base.Nodes()
	before := averageStrategies(fixed)

	trainer := trainKuhn(t, AlgorithmVanilla, 9, 2000, WithFixedStrategy(0, fixed))

	// Only the updating player's information sets get nodes: in two-player
	// Kuhn those are the second seat's, keyed by card plus one action byte.
	for _, key := range trainer.Nodes().Keys() {
		if len(key) != 2 {
			t.Fatalf("unexpected info set %q in responder table", key)
		}
	}
	if trainer.Nodes().Len() == 0 {
		t.Fatalf("expected responder info sets")
	}

	// The frozen table must be untouched.
	after := averageStrategies(fixed)
	for key, sa := range before {
		for i := range sa {
			if sa[i] != after[key][i] {
				t.Fatalf("fixed table mutated at %q", key)
			}
		}
	}

	// A responder trained against a near-equilibrium strategy must earn about
	// the equilibrium value, not fall well below it.
	rng := randutil.New(1)
	g := kuhn.New(rng)
	policies := []Policy{TablePolicy(fixed), TablePolicy(trainer.Nodes())}
	payoffs := ExpectedPayoffs(g, policies)
	if payoffs[1] < 1.0/18.0-0.05 {
		t.Fatalf("responder payoff %v well below equilibrium value", payoffs[1])
	}
}

func TestNoUpdatingPlayersRejected(t *testing.T) {
	rng := randutil.New(1)
	fixed := NewNodeTable()
	_, err := NewTrainer(kuhn.New(rng), AlgorithmVanilla, rng,
		WithFixedStrategy(0, fixed), WithFixedStrategy(1, fixed))
	if err == nil {
		t.Fatalf("expected error when every player is frozen")
	}
}

func TestProgressCadence(t *testing.T) {
	rng := randutil.New(5)
	trainer, err := NewTrainer(kuhn.New(rng), AlgorithmChance, rng, WithProgressEvery(10))
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}

	var calls []Progress
	if err := trainer.Run(25, func(p Progress) { calls = append(calls, p) }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected progress at iterations 0, 10, 20; got %d calls", len(calls))
	}
	last := calls[len(calls)-1]
	if last.Iteration != 20 || last.InfoSets == 0 || last.NodesTouched == 0 {
		t.Fatalf("unexpected final progress %+v", last)
	}
	if len(last.Utilities) != kuhn.PlayerNum {
		t.Fatalf("expected %d utilities, got %d", kuhn.PlayerNum, len(last.Utilities))
	}
}

func TestRunRejectsNonPositiveIterations(t *testing.T) {
	rng := randutil.New(5)
	trainer, err := NewTrainer(kuhn.New(rng), AlgorithmVanilla, rng)
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	if err := trainer.Run(0, nil); err == nil {
		t.Fatalf("expected error for zero iterations")
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, valid := range []string{"vanilla", "chance", "external", "outcome"} {
		if _, err := ParseAlgorithm(valid); err != nil {
			t.Fatalf("parse %q: %v", valid, err)
		}
	}
	if _, err := ParseAlgorithm("cfr+"); err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
}
