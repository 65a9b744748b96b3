package kuhn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cfrkit/internal/game"
	"github.com/lox/cfrkit/internal/randutil"
)

// dealt starts an episode through the explicit chance node with the given
// permutation index. Index 0 deals card 1 to player 0 and card 2 to player 1.
func dealt(t *testing.T, index int) *Game {
	t.Helper()
	g := New(randutil.New(1))
	g.Reset(false)
	require.True(t, g.IsChanceNode())
	g.Step(index)
	require.False(t, g.IsChanceNode())
	require.Equal(t, 0, g.CurrentPlayer())
	return g
}

func TestChanceFan(t *testing.T) {
	g := New(randutil.New(1))
	g.Reset(false)

	assert.True(t, g.IsChanceNode())
	assert.Equal(t, 6, g.NumActions())

	counts := make(map[byte]int)
	for index := 0; index < 6; index++ {
		episode := dealt(t, index)
		assert.InDelta(t, 1.0/6.0, episode.ChanceProbability(), 1e-12)
		counts[episode.InfoSetKey()[0]]++
	}
	// Every rank is dealt to player 0 in exactly two of the six permutations.
	assert.Equal(t, map[byte]int{0: 2, 1: 2, 2: 2}, counts)
}

func TestResetSkipChanceIsDeterministic(t *testing.T) {
	a := New(randutil.New(99))
	b := New(randutil.New(99))
	for i := 0; i < 20; i++ {
		a.Reset(true)
		b.Reset(true)
		assert.Equal(t, a.InfoSetKey(), b.InfoSetKey())
	}
}

func TestTerminalPayoffs(t *testing.T) {
	// Deal index 0: player 0 holds card 1, player 1 holds card 2.
	cases := []struct {
		name    string
		actions []int
		want    [2]float64
	}{
		{"check check", []int{ActionPass, ActionPass}, [2]float64{-1, 1}},
		{"check bet fold", []int{ActionPass, ActionBet, ActionPass}, [2]float64{-1, 1}},
		{"check bet call", []int{ActionPass, ActionBet, ActionBet}, [2]float64{-2, 2}},
		{"bet fold", []int{ActionBet, ActionPass}, [2]float64{1, -1}},
		{"bet call", []int{ActionBet, ActionBet}, [2]float64{-2, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := dealt(t, 0)
			for i, a := range tc.actions {
				require.False(t, g.IsTerminal(), "terminal before action %d", i)
				g.Step(a)
			}
			require.True(t, g.IsTerminal())
			assert.Equal(t, tc.want[0], g.Payoff(0))
			assert.Equal(t, tc.want[1], g.Payoff(1))
		})
	}
}

func TestInfoSetKeys(t *testing.T) {
	g := dealt(t, 0)
	assert.Equal(t, string([]byte{1}), g.InfoSetKey())

	g.Step(ActionPass)
	assert.Equal(t, 1, g.CurrentPlayer())
	assert.Equal(t, string([]byte{2, 0}), g.InfoSetKey())

	g.Step(ActionBet)
	assert.Equal(t, 0, g.CurrentPlayer())
	assert.Equal(t, string([]byte{1, 0, 1}), g.InfoSetKey())
}

func TestAllOutcomesZeroSum(t *testing.T) {
	root := New(randutil.New(1))
	root.Reset(false)

	terminals := 0
	var walk func(g game.Game)
	walk = func(g game.Game) {
		if g.IsTerminal() {
			terminals++
			sum := 0.0
			for p := 0; p < g.NumPlayers(); p++ {
				sum += g.Payoff(p)
			}
			assert.InDelta(t, 0, sum, 1e-9)
			return
		}
		for a := 0; a < g.NumActions(); a++ {
			child := g.Clone()
			child.Step(a)
			walk(child)
		}
	}
	walk(root)

	// Six deals, five betting lines each.
	assert.Equal(t, 30, terminals)
}

func TestCloneIsIndependent(t *testing.T) {
	g := dealt(t, 0)
	clone := g.Clone()
	clone.Step(ActionBet)

	assert.Equal(t, 0, g.CurrentPlayer())
	assert.False(t, g.IsTerminal())
	assert.Equal(t, 1, clone.CurrentPlayer())
}

func TestChanceProbabilityUniform(t *testing.T) {
	g := New(randutil.New(1))
	g.Reset(true)
	assert.InDelta(t, 1.0/6.0, g.ChanceProbability(), 1e-12)
	assert.False(t, math.Signbit(g.ChanceProbability()))
}
