// Package kuhn implements N-player Kuhn poker. Each player antes one chip and
// is dealt a single card from a deck of PlayerNum+1 ranks; play proceeds in
// turn order with a single pass/bet decision each until the betting closes.
package kuhn

import (
	rand "math/rand/v2"

	"github.com/lox/cfrkit/internal/game"
)

// PlayerNum is fixed at build time, like the deck that goes with it. The
// payoff rules below stay general over it.
const (
	PlayerNum = 2
	CardNum   = PlayerNum + 1
)

// Actions available at a decision node.
const (
	ActionPass = 0
	ActionBet  = 1
	actionNum  = 2
)

// chancePlayer is the sentinel index reported while the root deal is pending.
const chancePlayer = PlayerNum + 1

// historyCap bounds the action history; betting closes after at most
// 2*PlayerNum decisions.
const historyCap = 10

// chanceActionNum is the size of the root chance fan: every permutation of
// the deck, indexed factorially.
var chanceActionNum = factorial(CardNum)

func factorial(n int) int {
	out := 1
	for i := 2; i <= n; i++ {
		out *= i
	}
	return out
}

// Game holds a single Kuhn episode. It is a small value type; Clone copies
// the arrays and shares the generator, which is only consulted by Reset.
type Game struct {
	rng          *rand.Rand
	cards        [CardNum]int
	payoffs      [PlayerNum]float64
	history      [historyCap]byte
	current      int
	chanceProb   float64
	firstBetTurn int
	betCount     int
	turn         int
	done         bool
}

// New returns a Kuhn game bound to the given generator. The generator is used
// only when Reset deals internally.
func New(rng *rand.Rand) *Game {
	return &Game{rng: rng, current: chancePlayer, firstBetTurn: -1}
}

func (g *Game) Name() string    { return "kuhn" }
func (g *Game) NumPlayers() int { return PlayerNum }

// Reset starts a new episode. With skipChance the deck is shuffled with the
// game's own generator and player 0 acts first; otherwise the state parks at
// the chance node and Step selects the permutation.
func (g *Game) Reset(skipChance bool) {
	g.payoffs = [PlayerNum]float64{}
	g.history = [historyCap]byte{}
	g.turn = 0
	g.firstBetTurn = -1
	g.betCount = 0
	g.done = false
	g.chanceProb = 1.0 / float64(chanceActionNum)

	if !skipChance {
		g.current = chancePlayer
		return
	}

	for i := range g.cards {
		g.cards[i] = i
	}
	for c1 := len(g.cards) - 1; c1 > 0; c1-- {
		c2 := g.rng.IntN(c1 + 1)
		g.cards[c1], g.cards[c2] = g.cards[c2], g.cards[c1]
	}
	g.current = 0
}

// Step advances the state. At the chance node the action index encodes a deck
// permutation in the factorial number system; at decision nodes it is
// ActionPass or ActionBet.
func (g *Game) Step(action int) {
	if g.current == chancePlayer {
		g.dealFromIndex(action)
		return
	}

	g.turn++
	g.betCount += action
	g.history[g.turn] = byte(action)
	if g.firstBetTurn == -1 && action == ActionBet {
		g.firstBetTurn = g.turn
	}

	plays := g.turn
	player := plays % PlayerNum
	if plays > 1 {
		g.settle(player, action)
	}
	g.current = player
}

// dealFromIndex expands a permutation index into a card order, mirroring the
// shuffle Reset performs from the generator.
func (g *Game) dealFromIndex(index int) {
	for i := range g.cards {
		g.cards[i] = i
	}
	a := index
	for c1 := len(g.cards) - 1; c1 > 0; c1-- {
		c2 := a % (c1 + 1)
		g.cards[c1], g.cards[c2] = g.cards[c2], g.cards[c1]
		a /= c1 + 1
	}
	g.chanceProb = 1.0 / float64(chanceActionNum)
	g.payoffs = [PlayerNum]float64{}
	g.turn = 0
	g.firstBetTurn = -1
	g.betCount = 0
	g.done = false
	g.current = 0
}

// settle checks the betting-closure conditions and fills the payoff vector.
// player is the seat that acts next if the hand continues.
func (g *Game) settle(player, lastAction int) {
	// The hand ends once every player has responded to the first bet, or once
	// everyone has passed.
	terminalPass := (g.firstBetTurn > 0 && g.turn-g.firstBetTurn == PlayerNum-1) ||
		(g.turn == PlayerNum && g.firstBetTurn == -1 && lastAction == ActionPass)

	switch {
	case g.betCount == PlayerNum:
		// Everyone bet: showdown for the full pot.
		win := g.bestCard(PlayerNum)
		for i := range g.payoffs {
			g.payoffs[i] = -2
		}
		g.payoffs[win] = 2 * (PlayerNum - 1)
		g.done = true

	case terminalPass && g.betCount == 0:
		// Everyone passed: showdown for the antes.
		win := g.bestCard(PlayerNum)
		for i := range g.payoffs {
			g.payoffs[i] = -1
		}
		g.payoffs[win] = PlayerNum - 1
		g.done = true

	case terminalPass && g.betCount == 1:
		// A single bet went uncalled; the bettor is the seat due to act.
		for i := range g.payoffs {
			g.payoffs[i] = -1
		}
		g.payoffs[player] = PlayerNum - 1
		g.done = true

	case terminalPass && g.betCount >= 2:
		// Showdown among the bettors only; folders forfeit their ante.
		var card [PlayerNum]int
		var bet [PlayerNum]bool
		for i := range card {
			card[i] = -1
		}
		for i := 0; i < g.turn; i++ {
			if g.history[i+1] == ActionBet {
				seat := i % PlayerNum
				card[seat] = g.cards[seat]
				bet[seat] = true
			}
		}
		win := 0
		for i := 1; i < PlayerNum; i++ {
			if card[i] > card[win] {
				win = i
			}
		}
		for i := range g.payoffs {
			if !bet[i] {
				g.payoffs[i] = -1
			} else if i != win {
				g.payoffs[i] = -2
			}
		}
		g.payoffs[win] = float64(2*(g.betCount-1) + (PlayerNum - g.betCount))
		g.done = true
	}
}

// bestCard returns the seat holding the highest of the first n dealt cards.
func (g *Game) bestCard(n int) int {
	win := 0
	for i := 1; i < n; i++ {
		if g.cards[i] > g.cards[win] {
			win = i
		}
	}
	return win
}

func (g *Game) IsTerminal() bool   { return g.done }
func (g *Game) IsChanceNode() bool { return g.current == chancePlayer }
func (g *Game) CurrentPlayer() int { return g.current }

func (g *Game) NumActions() int {
	if g.current == chancePlayer {
		return chanceActionNum
	}
	return actionNum
}

func (g *Game) ChanceProbability() float64 { return g.chanceProb }

func (g *Game) Payoff(player int) float64 { return g.payoffs[player] }

// InfoSetKey is the acting player's card followed by the public action
// history, one byte per element.
func (g *Game) InfoSetKey() string {
	key := make([]byte, g.turn+1)
	key[0] = byte(g.cards[g.current])
	copy(key[1:], g.history[1:g.turn+1])
	return string(key)
}

func (g *Game) Clone() game.Game {
	cp := *g
	return &cp
}
