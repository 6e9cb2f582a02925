// Package neighborhood generates reversible moves on a ResourceOrder.
//
// A Move is a plain value: applying it mutates the order in place and Undo restores it, so
// a solver can evaluate a neighbor without copying the whole order.
package neighborhood

import (
	"fmt"

	"jobshop/encoding"
)

// MoveKind tags the transformation a Move performs. Swap is the only kind today.
type MoveKind uint8

const (
	Swap MoveKind = iota
)

func (k MoveKind) String() string {
	switch k {
	case Swap:
		return "swap"
	default:
		return fmt.Sprintf("MoveKind(%d)", uint8(k))
	}
}

// Move exchanges positions I and J in the order of Machine.
type Move struct {
	Kind    MoveKind
	Machine int
	I, J    int
}

// NewSwap returns the move exchanging positions i and j on machine.
func NewSwap(machine, i, j int) Move {
	return Move{Kind: Swap, Machine: machine, I: i, J: j}
}

// Apply turns order into the neighbor.
func (mv Move) Apply(order *encoding.ResourceOrder) {
	switch mv.Kind {
	case Swap:
		order.SwapTasks(mv.Machine, mv.I, mv.J)
	default:
		panic(fmt.Sprintf("unknown move kind %v", mv.Kind))
	}
}

// Undo turns the neighbor back into the order Apply was called on.
func (mv Move) Undo(order *encoding.ResourceOrder) {
	switch mv.Kind {
	case Swap:
		// a swap is its own inverse
		order.SwapTasks(mv.Machine, mv.I, mv.J)
	default:
		panic(fmt.Sprintf("unknown move kind %v", mv.Kind))
	}
}

func (mv Move) String() string {
	return fmt.Sprintf("%v(m%d: %d<->%d)", mv.Kind, mv.Machine, mv.I, mv.J)
}
