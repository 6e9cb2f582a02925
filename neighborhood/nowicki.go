package neighborhood

import (
	"jobshop/encoding"
)

// Neighborhood lists the moves available from an order. schedule must be the decoding of
// order; it is passed in so the caller's decode is not repeated.
type Neighborhood interface {
	Neighbors(order *encoding.ResourceOrder, schedule *encoding.Schedule) []Move
}

// Block is a maximal run of consecutive critical-path tasks on one machine, given as the
// positions of its first and last task in that machine's order.
type Block struct {
	Machine   int
	FirstTask int
	LastTask  int
}

func (b Block) Len() int { return b.LastTask - b.FirstTask + 1 }

// Nowicki is the Nowicki and Smutnicki neighborhood: for every critical block of two or
// more tasks, swap its first two tasks and, when longer than two, its last two tasks.
type Nowicki struct{}

var _ Neighborhood = Nowicki{}

func (n Nowicki) Neighbors(order *encoding.ResourceOrder, schedule *encoding.Schedule) []Move {
	var moves []Move
	for _, block := range n.Blocks(order, schedule) {
		moves = append(moves, n.blockMoves(block)...)
	}
	return moves
}

// Blocks splits the critical path of schedule into machine blocks, in path order.
func (Nowicki) Blocks(order *encoding.ResourceOrder, schedule *encoding.Schedule) []Block {
	inst := order.Instance()
	path := schedule.CriticalPath()

	var blocks []Block
	start := 0
	for i := 1; i <= len(path); i++ {
		if i < len(path) && inst.Machine(path[i]) == inst.Machine(path[start]) {
			continue
		}
		blocks = append(blocks, Block{
			Machine:   inst.Machine(path[start]),
			FirstTask: order.PositionOf(path[start]),
			LastTask:  order.PositionOf(path[i-1]),
		})
		start = i
	}
	return blocks
}

func (Nowicki) blockMoves(b Block) []Move {
	if b.Len() < 2 {
		return nil
	}
	moves := []Move{NewSwap(b.Machine, b.FirstTask, b.FirstTask+1)}
	if b.Len() > 2 {
		moves = append(moves, NewSwap(b.Machine, b.LastTask-1, b.LastTask))
	}
	return moves
}
