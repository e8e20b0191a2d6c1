// Package effects holds the master-bus processors that run after the voice
// mix. All of them are mono; the engine duplicates the result to both
// channels.
package effects

// Effector processes one sample at offset i of the current block.
type Effector interface {
	Process(x float64, i int) float64
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(x float64, i int) float64 {
	for _, e := range c.effects {
		x = e.Process(x, i)
	}
	return x
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}
