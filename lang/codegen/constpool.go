package codegen

import (
	"github.com/dolthub/swiss"

	"github.com/mna/luacode/lang/value"
)

// constPool interns the constants emitted by one function, the direct
// generalization of a stack-machine's value-keyed swiss.Map to this
// package's constant-pool dedup requirement: the interning
// key is value.Value itself, which is comparable by (kind, payload) so an
// integer 3 and a float 3 never collide.
type constPool struct {
	index *swiss.Map[value.Value, uint32]
	vals  []value.Value
}

func newConstPool() *constPool {
	return &constPool{index: swiss.NewMap[value.Value, uint32](8)}
}

// addK interns v, returning its existing pool index if already present, or
// appending it and returning the new index.
func (p *constPool) addK(v value.Value) uint32 {
	if i, ok := p.index.Get(v); ok {
		return i
	}
	idx := uint32(len(p.vals))
	p.vals = append(p.vals, v)
	p.index.Put(v, idx)
	return idx
}

func (p *constPool) values() []value.Value { return p.vals }

func (p *constPool) len() int { return len(p.vals) }
