package rtl

// A Latcher is a storage element that moves its next value into its current
// value at the clock edge.
type Latcher interface {
	Latch()
	Reset()
}

// Reg is a synchronous register. Q returns the value latched at the last
// clock edge. D sets the value that becomes visible after the next edge. A
// register that is not written in a cycle holds its value.
type Reg[T any] struct {
	q, d  T
	reset T
}

// NewReg creates a register with the given reset value and adds it to the
// bank, so that the bank owner latches it.
func NewReg[T any](bank *Bank, reset T) *Reg[T] {
	r := &Reg[T]{q: reset, d: reset, reset: reset}
	bank.Add(r)

	return r
}

// Q returns the current output of the register.
func (r *Reg[T]) Q() T {
	return r.q
}

// D sets the next value of the register.
func (r *Reg[T]) D(v T) {
	r.d = v
}

// Next returns the value that will be latched at the next edge.
func (r *Reg[T]) Next() T {
	return r.d
}

// Latch makes the next value current.
func (r *Reg[T]) Latch() {
	r.q = r.d
}

// Reset restores the reset value immediately.
func (r *Reg[T]) Reset() {
	r.q = r.reset
	r.d = r.reset
}

// Bank is a set of registers owned by one block.
type Bank struct {
	regs []Latcher
}

// Add appends registers to the bank.
func (b *Bank) Add(regs ...Latcher) {
	b.regs = append(b.regs, regs...)
}

// Len returns the number of registers in the bank.
func (b *Bank) Len() int {
	return len(b.regs)
}

// Latch latches every register in the bank.
func (b *Bank) Latch() {
	for _, r := range b.regs {
		r.Latch()
	}
}

// Reset resets every register in the bank.
func (b *Bank) Reset() {
	for _, r := range b.regs {
		r.Reset()
	}
}
