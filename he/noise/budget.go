// Package noise implements the noise budget of BFV ciphertexts: a counter of
// millibits of headroom below the decryption bound, consumed by every
// homomorphic operation and gating which operations may proceed.
package noise

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrExhausted is returned when an operation would consume more noise
// budget than remains. The ciphertext must be refreshed before any further
// operation; retrying the same call fails again.
var ErrExhausted = errors.New("noise budget exhausted")

// Budget is the remaining noise headroom of a ciphertext, in millibits.
// A Budget is owned by a single call path and must not be shared without
// external synchronization.
type Budget struct {
	initial   int64
	remaining int64
}

// NewBudget returns a new [Budget] of initialMillibits.
// Negative values are clamped to zero.
func NewBudget(initialMillibits int64) *Budget {
	initialMillibits = max(initialMillibits, 0)
	return &Budget{initial: initialMillibits, remaining: initialMillibits}
}

// Initial returns the budget the receiver was created or reset with.
func (b *Budget) Initial() int64 {
	return b.initial
}

// Remaining returns the remaining budget in millibits.
func (b *Budget) Remaining() int64 {
	return b.remaining
}

// CanPerform returns true if an operation of the given cost can be
// performed. Non-positive costs are refunds and are always permitted.
func (b *Budget) CanPerform(cost int64) bool {
	return cost <= 0 || cost <= b.remaining
}

// Consume subtracts cost from the remaining budget. It returns
// [ErrExhausted] and leaves the budget unchanged if cost exceeds the
// remaining budget. Negative costs are refunds, capped at the initial budget.
func (b *Budget) Consume(cost int64) error {

	if !b.CanPerform(cost) {
		return fmt.Errorf("cannot Consume %d millibits: %d remaining: %w", cost, b.remaining, ErrExhausted)
	}

	// 0 <= remaining <= initial, so neither branch overflows.
	if headroom := b.initial - b.remaining; cost < -headroom {
		b.remaining = b.initial
	} else {
		b.remaining -= cost
	}

	return nil
}

// ShouldBootstrap returns true if the remaining budget is at most
// thresholdPermille thousandths of the initial budget.
func (b *Budget) ShouldBootstrap(thresholdPermille int64) bool {
	if b.initial == 0 {
		return true
	}
	// remaining/initial <= threshold/1000, without division nor overflow
	lhs := new(big.Int).Mul(big.NewInt(b.remaining), big.NewInt(1000))
	rhs := new(big.Int).Mul(big.NewInt(thresholdPermille), big.NewInt(b.initial))
	return lhs.Cmp(rhs) <= 0
}

// Reset sets the remaining budget back to its initial value, for instance
// after the ciphertext has been refreshed.
func (b *Budget) Reset() {
	b.remaining = b.initial
}

func (b *Budget) String() string {
	return fmt.Sprintf("%d/%d millibits", b.remaining, b.initial)
}
