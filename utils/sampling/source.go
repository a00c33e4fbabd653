// Package sampling implements the randomness capability consumed by the key
// generator, the encryptor and the polynomial samplers, together with
// deterministic, system and transcript-bound implementations.
package sampling

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// Source is the randomness capability. Every sampler and encryptor takes a
// Source and never a concrete generator, so that tests can substitute
// deterministic or degenerate streams.
type Source interface {
	// NextUint64 returns 64 uniform random bits.
	NextUint64() uint64
	// Uniform returns a uniform value in [0, bound). bound must be non-zero.
	Uniform(bound uint64) uint64
	// Ternary returns a uniform value in {-1, 0, 1}.
	Ternary() int64
	// CenteredBinomial returns a sample of the centered binomial
	// distribution of parameter eta, in [-eta, eta].
	CenteredBinomial(eta int) int64
}

// stream implements [Source] on top of an [io.Reader].
type stream struct {
	r   io.Reader
	buf [8]byte
}

func (s *stream) NextUint64() uint64 {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		panic(fmt.Errorf("cannot NextUint64: %w", err))
	}
	return binary.LittleEndian.Uint64(s.buf[:])
}

// Uniform samples by rejection on the smallest power-of-two mask covering bound.
func (s *stream) Uniform(bound uint64) (v uint64) {
	if bound == 0 {
		panic("cannot Uniform: bound is zero")
	}
	mask := uint64(1)<<bits.Len64(bound-1) - 1
	for {
		if v = s.NextUint64() & mask; v < bound {
			return
		}
	}
}

func (s *stream) Ternary() int64 {
	return int64(s.Uniform(3)) - 1
}

func (s *stream) CenteredBinomial(eta int) (v int64) {
	for eta > 0 {
		n := min(eta, 32)
		r := s.NextUint64()
		mask := uint64(1)<<n - 1
		v += int64(bits.OnesCount64(r&mask)) - int64(bits.OnesCount64((r>>32)&mask))
		eta -= n
	}
	return
}
