package bignum

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"math/bits"
)

// ErrOverflow is returned by checked wide arithmetic whenever a result does
// not fit the fixed width. Nothing wraps silently.
var ErrOverflow = errors.New("wide integer overflow")

// Uint128 is an unsigned 128-bit integer.
type Uint128 struct {
	Hi, Lo uint64
}

// Add returns x + y or [ErrOverflow].
func (x Uint128) Add(y Uint128) (z Uint128, err error) {
	var c uint64
	z.Lo, c = bits.Add64(x.Lo, y.Lo, 0)
	z.Hi, c = bits.Add64(x.Hi, y.Hi, c)
	if c != 0 {
		return Uint128{}, ErrOverflow
	}
	return
}

// Sub returns x - y or [ErrOverflow] if y > x.
func (x Uint128) Sub(y Uint128) (z Uint128, err error) {
	var b uint64
	z.Lo, b = bits.Sub64(x.Lo, y.Lo, 0)
	z.Hi, b = bits.Sub64(x.Hi, y.Hi, b)
	if b != 0 {
		return Uint128{}, ErrOverflow
	}
	return
}

// Mul64 returns x * m or [ErrOverflow].
func (x Uint128) Mul64(m uint64) (z Uint128, err error) {
	var hi, c uint64
	hi, z.Lo = bits.Mul64(x.Lo, m)
	h2, l2 := bits.Mul64(x.Hi, m)
	z.Hi, c = bits.Add64(l2, hi, 0)
	if h2 != 0 || c != 0 {
		return Uint128{}, ErrOverflow
	}
	return
}

// Cmp compares x and y and returns -1, 0 or +1.
func (x Uint128) Cmp(y Uint128) int {
	switch {
	case x.Hi < y.Hi:
		return -1
	case x.Hi > y.Hi:
		return 1
	case x.Lo < y.Lo:
		return -1
	case x.Lo > y.Lo:
		return 1
	}
	return 0
}

// BitLen returns the number of bits required to represent x.
func (x Uint128) BitLen() int {
	if x.Hi != 0 {
		return 64 + bits.Len64(x.Hi)
	}
	return bits.Len64(x.Lo)
}

// Mod64 returns x mod d. d must be non-zero.
func (x Uint128) Mod64(d uint64) (r uint64) {
	_, r = bits.Div64(x.Hi%d, x.Lo, d)
	return
}

// Uint256 is an unsigned 256-bit integer.
type Uint256 struct {
	Hi, Lo Uint128
}

// NewUint256 returns x as a [Uint256].
func NewUint256(x uint64) Uint256 {
	return Uint256{Lo: Uint128{Lo: x}}
}

// NewUint256FromBig converts a non-negative *big.Int to a [Uint256].
// Returns [ErrOverflow] if x is negative or does not fit 256 bits.
func NewUint256FromBig(x *big.Int) (z Uint256, err error) {
	if x.Sign() < 0 || x.BitLen() > 256 {
		return Uint256{}, fmt.Errorf("cannot NewUint256FromBig: %d bits: %w", x.BitLen(), ErrOverflow)
	}
	var buf [32]byte
	x.FillBytes(buf[:])
	var w [4]uint64
	for i := range w {
		w[i] = binary.BigEndian.Uint64(buf[24-8*i:])
	}
	return fromWords(w), nil
}

func (x Uint256) words() [4]uint64 {
	return [4]uint64{x.Lo.Lo, x.Lo.Hi, x.Hi.Lo, x.Hi.Hi}
}

func fromWords(w [4]uint64) Uint256 {
	return Uint256{Lo: Uint128{Hi: w[1], Lo: w[0]}, Hi: Uint128{Hi: w[3], Lo: w[2]}}
}

// Big returns x as a new *big.Int.
func (x Uint256) Big() *big.Int {
	w := x.words()
	var buf [32]byte
	for i := range w {
		binary.BigEndian.PutUint64(buf[24-8*i:], w[i])
	}
	return new(big.Int).SetBytes(buf[:])
}

// IsZero returns true if x = 0.
func (x Uint256) IsZero() bool {
	return x == Uint256{}
}

// Uint64 returns x as an uint64 and true if x fits 64 bits.
func (x Uint256) Uint64() (uint64, bool) {
	return x.Lo.Lo, x.Lo.Hi == 0 && x.Hi.Hi == 0 && x.Hi.Lo == 0
}

// Add returns x + y or [ErrOverflow].
func (x Uint256) Add(y Uint256) (Uint256, error) {
	a, b := x.words(), y.words()
	var z [4]uint64
	var c uint64
	for i := range z {
		z[i], c = bits.Add64(a[i], b[i], c)
	}
	if c != 0 {
		return Uint256{}, ErrOverflow
	}
	return fromWords(z), nil
}

// Sub returns x - y or [ErrOverflow] if y > x.
func (x Uint256) Sub(y Uint256) (Uint256, error) {
	a, b := x.words(), y.words()
	var z [4]uint64
	var c uint64
	for i := range z {
		z[i], c = bits.Sub64(a[i], b[i], c)
	}
	if c != 0 {
		return Uint256{}, ErrOverflow
	}
	return fromWords(z), nil
}

// Mul64 returns x * m or [ErrOverflow].
func (x Uint256) Mul64(m uint64) (Uint256, error) {
	a := x.words()
	var z [4]uint64
	var carry, c uint64
	for i := range z {
		hi, lo := bits.Mul64(a[i], m)
		z[i], c = bits.Add64(lo, carry, 0)
		carry = hi + c
	}
	if carry != 0 {
		return Uint256{}, ErrOverflow
	}
	return fromWords(z), nil
}

// Mul returns x * y or [ErrOverflow] if the product needs more than 256 bits.
func (x Uint256) Mul(y Uint256) (Uint256, error) {
	a, b := x.words(), y.words()
	var z [8]uint64
	for i := 0; i < 4; i++ {
		var carry uint64
		for j := 0; j < 4; j++ {
			hi, lo := bits.Mul64(a[i], b[j])
			var c uint64
			lo, c = bits.Add64(lo, z[i+j], 0)
			hi += c
			lo, c = bits.Add64(lo, carry, 0)
			hi += c
			z[i+j] = lo
			carry = hi
		}
		z[i+4] = carry
	}
	if z[4]|z[5]|z[6]|z[7] != 0 {
		return Uint256{}, ErrOverflow
	}
	return fromWords([4]uint64{z[0], z[1], z[2], z[3]}), nil
}

// Cmp compares x and y and returns -1, 0 or +1.
func (x Uint256) Cmp(y Uint256) int {
	if c := x.Hi.Cmp(y.Hi); c != 0 {
		return c
	}
	return x.Lo.Cmp(y.Lo)
}

// BitLen returns the number of bits required to represent x.
func (x Uint256) BitLen() int {
	if x.Hi != (Uint128{}) {
		return 128 + x.Hi.BitLen()
	}
	return x.Lo.BitLen()
}

// Lsh returns x << n or [ErrOverflow] if bits would be shifted out.
func (x Uint256) Lsh(n uint) (Uint256, error) {
	if x.IsZero() {
		return x, nil
	}
	if uint(x.BitLen())+n > 256 {
		return Uint256{}, ErrOverflow
	}
	a := x.words()
	var z [4]uint64
	ws, bs := int(n/64), n%64
	for i := 3; i >= ws; i-- {
		z[i] = a[i-ws] << bs
		if bs != 0 && i-ws-1 >= 0 {
			z[i] |= a[i-ws-1] >> (64 - bs)
		}
	}
	return fromWords(z), nil
}

// Rsh returns x >> n.
func (x Uint256) Rsh(n uint) Uint256 {
	if n >= 256 {
		return Uint256{}
	}
	a := x.words()
	var z [4]uint64
	ws, bs := int(n/64), n%64
	for i := 0; i+ws < 4; i++ {
		z[i] = a[i+ws] >> bs
		if bs != 0 && i+ws+1 < 4 {
			z[i] |= a[i+ws+1] << (64 - bs)
		}
	}
	return fromWords(z)
}

// DivMod64 returns the quotient and remainder of x divided by d.
// d must be non-zero.
func (x Uint256) DivMod64(d uint64) (q Uint256, r uint64) {
	a := x.words()
	var z [4]uint64
	for i := 3; i >= 0; i-- {
		z[i], r = bits.Div64(r, a[i], d)
	}
	return fromWords(z), r
}

// Mod64 returns x mod d. d must be non-zero.
func (x Uint256) Mod64(d uint64) (r uint64) {
	a := x.words()
	for i := 3; i >= 0; i-- {
		_, r = bits.Div64(r, a[i], d)
	}
	return
}

// QuoSmall returns floor(x/d) when the quotient fits 64 bits,
// and [ErrOverflow] otherwise. d must be non-zero.
func (x Uint256) QuoSmall(d Uint256) (q uint64, err error) {

	if d.IsZero() {
		return 0, fmt.Errorf("cannot QuoSmall: division by zero")
	}

	// The top 64 bits of d give an estimate that is never
	// smaller than the quotient and exceeds it by at most 2.
	s := max(d.BitLen()-64, 0)
	dt, _ := d.Rsh(uint(s)).Uint64()
	xt := x.Rsh(uint(s))

	if xt.Hi != (Uint128{}) || xt.Lo.Hi >= dt {
		return 0, fmt.Errorf("cannot QuoSmall: quotient exceeds 64 bits: %w", ErrOverflow)
	}

	q, _ = bits.Div64(xt.Lo.Hi, xt.Lo.Lo, dt)

	for {
		if p, err := d.Mul64(q); err == nil && p.Cmp(x) <= 0 {
			return q, nil
		}
		q--
	}
}
