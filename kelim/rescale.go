package kelim

import (
	"fmt"

	"github.com/Pro7ech/rnsfhe/ring"
	"github.com/Pro7ech/rnsfhe/utils/bignum"
)

// Strategy is the algorithm used by a [Rescaler].
type Strategy int

const (
	// StrategyKElimination is the exact rescale through the anchor basis.
	// It is correct for any intermediate inside the Safe region of the
	// dual capacity.
	StrategyKElimination Strategy = iota
	// StrategyPerLimb reconstructs the value from the main rows alone.
	// It is only correct when the intermediate fits the main capacity.
	StrategyPerLimb
)

func (s Strategy) String() string {
	switch s {
	case StrategyKElimination:
		return "KElimination"
	case StrategyPerLimb:
		return "PerLimb"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Rescaler computes round(t * X / Q) for polynomials X represented over the
// dual basis main || anchor, where Q is the product of the main primes.
// The output is represented over the dual basis as well, the anchor rows
// being the exact centered extension of the main rows.
// A Rescaler is read-only after creation and safe for concurrent use.
type Rescaler struct {
	t      uint64
	main   *ring.RNSBasis
	anchor *ring.RNSBasis

	mainModuli   []uint64
	anchorModuli []uint64

	*Eliminator

	// Q and floor(Q/2)
	q, halfQ bignum.Uint256
	// floor(B/2)
	halfB bignum.Uint256

	// floor(Q/2) mod q_i and mod b_j
	halfQMain   []uint64
	halfQAnchor []uint64
	// Q mod b_j and Q^-1 mod b_j
	qAnchor    []uint64
	qInvAnchor []uint64
	// B mod q_i
	bMain []uint64
	// t mod q_i
	tMain []uint64
}

// NewRescaler creates a new [Rescaler] for the main and anchor bases
// and the plaintext modulus t.
// Both bases must have a capacity of at most 256 bits.
func NewRescaler(main, anchor *ring.RNSBasis, t uint64) (r *Rescaler, err error) {

	if t < 2 {
		return nil, fmt.Errorf("cannot NewRescaler: invalid plaintext modulus t=%d", t)
	}

	r = &Rescaler{
		t:            t,
		main:         main,
		anchor:       anchor,
		mainModuli:   main.Moduli(),
		anchorModuli: anchor.Moduli(),
	}

	if r.Eliminator, err = NewFromBases(main, anchor); err != nil {
		return nil, fmt.Errorf("cannot NewRescaler: %w", err)
	}

	Q, B := main.Capacity(), anchor.Capacity()

	if r.q, err = bignum.NewUint256FromBig(Q); err != nil {
		return nil, fmt.Errorf("cannot NewRescaler: main capacity: %w", err)
	}

	var wB bignum.Uint256
	if wB, err = bignum.NewUint256FromBig(B); err != nil {
		return nil, fmt.Errorf("cannot NewRescaler: anchor capacity: %w", err)
	}

	if _, err = r.q.Mul64(t); err != nil {
		return nil, fmt.Errorf("cannot NewRescaler: t*Q: %w", err)
	}

	r.halfQ = r.q.Rsh(1)
	r.halfB = wB.Rsh(1)

	r.halfQMain = make([]uint64, len(r.mainModuli))
	r.bMain = make([]uint64, len(r.mainModuli))
	r.tMain = make([]uint64, len(r.mainModuli))
	for i, qi := range r.mainModuli {
		r.halfQMain[i] = r.halfQ.Mod64(qi)
		r.bMain[i] = wB.Mod64(qi)
		r.tMain[i] = t % qi
	}

	r.halfQAnchor = make([]uint64, len(r.anchorModuli))
	r.qAnchor = make([]uint64, len(r.anchorModuli))
	r.qInvAnchor = make([]uint64, len(r.anchorModuli))
	for j, bj := range r.anchorModuli {

		r.halfQAnchor[j] = r.halfQ.Mod64(bj)
		r.qAnchor[j] = r.q.Mod64(bj)

		var m *ring.Modulus
		if m, err = ring.NewModulus(bj); err != nil {
			return nil, fmt.Errorf("cannot NewRescaler: anchor %d: %w", j, err)
		}

		if r.qInvAnchor[j], err = m.Inverse(r.qAnchor[j]); err != nil {
			return nil, fmt.Errorf("cannot NewRescaler: anchor %d: %w", j, err)
		}
	}

	return
}

// T returns the plaintext modulus.
func (r *Rescaler) T() uint64 {
	return r.t
}

// Threshold returns the largest intermediate bit-length for which
// [StrategyPerLimb] is selected.
func (r *Rescaler) Threshold() int {
	return r.main.CapacityBits() - 2
}

// SelectStrategy returns the [Strategy] for an intermediate of the given
// bit-length.
func (r *Rescaler) SelectStrategy(intermediateBits int) Strategy {
	if intermediateBits <= r.Threshold() {
		return StrategyPerLimb
	}
	return StrategyKElimination
}

// checkShape panics if p is not represented over the dual basis.
func (r *Rescaler) checkShape(p ring.RNSPoly) {
	if len(p) != len(r.mainModuli)+len(r.anchorModuli) {
		panic(fmt.Errorf("invalid polynomial: has %d rows but the dual basis has %d moduli", len(p), len(r.mainModuli)+len(r.anchorModuli)))
	}
}

// centered returns the main reconstruction of a column and whether its
// centered representative is negative.
func (r *Rescaler) centered(res []uint64) (X bignum.Uint256, neg bool, err error) {
	if X, err = r.main.DecodeWide(res); err != nil {
		return
	}
	return X, X.Cmp(r.halfQ) > 0, nil
}

// Measure returns the bit-length of the largest coefficient of p in absolute
// value if every coefficient of p lies in (-Q/2, Q/2), else fits is false.
// The check is exact: the anchor rows of such a coefficient are the centered
// extension of its main rows.
func (r *Rescaler) Measure(p ring.RNSPoly) (bits int, fits bool, err error) {

	r.checkShape(p)

	nMain := len(r.mainModuli)

	res := make([]uint64, nMain)

	for j := range p.N() {

		for i := range res {
			res[i] = p[i][j]
		}

		var X bignum.Uint256
		var neg bool
		if X, neg, err = r.centered(res); err != nil {
			return 0, false, fmt.Errorf("cannot Measure: coefficient %d: %w", j, err)
		}

		for k, bk := range r.anchorModuli {
			if r.extend(X, neg, k, bk) != p[nMain+k][j] {
				return 0, false, nil
			}
		}

		if neg {
			X, _ = r.q.Sub(X)
		}

		bits = max(bits, X.BitLen())
	}

	return bits, true, nil
}

// extend returns the residue modulo the k-th anchor prime bk of the centered
// value represented by X in [0, Q).
func (r *Rescaler) extend(X bignum.Uint256, neg bool, k int, bk uint64) uint64 {
	x := X.Mod64(bk)
	if neg {
		x = (x + bk - r.qAnchor[k]) % bk
	}
	return x
}

// Rescale sets the main rows of out to round(t * X / Q) and its anchor rows
// to their centered extension, where X is the polynomial in. The strategy is
// selected with [Rescaler.SelectStrategy] from the measured bit-length of in
// and returned. in and out can be the same polynomial.
func (r *Rescaler) Rescale(in, out ring.RNSPoly) (strategy Strategy, err error) {

	bits, fits, err := r.Measure(in)
	if err != nil {
		return strategy, fmt.Errorf("cannot Rescale: %w", err)
	}

	if !fits {
		bits = r.CapacityBits()
	}

	strategy = r.SelectStrategy(bits)

	if err = r.RescaleWith(strategy, in, out); err != nil {
		return strategy, fmt.Errorf("cannot Rescale: %w", err)
	}

	return
}

// RescaleWith is identical to [Rescaler.Rescale] but uses the given strategy.
// [StrategyPerLimb] returns wrong results if in does not fit the main capacity.
func (r *Rescaler) RescaleWith(strategy Strategy, in, out ring.RNSPoly) (err error) {

	r.checkShape(in)
	r.checkShape(out)

	if in.N() != out.N() {
		panic(fmt.Errorf("invalid polynomials: degrees %d and %d do not match", in.N(), out.N()))
	}

	nMain := len(r.mainModuli)

	var f func(col []uint64) error

	switch strategy {
	case StrategyPerLimb:
		f = r.perLimb
	case StrategyKElimination:
		f = r.kElimination
	default:
		return fmt.Errorf("cannot RescaleWith: invalid strategy %v", strategy)
	}

	col := make([]uint64, len(in))

	for j := range in.N() {

		for i := range col {
			col[i] = in[i][j]
		}

		if err = f(col); err != nil {
			return fmt.Errorf("cannot RescaleWith: %v: coefficient %d: %w", strategy, j, err)
		}

		for i := range nMain {
			out[i][j] = col[i]
		}
	}

	return r.Extend(out[:nMain], out[nMain:])
}

// perLimb replaces the main residues of col by the main residues of
// round(t * X / Q), with X the centered value of the main residues.
func (r *Rescaler) perLimb(col []uint64) (err error) {

	X, neg, err := r.centered(col[:len(r.mainModuli)])
	if err != nil {
		return
	}

	// Y = t * X + floor(Q/2) with X in [0, Q), so floor(Y/Q) is in [0, t].
	Y, err := X.Mul64(r.t)
	if err != nil {
		return
	}

	if Y, err = Y.Add(r.halfQ); err != nil {
		return
	}

	var k uint64
	if k, err = Y.QuoSmall(r.q); err != nil {
		return
	}

	// A negative centered value is X - Q, which removes t from the quotient.
	for i, qi := range r.mainModuli {
		col[i] = k % qi
		if neg {
			col[i] = (col[i] + qi - r.tMain[i]) % qi
		}
	}

	return
}

// kElimination replaces the main residues of col by the main residues of
// round(t * X / Q), with X the centered value of the dual residues.
//
// With Y = t * X + floor(Q/2) taken modulo Q * B, vAlpha = Y mod Q and
// k = floor(Y / Q) = (Y - vAlpha) * Q^-1 mod B is recovered on the anchor
// primes alone. k is then centered modulo B and reduced on the main primes.
func (r *Rescaler) kElimination(col []uint64) (err error) {

	nMain := len(r.mainModuli)

	for i, qi := range r.mainModuli {
		col[i] = ring.MulAddMod(r.tMain[i], col[i], r.halfQMain[i], qi)
	}

	for k, bk := range r.anchorModuli {
		col[nMain+k] = ring.MulAddMod(r.t%bk, col[nMain+k], r.halfQAnchor[k], bk)
	}

	var vAlpha bignum.Uint256
	if vAlpha, err = r.main.DecodeWide(col[:nMain]); err != nil {
		return
	}

	quo := col[nMain:]
	for k, bk := range r.anchorModuli {
		d := (quo[k] + bk - vAlpha.Mod64(bk)) % bk
		quo[k] = ring.MulMod(d, r.qInvAnchor[k], bk)
	}

	var K bignum.Uint256
	if K, err = r.anchor.DecodeWide(quo); err != nil {
		return
	}

	neg := K.Cmp(r.halfB) > 0

	for i, qi := range r.mainModuli {
		col[i] = K.Mod64(qi)
		if neg {
			col[i] = (col[i] + qi - r.bMain[i]) % qi
		}
	}

	return
}

// Extend sets the anchor rows to the exact centered extension of the main
// rows: each coefficient X in [0, Q) is mapped to X or X - Q, whichever is
// in (-Q/2, Q/2], and reduced modulo each anchor prime.
func (r *Rescaler) Extend(main, anchor ring.RNSPoly) (err error) {

	if len(main) != len(r.mainModuli) || len(anchor) != len(r.anchorModuli) {
		panic(fmt.Errorf("invalid polynomials: %d main and %d anchor rows for bases of %d and %d moduli", len(main), len(anchor), len(r.mainModuli), len(r.anchorModuli)))
	}

	res := make([]uint64, len(main))

	for j := range main.N() {

		for i := range res {
			res[i] = main[i][j]
		}

		var X bignum.Uint256
		var neg bool
		if X, neg, err = r.centered(res); err != nil {
			return fmt.Errorf("cannot Extend: coefficient %d: %w", j, err)
		}

		for k, bk := range r.anchorModuli {
			anchor[k][j] = r.extend(X, neg, k, bk)
		}
	}

	return
}
