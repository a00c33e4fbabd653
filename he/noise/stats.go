package noise

import (
	"fmt"
	"math/big"

	"github.com/montanaflynn/stats"

	"github.com/Pro7ech/rnsfhe/utils/bignum"
)

// Stats are statistics of measured residual noise, in bits.
// They are diagnostics only and never drive the evaluation.
type Stats struct {
	MaxBits    int
	MeanBits   float64
	MedianBits float64
	StdDevBits float64
}

func (s Stats) String() string {
	return fmt.Sprintf("max=%d mean=%.2f median=%.2f std=%.2f (log2)", s.MaxBits, s.MeanBits, s.MedianBits, s.StdDevBits)
}

// Measure returns the statistics of log2|v| over the given noise values.
// Zero values count as zero bits.
func Measure(values []*big.Int) (s Stats, err error) {

	if len(values) == 0 {
		return s, fmt.Errorf("cannot Measure: no values")
	}

	data := make(stats.Float64Data, len(values))

	for i, v := range values {
		s.MaxBits = max(s.MaxBits, v.BitLen())
		if v.Sign() != 0 {
			data[i] = bignum.Log2(new(big.Int).Abs(v))
		}
	}

	if s.MeanBits, err = stats.Mean(data); err != nil {
		return s, fmt.Errorf("cannot Measure: %w", err)
	}

	if s.MedianBits, err = stats.Median(data); err != nil {
		return s, fmt.Errorf("cannot Measure: %w", err)
	}

	if s.StdDevBits, err = stats.StandardDeviation(data); err != nil {
		return s, fmt.Errorf("cannot Measure: %w", err)
	}

	return
}
