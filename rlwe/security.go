package rlwe

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInsecureParameters is returned when parameters do not reach 128-bit
// security and the [SecurityPolicy] does not allow it.
var ErrInsecureParameters = errors.New("parameters do not provide 128-bit security")

// SecurityPolicy states whether parameters below 128-bit security are refused.
type SecurityPolicy int

const (
	// Enforce128 refuses parameters below 128-bit security.
	Enforce128 = SecurityPolicy(iota)
	// AllowInsecure accepts any parameters. Only meant for testing.
	AllowInsecure
)

func (s SecurityPolicy) String() string {
	switch s {
	case Enforce128:
		return "Enforce128"
	case AllowInsecure:
		return "AllowInsecure"
	default:
		return fmt.Sprintf("SecurityPolicy(%d)", int(s))
	}
}

// MarshalJSON encodes the policy by name.
func (s SecurityPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the policy from its name or its integer value.
func (s *SecurityPolicy) UnmarshalJSON(b []byte) (err error) {

	var name string
	if err = json.Unmarshal(b, &name); err != nil {
		var v int
		if err = json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("invalid SecurityPolicy: %s", b)
		}
		*s = SecurityPolicy(v)
		return
	}

	switch name {
	case "Enforce128":
		*s = Enforce128
	case "AllowInsecure":
		*s = AllowInsecure
	default:
		return fmt.Errorf("invalid SecurityPolicy: %q", name)
	}

	return
}

// maxLogQ128 is the largest bit-size of the ciphertext modulus giving
// 128-bit classical security for a ternary secret, indexed by LogN
// (HomomorphicEncryption.org standard).
var maxLogQ128 = map[int]int{
	10: 27,
	11: 54,
	12: 109,
	13: 218,
	14: 438,
	15: 881,
}

// MaxLogQ128 returns the largest bit-size of the ciphertext modulus for
// which a ring of degree 2^LogN provides 128-bit security, and false if
// the degree is too small for any modulus.
// Degrees above 2^15 scale the bound of 2^15 linearly.
func MaxLogQ128(LogN int) (int, bool) {
	if LogN < 10 {
		return 0, false
	}
	if LogN > 15 {
		return maxLogQ128[15] << (LogN - 15), true
	}
	return maxLogQ128[LogN], true
}

// checkSecurity returns [ErrInsecureParameters] if a ciphertext modulus of
// logQ bits over a ring of degree 2^LogN falls below 128-bit security.
func checkSecurity(LogN, logQ int) (err error) {

	bound, ok := MaxLogQ128(LogN)

	if !ok {
		return fmt.Errorf("LogN=%d: %w", LogN, ErrInsecureParameters)
	}

	if logQ > bound {
		return fmt.Errorf("LogN=%d with logQ=%d > %d: %w", LogN, logQ, bound, ErrInsecureParameters)
	}

	return
}
