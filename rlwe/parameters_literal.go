package rlwe

// DefaultEta is the default parameter of the centered binomial error
// distribution, with variance Eta/2 (standard deviation ~3.16).
const DefaultEta = 20

// ParametersLiteral is a literal representation of BFV parameters over a dual
// main/anchor RNS basis. It has public fields and is used to express unchecked
// user-defined parameters literally into Go programs.
// The [NewParametersFromLiteral] function is used to generate the actual
// checked parameters from the literal representation.
//
// Users must set the polynomial degree (LogN), the plaintext modulus (T)
// and both moduli chains, by either setting the Main and Anchor fields to
// the desired primes, or by setting the LogMain and LogAnchor fields to the
// desired primes sizes.
//
// Optionally, users may specify
//   - the base two decomposition of the relinearization key (BaseTwoDecomposition),
//     zero meaning one digit per main prime;
//   - the error distribution parameter (Eta), zero meaning [DefaultEta];
//   - the security policy (Policy), [Enforce128] by default.
type ParametersLiteral struct {
	LogN                 int
	Main                 []uint64       `json:",omitempty"`
	Anchor               []uint64       `json:",omitempty"`
	LogMain              []int          `json:",omitempty"`
	LogAnchor            []int          `json:",omitempty"`
	T                    uint64
	BaseTwoDecomposition int            `json:",omitempty"`
	Eta                  int            `json:",omitempty"`
	Policy               SecurityPolicy `json:",omitempty"`
}

var (
	// ExampleParameters128 is an example parameters set with logN=12,
	// logQ=108, a 220-bit anchor basis and a 17-bit plaintext modulus,
	// offering 128-bit of security.
	ExampleParameters128 = ParametersLiteral{
		LogN:                 12,
		LogMain:              []int{54, 54},
		LogAnchor:            []int{55, 55, 55, 55},
		T:                    65537,
		BaseTwoDecomposition: 16,
	}

	// TestParametersInsecure is an insecure parameters set used for the
	// sole purpose of fast testing.
	TestParametersInsecure = ParametersLiteral{
		LogN:                 4,
		LogMain:              []int{30, 30},
		LogAnchor:            []int{40, 40, 40},
		T:                    257,
		BaseTwoDecomposition: 10,
		Policy:               AllowInsecure,
	}
)
