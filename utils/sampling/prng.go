package sampling

import (
	"crypto/rand"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// KeyedPRNG is a [Source] producing a deterministic stream of bytes keyed by a
// secret, using the blake2b XOF. Two instances created with the same key
// produce the same sequence, which makes it the source of choice for tests
// and for sharing the uniform component of keys.
// KeyedPRNG should not be shared between goroutines: the sequence would
// then depend on the scheduling.
type KeyedPRNG struct {
	stream
	mutex sync.Mutex
	key   []byte
	xof   blake2b.XOF
}

// NewKeyedPRNG creates a new instance of [KeyedPRNG].
// A nil key is treated as the empty key and is insecure.
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, key)
	if err != nil {
		return nil, err
	}
	prng := &KeyedPRNG{key: append([]byte{}, key...), xof: xof}
	prng.stream.r = prng
	return prng, nil
}

// Key returns a copy of the key used to seed the PRNG.
func (prng *KeyedPRNG) Key() (key []byte) {
	return append([]byte{}, prng.key...)
}

// Read reads bytes from the XOF on sum.
func (prng *KeyedPRNG) Read(sum []byte) (n int, err error) {
	prng.mutex.Lock()
	defer prng.mutex.Unlock()
	return prng.xof.Read(sum)
}

// Reset resets the PRNG to its initial state.
func (prng *KeyedPRNG) Reset() {
	prng.mutex.Lock()
	defer prng.mutex.Unlock()
	prng.xof.Reset()
}

// SystemSource is a [Source] reading from the operating system CSPRNG.
// It is safe for concurrent use.
type SystemSource struct {
	mutex sync.Mutex
	stream
}

// NewSystemSource returns a new [SystemSource].
func NewSystemSource() *SystemSource {
	return &SystemSource{stream: stream{r: rand.Reader}}
}

func (s *SystemSource) NextUint64() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stream.NextUint64()
}

func (s *SystemSource) Uniform(bound uint64) uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stream.Uniform(bound)
}

func (s *SystemSource) Ternary() int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stream.Ternary()
}

func (s *SystemSource) CenteredBinomial(eta int) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stream.CenteredBinomial(eta)
}
