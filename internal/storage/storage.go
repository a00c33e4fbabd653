// Package storage persists ciphertexts under content handles, the blake3
// digest of their binary encoding. Every ciphertext read back is validated
// against the parameters of the store before it is returned.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/Pro7ech/rnsfhe/rlwe"
)

// Common errors.
var (
	ErrNotFound  = errors.New("ciphertext not found")
	ErrCorrupted = errors.New("ciphertext does not match its handle")
)

// Handle is the blake3 digest of the binary encoding of a ciphertext.
type Handle [32]byte

// HandleOf returns the [Handle] of the encoded ciphertext data.
func HandleOf(data []byte) Handle {
	return blake3.Sum256(data)
}

// ParseHandle parses the hexadecimal representation of a [Handle].
func ParseHandle(s string) (h Handle, err error) {

	var b []byte
	if b, err = hex.DecodeString(s); err != nil {
		return h, fmt.Errorf("invalid handle: %w", err)
	}

	if len(b) != len(h) {
		return h, fmt.Errorf("invalid handle: %d bytes but must be %d", len(b), len(h))
	}

	copy(h[:], b)

	return
}

func (h Handle) String() string {
	return hex.EncodeToString(h[:])
}

// Store defines the interface of a ciphertext store.
type Store interface {
	// Put stores ct and returns its handle. Storing the same ciphertext
	// twice returns the same handle.
	Put(ctx context.Context, ct *rlwe.Ciphertext) (Handle, error)
	// Get retrieves and validates the ciphertext stored under h.
	// Returns [ErrNotFound] if there is none.
	Get(ctx context.Context, h Handle) (*rlwe.Ciphertext, error)
	// Delete removes the ciphertext stored under h, if any.
	Delete(ctx context.Context, h Handle) error
	// Close releases the resources of the store.
	Close() error
}

// encode validates ct and returns its encoding and handle.
func encode(params rlwe.Parameters, ct *rlwe.Ciphertext) (data []byte, h Handle, err error) {

	if err = ct.Validate(params); err != nil {
		return nil, h, err
	}

	if data, err = ct.MarshalBinary(); err != nil {
		return nil, h, err
	}

	return data, HandleOf(data), nil
}

// decode checks data against h and returns the validated ciphertext.
func decode(params rlwe.Parameters, h Handle, data []byte) (ct *rlwe.Ciphertext, err error) {

	if HandleOf(data) != h {
		return nil, fmt.Errorf("%s: %w", h, ErrCorrupted)
	}

	ct = new(rlwe.Ciphertext)
	if err = ct.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	if err = ct.Validate(params); err != nil {
		return nil, err
	}

	return
}
