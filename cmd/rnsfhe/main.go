// Command rnsfhe prints the report of a parameter set and runs an
// end-to-end self-check of the ciphertext algebra under a noise budget.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Pro7ech/rnsfhe/he/bfv"
	"github.com/Pro7ech/rnsfhe/he/noise"
	"github.com/Pro7ech/rnsfhe/internal/storage"
	"github.com/Pro7ech/rnsfhe/ring"
	"github.com/Pro7ech/rnsfhe/rlwe"
	"github.com/Pro7ech/rnsfhe/utils/sampling"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		paramsJSON = flag.String("params", "", "parameters as a JSON ParametersLiteral (default: ExampleParameters128)")
		verbose    = flag.Bool("v", false, "verbose output")
		redisAddr  = flag.String("redis", "", "Redis address of the ciphertext store (default: in memory)")
		a          = flag.Uint64("a", 3, "first message")
		b          = flag.Uint64("b", 5, "second message")
		seed       = flag.String("seed", "", "master seed of the keys, for reproducible key generation (default: system randomness)")
	)
	flag.Parse()

	lit := rlwe.ExampleParameters128
	if *paramsJSON != "" {
		lit = rlwe.ParametersLiteral{}
		if err := json.Unmarshal([]byte(*paramsJSON), &lit); err != nil {
			return fmt.Errorf("parse params: %w", err)
		}
	}

	params, err := rlwe.NewParametersFromLiteral(lit)
	if err != nil {
		return fmt.Errorf("create params: %w", err)
	}

	costs := noise.CostsFor(params)

	log.Printf("Parameters:")
	log.Printf("  LogN: %d", params.LogN())
	log.Printf("  LogQ: %.2f (%d main primes)", params.LogQ(), params.QCount())
	log.Printf("  LogB: %.2f (%d anchor primes)", params.LogB(), params.BCount())
	log.Printf("  T: %d", params.PlaintextModulus())
	log.Printf("  Policy: %s", params.Policy())
	log.Printf("  Anchor: %s", params.AnchorReport())
	log.Printf("  Costs: %s", costs)
	log.Printf("  Initial budget: %d millibits", noise.InitialBudget(params))

	if *verbose {
		log.Printf("  Main: %v", params.Q())
		log.Printf("  Anchor: %v", params.B())
		log.Printf("  Rescale threshold: %d bits", params.Rescaler().Threshold())
		perPrime, total := params.DecompositionDigits()
		log.Printf("  Decomposition: w=%d, %d digits per prime, %d digits", params.BaseTwoDecomposition(), perPrime, total)
	}

	// Keys.
	source := sampling.NewSystemSource()

	kgen, err := newKeyGenerator(params, []byte(*seed), source)
	if err != nil {
		return fmt.Errorf("create key generator: %w", err)
	}

	sk, pk := kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(sk)

	if *seed != "" {
		log.Printf("Public key: %s", publicKeyHandle(pk))
	}

	ctx, err := bfv.NewContext(params, bfv.Keys{Public: pk, Secret: sk, Relinearization: rlk}, source)
	sk.Zeroize()
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	defer ctx.Close()

	// Storage.
	var store storage.Store
	if *redisAddr != "" {
		if store, err = storage.NewRedisStore(storage.RedisConfig{Addr: *redisAddr}, params); err != nil {
			return fmt.Errorf("create storage: %w", err)
		}
	} else {
		store = storage.NewMemoryStore(params)
	}
	defer store.Close()

	return selfCheck(ctx, store, *a, *b, *verbose)
}

// newKeyGenerator returns a key generator drawing from source, or, if seed
// is not empty, a deterministic key generator whose secret randomness and
// public randomness are derived from seed under distinct purposes.
func newKeyGenerator(params rlwe.Parameters, seed []byte, source sampling.Source) (*rlwe.KeyGenerator, error) {

	if len(seed) == 0 {
		return rlwe.NewKeyGenerator(params, source)
	}

	secret, err := sampling.NewKeyedPRNG(sampling.DeriveKey(seed, "secret key"))
	if err != nil {
		return nil, err
	}

	kgen, err := rlwe.NewKeyGenerator(params, secret)
	if err != nil {
		return nil, err
	}

	public, err := rlwe.NewPublicSource(params, sampling.DeriveKey(seed, "public key"))
	if err != nil {
		return nil, err
	}

	return kgen.WithPublicSource(public)
}

// publicKeyHandle returns the digest of pk, which identifies the keys
// generated from a seed.
func publicKeyHandle(pk *rlwe.PublicKey) storage.Handle {
	return storage.HandleOf(pk.Value[1].AppendBinary(pk.Value[0].AppendBinary(nil)))
}

func selfCheck(ctx *bfv.Context, store storage.Store, a, b uint64, verbose bool) error {

	T := ctx.Params().PlaintextModulus()
	a, b = a%T, b%T

	ct0, err := ctx.Encrypt(a)
	if err != nil {
		return err
	}

	ct1, err := ctx.Encrypt(b)
	if err != nil {
		return err
	}

	h, err := store.Put(context.Background(), ct1)
	if err != nil {
		return fmt.Errorf("store ciphertext: %w", err)
	}

	if verbose {
		log.Printf("Stored %d under %s", b, h)
	}

	if ct1, err = store.Get(context.Background(), h); err != nil {
		return fmt.Errorf("load ciphertext: %w", err)
	}

	budget := ctx.NewBudget()

	sum, err := ctx.AddGuarded(budget, ct0, ct1)
	if err != nil {
		return err
	}

	if err = check(ctx, "Add", sum, (a+b)%T); err != nil {
		return err
	}

	log.Printf("Add: %s", budget)

	prod, err := ctx.MultiplyGuarded(budget, ct0, ct1)
	if err != nil {
		return err
	}

	if err = check(ctx, "Multiply", prod, ring.MulMod(a, b, T)); err != nil {
		return err
	}

	log.Printf("Multiply: %s (bootstrap: %t)", budget, budget.ShouldBootstrap(100))

	log.Printf("Self-check passed")

	return nil
}

func check(ctx *bfv.Context, op string, ct *rlwe.Ciphertext, want uint64) error {
	have, err := ctx.Decrypt(ct)
	if err != nil {
		return err
	}
	if have != want {
		return fmt.Errorf("%s: decrypted %d but want %d", op, have, want)
	}
	return nil
}
