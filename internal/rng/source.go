// Package rng provides the uniform draws used to pick a pocket.
package rng

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"
)

// Source draws uniform integers in [0, n).
type Source interface {
	Intn(n int) (int, error)
}

var ErrEmptySequence = errors.New("rng: empty sequence")

// Crypto draws from crypto/rand. big.Int sampling is rejection based, so the
// result is exactly uniform for any n.
type Crypto struct{}

// NewCrypto returns the default source.
func NewCrypto() Crypto { return Crypto{} }

func (Crypto) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("rng: invalid bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("rng: read crypto source: %w", err)
	}
	return int(v.Int64()), nil
}

// Seeded derives each draw from HMAC-SHA256(server, "client:nonce:0"), one
// nonce per draw. The same seeds and starting nonce replay the same outcomes.
type Seeded struct {
	mu     sync.Mutex
	server string
	client string
	nonce  uint64
}

// NewSeeded returns a replayable source. The first draw uses nonce startNonce.
func NewSeeded(serverSeed, clientSeed string, startNonce uint64) *Seeded {
	return &Seeded{server: serverSeed, client: clientSeed, nonce: startNonce}
}

func (s *Seeded) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("rng: invalid bound %d", n)
	}
	s.mu.Lock()
	nonce := s.nonce
	s.nonce++
	s.mu.Unlock()
	return Verify(s.server, s.client, nonce, n), nil
}

// Nonce returns the nonce the next draw will use.
func (s *Seeded) Nonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce
}

// ServerSeedHash returns the commitment for the server seed in use.
func (s *Seeded) ServerSeedHash() string {
	return HashServerSeed(s.server)
}

// Verify recomputes the draw a Seeded source produced for nonce.
func Verify(serverSeed, clientSeed string, nonce uint64, n int) int {
	f := Floats(serverSeed, clientSeed, nonce, 0, 1)[0]
	v := int(math.Floor(f * float64(n)))
	if v >= n {
		v = n - 1
	}
	return v
}

// Sequence replays fixed values in order, wrapping around. Values are taken
// modulo n. Useful for demos and tests that need known outcomes.
type Sequence struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewSequence returns a source cycling over values.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: append([]int(nil), values...)}
}

func (s *Sequence) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("rng: invalid bound %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0, ErrEmptySequence
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return ((v % n) + n) % n, nil
}
