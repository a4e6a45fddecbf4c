package scheduler

import (
	"math/rand"
	"time"
)

// RandomSource yields uniform floats in [0, 1).
type RandomSource interface {
	Float64() float64
}

// Shuffler reorders sessions before allocation.
type Shuffler interface {
	Shuffle(sessions []Session)
}

// FisherYates is a uniform random permutation driven by Source.
type FisherYates struct {
	Source RandomSource
}

// NewSeededShuffler returns a FisherYates over math/rand. Equal seeds, zero
// included, give equal permutations.
func NewSeededShuffler(seed int64) FisherYates {
	return FisherYates{Source: rand.New(rand.NewSource(seed))}
}

// NewRandomShuffler seeds a FisherYates from the clock.
func NewRandomShuffler() FisherYates {
	return NewSeededShuffler(time.Now().UnixNano())
}

// Shuffle permutes sessions in place.
func (f FisherYates) Shuffle(sessions []Session) {
	for i := len(sessions) - 1; i > 0; i-- {
		j := int(f.Source.Float64() * float64(i+1))
		if j > i {
			j = i
		}
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
}

// IdentityOrder keeps expansion order. Used where runs must be reproducible.
type IdentityOrder struct{}

// Shuffle is a no-op.
func (IdentityOrder) Shuffle([]Session) {}
