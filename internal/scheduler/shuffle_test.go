package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedSource struct{ values []float64 }

func (f *fixedSource) Float64() float64 {
	v := f.values[0]
	f.values = f.values[1:]
	return v
}

func sessionsNamed(codes ...string) []Session {
	out := make([]Session, len(codes))
	for i, code := range codes {
		out[i] = Session{SubjectCode: code}
	}
	return out
}

func codes(sessions []Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.SubjectCode
	}
	return out
}

func TestFisherYatesUsesSource(t *testing.T) {
	sessions := sessionsNamed("A", "B", "C")
	// i=2: j=int(0*3)=0 -> C,B,A ; i=1: j=int(0.99*2)=1 -> unchanged
	FisherYates{Source: &fixedSource{values: []float64{0, 0.99}}}.Shuffle(sessions)
	assert.Equal(t, []string{"C", "B", "A"}, codes(sessions))
}

func TestFisherYatesClampsSource(t *testing.T) {
	sessions := sessionsNamed("A", "B")
	FisherYates{Source: &fixedSource{values: []float64{1}}}.Shuffle(sessions)
	assert.Equal(t, []string{"A", "B"}, codes(sessions))
}

func TestSeededShufflerIsReproducible(t *testing.T) {
	first := sessionsNamed("A", "B", "C", "D", "E", "F", "G")
	second := sessionsNamed("A", "B", "C", "D", "E", "F", "G")
	NewSeededShuffler(42).Shuffle(first)
	NewSeededShuffler(42).Shuffle(second)
	assert.Equal(t, codes(first), codes(second))
	assert.ElementsMatch(t, []string{"A", "B", "C", "D", "E", "F", "G"}, codes(first))
}

func TestSeededShufflerZeroIsAFixedSeed(t *testing.T) {
	first := sessionsNamed("A", "B", "C", "D", "E", "F", "G")
	second := sessionsNamed("A", "B", "C", "D", "E", "F", "G")
	NewSeededShuffler(0).Shuffle(first)
	NewSeededShuffler(0).Shuffle(second)
	assert.Equal(t, codes(first), codes(second))
}

func TestIdentityOrder(t *testing.T) {
	sessions := sessionsNamed("A", "B", "C")
	IdentityOrder{}.Shuffle(sessions)
	assert.Equal(t, []string{"A", "B", "C"}, codes(sessions))
}
