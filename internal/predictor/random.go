package predictor

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Random is the noise source shared by the pricing model, the forecast and
// the summary block
type Random interface {
	Float64() float64
	IntN(n int) int
}

type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom returns a Random safe for concurrent requests. A zero seed
// seeds from the clock.
func NewRandom(seed uint64) Random {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRandom) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRandom) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
