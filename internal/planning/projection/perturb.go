package projection

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// Perturbation adjusts fallback demand when a cycle has no forecast entry.
// Implementations must be pure functions of their inputs.
type Perturbation interface {
	Perturb(base float64, key domain.PositionKey, cycle int) float64
}

// None leaves fallback demand untouched.
type None struct{}

func (None) Perturb(base float64, _ domain.PositionKey, _ int) float64 { return base }

// SeededJitter scales fallback demand by a factor drawn from [Low, High). The
// stream is derived from Seed and the key/cycle hash, so a replay yields the
// same numbers regardless of evaluation order.
type SeededJitter struct {
	Seed uint64
	Low  float64
	High float64
}

func (j SeededJitter) Perturb(base float64, key domain.PositionKey, cycle int) float64 {
	if base <= 0 || j.High <= j.Low {
		return base
	}
	r := rand.New(rand.NewPCG(j.Seed, streamID(key, cycle)))
	factor := j.Low + r.Float64()*(j.High-j.Low)
	return max(0, base*(1+factor))
}

func streamID(key domain.PositionKey, cycle int) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(key.ProductID))
	binary.LittleEndian.PutUint64(buf[8:], uint64(key.LocationID))
	binary.LittleEndian.PutUint64(buf[16:], uint64(cycle))
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
