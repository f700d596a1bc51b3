// Package sampling implements the next-token distribution pipeline:
// temperature scaling, softmax, top-k and nucleus truncation,
// renormalization and a weighted random draw.
package sampling

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// DefaultDisplayCount is how many ranked candidates a step reports when the
// caller does not ask for a specific count. It is independent of TopK.
const DefaultDisplayCount = 12

var (
	// ErrInvalidParams reports an out-of-range sampling parameter.
	ErrInvalidParams = errors.New("invalid sampling parameters")
	// ErrDegenerate reports that filtering left no probability mass to
	// sample from.
	ErrDegenerate = errors.New("degenerate distribution")
)

// Params controls one sampling step. The zero values of TopK and TopP are
// not valid; use DefaultParams for a no-op configuration.
type Params struct {
	// Temperature divides every logit before softmax. Must be > 0;
	// 1.0 leaves the logits unchanged.
	Temperature float64
	// TopK keeps only the k highest-probability tokens. 0 disables the
	// filter; values of len(logits) or more are equivalent to 0.
	TopK int
	// TopP keeps the smallest probability-descending prefix whose
	// cumulative mass strictly exceeds it. Must be in (0, 1]; 1.0
	// disables the filter.
	TopP float64
}

// DefaultParams returns parameters that leave the softmax output untouched.
func DefaultParams() Params {
	return Params{Temperature: 1.0, TopK: 0, TopP: 1.0}
}

func (p Params) Validate() error {
	if p.Temperature <= 0 || math.IsNaN(p.Temperature) {
		return fmt.Errorf("%w: temperature must be > 0, got %v", ErrInvalidParams, p.Temperature)
	}
	if p.TopK < 0 {
		return fmt.Errorf("%w: top_k must be >= 0, got %d", ErrInvalidParams, p.TopK)
	}
	if p.TopP <= 0 || p.TopP > 1 || math.IsNaN(p.TopP) {
		return fmt.Errorf("%w: top_p must be in (0, 1], got %v", ErrInvalidParams, p.TopP)
	}
	return nil
}

// Candidate is one entry of the final post-filter distribution.
type Candidate struct {
	ID          int
	Probability float64
}

// Sampler draws tokens from filtered distributions. The random source is
// injected at construction so callers can pin the seed.
type Sampler struct {
	src rand.Source
}

// New returns a Sampler seeded with the given value.
func New(seed uint64) *Sampler {
	return &Sampler{src: rand.NewSource(seed)}
}

// NewFromSource returns a Sampler drawing from src.
func NewFromSource(src rand.Source) *Sampler {
	return &Sampler{src: src}
}

// Step transforms one logit vector into the final filtered, renormalized
// distribution and draws a single token id from it. The stages run in a
// fixed order: temperature, softmax, top-k, nucleus, renormalize, draw.
// The returned distribution is what the draw actually used; display lists
// must be built from it, not from the raw softmax.
func (s *Sampler) Step(logits []float32, p Params) ([]float64, int, error) {
	if err := p.Validate(); err != nil {
		return nil, -1, err
	}
	if len(logits) == 0 {
		return nil, -1, fmt.Errorf("%w: empty logit vector", ErrDegenerate)
	}

	dist, err := Softmax(logits, p.Temperature)
	if err != nil {
		return nil, -1, err
	}

	if p.TopK > 0 && p.TopK < len(dist) {
		truncateTopK(dist, p.TopK)
	}
	if p.TopP < 1 {
		truncateNucleus(dist, p.TopP)
	}
	if err := renormalize(dist); err != nil {
		return nil, -1, err
	}

	id, err := s.draw(dist)
	if err != nil {
		return nil, -1, err
	}
	return dist, id, nil
}

// Softmax converts logits to a probability distribution after dividing by
// temperature. The maximum is subtracted before exponentiation for
// numerical stability.
func Softmax(logits []float32, temperature float64) ([]float64, error) {
	maxVal := math.Inf(-1)
	for _, l := range logits {
		if v := float64(l) / temperature; v > maxVal {
			maxVal = v
		}
	}

	dist := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l)/temperature - maxVal)
		dist[i] = e
		sum += e
	}
	if sum == 0 || math.IsNaN(sum) {
		return nil, fmt.Errorf("%w: softmax mass is zero", ErrDegenerate)
	}
	inv := 1.0 / sum
	for i := range dist {
		dist[i] *= inv
	}
	return dist, nil
}

// truncateTopK zeroes everything outside the k highest-probability entries.
// Ties at the boundary are broken by lowest token id.
func truncateTopK(dist []float64, k int) {
	idx := sortedByProb(dist)
	for _, i := range idx[k:] {
		dist[i] = 0
	}
}

// truncateNucleus zeroes every entry outside the smallest
// probability-descending prefix whose cumulative mass strictly exceeds p.
// The entry that crosses the threshold is kept. If the total mass never
// exceeds p the distribution is left unchanged.
func truncateNucleus(dist []float64, p float64) {
	idx := sortedByProb(dist)
	var cum float64
	for i, j := range idx {
		cum += dist[j]
		if cum > p {
			for _, drop := range idx[i+1:] {
				dist[drop] = 0
			}
			return
		}
	}
}

func renormalize(dist []float64) error {
	var sum float64
	for _, v := range dist {
		sum += v
	}
	if sum == 0 {
		return fmt.Errorf("%w: all candidates filtered away", ErrDegenerate)
	}
	inv := 1.0 / sum
	for i := range dist {
		dist[i] *= inv
	}
	return nil
}

func (s *Sampler) draw(dist []float64) (int, error) {
	// sampleuv mutates its weights on Take, so hand it a copy.
	w := sampleuv.NewWeighted(append([]float64(nil), dist...), s.src)
	id, ok := w.Take()
	if !ok {
		return -1, fmt.Errorf("%w: no candidate with positive probability", ErrDegenerate)
	}
	return id, nil
}

// TopCandidates returns up to n non-zero entries of dist, descending by
// probability with ties broken by lowest token id.
func TopCandidates(dist []float64, n int) []Candidate {
	if n <= 0 {
		n = DefaultDisplayCount
	}
	cands := make([]Candidate, 0, len(dist))
	for i, p := range dist {
		if p > 0 {
			cands = append(cands, Candidate{ID: i, Probability: p})
		}
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].Probability != cands[b].Probability {
			return cands[a].Probability > cands[b].Probability
		}
		return cands[a].ID < cands[b].ID
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	return cands
}

func sortedByProb(dist []float64) []int {
	idx := make([]int, len(dist))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if dist[idx[a]] != dist[idx[b]] {
			return dist[idx[a]] > dist[idx[b]]
		}
		return idx[a] < idx[b]
	})
	return idx
}
