// Package generate runs the decoding loop: it wires the scorer and codec
// collaborators to the sampling pipeline and exposes per-step results for
// inspection.
package generate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rdb64-hobbies/see-and-select-tokens/internal/model"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/sampling"
)

// DefaultMaxSteps bounds generate-to-end runs when the caller does not set
// a budget.
const DefaultMaxSteps = 50

var (
	// ErrScorer wraps failures propagated from the scorer collaborator.
	ErrScorer = errors.New("scorer failure")
	// ErrCodec wraps failures propagated from the codec collaborator.
	ErrCodec = errors.New("codec failure")
	// ErrEmptyContext reports that the input text encoded to nothing.
	ErrEmptyContext = errors.New("empty generation context")
)

// Token is one decoded candidate with its final probability.
type Token struct {
	ID          int     `json:"token_id"`
	Text        string  `json:"token_text"`
	Probability float64 `json:"probability"`
}

// StepResult records one decoding step: the ranked display candidates and
// the token actually drawn.
type StepResult struct {
	Candidates []Token `json:"candidates"`
	Selected   Token   `json:"selected_token"`
}

// Options tunes a session at construction time.
type Options struct {
	// DisplayCount is the maximum candidate list length per step.
	// Zero means sampling.DefaultDisplayCount.
	DisplayCount int
}

// Session is an explicit handle around one scorer instance. Scorer access
// is serialized by the session mutex; independent sessions run fully in
// parallel.
type Session struct {
	mu      sync.Mutex
	scorer  model.Scorer
	codec   model.Codec
	sampler *sampling.Sampler
	display int
}

// NewSession wires a scorer, codec and sampler into a generation handle.
func NewSession(scorer model.Scorer, codec model.Codec, sampler *sampling.Sampler, opts Options) *Session {
	display := opts.DisplayCount
	if display <= 0 {
		display = sampling.DefaultDisplayCount
	}
	return &Session{
		scorer:  scorer,
		codec:   codec,
		sampler: sampler,
		display: display,
	}
}

// NextToken runs a single decoding step for the given text prefix.
func (s *Session) NextToken(ctx context.Context, text string, p sampling.Params) (StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}
	ids, err := s.encode(text)
	if err != nil {
		return StepResult{}, err
	}
	return s.step(ids, p)
}

// GenerateToEnd decodes step by step until the scorer's EOS token is drawn
// or maxSteps results have been produced, and returns the full per-step
// record. The context is checked between steps; cancellation aborts the
// remaining steps with no partial record, as does any step error.
func (s *Session) GenerateToEnd(ctx context.Context, text string, p sampling.Params, maxSteps int) ([]StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	ids, err := s.encode(text)
	if err != nil {
		return nil, err
	}

	steps := make([]StepResult, 0, maxSteps)
	for i := 0; i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.step(ids, p)
		if err != nil {
			return nil, err
		}
		steps = append(steps, res)
		if res.Selected.ID == s.scorer.EOSID() {
			break
		}
		ids = append(ids, res.Selected.ID)
	}
	return steps, nil
}

func (s *Session) encode(text string) ([]int, error) {
	ids, err := s.codec.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if len(ids) == 0 {
		return nil, ErrEmptyContext
	}
	return ids, nil
}

// step scores the context, samples one token and rebuilds the display list
// from the post-filter distribution. Callers must hold s.mu.
func (s *Session) step(ids []int, p sampling.Params) (StepResult, error) {
	logits, err := s.scorer.Score(ids)
	if err != nil {
		return StepResult{}, fmt.Errorf("%w: %v", ErrScorer, err)
	}

	dist, selected, err := s.sampler.Step(logits, p)
	if err != nil {
		return StepResult{}, err
	}

	res := StepResult{Candidates: make([]Token, 0, s.display)}
	for _, c := range sampling.TopCandidates(dist, s.display) {
		tok, err := s.token(c.ID, c.Probability)
		if err != nil {
			return StepResult{}, err
		}
		res.Candidates = append(res.Candidates, tok)
	}

	// The draw can land outside the display window; decode it on its own.
	res.Selected, err = s.token(selected, dist[selected])
	if err != nil {
		return StepResult{}, err
	}
	return res, nil
}

func (s *Session) token(id int, prob float64) (Token, error) {
	text, err := s.codec.Decode([]int{id})
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return Token{ID: id, Text: text, Probability: prob}, nil
}
