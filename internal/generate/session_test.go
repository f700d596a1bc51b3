package generate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rdb64-hobbies/see-and-select-tokens/internal/model"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/sampling"
)

// scriptedScorer returns a fixed logit vector per call, falling back to
// the last entry when the script runs out.
type scriptedScorer struct {
	script [][]float32
	calls  int
	eos    int
	err    error
}

func (s *scriptedScorer) Score(ids []int) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return append([]float32(nil), s.script[i]...), nil
}

func (s *scriptedScorer) VocabSize() int { return len(s.script[0]) }
func (s *scriptedScorer) EOSID() int     { return s.eos }

// threeTokenCodec decodes the 3-token vocabulary {0:"a", 1:"b", 2:""}
// where id 2 is EOS.
type threeTokenCodec struct{}

func (threeTokenCodec) Encode(text string) ([]int, error) {
	ids := make([]int, 0, len(text))
	for _, r := range text {
		switch r {
		case 'a':
			ids = append(ids, 0)
		case 'b':
			ids = append(ids, 1)
		default:
			return nil, errors.New("unknown rune")
		}
	}
	return ids, nil
}

func (threeTokenCodec) Decode(ids []int) (string, error) {
	out := ""
	for _, id := range ids {
		switch id {
		case 0:
			out += "a"
		case 1:
			out += "b"
		case 2:
			// EOS
		default:
			return "", errors.New("unknown id")
		}
	}
	return out, nil
}

func newTestSession(scorer model.Scorer, seed uint64) *Session {
	return NewSession(scorer, threeTokenCodec{}, sampling.New(seed), Options{})
}

func TestNextTokenGreedyViaTopK(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{script: [][]float32{{2.0, 1.0, 0.1}}, eos: 2}
	sess := newTestSession(scorer, 5)

	res, err := sess.NextToken(context.Background(), "ab", sampling.Params{Temperature: 1, TopK: 1, TopP: 1})
	if err != nil {
		t.Fatalf("next token: %v", err)
	}
	if res.Selected.ID != 0 || res.Selected.Text != "a" {
		t.Fatalf("expected token 0 (%q), got %d (%q)", "a", res.Selected.ID, res.Selected.Text)
	}
	if res.Selected.Probability != 1 {
		t.Fatalf("top_k=1 selection probability: got %v, want 1", res.Selected.Probability)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("top_k=1 should leave one display candidate, got %d", len(res.Candidates))
	}
}

func TestNextTokenCandidateProbabilitiesSumToOne(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{script: [][]float32{{2.0, 1.0, 0.1}}, eos: 2}
	sess := newTestSession(scorer, 5)

	res, err := sess.NextToken(context.Background(), "a", sampling.DefaultParams())
	if err != nil {
		t.Fatalf("next token: %v", err)
	}
	var sum float64
	for i, c := range res.Candidates {
		if i > 0 && c.Probability > res.Candidates[i-1].Probability {
			t.Fatalf("candidates not sorted descending: %+v", res.Candidates)
		}
		sum += c.Probability
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("display probabilities over the full vocab should sum to 1, got %v", sum)
	}
}

func TestGenerateToEndStopsOnEOS(t *testing.T) {
	t.Parallel()

	// After the prefill the scorer overwhelmingly favors EOS; the loop
	// must stop after exactly one step even with a large budget.
	scorer := &scriptedScorer{script: [][]float32{{0, 0, 100}}, eos: 2}
	sess := newTestSession(scorer, 1)

	steps, err := sess.GenerateToEnd(context.Background(), "ab", sampling.DefaultParams(), 50)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected exactly 1 step, got %d", len(steps))
	}
	if steps[0].Selected.ID != 2 {
		t.Fatalf("expected EOS selection, got %d", steps[0].Selected.ID)
	}
}

func TestGenerateToEndHonorsMaxSteps(t *testing.T) {
	t.Parallel()

	// Token 0 always wins, so only the budget can stop the loop.
	scorer := &scriptedScorer{script: [][]float32{{100, 0, -100}}, eos: 2}
	sess := newTestSession(scorer, 1)

	steps, err := sess.GenerateToEnd(context.Background(), "b", sampling.DefaultParams(), 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(steps) != 7 {
		t.Fatalf("expected 7 steps, got %d", len(steps))
	}
	for i, st := range steps {
		if st.Selected.ID != 0 {
			t.Fatalf("step %d: expected token 0, got %d", i, st.Selected.ID)
		}
	}
}

func TestGenerateToEndCancellation(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{script: [][]float32{{100, 0, -100}}, eos: 2}
	sess := newTestSession(scorer, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sess.GenerateToEnd(ctx, "a", sampling.DefaultParams(), 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScorerFailurePropagates(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{script: [][]float32{{1, 1, 1}}, eos: 2, err: errors.New("accelerator on fire")}
	sess := newTestSession(scorer, 1)

	_, err := sess.NextToken(context.Background(), "a", sampling.DefaultParams())
	if !errors.Is(err, ErrScorer) {
		t.Fatalf("expected ErrScorer, got %v", err)
	}
}

func TestCodecFailurePropagates(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{script: [][]float32{{1, 1, 1}}, eos: 2}
	sess := newTestSession(scorer, 1)

	_, err := sess.NextToken(context.Background(), "zzz", sampling.DefaultParams())
	if !errors.Is(err, ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}

func TestEmptyContextRejected(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{script: [][]float32{{1, 1, 1}}, eos: 2}
	sess := newTestSession(scorer, 1)

	if _, err := sess.NextToken(context.Background(), "", sampling.DefaultParams()); !errors.Is(err, ErrEmptyContext) {
		t.Fatalf("expected ErrEmptyContext, got %v", err)
	}
}

func TestInvalidParamsSurfaceFromStep(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{script: [][]float32{{1, 1, 1}}, eos: 2}
	sess := newTestSession(scorer, 1)

	_, err := sess.NextToken(context.Background(), "a", sampling.Params{Temperature: -1, TopK: 0, TopP: 1})
	if !errors.Is(err, sampling.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}
