package model

import (
	"errors"
	"fmt"
	"math/rand"
)

// ByteVocabSize covers the 256 raw byte tokens plus the reserved EOS id.
const ByteVocabSize = 257

// contextDecay controls how quickly older context tokens fade out of the
// hidden state.
const contextDecay = 0.7

// TinyLM is a small deterministic language model: an embedding matrix, a
// projection back to vocabulary logits and a bias vector. The context is
// folded into a single decaying hidden state, so the logits depend on the
// whole prefix while scoring stays cheap enough for interactive use.
type TinyLM struct {
	vocab  int
	hidden int
	emb    []float32 // [vocab x hidden]
	proj   []float32 // [hidden x vocab]
	bias   []float32 // [vocab]
	eosID  int
}

// NewTinyLM builds a model with weights derived deterministically from
// seed. The highest token id is treated as EOS.
func NewTinyLM(vocab, hidden int, seed int64) *TinyLM {
	m := &TinyLM{
		vocab:  vocab,
		hidden: hidden,
		emb:    make([]float32, vocab*hidden),
		proj:   make([]float32, hidden*vocab),
		bias:   make([]float32, vocab),
		eosID:  vocab - 1,
	}
	fillRand(m.emb, seed+11)
	fillRand(m.proj, seed+23)
	return m
}

// NewByteVocabLM builds a TinyLM over the byte vocabulary used by
// ByteCodec.
func NewByteVocabLM(hidden int, seed int64) *TinyLM {
	return NewTinyLM(ByteVocabSize, hidden, seed)
}

func (m *TinyLM) VocabSize() int { return m.vocab }
func (m *TinyLM) EOSID() int     { return m.eosID }

// Score folds the context into the hidden state and projects it back to
// vocabulary logits for the next position.
func (m *TinyLM) Score(ids []int) ([]float32, error) {
	if len(ids) == 0 {
		return nil, errors.New("empty token context")
	}
	h := make([]float32, m.hidden)
	for _, id := range ids {
		if id < 0 || id >= m.vocab {
			return nil, fmt.Errorf("token id %d outside vocabulary [0, %d)", id, m.vocab)
		}
		row := m.emb[id*m.hidden : (id+1)*m.hidden]
		for i := range h {
			h[i] = contextDecay*h[i] + row[i]
		}
	}

	logits := make([]float32, m.vocab)
	for i := 0; i < m.hidden; i++ {
		hv := h[i]
		row := m.proj[i*m.vocab : (i+1)*m.vocab]
		for j := range row {
			logits[j] += hv * row[j]
		}
	}
	for j := range logits {
		logits[j] += m.bias[j]
	}
	return logits, nil
}

func fillRand(dst []float32, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range dst {
		dst[i] = float32(rng.NormFloat64()) * 0.25
	}
}
