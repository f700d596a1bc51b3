package model

import (
	"strings"
	"testing"
)

func TestTinyLMDeterministicWeights(t *testing.T) {
	t.Parallel()

	a := NewTinyLM(32, 8, 7)
	b := NewTinyLM(32, 8, 7)
	ids := []int{1, 5, 9}

	la, err := a.Score(ids)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	lb, err := b.Score(ids)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	for i := range la {
		if la[i] != lb[i] {
			t.Fatalf("logit mismatch at %d: %v vs %v", i, la[i], lb[i])
		}
	}
}

func TestTinyLMScoreDependsOnContext(t *testing.T) {
	t.Parallel()

	m := NewTinyLM(32, 8, 3)
	la, err := m.Score([]int{1, 2})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	lb, err := m.Score([]int{2, 1})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	same := true
	for i := range la {
		if la[i] != lb[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("reordered context produced identical logits")
	}
}

func TestTinyLMScoreErrors(t *testing.T) {
	t.Parallel()

	m := NewTinyLM(16, 4, 1)
	if _, err := m.Score(nil); err == nil {
		t.Fatal("expected error for empty context")
	}
	if _, err := m.Score([]int{16}); err == nil {
		t.Fatal("expected error for out-of-range token id")
	}
	if _, err := m.Score([]int{-1}); err == nil {
		t.Fatal("expected error for negative token id")
	}
}

func TestByteCodecRoundTrip(t *testing.T) {
	t.Parallel()

	var c ByteCodec
	text := "hello, \xf0\x9f\x98\x80 world"
	ids, err := c.Encode(text)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(ids) != len(text) {
		t.Fatalf("expected one id per byte, got %d for %d bytes", len(ids), len(text))
	}
	got, err := c.Decode(ids)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != text {
		t.Fatalf("round trip: got %q, want %q", got, text)
	}
}

func TestByteCodecEOSAndErrors(t *testing.T) {
	t.Parallel()

	var c ByteCodec
	got, err := c.Decode([]int{'o', 'k', EOSTokenID})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "ok" {
		t.Fatalf("EOS should render empty: got %q", got)
	}
	if _, err := c.Decode([]int{512}); err == nil || !strings.Contains(err.Error(), "outside byte vocabulary") {
		t.Fatalf("expected vocabulary error, got %v", err)
	}
}

func TestByteVocabLMMatchesCodec(t *testing.T) {
	t.Parallel()

	m := NewByteVocabLM(8, 1)
	if m.VocabSize() != ByteVocabSize {
		t.Fatalf("vocab size: got %d, want %d", m.VocabSize(), ByteVocabSize)
	}
	if m.EOSID() != EOSTokenID {
		t.Fatalf("eos id: got %d, want %d", m.EOSID(), EOSTokenID)
	}
}
