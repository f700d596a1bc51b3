// Package model provides the external collaborators of the sampler: a
// scorer producing next-token logits and a codec mapping between text and
// token ids.
package model

// Scorer maps a token-id context to unnormalized scores for the immediate
// next position.
type Scorer interface {
	Score(ids []int) ([]float32, error)
	VocabSize() int
	EOSID() int
}

// Codec is the bidirectional mapping between text and token ids. Decode of
// a single previously produced id must be stable.
type Codec interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
}
