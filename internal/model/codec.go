package model

import (
	"fmt"
	"strings"
)

// EOSTokenID is the reserved end-of-sequence id in the byte vocabulary.
const EOSTokenID = 256

// ByteCodec maps text to token ids byte-for-byte: ids 0..255 are the raw
// byte values and EOSTokenID renders as the empty string. Encode and
// Decode are exact inverses over byte ids.
type ByteCodec struct{}

func (ByteCodec) Encode(text string) ([]int, error) {
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i])
	}
	return ids, nil
}

func (ByteCodec) Decode(ids []int) (string, error) {
	var sb strings.Builder
	sb.Grow(len(ids))
	for _, id := range ids {
		switch {
		case id == EOSTokenID:
			// End of sequence has no text form.
		case id >= 0 && id < 256:
			sb.WriteByte(byte(id))
		default:
			return "", fmt.Errorf("token id %d outside byte vocabulary", id)
		}
	}
	return sb.String(), nil
}
