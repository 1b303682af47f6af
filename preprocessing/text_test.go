package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTokenizer skips when the encoding cannot be loaded, which needs network
// access the first time
func newTokenizer(t *testing.T) *TextTokenizer {
	t.Helper()
	tok, err := NewTextTokenizer(EncodingCL100kBase)
	if err != nil {
		t.Skipf("cl100k_base unavailable: %v", err)
	}
	return tok
}

func TestTextTokenizerRoundTrip(t *testing.T) {
	tok := newTokenizer(t)
	assert.Equal(t, EncodingCL100kBase, tok.Name())

	texts := []string{"hello world", "Keras layers in Go"}
	seqs := tok.TextsToSequences(texts)
	require.Len(t, seqs, 2)
	for _, s := range seqs {
		assert.NotEmpty(t, s)
	}
	assert.Equal(t, texts, tok.SequencesToTexts(seqs))
}

func TestTextTokenizerPadded(t *testing.T) {
	tok := newTokenizer(t)

	seqs, err := tok.TextsToPaddedSequences([]string{"a", "a much longer sentence than the first"}, PadOptions{})
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	assert.Equal(t, len(seqs[0]), len(seqs[1]))
	assert.Equal(t, 0, seqs[0][0])
}

func TestTextTokenizerUnknownEncoding(t *testing.T) {
	_, err := NewTextTokenizer("no_such_encoding")
	assert.Error(t, err)
}
