package preprocessing

import (
	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
)

// Encodings understood by NewTextTokenizer
const (
	EncodingCL100kBase = "cl100k_base"
	EncodingP50kBase   = "p50k_base"
	EncodingR50kBase   = "r50k_base"
)

// TextTokenizer turns text into integer sequences with a BPE encoding, for
// feeding Embedding layers
type TextTokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTextTokenizer loads the named encoding
func NewTextTokenizer(encodingName string) (*TextTokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tiktoken encoding %q", encodingName)
	}
	return &TextTokenizer{encoding: encoding, name: encodingName}, nil
}

// NewTextTokenizerForModel loads the encoding used by a model, such as "gpt-4"
func NewTextTokenizerForModel(modelName string) (*TextTokenizer, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tiktoken for model %q", modelName)
	}
	return &TextTokenizer{encoding: encoding, name: modelName}, nil
}

// Name returns the encoding or model name
func (t *TextTokenizer) Name() string {
	return t.name
}

// TextsToSequences encodes every text. Special tokens are encoded as text.
func (t *TextTokenizer) TextsToSequences(texts []string) [][]int {
	out := make([][]int, len(texts))
	for i, text := range texts {
		out[i] = t.encoding.Encode(text, nil, nil)
	}
	return out
}

// SequencesToTexts decodes every sequence
func (t *TextTokenizer) SequencesToTexts(seqs [][]int) []string {
	out := make([]string, len(seqs))
	for i, s := range seqs {
		out[i] = t.encoding.Decode(s)
	}
	return out
}

// TextsToPaddedSequences encodes texts and pads the result with opts
func (t *TextTokenizer) TextsToPaddedSequences(texts []string, opts PadOptions) ([][]int, error) {
	return PadSequences(t.TextsToSequences(texts), opts)
}
