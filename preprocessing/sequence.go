// Package preprocessing prepares model inputs: padding integer sequences,
// tokenizing text, describing timeseries batches and loading images through
// the runtime.
package preprocessing

import (
	"github.com/pkg/errors"
)

// Padding and truncation sides
const (
	Pre  = "pre"
	Post = "post"
)

// PadOptions configures PadSequences. MaxLen 0 pads to the longest sequence.
// Empty Padding or Truncating means Pre.
type PadOptions struct {
	MaxLen     int
	Padding    string
	Truncating string
	Value      int
}

// DefaultPadOptions returns the Keras pad_sequences defaults
func DefaultPadOptions() PadOptions {
	return PadOptions{Padding: Pre, Truncating: Pre}
}

func side(s, what string) (string, error) {
	switch s {
	case "", Pre:
		return Pre, nil
	case Post:
		return Post, nil
	}
	return "", errors.Errorf("%s type %q not understood", what, s)
}

// PadSequences pads or truncates every sequence to the same length, the way
// keras.preprocessing.sequence.pad_sequences does
func PadSequences(seqs [][]int, opts PadOptions) ([][]int, error) {
	padding, err := side(opts.Padding, "padding")
	if err != nil {
		return nil, err
	}
	truncating, err := side(opts.Truncating, "truncating")
	if err != nil {
		return nil, err
	}
	if opts.MaxLen < 0 {
		return nil, errors.Errorf("invalid maxlen %d", opts.MaxLen)
	}

	maxLen := opts.MaxLen
	if maxLen == 0 {
		for _, s := range seqs {
			if len(s) > maxLen {
				maxLen = len(s)
			}
		}
	}

	out := make([][]int, len(seqs))
	for i, s := range seqs {
		row := make([]int, maxLen)
		for j := range row {
			row[j] = opts.Value
		}

		trunc := s
		if len(s) > maxLen {
			if truncating == Pre {
				trunc = s[len(s)-maxLen:]
			} else {
				trunc = s[:maxLen]
			}
		}

		if padding == Post {
			copy(row, trunc)
		} else {
			copy(row[maxLen-len(trunc):], trunc)
		}
		out[i] = row
	}
	return out, nil
}
