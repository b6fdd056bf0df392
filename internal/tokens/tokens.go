// Package tokens provides deterministic token counting for model usage accounting.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// Count returns the cl100k_base token count for text. If the tokenizer
// cannot be initialized the length-based Estimate is used instead, so
// Count never fails.
func Count(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return Estimate(text)
	}
	return len(encoding.Encode(text, nil, nil))
}

// Estimate approximates a token count from character length. Used as
// the fallback when the tokenizer is unavailable.
func Estimate(text string) int {
	return len(text)/4 + 1
}
