package utils

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkoukk/tiktoken-go"
)

var (
	encoding     *tiktoken.Tiktoken
	encodingErr  error
	encodingOnce sync.Once
)

// NumTokens counts cl100k tokens in text. When the encoding cannot be loaded
// (it is fetched on first use) it falls back to a four-bytes-per-token estimate.
func NumTokens(text string) int {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
		if encodingErr != nil {
			log.Warn("token encoding unavailable, estimating", "error", encodingErr)
		}
	})
	if encodingErr != nil {
		return EstimateTokens(text)
	}
	return len(encoding.Encode(text, nil, nil))
}

func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
