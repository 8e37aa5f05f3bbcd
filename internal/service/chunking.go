package service

import (
	"strings"

	"github.com/loreworks/loretex/internal/domain"
)

const (
	// DefaultChunkSize is the window length in words.
	DefaultChunkSize = 512
	// DefaultChunkOverlap is how many words consecutive fragments share.
	DefaultChunkOverlap = 20
)

// SplitChunks splits text into fragments of at most size words, each
// consecutive pair sharing overlap words of context. The final fragment may
// be shorter than size; it is always emitted so the tail of a document is
// never lost. The result is fully materialized and deterministic: identical
// input and parameters always produce the identical ordered sequence.
//
// overlap must satisfy 0 <= overlap < size, otherwise the window would not
// advance and chunking would never terminate.
func SplitChunks(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, domain.ErrInvalidChunkBounds
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}, nil
	}

	step := size - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks, nil
}
