// internal/rag/chunker.go
package rag

import (
	"fmt"
	"strings"
)

// ChunkText splits text into overlapping chunks of fixed word counts. Windows
// are size words long and advance by size-overlap words; the final window may
// be shorter. Any non-empty input yields at least one chunk, empty input
// yields none. The function is pure: identical input and parameters always
// produce identical output.
func ChunkText(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be zero or greater, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	step := size - overlap

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}
