// internal/rag/formatter.go
package rag

import (
	"fmt"
	"strconv"
	"strings"
)

// Citation identifies the origin of a retrieved chunk. PageNum is nil for
// modalities without pagination and serializes as JSON null.
type Citation struct {
	SourceFile string `json:"source_file"`
	PageNum    *int   `json:"page_num"`
}

// FormatContext assembles the grounding block handed to the language model:
// each retrieved chunk prefixed with a source header naming its file and
// page, in retrieval order.
func FormatContext(chunks []RetrievedChunk) string {
	var b strings.Builder
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "[Source: %s, page: %s]\n%s\n\n",
			chunk.Record.SourceFile, pageLabel(chunk.Record.PageNum), chunk.Record.TextExcerpt)
	}
	return b.String()
}

func pageLabel(page *int) string {
	if page == nil {
		return "N/A"
	}
	return strconv.Itoa(*page)
}

// CollectCitations returns the distinct (source file, page) pairs of the
// retrieved chunks, in first-appearance order.
func CollectCitations(chunks []RetrievedChunk) []Citation {
	seen := make(map[string]bool, len(chunks))
	var citations []Citation
	for _, chunk := range chunks {
		key := chunk.Record.SourceFile + "\x00" + pageLabel(chunk.Record.PageNum)
		if seen[key] {
			continue
		}
		seen[key] = true
		citations = append(citations, Citation{
			SourceFile: chunk.Record.SourceFile,
			PageNum:    chunk.Record.PageNum,
		})
	}
	return citations
}
