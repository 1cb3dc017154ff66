package pipeline

import (
	"strings"
)

const (
	// DefaultChunkSize is the number of pages submitted per extraction call.
	// Description integrity across pages is only guaranteed inside one
	// chunk, which keeps this small.
	DefaultChunkSize = 2

	// PageBreakToken separates pages inside a chunk so the extraction
	// backend can still reason about page boundaries.
	PageBreakToken = "\n\n--- PAGE BREAK ---\n\n"
)

// SplitDocument splits raw extracted document text into per-page blocks.
// Text extractors concatenate pages with form feeds; blank pages are
// dropped. Page order is the document order.
func SplitDocument(text string) []string {
	var pages []string
	for _, p := range strings.Split(text, "\f") {
		if strings.TrimSpace(p) != "" {
			pages = append(pages, p)
		}
	}
	return pages
}

// ChunkPages groups pages into ordered chunks of at most size pages each.
// The last chunk may be smaller. An empty page list yields zero chunks;
// concatenating the chunks in order reconstructs the input exactly.
func ChunkPages(pages []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]string
	for i := 0; i < len(pages); i += size {
		end := i + size
		if end > len(pages) {
			end = len(pages)
		}
		chunks = append(chunks, pages[i:end])
	}
	return chunks
}

// JoinChunk concatenates a chunk's pages with the page-break token.
func JoinChunk(chunk []string) string {
	return strings.Join(chunk, PageBreakToken)
}
