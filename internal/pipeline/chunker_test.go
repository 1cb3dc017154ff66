package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDocument(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "form feed separated pages",
			text: "page one\fpage two\fpage three",
			want: []string{"page one", "page two", "page three"},
		},
		{
			name: "blank pages dropped",
			text: "page one\f   \f\fpage two",
			want: []string{"page one", "page two"},
		},
		{
			name: "single page",
			text: "only page",
			want: []string{"only page"},
		},
		{
			name: "empty document",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitDocument(tt.text))
		})
	}
}

func TestChunkPages(t *testing.T) {
	pages := []string{"p1", "p2", "p3", "p4", "p5"}

	chunks := ChunkPages(pages, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"p1", "p2"}, chunks[0])
	assert.Equal(t, []string{"p3", "p4"}, chunks[1])
	assert.Equal(t, []string{"p5"}, chunks[2])

	// Concatenating the chunks reconstructs the input in order.
	var flat []string
	for _, c := range chunks {
		flat = append(flat, c...)
	}
	assert.Equal(t, pages, flat)
}

func TestChunkPagesEdgeCases(t *testing.T) {
	assert.Nil(t, ChunkPages(nil, 2))
	assert.Nil(t, ChunkPages([]string{}, 2))

	// Non-positive size falls back to the default.
	chunks := ChunkPages([]string{"p1", "p2", "p3"}, 0)
	require.Len(t, chunks, 2)

	// Chunk larger than the document yields one chunk.
	chunks = ChunkPages([]string{"p1", "p2"}, 10)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 2)
}

func TestJoinChunk(t *testing.T) {
	joined := JoinChunk([]string{"first page", "second page"})
	assert.Equal(t, "first page"+PageBreakToken+"second page", joined)
	assert.Equal(t, 1, strings.Count(joined, "--- PAGE BREAK ---"))

	assert.Equal(t, "solo", JoinChunk([]string{"solo"}))
}
