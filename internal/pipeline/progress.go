package pipeline

import (
	"github.com/hellboyz13/bankstatement/internal/domain"
)

// ProgressType tags a progress event.
type ProgressType string

const (
	ProgressStatus   ProgressType = "status"
	ProgressEstimate ProgressType = "estimate"
	ProgressUpdate   ProgressType = "progress"
	ProgressComplete ProgressType = "complete"
	ProgressError    ProgressType = "error"
)

// ProgressEvent is one update pushed to the caller while a parse job runs.
// Progress is a percentage in [0,100]. Estimate events carry the page count
// and a linear time estimate in milliseconds; complete events carry the
// merged statement; error events terminate the stream.
type ProgressEvent struct {
	Type     ProgressType `json:"type"`
	Message  string       `json:"message"`
	Progress float64      `json:"progress"`

	Pages         int   `json:"pages,omitempty"`
	EstimatedTime int64 `json:"estimatedTime,omitempty"`

	CurrentChunk int `json:"currentChunk,omitempty"`
	TotalChunks  int `json:"totalChunks,omitempty"`

	Statement *domain.ParsedStatement `json:"statement,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// ProgressFunc receives progress events. Callbacks must be fast; the
// orchestrator invokes them inline from its collection loop.
type ProgressFunc func(ProgressEvent)

// emit calls fn when it is non-nil.
func emit(fn ProgressFunc, ev ProgressEvent) {
	if fn != nil {
		fn(ev)
	}
}
