package pipeline

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

// DispatchPolicy decides what a single chunk failure does to the job.
type DispatchPolicy string

const (
	// PolicyFailFast aborts the whole job on the first chunk failure.
	PolicyFailFast DispatchPolicy = "fail-fast"
	// PolicyBestEffort drops a failing chunk and completes the job with
	// whatever chunks succeeded.
	PolicyBestEffort DispatchPolicy = "best-effort"
)

const (
	// DefaultChunkTimeout bounds one extraction call.
	DefaultChunkTimeout = 60 * time.Second
	// DefaultJobTimeout bounds the whole job.
	DefaultJobTimeout = 90 * time.Second
	// DefaultMaxConcurrent bounds in-flight extraction calls.
	DefaultMaxConcurrent = 4

	// perChunkEstimate is the empirical per-chunk latency used for the
	// up-front time estimate.
	perChunkEstimate = 23 * time.Second

	// Progress percentages: extraction reports between baseline and
	// baseline+span, the tail is reserved for the merge.
	progressBaseline = 10.0
	progressSpan     = 80.0
)

// Config is the orchestrator's tuning surface.
type Config struct {
	ChunkSize     int
	ChunkTimeout  time.Duration
	JobTimeout    time.Duration
	Policy        DispatchPolicy
	MaxConcurrent int
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkTimeout <= 0 {
		c.ChunkTimeout = DefaultChunkTimeout
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = DefaultJobTimeout
	}
	if c.Policy == "" {
		c.Policy = PolicyBestEffort
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	return c
}

// Categorizer assigns a spending category to a transaction. The pipeline
// only consults it for rows the extraction backend left uncategorized.
type Categorizer interface {
	Categorize(description string, amount float64) string
}

// Pipeline orchestrates one statement parse job: chunks the pages, fans
// the chunks out to the extraction backend, normalizes and merges the
// responses, and reports progress along the way.
type Pipeline struct {
	extractor   Extractor
	categorizer Categorizer
	cfg         Config
	log         zerolog.Logger
}

// New assembles a pipeline. A nil extractor is a configuration error:
// callers without a configured backend should use the fallback parser
// instead of this pipeline.
func New(extractor Extractor, categorizer Categorizer, cfg Config, log zerolog.Logger) (*Pipeline, error) {
	if extractor == nil {
		return nil, NewError(KindConfiguration, "extraction backend requested but not configured").
			WithSuggestion("set the Gemini API key, or disable extraction to use the deterministic parser")
	}
	if categorizer == nil {
		return nil, NewError(KindConfiguration, "categorizer is required")
	}
	return &Pipeline{
		extractor:   extractor,
		categorizer: categorizer,
		cfg:         cfg.withDefaults(),
		log:         log,
	}, nil
}

type chunkResult struct {
	index int
	stmt  *domain.ParsedStatement
	err   error
}

// Run parses one document's pages into a merged statement. Chunk calls run
// concurrently; progress events are emitted in chunk completion order and
// percentages are computed from the completed count. The returned error is
// always a *Error.
func (p *Pipeline) Run(ctx context.Context, pages []string, onProgress ProgressFunc) (*domain.ParsedStatement, error) {
	emit(onProgress, ProgressEvent{Type: ProgressStatus, Message: "Reading statement text...", Progress: 0})

	chunks := ChunkPages(pages, p.cfg.ChunkSize)
	if len(chunks) == 0 {
		return nil, p.fail(onProgress, NewError(KindNoTransactionsFound, "statement contains no page text"))
	}

	emit(onProgress, ProgressEvent{
		Type:          ProgressEstimate,
		Message:       fmt.Sprintf("Processing %d chunk(s)...", len(chunks)),
		Progress:      5,
		Pages:         len(pages),
		TotalChunks:   len(chunks),
		EstimatedTime: int64(len(chunks)) * perChunkEstimate.Milliseconds(),
	})

	ctx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()

	resultCh := make(chan chunkResult, len(chunks))
	sem := make(chan struct{}, p.cfg.MaxConcurrent)
	for i, chunk := range chunks {
		go p.extractChunk(ctx, i, chunk, sem, resultCh)
	}

	results := make([]*domain.ParsedStatement, len(chunks))
	completed := 0
	for completed < len(chunks) {
		select {
		case <-ctx.Done():
			return nil, p.fail(onProgress, WrapError(ctx.Err(), KindJobTimeout,
				"job deadline elapsed before all chunks completed"))
		case res := <-resultCh:
			completed++
			count := 0
			if res.err != nil {
				if terminal(res.err) || p.cfg.Policy == PolicyFailFast {
					cancel()
					return nil, p.fail(onProgress, res.err)
				}
				p.log.Warn().Err(res.err).Int("chunk", res.index).
					Msg("Dropping failed chunk (best-effort policy)")
			} else {
				results[res.index] = res.stmt
				count = len(res.stmt.Transactions)
			}
			emit(onProgress, ProgressEvent{
				Type:         ProgressUpdate,
				Message:      fmt.Sprintf("Chunk %d/%d complete (%d transactions)", completed, len(chunks), count),
				Progress:     progressBaseline + float64(completed)/float64(len(chunks))*progressSpan,
				CurrentChunk: completed,
				TotalChunks:  len(chunks),
			})
		}
	}

	emit(onProgress, ProgressEvent{Type: ProgressUpdate, Message: "Merging results...", Progress: 95})

	merged := mergeResults(results)
	for i := range merged.Transactions {
		if merged.Transactions[i].Category == "" {
			tx := &merged.Transactions[i]
			tx.Category = p.categorizer.Categorize(tx.Description, tx.Amount)
		}
	}

	if len(merged.Transactions) == 0 {
		return nil, p.fail(onProgress, NewError(KindNoTransactionsFound, "no transactions found in statement").
			WithSuggestion("ensure the document is a bank statement containing transaction rows"))
	}

	emit(onProgress, ProgressEvent{
		Type:      ProgressComplete,
		Message:   "Parsing complete!",
		Progress:  100,
		Statement: merged,
	})
	return merged, nil
}

// extractChunk runs one extraction call under the per-chunk timeout and
// sends exactly one result. resultCh is buffered for every chunk, so sends
// never block and abandoned workers cannot leak.
func (p *Pipeline) extractChunk(ctx context.Context, index int, chunk []string, sem chan struct{}, resultCh chan<- chunkResult) {
	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		resultCh <- chunkResult{index: index, err: WrapError(ctx.Err(), KindJobTimeout, "job cancelled before chunk was dispatched")}
		return
	}

	cctx, ccancel := context.WithTimeout(ctx, p.cfg.ChunkTimeout)
	defer ccancel()

	raw, err := p.extractor.ExtractChunk(cctx, JoinChunk(chunk))
	if err != nil {
		if ctx.Err() != nil {
			resultCh <- chunkResult{index: index, err: WrapError(ctx.Err(), KindJobTimeout, "job cancelled during chunk extraction")}
			return
		}
		resultCh <- chunkResult{index: index, err: WrapError(err, KindChunkExtraction, "extraction call failed").WithChunk(index)}
		return
	}

	stmt, err := NormalizeResponse(raw, p.log)
	if err != nil {
		var pe *Error
		if pkgerrors.As(err, &pe) {
			pe.Chunk = index
		}
		resultCh <- chunkResult{index: index, err: err}
		return
	}
	resultCh <- chunkResult{index: index, stmt: stmt}
}

// fail emits a terminal error event and returns err.
func (p *Pipeline) fail(onProgress ProgressFunc, err error) error {
	p.log.Error().Err(err).Msg("Statement parse failed")
	emit(onProgress, ProgressEvent{
		Type:     ProgressError,
		Message:  err.Error(),
		Progress: 0,
		Error:    err.Error(),
	})
	return err
}

func terminal(err error) bool {
	var pe *Error
	if pkgerrors.As(err, &pe) {
		return pe.Terminal()
	}
	return false
}
