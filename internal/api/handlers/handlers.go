package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hellboyz13/bankstatement/internal/api/middleware"
	"github.com/hellboyz13/bankstatement/internal/domain"
	"github.com/hellboyz13/bankstatement/internal/extractor"
	"github.com/hellboyz13/bankstatement/internal/jobs"
	"github.com/hellboyz13/bankstatement/internal/pipeline"
	"github.com/hellboyz13/bankstatement/internal/store"
)

// MaxUploadSize bounds statement uploads.
const MaxUploadSize = 10 << 20 // 10 MB

// ParseFunc runs one statement parse over extracted page text. The command
// wiring decides whether this is the extraction pipeline or the
// deterministic fallback.
type ParseFunc func(ctx context.Context, pages []string, onProgress pipeline.ProgressFunc) (*domain.ParsedStatement, error)

// StatementsHandler serves synchronous parsing: upload a PDF, get the
// parsed statement back, optionally as a progress event stream.
type StatementsHandler struct {
	parse ParseFunc
	log   zerolog.Logger
}

func NewStatementsHandler(parse ParseFunc, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{parse: parse, log: log}
}

// Parse handles POST /api/statements/parse.
func (h *StatementsHandler) Parse(w http.ResponseWriter, r *http.Request) {
	pages, ok := h.extractUpload(w, r)
	if !ok {
		return
	}

	stmt, err := h.parse(r.Context(), pages, nil)
	if err != nil {
		status, msg := errorResponse(err)
		h.log.Error().Err(err).Msg("Statement parse failed")
		middleware.WriteError(w, status, msg)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, stmt)
}

// ParseStream handles POST /api/statements/parse/stream. Progress is
// delivered as Server-Sent Events, one JSON event per message, ending with
// a complete or error event.
func (h *StatementsHandler) ParseStream(w http.ResponseWriter, r *http.Request) {
	pages, ok := h.extractUpload(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// The pipeline emits progress from its own goroutines; events are
	// funneled through a channel so only this goroutine touches the
	// response writer.
	events := make(chan pipeline.ProgressEvent, 16)
	go func() {
		defer close(events)
		_, err := h.parse(r.Context(), pages, func(ev pipeline.ProgressEvent) {
			select {
			case events <- ev:
			case <-r.Context().Done():
			}
		})
		if err != nil {
			h.log.Error().Err(err).Msg("Streamed statement parse failed")
		}
	}()

	for ev := range events {
		if err := writeSSE(w, ev); err != nil {
			return
		}
		flusher.Flush()
	}
}

// extractUpload validates the uploaded PDF and extracts its page text.
// On failure it writes the error response and returns ok=false.
func (h *StatementsHandler) extractUpload(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	data, filename, err := readUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	pages, err := extractor.ExtractReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		h.log.Warn().Err(err).Str("filename", filename).Msg("PDF text extraction failed")
		middleware.WriteError(w, http.StatusUnprocessableEntity,
			"Could not extract readable text from the PDF; the document may be scanned")
		return nil, false
	}
	return pages, true
}

// readUpload accepts either a multipart form with a "file" field or a raw
// PDF body, enforcing the size cap and PDF magic bytes.
func readUpload(r *http.Request) (data []byte, filename string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadSize)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("file exceeds %d MB limit", MaxUploadSize>>20)
		}
		filename = header.Filename
	} else {
		data, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("file exceeds %d MB limit", MaxUploadSize>>20)
		}
		filename = "statement.pdf"
	}

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, "", fmt.Errorf("only PDF uploads are supported")
	}
	return data, filename, nil
}

func writeSSE(w io.Writer, ev pipeline.ProgressEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// errorResponse maps a pipeline error to an HTTP status and message.
func errorResponse(err error) (int, string) {
	switch pipeline.KindOf(err) {
	case pipeline.KindValidation:
		return http.StatusBadRequest, err.Error()
	case pipeline.KindNoTransactionsFound:
		return http.StatusUnprocessableEntity, err.Error()
	case pipeline.KindJobTimeout:
		return http.StatusGatewayTimeout, err.Error()
	case pipeline.KindConfiguration:
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusBadGateway, err.Error()
	}
}

// DocumentsHandler serves asynchronous ingestion: the PDF is uploaded to
// Cloud Storage, recorded in BigQuery, and queued for background parsing.
type DocumentsHandler struct {
	gcs       *store.GCS
	bq        *store.BigQuery
	publisher jobs.Publisher
	log       zerolog.Logger
}

func NewDocumentsHandler(gcs *store.GCS, bq *store.BigQuery, publisher jobs.Publisher, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{gcs: gcs, bq: bq, publisher: publisher, log: log}
}

// Upload handles POST /api/documents.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, filename, err := readUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	documentID := uuid.NewString()
	objectName := fmt.Sprintf("uploads/%s/%s-%s", time.Now().Format("2006/01/02"), documentID, filename)

	gcsURI, err := h.gcs.Upload(ctx, objectName, bytes.NewReader(data))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to upload to GCS")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store document")
		return
	}

	if h.bq != nil {
		row := store.NewDocumentRow(documentID, gcsURI, filename, "application/pdf")
		if err := h.bq.InsertDocument(ctx, row); err != nil {
			h.log.Error().Err(err).Msg("Failed to record document")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to record document")
			return
		}
	}

	job := &jobs.ParseStatementJob{
		DocumentID: documentID,
		GCSURI:     gcsURI,
		Filename:   filename,
	}
	if err := h.publisher.Publish(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue parse job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue parse job")
		return
	}

	h.log.Info().
		Str("document_id", documentID).
		Str("job_id", job.JobID).
		Str("gcs_uri", gcsURI).
		Int("bytes", len(data)).
		Msg("Document uploaded and queued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"document_id": documentID,
		"job_id":      job.JobID,
		"gcs_uri":     gcsURI,
	})
}

// JobsHandler exposes job status for polling clients.
type JobsHandler struct {
	store jobs.Store
	log   zerolog.Logger
}

func NewJobsHandler(store jobs.Store, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// Get handles GET /api/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// List handles GET /api/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := jobs.Filter{
		DocumentID: r.URL.Query().Get("document_id"),
		Status:     jobs.Status(r.URL.Query().Get("status")),
	}
	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
