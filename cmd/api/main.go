package main

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hellboyz13/bankstatement/internal/api/handlers"
	"github.com/hellboyz13/bankstatement/internal/api/middleware"
	"github.com/hellboyz13/bankstatement/internal/categorize"
	"github.com/hellboyz13/bankstatement/internal/config"
	"github.com/hellboyz13/bankstatement/internal/domain"
	"github.com/hellboyz13/bankstatement/internal/extractor"
	"github.com/hellboyz13/bankstatement/internal/fallback"
	"github.com/hellboyz13/bankstatement/internal/jobs"
	"github.com/hellboyz13/bankstatement/internal/jobs/inmemory"
	"github.com/hellboyz13/bankstatement/internal/logger"
	"github.com/hellboyz13/bankstatement/internal/pipeline"
	"github.com/hellboyz13/bankstatement/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional; STMT_* env vars always apply)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := context.Background()

	engine := categorize.NewEngine(categorize.DefaultRules())
	parse := buildParseFunc(cfg, engine, log)

	// Storage is optional; without a bucket the async document flow is
	// disabled and only synchronous parsing is served.
	var gcs *store.GCS
	if cfg.GCSBucket != "" {
		gcs, err = store.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS client")
		}
		defer gcs.Close()
	} else {
		log.Warn().Msg("No GCS bucket configured - document uploads will be disabled")
	}

	var bq *store.BigQuery
	if cfg.PersistenceEnabled() {
		bq, err = store.NewBigQuery(ctx, cfg.BQProject, cfg.BQDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery client")
		}
		defer bq.Close()
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobBuffer, cfg.JobWorkers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.ParseStatementJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("document_id", job.DocumentID).
			Str("gcs_uri", job.GCSURI).
			Msg("Processing parse job")

		data, err := gcs.Fetch(ctx, job.GCSURI)
		if err != nil {
			return err
		}
		pages, err := extractor.ExtractReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return err
		}
		stmt, err := parse(ctx, pages, nil)
		if err != nil {
			return err
		}
		job.Result = stmt

		if bq != nil {
			if err := bq.InsertStatement(ctx, job.DocumentID, stmt); err != nil {
				return err
			}
		}

		log.Info().
			Str("job_id", job.JobID).
			Int("transactions", len(stmt.Transactions)).
			Msg("Parse job completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job workers stopped with error")
		}
	}()

	statementsHandler := handlers.NewStatementsHandler(parse, log)
	documentsHandler := handlers.NewDocumentsHandler(gcs, bq, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		statementsHandler.Parse(w, r)
	})

	mux.HandleFunc("/api/statements/parse/stream", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		statementsHandler.ParseStream(w, r)
	})

	mux.HandleFunc("/api/documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if gcs == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Document storage is not configured")
			return
		}
		documentsHandler.Upload(w, r)
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobsHandler.List(w, r)
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.Get(w, r, jobID)
	})

	mux.HandleFunc("/health", handlers.Health)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: handler,
		// Write timeout must cover a full parse job for the SSE endpoint.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.JobTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

// buildParseFunc picks the extraction pipeline when a Gemini key is
// configured, the deterministic fallback otherwise.
func buildParseFunc(cfg config.Config, engine *categorize.Engine, log zerolog.Logger) handlers.ParseFunc {
	if cfg.GeminiEnabled && cfg.GeminiAPIKey != "" {
		pl, err := pipeline.New(
			pipeline.NewGeminiExtractor(cfg.GeminiModel, cfg.GeminiAPIKey),
			engine,
			pipeline.Config{
				ChunkSize:     cfg.ChunkSize,
				ChunkTimeout:  cfg.ChunkTimeout,
				JobTimeout:    cfg.JobTimeout,
				Policy:        pipeline.DispatchPolicy(cfg.Policy),
				MaxConcurrent: cfg.MaxConcurrent,
			},
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build extraction pipeline")
		}
		return pl.Run
	}

	log.Warn().Msg("Gemini extraction disabled - using deterministic statement parser")
	opts := fallback.Options{DefaultCurrency: cfg.DefaultCurrency, Categorizer: engine}
	return func(ctx context.Context, pages []string, onProgress pipeline.ProgressFunc) (*domain.ParsedStatement, error) {
		notify := func(ev pipeline.ProgressEvent) {
			if onProgress != nil {
				onProgress(ev)
			}
		}
		notify(pipeline.ProgressEvent{Type: pipeline.ProgressStatus, Message: "Reading statement text...", Progress: 0})
		stmt, err := fallback.ParseStatement(pages, opts)
		if err != nil {
			notify(pipeline.ProgressEvent{Type: pipeline.ProgressError, Message: err.Error(), Error: err.Error()})
			return nil, err
		}
		notify(pipeline.ProgressEvent{Type: pipeline.ProgressComplete, Message: "Parsing complete!", Progress: 100, Statement: stmt})
		return stmt, nil
	}
}
