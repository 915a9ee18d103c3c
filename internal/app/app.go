package app

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"tubequery/features/job"
	"tubequery/features/source"
	"tubequery/internal/adapter/youtube"
	"tubequery/internal/config"
	"tubequery/internal/retrieval"
	"tubequery/internal/synthesis"
	"tubequery/internal/transcript"
	"tubequery/internal/worker"
)

// VectorStore is everything the pipeline needs from the chunk store:
// ingestion writes, existence checks and similarity queries.
type VectorStore interface {
	worker.VectorStore
	retrieval.VectorStore
}

// Embedder covers single-text queries and batched ingestion.
type Embedder interface {
	retrieval.Embedder
	worker.Embedder
}

type App struct {
	Sources *source.Service
	Jobs    *job.Service
	Search  *retrieval.Service
	Answers *synthesis.Service
	Pool    *worker.Pool
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	embedder Embedder,
	generator synthesis.Generator,
	events worker.EventPublisher,
) (*App, error) {
	sourceRepo := source.NewPostgresRepo(db)
	jobRepo := job.NewPostgresRepo(db)

	// The pool, the job service and the ingestor reference each other in a
	// ring (pool runs the ingestor, the ingestor records failures through
	// the job service, retries go back into the pool), so the pool gets its
	// processor through a late-bound indirection.
	var ingestor *worker.Ingestor
	pool := worker.NewPool(worker.ProcessorFunc(func(ctx context.Context, task worker.IngestSourceTask) error {
		return ingestor.ProcessSource(ctx, task)
	}), worker.PoolConfig{
		Workers:       cfg.IngestWorkers,
		QueueSize:     cfg.TaskQueueSize,
		TaskTimeout:   time.Duration(cfg.TaskTimeoutSec) * time.Second,
		ShutdownGrace: time.Duration(cfg.ShutdownGraceSeconds) * time.Second,
	})

	jobService := job.NewService(jobRepo, pool)
	sourceService := source.NewService(sourceRepo, pool)

	fetcher := youtube.NewClient(cfg.CaptionLanguages())
	coordinator := transcript.NewCoordinator(fetcher, cfg.FetchWorkers,
		time.Duration(cfg.FetchTimeoutSec)*time.Second)

	ingestor = worker.NewIngestor(coordinator, embedder, vecStore, sourceRepo, events, jobService, worker.IngestorConfig{
		ChunkSize:        cfg.ChunkSize,
		SuccessThreshold: cfg.SuccessThreshold,
	})

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	ranker := retrieval.NewRanker(cfg.OverlapThreshold, cfg.MinRankResults)
	searchService := retrieval.NewService(embedder, vecStore, ranker, cfg.TopKResults, queryLogger)
	answerService := synthesis.NewService(generator)

	return &App{
		Sources: sourceService,
		Jobs:    jobService,
		Search:  searchService,
		Answers: answerService,
		Pool:    pool,
	}, nil
}

// Run starts the ingestion pool and blocks until the context is cancelled,
// then drains in-flight work.
func (a *App) Run(ctx context.Context) error {
	a.Pool.Start()
	<-ctx.Done()
	slog.Info("shutting down ingestion pool...")
	a.Pool.Stop()
	return nil
}
