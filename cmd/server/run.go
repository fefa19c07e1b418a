package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jarvis-ai/jarvis/engine/brief"
	"github.com/jarvis-ai/jarvis/engine/domain"
	"github.com/jarvis-ai/jarvis/engine/embed"
	"github.com/jarvis-ai/jarvis/engine/enrich"
	"github.com/jarvis-ai/jarvis/engine/ingest"
	"github.com/jarvis-ai/jarvis/engine/llm"
	"github.com/jarvis-ai/jarvis/engine/scheduler"
	"github.com/jarvis-ai/jarvis/engine/search"
	"github.com/jarvis-ai/jarvis/engine/vector"
	"github.com/jarvis-ai/jarvis/pkg/mid"
	"github.com/jarvis-ai/jarvis/store/pg"
)

// denseDim is the dense vector size both collections are created with; it is
// domain.DenseDim, the size ingest validates every point against.
const denseDim = domain.DenseDim

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer pool.Close()

	vecStore, err := vector.New(cfg.QdrantURL)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vecStore.Close()
	if err := vecStore.EnsureCollection(ctx, cfg.CaptureColl, denseDim); err != nil {
		return fmt.Errorf("ensure collection %s: %w", cfg.CaptureColl, err)
	}
	if err := vecStore.EnsureCollection(ctx, cfg.MemoryColl, denseDim); err != nil {
		return fmt.Errorf("ensure collection %s: %w", cfg.MemoryColl, err)
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	captures := pg.NewCaptureStore(pool)
	conversations := pg.NewConversationStore(pool)
	patterns := pg.NewPatternStore(pool)
	entities := pg.NewEntityClassificationStore(pool)
	captureReader := pg.NewCaptureSummaryReader(captures)

	embedClient := embed.NewOllamaClient(cfg.OllamaURL, cfg.EmbedModel)
	embedder := embed.New(embedClient)
	llmClient := llm.NewHTTPClient(cfg.OllamaURL, cfg.ChatModel)

	searchEngine := search.New(vecStore, embedder, cfg.MemoryColl)

	briefSvc := brief.New(nil, nil, patterns, captureReader, nil, searchEngine, llmClient, brief.DefaultOptions(), logger)

	captureDeps := ingest.Deps{
		Embedder: embedder,
		Store:    vecStore,
		Logger:   logger,
	}
	if _, err := ingest.StartConsumer(nc, captureDeps, ingest.CaptureSubject, cfg.CaptureColl); err != nil {
		return fmt.Errorf("start capture consumer: %w", err)
	}

	conversationDeps := ingest.Deps{
		Embedder: embedder,
		Store:    vecStore,
		DeduplicateF: conversations.ExistsByExternalID,
		Logger: logger,
	}
	if _, err := ingest.StartConsumer(nc, conversationDeps, ingest.ConversationSubject, cfg.MemoryColl); err != nil {
		return fmt.Errorf("start conversation consumer: %w", err)
	}

	sched := scheduler.New(nc, logger)
	defer sched.Stop()
	if err := registerJobs(sched, patterns, entities, vecStore, cfg, logger); err != nil {
		return fmt.Errorf("register scheduler jobs: %w", err)
	}
	go sched.RunCron(ctx, defaultCronSchedules(), time.Minute)

	mux := buildMux(briefSvc, searchEngine, patterns, captures, conversations, logger)
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func buildMux(briefSvc *brief.Service, searchEngine *search.Engine, patterns *pg.PatternStore, captures *pg.CaptureStore, conversations *pg.ConversationStore, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/v1/search", handleSearch(searchEngine, logger))
	mux.HandleFunc("GET /api/v1/briefing/morning", handleMorningBriefing(briefSvc, logger))
	mux.HandleFunc("GET /api/v1/why", handleWhy(patterns, captures, conversations, logger))
	return mux
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleSearch(engine *search.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			http.Error(w, `{"error":"q is required"}`, http.StatusBadRequest)
			return
		}
		results, err := engine.Search(r.Context(), q, 10, search.Filter{})
		if err != nil {
			logger.Error("search failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

func handleMorningBriefing(svc *brief.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		briefing, err := svc.BuildMorningBriefing(r.Context(), now)
		if err != nil {
			logger.Error("morning briefing failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(briefing)
	}
}

func registerJobs(sched *scheduler.Scheduler, patterns *pg.PatternStore, entities *pg.EntityClassificationStore, vecStore *vector.Store, cfg Config, logger *slog.Logger) error {
	heuristicEntities := llm.HeuristicEntityClassifier{}

	if err := sched.Register(scheduler.JobPatternDetection, func(ctx context.Context, _ scheduler.Job) error {
		_, err := enrich.DetectAndReplace(ctx, patterns, "heuristic", func(ctx context.Context) ([]domain.DetectedPattern, error) {
			return enrich.DetectHeuristic(ctx, vecStore, cfg.MemoryColl, time.Now())
		})
		return err
	}, scheduler.DefaultWorkerConfig); err != nil {
		return err
	}

	if err := sched.Register(scheduler.JobReclassifyEntities, func(ctx context.Context, job scheduler.Job) error {
		names := strings.Split(job.Payload["entity_names"], ",")
		classified, err := heuristicEntities.ClassifyEntities(ctx, names)
		if err != nil {
			return err
		}
		now := time.Now()
		for name, entityType := range classified {
			if err := entities.Put(ctx, domain.EntityClassification{EntityName: name, EntityType: entityType, ClassifiedAt: now}); err != nil {
				logger.Error("reclassify: put failed", "entity", name, "err", err)
			}
		}
		return nil
	}, scheduler.DefaultWorkerConfig); err != nil {
		return err
	}

	return nil
}

func defaultCronSchedules() []scheduler.CronSchedule {
	return []scheduler.CronSchedule{
		{Kind: scheduler.JobProcessBacklog, Expr: "*/15 * * * *"},
		{Kind: scheduler.JobPatternDetection, Expr: "0 */6 * * *"},
	}
}
