package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"opslens/features/query"
	"opslens/features/run"
	"opslens/features/stats"
	"opslens/internal/adapter/gemini"
	wstore "opslens/internal/adapter/weaviate"
	"opslens/internal/agent"
	"opslens/internal/config"
	"opslens/internal/generator"
	"opslens/internal/ingest"
	"opslens/internal/logger"
	"opslens/internal/middleware"
	"opslens/internal/retrieval"
	"opslens/internal/vector"
	"opslens/internal/worker"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/generative-ai-go/genai"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/api/option"
)

func main() {
	// Structured logger with correlation IDs pulled from request context
	handler := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slog.New(handler))

	if err := runApp(); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func runApp() error {
	ctx := context.Background()

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	// 2. Database Connection
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open db connection: %w", err)
	}
	defer db.Close()

	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1, "max_attempts", cfg.BootstrapRetryAttempts)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping db after retries: %w", err)
	}

	// 3. Run Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations applied successfully")

	// 4. Weaviate Connection & Collections
	wClient, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	})
	if err != nil {
		return fmt.Errorf("create weaviate client: %w", err)
	}

	vecStore := wstore.NewStore(wClient,
		vector.LogCollection(cfg.CollectionLogs),
		vector.TicketCollection(cfg.CollectionTickets),
	)

	ensureCollections := func() error {
		if err := vecStore.EnsureCollection(ctx, cfg.CollectionLogs, cfg.VectorSize); err != nil {
			return err
		}
		return vecStore.EnsureCollection(ctx, cfg.CollectionTickets, cfg.VectorSize)
	}
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := ensureCollections(); err == nil {
			slog.Info("weaviate collections ensured")
			break
		} else {
			slog.Warn("failed to ensure weaviate collections, retrying...", "attempt", i+1, "error", err)
		}
		time.Sleep(retryDelay)
	}
	if err := ensureCollections(); err != nil {
		return fmt.Errorf("ensure weaviate collections after retries: %w", err)
	}

	// 5. Gemini Adapters
	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return fmt.Errorf("create genai client: %w", err)
	}
	defer genaiClient.Close()

	embedder := gemini.NewEmbedder(genaiClient, cfg.EmbeddingModel)
	completer := gemini.NewCompleter(genaiClient, cfg.AgentModel)
	planner := gemini.NewPlanner(genaiClient, cfg.AgentModel)

	// 6. NSQ Producer
	nsqCfg := nsq.NewConfig()
	nsqProducer, err := nsq.NewProducer(cfg.NSQDHost, nsqCfg)
	if err != nil {
		return fmt.Errorf("create NSQ producer: %w", err)
	}

	// NSQ creates topics lazily on publish, but consumers querying lookupd
	// get 404 until the topic exists. Pre-create it via the nsqd http api.
	go preCreateTopics(cfg.NSQDHost, config.TopicIngestTask)

	// 7. Ingestion Pipeline
	tracker := ingest.NewFileTracker(cfg.TrackerFile)
	loader := ingest.NewLoader(embedder, vecStore, tracker,
		cfg.BatchSize, time.Duration(cfg.BatchPauseSeconds)*time.Second, cfg.VectorSize)
	gen := generator.New(cfg.LogDir, cfg.TicketDir)

	// Feature: Run
	runRepo := run.NewPostgresRepo(db)
	runService := run.NewService(runRepo, nsqProducer, gen)
	runHandler := run.NewHandler(runService, cfg.CollectionLogs, cfg.CollectionTickets)

	// Worker: ingest task consumer
	ingestConsumer := worker.NewIngestConsumer(loader, runService, cfg.LogDir, cfg.TicketDir)
	consumer, err := nsq.NewConsumer(config.TopicIngestTask, "backend", nsq.NewConfig())
	if err != nil {
		slog.Error("failed to create NSQ consumer", "error", err)
	} else {
		consumer.AddHandler(nsq.HandlerFunc(func(msg *nsq.Message) error {
			return ingestConsumer.HandleMessage(msg)
		}))
		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			slog.Error("failed to connect to NSQLookupd", "error", err)
		} else {
			slog.Info("NSQ ingest consumer connected")
		}
	}

	// 8. Agent
	logRetriever := retrieval.NewThresholdRetriever(embedder, vecStore, cfg.CollectionLogs, cfg.DefaultK, cfg.ScoreThreshold)
	ticketRetriever := retrieval.NewThresholdRetriever(embedder, vecStore, cfg.CollectionTickets, cfg.DefaultK, cfg.ScoreThreshold)
	summarizer := agent.NewSummarizer(completer)

	trace, err := agent.NewFileTraceRecorder(cfg.TraceLogPath)
	if err != nil {
		slog.Warn("failed to create trace log, falling back to stdout", "error", err)
		trace = agent.NewTraceRecorder(os.Stdout)
	}

	orchestrator := agent.NewOrchestrator(planner, logRetriever, ticketRetriever, summarizer, cfg.MaxAgentSteps, trace)
	queryHandler := query.NewHandler(orchestrator)

	// Feature: Stats
	statsHandler := stats.NewHandler(runRepo, vecStore, cfg.CollectionLogs, cfg.CollectionTickets)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	http.Handle("POST /generate-logs", middleware.CorrelationID(enableCORS(runHandler.GenerateLogs)))
	http.Handle("POST /generate-tickets", middleware.CorrelationID(enableCORS(runHandler.GenerateTickets)))
	http.Handle("POST /ingest-logs", middleware.CorrelationID(enableCORS(runHandler.IngestLogs)))
	http.Handle("POST /ingest-tickets", middleware.CorrelationID(enableCORS(runHandler.IngestTickets)))
	http.Handle("GET /runs", middleware.CorrelationID(enableCORS(runHandler.List)))

	http.Handle("POST /query", middleware.CorrelationID(enableCORS(queryHandler.Query)))
	http.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// 9. Start Server
	slog.Info("server starting", "port", cfg.ServerPort)
	return http.ListenAndServe(fmt.Sprintf(":%d", cfg.ServerPort), nil)
}

func preCreateTopics(nsqdHost string, topics ...string) {
	host, _, err := net.SplitHostPort(nsqdHost)
	if err != nil {
		host = nsqdHost
	}

	// Wait for nsqd to be ready
	time.Sleep(2 * time.Second)
	for _, topic := range topics {
		url := fmt.Sprintf("http://%s:4151/topic/create?topic=%s", host, topic)
		resp, err := http.Post(url, "application/json", nil)
		if err != nil {
			slog.Warn("failed to pre-create topic", "topic", topic, "error", err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			slog.Info("topic pre-created", "topic", topic)
		}
	}
}
