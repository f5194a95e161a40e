// Package app assembles the assistant from configuration. Both binaries build
// through it so the API server and the CLI run the same pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/WessleyAI/wessley-sales/engine/assistant"
	"github.com/WessleyAI/wessley-sales/engine/catalog"
	"github.com/WessleyAI/wessley-sales/engine/conversation"
	"github.com/WessleyAI/wessley-sales/engine/finance"
	"github.com/WessleyAI/wessley-sales/engine/intent"
	"github.com/WessleyAI/wessley-sales/engine/semantic"
	"github.com/WessleyAI/wessley-sales/pkg/config"
	"github.com/WessleyAI/wessley-sales/pkg/fn"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
	"github.com/WessleyAI/wessley-sales/pkg/metrics"
	"github.com/WessleyAI/wessley-sales/pkg/ollama"
	"github.com/WessleyAI/wessley-sales/pkg/openai"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
)

// App holds the wired components. Close releases every connection.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	LLM          *llm.Guard
	Catalog      *catalog.Store
	Search       *semantic.Engine
	Calculator   *finance.Calculator
	Conversation *conversation.Manager
	Orchestrator *assistant.Orchestrator
	Metrics      *metrics.Registry
	NATS         *nats.Conn

	closers []func() error
}

// NewLLM builds the guarded provider selected by cfg.LLM.Provider.
func NewLLM(cfg config.LLMConfig, logger *slog.Logger) (*llm.Guard, error) {
	var (
		e llm.Embedder
		c llm.Completer
	)
	switch cfg.Provider {
	case "ollama":
		e = ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
		c = ollama.NewChatClient(cfg.OllamaURL, cfg.ChatModel)
	case "openai":
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		client := openai.New(cfg.OpenAIKey, cfg.ChatModel, cfg.EmbedModel, opts...)
		e, c = client, client
	default:
		return nil, fmt.Errorf("app: unknown llm provider %q", cfg.Provider)
	}
	opts := llm.DefaultGuardOpts
	opts.Timeout = cfg.Timeout
	opts.RPS = cfg.RPS
	opts.Burst = cfg.Burst
	return llm.NewGuard(e, c, opts, logger), nil
}

// OpenNeo4j connects and verifies a Neo4j driver.
func OpenNeo4j(ctx context.Context, cfg config.CatalogConfig) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return nil, fmt.Errorf("app: neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("app: neo4j connectivity: %w", err)
	}
	return driver, nil
}

// OpenSource returns the configured catalog source and its closer.
func OpenSource(ctx context.Context, cfg config.CatalogConfig) (catalog.Source, func() error, error) {
	switch cfg.Source {
	case "csv":
		return catalog.NewCSVSource(cfg.Path), func() error { return nil }, nil
	case "neo4j":
		driver, err := OpenNeo4j(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		src := &catalog.Neo4jSource{Repo: catalog.NewVehicleRepo(driver)}
		return src, func() error { return driver.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("app: unknown catalog source %q", cfg.Source)
	}
}

// OpenStateStore returns the configured conversation store and its closer.
func OpenStateStore(ctx context.Context, cfg config.StateConfig) (conversation.Store, func() error, error) {
	switch cfg.Store {
	case "memory":
		return conversation.NewMemoryStore(), func() error { return nil }, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("app: sqlite dir: %w", err)
			}
		}
		st, err := conversation.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("app: %w", err)
		}
		return st, st.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("app: redis ping %s: %w", cfg.RedisAddr, err)
		}
		return conversation.NewRedisStore(client, cfg.RedisTTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("app: unknown state store %q", cfg.Store)
	}
}

// Options overrides parts of the wiring, mainly for tests and the CLI.
type Options struct {
	// LLM replaces the configured provider.
	LLM interface {
		llm.Embedder
		llm.Completer
	}
	// Source replaces the configured catalog source.
	Source catalog.Source
	// SkipNATS leaves the event sink disabled even when NATS_URL is set.
	SkipNATS bool
}

// New loads the catalog and wires the orchestrator. A failure to load any
// vehicle is fatal.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, o Options) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var (
		embedder  llm.Embedder
		completer llm.Completer
	)
	if o.LLM != nil {
		embedder, completer = o.LLM, o.LLM
	} else {
		g, err := NewLLM(cfg.LLM, logger)
		if err != nil {
			return nil, err
		}
		a.LLM = g
		embedder, completer = g, g
	}

	src := o.Source
	if src == nil {
		s, closer, err := OpenSource(ctx, cfg.Catalog)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closer)
		src = s
	}
	a.Catalog, err = catalog.Load(ctx, src, embedder, catalog.LoadOptions{Workers: cfg.Catalog.Workers}, logger)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var index semantic.Index
	if cfg.Search.Index == "qdrant" {
		q, err := semantic.NewQdrantIndex(cfg.Search.QdrantURL, cfg.Search.QdrantCollection, a.Catalog)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, q.Close)
		n, err := q.Sync(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		logger.Info("qdrant index synced", "collection", cfg.Search.QdrantCollection, "points", n)
		index = q
	}
	a.Search = semantic.New(a.Catalog, embedder, index)

	store, closer, err := OpenStateStore(ctx, cfg.State)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closer)
	a.Conversation = conversation.NewManager(store)

	var sink assistant.EventSink
	if cfg.NATSURL != "" && !o.SkipNATS {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("wessley-sales"))
		if err != nil {
			return nil, fmt.Errorf("app: nats connect: %w", err)
		}
		a.NATS = nc
		a.closers = append(a.closers, func() error { return nc.Drain() })
		sink = assistant.NewNATSSink(nc, assistant.DefaultEventSubject)
	}

	a.Calculator = finance.New(finance.WithAnnualRate(cfg.Assistant.AnnualRate))
	retry := assistant.DefaultClassifyRetry
	retry.MaxAttempts = cfg.Assistant.ClassifyAttempts
	a.Orchestrator = assistant.New(a.Conversation, intent.New(completer, logger), completer, a.Search, a.Calculator, assistant.Options{
		TopK:          cfg.Search.TopK,
		HistoryTurns:  cfg.Assistant.HistoryTurns,
		ClassifyRetry: retry,
		Events:        sink,
		Metrics:       a.Metrics,
		Logger:        logger,
	})

	logger.Info("assistant ready",
		"vehicles", a.Catalog.Len(),
		"dims", a.Catalog.Dims(),
		"index", cfg.Search.Index,
		"state", cfg.State.Store,
		"llm", cfg.LLM.Provider)
	return a, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	results := make([]fn.Result[struct{}], 0, len(a.closers))
	for i := len(a.closers) - 1; i >= 0; i-- {
		results = append(results, fn.FromPair(struct{}{}, a.closers[i]()))
	}
	a.closers = nil
	_, errs, _ := fn.Partition(results)
	return errors.Join(errs...)
}
