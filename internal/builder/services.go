package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/chunker"
	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/extractor"
	"github.com/futig/joke-flows/internal/integration/joke"
	"github.com/futig/joke-flows/internal/integration/llm"
	"github.com/futig/joke-flows/internal/pkg/metrics"
	"github.com/futig/joke-flows/internal/pkg/validator"
	"github.com/futig/joke-flows/internal/prompt"
	"github.com/futig/joke-flows/internal/repository"
	"github.com/futig/joke-flows/internal/usecase/flow"
	"github.com/futig/joke-flows/internal/usecase/rag"
)

// Services is the dependency graph shared by the server, the bot and the CLI
type Services struct {
	Flows     *flow.Registry
	Ingester  *rag.Ingester
	Metrics   *metrics.Metrics
	Validator *validator.Validator

	closers []func()
}

// Close releases the store connections
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildServices wires stores, connectors and use cases from cfg
func buildServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	s := &Services{
		Metrics:   metrics.New(),
		Validator: validator.New(),
	}

	store, err := setupVectorStore(ctx, cfg, logger, s)
	if err != nil {
		return nil, err
	}

	// Initialize external service connectors (with mock support)
	var model flow.Model
	var baseEmbedder rag.Embedder
	var jokes *joke.Tool

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		model = llm.NewMockConnector()
		baseEmbedder = llm.NewMockEmbedder()
		jokes = joke.NewTool(joke.NewMockConnector())
	} else {
		logger.Info("Using real connectors for external services",
			zap.String("model", cfg.OpenAICfg.Model),
			zap.String("embedding_model", cfg.OpenAICfg.EmbeddingModel),
		)
		model = llm.NewConnector(cfg.OpenAICfg)
		baseEmbedder = llm.NewEmbedder(cfg.OpenAICfg)
		jokes = joke.NewTool(joke.NewConnector(cfg.JokeCfg))
	}
	emb := llm.NewCachedEmbedder(baseEmbedder, cfg.EmbedCacheCfg.TTL, cfg.EmbedCacheCfg.CleanupInterval)

	chunks, err := chunker.New(chunker.Config{
		MinLength:  cfg.ChunkCfg.MinLength,
		MaxLength:  cfg.ChunkCfg.MaxLength,
		Overlap:    cfg.ChunkCfg.Overlap,
		Splitter:   cfg.ChunkCfg.Splitter,
		Delimiters: cfg.ChunkCfg.Delimiters,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("configure chunker: %w", err)
	}

	// Initialize use cases
	indexer := rag.NewIndexer(store, emb, s.Metrics)
	retriever := rag.NewRetriever(store, emb)
	s.Ingester = rag.NewIngester(extractor.NewFactory(), chunks, indexer, s.Validator, cfg.IndexName, cfg.IngestRoot)

	s.Flows, err = flow.Build(flow.DefaultDefinitions(cfg.IndexName, cfg.OpenAICfg.Temperature), flow.Deps{
		Model:         model,
		Tools:         []flow.Tool{jokes},
		Retriever:     retriever,
		Prompts:       prompt.NewLoader(cfg.PromptDir),
		Validator:     s.Validator,
		Metrics:       s.Metrics,
		MaxToolRounds: cfg.MaxToolRounds,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("build flows: %w", err)
	}

	logger.Info("Flows registered", zap.Int("count", len(s.Flows.List())))
	return s, nil
}

func setupVectorStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, s *Services) (repository.VectorStore, error) {
	switch cfg.VectorStore {
	case config.VectorStorePostgres:
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		return repository.NewVectorPostgres(db), nil
	default:
		store, err := repository.NewLocalStore(cfg.LocalStoreDir)
		if err != nil {
			return nil, fmt.Errorf("setup local store: %w", err)
		}
		logger.Info("Using local vector store", zap.String("dir", cfg.LocalStoreDir))
		return store, nil
	}
}
