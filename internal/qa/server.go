// Package qa wires the question answering service together.
package qa

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/edunav/internal/qa/biz"
	"github.com/kart-io/edunav/internal/qa/handler"
	"github.com/kart-io/edunav/internal/qa/router"
	"github.com/kart-io/edunav/internal/qa/store"
	milvuscomponent "github.com/kart-io/edunav/pkg/component/milvus"
	"github.com/kart-io/edunav/pkg/llm"
	cacheopts "github.com/kart-io/edunav/pkg/options/cache"
	llmopts "github.com/kart-io/edunav/pkg/options/llm"
	milvusopts "github.com/kart-io/edunav/pkg/options/milvus"
	qaopts "github.com/kart-io/edunav/pkg/options/qa"
	httpopts "github.com/kart-io/edunav/pkg/options/server/http"

	// 注册 LLM 供应商
	_ "github.com/kart-io/edunav/pkg/llm/ollama"
	_ "github.com/kart-io/edunav/pkg/llm/openai"
)

// Config 汇总服务所需的全部配置。
type Config struct {
	QA        *qaopts.Options
	Milvus    *milvusopts.Options
	Embedding *llmopts.ProviderOptions
	Chat      *llmopts.ProviderOptions
	Cache     *cacheopts.Options
	HTTP      *httpopts.Options
}

// Server 问答服务实例。
type Server struct {
	config       *Config
	httpServer   *http.Server
	milvusClient *milvuscomponent.Client
	redisClient  *goredis.Client
}

// NewServer 根据配置组装问答服务。
func NewServer(cfg *Config) (*Server, error) {
	s := &Server{config: cfg}

	// 1. Embedding 供应商（可选 Redis 缓存包装）
	embedProvider, err := llm.NewEmbeddingProvider(cfg.Embedding.Provider, cfg.Embedding.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	if cfg.Cache != nil && cfg.Cache.Enabled {
		s.redisClient = goredis.NewClient(&goredis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			Password:     cfg.Cache.Redis.Password,
			DB:           cfg.Cache.Redis.Database,
			MaxRetries:   cfg.Cache.Redis.MaxRetries,
			PoolSize:     cfg.Cache.Redis.PoolSize,
			MinIdleConns: cfg.Cache.Redis.MinIdleConns,
			DialTimeout:  cfg.Cache.Redis.DialTimeout,
			ReadTimeout:  cfg.Cache.Redis.ReadTimeout,
			WriteTimeout: cfg.Cache.Redis.WriteTimeout,
		})
		embedProvider = llm.NewCachedEmbeddingProvider(embedProvider, s.redisClient, &llm.EmbeddingCacheConfig{
			Enabled:   true,
			TTL:       cfg.Cache.TTL,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		logger.Infow("embedding cache enabled", "ttl", cfg.Cache.TTL.String())
	}

	// 2. Chat 供应商
	chatProvider, err := llm.NewChatProvider(cfg.Chat.Provider, cfg.Chat.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create chat provider: %w", err)
	}

	// 3. 向量索引后端
	var opener store.IndexOpener
	switch cfg.QA.Backend {
	case qaopts.BackendMilvus:
		client, err := milvuscomponent.New(cfg.Milvus)
		if err != nil {
			return nil, fmt.Errorf("failed to create milvus client: %w", err)
		}
		s.milvusClient = client
		opener = store.NewMilvusOpener(client)
	case qaopts.BackendSnapshot:
		opener = store.NewSnapshotOpener(cfg.QA.AllowUntrustedSnapshots)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.QA.Backend)
	}

	// 4. 检索器池，加载失败的来源只降级不报错
	pool := biz.NewRetrieverPool(opener, cfg.QA.Sources, cfg.QA.Location)
	loadCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	pool.Load(loadCtx)

	// 5. 组装器和生成器
	assembler := biz.NewContextAssembler(pool, embedProvider, &biz.AssemblerConfig{
		TopK:         cfg.QA.TopK,
		PassageLimit: cfg.QA.PassageLimit,
		Concurrency:  len(cfg.QA.Sources),
	})

	generator, err := biz.NewGenerator(chatProvider, &biz.GeneratorConfig{
		PromptTemplate: cfg.QA.PromptTemplate,
	})
	if err != nil {
		return nil, err
	}

	// 6. 服务与 HTTP 路由
	service := biz.NewQAService(pool, assembler, generator, embedProvider, chatProvider)
	engine := router.New(handler.NewQAHandler(service))

	s.httpServer = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return s, nil
}

// Run 启动 HTTP 服务并阻塞到收到退出信号。
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		logger.Infow("shutdown signal received", "signal", sig.String())
	}

	return s.shutdown()
}

// shutdown 优雅关闭 HTTP 服务及外部连接。
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorw("http server shutdown failed", "error", err.Error())
		return err
	}

	if s.milvusClient != nil {
		if err := s.milvusClient.Close(ctx); err != nil {
			logger.Warnw("failed to close milvus client", "error", err.Error())
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			logger.Warnw("failed to close redis client", "error", err.Error())
		}
	}

	logger.Info("server stopped")
	return nil
}
