package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/ai"
	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/db"
	"github.com/studyforge/studyforge/internal/embedcache"
	"github.com/studyforge/studyforge/internal/filestore"
	"github.com/studyforge/studyforge/internal/handler"
	"github.com/studyforge/studyforge/internal/job"
	"github.com/studyforge/studyforge/internal/middleware"
	"github.com/studyforge/studyforge/internal/repo"
	"github.com/studyforge/studyforge/internal/schedule"
	"github.com/studyforge/studyforge/internal/service"
	"github.com/studyforge/studyforge/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "studyforge",
		Short: "studyforge backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run studyforge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			var database *sql.DB
			if cfg.Database.Configured() {
				database, err = db.Open(cfg.Database)
				if err != nil {
					return fmt.Errorf("open db: %w", err)
				}
				if err := db.ApplyMigrations(database); err != nil {
					return fmt.Errorf("migrations: %w", err)
				}
			} else {
				logutil.GetLogger(context.Background()).Warn("no database configured, running with mock vector store and no persistence")
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("vector_store", cfg.VectorStore),
		zap.String("file_store", cfg.FileStore.Type),
		zap.Bool("database", database != nil),
	)

	manager, err := buildAIManager(cfg.AI)
	if err != nil {
		return fmt.Errorf("init ai manager: %w", err)
	}

	vectors, err := vectorstore.New(cfg.VectorStore, vectorstore.Deps{DB: database})
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	blobs, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	var fileRepo *repo.FileRepo
	var chatStore service.ChatStore
	var embeddingRepo *repo.EmbeddingRepo
	if database != nil {
		fileRepo = repo.NewFileRepo(database)
		chatStore = repo.NewChatRepo(database)
		embeddingRepo = repo.NewEmbeddingRepo(database)
	}

	retrievalService := service.NewRetrievalService(vectors, cfg.Core)
	ingestService := service.NewIngestService(manager, vectors, cfg.Core)
	fileService := service.NewFileService(fileRepo, vectors, blobs, ingestService, cfg.Core)
	chatService := service.NewChatService(manager, retrievalService, chatStore, cfg.Core)
	aiService := service.NewAIService(manager, blobs)

	deps := handler.RouterDeps{
		Files:          handler.NewFileHandler(fileService),
		AI:             handler.NewAIHandler(aiService, chatService, blobs),
		Vectors:        handler.NewVectorHandler(vectors, retrievalService, ingestService, manager),
		GenerateWindow: 2 * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var scheduler *schedule.CronScheduler
	if embeddingRepo != nil {
		scheduler = schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewOrphanCleanupJob(embeddingRepo), "30 3 * * *"); err != nil {
			return fmt.Errorf("schedule cleanup job: %w", err)
		}
		scheduler.Start(ctx)
	}

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	if scheduler != nil {
		scheduler.Stop()
	}
	return nil
}

// buildAIManager assembles one fallback chain per capability from the
// ordered provider lists. Unless disabled, a mock variant terminates
// every chain so the API keeps answering without vendor keys.
func buildAIManager(cfg config.AIConfig) (*ai.Manager, error) {
	capabilities := []struct {
		capability ai.Capability
		validate   ai.Validator
	}{
		{ai.CapabilityDiagram, ai.ValidateNonEmpty},
		{ai.CapabilityRoadmap, ai.ValidateRoadmapJSON},
		{ai.CapabilityResources, ai.ValidateResourcesJSON},
		{ai.CapabilityChat, ai.ValidateNonEmpty},
	}
	groups := make(map[ai.Capability]*ai.GroupGenerator, len(capabilities))
	for _, item := range capabilities {
		entries, err := buildGeneratorEntries(cfg.GenerateProviders)
		if err != nil {
			return nil, err
		}
		if !cfg.DisableMock {
			entries = append(entries, ai.GeneratorEntry{
				Name:      ai.MockProviderName,
				Generator: ai.NewMockGenerator(item.capability),
				Mock:      true,
			})
		}
		groups[item.capability] = ai.NewGroupGenerator(entries, item.validate)
	}

	var embedEntries []ai.EmbedderEntry
	for _, ref := range cfg.EmbedProviders {
		provider, err := ai.NewEmbedProvider(ref.Provider, ref.Args)
		if err != nil {
			return nil, err
		}
		embedEntries = append(embedEntries, ai.EmbedderEntry{
			Name:     ref.Provider,
			Embedder: ai.NewEmbedder(provider, ref.Model),
		})
	}
	if !cfg.DisableMock {
		embedEntries = append(embedEntries, ai.EmbedderEntry{
			Name:     ai.MockProviderName,
			Embedder: ai.NewMockEmbedder(0),
			Mock:     true,
		})
	}
	embedder := embedcache.WrapLruCacheToEmbedder(
		ai.NewGroupEmbedder(embedEntries),
		10000,
		time.Duration(cfg.EmbedCacheTTL)*time.Second,
	)

	var images []ai.ImageEntry
	for _, ref := range cfg.ImageProviders {
		provider, err := ai.NewImageProvider(ref.Provider, ref.Args)
		if err != nil {
			return nil, err
		}
		images = append(images, ai.ImageEntry{Name: ref.Provider, Model: ref.Model, Provider: provider})
	}

	return ai.NewManager(
		groups[ai.CapabilityDiagram],
		groups[ai.CapabilityRoadmap],
		groups[ai.CapabilityResources],
		groups[ai.CapabilityChat],
		images,
		embedder,
		ai.ManagerConfig{Timeout: cfg.Timeout, MaxInputChars: cfg.MaxInputChars},
	), nil
}

func buildGeneratorEntries(refs []config.ProviderRef) ([]ai.GeneratorEntry, error) {
	var entries []ai.GeneratorEntry
	for _, ref := range refs {
		provider, err := ai.NewProvider(ref.Provider, ref.Args)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      ref.Provider,
			Generator: ai.NewGenerator(provider, ref.Model),
		})
	}
	return entries, nil
}
