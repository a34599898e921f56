// Command ansa answers questions over a tenant's documents using
// retrieval-augmented generation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/ansa/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/ansa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ansa/internal/adapters/driving/cli"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/services"
	"github.com/custodia-labs/ansa/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Configuration and settings.
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	// Reload settings when the config file changes on disk.
	watcher, err := configfile.NewWatcher(configStore, func() {
		logger.Debug("configuration reloaded")
	})
	if err != nil {
		logger.Warn("config watcher unavailable: %v", err)
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	// Storage.
	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	docStore := store.DocumentStore()
	queryStore := store.QueryStore()

	// Vector index lives in memory; rebuild it from the chunks of fully
	// processed documents.
	index := memory.NewVectorIndex()
	if err := store.AllChunks(ctx, func(chunk domain.Chunk) error {
		if len(chunk.Embedding) == 0 {
			return nil
		}
		return index.Add(ctx, chunk.TenantID, chunk.ID, chunk.Embedding)
	}); err != nil {
		return fmt.Errorf("rebuilding vector index: %w", err)
	}

	// AI providers.
	llm, err := ai.CreateLLMProvider(settings.LLM)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	defer llm.Close() //nolint:errcheck

	embedder, err := ai.CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}
	defer embedder.Close() //nolint:errcheck

	// Core services.
	retriever := services.NewRetriever(embedder, index, docStore, settings.Retrieval)
	planner := services.NewPlanner(settings.Planner, settings.Consistency)
	singleHop := services.NewSingleHopExecutor(retriever, llm, settings)
	consistency := services.NewConsistencyExecutor(retriever, llm, settings)
	multiHop := services.NewMultiHopExecutor(retriever, llm, settings)
	verifier := services.NewVerifier(settings.Verification)

	queryService := services.NewQueryService(
		planner, singleHop, consistency, multiHop, verifier, queryStore, settings,
	)
	documentService := services.NewDocumentService(docStore, embedder, index)

	cli.SetServices(&cli.Services{
		Query:     queryService,
		Document:  documentService,
		Settings:  settingsService,
		LLM:       llm,
		Embedding: embedder,
	})

	return cli.Execute(ctx)
}
