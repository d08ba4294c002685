package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"hr-rag-assistant/internal/ai"
	"hr-rag-assistant/internal/audit"
	"hr-rag-assistant/internal/config"
	"hr-rag-assistant/internal/corpus"
	"hr-rag-assistant/internal/extract"
	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/internal/vectorindex"
	"hr-rag-assistant/services"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/reindex <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  rebuild          - Re-extract every document in DATA_DIR and rebuild the index")
		fmt.Println("  verify           - Load the persisted index and report its size")
		fmt.Println("  add <file>...    - Add documents to the corpus and rebuild the index")
		fmt.Println("  verify-audit     - Check the audit trail hash chain (requires MONGO_URI)")
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if command == "verify-audit" {
		if err := verifyAudit(ctx, cfg); err != nil {
			log.Fatalf("Audit verification failed: %v", err)
		}
		return
	}

	embedder, closeEmbedder, err := ai.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer closeEmbedder()

	store, err := corpus.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open corpus store: %v", err)
	}
	index := vectorindex.New(cfg.IndexDir, embedder, cfg.MinRelevance)
	svc := services.NewCorpusService(store, extract.New(cfg.MaxChunkSize, cfg.ChunkOverlap), index, nil)

	switch command {
	case "rebuild":
		n, err := svc.Rebuild(ctx)
		if err != nil {
			log.Fatalf("Rebuild failed: %v", err)
		}
		fmt.Printf("Index rebuilt: %d passages from %s\n", n, cfg.DataDir)

	case "verify":
		if err := index.Load(ctx); err != nil {
			log.Fatalf("Verification failed: %v", err)
		}
		docs, err := svc.ListDocuments()
		if err != nil {
			log.Fatalf("Failed to list documents: %v", err)
		}
		fmt.Printf("Index OK: %d passages, %d documents, embedder %s, dir %s\n", index.Len(), len(docs), embedder.Name(), index.Dir())

	case "add":
		if len(os.Args) < 3 {
			log.Fatal("add requires at least one file")
		}
		for _, path := range os.Args[2:] {
			if err := addFile(ctx, svc, path); err != nil {
				log.Fatalf("Failed to add %s: %v", path, err)
			}
		}

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func addFile(ctx context.Context, svc *services.CorpusService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := svc.AddDocument(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (%d passages indexed)\n", res.Name, res.Passages)
	return nil
}

func verifyAudit(ctx context.Context, cfg *config.Config) error {
	if cfg.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is not set")
	}

	client, err := config.ConnectMongoDB(cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	recorder, err := audit.NewMongoRecorder(ctx, client.Database(cfg.DBName))
	if err != nil {
		return err
	}

	ok, count, err := recorder.Verify(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("hash chain broken (%d events checked)", count)
	}
	fmt.Printf("Audit trail hash chain intact: %d events\n", count)
	return nil
}
