package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"recipeparser/internal/api"
	"recipeparser/internal/config"
	"recipeparser/internal/parser"
	"recipeparser/internal/platform"
	"recipeparser/internal/recipe"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load("config.json")
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		panic(fmt.Errorf("error creating store: %w", err))
	}
	defer closeStore()

	vocab := parser.NewVocabulary()
	if cfg.VocabularyPath != "" {
		vocab, err = parser.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			panic(fmt.Errorf("error loading vocabulary: %w", err))
		}
	}

	if cfg.SeedPath != "" {
		seed, err := recipe.LoadSeedFile(cfg.SeedPath)
		if err != nil {
			panic(fmt.Errorf("error loading seed: %w", err))
		}
		if _, _, err := recipe.Seed(ctx, store, cfg.GroupID(), seed); err != nil {
			panic(fmt.Errorf("error seeding vocabulary: %w", err))
		}
	}

	generator, err := platform.NewGenerator(ctx, cfg.LLM)
	if err != nil {
		panic(fmt.Errorf("error creating llm client: %w", err))
	}
	if closer, ok := generator.(io.Closer); ok {
		defer closer.Close()
	}
	if generator == nil {
		log.Printf("No LLM provider configured, the openai parser is disabled")
	}

	handler := api.NewHandler(store, vocab, generator, cfg.GroupID(), cfg.Timeout())

	r := newRouter(cfg, handler)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

func newRouter(cfg *config.Config, handler *api.Handler) *gin.Engine {
	r := gin.Default()

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", api.GroupHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	handler.RegisterRoutes(r)
	return r
}

// openStore picks the vocabulary store. Without a database URL the vocabulary
// lives in memory for the life of the process.
func openStore(cfg *config.Config) (recipe.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, using in-memory vocabulary store")
		return recipe.NewMemoryStore(), func() {}, nil
	}
	store, err := recipe.NewSQLStore(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close store: %v", err)
		}
	}, nil
}
