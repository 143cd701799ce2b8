package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dom-search/internal/chunker"
	"dom-search/internal/config"
	"dom-search/internal/embedding"
	"dom-search/internal/fetcher"
	"dom-search/internal/helper"
	"dom-search/internal/search"
	"dom-search/internal/server"
	"dom-search/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	addr := flag.String("addr", "", "Listen address override")
	url := flag.String("url", "", "URL to search, runs one query and exits")
	query := flag.String("query", "", "Query to rank the page content against")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	counter, err := chunker.NewTiktokenCounter()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading tokenizer")
	}

	embedder, err := embedding.NewService(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	vectorStore, err := store.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}
	defer vectorStore.Close()

	searcher := search.New(
		fetcher.New(time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second, cfg.Fetch.UserAgent),
		embedder,
		vectorStore,
		counter,
		search.Options{
			MaxTokens:    cfg.Chunking.MaxTokens,
			OverlapWords: cfg.Chunking.OverlapWords,
			TopK:         cfg.Search.TopK,
		},
	)

	// one-shot mode: -url and -query run a single pipeline pass
	if *url != "" || *query != "" {
		if *url == "" || *query == "" {
			log.Fatal().Msg("Please provide both the -url and -query flags")
		}
		if err := embedder.Warmup(ctx); err != nil {
			log.Fatal().Err(err).Msg("Embedding model unavailable")
		}
		results, err := searcher.Search(ctx, *url, *query)
		if err != nil {
			log.Fatal().Err(err).Msg("Search failed")
		}
		helper.PrettyPrint(results)
		return
	}

	// warm the model in the background, /health reports 503 until done
	go func() {
		if err := embedder.Warmup(ctx); err != nil {
			log.Error().Err(err).Msg("Embedding model warmup failed")
			return
		}
		log.Info().Msg("Embedding model ready")
	}()

	srv := server.New(searcher, embedder.Ready, cfg.Server.AllowedOrigins)
	if err := srv.Run(cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
