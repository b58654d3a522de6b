package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"convohub-backend/internal/config"
	"convohub-backend/internal/llm"
	"convohub-backend/internal/models"
	"convohub-backend/internal/services"
	"convohub-backend/internal/vector"

	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
)

const (
	crawlChunkSize    = 2000
	crawlChunkOverlap = 200
)

const distillPrompt = `Rewrite the following page content as a set of clear, self-contained reference notes.
Keep every fact, formula, example and step. Drop navigation text, ads and boilerplate.`

func main() {
	var (
		urlsFlag = flag.String("urls", "", "Comma-separated list of URLs to ingest")
		fileFlag = flag.String("file", "", "Path to a file with one URL per line")
		collFlag = flag.String("collection", models.SharedKBCollection, "Target collection for the ingested chunks")
		distill  = flag.Bool("distill", false, "Rewrite each page into reference notes with the LLM before chunking")
		timeout  = flag.Duration("timeout", 2*time.Minute, "Per-URL processing timeout")
	)
	flag.Parse()

	urls := collectURLs(*urlsFlag, *fileFlag)
	if len(urls) == 0 {
		log.Fatal("FATAL: no URLs given; use -urls or -file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	weaviateCfg := weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	}
	if cfg.WeaviateAPIKey != "" {
		weaviateCfg.AuthConfig = auth.ApiKey{Value: cfg.WeaviateAPIKey}
	}
	weaviateClient, err := weaviate.NewClient(weaviateCfg)
	if err != nil {
		log.Fatalf("FATAL: Unable to create Weaviate client: %v", err)
	}

	llmClient := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.ModelName, cfg.EmbeddingModel, cfg.Temperature)
	index := vector.NewWeaviateIndex(weaviateClient, llmClient)
	fetcher := services.NewSummarizeService(llmClient)

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(crawlChunkSize),
		textsplitter.WithChunkOverlap(crawlChunkOverlap),
	)

	ok, failed := 0, 0
	for _, rawURL := range urls {
		if err := ingestURL(fetcher, llmClient, index, splitter, rawURL, *collFlag, *distill, *timeout); err != nil {
			log.Printf("ERROR [Crawler] %s: %v", rawURL, err)
			failed++
			continue
		}
		ok++
	}
	log.Printf("[Crawler] Done: %d ingested, %d failed", ok, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func ingestURL(fetcher *services.SummarizeService, llmClient llm.Client, index vector.Index, splitter textsplitter.RecursiveCharacter, rawURL, collection string, distill bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Printf("[Crawler] Fetching %s", rawURL)
	text, err := fetcher.FetchReadableText(ctx, rawURL)
	if err != nil {
		return err
	}

	if distill {
		notes, err := llmClient.Generate(ctx, []models.Message{
			models.NewMessage(models.RoleSystem, distillPrompt),
			models.NewMessage(models.RoleHuman, text),
		})
		if err != nil {
			return err
		}
		text = notes
	}

	chunks, err := splitter.SplitText(text)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		log.Printf("WARN [Crawler] %s produced no chunks, skipping", rawURL)
		return nil
	}

	ids, err := index.UpsertTexts(ctx, collection, chunks)
	if err != nil {
		return err
	}
	log.Printf("[Crawler] Stored %d chunks from %s into %s", len(ids), rawURL, collection)
	return nil
}

// collectURLs merges the -urls flag and the -file list, skipping blanks and
// comment lines.
func collectURLs(urlsFlag, fileFlag string) []string {
	var urls []string
	for _, u := range strings.Split(urlsFlag, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if fileFlag == "" {
		return urls
	}

	f, err := os.Open(fileFlag)
	if err != nil {
		log.Fatalf("FATAL: Could not open URL file %s: %v", fileFlag, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("FATAL: Could not read URL file %s: %v", fileFlag, err)
	}
	return urls
}
