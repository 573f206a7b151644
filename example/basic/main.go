package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	librarian "github.com/siherrmann/librarian"
	"github.com/siherrmann/librarian/core/pipeline"
	"github.com/siherrmann/librarian/helper"
)

const sampleDataset = `[
	{
		"title": "1984",
		"author": "George Orwell",
		"themes": ["dystopia", "surveillance", "control social"],
		"year": 1949,
		"summary": "Winston Smith lives in Oceania under the gaze of Big Brother. The Party rewrites history, polices thought and punishes the smallest gesture of independence. Winston's quiet rebellion through a diary and a forbidden love ends in the cellars of the Ministry of Love."
	},
	{
		"title": "The Hobbit",
		"author": "J.R.R. Tolkien",
		"themes": ["adventure", "friendship", "courage"],
		"year": 1937,
		"language": "en",
		"summary": "Bilbo Baggins, a comfort-loving hobbit, is swept into a quest with thirteen dwarves to reclaim their mountain home from the dragon Smaug. Along the way he finds a magic ring, outwits trolls and spiders, and discovers a courage he never suspected."
	},
	{
		"title": "Dune",
		"author": "Frank Herbert",
		"themes": ["politics", "ecology", "religion"],
		"year": 1965,
		"language": "en",
		"summary": "Paul Atreides moves with his noble house to the desert planet Arrakis, sole source of the spice melange. Betrayal destroys his family and drives him among the Fremen, where prophecy, ecology and politics converge to make him something more than human."
	}
]`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// Deterministic offline embedder; swap for pipeline.OpenAIEmbedder or
	// pipeline.LocalEmbedder for real semantics
	const dim = 64
	pipe := pipeline.NewPipeline(pipeline.DefaultChunker(), pipeline.HashEmbedder(dim), dim)

	l, err := librarian.NewLibrarian(dbConfig, pipe)
	if err != nil {
		log.Fatalf("Failed to create librarian: %v", err)
	}
	defer l.Close()

	// Write the sample dataset to a temp file and ingest it
	dir, err := os.MkdirTemp("", "librarian-example")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	datasetPath := filepath.Join(dir, "book_summaries.json")
	if err := os.WriteFile(datasetPath, []byte(sampleDataset), 0o644); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}

	ctx := context.Background()
	total, err := l.IngestDataset(ctx, datasetPath)
	if err != nil {
		log.Fatalf("Failed to ingest dataset: %v", err)
	}
	fmt.Printf("Indexed %d entries\n\n", total)

	// Reranked search: the title mention lifts 1984 regardless of the
	// hash embedder's arbitrary geometry
	results, err := l.SearchWithRerank(ctx, "o carte despre control social, ceva gen 1984", 3, nil)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Println("Search results:")
	for i, result := range results {
		fmt.Printf("%d. %s (%s) score=%.3f semantic=%.3f lexical=%.3f boost=%.3f\n",
			i+1, result.Metadata.Title, result.Metadata.Author,
			result.Score, result.Semantic, result.Lexical, result.Boost)
	}

	// Full summary lookup by exact title, case-insensitive
	summary, err := l.SummaryByTitle("the hobbit")
	if err != nil {
		log.Fatalf("Failed to fetch summary: %v", err)
	}
	fmt.Printf("\nSummary of The Hobbit:\n%s\n", summary)

	// All indexed titles
	titles, err := l.Titles()
	if err != nil {
		log.Fatalf("Failed to list titles: %v", err)
	}
	fmt.Printf("\nTitles: %v\n", titles)
}
