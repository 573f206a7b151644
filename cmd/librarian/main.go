// Command librarian ingests the book dataset and serves recommendations.
//
// Usage:
//
//	librarian -ingest data/book_summaries.json
//	librarian -query "o carte despre prietenie" -k 5
//	librarian -serve :8080
//
// Database access is configured via LIBRARIAN_DB_* environment variables and
// the OpenAI key via OPENAI_API_KEY, both loadable from a .env file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	librarian "github.com/siherrmann/librarian"
	"github.com/siherrmann/librarian/api"
	"github.com/siherrmann/librarian/core/chat"
	"github.com/siherrmann/librarian/core/pipeline"
	"github.com/siherrmann/librarian/helper"
)

func main() {
	ingestPath := flag.String("ingest", "", "dataset file to ingest (rebuilds the whole index)")
	query := flag.String("query", "", "run a single reranked search and print the results")
	serveAddr := flag.String("serve", "", "address to serve the HTTP API on, e.g. :8080")
	topK := flag.Int("k", 5, "number of results for -query")
	local := flag.Bool("local", false, "use the local sentence-transformer embedder instead of OpenAI")
	flag.Parse()

	if *ingestPath == "" && *query == "" && *serveAddr == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Optional .env; absence is not an error
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		log.Fatalf("error reading database configuration: %v", err)
	}

	pipe, err := buildPipeline(*local)
	if err != nil {
		log.Fatalf("error building pipeline: %v", err)
	}

	l, err := librarian.NewLibrarian(dbConfig, pipe)
	if err != nil {
		log.Fatalf("error creating librarian: %v", err)
	}
	defer l.Close()

	ctx := context.Background()

	if *ingestPath != "" {
		total, err := l.IngestDataset(ctx, *ingestPath)
		if err != nil {
			log.Fatalf("error ingesting dataset: %v", err)
		}
		fmt.Printf("Indexed %d entries from %s\n", total, *ingestPath)
	}

	if *query != "" {
		results, err := l.SearchWithRerank(ctx, *query, *topK, nil)
		if err != nil {
			log.Fatalf("error searching: %v", err)
		}
		if len(results) == 0 {
			fmt.Println("No results.")
		}
		for i, result := range results {
			fmt.Printf("%d. %s (%s) score=%.3f\n   %s\n", i+1, result.Metadata.Title, result.Metadata.Author, result.Score, result.Document)
		}
	}

	if *serveAddr != "" {
		chatService, err := chat.NewService(os.Getenv("OPENAI_API_KEY"), l, l, chat.DefaultChatModel)
		if err != nil {
			log.Fatalf("error creating chat service: %v", err)
		}

		server := api.NewServer(chatService, l, l.DB.Logger)
		err = server.Run(*serveAddr)
		if err != nil {
			log.Fatalf("error running server: %v", err)
		}
	}
}

// buildPipeline selects the embedder. OpenAI is the default; -local switches
// to the offline sentence-transformer model.
func buildPipeline(local bool) (*pipeline.Pipeline, error) {
	chunker := pipeline.DefaultChunker()

	if local {
		embedder, dim, err := pipeline.LocalEmbedder()
		if err != nil {
			return nil, err
		}
		return pipeline.NewPipeline(chunker, embedder, dim), nil
	}

	embedder, dim, err := pipeline.OpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), pipeline.DefaultEmbeddingModel)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(chunker, embedder, dim), nil
}
