// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/docent"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "docent",
		Usage: "Document knowledge base: split, embed, and search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Process a document into chapters and embeddings",
				Action: ingestCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Document file to ingest, or - for stdin",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (defaults to the file name)",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Delete the document's existing chapters before reprocessing",
					},
					&cli.BoolFlag{
						Name:  "no-qa",
						Usage: "Skip Q&A pair generation",
					},
					&cli.BoolFlag{
						Name:  "no-summary",
						Usage: "Skip summary generation",
					},
					&cli.IntFlag{
						Name:  "qa-pairs",
						Usage: "Q&A pairs to request per chapter",
						Value: 3,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Whole-run attempts before failing",
						Value: ingestion.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Fixed delay between whole-run attempts",
						Value: ingestion.DefaultRetryDelay,
					},
				),
			},
			{
				Name:   "status",
				Usage:  "Show a document's stored processing state",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the knowledge base directory",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "document",
						Usage:    "Document ID",
						Required: true,
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Embed a query and list the most similar chunks",
				ArgsUsage: "<query text>",
				Action:    queryCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results to return",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum cosine similarity for a match",
						Value: 0.3,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commonFlags are shared by the commands that resolve models against a
// library.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the knowledge base directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "library",
			Usage:    "Library name (created on first use)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model override",
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding dimension override",
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Completion model override",
		},
	}
}

func openKB(c *cli.Context) (*docent.KnowledgeBase, error) {
	cfg := ai.NewConfig(ai.WithHost(c.String("host")))
	cfg.Normalize()
	return docent.Open(c.String("db"), docent.WithAIConfig(cfg))
}

func overridesFromFlags(c *cli.Context) *ai.Overrides {
	return &ai.Overrides{
		EmbeddingModel:     c.String("embedding-model"),
		EmbeddingDimension: c.Int("dimension"),
		CompletionModel:    c.String("completion-model"),
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	body, title, err := readInput(c.String("file"), c.String("title"))
	if err != nil {
		return err
	}

	kb, err := openKB(c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	library, err := kb.EnsureLibrary(ctx, c.String("library"))
	if err != nil {
		return err
	}

	doc, err := kb.AddDocument(ctx, library, title, body, nil)
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	pipeline, err := kb.NewPipeline(
		ingestion.WithQAPairCount(c.Int("qa-pairs")),
		ingestion.WithEnrichment(!c.Bool("no-qa"), !c.Bool("no-summary")),
		ingestion.WithRetry(c.Int("max-attempts"), c.Duration("retry-delay")),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	fmt.Fprintf(os.Stderr, "Ingesting %q into library %q (document %d)\n", title, library.Name, doc.Id)

	result, err := pipeline.ProcessDocument(ctx, library, doc, &ingestion.ProcessOptions{
		Overwrite: c.Bool("overwrite"),
		Overrides: overridesFromFlags(c),
	})
	if err != nil {
		if status, ok := pipeline.Status(doc.Id); ok {
			fmt.Fprintf(os.Stderr, "Status: %s (%s)\n", status.State, status.Error)
		}
		return fmt.Errorf("processing failed: %w", err)
	}

	fmt.Printf("Document %d processed in %s (%d attempt(s))\n", doc.Id, result.Duration.Round(time.Millisecond), result.Attempts)
	fmt.Printf("  chapters:            %d\n", result.Chapters)
	fmt.Printf("  embeddings:          %d (%d failed)\n", result.EmbeddingsProcessed, result.EmbeddingsFailed)
	fmt.Printf("  enrichment chunks:   %d (%d failures)\n", result.EnrichmentChunks, result.EnrichmentFailures)
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	kb, err := openKB(c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	documentID := core.ID(c.Uint64("document"))
	doc, err := kb.Documents().GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	chapters, err := kb.Chapters().CountChaptersByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	chunks, err := kb.Chunks().CountChunksByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	missing, err := kb.Chunks().CountMissingVectors(ctx, documentID)
	if err != nil {
		return err
	}

	fmt.Printf("Document %d: %s\n", doc.Id, doc.Title)
	fmt.Printf("  library:         %d\n", doc.LibraryId)
	fmt.Printf("  chapters:        %d\n", chapters)
	fmt.Printf("  chunks:          %d\n", chunks)
	fmt.Printf("  pending vectors: %d\n", missing)
	if chapters == 0 {
		fmt.Println("  state:           not processed")
	} else if missing > 0 {
		fmt.Println("  state:           partially processed (resumable)")
	} else {
		fmt.Println("  state:           processed")
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	kb, err := openKB(c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	library, err := kb.Libraries().FindLibraryByName(ctx, c.String("library"))
	if err != nil {
		return fmt.Errorf("library %q: %w", c.String("library"), err)
	}

	results, err := kb.Search(ctx, library, query, float32(c.Float64("min-similarity")), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. [%.3f] (%s, chapter %d) %s\n",
			i+1, r.Score, r.Chunk.Kind, r.Chunk.ChapterId, snippet(r.Chunk.Text, 120))
	}
	return nil
}

// readInput loads the document body from a file or stdin and derives a title
// when none is given.
func readInput(path, title string) (body, resolvedTitle string, err error) {
	var data []byte
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if title == "" {
			title = "stdin"
		}
	} else {
		data, err = os.ReadFile(path)
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), title, nil
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
