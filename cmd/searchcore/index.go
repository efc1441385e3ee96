package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/avkrylov/searchcore/internal/database"
	"github.com/avkrylov/searchcore/internal/fetcher"
	"github.com/avkrylov/searchcore/internal/indexing"
	"github.com/avkrylov/searchcore/internal/lemmafreq"
	"github.com/avkrylov/searchcore/internal/store"
	"github.com/avkrylov/searchcore/internal/visited"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run a one-shot crawl and index of every configured site",
	Long:  "Crawls every site listed under the \"sites\" config key and blocks until the crawl finishes, without starting the HTTP API.",
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(cfg.Sites) == 0 {
		return fmt.Errorf("no sites configured")
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	st := store.New(db)
	vs := visited.New()
	lf := lemmafreq.New(st)
	f := fetcher.New(fetcher.Config{
		UserAgent:       cfg.Fetcher.UserAgent,
		Referrer:        cfg.Fetcher.Referrer,
		RequestTimeout:  cfg.Fetcher.RequestTimeout,
		PolitenessDelay: cfg.Fetcher.PolitenessDelay,
	})

	ic := indexing.NewContext(st, f, vs, lf, cfg.Indexing.Parallelism, slog.Default())
	svc := indexing.NewService(ic, cfg.Sites)

	fmt.Printf("Indexing %d site(s)...\n", len(cfg.Sites))
	svc.RunSync(context.Background(), cfg.Indexing.Parallelism)
	fmt.Println("Indexing complete.")
	return nil
}
