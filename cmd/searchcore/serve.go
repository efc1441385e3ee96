package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avkrylov/searchcore/internal/api"
	"github.com/avkrylov/searchcore/internal/database"
	"github.com/avkrylov/searchcore/internal/fetcher"
	"github.com/avkrylov/searchcore/internal/indexing"
	"github.com/avkrylov/searchcore/internal/lemmafreq"
	"github.com/avkrylov/searchcore/internal/searchbuilder"
	"github.com/avkrylov/searchcore/internal/statistics"
	"github.com/avkrylov/searchcore/internal/store"
	"github.com/avkrylov/searchcore/internal/visited"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search-core API server",
	Long: `Start the HTTP API server exposing startIndexing, stopIndexing,
statistics, indexPage and search.

Examples:
  searchcore serve
  searchcore serve --port 3000
  searchcore serve --host 0.0.0.0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind to (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("received shutdown signal")
		cancel()
	}()

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
	idxSvc := indexing.NewService(ic, cfg.Sites)
	sb := searchbuilder.New(st)
	statsSvc := statistics.New(st, vs)

	apiCfg := cfg.API
	if serveHost != "" {
		apiCfg.Host = serveHost
	}
	if servePort != 0 {
		apiCfg.Port = servePort
	}

	server := api.New(idxSvc, lf, sb, statsSvc, apiCfg, cfg.Search.HighFrequencyLemmaThreshold)

	fmt.Printf("Starting searchcore API server on http://%s:%d\n", apiCfg.Host, apiCfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
