package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/avkrylov/searchcore/internal/database"
	"github.com/avkrylov/searchcore/internal/statistics"
	"github.com/avkrylov/searchcore/internal/store"
	"github.com/avkrylov/searchcore/internal/visited"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show indexing statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	size, err := db.Size()
	if err != nil {
		return fmt.Errorf("getting database size: %w", err)
	}

	summary, err := statistics.New(store.New(db), visited.New()).Summary()
	if err != nil {
		return fmt.Errorf("computing statistics: %w", err)
	}

	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Printf("Size:     %s\n\n", humanize.Bytes(uint64(size)))

	fmt.Printf("Sites:  %d\n", len(summary.Sites))
	fmt.Printf("Pages:  %d\n", summary.TotalPages)
	fmt.Printf("Lemmas: %d\n\n", summary.TotalLemmas)

	for _, site := range summary.Sites {
		fmt.Printf("  %-40s %-10s pages=%-6d lemmas=%-6d\n", site.URL, site.Status, site.PageCount, site.LemmaCount)
		if site.LastError != "" {
			fmt.Printf("    last error: %s\n", site.LastError)
		}
	}

	return nil
}
