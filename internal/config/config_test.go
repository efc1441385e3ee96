package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer os.Chdir(oldWD)

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Path != "searchcore.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "searchcore.db")
	}
	if cfg.Indexing.Parallelism != runtime.NumCPU() {
		t.Errorf("Indexing.Parallelism = %d, want %d", cfg.Indexing.Parallelism, runtime.NumCPU())
	}
	if cfg.Search.HighFrequencyLemmaThreshold != 0.30 {
		t.Errorf("Search.HighFrequencyLemmaThreshold = %v, want 0.30", cfg.Search.HighFrequencyLemmaThreshold)
	}
	if cfg.Fetcher.PolitenessDelay.Milliseconds() != 500 {
		t.Errorf("Fetcher.PolitenessDelay = %v, want 500ms", cfg.Fetcher.PolitenessDelay)
	}
}

func TestLoadSitesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer os.Chdir(oldWD)

	yaml := `
sites:
  - url: "http://example.test"
    name: "Example"
indexing:
  parallelism: 4
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Sites) != 1 {
		t.Fatalf("len(Sites) = %d, want 1", len(cfg.Sites))
	}
	if cfg.Sites[0].URL != "http://example.test" || cfg.Sites[0].Name != "Example" {
		t.Errorf("Sites[0] = %+v", cfg.Sites[0])
	}
	if cfg.Indexing.Parallelism != 4 {
		t.Errorf("Indexing.Parallelism = %d, want 4", cfg.Indexing.Parallelism)
	}
}
