// Package config provides application configuration via Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig
	Sites     []SiteConfig
	Indexing  IndexingConfig
	Fetcher   FetcherConfig
	Search    SearchConfig
	Log       LogConfig
	API       APIConfig
}

type DatabaseConfig struct {
	Path string
}

// SiteConfig is one configured crawl root under the "sites" key.
type SiteConfig struct {
	URL  string
	Name string
}

type IndexingConfig struct {
	// Parallelism is the fork-join worker pool size. Defaults to NumCPU.
	Parallelism int
}

type FetcherConfig struct {
	UserAgent          string
	Referrer           string
	RequestTimeout     time.Duration
	PolitenessDelay    time.Duration
}

type SearchConfig struct {
	HighFrequencyLemmaThreshold float64
}

type LogConfig struct {
	Level string
}

type APIConfig struct {
	Host            string
	Port            int
	EnableCORS      bool
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimit       float64
	RateBurst       int
	Production      bool
}

var defaultConfig = Config{
	Database: DatabaseConfig{
		Path: "searchcore.db",
	},
	Indexing: IndexingConfig{
		Parallelism: runtime.NumCPU(),
	},
	Fetcher: FetcherConfig{
		UserAgent:       "SearchCore/1.0",
		Referrer:        "",
		RequestTimeout:  10 * time.Second,
		PolitenessDelay: 500 * time.Millisecond,
	},
	Search: SearchConfig{
		HighFrequencyLemmaThreshold: 0.30,
	},
	Log: LogConfig{
		Level: "info",
	},
	API: APIConfig{
		Host:            "localhost",
		Port:            8080,
		EnableCORS:      true,
		CORSOrigins:     []string{"*"},
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimit:       50.0,
		RateBurst:       100,
		Production:      false,
	},
}

// Reads configuration from file and environment variables.
// Locations: ./config.yaml, ~/.config/searchcore/config.yaml
// Env vars prefixed with SEARCHCORE_ (e.g., SEARCHCORE_DATABASE_PATH).
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(userConfigDir(), "searchcore"))

	v.SetEnvPrefix("SEARCHCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Database.Path = v.GetString("database.path")

	var sites []SiteConfig
	if err := v.UnmarshalKey("sites", &sites); err != nil {
		return nil, fmt.Errorf("parsing sites: %w", err)
	}
	cfg.Sites = sites

	cfg.Indexing.Parallelism = v.GetInt("indexing.parallelism")
	if cfg.Indexing.Parallelism <= 0 {
		cfg.Indexing.Parallelism = runtime.NumCPU()
	}

	cfg.Fetcher.UserAgent = v.GetString("fetcher.useragent")
	cfg.Fetcher.Referrer = v.GetString("fetcher.referrer")
	cfg.Fetcher.RequestTimeout = time.Duration(v.GetInt("fetcher.requesttimeoutms")) * time.Millisecond
	cfg.Fetcher.PolitenessDelay = time.Duration(v.GetInt("fetcher.politenessdelayms")) * time.Millisecond

	cfg.Search.HighFrequencyLemmaThreshold = v.GetFloat64("search.highfrequencylemmathreshold")

	cfg.Log.Level = v.GetString("log.level")

	cfg.API.Host = v.GetString("api.host")
	cfg.API.Port = v.GetInt("api.port")
	cfg.API.EnableCORS = v.GetBool("api.enablecors")
	cfg.API.CORSOrigins = v.GetStringSlice("api.corsorigins")
	cfg.API.ReadTimeout = v.GetDuration("api.readtimeout")
	cfg.API.WriteTimeout = v.GetDuration("api.writetimeout")
	cfg.API.ShutdownTimeout = v.GetDuration("api.shutdowntimeout")
	cfg.API.RateLimit = v.GetFloat64("api.ratelimit")
	cfg.API.RateBurst = v.GetInt("api.rateburst")
	cfg.API.Production = v.GetBool("api.production")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", defaultConfig.Database.Path)
	v.SetDefault("indexing.parallelism", defaultConfig.Indexing.Parallelism)
	v.SetDefault("fetcher.useragent", defaultConfig.Fetcher.UserAgent)
	v.SetDefault("fetcher.referrer", defaultConfig.Fetcher.Referrer)
	v.SetDefault("fetcher.requesttimeoutms", defaultConfig.Fetcher.RequestTimeout.Milliseconds())
	v.SetDefault("fetcher.politenessdelayms", defaultConfig.Fetcher.PolitenessDelay.Milliseconds())
	v.SetDefault("search.highfrequencylemmathreshold", defaultConfig.Search.HighFrequencyLemmaThreshold)
	v.SetDefault("log.level", defaultConfig.Log.Level)

	v.SetDefault("api.host", defaultConfig.API.Host)
	v.SetDefault("api.port", defaultConfig.API.Port)
	v.SetDefault("api.enablecors", defaultConfig.API.EnableCORS)
	v.SetDefault("api.corsorigins", defaultConfig.API.CORSOrigins)
	v.SetDefault("api.readtimeout", defaultConfig.API.ReadTimeout)
	v.SetDefault("api.writetimeout", defaultConfig.API.WriteTimeout)
	v.SetDefault("api.shutdowntimeout", defaultConfig.API.ShutdownTimeout)
	v.SetDefault("api.ratelimit", defaultConfig.API.RateLimit)
	v.SetDefault("api.rateburst", defaultConfig.API.RateBurst)
	v.SetDefault("api.production", defaultConfig.API.Production)
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return ""
}
