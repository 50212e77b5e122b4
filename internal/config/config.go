// Package config loads the retailsql configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// RETAILSQL_* environment variables. The result is validated before use.
//
//	dataset:
//	  paths: [OnlineRetail.csv]
//	  encoding: iso-8859-1
//	catalog:
//	  path: queries.sql
//	recommend:
//	  min_frequency: 50
//	server:
//	  port: 8501
//	logging:
//	  level: info
//	  format: json
package config

import (
	"time"

	"github.com/nao1215/retailsql"
)

// Config is the complete retailsql configuration.
type Config struct {
	Dataset   DatasetConfig   `koanf:"dataset"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatasetConfig selects the transactions dataset.
type DatasetConfig struct {
	// Paths are loaded into one table
	Paths []string `koanf:"paths" validate:"required,min=1,dive,required"`
	// Encoding of CSV and TSV files
	Encoding string `koanf:"encoding" validate:"required,oneof=iso-8859-1 iso8859-1 latin1 latin-1 windows-1252 cp1252 utf-8 utf8"`
	// ChunkSize is the number of rows inserted per transaction
	ChunkSize int `koanf:"chunk_size" validate:"gte=1"`
}

// CatalogConfig selects the query catalog. An empty path selects the embedded catalog.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// RecommendConfig tunes the co-occurrence views.
type RecommendConfig struct {
	// MinFrequency is the count a product pair must exceed to be shown
	MinFrequency int `koanf:"min_frequency" validate:"gte=1"`
}

// ServerConfig configures the HTTP dashboard.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// RateLimitRequests per RateLimitWindow and client IP; 0 disables rate limiting
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled off"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Paths:     []string{retailsql.DefaultDatasetPath},
			Encoding:  retailsql.DefaultEncoding.String(),
			ChunkSize: retailsql.DefaultChunkSize,
		},
		Recommend: RecommendConfig{
			MinFrequency: retailsql.DefaultMinFrequency,
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8501,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// AppConfig converts the dataset, catalog and recommend sections for retailsql.NewApp.
func (c *Config) AppConfig() (retailsql.AppConfig, error) {
	enc, err := retailsql.ParseEncoding(c.Dataset.Encoding)
	if err != nil {
		return retailsql.AppConfig{}, err
	}
	return retailsql.AppConfig{
		DatasetPaths: c.Dataset.Paths,
		CatalogPath:  c.Catalog.Path,
		Encoding:     enc,
		ChunkSize:    c.Dataset.ChunkSize,
		MinFrequency: c.Recommend.MinFrequency,
	}, nil
}
