// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests to model hosts.
	defaultRequestTimeout = 600 * time.Second
	// defaultChunkSize is the chunk window size in words when the config omits it.
	defaultChunkSize = 300
	// defaultChunkOverlap is the chunk window overlap in words when the config omits it.
	defaultChunkOverlap = 50
	// defaultTopK is the number of chunks retrieved per query when the config omits it.
	defaultTopK = 3
	// defaultVectorstoreDir holds the index and metadata artifacts.
	defaultVectorstoreDir = "vectorstore"
	// defaultUploadDir holds uploaded source files before extraction.
	defaultUploadDir = "data/uploads"
	// defaultProcessedDir holds the extracted-text sidecar documents.
	defaultProcessedDir = "processed"
	// defaultServerAddr is the HTTP API listen address.
	defaultServerAddr = ":8080"
)

// Config represents the top-level application configuration.
type Config struct {
	Hosts               []Host `json:"hosts"`
	Debug               bool   `json:"debug"`
	EmbeddingHost       string `json:"embeddingHost"`
	EmbeddingModel      string `json:"embeddingModel"`
	EmbeddingDimensions int    `json:"embeddingDimensions"`
	ChatHost            string `json:"chatHost"`
	ChatModel           string `json:"chatModel"`
	VisionModel         string `json:"visionModel,omitempty"`
	TranscribeURL       string `json:"transcribeUrl,omitempty"`
	VectorstorePath     string `json:"vectorstorePath,omitempty"`
	UploadPath          string `json:"uploadPath,omitempty"`
	ProcessedPath       string `json:"processedPath,omitempty"`
	ChunkSizeWords      int    `json:"chunkSizeWords,omitempty"`
	ChunkOverlapWords   int    `json:"chunkOverlapWords,omitempty"`
	TopK                int    `json:"topK,omitempty"`
	ServerAddr          string `json:"serverAddr,omitempty"`
	TimeoutSeconds      int    `json:"timeout,omitempty" mapstructure:"timeout"`
	LogFile             string `json:"logFile,omitempty"`
	ConfigPath          string `json:"-"`
}

// Host represents a single host that can serve embedding or language models.
type Host struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "mneme.log"
}

// VectorstoreDir returns the directory holding the index and metadata artifacts.
func (c Config) VectorstoreDir() string {
	if dir := strings.TrimSpace(c.VectorstorePath); dir != "" {
		return dir
	}
	return defaultVectorstoreDir
}

// UploadDir returns the directory uploaded files are stored in before extraction.
func (c Config) UploadDir() string {
	if dir := strings.TrimSpace(c.UploadPath); dir != "" {
		return dir
	}
	return defaultUploadDir
}

// ProcessedDir returns the directory extracted-text sidecar documents are written to.
func (c Config) ProcessedDir() string {
	if dir := strings.TrimSpace(c.ProcessedPath); dir != "" {
		return dir
	}
	return defaultProcessedDir
}

// ChunkSize returns the chunk window size in words.
func (c Config) ChunkSize() int {
	if c.ChunkSizeWords <= 0 {
		return defaultChunkSize
	}
	return c.ChunkSizeWords
}

// ChunkOverlap returns the chunk window overlap in words.
func (c Config) ChunkOverlap() int {
	if c.ChunkOverlapWords <= 0 {
		return defaultChunkOverlap
	}
	return c.ChunkOverlapWords
}

// RetrievalTopK returns the number of chunks retrieved per query.
func (c Config) RetrievalTopK() int {
	if c.TopK <= 0 {
		return defaultTopK
	}
	return c.TopK
}

// ListenAddr returns the HTTP API listen address.
func (c Config) ListenAddr() string {
	if addr := strings.TrimSpace(c.ServerAddr); addr != "" {
		return addr
	}
	return defaultServerAddr
}

// HostByName resolves a host entry by its configured name.
func (c Config) HostByName(name string) (Host, error) {
	if strings.TrimSpace(name) == "" {
		return Host{}, errors.New("host name is empty")
	}
	for _, host := range c.Hosts {
		if host.Name == name {
			return host, nil
		}
	}
	return Host{}, fmt.Errorf("host %q not found in config hosts", name)
}

// Validate checks the settings that must be correct before the engine can start.
// Failures here are configuration errors and are fatal.
func (c Config) Validate() error {
	if len(c.Hosts) == 0 {
		return errors.New("config must contain at least one host")
	}
	if _, err := c.HostByName(c.EmbeddingHost); err != nil {
		return fmt.Errorf("embeddingHost: %w", err)
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return errors.New("embeddingModel is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return errors.New("embeddingDimensions must be greater than zero")
	}
	if _, err := c.HostByName(c.ChatHost); err != nil {
		return fmt.Errorf("chatHost: %w", err)
	}
	if strings.TrimSpace(c.ChatModel) == "" {
		return errors.New("chatModel is required")
	}
	if c.ChunkSize() <= 0 {
		return errors.New("chunkSizeWords must be greater than zero")
	}
	if c.ChunkOverlap() >= c.ChunkSize() {
		return errors.New("chunkOverlapWords must be smaller than chunkSizeWords")
	}
	return nil
}

