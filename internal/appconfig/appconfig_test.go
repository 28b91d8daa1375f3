// internal/appconfig/appconfig_test.go
package appconfig

import (
	"strings"
	"testing"
	"time"
)

// TestDefaults verifies that omitted settings fall back to their documented
// defaults, and that each default is independent of the other fields: in
// particular, setting only the chunk size must not zero out the overlap
// default.
func TestDefaults(t *testing.T) {
	var cfg Config

	if cfg.RequestTimeout() != 600*time.Second {
		t.Fatalf("expected default request timeout of 600s, got %v", cfg.RequestTimeout())
	}
	if cfg.ChunkSize() != 300 || cfg.ChunkOverlap() != 50 {
		t.Fatalf("expected default chunking 300/50, got %d/%d", cfg.ChunkSize(), cfg.ChunkOverlap())
	}
	if cfg.RetrievalTopK() != 3 {
		t.Fatalf("expected default topK of 3, got %d", cfg.RetrievalTopK())
	}
	if cfg.VectorstoreDir() != "vectorstore" {
		t.Fatalf("expected default vectorstore dir, got %q", cfg.VectorstoreDir())
	}
	if cfg.ListenAddr() != ":8080" {
		t.Fatalf("expected default listen addr, got %q", cfg.ListenAddr())
	}
	if cfg.LogFilePath() != "mneme.log" {
		t.Fatalf("expected default log file, got %q", cfg.LogFilePath())
	}

	sized := Config{ChunkSizeWords: 400}
	if sized.ChunkOverlap() != 50 {
		t.Fatalf("overlap default must survive an explicit chunk size, got %d", sized.ChunkOverlap())
	}

	explicit := Config{ChunkSizeWords: 400, ChunkOverlapWords: 80, TimeoutSeconds: 42}
	if explicit.ChunkOverlap() != 80 {
		t.Fatalf("expected configured overlap 80, got %d", explicit.ChunkOverlap())
	}
	if explicit.RequestTimeout() != 42*time.Second {
		t.Fatalf("expected configured timeout 42s, got %v", explicit.RequestTimeout())
	}
}

// TestValidate exercises the fatal startup checks: a missing embedding
// dimensionality, an unknown host reference, and a chunk overlap that is not
// smaller than the chunk size must all be rejected.
func TestValidate(t *testing.T) {
	base := Config{
		Hosts:               []Host{{Name: "local", URL: "http://localhost:11434", Type: "ollama"}},
		EmbeddingHost:       "local",
		EmbeddingModel:      "all-minilm",
		EmbeddingDimensions: 384,
		ChatHost:            "local",
		ChatModel:           "qwen3:8b",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noDim := base
	noDim.EmbeddingDimensions = 0
	if err := noDim.Validate(); err == nil || !strings.Contains(err.Error(), "embeddingDimensions") {
		t.Fatalf("expected embeddingDimensions error, got %v", err)
	}

	badHost := base
	badHost.ChatHost = "elsewhere"
	if err := badHost.Validate(); err == nil {
		t.Fatal("expected error for unknown chat host")
	}

	badChunks := base
	badChunks.ChunkSizeWords = 100
	badChunks.ChunkOverlapWords = 100
	if err := badChunks.Validate(); err == nil {
		t.Fatal("expected error for overlap >= size")
	}
}

// TestHostByName verifies host lookup by name, including the empty-name case.
func TestHostByName(t *testing.T) {
	cfg := Config{Hosts: []Host{
		{Name: "a", URL: "http://a:11434"},
		{Name: "b", URL: "http://b:11434"},
	}}

	host, err := cfg.HostByName("b")
	if err != nil {
		t.Fatalf("HostByName(b) failed: %v", err)
	}
	if host.URL != "http://b:11434" {
		t.Fatalf("unexpected host URL: %s", host.URL)
	}
	if _, err := cfg.HostByName(""); err == nil {
		t.Fatal("expected error for empty host name")
	}
	if _, err := cfg.HostByName("c"); err == nil {
		t.Fatal("expected error for unknown host name")
	}
}
