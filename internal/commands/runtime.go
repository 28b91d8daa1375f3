// internal/commands/runtime.go
package mneme

import (
	"errors"
	"fmt"

	"github.com/mwiater/mneme/internal/appconfig"
	"github.com/mwiater/mneme/internal/ingest"
	"github.com/mwiater/mneme/internal/providers/ollama"
	"github.com/mwiater/mneme/internal/rag"
	"github.com/mwiater/mneme/internal/vectorstore"
	"github.com/spf13/viper"
)

// runtime is the assembled engine shared by the subcommands: one store, one
// retrieval engine, one ingestion pipeline, all built from the loaded config.
type runtime struct {
	cfg      *appconfig.Config
	store    *vectorstore.Store
	engine   *rag.Engine
	pipeline *ingest.Pipeline
}

// newRuntime validates the configuration and wires the collaborators. The
// store is opened here, so load-time consistency failures surface before any
// command work starts.
func newRuntime() (*runtime, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	embedHost, err := cfg.HostByName(cfg.EmbeddingHost)
	if err != nil {
		return nil, err
	}
	chatHost, err := cfg.HostByName(cfg.ChatHost)
	if err != nil {
		return nil, err
	}

	chatProvider := ollama.New(cfg, chatHost)
	embedder := ollama.NewEmbeddingClient(ollama.New(cfg, embedHost), cfg.EmbeddingModel)

	store, err := vectorstore.Open(cfg.VectorstoreDir(), cfg.EmbeddingDimensions, embedder)
	if err != nil {
		return nil, fmt.Errorf("opening vectorstore: %w", err)
	}

	topK := cfg.RetrievalTopK()
	if v := viper.GetInt("topK"); v > 0 {
		topK = v
	}
	engine := rag.NewEngine(store, embedder, chatProvider, cfg.ChatModel, topK)

	opts := ingest.Options{
		PDF:          ingest.NewPDFReader(),
		ChunkSize:    cfg.ChunkSize(),
		ChunkOverlap: cfg.ChunkOverlap(),
		ProcessedDir: cfg.ProcessedDir(),
	}
	if cfg.VisionModel != "" {
		opts.Captioner = ingest.NewVisionCaptioner(chatProvider, cfg.VisionModel)
	}
	if cfg.TranscribeURL != "" {
		opts.Transcriber = ingest.NewHTTPTranscriber(cfg.TranscribeURL, cfg.RequestTimeout())
	}
	pipeline := ingest.NewPipeline(store, opts)

	return &runtime{cfg: cfg, store: store, engine: engine, pipeline: pipeline}, nil
}
