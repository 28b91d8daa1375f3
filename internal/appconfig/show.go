package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	if cfg == nil {
		fmt.Fprintln(out, "  (not loaded)")
		return
	}

	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Embedding Host:   %s\n", cfg.EmbeddingHost)
	fmt.Fprintf(out, "  Embedding Model:  %s (%d dimensions)\n", cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	fmt.Fprintf(out, "  Chat Host:        %s\n", cfg.ChatHost)
	fmt.Fprintf(out, "  Chat Model:       %s\n", cfg.ChatModel)
	if cfg.VisionModel != "" {
		fmt.Fprintf(out, "  Vision Model:     %s\n", cfg.VisionModel)
	}
	if cfg.TranscribeURL != "" {
		fmt.Fprintf(out, "  Transcribe URL:   %s\n", cfg.TranscribeURL)
	}
	fmt.Fprintf(out, "  Vectorstore:      %s\n", cfg.VectorstoreDir())
	fmt.Fprintf(out, "  Uploads:          %s\n", cfg.UploadDir())
	fmt.Fprintf(out, "  Chunk Size:       %d words, overlap: %d words\n", cfg.ChunkSize(), cfg.ChunkOverlap())
	fmt.Fprintf(out, "  Top K:            %d\n", cfg.RetrievalTopK())
	fmt.Fprintf(out, "  Server Addr:      %s\n", cfg.ListenAddr())
	fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
}
