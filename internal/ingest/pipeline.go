// internal/ingest/pipeline.go
// Package ingest turns uploaded files into indexed chunks. Each supported
// modality goes through its own extraction step, then the shared path of
// chunking, embedding via the store, and a single flush per file.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/mneme/internal/rag"
	"github.com/mwiater/mneme/internal/vectorstore"
)

// Pipeline drives ingestion for all modalities against one store.
type Pipeline struct {
	store        *vectorstore.Store
	pdf          PDFExtractor
	captioner    ImageCaptioner
	transcriber  AudioTranscriber
	chunkSize    int
	chunkOverlap int
	processedDir string
}

// Options carries the extraction collaborators and chunking parameters.
// ProcessedDir may be empty to skip writing ingestion sidecars.
type Options struct {
	PDF          PDFExtractor
	Captioner    ImageCaptioner
	Transcriber  AudioTranscriber
	ChunkSize    int
	ChunkOverlap int
	ProcessedDir string
}

// NewPipeline wires a Pipeline over the store.
func NewPipeline(store *vectorstore.Store, opts Options) *Pipeline {
	return &Pipeline{
		store:        store,
		pdf:          opts.PDF,
		captioner:    opts.Captioner,
		transcriber:  opts.Transcriber,
		chunkSize:    opts.ChunkSize,
		chunkOverlap: opts.ChunkOverlap,
		processedDir: opts.ProcessedDir,
	}
}

// Result summarizes one ingested file. It is also what the processed
// sidecar records on disk.
type Result struct {
	SourceFile string               `json:"source_file"`
	Modality   vectorstore.Modality `json:"modality"`
	ChunkCount int                  `json:"chunk_count"`
	ChunkIDs   []string             `json:"chunk_ids"`
	IngestedAt time.Time            `json:"ingested_at"`
}

// section is one extracted unit of raw text: a PDF page, a caption, or a
// transcript. page is nil for unpaged modalities.
type section struct {
	text string
	page *int
}

type pendingChunk struct {
	text string
	page *int
}

// IngestFile extracts, chunks, and indexes one file, then flushes the store
// once. The file's modality is decided by extension before any extraction
// runs. A file with no extractable content is an error, not a silent no-op.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Result, error) {
	modality, err := ModalityForFile(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)

	sections, err := p.extract(ctx, modality, path)
	if err != nil {
		return nil, err
	}
	var chunks []pendingChunk
	for _, sec := range sections {
		chunked, err := p.chunkInto(sec.text, sec.page)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunked...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no indexable content in %s", base)
	}

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		id, err := p.store.Add(ctx, chunk.text, modality, base, chunk.page)
		if err != nil {
			return nil, fmt.Errorf("indexing chunk of %s: %w", base, err)
		}
		ids = append(ids, id)
	}
	if err := p.store.Flush(); err != nil {
		return nil, fmt.Errorf("flushing store after %s: %w", base, err)
	}

	result := &Result{
		SourceFile: base,
		Modality:   modality,
		ChunkCount: len(ids),
		ChunkIDs:   ids,
		IngestedAt: time.Now().UTC(),
	}
	if p.processedDir != "" {
		if err := p.writeSidecar(result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// DescribeAttachment extracts the textual content of a file without
// indexing anything. Used to fold a one-off attachment into a question.
func (p *Pipeline) DescribeAttachment(ctx context.Context, path string) (string, error) {
	modality, err := ModalityForFile(path)
	if err != nil {
		return "", err
	}
	sections, err := p.extract(ctx, modality, path)
	if err != nil {
		return "", err
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("no readable content in %s", filepath.Base(path))
	}
	parts := make([]string, len(sections))
	for i, sec := range sections {
		parts[i] = sec.text
	}
	joined := strings.TrimSpace(strings.Join(parts, "\n"))
	if joined == "" {
		return "", fmt.Errorf("no readable content in %s", filepath.Base(path))
	}
	return joined, nil
}

func (p *Pipeline) extract(ctx context.Context, modality vectorstore.Modality, path string) ([]section, error) {
	switch modality {
	case vectorstore.ModalityText:
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			if p.pdf == nil {
				return nil, errors.New("no PDF extractor configured")
			}
			pages, err := p.pdf.Extract(path)
			if err != nil {
				return nil, err
			}
			sections := make([]section, 0, len(pages))
			for _, page := range pages {
				num := page.Page
				sections = append(sections, section{text: page.Text, page: &num})
			}
			return sections, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return []section{{text: string(data)}}, nil
	case vectorstore.ModalityImage:
		if p.captioner == nil {
			return nil, errors.New("no vision model configured for image files")
		}
		caption, err := p.captioner.Caption(ctx, path)
		if err != nil {
			return nil, err
		}
		return []section{{text: caption}}, nil
	case vectorstore.ModalityAudio:
		if p.transcriber == nil {
			return nil, errors.New("no transcription service configured for audio files")
		}
		transcript, err := p.transcriber.Transcribe(ctx, path)
		if err != nil {
			return nil, err
		}
		return []section{{text: transcript}}, nil
	default:
		return nil, fmt.Errorf("unsupported modality %q", modality)
	}
}

func (p *Pipeline) chunkInto(text string, page *int) ([]pendingChunk, error) {
	pieces, err := rag.ChunkText(text, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return nil, err
	}
	chunks := make([]pendingChunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, pendingChunk{text: piece, page: page})
	}
	return chunks, nil
}

func (p *Pipeline) writeSidecar(result *Result) error {
	if err := os.MkdirAll(p.processedDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(p.processedDir, result.SourceFile+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing ingestion record: %w", err)
	}
	return nil
}
