// internal/ingest/extract.go
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mwiater/mneme/internal/vectorstore"
)

// PageText is one page of extracted text. Page is 1-based.
type PageText struct {
	Page int
	Text string
}

// PDFExtractor pulls per-page text out of a PDF file.
type PDFExtractor interface {
	Extract(path string) ([]PageText, error)
}

// ImageCaptioner produces a textual description of an image so it can be
// embedded alongside text chunks.
type ImageCaptioner interface {
	Caption(ctx context.Context, path string) (string, error)
}

// AudioTranscriber turns an audio file into a transcript.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

var extensionModality = map[string]vectorstore.Modality{
	".pdf":  vectorstore.ModalityText,
	".txt":  vectorstore.ModalityText,
	".md":   vectorstore.ModalityText,
	".png":  vectorstore.ModalityImage,
	".jpg":  vectorstore.ModalityImage,
	".jpeg": vectorstore.ModalityImage,
	".gif":  vectorstore.ModalityImage,
	".webp": vectorstore.ModalityImage,
	".mp3":  vectorstore.ModalityAudio,
	".wav":  vectorstore.ModalityAudio,
	".m4a":  vectorstore.ModalityAudio,
	".ogg":  vectorstore.ModalityAudio,
	".flac": vectorstore.ModalityAudio,
}

// ModalityForFile maps a file name to its modality by extension. Unknown
// extensions are rejected before any extraction work happens.
func ModalityForFile(path string) (vectorstore.Modality, error) {
	ext := strings.ToLower(filepath.Ext(path))
	modality, ok := extensionModality[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
	return modality, nil
}
