// internal/vectorstore/store.go
// Package vectorstore couples an append-only vector index with an
// insertion-ordered metadata store behind a single-writer lock, and owns
// persistence of both artifacts.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mwiater/mneme/internal/providers"
)

const (
	// IndexFileName is the binary vector index artifact inside the store directory.
	IndexFileName = "index.bin"
	// MetadataFileName is the metadata document artifact inside the store directory.
	MetadataFileName = "metadata.json"
)

// ErrInconsistent reports that the index and metadata artifacts disagree.
// The store refuses to serve retrieval in this state: position k of the index
// must map to the k-th metadata record, and a count mismatch means that
// mapping silently returns wrong records.
var ErrInconsistent = errors.New("vectorstore: index and metadata artifacts disagree")

// Store is the only component permitted to mutate the vector index or the
// metadata store. All mutations run under the write lock; searches and
// listings take the read lock so they never observe a half-updated pair.
type Store struct {
	dir      string
	dim      int
	embedder providers.Embedder

	mu    sync.RWMutex
	index *FlatIndex
	meta  *MetadataStore
}

// Open loads the store from dir, creating an empty store if no artifacts
// exist yet. If the artifacts exist but disagree, Open fails with
// ErrInconsistent rather than serving misaligned results.
func Open(dir string, dim int, embedder providers.Embedder) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimensionality: %d", dim)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vectorstore directory: %w", err)
	}

	s := &Store{dir: dir, dim: dim, embedder: embedder}

	indexPath := filepath.Join(dir, IndexFileName)
	metaPath := filepath.Join(dir, MetadataFileName)
	_, indexErr := os.Stat(indexPath)
	_, metaErr := os.Stat(metaPath)
	indexExists := indexErr == nil
	metaExists := metaErr == nil

	switch {
	case !indexExists && !metaExists:
		index, err := NewFlatIndex(dim)
		if err != nil {
			return nil, err
		}
		s.index = index
		s.meta = NewMetadataStore()
	case indexExists != metaExists:
		return nil, fmt.Errorf("%w: only one of %s and %s exists in %s", ErrInconsistent, IndexFileName, MetadataFileName, dir)
	default:
		if err := s.load(indexPath, metaPath); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) load(indexPath, metaPath string) error {
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("read metadata document: %w", err)
	}
	if err := validateMetadataDocument(metaBytes); err != nil {
		return err
	}
	meta, err := DecodeMetadata(readerOf(metaBytes))
	if err != nil {
		return err
	}

	indexFile, err := os.Open(indexPath)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer indexFile.Close()
	index, err := DecodeIndex(indexFile, s.dim)
	if err != nil {
		return err
	}

	if index.Len() != meta.Len() {
		return fmt.Errorf("%w: index holds %d vectors, metadata holds %d records", ErrInconsistent, index.Len(), meta.Len())
	}

	s.index = index
	s.meta = meta
	return nil
}

// Dim returns the configured embedding dimensionality.
func (s *Store) Dim() int { return s.dim }

// Dir returns the vectorstore directory.
func (s *Store) Dir() string { return s.dir }

// Count returns the number of indexed chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Len()
}

// Add embeds text and appends the vector and its metadata record as one
// logical step. The embedding call happens before the lock is taken; the
// appends to both structures happen under a single write-lock acquisition so
// concurrent Adds cannot interleave their halves.
func (s *Store) Add(ctx context.Context, text string, modality Modality, sourceFile string, pageNum *int) (string, error) {
	if !modality.Valid() {
		return "", fmt.Errorf("unsupported modality %q", modality)
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed chunk: %w", err)
	}
	if len(vec) != s.dim {
		return "", fmt.Errorf("embedding dimension mismatch: got %d, configured %d", len(vec), s.dim)
	}

	rec := ChunkRecord{
		ID:          uuid.NewString(),
		Modality:    modality,
		SourceFile:  sourceFile,
		PageNum:     pageNum,
		TextExcerpt: text,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.meta.Get(rec.ID); exists {
		return "", fmt.Errorf("duplicate chunk id %s", rec.ID)
	}
	if err := s.index.Append(vec); err != nil {
		return "", err
	}
	if err := s.meta.Append(rec); err != nil {
		// Unreachable with fresh uuids; never leave the structures misaligned.
		panic(fmt.Sprintf("vectorstore: metadata append failed after index append: %v", err))
	}
	return rec.ID, nil
}

// Search returns up to topK records ordered by ascending distance from the
// query vector, mapped through the positional correlation between index and
// metadata. An empty store returns no results and no error.
func (s *Store) Search(query []float32, topK int) ([]ChunkRecord, []float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions, dists, err := s.index.Search(query, topK)
	if err != nil {
		return nil, nil, err
	}
	records := make([]ChunkRecord, 0, len(positions))
	for _, pos := range positions {
		rec, ok := s.meta.At(pos)
		if !ok {
			return nil, nil, fmt.Errorf("%w: index position %d has no metadata record", ErrInconsistent, pos)
		}
		records = append(records, rec)
	}
	return records, dists, nil
}

// Flush serializes both artifacts to disk. Each file is written to a
// temporary location and renamed into place, index first, so a crash
// mid-flush never leaves a new metadata document next to an old index.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if err := writeFileAtomic(filepath.Join(s.dir, IndexFileName), s.index.EncodeTo); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, MetadataFileName), s.meta.EncodeTo); err != nil {
		return fmt.Errorf("flush metadata: %w", err)
	}
	return nil
}

// Reset discards all in-memory state, recreates empty structures of the same
// dimensionality, and flushes immediately so a later crash cannot resurrect
// stale data. It holds the write lock for its whole duration, excluding all
// readers and writers. Reset is idempotent and safe to retry.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := NewFlatIndex(s.dim)
	if err != nil {
		return err
	}
	s.index = index
	s.meta = NewMetadataStore()
	return s.flushLocked()
}

// DocumentChunks returns the records belonging to one source file, in
// insertion order. An unknown file yields no records.
func (s *Store) DocumentChunks(sourceFile string) []ChunkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ChunkRecord
	for _, rec := range s.meta.Records() {
		if rec.SourceFile == sourceFile {
			out = append(out, rec)
		}
	}
	return out
}

// DocumentInfo summarizes the indexed chunks of one source file.
type DocumentInfo struct {
	SourceFile string   `json:"source_file"`
	Modality   Modality `json:"modality"`
	ChunkCount int      `json:"chunk_count"`
	Pages      []int    `json:"pages,omitempty"`
}

// Documents groups the metadata records by source file, in order of first
// appearance, reporting chunk counts and, for text chunks, the sorted set of
// page numbers encountered.
func (s *Store) Documents() []DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var order []string
	byFile := make(map[string]*DocumentInfo)
	pages := make(map[string]map[int]struct{})

	for _, rec := range s.meta.Records() {
		info, ok := byFile[rec.SourceFile]
		if !ok {
			info = &DocumentInfo{SourceFile: rec.SourceFile, Modality: rec.Modality}
			byFile[rec.SourceFile] = info
			pages[rec.SourceFile] = make(map[int]struct{})
			order = append(order, rec.SourceFile)
		}
		info.ChunkCount++
		if rec.Modality == ModalityText && rec.PageNum != nil {
			pages[rec.SourceFile][*rec.PageNum] = struct{}{}
		}
	}

	out := make([]DocumentInfo, 0, len(order))
	for _, file := range order {
		info := byFile[file]
		if seen := pages[file]; len(seen) > 0 {
			info.Pages = make([]int, 0, len(seen))
			for p := range seen {
				info.Pages = append(info.Pages, p)
			}
			sort.Ints(info.Pages)
		}
		out = append(out, *info)
	}
	return out
}
