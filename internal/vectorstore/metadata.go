// internal/vectorstore/metadata.go
package vectorstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Modality identifies the kind of content a chunk was extracted from.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
)

// Valid reports whether m is one of the supported modalities.
func (m Modality) Valid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityAudio:
		return true
	}
	return false
}

// ChunkRecord is the metadata stored for one indexed chunk. Records are
// immutable after creation; PageNum is only set for text (PDF) chunks.
type ChunkRecord struct {
	ID          string   `json:"id"`
	Modality    Modality `json:"modality"`
	SourceFile  string   `json:"source_file"`
	PageNum     *int     `json:"page_num"`
	TextExcerpt string   `json:"text_excerpt"`
}

// MetadataStore maps chunk id to record, preserving insertion order. The
// order is load-bearing: position k in the vector index corresponds to the
// k-th inserted record, so the persisted JSON object keeps its keys in
// insertion order and is decoded the same way.
type MetadataStore struct {
	order   []string
	records map[string]ChunkRecord
}

// NewMetadataStore creates an empty store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{records: make(map[string]ChunkRecord)}
}

// Len returns the number of stored records.
func (m *MetadataStore) Len() int { return len(m.order) }

// Append adds a record at the next position. Ids are never reused, so a
// duplicate id is an error.
func (m *MetadataStore) Append(rec ChunkRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("chunk record has empty id")
	}
	if _, exists := m.records[rec.ID]; exists {
		return fmt.Errorf("duplicate chunk id %s", rec.ID)
	}
	m.order = append(m.order, rec.ID)
	m.records[rec.ID] = rec
	return nil
}

// At returns the k-th record in insertion order.
func (m *MetadataStore) At(k int) (ChunkRecord, bool) {
	if k < 0 || k >= len(m.order) {
		return ChunkRecord{}, false
	}
	return m.records[m.order[k]], true
}

// Get returns the record for a chunk id.
func (m *MetadataStore) Get(id string) (ChunkRecord, bool) {
	rec, ok := m.records[id]
	return rec, ok
}

// Records returns a copy of all records in insertion order.
func (m *MetadataStore) Records() []ChunkRecord {
	out := make([]ChunkRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out
}

// EncodeTo writes the store as a single JSON object keyed by chunk id, keys
// in insertion order.
func (m *MetadataStore) EncodeTo(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range m.order {
		key, err := json.Marshal(id)
		if err != nil {
			return err
		}
		val, err := json.Marshal(m.records[id])
		if err != nil {
			return err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(m.order)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// DecodeMetadata reads a metadata document, preserving the key order of the
// JSON object as the insertion order.
func DecodeMetadata(r io.Reader) (*MetadataStore, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read metadata document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("metadata document is not a JSON object")
	}

	store := NewMetadataStore()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read metadata key: %w", err)
		}
		id, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("metadata key is not a string: %v", keyTok)
		}
		var rec ChunkRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode metadata record %s: %w", id, err)
		}
		if rec.ID == "" {
			rec.ID = id
		}
		if rec.ID != id {
			return nil, fmt.Errorf("metadata record id %s does not match key %s", rec.ID, id)
		}
		if err := store.Append(rec); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read metadata document end: %w", err)
	}
	return store, nil
}
