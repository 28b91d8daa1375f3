// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/mneme/internal/ingest"
	"github.com/mwiater/mneme/internal/providers"
	"github.com/mwiater/mneme/internal/rag"
	"github.com/mwiater/mneme/internal/vectorstore"
)

func intPtr(v int) *int { return &v }

type hashEmbedder struct{ dim int }

func (e hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for i := range vec {
		h := fnv.New32a()
		_, _ = h.Write([]byte(text))
		_, _ = h.Write([]byte{byte(i)})
		vec[i] = float32(h.Sum32()%10000) / 100
	}
	return vec, nil
}

// echoChat answers every call with a fixed string; the hint stage echoes the
// question so retrieval sees predictable text.
type echoChat struct {
	answer   string
	requests []providers.ChatRequest
}

func (c *echoChat) Chat(_ context.Context, req providers.ChatRequest) (string, error) {
	c.requests = append(c.requests, req)
	if len(c.requests) == 1 {
		return req.UserPrompt, nil
	}
	return c.answer, nil
}

func newTestServer(t *testing.T) (*Server, *vectorstore.Store, *echoChat) {
	t.Helper()
	embedder := hashEmbedder{dim: 8}
	store, err := vectorstore.Open(t.TempDir(), 8, embedder)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	chat := &echoChat{answer: "a grounded answer"}
	engine := rag.NewEngine(store, embedder, chat, "llama3.2:3b", 3)
	pipeline := ingest.NewPipeline(store, ingest.Options{
		ChunkSize:    50,
		ChunkOverlap: 10,
	})
	return New(store, engine, pipeline, t.TempDir()), store, chat
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(part, fileContent); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, writer.FormDataContentType()
}

// TestHealthz exercises the liveness endpoint.
func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

// TestUploadIndexesFile verifies the upload endpoint saves, ingests, and
// reports the new chunks.
func TestUploadIndexesFile(t *testing.T) {
	srv, store, _ := newTestServer(t)

	body, contentType := multipartBody(t, nil, "file", "notes.txt", "the cache evicts the least recently used entry when full")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.OK || resp.Result.SourceFile != "notes.txt" || resp.Result.ChunkCount == 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if store.Count() != resp.Result.ChunkCount {
		t.Fatalf("store count %d does not match response %d", store.Count(), resp.Result.ChunkCount)
	}
}

// TestUploadRejectsUnsupportedType verifies an unsupported extension is
// reported without touching the index.
func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv, store, _ := newTestServer(t)

	body, contentType := multipartBody(t, nil, "file", "clip.mp4", "binary")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if store.Count() != 0 {
		t.Fatalf("store mutated: %d", store.Count())
	}
}

// TestAskJSON verifies a plain JSON ask against an indexed document comes
// back grounded with citations.
func TestAskJSON(t *testing.T) {
	srv, store, chat := newTestServer(t)

	const text = "the cache evicts the least recently used entry when full"
	if _, err := store.Add(context.Background(), text, vectorstore.ModalityText, "doc.pdf", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "What is the eviction policy?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp askResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != "a grounded answer" {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].SourceFile != "doc.pdf" {
		t.Fatalf("unexpected citations: %+v", resp.Citations)
	}
	if len(chat.requests) != 2 {
		t.Fatalf("expected two-stage protocol, got %d chat calls", len(chat.requests))
	}
}

// TestAskEmptyIndex verifies the fixed no-documents response with no model
// traffic.
func TestAskEmptyIndex(t *testing.T) {
	srv, _, chat := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "anything?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp askResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != rag.NoDocumentsAnswer {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
	if len(chat.requests) != 0 {
		t.Fatalf("model called on empty index: %d", len(chat.requests))
	}
}

// TestAskWithAttachment verifies the attachment's content reaches the model
// without being indexed.
func TestAskWithAttachment(t *testing.T) {
	srv, store, chat := newTestServer(t)

	if _, err := store.Add(context.Background(), "some indexed text", vectorstore.ModalityText, "doc.pdf", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before := store.Count()

	body, contentType := multipartBody(t,
		map[string]string{"question": "Summarize the attachment."},
		"file", "extra.txt", "fresh unindexed attachment content")
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.Count() != before {
		t.Fatalf("attachment was indexed: %d -> %d", before, store.Count())
	}
	hint := chat.requests[0].UserPrompt
	if !strings.Contains(hint, "fresh unindexed attachment content") || !strings.Contains(hint, "extra.txt") {
		t.Fatalf("attachment content missing from question:\n%s", hint)
	}
}

// TestAskRequiresQuestion verifies the validation guard.
func TestAskRequiresQuestion(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// TestDocumentDetail verifies the per-document listing: chunks sorted by
// page, excerpts truncated for display, and a 404 for unknown files.
func TestDocumentDetail(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	long := strings.Repeat("word ", 120)
	adds := []struct {
		text string
		page *int
	}{
		{"page two text", intPtr(2)},
		{long, intPtr(1)},
		{"page one more", intPtr(1)},
	}
	for _, add := range adds {
		if _, err := store.Add(ctx, add.text, vectorstore.ModalityText, "doc.pdf", add.page); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := store.Add(ctx, "other file", vectorstore.ModalityText, "other.pdf", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/doc.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp documentDetailResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SourceFile != "doc.pdf" || resp.ChunkCount != 3 || len(resp.Chunks) != 3 {
		t.Fatalf("unexpected detail response: %+v", resp)
	}
	if *resp.Chunks[0].PageNum != 1 || *resp.Chunks[1].PageNum != 1 || *resp.Chunks[2].PageNum != 2 {
		t.Fatalf("chunks not sorted by page: %+v", resp.Chunks)
	}
	// Equal pages keep insertion order.
	if !strings.HasPrefix(resp.Chunks[0].TextExcerpt, "word word") {
		t.Fatalf("unexpected first chunk: %+v", resp.Chunks[0])
	}
	if !strings.HasSuffix(resp.Chunks[0].TextExcerpt, "…") {
		t.Fatalf("long excerpt not truncated: %q", resp.Chunks[0].TextExcerpt)
	}
	for _, chunk := range resp.Chunks {
		if chunk.ID == "" {
			t.Fatalf("chunk missing id: %+v", chunk)
		}
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/nope.pdf", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown document, got %d", rec.Code)
	}
}

// TestRunShutdownFlushes verifies that canceling the serve context drains the
// server and flushes unsaved chunks to disk.
func TestRunShutdownFlushes(t *testing.T) {
	srv, store, _ := newTestServer(t)

	if _, err := store.Add(context.Background(), "persist me", vectorstore.ModalityText, "doc.pdf", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	reloaded, err := vectorstore.Open(store.Dir(), 8, hashEmbedder{dim: 8})
	if err != nil {
		t.Fatalf("Open after shutdown: %v", err)
	}
	if reloaded.Count() != 1 {
		t.Fatalf("expected shutdown flush to persist 1 chunk, got %d", reloaded.Count())
	}
}

// TestDocumentsAndReset verifies the listing endpoint and that reset leaves
// an empty index behind.
func TestDocumentsAndReset(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, "first", vectorstore.ModalityText, "a.pdf", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(ctx, "second", vectorstore.ModalityImage, "b.png", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var docs documentsResp
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if docs.Count != 2 || len(docs.Documents) != 2 {
		t.Fatalf("unexpected listing: %+v", docs)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.Count() != 0 {
		t.Fatalf("store not empty after reset: %d", store.Count())
	}
}
