// internal/server/server.go
// Package server exposes the index over HTTP: upload files for indexing,
// ask grounded questions, list indexed documents, and reset the store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mwiater/mneme/internal/ingest"
	"github.com/mwiater/mneme/internal/logging"
	"github.com/mwiater/mneme/internal/rag"
	"github.com/mwiater/mneme/internal/util"
	"github.com/mwiater/mneme/internal/vectorstore"
)

const maxUploadBytes = 64 << 20 // 64 MiB

// Server holds the shared engine, pipeline, and store behind the handlers.
type Server struct {
	store     *vectorstore.Store
	engine    *rag.Engine
	pipeline  *ingest.Pipeline
	uploadDir string
}

// New wires a Server. uploadDir is where uploaded files are kept; it is
// created on demand.
func New(store *vectorstore.Store, engine *rag.Engine, pipeline *ingest.Pipeline, uploadDir string) *Server {
	return &Server{
		store:     store,
		engine:    engine,
		pipeline:  pipeline,
		uploadDir: uploadDir,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /documents", s.handleDocuments)
	mux.HandleFunc("GET /documents/{filename}", s.handleDocumentDetail)
	mux.HandleFunc("POST /reset", s.handleReset)
	return mux
}

// Run serves the API on addr until ctx is canceled, then drains in-flight
// requests and flushes the store before returning, so an interrupt never
// loses chunks indexed since the last flush.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logging.LogEvent("listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := s.store.Flush(); err != nil {
		return fmt.Errorf("flushing store on shutdown: %w", err)
	}
	logging.LogEvent("server stopped")
	return nil
}

type errResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type uploadResp struct {
	OK     bool           `json:"ok"`
	Result *ingest.Result `json:"result"`
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type askResp struct {
	OK        bool           `json:"ok"`
	Answer    string         `json:"answer"`
	Citations []rag.Citation `json:"citations"`
}

type documentsResp struct {
	OK        bool                       `json:"ok"`
	Count     int                        `json:"chunk_count"`
	Documents []vectorstore.DocumentInfo `json:"documents"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logging.LogEvent("upload request from %s", r.RemoteAddr)

	path, err := s.saveUpload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Error: err.Error()})
		return
	}

	result, err := s.pipeline.IngestFile(r.Context(), path)
	if err != nil {
		logging.LogEvent("ingest error for %s: %v", filepath.Base(path), err)
		writeJSON(w, http.StatusUnprocessableEntity, errResp{Error: err.Error()})
		return
	}

	logging.LogEvent("indexed %s: %d chunks", result.SourceFile, result.ChunkCount)
	writeJSON(w, http.StatusOK, uploadResp{OK: true, Result: result})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	logging.LogEvent("ask request from %s", r.RemoteAddr)

	req, attachment, err := s.parseAsk(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Error: err.Error()})
		return
	}
	if attachment != nil {
		defer os.Remove(attachment.path)
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errResp{Error: "question is required"})
		return
	}

	question := req.Question
	if attachment != nil {
		// The attachment informs this question only; nothing is indexed.
		content, err := s.pipeline.DescribeAttachment(r.Context(), attachment.path)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errResp{Error: err.Error()})
			return
		}
		question = fmt.Sprintf("%s\n\nAttached file %s:\n%s", req.Question, attachment.name, content)
	}

	answer, err := s.engine.Answer(r.Context(), question, req.TopK)
	if err != nil {
		logging.LogEvent("ask error: %v", err)
		writeJSON(w, http.StatusBadGateway, errResp{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, askResp{OK: true, Answer: answer.Answer, Citations: answer.Citations})
}

func (s *Server) handleDocuments(w http.ResponseWriter, _ *http.Request) {
	docs := s.store.Documents()
	writeJSON(w, http.StatusOK, documentsResp{OK: true, Count: s.store.Count(), Documents: docs})
}

type documentChunk struct {
	ID          string `json:"id"`
	PageNum     *int   `json:"page_num"`
	TextExcerpt string `json:"text_excerpt"`
}

type documentDetailResp struct {
	OK         bool                 `json:"ok"`
	SourceFile string               `json:"source_file"`
	Modality   vectorstore.Modality `json:"modality"`
	ChunkCount int                  `json:"chunk_count"`
	Chunks     []documentChunk      `json:"chunks"`
}

// handleDocumentDetail lists one document's chunks sorted by page, with
// excerpts truncated for display.
func (s *Server) handleDocumentDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	records := s.store.DocumentChunks(name)
	if len(records) == 0 {
		writeJSON(w, http.StatusNotFound, errResp{Error: fmt.Sprintf("no document named %q", name)})
		return
	}

	chunks := make([]documentChunk, len(records))
	for i, rec := range records {
		chunks[i] = documentChunk{
			ID:          rec.ID,
			PageNum:     rec.PageNum,
			TextExcerpt: util.TruncateRunes(rec.TextExcerpt, 200),
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return pageOrZero(chunks[i].PageNum) < pageOrZero(chunks[j].PageNum)
	})

	writeJSON(w, http.StatusOK, documentDetailResp{
		OK:         true,
		SourceFile: name,
		Modality:   records[0].Modality,
		ChunkCount: len(records),
		Chunks:     chunks,
	})
}

func pageOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	logging.LogEvent("reset request from %s", r.RemoteAddr)
	if err := s.store.Reset(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// saveUpload stores the multipart "file" part under the upload directory
// and returns its path.
func (s *Server) saveUpload(r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errors.New("invalid file name")
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	path := filepath.Join(s.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return path, nil
}

type askAttachment struct {
	path string
	name string
}

// parseAsk accepts either a JSON body or a multipart form with an optional
// one-off attachment. The attachment is nil for plain JSON asks; the caller
// removes its temp file.
func (s *Server) parseAsk(w http.ResponseWriter, r *http.Request) (askRequest, *askAttachment, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		var req askRequest
		if err := decodeJSON(w, r, &req, 1<<20); err != nil {
			return askRequest{}, nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return req, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return askRequest{}, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	req := askRequest{Question: r.FormValue("question")}
	if v := r.FormValue("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return askRequest{}, nil, fmt.Errorf("invalid top_k %q", v)
		}
		req.TopK = n
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return askRequest{}, nil, fmt.Errorf("reading attachment: %w", err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "mneme-attach-*"+filepath.Ext(header.Filename))
	if err != nil {
		return askRequest{}, nil, err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return askRequest{}, nil, fmt.Errorf("reading attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return askRequest{}, nil, err
	}
	return req, &askAttachment{path: tmp.Name(), name: filepath.Base(header.Filename)}, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
