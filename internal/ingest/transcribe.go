// internal/ingest/transcribe.go
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HTTPTranscriber posts audio files to a whisper-compatible transcription
// endpoint and returns the transcript text.
type HTTPTranscriber struct {
	client *http.Client
	url    string
}

// NewHTTPTranscriber targets the given transcription URL.
func NewHTTPTranscriber(url string, timeout time.Duration) *HTTPTranscriber {
	return &HTTPTranscriber{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// Transcribe uploads the file as multipart form data and decodes the
// {"text": ...} response.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading audio file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling transcription service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription service returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding transcription response: %w", err)
	}
	transcript := strings.TrimSpace(decoded.Text)
	if transcript == "" {
		return "", fmt.Errorf("transcription service returned an empty transcript for %s", path)
	}
	return transcript, nil
}
