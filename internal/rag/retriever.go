// internal/rag/retriever.go
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/mneme/internal/providers"
	"github.com/mwiater/mneme/internal/vectorstore"
)

// NoDocumentsAnswer is returned verbatim by Answer when the store holds no
// chunks. No model calls are made in that case.
const NoDocumentsAnswer = "No documents have been indexed yet. Upload a document before asking a question."

const assistantSystemPrompt = "You are a helpful expert assistant."

// RetrievedChunk pairs a chunk's metadata with its distance from the query.
type RetrievedChunk struct {
	Record   vectorstore.ChunkRecord
	Distance float32
}

// Answer is the grounded response to a question: the model's text plus the
// distinct sources it was grounded on.
type Answer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Engine runs the two-stage retrieval protocol: ask the chat model what to
// look up, search the store with the hint, then answer from the retrieved
// context only.
type Engine struct {
	store     *vectorstore.Store
	embedder  providers.Embedder
	chat      providers.ChatProvider
	chatModel string
	topK      int
}

// NewEngine wires an Engine over the given store and model collaborators.
// defaultTopK is used when a caller passes topK <= 0.
func NewEngine(store *vectorstore.Store, embedder providers.Embedder, chat providers.ChatProvider, chatModel string, defaultTopK int) *Engine {
	return &Engine{
		store:     store,
		embedder:  embedder,
		chat:      chat,
		chatModel: chatModel,
		topK:      defaultTopK,
	}
}

// RetrieveChunks embeds the query and returns the topK nearest chunks,
// closest first. An empty store yields no results and no error, without
// calling the embedding model.
func (e *Engine) RetrieveChunks(ctx context.Context, query string, topK int) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = e.topK
	}
	if e.store.Count() == 0 {
		return nil, nil
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	records, dists, err := e.store.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("searching store: %w", err)
	}

	chunks := make([]RetrievedChunk, len(records))
	for i, rec := range records {
		chunks[i] = RetrievedChunk{Record: rec, Distance: dists[i]}
	}
	return chunks, nil
}

// Answer runs the full protocol for a question. Stage one asks the chat
// model for a retrieval hint, stage two searches with that hint, and the
// final call answers strictly from the retrieved context. When nothing is
// indexed, or the hint retrieves nothing, the fixed NoDocumentsAnswer comes
// back instead of invoking the model on an empty context.
func (e *Engine) Answer(ctx context.Context, query string, topK int) (Answer, error) {
	if e.store.Count() == 0 {
		return Answer{Answer: NoDocumentsAnswer}, nil
	}

	hint, err := e.chat.Chat(ctx, providers.ChatRequest{
		Model:        e.chatModel,
		SystemPrompt: assistantSystemPrompt,
		UserPrompt:   hintPrompt(query),
	})
	if err != nil {
		return Answer{}, fmt.Errorf("generating retrieval hint: %w", err)
	}

	chunks, err := e.RetrieveChunks(ctx, hint, topK)
	if err != nil {
		return Answer{}, err
	}
	if len(chunks) == 0 {
		return Answer{Answer: NoDocumentsAnswer}, nil
	}

	text, err := e.chat.Chat(ctx, providers.ChatRequest{
		Model:        e.chatModel,
		SystemPrompt: assistantSystemPrompt,
		UserPrompt:   groundedPrompt(query, FormatContext(chunks)),
	})
	if err != nil {
		return Answer{}, fmt.Errorf("generating grounded answer: %w", err)
	}

	return Answer{Answer: text, Citations: CollectCitations(chunks)}, nil
}

func hintPrompt(query string) string {
	var b strings.Builder
	b.WriteString("You are an assistant with access to a vector store of documents.\n")
	b.WriteString("Decide what information you need to answer the user's question. ")
	b.WriteString("Return a clear query or keywords for retrieval.\n")
	b.WriteString("User Question: ")
	b.WriteString(query)
	return b.String()
}

func groundedPrompt(query, contextBlock string) string {
	return fmt.Sprintf("Answer the question using ONLY the context below.\n\nContext:\n%s\nQuestion: %s", contextBlock, query)
}
