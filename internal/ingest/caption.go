// internal/ingest/caption.go
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/mneme/internal/providers"
)

const captionPrompt = "Describe this image in detail. Mention any visible text, objects, and the overall scene."

// VisionCaptioner describes images through a multimodal chat model.
type VisionCaptioner struct {
	chat  providers.ChatProvider
	model string
}

// NewVisionCaptioner binds a vision-capable model to the chat provider.
func NewVisionCaptioner(chat providers.ChatProvider, model string) *VisionCaptioner {
	return &VisionCaptioner{chat: chat, model: model}
}

// Caption sends the image to the vision model and returns its description.
func (c *VisionCaptioner) Caption(ctx context.Context, path string) (string, error) {
	caption, err := c.chat.Chat(ctx, providers.ChatRequest{
		Model:      c.model,
		UserPrompt: captionPrompt,
		ImagePaths: []string{path},
	})
	if err != nil {
		return "", fmt.Errorf("captioning %s: %w", path, err)
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return "", fmt.Errorf("vision model returned an empty caption for %s", path)
	}
	return caption, nil
}
