package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"intake-backend/internal/llm"
)

// DefaultModel is used when LLM_MODEL is unset and the provider is gemini.
const DefaultModel = "gemini-2.5-flash"

// Client implements llm.Extractor on the Gemini API.
type Client struct {
	model  string
	client *genai.Client
}

// NewClient constructs a Gemini client using the Developer API backend.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{model: model, client: client}, nil
}

// Extract sends the instruction and the inline image and returns the JSON text.
func (c *Client) Extract(ctx context.Context, req llm.ExtractionRequest) (json.RawMessage, error) {
	contents, err := buildContents(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, generationConfig())
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp.UsageMetadata != nil {
		log.Printf("llm response model=%s prompt_version=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
			c.model, llm.IntakePromptVersion, resp.UsageMetadata.PromptTokenCount,
			resp.UsageMetadata.CandidatesTokenCount, resp.UsageMetadata.TotalTokenCount)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini response empty content")
	}
	return json.RawMessage(text), nil
}

func buildContents(req llm.ExtractionRequest) ([]*genai.Content, error) {
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("gemini: decode image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("gemini: empty image payload")
	}
	parts := []*genai.Part{
		genai.NewPartFromText(req.Instruction),
		genai.NewPartFromBytes(data, req.MimeType),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}
}

var _ llm.Extractor = (*Client)(nil)
