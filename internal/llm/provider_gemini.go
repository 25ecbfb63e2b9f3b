package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini calls Google Gemini with a JSON response schema of {messages: string[]}.
type Gemini struct {
	client *genai.Client
	model  string
	id     string
}

// NewGemini builds the adapter. baseURL is only set when pointing at a proxy or a test server.
func NewGemini(apiKey, model, baseURL string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultGeminiModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: trimmed}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, err
	}

	return &Gemini{client: client, model: model, id: originTag(DriverGemini, model)}, nil
}

func (g *Gemini) ID() string {
	return g.id
}

func (g *Gemini) Name() string {
	return DriverGemini
}

func (g *Gemini) Generate(ctx context.Context, prompt Prompt) (string, error) {
	logger := providerLogger(ctx, g.id, g.model)
	start := time.Now()
	logger.WithField("prompt_preview", logSnippet(prompt.User)).Debug("llm_generate_start")

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   messagesSchema(),
		Temperature:      genai.Ptr[float32](0.9),
	}
	if system := strings.TrimSpace(prompt.System); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt.User), config)
	if err != nil {
		perr := g.classify(ctx, err)
		logger.WithError(err).WithField("kind", perr.Kind).Warn("llm_generate_failed")
		return "", perr
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		logger.Warn("llm_generate_empty")
		return "", emptyResponseError(g.id)
	}

	logger.WithFields(logrus.Fields{
		"duration_ms":      time.Since(start).Milliseconds(),
		"response_preview": logSnippet(text),
	}).Info("llm_generate_success")
	return text, nil
}

func (g *Gemini) classify(ctx context.Context, err error) *ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		return newProviderError(g.id, ErrorKindStatus, apiErr.Code, err)
	}
	return classifyTransportError(ctx, g.id, err)
}

func messagesSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"messages": {
				Type:        genai.TypeArray,
				Description: "Three distinct greeting messages using [RECIPIENT] and [SENDER] placeholders",
				Items: &genai.Schema{
					Type: genai.TypeString,
				},
			},
		},
		Required: []string{"messages"},
	}
}
