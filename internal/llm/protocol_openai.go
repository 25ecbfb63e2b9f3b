package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAICompatible talks to any OpenAI-style chat completions endpoint (Groq, OpenRouter).
type OpenAICompatible struct {
	client *openai.Client
	driver string
	model  string
	id     string
}

func NewOpenAICompatible(driver, apiKey, model, baseURL string) (*OpenAICompatible, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New(driver + " api key is not configured")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New(driver + " model is not configured")
	}

	clientConfig := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
		clientConfig.BaseURL = strings.TrimRight(trimmed, "/")
	}

	return &OpenAICompatible{
		client: openai.NewClientWithConfig(clientConfig),
		driver: driver,
		model:  strings.TrimSpace(model),
		id:     originTag(driver, model),
	}, nil
}

func (o *OpenAICompatible) ID() string {
	return o.id
}

func (o *OpenAICompatible) Name() string {
	return o.driver
}

func (o *OpenAICompatible) Generate(ctx context.Context, prompt Prompt) (string, error) {
	logger := providerLogger(ctx, o.id, o.model)
	start := time.Now()
	logger.WithField("prompt_preview", logSnippet(prompt.User)).Debug("llm_generate_start")

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(prompt.System); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt.User})

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: 0.9,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		perr := o.classify(ctx, err)
		logger.WithError(err).WithField("kind", perr.Kind).Warn("llm_generate_failed")
		return "", perr
	}

	if len(resp.Choices) == 0 {
		logger.Warn("llm_generate_empty")
		return "", emptyResponseError(o.id)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		logger.Warn("llm_generate_empty")
		return "", emptyResponseError(o.id)
	}

	logger.WithFields(logrus.Fields{
		"duration_ms":      time.Since(start).Milliseconds(),
		"response_preview": logSnippet(text),
	}).Info("llm_generate_success")
	return text, nil
}

func (o *OpenAICompatible) classify(ctx context.Context, err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return newProviderError(o.id, ErrorKindStatus, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return newProviderError(o.id, ErrorKindStatus, reqErr.HTTPStatusCode, err)
	}
	return classifyTransportError(ctx, o.id, err)
}
