package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	volcModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

//文档:https://www.volcengine.com/docs/82379/1494384

// Volcengine calls Ark chat completions (Doubao models).
type Volcengine struct {
	client *arkruntime.Client
	model  string
	id     string
}

func NewVolcengine(apiKey, model, baseURL string) (*Volcengine, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("volcengine api key is not configured")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("volcengine model is not configured")
	}

	options := []arkruntime.ConfigOption{arkruntime.WithRetryTimes(0)}
	if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
		options = append(options, arkruntime.WithBaseUrl(strings.TrimRight(trimmed, "/")))
	}

	return &Volcengine{
		client: arkruntime.NewClientWithApiKey(strings.TrimSpace(apiKey), options...),
		model:  strings.TrimSpace(model),
		id:     originTag(DriverVolcengine, model),
	}, nil
}

func (v *Volcengine) ID() string {
	return v.id
}

func (v *Volcengine) Name() string {
	return DriverVolcengine
}

func (v *Volcengine) Generate(ctx context.Context, prompt Prompt) (string, error) {
	logger := providerLogger(ctx, v.id, v.model)
	start := time.Now()
	logger.WithField("prompt_preview", logSnippet(prompt.User)).Debug("llm_generate_start")

	resp, err := v.client.CreateChatCompletion(ctx, volcModel.CreateChatCompletionRequest{
		Model:    v.model,
		Messages: buildVolcengineMessages(prompt),
	})
	if err != nil {
		perr := v.classify(ctx, err)
		logger.WithError(err).WithField("kind", perr.Kind).Warn("llm_generate_failed")
		return "", perr
	}

	text := volcengineResponseText(resp)
	if text == "" {
		logger.Warn("llm_generate_empty")
		return "", emptyResponseError(v.id)
	}

	logger.WithFields(logrus.Fields{
		"duration_ms":      time.Since(start).Milliseconds(),
		"response_preview": logSnippet(text),
	}).Info("llm_generate_success")
	return text, nil
}

func (v *Volcengine) classify(ctx context.Context, err error) *ProviderError {
	var apiErr *volcModel.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return newProviderError(v.id, ErrorKindStatus, apiErr.HTTPStatusCode, err)
	}
	return classifyTransportError(ctx, v.id, err)
}

func buildVolcengineMessages(prompt Prompt) []*volcModel.ChatCompletionMessage {
	messages := make([]*volcModel.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(prompt.System); system != "" {
		messages = append(messages, &volcModel.ChatCompletionMessage{
			Role:    volcModel.ChatMessageRoleSystem,
			Content: &volcModel.ChatCompletionMessageContent{StringValue: volcengine.String(system)},
		})
	}
	messages = append(messages, &volcModel.ChatCompletionMessage{
		Role:    volcModel.ChatMessageRoleUser,
		Content: &volcModel.ChatCompletionMessageContent{StringValue: volcengine.String(prompt.User)},
	})
	return messages
}

func volcengineResponseText(resp volcModel.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return ""
	}
	content := resp.Choices[0].Message.Content
	if content == nil || content.StringValue == nil {
		return ""
	}
	return strings.TrimSpace(*content.StringValue)
}
