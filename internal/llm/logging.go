package llm

import (
	"context"
	"strings"

	"luvv/internal/utils"

	"github.com/sirupsen/logrus"
)

// previews are debug-only and cut short; prompts carry placeholders, never real names
const previewRunes = 120

func providerLogger(ctx context.Context, providerID, model string) *logrus.Entry {
	entry := logrus.WithField("provider", providerID)
	if model = strings.TrimSpace(model); model != "" {
		entry = entry.WithField("model", model)
	}
	if ctx == nil {
		return entry
	}
	if id := utils.RequestIDFromContext(ctx); id != "" {
		entry = entry.WithField("request_id", id)
	}
	return entry.WithContext(ctx)
}

func logSnippet(value string) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) > previewRunes {
		return string(runes[:previewRunes]) + "..."
	}
	return string(runes)
}
