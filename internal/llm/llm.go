package llm

import (
	"context"
	"strings"
)

const (
	DriverGemini     = "gemini"
	DriverGroq       = "groq"
	DriverOpenRouter = "openrouter"
	DriverVolcengine = "volcengine"
)

// Prompt is the provider-agnostic request sent to an adapter.
type Prompt struct {
	System string
	User   string
}

// Provider generates raw text for a prompt. Implementations never retry; the caller owns
// retry and failover and every failure is reported as a *ProviderError.
type Provider interface {
	// ID is the origin tag stored with generated templates, e.g. "gemini-2.5-flash".
	ID() string
	// Name is the driver name used for quota configuration.
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// originTag builds the provider id stored in the template library and the usage ledger.
func originTag(driver, model string) string {
	model = strings.TrimSpace(model)
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		model = model[idx+1:]
	}
	model = strings.TrimSuffix(model, "-instant")
	model = strings.TrimSuffix(model, "-instruct")
	if model == "" {
		return driver
	}
	if strings.HasPrefix(model, driver) {
		return model
	}
	return driver + "-" + model
}
