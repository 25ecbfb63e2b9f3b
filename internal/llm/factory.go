package llm

import (
	"fmt"
	"strings"

	"luvv/internal/config"

	"github.com/sirupsen/logrus"
)

// NewProviders builds the enabled providers in configured order. Drivers without an API key
// are skipped; an unknown driver name is a configuration error.
func NewProviders(cfg config.Config) ([]Provider, error) {
	providers := make([]Provider, 0, len(cfg.ProviderOrder))
	for _, driver := range cfg.ProviderOrder {
		if !driverEnabled(cfg, driver) {
			logrus.WithField("driver", driver).Info("llm_provider_disabled_missing_key")
			continue
		}
		provider, err := NewProvider(driver, cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, nil
}

// NewProvider instantiates the adapter for a driver.
func NewProvider(driver string, cfg config.Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverGemini:
		return NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, "")
	case DriverGroq:
		return NewOpenAICompatible(DriverGroq, cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL)
	case DriverOpenRouter:
		return NewOpenAICompatible(DriverOpenRouter, cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL)
	case DriverVolcengine:
		return NewVolcengine(cfg.VolcengineAPIKey, cfg.VolcengineModel, cfg.VolcengineBaseURL)
	default:
		return nil, fmt.Errorf("unsupported provider driver: %s", driver)
	}
}

func driverEnabled(cfg config.Config, driver string) bool {
	var key string
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverGemini:
		key = cfg.GeminiAPIKey
	case DriverGroq:
		key = cfg.GroqAPIKey
	case DriverOpenRouter:
		key = cfg.OpenRouterAPIKey
	case DriverVolcengine:
		key = cfg.VolcengineAPIKey
	default:
		return true
	}
	return strings.TrimSpace(key) != ""
}
