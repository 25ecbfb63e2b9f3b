package dto

// GenerateRequest is the inbound payload of POST /api/generate-luvv.
type GenerateRequest struct {
	Relationship string `json:"relationship"`
	Tone         string `json:"tone"`
	Recipient    string `json:"recipient"`
	Sender       string `json:"sender"`
}

// GenerateResponse carries 1-3 personalized messages and the path that produced them.
type GenerateResponse struct {
	Messages []string `json:"messages"`
	Provider string   `json:"provider"`
}

const (
	ProviderTagCache     = "cache"
	ProviderTagSafetyNet = "safety-net"
	ProviderTagSeed      = "seed"
)
