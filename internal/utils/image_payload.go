package utils

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// DecodeMediaPayload decodes an inline base64 or data URL payload and returns the raw
// bytes, the sniffed MIME type and a file extension.
func DecodeMediaPayload(payload string) ([]byte, string, string, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, "", "", fmt.Errorf("empty media payload")
	}

	declared, base64Payload, ok := splitDataURL(trimmed)
	if !ok || base64Payload == "" {
		return nil, "", "", fmt.Errorf("empty base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(base64Payload)
	if err != nil {
		return nil, "", "", fmt.Errorf("decode base64: %w", err)
	}

	sniffed := http.DetectContentType(data)
	if idx := strings.Index(sniffed, ";"); idx >= 0 {
		sniffed = sniffed[:idx]
	}
	mimeType := sniffed
	if mimeType == "application/octet-stream" && declared != "" {
		mimeType = declared
	}

	ext := ExtensionFromMime(mimeType)
	if ext == "" {
		ext = ExtensionFromMime(declared)
	}
	if ext == "" {
		ext = "bin"
	}

	return data, mimeType, ext, nil
}

// splitDataURL separates "data:<mime>;base64,<body>". A bare payload has no
// declared type.
func splitDataURL(value string) (declared, body string, ok bool) {
	rest, isDataURL := strings.CutPrefix(value, "data:")
	if !isDataURL {
		return "", value, true
	}
	declared, body, ok = strings.Cut(rest, ";base64,")
	if !ok {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(declared)), strings.TrimSpace(body), true
}

var preferredExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ExtensionFromMime maps a MIME type to a file extension without the leading dot.
func ExtensionFromMime(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" {
		return ""
	}
	if ext, ok := preferredExtensions[mimeType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.TrimPrefix(exts[0], ".")
}
