package service

import (
	"context"
	"fmt"
	"strings"

	"luvv/internal/entity/dto"
	"luvv/internal/storage"
	"luvv/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	cardCategory    = "cards"
	maxNameTokenLen = 32
)

// CardService stores browser-rendered greeting cards for share links.
type CardService struct {
	store         storage.Storage
	publicBaseURL string
	maxBytes      int
}

func NewCardService(store storage.Storage, publicBaseURL string, maxBytes int) *CardService {
	return &CardService{store: store, publicBaseURL: publicBaseURL, maxBytes: maxBytes}
}

// Save decodes the data URL, checks it is an image within the size limit and stores it.
func (s *CardService) Save(ctx context.Context, req dto.CardUploadRequest) (*dto.CardUploadResponse, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("card storage is not configured")
	}

	data, mimeType, ext, err := utils.DecodeMediaPayload(req.Image)
	if err != nil {
		return nil, newValidationError("image must be a base64 data URL", map[string]interface{}{"field": "image"})
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, newValidationError("only image uploads are accepted", map[string]interface{}{"mime_type": mimeType})
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return nil, newValidationError(fmt.Sprintf("image exceeds %d bytes", s.maxBytes), map[string]interface{}{"size": len(data)})
	}

	baseName := uuid.NewString()
	if token := storage.SafeBaseName(req.Recipient, maxNameTokenLen); token != "" {
		baseName = token + "-" + baseName
	}

	key, err := s.store.Save(ctx, data, storage.SaveOptions{
		Category:    cardCategory,
		Extension:   ext,
		ContentType: mimeType,
		BaseName:    baseName,
	})
	if err != nil {
		logrus.WithContext(ctx).WithError(err).Error("card_save_failed")
		return nil, fmt.Errorf("save card: %w", err)
	}

	logrus.WithContext(ctx).WithFields(logrus.Fields{
		"path":  key,
		"bytes": len(data),
	}).Info("card_saved")
	return &dto.CardUploadResponse{Path: key, URL: storage.PublicURL(s.publicBaseURL, key)}, nil
}
