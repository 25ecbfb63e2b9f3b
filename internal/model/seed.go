package model

import (
	"context"
	"fmt"

	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
	"luvv/internal/message"

	"github.com/sirupsen/logrus"
)

// SeedDefaultTemplates fills an empty message library with the generic greetings so the
// safety net always has something to serve.
func SeedDefaultTemplates(ctx context.Context, repo Repository) error {
	if repo == nil {
		return nil
	}

	count, err := repo.CountTemplates(ctx)
	if err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	seeds := buildDefaultTemplateSeeds()
	if err := repo.CreateTemplates(ctx, seeds); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	logrus.WithField("count", len(seeds)).Info("message_library_seeded")
	return nil
}

func buildDefaultTemplateSeeds() []db.MessageTemplate {
	seeds := make([]db.MessageTemplate, 0, len(message.GenericFallbacks))
	for _, text := range message.GenericFallbacks {
		seeds = append(seeds, db.MessageTemplate{
			Relationship: dto.GenericScope,
			Tone:         dto.GenericScope,
			MessageText:  text,
			Provider:     dto.ProviderTagSeed,
		})
	}
	return seeds
}
