package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
	"rentalspot/internal/infra/storage/ruledoc"
)

func (a *application) loadPropertyFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	if path == "" {
		path = defaultPropertyFixturesPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("property fixtures file empty", "path", path)
		return nil
	}

	var fixtures []ruledoc.Fixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures {
		id := fx.Property.ID
		assignFixtureIDs(&fx)
		if _, _, _, err := fx.Rules(false); err != nil {
			logger.Error("fixture invalid", "property_id", id, "error", err)
			continue
		}
		if err := a.stores.saveFixture(ctx, fx); err != nil {
			logger.Error("cannot store fixture property", "property_id", id, "error", err)
			continue
		}
		if _, err := a.rebuilder.Rebuild(ctx, property.ID(id), daterange.YearMonth{}, 0); err != nil {
			logger.Error("cannot build calendar for fixture", "property_id", id, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", id, "seasons", len(fx.SeasonalPricing), "overrides", len(fx.DateOverrides))
	}
	return nil
}

// assignFixtureIDs names rules the file left anonymous so that reloading replaces them.
func assignFixtureIDs(fx *ruledoc.Fixture) {
	id := fx.Property.ID
	for i := range fx.SeasonalPricing {
		if fx.SeasonalPricing[i].ID == "" {
			fx.SeasonalPricing[i].ID = fmt.Sprintf("%s-season-%d", id, i+1)
		}
	}
	for i := range fx.DateOverrides {
		if fx.DateOverrides[i].ID == "" {
			fx.DateOverrides[i].ID = fmt.Sprintf("%s-%s", id, fx.DateOverrides[i].Date.Format(daterange.DateLayout))
		}
	}
}

func defaultPropertyFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "properties.json"),
		filepath.Join("..", "..", "data", "properties.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
