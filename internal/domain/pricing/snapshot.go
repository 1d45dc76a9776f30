package pricing

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

// RuleStore is the read-only accessor for a property's pricing rules.
type RuleStore interface {
	PropertyConfig(ctx context.Context, id property.ID) (property.Config, error)
	SeasonalRules(ctx context.Context, id property.ID) ([]SeasonalRule, error)
	// DateOverrides returns overrides for days in [dr.CheckIn, dr.CheckOut).
	DateOverrides(ctx context.Context, id property.ID, dr daterange.DateRange) ([]DateOverride, error)
}

// RuleSnapshot is an immutable view of every rule relevant to a pricing run.
type RuleSnapshot struct {
	Config    property.Config
	Seasons   []SeasonalRule
	overrides map[string]DateOverride
}

// NewSnapshot validates the rule inputs. Malformed data surfaces as *property.RuleDataError.
func NewSnapshot(cfg property.Config, seasons []SeasonalRule, overrides []DateOverride) (RuleSnapshot, error) {
	if err := cfg.Validate(); err != nil {
		return RuleSnapshot{}, err
	}
	for _, s := range seasons {
		if err := s.Validate(); err != nil {
			return RuleSnapshot{}, err
		}
	}
	byDate := make(map[string]DateOverride, len(overrides))
	for _, o := range overrides {
		if o == nil {
			continue
		}
		key := daterange.FormatDate(o.Meta().Date)
		if prev, dup := byDate[key]; dup {
			return RuleSnapshot{}, &property.RuleDataError{
				PropertyID: cfg.ID,
				Field:      "dateOverrides",
				Reason:     fmt.Sprintf("overrides %s and %s both target %s", prev.Meta().ID, o.Meta().ID, key),
			}
		}
		if p, ok := o.(PriceOverride); ok && p.Price.Currency != cfg.Currency {
			return RuleSnapshot{}, &property.RuleDataError{
				PropertyID: cfg.ID,
				Field:      "dateOverrides[" + p.ID + "].customPrice",
				Reason:     "currency " + p.Price.Currency + " differs from " + cfg.Currency,
			}
		}
		byDate[key] = o
	}
	return RuleSnapshot{Config: cfg, Seasons: append([]SeasonalRule(nil), seasons...), overrides: byDate}, nil
}

// Override returns the override for the exact day, if any.
func (s RuleSnapshot) Override(date string) (DateOverride, bool) {
	o, ok := s.overrides[date]
	return o, ok
}

// LoadSnapshot reads config, seasons and overrides for the range concurrently.
func LoadSnapshot(ctx context.Context, store RuleStore, id property.ID, dr daterange.DateRange) (RuleSnapshot, error) {
	var (
		cfg       property.Config
		seasons   []SeasonalRule
		overrides []DateOverride
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = store.PropertyConfig(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		seasons, err = store.SeasonalRules(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		overrides, err = store.DateOverrides(gctx, id, dr)
		return err
	})
	if err := g.Wait(); err != nil {
		return RuleSnapshot{}, err
	}
	return NewSnapshot(cfg, seasons, overrides)
}
