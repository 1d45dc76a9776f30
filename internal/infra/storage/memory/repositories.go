package memory

import (
	"context"
	"sort"
	"sync"

	domainpricing "rentalspot/internal/domain/pricing"
	"rentalspot/internal/domain/property"
	"rentalspot/internal/domain/shared/daterange"
)

// RuleRepository is an in-memory rule store for demos and tests.
type RuleRepository struct {
	mu        sync.RWMutex
	configs   map[property.ID]property.Config
	seasons   map[property.ID][]domainpricing.SeasonalRule
	overrides map[property.ID]map[string]domainpricing.DateOverride
}

// NewRuleRepository builds an empty repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		configs:   make(map[property.ID]property.Config),
		seasons:   make(map[property.ID][]domainpricing.SeasonalRule),
		overrides: make(map[property.ID]map[string]domainpricing.DateOverride),
	}
}

// SaveConfig stores or replaces a property configuration.
func (r *RuleRepository) SaveConfig(cfg property.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.ID] = cfg
}

// SaveSeason stores a seasonal rule, replacing one with the same ID.
func (r *RuleRepository) SaveSeason(rule domainpricing.SeasonalRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.seasons[rule.PropertyID]
	for i := range list {
		if list[i].ID == rule.ID {
			list[i] = rule
			return
		}
	}
	r.seasons[rule.PropertyID] = append(list, rule)
}

// SaveOverride stores the override of one day, replacing any previous one.
func (r *RuleRepository) SaveOverride(o domainpricing.DateOverride) {
	meta := o.Meta()
	r.mu.Lock()
	defer r.mu.Unlock()
	byDate, ok := r.overrides[meta.PropertyID]
	if !ok {
		byDate = make(map[string]domainpricing.DateOverride)
		r.overrides[meta.PropertyID] = byDate
	}
	byDate[daterange.FormatDate(meta.Date)] = o
}

// DeleteOverride removes the override of one day.
func (r *RuleRepository) DeleteOverride(id property.ID, date string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides[id], date)
}

func (r *RuleRepository) PropertyConfig(ctx context.Context, id property.ID) (property.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	if !ok {
		return property.Config{}, property.ErrPropertyNotFound
	}
	return cfg, nil
}

func (r *RuleRepository) SeasonalRules(ctx context.Context, id property.ID) ([]domainpricing.SeasonalRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domainpricing.SeasonalRule(nil), r.seasons[id]...), nil
}

func (r *RuleRepository) DateOverrides(ctx context.Context, id property.ID, dr daterange.DateRange) ([]domainpricing.DateOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainpricing.DateOverride
	for _, o := range r.overrides[id] {
		if dr.ContainsDate(o.Meta().Date) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta().Date.Before(out[j].Meta().Date) })
	return out, nil
}

// PropertyIDs lists every configured property.
func (r *RuleRepository) PropertyIDs(ctx context.Context) ([]property.ID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]property.ID, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

var _ domainpricing.RuleStore = (*RuleRepository)(nil)
