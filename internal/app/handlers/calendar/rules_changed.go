package calendar

import (
	"context"
	"encoding/json"
	"fmt"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/dto"
	"rentalspot/internal/app/middleware"
)

// RulesChangedEvent is published by the admin back-office after any rule edit.
const RulesChangedEvent = "pricing.rules_changed"

type RulesChanged struct {
	PropertyID string `json:"propertyId"`
	From       string `json:"from,omitempty"`
	Months     int    `json:"months,omitempty"`
}

// RulesChangedSubscriber rebuilds the cached calendar of the property whose rules changed.
type RulesChangedSubscriber struct {
	Commands commands.Bus
}

func (s RulesChangedSubscriber) Handle(ctx context.Context, data json.RawMessage) error {
	var ev RulesChanged
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", RulesChangedEvent, err)
	}
	_, err := commands.Dispatch[RebuildCalendarCommand, dto.RebuildResult](middleware.AsSystem(ctx), s.Commands, RebuildCalendarCommand{
		PropertyID: ev.PropertyID,
		From:       ev.From,
		Months:     ev.Months,
	})
	return err
}
