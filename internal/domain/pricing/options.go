package pricing

import (
	"fmt"
	"strings"
)

// SeasonTieBreak decides which of several enabled seasons covering the same day wins.
type SeasonTieBreak string

const (
	// TieBreakPriority: higher Priority, then narrower range, then latest created.
	TieBreakPriority SeasonTieBreak = "priority"
	// TieBreakSpecific: narrower range, then higher Priority, then latest created.
	TieBreakSpecific SeasonTieBreak = "specific"
	// TieBreakLatest: latest created, then higher Priority, then narrower range.
	TieBreakLatest SeasonTieBreak = "latest"
)

// WeekendStacking decides how the weekend multiplier interacts with an active season.
type WeekendStacking string

const (
	StackingSupersede WeekendStacking = "supersede"
	StackingCompound  WeekendStacking = "compound"
)

type Options struct {
	SeasonTieBreak  SeasonTieBreak
	WeekendStacking WeekendStacking
}

func DefaultOptions() Options {
	return Options{SeasonTieBreak: TieBreakPriority, WeekendStacking: StackingSupersede}
}

func ParseSeasonTieBreak(s string) (SeasonTieBreak, error) {
	switch v := SeasonTieBreak(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return TieBreakPriority, nil
	case TieBreakPriority, TieBreakSpecific, TieBreakLatest:
		return v, nil
	default:
		return "", fmt.Errorf("pricing: unknown season tie-break %q", s)
	}
}

func ParseWeekendStacking(s string) (WeekendStacking, error) {
	switch v := WeekendStacking(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return StackingSupersede, nil
	case StackingSupersede, StackingCompound:
		return v, nil
	default:
		return "", fmt.Errorf("pricing: unknown weekend stacking %q", s)
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.SeasonTieBreak == "" {
		o.SeasonTieBreak = def.SeasonTieBreak
	}
	if o.WeekendStacking == "" {
		o.WeekendStacking = def.WeekendStacking
	}
	return o
}
