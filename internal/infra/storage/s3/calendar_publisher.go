package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"rentalspot/internal/app/dto"
	"rentalspot/internal/app/services/calendars"
	"rentalspot/internal/domain/pricing"
)

// CalendarPublisher writes built months as JSON to calendars/{propertyId}/{YYYY-MM}.json.
type CalendarPublisher struct {
	Uploader Uploader
}

func CalendarKey(cal pricing.MonthCalendar) string {
	return fmt.Sprintf("calendars/%s/%s.json", cal.PropertyID, cal.Month)
}

func (p CalendarPublisher) PublishMonth(ctx context.Context, cal pricing.MonthCalendar) error {
	payload, err := json.Marshal(dto.MapPriceCalendar(cal))
	if err != nil {
		return fmt.Errorf("encode calendar %s: %w", CalendarKey(cal), err)
	}
	_, err = p.Uploader.Upload(ctx, CalendarKey(cal), bytes.NewReader(payload), int64(len(payload)), "application/json")
	return err
}

var _ calendars.SnapshotPublisher = CalendarPublisher{}
