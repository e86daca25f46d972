package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vetchat/internal/entities"
	"vetchat/internal/repository"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// SlotRule is the clinic's weekly schedule template.
type SlotRule struct {
	HorizonDays     int
	StartHour       int // inclusive
	EndHour         int // exclusive
	ExcludedWeekday time.Weekday
	Limit           int
}

// DefaultSlotRule is Monday to Saturday, 09:00 to 17:00 starts, a week ahead.
var DefaultSlotRule = SlotRule{
	HorizonDays:     7,
	StartHour:       9,
	EndHour:         18,
	ExcludedWeekday: time.Sunday,
	Limit:           10,
}

// AvailableSlots lists hourly slots from the day after now, skipping the
// excluded weekday and every booked slot, in chronological order and
// truncated to rule.Limit. It depends only on its arguments.
func AvailableSlots(now time.Time, booked entities.BookedSet, rule SlotRule) []entities.AvailableSlot {
	slots := []entities.AvailableSlot{}
	if rule.Limit <= 0 {
		return slots
	}
	first := startOfDay(now).AddDate(0, 0, 1)
	for i := 0; i < rule.HorizonDays; i++ {
		day := first.AddDate(0, 0, i)
		if day.Weekday() == rule.ExcludedWeekday {
			continue
		}
		date := day.Format(entities.DateLayout)
		for hour := rule.StartHour; hour < rule.EndHour; hour++ {
			key := entities.SlotKey{Date: date, Time: fmt.Sprintf("%02d:00", hour)}
			if booked.Has(key) {
				continue
			}
			slots = append(slots, entities.AvailableSlot{
				Date: key.Date,
				Time: key.Time,
				Day:  day.Weekday().String(),
			})
			if len(slots) == rule.Limit {
				return slots
			}
		}
	}
	return slots
}

// FormatSlots renders at most n slots as bullet lines.
func FormatSlots(slots []entities.AvailableSlot, n int) string {
	if n > 0 && len(slots) > n {
		slots = slots[:n]
	}
	lines := make([]string, 0, len(slots))
	for _, s := range slots {
		lines = append(lines, fmt.Sprintf("• %s, %s at %s", s.Day, s.Date, s.Time))
	}
	return strings.Join(lines, "\n")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AvailabilityService feeds AvailableSlots with the booked set from storage.
type AvailabilityService struct {
	store repository.AppointmentStore
	rule  SlotRule
	clock Clock
	loc   *time.Location
}

func NewAvailabilityService(store repository.AppointmentStore, rule SlotRule, clock Clock, loc *time.Location) *AvailabilityService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{store: store, rule: rule, clock: clock, loc: loc}
}

func (s *AvailabilityService) Slots(ctx context.Context) ([]entities.AvailableSlot, error) {
	now := s.clock().In(s.loc)
	first := startOfDay(now).AddDate(0, 0, 1)
	last := first.AddDate(0, 0, max(s.rule.HorizonDays-1, 0))

	keys, err := s.store.BookedSlots(ctx, first.Format(entities.DateLayout), last.Format(entities.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("loading booked slots: %w", err)
	}
	return AvailableSlots(now, entities.NewBookedSet(keys...), s.rule), nil
}
