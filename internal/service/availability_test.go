package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetchat/internal/db"
	"vetchat/internal/entities"
	"vetchat/internal/repository"
)

func TestAvailableSlotsStartsTomorrow(t *testing.T) {
	slots := AvailableSlots(fixedNow, entities.NewBookedSet(), DefaultSlotRule)

	require.Len(t, slots, 10)
	assert.Equal(t, entities.AvailableSlot{Date: "2026-10-20", Time: "09:00", Day: "Tuesday"}, slots[0])
	assert.Equal(t, entities.AvailableSlot{Date: "2026-10-20", Time: "17:00", Day: "Tuesday"}, slots[8])
	assert.Equal(t, entities.AvailableSlot{Date: "2026-10-21", Time: "09:00", Day: "Wednesday"}, slots[9])
}

func TestAvailableSlotsSkipsBooked(t *testing.T) {
	booked := entities.NewBookedSet(
		entities.SlotKey{Date: "2026-10-20", Time: "09:00"},
		entities.SlotKey{Date: "2026-10-20", Time: "11:00"},
	)
	slots := AvailableSlots(fixedNow, booked, DefaultSlotRule)

	require.NotEmpty(t, slots)
	assert.Equal(t, "10:00", slots[0].Time)
	assert.Equal(t, "12:00", slots[1].Time)
}

func TestAvailableSlotsExcludesClosedDay(t *testing.T) {
	rule := DefaultSlotRule
	rule.Limit = 1000
	slots := AvailableSlots(fixedNow, entities.NewBookedSet(), rule)

	// six open days of nine hourly slots
	assert.Len(t, slots, 54)
	for _, s := range slots {
		assert.NotEqual(t, "Sunday", s.Day)
		assert.NotEqual(t, "2026-10-25", s.Date)
	}
}

func TestAvailableSlotsInvariants(t *testing.T) {
	bookedSets := []entities.BookedSet{
		entities.NewBookedSet(),
		entities.NewBookedSet(entities.SlotKey{Date: "2026-10-20", Time: "09:00"}),
		entities.NewBookedSet(
			entities.SlotKey{Date: "2026-10-21", Time: "13:00"},
			entities.SlotKey{Date: "2026-10-22", Time: "09:00"},
			entities.SlotKey{Date: "2026-10-26", Time: "17:00"},
		),
	}
	for _, booked := range bookedSets {
		for _, horizon := range []int{0, 1, 6, 7, 14} {
			for _, limit := range []int{0, 1, 5, 10, 100} {
				rule := SlotRule{HorizonDays: horizon, StartHour: 9, EndHour: 18, ExcludedWeekday: time.Sunday, Limit: limit}
				slots := AvailableSlots(fixedNow, booked, rule)

				assert.LessOrEqual(t, len(slots), limit)
				prev := ""
				for _, s := range slots {
					assert.False(t, booked.Has(entities.SlotKey{Date: s.Date, Time: s.Time}))
					assert.NotEqual(t, "Sunday", s.Day)
					cur := s.Date + " " + s.Time
					assert.Less(t, prev, cur)
					prev = cur
				}
			}
		}
	}
}

func TestAvailableSlotsDeterministic(t *testing.T) {
	booked := entities.NewBookedSet(entities.SlotKey{Date: "2026-10-20", Time: "14:00"})
	assert.Equal(t, AvailableSlots(fixedNow, booked, DefaultSlotRule), AvailableSlots(fixedNow, booked, DefaultSlotRule))
}

func TestFormatSlots(t *testing.T) {
	slots := AvailableSlots(fixedNow, entities.NewBookedSet(), DefaultSlotRule)

	out := FormatSlots(slots, 2)
	assert.Equal(t, "• Tuesday, 2026-10-20 at 09:00\n• Tuesday, 2026-10-20 at 10:00", out)
	assert.Empty(t, FormatSlots(nil, 5))
}

func TestAvailabilityServiceIgnoresCancelled(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryAppointmentRepository()
	booked := &db.Appointment{Date: "2026-10-20", Time: "09:00", Status: db.StatusScheduled}
	cancelled := &db.Appointment{Date: "2026-10-20", Time: "10:00", Status: db.StatusScheduled}
	require.NoError(t, store.Create(ctx, booked))
	require.NoError(t, store.Create(ctx, cancelled))
	_, err := store.UpdateStatus(ctx, cancelled.ID, db.StatusCancelled, fixedNow)
	require.NoError(t, err)

	svc := NewAvailabilityService(store, DefaultSlotRule, fixedClock, time.UTC)
	slots, err := svc.Slots(ctx)
	require.NoError(t, err)

	require.NotEmpty(t, slots)
	assert.Equal(t, "10:00", slots[0].Time)
}

type failingStore struct {
	repository.AppointmentStore
}

func (failingStore) BookedSlots(context.Context, string, string) ([]entities.SlotKey, error) {
	return nil, errors.New("connection refused")
}

func TestAvailabilityServiceStoreError(t *testing.T) {
	svc := NewAvailabilityService(failingStore{}, DefaultSlotRule, fixedClock, time.UTC)
	_, err := svc.Slots(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}
