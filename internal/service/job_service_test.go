package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetchat/internal/db"
	"vetchat/internal/repository"
)

func TestSendDailyDigest(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryAppointmentRepository()
	for _, apt := range []*db.Appointment{
		{OwnerName: "Bob", PetName: "Rex", Service: "dental", Date: "2026-10-20", Time: "11:00", Status: db.StatusScheduled},
		{OwnerName: "Ann", PetName: "Max", Service: "checkup", Date: "2026-10-20", Time: "09:00", Status: db.StatusConfirmed},
		{OwnerName: "Cid", PetName: "Tom", Service: "grooming", Date: "2026-10-21", Time: "09:00", Status: db.StatusScheduled},
	} {
		require.NoError(t, store.Create(ctx, apt))
	}
	channel := &stubChannel{name: "WhatsApp"}
	jobs := NewJobService(nil, store, NewNotificationService(nil, nil, channel), fixedClock, time.UTC, nil)

	require.NoError(t, jobs.SendDailyDigest(ctx))
	require.Len(t, channel.bodies, 1)
	assert.Equal(t, "Appointments for Tuesday, 2026-10-20", channel.subjects[0])
	body := channel.bodies[0]
	assert.Contains(t, body, "• 09:00 Max (Ann) - checkup [confirmed] #2")
	assert.Contains(t, body, "• 11:00 Rex (Bob) - dental [scheduled] #1")
	assert.NotContains(t, body, "Tom")
	assert.Less(t, strings.Index(body, "09:00"), strings.Index(body, "11:00"))
}

func TestSendDailyDigestEmptyAndUndelivered(t *testing.T) {
	ctx := context.Background()
	channel := &stubChannel{name: "WhatsApp", err: ErrNotificationDisabled}
	jobs := NewJobService(nil, repository.NewMemoryAppointmentRepository(), NewNotificationService(nil, nil, channel), fixedClock, time.UTC, nil)

	err := jobs.SendDailyDigest(ctx)
	assert.ErrorContains(t, err, "not delivered")
	require.Len(t, channel.bodies, 1)
	assert.Contains(t, channel.bodies[0], "No appointments booked.")
}

func TestSweepCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryResponseCache(1, time.Minute)
	cache.Set(ctx, "a", "A")
	cache.Set(ctx, "b", "B")

	jobs := NewJobService(cache, repository.NewMemoryAppointmentRepository(), nil, fixedClock, time.UTC, nil)
	assert.Equal(t, 1, jobs.SweepCache(ctx))
	assert.Equal(t, 0, jobs.SweepCache(ctx))

	assert.Equal(t, 0, NewJobService(nil, nil, nil, nil, nil, nil).SweepCache(ctx))
}

func TestJobServiceStartStop(t *testing.T) {
	jobs := NewJobService(NewMemoryResponseCache(10, time.Minute), repository.NewMemoryAppointmentRepository(), nil, nil, time.UTC, nil)

	require.NoError(t, jobs.Start("0 7 * * *"))
	<-jobs.Stop().Done()

	bad := NewJobService(nil, repository.NewMemoryAppointmentRepository(), nil, nil, time.UTC, nil)
	assert.Error(t, bad.Start("every tuesday"))
}
