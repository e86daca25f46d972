package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"vetchat/internal/db"
	"vetchat/internal/entities"
)

// MemoryAppointmentRepository keeps appointments in process memory. It is
// used when no DATABASE_URL is configured and in tests.
type MemoryAppointmentRepository struct {
	mu           sync.Mutex
	nextID       int64
	appointments []db.Appointment
}

func NewMemoryAppointmentRepository() *MemoryAppointmentRepository {
	return &MemoryAppointmentRepository{nextID: 1}
}

func (r *MemoryAppointmentRepository) Create(_ context.Context, apt *db.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holdsSlot(*apt) && r.slotHeldLocked(apt.Date, apt.Time, 0) {
		return ErrSlotTaken
	}
	apt.ID = r.nextID
	r.nextID++
	if apt.CreatedAt.IsZero() {
		apt.CreatedAt = time.Now().UTC()
	}
	r.appointments = append(r.appointments, *apt)
	return nil
}

func (r *MemoryAppointmentRepository) Get(_ context.Context, id int64) (*db.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.appointments {
		if r.appointments[i].ID == id {
			apt := r.appointments[i]
			return &apt, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryAppointmentRepository) List(_ context.Context) ([]db.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]db.Appointment, len(r.appointments))
	copy(out, r.appointments)
	return out, nil
}

func (r *MemoryAppointmentRepository) ListByDate(_ context.Context, date string) ([]db.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []db.Appointment{}
	for _, apt := range r.appointments {
		if apt.Date == date && apt.Status != db.StatusCancelled {
			out = append(out, apt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (r *MemoryAppointmentRepository) UpdateStatus(_ context.Context, id int64, status string, updatedAt time.Time) (*db.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.appointments {
		apt := &r.appointments[i]
		if apt.ID != id {
			continue
		}
		candidate := *apt
		candidate.Status = status
		if holdsSlot(candidate) && !holdsSlot(*apt) && r.slotHeldLocked(apt.Date, apt.Time, id) {
			return nil, ErrSlotTaken
		}
		apt.Status = status
		ts := updatedAt
		apt.UpdatedAt = &ts
		out := *apt
		return &out, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryAppointmentRepository) BookedSlots(_ context.Context, fromDate, toDate string) ([]entities.SlotKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []entities.SlotKey
	for _, apt := range r.appointments {
		if !holdsSlot(apt) || apt.Date < fromDate || apt.Date > toDate {
			continue
		}
		keys = append(keys, entities.SlotKey{Date: apt.Date, Time: apt.Time})
	}
	return keys, nil
}

func (r *MemoryAppointmentRepository) slotHeldLocked(date, tm string, exceptID int64) bool {
	for _, apt := range r.appointments {
		if apt.ID != exceptID && holdsSlot(apt) && apt.Date == date && apt.Time == tm {
			return true
		}
	}
	return false
}
