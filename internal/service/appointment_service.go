package service

import (
	"context"
	"strings"
	"time"

	"vetchat/internal/db"
	"vetchat/internal/entities"
	"vetchat/internal/repository"
)

// AppointmentService backs the admin appointment endpoints.
type AppointmentService struct {
	store repository.AppointmentStore
	clock Clock
}

func NewAppointmentService(store repository.AppointmentStore, clock Clock) *AppointmentService {
	if clock == nil {
		clock = time.Now
	}
	return &AppointmentService{store: store, clock: clock}
}

func (s *AppointmentService) List(ctx context.Context) (entities.AppointmentsList, error) {
	apts, err := s.store.List(ctx)
	if err != nil {
		return entities.AppointmentsList{}, err
	}
	if apts == nil {
		apts = []db.Appointment{}
	}
	return entities.AppointmentsList{Appointments: apts, Total: len(apts)}, nil
}

func (s *AppointmentService) Get(ctx context.Context, id int64) (*db.Appointment, error) {
	return s.store.Get(ctx, id)
}

// UpdateStatus sets the status and update time. An empty status resets the
// appointment to scheduled. Unknown ids yield repository.ErrNotFound.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id int64, status string) (*db.Appointment, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		status = db.StatusScheduled
	}
	return s.store.UpdateStatus(ctx, id, status, s.clock().UTC())
}
