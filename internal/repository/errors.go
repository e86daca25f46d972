package repository

import (
	"errors"

	"github.com/lib/pq"

	"vetchat/internal/db"
	"vetchat/internal/entities"
)

var (
	ErrNotFound   = errors.New("repository: not found")
	ErrSlotTaken  = errors.New("repository: slot already booked")
	ErrUserExists = errors.New("repository: user already exists")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// holdsSlot reports whether an appointment occupies its (date, time) pair.
// Cancelled appointments and sentinel dates or times never do.
func holdsSlot(a db.Appointment) bool {
	return a.Status != db.StatusCancelled &&
		a.Date != entities.NotSpecified &&
		a.Time != entities.NotSpecified
}
