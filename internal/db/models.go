package db

import "time"

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Appointment is a persisted booking. Status is free text; the constants
// above are the values the clinic uses.
type Appointment struct {
	ID        int64      `json:"id"`
	OwnerName string     `json:"name"`
	PetName   string     `json:"pet_name"`
	Phone     string     `json:"phone"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	Service   string     `json:"service"`
	Notes     string     `json:"notes"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type User struct {
	ID           int64     `json:"-"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"-"`
}
