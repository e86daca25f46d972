package entities

import "vetchat/internal/db"

type AppointmentsList struct {
	Appointments []db.Appointment `json:"appointments"`
	Total        int              `json:"total"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
