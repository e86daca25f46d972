package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"vetchat/internal/db"
	"vetchat/internal/entities"
	"vetchat/internal/repository"
	"vetchat/pkg/logging"
)

type AppointmentManager interface {
	List(ctx context.Context) (entities.AppointmentsList, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*db.Appointment, error)
}

type AppointmentHandler struct {
	Service AppointmentManager
	logger  *logging.Logger
}

func NewAppointmentHandler(svc AppointmentManager, logger *logging.Logger) *AppointmentHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentHandler{Service: svc, logger: logger}
}

func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.logger.Error("listing appointments", "error", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateAppointment sets the status of one appointment. A missing body or
// status resets it to scheduled.
func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	var req entities.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if _, err := h.Service.UpdateStatus(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Appointment not found")
		case errors.Is(err, repository.ErrSlotTaken):
			writeError(w, http.StatusConflict, "Slot already booked")
		default:
			h.logger.Error("updating appointment", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Could not update appointment")
		}
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment updated successfully"})
}
