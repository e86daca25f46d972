package api

import (
	"context"
	"encoding/json"
	"net/http"

	"vetchat/internal/entities"
)

type ChatResponder interface {
	HandleMessage(ctx context.Context, message string) entities.ChatReply
}

type SlotLister interface {
	Slots(ctx context.Context) ([]entities.AvailableSlot, error)
}

type ChatHandler struct {
	Responder ChatResponder
	Slots     SlotLister
}

func NewChatHandler(chat ChatResponder, slots SlotLister) *ChatHandler {
	return &ChatHandler{Responder: chat, Slots: slots}
}

// Chat always answers 200 with a reply once the body decodes.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req entities.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	reply := h.Responder.HandleMessage(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, entities.ChatResponse{Reply: reply.Reply})
}

func (h *ChatHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.Slots.Slots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error checking availability")
		return
	}
	writeJSON(w, http.StatusOK, entities.SlotsResponse{Slots: slots})
}
