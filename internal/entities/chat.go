package entities

// Route names the branch of the chat pipeline that produced a reply.
type Route string

const (
	RouteEmpty         Route = "empty"
	RouteCanned        Route = "canned"
	RouteCached        Route = "cached"
	RouteBooking       Route = "booking"
	RouteBookingFailed Route = "booking_failed"
	RouteSlotTaken     Route = "slot_taken"
	RouteAvailability  Route = "availability"
	RouteNoSlots       Route = "no_slots"
	RouteGeneral       Route = "general"
	RouteGeneralFailed Route = "general_failed"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatReply is what the orchestrator hands back to the transport layer.
type ChatReply struct {
	Reply         string
	Route         Route
	AppointmentID int64
}
