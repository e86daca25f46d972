package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"vetchat/internal/db"
	"vetchat/internal/entities"
	"vetchat/internal/llm"
	"vetchat/internal/metrics"
	"vetchat/internal/repository"
	"vetchat/internal/utils"
	"vetchat/pkg/logging"
)

var tracer = otel.Tracer("vetchat/internal/service")

// AvailabilityKeywords send a non-booking message to the slot listing.
var AvailabilityKeywords = []string{"appointment", "book", "schedule", "available", "slots"}

const (
	EmptyMessageReply  = "Please enter a message."
	BookingFailedReply = "Sorry, there was an error booking your appointment. Please try again or call us directly."
	NoSlotsReply       = "Sorry, no slots available in the next week. Please call us directly to schedule."
	GeneralFailedReply = "Sorry, I couldn't process your request right now."
)

const generalPrompt = `You are a helpful assistant for %s, a veterinary clinic.
Services we offer: General checkups, Vaccinations, Surgery, Emergency care, Dental care, Grooming, Boarding.
Opening hours: Monday to Saturday, 9 AM - 6 PM. Closed on Sundays.
Be friendly, concise and professional. For medical emergencies always advise calling the clinic directly.
If the user wants to book an appointment, ask for their name, their pet's name, the preferred date and time and the service needed.`

type ChatConfig struct {
	ClinicName   string
	DisplayLimit int
	MaxTokens    int
	Temperature  float32
}

// ChatDeps groups the collaborators of ChatService.
type ChatDeps struct {
	Extractor    Extractor
	Completer    llm.Client
	Appointments repository.AppointmentStore
	Availability *AvailabilityService
	Cache        ResponseCache
	Notifier     AppointmentNotifier
	Canned       *CannedResponses
	Metrics      *metrics.ChatMetrics
	Clock        Clock
	Logger       *logging.Logger
}

// ChatService routes each chat message to a canned answer, a cached answer,
// a booking, the slot listing, or a general completion.
type ChatService struct {
	ChatDeps
	cfg ChatConfig
}

func NewChatService(deps ChatDeps, cfg ChatConfig) *ChatService {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Completer == nil {
		deps.Completer = llm.Disabled{}
	}
	if cfg.DisplayLimit <= 0 {
		cfg.DisplayLimit = 5
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	return &ChatService{ChatDeps: deps, cfg: cfg}
}

// HandleMessage never fails outward: every provider, storage or notification
// error is turned into a user-facing reply.
func (s *ChatService) HandleMessage(ctx context.Context, message string) entities.ChatReply {
	ctx, span := tracer.Start(ctx, "chat.handle_message")
	defer span.End()

	start := s.Clock()
	reply := s.route(ctx, strings.TrimSpace(message))

	span.SetAttributes(attribute.String("vetchat.route", string(reply.Route)))
	if reply.AppointmentID != 0 {
		span.SetAttributes(attribute.Int64("vetchat.appointment_id", reply.AppointmentID))
	}
	s.Metrics.ObserveReply(string(reply.Route), s.Clock().Sub(start))
	return reply
}

func (s *ChatService) route(ctx context.Context, message string) entities.ChatReply {
	if message == "" {
		return entities.ChatReply{Reply: EmptyMessageReply, Route: entities.RouteEmpty}
	}

	if reply, ok := s.Canned.Match(message); ok {
		return entities.ChatReply{Reply: reply, Route: entities.RouteCanned}
	}

	// Only messages without booking intent may be served from the cache.
	bookingIntent := utils.ContainsAny(message, BookingKeywords)
	key := utils.HashMessage(message)
	if !bookingIntent && s.Cache != nil {
		reply, hit := s.Cache.Get(ctx, key)
		s.Metrics.ObserveCacheLookup(hit)
		if hit {
			return entities.ChatReply{Reply: reply, Route: entities.RouteCached}
		}
	}

	req, err := s.Extractor.Extract(ctx, message)
	if err != nil {
		s.Logger.Warn("extraction failed", "error", err)
		req = entities.AppointmentRequest{}
	}
	if req.IsBooking {
		return s.book(ctx, req.WithDefaults())
	}

	if utils.ContainsAny(message, AvailabilityKeywords) {
		return s.listSlots(ctx)
	}
	return s.answer(ctx, message, key, !bookingIntent)
}

func (s *ChatService) book(ctx context.Context, req entities.AppointmentRequest) entities.ChatReply {
	ctx, span := tracer.Start(ctx, "chat.book")
	defer span.End()

	apt := db.Appointment{
		OwnerName: req.OwnerName,
		PetName:   req.PetName,
		Phone:     req.Phone,
		Date:      req.Date,
		Time:      req.Time,
		Service:   req.Service,
		Notes:     req.Notes,
		Status:    db.StatusScheduled,
		CreatedAt: s.Clock().UTC(),
	}
	if err := s.Appointments.Create(ctx, &apt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return s.slotTaken(ctx, apt)
		}
		span.RecordError(err)
		s.Logger.Error("failed to store appointment", "error", err)
		return entities.ChatReply{Reply: BookingFailedReply, Route: entities.RouteBookingFailed}
	}
	s.Logger.Info("appointment booked", "appointment_id", apt.ID, "date", apt.Date, "time", apt.Time)

	delivery := Delivery{}
	if s.Notifier != nil {
		delivery = s.Notifier.NotifyAppointment(ctx, apt)
	}
	return entities.ChatReply{
		Reply:         FormatBookingReply(apt, delivery, s.cfg.ClinicName),
		Route:         entities.RouteBooking,
		AppointmentID: apt.ID,
	}
}

// FormatBookingReply is the confirmation shown after a successful booking.
func FormatBookingReply(apt db.Appointment, delivery Delivery, clinicName string) string {
	var b strings.Builder
	b.WriteString("✅ Appointment booked successfully!\n\n")
	b.WriteString("📋 **Appointment Details:**\n")
	fmt.Fprintf(&b, "- **ID:** #%d\n", apt.ID)
	fmt.Fprintf(&b, "- **Owner:** %s\n", apt.OwnerName)
	fmt.Fprintf(&b, "- **Pet:** %s\n", apt.PetName)
	fmt.Fprintf(&b, "- **Date:** %s\n", apt.Date)
	fmt.Fprintf(&b, "- **Time:** %s\n", apt.Time)
	fmt.Fprintf(&b, "- **Service:** %s\n\n", apt.Service)
	b.WriteString("📞 We'll call you if we need to confirm any details.\n\n")
	if delivery.OK() {
		fmt.Fprintf(&b, "✅ Admin notified via %s\n\n", strings.Join(delivery.Delivered, " and "))
	} else {
		b.WriteString("⚠️ Admin notification failed\n\n")
	}
	fmt.Fprintf(&b, "Thank you for choosing %s!", clinicName)
	return b.String()
}

func (s *ChatService) slotTaken(ctx context.Context, apt db.Appointment) entities.ChatReply {
	reply := fmt.Sprintf("Sorry, %s at %s is already booked.", apt.Date, apt.Time)
	slots, err := s.Availability.Slots(ctx)
	if err != nil {
		s.Logger.Error("failed to load available slots", "error", err)
	}
	if len(slots) > 0 {
		reply += " Here are the next open slots:\n\n" + FormatSlots(slots, s.cfg.DisplayLimit)
	} else {
		reply += " Please call us directly to schedule."
	}
	return entities.ChatReply{Reply: reply, Route: entities.RouteSlotTaken}
}

func (s *ChatService) listSlots(ctx context.Context) entities.ChatReply {
	slots, err := s.Availability.Slots(ctx)
	if err != nil {
		s.Logger.Error("failed to load available slots", "error", err)
		return entities.ChatReply{Reply: NoSlotsReply, Route: entities.RouteNoSlots}
	}
	if len(slots) == 0 {
		return entities.ChatReply{Reply: NoSlotsReply, Route: entities.RouteNoSlots}
	}
	return entities.ChatReply{Reply: FormatAvailabilityReply(slots, s.cfg.DisplayLimit), Route: entities.RouteAvailability}
}

// FormatAvailabilityReply lists the first n slots with booking instructions.
func FormatAvailabilityReply(slots []entities.AvailableSlot, n int) string {
	return "📅 **Available Appointment Slots:**\n\n" +
		FormatSlots(slots, n) + "\n\n" +
		"To book an appointment, please provide:\n" +
		"- Your name\n" +
		"- Pet's name\n" +
		"- Preferred date and time\n" +
		"- Type of service needed\n\n" +
		`Example: "I want to book an appointment for my dog Max tomorrow at 2pm, my name is John Smith"`
}

func (s *ChatService) answer(ctx context.Context, message, key string, cacheable bool) entities.ChatReply {
	ctx, span := tracer.Start(ctx, "chat.general")
	defer span.End()

	resp, err := s.Completer.Complete(ctx, llm.Request{
		System:      fmt.Sprintf(generalPrompt, s.cfg.ClinicName),
		User:        message,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		span.RecordError(err)
		s.Metrics.ObserveProviderFailure("general")
		s.Logger.Warn("general completion failed", "error", err)
		return entities.ChatReply{Reply: GeneralFailedReply, Route: entities.RouteGeneralFailed}
	}

	reply := strings.TrimSpace(resp.Text)
	if cacheable && s.Cache != nil {
		s.Cache.Set(ctx, key, reply)
	}
	return entities.ChatReply{Reply: reply, Route: entities.RouteGeneral}
}
