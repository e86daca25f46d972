package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vetchat/internal/entities"
	"vetchat/internal/llm"
	"vetchat/internal/utils"
	"vetchat/pkg/logging"
)

// BookingKeywords mark a message as a possible booking request.
var BookingKeywords = []string{"appointment", "book", "schedule"}

// ErrUnclassified is returned when the provider's answer carries no
// "appointment" field.
var ErrUnclassified = errors.New("extraction result has no appointment field")

// Extractor turns a chat message into an AppointmentRequest.
type Extractor interface {
	Extract(ctx context.Context, message string) (entities.AppointmentRequest, error)
}

const extractionPrompt = `You are an appointment extraction assistant for a veterinary clinic. Extract appointment details from user messages and respond ONLY with a JSON object.
Today is %s.
If the user wants to book an appointment, extract:
- name: pet owner's name
- pet_name: pet's name
- phone: phone number (if provided)
- date: preferred date (format: YYYY-MM-DD, if not specific use the next weekday)
- time: preferred time (format: HH:MM, 24-hour clock, if not specific use 10:00)
- service: type of service needed
- notes: any additional information

If it's not an appointment request, respond with: {"appointment": false}

Examples:
"I want to book appointment for my dog Max tomorrow at 2pm, my name is John" ->
{"appointment": true, "name": "John", "pet_name": "Max", "date": "%s", "time": "14:00", "service": "general checkup", "notes": ""}

"Hello" ->
{"appointment": false}`

// extractionTemperature is kept low but non-zero: the OpenAI client omits a
// zero temperature, which leaves the provider default in place.
const extractionTemperature float32 = 0.1

// LLMExtractor asks the completion provider for a JSON AppointmentRequest.
type LLMExtractor struct {
	client    llm.Client
	clock     Clock
	loc       *time.Location
	maxTokens int
}

func NewLLMExtractor(client llm.Client, clock Clock, loc *time.Location) *LLMExtractor {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LLMExtractor{client: client, clock: clock, loc: loc, maxTokens: 300}
}

func (e *LLMExtractor) Extract(ctx context.Context, message string) (entities.AppointmentRequest, error) {
	today := e.clock().In(e.loc)
	resp, err := e.client.Complete(ctx, llm.Request{
		System:      fmt.Sprintf(extractionPrompt, today.Format("Monday, 2006-01-02"), today.AddDate(0, 0, 1).Format(entities.DateLayout)),
		User:        message,
		MaxTokens:   e.maxTokens,
		Temperature: extractionTemperature,
		JSON:        true,
	})
	if err != nil {
		return entities.AppointmentRequest{}, err
	}

	body := []byte(utils.StripCodeFence(resp.Text))
	var classified struct {
		Appointment *bool `json:"appointment"`
	}
	if err := json.Unmarshal(body, &classified); err != nil {
		return entities.AppointmentRequest{}, fmt.Errorf("decoding extraction result: %w", err)
	}
	if classified.Appointment == nil {
		return entities.AppointmentRequest{}, ErrUnclassified
	}
	var req entities.AppointmentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return entities.AppointmentRequest{}, fmt.Errorf("decoding extraction result: %w", err)
	}
	if !req.IsBooking {
		return entities.AppointmentRequest{}, nil
	}
	return req.WithDefaults(), nil
}

// KeywordExtractor is the deterministic local rule: any booking keyword
// yields a booking for tomorrow at the default time with the whole message
// kept as notes.
type KeywordExtractor struct {
	keywords []string
	clock    Clock
	loc      *time.Location
}

func NewKeywordExtractor(clock Clock, loc *time.Location) *KeywordExtractor {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &KeywordExtractor{keywords: BookingKeywords, clock: clock, loc: loc}
}

func (e *KeywordExtractor) Extract(_ context.Context, message string) (entities.AppointmentRequest, error) {
	if !utils.ContainsAny(message, e.keywords) {
		return entities.AppointmentRequest{}, nil
	}
	tomorrow := e.clock().In(e.loc).AddDate(0, 0, 1)
	return entities.AppointmentRequest{
		IsBooking: true,
		Date:      tomorrow.Format(entities.DateLayout),
		Time:      entities.DefaultBookingTime,
		Notes:     message,
	}.WithDefaults(), nil
}

// FallbackExtractor runs the primary extractor and falls back to the
// secondary one on any error. With a secondary that never fails, neither
// does the composition.
type FallbackExtractor struct {
	primary   Extractor
	secondary Extractor
	logger    *logging.Logger
	onFailure func(error)
}

func NewFallbackExtractor(primary, secondary Extractor, logger *logging.Logger) *FallbackExtractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackExtractor{primary: primary, secondary: secondary, logger: logger}
}

// OnPrimaryFailure registers a hook called with every primary error.
func (e *FallbackExtractor) OnPrimaryFailure(fn func(error)) {
	e.onFailure = fn
}

func (e *FallbackExtractor) Extract(ctx context.Context, message string) (entities.AppointmentRequest, error) {
	req, err := e.primary.Extract(ctx, message)
	if err == nil {
		return req, nil
	}
	e.logger.Warn("extraction provider failed, using keyword rule", "error", err)
	if e.onFailure != nil {
		e.onFailure(err)
	}
	return e.secondary.Extract(ctx, message)
}
