package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"vetchat/internal/db"
)

type stubMessageCreator struct {
	params []*openapi.CreateMessageParams
	err    error
}

func (s *stubMessageCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	s.params = append(s.params, params)
	if s.err != nil {
		return nil, s.err
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

type stubMailSender struct {
	messages []*mail.SGMailV3
	status   int
	err      error
}

func (s *stubMailSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	s.messages = append(s.messages, email)
	if s.err != nil {
		return nil, s.err
	}
	return &rest.Response{StatusCode: s.status, Body: "{}"}, nil
}

func sampleAppointment() db.Appointment {
	return db.Appointment{
		ID:        7,
		OwnerName: "John Smith",
		PetName:   "Max",
		Phone:     "+15550100",
		Date:      "2026-10-20",
		Time:      "14:00",
		Service:   "general checkup",
		Notes:     "limping",
		Status:    db.StatusScheduled,
		CreatedAt: time.Date(2026, time.October, 19, 15, 0, 0, 0, time.UTC),
	}
}

func TestFormatAppointmentNotification(t *testing.T) {
	msg := FormatAppointmentNotification(sampleAppointment())

	assert.Contains(t, msg, "NEW APPOINTMENT REQUEST")
	assert.Contains(t, msg, "Appointment ID: #7")
	assert.Contains(t, msg, "Owner: John Smith")
	assert.Contains(t, msg, "Pet: Max")
	assert.Contains(t, msg, "Date: 2026-10-20")
	assert.Contains(t, msg, "Time: 14:00")
	assert.Contains(t, msg, "Status: scheduled")
	assert.Contains(t, msg, "Requested at: 2026-10-19 15:00")
	assert.Contains(t, msg, "Please review and confirm this appointment in your admin panel.")
}

func TestWhatsAppNotifierSend(t *testing.T) {
	api := &stubMessageCreator{}
	n := NewWhatsAppNotifier("", "", "+14155238886", "whatsapp:+15550199")
	n.api = api

	require.NoError(t, n.Send(context.Background(), "subject", "hello"))
	require.Len(t, api.params, 1)
	assert.Equal(t, "whatsapp:+15550199", *api.params[0].To)
	assert.Equal(t, "whatsapp:+14155238886", *api.params[0].From)
	assert.Equal(t, "hello", *api.params[0].Body)

	api.err = errors.New("invalid number")
	assert.ErrorContains(t, n.Send(context.Background(), "subject", "hello"), "invalid number")
}

func TestWhatsAppNotifierDisabled(t *testing.T) {
	n := NewWhatsAppNotifier("", "", "", "")
	assert.ErrorIs(t, n.Send(context.Background(), "s", "b"), ErrNotificationDisabled)

	n = NewWhatsAppNotifier("AC123", "token", "+14155238886", "")
	assert.ErrorIs(t, n.Send(context.Background(), "s", "b"), ErrNotificationDisabled)
}

func TestEmailNotifier(t *testing.T) {
	sender := &stubMailSender{status: http.StatusAccepted}
	n := NewEmailNotifier("", "bot@clinic.test", "Clinic Bot", "admin@clinic.test", "Dr. Venky Pet Clinic")
	n.client = sender

	require.NoError(t, n.SendAppointment(context.Background(), sampleAppointment()))
	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, "New appointment request #7", msg.Subject)
	assert.Equal(t, "admin@clinic.test", msg.Personalizations[0].To[0].Address)
	require.Len(t, msg.Content, 2)
	assert.Contains(t, msg.Content[1].Value, "<td>Max</td>")

	sender.status = http.StatusBadRequest
	assert.ErrorContains(t, n.Send(context.Background(), "digest", "body"), "status 400")
}

func TestEmailNotifierDisabled(t *testing.T) {
	n := NewEmailNotifier("SG.key", "bot@clinic.test", "Clinic Bot", "", "Clinic")
	assert.ErrorIs(t, n.Send(context.Background(), "s", "b"), ErrNotificationDisabled)
	assert.ErrorIs(t, n.SendAppointment(context.Background(), sampleAppointment()), ErrNotificationDisabled)
}

type richChannel struct {
	stubChannel
	appointments []db.Appointment
}

func (c *richChannel) SendAppointment(_ context.Context, apt db.Appointment) error {
	c.appointments = append(c.appointments, apt)
	return c.err
}

func TestNotificationServiceDelivery(t *testing.T) {
	whatsapp := &stubChannel{name: "WhatsApp"}
	email := &richChannel{stubChannel: stubChannel{name: "email", err: ErrNotificationDisabled}}
	svc := NewNotificationService(nil, nil, whatsapp, email)

	d := svc.NotifyAppointment(context.Background(), sampleAppointment())
	assert.True(t, d.OK())
	assert.Equal(t, []string{"WhatsApp"}, d.Delivered)
	assert.Equal(t, []string{"email"}, d.Failed)

	require.Len(t, whatsapp.bodies, 1)
	assert.Contains(t, whatsapp.bodies[0], "Appointment ID: #7")
	assert.Len(t, email.appointments, 1)
	assert.Empty(t, email.bodies)
}

func TestNotificationServiceAllFail(t *testing.T) {
	svc := NewNotificationService(nil, nil, &stubChannel{name: "WhatsApp", err: ErrNotificationDisabled})

	d := svc.Broadcast(context.Background(), "digest", "body")
	assert.False(t, d.OK())
	assert.Equal(t, []string{"WhatsApp"}, d.Failed)
}
