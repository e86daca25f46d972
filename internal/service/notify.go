package service

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"vetchat/internal/db"
	"vetchat/internal/metrics"
	"vetchat/pkg/logging"
)

// ErrNotificationDisabled is returned by a channel that lacks credentials.
var ErrNotificationDisabled = errors.New("notification channel not configured")

const newAppointmentSubject = "New appointment request"

// Notifier delivers a plain-text message to the clinic admin on one channel.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, subject, body string) error
}

// AppointmentNotifier is what the chat pipeline needs after a booking.
type AppointmentNotifier interface {
	NotifyAppointment(ctx context.Context, apt db.Appointment) Delivery
}

// Delivery lists the channels that accepted or rejected a message.
type Delivery struct {
	Delivered []string
	Failed    []string
}

// OK reports whether at least one channel accepted the message.
func (d Delivery) OK() bool {
	return len(d.Delivered) > 0
}

// FormatAppointmentNotification builds the admin message for a new booking.
func FormatAppointmentNotification(apt db.Appointment) string {
	var b strings.Builder
	b.WriteString("🐾 NEW APPOINTMENT REQUEST\n\n")
	fmt.Fprintf(&b, "📋 Appointment ID: #%d\n", apt.ID)
	fmt.Fprintf(&b, "👤 Owner: %s\n", apt.OwnerName)
	fmt.Fprintf(&b, "🐕 Pet: %s\n", apt.PetName)
	fmt.Fprintf(&b, "📞 Phone: %s\n", apt.Phone)
	fmt.Fprintf(&b, "📅 Date: %s\n", apt.Date)
	fmt.Fprintf(&b, "🕐 Time: %s\n", apt.Time)
	fmt.Fprintf(&b, "🏥 Service: %s\n", apt.Service)
	fmt.Fprintf(&b, "📝 Notes: %s\n\n", apt.Notes)
	fmt.Fprintf(&b, "Status: %s\n", apt.Status)
	fmt.Fprintf(&b, "Requested at: %s\n\n", apt.CreatedAt.Format("2006-01-02 15:04"))
	b.WriteString("Please review and confirm this appointment in your admin panel.")
	return b.String()
}

// NotificationService fans a message out to every configured channel.
// Channel errors are logged and counted, never returned.
type NotificationService struct {
	channels []Notifier
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

func NewNotificationService(logger *logging.Logger, m *metrics.ChatMetrics, channels ...Notifier) *NotificationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &NotificationService{channels: channels, metrics: m, logger: logger}
}

// appointmentSender is implemented by channels with a richer booking format.
type appointmentSender interface {
	SendAppointment(ctx context.Context, apt db.Appointment) error
}

func (s *NotificationService) NotifyAppointment(ctx context.Context, apt db.Appointment) Delivery {
	subject := fmt.Sprintf("%s #%d", newAppointmentSubject, apt.ID)
	body := FormatAppointmentNotification(apt)
	return s.deliver(func(ch Notifier) error {
		if rich, ok := ch.(appointmentSender); ok {
			return rich.SendAppointment(ctx, apt)
		}
		return ch.Send(ctx, subject, body)
	})
}

func (s *NotificationService) Broadcast(ctx context.Context, subject, body string) Delivery {
	return s.deliver(func(ch Notifier) error {
		return ch.Send(ctx, subject, body)
	})
}

func (s *NotificationService) deliver(send func(Notifier) error) Delivery {
	var d Delivery
	for _, ch := range s.channels {
		err := send(ch)
		s.metrics.ObserveNotification(ch.Channel(), err == nil)
		if err != nil {
			s.logger.Warn("admin notification failed", "channel", ch.Channel(), "error", err)
			d.Failed = append(d.Failed, ch.Channel())
			continue
		}
		d.Delivered = append(d.Delivered, ch.Channel())
	}
	return d
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// WhatsAppNotifier sends through the Twilio WhatsApp sender.
type WhatsAppNotifier struct {
	api  messageCreator
	from string
	to   string
}

// NewWhatsAppNotifier returns a notifier that reports ErrNotificationDisabled
// when any credential or number is missing.
func NewWhatsAppNotifier(accountSID, authToken, from, to string) *WhatsAppNotifier {
	n := &WhatsAppNotifier{from: whatsappAddress(from), to: whatsappAddress(to)}
	if accountSID != "" && authToken != "" {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   accountSID,
			Password:   authToken,
			AccountSid: accountSID,
		})
		n.api = client.Api
	}
	return n
}

func whatsappAddress(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func (n *WhatsAppNotifier) Channel() string { return "WhatsApp" }

func (n *WhatsAppNotifier) Send(_ context.Context, _ string, body string) error {
	if n.api == nil || n.from == "" || n.to == "" {
		return ErrNotificationDisabled
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(body)

	if _, err := n.api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending whatsapp message: %w", err)
	}
	return nil
}

type mailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

//go:embed templates/appointment_email.html
var appointmentEmailHTML string

var appointmentEmailTemplate = template.Must(template.New("appointment_email").Parse(appointmentEmailHTML))

// EmailNotifier sends through SendGrid to the admin address.
type EmailNotifier struct {
	client     mailSender
	from       *mail.Email
	to         *mail.Email
	clinicName string
}

func NewEmailNotifier(apiKey, fromEmail, fromName, adminEmail, clinicName string) *EmailNotifier {
	n := &EmailNotifier{clinicName: clinicName}
	if apiKey != "" {
		n.client = sendgrid.NewSendClient(apiKey)
	}
	if fromEmail != "" {
		n.from = mail.NewEmail(fromName, fromEmail)
	}
	if adminEmail != "" {
		n.to = mail.NewEmail(clinicName, adminEmail)
	}
	return n
}

func (n *EmailNotifier) Channel() string { return "email" }

func (n *EmailNotifier) Send(_ context.Context, subject, body string) error {
	if n.client == nil || n.from == nil || n.to == nil {
		return ErrNotificationDisabled
	}
	html := "<pre>" + template.HTMLEscapeString(body) + "</pre>"
	return n.send(mail.NewSingleEmail(n.from, subject, n.to, body, html))
}

// SendAppointment mails the HTML rendering of a new booking.
func (n *EmailNotifier) SendAppointment(_ context.Context, apt db.Appointment) error {
	if n.client == nil || n.from == nil || n.to == nil {
		return ErrNotificationDisabled
	}
	var html bytes.Buffer
	subject := fmt.Sprintf("%s #%d", newAppointmentSubject, apt.ID)
	err := appointmentEmailTemplate.Execute(&html, map[string]any{
		"Subject":     subject,
		"Appointment": apt,
		"RequestedAt": apt.CreatedAt.Format(time.RFC1123),
		"ClinicName":  n.clinicName,
	})
	if err != nil {
		return fmt.Errorf("rendering appointment email: %w", err)
	}
	return n.send(mail.NewSingleEmail(n.from, subject, n.to, FormatAppointmentNotification(apt), html.String()))
}

func (n *EmailNotifier) send(message *mail.SGMailV3) error {
	resp, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("sending email via sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
