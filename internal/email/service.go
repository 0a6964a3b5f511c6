package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

type Service interface {
	SendAppointmentBooked(ctx context.Context, to string, notice AppointmentNotice) error
	SendWelcome(ctx context.Context, email string, name string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// AppointmentNotice is what a doctor is told about a new booking.
type AppointmentNotice struct {
	AppointmentID  string
	ConsultationID string
	DoctorName     string
	PatientName    string
	Urgency        string
	Condition      string
	BookedAt       time.Time
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer Dialer
	from   string
	logger *logger.Logger
}

func NewSMTPService(cfg Config, log *logger.Logger) Service {
	return NewServiceWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, log)
}

func NewServiceWithDialer(d Dialer, from string, log *logger.Logger) Service {
	return &smtpService{dialer: d, from: from, logger: log}
}

func (s *smtpService) SendAppointmentBooked(ctx context.Context, to string, n AppointmentNotice) error {
	condition := n.Condition
	if condition == "" {
		condition = "Undiagnosed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", n.DoctorName)
	fmt.Fprintf(&b, "A new appointment (%s) has been booked by %s.\n\n", n.AppointmentID, n.PatientName)
	fmt.Fprintf(&b, "Consultation: %s\n", n.ConsultationID)
	fmt.Fprintf(&b, "Urgency: %s\n", n.Urgency)
	fmt.Fprintf(&b, "Primary condition: %s\n", condition)
	fmt.Fprintf(&b, "Booked at: %s\n", n.BookedAt.Format(time.RFC1123))

	return s.SendCustom(ctx, to, fmt.Sprintf("New appointment %s", n.AppointmentID), b.String())
}

func (s *smtpService) SendWelcome(ctx context.Context, email string, name string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour HealthTown patient account is ready.\n", name)
	return s.SendCustom(ctx, email, "Welcome to HealthTown", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	s.logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}

type nopService struct {
	logger *logger.Logger
}

// NewNopService logs instead of sending. Used when SMTP is not configured.
func NewNopService(log *logger.Logger) Service {
	return &nopService{logger: log}
}

func (n *nopService) SendAppointmentBooked(ctx context.Context, to string, notice AppointmentNotice) error {
	n.logger.Debug("email disabled, skipping booking notice", "to", to, "appointment_id", notice.AppointmentID)
	return nil
}

func (n *nopService) SendWelcome(ctx context.Context, email string, name string) error {
	n.logger.Debug("email disabled, skipping welcome", "to", email)
	return nil
}

func (n *nopService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	n.logger.Debug("email disabled, skipping message", "to", to, "subject", subject)
	return nil
}
