package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sonam-git/hscsonoma-backend/internal/config"
	"github.com/sonam-git/hscsonoma-backend/internal/mailer"
	"github.com/sonam-git/hscsonoma-backend/internal/metrics"
	"github.com/sonam-git/hscsonoma-backend/internal/sanitize"
	"github.com/sonam-git/hscsonoma-backend/internal/security"
)

// Pipeline errors
var (
	// ErrMailNotConfigured means the server cannot fulfill its promise of
	// delivering notifications; submissions are refused outright rather
	// than accepted and silently dropped.
	ErrMailNotConfigured = errors.New("mail transport is not configured")
	// ErrSecurityRejected covers every tripped security check. The handler
	// converts it into one generic client message.
	ErrSecurityRejected = errors.New("submission rejected by security checks")
)

// ValidationError carries the full list of field violations.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Service runs the submission pipeline: sanitize, screen, validate, notify.
type Service struct {
	validate  *validator.Validate
	checker   *security.Checker
	transport mailer.Transport
	mail      config.MailConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// ServiceConfig contains configuration for a forms Service.
type ServiceConfig struct {
	Checker   *security.Checker
	Transport mailer.Transport
	Mail      config.MailConfig
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// NewService creates a forms Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		validate:  newValidator(),
		checker:   cfg.Checker,
		transport: cfg.Transport,
		mail:      cfg.Mail,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SubmitContact runs a contact form submission through the pipeline.
func (s *Service) SubmitContact(ctx context.Context, clientIP string, req ContactRequest) error {
	if !s.mail.Configured() {
		s.metrics.RecordSubmission("contact", "failed")
		return ErrMailNotConfigured
	}

	req.Name = sanitize.Line(req.Name, 100)
	req.Email = sanitize.Email(req.Email)
	req.Phone = sanitize.Line(req.Phone, 20)
	req.Subject = sanitize.Line(req.Subject, 200)
	req.Message = sanitize.Text(req.Message, 5000)

	verdict := s.checker.Check(security.Input{
		ClientIP:  clientIP,
		Honeypot:  req.Honeypot,
		Timestamp: req.Timestamp,
		Token:     req.Token,
		Content:   req.Subject + " " + req.Message,
	})
	if !verdict.Passed {
		s.recordRejection("contact", verdict)
		return ErrSecurityRejected
	}

	if err := s.validate.Struct(req); err != nil {
		s.metrics.RecordSubmission("contact", "rejected_validation")
		return &ValidationError{Messages: validationMessages(err)}
	}

	sub := mailer.Submission{
		ID:         s.newID(),
		Form:       "contact",
		ClientIP:   clientIP,
		ReceivedAt: s.now(),
		Name:       req.Name,
		Email:      req.Email,
		Fields: []mailer.Field{
			{Label: "Name", Value: req.Name},
			{Label: "Email", Value: req.Email},
			{Label: "Phone", Value: req.Phone},
			{Label: "Subject", Value: req.Subject},
			{Label: "Message", Value: req.Message},
		},
	}

	if err := s.notify(ctx, sub); err != nil {
		s.metrics.RecordSubmission("contact", "failed")
		return err
	}

	s.metrics.RecordSubmission("contact", "accepted")
	s.logger.Info("contact submission accepted", "id", sub.ID, "ip", clientIP)
	return nil
}

// SubmitMembership runs a membership application through the pipeline.
func (s *Service) SubmitMembership(ctx context.Context, clientIP string, req MembershipRequest) error {
	if !s.mail.Configured() {
		s.metrics.RecordSubmission("membership", "failed")
		return ErrMailNotConfigured
	}

	req.FirstName = sanitize.Line(req.FirstName, 50)
	req.LastName = sanitize.Line(req.LastName, 50)
	req.Email = sanitize.Email(req.Email)
	req.Phone = sanitize.Line(req.Phone, 20)
	req.Address = sanitize.Line(req.Address, 200)
	req.City = sanitize.Line(req.City, 100)
	req.State = sanitize.Line(req.State, 50)
	req.ZipCode = sanitize.Line(req.ZipCode, 10)
	req.MembershipType = sanitize.Line(req.MembershipType, 20)
	req.Message = sanitize.Text(req.Message, 5000)
	for i, interest := range req.Interests {
		req.Interests[i] = sanitize.Line(interest, 100)
	}

	verdict := s.checker.Check(security.Input{
		ClientIP:  clientIP,
		Honeypot:  req.Honeypot,
		Timestamp: req.Timestamp,
		Token:     req.Token,
		Content:   req.Message + " " + strings.Join(req.Interests, " "),
	})
	if !verdict.Passed {
		s.recordRejection("membership", verdict)
		return ErrSecurityRejected
	}

	if err := s.validate.Struct(req); err != nil {
		s.metrics.RecordSubmission("membership", "rejected_validation")
		return &ValidationError{Messages: validationMessages(err)}
	}

	name := req.FirstName + " " + req.LastName
	sub := mailer.Submission{
		ID:         s.newID(),
		Form:       "membership",
		ClientIP:   clientIP,
		ReceivedAt: s.now(),
		Name:       name,
		Email:      req.Email,
		Fields: []mailer.Field{
			{Label: "Name", Value: name},
			{Label: "Email", Value: req.Email},
			{Label: "Phone", Value: req.Phone},
			{Label: "Address", Value: formatAddress(req)},
			{Label: "Membership type", Value: req.MembershipType},
			{Label: "Interests", Value: strings.Join(req.Interests, ", ")},
			{Label: "Volunteer interest", Value: strconv.FormatBool(req.VolunteerInterest)},
			{Label: "Message", Value: req.Message},
		},
	}

	if err := s.notify(ctx, sub); err != nil {
		s.metrics.RecordSubmission("membership", "failed")
		return err
	}

	s.metrics.RecordSubmission("membership", "accepted")
	s.logger.Info("membership submission accepted", "id", sub.ID, "ip", clientIP)
	return nil
}

// notify delivers the admin notification and the submitter auto-reply. Both
// must go out for the submission to count as accepted.
func (s *Service) notify(ctx context.Context, sub mailer.Submission) error {
	adminMsg, err := mailer.AdminNotification(s.mail.FromAddress, s.mail.AdminEmail, sub)
	if err != nil {
		return err
	}
	replyMsg, err := mailer.AutoReply(s.mail.FromAddress, sub)
	if err != nil {
		return err
	}

	for _, msg := range []*mailer.Message{adminMsg, replyMsg} {
		start := time.Now()
		if err := s.transport.Send(ctx, msg); err != nil {
			s.metrics.RecordEmail("failed", time.Since(start))
			return fmt.Errorf("delivering notification for submission %s: %w", sub.ID, err)
		}
		s.metrics.RecordEmail("sent", time.Since(start))
	}
	return nil
}

func (s *Service) recordRejection(form string, verdict security.Verdict) {
	s.metrics.RecordSubmission(form, "rejected_security")
	for _, reason := range verdict.Reasons {
		s.metrics.RecordSecurityRejection(reason)
	}
}

func formatAddress(req MembershipRequest) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{req.Address, req.City, req.State, req.ZipCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
