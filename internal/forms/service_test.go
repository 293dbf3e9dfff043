package forms

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sonam-git/hscsonoma-backend/internal/config"
	"github.com/sonam-git/hscsonoma-backend/internal/mailer"
	"github.com/sonam-git/hscsonoma-backend/internal/security"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (f *fakeTransport) Send(_ context.Context, msg *mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

var testMail = config.MailConfig{
	SMTPHost:    "smtp.example.org",
	SMTPPort:    "587",
	SMTPUser:    "mailer",
	SMTPPass:    "hunter2",
	FromAddress: "noreply@hscsonoma.org",
	AdminEmail:  "admin@hscsonoma.org",
	SendTimeout: time.Second,
}

func newTestService(t *testing.T, transport mailer.Transport, limiter security.Limiter) *Service {
	t.Helper()
	checker := security.NewChecker(security.CheckerConfig{
		MinFillTime:  1500 * time.Millisecond,
		Limiter:      limiter,
		MaxURLs:      3,
		SpamKeywords: []string{"casino"},
	})
	return NewService(ServiceConfig{
		Checker:   checker,
		Transport: transport,
		Mail:      testMail,
	})
}

// renderedAgo fakes a client render timestamp d in the past.
func renderedAgo(d time.Duration) string {
	return strconv.FormatInt(time.Now().Add(-d).UnixMilli(), 10)
}

func validContact() ContactRequest {
	return ContactRequest{
		Name:      "Pema Sherpa",
		Email:     "pema@example.org",
		Subject:   "Momo night",
		Message:   "Is the community momo night still on for Saturday?",
		Timestamp: renderedAgo(5 * time.Second),
	}
}

func validMembership() MembershipRequest {
	return MembershipRequest{
		FirstName:      "Pema",
		LastName:       "Sherpa",
		Email:          "pema@example.org",
		Phone:          "(707) 555-0134",
		City:           "Sonoma",
		State:          "CA",
		ZipCode:        "95476",
		MembershipType: "family",
		Interests:      []string{"cultural events", "language classes"},
		Timestamp:      renderedAgo(5 * time.Second),
	}
}

func TestSubmitContact_SendsExactlyTwoEmails(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport, allowAll{})

	if err := svc.SubmitContact(context.Background(), "203.0.113.7", validContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}

	if transport.count() != 2 {
		t.Fatalf("sent %d emails, want exactly 2", transport.count())
	}
	admin, reply := transport.sent[0], transport.sent[1]
	if admin.To[0] != "admin@hscsonoma.org" {
		t.Fatalf("first email went to %v, want the administrator", admin.To)
	}
	if reply.To[0] != "pema@example.org" {
		t.Fatalf("second email went to %v, want the submitter", reply.To)
	}
	if !strings.Contains(admin.Text, "203.0.113.7") {
		t.Fatal("admin notification should include the client IP")
	}
}

func TestSubmitContact_MailNotConfigured(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport, allowAll{})
	svc.mail = config.MailConfig{}

	// Even a submission that would fail validation gets the configuration
	// error; nothing downstream runs.
	err := svc.SubmitContact(context.Background(), "203.0.113.7", ContactRequest{Email: "bad"})
	if !errors.Is(err, ErrMailNotConfigured) {
		t.Fatalf("err = %v, want ErrMailNotConfigured", err)
	}
	if transport.count() != 0 {
		t.Fatal("no email should be sent")
	}
}

func TestSubmitContact_HoneypotRejected(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport, allowAll{})

	req := validContact()
	req.Honeypot = "http://spam.example"

	err := svc.SubmitContact(context.Background(), "203.0.113.7", req)
	if !errors.Is(err, ErrSecurityRejected) {
		t.Fatalf("err = %v, want ErrSecurityRejected", err)
	}
	if transport.count() != 0 {
		t.Fatal("no email should be sent")
	}
}

func TestSubmitContact_TooFastRejected(t *testing.T) {
	svc := newTestService(t, &fakeTransport{}, allowAll{})

	req := validContact()
	req.Timestamp = renderedAgo(200 * time.Millisecond)

	if err := svc.SubmitContact(context.Background(), "203.0.113.7", req); !errors.Is(err, ErrSecurityRejected) {
		t.Fatalf("err = %v, want ErrSecurityRejected", err)
	}
}

func TestSubmitContact_AllViolationsReported(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport, allowAll{})

	req := ContactRequest{
		Name:      "A",
		Email:     "bad",
		Subject:   "",
		Message:   "short",
		Timestamp: renderedAgo(5 * time.Second),
	}

	err := svc.SubmitContact(context.Background(), "203.0.113.7", req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Messages) != 4 {
		t.Fatalf("got %d violations %v, want 4", len(verr.Messages), verr.Messages)
	}
	if transport.count() != 0 {
		t.Fatal("no email should be sent")
	}
}

func TestSubmitContact_SendFailure(t *testing.T) {
	transport := &fakeTransport{err: errors.New("smtp unreachable")}
	svc := newTestService(t, transport, allowAll{})

	err := svc.SubmitContact(context.Background(), "203.0.113.7", validContact())
	if err == nil || errors.Is(err, ErrSecurityRejected) {
		t.Fatalf("err = %v, want delivery error", err)
	}
}

func TestSubmitContact_SanitizesBeforeNotify(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport, allowAll{})

	req := validContact()
	req.Name = "Pema <script>alert(1)</script>Sherpa"
	req.Message = "Tea & momos at the festival? I would love to join this time."

	if err := svc.SubmitContact(context.Background(), "203.0.113.7", req); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}

	admin := transport.sent[0]
	if strings.Contains(admin.HTML, "<script>") {
		t.Fatalf("tags leaked into the admin email:\n%s", admin.HTML)
	}
	if !strings.Contains(admin.HTML, "Tea &amp; momos") {
		t.Fatalf("message should appear escaped once in the HTML body:\n%s", admin.HTML)
	}
	if !strings.Contains(admin.Text, "Tea & momos") {
		t.Fatalf("message should appear decoded in the text body:\n%s", admin.Text)
	}
}

func TestSubmitMembership_Valid(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport, allowAll{})

	if err := svc.SubmitMembership(context.Background(), "203.0.113.7", validMembership()); err != nil {
		t.Fatalf("SubmitMembership: %v", err)
	}
	if transport.count() != 2 {
		t.Fatalf("sent %d emails, want exactly 2", transport.count())
	}
	admin := transport.sent[0]
	if !strings.Contains(admin.Text, "family") {
		t.Fatal("admin notification should include the membership type")
	}
	if !strings.Contains(admin.Text, "Sonoma, CA, 95476") {
		t.Fatalf("admin notification should include the formatted address:\n%s", admin.Text)
	}
}

func TestSubmitMembership_BadZipCode(t *testing.T) {
	transport := &fakeTransport{}
	svc := newTestService(t, transport, allowAll{})

	req := validMembership()
	req.ZipCode = "9547"

	err := svc.SubmitMembership(context.Background(), "203.0.113.7", req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	found := false
	for _, msg := range verr.Messages {
		if strings.Contains(msg, "ZIP") {
			found = true
		}
	}
	if !found {
		t.Fatalf("violations %v should mention the ZIP code", verr.Messages)
	}
	if transport.count() != 0 {
		t.Fatal("no email should be sent")
	}
}

func TestSubmitMembership_BadMembershipType(t *testing.T) {
	svc := newTestService(t, &fakeTransport{}, allowAll{})

	req := validMembership()
	req.MembershipType = "platinum"

	err := svc.SubmitMembership(context.Background(), "203.0.113.7", req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if !strings.Contains(strings.Join(verr.Messages, " "), "individual") {
		t.Fatalf("violations %v should list the allowed membership types", verr.Messages)
	}
}

func TestSubmit_RateLimitAcrossForms(t *testing.T) {
	transport := &fakeTransport{}
	limiter := security.NewMemoryLimiter(5, time.Minute)
	svc := newTestService(t, transport, limiter)

	for i := 0; i < 5; i++ {
		if err := svc.SubmitContact(context.Background(), "203.0.113.7", validContact()); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}

	// Sixth submission from the same address is rejected even on the other
	// form; the limit is per client, not per endpoint.
	err := svc.SubmitMembership(context.Background(), "203.0.113.7", validMembership())
	if !errors.Is(err, ErrSecurityRejected) {
		t.Fatalf("err = %v, want ErrSecurityRejected", err)
	}

	// A different address is unaffected.
	if err := svc.SubmitContact(context.Background(), "198.51.100.2", validContact()); err != nil {
		t.Fatalf("other address: %v", err)
	}
}
