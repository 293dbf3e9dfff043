// Package forms implements the guarded submission pipeline behind the
// public contact and membership endpoints: sanitize, screen, validate,
// notify.
package forms

import "time"

// ContactRequest is the payload of a contact form submission. The
// underscore-prefixed fields are the anti-spam plumbing the frontend fills
// in; they never appear in notification emails.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`

	Honeypot  string `json:"_honeypot"`
	Timestamp string `json:"_timestamp"`
	Token     string `json:"_token"`
}

// MembershipRequest is the payload of a membership application.
type MembershipRequest struct {
	FirstName         string   `json:"firstName" validate:"required,min=2,max=50"`
	LastName          string   `json:"lastName" validate:"required,min=2,max=50"`
	Email             string   `json:"email" validate:"required,email,max=254"`
	Phone             string   `json:"phone" validate:"required,phone"`
	Address           string   `json:"address" validate:"omitempty,max=200"`
	City              string   `json:"city" validate:"omitempty,max=100"`
	State             string   `json:"state" validate:"omitempty,max=50"`
	ZipCode           string   `json:"zipCode" validate:"omitempty,zipcode"`
	MembershipType    string   `json:"membershipType" validate:"required,oneof=individual family student senior lifetime"`
	Interests         []string `json:"interests" validate:"omitempty,max=10,dive,max=100"`
	VolunteerInterest bool     `json:"volunteerInterest"`
	Message           string   `json:"message" validate:"omitempty,max=5000"`

	Honeypot  string `json:"_honeypot"`
	Timestamp string `json:"_timestamp"`
	Token     string `json:"_token"`
}

// APIResponse is the JSON envelope every form endpoint returns.
type APIResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
