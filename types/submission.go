package types

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType is the kind of event an inquiry is about.
type EventType string

const (
	EventTypeWedding     EventType = "wedding"
	EventTypeBirthday    EventType = "birthday"
	EventTypeCorporate   EventType = "corporate"
	EventTypeAnniversary EventType = "anniversary"
	EventTypeOther       EventType = "other"
)

// EventTypes lists every accepted event type.
var EventTypes = []EventType{
	EventTypeWedding,
	EventTypeBirthday,
	EventTypeCorporate,
	EventTypeAnniversary,
	EventTypeOther,
}

// Valid reports whether e is one of EventTypes.
func (e EventType) Valid() bool {
	for _, t := range EventTypes {
		if e == t {
			return true
		}
	}
	return false
}

// Title returns the display form used in emails, e.g. "Wedding".
func (e EventType) Title() string {
	s := string(e)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ContactRequest is the raw JSON body of POST /api/contact. GuestCount is
// kept raw because clients send it either as a number or as a string.
type ContactRequest struct {
	FullName   string          `json:"fullName"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	EventType  string          `json:"eventType"`
	EventDate  string          `json:"eventDate"`
	GuestCount json.RawMessage `json:"guestCount"`
	Message    string          `json:"message"`
}

// Submission is one stored contact inquiry. Optional columns are nil when
// the submitter left them empty.
type Submission struct {
	ID         int64      `json:"id"`
	FullName   string     `json:"full_name"`
	Email      string     `json:"email"`
	Phone      *string    `json:"phone"`
	EventType  EventType  `json:"event_type"`
	EventDate  *time.Time `json:"event_date"`
	GuestCount *string    `json:"guest_count"`
	Message    *string    `json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ContactResponse is returned by POST /api/contact on success.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// LoginRequest is the body of POST /api/admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the admin token.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// SubmissionListResponse is returned by GET /api/admin/submissions.
type SubmissionListResponse struct {
	Success     bool         `json:"success"`
	Submissions []Submission `json:"submissions"`
	Count       int          `json:"count"`
}

// MessageResponse is a generic success acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse documents the error body rendered by the error handler.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
